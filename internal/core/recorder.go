package core

import (
	"context"
	"fmt"
	"time"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/messaging"
	"attendance.service/internal/ports/repository"
	"github.com/rs/zerolog/log"
)

const (
	DefaultRecentLimit = 10
	MaxRecentLimit     = 100
)

// CheckInCommand asks to open the attendance record of EmployeeID for the work date of At.
type CheckInCommand struct {
	EmployeeID string
	At         time.Time
	// Override reopens an existing record for the day instead of failing with ErrAlreadyCheckedIn.
	Override  bool
	Actor     string
	Location  string
	IPAddress string
	Notes     string
}

// CheckOutCommand closes the most recent open record of EmployeeID.
type CheckOutCommand struct {
	EmployeeID string
	At         time.Time
	Actor      string
}

// QuickCheckoutCommand is the administrative checkout of an explicit record.
type QuickCheckoutCommand struct {
	RecordID int64
	At       time.Time
	Actor    string
}

// Recorder is the attendance state machine. Transitions of one employee are serialized;
// different employees never wait on each other.
type Recorder struct {
	repo       repository.Repository
	publisher  messaging.EventPublisher
	clock      Clock
	schedule   Schedule
	classifier Classifier
	locks      *KeyedMutex
}

// NewRecorder wires the recorder to its store, the checkout event publisher and the organization schedule.
// A nil publisher disables checkout events.
func NewRecorder(repo repository.Repository, publisher messaging.EventPublisher, clock Clock, schedule Schedule) *Recorder {
	if clock == nil {
		clock = RealClock{}
	}
	return &Recorder{
		repo:       repo,
		publisher:  publisher,
		clock:      clock,
		schedule:   schedule,
		classifier: NewClassifier(schedule),
		locks:      NewKeyedMutex(),
	}
}

func (s *Recorder) today() time.Time {
	return s.schedule.WorkDate(s.clock.Now())
}

func (s *Recorder) audit(rec model.AttendanceRecord, actor string, action model.AuditAction, from, to model.RecordState, at time.Time) model.AuditEntry {
	if actor == "" {
		actor = rec.EmployeeID
	}
	return model.AuditEntry{
		RecordID:   rec.ID,
		EmployeeID: rec.EmployeeID,
		Actor:      actor,
		Action:     action,
		FromState:  from,
		ToState:    to,
		At:         at,
		RecordedAt: s.clock.Now(),
	}
}

// CheckIn opens the record for the work date of cmd.At. A second check-in on the same
// work date fails with ErrAlreadyCheckedIn unless cmd.Override is set.
func (s *Recorder) CheckIn(ctx context.Context, cmd CheckInCommand) (model.AttendanceRecord, error) {
	unlock := s.locks.Lock(cmd.EmployeeID)
	defer unlock()

	at := cmd.At
	rec := model.AttendanceRecord{
		EmployeeID:  cmd.EmployeeID,
		WorkDate:    s.schedule.WorkDate(at),
		CheckInTime: &at,
		Location:    cmd.Location,
		IPAddress:   cmd.IPAddress,
		Notes:       cmd.Notes,
	}
	rec.Status = s.classifier.Classify(&rec, s.today())

	if cmd.Override {
		existing, err := s.repo.FindByEmployeeAndDate(ctx, cmd.EmployeeID, rec.WorkDate)
		if err != nil {
			return model.AttendanceRecord{}, fmt.Errorf("failed to look up attendance record: %w", err)
		}
		if existing != nil {
			return s.reopen(ctx, *existing, rec, cmd)
		}
	}

	entry := s.audit(rec, cmd.Actor, model.ActionCheckIn, model.StateNotStarted, model.StateCheckedIn, at)
	stored, created, err := s.repo.CreateCheckIn(ctx, rec, entry)
	if err != nil {
		return model.AttendanceRecord{}, fmt.Errorf("failed to create check-in record: %w", err)
	}
	if !created {
		return model.AttendanceRecord{}, model.ErrAlreadyCheckedIn
	}

	log.Ctx(ctx).Info().
		Str("employee_id", stored.EmployeeID).
		Int64("record_id", stored.ID).
		Str("work_date", model.FormatDate(stored.WorkDate)).
		Msg("Employee checked in")
	return stored, nil
}

func (s *Recorder) reopen(ctx context.Context, existing, rec model.AttendanceRecord, cmd CheckInCommand) (model.AttendanceRecord, error) {
	from := existing.State()
	existing.CheckInTime = rec.CheckInTime
	existing.CheckOutTime = nil
	existing.TotalHours = 0
	existing.Status = rec.Status
	existing.Location = rec.Location
	existing.IPAddress = rec.IPAddress
	existing.Notes = rec.Notes

	entry := s.audit(existing, cmd.Actor, model.ActionCheckInOverride, from, model.StateCheckedIn, cmd.At)
	if err := s.repo.ReopenCheckIn(ctx, existing, entry); err != nil {
		return model.AttendanceRecord{}, fmt.Errorf("failed to reopen attendance record: %w", err)
	}

	log.Ctx(ctx).Warn().
		Str("employee_id", existing.EmployeeID).
		Int64("record_id", existing.ID).
		Str("from_state", string(from)).
		Msg("Attendance record reopened by override")
	return existing, nil
}

// CheckOut closes the employee's most recent open record, whatever its work date, so an
// overnight shift stays filed under the day it started.
func (s *Recorder) CheckOut(ctx context.Context, cmd CheckOutCommand) (model.AttendanceRecord, error) {
	unlock := s.locks.Lock(cmd.EmployeeID)
	defer unlock()

	open, err := s.repo.FindOpenRecord(ctx, cmd.EmployeeID)
	if err != nil {
		return model.AttendanceRecord{}, fmt.Errorf("failed to query open record: %w", err)
	}
	if open == nil {
		return model.AttendanceRecord{}, model.ErrNotCheckedIn
	}
	return s.close(ctx, *open, cmd.At, cmd.Actor, model.ActionCheckOut, true)
}

// QuickCheckout closes an explicit record on behalf of an administrator. It also rewrites the
// check-out of a record that is already closed.
func (s *Recorder) QuickCheckout(ctx context.Context, cmd QuickCheckoutCommand) (model.AttendanceRecord, error) {
	rec, err := s.repo.GetByID(ctx, cmd.RecordID)
	if err != nil {
		return model.AttendanceRecord{}, err
	}

	unlock := s.locks.Lock(rec.EmployeeID)
	defer unlock()

	// Re-read under the lock so the transition starts from the committed state.
	rec, err = s.repo.GetByID(ctx, cmd.RecordID)
	if err != nil {
		return model.AttendanceRecord{}, err
	}
	if rec.CheckInTime == nil {
		return model.AttendanceRecord{}, model.ErrNotCheckedIn
	}
	return s.close(ctx, *rec, cmd.At, cmd.Actor, model.ActionQuickCheckout, false)
}

func (s *Recorder) close(ctx context.Context, rec model.AttendanceRecord, at time.Time, actor string, action model.AuditAction, onlyIfOpen bool) (model.AttendanceRecord, error) {
	if at.Before(rec.CheckInTime.Add(time.Minute)) {
		return model.AttendanceRecord{}, model.ErrInvalidDuration
	}

	from := rec.State()
	rec.CheckOutTime = &at
	rec.TotalHours = ComputeHours(*rec.CheckInTime, at, s.schedule.BreakMinutes)
	rec.Status = s.classifier.Classify(&rec, s.today())

	entry := s.audit(rec, actor, action, from, model.StateCheckedOut, at)
	if err := s.repo.CompleteCheckOut(ctx, rec, entry, onlyIfOpen); err != nil {
		return model.AttendanceRecord{}, err
	}

	log.Ctx(ctx).Info().
		Str("employee_id", rec.EmployeeID).
		Int64("record_id", rec.ID).
		Str("action", string(action)).
		Float64("total_hours", rec.TotalHours).
		Str("status", string(rec.Status)).
		Msg("Employee checked out")

	s.publishCheckedOut(ctx, rec)
	return rec, nil
}

// publishCheckedOut triggers the payroll export and summary email. The record is already
// committed, so failures are logged and left to reconciliation.
func (s *Recorder) publishCheckedOut(ctx context.Context, rec model.AttendanceRecord) {
	if s.publisher == nil {
		return
	}
	workDate := model.FormatDate(rec.WorkDate)

	if err := s.publisher.PublishCheckedOut(ctx, messaging.CheckedOutEvent{
		RecordID:      rec.ID,
		EmployeeID:    rec.EmployeeID,
		WorkDate:      workDate,
		TotalHours:    rec.TotalHours,
		OvertimeHours: s.schedule.PayableOvertime(rec.TotalHours),
		Status:        string(rec.Status),
		CheckOutTime:  *rec.CheckOutTime,
	}); err != nil {
		log.Ctx(ctx).Error().Err(err).Int64("record_id", rec.ID).Msg("Failed to publish check-out event")
	}

	if err := s.publisher.PublishEmail(ctx, messaging.EmailEvent{
		RecordID:   rec.ID,
		EmployeeID: rec.EmployeeID,
		WorkDate:   workDate,
		TotalHours: rec.TotalHours,
		OccurredAt: s.clock.Now(),
	}); err != nil {
		log.Ctx(ctx).Error().Err(err).Int64("record_id", rec.ID).Msg("Failed to publish email event")
	}
}

// withStatus re-derives the status of open records, which changes once their work date has passed.
func (s *Recorder) withStatus(rec model.AttendanceRecord, today time.Time) model.AttendanceRecord {
	if rec.CheckOutTime == nil {
		rec.Status = s.classifier.Classify(&rec, today)
	}
	return rec
}

// Get returns a single record by id.
func (s *Recorder) Get(ctx context.Context, id int64) (model.AttendanceRecord, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return model.AttendanceRecord{}, err
	}
	return s.withStatus(*rec, s.today()), nil
}

// Recent returns the newest records of an employee first. limit is clamped to [1, MaxRecentLimit].
func (s *Recorder) Recent(ctx context.Context, employeeID string, limit int) ([]model.AttendanceRecord, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	limit = min(limit, MaxRecentLimit)

	records, err := s.repo.ListRecent(ctx, employeeID, limit)
	if err != nil {
		return nil, err
	}
	today := s.today()
	for i := range records {
		records[i] = s.withStatus(records[i], today)
	}
	return records, nil
}

// Audit returns the transitions recorded for a record, oldest first.
func (s *Recorder) Audit(ctx context.Context, recordID int64) ([]model.AuditEntry, error) {
	if _, err := s.repo.GetByID(ctx, recordID); err != nil {
		return nil, err
	}
	return s.repo.ListAudit(ctx, recordID)
}
