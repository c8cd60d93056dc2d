package core

import (
	"fmt"
	"time"

	"attendance.service/internal/core/model"
)

// Precedence decides which label wins on a closed record that is both late and overtime.
type Precedence string

const (
	OvertimeFirst Precedence = "overtime_first"
	LateFirst     Precedence = "late_first"
)

// ParsePrecedence accepts the configured rule name.
func ParsePrecedence(s string) (Precedence, error) {
	switch Precedence(s) {
	case OvertimeFirst, LateFirst:
		return Precedence(s), nil
	case "":
		return OvertimeFirst, nil
	}
	return "", fmt.Errorf("unknown status precedence %q", s)
}

// Schedule holds the organization settings the recorder and classifier depend on.
type Schedule struct {
	// Start and End are offsets from midnight in Location.
	Start                    time.Duration
	End                      time.Duration
	GraceMinutes             int
	BreakMinutes             int
	MaxOvertimeHours         float64
	OvertimeToleranceMinutes int
	Precedence               Precedence
	Location                 *time.Location
}

// ParseClock parses an "HH:MM" time of day into an offset from midnight.
func ParseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// ShiftHours is the nominal shift length. An end at or before the start is a shift ending the next day.
func (s Schedule) ShiftHours() float64 {
	d := s.End - s.Start
	if d <= 0 {
		d += 24 * time.Hour
	}
	return d.Hours()
}

// PayableOvertime is the overtime of a shift worked for totalHours, capped at MaxOvertimeHours
// when a cap is set.
func (s Schedule) PayableOvertime(totalHours float64) float64 {
	overtime := OvertimeHours(totalHours, s.ShiftHours())
	if s.MaxOvertimeHours > 0 {
		overtime = min(overtime, roundHours(s.MaxOvertimeHours))
	}
	return overtime
}

// Loc returns the business timezone, UTC when unset.
func (s Schedule) Loc() *time.Location {
	if s.Location == nil {
		return time.UTC
	}
	return s.Location
}

// WorkDate returns the work date an instant falls on in the business timezone.
func (s Schedule) WorkDate(at time.Time) time.Time {
	return model.DateOf(at, s.Loc())
}

// ScheduledStart is the start of the shift on workDate, in the business timezone.
func (s Schedule) ScheduledStart(workDate time.Time) time.Time {
	y, m, d := workDate.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.Loc()).Add(s.Start)
}

// Classifier derives record statuses from timestamps and the schedule.
type Classifier struct {
	schedule Schedule
}

func NewClassifier(schedule Schedule) Classifier {
	if schedule.Precedence == "" {
		schedule.Precedence = OvertimeFirst
	}
	return Classifier{schedule: schedule}
}

// IsLate reports whether checkIn is after the scheduled start plus the grace period.
func (c Classifier) IsLate(workDate, checkIn time.Time) bool {
	limit := c.schedule.ScheduledStart(workDate).Add(time.Duration(c.schedule.GraceMinutes) * time.Minute)
	return checkIn.After(limit)
}

// IsOvertime reports whether totalHours exceeds the nominal shift by more than the tolerance.
// The max overtime cap does not affect classification.
func (c Classifier) IsOvertime(totalHours float64) bool {
	tolerance := float64(c.schedule.OvertimeToleranceMinutes) / 60
	return totalHours > c.schedule.ShiftHours()+tolerance
}

// Classify returns the status of r as of today (a work date in the business timezone).
func (c Classifier) Classify(r *model.AttendanceRecord, today time.Time) model.Status {
	if r.CheckOutTime == nil && r.WorkDate.Before(today) {
		return model.StatusIncomplete
	}
	if r.CheckInTime == nil {
		return model.StatusPresent
	}

	late := c.IsLate(r.WorkDate, *r.CheckInTime)
	if r.CheckOutTime == nil {
		if late {
			return model.StatusLate
		}
		return model.StatusPresent
	}

	overtime := c.IsOvertime(r.TotalHours)
	switch {
	case late && overtime:
		if c.schedule.Precedence == LateFirst {
			return model.StatusLate
		}
		return model.StatusOvertime
	case late:
		return model.StatusLate
	case overtime:
		return model.StatusOvertime
	}
	return model.StatusPresent
}
