package report

import (
	"context"
	"fmt"

	"attendance.service/internal/core"
	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/directory"
	"attendance.service/internal/ports/repository"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Query selects the records of a report. An empty Department means all departments.
type Query struct {
	Range      Range
	Department string
}

// Report is the dashboard payload for a range.
type Report struct {
	Daily      []DailyCount      `json:"daily"`
	Department []DepartmentCount `json:"department"`
	Hourly     [24]int           `json:"hourly"`
	Status     StatusCounts      `json:"status"`
}

type Service struct {
	repo       repository.Repository
	directory  directory.Directory
	clock      core.Clock
	schedule   core.Schedule
	classifier core.Classifier
	workdays   Workdays
}

func NewService(repo repository.Repository, dir directory.Directory, clock core.Clock, schedule core.Schedule, workdays Workdays) *Service {
	if clock == nil {
		clock = core.RealClock{}
	}
	if len(workdays) == 0 {
		workdays = DefaultWorkdays()
	}
	return &Service{
		repo:       repo,
		directory:  dir,
		clock:      clock,
		schedule:   schedule,
		classifier: core.NewClassifier(schedule),
		workdays:   workdays,
	}
}

// AttendanceReport fetches the records of q.Range and the employee directory in parallel
// and folds them into the dashboard series. Without a department filter a directory outage
// only degrades the department series to "Unknown".
func (s *Service) AttendanceReport(ctx context.Context, q Query) (*Report, error) {
	var (
		records   []model.AttendanceRecord
		employees []directory.Employee
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		records, err = s.repo.ListByDateRange(gCtx, q.Range.Start, q.Range.End, "")
		if err != nil {
			return fmt.Errorf("failed to load attendance records: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if s.directory == nil {
			return nil
		}
		var err error
		employees, err = s.directory.List(gCtx)
		if err != nil {
			if q.Department != "" {
				return fmt.Errorf("failed to load employee directory: %w", err)
			}
			log.Ctx(ctx).Warn().Err(err).Msg("Employee directory unavailable, reporting departments as unknown")
			employees = nil
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	index := directory.Index(employees)
	lookup := LookupFrom(index)

	today := s.schedule.WorkDate(s.clock.Now())
	selected := make([]model.AttendanceRecord, 0, len(records))
	for _, rec := range records {
		if q.Department != "" && departmentOf(lookup, rec.EmployeeID) != q.Department {
			continue
		}
		if rec.CheckOutTime == nil {
			rec.Status = s.classifier.Classify(&rec, today)
		}
		selected = append(selected, rec)
	}

	expected := make([]string, 0, len(employees))
	for _, e := range employees {
		if q.Department == "" || e.DepartmentOf() == q.Department {
			expected = append(expected, e.ID)
		}
	}

	// Days after today cannot be missed yet.
	absentRange := q.Range
	if absentRange.End.After(today) {
		absentRange.End = today
	}
	if absentRange.End.Before(absentRange.Start) {
		expected = nil
		absentRange.End = absentRange.Start
	}

	return &Report{
		Daily:      DailyCounts(selected, q.Range),
		Department: DepartmentSeries(DepartmentDistribution(selected, lookup)),
		Hourly:     HourlyDistribution(selected, s.schedule.Loc()),
		Status:     StatusBreakdown(selected, absentRange, expected, s.workdays),
	}, nil
}

func departmentOf(lookup DepartmentLookup, employeeID string) string {
	if d := lookup(employeeID); d != "" {
		return d
	}
	return directory.UnknownDepartment
}

// EmployeeStats returns the hours summary of one employee as of now.
func (s *Service) EmployeeStats(ctx context.Context, employeeID string) (Stats, error) {
	now := s.clock.Now()
	window := StatsWindow(now, s.schedule)

	records, err := s.repo.ListByDateRange(ctx, window.Start, window.End, employeeID)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to load attendance records: %w", err)
	}
	return ComputeStats(records, now, s.schedule), nil
}
