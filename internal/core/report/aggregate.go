package report

import (
	"sort"
	"time"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/directory"
)

// MaxRangeDays bounds a report query.
const MaxRangeDays = 366

// Range is an inclusive span of work dates.
type Range struct {
	Start time.Time
	End   time.Time
}

// NewRange validates a report range. Both ends are truncated to their calendar date.
func NewRange(start, end time.Time) (Range, error) {
	r := Range{Start: model.DateOf(start, time.UTC), End: model.DateOf(end, time.UTC)}
	if r.End.Before(r.Start) || r.Days() > MaxRangeDays {
		return Range{}, model.ErrInvalidRange
	}
	return r, nil
}

// ParseRange builds a Range from two YYYY-MM-DD strings.
func ParseRange(start, end string) (Range, error) {
	s, err := model.ParseDate(start)
	if err != nil {
		return Range{}, model.ErrInvalidRange
	}
	e, err := model.ParseDate(end)
	if err != nil {
		return Range{}, model.ErrInvalidRange
	}
	return NewRange(s, e)
}

// Days is the number of calendar days covered.
func (r Range) Days() int {
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

// Contains reports whether the work date d falls in the range.
func (r Range) Contains(d time.Time) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

func (r Range) each(fn func(day time.Time)) {
	for d := r.Start; !d.After(r.End); d = d.AddDate(0, 0, 1) {
		fn(d)
	}
}

type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// DailyCounts returns one entry per day of r in ascending order, zero-filled.
func DailyCounts(records []model.AttendanceRecord, r Range) []DailyCount {
	byDay := make(map[string]int)
	for _, rec := range records {
		if r.Contains(rec.WorkDate) {
			byDay[model.FormatDate(rec.WorkDate)]++
		}
	}

	out := make([]DailyCount, 0, r.Days())
	r.each(func(day time.Time) {
		key := model.FormatDate(day)
		out = append(out, DailyCount{Date: key, Count: byDay[key]})
	})
	return out
}

// HourlyDistribution buckets check-ins by hour of day in loc.
func HourlyDistribution(records []model.AttendanceRecord, loc *time.Location) [24]int {
	if loc == nil {
		loc = time.UTC
	}
	var out [24]int
	for _, rec := range records {
		if rec.CheckInTime == nil {
			continue
		}
		out[rec.CheckInTime.In(loc).Hour()]++
	}
	return out
}

// DepartmentLookup returns the department of an employee, "" when unknown.
type DepartmentLookup func(employeeID string) string

// LookupFrom adapts a directory index.
func LookupFrom(index map[string]directory.Employee) DepartmentLookup {
	return func(employeeID string) string {
		return index[employeeID].Department
	}
}

// DepartmentDistribution counts records per department. Unknown departments are counted under "Unknown".
func DepartmentDistribution(records []model.AttendanceRecord, lookup DepartmentLookup) map[string]int {
	out := make(map[string]int)
	for _, rec := range records {
		dept := ""
		if lookup != nil {
			dept = lookup(rec.EmployeeID)
		}
		if dept == "" {
			dept = directory.UnknownDepartment
		}
		out[dept]++
	}
	return out
}

type DepartmentCount struct {
	Department string `json:"department"`
	Count      int    `json:"count"`
}

// DepartmentSeries orders a distribution by count descending, then name ascending.
func DepartmentSeries(dist map[string]int) []DepartmentCount {
	out := make([]DepartmentCount, 0, len(dist))
	for dept, n := range dist {
		out = append(out, DepartmentCount{Department: dept, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Department < out[j].Department
	})
	return out
}

type StatusCounts struct {
	Present    int `json:"present"`
	Late       int `json:"late"`
	Overtime   int `json:"overtime"`
	Incomplete int `json:"incomplete"`
	Absent     int `json:"absent"`
}

// Workdays is the set of weekdays employees are expected to attend.
type Workdays map[time.Weekday]bool

// DefaultWorkdays is Monday to Friday.
func DefaultWorkdays() Workdays {
	return Workdays{
		time.Monday: true, time.Tuesday: true, time.Wednesday: true,
		time.Thursday: true, time.Friday: true,
	}
}

// StatusBreakdown counts records by their derived status. Absent is the number of
// (employee, workday) pairs in r for the expected employees that have no record.
func StatusBreakdown(records []model.AttendanceRecord, r Range, expected []string, workdays Workdays) StatusCounts {
	var out StatusCounts
	seen := make(map[string]map[string]bool)
	for _, rec := range records {
		switch rec.Status {
		case model.StatusLate:
			out.Late++
		case model.StatusOvertime:
			out.Overtime++
		case model.StatusIncomplete:
			out.Incomplete++
		default:
			out.Present++
		}
		day := model.FormatDate(rec.WorkDate)
		if seen[rec.EmployeeID] == nil {
			seen[rec.EmployeeID] = make(map[string]bool)
		}
		seen[rec.EmployeeID][day] = true
	}

	r.each(func(day time.Time) {
		if !workdays[day.Weekday()] {
			return
		}
		key := model.FormatDate(day)
		for _, id := range expected {
			if !seen[id][key] {
				out.Absent++
			}
		}
	})
	return out
}
