package report

import (
	"math"
	"time"

	"attendance.service/internal/core"
	"attendance.service/internal/core/model"
)

// Stats is the hours summary of one employee.
type Stats struct {
	TodayHours     float64 `json:"today_hours"`
	ThisWeekHours  float64 `json:"this_week_hours"`
	ThisMonthHours float64 `json:"this_month_hours"`
	OvertimeHours  float64 `json:"overtime_hours"`
}

// WeekStart returns the Monday of the ISO week containing the work date day.
func WeekStart(day time.Time) time.Time {
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// MonthStart returns the first day of the month of day.
func MonthStart(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// StatsWindow is the earliest work date ComputeStats looks at for now.
func StatsWindow(now time.Time, schedule core.Schedule) Range {
	today := schedule.WorkDate(now)
	start := WeekStart(today)
	if m := MonthStart(today); m.Before(start) {
		start = m
	}
	return Range{Start: start, End: today}
}

// ComputeStats sums the hours of one employee's records for today, the current ISO week and
// the current month. Today's open record counts up to now; older open records count nothing.
// Overtime is summed over the month's closed records.
func ComputeStats(records []model.AttendanceRecord, now time.Time, schedule core.Schedule) Stats {
	today := schedule.WorkDate(now)
	weekStart := WeekStart(today)
	monthStart := MonthStart(today)
	shift := schedule.ShiftHours()

	var out Stats
	for _, rec := range records {
		if rec.WorkDate.After(today) {
			continue
		}

		hours := rec.TotalHours
		if rec.IsOpen() {
			hours = 0
			if rec.WorkDate.Equal(today) {
				hours = core.ComputeHours(*rec.CheckInTime, now, schedule.BreakMinutes)
			}
		}

		if rec.WorkDate.Equal(today) {
			out.TodayHours += hours
		}
		if !rec.WorkDate.Before(weekStart) {
			out.ThisWeekHours += hours
		}
		if !rec.WorkDate.Before(monthStart) {
			out.ThisMonthHours += hours
			if rec.CheckOutTime != nil {
				out.OvertimeHours += core.OvertimeHours(rec.TotalHours, shift)
			}
		}
	}

	out.TodayHours = round2(out.TodayHours)
	out.ThisWeekHours = round2(out.ThisWeekHours)
	out.ThisMonthHours = round2(out.ThisMonthHours)
	out.OvertimeHours = round2(out.OvertimeHours)
	return out
}

func round2(h float64) float64 {
	return math.Round(h*100) / 100
}
