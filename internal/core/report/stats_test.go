package report

import (
	"testing"
	"time"

	"attendance.service/internal/core"
	"attendance.service/internal/core/model"
	"github.com/stretchr/testify/assert"
)

func statsSchedule() core.Schedule {
	return core.Schedule{
		Start:                    9 * time.Hour,
		End:                      17 * time.Hour,
		GraceMinutes:             10,
		BreakMinutes:             60,
		OvertimeToleranceMinutes: 5,
		Location:                 time.UTC,
	}
}

func closed(workDate string, inHour, outHour int, schedule core.Schedule) model.AttendanceRecord {
	d := date(workDate)
	in := d.Add(time.Duration(inHour) * time.Hour)
	out := d.Add(time.Duration(outHour) * time.Hour)
	return model.AttendanceRecord{
		EmployeeID:   "emp-1",
		WorkDate:     d,
		CheckInTime:  &in,
		CheckOutTime: &out,
		TotalHours:   core.ComputeHours(in, out, schedule.BreakMinutes),
	}
}

func TestWeekAndMonthStart(t *testing.T) {
	assert.Equal(t, date("2026-03-02"), WeekStart(date("2026-03-04")))
	assert.Equal(t, date("2026-03-02"), WeekStart(date("2026-03-02")))
	assert.Equal(t, date("2026-03-02"), WeekStart(date("2026-03-08")), "Sunday belongs to the week that started Monday")
	assert.Equal(t, date("2026-03-01"), MonthStart(date("2026-03-19")))
}

func TestStatsWindow(t *testing.T) {
	s := statsSchedule()
	// Wednesday 2026-04-01: the week started in March.
	w := StatsWindow(time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC), s)
	assert.Equal(t, date("2026-03-30"), w.Start)
	assert.Equal(t, date("2026-04-01"), w.End)
}

func TestComputeStats(t *testing.T) {
	s := statsSchedule()
	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC) // Wednesday

	openIn := date("2026-03-04").Add(9 * time.Hour)
	staleIn := date("2026-03-03").Add(9 * time.Hour)
	records := []model.AttendanceRecord{
		closed("2026-02-27", 9, 17, s), // previous month
		closed("2026-03-01", 9, 20, s), // this month, previous week: 10h, 2h overtime
		closed("2026-03-02", 9, 18, s), // this week: 8h
		{EmployeeID: "emp-1", WorkDate: date("2026-03-03"), CheckInTime: &staleIn},
		{EmployeeID: "emp-1", WorkDate: date("2026-03-04"), CheckInTime: &openIn}, // open today: 3h raw, 2h after the break
	}

	got := ComputeStats(records, now, s)
	assert.Equal(t, 2.0, got.TodayHours)
	assert.Equal(t, 10.0, got.ThisWeekHours)
	assert.Equal(t, 20.0, got.ThisMonthHours)
	assert.Equal(t, 2.0, got.OvertimeHours)
}

func TestComputeStats_Empty(t *testing.T) {
	assert.Equal(t, Stats{}, ComputeStats(nil, time.Now(), statsSchedule()))
}
