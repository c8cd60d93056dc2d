package core

import (
	"testing"
	"time"

	"attendance.service/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchedule() Schedule {
	return Schedule{
		Start:                    9 * time.Hour,
		End:                      17 * time.Hour,
		GraceMinutes:             10,
		BreakMinutes:             60,
		MaxOvertimeHours:         4,
		OvertimeToleranceMinutes: 5,
		Precedence:               OvertimeFirst,
		Location:                 time.UTC,
	}
}

func TestSchedule_PayableOvertime(t *testing.T) {
	s := testSchedule()
	assert.Equal(t, 0.0, s.PayableOvertime(7.5))
	assert.Equal(t, 0.5, s.PayableOvertime(8.5))
	assert.Equal(t, 4.0, s.PayableOvertime(14))

	s.MaxOvertimeHours = 0
	assert.Equal(t, 6.0, s.PayableOvertime(14))
}

var workDay = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func closedRecord(s Schedule, in, out time.Time) *model.AttendanceRecord {
	return &model.AttendanceRecord{
		EmployeeID:   "emp-1",
		WorkDate:     s.WorkDate(in),
		CheckInTime:  &in,
		CheckOutTime: &out,
		TotalHours:   ComputeHours(in, out, s.BreakMinutes),
	}
}

func TestClassifier_GracePeriod(t *testing.T) {
	c := NewClassifier(testSchedule())

	assert.False(t, c.IsLate(workDay, at(9, 5)))
	assert.False(t, c.IsLate(workDay, at(9, 10)), "exactly at the grace limit is on time")
	assert.True(t, c.IsLate(workDay, at(9, 11)))
	assert.True(t, c.IsLate(workDay, at(9, 15)))
}

func TestClassifier_GracePeriodInBusinessTimezone(t *testing.T) {
	s := testSchedule()
	s.Location = time.FixedZone("WIB", 7*60*60)
	c := NewClassifier(s)

	// 02:05 UTC is 09:05 in UTC+7.
	checkIn := time.Date(2026, 3, 2, 2, 5, 0, 0, time.UTC)
	assert.False(t, c.IsLate(s.WorkDate(checkIn), checkIn))
	checkIn = time.Date(2026, 3, 2, 2, 15, 0, 0, time.UTC)
	assert.True(t, c.IsLate(s.WorkDate(checkIn), checkIn))
}

func TestClassifier_Classify(t *testing.T) {
	s := testSchedule()
	c := NewClassifier(s)
	today := workDay

	openOnTime := at(8, 55)
	openLate := at(9, 30)

	cases := []struct {
		name   string
		record *model.AttendanceRecord
		want   model.Status
	}{
		{"overtime scenario", closedRecord(s, at(9, 0), at(18, 30)), model.StatusOvertime},
		{"regular day", closedRecord(s, at(9, 0), at(17, 0)), model.StatusPresent},
		{"late and short", closedRecord(s, at(9, 30), at(17, 0)), model.StatusLate},
		{"late and overtime", closedRecord(s, at(9, 30), at(20, 0)), model.StatusOvertime},
		{"within tolerance", closedRecord(s, at(8, 0), at(17, 5)), model.StatusPresent},
		{"beyond max overtime", closedRecord(s, at(6, 0), at(23, 0)), model.StatusOvertime},
		{"open and on time", &model.AttendanceRecord{WorkDate: today, CheckInTime: &openOnTime}, model.StatusPresent},
		{"open and late", &model.AttendanceRecord{WorkDate: today, CheckInTime: &openLate}, model.StatusLate},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, c.Classify(tc.record, today))
		})
	}
}

func TestClassifier_LateFirstPrecedence(t *testing.T) {
	s := testSchedule()
	s.Precedence = LateFirst
	c := NewClassifier(s)

	assert.Equal(t, model.StatusLate, c.Classify(closedRecord(s, at(9, 30), at(20, 0)), workDay))
	assert.Equal(t, model.StatusOvertime, c.Classify(closedRecord(s, at(9, 0), at(20, 0)), workDay))
}

func TestClassifier_StaleOpenRecordIsIncomplete(t *testing.T) {
	c := NewClassifier(testSchedule())
	today := workDay.AddDate(0, 0, 1)

	for _, checkIn := range []time.Time{at(6, 0), at(9, 0), at(9, 45), at(23, 59)} {
		in := checkIn
		rec := &model.AttendanceRecord{WorkDate: workDay, CheckInTime: &in, TotalHours: 12}
		assert.Equal(t, model.StatusIncomplete, c.Classify(rec, today), "check-in %s", in)
	}
}

func TestSchedule_ShiftHours(t *testing.T) {
	assert.Equal(t, 8.0, testSchedule().ShiftHours())

	night := Schedule{Start: 22 * time.Hour, End: 6 * time.Hour}
	assert.Equal(t, 8.0, night.ShiftHours())
}

func TestParseClockAndPrecedence(t *testing.T) {
	d, err := ParseClock("09:30")
	require.NoError(t, err)
	assert.Equal(t, 9*time.Hour+30*time.Minute, d)

	_, err = ParseClock("9.30")
	assert.Error(t, err)

	p, err := ParsePrecedence("")
	require.NoError(t, err)
	assert.Equal(t, OvertimeFirst, p)

	p, err = ParsePrecedence("late_first")
	require.NoError(t, err)
	assert.Equal(t, LateFirst, p)

	_, err = ParsePrecedence("random")
	assert.Error(t, err)
}
