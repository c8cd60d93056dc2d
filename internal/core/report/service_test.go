package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"attendance.service/internal/core"
	"attendance.service/internal/ports/directory"
	"attendance.service/internal/ports/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingDirectory struct{}

func (failingDirectory) List(context.Context) ([]directory.Employee, error) {
	return nil, errors.New("hr system down")
}

func (failingDirectory) Get(context.Context, string) (directory.Employee, error) {
	return directory.Employee{}, errors.New("hr system down")
}

type serviceFixture struct {
	service  *Service
	recorder *core.Recorder
	clock    *core.FixedClock
}

func newServiceFixture(t *testing.T, dir directory.Directory) serviceFixture {
	t.Helper()
	repo := repository.NewMemoryRepository()
	clock := core.NewFixedClock(time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC))
	schedule := statsSchedule()
	return serviceFixture{
		service:  NewService(repo, dir, clock, schedule, DefaultWorkdays()),
		recorder: core.NewRecorder(repo, nil, clock, schedule),
		clock:    clock,
	}
}

func (f serviceFixture) shift(t *testing.T, employeeID, workDate string, inHour, outHour int) {
	t.Helper()
	ctx := context.Background()
	in := date(workDate).Add(time.Duration(inHour) * time.Hour)
	_, err := f.recorder.CheckIn(ctx, core.CheckInCommand{EmployeeID: employeeID, At: in})
	require.NoError(t, err)
	if outHour > 0 {
		_, err = f.recorder.CheckOut(ctx, core.CheckOutCommand{EmployeeID: employeeID, At: date(workDate).Add(time.Duration(outHour) * time.Hour)})
		require.NoError(t, err)
	}
}

func staffDirectory() *directory.StaticDirectory {
	return directory.NewStaticDirectory([]directory.Employee{
		{ID: "emp-1", Name: "Ana", Department: "Engineering"},
		{ID: "emp-2", Name: "Budi", Department: "Sales"},
		{ID: "emp-3", Name: "Citra", Department: "Engineering"},
	})
}

func TestService_AttendanceReport(t *testing.T) {
	f := newServiceFixture(t, staffDirectory())
	f.shift(t, "emp-1", "2026-03-02", 9, 17)
	f.shift(t, "emp-2", "2026-03-02", 10, 18)
	f.shift(t, "emp-1", "2026-03-03", 9, 0) // never checked out
	f.shift(t, "emp-1", "2026-03-04", 8, 0) // open today

	r, err := NewRange(date("2026-03-02"), date("2026-03-08"))
	require.NoError(t, err)

	rep, err := f.service.AttendanceReport(context.Background(), Query{Range: r})
	require.NoError(t, err)

	require.Len(t, rep.Daily, 7)
	assert.Equal(t, 2, rep.Daily[0].Count)
	assert.Equal(t, 1, rep.Daily[1].Count)
	assert.Equal(t, 0, rep.Daily[6].Count)

	assert.Equal(t, []DepartmentCount{{"Engineering", 3}, {"Sales", 1}}, rep.Department)
	assert.Equal(t, 2, rep.Hourly[9])
	assert.Equal(t, 1, rep.Hourly[10])
	assert.Equal(t, 1, rep.Hourly[8])

	assert.Equal(t, StatusCounts{
		Present:    2, // emp-1 Monday, emp-1 open today
		Late:       1,
		Incomplete: 1,
		// Mon: emp-3. Tue: emp-2, emp-3. Wed: emp-2, emp-3. Later days have not happened.
		Absent: 5,
	}, rep.Status)
}

func TestService_AttendanceReport_DepartmentFilter(t *testing.T) {
	f := newServiceFixture(t, staffDirectory())
	f.shift(t, "emp-1", "2026-03-02", 9, 17)
	f.shift(t, "emp-2", "2026-03-02", 9, 17)

	r, err := NewRange(date("2026-03-02"), date("2026-03-02"))
	require.NoError(t, err)

	rep, err := f.service.AttendanceReport(context.Background(), Query{Range: r, Department: "Sales"})
	require.NoError(t, err)
	assert.Equal(t, []DepartmentCount{{"Sales", 1}}, rep.Department)
	assert.Equal(t, 1, rep.Daily[0].Count)
	assert.Zero(t, rep.Status.Absent)
}

func TestService_AttendanceReport_DirectoryDown(t *testing.T) {
	f := newServiceFixture(t, failingDirectory{})
	f.shift(t, "emp-1", "2026-03-02", 9, 17)

	r, err := NewRange(date("2026-03-02"), date("2026-03-02"))
	require.NoError(t, err)

	rep, err := f.service.AttendanceReport(context.Background(), Query{Range: r})
	require.NoError(t, err)
	assert.Equal(t, []DepartmentCount{{directory.UnknownDepartment, 1}}, rep.Department)

	_, err = f.service.AttendanceReport(context.Background(), Query{Range: r, Department: "Sales"})
	assert.Error(t, err)
}

func TestService_EmployeeStats(t *testing.T) {
	f := newServiceFixture(t, staffDirectory())
	f.shift(t, "emp-1", "2026-03-02", 9, 19)
	f.shift(t, "emp-2", "2026-03-02", 9, 17)
	f.shift(t, "emp-1", "2026-03-04", 9, 0)

	stats, err := f.service.EmployeeStats(context.Background(), "emp-1")
	require.NoError(t, err)
	assert.Equal(t, Stats{TodayHours: 2, ThisWeekHours: 11, ThisMonthHours: 11, OvertimeHours: 1}, stats)
}
