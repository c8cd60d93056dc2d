package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/messaging"
	"attendance.service/internal/ports/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

type fakePublisher struct {
	mu         sync.Mutex
	checkedOut []messaging.CheckedOutEvent
	emails     []messaging.EmailEvent
	err        error
}

func (f *fakePublisher) PublishCheckedOut(_ context.Context, e messaging.CheckedOutEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkedOut = append(f.checkedOut, e)
	return f.err
}

func (f *fakePublisher) PublishEmail(_ context.Context, e messaging.EmailEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emails = append(f.emails, e)
	return f.err
}

type recorderFixture struct {
	recorder  *Recorder
	repo      *repository.MemoryRepository
	publisher *fakePublisher
	clock     *FixedClock
}

func newRecorderFixture(t *testing.T) recorderFixture {
	t.Helper()
	repo := repository.NewMemoryRepository()
	pub := &fakePublisher{}
	clock := NewFixedClock(at(8, 0))
	return recorderFixture{
		recorder:  NewRecorder(repo, pub, clock, testSchedule()),
		repo:      repo,
		publisher: pub,
		clock:     clock,
	}
}

func TestRecorder_CheckIn_CreatesRecordAndAudit(t *testing.T) {
	f := newRecorderFixture(t)
	ctx := context.Background()

	rec, err := f.recorder.CheckIn(ctx, CheckInCommand{EmployeeID: "emp-1", At: at(9, 5), Location: "HQ", IPAddress: "10.0.0.1"})
	require.NoError(t, err)

	assert.NotZero(t, rec.ID)
	assert.Equal(t, workDay, rec.WorkDate)
	assert.Equal(t, model.StateCheckedIn, rec.State())
	assert.Equal(t, model.StatusPresent, rec.Status)
	assert.Equal(t, "HQ", rec.Location)

	entries, err := f.recorder.Audit(ctx, rec.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, model.ActionCheckIn, entries[0].Action)
	assert.Equal(t, model.StateNotStarted, entries[0].FromState)
	assert.Equal(t, model.StateCheckedIn, entries[0].ToState)
	assert.Equal(t, "emp-1", entries[0].Actor)
}

func TestRecorder_CheckIn_LateFlag(t *testing.T) {
	f := newRecorderFixture(t)

	rec, err := f.recorder.CheckIn(context.Background(), CheckInCommand{EmployeeID: "emp-1", At: at(9, 15)})
	require.NoError(t, err)
	assert.Equal(t, model.StatusLate, rec.Status)
}

func TestRecorder_CheckIn_SecondCheckInFails(t *testing.T) {
	f := newRecorderFixture(t)
	ctx := context.Background()

	first, err := f.recorder.CheckIn(ctx, CheckInCommand{EmployeeID: "emp-1", At: at(9, 0)})
	require.NoError(t, err)

	_, err = f.recorder.CheckIn(ctx, CheckInCommand{EmployeeID: "emp-1", At: at(10, 0)})
	assert.ErrorIs(t, err, model.ErrAlreadyCheckedIn)

	stored, err := f.recorder.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, at(9, 0), *stored.CheckInTime, "second check-in must not overwrite the first")
}

func TestRecorder_CheckIn_OverrideReopensClosedRecord(t *testing.T) {
	f := newRecorderFixture(t)
	ctx := context.Background()

	rec, err := f.recorder.CheckIn(ctx, CheckInCommand{EmployeeID: "emp-1", At: at(9, 0)})
	require.NoError(t, err)
	_, err = f.recorder.CheckOut(ctx, CheckOutCommand{EmployeeID: "emp-1", At: at(12, 0)})
	require.NoError(t, err)

	reopened, err := f.recorder.CheckIn(ctx, CheckInCommand{EmployeeID: "emp-1", At: at(13, 0), Override: true, Actor: "admin-7"})
	require.NoError(t, err)
	assert.Equal(t, rec.ID, reopened.ID)
	assert.Nil(t, reopened.CheckOutTime)
	assert.Zero(t, reopened.TotalHours)

	entries, err := f.recorder.Audit(ctx, rec.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, model.ActionCheckInOverride, entries[2].Action)
	assert.Equal(t, model.StateCheckedOut, entries[2].FromState)
	assert.Equal(t, "admin-7", entries[2].Actor)
}

func TestRecorder_CheckOut_ComputesHoursAndStatus(t *testing.T) {
	f := newRecorderFixture(t)
	ctx := context.Background()

	_, err := f.recorder.CheckIn(ctx, CheckInCommand{EmployeeID: "emp-1", At: at(9, 0)})
	require.NoError(t, err)

	f.clock.Set(at(18, 30))
	rec, err := f.recorder.CheckOut(ctx, CheckOutCommand{EmployeeID: "emp-1", At: at(18, 30)})
	require.NoError(t, err)

	assert.Equal(t, 8.5, rec.TotalHours)
	assert.Equal(t, model.StatusOvertime, rec.Status)
	assert.Equal(t, model.StateCheckedOut, rec.State())

	require.Len(t, f.publisher.checkedOut, 1)
	assert.Equal(t, rec.ID, f.publisher.checkedOut[0].RecordID)
	assert.Equal(t, "2026-03-02", f.publisher.checkedOut[0].WorkDate)
	assert.Equal(t, 0.5, f.publisher.checkedOut[0].OvertimeHours)
	require.Len(t, f.publisher.emails, 1)

	state, err := f.repo.GetSyncState(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DeliveryPending, state.PayrollStatus)
}

func TestRecorder_CheckOut_ShortShift(t *testing.T) {
	f := newRecorderFixture(t)
	ctx := context.Background()

	_, err := f.recorder.CheckIn(ctx, CheckInCommand{EmployeeID: "emp-1", At: at(9, 0)})
	require.NoError(t, err)
	rec, err := f.recorder.CheckOut(ctx, CheckOutCommand{EmployeeID: "emp-1", At: at(9, 20)})
	require.NoError(t, err)
	assert.InDelta(t, 0.33, rec.TotalHours, 0.001)
}

func TestRecorder_CheckOut_Twice(t *testing.T) {
	f := newRecorderFixture(t)
	ctx := context.Background()

	_, err := f.recorder.CheckIn(ctx, CheckInCommand{EmployeeID: "emp-1", At: at(9, 0)})
	require.NoError(t, err)
	first, err := f.recorder.CheckOut(ctx, CheckOutCommand{EmployeeID: "emp-1", At: at(17, 0)})
	require.NoError(t, err)

	_, err = f.recorder.CheckOut(ctx, CheckOutCommand{EmployeeID: "emp-1", At: at(19, 0)})
	assert.ErrorIs(t, err, model.ErrNotCheckedIn)

	stored, err := f.recorder.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.TotalHours, stored.TotalHours)
	assert.Equal(t, at(17, 0), *stored.CheckOutTime)
	assert.Len(t, f.publisher.checkedOut, 1)
}

func TestRecorder_CheckOut_WithoutCheckIn(t *testing.T) {
	f := newRecorderFixture(t)

	_, err := f.recorder.CheckOut(context.Background(), CheckOutCommand{EmployeeID: "emp-1", At: at(17, 0)})
	assert.ErrorIs(t, err, model.ErrNotCheckedIn)
}

func TestRecorder_CheckOut_InvalidDuration(t *testing.T) {
	f := newRecorderFixture(t)
	ctx := context.Background()

	_, err := f.recorder.CheckIn(ctx, CheckInCommand{EmployeeID: "emp-1", At: at(9, 0)})
	require.NoError(t, err)

	for _, out := range []time.Time{at(8, 0), at(9, 0), at(9, 0).Add(59 * time.Second)} {
		_, err = f.recorder.CheckOut(ctx, CheckOutCommand{EmployeeID: "emp-1", At: out})
		assert.ErrorIs(t, err, model.ErrInvalidDuration, "check-out at %s", out)
	}

	rec, err := f.recorder.CheckOut(ctx, CheckOutCommand{EmployeeID: "emp-1", At: at(9, 1)})
	require.NoError(t, err)
	assert.Equal(t, 0.02, rec.TotalHours)
}

func TestRecorder_CheckOut_OvernightKeepsWorkDate(t *testing.T) {
	f := newRecorderFixture(t)
	ctx := context.Background()

	_, err := f.recorder.CheckIn(ctx, CheckInCommand{EmployeeID: "emp-1", At: at(22, 0)})
	require.NoError(t, err)

	next := at(6, 0).AddDate(0, 0, 1)
	f.clock.Set(next)
	rec, err := f.recorder.CheckOut(ctx, CheckOutCommand{EmployeeID: "emp-1", At: next})
	require.NoError(t, err)

	assert.Equal(t, workDay, rec.WorkDate)
	assert.Equal(t, 7.0, rec.TotalHours)
}

func TestRecorder_QuickCheckout(t *testing.T) {
	f := newRecorderFixture(t)
	ctx := context.Background()

	_, err := f.recorder.QuickCheckout(ctx, QuickCheckoutCommand{RecordID: 42, At: at(17, 0)})
	assert.ErrorIs(t, err, model.ErrRecordNotFound)

	rec, err := f.recorder.CheckIn(ctx, CheckInCommand{EmployeeID: "emp-1", At: at(9, 0)})
	require.NoError(t, err)

	closed, err := f.recorder.QuickCheckout(ctx, QuickCheckoutCommand{RecordID: rec.ID, At: at(17, 0), Actor: "admin-1"})
	require.NoError(t, err)
	assert.Equal(t, 7.0, closed.TotalHours)

	// Correction of an already closed record.
	corrected, err := f.recorder.QuickCheckout(ctx, QuickCheckoutCommand{RecordID: rec.ID, At: at(18, 0), Actor: "admin-1"})
	require.NoError(t, err)
	assert.Equal(t, 8.0, corrected.TotalHours)

	entries, err := f.recorder.Audit(ctx, rec.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, model.ActionQuickCheckout, entries[1].Action)
	assert.Equal(t, model.StateCheckedIn, entries[1].FromState)
	assert.Equal(t, model.StateCheckedOut, entries[2].FromState)
	assert.Equal(t, "admin-1", entries[2].Actor)

	_, err = f.recorder.QuickCheckout(ctx, QuickCheckoutCommand{RecordID: rec.ID, At: at(9, 0)})
	assert.ErrorIs(t, err, model.ErrInvalidDuration)
}

func TestRecorder_PublishFailureDoesNotFailCheckOut(t *testing.T) {
	f := newRecorderFixture(t)
	f.publisher.err = errors.New("queue unavailable")
	ctx := context.Background()

	_, err := f.recorder.CheckIn(ctx, CheckInCommand{EmployeeID: "emp-1", At: at(9, 0)})
	require.NoError(t, err)
	rec, err := f.recorder.CheckOut(ctx, CheckOutCommand{EmployeeID: "emp-1", At: at(17, 0)})
	require.NoError(t, err)
	assert.Equal(t, model.StateCheckedOut, rec.State())
}

func TestRecorder_ConcurrentCheckInSameEmployee(t *testing.T) {
	f := newRecorderFixture(t)
	ctx := context.Background()

	const attempts = 25
	results := make([]error, attempts)
	var g errgroup.Group
	for i := 0; i < attempts; i++ {
		g.Go(func() error {
			_, results[i] = f.recorder.CheckIn(ctx, CheckInCommand{EmployeeID: "emp-1", At: at(9, 0)})
			return nil
		})
	}
	require.NoError(t, g.Wait())

	succeeded, rejected := 0, 0
	for _, err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, model.ErrAlreadyCheckedIn):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, rejected)

	records, err := f.repo.ListByDateRange(ctx, workDay, workDay, "emp-1")
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestRecorder_ConcurrentCheckInDifferentEmployees(t *testing.T) {
	f := newRecorderFixture(t)
	ctx := context.Background()

	var g errgroup.Group
	for i := 0; i < 30; i++ {
		g.Go(func() error {
			_, err := f.recorder.CheckIn(ctx, CheckInCommand{EmployeeID: fmt.Sprintf("emp-%d", i), At: at(9, 0)})
			return err
		})
	}
	require.NoError(t, g.Wait())

	records, err := f.repo.ListByDateRange(ctx, workDay, workDay, "")
	require.NoError(t, err)
	assert.Len(t, records, 30)
}

func TestRecorder_Recent(t *testing.T) {
	f := newRecorderFixture(t)
	ctx := context.Background()

	for d := 0; d < 3; d++ {
		in := at(9, 0).AddDate(0, 0, d)
		_, err := f.recorder.CheckIn(ctx, CheckInCommand{EmployeeID: "emp-1", At: in})
		require.NoError(t, err)
		if d < 2 {
			_, err = f.recorder.CheckOut(ctx, CheckOutCommand{EmployeeID: "emp-1", At: in.Add(8 * time.Hour)})
			require.NoError(t, err)
		}
	}
	// The last record stays open and its day has passed.
	f.clock.Set(at(9, 0).AddDate(0, 0, 5))

	records, err := f.recorder.Recent(ctx, "emp-1", 0)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, workDay.AddDate(0, 0, 2), records[0].WorkDate, "most recent first")
	assert.Equal(t, model.StatusIncomplete, records[0].Status)
	assert.Equal(t, model.StatusPresent, records[2].Status)

	records, err = f.recorder.Recent(ctx, "emp-1", 2)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}
