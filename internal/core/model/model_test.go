package model

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttendanceRecord_State(t *testing.T) {
	in := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	out := in.Add(8 * time.Hour)

	var nilRecord *AttendanceRecord
	assert.Equal(t, StateNotStarted, nilRecord.State())
	assert.Equal(t, StateNotStarted, (&AttendanceRecord{}).State())
	assert.Equal(t, StateCheckedIn, (&AttendanceRecord{CheckInTime: &in}).State())
	assert.True(t, (&AttendanceRecord{CheckInTime: &in}).IsOpen())
	assert.Equal(t, StateCheckedOut, (&AttendanceRecord{CheckInTime: &in, CheckOutTime: &out}).State())
}

func TestDateOf_UsesBusinessTimezone(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*60*60)

	// 18:30 UTC on the 2nd is already the 3rd in Jakarta (UTC+7).
	at := time.Date(2026, 3, 2, 18, 30, 0, 0, time.UTC)
	assert.Equal(t, "2026-03-03", FormatDate(DateOf(at, jakarta)))
	assert.Equal(t, "2026-03-02", FormatDate(DateOf(at, nil)))
}

func TestValidationErrors(t *testing.T) {
	err := fmt.Errorf("bad input: %w", ValidationErrors{
		{Field: "timestamp", Message: "must be RFC3339"},
		{Field: "employee_id", Message: "is required"},
	})

	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, map[string]string{
		"timestamp":   "must be RFC3339",
		"employee_id": "is required",
	}, verrs.ToMap())
	assert.Equal(t, "validation failed: employee_id: is required; timestamp: must be RFC3339", verrs.Error())
}

func TestDeliveryStatus_Terminal(t *testing.T) {
	assert.False(t, DeliveryPending.Terminal())
	assert.True(t, DeliveryCompleted.Terminal())
	assert.True(t, DeliveryFailed.Terminal())
}
