package model

import (
	"time"
)

// DateLayout is the wire and storage format of a work date.
const DateLayout = "2006-01-02"

// RecordState is the position of an attendance record in the daily check-in/check-out cycle.
type RecordState string

const (
	StateNotStarted RecordState = "NOT_STARTED"
	StateCheckedIn  RecordState = "CHECKED_IN"
	StateCheckedOut RecordState = "CHECKED_OUT"
)

// Status is the derived label of an attendance record.
type Status string

const (
	StatusPresent    Status = "present"
	StatusLate       Status = "late"
	StatusOvertime   Status = "overtime"
	StatusIncomplete Status = "incomplete"
	// StatusAbsent is only ever inferred by reporting; no stored record carries it.
	StatusAbsent Status = "absent"
)

// AttendanceRecord is one employee's attendance for one work date.
type AttendanceRecord struct {
	ID           int64      `json:"id"`
	EmployeeID   string     `json:"employeeId"`
	WorkDate     time.Time  `json:"workDate"`
	CheckInTime  *time.Time `json:"checkInTime,omitempty"`
	CheckOutTime *time.Time `json:"checkOutTime,omitempty"`
	TotalHours   float64    `json:"totalHours"`
	Status       Status     `json:"status"`
	Location     string     `json:"location,omitempty"`
	IPAddress    string     `json:"ipAddress,omitempty"`
	Notes        string     `json:"notes,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// State derives the record's state from its timestamps.
func (r *AttendanceRecord) State() RecordState {
	if r == nil || r.CheckInTime == nil {
		return StateNotStarted
	}
	if r.CheckOutTime == nil {
		return StateCheckedIn
	}
	return StateCheckedOut
}

// IsOpen reports whether the employee checked in and has not checked out yet.
func (r *AttendanceRecord) IsOpen() bool {
	return r.State() == StateCheckedIn
}

// AuditAction names the transition an audit entry was written for.
type AuditAction string

const (
	ActionCheckIn         AuditAction = "check_in"
	ActionCheckInOverride AuditAction = "check_in_override"
	ActionCheckOut        AuditAction = "check_out"
	ActionQuickCheckout   AuditAction = "quick_checkout"
)

// AuditEntry is an append-only trace of a single state transition.
type AuditEntry struct {
	ID         int64       `json:"id"`
	RecordID   int64       `json:"recordId"`
	EmployeeID string      `json:"employeeId"`
	Actor      string      `json:"actor"`
	Action     AuditAction `json:"action"`
	FromState  RecordState `json:"fromState"`
	ToState    RecordState `json:"toState"`
	At         time.Time   `json:"at"`
	RecordedAt time.Time   `json:"recordedAt"`
}

// DeliveryStatus defines the state of an asynchronous delivery (payroll export, email) for a record.
type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "PENDING"
	DeliveryCompleted DeliveryStatus = "COMPLETED"
	DeliveryFailed    DeliveryStatus = "FAILED"
)

// Terminal reports whether no further delivery attempt is made.
func (s DeliveryStatus) Terminal() bool {
	return s == DeliveryCompleted || s == DeliveryFailed
}

// SyncState tracks the downstream deliveries triggered by a checkout.
type SyncState struct {
	RecordID          int64          `json:"recordId"`
	EmployeeID        string         `json:"employeeId"`
	TotalHours        float64        `json:"totalHours"`
	PayrollStatus     DeliveryStatus `json:"payrollStatus"`
	PayrollRetryCount int            `json:"payrollRetryCount"`
	EmailStatus       DeliveryStatus `json:"emailStatus"`
	EmailRetryCount   int            `json:"emailRetryCount"`
}

// DateOf returns the calendar date of t in loc, as midnight UTC.
func DateOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD work date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// FormatDate renders a work date as YYYY-MM-DD.
func FormatDate(d time.Time) string {
	return d.Format(DateLayout)
}
