package messaging

import "time"

// Event types carried in the EventType message attribute.
const (
	EventTypeCheckedOut = "CHECKED_OUT"
	EventTypeEmail      = "CHECKOUT_SUMMARY_EMAIL"
)

// CheckedOutEvent is the JSON payload sent via SQS to the payroll queue
type CheckedOutEvent struct {
	RecordID      int64     `json:"recordId"`
	EmployeeID    string    `json:"employeeId"`
	WorkDate      string    `json:"workDate"`
	TotalHours    float64   `json:"totalHours"`
	OvertimeHours float64   `json:"overtimeHours"` // capped at MAX_OVERTIME_HOURS
	Status        string    `json:"status"`
	CheckOutTime  time.Time `json:"checkOutTime"`
}

// EmailEvent is the JSON payload sent via SQS for email queue
type EmailEvent struct {
	RecordID   int64     `json:"recordId"`
	EmployeeID string    `json:"employeeId"`
	WorkDate   string    `json:"workDate"`
	TotalHours float64   `json:"totalHours"`
	OccurredAt time.Time `json:"occurredAt"`
}
