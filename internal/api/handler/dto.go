package handler

import (
	"time"

	"attendance.service/internal/core/model"
	"attendance.service/internal/core/report"
)

type CheckInRequest struct {
	EmployeeID string `json:"employee_id" validate:"required,max=64"`
	Timestamp  string `json:"timestamp" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Override   bool   `json:"override"`
	Actor      string `json:"actor" validate:"max=64"`
	Location   string `json:"location" validate:"max=255"`
	IPAddress  string `json:"ip_address" validate:"omitempty,ip"`
	Notes      string `json:"notes" validate:"max=1000"`
}

type CheckOutRequest struct {
	EmployeeID string `json:"employee_id" validate:"required,max=64"`
	Timestamp  string `json:"timestamp" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Actor      string `json:"actor" validate:"max=64"`
}

type QuickCheckoutRequest struct {
	RecordID  int64  `json:"record_id" validate:"required,gt=0"`
	Timestamp string `json:"timestamp" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Actor     string `json:"actor" validate:"max=64"`
}

type ReportQuery struct {
	StartDate  string `query:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate    string `query:"end_date" validate:"required,datetime=2006-01-02"`
	Department string `query:"department" validate:"max=128"`
}

type EmployeeQuery struct {
	EmployeeID string `query:"employee_id" validate:"required,max=64"`
}

// RecordResponse is the wire form of an attendance record.
type RecordResponse struct {
	ID           int64      `json:"id"`
	EmployeeID   string     `json:"employee_id"`
	WorkDate     string     `json:"work_date"`
	CheckInTime  *time.Time `json:"check_in_time"`
	CheckOutTime *time.Time `json:"check_out_time"`
	TotalHours   float64    `json:"total_hours"`
	Status       string     `json:"status"`
	State        string     `json:"state"`
	Location     string     `json:"location,omitempty"`
	IPAddress    string     `json:"ip_address,omitempty"`
	Notes        string     `json:"notes,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// toRecordResponse renders rec. Opaque fields are only included when withDetails is set.
func toRecordResponse(rec model.AttendanceRecord, withDetails bool) RecordResponse {
	out := RecordResponse{
		ID:           rec.ID,
		EmployeeID:   rec.EmployeeID,
		WorkDate:     model.FormatDate(rec.WorkDate),
		CheckInTime:  rec.CheckInTime,
		CheckOutTime: rec.CheckOutTime,
		TotalHours:   rec.TotalHours,
		Status:       string(rec.Status),
		State:        string(rec.State()),
		CreatedAt:    rec.CreatedAt,
		UpdatedAt:    rec.UpdatedAt,
	}
	if withDetails {
		out.Location = rec.Location
		out.IPAddress = rec.IPAddress
		out.Notes = rec.Notes
	}
	return out
}

type AuditResponse struct {
	ID         int64     `json:"id"`
	RecordID   int64     `json:"record_id"`
	EmployeeID string    `json:"employee_id"`
	Actor      string    `json:"actor"`
	Action     string    `json:"action"`
	FromState  string    `json:"from_state"`
	ToState    string    `json:"to_state"`
	At         time.Time `json:"at"`
	RecordedAt time.Time `json:"recorded_at"`
}

func toAuditResponse(e model.AuditEntry) AuditResponse {
	return AuditResponse{
		ID:         e.ID,
		RecordID:   e.RecordID,
		EmployeeID: e.EmployeeID,
		Actor:      e.Actor,
		Action:     string(e.Action),
		FromState:  string(e.FromState),
		ToState:    string(e.ToState),
		At:         e.At,
		RecordedAt: e.RecordedAt,
	}
}

type CheckInResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Record  RecordResponse `json:"record"`
}

type CheckOutResponse struct {
	Success    bool           `json:"success"`
	Message    string         `json:"message"`
	TotalHours float64        `json:"total_hours"`
	Status     string         `json:"status"`
	Record     RecordResponse `json:"record"`
}

type RecordsResponse struct {
	Success bool             `json:"success"`
	Records []RecordResponse `json:"records"`
}

type RecordDetailResponse struct {
	Success bool           `json:"success"`
	Record  RecordResponse `json:"record"`
}

type StatsResponse struct {
	Success bool `json:"success"`
	report.Stats
}

type AuditListResponse struct {
	Success bool            `json:"success"`
	Entries []AuditResponse `json:"entries"`
}

type ReportResponse struct {
	Success bool `json:"success"`
	*report.Report
}
