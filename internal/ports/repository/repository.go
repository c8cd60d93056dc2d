package repository

import (
	"context"
	"time"

	"attendance.service/internal/core/model"
)

// Repository contract for attendance records and their audit trail.
//
// Every write that changes a record appends its audit entry in the same transaction,
// and a record's check-out, total hours and status are always written together.
type Repository interface {
	// CreateCheckIn inserts rec unless a record already exists for (employee, work date).
	// When one exists it is returned with created=false and nothing is written.
	CreateCheckIn(ctx context.Context, rec model.AttendanceRecord, audit model.AuditEntry) (model.AttendanceRecord, bool, error)
	// ReopenCheckIn rewrites the check-in of an existing record and clears its check-out.
	ReopenCheckIn(ctx context.Context, rec model.AttendanceRecord, audit model.AuditEntry) error
	// CompleteCheckOut stores the check-out, total hours and status of rec. With onlyIfOpen the write
	// only happens while the record has no check-out and ErrNotCheckedIn is returned otherwise.
	CompleteCheckOut(ctx context.Context, rec model.AttendanceRecord, audit model.AuditEntry, onlyIfOpen bool) error

	GetByID(ctx context.Context, id int64) (*model.AttendanceRecord, error)
	FindByEmployeeAndDate(ctx context.Context, employeeID string, workDate time.Time) (*model.AttendanceRecord, error)
	// FindOpenRecord returns the most recent open record of the employee, or nil.
	FindOpenRecord(ctx context.Context, employeeID string) (*model.AttendanceRecord, error)
	ListRecent(ctx context.Context, employeeID string, limit int) ([]model.AttendanceRecord, error)
	// ListByDateRange returns records with from <= work_date <= to. An empty employeeID matches everyone.
	ListByDateRange(ctx context.Context, from, to time.Time, employeeID string) ([]model.AttendanceRecord, error)
	ListAudit(ctx context.Context, recordID int64) ([]model.AuditEntry, error)
}

// SyncRepository tracks the payroll export and email deliveries triggered by a checkout.
type SyncRepository interface {
	GetSyncState(ctx context.Context, recordID int64) (*model.SyncState, error)
	UpdatePayrollStatus(ctx context.Context, recordID int64, status model.DeliveryStatus, retryCount int) error
	UpdateEmailStatus(ctx context.Context, recordID int64, status model.DeliveryStatus, retryCount int) error
}

// Store is everything the API and workers need from persistence.
type Store interface {
	Repository
	SyncRepository
}
