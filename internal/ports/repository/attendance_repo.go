package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"attendance.service/internal/core/model"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const recordColumns = `id, employee_id, work_date, check_in_time, check_out_time, total_hours, status,
	location, ip_address, notes, created_at, updated_at`

// AttendanceRepository is the concrete implementation for a PostgreSQL database.
type AttendanceRepository struct {
	DB *sql.DB
}

// NewAttendanceRepository create new instance
func NewAttendanceRepository(db *sql.DB) *AttendanceRepository {
	return &AttendanceRepository{DB: db}
}

var _ Store = (*AttendanceRepository)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*model.AttendanceRecord, error) {
	var (
		rec      model.AttendanceRecord
		checkIn  sql.NullTime
		checkOut sql.NullTime
		status   string
	)
	err := row.Scan(&rec.ID, &rec.EmployeeID, &rec.WorkDate, &checkIn, &checkOut, &rec.TotalHours, &status,
		&rec.Location, &rec.IPAddress, &rec.Notes, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if checkIn.Valid {
		t := checkIn.Time
		rec.CheckInTime = &t
	}
	if checkOut.Valid {
		t := checkOut.Time
		rec.CheckOutTime = &t
	}
	rec.Status = model.Status(status)
	return &rec, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func tagEmployee(ctx context.Context, employeeID string) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.employee_id", employeeID))
}

// withTx executes fn inside a database transaction.
func (r *AttendanceRepository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback error: %v (original error: %w)", rbErr, err)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func insertAudit(ctx context.Context, tx *sql.Tx, entry model.AuditEntry) error {
	query := `INSERT INTO attendance_audit (record_id, employee_id, actor, action, from_state, to_state, at, recorded_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := tx.ExecContext(ctx, query, entry.RecordID, entry.EmployeeID, entry.Actor, entry.Action,
		entry.FromState, entry.ToState, entry.At, entry.RecordedAt)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

// CreateCheckIn inserts the record, relying on the (employee_id, work_date) unique key to reject duplicates.
func (r *AttendanceRepository) CreateCheckIn(ctx context.Context, rec model.AttendanceRecord, audit model.AuditEntry) (model.AttendanceRecord, bool, error) {
	tagEmployee(ctx, rec.EmployeeID)

	created := false
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		query := `INSERT INTO attendance_records (employee_id, work_date, check_in_time, total_hours, status, location, ip_address, notes)
                  VALUES ($1, $2, $3, 0, $4, $5, $6, $7)
                  ON CONFLICT (employee_id, work_date) DO NOTHING
                  RETURNING id, created_at, updated_at`

		err := tx.QueryRowContext(ctx, query, rec.EmployeeID, rec.WorkDate, nullTime(rec.CheckInTime), rec.Status,
			rec.Location, rec.IPAddress, rec.Notes).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to insert attendance record: %w", err)
		}

		created = true
		audit.RecordID = rec.ID
		return insertAudit(ctx, tx, audit)
	})
	if err != nil {
		return model.AttendanceRecord{}, false, err
	}
	if created {
		return rec, true, nil
	}

	existing, err := r.FindByEmployeeAndDate(ctx, rec.EmployeeID, rec.WorkDate)
	if err != nil {
		return model.AttendanceRecord{}, false, err
	}
	if existing == nil {
		return model.AttendanceRecord{}, false, fmt.Errorf("conflicting attendance record for %s vanished", rec.EmployeeID)
	}
	return *existing, false, nil
}

// ReopenCheckIn do check-in override on an existing record.
func (r *AttendanceRepository) ReopenCheckIn(ctx context.Context, rec model.AttendanceRecord, audit model.AuditEntry) error {
	tagEmployee(ctx, rec.EmployeeID)

	return r.withTx(ctx, func(tx *sql.Tx) error {
		query := `UPDATE attendance_records
                  SET check_in_time = $1,
                      check_out_time = NULL,
                      total_hours = 0,
                      status = $2,
                      location = $3,
                      ip_address = $4,
                      notes = $5,
                      updated_at = NOW()
                  WHERE id = $6`

		res, err := tx.ExecContext(ctx, query, nullTime(rec.CheckInTime), rec.Status, rec.Location, rec.IPAddress, rec.Notes, rec.ID)
		if err != nil {
			return fmt.Errorf("failed to reopen attendance record: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return model.ErrRecordNotFound
		}
		return insertAudit(ctx, tx, audit)
	})
}

// CompleteCheckOut do checkout.
func (r *AttendanceRepository) CompleteCheckOut(ctx context.Context, rec model.AttendanceRecord, audit model.AuditEntry, onlyIfOpen bool) error {
	tagEmployee(ctx, rec.EmployeeID)

	return r.withTx(ctx, func(tx *sql.Tx) error {
		query := `UPDATE attendance_records
                  SET check_out_time = $1,
                      total_hours = $2,
                      status = $3,
                      updated_at = NOW()
                  WHERE id = $4`
		if onlyIfOpen {
			query += ` AND check_out_time IS NULL`
		}

		res, err := tx.ExecContext(ctx, query, nullTime(rec.CheckOutTime), rec.TotalHours, rec.Status, rec.ID)
		if err != nil {
			return fmt.Errorf("failed to update check-out: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read affected rows: %w", err)
		}
		if n == 0 {
			if onlyIfOpen {
				return model.ErrNotCheckedIn
			}
			return model.ErrRecordNotFound
		}

		syncQuery := `INSERT INTO attendance_sync (record_id, employee_id, total_hours, payroll_status, payroll_retry_count, email_status, email_retry_count)
                      VALUES ($1, $2, $3, $4, 0, $5, 0)
                      ON CONFLICT (record_id) DO UPDATE
                      SET total_hours = EXCLUDED.total_hours,
                          payroll_status = EXCLUDED.payroll_status,
                          payroll_retry_count = 0,
                          email_status = EXCLUDED.email_status,
                          email_retry_count = 0`
		if _, err := tx.ExecContext(ctx, syncQuery, rec.ID, rec.EmployeeID, rec.TotalHours, model.DeliveryPending, model.DeliveryPending); err != nil {
			return fmt.Errorf("failed to reset sync state: %w", err)
		}

		return insertAudit(ctx, tx, audit)
	})
}

// GetByID fetches a complete attendance record by its ID.
func (r *AttendanceRepository) GetByID(ctx context.Context, id int64) (*model.AttendanceRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM attendance_records WHERE id = $1`

	rec, err := scanRecord(r.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get attendance record %d: %w", id, err)
	}
	return rec, nil
}

// FindByEmployeeAndDate returns nil when the employee has no record for workDate.
func (r *AttendanceRepository) FindByEmployeeAndDate(ctx context.Context, employeeID string, workDate time.Time) (*model.AttendanceRecord, error) {
	tagEmployee(ctx, employeeID)

	query := `SELECT ` + recordColumns + ` FROM attendance_records WHERE employee_id = $1 AND work_date = $2`

	rec, err := scanRecord(r.DB.QueryRowContext(ctx, query, employeeID, workDate))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find attendance record: %w", err)
	}
	return rec, nil
}

// FindOpenRecord get last open check in for a employee
func (r *AttendanceRepository) FindOpenRecord(ctx context.Context, employeeID string) (*model.AttendanceRecord, error) {
	tagEmployee(ctx, employeeID)

	query := `SELECT ` + recordColumns + `
              FROM attendance_records
              WHERE employee_id = $1 AND check_in_time IS NOT NULL AND check_out_time IS NULL
              ORDER BY check_in_time DESC
              LIMIT 1`

	rec, err := scanRecord(r.DB.QueryRowContext(ctx, query, employeeID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find open record: %w", err)
	}
	return rec, nil
}

func (r *AttendanceRepository) queryRecords(ctx context.Context, query string, args ...any) ([]model.AttendanceRecord, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]model.AttendanceRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// ListRecent returns the newest records of an employee first.
func (r *AttendanceRepository) ListRecent(ctx context.Context, employeeID string, limit int) ([]model.AttendanceRecord, error) {
	tagEmployee(ctx, employeeID)

	query := `SELECT ` + recordColumns + `
              FROM attendance_records
              WHERE employee_id = $1
              ORDER BY work_date DESC, id DESC
              LIMIT $2`

	records, err := r.queryRecords(ctx, query, employeeID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent records: %w", err)
	}
	return records, nil
}

// ListByDateRange returns the records filed between from and to, inclusive.
func (r *AttendanceRepository) ListByDateRange(ctx context.Context, from, to time.Time, employeeID string) ([]model.AttendanceRecord, error) {
	query := `SELECT ` + recordColumns + `
              FROM attendance_records
              WHERE work_date BETWEEN $1 AND $2 AND ($3 = '' OR employee_id = $3)
              ORDER BY work_date, id`

	records, err := r.queryRecords(ctx, query, from, to, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list records by date range: %w", err)
	}
	return records, nil
}

// ListAudit returns the audit trail of a record in write order.
func (r *AttendanceRepository) ListAudit(ctx context.Context, recordID int64) ([]model.AuditEntry, error) {
	query := `SELECT id, record_id, employee_id, actor, action, from_state, to_state, at, recorded_at
              FROM attendance_audit
              WHERE record_id = $1
              ORDER BY id`

	rows, err := r.DB.QueryContext(ctx, query, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	entries := make([]model.AuditEntry, 0)
	for rows.Next() {
		var e model.AuditEntry
		if err := rows.Scan(&e.ID, &e.RecordID, &e.EmployeeID, &e.Actor, &e.Action, &e.FromState, &e.ToState, &e.At, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetSyncState fetches the delivery state of a checked-out record.
func (r *AttendanceRepository) GetSyncState(ctx context.Context, recordID int64) (*model.SyncState, error) {
	query := `SELECT record_id, employee_id, total_hours, payroll_status, payroll_retry_count, email_status, email_retry_count
	          FROM attendance_sync WHERE record_id = $1`

	s := &model.SyncState{}
	err := r.DB.QueryRowContext(ctx, query, recordID).Scan(
		&s.RecordID, &s.EmployeeID, &s.TotalHours, &s.PayrollStatus, &s.PayrollRetryCount, &s.EmailStatus, &s.EmailRetryCount,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// UpdatePayrollStatus updates the status and retry count for a payroll export.
func (r *AttendanceRepository) UpdatePayrollStatus(ctx context.Context, recordID int64, status model.DeliveryStatus, retryCount int) error {
	query := `UPDATE attendance_sync
              SET payroll_status = $1,
                  payroll_retry_count = $2
              WHERE record_id = $3`

	_, err := r.DB.ExecContext(ctx, query, status, retryCount, recordID)
	return err
}

// UpdateEmailStatus updates the status and retry count for an email-related job.
func (r *AttendanceRepository) UpdateEmailStatus(ctx context.Context, recordID int64, status model.DeliveryStatus, retryCount int) error {
	query := `UPDATE attendance_sync SET email_status = $1, email_retry_count = $2 WHERE record_id = $3`
	_, err := r.DB.ExecContext(ctx, query, status, retryCount, recordID)
	return err
}
