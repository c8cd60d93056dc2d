package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"attendance.service/internal/core/model"
)

type recordKey struct {
	employeeID string
	workDate   string
}

// MemoryRepository keeps records in process memory with the same semantics as the
// PostgreSQL implementation. It backs local development and tests.
type MemoryRepository struct {
	mu      sync.RWMutex
	nextID  int64
	records map[int64]model.AttendanceRecord
	byKey   map[recordKey]int64
	audit   []model.AuditEntry
	syncs   map[int64]model.SyncState
	now     func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		records: make(map[int64]model.AttendanceRecord),
		byKey:   make(map[recordKey]int64),
		syncs:   make(map[int64]model.SyncState),
		now:     time.Now,
	}
}

var _ Store = (*MemoryRepository)(nil)

func keyOf(employeeID string, workDate time.Time) recordKey {
	return recordKey{employeeID: employeeID, workDate: model.FormatDate(workDate)}
}

func cloneRecord(r model.AttendanceRecord) model.AttendanceRecord {
	if r.CheckInTime != nil {
		t := *r.CheckInTime
		r.CheckInTime = &t
	}
	if r.CheckOutTime != nil {
		t := *r.CheckOutTime
		r.CheckOutTime = &t
	}
	return r
}

// appendAudit must be called with mu held.
func (m *MemoryRepository) appendAudit(entry model.AuditEntry) {
	entry.ID = int64(len(m.audit) + 1)
	m.audit = append(m.audit, entry)
}

func (m *MemoryRepository) CreateCheckIn(_ context.Context, rec model.AttendanceRecord, audit model.AuditEntry) (model.AttendanceRecord, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := keyOf(rec.EmployeeID, rec.WorkDate)
	if id, ok := m.byKey[key]; ok {
		return cloneRecord(m.records[id]), false, nil
	}

	m.nextID++
	now := m.now()
	rec.ID = m.nextID
	rec.CreatedAt = now
	rec.UpdatedAt = now
	m.records[rec.ID] = cloneRecord(rec)
	m.byKey[key] = rec.ID

	audit.RecordID = rec.ID
	m.appendAudit(audit)
	return cloneRecord(rec), true, nil
}

func (m *MemoryRepository) ReopenCheckIn(_ context.Context, rec model.AttendanceRecord, audit model.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.records[rec.ID]
	if !ok {
		return model.ErrRecordNotFound
	}
	stored.CheckInTime = rec.CheckInTime
	stored.CheckOutTime = nil
	stored.TotalHours = 0
	stored.Status = rec.Status
	stored.Location = rec.Location
	stored.IPAddress = rec.IPAddress
	stored.Notes = rec.Notes
	stored.UpdatedAt = m.now()
	m.records[rec.ID] = cloneRecord(stored)

	m.appendAudit(audit)
	return nil
}

func (m *MemoryRepository) CompleteCheckOut(_ context.Context, rec model.AttendanceRecord, audit model.AuditEntry, onlyIfOpen bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.records[rec.ID]
	if !ok {
		if onlyIfOpen {
			return model.ErrNotCheckedIn
		}
		return model.ErrRecordNotFound
	}
	if onlyIfOpen && stored.CheckOutTime != nil {
		return model.ErrNotCheckedIn
	}

	stored.CheckOutTime = rec.CheckOutTime
	stored.TotalHours = rec.TotalHours
	stored.Status = rec.Status
	stored.UpdatedAt = m.now()
	m.records[rec.ID] = cloneRecord(stored)

	m.syncs[rec.ID] = model.SyncState{
		RecordID:      rec.ID,
		EmployeeID:    stored.EmployeeID,
		TotalHours:    rec.TotalHours,
		PayrollStatus: model.DeliveryPending,
		EmailStatus:   model.DeliveryPending,
	}
	m.appendAudit(audit)
	return nil
}

func (m *MemoryRepository) GetByID(_ context.Context, id int64) (*model.AttendanceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[id]
	if !ok {
		return nil, model.ErrRecordNotFound
	}
	c := cloneRecord(rec)
	return &c, nil
}

func (m *MemoryRepository) FindByEmployeeAndDate(_ context.Context, employeeID string, workDate time.Time) (*model.AttendanceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byKey[keyOf(employeeID, workDate)]
	if !ok {
		return nil, nil
	}
	c := cloneRecord(m.records[id])
	return &c, nil
}

func (m *MemoryRepository) FindOpenRecord(_ context.Context, employeeID string) (*model.AttendanceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest *model.AttendanceRecord
	for _, rec := range m.records {
		if rec.EmployeeID != employeeID || !rec.IsOpen() {
			continue
		}
		if latest == nil || rec.CheckInTime.After(*latest.CheckInTime) {
			c := cloneRecord(rec)
			latest = &c
		}
	}
	return latest, nil
}

// sorted returns the matching records ordered by work date then id, must be called with mu held.
func (m *MemoryRepository) sorted(match func(model.AttendanceRecord) bool) []model.AttendanceRecord {
	out := make([]model.AttendanceRecord, 0)
	for _, rec := range m.records {
		if match(rec) {
			out = append(out, cloneRecord(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].WorkDate.Equal(out[j].WorkDate) {
			return out[i].WorkDate.Before(out[j].WorkDate)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (m *MemoryRepository) ListRecent(_ context.Context, employeeID string, limit int) ([]model.AttendanceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := m.sorted(func(r model.AttendanceRecord) bool { return r.EmployeeID == employeeID })
	out := make([]model.AttendanceRecord, 0, min(limit, len(all)))
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

func (m *MemoryRepository) ListByDateRange(_ context.Context, from, to time.Time, employeeID string) ([]model.AttendanceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.sorted(func(r model.AttendanceRecord) bool {
		if employeeID != "" && r.EmployeeID != employeeID {
			return false
		}
		return !r.WorkDate.Before(from) && !r.WorkDate.After(to)
	}), nil
}

func (m *MemoryRepository) ListAudit(_ context.Context, recordID int64) ([]model.AuditEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.AuditEntry, 0)
	for _, e := range m.audit {
		if e.RecordID == recordID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MemoryRepository) GetSyncState(_ context.Context, recordID int64) (*model.SyncState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.syncs[recordID]
	if !ok {
		return nil, model.ErrRecordNotFound
	}
	return &s, nil
}

func (m *MemoryRepository) UpdatePayrollStatus(_ context.Context, recordID int64, status model.DeliveryStatus, retryCount int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.syncs[recordID]
	if !ok {
		return model.ErrRecordNotFound
	}
	s.PayrollStatus = status
	s.PayrollRetryCount = retryCount
	m.syncs[recordID] = s
	return nil
}

func (m *MemoryRepository) UpdateEmailStatus(_ context.Context, recordID int64, status model.DeliveryStatus, retryCount int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.syncs[recordID]
	if !ok {
		return model.ErrRecordNotFound
	}
	s.EmailStatus = status
	s.EmailRetryCount = retryCount
	m.syncs[recordID] = s
	return nil
}
