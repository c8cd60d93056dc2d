package handler

import (
	"net"
	"net/http"

	"attendance.service/internal/core"
	"attendance.service/internal/core/model"
	"attendance.service/internal/core/report"
)

type AttendanceHandler struct {
	Recorder *core.Recorder
	Reports  *report.Service
	Clock    core.Clock
}

func (h *AttendanceHandler) clock() core.Clock {
	if h.Clock == nil {
		return core.RealClock{}
	}
	return h.Clock
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// CheckIn opens today's record for an employee.
func (h *AttendanceHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	var req CheckInRequest
	if err := decodeBody(r, &req); err != nil {
		RespondErr(w, r, err)
		return
	}

	ip := req.IPAddress
	if ip == "" {
		ip = remoteIP(r)
	}

	rec, err := h.Recorder.CheckIn(r.Context(), core.CheckInCommand{
		EmployeeID: req.EmployeeID,
		At:         parseTimestamp(req.Timestamp, h.clock().Now()),
		Override:   req.Override,
		Actor:      req.Actor,
		Location:   req.Location,
		IPAddress:  ip,
		Notes:      req.Notes,
	})
	if err != nil {
		RespondErr(w, r, err)
		return
	}

	status, msg := http.StatusCreated, "Checked in"
	if req.Override {
		status, msg = http.StatusOK, "Check-in overridden"
	}
	WriteJSON(w, status, CheckInResponse{Success: true, Message: msg, Record: toRecordResponse(rec, true)})
}

// CheckOut closes the employee's open record.
func (h *AttendanceHandler) CheckOut(w http.ResponseWriter, r *http.Request) {
	var req CheckOutRequest
	if err := decodeBody(r, &req); err != nil {
		RespondErr(w, r, err)
		return
	}

	rec, err := h.Recorder.CheckOut(r.Context(), core.CheckOutCommand{
		EmployeeID: req.EmployeeID,
		At:         parseTimestamp(req.Timestamp, h.clock().Now()),
		Actor:      req.Actor,
	})
	if err != nil {
		RespondErr(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, CheckOutResponse{
		Success:    true,
		Message:    "Checked out",
		TotalHours: rec.TotalHours,
		Status:     string(rec.Status),
		Record:     toRecordResponse(rec, true),
	})
}

// QuickCheckout is the administrative checkout of a record by id.
func (h *AttendanceHandler) QuickCheckout(w http.ResponseWriter, r *http.Request) {
	var req QuickCheckoutRequest
	if err := decodeBody(r, &req); err != nil {
		RespondErr(w, r, err)
		return
	}

	rec, err := h.Recorder.QuickCheckout(r.Context(), core.QuickCheckoutCommand{
		RecordID: req.RecordID,
		At:       parseTimestamp(req.Timestamp, h.clock().Now()),
		Actor:    req.Actor,
	})
	if err != nil {
		RespondErr(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, CheckOutResponse{
		Success:    true,
		Message:    "Record checked out",
		TotalHours: rec.TotalHours,
		Status:     string(rec.Status),
		Record:     toRecordResponse(rec, true),
	})
}

// Recent lists an employee's latest records.
func (h *AttendanceHandler) Recent(w http.ResponseWriter, r *http.Request) {
	q := EmployeeQuery{EmployeeID: r.URL.Query().Get("employee_id")}
	if err := validateStruct(q); err != nil {
		RespondErr(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		RespondErr(w, r, err)
		return
	}

	records, err := h.Recorder.Recent(r.Context(), q.EmployeeID, int(limit))
	if err != nil {
		RespondErr(w, r, err)
		return
	}

	out := make([]RecordResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, toRecordResponse(rec, false))
	}
	WriteJSON(w, http.StatusOK, RecordsResponse{Success: true, Records: out})
}

func (h *AttendanceHandler) requiredID(r *http.Request, name string) (int64, error) {
	id, err := queryInt(r, name)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, model.ValidationErrors{{Field: name, Message: "is required"}}
	}
	return id, nil
}

// Details returns one record including its location, IP address and notes.
func (h *AttendanceHandler) Details(w http.ResponseWriter, r *http.Request) {
	id, err := h.requiredID(r, "id")
	if err != nil {
		RespondErr(w, r, err)
		return
	}

	rec, err := h.Recorder.Get(r.Context(), id)
	if err != nil {
		RespondErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, RecordDetailResponse{Success: true, Record: toRecordResponse(rec, true)})
}

// Audit lists the state transitions of a record.
func (h *AttendanceHandler) Audit(w http.ResponseWriter, r *http.Request) {
	id, err := h.requiredID(r, "record_id")
	if err != nil {
		RespondErr(w, r, err)
		return
	}

	entries, err := h.Recorder.Audit(r.Context(), id)
	if err != nil {
		RespondErr(w, r, err)
		return
	}

	out := make([]AuditResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toAuditResponse(e))
	}
	WriteJSON(w, http.StatusOK, AuditListResponse{Success: true, Entries: out})
}

// Stats returns today's, this week's and this month's hours of an employee.
func (h *AttendanceHandler) Stats(w http.ResponseWriter, r *http.Request) {
	q := EmployeeQuery{EmployeeID: r.URL.Query().Get("employee_id")}
	if err := validateStruct(q); err != nil {
		RespondErr(w, r, err)
		return
	}

	stats, err := h.Reports.EmployeeStats(r.Context(), q.EmployeeID)
	if err != nil {
		RespondErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, StatsResponse{Success: true, Stats: stats})
}

// AttendanceReport returns the dashboard series for a date range.
func (h *AttendanceHandler) AttendanceReport(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	q := ReportQuery{
		StartDate:  query.Get("start_date"),
		EndDate:    query.Get("end_date"),
		Department: query.Get("department"),
	}
	if err := validateStruct(q); err != nil {
		RespondErr(w, r, err)
		return
	}

	rng, err := report.ParseRange(q.StartDate, q.EndDate)
	if err != nil {
		RespondErr(w, r, err)
		return
	}

	rep, err := h.Reports.AttendanceReport(r.Context(), report.Query{Range: rng, Department: q.Department})
	if err != nil {
		RespondErr(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, ReportResponse{Success: true, Report: rep})
}
