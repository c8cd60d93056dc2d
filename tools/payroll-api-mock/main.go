package main

import (
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"os"
	"strconv"
	"sync"

	"attendance.service/internal/worker/payroll"
	"attendance.service/pkg/logger"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

// ledger keeps the last entry per attendance record, like the real payroll API.
type ledger struct {
	mu       sync.Mutex
	entries  map[int64]payroll.Entry
	failRate float64
}

func (l *ledger) record(w http.ResponseWriter, r *http.Request) {
	var entry payroll.Entry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil || entry.RecordID == 0 {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	if l.failRate > 0 && rand.Float64() < l.failRate {
		log.Warn().Int64("recordId", entry.RecordID).Msg("Simulating payroll outage")
		http.Error(w, "Service unavailable", http.StatusServiceUnavailable)
		return
	}

	l.mu.Lock()
	_, replaced := l.entries[entry.RecordID]
	l.entries[entry.RecordID] = entry
	l.mu.Unlock()

	log.Info().
		Int64("recordId", entry.RecordID).
		Str("employeeId", entry.EmployeeID).
		Str("workDate", entry.WorkDate).
		Float64("hours", entry.Hours).
		Float64("overtimeHours", entry.OvertimeHours).
		Bool("replaced", replaced).
		Msg("Received payroll entry")
	w.WriteHeader(http.StatusOK)
}

func (l *ledger) list(w http.ResponseWriter, _ *http.Request) {
	l.mu.Lock()
	out := make([]payroll.Entry, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, e)
	}
	l.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func main() {
	logger.Setup(true)

	// FAIL_RATE between 0 and 1 makes a share of requests fail with 503.
	failRate, _ := strconv.ParseFloat(os.Getenv("FAIL_RATE"), 64)
	l := &ledger{entries: make(map[int64]payroll.Entry), failRate: failRate}

	r := mux.NewRouter()
	r.HandleFunc("/", l.record).Methods(http.MethodPost)
	r.HandleFunc("/entries", l.list).Methods(http.MethodGet)

	log.Info().Float64("failRate", failRate).Msg("Payroll API mock server starting on port 8081...")
	log.Fatal().Err(http.ListenAndServe(":8081", r)).Msg("listen")
}
