package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"attendance.service/internal/api/handler"
)

// Options tunes the middleware of the router.
type Options struct {
	// RateLimitPerSec of zero disables rate limiting.
	RateLimitPerSec float64
	RateLimitBurst  int
	RequestIPHeader string
}

// NewRouter sets up the gorilla/mux router and defines all API routes.
func NewRouter(h *handler.AttendanceHandler, opts Options) *mux.Router {
	r := mux.NewRouter()
	r.Use(RealIP(opts.RequestIPHeader), RequestID, Recover)

	health := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Service is operational."))
	}
	r.HandleFunc("/health", health).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	if opts.RateLimitPerSec > 0 {
		api.Use(NewIPRateLimiter(rate.Limit(opts.RateLimitPerSec), max(opts.RateLimitBurst, 1)).Middleware)
	}

	api.HandleFunc("/health", health).Methods(http.MethodGet)

	api.HandleFunc("/attendance/check-in", h.CheckIn).Methods(http.MethodPost)
	api.HandleFunc("/attendance/check-out", h.CheckOut).Methods(http.MethodPost)
	api.HandleFunc("/attendance/quick-checkout", h.QuickCheckout).Methods(http.MethodPost)
	api.HandleFunc("/attendance/recent", h.Recent).Methods(http.MethodGet)
	api.HandleFunc("/attendance/details", h.Details).Methods(http.MethodGet)
	api.HandleFunc("/attendance/stats", h.Stats).Methods(http.MethodGet)
	api.HandleFunc("/attendance/audit", h.Audit).Methods(http.MethodGet)

	api.HandleFunc("/reports/attendance", h.AttendanceReport).Methods(http.MethodGet)

	return r
}
