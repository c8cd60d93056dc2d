package api

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"attendance.service/internal/api/handler"
	"attendance.service/pkg/logger"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const RequestIDHeader = "X-Request-ID"

// RequestID tags the request logger and the response with a request id, reusing the
// caller's id when one is sent.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logger.WithRequestID(r.Context(), id)))
	})
}

// RealIP replaces RemoteAddr with the first address of header when the service runs
// behind a proxy that sets it.
func RealIP(header string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		if header == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if v := r.Header.Get(header); v != "" {
				ip := strings.TrimSpace(strings.Split(v, ",")[0])
				if net.ParseIP(ip) != nil {
					r.RemoteAddr = net.JoinHostPort(ip, "0")
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Recover turns a handler panic into an INTERNAL_ERROR response.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				log.Ctx(r.Context()).Error().Interface("panic", p).Str("path", r.URL.Path).Msg("Handler panicked")
				handler.RespondError(w, http.StatusInternalServerError, handler.CodeInternal, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// IPRateLimiter stores a token bucket per client IP. Buckets of idle clients expire.
type IPRateLimiter struct {
	mu       sync.Mutex
	limiters *cache.Cache
	r        rate.Limit
	b        int
}

func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{
		limiters: cache.New(10*time.Minute, 20*time.Minute),
		r:        r,
		b:        b,
	}
}

// GetLimiter returns the limiter of ip, creating it on first use.
func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	if l, ok := i.limiters.Get(ip); ok {
		i.limiters.SetDefault(ip, l)
		return l.(*rate.Limiter)
	}
	l := rate.NewLimiter(i.r, i.b)
	i.limiters.SetDefault(ip, l)
	return l
}

// Middleware rejects requests over the limit with RATE_LIMITED.
func (i *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		if !i.GetLimiter(ip).Allow() {
			w.Header().Set("Retry-After", "1")
			handler.RespondError(w, http.StatusTooManyRequests, handler.CodeRateLimited, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}
