package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const listCacheKey = "employees:all"

// HTTPDirectory reads employees from the HR system's REST API. Lookups are cached and
// the remote calls go through a circuit breaker so a failing HR system does not slow
// down every report.
type HTTPDirectory struct {
	client  *http.Client
	baseURL string
	cache   *cache.Cache
	ttl     time.Duration
	cb      *gobreaker.CircuitBreaker
}

// NewHTTPDirectory creates a client for baseURL, caching entries for ttl. A ttl of zero or
// less disables caching.
func NewHTTPDirectory(baseURL string, ttl time.Duration) *HTTPDirectory {
	settings := gobreaker.Settings{
		Name:        "Employee-Directory",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker state changed")
		},
	}

	return &HTTPDirectory{
		client:  &http.Client{Timeout: 5 * time.Second, Transport: otelhttp.NewTransport(http.DefaultTransport)},
		baseURL: baseURL,
		cache:   cache.New(ttl, 2*ttl),
		ttl:     ttl,
		cb:      gobreaker.NewCircuitBreaker(settings),
	}
}

func (d *HTTPDirectory) List(ctx context.Context) ([]Employee, error) {
	if cached, ok := d.cache.Get(listCacheKey); ok {
		return cached.([]Employee), nil
	}

	var employees []Employee
	if err := d.fetch(ctx, "/employees", &employees); err != nil {
		return nil, err
	}

	d.remember(listCacheKey, employees)
	for _, e := range employees {
		d.remember("employee:"+e.ID, e)
	}
	return employees, nil
}

func (d *HTTPDirectory) Get(ctx context.Context, id string) (Employee, error) {
	key := "employee:" + id
	if cached, ok := d.cache.Get(key); ok {
		return cached.(Employee), nil
	}

	var e Employee
	if err := d.fetch(ctx, "/employees/"+url.PathEscape(id), &e); err != nil {
		return Employee{}, err
	}
	d.remember(key, e)
	return e, nil
}

// remember caches v under key. go-cache treats a zero expiration as "never expire",
// so nothing is stored when caching is disabled.
func (d *HTTPDirectory) remember(key string, v any) {
	if d.ttl > 0 {
		d.cache.Set(key, v, d.ttl)
	}
}

func (d *HTTPDirectory) fetch(ctx context.Context, path string, out any) error {
	found, err := d.cb.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+path, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create directory request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := d.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to call directory api: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			// A missing employee is an answer, not a failure of the remote system.
			return false, nil
		}
		if resp.StatusCode >= 300 {
			return nil, fmt.Errorf("directory api returned non-successful status code: %d", resp.StatusCode)
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, fmt.Errorf("failed to decode directory response: %w", err)
		}
		return true, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("employee directory unavailable: %w", err)
	}
	if err != nil {
		return err
	}
	if !found.(bool) {
		return ErrEmployeeNotFound
	}
	return nil
}
