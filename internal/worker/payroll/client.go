package payroll

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"attendance.service/internal/ports/messaging"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Client exports worked hours to the payroll system.
type Client interface {
	RecordHours(ctx context.Context, event messaging.CheckedOutEvent) error
}

// Entry is the payload the payroll API accepts.
type Entry struct {
	RecordID      int64   `json:"recordId"`
	EmployeeID    string  `json:"employeeId"`
	WorkDate      string  `json:"workDate"`
	Hours         float64 `json:"hours"`
	OvertimeHours float64 `json:"overtimeHours"`
	Status        string  `json:"status"`
}

// HTTPClient posts entries to the payroll REST API.
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseURL: baseURL,
	}
}

// RecordHours sends the checkout to the payroll API. The API deduplicates on recordId,
// so a resend after a correction replaces the earlier entry.
func (c *HTTPClient) RecordHours(ctx context.Context, event messaging.CheckedOutEvent) error {
	payload, err := json.Marshal(Entry{
		RecordID:      event.RecordID,
		EmployeeID:    event.EmployeeID,
		WorkDate:      event.WorkDate,
		Hours:         event.TotalHours,
		OvertimeHours: event.OvertimeHours,
		Status:        event.Status,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal payroll payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create payroll request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call payroll api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("payroll api returned non-successful status code: %d", resp.StatusCode)
	}

	log.Ctx(ctx).Info().Str("employee_id", event.EmployeeID).Int64("record_id", event.RecordID).Msg("Hours exported to payroll")
	return nil
}
