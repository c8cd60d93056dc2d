package payroll

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/messaging"
	"attendance.service/internal/ports/repository"
	"attendance.service/internal/worker"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

// Processor handles jobs from the payroll queue. The payroll API sits behind a circuit
// breaker so an outage does not get hammered by every queued checkout.
type Processor struct {
	repo   repository.SyncRepository
	client Client
	cb     *gobreaker.CircuitBreaker
}

func NewProcessor(repo repository.SyncRepository, client Client) *Processor {
	settings := gobreaker.Settings{
		Name:        "Payroll-API",
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Trip if failure rate is bigger then 50% after at least 10 requests
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker state changed")
		},
	}

	return &Processor{
		repo:   repo,
		client: client,
		cb:     gobreaker.NewCircuitBreaker(settings),
	}
}

// Process exports one checkout and records the delivery state.
func (p *Processor) Process(ctx context.Context, msg types.Message) (bool, int32, error) {
	if msg.Body == nil {
		return false, 0, errors.New("empty payroll message")
	}
	var event messaging.CheckedOutEvent
	if err := json.Unmarshal([]byte(*msg.Body), &event); err != nil {
		return false, 0, fmt.Errorf("failed to unmarshal payroll event: %w", err)
	}

	logger := log.Ctx(ctx).With().Int64("record_id", event.RecordID).Str("employee_id", event.EmployeeID).Logger()
	logger.Debug().Float64("total_hours", event.TotalHours).Msg("Processing payroll export")

	state, err := p.repo.GetSyncState(ctx, event.RecordID)
	if err != nil {
		return true, 10, fmt.Errorf("failed to get sync state: %w", err)
	}

	// COMPLETED and FAILED are terminal until a correction rewrites the record and resets
	// the state. A stale event for different hours is skipped rather than exported.
	if state.PayrollStatus.Terminal() || state.TotalHours != event.TotalHours {
		logger.Info().Str("payroll_status", string(state.PayrollStatus)).Msg("Payroll export not needed. Skipping.")
		return false, 0, nil
	}

	_, err = p.cb.Execute(func() (interface{}, error) {
		return nil, p.client.RecordHours(ctx, event)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			logger.Warn().Msg("Circuit breaker is open; skipping payroll API call")
		}

		retries := state.PayrollRetryCount + 1
		if retries > worker.MaxRetries {
			if uErr := p.repo.UpdatePayrollStatus(ctx, event.RecordID, model.DeliveryFailed, retries); uErr != nil {
				return true, 10, fmt.Errorf("failed to mark payroll export failed: %w", uErr)
			}
			logger.Error().Err(err).Int("attempts", retries-1).Msg("Payroll export gave up, record marked FAILED")
			return false, 0, nil
		}
		if uErr := p.repo.UpdatePayrollStatus(ctx, event.RecordID, model.DeliveryPending, retries); uErr != nil {
			logger.Error().Err(uErr).Msg("Failed to update payroll retry count")
		}
		return true, worker.Backoff(retries), err
	}

	if err := p.repo.UpdatePayrollStatus(ctx, event.RecordID, model.DeliveryCompleted, state.PayrollRetryCount); err != nil {
		return true, 10, fmt.Errorf("failed to mark payroll export completed: %w", err)
	}
	return false, 0, nil
}
