package email

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"attendance.service/internal/core"
	"attendance.service/internal/core/model"
	"attendance.service/internal/ports/directory"
	"attendance.service/internal/ports/messaging"
	"attendance.service/internal/ports/repository"
	"attendance.service/internal/worker"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog/log"
)

// EmailProcessor sends the checkout summary of a record once.
type EmailProcessor struct {
	emailService core.EmailService
	repo         repository.SyncRepository
	directory    directory.Directory
}

// NewProcessor sets up a new processor for handling email-related jobs.
func NewProcessor(emailService core.EmailService, repo repository.SyncRepository, dir directory.Directory) *EmailProcessor {
	return &EmailProcessor{
		emailService: emailService,
		repo:         repo,
		directory:    dir,
	}
}

// Process is the main entry point for handling a message from the email queue.
// It tries to send an email and will tell the worker to retry if something goes wrong.
func (p *EmailProcessor) Process(ctx context.Context, msg types.Message) (bool, int32, error) {
	if msg.Body == nil {
		return false, 0, errors.New("empty email message")
	}
	var event messaging.EmailEvent
	if err := json.Unmarshal([]byte(*msg.Body), &event); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to unmarshal email event")
		return false, 0, err // Do not retry on malformed message
	}

	state, err := p.repo.GetSyncState(ctx, event.RecordID)
	if err != nil {
		// If we can't get the record, retry after a short delay.
		return true, 10, fmt.Errorf("failed to get sync state for email processing: %w", err)
	}

	if state.EmailStatus.Terminal() {
		log.Ctx(ctx).Info().Int64("record_id", event.RecordID).Str("email_status", string(state.EmailStatus)).Msg("Email already handled. Skipping.")
		return false, 0, nil
	}

	employee, err := p.directory.Get(ctx, event.EmployeeID)
	if errors.Is(err, directory.ErrEmployeeNotFound) || (err == nil && employee.Email == "") {
		if uErr := p.repo.UpdateEmailStatus(ctx, event.RecordID, model.DeliveryFailed, state.EmailRetryCount); uErr != nil {
			return true, 10, fmt.Errorf("failed to mark email failed: %w", uErr)
		}
		log.Ctx(ctx).Warn().Str("employee_id", event.EmployeeID).Msg("No email address for employee, record marked FAILED")
		return false, 0, nil
	}
	if err != nil {
		return true, worker.Backoff(state.EmailRetryCount + 1), fmt.Errorf("failed to look up employee: %w", err)
	}

	err = p.emailService.SendCheckoutSummary(ctx, core.CheckoutSummary{
		To:           employee.Email,
		EmployeeName: employee.Name,
		WorkDate:     event.WorkDate,
		TotalHours:   event.TotalHours,
	})
	if err != nil {
		retries := state.EmailRetryCount + 1
		if retries > worker.MaxRetries {
			if uErr := p.repo.UpdateEmailStatus(ctx, event.RecordID, model.DeliveryFailed, retries); uErr != nil {
				return true, 10, fmt.Errorf("failed to mark email failed: %w", uErr)
			}
			log.Ctx(ctx).Error().Err(err).Int("attempts", retries-1).Msg("Email gave up, record marked FAILED")
			return false, 0, nil
		}
		if uErr := p.repo.UpdateEmailStatus(ctx, event.RecordID, model.DeliveryPending, retries); uErr != nil {
			log.Ctx(ctx).Error().Err(uErr).Msg("Failed to update email retry count")
		}
		return true, worker.Backoff(retries), err
	}

	err = p.repo.UpdateEmailStatus(ctx, event.RecordID, model.DeliveryCompleted, 0)
	return false, 0, err
}
