package core

import (
	"context"
	"fmt"

	"attendance.service/pkg/telemetry"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// CheckoutSummary is the content of the email sent after a checkout.
type CheckoutSummary struct {
	To           string
	EmployeeName string
	WorkDate     string
	TotalHours   float64
}

type EmailService interface {
	SendCheckoutSummary(ctx context.Context, summary CheckoutSummary) error
}

// SESClient is the subset of the SES client used for summaries.
type SESClient interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SESEmailService struct {
	client SESClient
	sender string
}

func NewSESEmailService(client SESClient, sender string) *SESEmailService {
	return &SESEmailService{client: client, sender: sender}
}

func (s *SESEmailService) SendCheckoutSummary(ctx context.Context, summary CheckoutSummary) error {
	tracer := otel.Tracer("ses-email-service")
	ctx, span := tracer.Start(ctx, "send_email", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	if empID := telemetry.GetEmployeeIDFromContext(ctx); empID != "" {
		span.SetAttributes(attribute.String("app.employee_id", empID))
	}

	name := summary.EmployeeName
	if name == "" {
		name = "there"
	}

	input := &ses.SendEmailInput{
		Source: aws.String(s.sender),
		Destination: &types.Destination{
			ToAddresses: []string{summary.To},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String("Attendance summary for " + summary.WorkDate),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data: aws.String(fmt.Sprintf("Hello %s,\n\nYou have checked out for %s. Total hours worked: %.2f hours.",
						name, summary.WorkDate, summary.TotalHours)),
				},
			},
		},
	}

	_, err := s.client.SendEmail(ctx, input)
	return err
}
