package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Producer struct {
	sender          MessageSender
	payrollQueueURL string
	emailQueueURL   string
}

func NewProducer(sender MessageSender, payrollQueueURL, emailQueueURL string) *Producer {
	return &Producer{
		sender:          sender,
		payrollQueueURL: payrollQueueURL,
		emailQueueURL:   emailQueueURL,
	}
}

func NewSQSProducer(client SQSClient, payrollQueueURL, emailQueueURL string) *Producer {
	return NewProducer(&SQSSender{client: client}, payrollQueueURL, emailQueueURL)
}

var _ EventPublisher = (*Producer)(nil)

func (p *Producer) PublishCheckedOut(ctx context.Context, event CheckedOutEvent) error {
	return p.publish(ctx, p.payrollQueueURL, EventTypeCheckedOut, event.EmployeeID, event)
}

func (p *Producer) PublishEmail(ctx context.Context, event EmailEvent) error {
	return p.publish(ctx, p.emailQueueURL, EventTypeEmail, event.EmployeeID, event)
}

func (p *Producer) publish(ctx context.Context, destination, eventType, employeeID string, body any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal body: %w", err)
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() && employeeID != "" {
		span.SetAttributes(attribute.String("app.employee_id", employeeID))
	}

	if err := p.sender.SendMessage(ctx, destination, eventType, b); err != nil {
		return fmt.Errorf("failed to send %s message: %w", eventType, err)
	}
	return nil
}
