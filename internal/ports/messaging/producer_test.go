package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSQS struct {
	inputs []*sqs.SendMessageInput
	err    error
}

func (f *fakeSQS) SendMessage(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.inputs = append(f.inputs, params)
	return &sqs.SendMessageOutput{}, f.err
}

func TestProducer_PublishCheckedOut(t *testing.T) {
	client := &fakeSQS{}
	p := NewSQSProducer(client, "payroll-url", "email-url")

	event := CheckedOutEvent{
		RecordID:     7,
		EmployeeID:   "emp-1",
		WorkDate:     "2026-03-02",
		TotalHours:   8.5,
		Status:       "overtime",
		CheckOutTime: time.Date(2026, 3, 2, 18, 30, 0, 0, time.UTC),
	}
	require.NoError(t, p.PublishCheckedOut(context.Background(), event))

	require.Len(t, client.inputs, 1)
	in := client.inputs[0]
	assert.Equal(t, "payroll-url", *in.QueueUrl)
	assert.Equal(t, EventTypeCheckedOut, *in.MessageAttributes["EventType"].StringValue)

	var decoded CheckedOutEvent
	require.NoError(t, json.Unmarshal([]byte(*in.MessageBody), &decoded))
	assert.Equal(t, event, decoded)
}

func TestProducer_PublishEmail_WrapsSendError(t *testing.T) {
	client := &fakeSQS{err: errors.New("queue down")}
	p := NewSQSProducer(client, "payroll-url", "email-url")

	err := p.PublishEmail(context.Background(), EmailEvent{RecordID: 1, EmployeeID: "emp-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), EventTypeEmail)
	assert.Equal(t, "email-url", *client.inputs[0].QueueUrl)
}
