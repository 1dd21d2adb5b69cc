package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Producer struct {
	sender         MessageSender
	ledgerQueueURL string
	notifyQueueURL string
}

func NewProducer(sender MessageSender, ledgerQueueURL, notifyQueueURL string) *Producer {
	return &Producer{
		sender:         sender,
		ledgerQueueURL: ledgerQueueURL,
		notifyQueueURL: notifyQueueURL,
	}
}

func NewSQSProducer(client SQSClient, ledgerQueueURL, notifyQueueURL string) *Producer {
	return NewProducer(&SQSSender{client: client}, ledgerQueueURL, notifyQueueURL)
}

func (p *Producer) PublishLedger(ctx context.Context, body interface{}) error {
	return p.publish(ctx, p.ledgerQueueURL, body)
}

func (p *Producer) PublishDecision(ctx context.Context, body interface{}) error {
	return p.publish(ctx, p.notifyQueueURL, body)
}

func (p *Producer) publish(ctx context.Context, destination string, body interface{}) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal body: %w", err)
	}

	// Enrich the current span with user_id if available
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		var payload struct {
			UserID string `json:"userId"`
		}
		if err := json.Unmarshal(b, &payload); err == nil && payload.UserID != "" {
			span.SetAttributes(attribute.String("app.user_id", payload.UserID))
		}
	}

	if err := p.sender.SendMessage(ctx, destination, b); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}
