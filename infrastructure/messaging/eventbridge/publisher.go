package eventbridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Anidipta/Node-Learner/application/ports"
	"github.com/Anidipta/Node-Learner/domain/events"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"
)

// EventBridgePublisher implements the EventBus interface using AWS EventBridge.
// In-process subscribers registered via Subscribe see every event on publish,
// independent of EventBridge delivery.
type EventBridgePublisher struct {
	client       *eventbridge.Client
	eventBusName string
	source       string
	logger       *zap.Logger

	mu       sync.RWMutex
	handlers map[string][]ports.EventHandler
}

// NewEventBridgePublisher creates a new EventBridge publisher
func NewEventBridgePublisher(
	client *eventbridge.Client,
	eventBusName string,
	logger *zap.Logger,
) ports.EventBus {
	return &EventBridgePublisher{
		client:       client,
		eventBusName: eventBusName,
		source:       events.SourceExploration,
		logger:       logger,
		handlers:     make(map[string][]ports.EventHandler),
	}
}

// Subscribe registers a local handler for an event type.
func (p *EventBridgePublisher) Subscribe(eventType string, handler ports.EventHandler) error {
	if handler == nil {
		return fmt.Errorf("handler must not be nil")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers[eventType] = append(p.handlers[eventType], handler)
	return nil
}

// Unsubscribe removes a previously registered handler.
func (p *EventBridgePublisher) Unsubscribe(eventType string, handler ports.EventHandler) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	registered := p.handlers[eventType]
	for i, h := range registered {
		if h == handler {
			p.handlers[eventType] = append(registered[:i], registered[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("handler not registered for event type %s", eventType)
}

// Publish sends a single event to EventBridge
func (p *EventBridgePublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	return p.PublishBatch(ctx, []events.DomainEvent{event})
}

// PublishBatch sends multiple events to EventBridge
func (p *EventBridgePublisher) PublishBatch(ctx context.Context, domainEvents []events.DomainEvent) error {
	if len(domainEvents) == 0 {
		return nil
	}

	p.dispatchLocal(ctx, domainEvents)

	// EventBridge limits to 10 events per PutEvents call
	const batchSize = 10

	for i := 0; i < len(domainEvents); i += batchSize {
		end := i + batchSize
		if end > len(domainEvents) {
			end = len(domainEvents)
		}

		if err := p.publishWithRetry(ctx, domainEvents[i:end]); err != nil {
			return err
		}
	}

	return nil
}

// dispatchLocal runs registered in-process handlers for each event.
// Handler errors are logged and never fail the publish.
func (p *EventBridgePublisher) dispatchLocal(ctx context.Context, domainEvents []events.DomainEvent) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, event := range domainEvents {
		for _, handler := range p.handlers[event.GetEventType()] {
			if !handler.CanHandle(event.GetEventType()) {
				continue
			}
			if err := handler.Handle(ctx, event); err != nil {
				p.logger.Warn("Local event handler failed",
					zap.String("eventType", event.GetEventType()),
					zap.Error(err),
				)
			}
		}
	}
}

// publishBatch publishes a batch of events (max 10)
func (p *EventBridgePublisher) publishBatch(ctx context.Context, domainEvents []events.DomainEvent) error {
	entries := make([]types.PutEventsRequestEntry, 0, len(domainEvents))

	for _, event := range domainEvents {
		eventData, err := json.Marshal(event)
		if err != nil {
			p.logger.Error("Failed to marshal event",
				zap.Error(err),
				zap.String("eventType", event.GetEventType()),
			)
			continue
		}

		entry := types.PutEventsRequestEntry{
			EventBusName: aws.String(p.eventBusName),
			Source:       aws.String(p.source),
			DetailType:   aws.String(event.GetEventType()),
			Detail:       aws.String(string(eventData)),
			Time:         aws.Time(event.GetTimestamp()),
			Resources: []string{
				fmt.Sprintf("arn:aws:nodelearner::%s", event.GetAggregateID()),
			},
		}

		entries = append(entries, entry)
	}

	if len(entries) == 0 {
		return nil
	}

	input := &eventbridge.PutEventsInput{
		Entries: entries,
	}

	result, err := p.client.PutEvents(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to publish events to EventBridge: %w", err)
	}

	if result.FailedEntryCount > 0 {
		for i, entry := range result.Entries {
			if entry.ErrorCode != nil {
				p.logger.Error("Failed to publish event",
					zap.String("eventType", domainEvents[i].GetEventType()),
					zap.String("errorCode", *entry.ErrorCode),
					zap.String("errorMessage", aws.ToString(entry.ErrorMessage)),
				)
			}
		}
		return fmt.Errorf("%d events failed to publish", result.FailedEntryCount)
	}

	p.logger.Debug("Events published to EventBridge",
		zap.Int("count", len(entries)),
		zap.String("eventBus", p.eventBusName),
	)

	return nil
}

// publishWithRetry publishes a batch with exponential backoff on
// transient EventBridge failures.
func (p *EventBridgePublisher) publishWithRetry(ctx context.Context, domainEvents []events.DomainEvent) error {
	const maxRetries = 3
	backoff := 100 * time.Millisecond

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		lastErr = p.publishBatch(ctx, domainEvents)
		if lastErr == nil {
			return nil
		}

		if !isRetryableError(lastErr) {
			return lastErr
		}

		if attempt < maxRetries-1 {
			p.logger.Warn("Retrying event publication",
				zap.Int("attempt", attempt+1),
				zap.Error(lastErr),
				zap.Duration("backoff", backoff),
			)

			select {
			case <-time.After(backoff):
				backoff *= 2
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return fmt.Errorf("failed to publish events after %d attempts: %w", maxRetries, lastErr)
}

// isRetryableError reports whether an EventBridge failure is transient.
// Server faults and throttling are retried; client faults are not.
func isRetryableError(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ThrottlingException", "InternalException", "InternalFailure":
			return true
		}
		return apiErr.ErrorFault() == smithy.FaultServer
	}
	// Partial-batch failures surface as plain errors; retry those too.
	return true
}
