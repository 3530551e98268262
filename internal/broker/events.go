package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"stock-service/internal/models"
	"stock-service/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishStockUpdated publishes a StockUpdated event keyed by offering so
// updates to one offering stay ordered.
func (ep *EventPublisher) PublishStockUpdated(ctx context.Context, event *models.StockUpdatedEvent) error {
	key := fmt.Sprintf("vendor-product-%d", event.VendorProductID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishConsistencyViolation publishes a ConsistencyViolation event
func (ep *EventPublisher) PublishConsistencyViolation(ctx context.Context, event *models.ConsistencyViolationEvent) error {
	key := fmt.Sprintf("vendor-product-%d", event.VendorProductID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// EventHandler routes incoming events to registered handlers
type EventHandler struct {
	onInventoryTransaction func(context.Context, *models.InventoryTransactionEvent) error
	logger                 *zap.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{logger: util.GetLogger()}
}

// OnInventoryTransaction registers a handler for InventoryTransaction events
func (eh *EventHandler) OnInventoryTransaction(handler func(context.Context, *models.InventoryTransactionEvent) error) {
	eh.onInventoryTransaction = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	eh.logger.Debug("Handling event",
		zap.String("type", baseEvent.EventType),
		zap.String("id", baseEvent.EventID))

	switch baseEvent.EventType {
	case models.EventTypeInventoryTransaction:
		if eh.onInventoryTransaction != nil {
			var event models.InventoryTransactionEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal InventoryTransaction event: %w", err)
			}
			return eh.onInventoryTransaction(ctx, &event)
		}

	default:
		eh.logger.Debug("Unhandled event type", zap.String("type", baseEvent.EventType))
	}

	return nil
}
