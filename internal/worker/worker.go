package worker

import (
	"context"

	"stock-service/internal/broker"
	"stock-service/internal/models"
	"stock-service/internal/service"
	"stock-service/internal/store"
	"stock-service/internal/util"

	"go.uber.org/zap"
)

// TransactionWorker consumes inventory transaction events and applies
// them through the stock manager. Events are deduplicated against the
// processed_events table so redeliveries are no-ops.
type TransactionWorker struct {
	consumer *broker.Consumer
	handler  *broker.EventHandler
	manager  *service.StockManagerService
	store    *store.Store
	logger   *zap.Logger
}

// NewTransactionWorker creates a worker bound to the transaction topic
// consumer.
func NewTransactionWorker(consumer *broker.Consumer, manager *service.StockManagerService, store *store.Store) *TransactionWorker {
	w := &TransactionWorker{
		consumer: consumer,
		handler:  broker.NewEventHandler(),
		manager:  manager,
		store:    store,
		logger:   util.GetLogger(),
	}
	w.handler.OnInventoryTransaction(w.handleInventoryTransaction)
	return w
}

// Start runs the consume loop until the context is cancelled.
func (w *TransactionWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting inventory transaction worker")
	return w.consumer.StartConsuming(ctx, w.handler.HandleMessage)
}

// Stop closes the underlying consumer.
func (w *TransactionWorker) Stop() error {
	return w.consumer.Close()
}

func (w *TransactionWorker) handleInventoryTransaction(ctx context.Context, event *models.InventoryTransactionEvent) error {
	processed, err := w.store.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return err
	}
	if processed {
		w.logger.Debug("Skipping already processed event", zap.String("event_id", event.EventID))
		return nil
	}

	result := w.manager.ProcessInventoryTransaction(ctx, event.Transaction)
	if !result.Success {
		// Malformed transactions are logged and acknowledged; retrying
		// them cannot succeed and would wedge the partition.
		w.logger.Error("Inventory transaction rejected",
			zap.String("event_id", event.EventID),
			zap.Int64("vendor_product_id", event.Transaction.VendorProductID),
			zap.String("message", result.Message),
			zap.Any("errors", result.Errors))
	}

	if err := w.store.MarkEventProcessed(ctx, event.EventID, event.EventType); err != nil {
		return err
	}
	return nil
}
