package service

import (
	"context"
	"encoding/json"
	"time"

	"stock-service/internal/broker"
	"stock-service/internal/models"
	"stock-service/internal/store"
	"stock-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StockAuditLogger appends immutable records of stock mutations and
// consistency violations. Recording never returns an error: a failed
// audit write must not unwind a committed stock mutation, so failures go
// to the log and the failure counter instead.
type StockAuditLogger struct {
	store          *store.Store
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger
}

// NewStockAuditLogger creates a new audit logger.
func NewStockAuditLogger(store *store.Store, eventPublisher *broker.EventPublisher) *StockAuditLogger {
	return &StockAuditLogger{
		store:          store,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// RecordUpdate appends one audit entry for a completed stock mutation and
// publishes the matching event.
func (al *StockAuditLogger) RecordUpdate(
	ctx context.Context,
	vendorProductID int64,
	triggerPackID string,
	updates []models.PackStockUpdate,
	reason string,
	userID *int64,
) {
	updatesJSON, err := json.Marshal(updates)
	if err != nil {
		util.AuditWriteFailuresTotal.Inc()
		al.logger.Error("Failed to marshal pack updates for audit", zap.Error(err))
		return
	}

	entry := &models.StockAuditEntry{
		VendorProductID: vendorProductID,
		Kind:            models.AuditKindStockUpdate,
		TriggerPackID:   triggerPackID,
		PackUpdates:     string(updatesJSON),
		Reason:          reason,
		UserID:          userID,
	}

	if err := al.store.InsertAuditEntry(ctx, entry); err != nil {
		util.AuditWriteFailuresTotal.Inc()
		al.logger.Error("Failed to persist stock audit entry",
			zap.Int64("vendor_product_id", vendorProductID),
			zap.Error(err))
	}

	al.logger.Info("Stock update completed",
		zap.Int64("vendor_product_id", vendorProductID),
		zap.String("trigger_pack_id", triggerPackID),
		zap.String("reason", reason),
		zap.Int("total_packs_updated", len(updates)))

	event := &models.StockUpdatedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeStockUpdated,
			Timestamp: time.Now(),
		},
		VendorProductID: vendorProductID,
		TriggerPackID:   triggerPackID,
		Reason:          reason,
		PackUpdates:     updates,
	}
	if err := al.eventPublisher.PublishStockUpdated(ctx, event); err != nil {
		al.logger.Error("Failed to publish StockUpdated event", zap.Error(err))
	}
}

// RecordConsistencyViolation appends one audit entry for a failed
// consistency check. Purely observational; pack data is never touched.
func (al *StockAuditLogger) RecordConsistencyViolation(
	ctx context.Context,
	vendorProductID int64,
	inconsistencies []models.PackInconsistency,
) {
	detailsJSON, err := json.Marshal(inconsistencies)
	if err != nil {
		util.AuditWriteFailuresTotal.Inc()
		al.logger.Error("Failed to marshal inconsistencies for audit", zap.Error(err))
		return
	}

	entry := &models.StockAuditEntry{
		VendorProductID: vendorProductID,
		Kind:            models.AuditKindConsistencyViolation,
		PackUpdates:     string(detailsJSON),
		Reason:          "stock consistency validation failed",
	}

	if err := al.store.InsertAuditEntry(ctx, entry); err != nil {
		util.AuditWriteFailuresTotal.Inc()
		al.logger.Error("Failed to persist consistency violation entry",
			zap.Int64("vendor_product_id", vendorProductID),
			zap.Error(err))
	}

	al.logger.Error("Stock consistency validation failed",
		zap.Int64("vendor_product_id", vendorProductID),
		zap.Int("total_inconsistencies", len(inconsistencies)))

	event := &models.ConsistencyViolationEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeConsistencyViolation,
			Timestamp: time.Now(),
		},
		VendorProductID: vendorProductID,
		Inconsistencies: inconsistencies,
	}
	if err := al.eventPublisher.PublishConsistencyViolation(ctx, event); err != nil {
		al.logger.Error("Failed to publish ConsistencyViolation event", zap.Error(err))
	}
}

// ListEntries returns the audit trail for an offering within a time
// range. The audit sink supports query by offering id and time range.
func (al *StockAuditLogger) ListEntries(ctx context.Context, vendorProductID int64, from, to time.Time) ([]models.StockAuditEntry, error) {
	return al.store.ListAuditEntries(ctx, vendorProductID, from, to)
}
