package models

import "time"

// Event types
const (
	EventTypeStockUpdated         = "STOCK_UPDATED"
	EventTypeConsistencyViolation = "STOCK_CONSISTENCY_VIOLATION"
	EventTypeInventoryTransaction = "INVENTORY_TRANSACTION"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// StockUpdatedEvent is published after a pack stock mutation commits.
type StockUpdatedEvent struct {
	BaseEvent
	VendorProductID int64             `json:"vendor_product_id"`
	TriggerPackID   string            `json:"trigger_pack_id"`
	Reason          string            `json:"reason"`
	PackUpdates     []PackStockUpdate `json:"pack_updates"`
}

// ConsistencyViolationEvent is published when a consistency check finds
// packs that disagree on the underlying base-unit total.
type ConsistencyViolationEvent struct {
	BaseEvent
	VendorProductID int64               `json:"vendor_product_id"`
	Inconsistencies []PackInconsistency `json:"inconsistencies"`
}

// InventoryTransactionEvent carries a stock movement published by an
// upstream workflow (purchase receiving, production issue, sales) for the
// transaction worker to apply.
type InventoryTransactionEvent struct {
	BaseEvent
	Transaction InventoryTransaction `json:"transaction"`
}
