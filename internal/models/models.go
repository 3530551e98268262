package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents an entry in the product catalog. Product-level stock
// is always held in the base unit of the product's inventory unit type.
type Product struct {
	ProductID         int64           `db:"product_id" json:"product_id"`
	Name              string          `db:"name" json:"name"`
	Stock             decimal.Decimal `db:"stock" json:"stock"`
	InventoryType     string          `db:"inventory_type" json:"inventory_type"`
	InventoryUnitType string          `db:"inventory_unit_type" json:"inventory_unit_type"`
}

// Inventory types
const (
	InventoryTypePackWise = "PACK_WISE"
	InventoryTypeSingle   = "SINGLE"
)

// VendorProduct is one vendor's offering of a product. The packs column
// holds the encoded package collection; in_stock is derived from it.
type VendorProduct struct {
	ID            int64     `db:"id" json:"id"`
	AdminVendorID int64     `db:"admin_vendor_id" json:"admin_vendor_id"`
	ProductID     int64     `db:"product_id" json:"product_id"`
	Packs         string    `db:"packs" json:"packs"`
	DefaultPackID string    `db:"default_pack_id" json:"default_pack_id"`
	Status        string    `db:"status" json:"status"`
	InStock       string    `db:"in_stock" json:"in_stock"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Vendor product statuses
const (
	VendorProductStatusActive   = "1"
	VendorProductStatusInactive = "0"
)

// VendorProductView is the listing shape returned by the API, with the
// product name joined in and the in-stock flag recomputed from the
// decoded packs rather than trusted from the stored column.
type VendorProductView struct {
	ID            int64     `db:"id" json:"id"`
	AdminVendorID int64     `db:"admin_vendor_id" json:"admin_vendor_id"`
	ProductID     int64     `db:"product_id" json:"product_id"`
	ProductName   string    `db:"product_name" json:"product_name"`
	Packs         string    `db:"packs" json:"packs"`
	DefaultPackID string    `db:"default_pack_id" json:"default_pack_id"`
	Status        string    `db:"status" json:"status"`
	InStock       string    `db:"in_stock" json:"in_stock"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// StockAuditEntry is one immutable row in the stock audit log. PackUpdates
// holds the per-pack before/after values as JSON.
type StockAuditEntry struct {
	ID              int64     `db:"id" json:"id"`
	VendorProductID int64     `db:"vendor_product_id" json:"vendor_product_id"`
	Kind            string    `db:"kind" json:"kind"`
	TriggerPackID   string    `db:"trigger_pack_id" json:"trigger_pack_id"`
	PackUpdates     string    `db:"pack_updates" json:"pack_updates"`
	Reason          string    `db:"reason" json:"reason"`
	UserID          *int64    `db:"user_id" json:"user_id,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// Audit entry kinds
const (
	AuditKindStockUpdate          = "STOCK_UPDATE"
	AuditKindConsistencyViolation = "CONSISTENCY_VIOLATION"
)

// InventoryTransaction is the caller-facing shape of a stock movement
// (purchase, sale, damage, ...) that maps onto a pack stock update.
type InventoryTransaction struct {
	VendorProductID int64            `json:"vendor_product_id"`
	PackID          string           `json:"pack_id"`
	Quantity        *decimal.Decimal `json:"quantity"`
	ActionType      string           `json:"action_type"`
	Notes           string           `json:"notes,omitempty"`
}

// Transaction action types
const (
	ActionPurchase           = "purchase"
	ActionReturn             = "return"
	ActionAdjustmentIncrease = "adjustment_increase"
	ActionSale               = "sale"
	ActionDamage             = "damage"
	ActionAdjustmentDecrease = "adjustment_decrease"
	ActionAdjustment         = "adjustment"
)

// ProcessedEvent for consumer idempotency
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}
