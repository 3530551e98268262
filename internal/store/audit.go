package store

import (
	"context"
	"time"

	"stock-service/internal/models"
)

// InsertAuditEntry appends one immutable row to the stock audit log.
// Entries are never updated or deleted after creation.
func (s *Store) InsertAuditEntry(ctx context.Context, entry *models.StockAuditEntry) error {
	query := `
		INSERT INTO stock_audit_log (vendor_product_id, kind, trigger_pack_id, pack_updates, reason, user_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	return s.db.GetContext(ctx, entry, query,
		entry.VendorProductID, entry.Kind, entry.TriggerPackID,
		entry.PackUpdates, entry.Reason, entry.UserID)
}

// ListAuditEntries retrieves the audit trail for one offering within a
// time range, newest first.
func (s *Store) ListAuditEntries(ctx context.Context, vendorProductID int64, from, to time.Time) ([]models.StockAuditEntry, error) {
	var entries []models.StockAuditEntry
	err := s.db.SelectContext(ctx, &entries, `
		SELECT id, vendor_product_id, kind, trigger_pack_id, pack_updates, reason, user_id, created_at
		FROM stock_audit_log
		WHERE vendor_product_id = $1 AND created_at >= $2 AND created_at <= $3
		ORDER BY created_at DESC`,
		vendorProductID, from, to)
	return entries, err
}
