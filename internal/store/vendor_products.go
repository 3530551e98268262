package store

import (
	"context"
	"database/sql"
	"fmt"

	"stock-service/internal/models"

	"github.com/jmoiron/sqlx"
)

const vendorProductColumns = "id, admin_vendor_id, product_id, packs, default_pack_id, status, in_stock, created_at"

// GetVendorProduct retrieves a vendor offering by ID; a missing row
// yields (nil, nil).
func (s *Store) GetVendorProduct(ctx context.Context, id int64) (*models.VendorProduct, error) {
	return getVendorProduct(ctx, s.db, id, "")
}

// GetVendorProductForUpdate locks the offering row for the duration of
// the transaction so concurrent updates to the same offering serialize.
func (s *Store) GetVendorProductForUpdate(ctx context.Context, tx *sqlx.Tx, id int64) (*models.VendorProduct, error) {
	return getVendorProduct(ctx, tx, id, " FOR UPDATE")
}

func getVendorProduct(ctx context.Context, q sqlx.QueryerContext, id int64, suffix string) (*models.VendorProduct, error) {
	var vp models.VendorProduct
	err := sqlx.GetContext(ctx, q, &vp,
		"SELECT "+vendorProductColumns+" FROM vendor_products WHERE id = $1"+suffix, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &vp, nil
}

// GetActiveVendorProducts retrieves the active offerings of a product in
// id order.
func (s *Store) GetActiveVendorProducts(ctx context.Context, productID int64) ([]models.VendorProduct, error) {
	return getActiveVendorProducts(ctx, s.db, productID)
}

// GetActiveVendorProductsTx is GetActiveVendorProducts on an open
// transaction.
func (s *Store) GetActiveVendorProductsTx(ctx context.Context, tx *sqlx.Tx, productID int64) ([]models.VendorProduct, error) {
	return getActiveVendorProducts(ctx, tx, productID)
}

func getActiveVendorProducts(ctx context.Context, q sqlx.QueryerContext, productID int64) ([]models.VendorProduct, error) {
	var vps []models.VendorProduct
	err := sqlx.SelectContext(ctx, q, &vps,
		"SELECT "+vendorProductColumns+" FROM vendor_products WHERE product_id = $1 AND status = $2 ORDER BY id",
		productID, models.VendorProductStatusActive)
	return vps, err
}

// UpdateVendorProductPacksTx persists the re-encoded pack collection and
// the derived offering-level in-stock flag within an open transaction.
func (s *Store) UpdateVendorProductPacksTx(ctx context.Context, tx *sqlx.Tx, id int64, packsJSON, inStock string) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE vendor_products SET packs = $1, in_stock = $2 WHERE id = $3",
		packsJSON, inStock, id)
	return err
}

// ListVendorProducts retrieves a page of offerings joined with their
// product names, optionally filtered by product name, newest first.
// Returns the page plus the total match count.
func (s *Store) ListVendorProducts(ctx context.Context, limit, offset int, search string) ([]models.VendorProductView, int, error) {
	where := ""
	args := []interface{}{}
	if search != "" {
		where = " WHERE p.name ILIKE $1"
		args = append(args, "%"+search+"%")
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM vendor_products vp JOIN product p ON vp.product_id = p.product_id" + where
	if err := s.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count vendor products: %w", err)
	}

	query := `
		SELECT vp.id, vp.admin_vendor_id, vp.product_id, p.name AS product_name,
		       vp.packs, vp.default_pack_id, vp.status, vp.in_stock, vp.created_at
		FROM vendor_products vp
		JOIN product p ON vp.product_id = p.product_id` + where +
		fmt.Sprintf(" ORDER BY vp.id DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	var views []models.VendorProductView
	if err := s.db.SelectContext(ctx, &views, query, args...); err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

// GetVendorProductView retrieves one offering joined with its product
// name; a missing row yields (nil, nil).
func (s *Store) GetVendorProductView(ctx context.Context, id int64) (*models.VendorProductView, error) {
	var view models.VendorProductView
	err := s.db.GetContext(ctx, &view, `
		SELECT vp.id, vp.admin_vendor_id, vp.product_id, p.name AS product_name,
		       vp.packs, vp.default_pack_id, vp.status, vp.in_stock, vp.created_at
		FROM vendor_products vp
		JOIN product p ON vp.product_id = p.product_id
		WHERE vp.id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &view, nil
}
