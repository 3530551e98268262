package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"stock-service/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// BeginTx starts a database transaction.
func (s *Store) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	return s.db.BeginTxx(ctx, nil)
}

const productColumns = "product_id, name, stock, inventory_type, inventory_unit_type"

// GetProduct retrieves a product by ID; a missing product yields (nil, nil).
func (s *Store) GetProduct(ctx context.Context, productID int64) (*models.Product, error) {
	return getProduct(ctx, s.db, productID)
}

// GetProductTx is GetProduct on an open transaction.
func (s *Store) GetProductTx(ctx context.Context, tx *sqlx.Tx, productID int64) (*models.Product, error) {
	return getProduct(ctx, tx, productID)
}

func getProduct(ctx context.Context, q sqlx.QueryerContext, productID int64) (*models.Product, error) {
	var product models.Product
	err := sqlx.GetContext(ctx, q, &product,
		"SELECT "+productColumns+" FROM product WHERE product_id = $1", productID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetPackWiseProducts retrieves all products whose stock is aggregated
// from vendor offerings. Used to warm the product-stock cache on boot.
func (s *Store) GetPackWiseProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := s.db.SelectContext(ctx, &products,
		"SELECT "+productColumns+" FROM product WHERE inventory_type = $1 ORDER BY product_id",
		models.InventoryTypePackWise)
	return products, err
}

// UpdateProductStockTx writes the aggregated product stock within an open
// transaction.
func (s *Store) UpdateProductStockTx(ctx context.Context, tx *sqlx.Tx, productID int64, stock decimal.Decimal) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE product SET stock = $1 WHERE product_id = $2",
		stock, productID)
	return err
}

// IsEventProcessed checks if an event has been processed
func (s *Store) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM processed_events WHERE event_id = $1)", eventID)
	return exists, err
}

// MarkEventProcessed marks an event as processed
func (s *Store) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO processed_events (event_id, event_type) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING",
		eventID, eventType)
	return err
}
