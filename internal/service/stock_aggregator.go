package service

import (
	"context"
	"time"

	"stock-service/internal/models"
	"stock-service/internal/store"
	"stock-service/internal/util"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductStockAggregator recomputes product-level stock as the sum of all
// valid pack stocks across active vendor offerings, expressed in the
// product's base unit. Only PACK_WISE products are aggregated.
type ProductStockAggregator struct {
	store         *store.Store
	unitConverter *UnitConverter
	packCodec     *PackCodec
	logger        *zap.Logger
}

// NewProductStockAggregator creates a product stock aggregator.
func NewProductStockAggregator(store *store.Store, unitConverter *UnitConverter, packCodec *PackCodec) *ProductStockAggregator {
	return &ProductStockAggregator{
		store:         store,
		unitConverter: unitConverter,
		packCodec:     packCodec,
		logger:        util.GetLogger(),
	}
}

// RecomputeProductStock recalculates and persists the aggregate stock of
// a product within the caller's transaction, so the product total is
// never observably stale relative to its packs. Missing products and
// SINGLE inventory products are skipped quietly.
func (a *ProductStockAggregator) RecomputeProductStock(ctx context.Context, tx *sqlx.Tx, productID int64) error {
	start := time.Now()
	defer func() {
		util.ProductAggregationLatency.Observe(time.Since(start).Seconds())
	}()

	product, err := a.store.GetProductTx(ctx, tx, productID)
	if err != nil {
		return err
	}
	if product == nil {
		a.logger.Warn("Product not found for stock aggregation", zap.Int64("product_id", productID))
		return nil
	}

	if product.InventoryType == models.InventoryTypeSingle {
		a.logger.Debug("Product has SINGLE inventory type, skipping aggregation",
			zap.Int64("product_id", productID))
		return nil
	}

	totalStock := a.calculateTotalStockTx(ctx, tx, product)

	if err := a.store.UpdateProductStockTx(ctx, tx, productID, totalStock); err != nil {
		return err
	}

	a.logger.Info("Product stock updated",
		zap.Int64("product_id", productID),
		zap.String("total_stock", totalStock.String()),
		zap.String("inventory_unit_type", product.InventoryUnitType))
	return nil
}

// calculateTotalStockTx sums every valid pack's stock in base units over
// the product's active offerings. A decode failure for one offering is
// logged and that offering skipped; partial failure never aborts the
// aggregation.
func (a *ProductStockAggregator) calculateTotalStockTx(ctx context.Context, tx *sqlx.Tx, product *models.Product) decimal.Decimal {
	if _, err := a.unitConverter.BaseUnit(product.InventoryUnitType); err != nil {
		a.logger.Error("Invalid inventory unit type for product",
			zap.Int64("product_id", product.ProductID),
			zap.String("inventory_unit_type", product.InventoryUnitType),
			zap.Error(err))
		return decimal.Zero
	}

	vendorProducts, err := a.store.GetActiveVendorProductsTx(ctx, tx, product.ProductID)
	if err != nil {
		a.logger.Error("Failed to load vendor products for aggregation",
			zap.Int64("product_id", product.ProductID),
			zap.Error(err))
		return decimal.Zero
	}

	total := decimal.Zero
	for _, vp := range vendorProducts {
		packs, err := a.packCodec.ParsePacks(vp.Packs)
		if err != nil {
			a.logger.Warn("Failed to parse packs for vendor product",
				zap.Int64("vendor_product_id", vp.ID),
				zap.Error(err))
			continue
		}

		a.resolveConversionFactors(packs, vp.ID)
		total = total.Add(sumPackBaseUnits(a.unitConverter, packs))
	}

	return total
}

// resolveConversionFactors computes each pack's factor fresh; persisted
// factors are never trusted. A pack whose factor cannot be computed is
// marked invalid with factor 0 instead of aborting the operation.
func (a *ProductStockAggregator) resolveConversionFactors(packs []*models.Pack, vendorProductID int64) {
	for _, pack := range packs {
		factor, err := a.unitConverter.CalculateConversionFactor(pack.PackSize, pack.PackUnit)
		if err != nil {
			a.logger.Warn("Failed to calculate conversion factor for pack",
				zap.Int64("vendor_product_id", vendorProductID),
				zap.String("pack_id", pack.PackID),
				zap.Error(err))
			pack.ConversionFactor = decimal.Zero
			continue
		}
		pack.ConversionFactor = factor
	}
}

// sumPackBaseUnits adds up the base-unit stock of every valid pack.
func sumPackBaseUnits(converter *UnitConverter, packs []*models.Pack) decimal.Decimal {
	total := decimal.Zero
	for _, pack := range packs {
		if !isValidPack(pack) {
			continue
		}
		total = total.Add(converter.ToBaseUnits(pack.Stock, pack.ConversionFactor))
	}
	return total
}
