package service

import (
	"context"
	"fmt"
	"time"

	"stock-service/internal/models"
	"stock-service/internal/redisclient"
	"stock-service/internal/store"
	"stock-service/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StockManagerService is the single entry point for mutating package
// stock. Purchase receiving, production issue/receive, manual adjustment
// and sales all go through it; nothing else may write pack stock.
type StockManagerService struct {
	store            *store.Store
	redis            *redisclient.Client
	unitConverter    *UnitConverter
	packCodec        *PackCodec
	packSynchronizer *PackSynchronizer
	aggregator       *ProductStockAggregator
	auditLogger      *StockAuditLogger
	reductionLockTTL time.Duration
	logger           *zap.Logger
}

// NewStockManagerService creates the stock orchestrator.
func NewStockManagerService(
	store *store.Store,
	redis *redisclient.Client,
	unitConverter *UnitConverter,
	packCodec *PackCodec,
	packSynchronizer *PackSynchronizer,
	aggregator *ProductStockAggregator,
	auditLogger *StockAuditLogger,
	reductionLockTTL time.Duration,
) *StockManagerService {
	if reductionLockTTL <= 0 {
		reductionLockTTL = 10 * time.Second
	}
	return &StockManagerService{
		store:            store,
		redis:            redis,
		unitConverter:    unitConverter,
		packCodec:        packCodec,
		packSynchronizer: packSynchronizer,
		aggregator:       aggregator,
		auditLogger:      auditLogger,
		reductionLockTTL: reductionLockTTL,
		logger:           util.GetLogger(),
	}
}

// UpdatePackStock applies a stock change (in the trigger pack's own unit)
// to one pack and synchronizes its siblings so all packs agree on one
// base-unit total. The pack persist and the product aggregation commit in
// one transaction; the audit entry and cache refresh follow the commit.
func (s *StockManagerService) UpdatePackStock(
	ctx context.Context,
	vendorProductID int64,
	packID string,
	stockChange decimal.Decimal,
	reason string,
) models.StockUpdateResult {
	ctx, span := util.StartSpan(ctx, "StockManagerService.UpdatePackStock")
	defer span.End()

	start := time.Now()
	defer func() {
		util.StockUpdateLatency.Observe(time.Since(start).Seconds())
	}()

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		util.StockUpdateFailuresTotal.WithLabelValues("db_error").Inc()
		return models.UpdateFailure("Failed to begin transaction",
			map[string]interface{}{"error": err.Error()})
	}
	defer tx.Rollback()

	vp, err := s.store.GetVendorProductForUpdate(ctx, tx, vendorProductID)
	if err != nil {
		util.StockUpdateFailuresTotal.WithLabelValues("db_error").Inc()
		return models.UpdateFailure("Failed to load vendor product",
			map[string]interface{}{"vendor_product_id": vendorProductID, "error": err.Error()})
	}
	if vp == nil {
		util.StockUpdateFailuresTotal.WithLabelValues("not_found").Inc()
		return models.UpdateFailure("Vendor product not found",
			map[string]interface{}{"vendor_product_id": vendorProductID})
	}

	packs, err := s.packCodec.ParsePacks(vp.Packs)
	if err != nil {
		util.StockUpdateFailuresTotal.WithLabelValues("parse_error").Inc()
		return models.UpdateFailure("Failed to parse pack JSON: "+err.Error(),
			map[string]interface{}{"vendor_product_id": vendorProductID, "error": err.Error()})
	}
	if len(packs) == 0 {
		util.StockUpdateFailuresTotal.WithLabelValues("no_packs").Inc()
		return models.UpdateFailure("No packs found for vendor product",
			map[string]interface{}{"vendor_product_id": vendorProductID})
	}

	triggerPack := findPackByID(packs, packID)
	if triggerPack == nil {
		util.StockUpdateFailuresTotal.WithLabelValues("pack_not_found").Inc()
		return models.UpdateFailure("Pack not found in vendor product",
			map[string]interface{}{"vendor_product_id": vendorProductID, "pack_id": packID})
	}

	s.resolveConversionFactors(packs, vendorProductID)

	// The whole delta is unknowable in base units without the trigger
	// pack's factor, so this one is a hard failure rather than a
	// per-pack skip.
	if !triggerPack.ConversionFactor.IsPositive() {
		util.StockUpdateFailuresTotal.WithLabelValues("invalid_trigger_pack").Inc()
		return models.UpdateFailure("Cannot compute conversion factor for trigger pack",
			map[string]interface{}{"vendor_product_id": vendorProductID, "pack_id": packID})
	}

	baseUnitChange := s.unitConverter.ToBaseUnits(stockChange, triggerPack.ConversionFactor)

	packUpdates := s.packSynchronizer.Synchronize(packs, baseUnitChange, packID)
	if len(packUpdates) == 0 {
		util.StockUpdateFailuresTotal.WithLabelValues("sync_failed").Inc()
		return models.UpdateFailure("Failed to synchronize packages",
			map[string]interface{}{"vendor_product_id": vendorProductID})
	}

	stockUpdates := make(map[string]decimal.Decimal, len(packUpdates))
	for _, update := range packUpdates {
		stockUpdates[update.PackID] = update.NewStock
	}
	updatedPacks := s.packCodec.ApplyStockUpdates(packs, stockUpdates)

	packsJSON, err := s.packCodec.SerializePacks(updatedPacks)
	if err != nil {
		util.StockUpdateFailuresTotal.WithLabelValues("encode_error").Inc()
		return models.UpdateFailure("Failed to serialize packs",
			map[string]interface{}{"vendor_product_id": vendorProductID, "error": err.Error()})
	}

	inStock := models.VendorProductStatusInactive
	if s.packCodec.HasAnyStock(updatedPacks) {
		inStock = models.VendorProductStatusActive
	}

	if err := s.store.UpdateVendorProductPacksTx(ctx, tx, vendorProductID, packsJSON, inStock); err != nil {
		util.StockUpdateFailuresTotal.WithLabelValues("db_error").Inc()
		return models.UpdateFailure("Failed to persist pack updates",
			map[string]interface{}{"vendor_product_id": vendorProductID, "error": err.Error()})
	}

	if vp.ProductID > 0 {
		if err := s.aggregator.RecomputeProductStock(ctx, tx, vp.ProductID); err != nil {
			util.StockUpdateFailuresTotal.WithLabelValues("db_error").Inc()
			return models.UpdateFailure("Failed to aggregate product stock",
				map[string]interface{}{"product_id": vp.ProductID, "error": err.Error()})
		}
	}

	if err := tx.Commit(); err != nil {
		util.StockUpdateFailuresTotal.WithLabelValues("db_error").Inc()
		return models.UpdateFailure("Failed to commit stock update",
			map[string]interface{}{"vendor_product_id": vendorProductID, "error": err.Error()})
	}

	s.auditLogger.RecordUpdate(ctx, vendorProductID, packID, packUpdates, reason, nil)

	if vp.ProductID > 0 {
		s.refreshProductStockCache(ctx, vp.ProductID)
	}

	util.StockUpdatesTotal.Inc()
	util.PacksSynchronizedTotal.Add(float64(len(packUpdates)))

	return models.UpdateSuccess("Stock updated successfully", packUpdates)
}

// ProcessInventoryTransaction maps a transaction kind onto a signed pack
// stock update. Missing required fields fail without touching storage.
func (s *StockManagerService) ProcessInventoryTransaction(ctx context.Context, txn models.InventoryTransaction) models.StockUpdateResult {
	ctx, span := util.StartSpan(ctx, "StockManagerService.ProcessInventoryTransaction")
	defer span.End()

	if txn.VendorProductID == 0 || txn.PackID == "" || txn.Quantity == nil {
		return models.UpdateFailure("Missing required transaction fields",
			map[string]interface{}{
				"required_fields": []string{"vendor_product_id", "pack_id", "quantity"},
			})
	}

	actionType := txn.ActionType
	if actionType == "" {
		actionType = models.ActionAdjustment
	}

	util.InventoryTransactionsTotal.WithLabelValues(actionType).Inc()

	stockChange := deltaForAction(actionType, *txn.Quantity)
	reason := transactionReason(actionType, txn.Notes)

	return s.UpdatePackStock(ctx, txn.VendorProductID, txn.PackID, stockChange, reason)
}

// deltaForAction signs the quantity by transaction kind: additions stay
// positive, reductions go negative, unknown kinds pass through as-is.
func deltaForAction(actionType string, quantity decimal.Decimal) decimal.Decimal {
	switch actionType {
	case models.ActionPurchase, models.ActionReturn, models.ActionAdjustmentIncrease:
		return quantity
	case models.ActionSale, models.ActionDamage, models.ActionAdjustmentDecrease:
		return quantity.Neg()
	default:
		return quantity
	}
}

func transactionReason(actionType, notes string) string {
	reason := actionType + " transaction"
	if notes != "" {
		reason += ": " + notes
	}
	return reason
}

// ValidateStockConsistency checks whether an offering's packs agree on
// one base-unit total. A missing or undecodable offering degrades to an
// "unknown" result rather than an error; inconsistent findings are
// recorded in the audit log but are valid output data, not errors.
func (s *StockManagerService) ValidateStockConsistency(ctx context.Context, vendorProductID int64) models.ConsistencyCheckResult {
	ctx, span := util.StartSpan(ctx, "StockManagerService.ValidateStockConsistency")
	defer span.End()

	util.ConsistencyChecksTotal.Inc()

	vp, err := s.store.GetVendorProduct(ctx, vendorProductID)
	if err != nil {
		s.logger.Error("Failed to load vendor product for consistency check",
			zap.Int64("vendor_product_id", vendorProductID),
			zap.Error(err))
		return models.UnknownConsistencyResult()
	}
	if vp == nil {
		s.logger.Warn("Vendor product not found for consistency check",
			zap.Int64("vendor_product_id", vendorProductID))
		return models.UnknownConsistencyResult()
	}

	packs, err := s.packCodec.ParsePacks(vp.Packs)
	if err != nil {
		s.logger.Error("Failed to parse packs for consistency check",
			zap.Int64("vendor_product_id", vendorProductID),
			zap.Error(err))
		return models.UnknownConsistencyResult()
	}
	if len(packs) == 0 {
		return models.ConsistentResult(decimal.Zero)
	}

	s.resolveConversionFactors(packs, vendorProductID)

	result := s.packSynchronizer.ValidateConsistency(packs)
	if !result.IsConsistent {
		util.ConsistencyViolationsTotal.Inc()
		s.auditLogger.RecordConsistencyViolation(ctx, vendorProductID, result.Inconsistencies)
	}

	return result
}

// ReduceProductStock removes a base-unit quantity of a product through
// the FIRST active offering holding sufficient stock, in offering id
// order. First-match-wins is a deliberate business policy: the reduction
// is never spread across offerings.
func (s *StockManagerService) ReduceProductStock(ctx context.Context, productID int64, quantity decimal.Decimal, reason string) models.StockUpdateResult {
	ctx, span := util.StartSpan(ctx, "StockManagerService.ReduceProductStock")
	defer span.End()

	if !quantity.IsPositive() {
		return models.UpdateFailure("Reduction quantity must be positive",
			map[string]interface{}{"quantity": quantity.String()})
	}

	lockKey := fmt.Sprintf("product-stock-reduction:%d", productID)
	locked, err := s.redis.AcquireLock(ctx, lockKey, s.reductionLockTTL)
	if err != nil {
		s.logger.Warn("Failed to acquire reduction lock, proceeding without it",
			zap.Int64("product_id", productID),
			zap.Error(err))
	} else if !locked {
		return models.UpdateFailure("Another stock reduction for this product is in progress",
			map[string]interface{}{"product_id": productID})
	} else {
		defer func() {
			if err := s.redis.ReleaseLock(ctx, lockKey); err != nil {
				s.logger.Warn("Failed to release reduction lock", zap.Error(err))
			}
		}()
	}

	vendorProducts, err := s.store.GetActiveVendorProducts(ctx, productID)
	if err != nil {
		return models.UpdateFailure("Failed to load vendor products",
			map[string]interface{}{"product_id": productID, "error": err.Error()})
	}
	if len(vendorProducts) == 0 {
		return models.UpdateFailure("No active vendor offerings for product",
			map[string]interface{}{"product_id": productID})
	}

	for _, vp := range vendorProducts {
		packs, err := s.packCodec.ParsePacks(vp.Packs)
		if err != nil {
			s.logger.Warn("Skipping vendor product with unparseable packs",
				zap.Int64("vendor_product_id", vp.ID),
				zap.Error(err))
			continue
		}

		s.resolveConversionFactors(packs, vp.ID)

		available := sumPackBaseUnits(s.unitConverter, packs)
		if available.LessThan(quantity) {
			s.logger.Info("Insufficient stock in vendor product, trying next",
				zap.Int64("vendor_product_id", vp.ID),
				zap.String("available", available.String()),
				zap.String("required", quantity.String()))
			continue
		}

		triggerPack := selectTriggerPack(packs, vp.DefaultPackID)
		if triggerPack == nil {
			continue
		}

		// Delta stays unrounded here; the synchronizer applies discrete
		// rounding per pack.
		delta, err := s.unitConverter.FromBaseUnits(quantity, triggerPack.ConversionFactor, "")
		if err != nil {
			continue
		}

		result := s.UpdatePackStock(ctx, vp.ID, triggerPack.PackID, delta.Neg(), reason)
		if result.Success {
			return result
		}

		s.logger.Warn("Stock reduction failed for vendor product, trying next",
			zap.Int64("vendor_product_id", vp.ID),
			zap.String("message", result.Message))
	}

	return models.UpdateFailure("Insufficient stock across vendor offerings",
		map[string]interface{}{"product_id": productID, "quantity": quantity.String()})
}

// selectTriggerPack prefers the offering's default pack when it is valid,
// else the first valid pack.
func selectTriggerPack(packs []*models.Pack, defaultPackID string) *models.Pack {
	if defaultPackID != "" {
		if pack := findPackByID(packs, defaultPackID); isValidPack(pack) {
			return pack
		}
	}
	for _, pack := range packs {
		if isValidPack(pack) {
			return pack
		}
	}
	return nil
}

// resolveConversionFactors computes every pack's factor fresh for this
// operation; one bad pack is marked invalid (factor 0) so its siblings
// still synchronize.
func (s *StockManagerService) resolveConversionFactors(packs []*models.Pack, vendorProductID int64) {
	for _, pack := range packs {
		factor, err := s.unitConverter.CalculateConversionFactor(pack.PackSize, pack.PackUnit)
		if err != nil {
			s.logger.Warn("Failed to calculate conversion factor for pack",
				zap.Int64("vendor_product_id", vendorProductID),
				zap.String("pack_id", pack.PackID),
				zap.Error(err))
			pack.ConversionFactor = decimal.Zero
			continue
		}
		pack.ConversionFactor = factor
	}
}

// refreshProductStockCache re-reads the committed aggregate and updates
// the Redis read cache. Best effort; the database is the source of truth.
func (s *StockManagerService) refreshProductStockCache(ctx context.Context, productID int64) {
	product, err := s.store.GetProduct(ctx, productID)
	if err != nil || product == nil {
		return
	}
	if product.InventoryType != models.InventoryTypePackWise {
		return
	}
	if err := s.redis.CacheProductStock(ctx, productID, product.Stock); err != nil {
		s.logger.Warn("Failed to refresh product stock cache",
			zap.Int64("product_id", productID),
			zap.Error(err))
	}
}

// SyncProductStockToRedis warms the product stock cache from the
// database at startup so reads do not stampede a cold cache.
func (s *StockManagerService) SyncProductStockToRedis(ctx context.Context) error {
	products, err := s.store.GetPackWiseProducts(ctx)
	if err != nil {
		return err
	}
	for _, product := range products {
		if err := s.redis.CacheProductStock(ctx, product.ProductID, product.Stock); err != nil {
			s.logger.Warn("Failed to warm product stock cache",
				zap.Int64("product_id", product.ProductID),
				zap.Error(err))
		}
	}
	s.logger.Info("Product stock cache warmed", zap.Int("total_products", len(products)))
	return nil
}

// GetProductStock reads the aggregated product stock, preferring the
// Redis cache and falling back to the database on a miss.
func (s *StockManagerService) GetProductStock(ctx context.Context, productID int64) (decimal.Decimal, error) {
	stock, found, err := s.redis.GetCachedProductStock(ctx, productID)
	if err != nil {
		s.logger.Warn("Product stock cache read failed",
			zap.Int64("product_id", productID),
			zap.Error(err))
	} else if found {
		return stock, nil
	}

	product, err := s.store.GetProduct(ctx, productID)
	if err != nil {
		return decimal.Zero, err
	}
	if product == nil {
		return decimal.Zero, fmt.Errorf("product %d not found", productID)
	}
	if err := s.redis.CacheProductStock(ctx, productID, product.Stock); err != nil {
		s.logger.Warn("Failed to backfill product stock cache", zap.Error(err))
	}
	return product.Stock, nil
}

// ListAuditEntries exposes the audit trail for an offering.
func (s *StockManagerService) ListAuditEntries(ctx context.Context, vendorProductID int64, from, to time.Time) ([]models.StockAuditEntry, error) {
	return s.auditLogger.ListEntries(ctx, vendorProductID, from, to)
}

// ListVendorProducts returns a page of offerings with the in-stock flag
// recomputed from the decoded packs.
func (s *StockManagerService) ListVendorProducts(ctx context.Context, limit, page int, search string) ([]models.VendorProductView, int, error) {
	if limit < 1 || limit > 100 {
		limit = 10
	}
	if page < 1 {
		page = 1
	}

	views, total, err := s.store.ListVendorProducts(ctx, limit, (page-1)*limit, search)
	if err != nil {
		return nil, 0, err
	}

	for i := range views {
		views[i].InStock = s.deriveInStock(views[i].Packs)
	}
	return views, total, nil
}

// GetVendorProductView returns one offering with the derived in-stock
// flag; (nil, nil) when the offering does not exist.
func (s *StockManagerService) GetVendorProductView(ctx context.Context, id int64) (*models.VendorProductView, error) {
	view, err := s.store.GetVendorProductView(ctx, id)
	if err != nil || view == nil {
		return view, err
	}
	view.InStock = s.deriveInStock(view.Packs)
	return view, nil
}

func (s *StockManagerService) deriveInStock(packsJSON string) string {
	packs, err := s.packCodec.ParsePacks(packsJSON)
	if err != nil {
		return models.VendorProductStatusInactive
	}
	if s.packCodec.HasAnyStock(packs) {
		return models.VendorProductStatusActive
	}
	return models.VendorProductStatusInactive
}
