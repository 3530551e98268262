package api

import (
	"net/http"
	"strconv"
	"time"

	"stock-service/internal/models"
	"stock-service/internal/service"
	"stock-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

// Handler contains HTTP handlers
type Handler struct {
	stockManager *service.StockManagerService
}

// NewHandler creates a new HTTP handler
func NewHandler(stockManager *service.StockManagerService) *Handler {
	return &Handler{
		stockManager: stockManager,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/vendor-products", h.listVendorProducts)
		v1.GET("/vendor-products/:id", h.getVendorProduct)
		v1.POST("/vendor-products/:id/packs/:packId/stock", h.updatePackStock)
		v1.GET("/vendor-products/:id/stock-consistency", h.checkStockConsistency)
		v1.GET("/vendor-products/:id/audit-log", h.getAuditLog)
		v1.POST("/inventory-transactions", h.processInventoryTransaction)
		v1.GET("/products/:id/stock", h.getProductStock)
		v1.POST("/products/:id/reduce-stock", h.reduceProductStock)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// updatePackStockRequest is the body for a pack stock mutation. The
// change is expressed in the trigger pack's own unit and may be negative.
type updatePackStockRequest struct {
	StockChange decimal.Decimal `json:"stock_change" binding:"required"`
	Reason      string          `json:"reason"`
}

// updatePackStock applies a stock change to one pack and synchronizes
// its sibling packs.
func (h *Handler) updatePackStock(c *gin.Context) {
	vendorProductID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	packID := c.Param("packId")

	var req updatePackStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	reason := req.Reason
	if reason == "" {
		reason = "manual adjustment"
	}

	result := h.stockManager.UpdatePackStock(c.Request.Context(), vendorProductID, packID, req.StockChange, reason)
	if !result.Success {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": result.Message,
			"errors":  result.Errors,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": result.Message,
		"data": gin.H{
			"pack_updates": result.PackUpdates,
		},
	})
}

// inventoryTransactionRequest mirrors the event payload so transactions
// can arrive over HTTP as well as Kafka.
type inventoryTransactionRequest struct {
	VendorProductID int64            `json:"vendor_product_id"`
	PackID          string           `json:"pack_id"`
	Quantity        *decimal.Decimal `json:"quantity"`
	ActionType      string           `json:"action_type"`
	Notes           string           `json:"notes"`
}

// processInventoryTransaction applies an inventory transaction
// synchronously.
func (h *Handler) processInventoryTransaction(c *gin.Context) {
	var req inventoryTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	txn := models.InventoryTransaction{
		VendorProductID: req.VendorProductID,
		PackID:          req.PackID,
		Quantity:        req.Quantity,
		ActionType:      req.ActionType,
		Notes:           req.Notes,
	}

	result := h.stockManager.ProcessInventoryTransaction(c.Request.Context(), txn)
	if !result.Success {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": result.Message,
			"errors":  result.Errors,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": result.Message,
		"data": gin.H{
			"pack_updates": result.PackUpdates,
		},
	})
}

// checkStockConsistency reports whether an offering's packs agree on one
// base-unit total. Inconsistent is a 200 with the findings, not an error.
func (h *Handler) checkStockConsistency(c *gin.Context) {
	vendorProductID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	result := h.stockManager.ValidateStockConsistency(c.Request.Context(), vendorProductID)
	c.JSON(http.StatusOK, result)
}

// listVendorProducts returns a paginated list of vendor offerings.
func (h *Handler) listVendorProducts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	search := c.Query("search")

	views, total, err := h.stockManager.ListVendorProducts(c.Request.Context(), limit, page, search)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to list vendor products",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": views,
		"pagination": gin.H{
			"total": total,
			"page":  page,
			"limit": limit,
		},
	})
}

// getVendorProduct returns one vendor offering
func (h *Handler) getVendorProduct(c *gin.Context) {
	vendorProductID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	view, err := h.stockManager.GetVendorProductView(c.Request.Context(), vendorProductID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to load vendor product",
			"details": err.Error(),
		})
		return
	}
	if view == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Vendor product not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": view})
}

// getAuditLog returns the stock audit trail for an offering. Optional
// from/to query params are RFC 3339 timestamps.
func (h *Handler) getAuditLog(c *gin.Context) {
	vendorProductID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	from, ok := parseTimeQuery(c, "from", time.Time{})
	if !ok {
		return
	}
	to, ok := parseTimeQuery(c, "to", time.Now())
	if !ok {
		return
	}

	entries, err := h.stockManager.ListAuditEntries(c.Request.Context(), vendorProductID, from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to load audit log",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": entries})
}

// getProductStock returns the aggregated product stock in base units.
func (h *Handler) getProductStock(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	stock, err := h.stockManager.GetProductStock(c.Request.Context(), productID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Product not found",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"product_id": productID,
		"stock":      stock,
	})
}

type reduceProductStockRequest struct {
	Quantity decimal.Decimal `json:"quantity" binding:"required"`
	Reason   string          `json:"reason"`
}

// reduceProductStock removes a base-unit quantity of a product through
// the first active offering with sufficient stock.
func (h *Handler) reduceProductStock(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req reduceProductStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	reason := req.Reason
	if reason == "" {
		reason = "production issue"
	}

	result := h.stockManager.ReduceProductStock(c.Request.Context(), productID, req.Quantity, reason)
	if !result.Success {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": result.Message,
			"errors":  result.Errors,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": result.Message,
		"data": gin.H{
			"pack_updates": result.PackUpdates,
		},
	})
}

func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid " + name + " parameter",
		})
		return 0, false
	}
	return id, true
}

func parseTimeQuery(c *gin.Context, name string, defaultVal time.Time) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return defaultVal, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid " + name + " parameter, expected RFC 3339 timestamp",
		})
		return time.Time{}, false
	}
	return t, true
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
