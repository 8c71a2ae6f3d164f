package handler

import (
	"net/http"
	"strconv"

	"github.com/fekuna/omnipos-sales-service/internal/apperr"
	"github.com/fekuna/omnipos-sales-service/internal/auth"
	"github.com/fekuna/omnipos-sales-service/internal/inventory"
	"github.com/fekuna/omnipos-sales-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-sales-service/internal/logger"
	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type InventoryHandler struct {
	uc     inventory.UseCase
	logger logger.ZapLogger
}

func NewInventoryHandler(uc inventory.UseCase, log logger.ZapLogger) *InventoryHandler {
	return &InventoryHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *InventoryHandler) Register(rg *gin.RouterGroup) {
	g := rg.Group("/inventory")
	g.POST("/adjustments", h.AdjustStock)
	g.GET("/adjustments", h.ListAdjustments)
	g.GET("/movements", h.ListMovements)
	g.GET("/low-stock", h.ListLowStock)
	g.GET("/products/:id/stock", h.GetStock)
}

func (h *InventoryHandler) AdjustStock(c *gin.Context) {
	var req dto.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "message": err.Error()})
		return
	}

	ctx := c.Request.Context()
	var locationID *string
	if req.LocationID != "" {
		locationID = &req.LocationID
	}

	res, err := h.uc.AdjustStock(ctx, &dto.AdjustStockInput{
		MerchantID: auth.GetMerchantID(ctx),
		ProductID:  req.ProductID,
		LocationID: locationID,
		Type:       model.AdjustmentType(req.Type),
		Quantity:   req.Quantity,
		Reason:     req.Reason,
		UserID:     auth.GetUserID(ctx),
	})
	if err != nil {
		h.fail(c, "Failed to adjust stock", err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *InventoryHandler) GetStock(c *gin.Context) {
	ctx := c.Request.Context()
	level, err := h.uc.GetStock(ctx, auth.GetMerchantID(ctx), c.Param("id"))
	if err != nil {
		h.fail(c, "Failed to get stock", err)
		return
	}
	c.JSON(http.StatusOK, level)
}

func (h *InventoryHandler) ListLowStock(c *gin.Context) {
	page, pageSize := pagination(c)

	items, total, err := h.uc.ListLowStock(c.Request.Context(), auth.GetMerchantID(c.Request.Context()), page, pageSize)
	if err != nil {
		h.fail(c, "Failed to list low stock", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": items, "total": total})
}

func (h *InventoryHandler) ListMovements(c *gin.Context) {
	page, pageSize := pagination(c)

	filters := &dto.MovementFilters{
		MerchantID:    auth.GetMerchantID(c.Request.Context()),
		ProductID:     c.Query("product_id"),
		ReferenceType: c.Query("reference_type"),
		ReferenceID:   c.Query("reference_id"),
		Page:          page,
		PageSize:      pageSize,
	}

	mvs, total, err := h.uc.ListMovements(c.Request.Context(), filters)
	if err != nil {
		h.fail(c, "Failed to list movements", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": mvs, "total": total})
}

func (h *InventoryHandler) ListAdjustments(c *gin.Context) {
	page, pageSize := pagination(c)

	filters := &dto.AdjustmentFilters{
		MerchantID: auth.GetMerchantID(c.Request.Context()),
		ProductID:  c.Query("product_id"),
		Type:       c.Query("type"),
		Page:       page,
		PageSize:   pageSize,
	}

	adjs, total, err := h.uc.ListAdjustments(c.Request.Context(), filters)
	if err != nil {
		h.fail(c, "Failed to list adjustments", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": adjs, "total": total})
}

func pagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	return page, pageSize
}

func (h *InventoryHandler) fail(c *gin.Context, msg string, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(msg, zap.Error(err))
	}
	c.JSON(status, apperr.Body(err))
}
