package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/apperr"
	"github.com/fekuna/omnipos-sales-service/internal/auth"
	"github.com/fekuna/omnipos-sales-service/internal/logger"
	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/internal/sale"
	"github.com/fekuna/omnipos-sales-service/internal/sale/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SaleHandler struct {
	uc     sale.UseCase
	logger logger.ZapLogger
}

func NewSaleHandler(uc sale.UseCase, log logger.ZapLogger) *SaleHandler {
	return &SaleHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *SaleHandler) Register(rg *gin.RouterGroup) {
	g := rg.Group("/sales")
	g.POST("", h.CreateSale)
	g.GET("", h.ListSales)
	g.GET("/:id", h.GetSale)
	g.PATCH("/:id", h.UpdateSale)
	g.DELETE("/:id", h.DeleteSale)
}

func (h *SaleHandler) CreateSale(c *gin.Context) {
	var req dto.CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "message": err.Error()})
		return
	}

	ctx := c.Request.Context()
	items := make([]dto.SaleItemInput, len(req.Items))
	for i, it := range req.Items {
		items[i] = dto.SaleItemInput{ProductID: it.ProductID, Quantity: it.Quantity}
	}

	input := &dto.CreateSaleInput{
		MerchantID:    auth.GetMerchantID(ctx),
		CashierID:     auth.GetUserID(ctx),
		Items:         items,
		Discount:      req.Discount,
		PaymentMethod: model.PaymentMethod(req.PaymentMethod),
		Currency:      req.Currency,
	}
	if req.CustomerID != "" {
		input.CustomerID = &req.CustomerID
	}
	if req.Notes != "" {
		input.Notes = &req.Notes
	}

	s, err := h.uc.CreateSale(ctx, input)
	if err != nil {
		h.fail(c, "Failed to create sale", err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *SaleHandler) GetSale(c *gin.Context) {
	ctx := c.Request.Context()
	s, err := h.uc.GetSale(ctx, auth.GetMerchantID(ctx), c.Param("id"))
	if err != nil {
		h.fail(c, "Failed to get sale", err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *SaleHandler) ListSales(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	filters := &dto.SaleFilters{
		MerchantID:    auth.GetMerchantID(c.Request.Context()),
		Status:        c.Query("status"),
		CustomerID:    c.Query("customer_id"),
		PaymentMethod: c.Query("payment_method"),
		Page:          page,
		PageSize:      pageSize,
	}

	var err error
	if filters.StartDate, err = parseDate(c.Query("start_date")); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "message": "start_date: " + err.Error()})
		return
	}
	if filters.EndDate, err = parseDate(c.Query("end_date")); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "message": "end_date: " + err.Error()})
		return
	}

	sales, total, err := h.uc.ListSales(c.Request.Context(), filters)
	if err != nil {
		h.fail(c, "Failed to list sales", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": sales, "total": total, "page": filters.Page, "page_size": filters.PageSize})
}

func (h *SaleHandler) UpdateSale(c *gin.Context) {
	var req dto.UpdateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "message": err.Error()})
		return
	}

	input := &dto.UpdateSaleInput{
		MerchantID: auth.GetMerchantID(c.Request.Context()),
		ID:         c.Param("id"),
		Notes:      req.Notes,
	}
	if req.Status != nil {
		st := model.SaleStatus(*req.Status)
		input.Status = &st
	}

	s, err := h.uc.UpdateSale(c.Request.Context(), input)
	if err != nil {
		h.fail(c, "Failed to update sale", err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *SaleHandler) DeleteSale(c *gin.Context) {
	ctx := c.Request.Context()
	res, err := h.uc.DeleteSale(ctx, auth.GetMerchantID(ctx), c.Param("id"))
	if err != nil {
		h.fail(c, "Failed to delete sale", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// parseDate accepts RFC3339 or a plain YYYY-MM-DD date.
func parseDate(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (h *SaleHandler) fail(c *gin.Context, msg string, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(msg, zap.Error(err))
	}
	c.JSON(status, apperr.Body(err))
}
