package handler

import (
	"net/http"
	"strconv"

	"github.com/fekuna/omnipos-sales-service/internal/alert"
	"github.com/fekuna/omnipos-sales-service/internal/alert/dto"
	"github.com/fekuna/omnipos-sales-service/internal/apperr"
	"github.com/fekuna/omnipos-sales-service/internal/auth"
	"github.com/fekuna/omnipos-sales-service/internal/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AlertHandler struct {
	uc     alert.UseCase
	logger logger.ZapLogger
}

func NewAlertHandler(uc alert.UseCase, log logger.ZapLogger) *AlertHandler {
	return &AlertHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *AlertHandler) Register(rg *gin.RouterGroup) {
	g := rg.Group("/alerts")
	g.GET("", h.ListAlerts)
	g.PATCH("/:id/read", h.MarkRead)
}

func (h *AlertHandler) ListAlerts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	unread, _ := strconv.ParseBool(c.DefaultQuery("unread", "false"))

	filters := &dto.AlertFilters{
		MerchantID: auth.GetMerchantID(c.Request.Context()),
		ProductID:  c.Query("product_id"),
		Type:       c.Query("type"),
		UnreadOnly: unread,
		Page:       page,
		PageSize:   pageSize,
	}

	alerts, total, err := h.uc.ListAlerts(c.Request.Context(), filters)
	if err != nil {
		h.fail(c, "Failed to list alerts", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": alerts, "total": total})
}

func (h *AlertHandler) MarkRead(c *gin.Context) {
	ctx := c.Request.Context()
	a, err := h.uc.MarkRead(ctx, auth.GetMerchantID(ctx), c.Param("id"))
	if err != nil {
		h.fail(c, "Failed to mark alert read", err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *AlertHandler) fail(c *gin.Context, msg string, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(msg, zap.Error(err))
	}
	c.JSON(status, apperr.Body(err))
}
