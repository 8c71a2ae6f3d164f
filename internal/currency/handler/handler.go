package handler

import (
	"net/http"
	"strconv"

	"github.com/fekuna/omnipos-sales-service/internal/apperr"
	"github.com/fekuna/omnipos-sales-service/internal/currency"
	"github.com/fekuna/omnipos-sales-service/internal/currency/dto"
	"github.com/fekuna/omnipos-sales-service/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type CurrencyHandler struct {
	uc     currency.UseCase
	logger logger.ZapLogger
}

func NewCurrencyHandler(uc currency.UseCase, log logger.ZapLogger) *CurrencyHandler {
	return &CurrencyHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *CurrencyHandler) Register(rg *gin.RouterGroup) {
	g := rg.Group("/currency")
	g.POST("/rates", h.SetRate)
	g.GET("/rates", h.ListRates)
	g.GET("/convert", h.Convert)
}

func (h *CurrencyHandler) SetRate(c *gin.Context) {
	var req dto.SetRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "message": err.Error()})
		return
	}

	rate, err := h.uc.SetRate(c.Request.Context(), &dto.SetRateInput{
		From:   req.FromCurrency,
		To:     req.ToCurrency,
		Rate:   req.Rate,
		Date:   req.EffectiveDate,
		Source: req.Source,
	})
	if err != nil {
		h.fail(c, "Failed to set rate", err)
		return
	}
	c.JSON(http.StatusCreated, rate)
}

func (h *CurrencyHandler) ListRates(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	rates, err := h.uc.ListRates(c.Request.Context(), c.Query("from"), c.Query("to"), limit)
	if err != nil {
		h.fail(c, "Failed to list rates", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rates})
}

func (h *CurrencyHandler) Convert(c *gin.Context) {
	amount, err := decimal.NewFromString(c.Query("amount"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "message": "amount must be a decimal number"})
		return
	}

	conv, err := h.uc.Convert(c.Request.Context(), amount, c.Query("from"), c.Query("to"))
	if err != nil {
		h.fail(c, "Failed to convert amount", err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

func (h *CurrencyHandler) fail(c *gin.Context, msg string, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(msg, zap.Error(err))
	}
	c.JSON(status, apperr.Body(err))
}
