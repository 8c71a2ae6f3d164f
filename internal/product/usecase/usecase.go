package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/apperr"
	"github.com/fekuna/omnipos-sales-service/internal/logger"
	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/internal/product"
	"github.com/fekuna/omnipos-sales-service/internal/product/dto"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type productUseCase struct {
	repo         product.Repository
	baseCurrency string
	logger       logger.ZapLogger
}

func NewProductUseCase(repo product.Repository, baseCurrency string, log logger.ZapLogger) product.UseCase {
	return &productUseCase{
		repo:         repo,
		baseCurrency: baseCurrency,
		logger:       log,
	}
}

func (uc *productUseCase) CreateProduct(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error) {
	if !input.Price.IsPositive() {
		return nil, apperr.Invalid("price", "must be greater than zero")
	}
	if input.Cost.IsNegative() {
		return nil, apperr.Invalid("cost", "must not be negative")
	}
	if input.Stock < 0 || input.MinStock < 0 || input.MaxStock < 0 {
		return nil, apperr.Invalid("stock", "stock levels must not be negative")
	}
	if input.MaxStock > 0 && input.MaxStock < input.MinStock {
		return nil, apperr.Invalid("max_stock", "must not be below min_stock")
	}

	if input.SKU != "" {
		unique, err := uc.repo.IsSKUUnique(ctx, input.MerchantID, input.SKU)
		if err != nil {
			return nil, err
		}
		if !unique {
			return nil, apperr.Invalid("sku", "already exists")
		}
	}

	if input.Barcode != "" {
		unique, err := uc.repo.IsBarcodeUnique(ctx, input.MerchantID, input.Barcode)
		if err != nil {
			return nil, err
		}
		if !unique {
			return nil, apperr.Invalid("barcode", "already exists")
		}
	}

	currency := strings.ToUpper(input.Currency)
	if currency == "" {
		currency = uc.baseCurrency
	}

	now := time.Now().UTC()
	sku := &input.SKU
	if input.SKU == "" {
		sku = nil
	}
	barcode := &input.Barcode
	if input.Barcode == "" {
		barcode = nil
	}
	description := &input.Description
	if input.Description == "" {
		description = nil
	}

	p := &model.Product{
		BaseModel:   model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		MerchantID:  input.MerchantID,
		SKU:         sku,
		Barcode:     barcode,
		Name:        input.Name,
		Description: description,
		Price:       input.Price.Round(2),
		Cost:        input.Cost.Round(2),
		Currency:    currency,
		Stock:       input.Stock,
		MinStock:    input.MinStock,
		MaxStock:    input.MaxStock,
		IsActive:    true,
	}

	if err := uc.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	uc.logger.Info("Product created", zap.String("product_id", p.ID), zap.String("sku", input.SKU))
	return p, nil
}

func (uc *productUseCase) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	p, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &apperr.ProductNotFoundError{ProductID: id}
	}
	return p, nil
}

func (uc *productUseCase) ListProducts(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 {
		filters.PageSize = 20
	}
	return uc.repo.FindAll(ctx, filters)
}
