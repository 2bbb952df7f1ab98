package service

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/yanarios/sistema-kiosco/internal/apierror"
	"github.com/yanarios/sistema-kiosco/internal/dto"
	"github.com/yanarios/sistema-kiosco/internal/model"
	"github.com/yanarios/sistema-kiosco/internal/repository"
)

// CatalogService manages products and categories. Products are never
// hard-deleted; historical sale lines keep pointing at them.
type CatalogService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
	stockLog   repository.StockMovementRepository
}

func NewCatalogService(
	products repository.ProductRepository,
	categories repository.CategoryRepository,
	stockLog repository.StockMovementRepository,
) *CatalogService {
	return &CatalogService{products: products, categories: categories, stockLog: stockLog}
}

func (s *CatalogService) CreateProduct(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if req.SalePrice.LessThan(req.CostPrice) {
		log.Warn().Str("code", req.Code).Msg("sale price below cost")
	}

	saleUnit := req.SaleUnit
	if saleUnit == "" {
		saleUnit = model.SaleUnitDiscrete
	}

	product := &model.Product{
		Code:         req.Code,
		Name:         req.Name,
		Description:  req.Description,
		SaleUnit:     saleUnit,
		CostPrice:    req.CostPrice,
		SalePrice:    req.SalePrice,
		StockActual:  req.StockActual,
		StockMinimum: req.StockMinimum,
		Active:       true,
	}

	err := repository.RunTx(ctx, s.products.DB(), func(tx *gorm.DB) error {
		if _, err := s.products.FindByCodeTx(tx, req.Code); err == nil {
			return apierror.Validation("code", "already in use")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return apierror.Transient(err)
		}
		if req.Category != nil && *req.Category != "" {
			cat, err := s.categories.GetOrCreateTx(tx, *req.Category)
			if err != nil {
				return apierror.Transient(err)
			}
			product.CategoryID = &cat.ID
			product.Category = cat
		}
		if err := s.products.CreateTx(tx, product); err != nil {
			return apierror.Transient(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := productToResponse(product)
	return &resp, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NotFound("product", id.String())
		}
		return nil, apierror.Transient(err)
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Description != nil {
		product.Description = req.Description
	}
	if req.SaleUnit != nil {
		product.SaleUnit = *req.SaleUnit
	}
	if req.CostPrice != nil {
		if req.CostPrice.IsNegative() {
			return nil, apierror.Validation("cost_price", "must not be negative")
		}
		product.CostPrice = *req.CostPrice
	}
	if req.SalePrice != nil {
		if !req.SalePrice.IsPositive() {
			return nil, apierror.Validation("sale_price", "must be positive")
		}
		product.SalePrice = *req.SalePrice
	}
	if req.StockMinimum != nil {
		if req.StockMinimum.IsNegative() {
			return nil, apierror.Validation("stock_minimum", "must not be negative")
		}
		product.StockMinimum = *req.StockMinimum
	}

	err = repository.RunTx(ctx, s.products.DB(), func(tx *gorm.DB) error {
		if req.Category != nil {
			if *req.Category == "" {
				product.CategoryID = nil
				product.Category = nil
			} else {
				cat, err := s.categories.GetOrCreateTx(tx, *req.Category)
				if err != nil {
					return apierror.Transient(err)
				}
				product.CategoryID = &cat.ID
				product.Category = cat
			}
		}
		if err := s.products.UpdateTx(tx, product); err != nil {
			return apierror.Transient(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := productToResponse(product)
	return &resp, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NotFound("product", id.String())
		}
		return nil, apierror.Transient(err)
	}
	resp := productToResponse(product)
	return &resp, nil
}

func (s *CatalogService) GetProductByCode(ctx context.Context, code string) (*dto.ProductResponse, error) {
	product, err := s.products.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NotFound("product", code)
		}
		return nil, apierror.Transient(err)
	}
	resp := productToResponse(product)
	return &resp, nil
}

func (s *CatalogService) ListProducts(ctx context.Context, filter dto.ProductFilter) (*dto.ProductListResponse, error) {
	products, total, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, apierror.Transient(err)
	}
	out := make([]dto.ProductResponse, 0, len(products))
	for i := range products {
		out = append(out, productToResponse(&products[i]))
	}
	return &dto.ProductListResponse{Data: out, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *CatalogService) DeactivateProduct(ctx context.Context, id uuid.UUID) error {
	if _, err := s.products.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierror.NotFound("product", id.String())
		}
		return apierror.Transient(err)
	}
	return s.products.Deactivate(ctx, id)
}

func (s *CatalogService) ReactivateProduct(ctx context.Context, id uuid.UUID) error {
	if _, err := s.products.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierror.NotFound("product", id.String())
		}
		return apierror.Transient(err)
	}
	return s.products.Reactivate(ctx, id)
}

// AdjustStock applies a signed manual stock correction under a row lock and
// records it in the audit trail. The result may never go below zero.
func (s *CatalogService) AdjustStock(ctx context.Context, id uuid.UUID, req dto.AdjustStockRequest) (*dto.ProductResponse, error) {
	if req.Delta.IsZero() {
		return nil, apierror.Validation("delta", "must not be zero")
	}

	var product *model.Product
	err := repository.RunTx(ctx, s.products.DB(), func(tx *gorm.DB) error {
		p, err := s.products.FindByIDForUpdateTx(tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apierror.NotFound("product", id.String())
			}
			return apierror.Transient(err)
		}
		after := p.StockActual.Add(req.Delta)
		if after.IsNegative() {
			return apierror.Validation("delta", "would drive stock below zero")
		}
		if err := s.products.AddStockTx(tx, id, req.Delta); err != nil {
			return apierror.Transient(err)
		}
		if err := s.stockLog.CreateTx(tx, &model.StockMovement{
			ProductID:   p.ID,
			Type:        model.StockMoveAdjust,
			Quantity:    req.Delta,
			StockBefore: p.StockActual,
			StockAfter:  after,
			Reason:      req.Reason,
		}); err != nil {
			return apierror.Transient(err)
		}
		p.StockActual = after
		product = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("product_id", id.String()).
		Str("delta", req.Delta.String()).
		Str("reason", req.Reason).
		Msg("stock adjusted")

	resp := productToResponse(product)
	return &resp, nil
}

// UpsertBatch applies a parsed catalog file in one transaction: all rows
// land or none do. Matching is by product code; a present stock column
// overwrites live stock and is logged in the audit trail.
func (s *CatalogService) UpsertBatch(ctx context.Context, rows []dto.ProductRow) (*dto.ImportResponse, error) {
	if len(rows) == 0 {
		return nil, apierror.Validation("rows", "file contains no product rows")
	}

	result := &dto.ImportResponse{}
	err := repository.RunTx(ctx, s.products.DB(), func(tx *gorm.DB) error {
		for i, row := range rows {
			if err := s.upsertRowTx(tx, row, result); err != nil {
				var apiErr *apierror.Error
				if errors.As(err, &apiErr) && apiErr.Kind == apierror.KindValidation {
					return apierror.Validation("rows", apiErr.Message+" (row "+strconv.Itoa(i+1)+")")
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Int("created", result.Created).
		Int("updated", result.Updated).
		Int("stock_overwritten", result.StockOverwritten).
		Msg("catalog import applied")
	return result, nil
}

func (s *CatalogService) upsertRowTx(tx *gorm.DB, row dto.ProductRow, result *dto.ImportResponse) error {
	if row.Code == "" {
		return apierror.Validation("code", "missing")
	}
	if row.Name == "" {
		return apierror.Validation("name", "missing")
	}
	if !row.SalePrice.IsPositive() {
		return apierror.Validation("sale_price", "must be positive")
	}
	if row.Stock != nil && row.Stock.IsNegative() {
		return apierror.Validation("stock", "must not be negative")
	}

	var categoryID *uuid.UUID
	if row.Category != nil && *row.Category != "" {
		cat, err := s.categories.GetOrCreateTx(tx, *row.Category)
		if err != nil {
			return apierror.Transient(err)
		}
		categoryID = &cat.ID
	}

	existing, err := s.products.FindByCodeTx(tx, row.Code)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return apierror.Transient(err)
		}
		p := &model.Product{
			Code:       row.Code,
			Name:       row.Name,
			SaleUnit:   model.SaleUnitDiscrete,
			SalePrice:  row.SalePrice,
			CategoryID: categoryID,
			Active:     true,
		}
		if row.CostPrice != nil {
			p.CostPrice = *row.CostPrice
		}
		if row.Stock != nil {
			p.StockActual = *row.Stock
		}
		if err := s.products.CreateTx(tx, p); err != nil {
			return apierror.Transient(err)
		}
		result.Created++
		return nil
	}

	existing.Name = row.Name
	existing.SalePrice = row.SalePrice
	if row.CostPrice != nil {
		existing.CostPrice = *row.CostPrice
	}
	if categoryID != nil {
		existing.CategoryID = categoryID
	}
	if row.Stock != nil && !row.Stock.Equal(existing.StockActual) {
		if err := s.stockLog.CreateTx(tx, &model.StockMovement{
			ProductID:   existing.ID,
			Type:        model.StockMoveImport,
			Quantity:    row.Stock.Sub(existing.StockActual),
			StockBefore: existing.StockActual,
			StockAfter:  *row.Stock,
			Reason:      "catalog import",
		}); err != nil {
			return apierror.Transient(err)
		}
		existing.StockActual = *row.Stock
		result.StockOverwritten++
	}
	if err := s.products.UpdateTx(tx, existing); err != nil {
		return apierror.Transient(err)
	}
	result.Updated++
	return nil
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]model.Category, error) {
	cats, err := s.categories.List(ctx)
	if err != nil {
		return nil, apierror.Transient(err)
	}
	return cats, nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if _, err := s.categories.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierror.NotFound("category", id.String())
		}
		return apierror.Transient(err)
	}
	return s.categories.Delete(ctx, id)
}

func productToResponse(p *model.Product) dto.ProductResponse {
	resp := dto.ProductResponse{
		ID:           p.ID.String(),
		Code:         p.Code,
		Name:         p.Name,
		Description:  p.Description,
		SaleUnit:     p.SaleUnit,
		CostPrice:    p.CostPrice,
		SalePrice:    p.SalePrice,
		StockActual:  p.StockActual,
		StockMinimum: p.StockMinimum,
		Active:       p.Active,
	}
	if p.Category != nil {
		resp.Category = &p.Category.Name
	}
	return resp
}
