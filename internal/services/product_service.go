// internal/services/product_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/NEBULA-33/nebula-1/internal/barcode"
	"github.com/NEBULA-33/nebula-1/internal/database"
	"github.com/NEBULA-33/nebula-1/internal/models"
	"github.com/NEBULA-33/nebula-1/internal/permissions"
	"github.com/NEBULA-33/nebula-1/internal/utils"
)

type ProductService struct {
	db       *gorm.DB
	catalog  *CatalogService
	mutator  *StockMutator
	recorder *Recorder
}

type CreateProductRequest struct {
	Name             string                  `json:"name" validate:"required,max=255"`
	Category         string                  `json:"category" validate:"max=100"`
	IsWeighable      bool                    `json:"is_weighable"`
	Barcode          string                  `json:"barcode" validate:"max=64"`
	PLUCodes         models.PLUCodes         `json:"plu_codes"`
	PackagingOptions models.PackagingOptions `json:"packaging_options"`
	PurchasePrice    decimal.Decimal         `json:"purchase_price" validate:"decimal_non_negative"`
	SellingPrice     decimal.Decimal         `json:"selling_price" validate:"decimal_non_negative"`
	VATRate          decimal.Decimal         `json:"vat_rate" validate:"decimal_non_negative"`
	Stock            decimal.Decimal         `json:"stock" validate:"decimal_non_negative"`
	ShowInQuickAdd   bool                    `json:"show_in_quick_add"`
}

// UpdateProductRequest only touches fields that are present. Prices and
// stock are manager-only.
type UpdateProductRequest struct {
	Name             *string                  `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Category         *string                  `json:"category,omitempty" validate:"omitempty,max=100"`
	IsWeighable      *bool                    `json:"is_weighable,omitempty"`
	Barcode          *string                  `json:"barcode,omitempty" validate:"omitempty,max=64"`
	PLUCodes         *models.PLUCodes         `json:"plu_codes,omitempty"`
	PackagingOptions *models.PackagingOptions `json:"packaging_options,omitempty"`
	PurchasePrice    *decimal.Decimal         `json:"purchase_price,omitempty"`
	SellingPrice     *decimal.Decimal         `json:"selling_price,omitempty"`
	VATRate          *decimal.Decimal         `json:"vat_rate,omitempty"`
	Stock            *decimal.Decimal         `json:"stock,omitempty"`
	ShowInQuickAdd   *bool                    `json:"show_in_quick_add,omitempty"`
}

type ProductSearchParams struct {
	utils.PaginationParams
	QuickAdd bool `json:"quick_add"`
}

// CreateProductResult tells the caller whether a new row was inserted or the
// stock was merged into an identical product.
type CreateProductResult struct {
	Product *models.Product `json:"product"`
	Merged  bool            `json:"merged"`
}

func NewProductService(db *gorm.DB, catalog *CatalogService, mutator *StockMutator, recorder *Recorder) *ProductService {
	return &ProductService{
		db:       db,
		catalog:  catalog,
		mutator:  mutator,
		recorder: recorder,
	}
}

// CreateProduct inserts a product, or adds its stock to an existing product
// of the same name and selling price and takes over the new purchase price.
func (s *ProductService) CreateProduct(ctx context.Context, actor permissions.Actor, req *CreateProductRequest) (*CreateProductResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if err := validateCodes(req.PLUCodes, req.PackagingOptions); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)

	existing, err := s.findMergeTarget(ctx, actor.ShopID, name, req.SellingPrice)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return s.mergeStock(ctx, actor, existing, req)
	}

	product := &models.Product{
		ShopID:           actor.ShopID,
		Name:             name,
		Category:         strings.TrimSpace(req.Category),
		IsWeighable:      req.IsWeighable,
		Barcode:          strings.TrimSpace(req.Barcode),
		PLUCodes:         req.PLUCodes,
		PackagingOptions: req.PackagingOptions,
		PurchasePrice:    req.PurchasePrice,
		SellingPrice:     req.SellingPrice,
		VATRate:          req.VATRate,
		Stock:            req.Stock.Round(stockDecimals),
		ShowInQuickAdd:   req.ShowInQuickAdd,
	}
	if err := s.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.recorder.Audit(ctx, actor, models.ActionProductCreated, models.JSONB{"productName": product.Name})
	return &CreateProductResult{Product: product}, nil
}

// findMergeTarget matches prices as decimals, so "400" and "400.00" name the
// same product whatever text form the driver hands back.
func (s *ProductService) findMergeTarget(ctx context.Context, shopID uuid.UUID, name string, price decimal.Decimal) (*models.Product, error) {
	var candidates []models.Product
	err := s.db.WithContext(ctx).
		Where("shop_id = ? AND name = ?", shopID, name).
		Order("created_at").
		Find(&candidates).Error
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	want := price.Round(2)
	for i := range candidates {
		if candidates[i].SellingPrice.Round(2).Equal(want) {
			return &candidates[i], nil
		}
	}
	return nil, nil
}

func (s *ProductService) mergeStock(ctx context.Context, actor permissions.Actor, existing *models.Product, req *CreateProductRequest) (*CreateProductResult, error) {
	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		if _, err := s.mutator.ApplyDelta(ctx, tx, actor.ShopID, existing.ID, req.Stock); err != nil {
			return err
		}
		return tx.Model(existing).UpdateColumn("purchase_price", req.PurchasePrice).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to merge product stock: %w", err)
	}

	product, err := s.catalog.Product(ctx, actor.ShopID, existing.ID)
	if err != nil {
		return nil, err
	}

	s.recorder.Audit(ctx, actor, models.ActionProductStockMerge, models.JSONB{
		"productName": product.Name,
		"addedStock":  req.Stock.String(),
	})
	return &CreateProductResult{Product: product, Merged: true}, nil
}

func (s *ProductService) GetProduct(ctx context.Context, shopID, id uuid.UUID) (*models.Product, error) {
	return s.catalog.Product(ctx, shopID, id)
}

func (s *ProductService) UpdateProduct(ctx context.Context, actor permissions.Actor, id uuid.UUID, req *UpdateProductRequest) (*models.Product, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if !actor.IsManager() && req.touchesManagerFields() {
		return nil, ErrForbiddenField
	}

	product, err := s.catalog.Product(ctx, actor.ShopID, id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Category != nil {
		updates["category"] = strings.TrimSpace(*req.Category)
	}
	if req.IsWeighable != nil {
		updates["is_weighable"] = *req.IsWeighable
	}
	if req.Barcode != nil {
		updates["barcode"] = strings.TrimSpace(*req.Barcode)
	}
	if req.PLUCodes != nil {
		if err := validateCodes(*req.PLUCodes, nil); err != nil {
			return nil, err
		}
		updates["plu_codes"] = *req.PLUCodes
	}
	if req.PackagingOptions != nil {
		if err := validateCodes(nil, *req.PackagingOptions); err != nil {
			return nil, err
		}
		updates["packaging_options"] = *req.PackagingOptions
	}
	if req.ShowInQuickAdd != nil {
		updates["show_in_quick_add"] = *req.ShowInQuickAdd
	}
	for column, value := range map[string]*decimal.Decimal{
		"purchase_price": req.PurchasePrice,
		"selling_price":  req.SellingPrice,
		"vat_rate":       req.VATRate,
	} {
		if value == nil {
			continue
		}
		if value.IsNegative() {
			return nil, fmt.Errorf("%w: %s must not be negative", ErrValidation, column)
		}
		updates[column] = *value
	}
	if req.Stock != nil && req.Stock.IsNegative() {
		return nil, fmt.Errorf("%w: stock must not be negative", ErrValidation)
	}

	err = database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(product).Updates(updates).Error; err != nil {
				return err
			}
		}
		if req.Stock != nil {
			delta := req.Stock.Round(stockDecimals).Sub(product.Stock)
			if !delta.IsZero() {
				if _, err := s.mutator.ApplyDelta(ctx, tx, actor.ShopID, id, delta); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	updated, err := s.catalog.Product(ctx, actor.ShopID, id)
	if err != nil {
		return nil, err
	}
	s.recorder.Audit(ctx, actor, models.ActionProductUpdated, models.JSONB{
		"productId":   id.String(),
		"productName": updated.Name,
	})
	return updated, nil
}

// DeleteProduct removes a product together with its sales and stock history
// and the recipes that cut it. A product still produced by another recipe
// cannot be deleted.
func (s *ProductService) DeleteProduct(ctx context.Context, actor permissions.Actor, id uuid.UUID) error {
	if !actor.IsManager() {
		return ErrManagerOnly
	}
	product, err := s.catalog.Product(ctx, actor.ShopID, id)
	if err != nil {
		return err
	}

	err = database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		var recipes []models.ButcheringRecipe
		if err := tx.Where("shop_id = ?", actor.ShopID).Find(&recipes).Error; err != nil {
			return err
		}
		for _, r := range recipes {
			if r.SourceProductID == id {
				continue
			}
			for _, o := range r.Outputs {
				if o.ProductID == id {
					return fmt.Errorf("%w: %s", ErrProductInRecipe, r.Name)
				}
			}
		}
		if err := tx.Where("shop_id = ? AND source_product_id = ?", actor.ShopID, id).Delete(&models.ButcheringRecipe{}).Error; err != nil {
			return err
		}

		for _, model := range []interface{}{
			&models.Sale{},
			&models.StockInHistory{},
			&models.WastageHistory{},
			&models.ReturnHistory{},
			&models.PurchaseInvoiceItem{},
		} {
			if err := tx.Where("shop_id = ? AND product_id = ?", actor.ShopID, id).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Delete(product).Error
	})
	if errors.Is(err, ErrProductInRecipe) {
		return err
	}
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	s.recorder.Audit(ctx, actor, models.ActionProductDeleted, models.JSONB{
		"productId":   id.String(),
		"productName": product.Name,
	})
	return nil
}

func (s *ProductService) SearchProducts(ctx context.Context, shopID uuid.UUID, params ProductSearchParams) ([]models.Product, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Product{}).Where("shop_id = ?", shopID)

	if params.Category != "" {
		query = query.Where("category = ?", params.Category)
	}
	if params.Search != "" {
		term := "%" + strings.ToLower(strings.TrimSpace(params.Search)) + "%"
		query = query.Where("LOWER(name) LIKE ? OR barcode LIKE ?", term, term)
	}
	if params.QuickAdd {
		query = query.Where("show_in_quick_add = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	allowedSortFields := []string{"name", "category", "stock", "selling_price", "created_at", "updated_at"}
	query = utils.ApplySort(query, params.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, params.PaginationParams)

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to search products: %w", err)
	}
	return products, total, nil
}

// ResolveCode runs a scanned code through the classifier without touching
// any cart.
func (s *ProductService) ResolveCode(ctx context.Context, shopID uuid.UUID, code string) (*barcode.Resolution, error) {
	return s.catalog.Resolve(ctx, shopID, code)
}

func (r *UpdateProductRequest) touchesManagerFields() bool {
	return r.PurchasePrice != nil || r.SellingPrice != nil || r.Stock != nil
}

func validateCodes(plus models.PLUCodes, packs models.PackagingOptions) error {
	for _, p := range plus {
		if !utils.ValidPLU(strings.TrimSpace(p.PLU)) {
			return fmt.Errorf("%w: %q", ErrInvalidPLU, p.PLU)
		}
		if p.Multiplier != nil && p.Multiplier.IsNegative() {
			return fmt.Errorf("%w: %q has a negative multiplier", ErrInvalidPLU, p.PLU)
		}
	}
	for _, o := range packs {
		if strings.TrimSpace(o.Barcode) == "" || !o.Quantity.IsPositive() {
			return fmt.Errorf("%w: packaging option needs a barcode and a positive quantity", ErrValidation)
		}
	}
	return nil
}
