package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/NEBULA-33/nebula-1/internal/barcode"
	"github.com/NEBULA-33/nebula-1/internal/models"
)

// CatalogService loads the product snapshot a scan is resolved against.
type CatalogService struct {
	db *gorm.DB
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

func (s *CatalogService) Load(ctx context.Context, shopID uuid.UUID) (*barcode.Catalog, error) {
	var products []models.Product
	if err := s.db.WithContext(ctx).
		Where("shop_id = ?", shopID).
		Order("name ASC").
		Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return barcode.NewCatalog(shopID, products), nil
}

// Resolve loads the shop catalog and resolves code against it.
func (s *CatalogService) Resolve(ctx context.Context, shopID uuid.UUID, code string) (*barcode.Resolution, error) {
	catalog, err := s.Load(ctx, shopID)
	if err != nil {
		return nil, err
	}
	res, ok := barcode.Resolve(code, catalog)
	if !ok {
		return nil, ErrCodeUnresolved
	}
	return res, nil
}

func (s *CatalogService) Product(ctx context.Context, shopID, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := s.db.WithContext(ctx).
		Where("id = ? AND shop_id = ?", productID, shopID).
		First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &product, nil
}
