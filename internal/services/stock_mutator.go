package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/NEBULA-33/nebula-1/internal/models"
)

const stockDecimals = 3

// StockMutator is the only code that writes products.stock.
type StockMutator struct{}

func NewStockMutator() *StockMutator {
	return &StockMutator{}
}

// ApplyDelta adds delta to one product's stock in a single statement and
// returns the new level. A negative delta that would take stock below zero
// changes nothing and returns ErrInsufficientStock. Run it inside the
// caller's transaction so a later failure undoes it.
func (m *StockMutator) ApplyDelta(ctx context.Context, tx *gorm.DB, shopID, productID uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	q := tx.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND shop_id = ?", productID, shopID)
	if delta.IsNegative() {
		q = q.Where("stock + ? >= 0", delta)
	}

	res := q.UpdateColumns(map[string]interface{}{
		"stock":      gorm.Expr("stock + ?", delta),
		"updated_at": time.Now().UTC(),
	})
	if res.Error != nil {
		return decimal.Zero, fmt.Errorf("failed to update stock: %w", res.Error)
	}

	var product models.Product
	err := tx.WithContext(ctx).Select("id", "stock").
		Where("id = ? AND shop_id = ?", productID, shopID).
		First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, ErrProductNotFound
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("database error: %w", err)
	}

	if res.RowsAffected == 0 {
		return product.Stock, fmt.Errorf("%w: have %s, need %s", ErrInsufficientStock,
			product.Stock.Round(stockDecimals).String(), delta.Neg().String())
	}
	return product.Stock.Round(stockDecimals), nil
}

// CheckAvailable fails when any product has less stock than requested.
// Flows call it before their first write so a shortage aborts everything.
func (m *StockMutator) CheckAvailable(ctx context.Context, db *gorm.DB, shopID uuid.UUID, need map[uuid.UUID]decimal.Decimal) error {
	if len(need) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(need))
	for id := range need {
		ids = append(ids, id)
	}

	var products []models.Product
	if err := db.WithContext(ctx).Select("id", "name", "stock").
		Where("shop_id = ? AND id IN ?", shopID, ids).
		Find(&products).Error; err != nil {
		return fmt.Errorf("database error: %w", err)
	}

	found := make(map[uuid.UUID]models.Product, len(products))
	for _, p := range products {
		found[p.ID] = p
	}
	for id, qty := range need {
		p, ok := found[id]
		if !ok {
			return ErrProductNotFound
		}
		if p.Stock.LessThan(qty) {
			return fmt.Errorf("%w: %s has %s, need %s", ErrInsufficientStock, p.Name,
				p.Stock.Round(stockDecimals).String(), qty.String())
		}
	}
	return nil
}
