package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/NEBULA-33/nebula-1/internal/cart"
	"github.com/NEBULA-33/nebula-1/internal/database"
	"github.com/NEBULA-33/nebula-1/internal/models"
	"github.com/NEBULA-33/nebula-1/internal/permissions"
)

type SalesService struct {
	db       *gorm.DB
	carts    *CartService
	mutator  *StockMutator
	recorder *Recorder
	settings *SettingsService
}

type CompleteSaleRequest struct {
	Channel    string           `json:"channel" validate:"max=100"`
	AmountPaid *decimal.Decimal `json:"amount_paid,omitempty"`
}

type SaleReceipt struct {
	Channel   string          `json:"channel"`
	ItemCount int             `json:"item_count"`
	Summary   cart.Summary    `json:"summary"`
	Total     decimal.Decimal `json:"total"`
	Paid      decimal.Decimal `json:"paid"`
	Change    decimal.Decimal `json:"change"`
	Sales     []models.Sale   `json:"sales"`
	SoldAt    time.Time       `json:"sold_at"`
}

func NewSalesService(db *gorm.DB, carts *CartService, mutator *StockMutator, recorder *Recorder, settings *SettingsService) *SalesService {
	return &SalesService{
		db:       db,
		carts:    carts,
		mutator:  mutator,
		recorder: recorder,
		settings: settings,
	}
}

// CompleteSale turns the cashier's sale cart into sales rows and takes the
// quantities off the shelf in one transaction. Nothing is written when any
// product is short.
func (s *SalesService) CompleteSale(ctx context.Context, actor permissions.Actor, req *CompleteSaleRequest) (*SaleReceipt, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	c, err := s.carts.load(ctx, actor, cart.KindSale)
	if err != nil {
		return nil, err
	}

	channel, err := s.settings.ResolveChannel(ctx, req.Channel)
	if err != nil {
		return nil, err
	}

	if err := s.mutator.CheckAvailable(ctx, s.db, actor.ShopID, needByProduct(c.Lines)); err != nil {
		return nil, err
	}

	soldAt := time.Now().UTC()
	sales := make([]models.Sale, 0, len(c.Lines))
	for _, l := range c.Lines {
		sales = append(sales, models.Sale{
			ProductID:     l.ProductID,
			ProductName:   l.Name,
			Quantity:      l.Quantity,
			PurchasePrice: l.PurchasePrice,
			SellingPrice:  l.SellingPrice,
			TotalRevenue:  l.Total().Round(2),
			VATRate:       l.VATRate,
			Channel:       channel,
			SaleTimestamp: soldAt,
		})
	}

	err = database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		for _, l := range c.GroupByProduct() {
			if _, err := s.mutator.ApplyDelta(ctx, tx, actor.ShopID, l.ProductID, l.Quantity.Neg()); err != nil {
				return err
			}
		}
		return s.recorder.Record(ctx, tx, actor, models.HistoryKindSale, sales)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to complete sale: %w", err)
	}

	total := c.Total().Round(2)
	s.recorder.Audit(ctx, actor, models.ActionSaleCompleted, models.JSONB{
		"itemCount": len(c.Lines),
		"total":     total.String(),
		"channel":   channel,
	})

	receipt := &SaleReceipt{
		Channel:   channel,
		ItemCount: len(c.Lines),
		Summary:   c.Summary(),
		Total:     total,
		Paid:      total,
		Sales:     sales,
		SoldAt:    soldAt,
	}
	if req.AmountPaid != nil {
		receipt.Paid = *req.AmountPaid
		receipt.Change = c.Change(*req.AmountPaid).Round(2)
	}

	s.carts.clearAfterCommit(ctx, actor, cart.KindSale)
	return receipt, nil
}
