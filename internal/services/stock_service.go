package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/NEBULA-33/nebula-1/internal/cart"
	"github.com/NEBULA-33/nebula-1/internal/database"
	"github.com/NEBULA-33/nebula-1/internal/models"
	"github.com/NEBULA-33/nebula-1/internal/permissions"
	"github.com/NEBULA-33/nebula-1/internal/utils"
)

// StockService covers the flows that move goods without a sale: receiving
// stock, writing off wastage and taking back returns.
type StockService struct {
	db       *gorm.DB
	carts    *CartService
	catalog  *CatalogService
	mutator  *StockMutator
	recorder *Recorder
	settings *SettingsService
}

type WastageRequest struct {
	ProductID uuid.UUID       `json:"product_id" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity" validate:"decimal_positive"`
	Reason    string          `json:"reason" validate:"required,max=255"`
}

type ReturnRequest struct {
	ProductID uuid.UUID       `json:"product_id" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity" validate:"decimal_positive"`
	Reason    string          `json:"reason" validate:"required,max=255"`
}

type StockInResult struct {
	Lines    int                           `json:"lines"`
	Products int                           `json:"products"`
	Levels   map[uuid.UUID]decimal.Decimal `json:"levels"`
	History  []models.StockInHistory       `json:"history"`
}

type StockMovement struct {
	Product *models.Product `json:"product"`
	Stock   decimal.Decimal `json:"stock"`
	Record  interface{}     `json:"record"`
}

func NewStockService(db *gorm.DB, carts *CartService, catalog *CatalogService, mutator *StockMutator, recorder *Recorder, settings *SettingsService) *StockService {
	return &StockService{
		db:       db,
		carts:    carts,
		catalog:  catalog,
		mutator:  mutator,
		recorder: recorder,
		settings: settings,
	}
}

// ConfirmStockIn books the stock-in list: one history row per scan and one
// stock increment per product.
func (s *StockService) ConfirmStockIn(ctx context.Context, actor permissions.Actor) (*StockInResult, error) {
	c, err := s.carts.load(ctx, actor, cart.KindStockIn)
	if err != nil {
		return nil, err
	}

	history := make([]models.StockInHistory, 0, len(c.Lines))
	for _, l := range c.Lines {
		history = append(history, models.StockInHistory{
			ProductID:     l.ProductID,
			ProductName:   l.Name,
			Quantity:      l.Quantity,
			PurchasePrice: l.PurchasePrice,
		})
	}

	grouped := c.GroupByProduct()
	levels := make(map[uuid.UUID]decimal.Decimal, len(grouped))
	err = database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		for _, l := range grouped {
			level, err := s.mutator.ApplyDelta(ctx, tx, actor.ShopID, l.ProductID, l.Quantity)
			if err != nil {
				return err
			}
			levels[l.ProductID] = level
		}
		return s.recorder.Record(ctx, tx, actor, models.HistoryKindStockIn, history)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to confirm stock in: %w", err)
	}

	s.recorder.Audit(ctx, actor, models.ActionStockIn, models.JSONB{
		"itemCount":  len(c.Lines),
		"totalItems": len(grouped),
	})
	s.carts.clearAfterCommit(ctx, actor, cart.KindStockIn)

	return &StockInResult{
		Lines:    len(c.Lines),
		Products: len(grouped),
		Levels:   levels,
		History:  history,
	}, nil
}

// RecordWastage writes off quantity at the current purchase price.
func (s *StockService) RecordWastage(ctx context.Context, actor permissions.Actor, req *WastageRequest) (*StockMovement, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	reason, err := s.settings.CheckWastageReason(ctx, req.Reason)
	if err != nil {
		return nil, err
	}
	product, err := s.catalog.Product(ctx, actor.ShopID, req.ProductID)
	if err != nil {
		return nil, err
	}
	if err := checkShelf(*product, req.Quantity); err != nil {
		return nil, err
	}

	row := models.WastageHistory{
		ProductID:   product.ID,
		ProductName: product.Name,
		Quantity:    req.Quantity,
		Reason:      reason,
		Cost:        product.PurchasePrice.Mul(req.Quantity).Round(2),
	}
	rows := []models.WastageHistory{row}

	var level decimal.Decimal
	err = database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		var err error
		level, err = s.mutator.ApplyDelta(ctx, tx, actor.ShopID, product.ID, req.Quantity.Neg())
		if err != nil {
			return err
		}
		return s.recorder.Record(ctx, tx, actor, models.HistoryKindWastage, rows)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record wastage: %w", err)
	}

	s.recorder.Audit(ctx, actor, models.ActionWastage, models.JSONB{
		"productName": product.Name,
		"quantity":    req.Quantity.String(),
		"reason":      reason,
	})
	return &StockMovement{Product: product, Stock: level, Record: rows[0]}, nil
}

// RecordReturn puts goods back on the shelf. Besides the return row it books
// a negative sale so revenue figures net the return out.
func (s *StockService) RecordReturn(ctx context.Context, actor permissions.Actor, req *ReturnRequest) (*StockMovement, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	product, err := s.catalog.Product(ctx, actor.ShopID, req.ProductID)
	if err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(req.Reason)
	value := product.SellingPrice.Mul(req.Quantity).Round(2)

	returns := []models.ReturnHistory{{
		ProductID:   product.ID,
		ProductName: product.Name,
		Quantity:    req.Quantity,
		Reason:      reason,
		Value:       value,
	}}
	sales := []models.Sale{{
		ProductID:     product.ID,
		ProductName:   product.Name,
		Quantity:      req.Quantity.Neg(),
		PurchasePrice: product.PurchasePrice,
		SellingPrice:  product.SellingPrice,
		TotalRevenue:  value.Neg(),
		VATRate:       product.VATRate,
		SaleTimestamp: time.Now().UTC(),
	}}

	var level decimal.Decimal
	err = database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		var err error
		level, err = s.mutator.ApplyDelta(ctx, tx, actor.ShopID, product.ID, req.Quantity)
		if err != nil {
			return err
		}
		if err := s.recorder.Record(ctx, tx, actor, models.HistoryKindReturn, returns); err != nil {
			return err
		}
		return s.recorder.Record(ctx, tx, actor, models.HistoryKindReturn, sales)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record return: %w", err)
	}

	s.recorder.Audit(ctx, actor, models.ActionReturn, models.JSONB{
		"productName": product.Name,
		"quantity":    req.Quantity.String(),
		"reason":      reason,
	})
	return &StockMovement{Product: product, Stock: level, Record: returns[0]}, nil
}

// History lists one kind of history rows for the shop, newest first.
func (s *StockService) History(ctx context.Context, shopID uuid.UUID, kind models.HistoryKind, params utils.PaginationParams) (interface{}, int64, error) {
	var (
		model  interface{}
		rows   interface{}
		column = "created_at"
	)
	switch kind {
	case models.HistoryKindSale:
		model, rows, column = &models.Sale{}, &[]models.Sale{}, "sale_timestamp"
	case models.HistoryKindStockIn:
		model, rows = &models.StockInHistory{}, &[]models.StockInHistory{}
	case models.HistoryKindWastage:
		model, rows = &models.WastageHistory{}, &[]models.WastageHistory{}
	case models.HistoryKindReturn:
		model, rows = &models.ReturnHistory{}, &[]models.ReturnHistory{}
	case models.HistoryKindButchering:
		model, rows = &models.ButcheringHistory{}, &[]models.ButcheringHistory{}
	default:
		return nil, 0, fmt.Errorf("%w: unknown history kind %q", ErrValidation, kind)
	}

	query := s.db.WithContext(ctx).Model(model).Where("shop_id = ?", shopID)
	query = utils.ApplyDateRange(query, params, column)
	if params.Search != "" && kind != models.HistoryKindButchering {
		query = query.Where("LOWER(product_name) LIKE ?", "%"+strings.ToLower(params.Search)+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count history: %w", err)
	}

	params.Sort = column
	query = utils.ApplySort(query, params, []string{column})
	query = utils.ApplyPagination(query, params)
	if err := query.Find(rows).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list history: %w", err)
	}
	return rows, total, nil
}
