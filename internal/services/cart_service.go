package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/NEBULA-33/nebula-1/internal/barcode"
	"github.com/NEBULA-33/nebula-1/internal/cart"
	"github.com/NEBULA-33/nebula-1/internal/models"
	"github.com/NEBULA-33/nebula-1/internal/permissions"
)

// CartService keeps each cashier's open carts in a cart.Store and checks
// scans against the catalog before they land in a cart.
type CartService struct {
	db      *gorm.DB
	store   cart.Store
	catalog *CatalogService
}

type ScanRequest struct {
	Code string `json:"code" validate:"required,max=64"`
}

type AddItemRequest struct {
	ProductID uuid.UUID       `json:"product_id" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity" validate:"decimal_positive"`
}

type AdjustItemRequest struct {
	Delta         *decimal.Decimal `json:"delta,omitempty"`
	PurchasePrice *decimal.Decimal `json:"purchase_price,omitempty"`
}

type CartView struct {
	Kind    cart.Kind        `json:"kind"`
	Lines   []cart.Line      `json:"lines"`
	Summary cart.Summary     `json:"summary"`
	Change  *decimal.Decimal `json:"change,omitempty"`
}

type ScanResult struct {
	Line       cart.Line           `json:"line"`
	Resolution *barcode.Resolution `json:"resolution"`
	Cart       *CartView           `json:"cart"`
}

func NewCartService(db *gorm.DB, store cart.Store, catalog *CatalogService) *CartService {
	return &CartService{db: db, store: store, catalog: catalog}
}

func cartKey(actor permissions.Actor, kind cart.Kind) cart.Key {
	return cart.Key{ShopID: actor.ShopID, UserID: actor.UserID, Kind: kind}
}

func viewOf(c *cart.Cart, paid *decimal.Decimal) *CartView {
	v := &CartView{Kind: c.Kind, Lines: c.Lines, Summary: c.Summary()}
	if paid != nil {
		change := c.Change(*paid).Round(2)
		v.Change = &change
	}
	return v
}

// GetCart returns the cart with totals. When paid is set the change due is
// filled in as well.
func (s *CartService) GetCart(ctx context.Context, actor permissions.Actor, kind cart.Kind, paid *decimal.Decimal) (*CartView, error) {
	c, err := s.store.Load(ctx, cartKey(actor, kind))
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return viewOf(c, paid), nil
}

// Scan resolves code and appends the product to the cart. Outgoing carts
// refuse a scan the shelf cannot cover; purchase carts price the line at the
// last invoiced purchase price.
func (s *CartService) Scan(ctx context.Context, actor permissions.Actor, kind cart.Kind, req *ScanRequest) (*ScanResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	res, err := s.catalog.Resolve(ctx, actor.ShopID, req.Code)
	if err != nil {
		return nil, err
	}

	line, c, err := s.add(ctx, actor, kind, res.Product, res.Quantity, res.IsWeighable)
	if err != nil {
		return nil, err
	}
	return &ScanResult{Line: line, Resolution: res, Cart: viewOf(c, nil)}, nil
}

// AddProduct is the quick-add path: a product picked by id rather than by
// scanning.
func (s *CartService) AddProduct(ctx context.Context, actor permissions.Actor, kind cart.Kind, req *AddItemRequest) (*ScanResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	product, err := s.catalog.Product(ctx, actor.ShopID, req.ProductID)
	if err != nil {
		return nil, err
	}

	line, c, err := s.add(ctx, actor, kind, *product, req.Quantity, product.IsWeighable)
	if err != nil {
		return nil, err
	}
	return &ScanResult{Line: line, Cart: viewOf(c, nil)}, nil
}

func (s *CartService) add(ctx context.Context, actor permissions.Actor, kind cart.Kind, product models.Product, qty decimal.Decimal, isWeighable bool) (cart.Line, *cart.Cart, error) {
	key := cartKey(actor, kind)
	c, err := s.store.Load(ctx, key)
	if err != nil {
		return cart.Line{}, nil, fmt.Errorf("failed to load cart: %w", err)
	}

	if kind.Outgoing() {
		if err := checkShelf(product, c.QuantityOf(product.ID).Add(qty)); err != nil {
			return cart.Line{}, nil, err
		}
	}
	if kind == cart.KindPurchase {
		price, err := lastPurchasePrice(ctx, s.db, actor.ShopID, product.ID)
		if err != nil {
			return cart.Line{}, nil, err
		}
		if price != nil {
			product.PurchasePrice = *price
		}
	}

	line, err := c.Add(product, qty, isWeighable)
	if err != nil {
		return cart.Line{}, nil, mapCartError(err)
	}
	if err := s.store.Save(ctx, key, c); err != nil {
		return cart.Line{}, nil, fmt.Errorf("failed to save cart: %w", err)
	}
	return line, c, nil
}

// UpdateLine applies a +/- delta to a unit line or sets a line's purchase
// price. Only stock-in and purchase carts take purchase prices.
func (s *CartService) UpdateLine(ctx context.Context, actor permissions.Actor, kind cart.Kind, lineID uuid.UUID, req *AdjustItemRequest) (*CartView, error) {
	if req.Delta == nil && req.PurchasePrice == nil {
		return nil, fmt.Errorf("%w: delta or purchase_price is required", ErrValidation)
	}
	key := cartKey(actor, kind)
	c, err := s.store.Load(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	if req.PurchasePrice != nil {
		if kind != cart.KindStockIn && kind != cart.KindPurchase {
			return nil, ErrWrongCartKind
		}
		if _, err := c.SetPurchasePrice(lineID, *req.PurchasePrice); err != nil {
			return nil, mapCartError(err)
		}
	}

	if req.Delta != nil {
		line, ok := c.Line(lineID)
		if !ok {
			return nil, mapCartError(cart.ErrLineNotFound)
		}
		if kind.Outgoing() && req.Delta.IsPositive() {
			product, err := s.catalog.Product(ctx, actor.ShopID, line.ProductID)
			if err != nil {
				return nil, err
			}
			if err := checkShelf(*product, c.QuantityOf(line.ProductID).Add(*req.Delta)); err != nil {
				return nil, err
			}
		}
		if _, _, err := c.Adjust(lineID, *req.Delta); err != nil {
			return nil, mapCartError(err)
		}
	}

	if err := s.store.Save(ctx, key, c); err != nil {
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}
	return viewOf(c, nil), nil
}

func (s *CartService) RemoveLine(ctx context.Context, actor permissions.Actor, kind cart.Kind, lineID uuid.UUID) (*CartView, error) {
	key := cartKey(actor, kind)
	c, err := s.store.Load(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if err := c.Remove(lineID); err != nil {
		return nil, mapCartError(err)
	}
	if err := s.store.Save(ctx, key, c); err != nil {
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}
	return viewOf(c, nil), nil
}

func (s *CartService) Clear(ctx context.Context, actor permissions.Actor, kind cart.Kind) error {
	if err := s.store.Delete(ctx, cartKey(actor, kind)); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// clearAfterCommit empties a cart whose contents were just written. The
// write already succeeded, so a store failure is only logged.
func (s *CartService) clearAfterCommit(ctx context.Context, actor permissions.Actor, kind cart.Kind) {
	if err := s.store.Delete(ctx, cartKey(actor, kind)); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"kind":    kind,
			"user_id": actor.UserID,
		}).Warn("Failed to clear cart after commit")
	}
}

// load is used by the confirm flows, which clear the cart themselves once
// their transaction commits.
func (s *CartService) load(ctx context.Context, actor permissions.Actor, kind cart.Kind) (*cart.Cart, error) {
	c, err := s.store.Load(ctx, cartKey(actor, kind))
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if c.IsEmpty() {
		return nil, ErrCartEmpty
	}
	return c, nil
}

func checkShelf(product models.Product, want decimal.Decimal) error {
	if product.Stock.LessThan(want) {
		return fmt.Errorf("%w: %s has %s, need %s", ErrInsufficientStock, product.Name,
			product.Stock.Round(stockDecimals).String(), want.String())
	}
	return nil
}

func mapCartError(err error) error {
	switch {
	case errors.Is(err, cart.ErrInvalidQuantity):
		return fmt.Errorf("%w: %v", ErrInvalidQuantity, err)
	case errors.Is(err, cart.ErrInvalidPrice), errors.Is(err, cart.ErrNotAdjustable):
		return fmt.Errorf("%w: %w", ErrValidation, err)
	default:
		return err
	}
}

// needByProduct sums line quantities per product for a stock precheck.
func needByProduct(lines []cart.Line) map[uuid.UUID]decimal.Decimal {
	need := make(map[uuid.UUID]decimal.Decimal, len(lines))
	for _, l := range lines {
		need[l.ProductID] = need[l.ProductID].Add(l.Quantity)
	}
	return need
}
