// Package cart holds the per-cashier scan lists: the sale cart, the credit
// sale cart, the stock-in list and the purchase invoice draft.
package cart

import (
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/NEBULA-33/nebula-1/internal/models"
)

type Kind string

const (
	KindSale     Kind = "sale"
	KindDebtSale Kind = "debt_sale"
	KindStockIn  Kind = "stock_in"
	KindPurchase Kind = "purchase"
)

func ParseKind(s string) (Kind, bool) {
	switch k := Kind(s); k {
	case KindSale, KindDebtSale, KindStockIn, KindPurchase:
		return k, true
	}
	return "", false
}

// Outgoing reports whether confirming this cart takes goods out of stock.
func (k Kind) Outgoing() bool {
	return k == KindSale || k == KindDebtSale
}

var (
	ErrLineNotFound    = errors.New("cart line not found")
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrNotAdjustable   = errors.New("weighed lines cannot be adjusted")
	ErrInvalidPrice    = errors.New("price must not be negative")
)

// Line snapshots the product's prices at scan time.
type Line struct {
	ID            uuid.UUID       `json:"id"`
	ProductID     uuid.UUID       `json:"product_id"`
	Name          string          `json:"name"`
	Quantity      decimal.Decimal `json:"quantity"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	VATRate       decimal.Decimal `json:"vat_rate"`
	IsWeighable   bool            `json:"is_weighable"`
	ScannedAt     time.Time       `json:"scanned_at"`
}

func (l Line) Total() decimal.Decimal {
	return l.SellingPrice.Mul(l.Quantity)
}

func (l Line) PurchaseTotal() decimal.Decimal {
	return l.PurchasePrice.Mul(l.Quantity)
}

type Cart struct {
	Kind      Kind      `json:"kind"`
	Lines     []Line    `json:"lines"`
	UpdatedAt time.Time `json:"updated_at"`
}

func New(kind Kind) *Cart {
	return &Cart{Kind: kind, Lines: []Line{}}
}

func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// Add appends a scan. Stock-in scans and weighed scans always get their own
// line; other carts merge repeated scans of the same unit product.
func (c *Cart) Add(p models.Product, qty decimal.Decimal, isWeighable bool) (Line, error) {
	if !qty.IsPositive() {
		return Line{}, ErrInvalidQuantity
	}
	now := time.Now().UTC()
	c.UpdatedAt = now

	if c.Kind != KindStockIn && !isWeighable {
		for i := range c.Lines {
			if c.Lines[i].ProductID == p.ID && !c.Lines[i].IsWeighable {
				c.Lines[i].Quantity = c.Lines[i].Quantity.Add(qty)
				c.Lines[i].ScannedAt = now
				return c.Lines[i], nil
			}
		}
	}

	line := Line{
		ID:            uuid.New(),
		ProductID:     p.ID,
		Name:          p.Name,
		Quantity:      qty,
		SellingPrice:  p.SellingPrice,
		PurchasePrice: p.PurchasePrice,
		VATRate:       p.VATRate,
		IsWeighable:   isWeighable,
		ScannedAt:     now,
	}
	c.Lines = append(c.Lines, line)
	return line, nil
}

func (c *Cart) Remove(lineID uuid.UUID) error {
	for i := range c.Lines {
		if c.Lines[i].ID == lineID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			c.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return ErrLineNotFound
}

func (c *Cart) Clear() {
	c.Lines = []Line{}
	c.UpdatedAt = time.Now().UTC()
}

// Adjust changes a unit line by delta. A line that drops to zero or below is
// removed and the returned bool is false.
func (c *Cart) Adjust(lineID uuid.UUID, delta decimal.Decimal) (Line, bool, error) {
	i := c.index(lineID)
	if i < 0 {
		return Line{}, false, ErrLineNotFound
	}
	if c.Lines[i].IsWeighable {
		return Line{}, false, ErrNotAdjustable
	}

	next := c.Lines[i].Quantity.Add(delta)
	if !next.IsPositive() {
		line := c.Lines[i]
		c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
		c.UpdatedAt = time.Now().UTC()
		return line, false, nil
	}
	c.Lines[i].Quantity = next
	c.UpdatedAt = time.Now().UTC()
	return c.Lines[i], true, nil
}

func (c *Cart) SetPurchasePrice(lineID uuid.UUID, price decimal.Decimal) (Line, error) {
	if price.IsNegative() {
		return Line{}, ErrInvalidPrice
	}
	i := c.index(lineID)
	if i < 0 {
		return Line{}, ErrLineNotFound
	}
	c.Lines[i].PurchasePrice = price
	c.UpdatedAt = time.Now().UTC()
	return c.Lines[i], nil
}

func (c *Cart) Line(lineID uuid.UUID) (Line, bool) {
	i := c.index(lineID)
	if i < 0 {
		return Line{}, false
	}
	return c.Lines[i], true
}

// QuantityOf sums every line of the product.
func (c *Cart) QuantityOf(productID uuid.UUID) decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		if l.ProductID == productID {
			total = total.Add(l.Quantity)
		}
	}
	return total
}

func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.Total())
	}
	return total
}

func (c *Cart) PurchaseTotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.PurchaseTotal())
	}
	return total
}

type VATLine struct {
	Rate   decimal.Decimal `json:"rate"`
	Amount decimal.Decimal `json:"amount"`
}

// VATBreakdown extracts the VAT included in the selling prices, grouped by
// rate. Rates are fractions (0.01, 0.10, 0.20).
func (c *Cart) VATBreakdown() []VATLine {
	byRate := map[string]*VATLine{}
	var order []string
	one := decimal.NewFromInt(1)

	for _, l := range c.Lines {
		gross := l.Total()
		net := gross.DivRound(one.Add(l.VATRate), 4)
		key := l.VATRate.String()
		entry, ok := byRate[key]
		if !ok {
			entry = &VATLine{Rate: l.VATRate, Amount: decimal.Zero}
			byRate[key] = entry
			order = append(order, key)
		}
		entry.Amount = entry.Amount.Add(gross.Sub(net))
	}

	lines := make([]VATLine, 0, len(order))
	for _, key := range order {
		e := byRate[key]
		e.Amount = e.Amount.Round(2)
		lines = append(lines, *e)
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].Rate.LessThan(lines[j].Rate) })
	return lines
}

func (c *Cart) VATTotal() decimal.Decimal {
	total := decimal.Zero
	for _, v := range c.VATBreakdown() {
		total = total.Add(v.Amount)
	}
	return total
}

// Change is the money due back to the customer, never negative.
func (c *Cart) Change(amountPaid decimal.Decimal) decimal.Decimal {
	change := amountPaid.Sub(c.Total())
	if change.IsNegative() {
		return decimal.Zero
	}
	return change
}

// GroupByProduct merges lines into one quantity per product, in first-scan
// order. The first line's price snapshot wins.
func (c *Cart) GroupByProduct() []Line {
	index := map[uuid.UUID]int{}
	var grouped []Line
	for _, l := range c.Lines {
		if i, ok := index[l.ProductID]; ok {
			grouped[i].Quantity = grouped[i].Quantity.Add(l.Quantity)
			continue
		}
		index[l.ProductID] = len(grouped)
		grouped = append(grouped, l)
	}
	return grouped
}

type Summary struct {
	ItemCount int             `json:"item_count"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	VAT       []VATLine       `json:"vat"`
	Total     decimal.Decimal `json:"total"`
	Purchase  decimal.Decimal `json:"purchase_total"`
}

func (c *Cart) Summary() Summary {
	total := c.Total()
	vat := c.VATBreakdown()
	vatTotal := decimal.Zero
	for _, v := range vat {
		vatTotal = vatTotal.Add(v.Amount)
	}
	return Summary{
		ItemCount: len(c.Lines),
		Subtotal:  total.Sub(vatTotal).Round(2),
		VAT:       vat,
		Total:     total.Round(2),
		Purchase:  c.PurchaseTotal().Round(2),
	}
}

func (c *Cart) index(lineID uuid.UUID) int {
	for i := range c.Lines {
		if c.Lines[i].ID == lineID {
			return i
		}
	}
	return -1
}
