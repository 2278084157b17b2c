package barcode

import (
	"github.com/shopspring/decimal"

	"github.com/NEBULA-33/nebula-1/internal/models"
)

// Resolution is a scanned code turned into a product and a quantity.
type Resolution struct {
	Product     models.Product  `json:"product"`
	Quantity    decimal.Decimal `json:"quantity"`
	IsWeighable bool            `json:"is_weighable"`
	Kind        Kind            `json:"kind"`
	Grams       int64           `json:"grams,omitempty"`
}

// Resolve classifies code and looks the match up in the same catalog. It
// has no side effects; the second return is false when nothing matched.
// A scale label is always weighed; any other code is weighed only when the
// product itself is sold by weight.
func Resolve(code string, catalog *Catalog) (*Resolution, bool) {
	c := Classify(code, catalog)
	if !c.Resolved() {
		return nil, false
	}

	product, ok := catalog.Get(c.ProductID)
	if !ok {
		return nil, false
	}

	return &Resolution{
		Product:     product,
		Quantity:    c.Quantity,
		IsWeighable: c.Kind == KindWeighableScale || product.IsWeighable,
		Kind:        c.Kind,
		Grams:       c.Grams,
	}, true
}
