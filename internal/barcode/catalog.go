package barcode

import (
	"github.com/google/uuid"

	"github.com/NEBULA-33/nebula-1/internal/models"
)

// Catalog is an immutable snapshot of one shop's products.
type Catalog struct {
	ShopID   uuid.UUID
	products []models.Product
	byID     map[uuid.UUID]int
}

// NewCatalog keeps only the products that belong to shopID.
func NewCatalog(shopID uuid.UUID, products []models.Product) *Catalog {
	c := &Catalog{
		ShopID:   shopID,
		products: make([]models.Product, 0, len(products)),
		byID:     make(map[uuid.UUID]int, len(products)),
	}
	for _, p := range products {
		if p.ShopID != shopID {
			continue
		}
		c.byID[p.ID] = len(c.products)
		c.products = append(c.products, p)
	}
	return c
}

func (c *Catalog) Products() []models.Product {
	if c == nil {
		return nil
	}
	return c.products
}

func (c *Catalog) Get(id uuid.UUID) (models.Product, bool) {
	if c == nil {
		return models.Product{}, false
	}
	i, ok := c.byID[id]
	if !ok {
		return models.Product{}, false
	}
	return c.products[i], true
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.products)
}
