// internal/models/butchering.go
package models

import (
	"database/sql/driver"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ButcheringRecipe struct {
	BaseModel
	ShopID          uuid.UUID     `json:"shop_id" gorm:"type:uuid;not null;index"`
	Name            string        `json:"name" gorm:"size:255;not null"`
	SourceProductID uuid.UUID     `json:"source_product_id" gorm:"type:uuid;not null;index"`
	Outputs         RecipeOutputs `json:"outputs" gorm:"type:jsonb"`
}

func (ButcheringRecipe) TableName() string { return "butchering_recipes" }

type RecipeOutput struct {
	ProductID  uuid.UUID       `json:"productId"`
	Percentage decimal.Decimal `json:"percentage"`
}

type RecipeOutputs []RecipeOutput

func (r RecipeOutputs) Value() (driver.Value, error) {
	if r == nil {
		return marshalColumn([]RecipeOutput{})
	}
	return marshalColumn([]RecipeOutput(r))
}

func (r *RecipeOutputs) Scan(value interface{}) error {
	return scanColumn(value, r)
}

// ButcheringHistory snapshots the cost of the source cut and the yield of
// every output at execution time.
type ButcheringHistory struct {
	BaseModel
	ShopID            uuid.UUID         `json:"shop_id" gorm:"type:uuid;not null;index"`
	UserID            uuid.UUID         `json:"user_id" gorm:"type:uuid;not null;index"`
	RecipeID          uuid.UUID         `json:"recipe_id" gorm:"type:uuid;index"`
	RecipeName        string            `json:"recipe_name" gorm:"size:255"`
	SourceProductID   uuid.UUID         `json:"source_product_id" gorm:"type:uuid;not null;index"`
	SourceProductName string            `json:"source_product_name" gorm:"size:255"`
	SourceQuantity    decimal.Decimal   `json:"source_quantity" gorm:"type:decimal(12,3);not null"`
	SourceProductCost decimal.Decimal   `json:"source_product_cost" gorm:"type:decimal(12,2);default:0"`
	Outputs           ButcheringOutputs `json:"outputs" gorm:"type:jsonb"`
}

func (ButcheringHistory) TableName() string { return "butchering_history" }

type ButcheringOutput struct {
	ProductID     uuid.UUID       `json:"productId"`
	ProductName   string          `json:"productName"`
	Quantity      decimal.Decimal `json:"quantity"`
	SellingPrice  decimal.Decimal `json:"sellingPrice"`
	PurchasePrice decimal.Decimal `json:"purchasePrice"`
}

type ButcheringOutputs []ButcheringOutput

func (b ButcheringOutputs) Value() (driver.Value, error) {
	if b == nil {
		return marshalColumn([]ButcheringOutput{})
	}
	return marshalColumn([]ButcheringOutput(b))
}

func (b *ButcheringOutputs) Scan(value interface{}) error {
	return scanColumn(value, b)
}

// Revenue is the expected selling value of all outputs.
func (b ButcheringOutputs) Revenue() decimal.Decimal {
	total := decimal.Zero
	for _, o := range b {
		total = total.Add(o.SellingPrice.Mul(o.Quantity))
	}
	return total
}
