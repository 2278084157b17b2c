// internal/models/product.go
package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Product struct {
	BaseModel
	ShopID           uuid.UUID        `json:"shop_id" gorm:"type:uuid;not null;index"`
	Name             string           `json:"name" gorm:"not null;index"`
	Category         string           `json:"category" gorm:"index"`
	IsWeighable      bool             `json:"is_weighable" gorm:"default:false"`
	Barcode          string           `json:"barcode" gorm:"index"`
	PLUCodes         PLUCodes         `json:"plu_codes" gorm:"type:jsonb"`
	PackagingOptions PackagingOptions `json:"packaging_options" gorm:"type:jsonb"`
	PurchasePrice    decimal.Decimal  `json:"purchase_price" gorm:"type:decimal(12,2);default:0"`
	SellingPrice     decimal.Decimal  `json:"selling_price" gorm:"type:decimal(12,2);default:0"`
	VATRate          decimal.Decimal  `json:"vat_rate" gorm:"column:vat_rate;type:decimal(5,2);default:0"`
	Stock            decimal.Decimal  `json:"stock" gorm:"type:decimal(12,3);default:0"`
	ShowInQuickAdd   bool             `json:"show_in_quick_add" gorm:"default:false"`
}

func (Product) TableName() string { return "products" }

// PLUCode is one entry of a product's plu_codes list. A nil multiplier means
// a plain PLU that sells a quantity of one.
type PLUCode struct {
	PLU        string           `json:"plu"`
	Multiplier *decimal.Decimal `json:"multiplier,omitempty"`
}

// UnmarshalJSON accepts both stored shapes: a bare "12345" string and the
// {"plu": "12345", "multiplier": 3} object.
func (p *PLUCode) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var code string
		if err := json.Unmarshal(data, &code); err != nil {
			return err
		}
		*p = PLUCode{PLU: code}
		return nil
	}

	var raw struct {
		PLU        json.RawMessage  `json:"plu"`
		Code       json.RawMessage  `json:"code"`
		Multiplier *decimal.Decimal `json:"multiplier"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invalid plu code %s: %w", string(data), err)
	}

	field := raw.PLU
	if len(field) == 0 {
		field = raw.Code
	}
	code, err := rawToString(field)
	if err != nil {
		return fmt.Errorf("invalid plu code %s: %w", string(data), err)
	}

	p.PLU = code
	p.Multiplier = raw.Multiplier
	if p.Multiplier != nil && p.Multiplier.IsZero() {
		p.Multiplier = nil
	}
	return nil
}

// HasMultiplier reports whether scanning this PLU sells more than one unit.
func (p PLUCode) HasMultiplier() bool {
	return p.Multiplier != nil && p.Multiplier.IsPositive()
}

type PLUCodes []PLUCode

func (p PLUCodes) Value() (driver.Value, error) {
	if p == nil {
		return marshalColumn([]PLUCode{})
	}
	return marshalColumn([]PLUCode(p))
}

func (p *PLUCodes) Scan(value interface{}) error {
	return scanColumn(value, p)
}

type PackagingOption struct {
	Barcode  string          `json:"barcode"`
	Quantity decimal.Decimal `json:"quantity"`
}

type PackagingOptions []PackagingOption

func (p PackagingOptions) Value() (driver.Value, error) {
	if p == nil {
		return marshalColumn([]PackagingOption{})
	}
	return marshalColumn([]PackagingOption(p))
}

func (p *PackagingOptions) Scan(value interface{}) error {
	return scanColumn(value, p)
}

// rawToString reads a JSON string or number as text. Old rows sometimes
// stored PLUs as numbers.
func rawToString(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}
