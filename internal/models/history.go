// internal/models/history.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// History rows are append-only. They are removed only by the product and
// debt-person cascades and by a full import.

type Sale struct {
	BaseModel
	ShopID        uuid.UUID       `json:"shop_id" gorm:"type:uuid;not null;index"`
	UserID        uuid.UUID       `json:"user_id" gorm:"type:uuid;not null;index"`
	ProductID     uuid.UUID       `json:"product_id" gorm:"type:uuid;not null;index"`
	ProductName   string          `json:"product_name" gorm:"size:255"`
	Quantity      decimal.Decimal `json:"quantity" gorm:"type:decimal(12,3);not null"`
	PurchasePrice decimal.Decimal `json:"purchase_price" gorm:"type:decimal(12,2);default:0"`
	SellingPrice  decimal.Decimal `json:"selling_price" gorm:"type:decimal(12,2);default:0"`
	TotalRevenue  decimal.Decimal `json:"total_revenue" gorm:"type:decimal(12,2);default:0"`
	VATRate       decimal.Decimal `json:"vat_rate" gorm:"column:vat_rate;type:decimal(5,2);default:0"`
	Channel       string          `json:"channel" gorm:"size:100;index"`
	SaleTimestamp time.Time       `json:"sale_timestamp" gorm:"not null;index"`
}

func (Sale) TableName() string { return "sales" }

type StockInHistory struct {
	BaseModel
	ShopID        uuid.UUID       `json:"shop_id" gorm:"type:uuid;not null;index"`
	UserID        uuid.UUID       `json:"user_id" gorm:"type:uuid;not null;index"`
	ProductID     uuid.UUID       `json:"product_id" gorm:"type:uuid;not null;index"`
	ProductName   string          `json:"product_name" gorm:"size:255"`
	Quantity      decimal.Decimal `json:"quantity" gorm:"type:decimal(12,3);not null"`
	PurchasePrice decimal.Decimal `json:"purchase_price" gorm:"type:decimal(12,2);default:0"`
}

func (StockInHistory) TableName() string { return "stock_in_history" }

type WastageHistory struct {
	BaseModel
	ShopID      uuid.UUID       `json:"shop_id" gorm:"type:uuid;not null;index"`
	UserID      uuid.UUID       `json:"user_id" gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `json:"product_id" gorm:"type:uuid;not null;index"`
	ProductName string          `json:"product_name" gorm:"size:255"`
	Quantity    decimal.Decimal `json:"quantity" gorm:"type:decimal(12,3);not null"`
	Reason      string          `json:"reason" gorm:"size:255;not null"`
	Cost        decimal.Decimal `json:"cost" gorm:"type:decimal(12,2);default:0"`
}

func (WastageHistory) TableName() string { return "wastage_history" }

type ReturnHistory struct {
	BaseModel
	ShopID      uuid.UUID       `json:"shop_id" gorm:"type:uuid;not null;index"`
	UserID      uuid.UUID       `json:"user_id" gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `json:"product_id" gorm:"type:uuid;not null;index"`
	ProductName string          `json:"product_name" gorm:"size:255"`
	Quantity    decimal.Decimal `json:"quantity" gorm:"type:decimal(12,3);not null"`
	Reason      string          `json:"reason" gorm:"size:255"`
	Value       decimal.Decimal `json:"value" gorm:"type:decimal(12,2);default:0"`
}

func (ReturnHistory) TableName() string { return "return_history" }

type AuditLog struct {
	BaseModel
	ShopID     uuid.UUID `json:"shop_id" gorm:"type:uuid;not null;index"`
	UserID     uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	ActionType string    `json:"action_type" gorm:"size:50;not null;index"`
	Details    JSONB     `json:"details" gorm:"type:jsonb"`
}

func (AuditLog) TableName() string { return "audit_log" }

type PersonalNote struct {
	BaseModel
	ShopID  uuid.UUID `json:"shop_id" gorm:"type:uuid;not null;index"`
	UserID  uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	Content string    `json:"content" gorm:"type:text;not null"`
}

func (PersonalNote) TableName() string { return "personal_notes" }

// Global configuration tables, shared by every shop.

type WastageReason struct {
	BaseModel
	Name string `json:"name" gorm:"size:100;not null;uniqueIndex"`
}

func (WastageReason) TableName() string { return "wastage_reasons" }

type SalesChannel struct {
	BaseModel
	Name string `json:"name" gorm:"size:100;not null;uniqueIndex"`
}

func (SalesChannel) TableName() string { return "sales_channels" }
