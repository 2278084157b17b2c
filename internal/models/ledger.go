// internal/models/ledger.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DebtPerson is a customer buying on credit (veresiye).
type DebtPerson struct {
	BaseModel
	ShopID     uuid.UUID `json:"shop_id" gorm:"type:uuid;not null;index"`
	PersonName string    `json:"person_name" gorm:"size:255;not null;index"`
	Phone      string    `json:"phone" gorm:"size:50"`
	Address    string    `json:"address" gorm:"type:text"`
}

func (DebtPerson) TableName() string { return "debt_persons" }

// DebtTransaction amounts are positive for new debt and negative for
// payments.
type DebtTransaction struct {
	BaseModel
	ShopID      uuid.UUID       `json:"shop_id" gorm:"type:uuid;not null;index"`
	PersonID    uuid.UUID       `json:"person_id" gorm:"type:uuid;not null;index"`
	UserID      uuid.UUID       `json:"user_id" gorm:"type:uuid;index"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:decimal(12,2);not null"`
	Description string          `json:"description" gorm:"type:text"`
}

func (DebtTransaction) TableName() string { return "debt_transactions" }

type Supplier struct {
	BaseModel
	ShopID        uuid.UUID `json:"shop_id" gorm:"type:uuid;not null;index"`
	Name          string    `json:"name" gorm:"size:255;not null"`
	ContactPerson string    `json:"contact_person" gorm:"size:255"`
	Phone         string    `json:"phone" gorm:"size:50"`
}

func (Supplier) TableName() string { return "suppliers" }

type InvoiceStatus string

const (
	InvoiceStatusUnpaid InvoiceStatus = "unpaid"
	InvoiceStatusPaid   InvoiceStatus = "paid"
)

type PurchaseInvoice struct {
	BaseModel
	ShopID      uuid.UUID       `json:"shop_id" gorm:"type:uuid;not null;index"`
	UserID      uuid.UUID       `json:"user_id" gorm:"type:uuid;index"`
	SupplierID  uuid.UUID       `json:"supplier_id" gorm:"type:uuid;not null;index"`
	InvoiceDate time.Time       `json:"invoice_date" gorm:"not null"`
	TotalAmount decimal.Decimal `json:"total_amount" gorm:"type:decimal(12,2);default:0"`
	Status      InvoiceStatus   `json:"status" gorm:"type:varchar(20);default:'unpaid'"`

	Items []PurchaseInvoiceItem `json:"items,omitempty" gorm:"-"`
}

func (PurchaseInvoice) TableName() string { return "purchase_invoices" }

type PurchaseInvoiceItem struct {
	BaseModel
	ShopID        uuid.UUID       `json:"shop_id" gorm:"type:uuid;not null;index"`
	InvoiceID     uuid.UUID       `json:"invoice_id" gorm:"type:uuid;not null;index"`
	ProductID     uuid.UUID       `json:"product_id" gorm:"type:uuid;not null;index"`
	Quantity      decimal.Decimal `json:"quantity" gorm:"type:decimal(12,3);not null"`
	PurchasePrice decimal.Decimal `json:"purchase_price" gorm:"type:decimal(12,2);not null"`
}

func (PurchaseInvoiceItem) TableName() string { return "purchase_invoice_items" }
