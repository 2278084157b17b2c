// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields. History rows are hard-deleted, so there is
// no soft-delete column.
type BaseModel struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// JSONB type for free-form JSON columns
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return marshalColumn(j)
}

func (j *JSONB) Scan(value interface{}) error {
	return scanColumn(value, j)
}

// marshalColumn stores JSON as text so the same column works on PostgreSQL
// jsonb and SQLite.
func marshalColumn(v interface{}) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func scanColumn(value interface{}, dest interface{}) error {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dest)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("unsupported JSON column value %T", value)
	}
}

// Enums
type Role string

const (
	RoleManager        Role = "manager"
	RoleManagerTurkish Role = "yönetici"
	RoleCashier        Role = "cashier"
)

type HistoryKind string

const (
	HistoryKindSale       HistoryKind = "sale"
	HistoryKindReturn     HistoryKind = "return"
	HistoryKindWastage    HistoryKind = "wastage"
	HistoryKindStockIn    HistoryKind = "stock_in"
	HistoryKindButchering HistoryKind = "butchering"
)

// Audit action types written to audit_log.action_type.
const (
	ActionSaleCompleted     = "SALE_COMPLETED"
	ActionDebtSale          = "DEBT_SALE"
	ActionReturn            = "RETURN"
	ActionWastage           = "WASTAGE"
	ActionStockIn           = "STOCK_IN"
	ActionButchering        = "BUTCHERING"
	ActionPurchase          = "PURCHASE_INVOICE"
	ActionProductCreated    = "PRODUCT_CREATED"
	ActionProductUpdated    = "PRODUCT_UPDATED"
	ActionProductDeleted    = "PRODUCT_DELETED"
	ActionProductStockMerge = "PRODUCT_STOCK_MERGED"
	ActionDebtTransaction   = "DEBT_TRANSACTION"
	ActionDebtPersonDeleted = "DEBT_PERSON_DELETED"
	ActionDataImported      = "DATA_IMPORTED"
	ActionLogin             = "LOGIN"
)

// DefaultSalesChannel is the walk-in channel; it always exists and cannot be
// removed.
const DefaultSalesChannel = "Dükkan Satışı"
