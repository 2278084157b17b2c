package services

import (
	"context"
	"errors"
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

// PurchaseService handles suppliers and the purchase invoices that bring
// goods in from them.
type PurchaseService struct {
	db       *gorm.DB
	carts    *CartService
	catalog  *CatalogService
	mutator  *StockMutator
	recorder *Recorder
}

type SupplierRequest struct {
	Name          string `json:"name" validate:"required,max=255"`
	ContactPerson string `json:"contact_person" validate:"max=255"`
	Phone         string `json:"phone" validate:"max=50"`
}

type ConfirmInvoiceRequest struct {
	SupplierID  uuid.UUID            `json:"supplier_id" validate:"required"`
	InvoiceDate string               `json:"invoice_date" validate:"required"`
	Status      models.InvoiceStatus `json:"status" validate:"omitempty,oneof=paid unpaid"`
}

type LastPriceResponse struct {
	ProductID     uuid.UUID       `json:"product_id"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	FromInvoice   bool            `json:"from_invoice"`
}

func NewPurchaseService(db *gorm.DB, carts *CartService, catalog *CatalogService, mutator *StockMutator, recorder *Recorder) *PurchaseService {
	return &PurchaseService{
		db:       db,
		carts:    carts,
		catalog:  catalog,
		mutator:  mutator,
		recorder: recorder,
	}
}

func (s *PurchaseService) ListSuppliers(ctx context.Context, shopID uuid.UUID) ([]models.Supplier, error) {
	var suppliers []models.Supplier
	if err := s.db.WithContext(ctx).Where("shop_id = ?", shopID).
		Order("name ASC").Find(&suppliers).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return suppliers, nil
}

func (s *PurchaseService) CreateSupplier(ctx context.Context, actor permissions.Actor, req *SupplierRequest) (*models.Supplier, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	supplier := &models.Supplier{
		ShopID:        actor.ShopID,
		Name:          strings.TrimSpace(req.Name),
		ContactPerson: strings.TrimSpace(req.ContactPerson),
		Phone:         strings.TrimSpace(req.Phone),
	}
	if err := s.db.WithContext(ctx).Create(supplier).Error; err != nil {
		return nil, fmt.Errorf("failed to create supplier: %w", err)
	}
	return supplier, nil
}

func (s *PurchaseService) UpdateSupplier(ctx context.Context, actor permissions.Actor, id uuid.UUID, req *SupplierRequest) (*models.Supplier, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	supplier, err := s.findSupplier(ctx, actor.ShopID, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(supplier).Updates(map[string]interface{}{
		"name":           strings.TrimSpace(req.Name),
		"contact_person": strings.TrimSpace(req.ContactPerson),
		"phone":          strings.TrimSpace(req.Phone),
	}).Error; err != nil {
		return nil, fmt.Errorf("failed to update supplier: %w", err)
	}
	return s.findSupplier(ctx, actor.ShopID, id)
}

// DeleteSupplier is manager-only and refuses suppliers with invoices.
func (s *PurchaseService) DeleteSupplier(ctx context.Context, actor permissions.Actor, id uuid.UUID) error {
	if !actor.IsManager() {
		return ErrManagerOnly
	}
	supplier, err := s.findSupplier(ctx, actor.ShopID, id)
	if err != nil {
		return err
	}
	var invoices int64
	if err := s.db.WithContext(ctx).Model(&models.PurchaseInvoice{}).
		Where("shop_id = ? AND supplier_id = ?", actor.ShopID, id).
		Count(&invoices).Error; err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if invoices > 0 {
		return fmt.Errorf("%w: supplier has %d invoices", ErrValidation, invoices)
	}
	if err := s.db.WithContext(ctx).Delete(supplier).Error; err != nil {
		return fmt.Errorf("failed to delete supplier: %w", err)
	}
	return nil
}

// LastPurchasePrice suggests the price from the newest invoice line for the
// product, falling back to the product's own purchase price.
func (s *PurchaseService) LastPurchasePrice(ctx context.Context, shopID, productID uuid.UUID) (*LastPriceResponse, error) {
	product, err := s.catalog.Product(ctx, shopID, productID)
	if err != nil {
		return nil, err
	}
	price, err := lastPurchasePrice(ctx, s.db, shopID, productID)
	if err != nil {
		return nil, err
	}
	if price == nil {
		return &LastPriceResponse{ProductID: productID, PurchasePrice: product.PurchasePrice}, nil
	}
	return &LastPriceResponse{ProductID: productID, PurchasePrice: *price, FromInvoice: true}, nil
}

// ConfirmInvoice saves the purchase cart as an invoice with its items, adds
// the quantities to stock and takes over each line's purchase price.
func (s *PurchaseService) ConfirmInvoice(ctx context.Context, actor permissions.Actor, req *ConfirmInvoiceRequest) (*models.PurchaseInvoice, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	invoiceDate, err := parseInvoiceDate(req.InvoiceDate)
	if err != nil {
		return nil, err
	}
	c, err := s.carts.load(ctx, actor, cart.KindPurchase)
	if err != nil {
		return nil, err
	}
	if _, err := s.findSupplier(ctx, actor.ShopID, req.SupplierID); err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = models.InvoiceStatusPaid
	}
	invoice := &models.PurchaseInvoice{
		ShopID:      actor.ShopID,
		UserID:      actor.UserID,
		SupplierID:  req.SupplierID,
		InvoiceDate: invoiceDate,
		TotalAmount: c.PurchaseTotal().Round(2),
		Status:      status,
	}

	err = database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		if err := tx.Create(invoice).Error; err != nil {
			return err
		}
		items := make([]models.PurchaseInvoiceItem, 0, len(c.Lines))
		for _, l := range c.Lines {
			items = append(items, models.PurchaseInvoiceItem{
				ShopID:        actor.ShopID,
				InvoiceID:     invoice.ID,
				ProductID:     l.ProductID,
				Quantity:      l.Quantity,
				PurchasePrice: l.PurchasePrice,
			})
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}
		invoice.Items = items

		for _, l := range c.GroupByProduct() {
			if _, err := s.mutator.ApplyDelta(ctx, tx, actor.ShopID, l.ProductID, l.Quantity); err != nil {
				return err
			}
		}
		// The last line wins when a product was scanned twice at different prices.
		for _, l := range c.Lines {
			if err := tx.Model(&models.Product{}).
				Where("id = ? AND shop_id = ?", l.ProductID, actor.ShopID).
				UpdateColumn("purchase_price", l.PurchasePrice).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to confirm invoice: %w", err)
	}

	s.recorder.Audit(ctx, actor, models.ActionPurchase, models.JSONB{
		"supplierId":  req.SupplierID.String(),
		"totalAmount": invoice.TotalAmount.String(),
		"itemCount":   len(c.Lines),
	})
	s.carts.clearAfterCommit(ctx, actor, cart.KindPurchase)
	return invoice, nil
}

func (s *PurchaseService) ListInvoices(ctx context.Context, shopID uuid.UUID, params utils.PaginationParams) ([]models.PurchaseInvoice, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.PurchaseInvoice{}).Where("shop_id = ?", shopID)
	query = utils.ApplyDateRange(query, params, "invoice_date")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count invoices: %w", err)
	}

	var invoices []models.PurchaseInvoice
	query = utils.ApplySort(query, params, []string{"invoice_date", "total_amount", "created_at"})
	if err := utils.ApplyPagination(query, params).Find(&invoices).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list invoices: %w", err)
	}
	if len(invoices) == 0 {
		return invoices, total, nil
	}

	ids := make([]uuid.UUID, 0, len(invoices))
	for _, inv := range invoices {
		ids = append(ids, inv.ID)
	}
	var items []models.PurchaseInvoiceItem
	if err := s.db.WithContext(ctx).Where("invoice_id IN ?", ids).Find(&items).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to load invoice items: %w", err)
	}
	byInvoice := make(map[uuid.UUID][]models.PurchaseInvoiceItem, len(invoices))
	for _, it := range items {
		byInvoice[it.InvoiceID] = append(byInvoice[it.InvoiceID], it)
	}
	for i := range invoices {
		invoices[i].Items = byInvoice[invoices[i].ID]
	}
	return invoices, total, nil
}

func (s *PurchaseService) findSupplier(ctx context.Context, shopID, id uuid.UUID) (*models.Supplier, error) {
	var supplier models.Supplier
	err := s.db.WithContext(ctx).Where("id = ? AND shop_id = ?", id, shopID).First(&supplier).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSupplierNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &supplier, nil
}

// lastPurchasePrice returns nil when the product was never invoiced.
func lastPurchasePrice(ctx context.Context, db *gorm.DB, shopID, productID uuid.UUID) (*decimal.Decimal, error) {
	var items []models.PurchaseInvoiceItem
	if err := db.WithContext(ctx).
		Where("shop_id = ? AND product_id = ?", shopID, productID).
		Order("created_at DESC").Limit(1).
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0].PurchasePrice, nil
}

func parseInvoiceDate(value string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, strings.TrimSpace(value)); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: invoice_date must be YYYY-MM-DD", ErrValidation)
}
