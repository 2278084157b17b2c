package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/NEBULA-33/nebula-1/internal/cart"
	"github.com/NEBULA-33/nebula-1/internal/database"
	"github.com/NEBULA-33/nebula-1/internal/models"
	"github.com/NEBULA-33/nebula-1/internal/permissions"
)

// DebtService keeps the credit (veresiye) ledger: customers, their
// transactions and the sales booked onto their account.
type DebtService struct {
	db       *gorm.DB
	carts    *CartService
	mutator  *StockMutator
	recorder *Recorder
}

// DebtTransactionRequest records a debt (positive amount) or a payment
// (negative amount). Without PersonID a new person is created.
type DebtTransactionRequest struct {
	PersonID    *uuid.UUID      `json:"person_id,omitempty"`
	PersonName  string          `json:"person_name" validate:"required,max=255"`
	Phone       string          `json:"phone" validate:"max=50"`
	Address     string          `json:"address" validate:"max=1000"`
	Amount      decimal.Decimal `json:"amount" validate:"decimal_non_zero"`
	Description string          `json:"description" validate:"required,max=1000"`
}

type DebtSaleRequest struct {
	PersonID uuid.UUID `json:"person_id" validate:"required"`
}

type DebtPersonView struct {
	models.DebtPerson
	Balance      decimal.Decimal          `json:"balance"`
	Transactions []models.DebtTransaction `json:"transactions,omitempty"`
}

func NewDebtService(db *gorm.DB, carts *CartService, mutator *StockMutator, recorder *Recorder) *DebtService {
	return &DebtService{
		db:       db,
		carts:    carts,
		mutator:  mutator,
		recorder: recorder,
	}
}

// ListPersons returns every debtor with the sum of their transactions.
func (s *DebtService) ListPersons(ctx context.Context, shopID uuid.UUID, search string) ([]DebtPersonView, error) {
	query := s.db.WithContext(ctx).Where("shop_id = ?", shopID)
	if search = strings.TrimSpace(search); search != "" {
		query = query.Where("LOWER(person_name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	var persons []models.DebtPerson
	if err := query.Order("person_name ASC").Find(&persons).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	var txs []models.DebtTransaction
	if err := s.db.WithContext(ctx).Where("shop_id = ?", shopID).
		Order("created_at ASC").Find(&txs).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	balances := make(map[uuid.UUID]decimal.Decimal, len(persons))
	for _, t := range txs {
		balances[t.PersonID] = balances[t.PersonID].Add(t.Amount)
	}

	views := make([]DebtPersonView, 0, len(persons))
	for _, p := range persons {
		views = append(views, DebtPersonView{DebtPerson: p, Balance: balances[p.ID].Round(2)})
	}
	return views, nil
}

func (s *DebtService) GetPerson(ctx context.Context, shopID, id uuid.UUID) (*DebtPersonView, error) {
	person, err := s.findPerson(ctx, s.db, shopID, id)
	if err != nil {
		return nil, err
	}
	var txs []models.DebtTransaction
	if err := s.db.WithContext(ctx).
		Where("shop_id = ? AND person_id = ?", shopID, id).
		Order("created_at DESC").Find(&txs).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	balance := decimal.Zero
	for _, t := range txs {
		balance = balance.Add(t.Amount)
	}
	return &DebtPersonView{DebtPerson: *person, Balance: balance.Round(2), Transactions: txs}, nil
}

// RecordTransaction creates or updates the person, then appends the
// transaction.
func (s *DebtService) RecordTransaction(ctx context.Context, actor permissions.Actor, req *DebtTransactionRequest) (*DebtPersonView, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	var personID uuid.UUID
	name := strings.TrimSpace(req.PersonName)
	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		fields := models.DebtPerson{
			ShopID:     actor.ShopID,
			PersonName: name,
			Phone:      strings.TrimSpace(req.Phone),
			Address:    strings.TrimSpace(req.Address),
		}
		if req.PersonID != nil {
			person, err := s.findPerson(ctx, tx, actor.ShopID, *req.PersonID)
			if err != nil {
				return err
			}
			if err := tx.Model(person).Updates(map[string]interface{}{
				"person_name": fields.PersonName,
				"phone":       fields.Phone,
				"address":     fields.Address,
			}).Error; err != nil {
				return err
			}
			personID = person.ID
		} else {
			if err := tx.Create(&fields).Error; err != nil {
				return err
			}
			personID = fields.ID
		}

		return tx.Create(&models.DebtTransaction{
			ShopID:      actor.ShopID,
			PersonID:    personID,
			UserID:      actor.UserID,
			Amount:      req.Amount.Round(2),
			Description: strings.TrimSpace(req.Description),
		}).Error
	})
	if err != nil {
		if errors.Is(err, ErrPersonNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to record debt transaction: %w", err)
	}

	s.recorder.Audit(ctx, actor, models.ActionDebtTransaction, models.JSONB{
		"personName":  name,
		"amount":      req.Amount.String(),
		"description": req.Description,
	})
	return s.GetPerson(ctx, actor.ShopID, personID)
}

// DeletePerson removes a debtor with all of their transactions.
func (s *DebtService) DeletePerson(ctx context.Context, actor permissions.Actor, id uuid.UUID) error {
	person, err := s.findPerson(ctx, s.db, actor.ShopID, id)
	if err != nil {
		return err
	}
	err = database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		if err := tx.Where("shop_id = ? AND person_id = ?", actor.ShopID, id).
			Delete(&models.DebtTransaction{}).Error; err != nil {
			return err
		}
		return tx.Delete(person).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete debt person: %w", err)
	}

	s.recorder.Audit(ctx, actor, models.ActionDebtPersonDeleted, models.JSONB{
		"personId":   id.String(),
		"personName": person.PersonName,
	})
	return nil
}

// ConfirmDebtSale books the credit sale cart onto the person's account as a
// single transaction and takes the goods off the shelf.
func (s *DebtService) ConfirmDebtSale(ctx context.Context, actor permissions.Actor, req *DebtSaleRequest) (*DebtPersonView, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	c, err := s.carts.load(ctx, actor, cart.KindDebtSale)
	if err != nil {
		return nil, err
	}
	person, err := s.findPerson(ctx, s.db, actor.ShopID, req.PersonID)
	if err != nil {
		return nil, err
	}
	if err := s.mutator.CheckAvailable(ctx, s.db, actor.ShopID, needByProduct(c.Lines)); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(c.Lines))
	for _, l := range c.Lines {
		names = append(names, l.Name)
	}
	total := c.Total().Round(2)

	err = database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		if err := tx.Create(&models.DebtTransaction{
			ShopID:      actor.ShopID,
			PersonID:    person.ID,
			UserID:      actor.UserID,
			Amount:      total,
			Description: "Alışveriş: " + strings.Join(names, ", "),
		}).Error; err != nil {
			return err
		}
		for _, l := range c.GroupByProduct() {
			if _, err := s.mutator.ApplyDelta(ctx, tx, actor.ShopID, l.ProductID, l.Quantity.Neg()); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to confirm debt sale: %w", err)
	}

	s.recorder.Audit(ctx, actor, models.ActionDebtSale, models.JSONB{
		"personName": person.PersonName,
		"amount":     total.String(),
	})
	s.carts.clearAfterCommit(ctx, actor, cart.KindDebtSale)
	return s.GetPerson(ctx, actor.ShopID, person.ID)
}

func (s *DebtService) findPerson(ctx context.Context, db *gorm.DB, shopID, id uuid.UUID) (*models.DebtPerson, error) {
	var person models.DebtPerson
	err := db.WithContext(ctx).Where("id = ? AND shop_id = ?", id, shopID).First(&person).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPersonNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &person, nil
}
