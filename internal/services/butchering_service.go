package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/NEBULA-33/nebula-1/internal/barcode"
	"github.com/NEBULA-33/nebula-1/internal/butchering"
	"github.com/NEBULA-33/nebula-1/internal/database"
	"github.com/NEBULA-33/nebula-1/internal/models"
	"github.com/NEBULA-33/nebula-1/internal/permissions"
)

type ButcheringService struct {
	db       *gorm.DB
	catalog  *CatalogService
	mutator  *StockMutator
	recorder *Recorder
}

type RecipeRequest struct {
	Name            string               `json:"name" validate:"required,max=255"`
	SourceProductID uuid.UUID            `json:"source_product_id" validate:"required"`
	Outputs         models.RecipeOutputs `json:"outputs" validate:"required,min=1"`
}

type ButcheringRequest struct {
	Code     string          `json:"code" validate:"required,max=64"`
	RecipeID uuid.UUID       `json:"recipe_id" validate:"required"`
	Quantity decimal.Decimal `json:"quantity" validate:"decimal_positive"`
}

// ButcheringPreview is what the butchering screen shows after the source
// cut is scanned.
type ButcheringPreview struct {
	Source            models.Product            `json:"source"`
	Resolution        *barcode.Resolution       `json:"resolution"`
	SuggestedQuantity decimal.Decimal           `json:"suggested_quantity"`
	Recipes           []models.ButcheringRecipe `json:"recipes"`
}

type ButcheringResult struct {
	Plan    butchering.Plan          `json:"plan"`
	History models.ButcheringHistory `json:"history"`
	Revenue decimal.Decimal          `json:"expected_revenue"`
}

func NewButcheringService(db *gorm.DB, catalog *CatalogService, mutator *StockMutator, recorder *Recorder) *ButcheringService {
	return &ButcheringService{
		db:       db,
		catalog:  catalog,
		mutator:  mutator,
		recorder: recorder,
	}
}

func (s *ButcheringService) ListRecipes(ctx context.Context, shopID uuid.UUID, sourceProductID *uuid.UUID) ([]models.ButcheringRecipe, error) {
	query := s.db.WithContext(ctx).Where("shop_id = ?", shopID)
	if sourceProductID != nil {
		query = query.Where("source_product_id = ?", *sourceProductID)
	}
	var recipes []models.ButcheringRecipe
	if err := query.Order("name ASC").Find(&recipes).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return recipes, nil
}

func (s *ButcheringService) GetRecipe(ctx context.Context, shopID, id uuid.UUID) (*models.ButcheringRecipe, error) {
	var recipe models.ButcheringRecipe
	err := s.db.WithContext(ctx).Where("id = ? AND shop_id = ?", id, shopID).First(&recipe).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRecipeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &recipe, nil
}

func (s *ButcheringService) CreateRecipe(ctx context.Context, actor permissions.Actor, req *RecipeRequest) (*models.ButcheringRecipe, error) {
	if err := s.checkRecipe(ctx, actor, req); err != nil {
		return nil, err
	}
	recipe := &models.ButcheringRecipe{
		ShopID:          actor.ShopID,
		Name:            strings.TrimSpace(req.Name),
		SourceProductID: req.SourceProductID,
		Outputs:         req.Outputs,
	}
	if err := s.db.WithContext(ctx).Create(recipe).Error; err != nil {
		return nil, fmt.Errorf("failed to create recipe: %w", err)
	}
	return recipe, nil
}

func (s *ButcheringService) UpdateRecipe(ctx context.Context, actor permissions.Actor, id uuid.UUID, req *RecipeRequest) (*models.ButcheringRecipe, error) {
	if err := s.checkRecipe(ctx, actor, req); err != nil {
		return nil, err
	}
	recipe, err := s.GetRecipe(ctx, actor.ShopID, id)
	if err != nil {
		return nil, err
	}
	recipe.Name = strings.TrimSpace(req.Name)
	recipe.SourceProductID = req.SourceProductID
	recipe.Outputs = req.Outputs
	if err := s.db.WithContext(ctx).Save(recipe).Error; err != nil {
		return nil, fmt.Errorf("failed to update recipe: %w", err)
	}
	return recipe, nil
}

func (s *ButcheringService) DeleteRecipe(ctx context.Context, actor permissions.Actor, id uuid.UUID) error {
	if !actor.IsManager() {
		return ErrManagerOnly
	}
	res := s.db.WithContext(ctx).Where("id = ? AND shop_id = ?", id, actor.ShopID).Delete(&models.ButcheringRecipe{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete recipe: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrRecipeNotFound
	}
	return nil
}

// checkRecipe enforces the manager gate, the percentage rules and that every
// referenced product belongs to the shop.
func (s *ButcheringService) checkRecipe(ctx context.Context, actor permissions.Actor, req *RecipeRequest) error {
	if !actor.IsManager() {
		return ErrManagerOnly
	}
	if err := validateRequest(req); err != nil {
		return err
	}
	if err := butchering.ValidateRecipe(req.Outputs); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	ids := []uuid.UUID{req.SourceProductID}
	for _, o := range req.Outputs {
		ids = append(ids, o.ProductID)
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Product{}).
		Where("shop_id = ? AND id IN ?", actor.ShopID, ids).
		Distinct("id").Count(&count).Error; err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if int(count) != len(uniqueIDs(ids)) {
		return ErrProductNotFound
	}
	return nil
}

// Preview resolves the source cut and lists the recipes that start from it.
// A scale label pre-fills the quantity with its weight.
func (s *ButcheringService) Preview(ctx context.Context, shopID uuid.UUID, code string) (*ButcheringPreview, error) {
	catalog, err := s.catalog.Load(ctx, shopID)
	if err != nil {
		return nil, err
	}
	exec := butchering.NewExecutor()
	res, err := exec.ScanSource(code, catalog)
	if err != nil {
		return nil, mapButcheringError(err)
	}

	source := exec.Source()
	recipes, err := s.ListRecipes(ctx, shopID, &source.ID)
	if err != nil {
		return nil, err
	}
	return &ButcheringPreview{
		Source:            source,
		Resolution:        res,
		SuggestedQuantity: exec.SuggestedQuantity(),
		Recipes:           recipes,
	}, nil
}

// Execute cuts quantity of the scanned source into the recipe's outputs. The
// source decrement, every output increment and the history row commit
// together.
func (s *ButcheringService) Execute(ctx context.Context, actor permissions.Actor, req *ButcheringRequest) (*ButcheringResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	catalog, err := s.catalog.Load(ctx, actor.ShopID)
	if err != nil {
		return nil, err
	}
	recipe, err := s.GetRecipe(ctx, actor.ShopID, req.RecipeID)
	if err != nil {
		return nil, err
	}

	exec := butchering.NewExecutor()
	if _, err := exec.ScanSource(req.Code, catalog); err != nil {
		return nil, mapButcheringError(err)
	}
	if err := exec.SelectRecipe(*recipe); err != nil {
		return nil, mapButcheringError(err)
	}
	if err := exec.EnterQuantity(req.Quantity); err != nil {
		return nil, mapButcheringError(err)
	}
	plan, err := exec.Plan()
	if err != nil {
		return nil, mapButcheringError(err)
	}

	history := []models.ButcheringHistory{{
		RecipeID:          recipe.ID,
		RecipeName:        recipe.Name,
		SourceProductID:   plan.Source.ID,
		SourceProductName: plan.Source.Name,
		SourceQuantity:    plan.Quantity,
		SourceProductCost: plan.SourceCost.Round(2),
		Outputs:           plan.Outputs,
	}}

	err = database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		if _, err := s.mutator.ApplyDelta(ctx, tx, actor.ShopID, plan.Source.ID, plan.Quantity.Neg()); err != nil {
			return err
		}
		for _, o := range plan.Outputs {
			if !o.Quantity.IsPositive() {
				continue
			}
			if _, err := s.mutator.ApplyDelta(ctx, tx, actor.ShopID, o.ProductID, o.Quantity); err != nil {
				return err
			}
		}
		return s.recorder.Record(ctx, tx, actor, models.HistoryKindButchering, history)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to execute butchering: %w", err)
	}
	if err := exec.MarkExecuted(); err != nil {
		return nil, mapButcheringError(err)
	}

	s.recorder.Audit(ctx, actor, models.ActionButchering, models.JSONB{
		"recipeName":        recipe.Name,
		"sourceProductName": plan.Source.Name,
		"quantity":          plan.Quantity.String(),
	})
	return &ButcheringResult{Plan: plan, History: history[0], Revenue: plan.Revenue().Round(2)}, nil
}

func mapButcheringError(err error) error {
	switch {
	case errors.Is(err, butchering.ErrSourceNotFound):
		return fmt.Errorf("%w: %v", ErrCodeUnresolved, err)
	case errors.Is(err, butchering.ErrInsufficientSource):
		return fmt.Errorf("%w: %v", ErrInsufficientStock, err)
	case errors.Is(err, butchering.ErrInvalidQuantity):
		return fmt.Errorf("%w: %v", ErrInvalidQuantity, err)
	default:
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
}

func uniqueIDs(ids []uuid.UUID) map[uuid.UUID]struct{} {
	set := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
