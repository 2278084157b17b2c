// Package butchering turns one source cut into its output products
// following a recipe of yield percentages.
package butchering

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/NEBULA-33/nebula-1/internal/barcode"
	"github.com/NEBULA-33/nebula-1/internal/models"
)

type State int

const (
	StateAwaitingSourceScan State = iota
	StateSourceScanned
	StateRecipeSelected
	StateQuantityEntered
	StateExecuted
)

func (s State) String() string {
	switch s {
	case StateAwaitingSourceScan:
		return "awaiting_source_scan"
	case StateSourceScanned:
		return "source_scanned"
	case StateRecipeSelected:
		return "recipe_selected"
	case StateQuantityEntered:
		return "quantity_entered"
	case StateExecuted:
		return "executed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	ErrSourceNotFound     = errors.New("source product not found")
	ErrOutOfOrder         = errors.New("butchering step out of order")
	ErrAlreadyExecuted    = errors.New("butchering already executed")
	ErrRecipeMismatch     = errors.New("recipe does not belong to the scanned product")
	ErrInvalidQuantity    = errors.New("quantity must be positive")
	ErrInsufficientSource = errors.New("not enough source stock")
	ErrNoOutputs          = errors.New("recipe needs at least one output")
	ErrInvalidPercentage  = errors.New("output percentage must be positive")
	ErrPercentageOverflow = errors.New("output percentages exceed 100")
	ErrOutputMissing      = errors.New("recipe output product no longer exists")
)

var (
	hundred          = decimal.NewFromInt(100)
	percentageLimit  = decimal.RequireFromString("100.01")
	quantityDecimals = int32(3)
)

// ValidateRecipe checks the outputs of a recipe before it is saved or used.
func ValidateRecipe(outputs models.RecipeOutputs) error {
	if len(outputs) == 0 {
		return ErrNoOutputs
	}
	sum := decimal.Zero
	for _, o := range outputs {
		if !o.Percentage.IsPositive() {
			return ErrInvalidPercentage
		}
		sum = sum.Add(o.Percentage)
	}
	if sum.GreaterThan(percentageLimit) {
		return fmt.Errorf("%w: %s", ErrPercentageOverflow, sum.StringFixed(2))
	}
	return nil
}

// Plan is the set of stock changes a butchering run will make.
type Plan struct {
	Recipe     models.ButcheringRecipe  `json:"recipe"`
	Source     models.Product           `json:"source"`
	Quantity   decimal.Decimal          `json:"quantity"`
	SourceCost decimal.Decimal          `json:"source_cost"`
	Outputs    models.ButcheringOutputs `json:"outputs"`
}

func (p Plan) Revenue() decimal.Decimal {
	return p.Outputs.Revenue()
}

// Executor walks one butchering run through its steps. A run can be
// executed once; start a new Executor for the next one.
type Executor struct {
	state     State
	catalog   *barcode.Catalog
	source    models.Product
	suggested decimal.Decimal
	recipe    models.ButcheringRecipe
	quantity  decimal.Decimal
}

func NewExecutor() *Executor {
	return &Executor{state: StateAwaitingSourceScan}
}

func (e *Executor) State() State { return e.state }

func (e *Executor) Source() models.Product { return e.source }

// SuggestedQuantity is the weight read from a scale label, zero otherwise.
func (e *Executor) SuggestedQuantity() decimal.Decimal { return e.suggested }

// ScanSource resolves the source cut. Scanning again before execution starts
// the run over with the new product.
func (e *Executor) ScanSource(code string, catalog *barcode.Catalog) (*barcode.Resolution, error) {
	if e.state == StateExecuted {
		return nil, ErrAlreadyExecuted
	}
	res, ok := barcode.Resolve(code, catalog)
	if !ok {
		return nil, ErrSourceNotFound
	}

	e.catalog = catalog
	e.source = res.Product
	e.suggested = decimal.Zero
	if res.Kind == barcode.KindWeighableScale {
		e.suggested = res.Quantity
	}
	e.recipe = models.ButcheringRecipe{}
	e.quantity = decimal.Zero
	e.state = StateSourceScanned
	return res, nil
}

func (e *Executor) SelectRecipe(recipe models.ButcheringRecipe) error {
	switch e.state {
	case StateExecuted:
		return ErrAlreadyExecuted
	case StateAwaitingSourceScan:
		return ErrOutOfOrder
	}
	if recipe.SourceProductID != e.source.ID {
		return ErrRecipeMismatch
	}
	if err := ValidateRecipe(recipe.Outputs); err != nil {
		return err
	}
	e.recipe = recipe
	e.quantity = decimal.Zero
	e.state = StateRecipeSelected
	return nil
}

func (e *Executor) EnterQuantity(q decimal.Decimal) error {
	switch e.state {
	case StateExecuted:
		return ErrAlreadyExecuted
	case StateRecipeSelected, StateQuantityEntered:
	default:
		return ErrOutOfOrder
	}
	if !q.IsPositive() {
		return ErrInvalidQuantity
	}
	if q.GreaterThan(e.source.Stock) {
		return fmt.Errorf("%w: have %s, need %s", ErrInsufficientSource, e.source.Stock.String(), q.String())
	}
	e.quantity = q
	e.state = StateQuantityEntered
	return nil
}

// Plan computes every output increment. A recipe naming a product that is no
// longer in the catalog cannot run.
func (e *Executor) Plan() (Plan, error) {
	if e.state != StateQuantityEntered {
		return Plan{}, ErrOutOfOrder
	}

	outputs := make(models.ButcheringOutputs, 0, len(e.recipe.Outputs))
	for _, o := range e.recipe.Outputs {
		product, ok := e.catalog.Get(o.ProductID)
		if !ok {
			return Plan{}, fmt.Errorf("%w: %s", ErrOutputMissing, o.ProductID)
		}
		outputs = append(outputs, models.ButcheringOutput{
			ProductID:     product.ID,
			ProductName:   product.Name,
			Quantity:      e.quantity.Mul(o.Percentage).Div(hundred).Round(quantityDecimals),
			SellingPrice:  product.SellingPrice,
			PurchasePrice: product.PurchasePrice,
		})
	}

	return Plan{
		Recipe:     e.recipe,
		Source:     e.source,
		Quantity:   e.quantity,
		SourceCost: e.source.PurchasePrice.Mul(e.quantity),
		Outputs:    outputs,
	}, nil
}

func (e *Executor) MarkExecuted() error {
	if e.state == StateExecuted {
		return ErrAlreadyExecuted
	}
	if e.state != StateQuantityEntered {
		return ErrOutOfOrder
	}
	e.state = StateExecuted
	return nil
}
