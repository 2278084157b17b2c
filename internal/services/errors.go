package services

import (
	"errors"
	"fmt"

	"github.com/NEBULA-33/nebula-1/internal/utils"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrProfileNotFound    = errors.New("profile not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrManagerOnly        = errors.New("manager role required")

	ErrProductNotFound   = errors.New("product not found")
	ErrForbiddenField    = errors.New("price and stock fields are manager-only")
	ErrInvalidPLU        = errors.New("invalid plu code")
	ErrCodeUnresolved    = errors.New("code does not match any product")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("quantity must be positive")

	ErrCartEmpty     = errors.New("cart is empty")
	ErrWrongCartKind = errors.New("operation not allowed for this cart")

	ErrRecipeNotFound   = errors.New("recipe not found")
	ErrProductInRecipe  = errors.New("product is an output of a butchering recipe")
	ErrPersonNotFound   = errors.New("debt person not found")
	ErrSupplierNotFound = errors.New("supplier not found")
	ErrNoteNotFound     = errors.New("note not found")
	ErrShopNotFound     = errors.New("shop not found")

	ErrUnknownReason         = errors.New("unknown wastage reason")
	ErrUnknownChannel        = errors.New("unknown sales channel")
	ErrDuplicateSetting      = errors.New("setting already exists")
	ErrSettingNotFound       = errors.New("setting not found")
	ErrDefaultChannelLocked  = errors.New("default sales channel cannot be deleted")
	ErrBackupDisabled        = errors.New("backup archiving is not configured")
	ErrInvalidBackup         = errors.New("invalid backup data")
	ErrBackupArchiveNotFound = errors.New("backup archive not found")
)

func validateRequest(req interface{}) error {
	if err := utils.ValidateStruct(req); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return nil
}
