// internal/utils/validator.go
package utils

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate *validator.Validate

var pluPattern = regexp.MustCompile(`^[0-9]{1,5}$`)

func init() {
	validate = validator.New()
	// Decimals are validated through their string form.
	validate.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
	validate.RegisterValidation("plu", validatePLU)
	validate.RegisterValidation("decimal_positive", validateDecimalPositive)
	validate.RegisterValidation("decimal_non_negative", validateDecimalNonNegative)
	validate.RegisterValidation("decimal_non_zero", validateDecimalNonZero)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// validatePLU accepts the numeric codes printed on scale labels: up to five
// digits.
func validatePLU(fl validator.FieldLevel) bool {
	return ValidPLU(fl.Field().String())
}

func ValidPLU(code string) bool {
	return pluPattern.MatchString(code)
}

func decimalValue(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		return d.String()
	}
	return nil
}

func decimalField(fl validator.FieldLevel) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

func validateDecimalPositive(fl validator.FieldLevel) bool {
	d, ok := decimalField(fl)
	return ok && d.IsPositive()
}

func validateDecimalNonNegative(fl validator.FieldLevel) bool {
	d, ok := decimalField(fl)
	return ok && !d.IsNegative()
}

func validateDecimalNonZero(fl validator.FieldLevel) bool {
	d, ok := decimalField(fl)
	return ok && !d.IsZero()
}

// Validation tags for common fields
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   strings.ToLower(e.Field()),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "email":
		return "Invalid email format"
	case "min":
		return e.Field() + " must be at least " + e.Param() + " characters"
	case "max":
		return e.Field() + " must be at most " + e.Param() + " characters"
	case "plu":
		return "PLU must be 1 to 5 digits"
	case "decimal_positive":
		return e.Field() + " must be greater than zero"
	case "decimal_non_negative":
		return e.Field() + " must not be negative"
	case "decimal_non_zero":
		return e.Field() + " must not be zero"
	default:
		return e.Field() + " is invalid"
	}
}
