// Package barcode decodes what the till scanner sends: scale labels with an
// embedded weight, PLU codes, product barcodes and packaging barcodes.
package barcode

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Kind int

const (
	KindUnresolved Kind = iota
	KindWeighableScale
	KindMultiplierPLU
	KindPlainPLU
	KindStandardBarcode
	KindPackagingBarcode
)

func (k Kind) String() string {
	switch k {
	case KindWeighableScale:
		return "weighable_scale"
	case KindMultiplierPLU:
		return "multiplier_plu"
	case KindPlainPLU:
		return "plain_plu"
	case KindStandardBarcode:
		return "standard_barcode"
	case KindPackagingBarcode:
		return "packaging_barcode"
	default:
		return "unresolved"
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Classification is the result of matching one scanned code against a
// catalog. ProductID and Quantity are zero when Kind is KindUnresolved.
type Classification struct {
	Kind      Kind
	ProductID uuid.UUID
	PLU       string
	Grams     int64
	Quantity  decimal.Decimal
}

func (c Classification) Resolved() bool {
	return c.Kind != KindUnresolved
}

const (
	scaleCodeMinLength = 12
	pluStart           = 2
	pluEnd             = 7
	gramsEnd           = 12
)

var scalePrefixes = []string{"27", "28", "29"}

// IsScaleCode reports whether code has the shape of an in-store scale label.
func IsScaleCode(code string) bool {
	if len(code) < scaleCodeMinLength {
		return false
	}
	for _, prefix := range scalePrefixes {
		if strings.HasPrefix(code, prefix) {
			return true
		}
	}
	return false
}

// ParseScaleCode splits a scale label into its PLU (digits 2-6) and weight in
// grams (digits 7-11). Anything after digit 11 is the check digit and is
// ignored.
func ParseScaleCode(code string) (plu string, grams int64, ok bool) {
	if !IsScaleCode(code) {
		return "", 0, false
	}
	plu = code[pluStart:pluEnd]
	if !isDigits(plu) {
		return "", 0, false
	}
	weight := code[pluEnd:gramsEnd]
	if !isDigits(weight) {
		return "", 0, false
	}
	grams, err := strconv.ParseInt(weight, 10, 64)
	if err != nil {
		return "", 0, false
	}
	return plu, grams, true
}

// WeightToQuantity converts grams to kilograms at three decimals.
func WeightToQuantity(grams int64) decimal.Decimal {
	return decimal.New(grams, -3)
}

// Classify matches code against the catalog. Precedence is scale label,
// multiplier PLU, plain PLU, product barcode, packaging barcode. A code with
// the scale shape never falls through to the other rules.
func Classify(code string, catalog *Catalog) Classification {
	code = strings.TrimSpace(code)
	if code == "" || catalog.Len() == 0 {
		return Classification{Kind: KindUnresolved}
	}

	if IsScaleCode(code) {
		return classifyScale(code, catalog)
	}

	products := catalog.Products()

	for _, p := range products {
		for _, entry := range p.PLUCodes {
			if entry.HasMultiplier() && entry.PLU == code {
				return Classification{Kind: KindMultiplierPLU, ProductID: p.ID, PLU: code, Quantity: *entry.Multiplier}
			}
		}
	}

	for _, p := range products {
		for _, entry := range p.PLUCodes {
			if !entry.HasMultiplier() && entry.PLU == code {
				return Classification{Kind: KindPlainPLU, ProductID: p.ID, PLU: code, Quantity: decimal.NewFromInt(1)}
			}
		}
	}

	for _, p := range products {
		if p.Barcode != "" && p.Barcode == code {
			return Classification{Kind: KindStandardBarcode, ProductID: p.ID, Quantity: decimal.NewFromInt(1)}
		}
	}

	for _, p := range products {
		for _, opt := range p.PackagingOptions {
			if opt.Barcode == code && opt.Quantity.IsPositive() {
				return Classification{Kind: KindPackagingBarcode, ProductID: p.ID, Quantity: opt.Quantity}
			}
		}
	}

	return Classification{Kind: KindUnresolved}
}

func classifyScale(code string, catalog *Catalog) Classification {
	plu, grams, ok := ParseScaleCode(code)
	if !ok || grams <= 0 {
		return Classification{Kind: KindUnresolved}
	}

	for _, p := range catalog.Products() {
		if !p.IsWeighable {
			continue
		}
		for _, entry := range p.PLUCodes {
			if entry.PLU == plu {
				return Classification{
					Kind:      KindWeighableScale,
					ProductID: p.ID,
					PLU:       plu,
					Grams:     grams,
					Quantity:  WeightToQuantity(grams),
				}
			}
		}
	}
	return Classification{Kind: KindUnresolved}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
