package usecase

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/poundsaver/backend/internal/domain"
)

// quantityPattern matches pack sizes like "500g", "1.5 kg", "2 litres" or "4 pints"
var quantityPattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(kg|g|ml|litres?|liters?|l|pints?)\b`)

const (
	unitPer100g  = "per 100g"
	unitPerLitre = "per litre"
)

var (
	hundred      = decimal.NewFromInt(100)
	thousand     = decimal.NewFromInt(1000)
	mlPerPint    = decimal.RequireFromString("568.26")
	unitPriceDps = int32(4)
)

// ExtractQuantity finds the first pack size in text and converts it to grams
// or millilitres. ok is false when text has no recognisable size.
func ExtractQuantity(text string) (amount decimal.Decimal, isVolume bool, ok bool) {
	m := quantityPattern.FindStringSubmatch(text)
	if m == nil {
		return decimal.Zero, false, false
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil || value == 0 {
		return decimal.Zero, false, false
	}
	v := decimal.NewFromFloat(value)

	switch unit := strings.ToLower(m[2]); {
	case unit == "kg":
		return v.Mul(thousand), false, true
	case unit == "g":
		return v, false, true
	case unit == "ml":
		return v, true, true
	case strings.HasPrefix(unit, "pint"):
		return v.Mul(mlPerPint), true, true
	default: // l, litre(s), liter(s)
		return v.Mul(thousand), true, true
	}
}

// DeriveUnitPrice fills pricePerUnit (and unit, when empty) from the pack
// size found in the product's name and size. Products that already carry a
// unit price, or have no price or size, are returned unchanged.
func DeriveUnitPrice(p domain.Product) domain.Product {
	if p.PricePerUnit != nil || p.Price == nil {
		return p
	}
	amount, isVolume, ok := ExtractQuantity(p.Name + " " + p.Size)
	if !ok {
		return p
	}

	var perUnit decimal.Decimal
	label := unitPer100g
	if isVolume {
		perUnit = p.Price.Mul(thousand).Div(amount)
		label = unitPerLitre
	} else {
		perUnit = p.Price.Mul(hundred).Div(amount)
	}
	perUnit = perUnit.Round(unitPriceDps)

	p.PricePerUnit = &perUnit
	if p.Unit == "" {
		p.Unit = label
	}
	return p
}
