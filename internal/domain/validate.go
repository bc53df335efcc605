package domain

import (
	"fmt"
	"regexp"
	"strings"
)

var multipleSpacesRegex = regexp.MustCompile(`\s+`)

// NormalizeName lower-cases a product title and collapses its whitespace.
// The result is only used for search matching.
func NormalizeName(name string) string {
	return strings.TrimSpace(multipleSpacesRegex.ReplaceAllString(strings.ToLower(name), " "))
}

// Validate checks the fields a product needs before it can enter a catalog
func (p Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if strings.TrimSpace(p.Retailer) == "" {
		return fmt.Errorf("%w: retailer is required", ErrValidation)
	}
	if p.Price == nil {
		return fmt.Errorf("%w: price is required", ErrValidation)
	}
	if p.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative, got %s", ErrValidation, p.Price.String())
	}
	return nil
}
