package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices travel as JSON numbers, the shape the web front-end expects.
	decimal.MarshalJSONWithoutQuotes = true
}

// Product is a priced catalog entry for one retailer
type Product struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	NormalizedName  string           `json:"normalizedName,omitempty"`
	Brand           string           `json:"brand,omitempty"`
	Category        string           `json:"category,omitempty"`
	Retailer        string           `json:"retailer"`
	Price           *decimal.Decimal `json:"price"`
	PricePerUnit    *decimal.Decimal `json:"pricePerUnit,omitempty"`
	Unit            string           `json:"unit,omitempty"`
	LoyaltyPrice    *decimal.Decimal `json:"loyaltyPrice,omitempty"`
	LoyaltyScheme   string           `json:"loyaltyScheme,omitempty"`
	Quantity        *float64         `json:"quantity,omitempty"`
	Size            string           `json:"size,omitempty"`
	InStock         bool             `json:"inStock"`
	ImageURL        string           `json:"imageUrl,omitempty"`
	ProductURL      string           `json:"productUrl,omitempty"`
	EAN             string           `json:"ean,omitempty"`
	ScrapedAt       time.Time        `json:"scrapedAt"`
	LastUpdated     time.Time        `json:"lastUpdated"`
	MatchConfidence *float64         `json:"matchConfidence,omitempty"`
}

// PriceValue returns the regular price, or zero when it is absent
func (p Product) PriceValue() decimal.Decimal {
	if p.Price == nil {
		return decimal.Zero
	}
	return *p.Price
}

// EffectivePrice is the best price a shopper can get for this entry:
// the loyalty price when present and lower, otherwise the regular price.
func (p Product) EffectivePrice() decimal.Decimal {
	price := p.PriceValue()
	if p.LoyaltyPrice != nil && p.LoyaltyPrice.LessThan(price) {
		return *p.LoyaltyPrice
	}
	return price
}

// BulkFailure describes one rejected entry of a bulk insert
type BulkFailure struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// BulkInsertResult reports a non-atomic bulk insert
type BulkInsertResult struct {
	Inserted []Product     `json:"inserted"`
	Failed   []BulkFailure `json:"failed"`
}

// Price returns a pointer to a decimal parsed from s. It panics on malformed
// input and is meant for fixtures and tests.
func Price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}
