package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SortOrder selects the ordering of a price comparison
type SortOrder string

const (
	SortPriceAsc         SortOrder = "PRICE_ASC"
	SortPriceDesc        SortOrder = "PRICE_DESC"
	SortPricePerUnitAsc  SortOrder = "PRICE_PER_UNIT_ASC"
	SortPricePerUnitDesc SortOrder = "PRICE_PER_UNIT_DESC"
	SortNameAsc          SortOrder = "NAME_ASC"
	SortNameDesc         SortOrder = "NAME_DESC"
	SortRetailerAsc      SortOrder = "RETAILER_ASC"
	SortRetailerDesc     SortOrder = "RETAILER_DESC"
)

// ParseSortOrder parses a sortBy value. An empty value means PRICE_ASC.
func ParseSortOrder(s string) (SortOrder, error) {
	if strings.TrimSpace(s) == "" {
		return SortPriceAsc, nil
	}
	order := SortOrder(strings.ToUpper(strings.TrimSpace(s)))
	switch order {
	case SortPriceAsc, SortPriceDesc, SortPricePerUnitAsc, SortPricePerUnitDesc,
		SortNameAsc, SortNameDesc, SortRetailerAsc, SortRetailerDesc:
		return order, nil
	}
	return "", fmt.Errorf("%w: unknown sort order %q", ErrInvalidArgument, s)
}

// ComparisonSummary holds the statistics shown next to a comparison
type ComparisonSummary struct {
	CheapestRetailer string          `json:"cheapestRetailer"`
	AveragePrice     decimal.Decimal `json:"averagePrice"`
	PriceRange       decimal.Decimal `json:"priceRange"`
	MaxSavings       decimal.Decimal `json:"maxSavings"`
}

// PriceComparison is the response of a compare request
type PriceComparison struct {
	ComparisonSummary
	Results      []Product `json:"results"`
	TotalResults int       `json:"totalResults"`
	SearchQuery  string    `json:"searchQuery"`
	SearchTimeMs int64     `json:"searchTimeMs"`
}

// PricePoint is one observed price of a product
type PricePoint struct {
	Price        decimal.Decimal  `json:"price"`
	LoyaltyPrice *decimal.Decimal `json:"loyaltyPrice,omitempty"`
	Timestamp    time.Time        `json:"timestamp"`
}

// PriceHistorySummary summarises a product's prices over a window of days
type PriceHistorySummary struct {
	ProductID    string          `json:"productId"`
	ProductName  string          `json:"productName"`
	Retailer     string          `json:"retailer"`
	PriceHistory []PricePoint    `json:"priceHistory"`
	CurrentPrice decimal.Decimal `json:"currentPrice"`
	LowestPrice  decimal.Decimal `json:"lowestPrice"`
	HighestPrice decimal.Decimal `json:"highestPrice"`
	AveragePrice decimal.Decimal `json:"averagePrice"`
}
