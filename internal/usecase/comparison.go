package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/poundsaver/backend/internal/domain"
)

// Summarize computes the statistics of one comparison result set.
// It fails with ErrInvalidArgument on an empty set.
func Summarize(products []domain.Product) (domain.ComparisonSummary, error) {
	if len(products) == 0 {
		return domain.ComparisonSummary{}, fmt.Errorf("%w: cannot summarize an empty comparison", domain.ErrInvalidArgument)
	}

	cheapest := products[0]
	minPrice := products[0].PriceValue()
	maxPrice := minPrice
	minEffective := products[0].EffectivePrice()
	sum := decimal.Zero

	for _, p := range products {
		price := p.PriceValue()
		sum = sum.Add(price)
		if price.LessThan(minPrice) {
			minPrice = price
			cheapest = p
		}
		if price.GreaterThan(maxPrice) {
			maxPrice = price
		}
		if effective := p.EffectivePrice(); effective.LessThan(minEffective) {
			minEffective = effective
		}
	}

	return domain.ComparisonSummary{
		CheapestRetailer: cheapest.Retailer,
		AveragePrice:     mean(sum, len(products), minPrice, maxPrice),
		PriceRange:       maxPrice.Sub(minPrice),
		MaxSavings:       maxPrice.Sub(minEffective),
	}, nil
}

// mean divides sum by n and rounds to pennies, unless rounding would move
// the result outside [lo, hi]
func mean(sum decimal.Decimal, n int, lo, hi decimal.Decimal) decimal.Decimal {
	avg := sum.Div(decimal.NewFromInt(int64(n)))
	if rounded := avg.Round(2); !rounded.LessThan(lo) && !rounded.GreaterThan(hi) {
		return rounded
	}
	return avg
}

// Searcher is the part of SearchService a comparison needs
type Searcher interface {
	Search(ctx context.Context, query string) ([]domain.Product, error)
}

// ComparisonService builds price comparisons for a query
type ComparisonService struct {
	searcher Searcher
	logger   *zap.Logger
	now      func() time.Time
}

// NewComparisonService creates a comparison service on top of a searcher
func NewComparisonService(searcher Searcher, logger *zap.Logger) *ComparisonService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ComparisonService{
		searcher: searcher,
		logger:   logger,
		now:      time.Now,
	}
}

// Compare searches for query, orders the results by sortBy and summarizes them.
// A query without results is ErrNotFound; an unknown sortBy is ErrInvalidArgument.
func (s *ComparisonService) Compare(ctx context.Context, query, sortBy string) (*domain.PriceComparison, error) {
	start := s.now()

	order, err := domain.ParseSortOrder(sortBy)
	if err != nil {
		return nil, err
	}

	results, err := s.searcher.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: no products match %q", domain.ErrNotFound, query)
	}

	sorted := SortProducts(results, order)
	summary, err := Summarize(sorted)
	if err != nil {
		return nil, err
	}

	elapsed := s.now().Sub(start)
	s.logger.Debug("comparison built",
		zap.String("query", query),
		zap.String("sortBy", string(order)),
		zap.Int("results", len(sorted)),
		zap.Duration("elapsed", elapsed))

	return &domain.PriceComparison{
		ComparisonSummary: summary,
		Results:           sorted,
		TotalResults:      len(sorted),
		SearchQuery:       query,
		SearchTimeMs:      elapsed.Milliseconds(),
	}, nil
}

// SortProducts returns a copy of products in the given order. The sort is
// stable, and entries without a unit price sort after those with one in
// both unit price orders.
func SortProducts(products []domain.Product, order domain.SortOrder) []domain.Product {
	sorted := make([]domain.Product, len(products))
	copy(sorted, products)

	var less func(a, b domain.Product) bool
	switch order {
	case domain.SortPriceDesc:
		less = func(a, b domain.Product) bool { return a.PriceValue().GreaterThan(b.PriceValue()) }
	case domain.SortPricePerUnitAsc:
		less = func(a, b domain.Product) bool { return unitPriceLess(a, b, false) }
	case domain.SortPricePerUnitDesc:
		less = func(a, b domain.Product) bool { return unitPriceLess(a, b, true) }
	case domain.SortNameAsc:
		less = func(a, b domain.Product) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) }
	case domain.SortNameDesc:
		less = func(a, b domain.Product) bool { return strings.ToLower(a.Name) > strings.ToLower(b.Name) }
	case domain.SortRetailerAsc:
		less = func(a, b domain.Product) bool { return strings.ToLower(a.Retailer) < strings.ToLower(b.Retailer) }
	case domain.SortRetailerDesc:
		less = func(a, b domain.Product) bool { return strings.ToLower(a.Retailer) > strings.ToLower(b.Retailer) }
	default:
		less = func(a, b domain.Product) bool { return a.PriceValue().LessThan(b.PriceValue()) }
	}

	sort.SliceStable(sorted, func(i, j int) bool { return less(sorted[i], sorted[j]) })
	return sorted
}

func unitPriceLess(a, b domain.Product, descending bool) bool {
	switch {
	case a.PricePerUnit == nil:
		return false
	case b.PricePerUnit == nil:
		return true
	case descending:
		return a.PricePerUnit.GreaterThan(*b.PricePerUnit)
	default:
		return a.PricePerUnit.LessThan(*b.PricePerUnit)
	}
}
