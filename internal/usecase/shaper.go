package usecase

import (
	"sort"

	"github.com/poundsaver/backend/internal/domain"
)

// DiversityCap is the most distinct product lines a discovery result shows
const DiversityCap = 35

// ProductGroup is every entry sharing one product name, i.e. one product
// line across retailers
type ProductGroup struct {
	Name     string
	Products []domain.Product
}

// GroupByName groups products by name. Groups appear in the order their
// first member was seen and keep their members in input order.
func GroupByName(products []domain.Product) []ProductGroup {
	index := make(map[string]int)
	groups := []ProductGroup{}
	for _, p := range products {
		i, ok := index[p.Name]
		if !ok {
			i = len(groups)
			index[p.Name] = i
			groups = append(groups, ProductGroup{Name: p.Name})
		}
		groups[i].Products = append(groups[i].Products, p)
	}
	return groups
}

// Diversify keeps the first member of each group, for at most limit groups
func Diversify(groups []ProductGroup, limit int) []domain.Product {
	if limit < 0 {
		limit = 0
	}
	if len(groups) > limit {
		groups = groups[:limit]
	}
	result := make([]domain.Product, 0, len(groups))
	for _, g := range groups {
		if len(g.Products) > 0 {
			result = append(result, g.Products[0])
		}
	}
	return result
}

// SortGroupByPriceAscending returns a copy of group ordered by price.
// Equal prices keep their input order.
func SortGroupByPriceAscending(group []domain.Product) []domain.Product {
	sorted := make([]domain.Product, len(group))
	copy(sorted, group)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PriceValue().LessThan(sorted[j].PriceValue())
	})
	return sorted
}
