package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/poundsaver/backend/internal/domain"
)

// SearchMode names the result shape a query resolved to
type SearchMode string

const (
	// ModeDiverse is a broad query: one entry per product line
	ModeDiverse SearchMode = "diverse"
	// ModeComparison is a name match: every retailer for each matched line
	ModeComparison SearchMode = "comparison"
	// ModeCategory is a category or brand match: one entry per product line
	ModeCategory SearchMode = "category"
	// ModePopular is the fallback when nothing matched
	ModePopular SearchMode = "popular"
)

// broadQueries ask for the whole catalog rather than a product
var broadQueries = map[string]bool{
	"":         true,
	"all":      true,
	"products": true,
}

// popularTerms keep a search from ending in an empty page
var popularTerms = []string{
	"milk", "bread", "chicken", "apples", "pasta",
	"bananas", "ketchup", "juice", "eggs", "cheese",
}

// SearchServiceConfig holds configuration for the search service
type SearchServiceConfig struct {
	CacheTTL time.Duration
}

// SearchService answers free-text product queries over a catalog
type SearchService struct {
	store    domain.CatalogStore
	cache    domain.CacheRepository
	cacheTTL time.Duration
	group    singleflight.Group
	logger   *zap.Logger
}

// NewSearchService creates a search service. cache may be nil to disable caching.
func NewSearchService(
	store domain.CatalogStore,
	cache domain.CacheRepository,
	config SearchServiceConfig,
	logger *zap.Logger,
) *SearchService {
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &SearchService{
		store:    store,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// NormalizeQuery lower-cases and trims a query
func NormalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// Search returns the products relevant to query.
// Flow: normalize -> check cache -> run the mode selection over a catalog snapshot -> cache -> return
func (s *SearchService) Search(ctx context.Context, query string) ([]domain.Product, error) {
	q := NormalizeQuery(query)

	size, err := s.store.Len(ctx)
	if err != nil {
		return nil, fmt.Errorf("read catalog size: %w", err)
	}
	// The catalog only grows, so its size identifies a snapshot.
	cacheKey := fmt.Sprintf("search:%d:%s", size, q)

	if cached, err := s.getFromCache(ctx, cacheKey); err == nil {
		return cached, nil
	}

	// The shared read ignores cancellation; each caller waits on its own ctx.
	shared := context.WithoutCancel(ctx)
	ch := s.group.DoChan(cacheKey, func() (interface{}, error) {
		products, err := s.store.All(shared)
		if err != nil {
			return nil, fmt.Errorf("read catalog: %w", err)
		}
		results, mode := SearchCatalog(products, q)
		s.logger.Debug("search resolved",
			zap.String("query", q),
			zap.String("mode", string(mode)),
			zap.Int("results", len(results)),
			zap.Int("catalogSize", len(products)))

		if err := s.setInCache(shared, cacheKey, results); err != nil {
			s.logger.Warn("failed to cache search results", zap.String("key", cacheKey), zap.Error(err))
		}
		return results, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}

	// Results may be shared with concurrent callers.
	found := res.Val.([]domain.Product)
	results := make([]domain.Product, len(found))
	copy(results, found)
	return results, nil
}

// InStock returns in-stock products whose name, brand, category or retailer
// contains query, cheapest first
func (s *SearchService) InStock(ctx context.Context, query string) ([]domain.Product, error) {
	q := NormalizeQuery(query)
	products, err := s.store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	matches := []domain.Product{}
	for _, p := range products {
		if !p.InStock {
			continue
		}
		if containsFold(p.Name, q) || containsFold(p.NormalizedName, q) ||
			containsFold(p.Brand, q) || containsFold(p.Category, q) || containsFold(p.Retailer, q) {
			matches = append(matches, p)
		}
	}
	return SortGroupByPriceAscending(matches), nil
}

// SearchCatalog applies the mode selection to a catalog snapshot. q must
// already be normalized. Modes are tried in order: broad query, name match,
// category/brand match, popular terms.
func SearchCatalog(products []domain.Product, q string) ([]domain.Product, SearchMode) {
	if broadQueries[q] {
		return Diversify(GroupByName(products), DiversityCap), ModeDiverse
	}

	var nameMatches []domain.Product
	for _, p := range products {
		if containsFold(p.Name, q) || containsFold(p.NormalizedName, q) {
			nameMatches = append(nameMatches, p)
		}
	}
	if len(nameMatches) > 0 {
		results := make([]domain.Product, 0, len(nameMatches))
		for _, g := range GroupByName(nameMatches) {
			results = append(results, SortGroupByPriceAscending(g.Products)...)
		}
		return results, ModeComparison
	}

	var categoryMatches []domain.Product
	for _, p := range products {
		if containsFold(p.Category, q) || containsFold(p.Brand, q) {
			categoryMatches = append(categoryMatches, p)
		}
	}
	if len(categoryMatches) > 0 {
		return Diversify(GroupByName(categoryMatches), DiversityCap), ModeCategory
	}

	var popular []domain.Product
	for _, p := range products {
		name := strings.ToLower(p.Name)
		for _, term := range popularTerms {
			if strings.Contains(name, term) {
				popular = append(popular, p)
				break
			}
		}
	}
	return Diversify(GroupByName(popular), DiversityCap), ModePopular
}

func containsFold(s, lowerSubstr string) bool {
	return strings.Contains(strings.ToLower(s), lowerSubstr)
}

// getFromCache retrieves search results from cache
func (s *SearchService) getFromCache(ctx context.Context, key string) ([]domain.Product, error) {
	if s.cache == nil {
		return nil, domain.ErrCacheMiss
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var products []domain.Product
	if err := json.Unmarshal(data, &products); err != nil {
		// A corrupt entry is treated as a miss and recomputed.
		return nil, domain.ErrCacheMiss
	}
	if products == nil {
		products = []domain.Product{}
	}
	return products, nil
}

// setInCache stores search results in cache
func (s *SearchService) setInCache(ctx context.Context, key string, products []domain.Product) error {
	if s.cache == nil {
		return nil
	}
	data, err := json.Marshal(products)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, key, data, s.cacheTTL)
}
