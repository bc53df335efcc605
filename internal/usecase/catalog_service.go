package usecase

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/poundsaver/backend/internal/domain"
)

// CatalogService is the write path into the catalog. It enriches products
// before they are stored and records their first observed price.
type CatalogService struct {
	store   domain.CatalogStore
	history domain.PriceHistoryRepository
	logger  *zap.Logger
	now     func() time.Time
}

// NewCatalogService creates a catalog service. history may be nil.
func NewCatalogService(store domain.CatalogStore, history domain.PriceHistoryRepository, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{
		store:   store,
		history: history,
		logger:  logger,
		now:     time.Now,
	}
}

// Insert stores one product
func (s *CatalogService) Insert(ctx context.Context, product domain.Product) (domain.Product, error) {
	stored, err := s.store.Insert(ctx, s.enrich(product))
	if err != nil {
		return domain.Product{}, err
	}
	s.recordInitialPrice(ctx, stored)
	return stored, nil
}

// InsertBulk stores products in order. Invalid entries are reported in the
// result and do not stop the rest of the batch.
func (s *CatalogService) InsertBulk(ctx context.Context, products []domain.Product) (domain.BulkInsertResult, error) {
	enriched := make([]domain.Product, len(products))
	for i, p := range products {
		enriched[i] = s.enrich(p)
	}

	result, err := s.store.InsertBulk(ctx, enriched)
	if err != nil {
		return domain.BulkInsertResult{}, err
	}
	for _, p := range result.Inserted {
		s.recordInitialPrice(ctx, p)
	}
	if len(result.Failed) > 0 {
		s.logger.Info("bulk insert rejected entries",
			zap.Int("inserted", len(result.Inserted)),
			zap.Int("failed", len(result.Failed)))
	}
	return result, nil
}

// GetByID returns a product or ErrNotFound
func (s *CatalogService) GetByID(ctx context.Context, id string) (domain.Product, error) {
	return s.store.GetByID(ctx, id)
}

// AllByRetailer returns a retailer's products in store order. A known
// retailer identifier such as "BM" also finds products stored as "B&M".
func (s *CatalogService) AllByRetailer(ctx context.Context, retailer string) ([]domain.Product, error) {
	products, err := s.store.AllByRetailer(ctx, retailer)
	if err != nil || len(products) > 0 {
		return products, err
	}
	profile := domain.LookupRetailer(retailer)
	if !profile.Known || strings.EqualFold(profile.DisplayName, strings.TrimSpace(retailer)) {
		return products, nil
	}
	return s.store.AllByRetailer(ctx, profile.DisplayName)
}

// All returns the whole catalog in store order
func (s *CatalogService) All(ctx context.Context) ([]domain.Product, error) {
	return s.store.All(ctx)
}

// Len returns the catalog size
func (s *CatalogService) Len(ctx context.Context) (int, error) {
	return s.store.Len(ctx)
}

func (s *CatalogService) enrich(p domain.Product) domain.Product {
	now := s.now().UTC()
	if p.ScrapedAt.IsZero() {
		p.ScrapedAt = now
	}
	if p.LastUpdated.IsZero() {
		p.LastUpdated = p.ScrapedAt
	}
	return DeriveUnitPrice(p)
}

func (s *CatalogService) recordInitialPrice(ctx context.Context, p domain.Product) {
	if s.history == nil {
		return
	}
	point := domain.PricePoint{
		Price:        p.PriceValue(),
		LoyaltyPrice: p.LoyaltyPrice,
		Timestamp:    p.LastUpdated,
	}
	if err := s.history.Record(ctx, p.ID, p.Retailer, point); err != nil {
		s.logger.Warn("failed to record initial price", zap.String("productId", p.ID), zap.Error(err))
	}
}
