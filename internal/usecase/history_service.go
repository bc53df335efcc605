package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/poundsaver/backend/internal/domain"
)

const (
	defaultHistoryDays = 30
	maxHistoryDays     = 365
)

// SummarizeHistory summarizes a window of price observations. The current
// price is the most recent observation. The returned series is oldest first.
// It fails with ErrInvalidArgument on an empty window.
func SummarizeHistory(points []domain.PricePoint) (domain.PriceHistorySummary, error) {
	if len(points) == 0 {
		return domain.PriceHistorySummary{}, fmt.Errorf("%w: cannot summarize an empty price history", domain.ErrInvalidArgument)
	}

	series := make([]domain.PricePoint, len(points))
	copy(series, points)
	sort.SliceStable(series, func(i, j int) bool {
		return series[i].Timestamp.Before(series[j].Timestamp)
	})

	current := points[0]
	lowest := points[0].Price
	highest := points[0].Price
	sum := decimal.Zero
	for _, p := range points {
		sum = sum.Add(p.Price)
		if p.Timestamp.After(current.Timestamp) {
			current = p
		}
		if p.Price.LessThan(lowest) {
			lowest = p.Price
		}
		if p.Price.GreaterThan(highest) {
			highest = p.Price
		}
	}

	return domain.PriceHistorySummary{
		PriceHistory: series,
		CurrentPrice: current.Price,
		LowestPrice:  lowest,
		HighestPrice: highest,
		AveragePrice: mean(sum, len(points), lowest, highest),
	}, nil
}

// HistoryService records and summarizes product price histories
type HistoryService struct {
	store  domain.CatalogStore
	repo   domain.PriceHistoryRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewHistoryService creates a history service
func NewHistoryService(store domain.CatalogStore, repo domain.PriceHistoryRepository, logger *zap.Logger) *HistoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryService{
		store:  store,
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// Summary returns the price history of a product over the last days days.
// Zero selects the 30 day default, for callers that leave the window unset.
// Unknown products and empty windows are ErrNotFound.
func (s *HistoryService) Summary(ctx context.Context, productID string, days int) (*domain.PriceHistorySummary, error) {
	if days == 0 {
		days = defaultHistoryDays
	}
	if days < 0 || days > maxHistoryDays {
		return nil, fmt.Errorf("%w: days must be between 1 and %d, got %d", domain.ErrInvalidArgument, maxHistoryDays, days)
	}

	product, err := s.store.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	points, err := s.repo.Since(ctx, productID, s.now().AddDate(0, 0, -days))
	if err != nil {
		return nil, fmt.Errorf("read price history: %w", err)
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: no price history for %q in the last %d days", domain.ErrNotFound, productID, days)
	}

	summary, err := SummarizeHistory(points)
	if err != nil {
		return nil, err
	}
	summary.ProductID = product.ID
	summary.ProductName = product.Name
	summary.Retailer = product.Retailer
	return &summary, nil
}

// Record stores a price observation for an existing product. A zero
// timestamp means now.
func (s *HistoryService) Record(ctx context.Context, productID string, point domain.PricePoint) (domain.PricePoint, error) {
	if point.Price.IsNegative() {
		return domain.PricePoint{}, fmt.Errorf("%w: price must not be negative, got %s", domain.ErrValidation, point.Price.String())
	}
	product, err := s.store.GetByID(ctx, productID)
	if err != nil {
		return domain.PricePoint{}, err
	}
	if point.Timestamp.IsZero() {
		point.Timestamp = s.now().UTC()
	}
	if err := s.repo.Record(ctx, product.ID, product.Retailer, point); err != nil {
		return domain.PricePoint{}, err
	}

	s.logger.Debug("price recorded",
		zap.String("productId", product.ID),
		zap.String("price", point.Price.String()),
		zap.Time("timestamp", point.Timestamp))
	return point, nil
}
