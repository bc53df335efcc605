package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/poundsaver/backend/internal/domain"
)

// MockCacheRepository is a mock implementation of domain.CacheRepository
type MockCacheRepository struct {
	mu       sync.Mutex
	data     map[string][]byte
	getError error
	setError error
	gets     int
	sets     int
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{data: make(map[string][]byte)}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.getError != nil {
		return nil, m.getError
	}
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	if m.setError != nil {
		return m.setError
	}
	m.data[key] = value
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok, nil
}

type recordedPoint struct {
	productID string
	retailer  string
	point     domain.PricePoint
}

// MockHistoryRepository is a mock implementation of domain.PriceHistoryRepository
type MockHistoryRepository struct {
	mu          sync.Mutex
	recorded    []recordedPoint
	recordError error
	sinceError  error
}

func NewMockHistoryRepository() *MockHistoryRepository {
	return &MockHistoryRepository{}
}

func (m *MockHistoryRepository) Record(ctx context.Context, productID, retailer string, point domain.PricePoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recordError != nil {
		return m.recordError
	}
	m.recorded = append(m.recorded, recordedPoint{productID, retailer, point})
	return nil
}

func (m *MockHistoryRepository) Since(ctx context.Context, productID string, since time.Time) ([]domain.PricePoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sinceError != nil {
		return nil, m.sinceError
	}
	points := []domain.PricePoint{}
	for i := len(m.recorded) - 1; i >= 0; i-- {
		r := m.recorded[i]
		if r.productID == productID && !r.point.Timestamp.Before(since) {
			points = append(points, r.point)
		}
	}
	return points, nil
}

// MockCatalogStore wraps a slice; it is enough for read-path tests and lets
// tests inject store failures
type MockCatalogStore struct {
	products []domain.Product
	err      error
}

func (m *MockCatalogStore) Insert(ctx context.Context, p domain.Product) (domain.Product, error) {
	if m.err != nil {
		return domain.Product{}, m.err
	}
	if err := p.Validate(); err != nil {
		return domain.Product{}, err
	}
	if p.ID == "" {
		p.ID = "generated"
	}
	m.products = append(m.products, p)
	return p, nil
}

func (m *MockCatalogStore) InsertBulk(ctx context.Context, ps []domain.Product) (domain.BulkInsertResult, error) {
	result := domain.BulkInsertResult{Inserted: []domain.Product{}, Failed: []domain.BulkFailure{}}
	for i, p := range ps {
		stored, err := m.Insert(ctx, p)
		if errors.Is(err, domain.ErrValidation) {
			result.Failed = append(result.Failed, domain.BulkFailure{Index: i, Reason: err.Error()})
			continue
		}
		if err != nil {
			return domain.BulkInsertResult{}, err
		}
		result.Inserted = append(result.Inserted, stored)
	}
	return result, nil
}

func (m *MockCatalogStore) GetByID(ctx context.Context, id string) (domain.Product, error) {
	if m.err != nil {
		return domain.Product{}, m.err
	}
	for _, p := range m.products {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Product{}, domain.ErrNotFound
}

func (m *MockCatalogStore) AllByRetailer(ctx context.Context, retailer string) ([]domain.Product, error) {
	return nil, m.err
}

func (m *MockCatalogStore) All(ctx context.Context) ([]domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.Product, len(m.products))
	copy(out, m.products)
	return out, nil
}

func (m *MockCatalogStore) Len(ctx context.Context) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	return len(m.products), nil
}
