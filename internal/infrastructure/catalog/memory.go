package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/poundsaver/backend/internal/domain"
)

// MemoryStore is a thread-safe, append-only in-memory catalog
type MemoryStore struct {
	products []domain.Product
	byID     map[string]int
	mutex    sync.RWMutex
}

// NewMemoryStore creates an empty in-memory catalog
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID: make(map[string]int),
	}
}

// Insert validates and appends one product
func (s *MemoryStore) Insert(ctx context.Context, product domain.Product) (domain.Product, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.insertLocked(product)
}

// InsertBulk appends products in order under a single write lock, so a bulk
// insert is never interleaved with another writer.
func (s *MemoryStore) InsertBulk(ctx context.Context, products []domain.Product) (domain.BulkInsertResult, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return insertEach(products, s.insertLocked)
}

func (s *MemoryStore) insertLocked(product domain.Product) (domain.Product, error) {
	prepared, err := prepare(product)
	if err != nil {
		return domain.Product{}, err
	}
	// First writer wins the id index; duplicates stay reachable through All.
	if _, exists := s.byID[prepared.ID]; !exists {
		s.byID[prepared.ID] = len(s.products)
	}
	s.products = append(s.products, prepared)
	return prepared, nil
}

// GetByID returns the product with the given id
func (s *MemoryStore) GetByID(ctx context.Context, id string) (domain.Product, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	i, ok := s.byID[id]
	if !ok {
		return domain.Product{}, fmt.Errorf("%w: product %q", domain.ErrNotFound, id)
	}
	return s.products[i], nil
}

// AllByRetailer returns products whose retailer equals retailer, ignoring case
func (s *MemoryStore) AllByRetailer(ctx context.Context, retailer string) ([]domain.Product, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	result := []domain.Product{}
	for _, p := range s.products {
		if strings.EqualFold(p.Retailer, retailer) {
			result = append(result, p)
		}
	}
	return result, nil
}

// All returns a snapshot of every product in insertion order
func (s *MemoryStore) All(ctx context.Context) ([]domain.Product, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	snapshot := make([]domain.Product, len(s.products))
	copy(snapshot, s.products)
	return snapshot, nil
}

// Len returns the number of stored products
func (s *MemoryStore) Len(ctx context.Context) (int, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.products), nil
}

func isValidation(err error) bool {
	return errors.Is(err, domain.ErrValidation)
}
