package domain

import (
	"context"
	"time"
)

// CatalogStore holds the working set of products. Stores are append-only:
// products are seeded once at startup and only grow through Insert and
// InsertBulk. Store order is insertion order and is significant.
type CatalogStore interface {
	Insert(ctx context.Context, product Product) (Product, error)
	InsertBulk(ctx context.Context, products []Product) (BulkInsertResult, error)
	GetByID(ctx context.Context, id string) (Product, error)
	AllByRetailer(ctx context.Context, retailer string) ([]Product, error)
	All(ctx context.Context) ([]Product, error)
	Len(ctx context.Context) (int, error)
}

// PriceHistoryRepository stores price observations per product
type PriceHistoryRepository interface {
	Record(ctx context.Context, productID, retailer string, point PricePoint) error
	// Since returns the observations of a product at or after since,
	// most recent first.
	Since(ctx context.Context, productID string, since time.Time) ([]PricePoint, error)
}

// CacheRepository defines the interface for caching operations.
// Values are opaque encoded bytes, the way a Redis-backed cache would hold them.
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
