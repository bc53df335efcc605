package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/poundsaver/backend/internal/domain"
)

const catalogSchema = `
CREATE TABLE IF NOT EXISTS products (
	seq      INTEGER PRIMARY KEY AUTOINCREMENT,
	id       TEXT NOT NULL,
	retailer TEXT NOT NULL,
	data     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_products_id ON products(id);
CREATE INDEX IF NOT EXISTS idx_products_retailer ON products(lower(retailer));
`

// SQLiteStore is an append-only catalog persisted in SQLite. Products are
// stored as JSON documents; seq keeps insertion order.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) a catalog database at path.
// ":memory:" gives a private in-memory database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("sqlite path required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create catalog directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog database: %w", err)
	}
	// One connection serialises writers and keeps ":memory:" databases alive.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(catalogSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate catalog database: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Insert validates and appends one product
func (s *SQLiteStore) Insert(ctx context.Context, product domain.Product) (domain.Product, error) {
	prepared, err := prepare(product)
	if err != nil {
		return domain.Product{}, err
	}
	if err := insertRow(ctx, s.db, prepared); err != nil {
		return domain.Product{}, err
	}
	return prepared, nil
}

// InsertBulk appends the valid products in one transaction. Invalid entries
// are skipped and reported; a database error rolls the whole batch back.
func (s *SQLiteStore) InsertBulk(ctx context.Context, products []domain.Product) (domain.BulkInsertResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.BulkInsertResult{}, err
	}
	defer tx.Rollback()

	result, err := insertEach(products, func(p domain.Product) (domain.Product, error) {
		prepared, err := prepare(p)
		if err != nil {
			return domain.Product{}, err
		}
		if err := insertRow(ctx, tx, prepared); err != nil {
			return domain.Product{}, err
		}
		return prepared, nil
	})
	if err != nil {
		return domain.BulkInsertResult{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.BulkInsertResult{}, err
	}
	return result, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertRow(ctx context.Context, db execer, product domain.Product) error {
	data, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("encode product: %w", err)
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO products(id, retailer, data) VALUES(?, ?, ?)`,
		product.ID, product.Retailer, string(data))
	return err
}

// GetByID returns the first product stored with the given id
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Product, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM products WHERE id = ? ORDER BY seq LIMIT 1`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, fmt.Errorf("%w: product %q", domain.ErrNotFound, id)
	}
	if err != nil {
		return domain.Product{}, err
	}
	return decodeProduct(data)
}

// AllByRetailer returns products whose retailer equals retailer, ignoring case
func (s *SQLiteStore) AllByRetailer(ctx context.Context, retailer string) ([]domain.Product, error) {
	return s.query(ctx, `SELECT data FROM products WHERE lower(retailer) = lower(?) ORDER BY seq`, retailer)
}

// All returns every product in insertion order
func (s *SQLiteStore) All(ctx context.Context) ([]domain.Product, error) {
	return s.query(ctx, `SELECT data FROM products ORDER BY seq`)
}

// Len returns the number of stored products
func (s *SQLiteStore) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...any) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		product, err := decodeProduct(data)
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

func decodeProduct(data string) (domain.Product, error) {
	var product domain.Product
	if err := json.Unmarshal([]byte(data), &product); err != nil {
		return domain.Product{}, fmt.Errorf("decode product: %w", err)
	}
	return product, nil
}
