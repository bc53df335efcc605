package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/poundsaver/backend/internal/domain"
)

const historySchema = `
CREATE TABLE IF NOT EXISTS price_history (
	id            TEXT PRIMARY KEY,
	product_id    TEXT NOT NULL,
	retailer      TEXT NOT NULL,
	price         TEXT NOT NULL,
	loyalty_price TEXT,
	observed_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_price_history_product ON price_history(product_id, observed_at);
`

// SQLiteRepository stores price observations in SQLite. Prices are kept as
// decimal strings so they round-trip exactly.
type SQLiteRepository struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) a price history database at path.
// ":memory:" gives a private in-memory database.
func OpenSQLite(path string) (*SQLiteRepository, error) {
	if path == "" {
		return nil, errors.New("sqlite path required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(historySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate history database: %w", err)
	}
	return &SQLiteRepository{db: db}, nil
}

// Close releases the database
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// Record appends one observation for a product
func (r *SQLiteRepository) Record(ctx context.Context, productID, retailer string, point domain.PricePoint) error {
	var loyalty sql.NullString
	if point.LoyaltyPrice != nil {
		loyalty = sql.NullString{String: point.LoyaltyPrice.String(), Valid: true}
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO price_history(id, product_id, retailer, price, loyalty_price, observed_at) VALUES(?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), productID, retailer, point.Price.String(), loyalty, point.Timestamp.UTC().UnixNano())
	if err != nil {
		return fmt.Errorf("record price for %q: %w", productID, err)
	}
	return nil
}

// Since returns observations of a product at or after since, most recent first
func (r *SQLiteRepository) Since(ctx context.Context, productID string, since time.Time) ([]domain.PricePoint, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT price, loyalty_price, observed_at FROM price_history
		 WHERE product_id = ? AND observed_at >= ?
		 ORDER BY observed_at DESC, rowid DESC`,
		productID, since.UTC().UnixNano())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	points := []domain.PricePoint{}
	for rows.Next() {
		var (
			price    string
			loyalty  sql.NullString
			observed int64
		)
		if err := rows.Scan(&price, &loyalty, &observed); err != nil {
			return nil, err
		}
		point, err := toPricePoint(price, loyalty, observed)
		if err != nil {
			return nil, err
		}
		points = append(points, point)
	}
	return points, rows.Err()
}

func toPricePoint(price string, loyalty sql.NullString, observed int64) (domain.PricePoint, error) {
	p, err := decimal.NewFromString(price)
	if err != nil {
		return domain.PricePoint{}, fmt.Errorf("decode price %q: %w", price, err)
	}
	point := domain.PricePoint{
		Price:     p,
		Timestamp: time.Unix(0, observed).UTC(),
	}
	if loyalty.Valid {
		lp, err := decimal.NewFromString(loyalty.String)
		if err != nil {
			return domain.PricePoint{}, fmt.Errorf("decode loyalty price %q: %w", loyalty.String, err)
		}
		point.LoyaltyPrice = &lp
	}
	return point, nil
}
