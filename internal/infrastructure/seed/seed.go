// Package seed builds the demo catalog shipped with the server.
package seed

import (
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/poundsaver/backend/internal/domain"
)

//go:embed fixtures.yaml
var fixtures []byte

type retailerFixture struct {
	Name              string  `yaml:"name"`
	PriceMultiplier   float64 `yaml:"priceMultiplier"`
	LoyaltyScheme     string  `yaml:"loyaltyScheme"`
	LoyaltyMultiplier float64 `yaml:"loyaltyMultiplier"`
	BulkPack          int     `yaml:"bulkPack"`
}

type productFixture struct {
	Key             string   `yaml:"key"`
	Name            string   `yaml:"name"`
	Brand           string   `yaml:"brand"`
	Category        string   `yaml:"category"`
	Price           float64  `yaml:"price"`
	PricePerUnit    *float64 `yaml:"pricePerUnit"`
	Unit            string   `yaml:"unit"`
	Quantity        *float64 `yaml:"quantity"`
	Size            string   `yaml:"size"`
	InStock         bool     `yaml:"inStock"`
	ImageURL        string   `yaml:"imageUrl"`
	EAN             string   `yaml:"ean"`
	MatchConfidence *float64 `yaml:"matchConfidence"`
}

type fixtureFile struct {
	Retailers []retailerFixture `yaml:"retailers"`
	Products  []productFixture  `yaml:"products"`
}

// Products returns the embedded demo catalog: every base product once per
// retailer, stamped with now. Base products come out in fixture order with
// their retailers in fixture order, so a name's first entry is always Tesco.
func Products(now time.Time) ([]domain.Product, error) {
	return Parse(fixtures, now)
}

// Parse expands a fixture document into catalog products
func Parse(data []byte, now time.Time) ([]domain.Product, error) {
	var file fixtureFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode seed fixtures: %w", err)
	}
	if len(file.Retailers) == 0 {
		return nil, fmt.Errorf("%w: seed fixtures list no retailers", domain.ErrValidation)
	}

	products := make([]domain.Product, 0, len(file.Products)*len(file.Retailers))
	for _, base := range file.Products {
		if base.Key == "" {
			return nil, fmt.Errorf("%w: seed product %q has no key", domain.ErrValidation, base.Name)
		}
		for i, r := range file.Retailers {
			products = append(products, expand(base, r, i+1, now))
		}
	}
	return products, nil
}

func expand(base productFixture, r retailerFixture, n int, now time.Time) domain.Product {
	multiplier := decimal.NewFromFloat(r.PriceMultiplier)
	if r.PriceMultiplier == 0 {
		multiplier = decimal.NewFromInt(1)
	}

	p := domain.Product{
		ID:              fmt.Sprintf("%s_%d", base.Key, n),
		Name:            base.Name,
		Brand:           base.Brand,
		Category:        base.Category,
		Retailer:        r.Name,
		Unit:            base.Unit,
		Size:            base.Size,
		InStock:         base.InStock,
		ImageURL:        base.ImageURL,
		ProductURL:      productURL(r.Name, base.Name),
		EAN:             base.EAN,
		ScrapedAt:       now,
		LastUpdated:     now,
		MatchConfidence: base.MatchConfidence,
	}

	price := decimal.NewFromFloat(base.Price).Mul(multiplier)
	if base.PricePerUnit != nil {
		perUnit := decimal.NewFromFloat(*base.PricePerUnit).Mul(multiplier).Round(2)
		p.PricePerUnit = &perUnit
	}
	if base.Quantity != nil {
		quantity := *base.Quantity
		p.Quantity = &quantity
	}

	if r.BulkPack > 1 {
		pack := decimal.NewFromInt(int64(r.BulkPack))
		price = price.Mul(pack)
		p.Size = fmt.Sprintf("%d x %s", r.BulkPack, base.Size)
		if p.Quantity != nil {
			bulk := *p.Quantity * float64(r.BulkPack)
			p.Quantity = &bulk
		}
	}

	price = price.Round(2)
	p.Price = &price

	if r.LoyaltyScheme != "" && r.LoyaltyMultiplier > 0 {
		loyalty := price.Mul(decimal.NewFromFloat(r.LoyaltyMultiplier)).Round(2)
		p.LoyaltyPrice = &loyalty
		p.LoyaltyScheme = r.LoyaltyScheme
	}
	return p
}

func productURL(retailer, name string) string {
	base := domain.LookupRetailer(retailer).BaseURL
	if base == "" {
		base = "https://www." + strings.ReplaceAll(slug.Make(retailer), "-", "") + ".com"
	}
	return base + "/product/" + slug.Make(name)
}
