package catalog

import (
	"strings"

	"github.com/google/uuid"

	"github.com/poundsaver/backend/internal/domain"
)

// prepare validates a product and fills the fields a store owns:
// a generated id when absent and the normalized matching name. A supplied
// normalized name is kept but normalized again.
func prepare(product domain.Product) (domain.Product, error) {
	if err := product.Validate(); err != nil {
		return domain.Product{}, err
	}
	if strings.TrimSpace(product.ID) == "" {
		product.ID = "prod_" + uuid.NewString()
	}
	if strings.TrimSpace(product.NormalizedName) == "" {
		product.NormalizedName = domain.NormalizeName(product.Name)
	} else {
		product.NormalizedName = domain.NormalizeName(product.NormalizedName)
	}
	return product, nil
}

// insertEach applies insert to every product in order. A failure does not
// roll back earlier entries; it is reported by index instead.
func insertEach(products []domain.Product, insert func(domain.Product) (domain.Product, error)) (domain.BulkInsertResult, error) {
	result := domain.BulkInsertResult{
		Inserted: make([]domain.Product, 0, len(products)),
		Failed:   []domain.BulkFailure{},
	}
	for i, product := range products {
		stored, err := insert(product)
		if err != nil {
			if !isValidation(err) {
				return result, err
			}
			result.Failed = append(result.Failed, domain.BulkFailure{Index: i, Reason: err.Error()})
			continue
		}
		result.Inserted = append(result.Inserted, stored)
	}
	return result, nil
}
