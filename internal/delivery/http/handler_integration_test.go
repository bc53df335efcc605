package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poundsaver/backend/config"
	"github.com/poundsaver/backend/internal/domain"
	"github.com/poundsaver/backend/internal/infrastructure/cache"
	"github.com/poundsaver/backend/internal/infrastructure/catalog"
	"github.com/poundsaver/backend/internal/infrastructure/history"
	"github.com/poundsaver/backend/internal/usecase"
)

// TestMain sets up test environment before running tests
func TestMain(m *testing.M) {
	// Set Gin to test mode once for all tests
	gin.SetMode(gin.TestMode)

	// Run tests
	exitCode := m.Run()

	// Exit with the test result code
	os.Exit(exitCode)
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:           "8080",
			Environment:    "test",
			AllowedOrigins: []string{"chrome-extension://*", "http://localhost:3000"},
		},
		Cache: config.CacheConfig{
			Type: "memory",
			TTL:  time.Minute,
		},
	}
}

func testProduct(id, name, retailer, price string) domain.Product {
	return domain.Product{
		ID:       id,
		Name:     name,
		Retailer: retailer,
		Price:    domain.Price(price),
		InStock:  true,
	}
}

// setupTestRouter creates a test router backed by real services over an
// in-memory catalog seeded with products
func setupTestRouter(t *testing.T, products ...domain.Product) *gin.Engine {
	t.Helper()

	store := catalog.NewMemoryStore()
	repo, err := history.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	memCache := cache.NewMemoryCache(time.Minute)
	t.Cleanup(func() { memCache.Close() })

	catalogService := usecase.NewCatalogService(store, repo, nil)
	if len(products) > 0 {
		_, err := catalogService.InsertBulk(context.Background(), products)
		require.NoError(t, err)
	}
	searchService := usecase.NewSearchService(store, memCache, usecase.SearchServiceConfig{CacheTTL: time.Minute}, nil)
	comparisonService := usecase.NewComparisonService(searchService, nil)
	historyService := usecase.NewHistoryService(store, repo, nil)

	handler := NewHandler(catalogService, searchService, comparisonService, historyService, nil)
	return SetupRouter(testConfig(), handler, nil)
}

func serve(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeProducts(t *testing.T, w *httptest.ResponseRecorder) []domain.Product {
	t.Helper()
	var products []domain.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &products), w.Body.String())
	return products
}

func productIDs(products []domain.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

// TestHealthCheckEndpoint tests the health check endpoint
func TestHealthCheckEndpoint(t *testing.T) {
	t.Run("returns healthy status", func(t *testing.T) {
		router := setupTestRouter(t, testProduct("t1", "Milk", "Tesco", "1.20"))

		w := serve(router, "GET", "/health", "")
		require.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

		assert.Equal(t, "healthy", response["status"])
		assert.Equal(t, "poundsaver-backend", response["service"])
		assert.NotEmpty(t, response["version"])
		assert.Equal(t, float64(1), response["totalProducts"])
	})

	t.Run("accepts GET requests only", func(t *testing.T) {
		router := setupTestRouter(t)

		for _, method := range []string{"POST", "PUT", "DELETE", "PATCH"} {
			w := serve(router, method, "/health", "")
			if w.Code != http.StatusNotFound {
				t.Errorf("Method %s: Status = %d, want %d", method, w.Code, http.StatusNotFound)
			}
		}
	})
}

func TestSearchEndpoint(t *testing.T) {
	router := setupTestRouter(t,
		testProduct("t1", "Milk", "Tesco", "1.20"),
		testProduct("a1", "Milk", "Asda", "1.10"),
		testProduct("b1", "Bread", "Tesco", "0.80"),
	)

	t.Run("comparison results cheapest first", func(t *testing.T) {
		w := serve(router, "GET", "/v1/products/search?query=milk", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{"a1", "t1"}, productIDs(decodeProducts(t, w)))
	})

	t.Run("missing query browses the catalog", func(t *testing.T) {
		w := serve(router, "GET", "/v1/products/search", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{"t1", "b1"}, productIDs(decodeProducts(t, w)))
	})

	t.Run("prices are JSON numbers", func(t *testing.T) {
		w := serve(router, "GET", "/v1/products/search?query=bread", "")
		assert.Contains(t, w.Body.String(), `"price":0.8`)
	})
}

func TestSearchEndpoint_EmptyCatalog(t *testing.T) {
	router := setupTestRouter(t)

	w := serve(router, "GET", "/v1/products/search?query=milk", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestProductEndpoints(t *testing.T) {
	outOfStock := testProduct("l1", "Milk", "Lidl", "0.99")
	outOfStock.InStock = false
	router := setupTestRouter(t,
		testProduct("t1", "Milk", "Tesco", "1.20"),
		testProduct("a1", "Milk", "Asda", "1.10"),
		testProduct("bm1", "Milk", "B&M", "1.05"),
		outOfStock,
	)

	t.Run("lists all products in insertion order", func(t *testing.T) {
		w := serve(router, "GET", "/v1/products", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{"t1", "a1", "bm1", "l1"}, productIDs(decodeProducts(t, w)))
	})

	t.Run("in-stock filter", func(t *testing.T) {
		w := serve(router, "GET", "/v1/products/in-stock?query=milk", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{"bm1", "a1", "t1"}, productIDs(decodeProducts(t, w)))
	})

	t.Run("get by id", func(t *testing.T) {
		w := serve(router, "GET", "/v1/products/a1", "")
		require.Equal(t, http.StatusOK, w.Code)

		var product domain.Product
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &product))
		assert.Equal(t, "Asda", product.Retailer)
		assert.Equal(t, "milk", product.NormalizedName)
	})

	t.Run("unknown id is 404", func(t *testing.T) {
		w := serve(router, "GET", "/v1/products/nope", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), `"error"`)
	})

	t.Run("by retailer ignores case", func(t *testing.T) {
		w := serve(router, "GET", "/v1/products/retailer/tesco", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{"t1"}, productIDs(decodeProducts(t, w)))
	})

	t.Run("by retailer identifier", func(t *testing.T) {
		w := serve(router, "GET", "/v1/products/retailer/BM", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, []string{"bm1"}, productIDs(decodeProducts(t, w)))
	})

	t.Run("unknown retailer is an empty list", func(t *testing.T) {
		w := serve(router, "GET", "/v1/products/retailer/nowhere", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
	})
}

func TestCreateProductEndpoint(t *testing.T) {
	router := setupTestRouter(t)

	t.Run("creates a product", func(t *testing.T) {
		w := serve(router, "POST", "/v1/products", `{"name":"Cheddar 400g","retailer":"Tesco","price":3.00,"inStock":true}`)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var product domain.Product
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &product))
		assert.True(t, strings.HasPrefix(product.ID, "prod_"))
		require.NotNil(t, product.PricePerUnit)
		assert.True(t, product.PricePerUnit.Equal(*domain.Price("0.75")))

		w = serve(router, "GET", "/v1/products/"+product.ID, "")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("rejects invalid products", func(t *testing.T) {
		bodies := []string{
			`{"retailer":"Tesco","price":1}`,
			`{"name":"Milk","price":1}`,
			`{"name":"Milk","retailer":"Tesco"}`,
			`{"name":"Milk","retailer":"Tesco","price":-1}`,
			`{"name":`,
		}
		for _, body := range bodies {
			w := serve(router, "POST", "/v1/products", body)
			assert.Equal(t, http.StatusBadRequest, w.Code, body)
		}
	})
}

func TestBulkCreateEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		inserted   int
		failed     int
	}{
		{
			name:       "all valid",
			body:       `[{"id":"a","name":"Milk","retailer":"Asda","price":1.1},{"id":"b","name":"Milk","retailer":"Tesco","price":1.2}]`,
			wantStatus: http.StatusCreated,
			inserted:   2,
		},
		{
			name:       "partial",
			body:       `[{"id":"a","name":"Milk","retailer":"Asda","price":1.1},{"id":"b","name":"","retailer":"Tesco","price":1.2}]`,
			wantStatus: http.StatusMultiStatus,
			inserted:   1,
			failed:     1,
		},
		{
			name:       "none valid",
			body:       `[{"name":"Milk","price":1.1}]`,
			wantStatus: http.StatusBadRequest,
			failed:     1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupTestRouter(t)

			w := serve(router, "POST", "/v1/products/bulk", tt.body)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())

			var result domain.BulkInsertResult
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
			assert.Len(t, result.Inserted, tt.inserted)
			assert.Len(t, result.Failed, tt.failed)
		})
	}

	t.Run("empty batch", func(t *testing.T) {
		router := setupTestRouter(t)
		w := serve(router, "POST", "/v1/products/bulk", `[]`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRetailerEndpoints(t *testing.T) {
	router := setupTestRouter(t)

	w := serve(router, "GET", "/v1/retailers", "")
	require.Equal(t, http.StatusOK, w.Code)
	var profiles []domain.RetailerProfile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profiles))
	assert.Len(t, profiles, len(domain.KnownRetailers()))

	w = serve(router, "GET", "/v1/retailers/sainsburys", "")
	require.Equal(t, http.StatusOK, w.Code)
	var profile domain.RetailerProfile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
	assert.Equal(t, "Sainsbury's", profile.DisplayName)
	assert.True(t, profile.Known)

	w = serve(router, "GET", "/v1/retailers/Corner%20Shop", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
	assert.Equal(t, "Corner Shop", profile.DisplayName)
	assert.False(t, profile.Known)
}

func TestCompareEndpoint(t *testing.T) {
	router := setupTestRouter(t,
		testProduct("t1", "Milk", "Tesco", "1.20"),
		testProduct("a1", "Milk", "Asda", "1.10"),
	)

	t.Run("summarizes the comparison", func(t *testing.T) {
		w := serve(router, "GET", "/v1/prices/compare?query=milk", "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var comparison domain.PriceComparison
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &comparison))
		assert.Equal(t, "Asda", comparison.CheapestRetailer)
		assert.True(t, comparison.PriceRange.Equal(*domain.Price("0.10")))
		assert.Equal(t, 2, comparison.TotalResults)
		assert.Equal(t, "milk", comparison.SearchQuery)
		assert.Equal(t, []string{"a1", "t1"}, productIDs(comparison.Results))
	})

	t.Run("sortBy", func(t *testing.T) {
		w := serve(router, "GET", "/v1/prices/compare?query=milk&sortBy=PRICE_DESC", "")
		require.Equal(t, http.StatusOK, w.Code)

		var comparison domain.PriceComparison
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &comparison))
		assert.Equal(t, []string{"t1", "a1"}, productIDs(comparison.Results))
	})

	t.Run("unknown sortBy is 400", func(t *testing.T) {
		w := serve(router, "GET", "/v1/prices/compare?query=milk&sortBy=BEST", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCompareEndpoint_NoResults(t *testing.T) {
	router := setupTestRouter(t)

	w := serve(router, "GET", "/v1/prices/compare?query=milk", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPriceHistoryEndpoints(t *testing.T) {
	router := setupTestRouter(t, testProduct("t1", "Milk", "Tesco", "1.20"))

	w := serve(router, "POST", "/v1/prices/history/t1", `{"price":1.00}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = serve(router, "GET", "/v1/prices/history/t1?days=7", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var summary domain.PriceHistorySummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, "t1", summary.ProductID)
	assert.Equal(t, "Milk", summary.ProductName)
	assert.Len(t, summary.PriceHistory, 2)
	assert.True(t, summary.CurrentPrice.Equal(*domain.Price("1.00")))
	assert.True(t, summary.LowestPrice.Equal(*domain.Price("1.00")))
	assert.True(t, summary.HighestPrice.Equal(*domain.Price("1.20")))
	assert.True(t, summary.AveragePrice.Equal(*domain.Price("1.10")))
}

func TestPriceHistoryEndpoints_Errors(t *testing.T) {
	router := setupTestRouter(t, testProduct("t1", "Milk", "Tesco", "1.20"))

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{"unknown product", "GET", "/v1/prices/history/nope", "", http.StatusNotFound},
		{"days not a number", "GET", "/v1/prices/history/t1?days=week", "", http.StatusBadRequest},
		{"days out of range", "GET", "/v1/prices/history/t1?days=400", "", http.StatusBadRequest},
		{"days zero", "GET", "/v1/prices/history/t1?days=0", "", http.StatusBadRequest},
		{"days negative", "GET", "/v1/prices/history/t1?days=-3", "", http.StatusBadRequest},
		{"record for unknown product", "POST", "/v1/prices/history/nope", `{"price":1}`, http.StatusNotFound},
		{"record without price", "POST", "/v1/prices/history/t1", `{}`, http.StatusBadRequest},
		{"record negative price", "POST", "/v1/prices/history/t1", `{"price":-2}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(router, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
		})
	}
}

// TestCORSIntegration tests CORS headers work end-to-end with full router
func TestCORSIntegration(t *testing.T) {
	t.Run("health endpoint has CORS for Chrome extension", func(t *testing.T) {
		router := setupTestRouter(t)

		req, _ := http.NewRequest("GET", "/health", nil)
		req.Header.Set("Origin", "chrome-extension://abcdefghijklmnop")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
		}

		gotOrigin := w.Header().Get("Access-Control-Allow-Origin")
		if gotOrigin != "chrome-extension://abcdefghijklmnop" {
			t.Errorf("Access-Control-Allow-Origin = %q, want %q", gotOrigin, "chrome-extension://abcdefghijklmnop")
		}

		gotCreds := w.Header().Get("Access-Control-Allow-Credentials")
		if gotCreds != "true" {
			t.Errorf("Access-Control-Allow-Credentials = %q, want %q", gotCreds, "true")
		}
	})

	t.Run("search endpoint has CORS for localhost", func(t *testing.T) {
		router := setupTestRouter(t)

		req, _ := http.NewRequest("GET", "/v1/products/search?query=milk", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		gotOrigin := w.Header().Get("Access-Control-Allow-Origin")
		if gotOrigin != "http://localhost:3000" {
			t.Errorf("Access-Control-Allow-Origin = %q, want %q", gotOrigin, "http://localhost:3000")
		}
	})
}

// TestRecoveryMiddleware tests panic recovery
func TestRecoveryMiddleware(t *testing.T) {
	t.Run("recovers from panic without crashing server", func(t *testing.T) {
		router := setupTestRouter(t)

		// Add a test route that panics
		router.GET("/panic", func(c *gin.Context) {
			panic("test panic")
		})

		w := serve(router, "GET", "/panic", "")

		if w.Code != http.StatusInternalServerError {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusInternalServerError)
		}
	})
}

// TestAPIVersioning tests that API v1 routes are correctly versioned
func TestAPIVersioning(t *testing.T) {
	router := setupTestRouter(t)

	for _, path := range []string{"/products/search", "/api/v1/products/search", "/v2/products/search"} {
		w := serve(router, "GET", path, "")
		if w.Code != http.StatusNotFound {
			t.Errorf("Path %s: Status = %d, want %d", path, w.Code, http.StatusNotFound)
		}
	}
}

// TestJSONResponses tests that all responses are valid JSON
func TestJSONResponses(t *testing.T) {
	endpoints := []struct {
		method string
		path   string
	}{
		{"GET", "/health"},
		{"GET", "/v1/products/search?query=milk"},
		{"GET", "/v1/products/nope"},
		{"GET", "/v1/retailers"},
		{"GET", "/v1/prices/compare?query=milk"},
	}

	router := setupTestRouter(t, testProduct("t1", "Milk", "Tesco", "1.20"))
	for _, endpoint := range endpoints {
		t.Run(endpoint.method+" "+endpoint.path, func(t *testing.T) {
			w := serve(router, endpoint.method, endpoint.path, "")

			gotContentType := w.Header().Get("Content-Type")
			wantContentType := "application/json; charset=utf-8"
			if gotContentType != wantContentType {
				t.Errorf("Content-Type = %q, want %q", gotContentType, wantContentType)
			}

			if !json.Valid(w.Body.Bytes()) {
				t.Errorf("Response should be valid JSON, got %s", w.Body.String())
			}
		})
	}
}
