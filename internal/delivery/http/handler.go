package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/poundsaver/backend/internal/domain"
	"github.com/poundsaver/backend/internal/usecase"
)

const (
	serviceName    = "poundsaver-backend"
	serviceVersion = "1.0.0"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	catalog    *usecase.CatalogService
	search     *usecase.SearchService
	comparison *usecase.ComparisonService
	history    *usecase.HistoryService
	logger     *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(
	catalog *usecase.CatalogService,
	search *usecase.SearchService,
	comparison *usecase.ComparisonService,
	history *usecase.HistoryService,
	logger *zap.Logger,
) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		catalog:    catalog,
		search:     search,
		comparison: comparison,
		history:    history,
		logger:     logger,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	total, err := h.catalog.Len(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":        "healthy",
		"service":       serviceName,
		"version":       serviceVersion,
		"totalProducts": total,
	})
}

// SearchProducts handles GET /v1/products/search?query=
func (h *Handler) SearchProducts(c *gin.Context) {
	products, err := h.search.Search(c.Request.Context(), c.Query("query"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// ListProducts handles GET /v1/products
func (h *Handler) ListProducts(c *gin.Context) {
	products, err := h.catalog.All(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// InStockProducts handles GET /v1/products/in-stock?query=
func (h *Handler) InStockProducts(c *gin.Context) {
	products, err := h.search.InStock(c.Request.Context(), c.Query("query"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// GetProduct handles GET /v1/products/:id
func (h *Handler) GetProduct(c *gin.Context) {
	product, err := h.catalog.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// ProductsByRetailer handles GET /v1/products/retailer/:retailer
func (h *Handler) ProductsByRetailer(c *gin.Context) {
	products, err := h.catalog.AllByRetailer(c.Request.Context(), c.Param("retailer"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// CreateProduct handles POST /v1/products
func (h *Handler) CreateProduct(c *gin.Context) {
	var product domain.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	stored, err := h.catalog.Insert(c.Request.Context(), product)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, stored)
}

// CreateProductsBulk handles POST /v1/products/bulk. It answers 201 when every
// entry was stored, 207 when some were, and 400 when none were.
func (h *Handler) CreateProductsBulk(c *gin.Context) {
	var products []domain.Product
	if err := c.ShouldBindJSON(&products); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if len(products) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at least one product is required"})
		return
	}

	result, err := h.catalog.InsertBulk(c.Request.Context(), products)
	if err != nil {
		h.writeError(c, err)
		return
	}

	status := http.StatusCreated
	switch {
	case len(result.Inserted) == 0:
		status = http.StatusBadRequest
	case len(result.Failed) > 0:
		status = http.StatusMultiStatus
	}
	c.JSON(status, result)
}

// ListRetailers handles GET /v1/retailers
func (h *Handler) ListRetailers(c *gin.Context) {
	c.JSON(http.StatusOK, domain.KnownRetailers())
}

// GetRetailer handles GET /v1/retailers/:retailer. Unknown retailers get a
// fallback profile rather than a 404.
func (h *Handler) GetRetailer(c *gin.Context) {
	c.JSON(http.StatusOK, domain.LookupRetailer(c.Param("retailer")))
}

// ComparePrices handles GET /v1/prices/compare?query=&sortBy=
func (h *Handler) ComparePrices(c *gin.Context) {
	comparison, err := h.comparison.Compare(c.Request.Context(), c.Query("query"), c.Query("sortBy"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, comparison)
}

// PriceHistory handles GET /v1/prices/history/:productId?days=. Without days
// the default window is used; a supplied days must be at least 1.
func (h *Handler) PriceHistory(c *gin.Context) {
	days := 0
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a positive integer"})
			return
		}
		days = parsed
	}

	summary, err := h.history.Summary(c.Request.Context(), c.Param("productId"), days)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// recordPriceRequest is the body of POST /v1/prices/history/:productId
type recordPriceRequest struct {
	Price        *decimal.Decimal `json:"price" binding:"required"`
	LoyaltyPrice *decimal.Decimal `json:"loyaltyPrice"`
	Timestamp    time.Time        `json:"timestamp"`
}

// RecordPrice handles POST /v1/prices/history/:productId
func (h *Handler) RecordPrice(c *gin.Context) {
	var request recordPriceRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	point, err := h.history.Record(c.Request.Context(), c.Param("productId"), domain.PricePoint{
		Price:        *request.Price,
		LoyaltyPrice: request.LoyaltyPrice,
		Timestamp:    request.Timestamp,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, point)
}

// writeError maps domain errors to HTTP status codes
func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidArgument):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
	default:
		h.logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
