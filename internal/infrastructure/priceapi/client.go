// Package priceapi is a Go client for the PoundSaver HTTP API.
package priceapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/poundsaver/backend/internal/domain"
)

const (
	maxAttempts  = 3
	maxErrorBody = 4096
)

// Client talks to a running PoundSaver server
type Client struct {
	httpClient  *http.Client
	baseURL     string
	rateLimiter *rate.Limiter
	logger      *zap.Logger
	debug       bool
	backoff     func(attempt int) time.Duration
}

// NewClient creates a new API client. logger may be nil.
func NewClient(baseURL string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:     baseURL,
		rateLimiter: rate.NewLimiter(rate.Limit(10), 10), // 10 requests/sec, burst of 10
		logger:      logger,
		backoff:     exponentialBackoff,
	}
}

// SetDebug enables per-request debug logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

func (c *Client) debugLog(msg string, fields ...zap.Field) {
	if c.debug {
		c.logger.Debug(msg, fields...)
	}
}

// exponentialBackoff returns the wait before retrying after attempt
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

// readLimitedBody reads at most limit bytes of r
func readLimitedBody(r io.Reader, limit int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, limit))
}

// Search calls GET /v1/products/search
func (c *Client) Search(ctx context.Context, query string) ([]domain.Product, error) {
	var products []domain.Product
	params := url.Values{}
	params.Set("query", query)
	if err := c.getJSON(ctx, "/v1/products/search", params, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// GetProduct calls GET /v1/products/:id
func (c *Client) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var product domain.Product
	if err := c.getJSON(ctx, "/v1/products/"+url.PathEscape(id), nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// Compare calls GET /v1/prices/compare
func (c *Client) Compare(ctx context.Context, query, sortBy string) (*domain.PriceComparison, error) {
	var comparison domain.PriceComparison
	params := url.Values{}
	params.Set("query", query)
	if sortBy != "" {
		params.Set("sortBy", sortBy)
	}
	if err := c.getJSON(ctx, "/v1/prices/compare", params, &comparison); err != nil {
		return nil, err
	}
	return &comparison, nil
}

// History calls GET /v1/prices/history/:productId. days <= 0 uses the server default.
func (c *Client) History(ctx context.Context, productID string, days int) (*domain.PriceHistorySummary, error) {
	var summary domain.PriceHistorySummary
	params := url.Values{}
	if days > 0 {
		params.Set("days", strconv.Itoa(days))
	}
	if err := c.getJSON(ctx, "/v1/prices/history/"+url.PathEscape(productID), params, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// Retailers calls GET /v1/retailers
func (c *Client) Retailers(ctx context.Context) ([]domain.RetailerProfile, error) {
	var retailers []domain.RetailerProfile
	if err := c.getJSON(ctx, "/v1/retailers", nil, &retailers); err != nil {
		return nil, err
	}
	return retailers, nil
}

// doRequest executes an HTTP GET request with proper headers and error handling
func (c *Client) doRequest(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "PoundSaver-CLI/1.0")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAPIFailure, err)
	}
	return resp, nil
}

// getJSON GETs path and decodes the response into out. Server errors, 429s
// and transport failures are retried with exponential backoff; other
// statuses fail immediately.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}
	if _, err := url.Parse(reqURL); err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleep(ctx, c.backoff(attempt-1)); err != nil {
				return err
			}
		}

		// Wait for rate limiter
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter error: %w", err)
		}

		c.debugLog("api request", zap.String("url", reqURL), zap.Int("attempt", attempt))
		resp, err := c.doRequest(ctx, reqURL)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			c.logger.Warn("api request failed", zap.Int("attempt", attempt), zap.Error(err))
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusOK {
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			if err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}
			return nil
		}

		body, _ := readLimitedBody(resp.Body, maxErrorBody)
		resp.Body.Close()
		statusErr := statusError(resp.StatusCode, body)
		c.debugLog("api error", zap.Int("status", resp.StatusCode), zap.Int("attempt", attempt), zap.Error(statusErr))

		if resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode < http.StatusInternalServerError {
			return statusErr
		}
		lastErr = statusErr
	}

	c.logger.Warn("all retries failed", zap.String("url", reqURL), zap.Error(lastErr))
	return lastErr
}

// statusError converts a non-200 response into a domain error
func statusError(status int, body []byte) error {
	var payload struct {
		Error string `json:"error"`
	}
	msg := http.StatusText(status)
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		msg = payload.Error
	}

	switch {
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, msg)
	case status == http.StatusBadRequest:
		return fmt.Errorf("%w: %s", domain.ErrInvalidArgument, msg)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, msg)
	default:
		return fmt.Errorf("%w: status %d: %s", domain.ErrAPIFailure, status, msg)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
