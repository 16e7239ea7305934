package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	apperrors "github.com/grocerly/grocery/pkg/errors"
	"github.com/grocerly/grocery/pkg/httpclient"
)

// Product is the wire representation of a product returned by the product
// service.
type Product struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// HTTPGetter abstracts the HTTP client used for product lookups so tests can
// substitute a fake. Satisfied by httpclient.CircuitBreakerClient.
type HTTPGetter interface {
	Get(ctx context.Context, url string) (*http.Response, error)
}

// ProductClient calls the product service over HTTP.
type ProductClient struct {
	baseURL string
	http    HTTPGetter
	logger  *slog.Logger
}

// NewProductClient creates a new product service client.
func NewProductClient(baseURL string, httpClient HTTPGetter, logger *slog.Logger) *ProductClient {
	return &ProductClient{
		baseURL: baseURL,
		http:    httpClient,
		logger:  logger,
	}
}

// GetProduct fetches a product by id. A missing product yields ErrNotFound;
// transport failures, timeouts, and an open circuit yield ErrServiceUnavail so
// callers can tell "product does not exist" apart from "could not ask".
func (c *ProductClient) GetProduct(ctx context.Context, productID int64) (*Product, error) {
	url := fmt.Sprintf("%s/products/%d", c.baseURL, productID)

	resp, err := c.http.Get(ctx, url)
	if err != nil {
		if httpclient.IsCircuitOpen(err) {
			c.logger.WarnContext(ctx, "product service circuit open",
				slog.Int64("product_id", productID),
			)
			return nil, apperrors.ServiceUnavailable("product service unavailable: circuit open")
		}
		c.logger.ErrorContext(ctx, "product service request failed",
			slog.Int64("product_id", productID),
			slog.String("error", err.Error()),
		)
		return nil, apperrors.ServiceUnavailable(fmt.Sprintf("product service unreachable: %v", err))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, "product service")
	}
	defer func() { _ = resp.Body.Close() }()

	var body struct {
		Product *Product `json:"product"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode product response: %w", err)
	}
	if body.Product == nil {
		return nil, fmt.Errorf("product response missing product payload")
	}

	return body.Product, nil
}
