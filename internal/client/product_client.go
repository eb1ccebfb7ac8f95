package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/prudhivi99/Distributed-Systems/catalog-inventory/internal/apperr"
	"github.com/prudhivi99/Distributed-Systems/catalog-inventory/internal/models"
)

// DefaultAttemptTimeout applies when a RetryPolicy leaves Timeout unset.
const DefaultAttemptTimeout = 3 * time.Second

// RetryPolicy bounds a dependency call: at most MaxAttempts tries, Wait between
// them and Timeout on each, so the worst case is MaxAttempts*(Wait+Timeout).
type RetryPolicy struct {
	MaxAttempts int
	Wait        time.Duration
	Timeout     time.Duration
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	b := backoff.WithMaxRetries(backoff.NewConstantBackOff(p.Wait), uint64(attempts-1))
	return backoff.WithContext(b, ctx)
}

// URLResolver returns the products service base URL for one call.
type URLResolver func(ctx context.Context) string

// StaticURL always resolves to baseURL.
func StaticURL(baseURL string) URLResolver {
	return func(context.Context) string { return baseURL }
}

// ProductClient calls the products service internal lookup.
type ProductClient struct {
	resolve    URLResolver
	apiKey     string
	policy     RetryPolicy
	httpClient *http.Client
	group      singleflight.Group
	logger     *zap.Logger
}

func NewProductClient(resolve URLResolver, apiKey string, policy RetryPolicy, logger *zap.Logger) *ProductClient {
	if policy.Timeout <= 0 {
		policy.Timeout = DefaultAttemptTimeout
	}
	return &ProductClient{
		resolve: resolve,
		apiKey:  apiKey,
		policy:  policy,
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger,
	}
}

// Exists reports nil when the product exists, apperr.ErrUpstreamNotFound when the
// products service says it does not, and a dependency-unavailable error otherwise.
func (c *ProductClient) Exists(ctx context.Context, productID int) error {
	_, err := c.GetProduct(ctx, productID)
	return err
}

// GetProduct fetches a product from the products service, retrying transport faults.
// Concurrent lookups of the same id share one call.
func (c *ProductClient) GetProduct(ctx context.Context, productID int) (*models.Product, error) {
	v, err, _ := c.group.Do(strconv.Itoa(productID), func() (interface{}, error) {
		return c.getWithRetry(ctx, productID)
	})
	if err != nil {
		return nil, err
	}
	p := *v.(*models.Product)
	return &p, nil
}

func (c *ProductClient) getWithRetry(ctx context.Context, productID int) (*models.Product, error) {
	var product *models.Product
	attempt := 0

	operation := func() error {
		attempt++
		p, err := c.getOnce(ctx, productID)
		if err != nil {
			return err
		}
		product = p
		return nil
	}

	notify := func(err error, wait time.Duration) {
		c.logger.Warn("🔁 Retrying product lookup",
			zap.Int("product_id", productID),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	}

	if err := backoff.RetryNotify(operation, c.policy.backOff(ctx), notify); err != nil {
		if errors.Is(err, apperr.ErrUpstreamNotFound) {
			return nil, apperr.ErrUpstreamNotFound
		}
		c.logger.Error("❌ Products service unavailable",
			zap.Int("product_id", productID),
			zap.Int("attempts", attempt),
			zap.Error(err),
		)
		return nil, apperr.Unavailable(err)
	}

	return product, nil
}

// getOnce performs one attempt. Errors wrapped in backoff.Permanent stop the retry loop.
func (c *ProductClient) getOnce(ctx context.Context, productID int) (*models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, c.policy.Timeout)
	defer cancel()

	url := fmt.Sprintf("%s/internal/products/%d", strings.TrimRight(c.resolve(ctx), "/"), productID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to build request: %w", err))
	}
	req.Header.Set(models.APIKeyHeader, c.apiKey)
	req.Header.Set("Accept", models.ContentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call products service: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, backoff.Permanent(apperr.ErrUpstreamNotFound)
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, fmt.Errorf("products service returned status %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, backoff.Permanent(fmt.Errorf("products service returned status %d", resp.StatusCode))
	}

	var doc models.Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to decode response: %w", err))
	}

	var attrs models.ProductAttributes
	if err := doc.Data.DecodeAttributes(&attrs); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to decode product: %w", err))
	}

	product := &models.Product{ID: productID, Name: attrs.Name, Price: attrs.Price}
	if doc.Data.ID != nil {
		product.ID = *doc.Data.ID
	}
	return product, nil
}
