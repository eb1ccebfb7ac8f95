package db

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/prudhivi99/Distributed-Systems/catalog-inventory/internal/cache"
	"github.com/prudhivi99/Distributed-Systems/catalog-inventory/internal/models"
)

type productSource interface {
	List(ctx context.Context, limit, offset int) ([]models.Product, error)
	GetByID(ctx context.Context, id int) (*models.Product, error)
	Create(ctx context.Context, attrs models.ProductAttributes) (*models.Product, error)
	Update(ctx context.Context, id int, attrs models.ProductAttributes) (*models.Product, error)
	Delete(ctx context.Context, id int) error
}

// CachedProductRepository puts a Redis cache-aside layer in front of another product source.
// Cache failures are logged and never fail the call.
type CachedProductRepository struct {
	repo   productSource
	cache  *cache.RedisCache
	logger *zap.Logger
}

func NewCachedProductRepository(repo productSource, cache *cache.RedisCache, logger *zap.Logger) *CachedProductRepository {
	return &CachedProductRepository{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

// Cache key helpers
func productKey(id int) string {
	return fmt.Sprintf("product:%d", id)
}

func productPageKey(limit, offset int) string {
	return fmt.Sprintf("products:list:%d:%d", limit, offset)
}

const productPagesPattern = "products:list:*"

// List returns a page of products (with caching)
func (r *CachedProductRepository) List(ctx context.Context, limit, offset int) ([]models.Product, error) {
	cacheKey := productPageKey(limit, offset)

	var products []models.Product
	err := r.cache.Get(ctx, cacheKey, &products)
	if err == nil {
		r.logger.Debug("📦 Cache HIT: product page", zap.String("key", cacheKey))
		return products, nil
	}
	r.logMiss(err, cacheKey)

	products, err = r.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, cacheKey, products); err != nil {
		r.logger.Warn("⚠️ Failed to cache product page", zap.Error(err))
	}

	return products, nil
}

// GetByID returns a single product (with caching). Misses are not cached.
func (r *CachedProductRepository) GetByID(ctx context.Context, id int) (*models.Product, error) {
	cacheKey := productKey(id)

	var product models.Product
	err := r.cache.Get(ctx, cacheKey, &product)
	if err == nil {
		r.logger.Debug("📦 Cache HIT: product", zap.Int("product_id", id))
		return &product, nil
	}
	r.logMiss(err, cacheKey)

	p, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, cacheKey, p); err != nil {
		r.logger.Warn("⚠️ Failed to cache product", zap.Int("product_id", id), zap.Error(err))
	}

	return p, nil
}

// GetByIDUncached reads straight from the underlying source. Existence checks that
// guard writes elsewhere use it, so a missed invalidation cannot resurrect a product.
func (r *CachedProductRepository) GetByIDUncached(ctx context.Context, id int) (*models.Product, error) {
	return r.repo.GetByID(ctx, id)
}

// Create inserts a new product and invalidates cached pages
func (r *CachedProductRepository) Create(ctx context.Context, attrs models.ProductAttributes) (*models.Product, error) {
	product, err := r.repo.Create(ctx, attrs)
	if err != nil {
		return nil, err
	}

	r.invalidatePages(ctx)
	return product, nil
}

// Update replaces a product and invalidates its cache entries
func (r *CachedProductRepository) Update(ctx context.Context, id int, attrs models.ProductAttributes) (*models.Product, error) {
	product, err := r.repo.Update(ctx, id, attrs)
	if err != nil {
		return nil, err
	}

	r.invalidateProduct(ctx, id)
	return product, nil
}

// Delete removes a product and invalidates its cache entries
func (r *CachedProductRepository) Delete(ctx context.Context, id int) error {
	if err := r.repo.Delete(ctx, id); err != nil {
		return err
	}

	r.invalidateProduct(ctx, id)
	return nil
}

func (r *CachedProductRepository) invalidateProduct(ctx context.Context, id int) {
	if err := r.cache.Delete(ctx, productKey(id)); err != nil {
		r.logger.Warn("⚠️ Failed to invalidate product cache", zap.Int("product_id", id), zap.Error(err))
	}
	r.invalidatePages(ctx)
	r.logger.Debug("🗑️ Cache invalidated", zap.Int("product_id", id))
}

func (r *CachedProductRepository) invalidatePages(ctx context.Context) {
	if err := r.cache.DeleteByPattern(ctx, productPagesPattern); err != nil {
		r.logger.Warn("⚠️ Failed to invalidate product pages", zap.Error(err))
	}
}

func (r *CachedProductRepository) logMiss(err error, key string) {
	if !errors.Is(err, cache.ErrMiss) {
		r.logger.Warn("⚠️ Cache error", zap.String("key", key), zap.Error(err))
		return
	}
	r.logger.Debug("💾 Cache MISS", zap.String("key", key))
}
