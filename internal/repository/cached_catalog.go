package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/cloud-wave-best-zizon/cart-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const catalogCacheKey = "catalog:products"

type Catalog interface {
	FetchProducts(ctx context.Context) ([]domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
}

// CachedCatalog is a read-through Redis cache in front of another catalog.
// Cache failures are logged and never fail a fetch.
type CachedCatalog struct {
	next   Catalog
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedCatalog(next Catalog, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedCatalog {
	return &CachedCatalog{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *CachedCatalog) FetchProducts(ctx context.Context) ([]domain.Product, error) {
	if products, ok := c.load(ctx); ok {
		return products, nil
	}

	products, err := c.next.FetchProducts(ctx)
	if err != nil {
		return nil, err
	}

	c.store(ctx, products)
	return products, nil
}

// CreateProduct writes through and drops the cached catalog.
func (c *CachedCatalog) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	created, err := c.next.CreateProduct(ctx, product)
	if err != nil {
		return nil, err
	}

	if err := c.client.Del(ctx, catalogCacheKey).Err(); err != nil {
		c.logger.Warn("Failed to invalidate catalog cache", zap.Error(err))
	}
	return created, nil
}

func (c *CachedCatalog) load(ctx context.Context) ([]domain.Product, bool) {
	data, err := c.client.Get(ctx, catalogCacheKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("Failed to read catalog cache", zap.Error(err))
		}
		return nil, false
	}

	var products []domain.Product
	if err := json.Unmarshal(data, &products); err != nil {
		c.logger.Warn("Discarding corrupt catalog cache entry", zap.Error(err))
		return nil, false
	}
	return products, true
}

func (c *CachedCatalog) store(ctx context.Context, products []domain.Product) {
	data, err := json.Marshal(products)
	if err != nil {
		c.logger.Warn("Failed to encode catalog for cache", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, catalogCacheKey, data, c.ttl).Err(); err != nil {
		c.logger.Warn("Failed to write catalog cache", zap.Error(err))
	}
}
