package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"storefront/catalog"
	"storefront/logger"
	"storefront/pricing"
	"storefront/promo"
	"storefront/services"
)

const (
	keyPrefix = "storefront"
	// Active-promo lists are bucketed per minute so a promo window edge is
	// never served stale for longer than that.
	promoBucket = time.Minute
)

// NewClient connects to Redis at url and checks the connection.
func NewClient(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// PromoSource is a promo store that can also list every promo overlapping a
// time window.
type PromoSource interface {
	services.PromoSource
	ListPromosOverlapping(ctx context.Context, from, to time.Time) ([]promo.Promo, error)
}

// CatalogCache is a read-through Redis cache in front of the catalog and
// promo sources. Writes go to the sources first and then drop the affected
// keys. Redis failures degrade to reading the sources directly.
type CatalogCache struct {
	client  *redis.Client
	catalog services.CatalogSource
	promos  PromoSource
	tiers   services.TierWriter
	ttl     time.Duration
}

func NewCatalogCache(client *redis.Client, catalog services.CatalogSource, promos PromoSource, tiers services.TierWriter, ttl time.Duration) *CatalogCache {
	return &CatalogCache{client: client, catalog: catalog, promos: promos, tiers: tiers, ttl: ttl}
}

func productKey(id string) string {
	return fmt.Sprintf("%s:product:%s", keyPrefix, id)
}

func promoKey(id string) string {
	return fmt.Sprintf("%s:promo:%s", keyPrefix, id)
}

func activePromosKey(now time.Time) string {
	return fmt.Sprintf("%s:promos:active:%d", keyPrefix, now.UTC().Truncate(promoBucket).Unix())
}

// load reads key into v. It reports false on a miss or a Redis failure.
func (c *CatalogCache) load(ctx context.Context, key string, v any) bool {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.FromContext(ctx).Warn("Cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		logger.FromContext(ctx).Warn("Dropping undecodable cache entry", zap.String("key", key), zap.Error(err))
		c.drop(ctx, key)
		return false
	}
	return true
}

func (c *CatalogCache) store(ctx context.Context, key string, v any, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.FromContext(ctx).Warn("Cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		logger.FromContext(ctx).Warn("Cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *CatalogCache) drop(ctx context.Context, keys ...string) {
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		logger.FromContext(ctx).Warn("Cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

func (c *CatalogCache) GetProduct(ctx context.Context, id string) (*catalog.Product, error) {
	var cached catalog.Product
	if c.load(ctx, productKey(id), &cached) {
		// variant completeness is not serialised; rebuild it
		p := catalog.NewProduct(cached.ID, cached.Name, cached.VariantTypes, cached.Variants, cached.MinimumOrderQuantity)
		p.BasePrice = cached.BasePrice
		p.ResellerTiers = cached.ResellerTiers
		return p, nil
	}

	p, err := c.catalog.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	c.store(ctx, productKey(id), p, c.ttl)
	return p, nil
}

// ListPromos caches every promo overlapping now's bucket and filters by now
// on each read, so a promo starting or ending inside the bucket is honoured.
func (c *CatalogCache) ListPromos(ctx context.Context, now time.Time) ([]promo.Promo, error) {
	key := activePromosKey(now)
	var cached []promo.Promo
	if c.load(ctx, key, &cached) {
		return promo.Active(cached, now), nil
	}

	from := now.UTC().Truncate(promoBucket)
	promos, err := c.promos.ListPromosOverlapping(ctx, from, from.Add(promoBucket))
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, promos, promoBucket)
	return promo.Active(promos, now), nil
}

func (c *CatalogCache) GetPromo(ctx context.Context, id string) (promo.Promo, error) {
	var cached promo.Promo
	if c.load(ctx, promoKey(id), &cached) {
		return cached, nil
	}
	p, err := c.promos.GetPromo(ctx, id)
	if err != nil {
		return promo.Promo{}, err
	}
	c.store(ctx, promoKey(id), p, c.ttl)
	return p, nil
}

func (c *CatalogCache) SavePromo(ctx context.Context, p promo.Promo) error {
	if err := c.promos.SavePromo(ctx, p); err != nil {
		return err
	}
	keys := []string{promoKey(p.ID)}
	iter := c.client.Scan(ctx, 0, keyPrefix+":promos:active:*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		logger.FromContext(ctx).Warn("Cache scan failed", zap.Error(err))
	}
	c.drop(ctx, keys...)
	return nil
}

func (c *CatalogCache) SaveResellerTiers(ctx context.Context, productID string, tiers []pricing.ResellerTier) error {
	if err := c.tiers.SaveResellerTiers(ctx, productID, tiers); err != nil {
		return err
	}
	c.drop(ctx, productKey(productID))
	return nil
}

var (
	_ services.CatalogSource = (*CatalogCache)(nil)
	_ services.PromoSource   = (*CatalogCache)(nil)
	_ services.TierWriter    = (*CatalogCache)(nil)
)
