package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/amirrudd/flyerboard/internal/listing/domain"
	"github.com/amirrudd/flyerboard/internal/platform/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const listingKeyPrefix = "listing:"

// NewClient connects to Redis and pings it before returning.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", addr, err)
	}
	return client, nil
}

type ListingCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logger.Logger
}

func NewListingCache(client *redis.Client, ttl time.Duration, log *logger.Logger) *ListingCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ListingCache{client: client, ttl: ttl, logger: log.Named("ListingCache")}
}

func listingKey(id string) string {
	return listingKeyPrefix + id
}

// GetListing returns (nil, nil) on a miss.
func (c *ListingCache) GetListing(ctx context.Context, id string) (*domain.Listing, error) {
	data, err := c.client.Get(ctx, listingKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", listingKey(id), err)
	}
	var listing domain.Listing
	if err := json.Unmarshal(data, &listing); err != nil {
		c.logger.Warn("Dropping undecodable cache entry", zap.String("listing_id", id), zap.Error(err))
		_ = c.client.Del(ctx, listingKey(id)).Err()
		return nil, nil
	}
	return &listing, nil
}

func (c *ListingCache) SetListing(ctx context.Context, listing *domain.Listing) error {
	data, err := json.Marshal(listing)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, listingKey(listing.ID), data, c.ttl).Err()
}

func (c *ListingCache) DeleteListing(ctx context.Context, id string) error {
	return c.client.Del(ctx, listingKey(id)).Err()
}
