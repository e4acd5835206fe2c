// Package redis implements wishlist storage on Redis, one JSON
// document per owner.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/curetcore/velox-storefront/internal/domain"
)

const keyPrefix = "wishlist:"

// Storage persists one owner's wishlist under a single Redis key.
type Storage struct {
	client *redis.Client
	owner  string
	ttl    time.Duration
}

// NewStorage creates Redis-backed storage for the given owner. The
// TTL is refreshed on every save so active collections never expire.
func NewStorage(client *redis.Client, owner string, ttl time.Duration) *Storage {
	return &Storage{client: client, owner: owner, ttl: ttl}
}

// Load reads the stored collection. A missing key yields an empty
// collection; a corrupted payload yields an error so the caller can
// reset.
func (s *Storage) Load(ctx context.Context) ([]domain.WishlistItem, error) {
	data, err := s.client.Get(ctx, keyPrefix+s.owner).Bytes()
	if err != nil {
		if err == redis.Nil {
			return []domain.WishlistItem{}, nil
		}
		return nil, fmt.Errorf("redis get wishlist: %w", err)
	}

	var items []domain.WishlistItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("unmarshal wishlist: %w", err)
	}
	if items == nil {
		items = []domain.WishlistItem{}
	}

	return items, nil
}

// Save replaces the stored collection and refreshes the TTL.
func (s *Storage) Save(ctx context.Context, items []domain.WishlistItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal wishlist: %w", err)
	}

	if err := s.client.Set(ctx, keyPrefix+s.owner, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set wishlist: %w", err)
	}

	return nil
}
