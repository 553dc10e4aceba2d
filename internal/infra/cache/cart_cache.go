package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"florist/internal/domain/model"

	"github.com/redis/go-redis/v9"
)

// cart_<userID> にカート明細をJSONで置く
type CartCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewCartCache(client redis.Cmdable, ttl time.Duration) *CartCache {
	return &CartCache{client: client, ttl: ttl}
}

func cartKey(userID int64) string {
	return fmt.Sprintf("cart_%d", userID)
}

// 無ければ ok=false
func (c *CartCache) Get(ctx context.Context, userID int64) ([]model.CartItem, bool, error) {
	raw, err := c.client.Get(ctx, cartKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var items []model.CartItem
	if err := json.Unmarshal(raw, &items); err != nil {
		//壊れた値は無かったことにする
		_ = c.client.Del(ctx, cartKey(userID)).Err()
		return nil, false, nil
	}
	return items, true, nil
}

func (c *CartCache) Set(ctx context.Context, userID int64, items []model.CartItem) error {
	if items == nil {
		items = []model.CartItem{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cartKey(userID), raw, c.ttl).Err()
}

func (c *CartCache) Delete(ctx context.Context, userID int64) error {
	return c.client.Del(ctx, cartKey(userID)).Err()
}
