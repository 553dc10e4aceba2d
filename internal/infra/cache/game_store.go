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

// ゲーム結果を game:<userID>:<YYYY-MM-DD> に1日1件だけ置く
type GameStore struct {
	client redis.Cmdable
}

func NewGameStore(client redis.Cmdable) *GameStore {
	return &GameStore{client: client}
}

func gameKey(userID int64, day string) string {
	return fmt.Sprintf("game:%d:%s", userID, day)
}

// SETNXなので同じ日に2回目は保存されない
func (s *GameStore) Claim(ctx context.Context, userID int64, day string, r model.GameResult, ttl time.Duration) (bool, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return false, err
	}
	return s.client.SetNX(ctx, gameKey(userID, day), raw, ttl).Result()
}

func (s *GameStore) Find(ctx context.Context, userID int64, day string) (model.GameResult, bool, error) {
	raw, err := s.client.Get(ctx, gameKey(userID, day)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.GameResult{}, false, nil
	}
	if err != nil {
		return model.GameResult{}, false, err
	}

	var r model.GameResult
	if err := json.Unmarshal(raw, &r); err != nil {
		return model.GameResult{}, false, err
	}
	return r, true, nil
}
