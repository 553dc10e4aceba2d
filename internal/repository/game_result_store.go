package repository

import (
	"context"
	"time"

	"florist/internal/domain/model"
)

// 1日1回の制限つきで結果を保存する
type GameResultStore interface {
	//まだその日の結果がなければ保存してtrue。既にあればfalse。
	Claim(ctx context.Context, userID int64, day string, r model.GameResult, ttl time.Duration) (bool, error)
	Find(ctx context.Context, userID int64, day string) (model.GameResult, bool, error)
}
