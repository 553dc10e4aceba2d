// Package game implements the once-a-day flower card game that hands out coupon codes.
package game

import (
	"errors"
	"math/rand/v2"

	"florist/internal/domain/model"
)

const (
	// 場に並ぶカードの枚数（うち1枚がゴールデン）
	DeckSize = 8
	// めくれる回数
	MaxAttempts = 2
)

var ErrInvalidPicks = errors.New("invalid picks")

// ゴールデンの位置を決める
type Dealer interface {
	GoldenCard() int
}

type randomDealer struct {
	r *rand.Rand
}

func NewRandomDealer(r *rand.Rand) Dealer {
	return &randomDealer{r: r}
}

func (d *randomDealer) GoldenCard() int {
	if d.r == nil {
		return rand.IntN(DeckSize)
	}
	return d.r.IntN(DeckSize)
}

// picksを順にめくって結果を決める。
// 1枚目で当たり→TRUELOVE100、2枚目で当たり→TRUELOVE50、外れ→ALMOSTLOVE5。
func Play(golden int, picks []int) (model.GameResult, error) {
	if len(picks) == 0 || len(picks) > MaxAttempts {
		return model.GameResult{}, ErrInvalidPicks
	}
	seen := make(map[int]struct{}, len(picks))
	for _, p := range picks {
		if p < 0 || p >= DeckSize {
			return model.GameResult{}, ErrInvalidPicks
		}
		if _, dup := seen[p]; dup {
			return model.GameResult{}, ErrInvalidPicks
		}
		seen[p] = struct{}{}
	}

	for i, p := range picks {
		if p != golden {
			continue
		}
		attempts := i + 1
		if attempts == 1 {
			return model.GameResult{Won: true, Attempts: 1, Reward: "₹100 off", CouponCode: "TRUELOVE100", GoldenCard: golden}, nil
		}
		return model.GameResult{Won: true, Attempts: attempts, Reward: "₹50 off", CouponCode: "TRUELOVE50", GoldenCard: golden}, nil
	}

	return model.GameResult{Won: false, Attempts: len(picks), Reward: "5% off", CouponCode: "ALMOSTLOVE5", GoldenCard: golden}, nil
}
