package usecase

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"florist/internal/domain/game"
	"florist/internal/domain/model"
	"florist/internal/repository"
)

type GameUsecase struct {
	store  repository.GameResultStore
	dealer game.Dealer
	log    *slog.Logger
	now    func() time.Time
}

func NewGameUsecase(store repository.GameResultStore, dealer game.Dealer, log *slog.Logger) *GameUsecase {
	if log == nil {
		log = slog.Default()
	}
	return &GameUsecase{store: store, dealer: dealer, log: log, now: time.Now}
}

func (u *GameUsecase) SetClock(now func() time.Time) {
	u.now = now
}

type PlayGameInput struct {
	Picks []int `json:"picks"`
}

// 1日1回まで。2回目は409と当日の結果を返す
func (u *GameUsecase) Play(ctx context.Context, userID int64, in PlayGameInput) (model.GameResult, error) {
	if userID <= 0 {
		return model.GameResult{}, errUnauthorized()
	}
	if u.store == nil {
		return model.GameResult{}, NewHTTPError(http.StatusServiceUnavailable, "game unavailable")
	}

	now := u.now()
	day := now.Format(time.DateOnly)

	prev, found, err := u.store.Find(ctx, userID, day)
	if err != nil {
		return model.GameResult{}, NewHTTPError(http.StatusServiceUnavailable, "game unavailable")
	}
	if found {
		return prev, NewHTTPError(http.StatusConflict, "already played today")
	}

	result, err := game.Play(u.dealer.GoldenCard(), in.Picks)
	if errors.Is(err, game.ErrInvalidPicks) {
		return model.GameResult{}, NewHTTPError(http.StatusBadRequest, "invalid picks")
	}
	if err != nil {
		return model.GameResult{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	result.PlayedOn = day

	claimed, err := u.store.Claim(ctx, userID, day, result, untilNextDay(now))
	if err != nil {
		return model.GameResult{}, NewHTTPError(http.StatusServiceUnavailable, "game unavailable")
	}
	if !claimed {
		// 同時に遊ばれた場合は先に保存された方が正
		prev, _, err := u.store.Find(ctx, userID, day)
		if err != nil {
			return model.GameResult{}, NewHTTPError(http.StatusServiceUnavailable, "game unavailable")
		}
		return prev, NewHTTPError(http.StatusConflict, "already played today")
	}

	u.log.InfoContext(ctx, "game played", "user_id", userID, "won", result.Won, "coupon", result.CouponCode)
	return result, nil
}

// 今日の結果。まだなら404
func (u *GameUsecase) Today(ctx context.Context, userID int64) (model.GameResult, error) {
	if userID <= 0 {
		return model.GameResult{}, errUnauthorized()
	}
	if u.store == nil {
		return model.GameResult{}, NewHTTPError(http.StatusServiceUnavailable, "game unavailable")
	}

	r, found, err := u.store.Find(ctx, userID, u.now().Format(time.DateOnly))
	if err != nil {
		return model.GameResult{}, NewHTTPError(http.StatusServiceUnavailable, "game unavailable")
	}
	if !found {
		return model.GameResult{}, errNotFound()
	}
	return r, nil
}

func untilNextDay(now time.Time) time.Duration {
	y, m, d := now.Date()
	next := time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())
	return next.Sub(now)
}
