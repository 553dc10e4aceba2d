package repository

import (
	"context"
	"time"

	"florist/internal/domain/model"
)

// 注文一覧の絞り込み。UserIDを入れるとそのお客様の注文だけになる
type OrderQuery struct {
	UserID        *int64
	Status        model.OrderStatus
	PaymentMethod model.PaymentMethod
	// 配送先の氏名かメールの部分一致
	Search string
	From   *time.Time
	To     *time.Time
	Page   int
	Limit  int
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	Create(ctx context.Context, order model.Order) (int64, error)
	// 新しい順
	List(ctx context.Context, q OrderQuery) ([]model.Order, int64, error)

	//from -> to の遷移を検証してから更新する。
	//現在値がfromでなければErrConflict。
	TransitionStatus(ctx context.Context, orderID int64, from model.OrderStatus, to model.OrderStatus) error

	// 同じ決済から二重に注文を作らないための検索
	FindByIdempotencyKey(ctx context.Context, userID int64, key string) (model.Order, bool, error)
}
