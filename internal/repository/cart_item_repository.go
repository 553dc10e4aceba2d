package repository

import (
	"context"

	"florist/internal/domain/model"
)

// カート明細（users/{id}/cart 相当）
type CartItemRepository interface {
	ListByUserID(ctx context.Context, userID int64) ([]model.CartItem, error)
	// 同一商品はプラス
	UpsertByUserAndProduct(ctx context.Context, userID int64, productID int64, addQty int64) error
	// 自分の明細だけ更新。無ければErrNotFound
	UpdateQuantity(ctx context.Context, userID int64, cartItemID int64, qty int64) error
	// 自分の明細だけ削除。無くてもエラーにしない
	DeleteByID(ctx context.Context, userID int64, cartItemID int64) error
	FindByID(ctx context.Context, userID int64, cartItemID int64) (model.CartItem, error)
	DeleteAllByUserID(ctx context.Context, userID int64) error
}

// 適用中クーポン
type CartCouponRepository interface {
	Find(ctx context.Context, userID int64) (model.CartCoupon, error)
	// 既存があれば置き換える
	Upsert(ctx context.Context, c model.CartCoupon) error
	Delete(ctx context.Context, userID int64) error
}

// cart_<userID> のキャッシュ。正はDB側。
type CartCache interface {
	Get(ctx context.Context, userID int64) ([]model.CartItem, bool, error)
	Set(ctx context.Context, userID int64, items []model.CartItem) error
	Delete(ctx context.Context, userID int64) error
}
