package repository

import (
	"context"

	"florist/internal/domain/model"
)

// 在庫の更新はすべて行ロックを取ってから行う。TxRepos経由で使うこと。
type InventoryRepository interface {
	// 在庫を上書きし、変更前の値を返す
	SetStock(ctx context.Context, productID int64, newStock int64) (prev int64, err error)
	// 最大qtyだけ減らし、実際に減らせた数を返す（0未満にはしない）
	Take(ctx context.Context, productID int64, qty int64) (taken int64, err error)
	// キャンセル時の戻し。削除済み商品にも戻す
	Restock(ctx context.Context, productID int64, qty int64) error
	RecordAdjustment(ctx context.Context, adj model.InventoryAdjustment) error
	// 注文で実際に引いた数（ORDER調整の合計）を商品ごとに返す
	TakenByOrder(ctx context.Context, orderID int64) (map[int64]int64, error)
}
