package repository

import (
	"context"
	"errors"

	"florist/internal/domain/model"

	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("not found")

// 一意制約違反など
var ErrConflict = errors.New("conflict")

type ProductSort string

const (
	SortNewest    ProductSort = "new"
	SortPriceAsc  ProductSort = "price_asc"
	SortPriceDesc ProductSort = "price_desc"
)

func (s ProductSort) Valid() bool {
	switch s {
	case "", SortNewest, SortPriceAsc, SortPriceDesc:
		return true
	}
	return false
}

type ProductQuery struct {
	Page     int
	Limit    int
	Search   string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Sort     ProductSort
	// 在庫切れを除く
	InStockOnly bool
	// 管理画面では非公開の商品も出す
	IncludeInactive bool
}

type ProductRepository interface {
	List(ctx context.Context, q ProductQuery) ([]model.Product, int64, error)
	FindByID(ctx context.Context, id int64) (model.Product, error)
	//カート表示用にまとめて取得（見つからないIDは結果に含めない）
	FindByIDs(ctx context.Context, ids []int64) (map[int64]model.Product, error)

	Create(ctx context.Context, p model.Product) (model.Product, error)
	// 在庫はInventoryRepository経由でしか変えない
	Update(ctx context.Context, p model.Product) error
	SoftDelete(ctx context.Context, id int64) error
}
