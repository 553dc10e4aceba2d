package repository

import (
	"context"

	repo "florist/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
	orders      repo.OrderRepository
	orderItems  repo.OrderItemRepository
	cartItems   repo.CartItemRepository
	cartCoupons repo.CartCouponRepository
	inventory   repo.InventoryRepository
	products    repo.ProductRepository
	auditLogs   repo.AuditLogRepository
}

func (r *txReposGorm) Orders() repo.OrderRepository           { return r.orders }
func (r *txReposGorm) OrderItems() repo.OrderItemRepository   { return r.orderItems }
func (r *txReposGorm) CartItems() repo.CartItemRepository     { return r.cartItems }
func (r *txReposGorm) CartCoupons() repo.CartCouponRepository { return r.cartCoupons }
func (r *txReposGorm) Inventory() repo.InventoryRepository    { return r.inventory }
func (r *txReposGorm) Products() repo.ProductRepository       { return r.products }
func (r *txReposGorm) AuditLogs() repo.AuditLogRepository     { return r.auditLogs }

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//repoはtxを持ったDBで作り直す
		r := &txReposGorm{
			orders:      NewOrderGormRepository(tx),
			orderItems:  NewOrderItemGormRepository(tx),
			cartItems:   NewCartItemGormRepository(tx),
			cartCoupons: NewCartCouponGormRepository(tx),
			inventory:   NewInventoryGormRepository(tx),
			products:    NewProductGormRepository(tx),
			auditLogs:   NewAuditLogGormRepository(tx),
		}
		return fn(r)
	})
}
