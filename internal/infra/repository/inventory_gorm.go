package repository

import (
	"context"
	"errors"

	"florist/internal/domain/model"
	repo "florist/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InventoryGormRepository struct {
	db *gorm.DB
}

func NewInventoryGormRepository(db *gorm.DB) *InventoryGormRepository {
	return &InventoryGormRepository{db: db}
}

// SELECT stock ... FOR UPDATE
func (r *InventoryGormRepository) lockStock(ctx context.Context, productID int64) (int64, error) {
	var p model.Product
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id", "stock").
		Where("id = ?", productID).
		Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, repo.ErrNotFound
	}
	return p.Stock, err
}

func (r *InventoryGormRepository) writeStock(ctx context.Context, productID, stock int64) error {
	return r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ?", productID).
		UpdateColumn("stock", stock).Error
}

func (r *InventoryGormRepository) SetStock(ctx context.Context, productID int64, newStock int64) (int64, error) {
	prev, err := r.lockStock(ctx, productID)
	if err != nil {
		return 0, err
	}
	return prev, r.writeStock(ctx, productID, newStock)
}

func (r *InventoryGormRepository) Take(ctx context.Context, productID int64, qty int64) (int64, error) {
	cur, err := r.lockStock(ctx, productID)
	if err != nil {
		return 0, err
	}
	taken := min(cur, qty)
	if taken <= 0 {
		return 0, nil
	}
	return taken, r.writeStock(ctx, productID, cur-taken)
}

func (r *InventoryGormRepository) Restock(ctx context.Context, productID int64, qty int64) error {
	res := r.db.WithContext(ctx).
		Unscoped().
		Model(&model.Product{}).
		Where("id = ?", productID).
		UpdateColumn("stock", gorm.Expr("stock + ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *InventoryGormRepository) RecordAdjustment(ctx context.Context, adj model.InventoryAdjustment) error {
	return r.db.WithContext(ctx).Create(&adj).Error
}

func (r *InventoryGormRepository) TakenByOrder(ctx context.Context, orderID int64) (map[int64]int64, error) {
	var rows []struct {
		ProductID int64
		Taken     int64
	}
	err := r.db.WithContext(ctx).
		Model(&model.InventoryAdjustment{}).
		Select("product_id, -SUM(delta) AS taken").
		Where("order_id = ? AND kind = ?", orderID, model.AdjustmentOrder).
		Group("product_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[int64]int64, len(rows))
	for _, row := range rows {
		out[row.ProductID] = row.Taken
	}
	return out, nil
}
