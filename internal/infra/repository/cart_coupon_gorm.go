package repository

import (
	"context"
	"errors"
	"time"

	"florist/internal/domain/model"
	repo "florist/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartCouponGormRepository struct {
	db *gorm.DB
}

func NewCartCouponGormRepository(db *gorm.DB) *CartCouponGormRepository {
	return &CartCouponGormRepository{db: db}
}

func (r *CartCouponGormRepository) Find(ctx context.Context, userID int64) (model.CartCoupon, error) {
	var c model.CartCoupon
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.CartCoupon{}, repo.ErrNotFound
	}
	if err != nil {
		return model.CartCoupon{}, err
	}
	return c, nil
}

// 1ユーザー1クーポン。後から適用したものが勝つ
func (r *CartCouponGormRepository) Upsert(ctx context.Context, c model.CartCoupon) error {
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = time.Now()
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"code", "updated_at"}),
	}).Create(&c).Error
}

func (r *CartCouponGormRepository) Delete(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.CartCoupon{}).Error
}
