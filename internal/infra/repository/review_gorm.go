package repository

import (
	"context"
	"errors"
	"time"

	"florist/internal/domain/model"
	repo "florist/internal/repository"

	"gorm.io/gorm"
)

type ReviewGormRepository struct {
	db *gorm.DB
}

func NewReviewGormRepository(db *gorm.DB) *ReviewGormRepository {
	return &ReviewGormRepository{db: db}
}

func (r *ReviewGormRepository) Create(ctx context.Context, rv model.Review) (model.Review, error) {
	if err := r.db.WithContext(ctx).Create(&rv).Error; err != nil {
		return model.Review{}, err
	}
	return rv, nil
}

func (r *ReviewGormRepository) FindByID(ctx context.Context, id int64) (model.Review, error) {
	var rv model.Review
	err := r.db.WithContext(ctx).First(&rv, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Review{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Review{}, err
	}
	return rv, nil
}

// 公開用。承認済みを新しい順
func (r *ReviewGormRepository) ListApproved(ctx context.Context, limit int) ([]model.Review, error) {
	var list []model.Review
	if err := r.db.WithContext(ctx).
		Where("approved = ?", true).
		Order("created_at desc").
		Limit(limit).
		Find(&list).Error; err != nil {
		return []model.Review{}, err
	}
	return list, nil
}

func (r *ReviewGormRepository) ListAll(ctx context.Context) ([]model.Review, error) {
	var list []model.Review
	if err := r.db.WithContext(ctx).
		Order("created_at desc").
		Find(&list).Error; err != nil {
		return []model.Review{}, err
	}
	return list, nil
}

func (r *ReviewGormRepository) Approve(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.Review{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"approved":   true,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *ReviewGormRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Review{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
