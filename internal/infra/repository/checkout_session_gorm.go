package repository

import (
	"context"
	"errors"

	"florist/internal/domain/model"
	repo "florist/internal/repository"

	"gorm.io/gorm"
)

type CheckoutSessionGormRepository struct {
	db *gorm.DB
}

func NewCheckoutSessionGormRepository(db *gorm.DB) *CheckoutSessionGormRepository {
	return &CheckoutSessionGormRepository{db: db}
}

func (r *CheckoutSessionGormRepository) Create(ctx context.Context, s model.CheckoutSession) error {
	return r.db.WithContext(ctx).Create(&s).Error
}

func (r *CheckoutSessionGormRepository) FindByID(ctx context.Context, id string) (model.CheckoutSession, error) {
	var s model.CheckoutSession
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.CheckoutSession{}, repo.ErrNotFound
	}
	if err != nil {
		return model.CheckoutSession{}, err
	}
	return s, nil
}

// 同じコールバックが2回届いても、更新できるのは最初の1回だけ
func (r *CheckoutSessionGormRepository) CompareAndSetStatus(ctx context.Context, id string, from, to model.CheckoutStatus, fields repo.CheckoutResultFields) (bool, error) {
	updates := map[string]interface{}{"status": to}
	if fields.TransactionID != "" {
		updates["transaction_id"] = fields.TransactionID
	}

	res := r.db.WithContext(ctx).
		Model(&model.CheckoutSession{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *CheckoutSessionGormRepository) AttachOrder(ctx context.Context, id string, orderID int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.CheckoutSession{}).
		Where("id = ?", id).
		Update("order_id", orderID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *CheckoutSessionGormRepository) RecordFailure(ctx context.Context, id string, reason string) error {
	res := r.db.WithContext(ctx).
		Model(&model.CheckoutSession{}).
		Where("id = ?", id).
		Update("failure_reason", reason)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
