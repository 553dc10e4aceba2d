package repository

import (
	"context"

	"florist/internal/domain/model"
)

type ReviewRepository interface {
	Create(ctx context.Context, r model.Review) (model.Review, error)
	FindByID(ctx context.Context, id int64) (model.Review, error)
	//承認済みを新しい順に
	ListApproved(ctx context.Context, limit int) ([]model.Review, error)
	//管理者用（全件、新しい順）
	ListAll(ctx context.Context) ([]model.Review, error)
	Approve(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
}
