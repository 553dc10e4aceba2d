package repository

import (
	"context"
	"time"

	"florist/internal/domain/model"
)

// 見つからないときは (nil, nil)。
type UserRepository interface {
	// email重複はErrConflict
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, userID int64) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	RecordLogin(ctx context.Context, userID int64, at time.Time) error
	// 新しいtoken_versionを返す。対象が無ければErrNotFound
	BumpTokenVersion(ctx context.Context, userID int64) (int, error)
}
