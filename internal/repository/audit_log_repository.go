package repository

import (
	"context"
	"time"

	"florist/internal/domain/model"
)

// nilの項目は絞り込まない
type AuditLogFilter struct {
	ActorUserID  *int64
	Action       *model.AuditAction
	ResourceType *model.AuditResourceType
	ResourceID   *int64
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	Limit        int
	Offset       int
}

type AuditLogRepository interface {
	Create(ctx context.Context, log model.AuditLog) error
	//新しい順。件数はページング前の総数
	List(ctx context.Context, filter AuditLogFilter) ([]model.AuditLog, int64, error)
}
