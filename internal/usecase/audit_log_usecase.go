package usecase

import (
	"context"
	"net/http"
	"time"

	"florist/internal/domain/model"
	"florist/internal/repository"
)

type AuditLogUsecase struct {
	repo repository.AuditLogRepository
}

func NewAuditLogUsecase(repo repository.AuditLogRepository) *AuditLogUsecase {
	return &AuditLogUsecase{repo: repo}
}

type AuditLogListInput struct {
	Page         int
	Limit        int
	Action       string
	ResourceType string
	ResourceID   *int64
	ActorUserID  *int64
	From         *time.Time
	To           *time.Time
}

type AuditLogListOutput struct {
	Items []model.AuditLog `json:"items"`
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}

func (u *AuditLogUsecase) List(ctx context.Context, adminUserID int64, in AuditLogListInput) (AuditLogListOutput, error) {
	if adminUserID <= 0 {
		return AuditLogListOutput{}, errUnauthorized()
	}

	if in.Page == 0 {
		in.Page = 1
	}
	if in.Limit == 0 {
		in.Limit = 20
	}
	if in.Page < 1 || in.Limit < 1 || in.Limit > 100 {
		return AuditLogListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid paging")
	}
	if in.From != nil && in.To != nil && in.From.After(*in.To) {
		return AuditLogListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid date range")
	}

	f := repository.AuditLogFilter{
		ActorUserID: in.ActorUserID,
		ResourceID:  in.ResourceID,
		CreatedFrom: in.From,
		CreatedTo:   in.To,
		Limit:       in.Limit,
		Offset:      (in.Page - 1) * in.Limit,
	}
	if in.Action != "" {
		a := model.AuditAction(in.Action)
		if !a.Valid() {
			return AuditLogListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid action")
		}
		f.Action = &a
	}
	if in.ResourceType != "" {
		rt := model.AuditResourceType(in.ResourceType)
		if !rt.Valid() {
			return AuditLogListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid resource_type")
		}
		f.ResourceType = &rt
	}

	logs, total, err := u.repo.List(ctx, f)
	if err != nil {
		return AuditLogListOutput{}, errDB()
	}
	if logs == nil {
		logs = []model.AuditLog{}
	}
	return AuditLogListOutput{Items: logs, Total: total, Page: in.Page, Limit: in.Limit}, nil
}
