package usecase_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"florist/internal/domain/model"
	repo "florist/internal/repository"
	"florist/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAuditLog_List_BuildsFilter(t *testing.T) {
	audit := new(AuditRepoMock)
	audit.On("List", mock.Anything, mock.MatchedBy(func(f repo.AuditLogFilter) bool {
		return f.Limit == 10 &&
			f.Offset == 20 &&
			f.Action != nil && *f.Action == model.AuditActionApproveReview &&
			f.ResourceType != nil && *f.ResourceType == model.AuditResourceReview
	})).Return([]model.AuditLog{{ID: 1}}, int64(21), nil).Once()

	uc := usecase.NewAuditLogUsecase(audit)
	out, err := uc.List(context.Background(), 1, usecase.AuditLogListInput{
		Page:         3,
		Limit:        10,
		Action:       "APPROVE_REVIEW",
		ResourceType: "review",
	})
	require.NoError(t, err)
	assert.Len(t, out.Items, 1)
	assert.Equal(t, int64(21), out.Total)
	assert.Equal(t, 3, out.Page)
	audit.AssertExpectations(t)
}

func TestAuditLog_List_Invalid(t *testing.T) {
	uc := usecase.NewAuditLogUsecase(new(AuditRepoMock))
	ctx := context.Background()

	_, err := uc.List(ctx, 1, usecase.AuditLogListInput{Action: "DROP_TABLE"})
	requireHTTPStatus(t, err, http.StatusBadRequest)

	_, err = uc.List(ctx, 1, usecase.AuditLogListInput{ResourceType: "coupon"})
	requireHTTPStatus(t, err, http.StatusBadRequest)

	from := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	to := from.Add(-time.Hour)
	_, err = uc.List(ctx, 1, usecase.AuditLogListInput{From: &from, To: &to})
	requireHTTPStatus(t, err, http.StatusBadRequest)

	_, err = uc.List(ctx, 0, usecase.AuditLogListInput{})
	requireHTTPStatus(t, err, http.StatusUnauthorized)
}

func TestAuditLog_List_DefaultsAndEmpty(t *testing.T) {
	audit := new(AuditRepoMock)
	audit.On("List", mock.Anything, mock.MatchedBy(func(f repo.AuditLogFilter) bool {
		return f.Limit == 20 && f.Offset == 0 && f.Action == nil
	})).Return(nil, int64(0), nil).Once()

	out, err := usecase.NewAuditLogUsecase(audit).List(context.Background(), 1, usecase.AuditLogListInput{})
	require.NoError(t, err)
	assert.NotNil(t, out.Items)
	assert.Equal(t, 1, out.Page)
	assert.Equal(t, 20, out.Limit)
}

func TestAuditLog_List_ProductActionsAreKnown(t *testing.T) {
	audit := new(AuditRepoMock)
	audit.On("List", mock.Anything, mock.Anything).Return([]model.AuditLog{}, int64(0), nil)
	uc := usecase.NewAuditLogUsecase(audit)

	for _, a := range []string{"CREATE_PRODUCT", "UPDATE_PRODUCT", "DELETE_PRODUCT", "UPDATE_STOCK"} {
		_, err := uc.List(context.Background(), 1, usecase.AuditLogListInput{Action: a})
		assert.NoError(t, err, a)
	}
}
