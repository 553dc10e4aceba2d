package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"florist/internal/domain/model"
	repo "florist/internal/repository"
)

const (
	defaultReviewLimit = 8
	maxReviewLimit     = 50
)

type ReviewValidator interface {
	ValidateReview(name, email string, rating int, text string) error
}

type ReviewUsecase struct {
	reviews   repo.ReviewRepository
	products  repo.ProductRepository
	auditRepo repo.AuditLogRepository
	storage   repo.ObjectStorage
	validator ReviewValidator
	log       *slog.Logger
}

func NewReviewUsecase(
	reviews repo.ReviewRepository,
	products repo.ProductRepository,
	auditRepo repo.AuditLogRepository,
	storage repo.ObjectStorage,
	validator ReviewValidator,
	log *slog.Logger,
) *ReviewUsecase {
	if log == nil {
		log = slog.Default()
	}
	return &ReviewUsecase{
		reviews:   reviews,
		products:  products,
		auditRepo: auditRepo,
		storage:   storage,
		validator: validator,
		log:       log,
	}
}

type SubmitReviewInput struct {
	CustomerName  string
	CustomerEmail string
	Rating        int
	ReviewText    string
	ProductID     *int64
	Photo         *ImageUpload
}

// 投稿は常に未承認
func (u *ReviewUsecase) Submit(ctx context.Context, in SubmitReviewInput) (model.Review, error) {
	name := strings.TrimSpace(in.CustomerName)
	email := strings.TrimSpace(in.CustomerEmail)
	text := strings.TrimSpace(in.ReviewText)

	if err := u.validator.ValidateReview(name, email, in.Rating, text); err != nil {
		return model.Review{}, NewHTTPError(http.StatusBadRequest, err.Error())
	}

	rv := model.Review{
		CustomerName:  name,
		CustomerEmail: email,
		Rating:        in.Rating,
		ReviewText:    text,
		Approved:      false,
	}

	if in.ProductID != nil {
		p, err := u.products.FindByID(ctx, *in.ProductID)
		if errors.Is(err, repo.ErrNotFound) {
			return model.Review{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
		}
		if err != nil {
			return model.Review{}, errDB()
		}
		rv.ProductID = &p.ID
		rv.ProductName = p.Name
	}

	if in.Photo != nil {
		if len(in.Photo.Data) > maxImageBytes {
			return model.Review{}, NewHTTPError(http.StatusBadRequest, "photo too large")
		}
		if !strings.HasPrefix(in.Photo.ContentType, "image/") {
			return model.Review{}, NewHTTPError(http.StatusBadRequest, "photo must be an image")
		}
		if u.storage == nil {
			return model.Review{}, NewHTTPError(http.StatusServiceUnavailable, "image storage unavailable")
		}
		url, err := u.storage.Upload(ctx, "reviews", in.Photo.Filename, in.Photo.ContentType, in.Photo.Data)
		if err != nil {
			u.log.ErrorContext(ctx, "review photo upload failed", "err", err)
			return model.Review{}, NewHTTPError(http.StatusBadGateway, "photo upload failed")
		}
		rv.PhotoURL = url
	}

	now := time.Now()
	rv.CreatedAt = now
	rv.UpdatedAt = now

	saved, err := u.reviews.Create(ctx, rv)
	if err != nil {
		if rv.PhotoURL != "" {
			_ = u.storage.Delete(ctx, rv.PhotoURL)
		}
		return model.Review{}, errDB()
	}
	return saved, nil
}

// 承認済みを新しい順。limitは省略8、最大50
func (u *ReviewUsecase) ListApproved(ctx context.Context, limit int) ([]model.Review, error) {
	if limit == 0 {
		limit = defaultReviewLimit
	}
	if limit < 1 || limit > maxReviewLimit {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	list, err := u.reviews.ListApproved(ctx, limit)
	if err != nil {
		return nil, errDB()
	}
	return list, nil
}

func (u *ReviewUsecase) AdminList(ctx context.Context, adminUserID int64) ([]model.Review, error) {
	if adminUserID <= 0 {
		return nil, errUnauthorized()
	}
	list, err := u.reviews.ListAll(ctx)
	if err != nil {
		return nil, errDB()
	}
	return list, nil
}

func (u *ReviewUsecase) Approve(ctx context.Context, adminUserID int64, reviewID int64) error {
	if adminUserID <= 0 {
		return errUnauthorized()
	}
	if reviewID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	before, err := u.reviews.FindByID(ctx, reviewID)
	if errors.Is(err, repo.ErrNotFound) {
		return errNotFound()
	}
	if err != nil {
		return errDB()
	}
	if before.Approved {
		return nil
	}

	if err := u.reviews.Approve(ctx, reviewID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errNotFound()
		}
		return errDB()
	}

	return u.audit(ctx, adminUserID, model.AuditActionApproveReview, before, `{"approved":true}`)
}

// 写真もストレージから消す
func (u *ReviewUsecase) Delete(ctx context.Context, adminUserID int64, reviewID int64) error {
	if adminUserID <= 0 {
		return errUnauthorized()
	}
	if reviewID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	before, err := u.reviews.FindByID(ctx, reviewID)
	if errors.Is(err, repo.ErrNotFound) {
		return errNotFound()
	}
	if err != nil {
		return errDB()
	}

	if err := u.reviews.Delete(ctx, reviewID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errNotFound()
		}
		return errDB()
	}

	if before.PhotoURL != "" && u.storage != nil {
		if err := u.storage.Delete(ctx, before.PhotoURL); err != nil {
			u.log.WarnContext(ctx, "review photo delete failed", "review_id", reviewID, "err", err)
		}
	}

	return u.audit(ctx, adminUserID, model.AuditActionDeleteReview, before, `{}`)
}

func (u *ReviewUsecase) audit(ctx context.Context, actor int64, action model.AuditAction, before model.Review, afterJSON string) error {
	b, err := json.Marshal(before)
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if err := u.auditRepo.Create(ctx, model.AuditLog{
		ActorUserID:  actor,
		Action:       action,
		ResourceType: model.AuditResourceReview,
		ResourceID:   before.ID,
		BeforeJSON:   string(b),
		AfterJSON:    afterJSON,
		CreatedAt:    time.Now(),
	}); err != nil {
		return errDB()
	}
	return nil
}
