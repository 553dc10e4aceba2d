package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"florist/internal/domain/model"
	repo "florist/internal/repository"

	"github.com/shopspring/decimal"
)

const maxImageBytes = 5 << 20

type ProductUsecase struct {
	productRepo repo.ProductRepository
	tx          repo.TransactionManager
	storage     repo.ObjectStorage
	log         *slog.Logger
}

// DI
func NewProductUsecase(
	productRepo repo.ProductRepository,
	tx repo.TransactionManager,
	storage repo.ObjectStorage,
	log *slog.Logger,
) *ProductUsecase {
	if log == nil {
		log = slog.Default()
	}
	return &ProductUsecase{
		productRepo: productRepo,
		tx:          tx,
		storage:     storage,
		log:         log,
	}
}

// GET /products, GET /admin/products の入力
type ListProductsInput struct {
	Page        int
	Limit       int
	Q           string
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
	Sort        string
	InStockOnly bool
}

type ProductListOutput struct {
	Items []model.Product `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

// アップロードされた画像
type ImageUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

func (u *ProductUsecase) ListPublicProducts(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	return u.list(ctx, in, false)
}

// 非公開の商品も含めた一覧
func (u *ProductUsecase) AdminListProducts(ctx context.Context, adminUserID int64, in ListProductsInput) (ProductListOutput, error) {
	if adminUserID <= 0 {
		return ProductListOutput{}, errUnauthorized()
	}
	return u.list(ctx, in, true)
}

func (u *ProductUsecase) list(ctx context.Context, in ListProductsInput, includeInactive bool) (ProductListOutput, error) {
	if in.Page < 1 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if len(in.Q) > 100 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "q too long")
	}
	if in.MinPrice != nil && in.MinPrice.IsNegative() {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "min_price must be >= 0")
	}
	if in.MaxPrice != nil && in.MaxPrice.IsNegative() {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "max_price must be >= 0")
	}
	if in.MinPrice != nil && in.MaxPrice != nil && in.MinPrice.GreaterThan(*in.MaxPrice) {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "min_price must be <= max_price")
	}
	sort := repo.ProductSort(in.Sort)
	if !sort.Valid() {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid sort")
	}

	items, total, err := u.productRepo.List(ctx, repo.ProductQuery{
		Page:            in.Page,
		Limit:           in.Limit,
		Search:          strings.TrimSpace(in.Q),
		MinPrice:        in.MinPrice,
		MaxPrice:        in.MaxPrice,
		Sort:            sort,
		InStockOnly:     in.InStockOnly,
		IncludeInactive: includeInactive,
	})
	if err != nil {
		return ProductListOutput{}, errDB()
	}

	return ProductListOutput{
		Items: items,
		Total: total,
		Page:  in.Page,
		Limit: in.Limit,
	}, nil
}

func (u *ProductUsecase) GetProductDetail(ctx context.Context, productID int64) (model.Product, error) {
	if productID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	p, err := u.productRepo.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, errNotFound()
	}
	if err != nil {
		return model.Product{}, errDB()
	}

	if !p.IsActive {
		return model.Product{}, errNotFound()
	}
	return p, nil
}

type AdminProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	// nilなら変えない
	Stock    *int64
	IsActive bool
	// nilなら画像は変えない（新規ならプレースホルダ）
	Image *ImageUpload
}

func validateProductInput(in AdminProductInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return NewHTTPError(http.StatusBadRequest, "name required")
	}
	if in.Price.IsNegative() {
		return NewHTTPError(http.StatusBadRequest, "price must be >= 0")
	}
	if !in.Price.Equal(in.Price.Round(2)) {
		return NewHTTPError(http.StatusBadRequest, "price must have at most 2 decimals")
	}
	if in.Stock != nil && *in.Stock < 0 {
		return NewHTTPError(http.StatusBadRequest, "stock must be >= 0")
	}
	if in.Image != nil {
		if len(in.Image.Data) == 0 {
			return NewHTTPError(http.StatusBadRequest, "image is empty")
		}
		if len(in.Image.Data) > maxImageBytes {
			return NewHTTPError(http.StatusBadRequest, "image too large")
		}
		if !strings.HasPrefix(in.Image.ContentType, "image/") {
			return NewHTTPError(http.StatusBadRequest, "image must be an image")
		}
	}
	return nil
}

func (u *ProductUsecase) uploadImage(ctx context.Context, folder string, img *ImageUpload) (string, error) {
	if u.storage == nil {
		return "", NewHTTPError(http.StatusServiceUnavailable, "image storage unavailable")
	}
	url, err := u.storage.Upload(ctx, folder, img.Filename, img.ContentType, img.Data)
	if err != nil {
		u.log.ErrorContext(ctx, "image upload failed", "folder", folder, "err", err)
		return "", NewHTTPError(http.StatusBadGateway, "image upload failed")
	}
	return url, nil
}

// 置き換え・削除された古い画像。失敗してもログだけ
func (u *ProductUsecase) deleteImage(ctx context.Context, url string) {
	if u.storage == nil {
		return
	}
	if err := u.storage.Delete(ctx, url); err != nil {
		u.log.WarnContext(ctx, "old image delete failed", "url", url, "err", err)
	}
}

func (u *ProductUsecase) AdminCreateProduct(ctx context.Context, adminUserID int64, in AdminProductInput) (int64, error) {
	if adminUserID <= 0 {
		return 0, errUnauthorized()
	}
	if err := validateProductInput(in); err != nil {
		return 0, err
	}

	imageURL := model.PlaceholderImageURL
	if in.Image != nil {
		url, err := u.uploadImage(ctx, "products", in.Image)
		if err != nil {
			return 0, err
		}
		imageURL = url
	}

	now := time.Now()
	var created model.Product
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Products().Create(ctx, model.Product{
			Name:        strings.TrimSpace(in.Name),
			Description: in.Description,
			Price:       in.Price.Round(2),
			ImageURL:    imageURL,
			Stock:       derefOr(in.Stock, 0),
			IsActive:    in.IsActive,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
		if err != nil {
			return err
		}
		created = p
		return r.AuditLogs().Create(ctx, productAudit(adminUserID, model.AuditActionCreateProduct, p.ID, nil, &p, now))
	})
	if err != nil {
		if imageURL != model.PlaceholderImageURL {
			u.deleteImage(ctx, imageURL)
		}
		return 0, errDB()
	}
	return created.ID, nil
}

func (u *ProductUsecase) AdminUpdateProduct(ctx context.Context, adminUserID int64, productID int64, in AdminProductInput) error {
	if adminUserID <= 0 {
		return errUnauthorized()
	}
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	if err := validateProductInput(in); err != nil {
		return err
	}

	current, err := u.productRepo.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return errNotFound()
	}
	if err != nil {
		return errDB()
	}

	imageURL := current.ImageURL
	if in.Image != nil {
		url, err := u.uploadImage(ctx, "products", in.Image)
		if err != nil {
			return err
		}
		imageURL = url
	}

	now := time.Now()
	next := model.Product{
		ID:          productID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price.Round(2),
		ImageURL:    imageURL,
		Stock:       derefOr(in.Stock, current.Stock),
		IsActive:    in.IsActive,
		UpdatedAt:   now,
	}
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := r.Products().Update(ctx, next); err != nil {
			return err
		}
		if in.Stock != nil {
			prev, err := r.Inventory().SetStock(ctx, productID, *in.Stock)
			if err != nil {
				return err
			}
			if prev != *in.Stock {
				if err := r.Inventory().RecordAdjustment(ctx, model.InventoryAdjustment{
					ProductID:   productID,
					Kind:        model.AdjustmentManual,
					ActorUserID: adminUserID,
					Delta:       *in.Stock - prev,
					Reason:      "product edit",
					CreatedAt:   now,
				}); err != nil {
					return err
				}
			}
		}
		return r.AuditLogs().Create(ctx, productAudit(adminUserID, model.AuditActionUpdateProduct, productID, &current, &next, now))
	})
	if err != nil {
		//新しい画像は使われないので消す
		if in.Image != nil {
			u.deleteImage(ctx, imageURL)
		}
		if errors.Is(err, repo.ErrNotFound) {
			return errNotFound()
		}
		return errDB()
	}

	if in.Image != nil && current.HasStoredImage() {
		u.deleteImage(ctx, current.ImageURL)
	}
	return nil
}

func (u *ProductUsecase) AdminDeleteProduct(ctx context.Context, adminUserID int64, productID int64) error {
	if adminUserID <= 0 {
		return errUnauthorized()
	}
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	current, err := u.productRepo.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return errNotFound()
	}
	if err != nil {
		return errDB()
	}

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := r.Products().SoftDelete(ctx, productID); err != nil {
			return err
		}
		return r.AuditLogs().Create(ctx, productAudit(adminUserID, model.AuditActionDeleteProduct, productID, &current, nil, time.Now()))
	})
	if errors.Is(err, repo.ErrNotFound) {
		return errNotFound()
	}
	if err != nil {
		return errDB()
	}

	//過去の注文は画像URLのスナップショットを持つが、実体は消す
	if current.HasStoredImage() {
		u.deleteImage(ctx, current.ImageURL)
	}
	return nil
}

// 在庫を「現在値」に更新し、調整履歴と監査ログを同じトランザクションで残す
func (u *ProductUsecase) AdminUpdateInventory(ctx context.Context, adminUserID int64, productID int64, newStock int64, reason string) error {
	if adminUserID <= 0 {
		return errUnauthorized()
	}
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	if newStock < 0 {
		return NewHTTPError(http.StatusBadRequest, "stock must be >= 0")
	}
	if strings.TrimSpace(reason) == "" {
		return NewHTTPError(http.StatusBadRequest, "reason required")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		prev, err := r.Inventory().SetStock(ctx, productID, newStock)
		if errors.Is(err, repo.ErrNotFound) {
			return errNotFound()
		}
		if err != nil {
			return errDB()
		}

		now := time.Now()
		if err := r.Inventory().RecordAdjustment(ctx, model.InventoryAdjustment{
			ProductID:   productID,
			Kind:        model.AdjustmentManual,
			ActorUserID: adminUserID,
			Delta:       newStock - prev,
			Reason:      strings.TrimSpace(reason),
			CreatedAt:   now,
		}); err != nil {
			return errDB()
		}

		//「誰が」「何を」「どの対象に」「どう変えたか」を残す
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  adminUserID,
			Action:       model.AuditActionUpdateStock,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   productID,
			BeforeJSON:   fmt.Sprintf(`{"stock":%d}`, prev),
			AfterJSON:    fmt.Sprintf(`{"stock":%d}`, newStock),
			CreatedAt:    now,
		}); err != nil {
			return errDB()
		}
		return nil
	})
}

func derefOr[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}

// 監査ログに残す商品の項目
type productAuditView struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Stock    int64           `json:"stock"`
	IsActive bool            `json:"is_active"`
	ImageURL string          `json:"image_url"`
}

func productAudit(actor int64, action model.AuditAction, productID int64, before, after *model.Product, at time.Time) model.AuditLog {
	view := func(p *model.Product) string {
		if p == nil {
			return ""
		}
		b, _ := json.Marshal(productAuditView{Name: p.Name, Price: p.Price, Stock: p.Stock, IsActive: p.IsActive, ImageURL: p.ImageURL})
		return string(b)
	}
	return model.AuditLog{
		ActorUserID:  actor,
		Action:       action,
		ResourceType: model.AuditResourceProduct,
		ResourceID:   productID,
		BeforeJSON:   view(before),
		AfterJSON:    view(after),
		CreatedAt:    at,
	}
}
