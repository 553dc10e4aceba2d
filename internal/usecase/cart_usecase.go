package usecase

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"florist/internal/domain/coupon"
	"florist/internal/domain/model"
	repo "florist/internal/repository"

	"github.com/shopspring/decimal"
)

// CartUsecase は /cart の業務ロジック。
// 正はDB。cart_<userID> のキャッシュは読み込みの近道としてだけ使う。
type CartUsecase struct {
	cartItemRepo repo.CartItemRepository
	couponRepo   repo.CartCouponRepository
	productRepo  repo.ProductRepository
	cache        repo.CartCache
	log          *slog.Logger
}

func NewCartUsecase(
	cartItemRepo repo.CartItemRepository,
	couponRepo repo.CartCouponRepository,
	productRepo repo.ProductRepository,
	cache repo.CartCache,
	log *slog.Logger,
) *CartUsecase {
	if log == nil {
		log = slog.Default()
	}
	return &CartUsecase{
		cartItemRepo: cartItemRepo,
		couponRepo:   couponRepo,
		productRepo:  productRepo,
		cache:        cache,
		log:          log,
	}
}

// 表示用。価格・名前・画像は現在のカタログから
type CartItemResponse struct {
	ID        int64           `json:"id"`
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	ImageURL  string          `json:"image_url"`
	Stock     int64           `json:"stock"`
	Quantity  int64           `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type CartCouponResponse struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

type CartResponse struct {
	Items     []CartItemResponse  `json:"items"`
	ItemCount int64               `json:"item_count"`
	Subtotal  decimal.Decimal     `json:"subtotal"`
	Coupon    *CartCouponResponse `json:"coupon,omitempty"`
	Discount  decimal.Decimal     `json:"discount"`
	Total     decimal.Decimal     `json:"total"`
}

type AddCartInput struct {
	ProductID int64
	Quantity  int64
}

type UpdateCartItemInput struct {
	Quantity int64
}

// チェックアウト時点のカート（DBから読み直したもの）
type CartSnapshot struct {
	Lines      []model.OrderLine
	Subtotal   decimal.Decimal
	CouponCode string
	Discount   decimal.Decimal
	Payable    decimal.Decimal
}

// キャッシュ優先で明細を返す
func (u *CartUsecase) ListItems(ctx context.Context, userID int64) ([]model.CartItem, error) {
	if userID <= 0 {
		return nil, errUnauthorized()
	}

	if u.cache != nil {
		items, ok, err := u.cache.Get(ctx, userID)
		if err != nil {
			u.log.WarnContext(ctx, "cart cache read failed", "user_id", userID, "err", err)
		}
		if ok {
			return items, nil
		}
	}

	return u.reload(ctx, userID)
}

// DBから読み直してキャッシュを書き直す
func (u *CartUsecase) reload(ctx context.Context, userID int64) ([]model.CartItem, error) {
	items, err := u.cartItemRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, errDB()
	}

	if u.cache != nil {
		if err := u.cache.Set(ctx, userID, items); err != nil {
			u.log.WarnContext(ctx, "cart cache write failed", "user_id", userID, "err", err)
		}
	}
	return items, nil
}

// 注文作成後など、外でカートを消したとき
func (u *CartUsecase) Invalidate(ctx context.Context, userID int64) {
	if u.cache == nil {
		return
	}
	if err := u.cache.Delete(ctx, userID); err != nil {
		u.log.WarnContext(ctx, "cart cache delete failed", "user_id", userID, "err", err)
	}
}

func (u *CartUsecase) GetCart(ctx context.Context, userID int64) (CartResponse, error) {
	items, err := u.ListItems(ctx, userID)
	if err != nil {
		return CartResponse{}, err
	}
	return u.buildCartResponse(ctx, userID, items)
}

// カートに追加（同一商品は数量加算）。数量省略は1
func (u *CartUsecase) AddItem(ctx context.Context, userID int64, in AddCartInput) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, errUnauthorized()
	}
	if in.ProductID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}
	if in.Quantity == 0 {
		in.Quantity = 1
	}
	if in.Quantity < 1 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	p, err := u.activeProduct(ctx, in.ProductID)
	if err != nil {
		return CartResponse{}, err
	}

	//既存数量はDBから
	items, err := u.cartItemRepo.ListByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, errDB()
	}
	var existingQty int64
	for _, it := range items {
		if it.ProductID == in.ProductID {
			existingQty = it.Quantity
			break
		}
	}
	if existingQty+in.Quantity > p.Stock {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "stock exceeded")
	}

	if err := u.cartItemRepo.UpsertByUserAndProduct(ctx, userID, in.ProductID, in.Quantity); err != nil {
		return CartResponse{}, errDB()
	}

	return u.afterMutation(ctx, userID)
}

// 数量変更。1未満は削除と同じ
func (u *CartUsecase) SetQuantity(ctx context.Context, userID int64, cartItemID int64, in UpdateCartItemInput) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, errUnauthorized()
	}
	if cartItemID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if in.Quantity < 1 {
		return u.RemoveItem(ctx, userID, cartItemID)
	}

	item, err := u.cartItemRepo.FindByID(ctx, userID, cartItemID)
	if errors.Is(err, repo.ErrNotFound) {
		return CartResponse{}, errNotFound()
	}
	if err != nil {
		return CartResponse{}, errDB()
	}

	p, err := u.activeProduct(ctx, item.ProductID)
	if err != nil {
		return CartResponse{}, err
	}
	if in.Quantity > p.Stock {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "stock exceeded")
	}

	if err := u.cartItemRepo.UpdateQuantity(ctx, userID, cartItemID, in.Quantity); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return CartResponse{}, errNotFound()
		}
		return CartResponse{}, errDB()
	}

	return u.afterMutation(ctx, userID)
}

// 明細削除。無い明細・他人の明細は何もしない
func (u *CartUsecase) RemoveItem(ctx context.Context, userID int64, cartItemID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, errUnauthorized()
	}
	if cartItemID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := u.cartItemRepo.DeleteByID(ctx, userID, cartItemID); err != nil {
		return CartResponse{}, errDB()
	}

	return u.afterMutation(ctx, userID)
}

// カートを空にしてキャッシュも消す
func (u *CartUsecase) Clear(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return errUnauthorized()
	}
	if err := u.cartItemRepo.DeleteAllByUserID(ctx, userID); err != nil {
		return errDB()
	}
	u.Invalidate(ctx, userID)
	return nil
}

// クーポン適用（既存は置き換え）
func (u *CartUsecase) ApplyCoupon(ctx context.Context, userID int64, code string) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, errUnauthorized()
	}

	c, err := coupon.Lookup(code)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid coupon")
	}

	if err := u.couponRepo.Upsert(ctx, model.CartCoupon{UserID: userID, Code: c.Code, UpdatedAt: time.Now()}); err != nil {
		return CartResponse{}, errDB()
	}
	return u.GetCart(ctx, userID)
}

func (u *CartUsecase) RemoveCoupon(ctx context.Context, userID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, errUnauthorized()
	}
	if err := u.couponRepo.Delete(ctx, userID); err != nil {
		return CartResponse{}, errDB()
	}
	return u.GetCart(ctx, userID)
}

// チェックアウト用。キャッシュは使わず、在庫も確認する
func (u *CartUsecase) Snapshot(ctx context.Context, userID int64) (CartSnapshot, error) {
	if userID <= 0 {
		return CartSnapshot{}, errUnauthorized()
	}

	items, err := u.cartItemRepo.ListByUserID(ctx, userID)
	if err != nil {
		return CartSnapshot{}, errDB()
	}
	if len(items) == 0 {
		return CartSnapshot{}, NewHTTPError(http.StatusBadRequest, "cart empty")
	}

	products, err := u.productRepo.FindByIDs(ctx, productIDs(items))
	if err != nil {
		return CartSnapshot{}, errDB()
	}

	lines := make([]model.OrderLine, 0, len(items))
	for _, it := range items {
		p, ok := products[it.ProductID]
		if !ok || !p.IsActive {
			return CartSnapshot{}, NewHTTPError(http.StatusBadRequest, "product unavailable")
		}
		if it.Quantity > p.Stock {
			return CartSnapshot{}, NewHTTPError(http.StatusBadRequest, "out of stock")
		}
		lines = append(lines, model.OrderLine{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Quantity:  it.Quantity,
			ImageURL:  p.ImageURL,
		})
	}

	snap := CartSnapshot{Lines: lines, Subtotal: model.SumLines(lines)}
	snap.Payable = snap.Subtotal

	code, err := u.activeCouponCode(ctx, userID)
	if err != nil {
		return CartSnapshot{}, err
	}
	if code != "" {
		payable, err := coupon.Apply(code, snap.Subtotal)
		if err == nil {
			snap.CouponCode = code
			snap.Payable = payable
			snap.Discount = snap.Subtotal.Sub(payable)
		}
	}
	return snap, nil
}

func (u *CartUsecase) afterMutation(ctx context.Context, userID int64) (CartResponse, error) {
	items, err := u.reload(ctx, userID)
	if err != nil {
		return CartResponse{}, err
	}
	return u.buildCartResponse(ctx, userID, items)
}

func (u *CartUsecase) activeProduct(ctx context.Context, productID int64) (model.Product, error) {
	p, err := u.productRepo.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid")
	}
	if err != nil {
		return model.Product{}, errDB()
	}
	if !p.IsActive {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid")
	}
	return p, nil
}

// 無ければ空文字
func (u *CartUsecase) activeCouponCode(ctx context.Context, userID int64) (string, error) {
	c, err := u.couponRepo.Find(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", errDB()
	}
	return strings.TrimSpace(c.Code), nil
}

func (u *CartUsecase) buildCartResponse(ctx context.Context, userID int64, items []model.CartItem) (CartResponse, error) {
	products, err := u.productRepo.FindByIDs(ctx, productIDs(items))
	if err != nil {
		return CartResponse{}, errDB()
	}

	resp := CartResponse{Items: make([]CartItemResponse, 0, len(items))}
	subtotal := decimal.Zero

	for _, it := range items {
		p, ok := products[it.ProductID]
		if !ok || !p.IsActive {
			continue
		}
		line := p.Price.Mul(decimal.NewFromInt(it.Quantity))
		resp.Items = append(resp.Items, CartItemResponse{
			ID:        it.ID,
			ProductID: it.ProductID,
			Name:      p.Name,
			Price:     p.Price,
			ImageURL:  p.ImageURL,
			Stock:     p.Stock,
			Quantity:  it.Quantity,
			LineTotal: line,
		})
		resp.ItemCount += it.Quantity
		subtotal = subtotal.Add(line)
	}

	resp.Subtotal = subtotal
	resp.Total = subtotal
	resp.Discount = decimal.Zero

	code, err := u.activeCouponCode(ctx, userID)
	if err != nil {
		return CartResponse{}, err
	}
	if c, err := coupon.Lookup(code); code != "" && err == nil {
		resp.Coupon = &CartCouponResponse{Code: c.Code, Label: c.Label()}
		resp.Total = c.Apply(subtotal)
		resp.Discount = subtotal.Sub(resp.Total)
	}

	return resp, nil
}

func productIDs(items []model.CartItem) []int64 {
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	return ids
}
