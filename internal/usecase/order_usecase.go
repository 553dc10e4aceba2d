package usecase

import (
	"context"
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

// 注文ストア。作成は支払い成功（またはCOD）の後だけ
type OrderUsecase struct {
	tx    repo.TransactionManager
	cart  *CartUsecase
	log   *slog.Logger
	clock func() time.Time
}

func NewOrderUsecase(tx repo.TransactionManager, cart *CartUsecase, log *slog.Logger) *OrderUsecase {
	if log == nil {
		log = slog.Default()
	}
	return &OrderUsecase{tx: tx, cart: cart, log: log, clock: time.Now}
}

type CreateOrderInput struct {
	Lines    []model.OrderLine
	Shipping model.ShippingDetails
	Payment  model.PaymentDetails

	CouponCode string
	Discount   decimal.Decimal
	Payable    decimal.Decimal

	// 決済注文IDなど。同じキーなら同じ注文を返す
	IdempotencyKey string
}

type OrderItemOutput struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int64           `json:"quantity"`
	ImageURL  string          `json:"image_url"`
}

type OrderOutput struct {
	ID              int64                 `json:"id"`
	UserID          int64                 `json:"user_id"`
	Status          string                `json:"status"`
	NextStatus      string                `json:"next_status,omitempty"`
	Total           decimal.Decimal       `json:"total"`
	CouponCode      string                `json:"coupon_code,omitempty"`
	Discount        decimal.Decimal       `json:"discount"`
	PayableTotal    decimal.Decimal       `json:"payable_total"`
	CustomerDetails model.ShippingDetails `json:"customer_details"`
	PaymentDetails  model.PaymentDetails  `json:"payment_details"`
	CreatedAt       time.Time             `json:"created_at"`
	Items           []OrderItemOutput     `json:"items"`
}

type OrderListOutput struct {
	Items []OrderOutput `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

// 注文作成。明細の合計を計算し、カートとクーポンを消し、在庫を減らす。
// ここまでを1トランザクションで行う。
func (u *OrderUsecase) CreateOrder(ctx context.Context, userID int64, in CreateOrderInput) (int64, error) {
	if userID <= 0 {
		return 0, errUnauthorized()
	}
	if len(in.Lines) == 0 {
		return 0, NewHTTPError(http.StatusBadRequest, "cart empty")
	}
	for _, l := range in.Lines {
		if l.Quantity < 1 || l.Price.IsNegative() {
			return 0, NewHTTPError(http.StatusBadRequest, "invalid line item")
		}
	}
	key := strings.TrimSpace(in.IdempotencyKey)
	if key == "" || len(key) > 255 {
		return 0, NewHTTPError(http.StatusBadRequest, "invalid idempotency_key")
	}

	total := model.SumLines(in.Lines)
	payable := in.Payable
	if payable.IsZero() && in.CouponCode == "" {
		payable = total
	}

	status := model.OrderStatusPending
	if in.Payment.Status == model.PaymentStatusPaid {
		status = model.OrderStatusProcessing
	}

	var orderID int64
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 同じキーなら同じ結果
		existing, found, err := r.Orders().FindByIdempotencyKey(ctx, userID, key)
		if err != nil {
			return errDB()
		}
		if found {
			orderID = existing.ID
			return nil
		}

		now := u.clock()
		id, err := r.Orders().Create(ctx, model.Order{
			UserID:         userID,
			Status:         status,
			Total:          total,
			CouponCode:     in.CouponCode,
			Discount:       in.Discount,
			PayableTotal:   payable,
			Shipping:       in.Shipping,
			Payment:        in.Payment,
			IdempotencyKey: key,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
		if err != nil {
			return errDB()
		}

		items := make([]model.OrderItem, 0, len(in.Lines))
		for _, l := range in.Lines {
			items = append(items, model.OrderItem{
				ProductID:           l.ProductID,
				ProductNameSnapshot: l.Name,
				UnitPriceSnapshot:   l.Price,
				ImageURLSnapshot:    l.ImageURL,
				Quantity:            l.Quantity,
				CreatedAt:           now,
			})
		}
		if err := r.OrderItems().CreateBulk(ctx, id, items); err != nil {
			return errDB()
		}

		//支払い済みの注文は在庫不足で失敗させない（あるだけ引く）
		for _, l := range in.Lines {
			taken, err := r.Inventory().Take(ctx, l.ProductID, l.Quantity)
			if errors.Is(err, repo.ErrNotFound) {
				continue
			}
			if err != nil {
				return errDB()
			}
			if taken < l.Quantity {
				u.log.WarnContext(ctx, "stock short on order", "order_id", id, "product_id", l.ProductID, "want", l.Quantity, "taken", taken)
			}
			if taken == 0 {
				continue
			}
			if err := r.Inventory().RecordAdjustment(ctx, model.InventoryAdjustment{
				ProductID:   l.ProductID,
				Kind:        model.AdjustmentOrder,
				OrderID:     &id,
				ActorUserID: userID,
				Delta:       -taken,
				Reason:      fmt.Sprintf("order #%d", id),
				CreatedAt:   now,
			}); err != nil {
				return errDB()
			}
		}

		if err := r.CartItems().DeleteAllByUserID(ctx, userID); err != nil {
			return errDB()
		}
		if err := r.CartCoupons().Delete(ctx, userID); err != nil {
			return errDB()
		}

		orderID = id
		return nil
	})
	if err != nil {
		if _, ok := AsHTTPError(err); ok {
			return 0, err
		}
		return 0, errDB()
	}

	if u.cart != nil {
		u.cart.Invalidate(ctx, userID)
	}
	u.log.InfoContext(ctx, "order created", "order_id", orderID, "user_id", userID, "status", status, "payment_method", in.Payment.Method)
	return orderID, nil
}

func (u *OrderUsecase) ListForCustomer(ctx context.Context, userID int64, page int, limit int) (OrderListOutput, error) {
	if userID <= 0 {
		return OrderListOutput{}, errUnauthorized()
	}
	if page < 1 {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if limit < 1 || limit > 100 {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	var out OrderListOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, total, err := r.Orders().List(ctx, repo.OrderQuery{UserID: &userID, Page: page, Limit: limit})
		if err != nil {
			return errDB()
		}
		outs, err := withItems(ctx, r.OrderItems(), orders)
		if err != nil {
			return err
		}
		out = OrderListOutput{Items: outs, Total: total, Page: page, Limit: limit}
		return nil
	})
	if err != nil {
		return OrderListOutput{}, err
	}
	return out, nil
}

func (u *OrderUsecase) GetForCustomer(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, errUnauthorized()
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return errNotFound()
		}
		if err != nil {
			return errDB()
		}
		if o.UserID != userID {
			//他人の注文は「存在しない扱い」にする
			return errNotFound()
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return errDB()
		}
		out = toOrderOutput(o, items)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

func withItems(ctx context.Context, itemRepo repo.OrderItemRepository, orders []model.Order) ([]OrderOutput, error) {
	ids := make([]int64, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	byOrder, err := itemRepo.ListByOrderIDs(ctx, ids)
	if err != nil {
		return nil, errDB()
	}

	outs := make([]OrderOutput, 0, len(orders))
	for _, o := range orders {
		outs = append(outs, toOrderOutput(o, byOrder[o.ID]))
	}
	return outs, nil
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID: it.ProductID,
			Name:      it.ProductNameSnapshot,
			Price:     it.UnitPriceSnapshot,
			Quantity:  it.Quantity,
			ImageURL:  it.ImageURLSnapshot,
		})
	}

	out := OrderOutput{
		ID:              o.ID,
		UserID:          o.UserID,
		Status:          string(o.Status),
		Total:           o.Total,
		CouponCode:      o.CouponCode,
		Discount:        o.Discount,
		PayableTotal:    o.PayableTotal,
		CustomerDetails: o.Shipping,
		PaymentDetails:  o.Payment,
		CreatedAt:       o.CreatedAt,
		Items:           outItems,
	}
	if next, ok := o.Status.Next(); ok {
		out.NextStatus = string(next)
	}
	return out
}
