package usecase

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"florist/internal/domain/model"
	"florist/internal/payment"
	repo "florist/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// 決済アダプタのうちチェックアウトで使う部分
type PaymentAdapter interface {
	CreatePaymentOrder(ctx context.Context, amountMinor int64, receipt string) (payment.PaymentOrder, error)
	OpenCheckout(ctx context.Context, session model.CheckoutSession, opts payment.CheckoutOptions) (payment.WidgetConfig, error)
	Deliver(ctx context.Context, sessionID string, userID int64, outcome payment.Outcome) (model.CheckoutSession, error)
}

// 配送先の入力チェック。メッセージはそのまま400で返す
type ShippingValidator interface {
	ValidateShipping(d model.ShippingDetails) error
}

type CheckoutConfig struct {
	StoreName   string
	Description string
	ThemeColor  string
}

type CheckoutUsecase struct {
	cart      *CartUsecase
	orders    *OrderUsecase
	payments  PaymentAdapter
	sessions  repo.CheckoutSessionRepository
	validator ShippingValidator
	cfg       CheckoutConfig
	log       *slog.Logger
}

func NewCheckoutUsecase(
	cart *CartUsecase,
	orders *OrderUsecase,
	payments PaymentAdapter,
	sessions repo.CheckoutSessionRepository,
	validator ShippingValidator,
	cfg CheckoutConfig,
	log *slog.Logger,
) *CheckoutUsecase {
	if log == nil {
		log = slog.Default()
	}
	if cfg.Description == "" {
		cfg.Description = "Flower order"
	}
	return &CheckoutUsecase{
		cart:      cart,
		orders:    orders,
		payments:  payments,
		sessions:  sessions,
		validator: validator,
		cfg:       cfg,
		log:       log,
	}
}

type CheckoutInput struct {
	Shipping      model.ShippingDetails
	PaymentMethod string
}

type CheckoutOutput struct {
	PaymentMethod string                `json:"payment_method"`
	Subtotal      decimal.Decimal       `json:"subtotal"`
	CouponCode    string                `json:"coupon_code,omitempty"`
	Discount      decimal.Decimal       `json:"discount"`
	Payable       decimal.Decimal       `json:"payable"`
	OrderID       *int64                `json:"order_id,omitempty"`
	Checkout      *payment.WidgetConfig `json:"checkout,omitempty"`
}

type ConfirmPaymentInput struct {
	PaymentID string
	OrderID   string
	Signature string
}

type CheckoutSessionOutput struct {
	SessionID     string          `json:"session_id"`
	Status        string          `json:"status"`
	Payable       decimal.Decimal `json:"payable"`
	TransactionID string          `json:"transaction_id,omitempty"`
	OrderID       *int64          `json:"order_id,omitempty"`
}

// チェックアウト開始。CODは即注文、Razorpayはウィジェット設定を返す
func (u *CheckoutUsecase) Start(ctx context.Context, userID int64, in CheckoutInput) (CheckoutOutput, error) {
	if userID <= 0 {
		return CheckoutOutput{}, errUnauthorized()
	}

	shipping := normalizeShipping(in.Shipping)
	if err := u.validator.ValidateShipping(shipping); err != nil {
		return CheckoutOutput{}, NewHTTPError(http.StatusBadRequest, err.Error())
	}

	method := model.PaymentMethod(strings.ToLower(strings.TrimSpace(in.PaymentMethod)))
	if method == "" {
		method = model.PaymentMethodRazorpay
	}
	if method != model.PaymentMethodRazorpay && method != model.PaymentMethodCOD {
		return CheckoutOutput{}, NewHTTPError(http.StatusBadRequest, "invalid payment_method")
	}

	snap, err := u.cart.Snapshot(ctx, userID)
	if err != nil {
		return CheckoutOutput{}, err
	}

	out := CheckoutOutput{
		PaymentMethod: string(method),
		Subtotal:      snap.Subtotal,
		CouponCode:    snap.CouponCode,
		Discount:      snap.Discount,
		Payable:       snap.Payable,
	}

	amountMinor := payment.ToMinorUnits(snap.Payable)

	//CODと、クーポンで0円になった注文はゲートウェイを通さない
	if method == model.PaymentMethodCOD || amountMinor <= 0 {
		pay := model.PaymentDetails{Method: model.PaymentMethodCOD, Status: model.PaymentStatusPending}
		key := "cod_" + uuid.NewString()
		if method == model.PaymentMethodRazorpay {
			pay = model.PaymentDetails{Method: model.PaymentMethodRazorpay, Status: model.PaymentStatusPaid}
			key = "free_" + uuid.NewString()
		}

		orderID, err := u.orders.CreateOrder(ctx, userID, CreateOrderInput{
			Lines:          snap.Lines,
			Shipping:       shipping,
			Payment:        pay,
			CouponCode:     snap.CouponCode,
			Discount:       snap.Discount,
			Payable:        snap.Payable,
			IdempotencyKey: key,
		})
		if err != nil {
			return CheckoutOutput{}, err
		}
		out.OrderID = &orderID
		return out, nil
	}

	receipt := newReceipt()
	po, err := u.payments.CreatePaymentOrder(ctx, amountMinor, receipt)
	if err != nil {
		if errors.Is(err, payment.ErrGatewayUnavailable) {
			return CheckoutOutput{}, NewHTTPError(http.StatusServiceUnavailable, "payment gateway unavailable")
		}
		return CheckoutOutput{}, NewHTTPError(http.StatusBadGateway, "failed to create payment order")
	}

	widget, err := u.payments.OpenCheckout(ctx, model.CheckoutSession{
		UserID:     userID,
		Receipt:    receipt,
		Subtotal:   snap.Subtotal,
		CouponCode: snap.CouponCode,
		Discount:   snap.Discount,
		Payable:    snap.Payable,
		Items:      snap.Lines,
		Shipping:   shipping,
	}, payment.CheckoutOptions{
		Amount:      amountMinor,
		Currency:    po.Currency,
		Name:        u.cfg.StoreName,
		Description: u.cfg.Description,
		OrderID:     po.ID,
		Prefill: payment.Prefill{
			Name:    shipping.Name,
			Email:   shipping.Email,
			Contact: shipping.Phone,
		},
		Theme:     payment.Theme{Color: u.cfg.ThemeColor},
		OnSuccess: u.onPaymentSuccess,
		OnCancel:  u.onPaymentCancel,
	})
	if errors.Is(err, payment.ErrGatewayUnavailable) {
		return CheckoutOutput{}, NewHTTPError(http.StatusServiceUnavailable, "payment gateway unavailable")
	}
	if err != nil {
		return CheckoutOutput{}, errDB()
	}

	out.Checkout = &widget
	return out, nil
}

// ウィジェットの handler(response) に相当
func (u *CheckoutUsecase) ConfirmPayment(ctx context.Context, userID int64, sessionID string, in ConfirmPaymentInput) (CheckoutSessionOutput, error) {
	if userID <= 0 {
		return CheckoutSessionOutput{}, errUnauthorized()
	}
	paymentID := strings.TrimSpace(in.PaymentID)
	if paymentID == "" {
		return CheckoutSessionOutput{}, NewHTTPError(http.StatusBadRequest, "razorpay_payment_id required")
	}

	s, err := u.payments.Deliver(ctx, sessionID, userID, payment.Succeeded(paymentID))
	switch {
	case err == nil:
		//注文IDはコールバック内で付くので読み直す
		if latest, ferr := u.sessions.FindByID(ctx, sessionID); ferr == nil {
			s = latest
		}
		return toSessionOutput(s), nil
	case errors.Is(err, payment.ErrSessionNotFound):
		return CheckoutSessionOutput{}, errNotFound()
	case errors.Is(err, payment.ErrAlreadyDelivered):
		if s.Status == model.CheckoutStatusCancelled {
			return CheckoutSessionOutput{}, NewHTTPError(http.StatusConflict, "checkout already cancelled")
		}
		if s.OrderID == nil && s.FailureReason != "" {
			return CheckoutSessionOutput{}, NewHTTPError(http.StatusBadGateway, payment.ErrOrderAfterPayment.Error())
		}
		return toSessionOutput(s), nil
	case errors.Is(err, payment.ErrOrderAfterPayment):
		return CheckoutSessionOutput{}, NewHTTPError(http.StatusBadGateway, payment.ErrOrderAfterPayment.Error())
	default:
		return CheckoutSessionOutput{}, errDB()
	}
}

// modal.ondismiss に相当。カートには触らない
func (u *CheckoutUsecase) CancelPayment(ctx context.Context, userID int64, sessionID string) (CheckoutSessionOutput, error) {
	if userID <= 0 {
		return CheckoutSessionOutput{}, errUnauthorized()
	}

	s, err := u.payments.Deliver(ctx, sessionID, userID, payment.Cancelled())
	switch {
	case err == nil:
		return toSessionOutput(s), nil
	case errors.Is(err, payment.ErrSessionNotFound):
		return CheckoutSessionOutput{}, errNotFound()
	case errors.Is(err, payment.ErrAlreadyDelivered):
		if s.Status == model.CheckoutStatusSucceeded {
			return CheckoutSessionOutput{}, NewHTTPError(http.StatusConflict, "checkout already paid")
		}
		return toSessionOutput(s), nil
	default:
		return CheckoutSessionOutput{}, errDB()
	}
}

func (u *CheckoutUsecase) GetSession(ctx context.Context, userID int64, sessionID string) (CheckoutSessionOutput, error) {
	if userID <= 0 {
		return CheckoutSessionOutput{}, errUnauthorized()
	}

	s, err := u.sessions.FindByID(ctx, sessionID)
	if errors.Is(err, repo.ErrNotFound) {
		return CheckoutSessionOutput{}, errNotFound()
	}
	if err != nil {
		return CheckoutSessionOutput{}, errDB()
	}
	if s.UserID != userID {
		return CheckoutSessionOutput{}, errNotFound()
	}
	return toSessionOutput(s), nil
}

// 再起動後に届いたコールバック用
func (u *CheckoutUsecase) Callbacks() payment.Callbacks {
	return payment.Callbacks{OnSuccess: u.onPaymentSuccess, OnCancel: u.onPaymentCancel}
}

// 支払い成功 -> 注文作成（processing）。セッションIDを冪等キーにする
func (u *CheckoutUsecase) onPaymentSuccess(ctx context.Context, s model.CheckoutSession, transactionID string) error {
	orderID, err := u.orders.CreateOrder(ctx, s.UserID, CreateOrderInput{
		Lines:    s.Items,
		Shipping: s.Shipping,
		Payment: model.PaymentDetails{
			Method:         model.PaymentMethodRazorpay,
			Status:         model.PaymentStatusPaid,
			TransactionID:  transactionID,
			GatewayOrderID: s.GatewayOrderID,
		},
		CouponCode:     s.CouponCode,
		Discount:       s.Discount,
		Payable:        s.Payable,
		IdempotencyKey: s.ID,
	})
	if err != nil {
		return err
	}

	if err := u.sessions.AttachOrder(ctx, s.ID, orderID); err != nil {
		u.log.ErrorContext(ctx, "attach order to checkout session", "session_id", s.ID, "order_id", orderID, "err", err)
	}
	return nil
}

func (u *CheckoutUsecase) onPaymentCancel(ctx context.Context, s model.CheckoutSession) error {
	u.log.InfoContext(ctx, "checkout dismissed", "session_id", s.ID, "user_id", s.UserID)
	return nil
}

func toSessionOutput(s model.CheckoutSession) CheckoutSessionOutput {
	return CheckoutSessionOutput{
		SessionID:     s.ID,
		Status:        string(s.Status),
		Payable:       s.Payable,
		TransactionID: s.TransactionID,
		OrderID:       s.OrderID,
	}
}

func normalizeShipping(d model.ShippingDetails) model.ShippingDetails {
	d.Name = strings.TrimSpace(d.Name)
	d.Email = strings.TrimSpace(d.Email)
	d.Phone = strings.TrimSpace(d.Phone)
	d.Address = strings.TrimSpace(d.Address)
	d.City = strings.TrimSpace(d.City)
	d.State = strings.TrimSpace(d.State)
	d.Zip = strings.TrimSpace(d.Zip)
	d.Country = strings.TrimSpace(d.Country)
	if d.Country == "" {
		d.Country = "India"
	}
	return d
}
