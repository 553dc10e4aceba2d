package usecase_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"

	"florist/internal/domain/model"
	"florist/internal/payment"
	"florist/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGateway struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (g *stubGateway) CreateOrder(ctx context.Context, amountMinor int64, currency string, receipt string) (payment.PaymentOrder, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return payment.PaymentOrder{}, g.err
	}
	return payment.PaymentOrder{ID: "order_rzp_1", Amount: amountMinor, Currency: currency, Receipt: receipt, Status: "created"}, nil
}

type passValidator struct{ err error }

func (v passValidator) ValidateShipping(d model.ShippingDetails) error { return v.err }

type checkoutFixture struct {
	cartFixture
	gateway  *stubGateway
	adapter  *payment.Adapter
	checkout *usecase.CheckoutUsecase
}

func newCheckoutFixture(fallback bool) checkoutFixture {
	f := newCartFixture()
	orders := usecase.NewOrderUsecase(memTx{s: f.store}, f.cart, nil)
	gw := &stubGateway{}
	adapter := payment.NewAdapter(gw, f.store.Sessions(), payment.AdapterConfig{
		KeyID:    "rzp_test_key",
		Currency: "INR",
		Fallback: fallback,
	}, nil)
	co := usecase.NewCheckoutUsecase(f.cart, orders, adapter, f.store.Sessions(), passValidator{}, usecase.CheckoutConfig{
		StoreName:  "Phoolishh Loveee",
		ThemeColor: "#ec4899",
	}, nil)
	adapter.SetDefaultCallbacks(co.Callbacks())
	return checkoutFixture{cartFixture: f, gateway: gw, adapter: adapter, checkout: co}
}

func (f checkoutFixture) fillCart(t *testing.T, userID int64) {
	t.Helper()
	_, err := f.cart.AddItem(context.Background(), userID, usecase.AddCartInput{ProductID: f.roses.ID, Quantity: 2})
	require.NoError(t, err)
}

// =====================
// COD
// =====================

func TestCheckout_COD_CreatesPendingOrderWithoutGateway(t *testing.T) {
	f := newCheckoutFixture(false)
	ctx := context.Background()
	f.fillCart(t, 1)

	out, err := f.checkout.Start(ctx, 1, usecase.CheckoutInput{Shipping: sampleShipping(), PaymentMethod: "COD"})
	require.NoError(t, err)
	require.NotNil(t, out.OrderID)
	assert.Nil(t, out.Checkout)
	assert.Equal(t, 0, f.gateway.calls)

	o, err := f.store.Orders().FindByID(ctx, *out.OrderID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPending, o.Status)
	assert.Equal(t, model.PaymentMethodCOD, o.Payment.Method)
	assert.Equal(t, model.PaymentStatusPending, o.Payment.Status)
	assert.True(t, strings.HasPrefix(o.IdempotencyKey, "cod_"))
	assert.Equal(t, 0, f.store.cartLen(1))
}

func TestCheckout_InvalidShipping_Returns400(t *testing.T) {
	f := newCheckoutFixture(false)
	f.fillCart(t, 1)
	f.checkout = usecase.NewCheckoutUsecase(f.cart, nil, f.adapter, f.store.Sessions(),
		passValidator{err: errors.New("please enter a valid 10-digit phone number")}, usecase.CheckoutConfig{}, nil)

	_, err := f.checkout.Start(context.Background(), 1, usecase.CheckoutInput{Shipping: sampleShipping()})
	he := requireHTTPStatus(t, err, http.StatusBadRequest)
	assert.Equal(t, "please enter a valid 10-digit phone number", he.Message)
}

func TestCheckout_UnknownMethod_Returns400(t *testing.T) {
	f := newCheckoutFixture(false)
	f.fillCart(t, 1)

	_, err := f.checkout.Start(context.Background(), 1, usecase.CheckoutInput{Shipping: sampleShipping(), PaymentMethod: "upi"})
	requireHTTPStatus(t, err, http.StatusBadRequest)
}

// =====================
// Razorpay
// =====================

func TestCheckout_Razorpay_ConfirmCreatesProcessingOrder(t *testing.T) {
	f := newCheckoutFixture(false)
	ctx := context.Background()
	f.fillCart(t, 1)
	_, err := f.cart.ApplyCoupon(ctx, 1, "ALMOSTLOVE5")
	require.NoError(t, err)

	out, err := f.checkout.Start(ctx, 1, usecase.CheckoutInput{Shipping: sampleShipping()})
	require.NoError(t, err)
	require.NotNil(t, out.Checkout)
	assert.Nil(t, out.OrderID)

	w := out.Checkout
	// 998 * 0.95 = 948.10
	assert.Equal(t, int64(94810), w.Amount)
	assert.Equal(t, "INR", w.Currency)
	assert.Equal(t, "order_rzp_1", w.OrderID)
	assert.Equal(t, "rzp_test_key", w.Key)
	assert.Equal(t, "Phoolishh Loveee", w.Name)
	assert.Equal(t, "Asha Rao", w.Prefill.Name)
	assert.Equal(t, "#ec4899", w.Theme.Color)

	// 決済前は注文もカート削除も無い
	assert.Equal(t, 0, f.store.orderCount())
	assert.Equal(t, 1, f.store.cartLen(1))

	res, err := f.checkout.ConfirmPayment(ctx, 1, w.SessionID, usecase.ConfirmPaymentInput{PaymentID: "pay_abc", OrderID: w.OrderID})
	require.NoError(t, err)
	assert.Equal(t, string(model.CheckoutStatusSucceeded), res.Status)
	require.NotNil(t, res.OrderID)

	o, err := f.store.Orders().FindByID(ctx, *res.OrderID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusProcessing, o.Status)
	assert.Equal(t, model.PaymentStatusPaid, o.Payment.Status)
	assert.Equal(t, "pay_abc", o.Payment.TransactionID)
	assert.Equal(t, "order_rzp_1", o.Payment.GatewayOrderID)
	assert.Equal(t, "ALMOSTLOVE5", o.CouponCode)
	assert.True(t, o.PayableTotal.Equal(dec("948.1")))
	assert.Equal(t, 0, f.store.cartLen(1))

	// 2回目は同じ結果で注文は増えない
	again, err := f.checkout.ConfirmPayment(ctx, 1, w.SessionID, usecase.ConfirmPaymentInput{PaymentID: "pay_abc"})
	require.NoError(t, err)
	assert.Equal(t, *res.OrderID, *again.OrderID)
	assert.Equal(t, 1, f.store.orderCount())
}

func TestCheckout_Razorpay_ConcurrentConfirmsCreateOneOrder(t *testing.T) {
	f := newCheckoutFixture(false)
	ctx := context.Background()
	f.fillCart(t, 1)

	out, err := f.checkout.Start(ctx, 1, usecase.CheckoutInput{Shipping: sampleShipping()})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.checkout.ConfirmPayment(ctx, 1, out.Checkout.SessionID, usecase.ConfirmPaymentInput{PaymentID: "pay_x"})
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, f.store.orderCount())
	assert.Equal(t, int64(8), f.store.stock(f.roses.ID))
}

func TestCheckout_Razorpay_CancelKeepsCart(t *testing.T) {
	f := newCheckoutFixture(false)
	ctx := context.Background()
	f.fillCart(t, 1)

	out, err := f.checkout.Start(ctx, 1, usecase.CheckoutInput{Shipping: sampleShipping()})
	require.NoError(t, err)
	sid := out.Checkout.SessionID

	res, err := f.checkout.CancelPayment(ctx, 1, sid)
	require.NoError(t, err)
	assert.Equal(t, string(model.CheckoutStatusCancelled), res.Status)
	assert.Equal(t, 1, f.store.cartLen(1))
	assert.Equal(t, 0, f.store.orderCount())

	// キャンセル後の成功は受け付けない
	_, err = f.checkout.ConfirmPayment(ctx, 1, sid, usecase.ConfirmPaymentInput{PaymentID: "pay_late"})
	requireHTTPStatus(t, err, http.StatusConflict)
	assert.Equal(t, 0, f.store.orderCount())
}

func TestCheckout_CancelAfterPaid_Returns409(t *testing.T) {
	f := newCheckoutFixture(false)
	ctx := context.Background()
	f.fillCart(t, 1)

	out, err := f.checkout.Start(ctx, 1, usecase.CheckoutInput{Shipping: sampleShipping()})
	require.NoError(t, err)
	_, err = f.checkout.ConfirmPayment(ctx, 1, out.Checkout.SessionID, usecase.ConfirmPaymentInput{PaymentID: "pay_1"})
	require.NoError(t, err)

	_, err = f.checkout.CancelPayment(ctx, 1, out.Checkout.SessionID)
	requireHTTPStatus(t, err, http.StatusConflict)
}

func TestCheckout_OtherUsersSession_Returns404(t *testing.T) {
	f := newCheckoutFixture(false)
	ctx := context.Background()
	f.fillCart(t, 1)

	out, err := f.checkout.Start(ctx, 1, usecase.CheckoutInput{Shipping: sampleShipping()})
	require.NoError(t, err)

	_, err = f.checkout.ConfirmPayment(ctx, 2, out.Checkout.SessionID, usecase.ConfirmPaymentInput{PaymentID: "pay_1"})
	requireHTTPStatus(t, err, http.StatusNotFound)
	_, err = f.checkout.GetSession(ctx, 2, out.Checkout.SessionID)
	requireHTTPStatus(t, err, http.StatusNotFound)

	s, err := f.checkout.GetSession(ctx, 1, out.Checkout.SessionID)
	require.NoError(t, err)
	assert.Equal(t, string(model.CheckoutStatusOpen), s.Status)
}

func TestCheckout_ConfirmWithoutPaymentID_Returns400(t *testing.T) {
	f := newCheckoutFixture(false)
	_, err := f.checkout.ConfirmPayment(context.Background(), 1, "cs_x", usecase.ConfirmPaymentInput{})
	requireHTTPStatus(t, err, http.StatusBadRequest)
}

func TestCheckout_OrderFailsAfterPayment_Returns502AndRecordsFailure(t *testing.T) {
	f := newCheckoutFixture(false)
	ctx := context.Background()
	f.fillCart(t, 1)

	out, err := f.checkout.Start(ctx, 1, usecase.CheckoutInput{Shipping: sampleShipping()})
	require.NoError(t, err)
	sid := out.Checkout.SessionID

	f.store.mu.Lock()
	f.store.failOrderCreate = errBoom
	f.store.mu.Unlock()

	_, err = f.checkout.ConfirmPayment(ctx, 1, sid, usecase.ConfirmPaymentInput{PaymentID: "pay_1"})
	he := requireHTTPStatus(t, err, http.StatusBadGateway)
	assert.Contains(t, he.Message, "contact support")

	s, err := f.store.Sessions().FindByID(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, model.CheckoutStatusSucceeded, s.Status)
	assert.NotEmpty(t, s.FailureReason)
	assert.Equal(t, 1, f.store.cartLen(1))

	// 再送しても同じ502
	_, err = f.checkout.ConfirmPayment(ctx, 1, sid, usecase.ConfirmPaymentInput{PaymentID: "pay_1"})
	requireHTTPStatus(t, err, http.StatusBadGateway)
}

func TestCheckout_GatewayDown_NoFallback_Returns502(t *testing.T) {
	f := newCheckoutFixture(false)
	f.gateway.err = errors.New("gateway status 500")
	f.fillCart(t, 1)

	_, err := f.checkout.Start(context.Background(), 1, usecase.CheckoutInput{Shipping: sampleShipping()})
	he := requireHTTPStatus(t, err, http.StatusBadGateway)
	assert.Equal(t, "failed to create payment order", he.Message)
}

func TestCheckout_GatewayUnavailable_NoFallback_Returns503(t *testing.T) {
	f := newCheckoutFixture(false)
	f.gateway.err = payment.ErrGatewayUnavailable
	f.fillCart(t, 1)

	_, err := f.checkout.Start(context.Background(), 1, usecase.CheckoutInput{Shipping: sampleShipping()})
	he := requireHTTPStatus(t, err, http.StatusServiceUnavailable)
	assert.Equal(t, "payment gateway unavailable", he.Message)
}

func TestCheckout_GatewayDown_WithFallback_UsesLocalOrderID(t *testing.T) {
	f := newCheckoutFixture(true)
	f.gateway.err = errors.New("gateway status 500")
	f.fillCart(t, 1)

	out, err := f.checkout.Start(context.Background(), 1, usecase.CheckoutInput{Shipping: sampleShipping()})
	require.NoError(t, err)
	require.NotNil(t, out.Checkout)
	assert.True(t, strings.HasPrefix(out.Checkout.OrderID, "order_"))
	assert.NotEqual(t, "order_rzp_1", out.Checkout.OrderID)
}

func TestCheckout_ZeroPayable_SkipsGateway(t *testing.T) {
	f := newCheckoutFixture(false)
	ctx := context.Background()
	_, err := f.cart.AddItem(ctx, 1, usecase.AddCartInput{ProductID: f.lily.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = f.cart.ApplyCoupon(ctx, 1, "TRUELOVE100")
	require.NoError(t, err)

	out, err := f.checkout.Start(ctx, 1, usecase.CheckoutInput{Shipping: sampleShipping()})
	require.NoError(t, err)
	require.NotNil(t, out.OrderID)
	assert.Equal(t, 0, f.gateway.calls)

	o, err := f.store.Orders().FindByID(ctx, *out.OrderID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusProcessing, o.Status)
	assert.Equal(t, model.PaymentStatusPaid, o.Payment.Status)
	assert.True(t, o.PayableTotal.IsZero())
	assert.True(t, strings.HasPrefix(o.IdempotencyKey, "free_"))
}

func TestCheckout_EmptyCart_Returns400(t *testing.T) {
	f := newCheckoutFixture(false)
	_, err := f.checkout.Start(context.Background(), 1, usecase.CheckoutInput{Shipping: sampleShipping(), PaymentMethod: "cod"})
	requireHTTPStatus(t, err, http.StatusBadRequest)
}
