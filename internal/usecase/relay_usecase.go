package usecase

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"florist/internal/payment"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// POST /api/create-order。ルピーで受けてパイサでRazorpayに渡す
type RelayUsecase struct {
	gateway  payment.Gateway
	currency string
	log      *slog.Logger
}

func NewRelayUsecase(gateway payment.Gateway, currency string, log *slog.Logger) *RelayUsecase {
	if log == nil {
		log = slog.Default()
	}
	return &RelayUsecase{gateway: gateway, currency: currency, log: log}
}

type RelayOrderInput struct {
	Amount  decimal.Decimal
	Receipt string
}

func (u *RelayUsecase) CreateOrder(ctx context.Context, in RelayOrderInput) (payment.PaymentOrder, error) {
	if !in.Amount.IsPositive() {
		return payment.PaymentOrder{}, NewHTTPError(http.StatusBadRequest, "amount must be > 0")
	}
	receipt := strings.TrimSpace(in.Receipt)
	if receipt == "" {
		receipt = newReceipt()
	}
	if len(receipt) > 40 {
		return payment.PaymentOrder{}, NewHTTPError(http.StatusBadRequest, "receipt too long")
	}

	order, err := u.gateway.CreateOrder(ctx, payment.ToMinorUnits(in.Amount), u.currency, receipt)
	if err != nil {
		// ゲートウェイの応答本文は返さない
		u.log.ErrorContext(ctx, "relay create order failed", "receipt", receipt, "err", err)
		if errors.Is(err, payment.ErrGatewayUnavailable) {
			return payment.PaymentOrder{}, NewHTTPError(http.StatusServiceUnavailable, "payment gateway unavailable")
		}
		return payment.PaymentOrder{}, NewHTTPError(http.StatusInternalServerError, "failed to create order")
	}
	return order, nil
}

// Razorpayのreceiptは40文字まで
func newReceipt() string {
	return "order_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
