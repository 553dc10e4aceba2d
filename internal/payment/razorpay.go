package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/razorpay/razorpay-go"
	rzperrors "github.com/razorpay/razorpay-go/errors"
)

// Razorpay Orders API を公式SDKで呼ぶ
type RazorpayClient struct {
	configured bool
	api        *razorpay.Client
}

// baseURLはテストやモックサーバ用。空ならSDKの既定（api.razorpay.com）
func NewRazorpayClient(baseURL, keyID, keySecret string) *RazorpayClient {
	api := razorpay.NewClient(keyID, keySecret)
	if baseURL = strings.TrimRight(baseURL, "/"); baseURL != "" {
		api.Order.Request.BaseURL = baseURL
	}
	api.Order.Request.HTTPClient = &http.Client{Timeout: 10 * time.Second}

	return &RazorpayClient{
		configured: keyID != "" && keySecret != "",
		api:        api,
	}
}

// SDKはcontextを受け取らないので、呼ぶ前にだけ見る
func (c *RazorpayClient) CreateOrder(ctx context.Context, amountMinor int64, currency string, receipt string) (PaymentOrder, error) {
	if !c.configured {
		return PaymentOrder{}, ErrGatewayUnavailable
	}
	if err := ctx.Err(); err != nil {
		return PaymentOrder{}, err
	}

	body, err := c.api.Order.Create(map[string]interface{}{
		"amount":   amountMinor,
		"currency": currency,
		"receipt":  receipt,
	}, nil)
	if err != nil {
		return PaymentOrder{}, classifyRazorpayError(err)
	}

	return orderFromRazorpay(body)
}

// 入力を拒否された場合は作成失敗、それ以外（5xx・通信エラー）は利用不可
func classifyRazorpayError(err error) error {
	var bad *rzperrors.BadRequestError
	if errors.As(err, &bad) {
		return fmt.Errorf("%w: %w", ErrOrderCreationFailed, err)
	}
	return fmt.Errorf("%w: %w", ErrGatewayUnavailable, err)
}

func orderFromRazorpay(body map[string]interface{}) (PaymentOrder, error) {
	id, _ := body["id"].(string)
	if id == "" {
		return PaymentOrder{}, fmt.Errorf("%w: response has no order id", ErrOrderCreationFailed)
	}

	// JSONの数値はfloat64で届く
	amount, _ := body["amount"].(float64)
	currency, _ := body["currency"].(string)
	receipt, _ := body["receipt"].(string)
	status, _ := body["status"].(string)

	return PaymentOrder{
		ID:       id,
		Amount:   int64(amount),
		Currency: currency,
		Receipt:  receipt,
		Status:   status,
	}, nil
}
