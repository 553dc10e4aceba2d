// Package payment は決済ゲートウェイ（Razorpay）とのやりとりをまとめる。
// 決済注文の作成、ウィジェット設定の発行、成功/キャンセルのコールバック配送を扱う。
package payment

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// キーが未設定などでウィジェットを開けない
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	// 決済注文を作れなかった（フォールバック無効時）
	ErrOrderCreationFailed = errors.New("payment order creation failed")
	ErrSessionNotFound     = errors.New("checkout session not found")
	// 既に成功/キャンセルが届いている
	ErrAlreadyDelivered = errors.New("checkout already completed")
	// 支払いは成功したが注文を作れなかった
	ErrOrderAfterPayment = errors.New("payment succeeded but order creation failed, please contact support")
)

// ゲートウェイ側の決済注文
type PaymentOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"` // 最小単位（パイサ）
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// 決済注文を作る相手（Razorpay直 or 中継API）
type Gateway interface {
	CreateOrder(ctx context.Context, amountMinor int64, currency string, receipt string) (PaymentOrder, error)
}

// ルピー -> パイサ。ここでだけ丸める
func ToMinorUnits(major decimal.Decimal) int64 {
	return major.Shift(2).Round(0).IntPart()
}

func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}
