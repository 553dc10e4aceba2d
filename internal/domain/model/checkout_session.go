package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type CheckoutStatus string

const (
	CheckoutStatusOpen      CheckoutStatus = "OPEN"
	CheckoutStatusSucceeded CheckoutStatus = "SUCCEEDED"
	CheckoutStatusCancelled CheckoutStatus = "CANCELLED"
)

func (s CheckoutStatus) IsTerminal() bool {
	return s == CheckoutStatusSucceeded || s == CheckoutStatusCancelled
}

// 決済ウィジェットを開いてからコールバックが届くまでの記録。
// 金額・明細・配送先は開いた時点のスナップショット。
type CheckoutSession struct {
	ID     string         `gorm:"type:varchar(64);primaryKey" json:"id"`
	UserID int64          `gorm:"not null;index" json:"user_id"`
	Status CheckoutStatus `gorm:"type:varchar(20);not null;index" json:"status"`

	GatewayOrderID string `gorm:"type:varchar(255);not null;index" json:"gateway_order_id"`
	Receipt        string `gorm:"type:varchar(255);not null" json:"receipt"`
	AmountMinor    int64  `gorm:"not null" json:"amount"`
	Currency       string `gorm:"type:varchar(8);not null" json:"currency"`

	Subtotal   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"subtotal"`
	CouponCode string          `gorm:"type:varchar(50)" json:"coupon_code,omitempty"`
	Discount   decimal.Decimal `gorm:"type:numeric(14,4);not null;default:0" json:"discount"`
	Payable    decimal.Decimal `gorm:"type:numeric(14,4);not null" json:"payable"`

	Items    []OrderLine     `gorm:"serializer:json;type:text;not null" json:"items"`
	Shipping ShippingDetails `gorm:"serializer:json;type:text;not null" json:"customer_details"`

	TransactionID string `gorm:"type:varchar(255)" json:"transaction_id,omitempty"`
	OrderID       *int64 `json:"order_id,omitempty"`
	FailureReason string `gorm:"type:text" json:"failure_reason,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
