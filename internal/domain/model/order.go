package model

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// 許可されていないステータス遷移
var ErrInvalidTransition = errors.New("invalid status transition")

// 正方向の遷移先（deliveredとcancelledは終端）
var nextOrderStatus = map[OrderStatus]OrderStatus{
	OrderStatusPending:    OrderStatusProcessing,
	OrderStatusProcessing: OrderStatusShipped,
	OrderStatusShipped:    OrderStatusDelivered,
}

func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch st := OrderStatus(s); st {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return st, true
	}
	return "", false
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// 管理画面で出す「次へ」ボタンの遷移先
func (s OrderStatus) Next() (OrderStatus, bool) {
	n, ok := nextOrderStatus[s]
	return n, ok
}

// from -> to が許可されているか。
// 正方向に1つ進むか、終端以外からcancelledのみ。
func ValidateTransition(from, to OrderStatus) error {
	if _, ok := ParseOrderStatus(string(to)); !ok {
		return ErrInvalidTransition
	}
	if from.IsTerminal() {
		return ErrInvalidTransition
	}
	if to == OrderStatusCancelled {
		return nil
	}
	if n, ok := from.Next(); ok && n == to {
		return nil
	}
	return ErrInvalidTransition
}

type PaymentMethod string

const (
	PaymentMethodRazorpay PaymentMethod = "razorpay"
	PaymentMethodCOD      PaymentMethod = "cod"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// 注文時点の配送先
type ShippingDetails struct {
	Name    string `gorm:"type:varchar(255);not null" json:"name"`
	Email   string `gorm:"type:varchar(255);not null" json:"email"`
	Phone   string `gorm:"type:varchar(30);not null" json:"phone"`
	Address string `gorm:"type:varchar(512);not null" json:"address"`
	City    string `gorm:"type:varchar(255);not null" json:"city"`
	State   string `gorm:"type:varchar(255);not null" json:"state"`
	Zip     string `gorm:"type:varchar(20);not null" json:"zip"`
	Country string `gorm:"type:varchar(100);not null" json:"country"`
}

// 決済結果
type PaymentDetails struct {
	Method         PaymentMethod `gorm:"type:varchar(20);not null" json:"method"`
	Status         PaymentStatus `gorm:"type:varchar(20);not null" json:"status"`
	TransactionID  string        `gorm:"type:varchar(255)" json:"transaction_id,omitempty"`
	GatewayOrderID string        `gorm:"type:varchar(255)" json:"order_id,omitempty"`
}

type Order struct {
	ID     int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID int64       `gorm:"not null;index" json:"user_id"`
	Status OrderStatus `gorm:"type:varchar(20);not null;index" json:"status"`

	//明細の price*quantity の合計
	Total decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total"`

	CouponCode   string          `gorm:"type:varchar(50)" json:"coupon_code,omitempty"`
	Discount     decimal.Decimal `gorm:"type:numeric(14,4);not null;default:0" json:"discount"`
	PayableTotal decimal.Decimal `gorm:"type:numeric(14,4);not null" json:"payable_total"`

	Shipping ShippingDetails `gorm:"embedded;embeddedPrefix:ship_" json:"customer_details"`
	Payment  PaymentDetails  `gorm:"embedded;embeddedPrefix:payment_" json:"payment_details"`

	//同じ決済からの二重作成を防ぐ
	IdempotencyKey string `gorm:"type:varchar(255);not null;uniqueIndex" json:"-"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
