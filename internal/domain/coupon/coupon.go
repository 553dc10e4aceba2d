// Package coupon evaluates storefront coupon codes against a fixed server-side table.
package coupon

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindFixed      Kind = "fixed"
	KindPercentage Kind = "percentage"
)

// 知らないコード
var ErrInvalidCoupon = errors.New("invalid coupon")

var hundred = decimal.NewFromInt(100)

type Coupon struct {
	Code   string          `json:"code"`
	Amount decimal.Decimal `json:"amount"`
	Kind   Kind            `json:"kind"`
}

// クライアントには出さない
var table = map[string]Coupon{
	"TRUELOVE100": {Code: "TRUELOVE100", Amount: decimal.NewFromInt(100), Kind: KindFixed},
	"TRUELOVE50":  {Code: "TRUELOVE50", Amount: decimal.NewFromInt(50), Kind: KindFixed},
	"ALMOSTLOVE5": {Code: "ALMOSTLOVE5", Amount: decimal.NewFromInt(5), Kind: KindPercentage},
}

// 前後の空白を落として大文字にする
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func Lookup(code string) (Coupon, error) {
	c, ok := table[Normalize(code)]
	if !ok {
		return Coupon{}, ErrInvalidCoupon
	}
	return c, nil
}

// Apply returns the payable total for subtotal after applying code.
// Unknown codes return subtotal unchanged together with ErrInvalidCoupon.
func Apply(code string, subtotal decimal.Decimal) (decimal.Decimal, error) {
	c, err := Lookup(code)
	if err != nil {
		return subtotal, err
	}
	return c.Apply(subtotal), nil
}

func (c Coupon) Apply(subtotal decimal.Decimal) decimal.Decimal {
	switch c.Kind {
	case KindFixed:
		return decimal.Max(decimal.Zero, subtotal.Sub(c.Amount))
	case KindPercentage:
		return subtotal.Mul(hundred.Sub(c.Amount)).Div(hundred)
	default:
		return subtotal
	}
}

// 割引額（subtotal - Apply）
func (c Coupon) Discount(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Sub(c.Apply(subtotal))
}

// 画面表示用（"₹100 off" / "5% off"）
func (c Coupon) Label() string {
	if c.Kind == KindPercentage {
		return c.Amount.String() + "% off"
	}
	return "₹" + c.Amount.String() + " off"
}
