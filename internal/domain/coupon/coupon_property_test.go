package coupon

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
)

// paise単位の整数から小計を作る
func fromPaise(p int64) decimal.Decimal {
	return decimal.New(p, -2)
}

func TestFixedCouponProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	fixed := []string{"TRUELOVE100", "TRUELOVE50"}

	properties.Property("fixed coupon equals max(0, s-a)", prop.ForAll(
		func(p int64, idx int) bool {
			c := table[fixed[idx]]
			s := fromPaise(p)
			got, err := Apply(c.Code, s)
			if err != nil {
				return false
			}
			return got.Equal(decimal.Max(decimal.Zero, s.Sub(c.Amount)))
		},
		gen.Int64Range(0, 10_000_000),
		gen.IntRange(0, len(fixed)-1),
	))

	properties.Property("fixed coupon is monotonic in subtotal", prop.ForAll(
		func(a, b int64, idx int) bool {
			if a > b {
				a, b = b, a
			}
			c := table[fixed[idx]]
			return c.Apply(fromPaise(a)).LessThanOrEqual(c.Apply(fromPaise(b)))
		},
		gen.Int64Range(0, 10_000_000),
		gen.Int64Range(0, 10_000_000),
		gen.IntRange(0, len(fixed)-1),
	))

	properties.TestingRun(t)
}

func TestPercentageCouponProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("percentage coupon equals s*(1-p/100) and is never negative", prop.ForAll(
		func(p int64, pct int64) bool {
			c := Coupon{Code: "TEST", Amount: decimal.NewFromInt(pct), Kind: KindPercentage}
			s := fromPaise(p)
			got := c.Apply(s)
			want := s.Mul(decimal.NewFromInt(1).Sub(decimal.NewFromInt(pct).Div(hundred)))
			return got.Equal(want) && !got.IsNegative()
		},
		gen.Int64Range(0, 10_000_000),
		gen.Int64Range(0, 100),
	))

	properties.Property("unknown code is a no-op", prop.ForAll(
		func(p int64, code string) bool {
			if _, ok := table[Normalize(code)]; ok {
				return true
			}
			s := fromPaise(p)
			got, err := Apply(code, s)
			return err == ErrInvalidCoupon && got.Equal(s)
		},
		gen.Int64Range(0, 10_000_000),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
