package checkout

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CouponPolicy decides what a recognized coupon does to a course price.
// Apply reports false when the code is not recognized.
type CouponPolicy interface {
	Apply(code string, price decimal.Decimal) (decimal.Decimal, bool)
}

// FlatDiscount subtracts a fixed amount from the course price
type FlatDiscount struct {
	Code   string
	Amount decimal.Decimal
}

func (p FlatDiscount) Apply(code string, price decimal.Decimal) (decimal.Decimal, bool) {
	if code == "" || code != p.Code {
		return decimal.Zero, false
	}
	return clamp(price.Sub(p.Amount), price), true
}

// TargetPrice replaces the course price with a fixed amount
type TargetPrice struct {
	Code   string
	Amount decimal.Decimal
}

func (p TargetPrice) Apply(code string, price decimal.Decimal) (decimal.Decimal, bool) {
	if code == "" || code != p.Code {
		return decimal.Zero, false
	}
	return clamp(p.Amount, price), true
}

// clamp keeps a discounted amount within [0, price]
func clamp(amount, price decimal.Decimal) decimal.Decimal {
	if amount.IsNegative() {
		return decimal.Zero
	}
	if amount.GreaterThan(price) {
		return price
	}
	return amount
}

// NewCouponPolicy builds a policy by name: "flat" (default) or "target".
func NewCouponPolicy(kind, code string, amount decimal.Decimal) (CouponPolicy, error) {
	switch kind {
	case "", "flat":
		return FlatDiscount{Code: code, Amount: amount}, nil
	case "target":
		return TargetPrice{Code: code, Amount: amount}, nil
	default:
		return nil, fmt.Errorf("unknown coupon policy %q", kind)
	}
}
