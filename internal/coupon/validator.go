// Package coupon validates promotional codes and computes their discount
// against a cart subtotal.
package coupon

import (
	"time"

	"github.com/shopspring/decimal"

	"peelojuice/internal/models"
)

var hundred = decimal.NewFromInt(100)

// IsValid checks a coupon's temporal and usage eligibility at the given
// instant. The returned reason is human readable and safe to surface.
func IsValid(c *models.Coupon, now time.Time) (bool, string) {
	if !c.IsActive {
		return false, "This coupon is not active"
	}
	if c.ValidFrom.After(now) {
		return false, "This coupon is not yet valid"
	}
	if c.ValidTo != nil && c.ValidTo.Before(now) {
		return false, "This coupon has expired"
	}
	if c.UsageLimit != nil && c.UsageCount >= *c.UsageLimit {
		return false, "This coupon has reached its usage limit"
	}
	return true, "Valid"
}

// CalculateDiscount returns the discount amount for a subtotal. It is zero
// when the subtotal is below the coupon's minimum order value, capped at
// max_discount for percentage coupons, and never exceeds the subtotal.
func CalculateDiscount(c *models.Coupon, subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.LessThan(c.MinOrderValue) {
		return decimal.Zero
	}

	var discount decimal.Decimal
	if c.DiscountType == models.DiscountPercentage {
		discount = subtotal.Mul(c.DiscountValue).Div(hundred)
		if c.MaxDiscount != nil && discount.GreaterThan(*c.MaxDiscount) {
			discount = *c.MaxDiscount
		}
	} else {
		discount = c.DiscountValue
	}

	// Discount can never make the total negative.
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	return discount
}
