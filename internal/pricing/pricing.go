// Package pricing computes GST-compliant order totals. All arithmetic is
// fixed-point decimal; each GST component is rounded to 2 decimals on its own
// before the final sum so the cart preview and the persisted payment amount
// can never drift apart.
package pricing

import "github.com/shopspring/decimal"

var (
	foodGSTRate     = decimal.RequireFromString("0.05")
	deliveryGSTRate = decimal.RequireFromString("0.18")

	// FreeDeliveryThreshold waives the delivery fee when the food subtotal
	// reaches it.
	FreeDeliveryThreshold = decimal.RequireFromString("99.00")

	// FlatDeliveryFee applies below the free-delivery threshold.
	FlatDeliveryFee = decimal.RequireFromString("20.00")

	// PlatformFee is a flat, GST-inclusive fee added to every order.
	PlatformFee = decimal.RequireFromString("10.00")
)

// Quote is the full cost breakdown of an order.
type Quote struct {
	FoodSubtotal    decimal.Decimal `json:"food_subtotal"`
	Discount        decimal.Decimal `json:"discount"`
	FoodGST         decimal.Decimal `json:"food_gst"`
	DeliveryFeeBase decimal.Decimal `json:"delivery_fee_base"`
	DeliveryGST     decimal.Decimal `json:"delivery_gst"`
	PlatformFee     decimal.Decimal `json:"platform_fee"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
}

// DeliveryFee returns the delivery fee base for a food subtotal. The rule is
// evaluated identically at cart preview and at checkout.
func DeliveryFee(foodSubtotal decimal.Decimal) decimal.Decimal {
	if foodSubtotal.GreaterThanOrEqual(FreeDeliveryThreshold) {
		return decimal.Zero
	}
	return FlatDeliveryFee
}

// FoodGST is 5% of the discounted food subtotal, rounded to 2 decimals.
func FoodGST(discountedSubtotal decimal.Decimal) decimal.Decimal {
	return discountedSubtotal.Mul(foodGSTRate).Round(2)
}

// DeliveryGST is 18% of the delivery fee base, rounded to 2 decimals.
func DeliveryGST(deliveryFeeBase decimal.Decimal) decimal.Decimal {
	return deliveryFeeBase.Mul(deliveryGSTRate).Round(2)
}

// Calculate builds the full quote for a food subtotal and discount amount:
//
//	total = (S - discount) + foodGST + deliveryFee + deliveryGST + platformFee
func Calculate(foodSubtotal, discount decimal.Decimal) Quote {
	discounted := foodSubtotal.Sub(discount)
	foodGST := FoodGST(discounted)
	deliveryFee := DeliveryFee(foodSubtotal)
	deliveryGST := DeliveryGST(deliveryFee)

	total := discounted.
		Add(foodGST).
		Add(deliveryFee).
		Add(deliveryGST).
		Add(PlatformFee)

	return Quote{
		FoodSubtotal:    foodSubtotal,
		Discount:        discount,
		FoodGST:         foodGST,
		DeliveryFeeBase: deliveryFee,
		DeliveryGST:     deliveryGST,
		PlatformFee:     PlatformFee,
		TotalAmount:     total,
	}
}
