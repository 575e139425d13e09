package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// MaxInstructionsLength caps the free-text cooking instructions on a cart item.
const MaxInstructionsLength = 200

// Cart is the single active pre-order basket of a user (one per user).
type Cart struct {
	bun.BaseModel `bun:"table:carts"`

	ID              string    `bun:"id,pk" json:"id"`
	UserID          string    `bun:"user_id,unique,notnull" json:"user_id"`
	AppliedCouponID string    `bun:"applied_coupon_id,nullzero" json:"applied_coupon_id,omitempty"`
	IsActive        bool      `bun:"is_active" json:"is_active"`
	CreatedAt       time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt       time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`

	Items []CartItem `bun:"rel:has-many,join:id=cart_id" json:"items"`
}

// TotalAmount sums price_at_added * quantity over the cart's items.
// An empty cart totals 0.00.
func (c *Cart) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.PriceAtAdded.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// CartItem is one juice line in a cart. Unique on (cart_id, juice_id);
// re-adding the same juice increments quantity instead of duplicating.
type CartItem struct {
	bun.BaseModel `bun:"table:cart_items"`

	ID                  string          `bun:"id,pk" json:"id"`
	CartID              string          `bun:"cart_id,notnull" json:"cart_id"`
	JuiceID             string          `bun:"juice_id,notnull" json:"juice_id"`
	Quantity            int             `bun:"quantity,notnull" json:"quantity"`
	PriceAtAdded        decimal.Decimal `bun:"price_at_added,notnull,type:numeric(8,2)" json:"price_at_added"`
	CookingInstructions string          `bun:"cooking_instructions" json:"cooking_instructions"`

	Juice *Juice `bun:"rel:belongs-to,join:juice_id=id" json:"juice,omitempty"`
}

// Subtotal is the line total at the locked-in price.
func (i *CartItem) Subtotal() decimal.Decimal {
	return i.PriceAtAdded.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
