package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Coupon is a promotional code. Codes are stored upper-case; lookups are
// case-insensitive because callers upper-case before querying.
type Coupon struct {
	bun.BaseModel `bun:"table:coupons"`

	ID            string           `bun:"id,pk" json:"id"`
	Code          string           `bun:"code,unique,notnull" json:"code"`
	DiscountType  DiscountType     `bun:"discount_type,notnull" json:"discount_type"`
	DiscountValue decimal.Decimal  `bun:"discount_value,notnull,type:numeric(8,2)" json:"discount_value"`
	MinOrderValue decimal.Decimal  `bun:"min_order_value,notnull,type:numeric(8,2)" json:"min_order_value"`
	MaxDiscount   *decimal.Decimal `bun:"max_discount,nullzero,type:numeric(8,2)" json:"max_discount,omitempty"`
	ValidFrom     time.Time        `bun:"valid_from,notnull" json:"valid_from"`
	ValidTo       *time.Time       `bun:"valid_to,nullzero" json:"valid_to,omitempty"`
	UsageLimit    *int             `bun:"usage_limit,nullzero" json:"usage_limit,omitempty"`
	UsageCount    int              `bun:"usage_count" json:"usage_count"`
	IsActive      bool             `bun:"is_active" json:"is_active"`
	CreatedAt     time.Time        `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time        `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}
