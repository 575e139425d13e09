package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type OrderStatus string

const (
	OrderPending        OrderStatus = "pending"
	OrderConfirmed      OrderStatus = "confirmed"
	OrderPreparing      OrderStatus = "preparing"
	OrderOutForDelivery OrderStatus = "out_for_delivery"
	OrderDelivered      OrderStatus = "delivered"
	OrderCancelled      OrderStatus = "cancelled"
)

// OrderStatuses lists every known order status.
var OrderStatuses = []OrderStatus{
	OrderPending,
	OrderConfirmed,
	OrderPreparing,
	OrderOutForDelivery,
	OrderDelivered,
	OrderCancelled,
}

// IsValidOrderStatus reports whether s is a known order status.
func IsValidOrderStatus(s OrderStatus) bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// OngoingOrderStatuses are the non-terminal statuses used by the "ongoing"
// list filter.
var OngoingOrderStatuses = []OrderStatus{
	OrderPending,
	OrderConfirmed,
	OrderPreparing,
	OrderOutForDelivery,
}

// Order is the immutable-after-creation record of a placed purchase.
// OrderNumber is assigned exactly once inside the checkout transaction and is
// never reused or reassigned.
type Order struct {
	bun.BaseModel `bun:"table:orders"`

	ID              string          `bun:"id,pk" json:"id"`
	OrderNumber     int64           `bun:"order_number,unique,notnull" json:"order_number"`
	UserID          string          `bun:"user_id,notnull" json:"user_id"`
	BranchID        string          `bun:"branch_id,notnull" json:"branch_id"`
	AddressID       string          `bun:"address_id,nullzero" json:"address_id,omitempty"`
	FoodSubtotal    decimal.Decimal `bun:"food_subtotal,notnull,type:numeric(10,2)" json:"food_subtotal"`
	FoodGST         decimal.Decimal `bun:"food_gst,notnull,type:numeric(10,2)" json:"food_gst"`
	DeliveryFeeBase decimal.Decimal `bun:"delivery_fee_base,notnull,type:numeric(10,2)" json:"delivery_fee_base"`
	DeliveryGST     decimal.Decimal `bun:"delivery_gst,notnull,type:numeric(10,2)" json:"delivery_gst"`
	PlatformFee     decimal.Decimal `bun:"platform_fee,notnull,type:numeric(10,2)" json:"platform_fee"`
	Discount        decimal.Decimal `bun:"discount,notnull,type:numeric(10,2)" json:"discount"`
	TotalAmount     decimal.Decimal `bun:"total_amount,notnull,type:numeric(10,2)" json:"total_amount"`
	Status          OrderStatus     `bun:"status,notnull" json:"status"`
	CreatedAt       time.Time       `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt       time.Time       `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`

	Items []OrderItem `bun:"rel:has-many,join:id=order_id" json:"items,omitempty"`
}

// FoodTotal is food cost plus its 5% GST.
func (o *Order) FoodTotal() decimal.Decimal {
	return o.FoodSubtotal.Add(o.FoodGST)
}

// DeliveryTotal is the delivery fee plus its 18% GST.
func (o *Order) DeliveryTotal() decimal.Decimal {
	return o.DeliveryFeeBase.Add(o.DeliveryGST)
}

// OrderCounter is the single-row table backing sequential order numbers.
// The row is bumped with UPDATE ... RETURNING inside the checkout
// transaction, so the row lock serializes number assignment.
type OrderCounter struct {
	bun.BaseModel `bun:"table:order_counter"`

	ID        int   `bun:"id,pk" json:"id"`
	LastValue int64 `bun:"last_value,notnull" json:"last_value"`
}

// OrderItem is an immutable child of Order, snapshotting the cart line.
type OrderItem struct {
	bun.BaseModel `bun:"table:order_items"`

	ID                  string          `bun:"id,pk" json:"id"`
	OrderID             string          `bun:"order_id,notnull" json:"order_id"`
	JuiceID             string          `bun:"juice_id,notnull" json:"juice_id"`
	JuiceName           string          `bun:"juice_name,notnull" json:"juice_name"`
	Quantity            int             `bun:"quantity,notnull" json:"quantity"`
	PricePerItem        decimal.Decimal `bun:"price_per_item,notnull,type:numeric(8,2)" json:"price_per_item"`
	CookingInstructions string          `bun:"cooking_instructions" json:"cooking_instructions"`
}

// Subtotal is price_per_item * quantity.
func (i *OrderItem) Subtotal() decimal.Decimal {
	return i.PricePerItem.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
