package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type PaymentMethod string

const (
	MethodCOD    PaymentMethod = "cod"
	MethodOnline PaymentMethod = "online"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// IsValidPaymentStatus reports whether s is a known payment status.
func IsValidPaymentStatus(s PaymentStatus) bool {
	switch s {
	case PaymentPending, PaymentCompleted, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

// Payment is the 1:1 child of an Order. Method may flip cod -> online when a
// COD order is paid through the gateway before delivery.
type Payment struct {
	bun.BaseModel `bun:"table:payments"`

	ID             string          `bun:"id,pk" json:"id"`
	OrderID        string          `bun:"order_id,unique,notnull" json:"order_id"`
	Method         PaymentMethod   `bun:"method,notnull" json:"method"`
	Status         PaymentStatus   `bun:"status,notnull" json:"status"`
	Amount         decimal.Decimal `bun:"amount,notnull,type:numeric(10,2)" json:"amount"`
	TransactionID  string          `bun:"transaction_id,nullzero" json:"transaction_id,omitempty"`
	GatewayOrderID string          `bun:"gateway_order_id,nullzero" json:"gateway_order_id,omitempty"`
	PaidAt         *time.Time      `bun:"paid_at,nullzero" json:"paid_at,omitempty"`
	CreatedAt      time.Time       `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt      time.Time       `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}
