package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Address is a saved delivery address; orders may reference one.
type Address struct {
	bun.BaseModel `bun:"table:addresses"`

	ID        string    `bun:"id,pk" json:"id"`
	UserID    string    `bun:"user_id,notnull" json:"user_id"`
	Label     string    `bun:"label" json:"label"`
	Line1     string    `bun:"line1,notnull" json:"line1"`
	Line2     string    `bun:"line2" json:"line2,omitempty"`
	City      string    `bun:"city,notnull" json:"city"`
	State     string    `bun:"state" json:"state"`
	Pincode   string    `bun:"pincode,notnull" json:"pincode"`
	Phone     string    `bun:"phone" json:"phone"`
	IsDefault bool      `bun:"is_default" json:"is_default"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}
