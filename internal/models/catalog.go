package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type Category struct {
	bun.BaseModel `bun:"table:categories"`

	ID        string    `bun:"id,pk" json:"id"`
	Name      string    `bun:"name,unique,notnull" json:"name"`
	IsActive  bool      `bun:"is_active" json:"is_active"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

// Branch is a physical fulfillment location with its own availability and staff.
type Branch struct {
	bun.BaseModel `bun:"table:branches"`

	ID          string    `bun:"id,pk" json:"id"`
	Name        string    `bun:"name,notnull" json:"name"`
	Address     string    `bun:"address" json:"address"`
	City        string    `bun:"city" json:"city"`
	State       string    `bun:"state" json:"state"`
	Pincode     string    `bun:"pincode" json:"pincode"`
	Phone       string    `bun:"phone" json:"phone"`
	Email       string    `bun:"email" json:"email"`
	IsActive    bool      `bun:"is_active" json:"is_active"`
	OpeningTime string    `bun:"opening_time" json:"opening_time"`
	ClosingTime string    `bun:"closing_time" json:"closing_time"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

// Benefit is one structured product benefit entry.
type Benefit struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type Juice struct {
	bun.BaseModel `bun:"table:juices"`

	ID            string          `bun:"id,pk" json:"id"`
	CategoryID    string          `bun:"category_id,notnull" json:"category_id"`
	Name          string          `bun:"name,notnull" json:"name"`
	Description   string          `bun:"description" json:"description"`
	Price         decimal.Decimal `bun:"price,notnull,type:numeric(8,2)" json:"price"`
	IsAvailable   bool            `bun:"is_available" json:"is_available"`
	IsActive      bool            `bun:"is_active" json:"is_active"`
	NetQuantityML int             `bun:"net_quantity_ml" json:"net_quantity_ml"`
	Features      []string        `bun:"features,type:jsonb" json:"features"`
	Benefits      []Benefit       `bun:"benefits,type:jsonb" json:"benefits"`
	CreatedAt     time.Time       `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

// BranchJuice links a juice to a branch with per-branch availability.
// Unique on (branch_id, juice_id).
type BranchJuice struct {
	bun.BaseModel `bun:"table:branch_juices"`

	ID          string    `bun:"id,pk" json:"id"`
	BranchID    string    `bun:"branch_id,notnull" json:"branch_id"`
	JuiceID     string    `bun:"juice_id,notnull" json:"juice_id"`
	IsAvailable bool      `bun:"is_available" json:"is_available"`
	UpdatedAt   time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}
