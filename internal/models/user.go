package models

import (
	"time"

	"github.com/uptrace/bun"
)

// User is a read model over the identity service's table. The core never
// mutates users except for clearing a stale FCM token.
type User struct {
	bun.BaseModel `bun:"table:users"`

	ID               string    `bun:"id,pk" json:"id"`
	Email            string    `bun:"email,unique,notnull" json:"email"`
	FullName         string    `bun:"full_name,notnull" json:"full_name"`
	Phone            string    `bun:"phone,nullzero" json:"phone,omitempty"`
	IsStaff          bool      `bun:"is_staff" json:"is_staff"`
	IsSuperuser      bool      `bun:"is_superuser" json:"is_superuser"`
	IsActive         bool      `bun:"is_active" json:"is_active"`
	AssignedBranchID string    `bun:"assigned_branch_id,nullzero" json:"assigned_branch_id,omitempty"`
	FCMToken         string    `bun:"fcm_token,nullzero" json:"-"`
	CreatedAt        time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}
