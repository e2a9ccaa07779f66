package users

import (
	"time"

	"github.com/orderflow/orderflow/internal/shared"
)

// User represents an account known to the identity layer. Orders reference
// users by ID: sales orders through created_by, purchase orders through
// vendor_id.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	Role         shared.Role
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
