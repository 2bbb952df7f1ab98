package model

import (
	"time"

	"github.com/google/uuid"
)

// Roles. Supervisors and admins may void sales and adjust stock;
// only admins manage users and the catalog import.
const (
	RoleCashier    = "cashier"
	RoleSupervisor = "supervisor"
	RoleAdmin      = "admin"
)

// User stores system users with role-based access.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Username     string    `gorm:"uniqueIndex;not null"`
	Name         string    `gorm:"not null"`
	Email        *string
	PasswordHash string `gorm:"not null"`
	Role         string `gorm:"type:varchar(20);not null"`
	Active       bool   `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Privileged reports whether the role may reverse committed sales.
func (u *User) Privileged() bool {
	return u.Role == RoleSupervisor || u.Role == RoleAdmin
}
