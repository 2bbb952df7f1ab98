package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Customer is referenced by store-credit sales. CurrentDebt grows with every
// store-credit sale and shrinks when such a sale is voided.
type Customer struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name        string    `gorm:"not null"`
	Phone       *string
	Address     *string
	CurrentDebt decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
