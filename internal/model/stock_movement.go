package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Stock movement types.
const (
	StockMoveSale        = "sale"
	StockMoveVoidRestore = "void_restore"
	StockMoveAdjust      = "manual_adjust"
	StockMoveImport      = "import"
)

// StockMovement records every stock change on a product. Entries are
// append-only: positive Quantity = stock in, negative = stock out.
type StockMovement struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Type        string          `gorm:"type:varchar(20);not null"`
	Quantity    decimal.Decimal `gorm:"type:decimal(10,3);not null"`
	StockBefore decimal.Decimal `gorm:"type:decimal(10,3);not null"`
	StockAfter  decimal.Decimal `gorm:"type:decimal(10,3);not null"`
	Reason      string
	// ReferenceID links to the originating sale or session when applicable.
	ReferenceID *uuid.UUID `gorm:"type:uuid"`
	CreatedAt   time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}
