package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sale unit kinds. Weighable products carry fractional stock (3 decimals);
// discrete products only accept whole quantities at sale time.
const (
	SaleUnitDiscrete  = "unit"
	SaleUnitWeighable = "weight"
)

// Product represents one catalog item. Products are never hard-deleted —
// historical sale lines reference them, so removal is a soft deactivation.
type Product struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Code        string    `gorm:"uniqueIndex;not null"`
	Name        string    `gorm:"index;not null"`
	Description *string
	CategoryID  *uuid.UUID `gorm:"type:uuid;index"`
	SaleUnit    string     `gorm:"type:varchar(10);not null;default:'unit'"`
	CostPrice   decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	SalePrice   decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	// StockActual never goes below zero after a committed operation.
	// decimal(10,3) so weighable goods can hold fractional stock.
	StockActual  decimal.Decimal `gorm:"type:decimal(10,3);not null;default:0"`
	StockMinimum decimal.Decimal `gorm:"type:decimal(10,3);not null;default:5"`
	Active       bool            `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Category *Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL"`
}
