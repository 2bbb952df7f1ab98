package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment methods accepted at the till.
const (
	PayCash        = "cash"
	PayCardDebit   = "card_debit"
	PayCardCredit  = "card_credit"
	PayWallet      = "wallet"
	PayStoreCredit = "store_credit"
)

// Tender buckets used at reconciliation. Payment methods map onto buckets
// through config.TenderMapping, not through code.
const (
	TenderCash    = "cash"
	TenderDebit   = "debit"
	TenderCredit  = "credit"
	TenderVoucher = "voucher"
)

// Sale is created atomically with its lines. It is never deleted: a reversal
// sets Voided and restores stock, keeping the record for audit.
// Invariant: Total == Σ line subtotals at commit time.
type Sale struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionID     uuid.UUID  `gorm:"type:uuid;index;not null"`
	UserID        uuid.UUID  `gorm:"type:uuid;not null"`
	CustomerID    *uuid.UUID `gorm:"type:uuid;index"`
	PaymentMethod string     `gorm:"type:varchar(20);not null;default:'cash'"`
	Total         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Voided        bool            `gorm:"not null;default:false"`
	CreatedAt     time.Time

	Session  *CashSession `gorm:"foreignKey:SessionID;constraint:OnDelete:RESTRICT"`
	User     *User        `gorm:"foreignKey:UserID"`
	Customer *Customer    `gorm:"foreignKey:CustomerID;constraint:OnDelete:SET NULL"`
	Lines    []SaleLine   `gorm:"foreignKey:SaleID"`
}

// SaleLine snapshots the product price at sale time, decoupled from later
// price changes. Subtotal is derived (quantity × unit price), never set
// independently.
type SaleLine struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SaleID    uuid.UUID       `gorm:"type:uuid;index;not null"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity  decimal.Decimal `gorm:"type:decimal(10,3);not null"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Subtotal  decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	Sale    *Sale    `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
	Product *Product `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT"`
}
