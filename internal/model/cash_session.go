package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CashSession is one register-open-to-close period, the unit of cash
// reconciliation. At most one session may be open at any time — enforced by a
// partial unique index (see infra.applySchemaPatches) on top of the locking
// read the service performs.
//
// Once closed, every numeric field is frozen; only AuditNote stays writable.
type CashSession struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserID       uuid.UUID       `gorm:"type:uuid;not null"`
	OpeningFloat decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// ExpectedClose and ActualClose stay null while the session is open.
	ExpectedClose *decimal.Decimal `gorm:"type:decimal(12,2)"`
	ActualClose   *decimal.Decimal `gorm:"type:decimal(12,2)"`
	// Physical count, entered blind by the cashier at close time.
	ActualCash    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	ActualDebit   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	ActualCredit  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	ActualVoucher decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	AuditNote     *string
	Open          bool `gorm:"not null;default:true"`
	OpenedAt      time.Time
	ClosedAt      *time.Time

	User      *User          `gorm:"foreignKey:UserID"`
	Movements []CashMovement `gorm:"foreignKey:SessionID"`
}

func (CashSession) TableName() string { return "cash_sessions" }

// Movement directions.
const (
	MovementIn  = "in"
	MovementOut = "out"
)

// Movement categories for manual drawer entries.
const (
	MovementOtherIncome     = "other_income"
	MovementFixedExpense    = "fixed_expense"
	MovementVariableExpense = "variable_expense"
	MovementSupplierPayment = "supplier_payment"
	MovementOwnerWithdrawal = "owner_withdrawal"
)

// CashMovement is an immutable event in the drawer ledger: created during an
// open session, never updated or deleted afterwards. Amount is always
// positive; Direction carries the sign.
type CashMovement struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionID   uuid.UUID       `gorm:"type:uuid;index;not null"`
	Direction   string          `gorm:"type:varchar(5);not null"`
	Category    string          `gorm:"type:varchar(30);not null;default:'other_income'"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Description string          `gorm:"not null"`
	CreatedAt   time.Time

	Session *CashSession `gorm:"foreignKey:SessionID;constraint:OnDelete:RESTRICT"`
}

func (CashMovement) TableName() string { return "cash_movements" }
