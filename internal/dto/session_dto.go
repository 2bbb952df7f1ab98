package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type OpenSessionRequest struct {
	OpeningFloat decimal.Decimal `json:"opening_float" validate:"min=0"`
}

type RecordMovementRequest struct {
	Direction   string          `json:"direction"   validate:"required,oneof=in out"`
	Category    string          `json:"category"    validate:"required,oneof=other_income fixed_expense variable_expense supplier_payment owner_withdrawal"`
	Amount      decimal.Decimal `json:"amount"      validate:"required,gt=0"`
	Description string          `json:"description" validate:"required,min=3"`
}

// TenderCount is the cashier's blind physical count, one figure per tender.
type TenderCount struct {
	Cash    decimal.Decimal `json:"cash"    validate:"min=0"`
	Debit   decimal.Decimal `json:"debit"   validate:"min=0"`
	Credit  decimal.Decimal `json:"credit"  validate:"min=0"`
	Voucher decimal.Decimal `json:"voucher" validate:"min=0"`
}

type CloseSessionRequest struct {
	Counted   TenderCount `json:"counted" validate:"required"`
	AuditNote *string     `json:"audit_note"`
}

type AuditNoteRequest struct {
	Note string `json:"note" validate:"required,min=3"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

// Variance classifications — presentation over the stored numbers, never
// persisted.
const (
	VarianceOK        = "ok"
	VarianceShortfall = "shortfall"
	VarianceSurplus   = "surplus"
)

type TenderAmounts struct {
	Cash    decimal.Decimal `json:"cash"`
	Debit   decimal.Decimal `json:"debit"`
	Credit  decimal.Decimal `json:"credit"`
	Voucher decimal.Decimal `json:"voucher"`
	Total   decimal.Decimal `json:"total"`
}

type VarianceResponse struct {
	Amount         decimal.Decimal `json:"amount"`
	Classification string          `json:"classification"` // ok | shortfall | surplus
}

type CloseSessionResponse struct {
	SessionID string           `json:"session_id"`
	Expected  TenderAmounts    `json:"expected"`
	Counted   TenderAmounts    `json:"counted"`
	Variance  VarianceResponse `json:"variance"`
	ClosedAt  string           `json:"closed_at"`
}

type MovementResponse struct {
	ID          string          `json:"id"`
	Direction   string          `json:"direction"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	CreatedAt   string          `json:"created_at"`
}

type SessionReportResponse struct {
	SessionID    string             `json:"session_id"`
	User         string             `json:"user"`
	OpeningFloat decimal.Decimal    `json:"opening_float"`
	Expected     TenderAmounts      `json:"expected"`
	Counted      *TenderAmounts     `json:"counted"`
	Variance     *VarianceResponse  `json:"variance"`
	Open         bool               `json:"open"`
	AuditNote    *string            `json:"audit_note"`
	Movements    []MovementResponse `json:"movements"`
	OpenedAt     string             `json:"opened_at"`
	ClosedAt     *string            `json:"closed_at"`
}

type SessionListResponse struct {
	Data  []SessionReportResponse `json:"data"`
	Total int64                   `json:"total"`
	Page  int                     `json:"page"`
	Limit int                     `json:"limit"`
}
