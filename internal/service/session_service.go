package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yanarios/sistema-kiosco/internal/apierror"
	"github.com/yanarios/sistema-kiosco/internal/dto"
	"github.com/yanarios/sistema-kiosco/internal/model"
	"github.com/yanarios/sistema-kiosco/internal/repository"
)

// SessionService manages the cash session lifecycle and reconciliation.
//
// The tender mapping and variance tolerance come from configuration: the
// close algorithm never hardcodes which payment methods settle into which
// drawer bucket.
type SessionService struct {
	sessions  repository.SessionRepository
	sales     repository.SaleRepository
	tenderMap map[string]string
	tolerance decimal.Decimal
}

func NewSessionService(
	sessions repository.SessionRepository,
	sales repository.SaleRepository,
	tenderMap map[string]string,
	tolerance decimal.Decimal,
) *SessionService {
	return &SessionService{
		sessions:  sessions,
		sales:     sales,
		tenderMap: tenderMap,
		tolerance: tolerance,
	}
}

// Open starts a new cash session. At most one session may be open: the
// existence check runs under a lock, and the partial unique index on
// cash_sessions(open) backs it up against anything that slips past.
func (s *SessionService) Open(ctx context.Context, userID uuid.UUID, req dto.OpenSessionRequest) (*dto.SessionReportResponse, error) {
	if req.OpeningFloat.IsNegative() {
		return nil, apierror.Validation("opening_float", "must not be negative")
	}

	session := &model.CashSession{
		UserID:       userID,
		OpeningFloat: req.OpeningFloat,
		Open:         true,
		OpenedAt:     time.Now(),
	}

	err := repository.RunTx(ctx, s.sessions.DB(), func(tx *gorm.DB) error {
		_, err := s.sessions.FindOpenTx(tx)
		if err == nil {
			return apierror.SessionAlreadyOpen()
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return apierror.Transient(err)
		}
		if err := s.sessions.CreateSessionTx(tx, session); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apierror.SessionAlreadyOpen()
			}
			return apierror.Transient(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("session_id", session.ID.String()).
		Str("opening_float", session.OpeningFloat.String()).
		Msg("cash session opened")

	resp := s.sessionToReport(session, nil, nil)
	return &resp, nil
}

// RecordMovement appends a manual drawer entry to the open session.
// Movements are immutable once written.
func (s *SessionService) RecordMovement(ctx context.Context, req dto.RecordMovementRequest) (*dto.MovementResponse, error) {
	if !req.Amount.IsPositive() {
		return nil, apierror.Validation("amount", "must be positive")
	}

	var mov *model.CashMovement
	err := repository.RunTx(ctx, s.sessions.DB(), func(tx *gorm.DB) error {
		session, err := s.sessions.FindOpenTx(tx)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apierror.NoOpenSession()
			}
			return apierror.Transient(err)
		}
		mov = &model.CashMovement{
			SessionID:   session.ID,
			Direction:   req.Direction,
			Category:    req.Category,
			Amount:      req.Amount,
			Description: req.Description,
		}
		if err := s.sessions.CreateMovementTx(tx, mov); err != nil {
			return apierror.Transient(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := movementToResponse(mov)
	return &resp, nil
}

// Close reconciles and closes the open session.
//
// Expected figures are computed per tender bucket from non-voided sales plus
// the opening float and manual movements (cash bucket only). The cashier's
// blind count is compared against them; the variance is classified against
// the configured tolerance and everything is frozen in one update.
func (s *SessionService) Close(ctx context.Context, req dto.CloseSessionRequest) (*dto.CloseSessionResponse, error) {
	counted := dto.TenderAmounts{
		Cash:    req.Counted.Cash,
		Debit:   req.Counted.Debit,
		Credit:  req.Counted.Credit,
		Voucher: req.Counted.Voucher,
	}
	counted.Total = counted.Cash.Add(counted.Debit).Add(counted.Credit).Add(counted.Voucher)

	var (
		session  *model.CashSession
		expected dto.TenderAmounts
		closedAt time.Time
	)
	err := repository.RunTx(ctx, s.sessions.DB(), func(tx *gorm.DB) error {
		var err error
		session, err = s.sessions.FindOpenTx(tx)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apierror.NoOpenSession()
			}
			return apierror.Transient(err)
		}

		expected, err = s.expectedTx(tx, session)
		if err != nil {
			return err
		}

		closedAt = time.Now()
		expTotal := expected.Total
		cntTotal := counted.Total
		session.ExpectedClose = &expTotal
		session.ActualClose = &cntTotal
		session.ActualCash = counted.Cash
		session.ActualDebit = counted.Debit
		session.ActualCredit = counted.Credit
		session.ActualVoucher = counted.Voucher
		session.AuditNote = req.AuditNote
		session.Open = false
		session.ClosedAt = &closedAt

		if err := s.sessions.UpdateSessionTx(tx, session); err != nil {
			return apierror.Transient(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	variance := s.classify(counted.Total.Sub(expected.Total))

	log.Info().
		Str("session_id", session.ID.String()).
		Str("expected", expected.Total.String()).
		Str("counted", counted.Total.String()).
		Str("variance", variance.Classification).
		Msg("cash session closed")

	return &dto.CloseSessionResponse{
		SessionID: session.ID.String(),
		Expected:  expected,
		Counted:   counted,
		Variance:  variance,
		ClosedAt:  closedAt.Format(time.RFC3339),
	}, nil
}

// AddAuditNote attaches or replaces the note on a closed session. It is the
// only field that stays writable after close.
func (s *SessionService) AddAuditNote(ctx context.Context, id uuid.UUID, note string) error {
	if _, err := s.sessions.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierror.NotFound("session", id.String())
		}
		return apierror.Transient(err)
	}
	if err := s.sessions.UpdateAuditNote(ctx, id, note); err != nil {
		return apierror.Transient(err)
	}
	return nil
}

// Active returns the open session's report, or NoOpenSession.
func (s *SessionService) Active(ctx context.Context) (*dto.SessionReportResponse, error) {
	session, err := s.sessions.FindOpen(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NoOpenSession()
		}
		return nil, apierror.Transient(err)
	}
	return s.Report(ctx, session.ID)
}

// Report builds the full session report, recomputing expected figures from
// the session's (frozen, for closed sessions) sales and movements.
func (s *SessionService) Report(ctx context.Context, id uuid.UUID) (*dto.SessionReportResponse, error) {
	session, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NotFound("session", id.String())
		}
		return nil, apierror.Transient(err)
	}

	var expected dto.TenderAmounts
	err = repository.RunTx(ctx, s.sessions.DB(), func(tx *gorm.DB) error {
		expected, err = s.expectedTx(tx, session)
		return err
	})
	if err != nil {
		return nil, err
	}

	resp := s.sessionToReport(session, &expected, session.Movements)
	return &resp, nil
}

// History lists past sessions, newest first. Closed sessions report the
// stored totals; per-bucket expected figures are only computed in Report.
func (s *SessionService) History(ctx context.Context, page, limit int) (*dto.SessionListResponse, error) {
	sessions, total, err := s.sessions.ListSessions(ctx, page, limit)
	if err != nil {
		return nil, apierror.Transient(err)
	}
	out := make([]dto.SessionReportResponse, 0, len(sessions))
	for i := range sessions {
		out = append(out, s.sessionToReport(&sessions[i], nil, nil))
	}
	return &dto.SessionListResponse{Data: out, Total: total, Page: page, Limit: limit}, nil
}

// expectedTx computes the expected drawer figures for a session. Voided
// sales are excluded. Methods missing from the tender mapping settle into
// the cash bucket.
func (s *SessionService) expectedTx(tx *gorm.DB, session *model.CashSession) (dto.TenderAmounts, error) {
	sums, err := s.sales.SumByMethodTx(tx, session.ID)
	if err != nil {
		return dto.TenderAmounts{}, apierror.Transient(err)
	}
	movIn, movOut, err := s.sessions.SumMovementsTx(tx, session.ID)
	if err != nil {
		return dto.TenderAmounts{}, apierror.Transient(err)
	}

	buckets := map[string]decimal.Decimal{
		model.TenderCash:    session.OpeningFloat.Add(movIn).Sub(movOut),
		model.TenderDebit:   decimal.Zero,
		model.TenderCredit:  decimal.Zero,
		model.TenderVoucher: decimal.Zero,
	}
	for method, sum := range sums {
		bucket, ok := s.tenderMap[method]
		if !ok {
			bucket = model.TenderCash
		}
		buckets[bucket] = buckets[bucket].Add(sum)
	}

	expected := dto.TenderAmounts{
		Cash:    buckets[model.TenderCash],
		Debit:   buckets[model.TenderDebit],
		Credit:  buckets[model.TenderCredit],
		Voucher: buckets[model.TenderVoucher],
	}
	expected.Total = expected.Cash.Add(expected.Debit).Add(expected.Credit).Add(expected.Voucher)
	return expected, nil
}

func (s *SessionService) classify(variance decimal.Decimal) dto.VarianceResponse {
	resp := dto.VarianceResponse{Amount: variance}
	switch {
	case variance.Abs().LessThanOrEqual(s.tolerance):
		resp.Classification = dto.VarianceOK
	case variance.IsNegative():
		resp.Classification = dto.VarianceShortfall
	default:
		resp.Classification = dto.VarianceSurplus
	}
	return resp
}

func (s *SessionService) sessionToReport(session *model.CashSession, expected *dto.TenderAmounts, movements []model.CashMovement) dto.SessionReportResponse {
	resp := dto.SessionReportResponse{
		SessionID:    session.ID.String(),
		OpeningFloat: session.OpeningFloat,
		Open:         session.Open,
		AuditNote:    session.AuditNote,
		OpenedAt:     session.OpenedAt.Format(time.RFC3339),
	}
	if session.User != nil {
		resp.User = session.User.Username
	}
	if expected != nil {
		resp.Expected = *expected
	} else if session.ExpectedClose != nil {
		resp.Expected = dto.TenderAmounts{Total: *session.ExpectedClose}
	}
	if !session.Open {
		counted := dto.TenderAmounts{
			Cash:    session.ActualCash,
			Debit:   session.ActualDebit,
			Credit:  session.ActualCredit,
			Voucher: session.ActualVoucher,
		}
		counted.Total = counted.Cash.Add(counted.Debit).Add(counted.Credit).Add(counted.Voucher)
		resp.Counted = &counted
		if session.ExpectedClose != nil && session.ActualClose != nil {
			v := s.classify(session.ActualClose.Sub(*session.ExpectedClose))
			resp.Variance = &v
		}
	}
	if session.ClosedAt != nil {
		closed := session.ClosedAt.Format(time.RFC3339)
		resp.ClosedAt = &closed
	}
	for i := range movements {
		resp.Movements = append(resp.Movements, movementToResponse(&movements[i]))
	}
	return resp
}

func movementToResponse(m *model.CashMovement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:          m.ID.String(),
		Direction:   m.Direction,
		Category:    m.Category,
		Amount:      m.Amount,
		Description: m.Description,
		CreatedAt:   m.CreatedAt.Format(time.RFC3339),
	}
}
