package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yanarios/sistema-kiosco/internal/model"
)

// SessionRepository manages cash sessions and the movement ledger.
// Movements are append-only: there is deliberately no update or delete.
type SessionRepository interface {
	FindOpen(ctx context.Context) (*model.CashSession, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.CashSession, error)
	ListSessions(ctx context.Context, page, limit int) ([]model.CashSession, int64, error)
	UpdateAuditNote(ctx context.Context, id uuid.UUID, note string) error
	CreateMovement(ctx context.Context, m *model.CashMovement) error
	ListMovements(ctx context.Context, sessionID uuid.UUID) ([]model.CashMovement, error)

	// Transactional variants. FindOpenTx locks the open-session row so a
	// sale cannot attach to a session that closes mid-transaction, and two
	// concurrent opens cannot both pass the existence check.
	CreateSessionTx(tx *gorm.DB, s *model.CashSession) error
	FindOpenTx(tx *gorm.DB) (*model.CashSession, error)
	FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.CashSession, error)
	UpdateSessionTx(tx *gorm.DB, s *model.CashSession) error
	CreateMovementTx(tx *gorm.DB, m *model.CashMovement) error
	// SumMovementsTx returns total inflows and outflows for a session.
	SumMovementsTx(tx *gorm.DB, sessionID uuid.UUID) (in, out decimal.Decimal, err error)

	DB() *gorm.DB
}

type sessionRepo struct{ db *gorm.DB }

func NewSessionRepository(db *gorm.DB) SessionRepository { return &sessionRepo{db: db} }

func (r *sessionRepo) DB() *gorm.DB { return r.db }

func (r *sessionRepo) FindOpen(ctx context.Context) (*model.CashSession, error) {
	var s model.CashSession
	err := r.db.WithContext(ctx).Where("open = true").First(&s).Error
	return &s, err
}

func (r *sessionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.CashSession, error) {
	var s model.CashSession
	err := r.db.WithContext(ctx).Preload("User").Preload("Movements").First(&s, id).Error
	return &s, err
}

func (r *sessionRepo) ListSessions(ctx context.Context, page, limit int) ([]model.CashSession, int64, error) {
	var sessions []model.CashSession
	var total int64

	q := r.db.WithContext(ctx).Model(&model.CashSession{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Preload("User").Order("opened_at DESC").
		Offset((page - 1) * limit).Limit(limit).Find(&sessions).Error
	return sessions, total, err
}

func (r *sessionRepo) UpdateAuditNote(ctx context.Context, id uuid.UUID, note string) error {
	return r.db.WithContext(ctx).Model(&model.CashSession{}).
		Where("id = ?", id).Update("audit_note", note).Error
}

func (r *sessionRepo) CreateMovement(ctx context.Context, m *model.CashMovement) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *sessionRepo) ListMovements(ctx context.Context, sessionID uuid.UUID) ([]model.CashMovement, error) {
	var movs []model.CashMovement
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).
		Order("created_at ASC").Find(&movs).Error
	return movs, err
}

func (r *sessionRepo) CreateSessionTx(tx *gorm.DB, s *model.CashSession) error {
	return tx.Create(s).Error
}

func (r *sessionRepo) FindOpenTx(tx *gorm.DB) (*model.CashSession, error) {
	var s model.CashSession
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("open = true").First(&s).Error
	return &s, err
}

func (r *sessionRepo) FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.CashSession, error) {
	var s model.CashSession
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&s, id).Error
	return &s, err
}

func (r *sessionRepo) UpdateSessionTx(tx *gorm.DB, s *model.CashSession) error {
	return tx.Save(s).Error
}

func (r *sessionRepo) CreateMovementTx(tx *gorm.DB, m *model.CashMovement) error {
	return tx.Create(m).Error
}

func (r *sessionRepo) SumMovementsTx(tx *gorm.DB, sessionID uuid.UUID) (decimal.Decimal, decimal.Decimal, error) {
	type row struct {
		Direction string
		Total     decimal.Decimal
	}
	var rows []row
	err := tx.Model(&model.CashMovement{}).
		Select("direction, COALESCE(SUM(amount), 0) AS total").
		Where("session_id = ?", sessionID).
		Group("direction").Scan(&rows).Error
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	in, out := decimal.Zero, decimal.Zero
	for _, r := range rows {
		switch r.Direction {
		case model.MovementIn:
			in = r.Total
		case model.MovementOut:
			out = r.Total
		}
	}
	return in, out, nil
}
