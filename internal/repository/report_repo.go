package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yanarios/sistema-kiosco/internal/model"
)

// ReportRepository holds the cross-entity aggregate queries behind the
// monthly report. Kept separate from the entity repositories so those stay
// focused on transactional access paths.
type ReportRepository interface {
	// SalesByMonth returns non-voided sales created in the given calendar
	// month, lines and products preloaded for cost and ranking math.
	SalesByMonth(ctx context.Context, year, month int) ([]model.Sale, error)
	// ExpensesByMonth sums outbound cash movements recorded in the month.
	ExpensesByMonth(ctx context.Context, year, month int) (decimal.Decimal, error)
}

type reportRepo struct{ db *gorm.DB }

func NewReportRepository(db *gorm.DB) ReportRepository { return &reportRepo{db: db} }

func monthBounds(year, month int) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.Local)
	return start, start.AddDate(0, 1, 0)
}

func (r *reportRepo) SalesByMonth(ctx context.Context, year, month int) ([]model.Sale, error) {
	start, end := monthBounds(year, month)
	var sales []model.Sale
	err := r.db.WithContext(ctx).
		Preload("Lines").Preload("Lines.Product").
		Where("voided = false AND created_at >= ? AND created_at < ?", start, end).
		Find(&sales).Error
	return sales, err
}

func (r *reportRepo) ExpensesByMonth(ctx context.Context, year, month int) (decimal.Decimal, error) {
	start, end := monthBounds(year, month)
	var total decimal.Decimal
	err := r.db.WithContext(ctx).Model(&model.CashMovement{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("direction = ? AND created_at >= ? AND created_at < ?", model.MovementOut, start, end).
		Scan(&total).Error
	return total, err
}
