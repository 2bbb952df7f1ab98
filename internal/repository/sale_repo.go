package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yanarios/sistema-kiosco/internal/dto"
	"github.com/yanarios/sistema-kiosco/internal/model"
)

type SaleRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	List(ctx context.Context, filter dto.SaleFilter) ([]model.Sale, int64, error)

	CreateTx(tx *gorm.DB, s *model.Sale) error
	// FindByIDForUpdateTx locks the sale row so two concurrent voids of the
	// same ticket serialize and the second one sees voided = true.
	FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Sale, error)
	FindLinesTx(tx *gorm.DB, saleID uuid.UUID) ([]model.SaleLine, error)
	SetVoidedTx(tx *gorm.DB, id uuid.UUID) error
	// SumByMethodTx totals non-voided sales of a session per payment method.
	SumByMethodTx(tx *gorm.DB, sessionID uuid.UUID) (map[string]decimal.Decimal, error)

	DB() *gorm.DB
}

type saleRepo struct{ db *gorm.DB }

func NewSaleRepository(db *gorm.DB) SaleRepository { return &saleRepo{db: db} }

func (r *saleRepo) DB() *gorm.DB { return r.db }

func (r *saleRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	var s model.Sale
	err := r.db.WithContext(ctx).
		Preload("Lines").Preload("Lines.Product").Preload("User").Preload("Customer").
		First(&s, id).Error
	return &s, err
}

func (r *saleRepo) List(ctx context.Context, filter dto.SaleFilter) ([]model.Sale, int64, error) {
	var sales []model.Sale
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Sale{})

	switch filter.Status {
	case "voided":
		q = q.Where("voided = true")
	case "all":
		// no filter
	default:
		q = q.Where("voided = false")
	}
	if filter.Date != "" {
		q = q.Where("DATE(created_at) = ?", filter.Date)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Preload("Lines").Preload("Lines.Product").Preload("User").
		Order("created_at DESC").
		Offset((filter.Page - 1) * filter.Limit).Limit(filter.Limit).
		Find(&sales).Error
	return sales, total, err
}

func (r *saleRepo) CreateTx(tx *gorm.DB, s *model.Sale) error {
	return tx.Create(s).Error
}

func (r *saleRepo) FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Sale, error) {
	var s model.Sale
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&s, id).Error
	return &s, err
}

func (r *saleRepo) FindLinesTx(tx *gorm.DB, saleID uuid.UUID) ([]model.SaleLine, error) {
	var lines []model.SaleLine
	err := tx.Where("sale_id = ?", saleID).Find(&lines).Error
	return lines, err
}

func (r *saleRepo) SetVoidedTx(tx *gorm.DB, id uuid.UUID) error {
	return tx.Model(&model.Sale{}).Where("id = ?", id).Update("voided", true).Error
}

func (r *saleRepo) SumByMethodTx(tx *gorm.DB, sessionID uuid.UUID) (map[string]decimal.Decimal, error) {
	type row struct {
		PaymentMethod string
		Total         decimal.Decimal
	}
	var rows []row
	err := tx.Model(&model.Sale{}).
		Select("payment_method, COALESCE(SUM(total), 0) AS total").
		Where("session_id = ? AND voided = false", sessionID).
		Group("payment_method").Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	sums := make(map[string]decimal.Decimal, len(rows))
	for _, r := range rows {
		sums[r.PaymentMethod] = r.Total
	}
	return sums, nil
}
