package infra

// Integration tests against a throwaway Postgres container. Skipped unless
// KIOSCO_INTEGRATION=1, so the regular test run stays Docker-free.

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	"github.com/yanarios/sistema-kiosco/internal/model"
)

func setupPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	if os.Getenv("KIOSCO_INTEGRATION") == "" {
		t.Skip("set KIOSCO_INTEGRATION=1 to run container-backed tests")
	}

	ctx := context.Background()
	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("kiosco"),
		tcpostgres.WithUsername("kiosco"),
		tcpostgres.WithPassword("kiosco"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctr.Terminate(ctx) })

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := ConnectDatabase(dsn)
	require.NoError(t, err)
	return db
}

func TestSchema_SingleOpenSessionIndex(t *testing.T) {
	db := setupPostgres(t)

	user := &model.User{Username: "it-admin", Name: "IT", PasswordHash: "x", Role: model.RoleAdmin, Active: true}
	require.NoError(t, db.Create(user).Error)

	first := &model.CashSession{UserID: user.ID, OpeningFloat: decimal.NewFromInt(100), Open: true, OpenedAt: time.Now()}
	require.NoError(t, db.Create(first).Error)

	second := &model.CashSession{UserID: user.ID, OpeningFloat: decimal.NewFromInt(50), Open: true, OpenedAt: time.Now()}
	err := db.Create(second).Error
	require.Error(t, err, "partial unique index must reject a second open session")
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	// Closing the first frees the slot.
	now := time.Now()
	first.Open = false
	first.ClosedAt = &now
	require.NoError(t, db.Save(first).Error)
	require.NoError(t, db.Create(second).Error)
}

func TestSchema_StockCannotGoNegative(t *testing.T) {
	db := setupPostgres(t)

	p := &model.Product{Code: "IT-1", Name: "Widget", SaleUnit: model.SaleUnitDiscrete,
		CostPrice: decimal.NewFromInt(1), SalePrice: decimal.NewFromInt(2),
		StockActual: decimal.NewFromInt(3), Active: true}
	require.NoError(t, db.Create(p).Error)

	err := db.Model(&model.Product{}).Where("id = ?", p.ID).
		Update("stock_actual", gorm.Expr("stock_actual - ?", decimal.NewFromInt(5))).Error
	require.Error(t, err, "check constraint must reject negative stock")

	var reloaded model.Product
	require.NoError(t, db.First(&reloaded, p.ID).Error)
	assert.True(t, reloaded.StockActual.Equal(decimal.NewFromInt(3)))
}

func TestSchema_MovementAmountMustBePositive(t *testing.T) {
	db := setupPostgres(t)

	user := &model.User{Username: "it-cash", Name: "IT", PasswordHash: "x", Role: model.RoleCashier, Active: true}
	require.NoError(t, db.Create(user).Error)
	session := &model.CashSession{UserID: user.ID, OpeningFloat: decimal.Zero, Open: true, OpenedAt: time.Now()}
	require.NoError(t, db.Create(session).Error)

	bad := &model.CashMovement{SessionID: session.ID, Direction: model.MovementOut,
		Category: model.MovementFixedExpense, Amount: decimal.NewFromInt(-5), Description: "neg"}
	require.Error(t, db.Create(bad).Error)

	good := &model.CashMovement{ID: uuid.New(), SessionID: session.ID, Direction: model.MovementOut,
		Category: model.MovementFixedExpense, Amount: decimal.NewFromInt(5), Description: "rent"}
	require.NoError(t, db.Create(good).Error)
}
