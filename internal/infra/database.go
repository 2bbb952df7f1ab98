package infra

import (
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yanarios/sistema-kiosco/internal/model"
)

// ConnectDatabase opens the Postgres connection and migrates the schema.
// TranslateError is on so unique-constraint violations surface as
// gorm.ErrDuplicatedKey instead of driver-specific errors.
func ConnectDatabase(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(
		&model.Category{},
		&model.Product{},
		&model.Customer{},
		&model.User{},
		&model.CashSession{},
		&model.CashMovement{},
		&model.Sale{},
		&model.SaleLine{},
		&model.StockMovement{},
	); err != nil {
		return nil, err
	}

	if err := applySchemaPatches(db); err != nil {
		return nil, err
	}

	log.Info().Msg("database connected, schema up to date")
	return db, nil
}

// applySchemaPatches adds the constraints AutoMigrate cannot express. Every
// statement is idempotent so startup can run them unconditionally.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		// Hard guarantee behind the at-most-one-open-session rule: only one
		// row may carry open = true, whatever the application does.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_cash_sessions_single_open
		   ON cash_sessions (open) WHERE open`,
		// Stock can never be negative after a committed transaction.
		`DO $$ BEGIN
		   ALTER TABLE products ADD CONSTRAINT chk_products_stock_non_negative
		     CHECK (stock_actual >= 0);
		 EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
		// Drawer movements always carry a positive amount.
		`DO $$ BEGIN
		   ALTER TABLE cash_movements ADD CONSTRAINT chk_cash_movements_amount_positive
		     CHECK (amount > 0);
		 EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
		`CREATE INDEX IF NOT EXISTS idx_sales_created_at ON sales (created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_stock_movements_created_at ON stock_movements (created_at)`,
	}
	for _, patch := range patches {
		if err := db.Exec(patch).Error; err != nil {
			return err
		}
	}
	return nil
}
