package repository

import (
	"context"

	"gorm.io/gorm"
)

// RunTx executes fn inside a database transaction. When db is nil (unit
// tests running against in-memory stubs) fn is invoked directly with a nil
// tx, so services can be exercised without a live database.
func RunTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}
