package mysql

import (
	"context"
	"errors"

	"storefront/infrastructure/persistence"

	"gorm.io/gorm"
)

var (
	errRowMissing   = errors.New("row does not exist")
	errVersionStale = errors.New("row version changed")
)

// conn 上下文中有 UoW 事务时复用事务，否则走连接池
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx := persistence.TxFromContext(ctx); tx != nil {
		return tx
	}
	return db.WithContext(ctx)
}

// updateVersioned writes cols only if the row still has the expected version,
// bumping it by one. Zero rows affected is told apart as errRowMissing or
// errVersionStale.
func updateVersioned(db *gorm.DB, model any, id string, version int, cols map[string]any) error {
	cols["version"] = version + 1
	result := db.Model(model).Where("id = ? AND version = ?", id, version).Updates(cols)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var n int64
	if err := db.Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return errRowMissing
	}
	return errVersionStale
}
