package mysql

import (
	"context"
	"errors"
	"strings"

	"storefront/domain/shared"
	"storefront/domain/user"
	"storefront/infrastructure/persistence/mysql/po"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

const errDupEntry = 1062

// UserRepository users table; email carries a unique index.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Save version 0 inserts, anything else is a version-checked update.
func (r *UserRepository) Save(ctx context.Context, u *user.User) error {
	row := po.FromUserDomain(u)
	db := conn(ctx, r.db)

	var err error
	if u.Version() == 0 {
		row.Version = 1
		err = db.Create(row).Error
	} else {
		err = updateVersioned(db, &po.UserPO{}, u.ID(), u.Version(), map[string]any{
			"name":       row.Name,
			"email":      row.Email,
			"role":       row.Role,
			"is_active":  row.IsActive,
			"updated_at": row.UpdatedAt,
		})
	}

	switch {
	case err == nil:
		u.IncrementVersionForSave()
		return nil
	case duplicateKey(err):
		return shared.NewConflictError("user", "email already registered")
	case errors.Is(err, errRowMissing):
		return user.NewUserNotFoundError(u.ID())
	case errors.Is(err, errVersionStale):
		return user.NewConcurrentModificationError(u.ID())
	}
	return err
}

func duplicateKey(err error) bool {
	var mysqlErr *mysqlDriver.MySQLError
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		(errors.As(err, &mysqlErr) && mysqlErr.Number == errDupEntry)
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*user.User, error) {
	return r.first(ctx, id, "id = ?", id)
}

// FindByEmail matches the normalised (trimmed, lower-case) address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.first(ctx, email, "email = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (r *UserRepository) first(ctx context.Context, key string, query string, arg any) (*user.User, error) {
	var row po.UserPO
	err := conn(ctx, r.db).First(&row, query, arg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, user.NewUserNotFoundError(key)
	}
	if err != nil {
		return nil, err
	}
	return row.ToDomain(), nil
}

var _ user.Repository = (*UserRepository)(nil)
