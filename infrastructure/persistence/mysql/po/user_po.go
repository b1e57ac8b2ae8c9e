package po

import (
	"time"

	"storefront/domain/user"
)

// UserPO 用户资料行；角色只存 user / admin
type UserPO struct {
	ID        string `gorm:"primaryKey;size:64"`
	Name      string `gorm:"size:100;not null"`
	Email     string `gorm:"size:255;uniqueIndex:uk_users_email;not null"`
	Role      string `gorm:"size:20;not null;default:user;index"`
	IsActive  bool   `gorm:"not null;default:true"`
	Version   int    `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (UserPO) TableName() string { return "users" }

func FromUserDomain(u *user.User) *UserPO {
	return &UserPO{
		ID:        u.ID(),
		Name:      u.Name(),
		Email:     u.Email().Value(),
		Role:      string(u.Role()),
		IsActive:  u.IsActive(),
		Version:   u.Version(),
		CreatedAt: u.CreatedAt(),
		UpdatedAt: u.UpdatedAt(),
	}
}

func (row *UserPO) ToDomain() *user.User {
	return user.RebuildFromDTO(user.ReconstructionDTO{
		ID:        row.ID,
		Name:      row.Name,
		Email:     row.Email,
		Role:      user.Role(row.Role),
		IsActive:  row.IsActive,
		Version:   row.Version,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	})
}
