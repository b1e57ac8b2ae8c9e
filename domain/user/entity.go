package user

import (
	"strings"
	"time"

	"storefront/domain/shared"

	"github.com/google/uuid"
)

// User 用户聚合根
// 账号的签发与维护在外部系统完成；这里只保留订单流程需要的字段：
// 通知收件人（email、name）与角色（管理员判定的数据库回退）。
type User struct {
	id        string
	name      string
	email     Email
	role      Role
	isActive  bool
	version   int // 乐观锁版本号
	createdAt time.Time
	updatedAt time.Time

	events []shared.DomainEvent
}

// NewUser 创建新用户实体
func NewUser(name, email string, role Role) (*User, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}
	return Register(id.String(), name, email, role)
}

// Register 以外部账号 ID 建立资料（ID 来自签发令牌的系统）
func Register(id, name, email string, role Role) (*User, error) {
	if strings.TrimSpace(id) == "" {
		return nil, shared.NewValidationError("user", "id", "user id cannot be empty")
	}
	if strings.TrimSpace(name) == "" {
		return nil, NewInvalidNameError()
	}
	emailVO, err := NewEmail(email)
	if err != nil {
		return nil, NewInvalidEmailError(email)
	}
	if role == "" {
		role = RoleCustomer
	}
	if !role.IsValid() {
		return nil, NewInvalidRoleError(string(role))
	}

	now := time.Now()
	return &User{
		id:        id,
		name:      strings.TrimSpace(name),
		email:     *emailVO,
		role:      role,
		isActive:  true,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// UpdateContact 更新通知收件人信息
func (u *User) UpdateContact(name, email string) error {
	if !u.isActive {
		return NewUserNotActiveError(u.id)
	}
	if strings.TrimSpace(name) == "" {
		return NewInvalidNameError()
	}
	emailVO, err := NewEmail(email)
	if err != nil {
		return NewInvalidEmailError(email)
	}
	u.name = strings.TrimSpace(name)
	u.email = *emailVO
	u.updatedAt = time.Now()
	return nil
}

// Activate 启用用户
func (u *User) Activate() {
	u.isActive = true
	u.updatedAt = time.Now()
}

// Deactivate 停用用户
func (u *User) Deactivate() {
	u.isActive = false
	u.updatedAt = time.Now()
}

// Promote 授予管理员角色
func (u *User) Promote() {
	u.role = RoleAdmin
	u.updatedAt = time.Now()
}

// Principal 以该用户身份发起请求时的主体
func (u *User) Principal() Principal {
	return Principal{ID: u.id, Role: u.role}
}

func (u *User) ID() string           { return u.id }
func (u *User) Name() string         { return u.name }
func (u *User) Email() Email         { return u.email }
func (u *User) Role() Role           { return u.role }
func (u *User) IsActive() bool       { return u.isActive }
func (u *User) IsAdmin() bool        { return u.role == RoleAdmin }
func (u *User) Version() int         { return u.version }
func (u *User) CreatedAt() time.Time { return u.createdAt }
func (u *User) UpdatedAt() time.Time { return u.updatedAt }

// IncrementVersionForSave 仓储写入成功后调用
func (u *User) IncrementVersionForSave() { u.version++ }

// PullEvents 获取并清空聚合根的事件列表
func (u *User) PullEvents() []shared.DomainEvent {
	events := u.events
	u.events = nil
	return events
}

// ReconstructionDTO 仅限仓储层使用
type ReconstructionDTO struct {
	ID        string
	Name      string
	Email     string
	Role      Role
	IsActive  bool
	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RebuildFromDTO ⚠️ 仅应在仓储实现中使用
func RebuildFromDTO(dto ReconstructionDTO) *User {
	role := dto.Role
	if role == "" {
		role = RoleCustomer
	}
	return &User{
		id:        dto.ID,
		name:      dto.Name,
		email:     Email{value: dto.Email},
		role:      role,
		isActive:  dto.IsActive,
		version:   dto.Version,
		createdAt: dto.CreatedAt,
		updatedAt: dto.UpdatedAt,
	}
}

func (u *User) ToDTO() ReconstructionDTO {
	return ReconstructionDTO{
		ID:        u.id,
		Name:      u.name,
		Email:     u.email.Value(),
		Role:      u.role,
		IsActive:  u.isActive,
		Version:   u.version,
		CreatedAt: u.createdAt,
		UpdatedAt: u.updatedAt,
	}
}

// 编译时检查 User 实现了 AggregateRoot 接口
var _ shared.AggregateRoot = (*User)(nil)
