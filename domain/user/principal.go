package user

import (
	"context"
	"errors"

	"storefront/domain/shared"
)

// Role 用户角色
type Role string

const (
	RoleCustomer Role = "user"
	RoleAdmin    Role = "admin"
)

func (r Role) IsValid() bool {
	return r == RoleCustomer || r == RoleAdmin
}

// Principal authenticated caller, produced by the HTTP auth middleware
type Principal struct {
	ID   string
	Role Role
}

func (p Principal) IsAuthenticated() bool { return p.ID != "" }

// AccessPolicy resolves admin rights: the token role first, then the stored
// role of the user as a fallback.
type AccessPolicy struct {
	directory Directory
}

func NewAccessPolicy(directory Directory) *AccessPolicy {
	return &AccessPolicy{directory: directory}
}

// IsAdmin lookup failures other than not-found are returned.
func (p *AccessPolicy) IsAdmin(ctx context.Context, principal Principal) (bool, error) {
	if !principal.IsAuthenticated() {
		return false, nil
	}
	if principal.Role == RoleAdmin {
		return true, nil
	}
	if p == nil || p.directory == nil {
		return false, nil
	}
	u, err := p.directory.FindByID(ctx, principal.ID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return u.IsActive() && u.IsAdmin(), nil
}
