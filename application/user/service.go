package user

import (
	"context"
	"errors"
	"time"

	"storefront/domain/shared"
	"storefront/domain/user"
	"storefront/pkg/logger"

	"go.uber.org/zap"
)

// ApplicationService User application service - keeps the contact profile the
// notification dispatcher and the admin fallback read from.
type ApplicationService struct {
	users      user.Repository
	access     *user.AccessPolicy
	uowFactory shared.UnitOfWorkFactory
}

// NewApplicationService Create user application service
func NewApplicationService(
	users user.Repository,
	access *user.AccessPolicy,
	uowFactory shared.UnitOfWorkFactory,
) *ApplicationService {
	return &ApplicationService{
		users:      users,
		access:     access,
		uowFactory: uowFactory,
	}
}

// SaveProfileRequest contact details for order notifications
type SaveProfileRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
}

// ProfileResponse User response DTO
type ProfileResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SaveProfile creates the caller's profile on first use and updates the
// contact details afterwards. The stored role is never lowered by a token.
func (s *ApplicationService) SaveProfile(ctx context.Context, principal user.Principal, req SaveProfileRequest) (*ProfileResponse, error) {
	if !principal.IsAuthenticated() {
		return nil, shared.NewUnauthorizedError("authentication required")
	}

	var u *user.User
	uow := s.uowFactory.New()
	err := uow.Execute(ctx, func(ctx context.Context) error {
		// email 在用户之间唯一
		if owner, err := s.users.FindByEmail(ctx, req.Email); err == nil {
			if owner.ID() != principal.ID {
				return shared.NewConflictError("user", "email already registered")
			}
		} else if !errors.Is(err, shared.ErrNotFound) {
			return err
		}

		existing, err := s.users.FindByID(ctx, principal.ID)
		switch {
		case err == nil:
			if err := existing.UpdateContact(req.Name, req.Email); err != nil {
				return err
			}
			u = existing
			uow.RegisterDirty(u)
		case errors.Is(err, shared.ErrNotFound):
			if u, err = user.Register(principal.ID, req.Name, req.Email, principal.Role); err != nil {
				return err
			}
			uow.RegisterNew(u)
		default:
			return err
		}
		return s.users.Save(ctx, u)
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("User profile saved", zap.String("user_id", u.ID()))
	return toProfileResponse(u), nil
}

// GetProfile Get the caller's profile
func (s *ApplicationService) GetProfile(ctx context.Context, principal user.Principal) (*ProfileResponse, error) {
	if !principal.IsAuthenticated() {
		return nil, shared.NewUnauthorizedError("authentication required")
	}
	u, err := s.users.FindByID(ctx, principal.ID)
	if err != nil {
		return nil, err
	}
	return toProfileResponse(u), nil
}

// PromoteUser grants the stored admin role (admin only)
func (s *ApplicationService) PromoteUser(ctx context.Context, principal user.Principal, userID string) (*ProfileResponse, error) {
	return s.modify(ctx, principal, userID, func(u *user.User) error {
		u.Promote()
		return nil
	})
}

// UpdateUserStatusRequest Update user status request DTO
type UpdateUserStatusRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// UpdateUserStatus activates or deactivates a user (admin only). A deactivated
// user loses the stored admin fallback.
func (s *ApplicationService) UpdateUserStatus(ctx context.Context, principal user.Principal, userID string, req UpdateUserStatusRequest) (*ProfileResponse, error) {
	if req.Active == nil {
		return nil, shared.NewValidationError("user", "active", "active is required")
	}
	return s.modify(ctx, principal, userID, func(u *user.User) error {
		if *req.Active {
			u.Activate()
		} else {
			u.Deactivate()
		}
		return nil
	})
}

func (s *ApplicationService) modify(ctx context.Context, principal user.Principal, userID string, change func(*user.User) error) (*ProfileResponse, error) {
	if err := s.requireAdmin(ctx, principal); err != nil {
		return nil, err
	}

	var u *user.User
	uow := s.uowFactory.New()
	err := uow.Execute(ctx, func(ctx context.Context) error {
		var err error
		if u, err = s.users.FindByID(ctx, userID); err != nil {
			return err
		}
		if err := change(u); err != nil {
			return err
		}
		uow.RegisterDirty(u)
		return s.users.Save(ctx, u)
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("User updated by admin",
		zap.String("user_id", u.ID()),
		zap.String("role", string(u.Role())),
		zap.Bool("active", u.IsActive()),
		zap.String("admin_id", principal.ID))
	return toProfileResponse(u), nil
}

func (s *ApplicationService) requireAdmin(ctx context.Context, principal user.Principal) error {
	if !principal.IsAuthenticated() {
		return shared.NewUnauthorizedError("authentication required")
	}
	isAdmin, err := s.access.IsAdmin(ctx, principal)
	if err != nil {
		return err
	}
	if !isAdmin {
		return shared.NewForbiddenError("user", "Admin access required")
	}
	return nil
}

func toProfileResponse(u *user.User) *ProfileResponse {
	return &ProfileResponse{
		ID:        u.ID(),
		Name:      u.Name(),
		Email:     u.Email().Value(),
		Role:      string(u.Role()),
		IsActive:  u.IsActive(),
		CreatedAt: u.CreatedAt(),
		UpdatedAt: u.UpdatedAt(),
	}
}
