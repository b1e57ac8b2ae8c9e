package user

import (
	"errors"

	"storefront/domain/shared"
)

var (
	ErrInvalidEmail           = errors.New("invalid email format")
	ErrInvalidName            = errors.New("name cannot be empty")
	ErrInvalidRole            = errors.New("invalid role")
	ErrUserNotActive          = errors.New("user is not active")
	ErrConcurrentModification = errors.New("user was modified by another transaction, please retry")
)

// NewUserNotFoundError wraps shared.ErrNotFound so generic lookups match it.
func NewUserNotFoundError(userID string) error {
	return shared.NewError(shared.ErrNotFound, "user", "", "user not found: "+userID)
}

func NewConcurrentModificationError(userID string) error {
	return shared.NewError(ErrConcurrentModification, "user", "",
		"user "+userID+" was modified by another transaction, please retry")
}

func NewInvalidEmailError(email string) error {
	return shared.NewError(ErrInvalidEmail, "user", "email", "invalid email format: "+email)
}

func NewInvalidNameError() error {
	return shared.NewError(ErrInvalidName, "user", "name", ErrInvalidName.Error())
}

func NewInvalidRoleError(role string) error {
	return shared.NewError(ErrInvalidRole, "user", "role", "invalid role: "+role)
}

func NewUserNotActiveError(userID string) error {
	return shared.NewError(ErrUserNotActive, "user", "", "user "+userID+" is not active")
}
