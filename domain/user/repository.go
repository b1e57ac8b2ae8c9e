package user

import "context"

// Directory read-only lookup used by the order flow (notification recipients,
// admin-role fallback).
type Directory interface {
	FindByID(ctx context.Context, id string) (*User, error)
}

// Repository User repository interface
type Repository interface {
	Directory

	// Save Save or update user aggregate root
	// If user.Version() == 0 means create, else update
	Save(ctx context.Context, user *User) error

	// FindByEmail Find user by email (business uniqueness constraint)
	FindByEmail(ctx context.Context, email string) (*User, error)
}
