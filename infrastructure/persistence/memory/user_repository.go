package memory

import (
	"context"
	"strings"
	"sync"

	"storefront/domain/user"
)

// UserRepository in-memory user.Repository
type UserRepository struct {
	users map[string]user.ReconstructionDTO
	mu    sync.RWMutex
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]user.ReconstructionDTO)}
}

func (r *UserRepository) Save(_ context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.users[u.ID()]; ok && existing.Version != u.Version() {
		return user.NewConcurrentModificationError(u.ID())
	}
	u.IncrementVersionForSave()
	r.users[u.ID()] = u.ToDTO()
	return nil
}

func (r *UserRepository) FindByID(_ context.Context, id string) (*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	dto, ok := r.users[id]
	if !ok {
		return nil, user.NewUserNotFoundError(id)
	}
	return user.RebuildFromDTO(dto), nil
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, dto := range r.users {
		if strings.EqualFold(dto.Email, email) {
			return user.RebuildFromDTO(dto), nil
		}
	}
	return nil, user.NewUserNotFoundError(email)
}

var _ user.Repository = (*UserRepository)(nil)
