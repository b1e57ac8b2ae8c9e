package user

import (
	"context"
	"errors"
	"testing"

	"storefront/domain/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type directoryFunc func(ctx context.Context, id string) (*User, error)

func (f directoryFunc) FindByID(ctx context.Context, id string) (*User, error) { return f(ctx, id) }

func TestAccessPolicyIsAdmin(t *testing.T) {
	admin, err := NewUser("Ops", "ops@example.com", RoleAdmin)
	require.NoError(t, err)
	customer, err := NewUser("Asha", "asha@example.com", "")
	require.NoError(t, err)
	inactive, err := NewUser("Old Admin", "old@example.com", RoleAdmin)
	require.NoError(t, err)
	inactive.Deactivate()

	users := map[string]*User{admin.ID(): admin, customer.ID(): customer, inactive.ID(): inactive}
	policy := NewAccessPolicy(directoryFunc(func(_ context.Context, id string) (*User, error) {
		if u, ok := users[id]; ok {
			return u, nil
		}
		return nil, NewUserNotFoundError(id)
	}))
	ctx := context.Background()

	tests := []struct {
		name      string
		principal Principal
		want      bool
	}{
		{"anonymous", Principal{}, false},
		{"token role admin", Principal{ID: "unknown", Role: RoleAdmin}, true},
		{"stored admin role", Principal{ID: admin.ID(), Role: RoleCustomer}, true},
		{"customer", customer.Principal(), false},
		{"inactive admin", Principal{ID: inactive.ID()}, false},
		{"unknown user", Principal{ID: "ghost"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := policy.IsAdmin(ctx, tt.principal)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAccessPolicyPropagatesLookupFailure(t *testing.T) {
	boom := errors.New("connection reset")
	policy := NewAccessPolicy(directoryFunc(func(context.Context, string) (*User, error) {
		return nil, boom
	}))

	_, err := policy.IsAdmin(context.Background(), Principal{ID: "u1"})
	assert.ErrorIs(t, err, boom)

	var nilPolicy *AccessPolicy
	ok, err := nilPolicy.IsAdmin(context.Background(), Principal{ID: "u1"})
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestNewUserValidation(t *testing.T) {
	_, err := NewUser(" ", "a@example.com", "")
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = NewUser("A", "not-an-email", "")
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = NewUser("A", "a@example.com", Role("root"))
	assert.ErrorIs(t, err, ErrInvalidRole)

	u, err := NewUser("A", "a@example.com", "")
	require.NoError(t, err)
	assert.Equal(t, RoleCustomer, u.Role())
	assert.True(t, u.IsActive())

	_, err = (directoryFunc(func(_ context.Context, id string) (*User, error) {
		return nil, NewUserNotFoundError(id)
	})).FindByID(context.Background(), "x")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
