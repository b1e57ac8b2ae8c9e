package user

import (
	"testing"

	"storefront/domain/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterKeepsExternalID(t *testing.T) {
	u, err := Register("auth0|42", "Asha", "asha@example.com", RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, "auth0|42", u.ID())
	assert.True(t, u.IsAdmin())
	assert.Equal(t, Principal{ID: "auth0|42", Role: RoleAdmin}, u.Principal())

	_, err = Register(" ", "Asha", "asha@example.com", "")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestUpdateContact(t *testing.T) {
	u, err := Register("user-1", "Asha", "asha@example.com", "")
	require.NoError(t, err)

	require.NoError(t, u.UpdateContact("Asha Rao", "ASHA.RAO@example.com"))
	assert.Equal(t, "Asha Rao", u.Name())
	assert.Equal(t, "asha.rao@example.com", u.Email().Value())

	assert.ErrorIs(t, u.UpdateContact("Asha", "nope"), ErrInvalidEmail)
	assert.ErrorIs(t, u.UpdateContact("", "asha@example.com"), ErrInvalidName)

	u.Deactivate()
	assert.ErrorIs(t, u.UpdateContact("Asha", "asha@example.com"), ErrUserNotActive)
	u.Activate()
	assert.NoError(t, u.UpdateContact("Asha", "asha@example.com"))
}

func TestRebuildDefaultsRole(t *testing.T) {
	u := RebuildFromDTO(ReconstructionDTO{ID: "u1", Name: "Legacy", Email: "legacy@example.com", IsActive: true, Version: 3})
	assert.Equal(t, RoleCustomer, u.Role())
	assert.Equal(t, 3, u.Version())
	assert.Equal(t, "legacy@example.com", u.ToDTO().Email)
}
