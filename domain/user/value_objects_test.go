package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"asha@example.com", "asha@example.com", true},
		{"  Asha.Rao+orders@Example.IN ", "asha.rao+orders@example.in", true},
		{"", "", false},
		{"asha", "", false},
		{"asha@localhost", "", false},
		{"Asha <asha@example.com>", "", false},
		{"asha@@example.com", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			email, err := NewEmail(tt.in)
			if !tt.ok {
				assert.ErrorIs(t, err, ErrInvalidEmail)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, email.Value())
		})
	}
}

func TestEmailMasked(t *testing.T) {
	email, err := NewEmail("asha@example.com")
	require.NoError(t, err)
	assert.Equal(t, "a***@example.com", email.Masked())
	assert.False(t, email.IsZero())

	assert.True(t, Email{}.IsZero())
	assert.Equal(t, "", Email{}.Masked())
}
