package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		email     string
		wantEmail string
		wantErr   error
	}{
		{"normalizes case and spaces", "  Test.User@Gmail.COM  ", "test.user@gmail.com", nil},
		{"plain address", "a@kanso.app", "a@kanso.app", nil},
		{"missing at sign", "invalid-email-format", "", ErrInvalidEmail},
		{"empty", "   ", "", ErrInvalidEmail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			user, err := NewUser("123", tt.email)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantEmail, user.Email)
			assert.Equal(t, "123", user.ID)
			assert.False(t, user.CreatedAt.IsZero())
			assert.Equal(t, user.CreatedAt, user.UpdatedAt)
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "x@y.io", NormalizeEmail(" X@Y.io\n"))
}

func TestUserPassword(t *testing.T) {
	t.Parallel()

	t.Run("hashes and bumps UpdatedAt", func(t *testing.T) {
		t.Parallel()
		user, err := NewUser("123", "test@test.com")
		require.NoError(t, err)
		old := user.UpdatedAt

		time.Sleep(time.Millisecond)
		require.NoError(t, user.SetPassword("superSecret123"))

		assert.NotEmpty(t, user.PasswordHash)
		assert.NotEqual(t, "superSecret123", user.PasswordHash)
		assert.True(t, user.UpdatedAt.After(old))
	})

	t.Run("rejects short passwords by rune count", func(t *testing.T) {
		t.Parallel()
		user, _ := NewUser("123", "test@test.com")

		assert.ErrorIs(t, user.SetPassword("short"), ErrPasswordTooShort)
		assert.ErrorIs(t, user.SetPassword("ñññññññ"), ErrPasswordTooShort)
		assert.Empty(t, user.PasswordHash)
	})

	t.Run("checks the password", func(t *testing.T) {
		t.Parallel()
		user, _ := NewUser("123", "test@test.com")
		require.NoError(t, user.SetPassword("correctPassword"))

		assert.NoError(t, user.CheckPassword("correctPassword"))
		assert.ErrorIs(t, user.CheckPassword("wrongPassword"), ErrInvalidCredentials)
	})

	t.Run("no password never matches", func(t *testing.T) {
		t.Parallel()
		user, _ := NewUser("123", "test@test.com")
		assert.ErrorIs(t, user.CheckPassword(""), ErrInvalidCredentials)
	})
}
