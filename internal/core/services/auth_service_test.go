package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habits/internal/core/services"
)

func TestAuthService_Register(t *testing.T) {
	t.Parallel()

	t.Run("Success: Should register a valid user", func(t *testing.T) {
		mockRepo := new(MockUserRepo)
		service := services.NewAuthService(mockRepo)
		ctx := context.Background()

		input := services.RegisterInput{
			Email:    "test_success@kanso.app",
			Password: "StrongPassword123!",
		}

		mockRepo.On("Create", ctx, mock.AnythingOfType("*domain.User")).Return(nil)

		user, err := service.Register(ctx, input)

		require.NoError(t, err)
		assert.Equal(t, input.Email, user.Email)
		assert.NotEmpty(t, user.ID)
		assert.NotEmpty(t, user.PasswordHash)

		mockRepo.AssertExpectations(t)
	})

	t.Run("Fail: Should return error for invalid email", func(t *testing.T) {
		mockRepo := new(MockUserRepo)
		service := services.NewAuthService(mockRepo)

		user, err := service.Register(context.Background(), services.RegisterInput{Email: "not-an-email", Password: "pass"})

		assert.ErrorIs(t, err, domain.ErrInvalidEmail)
		assert.Nil(t, user)
		mockRepo.AssertNotCalled(t, "Create")
	})

	t.Run("Fail: Should return error for short password", func(t *testing.T) {
		mockRepo := new(MockUserRepo)
		service := services.NewAuthService(mockRepo)

		user, err := service.Register(context.Background(), services.RegisterInput{Email: "valid@email.com", Password: "short"})

		assert.ErrorIs(t, err, domain.ErrPasswordTooShort)
		assert.Nil(t, user)
		mockRepo.AssertNotCalled(t, "Create")
	})

	t.Run("Fail: Should propagate repository error (Duplicate Email)", func(t *testing.T) {
		mockRepo := new(MockUserRepo)
		service := services.NewAuthService(mockRepo)
		ctx := context.Background()

		mockRepo.On("Create", ctx, mock.Anything).Return(domain.ErrEmailAlreadyExists)

		user, err := service.Register(ctx, services.RegisterInput{Email: "duplicate@email.com", Password: "StrongPassword123!"})

		assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)
		assert.Nil(t, user)
		mockRepo.AssertExpectations(t)
	})
}

func TestAuthService_Login(t *testing.T) {
	stored, err := domain.NewUser("u-1", "walker@kanso.app")
	require.NoError(t, err)
	require.NoError(t, stored.SetPassword("CorrectHorse1"))

	tests := []struct {
		name     string
		email    string
		password string
		repoUser *domain.User
		repoErr  error
		wantErr  error
	}{
		{name: "Success", email: "  Walker@Kanso.app ", password: "CorrectHorse1", repoUser: stored},
		{name: "Wrong password", email: "walker@kanso.app", password: "nope-nope", repoUser: stored, wantErr: domain.ErrInvalidCredentials},
		{name: "Unknown email", email: "ghost@kanso.app", password: "CorrectHorse1", repoErr: domain.ErrUserNotFound, wantErr: domain.ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepo)
			service := services.NewAuthService(mockRepo)
			ctx := context.Background()

			var repoUser any
			if tt.repoUser != nil {
				repoUser = tt.repoUser
			}
			mockRepo.On("GetByEmail", ctx, mock.MatchedBy(func(email string) bool {
				return email == "walker@kanso.app" || email == "ghost@kanso.app"
			})).Return(repoUser, tt.repoErr)

			user, err := service.Login(ctx, services.LoginInput{Email: tt.email, Password: tt.password})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, user)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "u-1", user.ID)
		})
	}
}
