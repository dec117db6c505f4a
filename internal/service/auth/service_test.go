package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/abdulhamidalthaljy/CareConnect/internal/model"
	"github.com/abdulhamidalthaljy/CareConnect/internal/repository"
	"github.com/abdulhamidalthaljy/CareConnect/internal/repository/memory"
	"github.com/abdulhamidalthaljy/CareConnect/internal/service/auth"
	"github.com/abdulhamidalthaljy/CareConnect/internal/session"
	apperrors "github.com/abdulhamidalthaljy/CareConnect/pkg/errors"
	"github.com/abdulhamidalthaljy/CareConnect/pkg/metrics"
	"github.com/abdulhamidalthaljy/CareConnect/pkg/security"
)

func newService(t *testing.T) (*auth.Service, repository.Store) {
	t.Helper()
	store := memory.NewStore()
	svc := auth.NewService(store.Users, session.NewMemoryStore(time.Hour), security.NewBcryptHasher(bcrypt.MinCost), metrics.NewNop())
	return svc, store
}

func register(username, password, role string) model.RegisterRequest {
	return model.RegisterRequest{Username: username, Password: password, ConfirmPassword: password, Role: role}
}

func TestRegister(t *testing.T) {
	svc, _ := newService(t)

	user, err := svc.Register(context.Background(), register("  patient1 ", "secret1", ""))
	require.NoError(t, err)
	assert.Equal(t, "patient1", user.Username)
	assert.Equal(t, model.RolePatient, user.Role)
	assert.NotEqual(t, "secret1", user.PasswordHash)

	doc, err := svc.Register(context.Background(), register("doctor1", "secret1", " Doctor "))
	require.NoError(t, err)
	assert.Equal(t, model.RoleDoctor, doc.Role)
}

func TestRegisterDuplicateCreatesNoUser(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, register("patient1", "secret1", "patient"))
	require.NoError(t, err)

	_, err = svc.Register(ctx, register("patient1", "other-pass", "doctor"))
	assert.True(t, apperrors.IsCode(err, apperrors.ErrConflict))

	patients, _ := store.Users.ListByRole(ctx, model.RolePatient)
	doctors, _ := store.Users.ListByRole(ctx, model.RoleDoctor)
	assert.Len(t, patients, 1)
	assert.Empty(t, doctors)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	first := register("patient1", "secret1", "patient")
	first.Email = "pat@example.com"
	_, err := svc.Register(ctx, first)
	require.NoError(t, err)

	second := register("patient2", "secret1", "patient")
	second.Email = "pat@example.com"
	_, err = svc.Register(ctx, second)
	require.True(t, apperrors.IsCode(err, apperrors.ErrConflict))
	assert.Equal(t, "Email already registered", apperrors.As(err).Message)

	patients, _ := store.Users.ListByRole(ctx, model.RolePatient)
	assert.Len(t, patients, 1)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  model.RegisterRequest
	}{
		{"short username", register("ab", "secret1", "")},
		{"short password", register("patient1", "12345", "")},
		{"mismatch", model.RegisterRequest{Username: "patient1", Password: "secret1", ConfirmPassword: "secret2"}},
		{"bad role", register("patient1", "secret1", "admin")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.req)
			assert.True(t, apperrors.IsCode(err, apperrors.ErrBadRequest), "got %v", err)
		})
	}
}

func TestLogin(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, register("patient1", "secret1", ""))
	require.NoError(t, err)

	user, token, err := svc.Login(ctx, "patient1", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	resolved, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, resolved.ID)

	require.NoError(t, svc.Logout(ctx, token))
	_, err = svc.Authenticate(ctx, token)
	assert.ErrorIs(t, err, auth.ErrNotAuthenticated)
}

func TestLoginWrongPasswordOpensNoSession(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, register("patient1", "secret1", ""))
	require.NoError(t, err)

	user, token, err := svc.Login(ctx, "patient1", "wrong-pass")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	assert.Nil(t, user)
	assert.Empty(t, token)

	_, _, err = svc.Login(ctx, "PATIENT1", "secret1")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}
