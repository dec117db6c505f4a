package auth

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/abdulhamidalthaljy/CareConnect/internal/model"
	"github.com/abdulhamidalthaljy/CareConnect/internal/repository"
	"github.com/abdulhamidalthaljy/CareConnect/internal/session"
	apperrors "github.com/abdulhamidalthaljy/CareConnect/pkg/errors"
	"github.com/abdulhamidalthaljy/CareConnect/pkg/metrics"
	"github.com/abdulhamidalthaljy/CareConnect/pkg/security"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 150
	minPasswordLen = 6
)

var (
	ErrInvalidCredentials = apperrors.NewUnauthorized("Invalid username or password")
	ErrNotAuthenticated   = apperrors.NewUnauthorized("authentication required")
)

type Service struct {
	users    repository.UserRepository
	sessions session.Store
	hasher   security.PasswordHasher
	metrics  *metrics.Metrics
}

func NewService(users repository.UserRepository, sessions session.Store, hasher security.PasswordHasher, m *metrics.Metrics) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		metrics:  m,
	}
}

// Register validates req and creates the user with a hashed password.
func (s *Service) Register(ctx context.Context, req model.RegisterRequest) (*model.User, error) {
	username := strings.TrimSpace(req.Username)
	if n := utf8.RuneCountInString(username); n < minUsernameLen || n > maxUsernameLen {
		return nil, apperrors.NewBadRequest("Username must be between 3 and 150 characters", nil)
	}
	if len(req.Password) < minPasswordLen {
		return nil, apperrors.NewBadRequest("Password must be at least 6 characters", nil)
	}
	if req.Password != req.ConfirmPassword {
		return nil, apperrors.NewBadRequest("Passwords do not match", nil)
	}
	role, err := model.ParseRole(req.Role)
	if err != nil {
		return nil, apperrors.NewBadRequest("Invalid role", err)
	}

	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, apperrors.NewConflict("Username already exists", nil)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewInternal(err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperrors.NewInternal(err)
	}

	user := &model.User{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
	}
	if email := strings.TrimSpace(req.Email); email != "" {
		user.Email = &email
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperrors.NewConflict("Email already registered", err)
		}
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("Username already exists", err)
		}
		return nil, apperrors.NewInternal(err)
	}

	log.Info().Int64("user_id", user.ID).Str("role", role.String()).Msg("user registered")
	return user, nil
}

// Login checks the credentials and opens a session. Any failure yields
// ErrInvalidCredentials and no session.
func (s *Service) Login(ctx context.Context, username, password string) (*model.User, string, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, "", apperrors.NewInternal(err)
		}
		s.loginFailed(username)
		return nil, "", ErrInvalidCredentials
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		s.loginFailed(username)
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return nil, "", apperrors.NewInternal(err)
	}

	s.metrics.LoginAttempts.WithLabelValues("success").Inc()
	return user, token, nil
}

func (s *Service) loginFailed(username string) {
	s.metrics.LoginAttempts.WithLabelValues("failure").Inc()
	log.Warn().Str("username", username).Msg("login failed")
}

func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.Destroy(ctx, token); err != nil {
		return apperrors.NewInternal(err)
	}
	return nil
}

// Authenticate resolves a session token to its user.
func (s *Service) Authenticate(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, ErrNotAuthenticated
	}
	userID, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		if errors.Is(err, session.ErrInvalidSession) {
			return nil, ErrNotAuthenticated
		}
		return nil, apperrors.NewInternal(err)
	}

	user, err := s.users.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, apperrors.NewInternal(err)
	}
	return user, nil
}
