package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"iheartcare/internal/domain"
	"iheartcare/internal/repository"
	"iheartcare/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuthService credential verification and session lifecycle.
type AuthService interface {
	// Authenticate unknown user, inactive user and wrong password all return ErrInvalidCredentials.
	Authenticate(ctx context.Context, username, password string) (*domain.Session, error)
	// Logout is idempotent.
	Logout(ctx context.Context, token string) error
	// Resolve returns ErrUnauthenticated for unknown or expired tokens.
	Resolve(ctx context.Context, token string) (*domain.Session, error)
}

type authService struct {
	users    repository.UsersRepository
	sessions store.SessionStore
	hasher   *PasswordHasher
	logger   *zap.Logger
	now      func() time.Time
}

func NewAuthService(users repository.UsersRepository, sessions store.SessionStore, hasher *PasswordHasher, logger *zap.Logger) AuthService {
	return &authService{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *authService) Authenticate(ctx context.Context, username, password string) (*domain.Session, error) {
	username = strings.TrimSpace(username)

	user, err := s.users.GetUserForLogin(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.hasher.VerifyDummy(password)
			s.logger.Warn("User login failed",
				zap.String("username", username),
				zap.String("reason", "unknown_user"),
			)
			return nil, ErrInvalidCredentials
		}
		return nil, storeError(s.logger, "get user for login", err)
	}

	passwordOK := s.hasher.Verify(user.PasswordHash, password)
	if !user.Active {
		s.logger.Warn("User login failed",
			zap.String("username", username),
			zap.Int64("user_id", user.ID),
			zap.String("reason", "inactive_user"),
		)
		return nil, ErrInvalidCredentials
	}
	if !passwordOK {
		s.logger.Warn("User login failed",
			zap.String("username", username),
			zap.Int64("user_id", user.ID),
			zap.String("reason", "wrong_password"),
		)
		return nil, ErrInvalidCredentials
	}

	role, err := domain.ParseRole(string(user.Role))
	if err != nil {
		s.logger.Error("User has an unknown role",
			zap.Int64("user_id", user.ID),
			zap.String("role", string(user.Role)),
		)
		return nil, ErrInvalidCredentials
	}

	session := &domain.Session{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		Username:  user.Username,
		Role:      role,
		CreatedAt: s.now().UTC(),
	}
	switch role {
	case domain.RolePatient:
		session.PatientID = user.PatientID
	case domain.RoleClinician:
		session.ClinicianID = user.ClinicianID
	}

	if err := s.sessions.Save(ctx, session); err != nil {
		s.logger.Error("Failed to save session", zap.Int64("user_id", user.ID), zap.Error(err))
		return nil, ErrStoreUnavailable
	}

	s.logger.Info("User logged in",
		zap.Int64("user_id", user.ID),
		zap.String("role", role.String()),
	)
	return session, nil
}

func (s *authService) Logout(ctx context.Context, token string) error {
	if err := s.sessions.Delete(ctx, token); err != nil {
		s.logger.Error("Failed to delete session", zap.Error(err))
		return ErrStoreUnavailable
	}
	return nil
}

func (s *authService) Resolve(ctx context.Context, token string) (*domain.Session, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	session, err := s.sessions.Get(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return nil, ErrUnauthenticated
		}
		s.logger.Error("Failed to load session", zap.Error(err))
		return nil, ErrStoreUnavailable
	}
	return session, nil
}
