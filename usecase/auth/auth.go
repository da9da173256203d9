package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/questboard/domain"
	"github.com/fastygo/questboard/pkg/logger"
	"github.com/fastygo/questboard/repository"
	"github.com/fastygo/questboard/usecase"
)

type UseCase struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	clock    usecase.Clock
	logger   *zap.Logger
}

// Option customises a UseCase.
type Option func(*UseCase)

// WithClock overrides the time source used for session expiry.
func WithClock(clock usecase.Clock) Option {
	return func(uc *UseCase) {
		if clock != nil {
			uc.clock = clock
		}
	}
}

func New(users repository.UserRepository, sessions repository.SessionRepository, logger *zap.Logger, opts ...Option) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	uc := &UseCase{
		users:    users,
		sessions: sessions,
		clock:    usecase.SystemClock,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// CreateSession signs in an active player. Disabled players are rejected as unauthorized.
func (uc *UseCase) CreateSession(ctx context.Context, userID string, ttl time.Duration) (*domain.Session, error) {
	if userID == "" {
		return nil, domain.ErrInvalidPayload
	}
	log := logger.WithRequestID(ctx, uc.logger).With(zap.String("user_id", userID))

	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return nil, usecase.StoreFailure("user lookup failed", err)
	}
	if !user.IsActive() {
		log.Warn("sign-in rejected for inactive user", zap.String("status", user.Status))
		return nil, domain.ErrUnauthorized
	}

	session := domain.NewSession(uuid.NewString(), user.ID, uc.clock(), ttl)
	if err := uc.sessions.Save(ctx, session); err != nil {
		return nil, usecase.StoreFailure("session save failed", err)
	}
	log.Info("session created", zap.String("session_id", session.ID), zap.Time("expires_at", session.ExpiresAt))
	return session, nil
}

// GetSession returns a live session. An expired one is purged and reported as not found.
func (uc *UseCase) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, usecase.StoreFailure("session lookup failed", err)
	}
	if session.IsExpired(uc.clock()) {
		if err := uc.sessions.Delete(ctx, sessionID); err != nil {
			logger.WithRequestID(ctx, uc.logger).Warn("expired session purge failed",
				zap.String("session_id", sessionID), zap.Error(err))
		}
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// RefreshSession extends a live session; expired sessions must sign in again.
func (uc *UseCase) RefreshSession(ctx context.Context, sessionID string, ttl time.Duration) (*domain.Session, error) {
	if _, err := uc.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	session, err := uc.sessions.Extend(ctx, sessionID, ttl)
	if err != nil {
		return nil, usecase.StoreFailure("session refresh failed", err)
	}
	return session, nil
}

// RevokeSession signs the player out. Revoking an unknown session is not an error.
func (uc *UseCase) RevokeSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return domain.ErrInvalidPayload
	}
	err := uc.sessions.Delete(ctx, sessionID)
	if err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		return usecase.StoreFailure("session revoke failed", err)
	}
	logger.WithRequestID(ctx, uc.logger).Info("session revoked", zap.String("session_id", sessionID))
	return nil
}
