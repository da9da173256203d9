package profile

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/fastygo/questboard/domain"
	"github.com/fastygo/questboard/pkg/logger"
	"github.com/fastygo/questboard/repository"
	"github.com/fastygo/questboard/usecase"
)

type UseCase struct {
	users  repository.UserRepository
	stats  repository.StatsRepository
	buffer usecase.OperationBuffer
	logger *zap.Logger
}

func New(users repository.UserRepository, stats repository.StatsRepository, buffer usecase.OperationBuffer, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:  users,
		stats:  stats,
		buffer: buffer,
		logger: logger,
	}
}

// GetProfile returns the account together with its totals. A player who has
// not completed anything yet gets zero totals.
func (uc *UseCase) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return nil, usecase.StoreFailure("profile lookup failed", err)
	}

	profile := &domain.Profile{User: user, Stats: domain.EmptyStats(userID)}
	if uc.stats == nil {
		return profile, nil
	}
	stats, err := uc.stats.Get(ctx, userID)
	switch {
	case errors.Is(err, domain.ErrStatsNotFound):
	case err != nil:
		return nil, usecase.StoreFailure("stats lookup failed", err)
	default:
		profile.Stats = stats
	}
	return profile, nil
}

// UpdateProfile creates the account on first use. Status and creation time of
// an existing account are preserved; a write buffered while the store is down
// carries no status, so its replay cannot change it either.
func (uc *UseCase) UpdateProfile(ctx context.Context, user *domain.User) (*domain.User, error) {
	if user == nil || user.ID == "" {
		return nil, domain.ErrInvalidPayload
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.DisplayName = strings.TrimSpace(user.DisplayName)
	user.Status = ""

	if existing, err := uc.users.GetByID(ctx, user.ID); err == nil {
		user.CreatedAt = existing.CreatedAt
	}

	log := logger.WithRequestID(ctx, uc.logger)
	if err := uc.users.Upsert(ctx, user); err != nil {
		if uc.buffer == nil {
			return nil, usecase.StoreFailure("profile update failed", err)
		}
		if bufErr := uc.buffer.BufferProfile(ctx, usecase.OperationUpdate, user); bufErr != nil {
			log.Error("failed to buffer profile update", zap.Error(bufErr))
			return nil, usecase.StoreFailure("profile update failed", err)
		}
		log.Warn("profile update buffered", zap.Error(err))
		return user, nil
	}
	log.Debug("profile updated")
	return user, nil
}
