package repository

import (
	"context"

	"github.com/fastygo/questboard/domain"
)

// StatsRepository stores the per-user all-time aggregate.
type StatsRepository interface {
	Get(ctx context.Context, userID string) (*domain.UserStats, error)
	// GetForUpdate returns the totals and locks the row until the surrounding
	// transaction ends, so concurrent AddReward calls wait. A missing row is
	// created with zero totals first.
	GetForUpdate(ctx context.Context, userID string) (*domain.UserStats, error)
	// AddReward atomically increments the totals, creating the row on first use.
	AddReward(ctx context.Context, userID string, reward domain.Reward, day string) (*domain.UserStats, error)
	// Put overwrites the aggregate. Used by reconciliation only.
	Put(ctx context.Context, stats *domain.UserStats) error
}

// ProgressRepository stores the per-user, per-day aggregate.
type ProgressRepository interface {
	// AddReward atomically increments the (userID, day) row, creating it on first use.
	AddReward(ctx context.Context, userID, day string, reward domain.Reward) (*domain.DailyProgress, error)
	// ListSince returns rows with date >= fromDay ordered by date ascending.
	ListSince(ctx context.Context, userID, fromDay string) ([]domain.DailyProgress, error)
	// Replace drops every row of userID and writes rows instead. Used by reconciliation only.
	Replace(ctx context.Context, userID string, rows []domain.DailyProgress) error
}
