package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fastygo/questboard/domain"
	"github.com/fastygo/questboard/repository"
)

const statsColumns = `user_id, total_bonus_points, total_xp, COALESCE(last_activity_date, ''), updated_at`

type statsRepository struct {
	q dbtx
}

// NewStatsRepository returns a SQLite-backed StatsRepository.
func NewStatsRepository(db *sql.DB) repository.StatsRepository {
	return &statsRepository{q: db}
}

func (r *statsRepository) Get(ctx context.Context, userID string) (*domain.UserStats, error) {
	query := `SELECT ` + statsColumns + ` FROM user_stats WHERE user_id = ?`
	return scanStats(r.q.QueryRowContext(ctx, query, userID))
}

// GetForUpdate relies on the write lock the insert takes; SQLite has no row locks.
func (r *statsRepository) GetForUpdate(ctx context.Context, userID string) (*domain.UserStats, error) {
	const insert = `
	INSERT INTO user_stats (user_id, updated_at)
	VALUES (?, ?)
	ON CONFLICT (user_id) DO NOTHING
	`
	if _, err := r.q.ExecContext(ctx, insert, userID, formatTime(time.Now())); err != nil {
		return nil, err
	}
	return r.Get(ctx, userID)
}

func (r *statsRepository) AddReward(ctx context.Context, userID string, reward domain.Reward, day string) (*domain.UserStats, error) {
	query := `
	INSERT INTO user_stats (user_id, total_bonus_points, total_xp, last_activity_date, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT (user_id) DO UPDATE
	SET total_bonus_points = user_stats.total_bonus_points + excluded.total_bonus_points,
		total_xp = user_stats.total_xp + excluded.total_xp,
		last_activity_date = MAX(COALESCE(user_stats.last_activity_date, ''), excluded.last_activity_date),
		updated_at = excluded.updated_at
	RETURNING ` + statsColumns

	return scanStats(r.q.QueryRowContext(ctx, query,
		userID,
		reward.BonusPoints,
		reward.XP,
		day,
		formatTime(time.Now()),
	))
}

func (r *statsRepository) Put(ctx context.Context, stats *domain.UserStats) error {
	if stats == nil || stats.UserID == "" {
		return domain.ErrInvalidPayload
	}

	var lastActivity any
	if stats.LastActivityDate != "" {
		lastActivity = stats.LastActivityDate
	}

	now := time.Now()
	const query = `
	INSERT INTO user_stats (user_id, total_bonus_points, total_xp, last_activity_date, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT (user_id) DO UPDATE
	SET total_bonus_points = excluded.total_bonus_points,
		total_xp = excluded.total_xp,
		last_activity_date = excluded.last_activity_date,
		updated_at = excluded.updated_at
	`
	if _, err := r.q.ExecContext(ctx, query,
		stats.UserID,
		stats.TotalBonusPoints,
		stats.TotalXP,
		lastActivity,
		formatTime(now),
	); err != nil {
		return err
	}
	stats.UpdatedAt = parseTime(formatTime(now))
	return nil
}

func scanStats(row scanner) (*domain.UserStats, error) {
	var (
		stats     domain.UserStats
		updatedAt string
	)
	if err := row.Scan(
		&stats.UserID,
		&stats.TotalBonusPoints,
		&stats.TotalXP,
		&stats.LastActivityDate,
		&updatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrStatsNotFound
		}
		return nil, err
	}
	stats.UpdatedAt = parseTime(updatedAt)
	return &stats, nil
}
