package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/questboard/domain"
	"github.com/fastygo/questboard/repository"
)

const statsColumns = `user_id, total_bonus_points, total_xp, COALESCE(to_char(last_activity_date, 'YYYY-MM-DD'), ''), updated_at`

type statsRepository struct {
	q querier
}

// NewStatsRepository returns a Postgres-backed StatsRepository.
func NewStatsRepository(pool *pgxpool.Pool) repository.StatsRepository {
	return &statsRepository{q: pool}
}

func (r *statsRepository) Get(ctx context.Context, userID string) (*domain.UserStats, error) {
	query := `SELECT ` + statsColumns + ` FROM user_stats WHERE user_id = $1`
	return scanStats(r.q.QueryRow(ctx, query, userID))
}

func (r *statsRepository) GetForUpdate(ctx context.Context, userID string) (*domain.UserStats, error) {
	const insert = `
	INSERT INTO user_stats (user_id, updated_at)
	VALUES ($1, NOW())
	ON CONFLICT (user_id) DO NOTHING
	`
	if _, err := r.q.Exec(ctx, insert, userID); err != nil {
		return nil, err
	}
	query := `SELECT ` + statsColumns + ` FROM user_stats WHERE user_id = $1 FOR UPDATE`
	return scanStats(r.q.QueryRow(ctx, query, userID))
}

func (r *statsRepository) AddReward(ctx context.Context, userID string, reward domain.Reward, day string) (*domain.UserStats, error) {
	query := `
	INSERT INTO user_stats (user_id, total_bonus_points, total_xp, last_activity_date, updated_at)
	VALUES ($1, $2, $3, $4::text::date, NOW())
	ON CONFLICT (user_id) DO UPDATE
	SET total_bonus_points = user_stats.total_bonus_points + EXCLUDED.total_bonus_points,
		total_xp = user_stats.total_xp + EXCLUDED.total_xp,
		last_activity_date = GREATEST(user_stats.last_activity_date, EXCLUDED.last_activity_date),
		updated_at = NOW()
	RETURNING ` + statsColumns

	return scanStats(r.q.QueryRow(ctx, query, userID, reward.BonusPoints, reward.XP, day))
}

func (r *statsRepository) Put(ctx context.Context, stats *domain.UserStats) error {
	if stats == nil || stats.UserID == "" {
		return domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO user_stats (user_id, total_bonus_points, total_xp, last_activity_date, updated_at)
	VALUES ($1, $2, $3, NULLIF($4::text, '')::date, NOW())
	ON CONFLICT (user_id) DO UPDATE
	SET total_bonus_points = EXCLUDED.total_bonus_points,
		total_xp = EXCLUDED.total_xp,
		last_activity_date = EXCLUDED.last_activity_date,
		updated_at = NOW()
	RETURNING updated_at
	`

	return r.q.QueryRow(ctx, query,
		stats.UserID,
		stats.TotalBonusPoints,
		stats.TotalXP,
		stats.LastActivityDate,
	).Scan(&stats.UpdatedAt)
}

func scanStats(row scanner) (*domain.UserStats, error) {
	var stats domain.UserStats
	if err := row.Scan(
		&stats.UserID,
		&stats.TotalBonusPoints,
		&stats.TotalXP,
		&stats.LastActivityDate,
		&stats.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrStatsNotFound
		}
		return nil, err
	}
	return &stats, nil
}
