package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/questboard/domain"
	"github.com/fastygo/questboard/repository"
)

const progressColumns = `user_id, to_char(date, 'YYYY-MM-DD'), bonus_points, xp`

type progressRepository struct {
	q querier
}

// NewProgressRepository returns a Postgres-backed ProgressRepository.
func NewProgressRepository(pool *pgxpool.Pool) repository.ProgressRepository {
	return &progressRepository{q: pool}
}

func (r *progressRepository) AddReward(ctx context.Context, userID, day string, reward domain.Reward) (*domain.DailyProgress, error) {
	query := `
	INSERT INTO daily_progress (user_id, date, bonus_points, xp, updated_at)
	VALUES ($1, $2::text::date, $3, $4, NOW())
	ON CONFLICT (user_id, date) DO UPDATE
	SET bonus_points = daily_progress.bonus_points + EXCLUDED.bonus_points,
		xp = daily_progress.xp + EXCLUDED.xp,
		updated_at = NOW()
	RETURNING ` + progressColumns

	var row domain.DailyProgress
	if err := r.q.QueryRow(ctx, query, userID, day, reward.BonusPoints, reward.XP).
		Scan(&row.UserID, &row.Date, &row.BonusPoints, &row.XP); err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *progressRepository) ListSince(ctx context.Context, userID, fromDay string) ([]domain.DailyProgress, error) {
	query := `
	SELECT ` + progressColumns + `
	FROM daily_progress
	WHERE user_id = $1 AND date >= $2::text::date
	ORDER BY date ASC
	`
	rows, err := r.q.Query(ctx, query, userID, fromDay)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.DailyProgress
	for rows.Next() {
		var row domain.DailyProgress
		if err := rows.Scan(&row.UserID, &row.Date, &row.BonusPoints, &row.XP); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *progressRepository) Replace(ctx context.Context, userID string, rows []domain.DailyProgress) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM daily_progress WHERE user_id = $1`, userID); err != nil {
		return err
	}

	const insert = `
	INSERT INTO daily_progress (user_id, date, bonus_points, xp, updated_at)
	VALUES ($1, $2::text::date, $3, $4, NOW())
	`
	for _, row := range rows {
		if _, err := r.q.Exec(ctx, insert, userID, row.Date, row.BonusPoints, row.XP); err != nil {
			return err
		}
	}
	return nil
}
