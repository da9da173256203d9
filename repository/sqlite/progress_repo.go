package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/fastygo/questboard/domain"
	"github.com/fastygo/questboard/repository"
)

type progressRepository struct {
	q dbtx
}

// NewProgressRepository returns a SQLite-backed ProgressRepository.
func NewProgressRepository(db *sql.DB) repository.ProgressRepository {
	return &progressRepository{q: db}
}

func (r *progressRepository) AddReward(ctx context.Context, userID, day string, reward domain.Reward) (*domain.DailyProgress, error) {
	const query = `
	INSERT INTO daily_progress (user_id, date, bonus_points, xp, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT (user_id, date) DO UPDATE
	SET bonus_points = daily_progress.bonus_points + excluded.bonus_points,
		xp = daily_progress.xp + excluded.xp,
		updated_at = excluded.updated_at
	RETURNING user_id, date, bonus_points, xp
	`

	var row domain.DailyProgress
	if err := r.q.QueryRowContext(ctx, query, userID, day, reward.BonusPoints, reward.XP, formatTime(time.Now())).
		Scan(&row.UserID, &row.Date, &row.BonusPoints, &row.XP); err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *progressRepository) ListSince(ctx context.Context, userID, fromDay string) ([]domain.DailyProgress, error) {
	const query = `
	SELECT user_id, date, bonus_points, xp
	FROM daily_progress
	WHERE user_id = ? AND date >= ?
	ORDER BY date ASC
	`
	rows, err := r.q.QueryContext(ctx, query, userID, fromDay)
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
	if _, err := r.q.ExecContext(ctx, `DELETE FROM daily_progress WHERE user_id = ?`, userID); err != nil {
		return err
	}

	now := formatTime(time.Now())
	const insert = `
	INSERT INTO daily_progress (user_id, date, bonus_points, xp, updated_at)
	VALUES (?, ?, ?, ?, ?)
	`
	for _, row := range rows {
		if _, err := r.q.ExecContext(ctx, insert, userID, row.Date, row.BonusPoints, row.XP, now); err != nil {
			return err
		}
	}
	return nil
}
