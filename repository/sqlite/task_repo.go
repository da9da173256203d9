package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/fastygo/questboard/domain"
	"github.com/fastygo/questboard/repository"
)

const taskColumns = `id, user_id, title, completed, bonus_points, xp, completed_at, created_at, updated_at`

type taskRepository struct {
	q dbtx
}

// NewTaskRepository returns a SQLite-backed TaskRepository.
func NewTaskRepository(db *sql.DB) repository.TaskRepository {
	return &taskRepository{q: db}
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`
	return scanTask(r.q.QueryRowContext(ctx, query, id))
}

func (r *taskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	var completed any
	if filter.Completed != nil {
		completed = boolToInt(*filter.Completed)
	}

	query := `
	SELECT ` + taskColumns + `
	FROM tasks
	WHERE (?1 = '' OR user_id = ?1)
	  AND (?2 IS NULL OR completed = ?2)
	ORDER BY created_at DESC, rowid DESC
	LIMIT ?3 OFFSET ?4
	`
	rows, err := r.q.QueryContext(ctx, query, filter.UserID, completed, clampLimit(filter.Limit), filter.Offset)
	if err != nil {
		return nil, err
	}
	return collectTasks(rows)
}

func (r *taskRepository) ListCompleted(ctx context.Context, userID string) ([]domain.Task, error) {
	query := `
	SELECT ` + taskColumns + `
	FROM tasks
	WHERE user_id = ? AND completed = 1
	ORDER BY completed_at, rowid
	`
	rows, err := r.q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	return collectTasks(rows)
}

func collectTasks(rows *sql.Rows) ([]domain.Task, error) {
	defer rows.Close()

	tasks := make([]domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}

	now := time.Now().UTC()
	const query = `
	INSERT INTO tasks (id, user_id, title, completed, bonus_points, xp, created_at, updated_at)
	VALUES (?, ?, ?, 0, 0, 0, ?, ?)
	`
	if _, err := r.q.ExecContext(ctx, query, task.ID, task.UserID, task.Title, formatTime(now), formatTime(now)); err != nil {
		return nil, err
	}

	task.Completed = false
	task.BonusPoints = 0
	task.XP = 0
	task.CompletedAt = nil
	task.CreatedAt = parseTime(formatTime(now))
	task.UpdatedAt = task.CreatedAt
	return task, nil
}

func (r *taskRepository) Rename(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}

	query := `
	UPDATE tasks
	SET title = ?, updated_at = ?
	WHERE id = ? AND user_id = ?
	RETURNING ` + taskColumns

	updated, err := scanTask(r.q.QueryRowContext(ctx, query, task.Title, formatTime(time.Now()), task.ID, task.UserID))
	if err != nil {
		return err
	}
	*task = *updated
	return nil
}

func (r *taskRepository) Complete(ctx context.Context, id, userID string, reward domain.Reward, at time.Time) (*domain.Task, bool, error) {
	query := `
	UPDATE tasks
	SET completed = 1,
		bonus_points = ?,
		xp = ?,
		completed_at = ?,
		updated_at = ?
	WHERE id = ? AND user_id = ? AND completed = 0
	RETURNING ` + taskColumns

	task, err := scanTask(r.q.QueryRowContext(ctx, query,
		reward.BonusPoints,
		reward.XP,
		formatTime(at),
		formatTime(time.Now()),
		id,
		userID,
	))
	if err == nil {
		return task, true, nil
	}
	if !errors.Is(err, domain.ErrTaskNotFound) {
		return nil, false, err
	}

	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if !existing.OwnedBy(userID) {
		return nil, false, domain.ErrTaskNotFound
	}
	return existing, false, nil
}

func (r *taskRepository) Delete(ctx context.Context, id, userID string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM tasks WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func scanTask(row scanner) (*domain.Task, error) {
	var (
		task        domain.Task
		completed   int
		completedAt sql.NullString
		createdAt   string
		updatedAt   string
	)

	if err := row.Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&completed,
		&task.BonusPoints,
		&task.XP,
		&completedAt,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}

	task.Completed = completed != 0
	if completedAt.Valid && completedAt.String != "" {
		t := parseTime(completedAt.String)
		task.CompletedAt = &t
	}
	task.CreatedAt = parseTime(createdAt)
	task.UpdatedAt = parseTime(updatedAt)
	return &task, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
