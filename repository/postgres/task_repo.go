package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/questboard/domain"
	"github.com/fastygo/questboard/repository"
)

const taskColumns = `id, user_id, title, completed, bonus_points, xp, completed_at, created_at, updated_at`

type taskRepository struct {
	q querier
}

// NewTaskRepository returns a Postgres-backed implementation of TaskRepository.
func NewTaskRepository(pool *pgxpool.Pool) repository.TaskRepository {
	return &taskRepository{q: pool}
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	return scanTask(r.q.QueryRow(ctx, query, id))
}

func (r *taskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	query := `
	SELECT ` + taskColumns + `
	FROM tasks
	WHERE ($1::text = '' OR user_id = $1::text)
	  AND ($2::boolean IS NULL OR completed = $2)
	ORDER BY created_at DESC, id DESC
	LIMIT $3 OFFSET $4
	`
	rows, err := r.q.Query(ctx, query, filter.UserID, filter.Completed, clampLimit(filter.Limit), filter.Offset)
	if err != nil {
		return nil, err
	}
	return collectTasks(rows)
}

func (r *taskRepository) ListCompleted(ctx context.Context, userID string) ([]domain.Task, error) {
	query := `
	SELECT ` + taskColumns + `
	FROM tasks
	WHERE user_id = $1 AND completed
	ORDER BY completed_at, id
	`
	rows, err := r.q.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	return collectTasks(rows)
}

func collectTasks(rows pgx.Rows) ([]domain.Task, error) {
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

	const query = `
	INSERT INTO tasks (id, user_id, title, completed, bonus_points, xp)
	VALUES ($1, $2, $3, FALSE, 0, 0)
	RETURNING created_at, updated_at
	`

	if err := r.q.QueryRow(ctx, query, task.ID, task.UserID, task.Title).Scan(&task.CreatedAt, &task.UpdatedAt); err != nil {
		return nil, err
	}
	task.Completed = false
	task.BonusPoints = 0
	task.XP = 0
	task.CompletedAt = nil
	return task, nil
}

func (r *taskRepository) Rename(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}

	query := `
	UPDATE tasks
	SET title = $3,
		updated_at = NOW()
	WHERE id = $1 AND user_id = $2
	RETURNING ` + taskColumns

	updated, err := scanTask(r.q.QueryRow(ctx, query, task.ID, task.UserID, task.Title))
	if err != nil {
		return err
	}
	*task = *updated
	return nil
}

func (r *taskRepository) Complete(ctx context.Context, id, userID string, reward domain.Reward, at time.Time) (*domain.Task, bool, error) {
	query := `
	UPDATE tasks
	SET completed = TRUE,
		bonus_points = $3,
		xp = $4,
		completed_at = $5,
		updated_at = NOW()
	WHERE id = $1 AND user_id = $2 AND completed = FALSE
	RETURNING ` + taskColumns

	task, err := scanTask(r.q.QueryRow(ctx, query, id, userID, reward.BonusPoints, reward.XP, at))
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
	const query = `DELETE FROM tasks WHERE id = $1 AND user_id = $2`
	tag, err := r.q.Exec(ctx, query, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func scanTask(row scanner) (*domain.Task, error) {
	var task domain.Task
	var completedAt *time.Time

	if err := row.Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.Completed,
		&task.BonusPoints,
		&task.XP,
		&completedAt,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}

	task.CompletedAt = completedAt
	return &task, nil
}
