package repository

import (
	"context"
	"time"

	"github.com/fastygo/questboard/domain"
)

type TaskFilter struct {
	UserID    string
	Completed *bool
	Limit     int
	Offset    int
}

type TaskRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	List(ctx context.Context, filter TaskFilter) ([]domain.Task, error)
	// ListCompleted returns every completed task of userID in one read, oldest completion first.
	ListCompleted(ctx context.Context, userID string) ([]domain.Task, error)
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	// Rename changes the title of a task owned by task.UserID.
	Rename(ctx context.Context, task *domain.Task) error
	// Complete flips an incomplete task owned by userID to completed and stamps the reward.
	// It returns applied=false with the stored task when the task was already completed.
	Complete(ctx context.Context, id, userID string, reward domain.Reward, at time.Time) (task *domain.Task, applied bool, err error)
	Delete(ctx context.Context, id, userID string) error
}
