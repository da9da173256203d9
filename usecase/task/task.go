package task

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/questboard/domain"
	"github.com/fastygo/questboard/internal/metrics"
	"github.com/fastygo/questboard/pkg/logger"
	"github.com/fastygo/questboard/repository"
	"github.com/fastygo/questboard/usecase"
)

type UseCase struct {
	store  repository.Store
	buffer usecase.OperationBuffer
	cache  usecase.ProgressCache
	reward domain.Reward
	clock  usecase.Clock
	loc    *time.Location
	logger *zap.Logger
}

// Option customises a UseCase.
type Option func(*UseCase)

// WithClock overrides the time source used for completion timestamps and day boundaries.
func WithClock(clock usecase.Clock) Option {
	return func(uc *UseCase) {
		if clock != nil {
			uc.clock = clock
		}
	}
}

// WithLocation sets the time zone that decides which calendar day a completion counts for.
func WithLocation(loc *time.Location) Option {
	return func(uc *UseCase) {
		if loc != nil {
			uc.loc = loc
		}
	}
}

// WithProgressCache makes completions invalidate cached progress windows.
func WithProgressCache(cache usecase.ProgressCache) Option {
	return func(uc *UseCase) {
		uc.cache = cache
	}
}

func New(store repository.Store, buffer usecase.OperationBuffer, logger *zap.Logger, opts ...Option) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	uc := &UseCase{
		store:  store,
		buffer: buffer,
		reward: domain.DefaultReward,
		clock:  usecase.SystemClock,
		loc:    time.UTC,
		logger: logger,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

func (uc *UseCase) ListTasks(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	if filter.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	return uc.store.Tasks().List(ctx, filter)
}

// GetTask returns the task when it belongs to userID. Someone else's task is reported as not found.
func (uc *UseCase) GetTask(ctx context.Context, userID, id string) (*domain.Task, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	task, err := uc.store.Tasks().GetByID(ctx, id)
	if err != nil {
		return nil, usecase.StoreFailure("task lookup failed", err)
	}
	if !task.OwnedBy(userID) {
		return nil, domain.ErrTaskNotFound
	}
	return task, nil
}

func (uc *UseCase) CreateTask(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil || task.UserID == "" {
		return nil, domain.ErrInvalidPayload
	}
	title, err := domain.NormalizeTitle(task.Title)
	if err != nil {
		return nil, err
	}
	task.Title = title
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	task.Completed = false
	task.BonusPoints = 0
	task.XP = 0
	task.CompletedAt = nil

	created, err := uc.store.Tasks().Create(ctx, task)
	if err != nil {
		if uc.shouldBuffer(ctx, usecase.OperationCreate, task) {
			return task, nil
		}
		return nil, err
	}
	return created, nil
}

// RenameTask changes the title only; completion state and rewards are never touched.
func (uc *UseCase) RenameTask(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil || task.ID == "" || task.UserID == "" {
		return nil, domain.ErrInvalidPayload
	}
	title, err := domain.NormalizeTitle(task.Title)
	if err != nil {
		return nil, err
	}
	task.Title = title

	if err := uc.store.Tasks().Rename(ctx, task); err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			return nil, err
		}
		if uc.shouldBuffer(ctx, usecase.OperationUpdate, task) {
			return task, nil
		}
		return nil, err
	}
	return task, nil
}

// DeleteTask removes a task. Rewards already accrued by a completed task stay in the aggregates.
func (uc *UseCase) DeleteTask(ctx context.Context, userID, id string) error {
	if err := uc.store.Tasks().Delete(ctx, id, userID); err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			return err
		}
		task := &domain.Task{ID: id, UserID: userID}
		if uc.shouldBuffer(ctx, usecase.OperationDelete, task) {
			return nil
		}
		return err
	}
	return nil
}

// CompleteTask marks the task completed and credits the reward to the owner's
// all-time stats and today's progress row in one transaction. Completing an
// already completed task writes nothing and returns Applied=false.
func (uc *UseCase) CompleteTask(ctx context.Context, userID, taskID string) (*domain.Completion, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	if taskID == "" {
		return nil, domain.ErrInvalidPayload
	}

	now := uc.clock()
	day := domain.Day(now, uc.loc)
	log := logger.WithRequestID(ctx, uc.logger).With(zap.String("task_id", taskID))

	var result domain.Completion
	err := uc.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		task, applied, err := tx.Tasks().Complete(ctx, taskID, userID, uc.reward, now)
		if err != nil {
			return err
		}
		result = domain.Completion{Task: task, Applied: applied}
		if !applied {
			return nil
		}

		stats, err := tx.Stats().AddReward(ctx, userID, uc.reward, day)
		if err != nil {
			return fmt.Errorf("update user stats: %w", err)
		}
		if _, err := tx.Progress().AddReward(ctx, userID, day, uc.reward); err != nil {
			return fmt.Errorf("update daily progress: %w", err)
		}

		result.Reward = uc.reward
		result.Stats = stats
		return nil
	})
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			metrics.TaskCompletions.WithLabelValues(metrics.OutcomeNotFound).Inc()
			return nil, err
		}
		metrics.TaskCompletions.WithLabelValues(metrics.OutcomeFailed).Inc()
		log.Error("task completion failed", zap.Error(err))
		return nil, usecase.StoreFailure("task completion failed", err)
	}

	if !result.Applied {
		metrics.TaskCompletions.WithLabelValues(metrics.OutcomeNoop).Inc()
		log.Debug("task already completed")
		return &result, nil
	}

	metrics.TaskCompletions.WithLabelValues(metrics.OutcomeApplied).Inc()
	metrics.RewardsAwarded.WithLabelValues("bonus_points").Add(float64(result.Reward.BonusPoints))
	metrics.RewardsAwarded.WithLabelValues("xp").Add(float64(result.Reward.XP))
	log.Info("task completed",
		zap.String("day", day),
		zap.Int("bonus_points", result.Reward.BonusPoints),
		zap.Int("xp", result.Reward.XP))

	if uc.cache != nil {
		if err := uc.cache.Invalidate(ctx, userID); err != nil {
			log.Warn("progress cache invalidation failed", zap.Error(err))
		}
	}
	return &result, nil
}

func (uc *UseCase) shouldBuffer(ctx context.Context, operation string, task *domain.Task) bool {
	if uc.buffer == nil {
		return false
	}
	log := logger.WithRequestID(ctx, uc.logger).With(zap.String("operation", operation), zap.String("task_id", task.ID))
	if err := uc.buffer.BufferTask(ctx, operation, task); err != nil {
		log.Error("failed to buffer task operation", zap.Error(err))
		return false
	}
	log.Warn("task operation buffered")
	return true
}
