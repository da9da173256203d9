package progress

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/fastygo/questboard/domain"
	"github.com/fastygo/questboard/pkg/logger"
	"github.com/fastygo/questboard/repository"
	"github.com/fastygo/questboard/usecase"
)

type UseCase struct {
	store  repository.Store
	cache  usecase.ProgressCache
	clock  usecase.Clock
	loc    *time.Location
	logger *zap.Logger
	group  singleflight.Group
}

// Option customises a UseCase.
type Option func(*UseCase)

func WithClock(clock usecase.Clock) Option {
	return func(uc *UseCase) {
		if clock != nil {
			uc.clock = clock
		}
	}
}

func WithLocation(loc *time.Location) Option {
	return func(uc *UseCase) {
		if loc != nil {
			uc.loc = loc
		}
	}
}

func WithCache(cache usecase.ProgressCache) Option {
	return func(uc *UseCase) {
		uc.cache = cache
	}
}

func New(store repository.Store, logger *zap.Logger, opts ...Option) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	uc := &UseCase{
		store:  store,
		clock:  usecase.SystemClock,
		loc:    time.UTC,
		logger: logger,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Window returns exactly domain.ProgressWindowDays entries, oldest first,
// ending today. Days without a stored row are zero-valued.
func (uc *UseCase) Window(ctx context.Context, userID string) ([]domain.DailyProgress, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}

	days := domain.WindowDays(uc.clock(), uc.loc, domain.ProgressWindowDays)
	today := days[len(days)-1]
	log := logger.WithRequestID(ctx, uc.logger)

	if uc.cache != nil {
		window, ok, err := uc.cache.GetWindow(ctx, userID, today)
		if err != nil {
			log.Warn("progress cache read failed", zap.Error(err))
		} else if ok && len(window) == len(days) {
			return window, nil
		}
	}

	v, err, _ := uc.group.Do(userID+"|"+today, func() (interface{}, error) {
		// The generation is read before the rows so an invalidation that lands
		// in between turns the write below into a no-op.
		var generation int64
		cacheable := uc.cache != nil
		if cacheable {
			gen, err := uc.cache.Generation(ctx, userID)
			if err != nil {
				log.Warn("progress cache generation read failed", zap.Error(err))
				cacheable = false
			}
			generation = gen
		}

		rows, err := uc.store.Progress().ListSince(ctx, userID, days[0])
		if err != nil {
			return nil, err
		}
		window := domain.FillWindow(userID, days, rows)

		if cacheable {
			stored, err := uc.cache.SetWindow(ctx, userID, today, generation, window)
			switch {
			case err != nil:
				log.Warn("progress cache write failed", zap.Error(err))
			case !stored:
				log.Debug("progress window changed while loading, not cached")
			}
		}
		return window, nil
	})
	if err != nil {
		return nil, usecase.StoreFailure("progress lookup failed", err)
	}
	return v.([]domain.DailyProgress), nil
}

// Stats returns the all-time totals, zero-valued when the user has never completed a task.
func (uc *UseCase) Stats(ctx context.Context, userID string) (*domain.UserStats, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	stats, err := uc.store.Stats().Get(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrStatsNotFound) {
			return domain.EmptyStats(userID), nil
		}
		return nil, usecase.StoreFailure("stats lookup failed", err)
	}
	return stats, nil
}

// ReconcileReport describes the aggregates before and after a reconciliation.
type ReconcileReport struct {
	UserID         string                 `json:"user_id"`
	CompletedTasks int                    `json:"completed_tasks"`
	Before         domain.Reward          `json:"before"`
	After          domain.Reward          `json:"after"`
	Days           []domain.DailyProgress `json:"days"`
	Applied        bool                   `json:"applied"`
}

// Changed reports whether the stored totals differed from the recomputed ones.
func (r *ReconcileReport) Changed() bool {
	return r != nil && r.Before != r.After
}

// errDryRun rolls back a dry run, including the stats row GetForUpdate may insert.
var errDryRun = errors.New("dry run")

// Reconcile rebuilds a user's stats and daily progress from their completed tasks,
// bucketing each reward by the calendar day of its completion. With dryRun nothing is written.
//
// The stats row is locked before the tasks are read, so a completion racing
// with the rebuild waits and then adds its reward on top of the rebuilt totals.
func (uc *UseCase) Reconcile(ctx context.Context, userID string, dryRun bool) (*ReconcileReport, error) {
	if userID == "" {
		return nil, domain.ErrInvalidPayload
	}

	report := &ReconcileReport{UserID: userID}
	err := uc.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		current, err := tx.Stats().GetForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		report.Before = current.Totals()

		completed, err := tx.Tasks().ListCompleted(ctx, userID)
		if err != nil {
			return err
		}

		byDay := make(map[string]domain.Reward)
		var total domain.Reward
		var lastDay string
		for _, task := range completed {
			reward := domain.Reward{BonusPoints: task.BonusPoints, XP: task.XP}
			day := domain.Day(task.UpdatedAt, uc.loc)
			if task.CompletedAt != nil {
				day = domain.Day(*task.CompletedAt, uc.loc)
			}
			byDay[day] = byDay[day].Add(reward)
			total = total.Add(reward)
			if day > lastDay {
				lastDay = day
			}
		}
		report.CompletedTasks = len(completed)

		report.After = total
		report.Days = make([]domain.DailyProgress, 0, len(byDay))
		for day, reward := range byDay {
			report.Days = append(report.Days, domain.DailyProgress{
				UserID:      userID,
				Date:        day,
				BonusPoints: reward.BonusPoints,
				XP:          reward.XP,
			})
		}
		sort.Slice(report.Days, func(i, j int) bool { return report.Days[i].Date < report.Days[j].Date })

		if dryRun {
			return errDryRun
		}

		if err := tx.Stats().Put(ctx, &domain.UserStats{
			UserID:           userID,
			TotalBonusPoints: total.BonusPoints,
			TotalXP:          total.XP,
			LastActivityDate: lastDay,
		}); err != nil {
			return err
		}
		if err := tx.Progress().Replace(ctx, userID, report.Days); err != nil {
			return err
		}
		report.Applied = true
		return nil
	})
	if err != nil && !errors.Is(err, errDryRun) {
		return nil, usecase.StoreFailure("reconciliation failed", err)
	}

	if report.Applied && uc.cache != nil {
		if err := uc.cache.Invalidate(ctx, userID); err != nil {
			uc.logger.Warn("progress cache invalidation failed", zap.String("user_id", userID), zap.Error(err))
		}
	}
	uc.logger.Info("aggregates reconciled",
		zap.String("user_id", userID),
		zap.Int("completed_tasks", report.CompletedTasks),
		zap.Bool("changed", report.Changed()),
		zap.Bool("dry_run", dryRun))
	return report, nil
}
