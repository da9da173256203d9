package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/questboard/domain"
	"github.com/fastygo/questboard/internal/infrastructure/buffer"
	"github.com/fastygo/questboard/internal/metrics"
	"github.com/fastygo/questboard/repository"
)

// ConnectionHealth reports whether the primary store is reachable.
type ConnectionHealth interface {
	IsOnline() bool
}

// ProcessorConfig controls how frequently the buffer is drained and how long items are kept.
type ProcessorConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
	Retention  time.Duration
}

func (c ProcessorConfig) withDefaults() ProcessorConfig {
	if c.Interval < time.Second {
		c.Interval = 30 * time.Second
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 50
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.Retention <= 0 {
		c.Retention = 24 * time.Hour
	}
	return c
}

// ReplayTargets are the repositories buffered writes are replayed into.
type ReplayTargets struct {
	Users repository.UserRepository
	Tasks repository.TaskRepository
}

type replayFunc func(ctx context.Context, item buffer.Item) error

// BufferProcessor replays buffered task and profile writes against the primary store.
// Completions are never buffered: they only make sense inside the reward transaction.
type BufferProcessor struct {
	store   *buffer.Store
	monitor ConnectionHealth
	targets ReplayTargets
	replay  map[string]replayFunc
	logger  *zap.Logger
	cron    *cron.Cron
	cfg     ProcessorConfig
}

func NewBufferProcessor(
	store *buffer.Store,
	monitor ConnectionHealth,
	targets ReplayTargets,
	logger *zap.Logger,
	cfg ProcessorConfig,
) *BufferProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.withDefaults()

	cronLog := cronLogger{logger.Named("buffer_cron").Sugar()}
	bp := &BufferProcessor{
		store:   store,
		monitor: monitor,
		targets: targets,
		logger:  logger,
		cfg:     cfg,
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
	}
	bp.replay = map[string]replayFunc{
		buffer.EntityProfile: bp.replayProfile,
		buffer.EntityTask:    bp.replayTask,
	}

	_, _ = bp.cron.AddFunc(fmt.Sprintf("@every %s", cfg.Interval.Truncate(time.Second)), func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := bp.Drain(ctx); err != nil {
			bp.logger.Error("buffer drain failed", zap.Error(err))
		}
	})
	_, _ = bp.cron.AddFunc("@hourly", bp.expire)

	return bp
}

func (bp *BufferProcessor) Start() {
	if bp == nil || bp.cron == nil {
		return
	}
	bp.cron.Start()
	bp.logger.Info("buffer processor started", zap.Duration("interval", bp.cfg.Interval))
}

// Stop waits for a running drain to finish or for ctx to expire.
func (bp *BufferProcessor) Stop(ctx context.Context) {
	if bp == nil || bp.cron == nil {
		return
	}
	select {
	case <-bp.cron.Stop().Done():
	case <-ctx.Done():
		bp.logger.Warn("buffer processor stop timed out", zap.Error(ctx.Err()))
	}
	bp.logger.Info("buffer processor stopped")
}

// Drain replays up to BatchSize buffered writes in priority order. It does
// nothing while the monitor reports the primary store offline and stops early
// when ctx is done.
func (bp *BufferProcessor) Drain(ctx context.Context) error {
	if bp == nil || bp.store == nil {
		return nil
	}
	if bp.monitor != nil && !bp.monitor.IsOnline() {
		bp.logger.Debug("skipping buffer drain while offline")
		return nil
	}

	items, err := bp.store.GetBatch(bp.cfg.BatchSize)
	if err != nil {
		return fmt.Errorf("read buffer batch: %w", err)
	}

	var replayed, failed int
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		log := bp.logger.With(
			zap.String("item_id", item.ID),
			zap.String("entity", item.Entity),
			zap.String("operation", item.Operation))

		if err := bp.apply(ctx, item); err != nil {
			failed++
			bp.retry(log, item, err)
			continue
		}
		replayed++
		metrics.BufferReplays.WithLabelValues(item.Entity, metrics.OutcomeApplied).Inc()
		if err := bp.store.Remove(item); err != nil {
			log.Warn("failed to purge replayed buffer item", zap.Error(err))
		}
	}
	if replayed > 0 || failed > 0 {
		bp.logger.Info("buffer drained", zap.Int("replayed", replayed), zap.Int("failed", failed))
	}
	return nil
}

// retry moves a failed item to the back of its priority band, or drops it
// once MaxRetries attempts have failed.
func (bp *BufferProcessor) retry(log *zap.Logger, item buffer.Item, cause error) {
	item.Retries++
	if err := bp.store.Remove(item); err != nil {
		log.Warn("failed to remove buffer item", zap.Error(err))
	}
	if item.Retries >= bp.cfg.MaxRetries {
		metrics.BufferReplays.WithLabelValues(item.Entity, metrics.OutcomeFailed).Inc()
		log.Error("dropping buffer item after max retries", zap.Int("retries", item.Retries), zap.Error(cause))
		return
	}
	log.Warn("buffer item replay failed", zap.Int("retries", item.Retries), zap.Error(cause))
	if err := bp.store.Requeue(item); err != nil {
		log.Error("failed to requeue buffer item", zap.Error(err))
	}
}

// BufferOperation applies item right away when the store is online and
// persists it for a later drain otherwise, or when the attempt fails.
func (bp *BufferProcessor) BufferOperation(ctx context.Context, item buffer.Item) error {
	if bp == nil || bp.store == nil {
		return errors.New("buffer processor not configured")
	}

	if bp.monitor == nil || bp.monitor.IsOnline() {
		err := bp.apply(ctx, item)
		if err == nil {
			return nil
		}
		bp.logger.Warn("immediate replay failed, buffering", zap.String("entity", item.Entity), zap.Error(err))
	}
	if err := bp.store.Enqueue(item); err != nil {
		return err
	}
	metrics.BufferedOperations.WithLabelValues(item.Entity, item.Operation).Inc()
	return nil
}

// Size returns the number of buffered items, zero when the buffer is unreadable.
func (bp *BufferProcessor) Size() int {
	if bp == nil || bp.store == nil {
		return 0
	}
	size, err := bp.store.Size()
	if err != nil {
		return 0
	}
	return size
}

func (bp *BufferProcessor) expire() {
	if bp.store == nil {
		return
	}
	removed, err := bp.store.Cleanup(time.Now().Add(-bp.cfg.Retention))
	if err != nil {
		bp.logger.Error("buffer cleanup failed", zap.Error(err))
		return
	}
	if removed > 0 {
		bp.logger.Warn("expired buffered operations dropped", zap.Int("count", removed))
	}
}

func (bp *BufferProcessor) apply(ctx context.Context, item buffer.Item) error {
	replay, ok := bp.replay[item.Entity]
	if !ok {
		return fmt.Errorf("unsupported entity %q", item.Entity)
	}
	return replay(ctx, item)
}

func (bp *BufferProcessor) replayProfile(ctx context.Context, item buffer.Item) error {
	if bp.targets.Users == nil {
		return errors.New("no user repository to replay into")
	}
	var user domain.User
	if err := item.Decode(&user); err != nil {
		return err
	}
	// Profile writes never change the account status.
	user.Status = ""
	return bp.targets.Users.Upsert(ctx, &user)
}

// replayTask applies create, rename and delete. Replays are idempotent: a
// create whose task already exists and a delete whose task is gone both succeed.
func (bp *BufferProcessor) replayTask(ctx context.Context, item buffer.Item) error {
	tasks := bp.targets.Tasks
	if tasks == nil {
		return errors.New("no task repository to replay into")
	}
	var task domain.Task
	if err := item.Decode(&task); err != nil {
		return err
	}
	switch item.Operation {
	case buffer.OperationCreate:
		if _, err := tasks.GetByID(ctx, task.ID); err == nil {
			return nil
		}
		_, err := tasks.Create(ctx, &task)
		return err
	case buffer.OperationUpdate:
		return tasks.Rename(ctx, &task)
	case buffer.OperationDelete:
		if err := tasks.Delete(ctx, task.ID, task.UserID); err != nil && !errors.Is(err, domain.ErrTaskNotFound) {
			return err
		}
		return nil
	default:
		return fmt.Errorf("unsupported task operation %q", item.Operation)
	}
}

// cronLogger routes robfig/cron diagnostics through zap.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
