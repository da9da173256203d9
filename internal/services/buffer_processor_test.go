package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fastygo/questboard/domain"
	"github.com/fastygo/questboard/internal/infrastructure/buffer"
	"github.com/fastygo/questboard/repository"
	"github.com/fastygo/questboard/repository/sqlite"
	"github.com/fastygo/questboard/usecase"
	profileUC "github.com/fastygo/questboard/usecase/profile"
)

type switchableHealth struct {
	online atomic.Bool
}

func (h *switchableHealth) IsOnline() bool { return h.online.Load() }

// gatedUsers fails every call while the health check reports the store offline.
type gatedUsers struct {
	repository.UserRepository
	health *switchableHealth
}

func (g gatedUsers) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if !g.health.IsOnline() {
		return nil, errors.New("dial tcp: connection refused")
	}
	return g.UserRepository.GetByID(ctx, id)
}

func (g gatedUsers) Upsert(ctx context.Context, user *domain.User) error {
	if !g.health.IsOnline() {
		return errors.New("dial tcp: connection refused")
	}
	return g.UserRepository.Upsert(ctx, user)
}

type testEnv struct {
	health    *switchableHealth
	store     *buffer.Store
	users     repository.UserRepository
	tasks     repository.TaskRepository
	processor *BufferProcessor
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	db, err := sqlite.Open(context.Background(), filepath.Join(dir, "store.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	bufferStore, err := buffer.Open(filepath.Join(dir, "buffer.db"), "buffer", 0)
	if err != nil {
		t.Fatalf("open buffer: %v", err)
	}
	t.Cleanup(func() { bufferStore.Close() })

	env := &testEnv{
		health: &switchableHealth{},
		store:  bufferStore,
		users:  sqlite.NewUserRepository(db),
		tasks:  sqlite.NewTaskRepository(db),
	}
	env.processor = NewBufferProcessor(bufferStore, env.health, ReplayTargets{Users: env.users, Tasks: env.tasks}, nil, ProcessorConfig{
		Interval:   time.Hour,
		MaxRetries: 2,
	})
	return env
}

func TestBufferBridgeReplaysTaskWrites(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	var bridge usecase.OperationBuffer = NewBufferBridge(env.processor)

	task := &domain.Task{ID: "t1", UserID: "u1", Title: "Offline task"}
	if err := bridge.BufferTask(ctx, usecase.OperationCreate, task); err != nil {
		t.Fatalf("buffer create: %v", err)
	}
	if size, _ := env.store.Size(); size != 1 {
		t.Fatalf("expected the write to be buffered while offline, size=%d", size)
	}

	env.health.online.Store(true)
	if err := env.processor.Drain(ctx); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if size, _ := env.store.Size(); size != 0 {
		t.Fatalf("buffer not drained, size=%d", size)
	}
	stored, err := env.tasks.GetByID(ctx, "t1")
	if err != nil || stored.Title != "Offline task" {
		t.Fatalf("replayed task = %+v, %v", stored, err)
	}

	renamed := &domain.Task{ID: "t1", UserID: "u1", Title: "Renamed online"}
	if err := bridge.BufferTask(ctx, usecase.OperationUpdate, renamed); err != nil {
		t.Fatalf("immediate rename: %v", err)
	}
	stored, _ = env.tasks.GetByID(ctx, "t1")
	if stored.Title != "Renamed online" {
		t.Fatalf("online write not applied immediately: %+v", stored)
	}

	if err := bridge.BufferTask(ctx, usecase.OperationDelete, &domain.Task{ID: "t1", UserID: "u1"}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := bridge.BufferTask(ctx, usecase.OperationDelete, &domain.Task{ID: "t1", UserID: "u1"}); err != nil {
		t.Fatalf("repeated delete should be tolerated: %v", err)
	}
	if _, err := env.tasks.GetByID(ctx, "t1"); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("task not deleted: %v", err)
	}
}

func TestBufferProcessorDropsAfterMaxRetries(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	if err := env.store.Enqueue(buffer.Item{
		Entity:    buffer.EntityTask,
		Operation: "archive",
		Data:      []byte(`{"id":"t1","user_id":"u1"}`),
		Priority:  buffer.PriorityTask,
	}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	env.health.online.Store(true)
	for i := 0; i < 2; i++ {
		if err := env.processor.Drain(ctx); err != nil {
			t.Fatalf("drain %d: %v", i, err)
		}
	}
	if size, _ := env.store.Size(); size != 0 {
		t.Fatalf("unsupported item should be dropped after retries, size=%d", size)
	}
}

func TestBufferProcessorSkipsDrainWhileOffline(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	bridge := NewBufferBridge(env.processor)

	if err := bridge.BufferProfile(ctx, usecase.OperationUpdate, &domain.User{ID: "u1", DisplayName: "Ada"}); err != nil {
		t.Fatalf("buffer profile: %v", err)
	}
	if err := env.processor.Drain(ctx); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if env.processor.Size() != 1 {
		t.Fatalf("offline drain must keep items, size=%d", env.processor.Size())
	}

	env.health.online.Store(true)
	if err := env.processor.Drain(ctx); err != nil {
		t.Fatalf("drain: %v", err)
	}
	user, err := env.users.GetByID(ctx, "u1")
	if err != nil || user.DisplayName != "Ada" {
		t.Fatalf("profile not replayed: %+v, %v", user, err)
	}
}

func TestBufferedProfileUpdateKeepsDisabledStatus(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	if err := env.users.Upsert(ctx, &domain.User{ID: "u1", DisplayName: "Old", Status: domain.UserStatusDisabled}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	uc := profileUC.New(gatedUsers{UserRepository: env.users, health: env.health}, nil, NewBufferBridge(env.processor), nil)
	if _, err := uc.UpdateProfile(ctx, &domain.User{ID: "u1", DisplayName: "Ada"}); err != nil {
		t.Fatalf("offline update: %v", err)
	}
	if env.processor.Size() != 1 {
		t.Fatalf("expected the update to be buffered, size=%d", env.processor.Size())
	}

	env.health.online.Store(true)
	if err := env.processor.Drain(ctx); err != nil {
		t.Fatalf("drain: %v", err)
	}
	user, err := env.users.GetByID(ctx, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if user.DisplayName != "Ada" {
		t.Fatalf("profile not replayed: %+v", user)
	}
	if user.Status != domain.UserStatusDisabled {
		t.Fatalf("status after replay = %q, want %q", user.Status, domain.UserStatusDisabled)
	}
}

func TestProfileReplayIgnoresBufferedStatus(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	if err := env.users.Upsert(ctx, &domain.User{ID: "u1", Status: domain.UserStatusDisabled}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := env.store.Enqueue(buffer.Item{
		Entity:    buffer.EntityProfile,
		Operation: buffer.OperationUpdate,
		Data:      []byte(`{"id":"u1","display_name":"Ada","status":"active"}`),
		Priority:  buffer.PriorityProfile,
	}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	env.health.online.Store(true)
	if err := env.processor.Drain(ctx); err != nil {
		t.Fatalf("drain: %v", err)
	}
	user, err := env.users.GetByID(ctx, "u1")
	if err != nil || user.IsActive() {
		t.Fatalf("replay reactivated account: %+v, %v", user, err)
	}
}
