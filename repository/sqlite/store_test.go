package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/fastygo/questboard/domain"
	"github.com/fastygo/questboard/repository"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "questboard.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTask(t *testing.T, repo repository.TaskRepository, userID, title string) *domain.Task {
	t.Helper()
	task, err := repo.Create(context.Background(), &domain.Task{UserID: userID, Title: title})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	return task
}

func TestTaskRepositoryCRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepository(openTestDB(t))

	first := createTask(t, repo, "u1", "first")
	second := createTask(t, repo, "u1", "second")
	createTask(t, repo, "u2", "someone else")

	if first.ID == "" || first.Completed || first.CreatedAt.IsZero() {
		t.Fatalf("unexpected created task %+v", first)
	}

	tasks, err := repo.List(ctx, repository.TaskFilter{UserID: "u1"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tasks) != 2 || tasks[0].ID != second.ID || tasks[1].ID != first.ID {
		t.Fatalf("expected newest first, got %+v", tasks)
	}

	first.Title = "renamed"
	if err := repo.Rename(ctx, first); err != nil {
		t.Fatalf("rename: %v", err)
	}
	got, err := repo.GetByID(ctx, first.ID)
	if err != nil || got.Title != "renamed" {
		t.Fatalf("rename not persisted: %+v, %v", got, err)
	}

	if err := repo.Rename(ctx, &domain.Task{ID: first.ID, UserID: "u2", Title: "hijack"}); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("foreign rename: expected not found, got %v", err)
	}
	if err := repo.Delete(ctx, first.ID, "u2"); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("foreign delete: expected not found, got %v", err)
	}
	if err := repo.Delete(ctx, first.ID, "u1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, first.ID); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestTaskRepositoryComplete(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepository(openTestDB(t))
	task := createTask(t, repo, "u1", "stretch")
	at := time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)

	done, applied, err := repo.Complete(ctx, task.ID, "u1", domain.DefaultReward, at)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if !applied || !done.Completed || done.BonusPoints != 1 || done.XP != 10 {
		t.Fatalf("unexpected completion %+v (applied=%v)", done, applied)
	}
	if done.CompletedAt == nil || !done.CompletedAt.Equal(at) {
		t.Fatalf("completed_at = %v, want %v", done.CompletedAt, at)
	}

	again, applied, err := repo.Complete(ctx, task.ID, "u1", domain.Reward{BonusPoints: 5, XP: 50}, at.Add(time.Hour))
	if err != nil {
		t.Fatalf("second complete: %v", err)
	}
	if applied {
		t.Fatal("second completion must not apply")
	}
	if again.BonusPoints != 1 || again.XP != 10 || !again.CompletedAt.Equal(at) {
		t.Fatalf("completed task changed: %+v", again)
	}

	if _, _, err := repo.Complete(ctx, task.ID, "u2", domain.DefaultReward, at); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("foreign completion: expected not found, got %v", err)
	}
	if _, _, err := repo.Complete(ctx, "missing", "u1", domain.DefaultReward, at); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("missing task: expected not found, got %v", err)
	}

	completed := true
	tasks, err := repo.List(ctx, repository.TaskFilter{UserID: "u1", Completed: &completed})
	if err != nil || len(tasks) != 1 {
		t.Fatalf("completed filter: %v, %+v", err, tasks)
	}
	open := false
	tasks, err = repo.List(ctx, repository.TaskFilter{UserID: "u1", Completed: &open})
	if err != nil || len(tasks) != 0 {
		t.Fatalf("open filter: %v, %+v", err, tasks)
	}
}

func TestStatsRepositoryAddReward(t *testing.T) {
	ctx := context.Background()
	repo := NewStatsRepository(openTestDB(t))

	if _, err := repo.Get(ctx, "u1"); !errors.Is(err, domain.ErrStatsNotFound) {
		t.Fatalf("expected stats not found, got %v", err)
	}

	stats, err := repo.AddReward(ctx, "u1", domain.DefaultReward, "2024-03-10")
	if err != nil {
		t.Fatalf("first add: %v", err)
	}
	if stats.TotalBonusPoints != 1 || stats.TotalXP != 10 || stats.LastActivityDate != "2024-03-10" {
		t.Fatalf("unexpected stats %+v", stats)
	}

	stats, err = repo.AddReward(ctx, "u1", domain.DefaultReward, "2024-03-09")
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if stats.TotalBonusPoints != 2 || stats.TotalXP != 20 {
		t.Fatalf("unexpected totals %+v", stats)
	}
	if stats.LastActivityDate != "2024-03-10" {
		t.Fatalf("last activity moved backwards to %s", stats.LastActivityDate)
	}

	if err := repo.Put(ctx, &domain.UserStats{UserID: "u1", TotalBonusPoints: 7, TotalXP: 70}); err != nil {
		t.Fatalf("put: %v", err)
	}
	stats, err = repo.Get(ctx, "u1")
	if err != nil || stats.TotalBonusPoints != 7 || stats.LastActivityDate != "" {
		t.Fatalf("put not persisted: %+v, %v", stats, err)
	}
}

func TestProgressRepositoryAddReward(t *testing.T) {
	ctx := context.Background()
	repo := NewProgressRepository(openTestDB(t))

	row, err := repo.AddReward(ctx, "u1", "2024-03-10", domain.Reward{BonusPoints: 3, XP: 20})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if row.BonusPoints != 3 || row.XP != 20 {
		t.Fatalf("unexpected row %+v", row)
	}

	row, err = repo.AddReward(ctx, "u1", "2024-03-10", domain.DefaultReward)
	if err != nil {
		t.Fatalf("increment: %v", err)
	}
	if row.BonusPoints != 4 || row.XP != 30 {
		t.Fatalf("expected (4, 30), got %+v", row)
	}

	if _, err := repo.AddReward(ctx, "u1", "2024-03-02", domain.DefaultReward); err != nil {
		t.Fatalf("older row: %v", err)
	}
	if _, err := repo.AddReward(ctx, "u2", "2024-03-10", domain.DefaultReward); err != nil {
		t.Fatalf("other user: %v", err)
	}

	rows, err := repo.ListSince(ctx, "u1", "2024-03-04")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 || rows[0].Date != "2024-03-10" {
		t.Fatalf("expected exactly one in-window row, got %+v", rows)
	}

	replacement := []domain.DailyProgress{
		{Date: "2024-03-08", BonusPoints: 1, XP: 10},
		{Date: "2024-03-09", BonusPoints: 2, XP: 20},
	}
	if err := repo.Replace(ctx, "u1", replacement); err != nil {
		t.Fatalf("replace: %v", err)
	}
	rows, err = repo.ListSince(ctx, "u1", "2000-01-01")
	if err != nil {
		t.Fatalf("list after replace: %v", err)
	}
	if len(rows) != 2 || rows[0].Date != "2024-03-08" || rows[1].XP != 20 {
		t.Fatalf("unexpected rows after replace %+v", rows)
	}
	others, _ := repo.ListSince(ctx, "u2", "2000-01-01")
	if len(others) != 1 {
		t.Fatalf("replace touched another user: %+v", others)
	}
}

func TestStoreWithinTxRollsBack(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	store := NewStore(db)
	task := createTask(t, store.Tasks(), "u1", "read")

	boom := errors.New("boom")
	err := store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		if _, _, err := tx.Tasks().Complete(ctx, task.ID, "u1", domain.DefaultReward, time.Now()); err != nil {
			return err
		}
		if _, err := tx.Stats().AddReward(ctx, "u1", domain.DefaultReward, "2024-03-10"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	got, err := store.Tasks().GetByID(ctx, task.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Completed {
		t.Fatal("task completion survived rollback")
	}
	if _, err := store.Stats().Get(ctx, "u1"); !errors.Is(err, domain.ErrStatsNotFound) {
		t.Fatalf("stats survived rollback: %v", err)
	}
}

func TestUserRepositoryUpsert(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(openTestDB(t))

	if _, err := repo.GetByID(ctx, "u1"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected user not found, got %v", err)
	}

	user := &domain.User{ID: "u1", Email: "a@example.com", DisplayName: "Ada", Status: domain.UserStatusActive, Metadata: map[string]string{"theme": "dark"}}
	if err := repo.Upsert(ctx, user); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	user.DisplayName = "Ada L."
	if err := repo.Upsert(ctx, user); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	got, err := repo.GetByID(ctx, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.DisplayName != "Ada L." || got.Metadata["theme"] != "dark" || !got.IsActive() {
		t.Fatalf("unexpected user %+v", got)
	}
}

func TestUserRepositoryUpsertWithoutStatus(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(openTestDB(t))

	fresh := &domain.User{ID: "fresh"}
	if err := repo.Upsert(ctx, fresh); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if fresh.Status != domain.UserStatusActive {
		t.Fatalf("new account status = %q", fresh.Status)
	}

	if err := repo.Upsert(ctx, &domain.User{ID: "u1", Status: domain.UserStatusDisabled}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	update := &domain.User{ID: "u1", DisplayName: "Ada"}
	if err := repo.Upsert(ctx, update); err != nil {
		t.Fatalf("update: %v", err)
	}
	if update.Status != domain.UserStatusDisabled {
		t.Fatalf("returned status = %q", update.Status)
	}
	got, err := repo.GetByID(ctx, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != domain.UserStatusDisabled || got.DisplayName != "Ada" {
		t.Fatalf("unexpected user %+v", got)
	}
}

func TestStatsRepositoryGetForUpdate(t *testing.T) {
	ctx := context.Background()
	repo := NewStatsRepository(openTestDB(t))

	stats, err := repo.GetForUpdate(ctx, "u1")
	if err != nil {
		t.Fatalf("lock missing row: %v", err)
	}
	if stats.TotalBonusPoints != 0 || stats.TotalXP != 0 || stats.LastActivityDate != "" {
		t.Fatalf("expected zero totals, got %+v", stats)
	}

	if _, err := repo.AddReward(ctx, "u1", domain.DefaultReward, "2024-03-10"); err != nil {
		t.Fatalf("add: %v", err)
	}
	stats, err = repo.GetForUpdate(ctx, "u1")
	if err != nil {
		t.Fatalf("lock existing row: %v", err)
	}
	if stats.TotalBonusPoints != 1 || stats.TotalXP != 10 || stats.LastActivityDate != "2024-03-10" {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestTaskRepositoryListCompleted(t *testing.T) {
	ctx := context.Background()
	repo := NewTaskRepository(openTestDB(t))

	late := createTask(t, repo, "u1", "late")
	early := createTask(t, repo, "u1", "early")
	createTask(t, repo, "u1", "open")
	other := createTask(t, repo, "u2", "someone else")

	base := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	for id, at := range map[string]time.Time{
		late.ID:  base.Add(2 * time.Hour),
		early.ID: base,
	} {
		if _, _, err := repo.Complete(ctx, id, "u1", domain.DefaultReward, at); err != nil {
			t.Fatalf("complete %s: %v", id, err)
		}
	}
	if _, _, err := repo.Complete(ctx, other.ID, "u2", domain.DefaultReward, base); err != nil {
		t.Fatalf("complete other: %v", err)
	}

	tasks, err := repo.ListCompleted(ctx, "u1")
	if err != nil {
		t.Fatalf("list completed: %v", err)
	}
	if len(tasks) != 2 || tasks[0].ID != early.ID || tasks[1].ID != late.ID {
		t.Fatalf("unexpected tasks %+v", tasks)
	}
}
