package sqlite

import (
	"context"
	"database/sql"

	"github.com/fastygo/questboard/repository"
)

type store struct {
	db *sql.DB
	q  dbtx
	tx *sql.Tx
}

// NewStore returns a repository.Store backed by db.
func NewStore(db *sql.DB) repository.Store {
	return &store{db: db, q: db}
}

func (s *store) Tasks() repository.TaskRepository {
	return &taskRepository{q: s.q}
}

func (s *store) Stats() repository.StatsRepository {
	return &statsRepository{q: s.q}
}

func (s *store) Progress() repository.ProgressRepository {
	return &progressRepository{q: s.q}
}

func (s *store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	if s.tx != nil {
		return fn(ctx, s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(ctx, &store{db: s.db, q: tx, tx: tx}); err != nil {
		return err
	}
	return tx.Commit()
}
