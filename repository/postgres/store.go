package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/questboard/repository"
)

type store struct {
	pool *pgxpool.Pool
	q    querier
	inTx bool
}

// NewStore returns a repository.Store whose transactions are pgx transactions.
func NewStore(pool *pgxpool.Pool) repository.Store {
	return &store{pool: pool, q: pool}
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
	if s.inTx {
		return fn(ctx, s)
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return err
	}
	// Rollback after a successful commit is a no-op returning pgx.ErrTxClosed.
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, &store{pool: s.pool, q: tx, inTx: true}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
