package repository

import "context"

// Store groups the repositories that take part in the task completion workflow
// and binds them to a single transaction when required.
type Store interface {
	Tasks() TaskRepository
	Stats() StatsRepository
	Progress() ProgressRepository
	// WithinTx runs fn against a Store whose repositories share one transaction.
	// The transaction commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}
