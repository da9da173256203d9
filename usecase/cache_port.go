package usecase

import (
	"context"

	"github.com/fastygo/questboard/domain"
)

// ProgressCache keeps recently computed progress windows keyed by user and last day.
//
// Every Invalidate bumps the user's generation. A window read from the store
// is only cached when the generation observed before the read is still
// current, so a window computed before a completion committed is never stored
// after that completion invalidated the cache.
type ProgressCache interface {
	GetWindow(ctx context.Context, userID, endDay string) ([]domain.DailyProgress, bool, error)
	Generation(ctx context.Context, userID string) (int64, error)
	// SetWindow reports false when generation is stale and nothing was written.
	SetWindow(ctx context.Context, userID, endDay string, generation int64, window []domain.DailyProgress) (bool, error)
	Invalidate(ctx context.Context, userID string) error
}
