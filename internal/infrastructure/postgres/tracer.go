package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/fastygo/questboard/internal/metrics"
)

type queryStartKey struct{}

type queryStart struct {
	sql string
	at  time.Time
}

// queryTracer observes every query latency and logs those slower than slow.
type queryTracer struct {
	slow   time.Duration
	logger *zap.Logger
}

func newQueryTracer(slow time.Duration, logger *zap.Logger) *queryTracer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &queryTracer{slow: slow, logger: logger}
}

func (t *queryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, queryStartKey{}, queryStart{sql: data.SQL, at: time.Now()})
}

func (t *queryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	start, ok := ctx.Value(queryStartKey{}).(queryStart)
	if !ok {
		return
	}
	elapsed := time.Since(start.at)

	outcome := "ok"
	if data.Err != nil {
		outcome = "error"
	}
	metrics.StoreQueryDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())

	if t.slow > 0 && elapsed >= t.slow {
		t.logger.Warn("slow query",
			zap.String("sql", compactSQL(start.sql)),
			zap.Duration("elapsed", elapsed),
			zap.String("tag", data.CommandTag.String()))
	}
}

// compactSQL folds the indentation of multi-line statements onto one line.
func compactSQL(sql string) string {
	return strings.Join(strings.Fields(sql), " ")
}
