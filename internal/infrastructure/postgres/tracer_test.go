package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestCompactSQL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"SELECT 1", "SELECT 1"},
		{"\n\tSELECT id\n\tFROM tasks\n\tWHERE id = $1\n\t", "SELECT id FROM tasks WHERE id = $1"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := compactSQL(tt.in); got != tt.want {
			t.Errorf("compactSQL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestQueryTracerLogsSlowQueries(t *testing.T) {
	tests := []struct {
		name     string
		slow     time.Duration
		wantLogs int
	}{
		{"every query is slow", time.Nanosecond, 1},
		{"disabled", 0, 0},
		{"under threshold", time.Hour, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zap.WarnLevel)
			tracer := newQueryTracer(tt.slow, zap.New(core))

			ctx := tracer.TraceQueryStart(context.Background(), nil, pgx.TraceQueryStartData{SQL: "SELECT\n\t1"})
			time.Sleep(time.Millisecond)
			tracer.TraceQueryEnd(ctx, nil, pgx.TraceQueryEndData{})

			if logs.Len() != tt.wantLogs {
				t.Fatalf("logged %d entries, want %d", logs.Len(), tt.wantLogs)
			}
			if tt.wantLogs > 0 && logs.All()[0].ContextMap()["sql"] != "SELECT 1" {
				t.Fatalf("unexpected fields %v", logs.All()[0].ContextMap())
			}
		})
	}
}

func TestQueryTracerIgnoresUntracedContext(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	newQueryTracer(time.Nanosecond, zap.New(core)).TraceQueryEnd(context.Background(), nil, pgx.TraceQueryEndData{})
	if logs.Len() != 0 {
		t.Fatalf("unexpected logs: %d", logs.Len())
	}
}
