package httpcontext

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/valyala/fasthttp"

	appLogger "github.com/fastygo/questboard/pkg/logger"
)

func TestAttach(t *testing.T) {
	tests := []struct {
		name      string
		requestID string
		wantReuse bool
	}{
		{name: "propagates caller request id", requestID: "req-123", wantReuse: true},
		{name: "generates request id", requestID: ""},
		{name: "rejects oversized request id", requestID: strings.Repeat("x", 200)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ctx fasthttp.RequestCtx
			if tt.requestID != "" {
				ctx.Request.Header.Set("X-Request-ID", tt.requestID)
			}
			ctx.Request.Header.Set("X-User-ID", "u1")

			stdCtx, cancel := NewAdapter(50 * time.Millisecond).Attach(&ctx)
			defer cancel()

			got := appLogger.RequestID(stdCtx)
			if got == "" || string(ctx.Response.Header.Peek("X-Request-ID")) != got {
				t.Fatalf("request id %q not echoed", got)
			}
			if (got == tt.requestID) != tt.wantReuse {
				t.Fatalf("request id = %q, caller sent %q", got, tt.requestID)
			}
			if _, ok := stdCtx.Deadline(); !ok {
				t.Fatal("context has no deadline")
			}
		})
	}
}

func TestAttachTimeout(t *testing.T) {
	var ctx fasthttp.RequestCtx
	stdCtx, cancel := NewAdapter(time.Millisecond).Attach(&ctx)
	defer cancel()

	select {
	case <-stdCtx.Done():
		if stdCtx.Err() != context.DeadlineExceeded {
			t.Fatalf("unexpected error %v", stdCtx.Err())
		}
	case <-time.After(time.Second):
		t.Fatal("context did not expire")
	}
}

func TestEnsureRequestIDIsStable(t *testing.T) {
	var ctx fasthttp.RequestCtx
	first := EnsureRequestID(&ctx)
	stdCtx, cancel := NewAdapter(time.Second).Attach(&ctx)
	defer cancel()

	if got := appLogger.RequestID(stdCtx); got != first {
		t.Fatalf("request id changed: %q -> %q", first, got)
	}
}

func TestClientFrom(t *testing.T) {
	var ctx fasthttp.RequestCtx
	ctx.Request.Header.SetUserAgent("questboard-test/1.0")
	stdCtx, cancel := NewAdapter(time.Second).Attach(&ctx)
	defer cancel()

	client, ok := ClientFrom(stdCtx)
	if !ok || client.UserAgent != "questboard-test/1.0" {
		t.Fatalf("client = %+v (ok=%v)", client, ok)
	}
	if _, ok := ClientFrom(context.Background()); ok {
		t.Fatal("empty context reported a client")
	}
}
