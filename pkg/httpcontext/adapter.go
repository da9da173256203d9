package httpcontext

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	appLogger "github.com/fastygo/questboard/pkg/logger"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderUserID    = "X-User-ID"

	maxRequestIDLen = 128
)

// Client describes the caller of a request.
type Client struct {
	Addr      string
	UserAgent string
}

type clientKey struct{}

// ClientFrom returns the caller details stored by Attach.
func ClientFrom(ctx context.Context) (Client, bool) {
	if ctx == nil {
		return Client{}, false
	}
	c, ok := ctx.Value(clientKey{}).(Client)
	return c, ok
}

// Adapter converts fasthttp.RequestCtx into a stdlib context with a deadline and request metadata.
type Adapter struct {
	timeout time.Duration
}

func NewAdapter(timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Adapter{timeout: timeout}
}

// Attach derives a context bounded by the adapter timeout that carries the
// request id, the authenticated user id and the caller. The request id is
// echoed in the response.
func (a *Adapter) Attach(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	stdCtx, cancel := context.WithTimeout(context.Background(), a.timeout)

	reqID := EnsureRequestID(ctx)
	stdCtx = appLogger.ContextWithRequestID(stdCtx, reqID)

	if userID := string(ctx.Request.Header.Peek(HeaderUserID)); userID != "" {
		stdCtx = appLogger.ContextWithUserID(stdCtx, userID)
	}

	client := Client{UserAgent: string(ctx.Request.Header.UserAgent())}
	if addr := ctx.RemoteAddr(); addr != nil {
		client.Addr = addr.String()
	}
	return context.WithValue(stdCtx, clientKey{}, client), cancel
}

// EnsureRequestID returns the request id already echoed on the response, else
// the caller's X-Request-ID when it is usable, else a fresh one. The result is
// set on the response so later calls agree.
func EnsureRequestID(ctx *fasthttp.RequestCtx) string {
	if echoed := ctx.Response.Header.Peek(HeaderRequestID); len(echoed) > 0 {
		return string(echoed)
	}
	reqID := strings.TrimSpace(string(ctx.Request.Header.Peek(HeaderRequestID)))
	if reqID == "" || len(reqID) > maxRequestIDLen {
		reqID = uuid.NewString()
	}
	ctx.Response.Header.Set(HeaderRequestID, reqID)
	return reqID
}
