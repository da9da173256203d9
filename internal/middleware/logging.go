package middleware

import (
	"time"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/questboard/pkg/httpcontext"
)

// AccessLog writes one entry per request. Server errors log at error level,
// client errors at warn, everything else at debug.
func AccessLog(next fasthttp.RequestHandler, logger *zap.Logger) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()
		reqID := httpcontext.EnsureRequestID(ctx)
		next(ctx)

		status := ctx.Response.StatusCode()
		fields := []zap.Field{
			zap.String("request_id", reqID),
			zap.ByteString("method", ctx.Method()),
			zap.ByteString("path", ctx.Path()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
		}
		if route, ok := ctx.UserValue(router.MatchedRoutePathParam).(string); ok {
			fields = append(fields, zap.String("route", route))
		}
		if userID := ctx.Request.Header.Peek(httpcontext.HeaderUserID); len(userID) > 0 {
			fields = append(fields, zap.ByteString("user_id", userID))
		}

		switch {
		case status >= fasthttp.StatusInternalServerError:
			logger.Error("request", fields...)
		case status >= fasthttp.StatusBadRequest:
			logger.Warn("request", fields...)
		default:
			logger.Debug("request", fields...)
		}
	}
}
