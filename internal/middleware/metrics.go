package middleware

import (
	"strconv"
	"time"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	"github.com/fastygo/questboard/internal/metrics"
)

const unmatchedRoute = "unmatched"

// Metrics records request counts and latencies labelled by the matched route pattern.
// The router must have SaveMatchedRoutePath enabled for the pattern to be available.
func Metrics(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()
		next(ctx)

		path := unmatchedRoute
		if matched, ok := ctx.UserValue(router.MatchedRoutePathParam).(string); ok && matched != "" {
			path = matched
		}
		method := string(ctx.Method())

		metrics.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(ctx.Response.StatusCode())).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}
