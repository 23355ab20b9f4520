package xhttp

import (
	"strings"
	"time"

	"github.com/parishworks/parish-ledger/pkg/logger"
	"github.com/valyala/fasthttp"
)

const slowThreshold = 500 * time.Millisecond

type MiddlewareFunc func(next RequestHandler) RequestHandler
type RequestCtx = fasthttp.RequestCtx
type RequestHandler = fasthttp.RequestHandler

func TimeoutMiddleware(timeout time.Duration) MiddlewareFunc {
	return func(next RequestHandler) RequestHandler {
		return fasthttp.TimeoutWithCodeHandler(next, timeout, StatusText(StatusRequestTimeout), StatusRequestTimeout)
	}
}

func CompressMiddleware(level int) MiddlewareFunc {
	return func(next RequestHandler) RequestHandler {
		return fasthttp.CompressHandlerBrotliLevel(next, level, level)
	}
}

func RecoverMiddleware(next RequestHandler) RequestHandler {
	return func(ctx *RequestCtx) {
		defer func() {
			if err := recover(); err != nil {
				ctx.Error(StatusText(StatusInternalServerError), StatusInternalServerError)
				ctx.Logger().Printf("panic: %v", err)
				logger.Error("[xhttp] panic recovered", "error", err)
			}
		}()
		next(ctx)
	}
}

// RequestLogger logs one entry per request with the caller identity attached.
// Paths listed in quiet, and anything below them, are not logged.
func RequestLogger(quiet ...string) MiddlewareFunc {
	return func(next RequestHandler) RequestHandler {
		return func(ctx *RequestCtx) {
			path := string(ctx.Path())
			if quietPath(path, quiet) {
				next(ctx)
				return
			}

			start := time.Now()
			next(ctx)
			latency := time.Since(start)
			status := ctx.Response.StatusCode()

			lg := logger.With("request_id", requestID(ctx), "operator_id", GetIdentity(ctx).UserID)
			fields := []any{
				"status", status,
				"method", string(ctx.Method()),
				"path", path,
				"latency", latency.String(),
				"bytes_in", len(ctx.PostBody()),
				"bytes_out", len(ctx.Response.Body()),
				"ip", ctx.RemoteIP().String(),
			}
			switch {
			case status >= 500:
				lg.Error("http_request", fields...)
			case status >= 400 || latency > slowThreshold:
				lg.Warn("http_request", fields...)
			default:
				lg.Info("http_request", fields...)
			}
		}
	}
}

func quietPath(p string, quiet []string) bool {
	for _, q := range quiet {
		q = strings.TrimSuffix(q, "/")
		if q == "" {
			continue
		}
		if p == q || strings.HasPrefix(p, q+"/") {
			return true
		}
	}
	return false
}

func requestID(ctx *RequestCtx) string {
	return string(ctx.Request.Header.Peek(HeaderRequestID))
}
