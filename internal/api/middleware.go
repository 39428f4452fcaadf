package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

// newRequestLogger logs each API request once it completes. Reads are
// polled by panels and logged at debug, as are SSE streams, which log when
// the client goes away. Changes and failures stay visible at info and up.
func newRequestLogger(logger *slog.Logger) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		start := time.Now()
		next(ctx)

		op := ctx.Operation()
		attrs := []slog.Attr{
			slog.String("method", ctx.Method()),
			slog.String("path", ctx.URL().Path),
			slog.Int("status", ctx.Status()),
			slog.Duration("duration", time.Since(start)),
			slog.String("remote_addr", ctx.RemoteAddr()),
		}
		if op != nil {
			attrs = append(attrs, slog.String("operation", op.OperationID))
		}
		if q := ctx.URL().RawQuery; q != "" {
			attrs = append(attrs, slog.String("query", q))
		}

		msg := "HTTP request completed"
		if isStream(op) {
			msg = "HTTP stream closed"
		}
		logger.LogAttrs(ctx.Context(), requestLevel(ctx.Method(), isStream(op), ctx.Status()), msg, attrs...)
	}
}

func isStream(op *huma.Operation) bool {
	return op != nil && strings.HasSuffix(op.OperationID, "-stream")
}

func requestLevel(method string, stream bool, status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	case stream, method == http.MethodGet, method == http.MethodHead, method == http.MethodOptions:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}
