package api

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"
)

func TestRequestLevel(t *testing.T) {
	tests := []struct {
		method string
		stream bool
		status int
		want   slog.Level
	}{
		{http.MethodGet, false, 200, slog.LevelDebug},
		{http.MethodGet, true, 200, slog.LevelDebug},
		{http.MethodPut, false, 200, slog.LevelInfo},
		{http.MethodPost, false, 200, slog.LevelInfo},
		{http.MethodPost, false, 422, slog.LevelWarn},
		{http.MethodGet, false, 404, slog.LevelWarn},
		{http.MethodGet, true, 500, slog.LevelError},
	}
	for _, tt := range tests {
		if got := requestLevel(tt.method, tt.stream, tt.status); got != tt.want {
			t.Errorf("requestLevel(%s, %v, %d) = %v, want %v", tt.method, tt.stream, tt.status, got, tt.want)
		}
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	_, api := humatest.New(t)
	api.UseMiddleware(newRequestLogger(logger))
	huma.Register(api, huma.Operation{
		OperationID: "set-indicator",
		Method:      http.MethodPut,
		Path:        "/api/indicator",
	}, func(_ context.Context, _ *struct{}) (*struct{}, error) {
		return nil, nil
	})
	huma.Register(api, huma.Operation{
		OperationID: "get-status",
		Method:      http.MethodGet,
		Path:        "/api/status",
	}, func(_ context.Context, _ *struct{}) (*struct{}, error) {
		return nil, nil
	})

	api.Get("/api/status")
	if buf.Len() != 0 {
		t.Errorf("successful read logged at info: %q", buf.String())
	}

	api.Put("/api/indicator")
	out := buf.String()
	for _, want := range []string{"HTTP request completed", "method=PUT", "operation=set-indicator", "status=204"} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q: %q", want, out)
		}
	}
}

func TestCORS(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/command", nil)
	w := httptest.NewRecorder()
	env.server.GetMux().ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, "PUT") {
		t.Errorf("Allow-Methods = %q, want PUT included", got)
	}

	resp := env.api.Get("/api/health")
	if got := resp.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin on GET = %q, want *", got)
	}
	if got := resp.Header().Get("Access-Control-Max-Age"); got != "86400" {
		t.Errorf("Max-Age = %q, want 86400", got)
	}
}
