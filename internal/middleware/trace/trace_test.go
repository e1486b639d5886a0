package trace

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"freelance/internal/log"
)

func TestMiddlewareStampsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Level: slog.LevelInfo, Format: log.FormatText, Output: &buf})

	var seen string
	h := NewMiddleware(logger, func(*http.Request) string { return "198.51.100.1" }).Middleware(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = RequestID(r)
			w.WriteHeader(http.StatusTeapot)
		}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/clients?x=1", nil))

	if !strings.HasPrefix(seen, "req_") {
		t.Fatalf("request id = %q", seen)
	}
	if got := rr.Header().Get(RequestIDHeader); got != seen {
		t.Errorf("%s = %q, want %q", RequestIDHeader, got, seen)
	}

	out := buf.String()
	for _, want := range []string{"HTTP request completed", "status_code=418", "client_ip=198.51.100.1", "path=/clients", "level=WARN"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q: %s", want, out)
		}
	}
}

func TestGetRequestIDWithoutMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if id := GetRequestID(req.Context()); id != "" {
		t.Errorf("expected empty id, got %q", id)
	}
}

func TestGenerateRequestIDIsUnique(t *testing.T) {
	a, b := GenerateRequestID(), GenerateRequestID()
	if a == b {
		t.Fatalf("ids collide: %s", a)
	}
}
