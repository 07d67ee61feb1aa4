package logging

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewFallsBackToInfo(t *testing.T) {
	log := New("not-a-level", false)
	if log.GetLevel() != zerolog.InfoLevel {
		t.Errorf("expected info level, got %v", log.GetLevel())
	}

	log = New("debug", false)
	if log.GetLevel() != zerolog.DebugLevel {
		t.Errorf("expected debug level, got %v", log.GetLevel())
	}
}

func TestMiddlewareLogsStatus(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	handler := Middleware(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected one json log line, got %q: %v", buf.String(), err)
	}
	if line["path"] != "/health" {
		t.Errorf("expected path /health, got %v", line["path"])
	}
	if status, _ := line["status"].(float64); int(status) != http.StatusTeapot {
		t.Errorf("expected status 418, got %v", line["status"])
	}
}
