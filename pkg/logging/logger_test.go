package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// capture redirects logging into a buffer for the duration of a test
func capture(t *testing.T, level slog.Level, json bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf, level, json)
	t.Cleanup(func() { SetOutput(&bytes.Buffer{}, slog.LevelInfo, false) })
	return &buf
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name    string
		want    slog.Level
		wantErr bool
	}{
		{"trace", LevelTrace, false},
		{"DEBUG", slog.LevelDebug, false},
		{"", slog.LevelInfo, false},
		{" info ", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.name)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, %v", tt.name, got, err)
		}
	}
}

func TestLevelForVerbosity(t *testing.T) {
	for count, want := range []slog.Level{slog.LevelInfo, slog.LevelDebug, LevelTrace, LevelTrace} {
		if got := LevelForVerbosity(count); got != want {
			t.Errorf("LevelForVerbosity(%d) = %v, want %v", count, got, want)
		}
	}
}

func TestCompactHandler(t *testing.T) {
	buf := capture(t, LevelTrace, false)

	log := New("flows")
	log.Log(context.Background(), LevelTrace, "flow complete", "leaf", "k5_dns", "note", "two words")
	log.With("pair", "x.dot").Info("compared")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "[TRACE] ") {
		t.Errorf("trace line = %q", lines[0])
	}
	for _, want := range []string{"flow complete |", "component=flows", "leaf=k5_dns", `note="two words"`} {
		if !strings.Contains(lines[0], want) {
			t.Errorf("line %q missing %q", lines[0], want)
		}
	}
	if !strings.HasPrefix(lines[1], "[INFO]  ") || !strings.Contains(lines[1], "component=flows pair=x.dot") {
		t.Errorf("info line = %q", lines[1])
	}
}

func TestComponentLoggerFollowsLevel(t *testing.T) {
	log := New("compare")
	buf := capture(t, slog.LevelInfo, false)

	log.Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug written at info level: %q", buf.String())
	}

	SetLevel(slog.LevelDebug)
	log.Debug("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Error("component logger did not pick up the new level")
	}
}

func TestJSONOutput(t *testing.T) {
	buf := capture(t, slog.LevelInfo, true)
	New("web").Warn("slow", "durationMs", 12)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("not json: %v: %q", err, buf.String())
	}
	if entry["msg"] != "slow" || entry["component"] != "web" || entry["level"] != "WARN" {
		t.Errorf("entry = %v", entry)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	buf := capture(t, slog.LevelInfo, false)

	var seen string
	h := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	if seen == "" || rec.Header().Get(RequestIDHeader) != seen {
		t.Errorf("request id %q, header %q", seen, rec.Header().Get(RequestIDHeader))
	}
	if !strings.Contains(buf.String(), "request rejected") || !strings.Contains(buf.String(), "status=418") {
		t.Errorf("log = %q", buf.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "caller-id")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "caller-id" {
		t.Errorf("caller-supplied id not kept: %q", seen)
	}
}
