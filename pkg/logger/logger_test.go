package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func TestInfoIncludesContextFields(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "test", Output: &buf})

	ctx := logg.WithRequestID(context.Background(), "req-123")
	ctx = logg.WithUserID(ctx, "user-456")
	logg.Info(ctx, "hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["request_id"] != "req-123" {
		t.Fatalf("missing request_id in %v", entry)
	}
	if entry["user_id"] != "user-456" {
		t.Fatalf("missing user_id in %v", entry)
	}
	if entry["service"] != "test" {
		t.Fatalf("missing service in %v", entry)
	}
}

func TestErrorIncludesErrAndStack(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "test", Output: &buf})

	logg.Error(context.Background(), "boom", errors.New("kaput"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["error"] != "kaput" {
		t.Fatalf("missing error in %v", entry)
	}
	if entry["stack"] == nil {
		t.Fatalf("missing stack in %v", entry)
	}
}

func TestParseLevel(t *testing.T) {
	if got := ParseLevel("warn"); got != zerolog.WarnLevel {
		t.Fatalf("unexpected level %v", got)
	}
	if got := ParseLevel(""); got != zerolog.InfoLevel {
		t.Fatalf("unexpected default level %v", got)
	}
	if got := ParseLevel("nonsense"); got != zerolog.InfoLevel {
		t.Fatalf("unexpected fallback level %v", got)
	}
}
