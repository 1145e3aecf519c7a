package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"fieldscope.io/internal/auth"
	"fieldscope.io/internal/obs"
)

func TestLogEvent(t *testing.T) {
	logger := obs.Logger()
	original := logger.Writer()
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	defer logger.SetOutput(original)

	ctx := context.Background()
	ctx = WithRequestID(ctx, "req-123")
	ctx = auth.ContextWithSession(ctx, auth.Session{
		UserID:         "user-42",
		Role:           auth.RoleAdmin,
		OrganizationID: "org-7",
	})

	if err := LogEvent(ctx, "users.delete", map[string]any{"target_user_id": "user-9"}); err != nil {
		t.Fatalf("LogEvent failed: %v", err)
	}

	line := buf.String()
	if line == "" {
		t.Fatal("expected log output")
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("log not valid JSON: %v", err)
	}
	if entry["type"] != "audit" {
		t.Fatalf("unexpected type: %v", entry["type"])
	}
	if entry["event"] != "users.delete" {
		t.Fatalf("unexpected event: %v", entry["event"])
	}
	if entry["request_id"] != "req-123" {
		t.Fatalf("unexpected request id: %v", entry["request_id"])
	}
	if entry["user_id"] != "user-42" || entry["organization_id"] != "org-7" {
		t.Fatalf("actor context missing: %v", entry)
	}
	fields, ok := entry["fields"].(map[string]any)
	if !ok || fields["target_user_id"] != "user-9" {
		t.Fatalf("fields missing or incorrect: %v", entry["fields"])
	}
}

func TestLogEventRequiresName(t *testing.T) {
	if err := LogEvent(context.Background(), "  ", nil); err == nil {
		t.Fatal("expected error for empty event name")
	}
}
