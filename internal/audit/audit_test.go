package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRecordWritesAuditEntry(t *testing.T) {
	home := t.TempDir()
	if err := Init(home); err != nil {
		t.Fatalf("init audit: %v", err)
	}
	t.Cleanup(func() { _ = Close() })

	Record("reject", "email.send", 14, "rejected", "user declined")
	Record("approve", "news.headlines", 15, "executed", "")

	path := filepath.Join(home, "logs", "audit.jsonl")
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read audit file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) < 2 {
		t.Fatalf("expected at least two audit entries, got %d", len(lines))
	}
	var first map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("unmarshal first audit entry: %v", err)
	}
	if first["decision"] != "reject" {
		t.Fatalf("expected reject decision, got %#v", first["decision"])
	}
	if first["tool_name"] != "email.send" {
		t.Fatalf("expected tool_name email.send, got %#v", first["tool_name"])
	}
	if first["action_id"] != float64(14) {
		t.Fatalf("expected action_id 14, got %#v", first["action_id"])
	}
	if first["status"] != "rejected" {
		t.Fatalf("expected status rejected, got %#v", first["status"])
	}
}

func TestAuditAppendOnly(t *testing.T) {
	home := t.TempDir()
	if err := Init(home); err != nil {
		t.Fatalf("init audit: %v", err)
	}
	t.Cleanup(func() { _ = Close() })

	Record("approve", "files.scan", 1, "executed", "")
	Record("reject", "email.send", 2, "rejected", "")

	path := filepath.Join(home, "logs", "audit.jsonl")

	info1, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat audit file: %v", err)
	}
	size1 := info1.Size()

	Record("approve", "news.headlines", 3, "executed", "")

	info2, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat audit file after append: %v", err)
	}
	if info2.Size() <= size1 {
		t.Fatalf("expected file to grow, size before=%d after=%d", size1, info2.Size())
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read audit file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) < 3 {
		t.Fatalf("expected at least 3 lines, got %d", len(lines))
	}
	for i, line := range lines {
		var e map[string]any
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			t.Fatalf("line %d is not valid JSON: %v", i, err)
		}
		if _, ok := e["timestamp"]; !ok {
			t.Fatalf("line %d missing timestamp", i)
		}
		if _, ok := e["decision"]; !ok {
			t.Fatalf("line %d missing decision", i)
		}
	}
}

func TestRecordRedactsDetail(t *testing.T) {
	home := t.TempDir()
	if err := Init(home); err != nil {
		t.Fatalf("init audit: %v", err)
	}
	t.Cleanup(func() { _ = Close() })

	Record("approve", "email.send", 5, "executed", "api_key=sk-abcdef1234567890abcdef")

	raw, err := os.ReadFile(filepath.Join(home, "logs", "audit.jsonl"))
	if err != nil {
		t.Fatalf("read audit file: %v", err)
	}
	if strings.Contains(string(raw), "sk-abcdef1234567890abcdef") {
		t.Fatal("secret leaked into audit trail")
	}
}
