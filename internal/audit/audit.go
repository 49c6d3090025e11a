// Package audit appends approval-gate decisions to an append-only JSONL
// trail under <home>/logs/audit.jsonl. Entries survive restarts; the trail
// is the record of who approved what.
package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lmagee3/missionctl/internal/shared"
)

type entry struct {
	Timestamp string `json:"timestamp"`
	Decision  string `json:"decision"`
	ToolName  string `json:"tool_name"`
	ActionID  int64  `json:"action_id"`
	Status    string `json:"status"`
	Detail    string `json:"detail,omitempty"`
}

var (
	mu          sync.Mutex
	file        *os.File
	rejectCount atomic.Int64
)

func Init(homeDir string) error {
	mu.Lock()
	defer mu.Unlock()
	if file != nil {
		return nil
	}
	logDir := filepath.Join(homeDir, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(filepath.Join(logDir, "audit.jsonl"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	file = f
	return nil
}

func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if file == nil {
		return nil
	}
	err := file.Close()
	file = nil
	return err
}

// RejectCount returns the number of reject decisions since startup.
func RejectCount() int64 {
	return rejectCount.Load()
}

// Record appends one decision. decision is "approve" or "reject"; status is
// the backend's final word for the action. Detail is redacted before write.
func Record(decision, toolName string, actionID int64, status, detail string) {
	if decision == "reject" {
		rejectCount.Add(1)
	}

	detail = shared.Redact(detail)

	mu.Lock()
	defer mu.Unlock()
	if file == nil {
		return
	}
	ev := entry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Decision:  decision,
		ToolName:  toolName,
		ActionID:  actionID,
		Status:    status,
		Detail:    detail,
	}
	b, err := json.Marshal(ev)
	if err == nil {
		_, _ = file.Write(append(b, '\n'))
	}
}
