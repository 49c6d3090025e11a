package rank

import (
	"fmt"
	"strings"
	"time"
)

// Source identifies the producer of a task record.
type Source string

const (
	SourceOps   Source = "ops"
	SourceFiles Source = "files"
	SourceEmail Source = "email"
	SourceWeb   Source = "web"
)

// TaskRecord is one entry in the attack order. Records are immutable once
// constructed; a new scan or sync replaces or appends, never mutates in place.
type TaskRecord struct {
	ID      string     `json:"id"`
	Title   string     `json:"title"`
	Source  Source     `json:"source"`
	DueAt   *time.Time `json:"due_at"`
	Urgency Urgency    `json:"urgency"`
	Reason  string     `json:"reason"`
}

// ConnectorTask is a task candidate proposed by the email or web ingesters.
type ConnectorTask struct {
	Title    string         `json:"title"`
	Summary  string         `json:"summary"`
	DueDate  *time.Time     `json:"due_date"`
	Priority SourcePriority `json:"priority"`
	Source   Source         `json:"source"` // email or web
}

// ScanTask is a task candidate proposed by the most recent file scan.
type ScanTask struct {
	Title    string         `json:"title"`
	Path     string         `json:"path"`
	DueDate  *time.Time     `json:"due_date"`
	Priority SourcePriority `json:"priority"`
}

// ConnectorTaskID builds the producer-namespaced id for a connector task.
// Namespacing by producer means two producers never collide even with
// identical titles; the index is the task's position in the append-only
// connector list, so ids stay stable across rebuilds.
func ConnectorTaskID(source Source, index int, summary string) string {
	return fmt.Sprintf("%s:%d:%s", source, index, summaryKey(summary))
}

// ScanTaskID builds the producer-namespaced id for a scan task.
func ScanTaskID(index int, summary string) string {
	return fmt.Sprintf("scan:%d:%s", index, summaryKey(summary))
}

// fromConnector relabels a connector task as a TaskRecord through Classify.
func fromConnector(task ConnectorTask, index int) TaskRecord {
	source := task.Source
	if source != SourceEmail && source != SourceWeb {
		source = SourceWeb
	}
	reason := task.Summary
	if reason == "" {
		reason = "Ingested"
	}
	return TaskRecord{
		ID:      ConnectorTaskID(source, index, task.Title),
		Title:   task.Title,
		Source:  source,
		DueAt:   task.DueDate,
		Urgency: Classify(task.Priority),
		Reason:  reason,
	}
}

// fromScan relabels a scan task as a TaskRecord through Classify.
func fromScan(task ScanTask, index int) TaskRecord {
	summary := task.Title
	if summary == "" {
		summary = task.Path
	}
	reason := "Proposed by file scan"
	if task.Path != "" {
		reason = "Proposed by file scan: " + task.Path
	}
	return TaskRecord{
		ID:      ScanTaskID(index, summary),
		Title:   task.Title,
		Source:  SourceFiles,
		DueAt:   task.DueDate,
		Urgency: Classify(task.Priority),
		Reason:  reason,
	}
}

// summaryKey normalizes a title into the id-safe summary fragment.
func summaryKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Join(strings.Fields(s), "-")
	const max = 48
	if len(s) > max {
		s = s[:max]
	}
	return s
}

// BadgeForSource returns the presentation label for a record source.
// Kept with the data model so every surface labels sources the same way.
func BadgeForSource(source string) string {
	switch source {
	case "":
		return "Manual"
	case "blackboard":
		return "School"
	case "files":
		return "Files"
	default:
		return strings.ToUpper(source[:1]) + source[1:]
	}
}
