package brief

import (
	"strings"
	"testing"

	"github.com/lmagee3/missionctl/internal/rank"
)

func TestCleanTaskText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Review /Users/me/Desktop/notes.txt before class", "Review [path] before class"},
		{"Finish essay_draft.docx tonight", "Finish essay_draft tonight"},
		{"  collapse    spaces   ", "collapse spaces"},
		{"no changes needed", "no changes needed"},
	}
	for _, tt := range tests {
		if got := CleanTaskText(tt.in); got != tt.want {
			t.Errorf("CleanTaskText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 96); got != "short" {
		t.Errorf("Truncate(short) = %q", got)
	}
	long := strings.Repeat("a", 200)
	got := Truncate(long, 96)
	if !strings.HasSuffix(got, "…") {
		t.Errorf("truncated text missing ellipsis: %q", got)
	}
	if len([]rune(got)) != 96 {
		t.Errorf("truncated rune length = %d, want 96", len([]rune(got)))
	}
	if got := Truncate(long, 0); got != "" {
		t.Errorf("Truncate(long, 0) = %q, want empty", got)
	}
	if got := Truncate(long, -1); got != "" {
		t.Errorf("Truncate(long, -1) = %q, want empty", got)
	}
}

func TestClassifyHeadline(t *testing.T) {
	tests := []struct {
		title string
		want  NewsTab
	}{
		{"Fed holds rates steady as earnings season begins", TabMarkets},
		{"Sanctions tighten amid election season", TabGeopolitics},
		{"New chip startup challenges the giants", TabTech},
		{"NASA study finds water traces", TabScience},
		{"Local museum reopens after renovation", TabCulture},
	}
	for _, tt := range tests {
		if got := ClassifyHeadline(tt.title); got != tt.want {
			t.Errorf("ClassifyHeadline(%q) = %v, want %v", tt.title, got, tt.want)
		}
	}
}

func TestFromRecord(t *testing.T) {
	rec := rank.TaskRecord{
		ID:      "scan:0:essay",
		Title:   "Finish /home/me/essay_draft.docx",
		Source:  rank.SourceFiles,
		Urgency: rank.UrgencyToday,
		Reason:  "Proposed by file scan: /home/me/essay_draft.docx",
	}
	task := FromRecord(rec, map[string]bool{"scan:0:essay": true})
	if !task.Checked {
		t.Error("task should be checked")
	}
	if strings.Contains(task.Title, "/home") {
		t.Errorf("path leaked into title: %q", task.Title)
	}
	if task.Badge != "Files" {
		t.Errorf("badge = %q", task.Badge)
	}
	if strings.Contains(task.Meta, ".docx") {
		t.Errorf("extension leaked into meta: %q", task.Meta)
	}
}

func TestProgressFor(t *testing.T) {
	records := []rank.TaskRecord{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}}
	checks := map[string]bool{"a": true, "c": true}

	p := ProgressFor(records, checks)
	if p.Done != 2 || p.Total != 4 || p.Remaining != 2 || p.Pct != 50 {
		t.Errorf("progress = %+v", p)
	}

	empty := ProgressFor(nil, nil)
	if empty.Pct != 0 || empty.Total != 0 {
		t.Errorf("empty progress = %+v", empty)
	}
}

func TestGroupHeadlines(t *testing.T) {
	titles := []string{
		"Stocks rally on rate cut hopes",
		"Space telescope spots new exoplanet",
	}
	sources := []string{"Wire", "Science Daily"}
	whens := []string{"9:15 AM", ""}

	grouped := GroupHeadlines(titles, sources, whens)
	if len(grouped[TabMarkets]) != 1 {
		t.Fatalf("markets = %+v", grouped[TabMarkets])
	}
	if grouped[TabMarkets][0].Body != "Wire · 9:15 AM" {
		t.Errorf("body = %q", grouped[TabMarkets][0].Body)
	}
	if len(grouped[TabScience]) != 1 {
		t.Fatalf("science = %+v", grouped[TabScience])
	}
	if grouped[TabScience][0].Body != "Science Daily · recent" {
		t.Errorf("body = %q", grouped[TabScience][0].Body)
	}
}
