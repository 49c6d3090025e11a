// Package brief shapes the aggregated attack order and the headline feed
// into the daily brief: cleaned task lines, per-urgency groups, progress
// counts, and headlines bucketed into news tabs.
package brief

import (
	"regexp"
	"strings"

	"github.com/lmagee3/missionctl/internal/rank"
)

const (
	maxTaskTitle = 96
	maxTaskMeta  = 120
	maxHeadline  = 110
)

// NewsTab buckets headlines for the brief's news panel.
type NewsTab string

const (
	TabMarkets     NewsTab = "markets"
	TabGeopolitics NewsTab = "geopolitics"
	TabTech        NewsTab = "tech"
	TabScience     NewsTab = "science"
	TabCulture     NewsTab = "culture"
)

// Tabs is the display order of news tabs.
var Tabs = []NewsTab{TabMarkets, TabGeopolitics, TabTech, TabScience, TabCulture}

var (
	pathPattern     = regexp.MustCompile(`/[\w.\-/]+`)
	filenamePattern = regexp.MustCompile(`(?i)([A-Za-z0-9_-]+)\.(pdf|docx|txt|xml|md|csv|xlsx|pptx|js|ts|tsx|py)\b`)
	spacePattern    = regexp.MustCompile(`\s+`)

	marketsPattern     = regexp.MustCompile(`market|stock|fed|rate|economy|earnings|crypto|bond|nasdaq|dow|s&p`)
	geopoliticsPattern = regexp.MustCompile(`war|election|policy|government|sanction|china|russia|nato|middle east|ukraine`)
	techPattern        = regexp.MustCompile(`ai|openai|xai|model|chip|software|startup|tech|robot|apple|google|microsoft`)
	sciencePattern     = regexp.MustCompile(`science|nasa|space|research|study|climate|physics|biology|medicine`)
)

// CleanTaskText strips filesystem noise out of a task line: absolute paths
// become "[path]", known file extensions are dropped, and whitespace is
// collapsed.
func CleanTaskText(text string) string {
	out := pathPattern.ReplaceAllString(text, "[path]")
	out = filenamePattern.ReplaceAllString(out, "$1")
	out = spacePattern.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}

// Truncate cuts text to max runes, replacing the tail with an ellipsis.
func Truncate(text string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	head := strings.TrimRight(string(runes[:max-1]), " \t")
	return head + "…"
}

// ClassifyHeadline assigns a headline to a news tab by keyword. First match
// wins; anything unmatched lands in culture.
func ClassifyHeadline(title string) NewsTab {
	t := strings.ToLower(title)
	switch {
	case marketsPattern.MatchString(t):
		return TabMarkets
	case geopoliticsPattern.MatchString(t):
		return TabGeopolitics
	case techPattern.MatchString(t):
		return TabTech
	case sciencePattern.MatchString(t):
		return TabScience
	default:
		return TabCulture
	}
}

// Task is one display-ready brief line.
type Task struct {
	ID      string
	Title   string
	Meta    string
	Badge   string
	Urgency rank.Urgency
	Checked bool
}

// FromRecord builds a display task from an aggregated record. checks carries
// the persisted checkmarks.
func FromRecord(rec rank.TaskRecord, checks map[string]bool) Task {
	return Task{
		ID:      rec.ID,
		Title:   Truncate(CleanTaskText(rec.Title), maxTaskTitle),
		Meta:    Truncate(CleanTaskText(rec.Reason), maxTaskMeta),
		Badge:   rank.BadgeForSource(string(rec.Source)),
		Urgency: rec.Urgency,
		Checked: checks[rec.ID],
	}
}

// Progress summarizes checkmark completion over a set of records.
type Progress struct {
	Done      int
	Total     int
	Remaining int
	Pct       int
}

// ProgressFor counts checked records. Pct is integer percent, zero when the
// list is empty.
func ProgressFor(records []rank.TaskRecord, checks map[string]bool) Progress {
	p := Progress{Total: len(records)}
	for _, rec := range records {
		if checks[rec.ID] {
			p.Done++
		}
	}
	p.Remaining = p.Total - p.Done
	if p.Total > 0 {
		p.Pct = p.Done * 100 / p.Total
	}
	return p
}

// Headline is one display-ready news line.
type Headline struct {
	Title string
	Body  string
	Tab   NewsTab
}

// GroupHeadlines buckets and trims headlines per tab. when is the already
// formatted publish time, or "recent" when absent.
func GroupHeadlines(titles []string, sources []string, whens []string) map[NewsTab][]Headline {
	grouped := make(map[NewsTab][]Headline, len(Tabs))
	for i, title := range titles {
		source := ""
		if i < len(sources) {
			source = sources[i]
		}
		when := "recent"
		if i < len(whens) && whens[i] != "" {
			when = whens[i]
		}
		tab := ClassifyHeadline(title)
		grouped[tab] = append(grouped[tab], Headline{
			Title: Truncate(title, maxHeadline),
			Body:  source + " · " + when,
			Tab:   tab,
		})
	}
	return grouped
}
