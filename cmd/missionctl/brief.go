package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/lmagee3/missionctl/internal/approval"
	"github.com/lmagee3/missionctl/internal/backend"
	"github.com/lmagee3/missionctl/internal/brief"
	"github.com/lmagee3/missionctl/internal/config"
	"github.com/lmagee3/missionctl/internal/persistence"
	"github.com/lmagee3/missionctl/internal/rank"
	"github.com/lmagee3/missionctl/internal/session"
)

// runBriefCommand prints the daily brief: ops counters, the attack order
// grouped by urgency with persisted checkmarks, then headlines and market
// quotes unless those panels are hidden.
func runBriefCommand(ctx context.Context, args []string) int {
	if len(args) != 0 {
		fmt.Fprintln(os.Stderr, "usage: missionctl brief")
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load: %v\n", err)
		return 1
	}

	logger := slog.New(slog.DiscardHandler)
	client := backend.New(cfg.Backend.BaseURL, cfg.Backend.APIKey, cfg.BackendTimeout())
	gate, err := approval.New(client, logger, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init: %v\n", err)
		return 1
	}

	store, err := persistence.Open(filepath.Join(cfg.HomeDir, "missionctl.db"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "store open: %v\n", err)
		return 1
	}
	defer store.Close()

	sess := session.New(client, gate, store, nil, logger, session.Options{})
	defer sess.Close()

	if err := sess.RefreshOps(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "ops fetch: %v\n", err)
		return 1
	}

	checks, err := store.TaskChecks(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "task checks: %v\n", err)
		return 1
	}

	records := sess.AttackOrder()
	progress := brief.ProgressFor(records, checks)
	fmt.Printf("Daily Brief · %d/%d done (%d%%)\n", progress.Done, progress.Total, progress.Pct)
	if summary := sess.OpsSummary(); summary != nil {
		fmt.Printf("Tasks %d (%d overdue) · Blackboard %d (%d due soon)\n",
			summary.Tasks.Total, summary.Tasks.Overdue,
			summary.Blackboard.Total, summary.Blackboard.Due24h)
	}
	fmt.Println()

	if len(records) == 0 {
		fmt.Println("No tasks on deck.")
	}
	groups := sess.Groups()
	for _, bucket := range []struct {
		label string
		recs  []rank.TaskRecord
	}{
		{"CRITICAL", groups.Critical},
		{"TODAY", groups.Today},
		{"TOMORROW", groups.Tomorrow},
		{"THIS WEEK", groups.Week},
		{"LATER", groups.Later},
	} {
		if len(bucket.recs) == 0 {
			continue
		}
		fmt.Println(bucket.label)
		for _, rec := range bucket.recs {
			task := brief.FromRecord(rec, checks)
			mark := " "
			if task.Checked {
				mark = "x"
			}
			line := fmt.Sprintf("  [%s] %s (%s)", mark, task.Title, task.Badge)
			if task.Meta != "" {
				line += " · " + task.Meta
			}
			fmt.Println(line)
		}
	}

	// Headlines and quotes are best-effort sections; the brief stands
	// without them.
	hidden := sess.HiddenPanels(ctx)
	if !hidden["headlines"] {
		if err := sess.RefreshHeadlines(ctx); err == nil {
			printHeadlines(sess.Headlines())
		}
	}
	if !hidden["quotes"] {
		if err := sess.RefreshQuotes(ctx); err == nil {
			printQuotes(sess.Quotes())
		}
	}
	return 0
}

func printHeadlines(resp *backend.HeadlinesResponse) {
	if resp == nil || len(resp.Headlines) == 0 {
		return
	}
	titles := make([]string, len(resp.Headlines))
	sources := make([]string, len(resp.Headlines))
	whens := make([]string, len(resp.Headlines))
	for i, h := range resp.Headlines {
		titles[i] = h.Title
		sources[i] = h.Source
		if h.PublishedAt != nil {
			whens[i] = *h.PublishedAt
		}
	}
	grouped := brief.GroupHeadlines(titles, sources, whens)
	for _, tab := range brief.Tabs {
		items := grouped[tab]
		if len(items) == 0 {
			continue
		}
		fmt.Printf("\n%s\n", strings.ToUpper(string(tab)))
		for _, h := range items {
			fmt.Printf("  %s (%s)\n", h.Title, h.Body)
		}
	}
}

func printQuotes(resp *backend.QuotesResponse) {
	if resp == nil || len(resp.Quotes) == 0 {
		return
	}
	parts := make([]string, 0, len(resp.Quotes))
	for _, q := range resp.Quotes {
		s := q.Symbol
		if q.Price != nil {
			s += fmt.Sprintf(" %.2f", *q.Price)
		}
		if q.ChangePercent != nil {
			s += fmt.Sprintf(" %+.2f%%", *q.ChangePercent)
		}
		parts = append(parts, s)
	}
	fmt.Printf("\nMARKETS\n  %s\n", strings.Join(parts, " · "))
}
