package main

import (
	"context"
	"fmt"
	"os"

	"github.com/lmagee3/missionctl/internal/backend"
	"github.com/lmagee3/missionctl/internal/config"
)

// scanOptionsFrom maps the configured scan bounds onto a request option
// block.
func scanOptionsFrom(cfg config.Config) backend.ScanOptions {
	return backend.ScanOptions{
		IncludeExts: cfg.Scan.IncludeExts,
		ExcludeDirs: cfg.Scan.ExcludeDirs,
		MaxFileMB:   cfg.Scan.MaxFileMB,
		MaxChars:    cfg.Scan.MaxChars,
	}
}

// runScanCommand runs a one-shot file scan against the backend and prints the
// result counts plus any proposed tasks.
func runScanCommand(ctx context.Context, args []string) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load: %v\n", err)
		return 1
	}

	paths := args
	if len(paths) == 0 {
		paths = cfg.Scan.DefaultPaths
	}

	client := backend.New(cfg.Backend.BaseURL, cfg.Backend.APIKey, cfg.BackendTimeout())
	resp, err := client.ScanFiles(ctx, backend.ScanRequestFrom(paths, scanOptionsFrom(cfg)))
	if err != nil {
		fmt.Fprintf(os.Stderr, "scan: %v\n", err)
		return 1
	}

	fmt.Printf("Scanned %d files: %d due signals, %d hot, %d stale, %d junk\n",
		resp.Scanned, len(resp.DueSignals), len(resp.HotFiles),
		len(resp.StaleCandidates), len(resp.JunkCandidates))

	if len(resp.ProposedTasks) == 0 {
		fmt.Println("No proposed tasks.")
		return 0
	}
	fmt.Println("Proposed tasks:")
	for _, task := range resp.ProposedTasks {
		title, _ := task["title"].(string)
		if title == "" {
			continue
		}
		line := "  - " + title
		if due, ok := task["due_date"].(string); ok && due != "" {
			line += " (due " + due + ")"
		}
		fmt.Println(line)
	}
	return 0
}
