package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/lmagee3/missionctl/internal/backend"
	"github.com/lmagee3/missionctl/internal/config"
)

func runStatusCommand(ctx context.Context, args []string) int {
	if len(args) != 0 {
		fmt.Fprintln(os.Stderr, "usage: missionctl status")
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load: %v\n", err)
		return 1
	}

	client := backend.New(cfg.Backend.BaseURL, cfg.Backend.APIKey, cfg.BackendTimeout())

	reqCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	resp, err := client.Health(reqCtx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "backend %s: unreachable (%v)\n", cfg.Backend.BaseURL, err)
		return 1
	}

	fmt.Printf("backend %s: %s\n", cfg.Backend.BaseURL, resp.Status)
	return 0
}
