package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/lmagee3/missionctl/internal/approval"
	"github.com/lmagee3/missionctl/internal/audit"
	"github.com/lmagee3/missionctl/internal/backend"
	"github.com/lmagee3/missionctl/internal/bus"
	"github.com/lmagee3/missionctl/internal/config"
	mcotel "github.com/lmagee3/missionctl/internal/otel"
	"github.com/lmagee3/missionctl/internal/persistence"
	"github.com/lmagee3/missionctl/internal/poller"
	"github.com/lmagee3/missionctl/internal/session"
	"github.com/lmagee3/missionctl/internal/telemetry"
	"github.com/lmagee3/missionctl/internal/tui"
)

// Version is set via ldflags at build time: -ldflags "-X main.Version=..."
var Version = "v0.3-dev"

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage of %s:

INTERACTIVE MODE (default):
  %s                          Start the mission control TUI

DAEMON MODE:
  %s -daemon                  Run background pollers only (no TUI)

SUBCOMMANDS:
  %s status                   Check backend health
  %s brief                    Print today's brief (tasks + headlines)
  %s scan [path ...]          Run a one-shot file scan and print results

FLAGS:
`, os.Args[0], os.Args[0], os.Args[0], os.Args[0], os.Args[0], os.Args[0])
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, `
ENVIRONMENT VARIABLES:
  MISSIONCTL_HOME         Data directory (default: ~/.missionctl)
  MISSIONCTL_NO_TUI       Set to 1 to disable TUI (use with -daemon)
  MISSIONCTL_BACKEND_URL  Backend base URL (default: http://127.0.0.1:8000)
  MISSIONCTL_API_KEY      Backend API key

EXAMPLES:
  Interactive:            %s
  Daemon mode:            %s -daemon
  Backend health:         %s status
  Scan the desktop:       %s scan ~/Desktop
`, os.Args[0], os.Args[0], os.Args[0], os.Args[0])
}

func main() {
	interactive := isatty.IsTerminal(os.Stdout.Fd()) && os.Getenv("MISSIONCTL_NO_TUI") == ""
	daemon := flag.Bool("daemon", false, "run in daemon mode (pollers only, logs to stdout)")
	flag.Usage = printUsage
	flag.Parse()

	if *daemon {
		interactive = false
	}

	// Quiet logs (file-only) in interactive mode so the TUI stays clean.
	quietLogs := interactive

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// CLI subcommands (non-daemon actions).
	if args := flag.Args(); len(args) > 0 {
		switch strings.ToLower(strings.TrimSpace(args[0])) {
		case "help", "-h", "--help":
			printUsage()
			os.Exit(0)
		case "status":
			os.Exit(runStatusCommand(ctx, args[1:]))
		case "brief":
			os.Exit(runBriefCommand(ctx, args[1:]))
		case "scan":
			os.Exit(runScanCommand(ctx, args[1:]))
		default:
			fmt.Fprintf(os.Stderr, "unknown command %q\n", args[0])
			printUsage()
			os.Exit(2)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fatalStartup(nil, "E_CONFIG_LOAD", err)
	}

	// Initialize audit before the logger so logger failures are audited.
	// Audit only needs homeDir, which config already resolved.
	if err := audit.Init(cfg.HomeDir); err != nil {
		fatalStartup(nil, "E_AUDIT_INIT", err)
	}
	defer func() { _ = audit.Close() }()

	logger, closer, err := telemetry.NewLogger(cfg.HomeDir, cfg.LogLevel, quietLogs)
	if err != nil {
		fatalStartup(nil, "E_LOGGER_INIT", err)
	}
	defer closer.Close()
	slog.SetDefault(logger)
	logger.Info("startup phase", "phase", "config_loaded", "backend", cfg.Backend.BaseURL)

	// Create the event bus early so every component shares it.
	eventBus := bus.New()

	// Initialize OpenTelemetry (no-op when disabled, zero overhead).
	otelProvider, err := mcotel.Init(ctx, cfg.OTel)
	if err != nil {
		fatalStartup(logger, "E_OTEL_INIT", err)
	}
	defer otelProvider.Shutdown(ctx)

	metrics, err := mcotel.NewMetrics(otelProvider.Meter)
	if err != nil {
		fatalStartup(logger, "E_METRICS_INIT", err)
	}

	dbPath := filepath.Join(cfg.HomeDir, "missionctl.db")
	store, err := persistence.Open(dbPath)
	if err != nil {
		fatalStartup(logger, "E_STORE_OPEN", err)
	}
	defer store.Close()
	logger.Info("startup phase", "phase", "schema_migrated", "db", dbPath)

	client := backend.New(cfg.Backend.BaseURL, cfg.Backend.APIKey, cfg.BackendTimeout()).
		WithTelemetry(otelProvider.Tracer, metrics)

	gate, err := approval.New(client, logger, eventBus)
	if err != nil {
		fatalStartup(logger, "E_GATE_INIT", err)
	}

	sess := session.New(client, gate, store, eventBus, logger, session.Options{
		ScanPaths:       cfg.Scan.DefaultPaths,
		Scan:            scanOptionsFrom(cfg),
		EmailFetchLimit: cfg.Email.FetchLimit,
		Mailbox:         cfg.Email.Mailbox,
	}).WithMetrics(metrics)

	pollers := poller.New(poller.Config{
		Session:        sess,
		Logger:         logger,
		OpsInterval:    cfg.OpsInterval(),
		QuotesInterval: cfg.QuotesInterval(),
		HeadlinesCron:  cfg.Poll.HeadlinesCron,
		RescanCron:     cfg.Poll.RescanCron,
	})
	if err := pollers.Start(ctx); err != nil {
		fatalStartup(logger, "E_POLLER_START", err)
	}
	logger.Info("startup phase", "phase", "pollers_started")

	// Watch config.yaml so edits surface in the logs; backend settings
	// need a restart to apply, and the log line says so.
	watcher := config.NewWatcher(cfg.HomeDir, logger)
	if err := watcher.Start(ctx); err != nil {
		logger.Warn("config watcher unavailable", "error", err)
	} else {
		go watchConfig(ctx, watcher, cfg.Fingerprint(), logger)
	}

	if interactive {
		// Run the TUI. When it exits, cancel the context to shut down.
		go func() {
			if err := tui.Run(ctx, tui.Config{
				Session:  sess,
				Gate:     gate,
				EventBus: eventBus,
			}); err != nil && ctx.Err() == nil {
				logger.Error("tui exited with error", "error", err)
			}
			stop()
		}()
	}

	<-ctx.Done()
	logger.Info("shutdown signal received")

	pollers.Stop()
	sess.Close()
	logger.Info("shutdown complete")
}

// watchConfig logs config.yaml rewrites. Only changes that alter the
// effective settings are reported.
func watchConfig(ctx context.Context, w *config.Watcher, fingerprint string, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.Events():
			if !ok {
				return
			}
			next, err := config.Load()
			if err != nil {
				logger.Warn("config reload failed", "path", ev.Path, "error", err)
				continue
			}
			if next.Fingerprint() == fingerprint {
				continue
			}
			fingerprint = next.Fingerprint()
			logger.Info("config changed on disk; restart to apply backend settings", "path", ev.Path)
		}
	}
}

func fatalStartup(logger *slog.Logger, reasonCode string, err error) {
	message := ""
	if err != nil {
		message = err.Error()
	}
	audit.Record("fatal", "runtime.startup", 0, reasonCode, message)

	if logger != nil {
		logger.Error("startup failure", "reason_code", reasonCode, "error", message)
	} else {
		fmt.Fprintf(
			os.Stderr,
			`{"timestamp":"%s","level":"ERROR","component":"runtime","trace_id":"-","msg":"startup failure","reason_code":%q,"error":%q}`+"\n",
			time.Now().UTC().Format(time.RFC3339Nano),
			reasonCode,
			message,
		)
	}
	os.Exit(1)
}
