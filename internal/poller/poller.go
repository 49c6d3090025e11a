// Package poller drives the session's periodic refreshes: a fast ops loop, a
// quotes loop, and two cron-scheduled jobs for headlines and auto rescans.
package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	cronlib "github.com/robfig/cron/v3"

	"github.com/lmagee3/missionctl/internal/session"
)

// cronParser parses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cronlib.NewParser(
	cronlib.Minute | cronlib.Hour | cronlib.Dom | cronlib.Month | cronlib.Dow,
)

// Config holds the poller's dependencies and cadences.
type Config struct {
	Session *session.Session
	Logger  *slog.Logger

	OpsInterval    time.Duration // defaults to 10s
	QuotesInterval time.Duration // defaults to 30s
	HeadlinesCron  string        // defaults hourly
	RescanCron     string        // defaults hourly
}

// Poller runs the refresh loops. Start launches them; Stop waits for exit.
type Poller struct {
	session *session.Session
	logger  *slog.Logger

	opsInterval    time.Duration
	quotesInterval time.Duration
	headlinesCron  string
	rescanCron     string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(cfg Config) *Poller {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	opsInterval := cfg.OpsInterval
	if opsInterval <= 0 {
		opsInterval = 10 * time.Second
	}
	quotesInterval := cfg.QuotesInterval
	if quotesInterval <= 0 {
		quotesInterval = 30 * time.Second
	}
	headlinesCron := cfg.HeadlinesCron
	if headlinesCron == "" {
		headlinesCron = "0 * * * *"
	}
	rescanCron := cfg.RescanCron
	if rescanCron == "" {
		rescanCron = "0 * * * *"
	}
	return &Poller{
		session:        cfg.Session,
		logger:         logger,
		opsInterval:    opsInterval,
		quotesInterval: quotesInterval,
		headlinesCron:  headlinesCron,
		rescanCron:     rescanCron,
	}
}

// Start launches the loops in background goroutines. The cron expressions
// are validated here so a bad config fails loudly instead of never firing.
func (p *Poller) Start(ctx context.Context) error {
	if _, err := cronParser.Parse(p.headlinesCron); err != nil {
		return err
	}
	if _, err := cronParser.Parse(p.rescanCron); err != nil {
		return err
	}

	ctx, p.cancel = context.WithCancel(ctx)
	p.wg.Add(4)
	go p.opsLoop(ctx)
	go p.quotesLoop(ctx)
	go p.cronLoop(ctx, "headlines", p.headlinesCron, p.refreshHeadlines)
	go p.cronLoop(ctx, "rescan", p.rescanCron, p.autoRescan)
	p.logger.Info("poller started",
		"ops_interval", p.opsInterval,
		"quotes_interval", p.quotesInterval,
		"headlines_cron", p.headlinesCron,
		"rescan_cron", p.rescanCron,
	)
	return nil
}

// Stop cancels the loops and waits for them to exit.
func (p *Poller) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	p.logger.Info("poller stopped")
}

// opsLoop refreshes health and the ops feed. Fires immediately on startup,
// then on each tick.
func (p *Poller) opsLoop(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.opsInterval)
	defer ticker.Stop()

	p.refreshOps(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.refreshOps(ctx)
		}
	}
}

func (p *Poller) refreshOps(ctx context.Context) {
	p.session.RefreshHealth(ctx)
	if err := p.session.RefreshOps(ctx); err != nil {
		p.logger.Warn("ops refresh failed", "error", err)
	}
}

func (p *Poller) quotesLoop(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.quotesInterval)
	defer ticker.Stop()

	p.refreshQuotes(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.refreshQuotes(ctx)
		}
	}
}

func (p *Poller) refreshQuotes(ctx context.Context) {
	if err := p.session.RefreshQuotes(ctx); err != nil {
		p.logger.Warn("quotes refresh failed", "error", err)
	}
}

// cronLoop sleeps until the expression's next fire time, runs the job, and
// repeats. Headlines also fire once at startup so the brief is never empty.
func (p *Poller) cronLoop(ctx context.Context, name, expr string, job func(context.Context)) {
	defer p.wg.Done()

	if name == "headlines" {
		job(ctx)
	}
	for {
		next, err := NextRunTime(expr, time.Now())
		if err != nil {
			p.logger.Error("cron expression stopped parsing", "job", name, "expr", expr, "error", err)
			return
		}
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			job(ctx)
		}
	}
}

func (p *Poller) refreshHeadlines(ctx context.Context) {
	if err := p.session.RefreshHeadlines(ctx); err != nil {
		p.logger.Warn("headlines refresh failed", "error", err)
	}
}

// autoRescan runs a scheduled scan. The session drops it when a scan is
// already in flight.
func (p *Poller) autoRescan(ctx context.Context) {
	if p.session.IsScanning() {
		p.logger.Debug("auto rescan skipped, scan in flight")
		return
	}
	if err := p.session.RunScan(ctx, session.TriggerAuto, nil); err != nil {
		p.logger.Warn("auto rescan failed", "error", err)
	}
}

// NextRunTime parses the cron expression and returns the next run time after
// the given time.
func NextRunTime(cronExpr string, after time.Time) (time.Time, error) {
	sched, err := cronParser.Parse(cronExpr)
	if err != nil {
		return time.Time{}, err
	}
	return sched.Next(after), nil
}
