package poller

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lmagee3/missionctl/internal/approval"
	"github.com/lmagee3/missionctl/internal/backend"
	"github.com/lmagee3/missionctl/internal/bus"
	"github.com/lmagee3/missionctl/internal/session"
)

// waitFor polls check at short intervals until it returns true or the deadline
// elapses. This avoids fixed time.Sleep calls that cause flaky tests.
func waitFor(t *testing.T, deadline time.Duration, check func() bool) {
	t.Helper()
	end := time.Now().Add(deadline)
	for time.Now().Before(end) {
		if check() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met within deadline")
}

type backendCounts struct {
	health    atomic.Int64
	opsNext   atomic.Int64
	quotes    atomic.Int64
	headlines atomic.Int64
	scans     atomic.Int64
}

func newCountingBackend(t *testing.T) (*backendCounts, *session.Session) {
	t.Helper()
	counts := &backendCounts{}
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		counts.health.Add(1)
		json.NewEncoder(w).Encode(backend.HealthResponse{Status: "ok"})
	})
	mux.HandleFunc("/ops/summary", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(backend.OpsSummaryResponse{})
	})
	mux.HandleFunc("/ops/next", func(w http.ResponseWriter, r *http.Request) {
		counts.opsNext.Add(1)
		json.NewEncoder(w).Encode(backend.OpsNextResponse{})
	})
	mux.HandleFunc("/market/quotes", func(w http.ResponseWriter, r *http.Request) {
		counts.quotes.Add(1)
		json.NewEncoder(w).Encode(backend.QuotesResponse{})
	})
	mux.HandleFunc("/news/headlines", func(w http.ResponseWriter, r *http.Request) {
		counts.headlines.Add(1)
		json.NewEncoder(w).Encode(backend.HeadlinesResponse{})
	})
	mux.HandleFunc("/tools/files/scan", func(w http.ResponseWriter, r *http.Request) {
		counts.scans.Add(1)
		json.NewEncoder(w).Encode(backend.ScanResponse{Scanned: 2})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := backend.New(srv.URL, "", 5*time.Second)
	gate, err := approval.New(client, logger, nil)
	if err != nil {
		t.Fatalf("new gate: %v", err)
	}
	sess := session.New(client, gate, nil, bus.New(), logger, session.Options{})
	return counts, sess
}

func TestPoller_OpsLoopFiresImmediatelyThenTicks(t *testing.T) {
	counts, sess := newCountingBackend(t)

	p := New(Config{
		Session:     sess,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		OpsInterval: 50 * time.Millisecond,
	})
	if err := p.Start(t.Context()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer p.Stop()

	waitFor(t, 2*time.Second, func() bool {
		return counts.opsNext.Load() >= 2 && counts.health.Load() >= 2
	})
}

func TestPoller_QuotesLoop(t *testing.T) {
	counts, sess := newCountingBackend(t)

	p := New(Config{
		Session:        sess,
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		QuotesInterval: 50 * time.Millisecond,
	})
	if err := p.Start(t.Context()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer p.Stop()

	waitFor(t, 2*time.Second, func() bool { return counts.quotes.Load() >= 2 })
}

func TestPoller_HeadlinesFireAtStartup(t *testing.T) {
	counts, sess := newCountingBackend(t)

	p := New(Config{
		Session: sess,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err := p.Start(t.Context()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer p.Stop()

	waitFor(t, 2*time.Second, func() bool { return counts.headlines.Load() >= 1 })
}

func TestPoller_RejectsBadCron(t *testing.T) {
	_, sess := newCountingBackend(t)

	p := New(Config{
		Session:       sess,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		HeadlinesCron: "not a cron",
	})
	if err := p.Start(t.Context()); err == nil {
		p.Stop()
		t.Fatal("want error for bad cron expression")
	}
}

func TestPoller_StopIsDeterministic(t *testing.T) {
	_, sess := newCountingBackend(t)

	p := New(Config{
		Session:     sess,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		OpsInterval: 20 * time.Millisecond,
	})
	if err := p.Start(t.Context()); err != nil {
		t.Fatalf("start: %v", err)
	}

	done := make(chan struct{})
	go func() {
		p.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return")
	}
}

func TestNextRunTime(t *testing.T) {
	after := time.Date(2026, 8, 31, 10, 30, 0, 0, time.UTC)
	next, err := NextRunTime("0 * * * *", after)
	if err != nil {
		t.Fatalf("NextRunTime: %v", err)
	}
	want := time.Date(2026, 8, 31, 11, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("next = %v, want %v", next, want)
	}

	if _, err := NextRunTime("bogus", after); err == nil {
		t.Error("want error for bogus expression")
	}
}
