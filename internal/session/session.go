// Package session owns the client-side state of one missionctl run: the chat
// conversation, the three task feeds, backend health, and the latest
// headlines and quotes. All mutation goes through Session methods; consumers
// read snapshots or subscribe to the bus.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/lmagee3/missionctl/internal/approval"
	"github.com/lmagee3/missionctl/internal/backend"
	"github.com/lmagee3/missionctl/internal/bus"
	"github.com/lmagee3/missionctl/internal/intent"
	mcotel "github.com/lmagee3/missionctl/internal/otel"
	"github.com/lmagee3/missionctl/internal/persistence"
	"github.com/lmagee3/missionctl/internal/rank"
	"github.com/lmagee3/missionctl/internal/shared"
)

// Scan triggers, recorded in the activity feed and scan events.
const (
	TriggerAuto   = "auto"
	TriggerButton = "button"
)

// Message is one chat turn as published on the bus.
type Message struct {
	Role    string
	Content string
	RouteTo string
}

// Options bounds the session's backend interactions.
type Options struct {
	ScanPaths       []string
	Scan            backend.ScanOptions
	EmailFetchLimit int
	Mailbox         string
	QuoteSymbols    []string
}

// Session is safe for concurrent use by the pollers and the UI loop.
type Session struct {
	client   *backend.Client
	gate     *approval.Gate
	store    *persistence.Store // nil when persistence is disabled
	eventBus *bus.Bus
	logger   *slog.Logger
	metrics  *mcotel.Metrics
	opts     Options

	agg        *rank.Aggregator
	isScanning atomic.Bool

	mu             sync.Mutex
	closed         bool
	chatSessionID  *int64
	baseTasks      []rank.TaskRecord
	connectorTasks []rank.ConnectorTask
	scanTasks      []rank.ScanTask
	health         string
	ops            *backend.OpsSummaryResponse
	headlines      *backend.HeadlinesResponse
	quotes         *backend.QuotesResponse
}

// New creates a session. store may be nil; eventBus may be nil in tests.
func New(client *backend.Client, gate *approval.Gate, store *persistence.Store, eventBus *bus.Bus, logger *slog.Logger, opts Options) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.EmailFetchLimit <= 0 {
		opts.EmailFetchLimit = 5
	}
	if opts.Mailbox == "" {
		opts.Mailbox = "INBOX"
	}
	if len(opts.ScanPaths) == 0 {
		opts.ScanPaths = []string{"~/Desktop"}
	}
	return &Session{
		client:   client,
		gate:     gate,
		store:    store,
		eventBus: eventBus,
		logger:   logger,
		opts:     opts,
		agg:      rank.NewAggregator(),
		health:   "unknown",
	}
}

// WithMetrics attaches metric instruments.
func (s *Session) WithMetrics(m *mcotel.Metrics) *Session {
	s.metrics = m
	return s
}

// Close marks the session disposed. Further utterances are dropped.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// HandleUtterance routes one line of user input to exactly one downstream
// effect. Blank input and a bare "email:" produce nothing, not even a user
// message.
func (s *Session) HandleUtterance(ctx context.Context, raw string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	it := intent.Route(raw)
	if it.Kind == intent.KindNone {
		return
	}
	ctx = shared.WithTraceID(ctx, shared.NewTraceID())
	if s.metrics != nil {
		s.metrics.IntentsRouted.Add(ctx, 1, metric.WithAttributes(mcotel.AttrIntent.String(string(it.Kind))))
	}
	s.logger.Info("utterance routed", "intent", string(it.Kind), "trace_id", shared.TraceID(ctx))

	s.appendMessage(ctx, "user", strings.TrimSpace(raw), "")

	switch it.Kind {
	case intent.KindSyncInbox:
		s.syncInbox(ctx)
	case intent.KindWebIngest:
		s.ingestWeb(ctx, it.URL)
	case intent.KindEmailIngest:
		s.ingestEmail(ctx, it.Body)
	case intent.KindScan:
		_ = s.RunScan(ctx, TriggerButton, nil)
	case intent.KindChat:
		s.chat(ctx, it.Utterance)
	}
}

func (s *Session) chat(ctx context.Context, utterance string) {
	s.mu.Lock()
	sid := s.chatSessionID
	s.mu.Unlock()

	resp, err := s.client.SendChatMessage(ctx, utterance, sid)
	if err != nil {
		s.activity(ctx, "Chat error: failed to reach backend.")
		return
	}

	s.mu.Lock()
	id := resp.SessionID
	s.chatSessionID = &id
	s.mu.Unlock()

	s.appendMessage(ctx, "assistant", resp.AssistantMessage, resp.RouteTo)
	if len(resp.ProposedActions) > 0 && s.gate != nil {
		s.gate.Add(resp.ProposedActions...)
	}
}

func (s *Session) ingestWeb(ctx context.Context, url string) {
	resp, err := s.client.IngestWeb(ctx, url)
	if err != nil {
		s.activity(ctx, "Web ingest failed.")
		return
	}
	s.appendConnectorTasks(resp.ProposedTasks)
	s.appendMessage(ctx, "assistant", "Web ingest complete: "+resp.Summary, "tool")
	s.activity(ctx, "Web ingest complete.")
}

func (s *Session) ingestEmail(ctx context.Context, body string) {
	resp, err := s.client.IngestEmail(ctx, "Email from chat", body)
	if err != nil {
		s.activity(ctx, "Email ingest failed.")
		return
	}
	s.appendConnectorTasks(resp.ProposedTasks)
	s.appendMessage(ctx, "assistant", "Email ingest complete: "+resp.Summary, "tool")
	s.activity(ctx, "Email ingest complete.")
}

func (s *Session) syncInbox(ctx context.Context) {
	resp, err := s.client.IngestEmailFetch(ctx, s.opts.EmailFetchLimit, s.opts.Mailbox)
	if err != nil {
		s.activity(ctx, "Inbox sync failed.")
		return
	}
	var proposed []backend.IngestTask
	for _, item := range resp.Items {
		proposed = append(proposed, item.ProposedTasks...)
	}
	s.appendConnectorTasks(proposed)
	msg := fmt.Sprintf("Inbox sync complete: %d emails, %d proposed tasks", resp.Count, len(proposed))
	s.appendMessage(ctx, "assistant", msg, "tool")
	s.activity(ctx, fmt.Sprintf("Inbox sync complete: %d emails", resp.Count))
}

// RunScan runs one file scan. While a scan is in flight further calls are
// dropped, so an auto rescan never stacks behind a button scan. Scan tasks
// are replaced wholesale by each completed scan.
func (s *Session) RunScan(ctx context.Context, trigger string, paths []string) error {
	if !s.isScanning.CompareAndSwap(false, true) {
		s.logger.Debug("scan already running, skipping", "trigger", trigger)
		return nil
	}
	defer s.isScanning.Store(false)

	if shared.TraceID(ctx) == "-" {
		ctx = shared.WithTraceID(ctx, shared.NewTraceID())
	}

	if len(paths) == 0 {
		paths = s.opts.ScanPaths
	}
	resp, err := s.client.ScanFiles(ctx, backend.ScanRequestFrom(paths, s.opts.Scan))
	if err != nil {
		s.activity(ctx, "Scan failed.")
		return err
	}

	tasks := make([]rank.ScanTask, 0, len(resp.ProposedTasks))
	for _, raw := range resp.ProposedTasks {
		tasks = append(tasks, rank.ScanTask{
			Title:    stringField(raw, "title"),
			Path:     stringField(raw, "path"),
			DueDate:  parseDate(stringField(raw, "due_date")),
			Priority: rank.SourcePriority(stringField(raw, "priority")),
		})
	}
	s.mu.Lock()
	s.scanTasks = tasks
	s.mu.Unlock()

	s.appendMessage(ctx, "assistant", scanResultMessage(resp), "tool")
	s.activity(ctx, fmt.Sprintf("Scan %s: %d files", trigger, resp.Scanned))
	if s.eventBus != nil {
		s.eventBus.Publish(bus.TopicScanCompleted, bus.ScanCompletedEvent{
			Trigger:   trigger,
			Scanned:   resp.Scanned,
			Proposed:  len(resp.ProposedTasks),
			DueSignal: len(resp.DueSignals),
		})
	}
	if s.metrics != nil {
		s.metrics.ScansCompleted.Add(ctx, 1, metric.WithAttributes(mcotel.AttrTrigger.String(trigger)))
	}
	s.publishTasks()
	return nil
}

// IsScanning reports whether a scan is in flight.
func (s *Session) IsScanning() bool {
	return s.isScanning.Load()
}

// RefreshOps pulls the ops summary and the pre-ranked next-task feed. The
// feed becomes the base segment of the attack order.
func (s *Session) RefreshOps(ctx context.Context) error {
	summary, err := s.client.OpsSummary(ctx)
	if err != nil {
		return err
	}
	next, err := s.client.OpsNext(ctx)
	if err != nil {
		return err
	}

	var base []rank.TaskRecord
	if next.Next != nil {
		base = append(base, opsTaskRecord(*next.Next))
	}
	for _, t := range next.Alternates {
		base = append(base, opsTaskRecord(t))
	}

	s.mu.Lock()
	s.ops = summary
	s.baseTasks = base
	s.mu.Unlock()
	s.publishTasks()
	return nil
}

// RefreshHealth probes the backend and publishes a health event on change.
func (s *Session) RefreshHealth(ctx context.Context) {
	status := "error"
	if resp, err := s.client.Health(ctx); err == nil && resp.Status != "" {
		status = resp.Status
	}

	s.mu.Lock()
	changed := s.health != status
	s.health = status
	s.mu.Unlock()

	if changed && s.eventBus != nil {
		s.eventBus.Publish(bus.TopicHealthChanged, bus.HealthChangedEvent{Status: status})
	}
}

// RefreshHeadlines fetches the news feed.
func (s *Session) RefreshHeadlines(ctx context.Context) error {
	resp, err := s.client.Headlines(ctx, 12)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.headlines = resp
	s.mu.Unlock()
	if s.eventBus != nil {
		s.eventBus.Publish(bus.TopicHeadlinesUpdated, len(resp.Headlines))
	}
	return nil
}

// RefreshQuotes fetches market quotes.
func (s *Session) RefreshQuotes(ctx context.Context) error {
	resp, err := s.client.Quotes(ctx, s.opts.QuoteSymbols)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.quotes = resp
	s.mu.Unlock()
	if s.eventBus != nil {
		s.eventBus.Publish(bus.TopicQuotesUpdated, len(resp.Quotes))
	}
	return nil
}

// AttackOrder returns the ranked merge of base, connector, and scan tasks.
func (s *Session) AttackOrder() []rank.TaskRecord {
	s.mu.Lock()
	base, connector, scan := s.baseTasks, s.connectorTasks, s.scanTasks
	s.mu.Unlock()
	return s.agg.Build(base, connector, scan)
}

// Groups returns the attack order partitioned by urgency tier.
func (s *Session) Groups() rank.Groups {
	return rank.GroupByUrgency(s.AttackOrder())
}

// Health returns the last observed backend health status.
func (s *Session) Health() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.health
}

// OpsSummary returns the last fetched summary, or nil before the first poll.
func (s *Session) OpsSummary() *backend.OpsSummaryResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ops
}

// Headlines returns the last fetched news feed, or nil.
func (s *Session) Headlines() *backend.HeadlinesResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.headlines
}

// Quotes returns the last fetched quotes, or nil.
func (s *Session) Quotes() *backend.QuotesResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quotes
}

// Theme returns the persisted UI theme, defaulting to "dark".
func (s *Session) Theme(ctx context.Context) string {
	if s.store == nil {
		return "dark"
	}
	val, ok, err := s.store.GetPref(ctx, persistence.PrefTheme)
	if err != nil || !ok || val == "" {
		return "dark"
	}
	return val
}

// SetTheme persists the UI theme preference.
func (s *Session) SetTheme(ctx context.Context, theme string) error {
	if s.store == nil {
		return nil
	}
	return s.store.SetPref(ctx, persistence.PrefTheme, theme)
}

// TaskChecks returns the persisted brief checkmarks. Nil without a store.
func (s *Session) TaskChecks(ctx context.Context) map[string]bool {
	if s.store == nil {
		return nil
	}
	checks, err := s.store.TaskChecks(ctx)
	if err != nil {
		s.logger.Warn("load task checks", "error", err)
		return nil
	}
	return checks
}

// ToggleTaskCheck flips a brief checkmark and returns the new state.
func (s *Session) ToggleTaskCheck(ctx context.Context, taskID string) (bool, error) {
	if s.store == nil {
		return false, nil
	}
	checks, err := s.store.TaskChecks(ctx)
	if err != nil {
		return false, err
	}
	next := !checks[taskID]
	if err := s.store.SetTaskChecked(ctx, taskID, next); err != nil {
		return false, err
	}
	return next, nil
}

// HiddenPanels returns the set of brief panels the user has hidden.
func (s *Session) HiddenPanels(ctx context.Context) map[string]bool {
	hidden := make(map[string]bool)
	if s.store == nil {
		return hidden
	}
	val, ok, err := s.store.GetPref(ctx, persistence.PrefHiddenPanels)
	if err != nil || !ok {
		return hidden
	}
	for _, name := range strings.Split(val, ",") {
		if name = strings.TrimSpace(name); name != "" {
			hidden[name] = true
		}
	}
	return hidden
}

// TogglePanel flips a panel's hidden state and returns true when it is now
// hidden.
func (s *Session) TogglePanel(ctx context.Context, name string) (bool, error) {
	if s.store == nil {
		return false, nil
	}
	hidden := s.HiddenPanels(ctx)
	if hidden[name] {
		delete(hidden, name)
	} else {
		hidden[name] = true
	}
	names := make([]string, 0, len(hidden))
	for n := range hidden {
		names = append(names, n)
	}
	sort.Strings(names)
	if err := s.store.SetPref(ctx, persistence.PrefHiddenPanels, strings.Join(names, ",")); err != nil {
		return false, err
	}
	return hidden[name], nil
}

// ChatSessionID returns the backend-assigned conversation id, or nil before
// the first successful chat turn.
func (s *Session) ChatSessionID() *int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.chatSessionID == nil {
		return nil
	}
	id := *s.chatSessionID
	return &id
}

// appendConnectorTasks grows the append-only connector segment.
func (s *Session) appendConnectorTasks(tasks []backend.IngestTask) {
	if len(tasks) == 0 {
		return
	}
	converted := make([]rank.ConnectorTask, 0, len(tasks))
	for _, t := range tasks {
		converted = append(converted, rank.ConnectorTask{
			Title:    t.Title,
			Summary:  t.Summary,
			DueDate:  parseDatePtr(t.DueDate),
			Priority: rank.SourcePriority(t.Priority),
			Source:   rank.Source(t.Source),
		})
	}
	s.mu.Lock()
	s.connectorTasks = append(s.connectorTasks, converted...)
	s.mu.Unlock()
	s.publishTasks()
}

func (s *Session) publishTasks() {
	records := s.AttackOrder()
	if s.eventBus != nil {
		s.eventBus.Publish(bus.TopicTasksUpdated, bus.TasksUpdatedEvent{
			Count:       len(records),
			Fingerprint: s.agg.Fingerprint(),
		})
	}
}

func (s *Session) appendMessage(ctx context.Context, role, content, routeTo string) {
	if s.store != nil {
		var sid int64
		s.mu.Lock()
		if s.chatSessionID != nil {
			sid = *s.chatSessionID
		}
		s.mu.Unlock()
		if _, err := s.store.AppendMessage(ctx, sid, role, content, routeTo); err != nil {
			s.logger.Warn("persist message", "error", err)
		}
	}
	if s.eventBus != nil {
		s.eventBus.Publish(bus.TopicMessageAppended, Message{Role: role, Content: content, RouteTo: routeTo})
	}
}

func (s *Session) activity(ctx context.Context, line string) {
	s.logger.Info("activity", "line", line, "trace_id", shared.TraceID(ctx))
	if s.store != nil {
		if err := s.store.AppendActivity(ctx, line); err != nil {
			s.logger.Warn("persist activity", "error", err)
		}
	}
	if s.eventBus != nil {
		s.eventBus.Publish(bus.TopicActivityAppended, line)
	}
}

func opsTaskRecord(t backend.OpsTask) rank.TaskRecord {
	reason := t.Reason
	if reason == "" {
		reason = "Scheduled"
	}
	return rank.TaskRecord{
		ID:      t.ID,
		Title:   t.Title,
		Source:  rank.Source(t.Source),
		DueAt:   parseDatePtr(t.DueAt),
		Urgency: rank.ParseUrgency(t.Urgency),
		Reason:  reason,
	}
}

// scanResultMessage renders a scan response the way the chat panel shows it.
func scanResultMessage(resp *backend.ScanResponse) string {
	staleJunk := append(append([]map[string]any{}, resp.StaleCandidates...), resp.JunkCandidates...)
	lines := []string{
		"Scan results:",
		"Due signals: " + formatList(resp.DueSignals),
		"Proposed tasks: " + formatList(resp.ProposedTasks),
		"Hot files: " + formatList(resp.HotFiles),
		"Stale/junk: " + formatList(staleJunk),
	}
	return strings.Join(lines, "\n")
}

// formatList shows up to four path-or-title labels, or "none".
func formatList(items []map[string]any) string {
	if len(items) == 0 {
		return "none"
	}
	var labels []string
	for _, item := range items {
		if len(labels) == 4 {
			labels = append(labels, "…")
			break
		}
		label := stringField(item, "path")
		if label == "" {
			label = stringField(item, "title")
		}
		if label != "" {
			labels = append(labels, label)
		}
	}
	if len(labels) == 0 {
		return "none"
	}
	return strings.Join(labels, " · ")
}

func stringField(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// parseDate accepts the backend's two date shapes: bare dates and RFC 3339.
func parseDate(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return &t
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t
	}
	return nil
}

func parseDatePtr(raw *string) *time.Time {
	if raw == nil {
		return nil
	}
	return parseDate(*raw)
}
