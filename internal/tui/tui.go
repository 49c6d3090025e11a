// Package tui is the interactive mission-control surface: the ranked attack
// order, the chat panel, pending approvals, and the activity feed, all fed by
// the session through the event bus.
package tui

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lmagee3/missionctl/internal/backend"
	"github.com/lmagee3/missionctl/internal/brief"
	"github.com/lmagee3/missionctl/internal/bus"
	"github.com/lmagee3/missionctl/internal/rank"
	"github.com/lmagee3/missionctl/internal/session"
)

const maxActivityLines = 5

// Config wires the TUI to the running daemon pieces.
type Config struct {
	Session  *session.Session
	Gate     interface{ List() []backend.ProposedAction }
	EventBus *bus.Bus
}

type chatEntry struct {
	role string
	text string
}

type busEventMsg struct {
	event bus.Event
}

type ctxDoneMsg struct{}

type tickMsg time.Time

type dispatchDoneMsg struct{}

var (
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	criticalStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	todayStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	laterStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	userStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	toolStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
)

type model struct {
	ctx context.Context
	cfg Config

	sub *bus.Subscription

	input  []rune
	cursor int

	history  []chatEntry
	activity []string
	order    []rank.TaskRecord
	checks   map[string]bool
	actions  []backend.ProposedAction
	ops      *backend.OpsSummaryResponse
	quotes   *backend.QuotesResponse
	health   string
	busy     bool

	width  int
	height int
}

func newModel(ctx context.Context, cfg Config) model {
	m := model{
		ctx:    ctx,
		cfg:    cfg,
		health: "unknown",
	}
	if cfg.EventBus != nil {
		m.sub = cfg.EventBus.Subscribe("")
	}
	m.history = append(m.history, chatEntry{
		role: "system",
		text: "Mission control online. Type a message, paste a URL, or say \"scan my desktop\".",
	})
	m.refresh()
	return m
}

func (m *model) refresh() {
	if m.cfg.Session != nil {
		m.order = m.cfg.Session.AttackOrder()
		m.health = m.cfg.Session.Health()
		m.checks = m.cfg.Session.TaskChecks(m.ctx)
		m.ops = m.cfg.Session.OpsSummary()
		m.quotes = m.cfg.Session.Quotes()
	}
	if m.cfg.Gate != nil {
		m.actions = m.cfg.Gate.List()
	}
}

func waitForEvent(sub *bus.Subscription) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-sub.Ch()
		if !ok {
			return nil
		}
		return busEventMsg{event: ev}
	}
}

func waitCtxDone(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		<-ctx.Done()
		return ctxDoneMsg{}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(2*time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{waitCtxDone(m.ctx), tickCmd()}
	if m.sub != nil {
		cmds = append(cmds, waitForEvent(m.sub))
	}
	return tea.Batch(cmds...)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ctxDoneMsg:
		return m, tea.Quit

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tickMsg:
		m.refresh()
		return m, tickCmd()

	case dispatchDoneMsg:
		m.busy = false
		m.refresh()
		return m, nil

	case busEventMsg:
		m.handleEvent(msg.event)
		var cmd tea.Cmd
		if m.sub != nil {
			cmd = waitForEvent(m.sub)
		}
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *model) handleEvent(ev bus.Event) {
	switch ev.Topic {
	case bus.TopicMessageAppended:
		if msg, ok := ev.Payload.(session.Message); ok {
			m.history = append(m.history, chatEntry{role: msg.Role, text: msg.Content})
		}
	case bus.TopicActivityAppended:
		if line, ok := ev.Payload.(string); ok {
			m.activity = append(m.activity, line)
			if len(m.activity) > maxActivityLines {
				m.activity = m.activity[len(m.activity)-maxActivityLines:]
			}
		}
	case bus.TopicHealthChanged:
		if hc, ok := ev.Payload.(bus.HealthChangedEvent); ok {
			m.health = hc.Status
		}
	case bus.TopicTasksUpdated, bus.TopicActionsProposed, bus.TopicActionsDecided,
		bus.TopicScanCompleted, bus.TopicQuotesUpdated, bus.TopicHeadlinesUpdated:
		m.refresh()
	}
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "ctrl+d":
		return m, tea.Quit

	case "enter":
		if m.busy {
			return m, nil
		}
		line := strings.TrimSpace(string(m.input))
		m.input = nil
		m.cursor = 0
		if line == "" {
			return m, nil
		}
		if cmd := m.slashCommand(line); cmd != nil {
			return m, cmd
		}
		m.busy = true
		sess := m.cfg.Session
		ctx := m.ctx
		return m, func() tea.Msg {
			sess.HandleUtterance(ctx, line)
			return dispatchDoneMsg{}
		}

	case "backspace":
		if m.cursor > 0 {
			m.input = append(m.input[:m.cursor-1], m.input[m.cursor:]...)
			m.cursor--
		}
		return m, nil

	case "left":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case "right":
		if m.cursor < len(m.input) {
			m.cursor++
		}
		return m, nil

	default:
		if msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace {
			runes := msg.Runes
			if msg.Type == tea.KeySpace {
				runes = []rune{' '}
			}
			m.input = append(m.input[:m.cursor], append(append([]rune{}, runes...), m.input[m.cursor:]...)...)
			m.cursor += len(runes)
		}
		return m, nil
	}
}

// slashCommand handles approval decisions and manual scans. Returns nil when
// the line is not a command.
func (m *model) slashCommand(line string) tea.Cmd {
	if !strings.HasPrefix(line, "/") {
		return nil
	}
	fields := strings.Fields(line)
	sess := m.cfg.Session
	ctx := m.ctx

	switch fields[0] {
	case "/scan":
		m.busy = true
		return func() tea.Msg {
			_ = sess.RunScan(ctx, session.TriggerButton, nil)
			return dispatchDoneMsg{}
		}
	case "/approve", "/reject":
		approved := fields[0] == "/approve"
		if len(fields) < 2 {
			m.history = append(m.history, chatEntry{role: "system", text: "Usage: " + fields[0] + " <action id>"})
			return func() tea.Msg { return dispatchDoneMsg{} }
		}
		id, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			m.history = append(m.history, chatEntry{role: "system", text: "Bad action id: " + fields[1]})
			return func() tea.Msg { return dispatchDoneMsg{} }
		}
		decider, ok := m.cfg.Gate.(interface {
			Decide(context.Context, int64, bool) (*backend.ExecuteActionResponse, error)
		})
		if !ok {
			return func() tea.Msg { return dispatchDoneMsg{} }
		}
		m.busy = true
		return func() tea.Msg {
			_, _ = decider.Decide(ctx, id, approved)
			return dispatchDoneMsg{}
		}
	case "/check":
		if len(fields) < 2 {
			m.history = append(m.history, chatEntry{role: "system", text: "Usage: /check <task number>"})
			return func() tea.Msg { return dispatchDoneMsg{} }
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil || n < 1 || n > len(m.order) {
			m.history = append(m.history, chatEntry{role: "system", text: "No task " + fields[1]})
			return func() tea.Msg { return dispatchDoneMsg{} }
		}
		taskID := m.order[n-1].ID
		return func() tea.Msg {
			_, _ = sess.ToggleTaskCheck(ctx, taskID)
			return dispatchDoneMsg{}
		}
	case "/hide":
		if len(fields) < 2 {
			m.history = append(m.history, chatEntry{role: "system", text: "Usage: /hide <panel>"})
			return func() tea.Msg { return dispatchDoneMsg{} }
		}
		panel := fields[1]
		return func() tea.Msg {
			_, _ = sess.TogglePanel(ctx, panel)
			return dispatchDoneMsg{}
		}
	case "/theme":
		if len(fields) < 2 {
			m.history = append(m.history, chatEntry{role: "system", text: "Theme: " + sess.Theme(ctx)})
			return func() tea.Msg { return dispatchDoneMsg{} }
		}
		theme := fields[1]
		return func() tea.Msg {
			_ = sess.SetTheme(ctx, theme)
			return dispatchDoneMsg{}
		}
	default:
		m.history = append(m.history, chatEntry{role: "system", text: "Unknown command: " + fields[0]})
		return func() tea.Msg { return dispatchDoneMsg{} }
	}
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("Mission Control"))
	b.WriteString(dimStyle.Render("  backend: " + m.health))
	b.WriteString("\n")
	if m.ops != nil {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  tasks %d (%d overdue) · blackboard %d (%d due soon)",
			m.ops.Tasks.Total, m.ops.Tasks.Overdue, m.ops.Blackboard.Total, m.ops.Blackboard.Due24h)))
		b.WriteString("\n")
	}
	if m.quotes != nil && len(m.quotes.Quotes) > 0 {
		b.WriteString(dimStyle.Render("  " + quoteStrip(m.quotes.Quotes)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(headerStyle.Render("Attack Order"))
	b.WriteString("\n")
	if len(m.order) == 0 {
		b.WriteString(dimStyle.Render("  No ranked tasks yet.") + "\n")
	}
	for i, rec := range m.order {
		if i == 8 {
			b.WriteString(dimStyle.Render(fmt.Sprintf("  … %d more", len(m.order)-i)) + "\n")
			break
		}
		b.WriteString("  " + taskLine(i+1, rec, m.checks[rec.ID]) + "\n")
	}

	if len(m.actions) > 0 {
		b.WriteString("\n" + headerStyle.Render("Proposed Actions") + "\n")
		for _, a := range m.actions {
			b.WriteString(fmt.Sprintf("  #%d %s [%s]\n", a.ID, a.ToolName, a.Status))
		}
		b.WriteString(dimStyle.Render("  /approve <id> or /reject <id>") + "\n")
	}

	b.WriteString("\n" + headerStyle.Render("Chat") + "\n")
	start := 0
	if len(m.history) > 8 {
		start = len(m.history) - 8
	}
	for _, entry := range m.history[start:] {
		switch entry.role {
		case "user":
			b.WriteString(userStyle.Render("  you: ") + entry.text + "\n")
		case "assistant":
			b.WriteString(toolStyle.Render("  mc:  ") + entry.text + "\n")
		default:
			b.WriteString(dimStyle.Render("  -- "+entry.text) + "\n")
		}
	}

	if len(m.activity) > 0 {
		b.WriteString("\n" + headerStyle.Render("Activity") + "\n")
		for _, line := range m.activity {
			b.WriteString(dimStyle.Render("  "+line) + "\n")
		}
	}

	prompt := "> " + string(m.input)
	if m.busy {
		prompt = dimStyle.Render("> working…")
	}
	b.WriteString("\n" + prompt + "\n")
	b.WriteString(dimStyle.Render("ctrl+c to quit") + "\n")
	return b.String()
}

// quoteStrip renders the market symbols on one line. Missing price or change
// fields are simply omitted.
func quoteStrip(quotes []backend.Quote) string {
	parts := make([]string, 0, len(quotes))
	for _, q := range quotes {
		s := q.Symbol
		if q.Price != nil {
			s += fmt.Sprintf(" %.2f", *q.Price)
		}
		if q.ChangePercent != nil {
			s += fmt.Sprintf(" %+.2f%%", *q.ChangePercent)
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " · ")
}

func taskLine(n int, rec rank.TaskRecord, checked bool) string {
	mark := " "
	if checked {
		mark = "x"
	}
	label := strings.ToUpper(string(rec.Urgency))
	line := fmt.Sprintf("%d. [%s] %s %s (%s)", n, mark, label, brief.CleanTaskText(rec.Title), rank.BadgeForSource(string(rec.Source)))
	switch rec.Urgency {
	case rank.UrgencyCritical:
		return criticalStyle.Render(line)
	case rank.UrgencyToday:
		return todayStyle.Render(line)
	default:
		return laterStyle.Render(line)
	}
}

// Run starts the interactive UI and blocks until quit or ctx cancellation.
func Run(ctx context.Context, cfg Config) error {
	defer bestEffortResetTTY()

	m := newModel(ctx, cfg)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithInput(os.Stdin), tea.WithOutput(os.Stdout))

	done := make(chan error, 1)
	go func() {
		_, err := p.Run()
		done <- err
	}()

	select {
	case <-ctx.Done():
		p.Quit()
		<-done
		return ctx.Err()
	case err := <-done:
		return err
	}
}
