package approval

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/lmagee3/missionctl/internal/backend"
	"github.com/lmagee3/missionctl/internal/bus"
)

type fakeExecutor struct {
	calls []struct {
		ID       int64
		Approved bool
	}
	resp *backend.ExecuteActionResponse
	err  error
}

func (f *fakeExecutor) ExecuteAction(ctx context.Context, id int64, approved bool) (*backend.ExecuteActionResponse, error) {
	f.calls = append(f.calls, struct {
		ID       int64
		Approved bool
	}{id, approved})
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func newTestGate(t *testing.T, exec Executor) *Gate {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	g, err := New(exec, logger, nil)
	if err != nil {
		t.Fatalf("new gate: %v", err)
	}
	return g
}

func TestAddAndList(t *testing.T) {
	g := newTestGate(t, &fakeExecutor{})

	added := g.Add(
		backend.ProposedAction{ID: 1, ToolName: "news.headlines", Input: map[string]any{}, Status: "proposed"},
		backend.ProposedAction{ID: 2, ToolName: "files.scan", Input: map[string]any{"paths": []any{"~/Desktop"}}, Status: "proposed"},
	)
	if added != 2 {
		t.Fatalf("added = %d, want 2", added)
	}

	got := g.List()
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 2 {
		t.Errorf("list = %+v", got)
	}
}

func TestAddQueuesEveryProposedAction(t *testing.T) {
	g := newTestGate(t, &fakeExecutor{})

	// Unknown tools and inputs that fail the local contract still queue:
	// only the user removes an action, and the backend re-validates at
	// execute time.
	added := g.Add(
		backend.ProposedAction{ID: 1, ToolName: "task.create", Input: map[string]any{}, Status: "proposed"},
		backend.ProposedAction{ID: 2, ToolName: "notion.sync", Input: map[string]any{}, Status: "proposed"},
		backend.ProposedAction{ID: 3, ToolName: "task.create", Input: map[string]any{"title": "Finish essay"}, Status: "proposed"},
	)
	if added != 3 {
		t.Fatalf("added = %d, want 3", added)
	}
	got := g.List()
	if len(got) != 3 || got[0].ID != 1 || got[1].ID != 2 || got[2].ID != 3 {
		t.Errorf("list = %+v", got)
	}
}

func TestDecideRelaysUnknownToolToBackend(t *testing.T) {
	exec := &fakeExecutor{resp: &backend.ExecuteActionResponse{Status: "rejected"}}
	g := newTestGate(t, exec)
	g.Add(backend.ProposedAction{ID: 7, ToolName: "notion.sync", Input: map[string]any{}, Status: "proposed"})

	resp, err := g.Decide(t.Context(), 7, true)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if resp.Status != "rejected" {
		t.Errorf("status = %q, want the backend's verdict", resp.Status)
	}
	if len(exec.calls) != 1 || exec.calls[0].ID != 7 {
		t.Errorf("executor calls = %+v", exec.calls)
	}
}

func TestDecideAdoptsBackendStatus(t *testing.T) {
	exec := &fakeExecutor{resp: &backend.ExecuteActionResponse{Status: "executed"}}
	g := newTestGate(t, exec)
	g.Add(backend.ProposedAction{ID: 5, ToolName: "news.headlines", Input: map[string]any{}, Status: "proposed"})

	resp, err := g.Decide(t.Context(), 5, true)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if resp.Status != "executed" {
		t.Errorf("status = %q", resp.Status)
	}
	if a, ok := g.Get(5); !ok || a.Status != "executed" {
		t.Errorf("stored action = %+v, ok=%v", a, ok)
	}
	if len(exec.calls) != 1 || exec.calls[0].ID != 5 || !exec.calls[0].Approved {
		t.Errorf("executor calls = %+v", exec.calls)
	}
}

func TestDecideAgainReExecutes(t *testing.T) {
	exec := &fakeExecutor{resp: &backend.ExecuteActionResponse{Status: "executed"}}
	g := newTestGate(t, exec)
	g.Add(backend.ProposedAction{ID: 8, ToolName: "news.headlines", Input: map[string]any{}, Status: "proposed"})

	if _, err := g.Decide(t.Context(), 8, true); err != nil {
		t.Fatalf("first decide: %v", err)
	}
	exec.resp = &backend.ExecuteActionResponse{Status: "rejected"}
	if _, err := g.Decide(t.Context(), 8, false); err != nil {
		t.Fatalf("second decide: %v", err)
	}

	if len(exec.calls) != 2 {
		t.Fatalf("executor calls = %d, want 2", len(exec.calls))
	}
	if exec.calls[1].Approved {
		t.Error("second call should be a rejection")
	}
	if a, _ := g.Get(8); a.Status != "rejected" {
		t.Errorf("status after re-decision = %q", a.Status)
	}
}

func TestDecideUnknownAction(t *testing.T) {
	g := newTestGate(t, &fakeExecutor{})
	if _, err := g.Decide(t.Context(), 404, true); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDecideBackendFailureKeepsLocalStatus(t *testing.T) {
	exec := &fakeExecutor{err: &backend.Error{Kind: backend.KindNetwork, Endpoint: "/actions/execute", Err: errors.New("refused")}}
	g := newTestGate(t, exec)
	g.Add(backend.ProposedAction{ID: 2, ToolName: "ops.summary", Input: map[string]any{}, Status: "proposed"})

	if _, err := g.Decide(t.Context(), 2, true); !backend.IsNetwork(err) {
		t.Fatalf("err = %v, want network error", err)
	}
	if a, _ := g.Get(2); a.Status != "proposed" {
		t.Errorf("status = %q, want proposed (unchanged)", a.Status)
	}
}

func TestDecidePublishesEvent(t *testing.T) {
	exec := &fakeExecutor{resp: &backend.ExecuteActionResponse{Status: "executed"}}
	eventBus := bus.New()
	sub := eventBus.Subscribe(bus.TopicActionsDecided)
	defer eventBus.Unsubscribe(sub)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	g, err := New(exec, logger, eventBus)
	if err != nil {
		t.Fatalf("new gate: %v", err)
	}
	g.Add(backend.ProposedAction{ID: 3, ToolName: "news.headlines", Input: map[string]any{}, Status: "proposed"})

	if _, err := g.Decide(t.Context(), 3, true); err != nil {
		t.Fatalf("Decide: %v", err)
	}

	select {
	case ev := <-sub.Ch():
		payload, ok := ev.Payload.(bus.ActionDecidedEvent)
		if !ok {
			t.Fatalf("payload type = %T", ev.Payload)
		}
		if payload.ActionID != 3 || !payload.Approved || payload.Status != "executed" {
			t.Errorf("payload = %+v", payload)
		}
	default:
		t.Fatal("no event published")
	}
}

func TestClear(t *testing.T) {
	g := newTestGate(t, &fakeExecutor{})
	g.Add(backend.ProposedAction{ID: 1, ToolName: "news.headlines", Input: map[string]any{}, Status: "proposed"})
	g.Clear()
	if got := g.List(); len(got) != 0 {
		t.Errorf("list after clear = %+v", got)
	}
}
