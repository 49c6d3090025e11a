// Package approval holds backend-proposed tool runs until the user approves
// or rejects them. The backend executes and owns the resulting status; the
// gate records, relays, and audits.
package approval

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/lmagee3/missionctl/internal/audit"
	"github.com/lmagee3/missionctl/internal/backend"
	"github.com/lmagee3/missionctl/internal/bus"
)

// ErrNotFound means the decided action id is not pending.
var ErrNotFound = errors.New("approval: action not found")

// Executor runs a decided action on the backend. *backend.Client satisfies
// this.
type Executor interface {
	ExecuteAction(ctx context.Context, toolRunID int64, approved bool) (*backend.ExecuteActionResponse, error)
}

// Gate is the approval queue. Safe for concurrent use.
type Gate struct {
	mu       sync.Mutex
	actions  map[int64]*backend.ProposedAction
	order    []int64
	executor Executor
	eventBus *bus.Bus
	logger   *slog.Logger
	schemas  map[string]*jsonschema.Schema
}

// New creates a gate. eventBus may be nil in tests.
func New(executor Executor, logger *slog.Logger, eventBus *bus.Bus) (*Gate, error) {
	schemas, err := compileToolSchemas()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		actions:  make(map[int64]*backend.ProposedAction),
		executor: executor,
		eventBus: eventBus,
		logger:   logger,
		schemas:  schemas,
	}, nil
}

// Add queues proposed actions. Every action the backend proposes is queued;
// the gate never discards one on its own, since only an explicit user
// decision may remove it. Inputs are still checked against the known tool
// contracts, but a failed check only logs a warning so the mismatch is
// visible before the user decides. The backend re-validates at execute time
// and owns rejection. Returns how many were queued.
func (g *Gate) Add(actions ...backend.ProposedAction) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	added := 0
	for _, a := range actions {
		if err := g.validateInput(a.ToolName, a.Input); err != nil {
			g.logger.Warn("proposed action failed input validation", "tool", a.ToolName, "action_id", a.ID, "error", err)
		}
		if _, exists := g.actions[a.ID]; !exists {
			g.order = append(g.order, a.ID)
		}
		copied := a
		g.actions[a.ID] = &copied
		added++
	}

	if added > 0 && g.eventBus != nil {
		g.eventBus.Publish(bus.TopicActionsProposed, added)
	}
	return added
}

// List returns pending actions in arrival order.
func (g *Gate) List() []backend.ProposedAction {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]backend.ProposedAction, 0, len(g.order))
	for _, id := range g.order {
		if a, ok := g.actions[id]; ok {
			out = append(out, *a)
		}
	}
	return out
}

// Get returns one pending action by id.
func (g *Gate) Get(id int64) (backend.ProposedAction, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	a, ok := g.actions[id]
	if !ok {
		return backend.ProposedAction{}, false
	}
	return *a, true
}

// Decide executes an approve/reject on the backend and adopts the status the
// backend returns. A second decision on the same action re-executes; the
// backend stays the authority on what state the action lands in. On failure
// the local status is left untouched.
func (g *Gate) Decide(ctx context.Context, id int64, approved bool) (*backend.ExecuteActionResponse, error) {
	g.mu.Lock()
	action, ok := g.actions[id]
	if !ok {
		g.mu.Unlock()
		return nil, ErrNotFound
	}
	toolName := action.ToolName
	g.mu.Unlock()

	resp, err := g.executor.ExecuteAction(ctx, id, approved)
	if err != nil {
		g.logger.Warn("action decision failed", "action_id", id, "tool", toolName, "approved", approved, "error", err)
		return nil, err
	}

	g.mu.Lock()
	if a, ok := g.actions[id]; ok {
		a.Status = resp.Status
	}
	g.mu.Unlock()

	decision := "reject"
	if approved {
		decision = "approve"
	}
	audit.Record(decision, toolName, id, resp.Status, resp.Message)

	if g.eventBus != nil {
		g.eventBus.Publish(bus.TopicActionsDecided, bus.ActionDecidedEvent{
			ActionID: id,
			ToolName: toolName,
			Approved: approved,
			Status:   resp.Status,
		})
	}
	g.logger.Info("action decided", "action_id", id, "tool", toolName, "approved", approved, "status", resp.Status)
	return resp, nil
}

// Clear drops all pending actions.
func (g *Gate) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.actions = make(map[int64]*backend.ProposedAction)
	g.order = nil
}
