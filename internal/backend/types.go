package backend

// Wire types for the missionctl REST backend. Field names mirror the JSON the
// backend emits; optional fields are pointers so absence survives decoding.

// HealthResponse is the reply to GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// OpsCounts summarizes one task source.
type OpsCounts struct {
	Total   int `json:"total"`
	Overdue int `json:"overdue"`
	Due24h  int `json:"due_24h"`
}

// OpsNotification is one connector notification row.
type OpsNotification struct {
	ID        int64   `json:"id"`
	Provider  string  `json:"provider"`
	Title     string  `json:"title"`
	Status    string  `json:"status"`
	CreatedAt *string `json:"created_at"`
}

// OpsSummaryResponse is the reply to GET /ops/summary.
type OpsSummaryResponse struct {
	Timestamp     string            `json:"timestamp"`
	Tasks         OpsCounts         `json:"tasks"`
	Blackboard    OpsCounts         `json:"blackboard"`
	Notifications []OpsNotification `json:"notifications"`
}

// OpsTask is one pre-ranked task from the ops feed. Urgency is already
// assigned by the backend; the client only orders and groups.
type OpsTask struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	Source  string  `json:"source"`
	DueAt   *string `json:"due_at"`
	Urgency string  `json:"urgency"`
	Reason  string  `json:"reason"`
}

// OpsNextResponse is the reply to GET /ops/next.
type OpsNextResponse struct {
	Next       *OpsTask  `json:"next"`
	Alternates []OpsTask `json:"alternates"`
}

// ProposedAction is a backend tool run awaiting an approve/reject decision.
type ProposedAction struct {
	ID       int64          `json:"id"`
	ToolName string         `json:"tool_name"`
	Input    map[string]any `json:"input"`
	Status   string         `json:"status"`
}

// ChatRequest is the body of POST /chat/message. SessionID is nil on the
// first message; the backend allocates one and returns it.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID *int64 `json:"session_id"`
}

// ChatResponse is the reply to POST /chat/message.
type ChatResponse struct {
	SessionID        int64            `json:"session_id"`
	AssistantMessage string           `json:"assistant_message"`
	RouteTo          string           `json:"route_to"`
	ProposedActions  []ProposedAction `json:"proposed_actions"`
}

// ExecuteActionRequest is the body of POST /actions/execute.
type ExecuteActionRequest struct {
	ToolRunID int64 `json:"tool_run_id"`
	Approved  bool  `json:"approved"`
}

// ExecuteActionResponse is the reply to POST /actions/execute. Status is the
// backend's word on the action's final state and overrides any local guess.
type ExecuteActionResponse struct {
	Status    string         `json:"status"`
	Result    map[string]any `json:"result,omitempty"`
	Message   string         `json:"message,omitempty"`
	ToolRunID *int64         `json:"tool_run_id,omitempty"`
}

// ScanOptions bounds what the file scanner reads.
type ScanOptions struct {
	IncludeExts []string `json:"include_exts"`
	ExcludeDirs []string `json:"exclude_dirs"`
	MaxFileMB   int      `json:"max_file_mb"`
	ReadText    bool     `json:"read_text"`
	MaxChars    int      `json:"max_chars"`
}

// ScanRequest is the body of POST /tools/files/scan.
type ScanRequest struct {
	Mode    string      `json:"mode"`
	Paths   []string    `json:"paths"`
	Options ScanOptions `json:"options"`
}

// ScanResponse is the reply to POST /tools/files/scan.
type ScanResponse struct {
	Scanned         int              `json:"scanned"`
	HotFiles        []map[string]any `json:"hot_files"`
	DueSignals      []map[string]any `json:"due_signals"`
	StaleCandidates []map[string]any `json:"stale_candidates"`
	JunkCandidates  []map[string]any `json:"junk_candidates"`
	ProposedTasks   []map[string]any `json:"proposed_tasks"`
}

// IngestTask is one task proposed by an ingest endpoint.
type IngestTask struct {
	Title   string  `json:"title"`
	Summary string  `json:"summary"`
	DueDate *string `json:"due_date"`
	// Priority is the source scale (low/medium/high/critical), not a display
	// urgency.
	Priority string `json:"priority"`
	Source   string `json:"source"`
}

// IngestResponse is the reply to POST /ingest/web and POST /ingest/email.
type IngestResponse struct {
	Source        string       `json:"source"`
	Summary       string       `json:"summary"`
	DueDate       *string      `json:"due_date"`
	Priority      string       `json:"priority"`
	ProposedTasks []IngestTask `json:"proposed_tasks"`
	DryRun        bool         `json:"dry_run"`
}

// EmailFetchItem is one mailbox message summarized by POST /ingest/email/fetch.
type EmailFetchItem struct {
	UID           string       `json:"uid"`
	Subject       string       `json:"subject"`
	FromEmail     *string      `json:"from_email"`
	ReceivedAt    *string      `json:"received_at"`
	Summary       string       `json:"summary"`
	Priority      string       `json:"priority"`
	DueDate       *string      `json:"due_date"`
	ProposedTasks []IngestTask `json:"proposed_tasks"`
}

// EmailFetchResponse is the reply to POST /ingest/email/fetch.
type EmailFetchResponse struct {
	Source  string           `json:"source"`
	Count   int              `json:"count"`
	Mailbox string           `json:"mailbox"`
	DryRun  bool             `json:"dry_run"`
	Items   []EmailFetchItem `json:"items"`
}

// Headline is one news item.
type Headline struct {
	Title       string  `json:"title"`
	Source      string  `json:"source"`
	URL         string  `json:"url"`
	PublishedAt *string `json:"published_at"`
}

// HeadlinesResponse is the reply to GET /news/headlines.
type HeadlinesResponse struct {
	UpdatedAt string     `json:"updated_at"`
	Headlines []Headline `json:"headlines"`
	Stale     bool       `json:"stale"`
}

// Quote is one market symbol snapshot.
type Quote struct {
	Symbol        string   `json:"symbol"`
	Price         *float64 `json:"price"`
	ChangePercent *float64 `json:"change_percent"`
	AsOf          *string  `json:"as_of"`
}

// QuotesResponse is the reply to GET /market/quotes.
type QuotesResponse struct {
	Provider  string   `json:"provider"`
	Symbols   []string `json:"symbols"`
	Quotes    []Quote  `json:"quotes"`
	Stub      bool     `json:"stub"`
	UpdatedAt string   `json:"updated_at"`
}
