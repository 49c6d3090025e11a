// Package backend is the typed HTTP client for the missionctl REST backend.
// Every method takes a context, wraps failures in *Error, and decodes into
// the wire types in types.go.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	mcotel "github.com/lmagee3/missionctl/internal/otel"
)

const maxResponseBytes = 4 << 20

// Client talks to one backend instance. Safe for concurrent use.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	tracer     trace.Tracer
	metrics    *mcotel.Metrics
}

// New creates a client. baseURL must not end with a slash (config
// normalization guarantees this). apiKey may be empty for unauthenticated
// backends.
func New(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		tracer:     noop.NewTracerProvider().Tracer(mcotel.TracerName),
	}
}

// WithTelemetry attaches a tracer and metric instruments. Without it the
// client runs with no-op telemetry.
func (c *Client) WithTelemetry(tracer trace.Tracer, metrics *mcotel.Metrics) *Client {
	if tracer != nil {
		c.tracer = tracer
	}
	c.metrics = metrics
	return c
}

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var out HealthResponse
	if err := c.get(ctx, "/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// OpsSummary calls GET /ops/summary.
func (c *Client) OpsSummary(ctx context.Context) (*OpsSummaryResponse, error) {
	var out OpsSummaryResponse
	if err := c.get(ctx, "/ops/summary", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// OpsNext calls GET /ops/next. The backend returns tasks already ranked; the
// caller merges them with connector and scan tasks.
func (c *Client) OpsNext(ctx context.Context) (*OpsNextResponse, error) {
	var out OpsNextResponse
	if err := c.get(ctx, "/ops/next", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SendChatMessage calls POST /chat/message. Pass sessionID nil on the first
// message of a conversation.
func (c *Client) SendChatMessage(ctx context.Context, message string, sessionID *int64) (*ChatResponse, error) {
	var out ChatResponse
	if err := c.post(ctx, "/chat/message", ChatRequest{Message: message, SessionID: sessionID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ExecuteAction calls POST /actions/execute. The returned Status is
// authoritative: callers adopt it verbatim.
func (c *Client) ExecuteAction(ctx context.Context, toolRunID int64, approved bool) (*ExecuteActionResponse, error) {
	var out ExecuteActionResponse
	req := ExecuteActionRequest{ToolRunID: toolRunID, Approved: approved}
	if err := c.post(ctx, "/actions/execute", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ScanFiles calls POST /tools/files/scan.
func (c *Client) ScanFiles(ctx context.Context, req ScanRequest) (*ScanResponse, error) {
	var out ScanResponse
	if err := c.post(ctx, "/tools/files/scan", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// IngestWeb calls POST /ingest/web.
func (c *Client) IngestWeb(ctx context.Context, pageURL string) (*IngestResponse, error) {
	var out IngestResponse
	if err := c.post(ctx, "/ingest/web", map[string]string{"url": pageURL}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// IngestEmail calls POST /ingest/email.
func (c *Client) IngestEmail(ctx context.Context, subject, body string) (*IngestResponse, error) {
	var out IngestResponse
	payload := map[string]string{"subject": subject, "body": body}
	if err := c.post(ctx, "/ingest/email", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// IngestEmailFetch calls POST /ingest/email/fetch.
func (c *Client) IngestEmailFetch(ctx context.Context, limit int, mailbox string) (*EmailFetchResponse, error) {
	var out EmailFetchResponse
	payload := map[string]any{"limit": limit, "mailbox": mailbox}
	if err := c.post(ctx, "/ingest/email/fetch", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Headlines calls GET /news/headlines.
func (c *Client) Headlines(ctx context.Context, limit int) (*HeadlinesResponse, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out HeadlinesResponse
	if err := c.get(ctx, "/news/headlines", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Quotes calls GET /market/quotes.
func (c *Client) Quotes(ctx context.Context, symbols []string) (*QuotesResponse, error) {
	q := url.Values{}
	if len(symbols) > 0 {
		q.Set("symbols", strings.Join(symbols, ","))
	}
	var out QuotesResponse
	if err := c.get(ctx, "/market/quotes", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, endpoint string, query url.Values, out any) error {
	target := c.baseURL + endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return &Error{Kind: KindNetwork, Endpoint: endpoint, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req, endpoint, out)
}

func (c *Client) post(ctx context.Context, endpoint string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return &Error{Kind: KindDecode, Endpoint: endpoint, Err: fmt.Errorf("encode request: %w", err)}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return &Error{Kind: KindNetwork, Endpoint: endpoint, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return c.do(req, endpoint, out)
}

func (c *Client) do(req *http.Request, endpoint string, out any) error {
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	ctx, span := c.tracer.Start(req.Context(), "backend"+strings.ReplaceAll(endpoint, "/", "."),
		trace.WithAttributes(mcotel.AttrEndpoint.String(endpoint)),
		trace.WithSpanKind(trace.SpanKindClient),
	)
	defer span.End()
	req = req.WithContext(ctx)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.recordDuration(ctx, endpoint, time.Since(start))
	if err != nil {
		return c.fail(ctx, span, &Error{Kind: KindNetwork, Endpoint: endpoint, Err: err})
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
		return c.fail(ctx, span, &Error{Kind: KindStatus, Endpoint: endpoint, Status: resp.StatusCode})
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return c.fail(ctx, span, &Error{Kind: KindNetwork, Endpoint: endpoint, Err: err})
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return c.fail(ctx, span, &Error{Kind: KindDecode, Endpoint: endpoint, Err: fmt.Errorf("decode response: %w", err)})
	}
	return nil
}

func (c *Client) fail(ctx context.Context, span trace.Span, be *Error) error {
	span.RecordError(be)
	span.SetStatus(codes.Error, string(be.Kind))
	if c.metrics != nil {
		c.metrics.BackendCallErrors.Add(ctx, 1, metric.WithAttributes(
			mcotel.AttrEndpoint.String(be.Endpoint),
			attribute.String("missionctl.backend.error_kind", string(be.Kind)),
		))
	}
	return be
}

func (c *Client) recordDuration(ctx context.Context, endpoint string, d time.Duration) {
	if c.metrics == nil {
		return
	}
	c.metrics.BackendCallDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		mcotel.AttrEndpoint.String(endpoint),
	))
}

// DefaultScanRequest builds the scan payload for the given paths with the
// scanner's standard bounds.
func DefaultScanRequest(paths []string) ScanRequest {
	return ScanRequestFrom(paths, ScanOptions{})
}

// ScanRequestFrom builds a scoped scan request from configured options,
// filling unset fields with the scoped-scan defaults. ReadText is always on:
// the backend needs file text to propose tasks.
func ScanRequestFrom(paths []string, opts ScanOptions) ScanRequest {
	if len(paths) == 0 {
		paths = []string{"~/Desktop"}
	}
	if len(opts.IncludeExts) == 0 {
		opts.IncludeExts = []string{"pdf", "docx", "md", "txt", "pptx", "xlsx", "py", "js", "ts", "tsx"}
	}
	if len(opts.ExcludeDirs) == 0 {
		opts.ExcludeDirs = []string{"node_modules", ".git", ".venv", "dist", "build", "__pycache__"}
	}
	if opts.MaxFileMB <= 0 {
		opts.MaxFileMB = 2
	}
	if opts.MaxChars <= 0 {
		opts.MaxChars = 12000
	}
	opts.ReadText = true
	return ScanRequest{Mode: "scoped", Paths: paths, Options: opts}
}
