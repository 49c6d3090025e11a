// Package intent classifies a raw user utterance into exactly one downstream
// operation. Classification is an ordered rule table evaluated first-match-wins,
// so precedence is auditable and each rule is testable on its own.
package intent

import (
	"regexp"
	"strings"
)

// Kind discriminates the Intent union.
type Kind string

const (
	KindSyncInbox   Kind = "sync_inbox"
	KindWebIngest   Kind = "web_ingest"
	KindEmailIngest Kind = "email_ingest"
	KindScan        Kind = "scan"
	KindChat        Kind = "chat"
	// KindNone means no downstream effect fires: blank input, or the
	// "email:" prefix with nothing after it. The empty-body case is a quirk
	// kept from the original behavior rather than an inferred fallback.
	KindNone Kind = "none"
)

// Intent is the discriminated routing result. Exactly one downstream effect
// fires per utterance; which fields are meaningful depends on Kind.
type Intent struct {
	Kind      Kind
	URL       string // WebIngest: the matched URL
	Body      string // EmailIngest: the trimmed text after "email:"
	Utterance string // Chat: the verbatim utterance
}

var (
	urlPattern  = regexp.MustCompile(`(?i)https?://\S+`)
	scanPattern = regexp.MustCompile(`(?i)scan|files|file|folder|desktop|check my stuff|check my files|look through`)

	syncPhrases = []string{"sync inbox", "fetch latest emails", "sync gmail"}
)

// rule is one (predicate, constructor) pair in the dispatch table.
type rule struct {
	name  string
	match func(raw, lower string) (Intent, bool)
}

// rules is evaluated in order; the first match wins. Order is the contract:
// an utterance containing both a sync phrase and a URL routes to SyncInbox.
var rules = []rule{
	{
		name: "sync_inbox",
		match: func(raw, lower string) (Intent, bool) {
			if lower == "/ingest/email/fetch" {
				return Intent{Kind: KindSyncInbox}, true
			}
			for _, phrase := range syncPhrases {
				if strings.Contains(lower, phrase) {
					return Intent{Kind: KindSyncInbox}, true
				}
			}
			return Intent{}, false
		},
	},
	{
		name: "web_ingest",
		match: func(raw, lower string) (Intent, bool) {
			if m := urlPattern.FindString(raw); m != "" {
				return Intent{Kind: KindWebIngest, URL: m}, true
			}
			return Intent{}, false
		},
	},
	{
		name: "email_ingest",
		match: func(raw, lower string) (Intent, bool) {
			if !strings.HasPrefix(lower, "email:") {
				return Intent{}, false
			}
			body := strings.TrimSpace(raw[len("email:"):])
			if body == "" {
				// Bare "email:" produces no action at all.
				return Intent{Kind: KindNone}, true
			}
			return Intent{Kind: KindEmailIngest, Body: body}, true
		},
	},
	{
		name: "scan",
		match: func(raw, lower string) (Intent, bool) {
			if scanPattern.MatchString(raw) {
				return Intent{Kind: KindScan}, true
			}
			return Intent{}, false
		},
	},
}

// Route classifies an utterance. The chat session id is not the router's
// concern; routing is stateless.
func Route(utterance string) Intent {
	raw := strings.TrimSpace(utterance)
	if raw == "" {
		return Intent{Kind: KindNone}
	}
	lower := strings.ToLower(raw)

	for _, r := range rules {
		if intent, ok := r.match(raw, lower); ok {
			return intent
		}
	}
	return Intent{Kind: KindChat, Utterance: raw}
}

// RuleNames returns the rule order for diagnostics.
func RuleNames() []string {
	names := make([]string, 0, len(rules)+1)
	for _, r := range rules {
		names = append(names, r.name)
	}
	return append(names, "chat")
}
