package intent

import "testing"

func TestRoute_SyncInbox(t *testing.T) {
	for _, in := range []string{
		"/ingest/email/fetch",
		"sync inbox",
		"please sync inbox now",
		"Fetch Latest Emails",
		"can you sync gmail?",
	} {
		got := Route(in)
		if got.Kind != KindSyncInbox {
			t.Errorf("Route(%q) = %v, want sync_inbox", in, got.Kind)
		}
	}
}

func TestRoute_SyncInboxWinsOverURL(t *testing.T) {
	got := Route("sync inbox http://x.com")
	if got.Kind != KindSyncInbox {
		t.Fatalf("Route = %v, want sync_inbox", got.Kind)
	}
}

func TestRoute_WebIngest(t *testing.T) {
	got := Route("read this https://example.com/article?id=3 when you can")
	if got.Kind != KindWebIngest {
		t.Fatalf("Route = %v, want web_ingest", got.Kind)
	}
	if got.URL != "https://example.com/article?id=3" {
		t.Errorf("URL = %q", got.URL)
	}

	got = Route("HTTP://CAPS.example.org")
	if got.Kind != KindWebIngest || got.URL != "HTTP://CAPS.example.org" {
		t.Errorf("uppercase scheme: got %+v", got)
	}
}

func TestRoute_EmailIngest(t *testing.T) {
	got := Route("email: Project due Friday")
	if got.Kind != KindEmailIngest {
		t.Fatalf("Route = %v, want email_ingest", got.Kind)
	}
	if got.Body != "Project due Friday" {
		t.Errorf("Body = %q", got.Body)
	}

	if got := Route("Email:   spaced body  "); got.Body != "spaced body" {
		t.Errorf("trimmed body = %q", got.Body)
	}
}

func TestRoute_EmailPrefixEmptyBody(t *testing.T) {
	for _, in := range []string{"email:", "email:   ", "EMAIL:"} {
		if got := Route(in); got.Kind != KindNone {
			t.Errorf("Route(%q) = %v, want none", in, got.Kind)
		}
	}
}

func TestRoute_Scan(t *testing.T) {
	for _, in := range []string{
		"please scan my desktop",
		"look through my downloads",
		"check my files",
		"anything in that folder?",
	} {
		if got := Route(in); got.Kind != KindScan {
			t.Errorf("Route(%q) = %v, want scan", in, got.Kind)
		}
	}
}

func TestRoute_ChatFallback(t *testing.T) {
	got := Route("what should I do today?")
	if got.Kind != KindChat {
		t.Fatalf("Route = %v, want chat", got.Kind)
	}
	if got.Utterance != "what should I do today?" {
		t.Errorf("Utterance = %q", got.Utterance)
	}
}

func TestRoute_Blank(t *testing.T) {
	for _, in := range []string{"", "   ", "\t\n"} {
		if got := Route(in); got.Kind != KindNone {
			t.Errorf("Route(%q) = %v, want none", in, got.Kind)
		}
	}
}

func TestRoute_Deterministic(t *testing.T) {
	first := Route("scan https://a.example sync inbox")
	for i := 0; i < 50; i++ {
		if got := Route("scan https://a.example sync inbox"); got != first {
			t.Fatalf("iteration %d: %+v != %+v", i, got, first)
		}
	}
}

func TestRuleNames_Order(t *testing.T) {
	want := []string{"sync_inbox", "web_ingest", "email_ingest", "scan", "chat"}
	got := RuleNames()
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("rule %d = %q, want %q", i, got[i], want[i])
		}
	}
}
