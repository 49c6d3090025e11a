package rank

import "testing"

func TestClassify_Mapping(t *testing.T) {
	cases := []struct {
		priority SourcePriority
		want     Urgency
	}{
		{PriorityCritical, UrgencyCritical},
		{PriorityHigh, UrgencyToday},
		{PriorityMedium, UrgencyWeek},
		{PriorityLow, UrgencyLater},
		{"", UrgencyLater},
		{"urgent", UrgencyLater},
		{"HIGH", UrgencyToday},
		{" critical ", UrgencyCritical},
	}
	for _, tc := range cases {
		if got := Classify(tc.priority); got != tc.want {
			t.Fatalf("Classify(%q) = %q, want %q", tc.priority, got, tc.want)
		}
	}
}

func TestClassify_Deterministic(t *testing.T) {
	for _, p := range []SourcePriority{PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow, "junk"} {
		first := Classify(p)
		for i := 0; i < 10; i++ {
			if got := Classify(p); got != first {
				t.Fatalf("Classify(%q) not deterministic: %q then %q", p, first, got)
			}
		}
	}
}

func TestUrgencyRank_Order(t *testing.T) {
	order := []Urgency{UrgencyCritical, UrgencyToday, UrgencyTomorrow, UrgencyWeek, UrgencyLater}
	for i, u := range order {
		if u.Rank() != i {
			t.Fatalf("%q.Rank() = %d, want %d", u, u.Rank(), i)
		}
	}
	if Urgency("bogus").Rank() != UrgencyLater.Rank() {
		t.Fatalf("unknown urgency should rank as later")
	}
}

func TestParseUrgency(t *testing.T) {
	cases := map[string]Urgency{
		"critical": UrgencyCritical,
		"TODAY":    UrgencyToday,
		"tomorrow": UrgencyTomorrow,
		"week":     UrgencyWeek,
		"later":    UrgencyLater,
		"":         UrgencyLater,
		"someday":  UrgencyLater,
	}
	for raw, want := range cases {
		if got := ParseUrgency(raw); got != want {
			t.Fatalf("ParseUrgency(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestBadgeForSource(t *testing.T) {
	cases := map[string]string{
		"":           "Manual",
		"blackboard": "School",
		"files":      "Files",
		"email":      "Email",
		"web":        "Web",
		"kairos":     "Kairos",
	}
	for source, want := range cases {
		if got := BadgeForSource(source); got != want {
			t.Fatalf("BadgeForSource(%q) = %q, want %q", source, got, want)
		}
	}
}
