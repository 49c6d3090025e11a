// Package rank builds the attack order: it normalizes task records from the
// ops backend, file scans, and ingestion connectors into one ranked sequence.
package rank

import "strings"

// Urgency is the canonical ranking tier for a task.
type Urgency string

const (
	UrgencyCritical Urgency = "critical"
	UrgencyToday    Urgency = "today"
	UrgencyTomorrow Urgency = "tomorrow"
	UrgencyWeek     Urgency = "week"
	UrgencyLater    Urgency = "later"
)

// urgencyOrder lists the tiers in ranking order.
var urgencyOrder = []Urgency{UrgencyCritical, UrgencyToday, UrgencyTomorrow, UrgencyWeek, UrgencyLater}

// Rank returns the sort position of the tier, 0 (critical) through 4 (later).
// Unknown tiers rank as later.
func (u Urgency) Rank() int {
	for i, tier := range urgencyOrder {
		if u == tier {
			return i
		}
	}
	return len(urgencyOrder) - 1
}

// ParseUrgency maps a raw urgency label to a canonical tier.
// Unknown or empty input maps to later; absence of information is the
// least-urgent tier, never an error.
func ParseUrgency(raw string) Urgency {
	switch Urgency(strings.ToLower(strings.TrimSpace(raw))) {
	case UrgencyCritical:
		return UrgencyCritical
	case UrgencyToday:
		return UrgencyToday
	case UrgencyTomorrow:
		return UrgencyTomorrow
	case UrgencyWeek:
		return UrgencyWeek
	default:
		return UrgencyLater
	}
}

// SourcePriority is the priority label emitted by connectors and scans.
type SourcePriority string

const (
	PriorityCritical SourcePriority = "critical"
	PriorityHigh     SourcePriority = "high"
	PriorityMedium   SourcePriority = "medium"
	PriorityLow      SourcePriority = "low"
)

// Classify maps a connector priority to an urgency tier. The mapping is
// total and pure: critical→critical, high→today, medium→week, and
// everything else (low, unknown, empty) → later.
func Classify(priority SourcePriority) Urgency {
	switch SourcePriority(strings.ToLower(strings.TrimSpace(string(priority)))) {
	case PriorityCritical:
		return UrgencyCritical
	case PriorityHigh:
		return UrgencyToday
	case PriorityMedium:
		return UrgencyWeek
	default:
		return UrgencyLater
	}
}
