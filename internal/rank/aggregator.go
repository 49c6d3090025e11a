package rank

import (
	"fmt"
	"hash/fnv"
	"sort"
	"sync"
)

// Aggregator merges the backend's pre-ranked feed with locally derived
// connector and scan tasks into one total order. Build is a pure transform;
// the aggregator only caches the last result, keyed by an input fingerprint,
// so unchanged inputs do not re-sort.
type Aggregator struct {
	mu              sync.Mutex
	lastFingerprint string
	lastResult      []TaskRecord
}

// NewAggregator returns an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Build concatenates base ++ connector ++ scan (connector and scan tasks are
// relabeled through Classify) and stable-sorts the result by
// (urgency rank asc, due date asc with nulls last). The concatenation order
// seeds ties in the backend's own judgment before locally derived signals.
//
// Malformed entries (empty title) are kept; rendering empty text is a view
// concern, not the aggregator's.
func (a *Aggregator) Build(base []TaskRecord, connector []ConnectorTask, scan []ScanTask) []TaskRecord {
	fp := fingerprint(base, connector, scan)

	a.mu.Lock()
	if fp == a.lastFingerprint && a.lastResult != nil {
		cached := a.lastResult
		a.mu.Unlock()
		return cached
	}
	a.mu.Unlock()

	merged := make([]TaskRecord, 0, len(base)+len(connector)+len(scan))
	merged = append(merged, base...)
	for i, task := range connector {
		merged = append(merged, fromConnector(task, i))
	}
	for i, task := range scan {
		merged = append(merged, fromScan(task, i))
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return Less(merged[i], merged[j])
	})

	a.mu.Lock()
	a.lastFingerprint = fp
	a.lastResult = merged
	a.mu.Unlock()
	return merged
}

// Fingerprint returns the input fingerprint of the last Build.
func (a *Aggregator) Fingerprint() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastFingerprint
}

// Less is the attack-order comparison: lower urgency rank first, then
// earlier due date, with a missing due date sorting after any present one.
// Equal keys compare as not-less so a stable sort preserves arrival order.
func Less(a, b TaskRecord) bool {
	ra, rb := a.Urgency.Rank(), b.Urgency.Rank()
	if ra != rb {
		return ra < rb
	}
	switch {
	case a.DueAt == nil && b.DueAt == nil:
		return false
	case a.DueAt == nil:
		return false // nulls last
	case b.DueAt == nil:
		return true
	default:
		return a.DueAt.Before(*b.DueAt)
	}
}

// fingerprint hashes the aggregator inputs for memoization. Identity is by
// value: ids, urgency labels and due dates of every input record.
func fingerprint(base []TaskRecord, connector []ConnectorTask, scan []ScanTask) string {
	h := fnv.New64a()
	for _, r := range base {
		fmt.Fprintf(h, "b|%s|%s|%s|%v;", r.ID, r.Title, r.Urgency, r.DueAt)
	}
	for _, c := range connector {
		fmt.Fprintf(h, "c|%s|%s|%s|%v;", c.Source, c.Title, c.Priority, c.DueDate)
	}
	for _, s := range scan {
		fmt.Fprintf(h, "s|%s|%s|%s|%v;", s.Title, s.Path, s.Priority, s.DueDate)
	}
	return fmt.Sprintf("agg-%x", h.Sum64())
}

// Groups holds the sorted records partitioned by urgency tier, in tier order.
type Groups struct {
	Critical []TaskRecord
	Today    []TaskRecord
	Tomorrow []TaskRecord
	Week     []TaskRecord
	Later    []TaskRecord
}

// GroupByUrgency partitions sorted records into the five urgency buckets.
// Urgency is a total partition key: every record lands in exactly one bucket.
func GroupByUrgency(records []TaskRecord) Groups {
	var g Groups
	for _, r := range records {
		switch r.Urgency {
		case UrgencyCritical:
			g.Critical = append(g.Critical, r)
		case UrgencyToday:
			g.Today = append(g.Today, r)
		case UrgencyTomorrow:
			g.Tomorrow = append(g.Tomorrow, r)
		case UrgencyWeek:
			g.Week = append(g.Week, r)
		default:
			g.Later = append(g.Later, r)
		}
	}
	return g
}

// Total returns the number of records across all buckets.
func (g Groups) Total() int {
	return len(g.Critical) + len(g.Today) + len(g.Tomorrow) + len(g.Week) + len(g.Later)
}
