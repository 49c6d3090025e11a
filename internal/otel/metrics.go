package otel

import "go.opentelemetry.io/otel/metric"

// Metrics holds all missionctl metric instruments.
type Metrics struct {
	BackendCallDuration metric.Float64Histogram
	BackendCallErrors   metric.Int64Counter
	IntentsRouted       metric.Int64Counter
	ScansCompleted      metric.Int64Counter
	ActionsDecided      metric.Int64Counter
}

// NewMetrics creates all metric instruments from the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.BackendCallDuration, err = meter.Float64Histogram("missionctl.backend.duration",
		metric.WithDescription("Backend request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	m.BackendCallErrors, err = meter.Int64Counter("missionctl.backend.errors",
		metric.WithDescription("Backend request error count"),
	)
	if err != nil {
		return nil, err
	}

	m.IntentsRouted, err = meter.Int64Counter("missionctl.intents",
		metric.WithDescription("Utterances routed, by intent kind"),
	)
	if err != nil {
		return nil, err
	}

	m.ScansCompleted, err = meter.Int64Counter("missionctl.scans",
		metric.WithDescription("Completed file scans"),
	)
	if err != nil {
		return nil, err
	}

	m.ActionsDecided, err = meter.Int64Counter("missionctl.actions.decided",
		metric.WithDescription("Approval-gate decisions"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}
