package reminders

import "github.com/rcrowley/go-metrics"

type Metrics struct {
	Delivered   metrics.Counter
	Cancelled   metrics.Counter
	Stale       metrics.Counter
	CycleErrors metrics.Counter
	Cycle       metrics.Timer
}

// NewMetrics registers the reminder metrics in registry, or in a private
// registry when it is nil.
func NewMetrics(registry metrics.Registry) *Metrics {
	if registry == nil {
		registry = metrics.NewRegistry()
	}
	return &Metrics{
		Delivered:   metrics.GetOrRegisterCounter("reminders.delivered", registry),
		Cancelled:   metrics.GetOrRegisterCounter("reminders.cancelled", registry),
		Stale:       metrics.GetOrRegisterCounter("reminders.stale", registry),
		CycleErrors: metrics.GetOrRegisterCounter("reminders.cycle.errors", registry),
		Cycle:       metrics.GetOrRegisterTimer("reminders.cycle", registry),
	}
}
