// Package metrics defines the standardised metric shapes the engine emits.
package metrics

import (
	"time"

	"github.com/trendit/collector-go/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// JobMetric captures one job lifecycle event.
type JobMetric struct {
	Status   string
	Result   string
	Duration time.Duration
}

// EmitJobLifecycle emits the job transition counter and, when the event closes
// a run, its duration.
func EmitJobLifecycle(sink statsd.Sink, in JobMetric) {
	if sink == nil {
		return
	}
	tags := map[string]string{
		"status": in.Status,
		"result": in.Result,
	}
	sink.Count("job.transition", 1, tags)
	if in.Duration > 0 {
		sink.Timing("job.duration", in.Duration, tags)
	}
}

// EmitWriteOutcome counts one ingestion write by record kind and outcome
// (inserted, updated, skipped).
func EmitWriteOutcome(sink statsd.Sink, kind, outcome string) {
	if sink == nil {
		return
	}
	sink.Count("write.outcome", 1, map[string]string{
		"kind":    kind,
		"outcome": outcome,
	})
}

// EmitPageFetch counts one listing page fetch by result.
func EmitPageFetch(sink statsd.Sink, result string) {
	if sink == nil {
		return
	}
	sink.Count("collect.page", 1, map[string]string{"result": result})
}
