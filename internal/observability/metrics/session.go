// Package metrics turns session lifecycle events into StatsD counters and gauges.
package metrics

import (
	"time"

	obserrors "github.com/holygrail/holygrail-web/internal/observability/errors"
	"github.com/holygrail/holygrail-web/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Read outcomes. Everything except ReadValid degrades to "no session".
const (
	ReadValid       = "valid"
	ReadAbsent      = "absent"
	ReadPartial     = "partial"
	ReadExpired     = "expired"
	ReadDecodeError = "decode_error"
	ReadStoreError  = "store_error"
)

// Session operations.
const (
	OpRead  = "read"
	OpWrite = "write"
	OpErase = "erase"
)

// SessionMetric captures one session store interaction.
type SessionMetric struct {
	Op      string
	Outcome string
	Store   string
	Err     error
}

// EmitSessionEvent counts session.<op> tagged with outcome, store and error class.
func EmitSessionEvent(sink statsd.Sink, in SessionMetric) {
	if sink == nil || in.Op == "" {
		return
	}

	outcome := in.Outcome
	if outcome == "" {
		outcome = ResultSuccess
		if in.Err != nil {
			outcome = ResultError
		}
	}

	tags := map[string]string{"outcome": outcome}
	if in.Store != "" {
		tags["store"] = in.Store
	}
	if in.Err != nil {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("session."+in.Op, 1, tags)
}

// EmitSessionTTL gauges the remaining lifetime of a freshly written session.
func EmitSessionTTL(sink statsd.Sink, store string, ttl time.Duration) {
	if sink == nil || ttl <= 0 {
		return
	}
	var tags map[string]string
	if store != "" {
		tags = map[string]string{"store": store}
	}
	sink.Gauge("session.ttl_seconds", ttl.Seconds(), tags)
}
