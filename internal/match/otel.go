package match

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/navalrts/server/internal/match"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

// metrics are recorded against the global provider, a no-op unless one is
// installed.
type metrics struct {
	tickDuration metric.Float64Histogram
	dropped      metric.Int64Counter
	rejected     metric.Int64Counter
}

func newMetrics() (*metrics, error) {
	m := meter()
	out := &metrics{}

	var err error
	out.tickDuration, err = m.Float64Histogram(
		"match.tick.duration",
		metric.WithDescription("Wall time spent simulating one tick"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tick duration histogram: %w", err)
	}

	out.dropped, err = m.Int64Counter(
		"match.outbound.dropped",
		metric.WithDescription("Outbound packets dropped because the queue was full"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dropped counter: %w", err)
	}

	out.rejected, err = m.Int64Counter(
		"match.inbound.rejected",
		metric.WithDescription("Inbound packets rejected before or during dispatch"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating rejected counter: %w", err)
	}
	return out, nil
}

func (m *metrics) recordTick(d time.Duration) {
	m.tickDuration.Record(context.Background(), float64(d)/float64(time.Millisecond))
}

func (m *metrics) recordDropped(n int) {
	if n > 0 {
		m.dropped.Add(context.Background(), int64(n))
	}
}

// Reject counts one rejected inbound packet.
func (m *metrics) Reject(reason string) {
	m.rejected.Add(context.Background(), 1, metric.WithAttributes(attribute.String("reason", reason)))
}
