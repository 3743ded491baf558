package app

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/skinflow/fulfillment-bot/business/withdrawal/domain"
)

const meterName = "fulfillment-engine"

// engineMetrics holds OTEL metric instruments.
type engineMetrics struct {
	dispatched   metric.Int64Counter
	completed    metric.Int64Counter
	failed       metric.Int64Counter
	requeued     metric.Int64Counter
	tickDuration metric.Float64Histogram
	queuePending metric.Int64Gauge
	sourceUp     metric.Int64Gauge
}

func newEngineMetrics() (*engineMetrics, error) {
	meter := otel.Meter(meterName)
	m := &engineMetrics{}
	var err error

	m.dispatched, err = meter.Int64Counter(
		"withdrawals_dispatched_total",
		metric.WithDescription("Withdrawals handed to a fulfillment source"),
		metric.WithUnit("{withdrawal}"),
	)
	if err != nil {
		return nil, err
	}

	m.completed, err = meter.Int64Counter(
		"withdrawals_completed_total",
		metric.WithDescription("Withdrawals delivered to the user"),
		metric.WithUnit("{withdrawal}"),
	)
	if err != nil {
		return nil, err
	}

	m.failed, err = meter.Int64Counter(
		"withdrawals_failed_total",
		metric.WithDescription("Withdrawals failed with items restored"),
		metric.WithUnit("{withdrawal}"),
	)
	if err != nil {
		return nil, err
	}

	m.requeued, err = meter.Int64Counter(
		"withdrawals_requeued_total",
		metric.WithDescription("Withdrawals returned to pending after a transient failure"),
		metric.WithUnit("{withdrawal}"),
	)
	if err != nil {
		return nil, err
	}

	m.tickDuration, err = meter.Float64Histogram(
		"fulfillment_tick_duration_seconds",
		metric.WithDescription("Wall time of one dispatch+resolution tick"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	m.queuePending, err = meter.Int64Gauge(
		"fulfillment_queue_pending",
		metric.WithDescription("Pending withdrawals seen by the last dispatch pass"),
		metric.WithUnit("{withdrawal}"),
	)
	if err != nil {
		return nil, err
	}

	m.sourceUp, err = meter.Int64Gauge(
		"fulfillment_source_up",
		metric.WithDescription("Whether a fulfillment source is usable (1) or disabled (0)"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// The recorders tolerate a nil receiver so the engine keeps working when
// instrument creation failed.

func (m *engineMetrics) recordDispatched(ctx context.Context) {
	if m != nil {
		m.dispatched.Add(ctx, 1)
	}
}

func (m *engineMetrics) recordOutcome(ctx context.Context, status domain.Status) {
	if m == nil {
		return
	}
	switch status {
	case domain.StatusCompleted:
		m.completed.Add(ctx, 1)
	case domain.StatusFailed:
		m.failed.Add(ctx, 1)
	}
}

func (m *engineMetrics) recordRequeue(ctx context.Context) {
	if m != nil {
		m.requeued.Add(ctx, 1)
	}
}

func (m *engineMetrics) recordTick(ctx context.Context, elapsed time.Duration, pending int) {
	if m == nil {
		return
	}
	m.tickDuration.Record(ctx, elapsed.Seconds())
	m.queuePending.Record(ctx, int64(pending))
}

func (m *engineMetrics) recordSourceUp(ctx context.Context, source string, up bool) {
	if m == nil {
		return
	}
	v := int64(0)
	if up {
		v = 1
	}
	m.sourceUp.Record(ctx, v, metric.WithAttributes(attribute.String("source", source)))
}
