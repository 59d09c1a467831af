package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records core resilience and cache metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must honor cancellation/deadlines and return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordCacheLookup records a cache lookup and whether it hit.
	RecordCacheLookup(ctx context.Context, namespace string, hit bool)

	// RecordBreakerTransition records a circuit breaker state change.
	RecordBreakerTransition(ctx context.Context, name, from, to string)

	// RecordRateLimitRejection records a rejected request for a tier.
	RecordRateLimitRejection(ctx context.Context, tier string, blocked bool)

	// RecordStoreOp records a backing store operation with duration and error status.
	RecordStoreOp(ctx context.Context, op string, duration time.Duration, err error)
}

// metricsImpl is the concrete implementation of Metrics.
type metricsImpl struct {
	meter        metric.Meter
	cacheLookups metric.Int64Counter
	transitions  metric.Int64Counter
	rejections   metric.Int64Counter
	storeOps     metric.Int64Counter
	storeErrors  metric.Int64Counter
	durationHist metric.Float64Histogram
}

// NewMetrics creates a Metrics instance with the given meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	cacheLookups, err := meter.Int64Counter(
		"cache.lookups",
		metric.WithDescription("Total number of cache lookups"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	transitions, err := meter.Int64Counter(
		"breaker.transitions",
		metric.WithDescription("Total number of circuit breaker state transitions"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return nil, err
	}

	rejections, err := meter.Int64Counter(
		"ratelimit.rejections",
		metric.WithDescription("Total number of rate limited requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	storeOps, err := meter.Int64Counter(
		"store.ops",
		metric.WithDescription("Total number of backing store operations"),
		metric.WithUnit("{op}"),
	)
	if err != nil {
		return nil, err
	}

	storeErrors, err := meter.Int64Counter(
		"store.errors",
		metric.WithDescription("Total number of backing store errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"store.op.duration_ms",
		metric.WithDescription("Backing store operation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		meter:        meter,
		cacheLookups: cacheLookups,
		transitions:  transitions,
		rejections:   rejections,
		storeOps:     storeOps,
		storeErrors:  storeErrors,
		durationHist: durationHist,
	}, nil
}

func (m *metricsImpl) RecordCacheLookup(ctx context.Context, namespace string, hit bool) {
	m.cacheLookups.Add(ctx, 1, metric.WithAttributes(
		attribute.String("cache.namespace", namespace),
		attribute.Bool("cache.hit", hit),
	))
}

func (m *metricsImpl) RecordBreakerTransition(ctx context.Context, name, from, to string) {
	m.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("breaker.name", name),
		attribute.String("breaker.from", from),
		attribute.String("breaker.to", to),
	))
}

func (m *metricsImpl) RecordRateLimitRejection(ctx context.Context, tier string, blocked bool) {
	m.rejections.Add(ctx, 1, metric.WithAttributes(
		attribute.String("ratelimit.tier", tier),
		attribute.Bool("ratelimit.blocked", blocked),
	))
}

func (m *metricsImpl) RecordStoreOp(ctx context.Context, op string, duration time.Duration, err error) {
	opt := metric.WithAttributes(attribute.String("store.op", op))

	m.storeOps.Add(ctx, 1, opt)
	if err != nil {
		m.storeErrors.Add(ctx, 1, opt)
	}
	m.durationHist.Record(ctx, float64(duration.Milliseconds()), opt)
}

var _ Metrics = (*metricsImpl)(nil)
