package observe

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/metric/noop"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"minimal", Config{ServiceName: "campuskit"}, false},
		{"missing service name", Config{}, true},
		{"valid tracing", Config{ServiceName: "s", Tracing: TracingConfig{Enabled: true, Exporter: "none", SamplePct: 0.5}}, false},
		{"unknown tracing exporter", Config{ServiceName: "s", Tracing: TracingConfig{Enabled: true, Exporter: "zipkin"}}, true},
		{"sample pct out of range", Config{ServiceName: "s", Tracing: TracingConfig{Enabled: true, Exporter: "none", SamplePct: 1.5}}, true},
		{"valid metrics", Config{ServiceName: "s", Metrics: MetricsConfig{Enabled: true, Exporter: "prometheus"}}, false},
		{"unknown metrics exporter", Config{ServiceName: "s", Metrics: MetricsConfig{Enabled: true, Exporter: "statsd"}}, true},
		{"unknown log level", Config{ServiceName: "s", Logging: LoggingConfig{Enabled: true, Level: "trace"}}, true},
		{"disabled subsystems skip validation", Config{ServiceName: "s", Tracing: TracingConfig{Exporter: "zipkin"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewObserver_AllDisabled(t *testing.T) {
	obs, err := NewObserver(context.Background(), Config{ServiceName: "campuskit"})
	if err != nil {
		t.Fatalf("NewObserver() error = %v", err)
	}

	// Disabled subsystems are backed by no-ops, never nil.
	if obs.Tracer() == nil {
		t.Error("Tracer() = nil")
	}
	if obs.Meter() == nil {
		t.Error("Meter() = nil")
	}
	if obs.Logger() == nil {
		t.Error("Logger() = nil")
	}

	if err := obs.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestNewObserver_Enabled(t *testing.T) {
	obs, err := NewObserver(context.Background(), Config{
		ServiceName: "campuskit",
		Version:     "test",
		Tracing:     TracingConfig{Enabled: true, Exporter: "none", SamplePct: 1.0},
		Metrics:     MetricsConfig{Enabled: true, Exporter: "none"},
		Logging:     LoggingConfig{Enabled: true, Level: "error"},
	})
	if err != nil {
		t.Fatalf("NewObserver() error = %v", err)
	}

	_, span := obs.Tracer().Start(context.Background(), "test-span")
	span.End()

	ctr, err := obs.Meter().Int64Counter("test.counter")
	if err != nil {
		t.Fatalf("Int64Counter() error = %v", err)
	}
	ctr.Add(context.Background(), 1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := obs.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestNewObserver_InvalidConfig(t *testing.T) {
	if _, err := NewObserver(context.Background(), Config{}); err == nil {
		t.Fatal("NewObserver() error = nil, want validation error")
	}
}

func TestMetrics_Record(t *testing.T) {
	m, err := NewMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}

	ctx := context.Background()
	m.RecordCacheLookup(ctx, "course", true)
	m.RecordCacheLookup(ctx, "course", false)
	m.RecordBreakerTransition(ctx, "courses-db", "closed", "open")
	m.RecordRateLimitRejection(ctx, "auth", true)
	m.RecordStoreOp(ctx, "get", 3*time.Millisecond, nil)
	m.RecordStoreOp(ctx, "set", 5*time.Millisecond, context.DeadlineExceeded)
}

func TestNopLogger(t *testing.T) {
	logger := NopLogger()
	ctx := context.Background()

	// Must accept everything silently.
	logger.Debug(ctx, "x")
	logger.Info(ctx, "x", "k", "v")
	logger.Warn(ctx, "x")
	logger.Error(ctx, "x")
	if logger.With("k", "v") == nil {
		t.Error("With() = nil")
	}
}
