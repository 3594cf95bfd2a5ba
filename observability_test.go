package ecs

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type recordingLogger struct {
	fields map[string]any
	infos  []string
	errs   []string
	parent *recordingLogger
}

func newRecordingLogger() *recordingLogger {
	return &recordingLogger{fields: map[string]any{}}
}

func (r *recordingLogger) With(key string, value any) Logger {
	next := &recordingLogger{fields: map[string]any{}, parent: r}
	for k, v := range r.fields {
		next.fields[k] = v
	}
	next.fields[key] = value
	return next
}

// root returns the logger that With-derived children record into, so the
// test can inspect every message on the logger it created.
func (r *recordingLogger) root() *recordingLogger {
	for r.parent != nil {
		r = r.parent
	}
	return r
}

func (r *recordingLogger) Info(msg string, args ...any) { root := r.root(); root.infos = append(root.infos, msg) }
func (r *recordingLogger) Error(msg string, args ...any) { root := r.root(); root.errs = append(root.errs, msg) }

func TestPrometheusScheduleCollectorObservesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := NewPrometheusScheduleCollector(reg)

	collector.ObserveScheduleRun(ScheduleRunSummary{
		Label:        ScheduleUpdate,
		Tick:         42,
		Duration:     5 * time.Millisecond,
		SetsTotal:    2,
		SetsExecuted: 2,
	})

	if got := testutil.ToFloat64(collector.setsExecuted.WithLabelValues(string(ScheduleUpdate))); got != 2 {
		t.Fatalf("expected setsExecuted=2, got %v", got)
	}

	collector.ObserveScheduleRun(ScheduleRunSummary{
		Label: ScheduleUpdate,
		Error: errors.New("boom"),
	})
	if got := testutil.ToFloat64(collector.errors.WithLabelValues(string(ScheduleUpdate))); got != 1 {
		t.Fatalf("expected errors=1, got %v", got)
	}
}

func TestLoggingObserverLogsErrorsSeparately(t *testing.T) {
	logger := newRecordingLogger()
	observer := newLoggingObserver(logger)

	observer.ScheduleRunCompleted(ScheduleRunSummary{Label: ScheduleUpdate})
	if len(logger.infos) != 1 {
		t.Fatalf("expected one info log, got %d", len(logger.infos))
	}

	observer.ScheduleRunCompleted(ScheduleRunSummary{Label: ScheduleUpdate, Error: errors.New("boom")})
	if len(logger.errs) != 1 {
		t.Fatalf("expected one error log, got %d", len(logger.errs))
	}
}

func TestBuildObserverComposesEnabledSinks(t *testing.T) {
	logger := newRecordingLogger()
	reg := prometheus.NewRegistry()
	collector := NewPrometheusScheduleCollector(reg)

	cfg := InstrumentationConfig{
		Observation: ObservationSettings{
			EnableStructuredLogging: true,
			EnablePrometheus:        true,
			PrometheusCollector:     collector,
		},
	}

	observer := cfg.BuildObserver(logger, noopTracer{})
	composite, ok := observer.(compositeObserver)
	if !ok {
		t.Fatalf("expected compositeObserver, got %T", observer)
	}
	if len(composite.observers) != 2 {
		t.Fatalf("expected 2 observers, got %d", len(composite.observers))
	}

	observer.ScheduleRunCompleted(ScheduleRunSummary{Label: ScheduleUpdate, SetsExecuted: 1})
	if len(logger.infos) != 1 {
		t.Fatalf("expected logging observer to fire")
	}
	if got := testutil.ToFloat64(collector.setsExecuted.WithLabelValues(string(ScheduleUpdate))); got != 1 {
		t.Fatalf("expected prometheus observer to fire, got %v", got)
	}
}

func TestBuildObserverDefaultsToNoop(t *testing.T) {
	cfg := InstrumentationConfig{}
	observer := cfg.BuildObserver(noopLogger{}, noopTracer{})
	if _, ok := observer.(noopObserver); !ok {
		t.Fatalf("expected noopObserver when nothing is enabled, got %T", observer)
	}
	observer.ScheduleRunCompleted(ScheduleRunSummary{})
}
