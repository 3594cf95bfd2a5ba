package ecs

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// Logger captures structured log output from systems and the run loop.
type Logger interface {
	With(key string, value any) Logger
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// NewZerologLogger adapts a zerolog.Logger to this package's Logger
// interface, so scheduler internals never import zerolog directly
// outside this file.
func NewZerologLogger(l zerolog.Logger) Logger {
	return zerologLogger{logger: l}
}

type zerologLogger struct {
	logger zerolog.Logger
}

func (z zerologLogger) With(key string, value any) Logger {
	return zerologLogger{logger: z.logger.With().Interface(key, value).Logger()}
}

func (z zerologLogger) Info(msg string, args ...any) {
	z.logger.Info().Fields(pairsToMap(args)).Msg(msg)
}

func (z zerologLogger) Error(msg string, args ...any) {
	z.logger.Error().Fields(pairsToMap(args)).Msg(msg)
}

func pairsToMap(args []any) map[string]any {
	if len(args) == 0 {
		return nil
	}
	out := make(map[string]any, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		out[key] = args[i+1]
	}
	return out
}

// noopLogger is used wherever no logger has been supplied.
type noopLogger struct{}

func (noopLogger) With(string, any) Logger { return noopLogger{} }
func (noopLogger) Info(string, ...any)     {}
func (noopLogger) Error(string, ...any)    {}

// ScheduleRunSummary captures execution metadata for one Schedule.Run
// invocation, published to any configured ScheduleObserver.
type ScheduleRunSummary struct {
	Label         ScheduleLabel
	Tick          uint64
	Duration      time.Duration
	SetsTotal     int
	SetsExecuted  int
	SetsSkipped   int
	SetsRemaining []SystemSetLabel
	Error         error
}

// ScheduleObserver receives a summary after a Schedule.Run completes.
type ScheduleObserver interface {
	ScheduleRunCompleted(summary ScheduleRunSummary)
}

// PrometheusCollector handles schedule-run summaries for Prometheus-style metrics.
type PrometheusCollector interface {
	ObserveScheduleRun(summary ScheduleRunSummary)
}

// ObservationSettings toggles the built-in observer integrations that
// InstrumentationConfig wires into a single ScheduleObserver chain.
type ObservationSettings struct {
	EnableStructuredLogging bool
	StructuredLogger        Logger
	EnablePrometheus        bool
	PrometheusCollector     PrometheusCollector
	EnableSigNoz            bool
	SigNozTracer            Tracer
}

// InstrumentationConfig configures logging, tracing, and metrics sinks
// for an App or a directly-driven Schedule.
type InstrumentationConfig struct {
	Observer    ScheduleObserver
	Observation ObservationSettings
}

// BuildObserver composes the observers named by cfg into a single
// ScheduleObserver, falling back to logger/tracer when the per-sink
// override fields are left unset.
func (cfg InstrumentationConfig) BuildObserver(logger Logger, tracer Tracer) ScheduleObserver {
	var observers []ScheduleObserver

	if cfg.Observer != nil {
		observers = append(observers, cfg.Observer)
	}

	obs := cfg.Observation

	if obs.EnableStructuredLogging {
		structuredLogger := obs.StructuredLogger
		if structuredLogger == nil {
			structuredLogger = logger
		}
		observers = append(observers, newLoggingObserver(structuredLogger))
	}

	if obs.EnablePrometheus && obs.PrometheusCollector != nil {
		observers = append(observers, newPrometheusObserver(obs.PrometheusCollector))
	}

	if obs.EnableSigNoz {
		sigNozTracer := obs.SigNozTracer
		if sigNozTracer == nil {
			sigNozTracer = tracer
		}
		observers = append(observers, newTracingObserver(sigNozTracer))
	}

	if len(observers) == 0 {
		return noopObserver{}
	}
	if len(observers) == 1 {
		return observers[0]
	}
	return compositeObserver{observers: observers}
}

type compositeObserver struct {
	observers []ScheduleObserver
}

func (c compositeObserver) ScheduleRunCompleted(summary ScheduleRunSummary) {
	for _, observer := range c.observers {
		observer.ScheduleRunCompleted(summary)
	}
}

type noopObserver struct{}

func (noopObserver) ScheduleRunCompleted(ScheduleRunSummary) {}

type loggingObserver struct {
	logger Logger
}

func newLoggingObserver(logger Logger) ScheduleObserver {
	if logger == nil {
		return noopObserver{}
	}
	return loggingObserver{logger: logger}
}

func (o loggingObserver) ScheduleRunCompleted(summary ScheduleRunSummary) {
	builder := o.logger.With("schedule", string(summary.Label))
	args := []any{
		"tick", summary.Tick,
		"duration", summary.Duration,
		"sets_total", summary.SetsTotal,
		"sets_executed", summary.SetsExecuted,
		"sets_skipped", summary.SetsSkipped,
	}
	if len(summary.SetsRemaining) > 0 {
		args = append(args, "sets_remaining", summary.SetsRemaining)
	}
	if summary.Error != nil {
		builder.Error("schedule run failed", append(args, "error", summary.Error.Error())...)
		return
	}
	builder.Info("schedule run completed", args...)
}

type prometheusObserver struct {
	collector PrometheusCollector
}

func newPrometheusObserver(collector PrometheusCollector) ScheduleObserver {
	if collector == nil {
		return noopObserver{}
	}
	return prometheusObserver{collector: collector}
}

func (o prometheusObserver) ScheduleRunCompleted(summary ScheduleRunSummary) {
	o.collector.ObserveScheduleRun(summary)
}

type tracingObserver struct {
	tracer Tracer
}

func newTracingObserver(tracer Tracer) ScheduleObserver {
	if tracer == nil {
		return noopObserver{}
	}
	return tracingObserver{tracer: tracer}
}

func (o tracingObserver) ScheduleRunCompleted(summary ScheduleRunSummary) {
	_, span := o.tracer.Start(context.Background(), "schedule.run:"+string(summary.Label))
	span.SetError(summary.Error)
	span.End()
}

// PrometheusScheduleCollector is the real-metrics PrometheusCollector,
// backed by github.com/prometheus/client_golang instead of hand-rolled
// text exposition. Register it against a prometheus.Registerer (the
// default registry, or a dedicated one in tests) and scrape it over
// HTTP with promhttp as usual.
type PrometheusScheduleCollector struct {
	duration     *prometheus.HistogramVec
	setsExecuted *prometheus.CounterVec
	setsSkipped  *prometheus.CounterVec
	errors       *prometheus.CounterVec
}

// NewPrometheusScheduleCollector builds and registers the collector's
// metrics against reg.
func NewPrometheusScheduleCollector(reg prometheus.Registerer) *PrometheusScheduleCollector {
	c := &PrometheusScheduleCollector{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ecs_schedule_run_duration_seconds",
			Help:    "Schedule run duration.",
			Buckets: prometheus.DefBuckets,
		}, []string{"schedule"}),
		setsExecuted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ecs_schedule_sets_executed_total",
			Help: "System sets executed per schedule run.",
		}, []string{"schedule"}),
		setsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ecs_schedule_sets_skipped_total",
			Help: "System sets skipped per schedule run.",
		}, []string{"schedule"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ecs_schedule_run_errors_total",
			Help: "Schedule run errors.",
		}, []string{"schedule"}),
	}
	if reg != nil {
		reg.MustRegister(c.duration, c.setsExecuted, c.setsSkipped, c.errors)
	}
	return c
}

func (c *PrometheusScheduleCollector) ObserveScheduleRun(summary ScheduleRunSummary) {
	label := string(summary.Label)
	c.duration.WithLabelValues(label).Observe(summary.Duration.Seconds())
	c.setsExecuted.WithLabelValues(label).Add(float64(summary.SetsExecuted))
	c.setsSkipped.WithLabelValues(label).Add(float64(summary.SetsSkipped))
	if summary.Error != nil {
		c.errors.WithLabelValues(label).Inc()
	}
}

var _ PrometheusCollector = (*PrometheusScheduleCollector)(nil)
