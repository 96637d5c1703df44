package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vyrodovalexey/avmqacl/internal/observability"
)

// Logger is the audit logger interface. Implementations must be safe
// for concurrent use: decision events are emitted from the broker's
// authorization hot path.
type Logger interface {
	// LogEvent logs an audit event.
	LogEvent(ctx context.Context, event *Event)

	// Close closes the logger.
	Close() error
}

// Config holds audit logger configuration.
type Config struct {
	// Enabled enables audit logging.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Output is the destination: stdout, stderr, or a file path.
	Output string `yaml:"output,omitempty" json:"output,omitempty"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Enabled: true,
		Output:  "stdout",
	}
}

// GetEffectiveOutput returns the configured output or the default.
func (c *Config) GetEffectiveOutput() string {
	if c.Output == "" {
		return "stdout"
	}
	return c.Output
}

// logger implements the Logger interface, writing one JSON object per
// line.
type logger struct {
	config  *Config
	writer  io.Writer
	mu      sync.Mutex
	logger  observability.Logger
	metrics *Metrics
	closer  io.Closer
}

// Metrics contains audit metrics.
type Metrics struct {
	eventsTotal *prometheus.CounterVec
}

// NewMetrics creates new audit metrics registered with the default
// registerer.
func NewMetrics(namespace string) *Metrics {
	return NewMetricsWithRegisterer(namespace, prometheus.DefaultRegisterer)
}

// NewMetricsWithRegisterer creates new audit metrics registered with
// the provided registerer. This allows the metrics to be registered
// with the admin server's registry so they appear on the /metrics
// endpoint.
func NewMetricsWithRegisterer(namespace string, registerer prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "authorizer"
	}
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		eventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "audit",
				Name:      "events_total",
				Help:      "Total number of audit events",
			},
			[]string{"type", "outcome"},
		),
	}

	// Register with the provided registerer, ignoring duplicate
	// registration errors (safe because descriptors are identical).
	_ = registerer.Register(m.eventsTotal)

	m.Init()

	return m
}

// Init pre-populates common label combinations with zero values so
// that audit Vec metrics appear in /metrics output immediately after
// startup. This method is idempotent and safe to call multiple times.
func (m *Metrics) Init() {
	if m.eventsTotal == nil {
		return
	}

	for _, outcome := range []Outcome{OutcomeAllowed, OutcomeDenied} {
		m.eventsTotal.WithLabelValues(string(EventTypeDecision), string(outcome))
	}
	for _, outcome := range []Outcome{OutcomeChanged, OutcomeUnchanged, OutcomeFailure} {
		m.eventsTotal.WithLabelValues(string(EventTypeReload), string(outcome))
	}
}

// RecordEvent records an audit event metric.
func (m *Metrics) RecordEvent(eventType EventType, outcome Outcome) {
	if m == nil || m.eventsTotal == nil {
		return
	}
	m.eventsTotal.WithLabelValues(string(eventType), string(outcome)).Inc()
}

// LoggerOption is a functional option for the logger.
type LoggerOption func(*logger)

// WithLoggerLogger sets the observability logger.
func WithLoggerLogger(l observability.Logger) LoggerOption {
	return func(lg *logger) {
		lg.logger = l
	}
}

// WithLoggerMetrics sets the metrics.
func WithLoggerMetrics(metrics *Metrics) LoggerOption {
	return func(lg *logger) {
		lg.metrics = metrics
	}
}

// WithLoggerWriter sets the writer.
func WithLoggerWriter(writer io.Writer) LoggerOption {
	return func(lg *logger) {
		lg.writer = writer
	}
}

// NewLogger creates a new audit logger.
func NewLogger(config *Config, opts ...LoggerOption) (Logger, error) {
	if config == nil {
		config = DefaultConfig()
	}

	l := &logger{
		config: config,
		logger: observability.NopLogger(),
	}

	for _, opt := range opts {
		opt(l)
	}

	if l.metrics == nil {
		l.metrics = NewMetrics("authorizer")
	}

	if l.writer == nil {
		writer, closer, err := l.createWriter()
		if err != nil {
			return nil, err
		}
		l.writer = writer
		l.closer = closer
	}

	return l, nil
}

// createWriter creates the output writer based on configuration.
func (l *logger) createWriter() (io.Writer, io.Closer, error) {
	output := l.config.GetEffectiveOutput()

	switch output {
	case "stdout":
		return os.Stdout, nil, nil
	case "stderr":
		return os.Stderr, nil, nil
	default:
		// Assume it's a file path - path comes from trusted configuration
		//nolint:gosec // G304: path from config is trusted
		file, err := os.OpenFile(output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open audit log file: %w", err)
		}
		return file, file, nil
	}
}

// LogEvent logs an audit event.
func (l *logger) LogEvent(ctx context.Context, event *Event) {
	if !l.config.Enabled {
		return
	}

	l.metrics.RecordEvent(event.Type, event.Outcome)

	data, err := json.Marshal(event)
	if err != nil {
		l.logger.Error("failed to marshal audit event", observability.Error(err))
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.writer.Write(append(data, '\n')); err != nil {
		l.logger.Error("failed to write audit event", observability.Error(err))
	}
}

// Close closes the logger.
func (l *logger) Close() error {
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

// nopLogger discards all events.
type nopLogger struct{}

// NewNopLogger returns an audit logger that discards all events.
func NewNopLogger() Logger {
	return &nopLogger{}
}

// LogEvent does nothing.
func (n *nopLogger) LogEvent(ctx context.Context, event *Event) {}

// Close does nothing.
func (n *nopLogger) Close() error { return nil }

// Ensure implementations satisfy the interface.
var (
	_ Logger = (*logger)(nil)
	_ Logger = (*nopLogger)(nil)
)
