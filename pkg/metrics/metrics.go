// Package metrics exposes Prometheus collectors for the presence client.
//
// Metrics collected:
//   - richpresence_frames_total: Counter of frames by direction
//   - richpresence_commands_queued_total: Counter of commands held for the handshake
//   - richpresence_commands_expired_total: Counter of queued commands that timed out
//   - richpresence_callbacks_total: Counter of resolved callbacks by outcome
//   - richpresence_remote_errors_total: Counter of ERROR envelopes by result
//   - richpresence_worker_failures_total: Counter of receive worker failures
//   - richpresence_reconnects_total: Counter of reconnects by outcome
//   - richpresence_connection_state: Gauge of the connection state ordinal
//   - richpresence_presence_transitions_total: Counter of presence transitions by kind
//
// All methods are safe to call on a nil *Metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Config configures the collectors.
type Config struct {
	// Namespace is the metrics namespace (default: "richpresence").
	Namespace string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the collectors.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

// Callback outcomes.
const (
	OutcomeOK      = "ok"
	OutcomeRemote  = "remote_error"
	OutcomeClosed  = "closed"
	OutcomeExpired = "expired"
	OutcomeFailed  = "failed"
)

// Presence transitions.
const (
	TransitionPublish = "publish"
	TransitionHide    = "hide"
	TransitionRestore = "restore"
	TransitionClear   = "clear"
)

// Metrics holds the collectors.
type Metrics struct {
	frames              *prometheus.CounterVec
	commandsQueued      prometheus.Counter
	commandsExpired     prometheus.Counter
	callbacks           *prometheus.CounterVec
	remoteErrors        *prometheus.CounterVec
	workerFailures      prometheus.Counter
	reconnects          *prometheus.CounterVec
	connectionState     prometheus.Gauge
	presenceTransitions *prometheus.CounterVec
}

// New registers the collectors.
func New(opts ...Option) *Metrics {
	config := Config{
		Namespace: "richpresence",
		Registry:  prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		frames: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "frames_total",
			Help:        "Total number of IPC frames by direction",
			ConstLabels: config.ConstLabels,
		}, []string{"direction"}),

		commandsQueued: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "commands_queued_total",
			Help:        "Total number of commands queued until the handshake completed",
			ConstLabels: config.ConstLabels,
		}),

		commandsExpired: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "commands_expired_total",
			Help:        "Total number of queued commands dropped after the pending timeout",
			ConstLabels: config.ConstLabels,
		}),

		callbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "callbacks_total",
			Help:        "Total number of resolved command callbacks by outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"outcome"}),

		remoteErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "remote_errors_total",
			Help:        "Total number of ERROR envelopes by result",
			ConstLabels: config.ConstLabels,
		}, []string{"result"}),

		workerFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "worker_failures_total",
			Help:        "Total number of receive worker failures",
			ConstLabels: config.ConstLabels,
		}),

		reconnects: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "reconnects_total",
			Help:        "Total number of reconnect attempts by outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"outcome"}),

		connectionState: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Name:        "connection_state",
			Help:        "Connection state ordinal (0 handshake, 1 connected, 2 error)",
			ConstLabels: config.ConstLabels,
		}),

		presenceTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "presence_transitions_total",
			Help:        "Total number of presence visibility transitions by kind",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),
	}
}

// FrameIn counts a received frame.
func (m *Metrics) FrameIn() {
	if m == nil {
		return
	}
	m.frames.WithLabelValues("in").Inc()
}

// FrameOut counts a sent frame.
func (m *Metrics) FrameOut() {
	if m == nil {
		return
	}
	m.frames.WithLabelValues("out").Inc()
}

// CommandQueued counts a command held for the handshake.
func (m *Metrics) CommandQueued() {
	if m == nil {
		return
	}
	m.commandsQueued.Inc()
}

// CommandExpired counts a queued command dropped after the pending timeout.
func (m *Metrics) CommandExpired() {
	if m == nil {
		return
	}
	m.commandsExpired.Inc()
}

// Callback counts a resolved callback.
func (m *Metrics) Callback(outcome string) {
	if m == nil {
		return
	}
	m.callbacks.WithLabelValues(outcome).Inc()
}

// RemoteError counts an ERROR envelope.
func (m *Metrics) RemoteError(result string) {
	if m == nil {
		return
	}
	m.remoteErrors.WithLabelValues(result).Inc()
}

// WorkerFailed counts a receive worker failure.
func (m *Metrics) WorkerFailed() {
	if m == nil {
		return
	}
	m.workerFailures.Inc()
}

// Reconnect counts a reconnect attempt.
func (m *Metrics) Reconnect(ok bool) {
	if m == nil {
		return
	}
	outcome := OutcomeOK
	if !ok {
		outcome = OutcomeFailed
	}
	m.reconnects.WithLabelValues(outcome).Inc()
}

// ConnectionState records the current state ordinal.
func (m *Metrics) ConnectionState(ordinal int) {
	if m == nil {
		return
	}
	m.connectionState.Set(float64(ordinal))
}

// PresenceTransition counts a visibility transition.
func (m *Metrics) PresenceTransition(kind string) {
	if m == nil {
		return
	}
	m.presenceTransitions.WithLabelValues(kind).Inc()
}
