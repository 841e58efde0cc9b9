package connection

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/railroadide/richpresence/pkg/log"
)

// Supervisor errors.
var (
	ErrSupervisorClosed  = errors.New("supervisor closed")
	ErrAlreadySupervised = errors.New("supervisor already started")
)

// DefaultConnectTimeout bounds a single connect attempt.
const DefaultConnectTimeout = 10 * time.Second

// Session is a client that can die on its own.
type Session interface {
	// Done is closed when the session stops for good.
	Done() <-chan struct{}

	// Err is nil if the session was closed on purpose, otherwise the
	// reason it died.
	Err() error

	// Close releases the session.
	Close() error
}

// ConnectFunc builds and connects a new session.
type ConnectFunc[S Session] func(ctx context.Context) (S, error)

// Status is the supervisor's lifecycle state.
type Status uint8

const (
	StatusIdle Status = iota
	StatusRunning
	StatusRebuilding
	StatusClosed
)

// String returns a human-readable status name.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "IDLE"
	case StatusRunning:
		return "RUNNING"
	case StatusRebuilding:
		return "REBUILDING"
	case StatusClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// SupervisorOption configures a Supervisor.
type SupervisorOption func(*supervisorOptions)

type supervisorOptions struct {
	backoff        BackoffConfig
	connectTimeout time.Duration
	logger         *slog.Logger
	protocolLogger log.Logger
}

// WithBackoff sets the delays between rebuild attempts.
func WithBackoff(cfg BackoffConfig) SupervisorOption {
	return func(o *supervisorOptions) { o.backoff = cfg }
}

// WithConnectTimeout bounds each connect attempt.
func WithConnectTimeout(d time.Duration) SupervisorOption {
	return func(o *supervisorOptions) { o.connectTimeout = d }
}

// WithLogger sets the operational logger.
func WithLogger(l *slog.Logger) SupervisorOption {
	return func(o *supervisorOptions) { o.logger = l }
}

// WithProtocolLogger records status changes as protocol events.
func WithProtocolLogger(l log.Logger) SupervisorOption {
	return func(o *supervisorOptions) { o.protocolLogger = l }
}

// Supervisor keeps one live session, replacing it when it dies with an
// error. A session that is closed on purpose ends supervision.
type Supervisor[S Session] struct {
	mu sync.RWMutex

	status   Status
	current  S
	live     bool
	starting bool
	connect ConnectFunc[S]
	backoff *Backoff
	opts    supervisorOptions

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	onStateChange func(oldStatus, newStatus Status)
	onRebuilt     func(S)
}

// NewSupervisor creates a Supervisor around connect.
func NewSupervisor[S Session](connect ConnectFunc[S], opts ...SupervisorOption) *Supervisor[S] {
	o := supervisorOptions{connectTimeout: DefaultConnectTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	o.protocolLogger = log.OrNoop(o.protocolLogger)

	ctx, cancel := context.WithCancel(context.Background())
	return &Supervisor[S]{
		status:  StatusIdle,
		connect: connect,
		backoff: NewBackoffWithConfig(o.backoff),
		opts:    o,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start connects the first session synchronously and begins watching it.
func (s *Supervisor[S]) Start(ctx context.Context) (S, error) {
	var zero S

	s.mu.Lock()
	switch s.status {
	case StatusClosed:
		s.mu.Unlock()
		return zero, ErrSupervisorClosed
	case StatusRunning, StatusRebuilding:
		s.mu.Unlock()
		return zero, ErrAlreadySupervised
	}
	if s.starting {
		s.mu.Unlock()
		return zero, ErrAlreadySupervised
	}
	s.starting = true
	s.mu.Unlock()

	sess, err := s.attempt(ctx)

	s.mu.Lock()
	s.starting = false
	if err != nil {
		s.mu.Unlock()
		return zero, err
	}
	if s.status == StatusClosed {
		s.mu.Unlock()
		_ = sess.Close()
		return zero, ErrSupervisorClosed
	}
	s.current = sess
	s.live = true
	s.mu.Unlock()

	s.setStatus(StatusRunning, "started")
	s.wg.Add(1)
	go s.watch(sess)
	return sess, nil
}

// Current returns the live session. It is the zero value before Start.
func (s *Supervisor[S]) Current() S {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Status returns the lifecycle state.
func (s *Supervisor[S]) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// OnStateChange sets a callback for status changes.
func (s *Supervisor[S]) OnStateChange(fn func(oldStatus, newStatus Status)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onStateChange = fn
}

// OnRebuilt sets a callback invoked with each replacement session.
func (s *Supervisor[S]) OnRebuilt(fn func(S)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onRebuilt = fn
}

// BackoffAttempts returns the number of failed rebuild attempts so far.
func (s *Supervisor[S]) BackoffAttempts() int {
	return s.backoff.Attempts()
}

// Close stops supervision and closes the live session.
func (s *Supervisor[S]) Close() error {
	s.mu.Lock()
	if s.status == StatusClosed {
		s.mu.Unlock()
		return nil
	}
	current, live := s.current, s.live
	s.mu.Unlock()

	s.setStatus(StatusClosed, "closed")
	s.cancel()

	var err error
	if live {
		err = current.Close()
	}
	s.wg.Wait()
	return err
}

func (s *Supervisor[S]) attempt(ctx context.Context) (S, error) {
	if s.opts.connectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.connectTimeout)
		defer cancel()
	}
	return s.connect(ctx)
}

// watch waits for sess to die and replaces it.
func (s *Supervisor[S]) watch(sess S) {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-sess.Done():
		}

		cause := sess.Err()
		if cause == nil {
			s.opts.logger.Info("session closed, supervision ended")
			s.setStatus(StatusIdle, "session closed")
			return
		}
		s.opts.logger.Warn("session died, rebuilding", "error", cause)
		_ = sess.Close()
		s.setStatus(StatusRebuilding, cause.Error())

		next, ok := s.rebuild()
		if !ok {
			return
		}
		sess = next
	}
}

// rebuild retries connect with backoff until it succeeds or the
// supervisor closes.
func (s *Supervisor[S]) rebuild() (S, bool) {
	var zero S
	for {
		delay := s.backoff.Next()
		s.opts.logger.Debug("rebuild scheduled", "attempt", s.backoff.Attempts(), "delay", delay)

		select {
		case <-s.ctx.Done():
			return zero, false
		case <-time.After(delay):
		}

		sess, err := s.attempt(s.ctx)
		if err != nil {
			s.opts.logger.Warn("rebuild failed", "attempt", s.backoff.Attempts(), "error", err)
			continue
		}

		s.mu.Lock()
		if s.status == StatusClosed {
			s.mu.Unlock()
			_ = sess.Close()
			return zero, false
		}
		s.current = sess
		onRebuilt := s.onRebuilt
		s.mu.Unlock()

		s.backoff.Reset()
		s.setStatus(StatusRunning, "rebuilt")
		if onRebuilt != nil {
			onRebuilt(sess)
		}
		return sess, true
	}
}

func (s *Supervisor[S]) setStatus(status Status, reason string) {
	s.mu.Lock()
	old := s.status
	if old == status || (old == StatusClosed && status != StatusClosed) {
		s.mu.Unlock()
		return
	}
	s.status = status
	fn := s.onStateChange
	s.mu.Unlock()

	s.opts.protocolLogger.Log(log.Event{
		Timestamp: time.Now(),
		Layer:     log.LayerWire,
		Category:  log.CategoryState,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntitySupervisor,
			OldState: old.String(),
			NewState: status.String(),
			Reason:   reason,
		},
	})
	if fn != nil {
		fn(old, status)
	}
}
