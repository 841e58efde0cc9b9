package presence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/railroadide/richpresence/pkg/activity"
	"github.com/railroadide/richpresence/pkg/log"
	"github.com/railroadide/richpresence/pkg/metrics"
	"github.com/railroadide/richpresence/pkg/rpc"
	"github.com/railroadide/richpresence/pkg/wire"
)

// DefaultCallTimeout bounds each downstream call made by the timer worker
// or an interaction.
const DefaultCallTimeout = 5 * time.Second

// Controller errors.
var (
	ErrStopped    = errors.New("presence controller stopped")
	ErrNoActivity = errors.New("no activity to publish")
)

// Publisher forwards activities to the companion. *rpc.ActivityManager
// implements it.
type Publisher interface {
	UpdateActivity(ctx context.Context, a *activity.Activity, cb rpc.Callback) error
	ClearActivity(ctx context.Context, cb rpc.Callback) error
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the operational logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithProtocolLogger records visibility transitions as protocol events.
func WithProtocolLogger(l log.Logger) Option {
	return func(c *Controller) {
		c.plog = log.OrNoop(l)
	}
}

// WithMetrics counts visibility transitions.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

// WithCallTimeout bounds downstream calls that have no caller context.
func WithCallTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.callTimeout = d
		}
	}
}

// hideRequest arms (delay > 0) or disarms the timer worker.
type hideRequest struct {
	generation uint64
	delay      time.Duration
}

// Controller hides the published activity after the idle threshold and
// restores it on interaction.
type Controller struct {
	pub       Publisher
	src       InteractionSource
	threshold func() time.Duration

	logger      *slog.Logger
	plog        log.Logger
	metrics     *metrics.Metrics
	callTimeout time.Duration

	// mu serializes every visibility change, including the downstream call
	// that makes it, so updates reach the companion in decision order.
	mu            sync.Mutex
	last          *activity.Activity
	hidden        bool
	generation    uint64
	started       bool
	stopped       bool
	unsubscribe   func()
	onStateChange func(oldState, newState State)

	requests chan hideRequest
	stop     chan struct{}
	wg       sync.WaitGroup
}

// New creates a controller. threshold is called at every scheduling
// decision; nil disables hiding. src may be nil when interactions are only
// reported through MarkInteraction.
func New(pub Publisher, src InteractionSource, threshold func() time.Duration, opts ...Option) *Controller {
	if threshold == nil {
		threshold = func() time.Duration { return 0 }
	}
	c := &Controller{
		pub:         pub,
		src:         src,
		threshold:   threshold,
		logger:      slog.Default(),
		plog:        log.NoopLogger{},
		callTimeout: DefaultCallTimeout,
		requests:    make(chan hideRequest, 1),
		stop:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start subscribes to the interaction source and starts the timer worker.
// Calling Start again, or after Shutdown, does nothing.
func (c *Controller) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started || c.stopped {
		return
	}
	c.started = true
	if c.src != nil {
		c.unsubscribe = c.src.Subscribe(c.MarkInteraction)
	}

	c.wg.Add(1)
	go c.run()
}

// Publish remembers a, shows it and schedules its hide. It supersedes any
// pending hide. The activity is remembered even when the downstream call
// fails, so the next interaction retries it.
func (c *Controller) Publish(ctx context.Context, a *activity.Activity) error {
	if a == nil {
		return ErrNoActivity
	}
	if err := a.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return ErrStopped
	}

	old := c.stateLocked()
	c.last = a.Clone()
	c.hidden = false
	c.scheduleLocked()

	err := c.pub.UpdateActivity(ctx, c.last, c.report("publish"))
	c.transitionLocked(old, StateVisible, metrics.TransitionPublish, "publish")
	if err != nil {
		return fmt.Errorf("publish activity: %w", err)
	}
	return nil
}

// MarkInteraction records user activity. A hidden activity is shown again;
// a visible one gets a fresh idle window. Nothing happens if nothing is
// remembered.
func (c *Controller) MarkInteraction() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped || c.last == nil {
		return
	}
	c.scheduleLocked()
	if !c.hidden {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.callTimeout)
	defer cancel()
	if err := c.restoreLocked(ctx, "interaction"); err != nil {
		c.logger.Warn("restore after interaction failed", "error", err)
	}
}

// Clear forgets the remembered activity and clears the on-screen activity
// unconditionally.
func (c *Controller) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return ErrStopped
	}

	old := c.stateLocked()
	c.cancelLocked()
	c.last = nil
	c.hidden = false

	err := c.pub.ClearActivity(ctx, c.report("clear"))
	c.transitionLocked(old, StateCleared, metrics.TransitionClear, "clear")
	if err != nil {
		return fmt.Errorf("clear activity: %w", err)
	}
	return nil
}

// RestoreIfHidden shows the remembered activity if it is hidden.
func (c *Controller) RestoreIfHidden(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return nil
	}
	return c.restoreLocked(ctx, "restore")
}

// Refresh forwards the visible activity again without changing its state,
// for a companion connection that has just been rebuilt.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped || c.last == nil || c.hidden {
		return nil
	}
	if err := c.pub.UpdateActivity(ctx, c.last, c.report("refresh")); err != nil {
		return fmt.Errorf("refresh activity: %w", err)
	}
	return nil
}

// ThresholdChanged applies a new idle threshold. A disabled threshold
// cancels the pending hide and restores a hidden activity; otherwise a
// visible activity gets a fresh idle window.
func (c *Controller) ThresholdChanged() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped || c.last == nil {
		return
	}
	if c.threshold() > 0 {
		if !c.hidden {
			c.scheduleLocked()
		}
		return
	}

	c.cancelLocked()
	ctx, cancel := context.WithTimeout(context.Background(), c.callTimeout)
	defer cancel()
	if err := c.restoreLocked(ctx, "threshold disabled"); err != nil {
		c.logger.Warn("restore after threshold change failed", "error", err)
	}
}

// Hidden reports whether the remembered activity is hidden for inactivity.
func (c *Controller) Hidden() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hidden
}

// State returns the current visibility.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// LastKnown returns a copy of the remembered activity, or nil.
func (c *Controller) LastKnown() *activity.Activity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last.Clone()
}

// OnStateChange sets a callback for visibility changes. It runs with the
// controller locked and must not call back into it.
func (c *Controller) OnStateChange(fn func(oldState, newState State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onStateChange = fn
}

// Shutdown cancels the pending hide, stops the timer worker, detaches the
// interaction subscription and forgets the remembered activity. The
// on-screen activity is left as is.
func (c *Controller) Shutdown() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	c.cancelLocked()
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.last = nil
	c.hidden = false
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	close(c.stop)
	c.wg.Wait()
}

// run is the timer worker. It owns the timer; everything else talks to it
// through requests, of which only the latest matters.
func (c *Controller) run() {
	defer c.wg.Done()

	timer := time.NewTimer(time.Hour)
	timer.Stop()

	var pending uint64
	armed := false
	for {
		select {
		case <-c.stop:
			timer.Stop()
			return

		case req := <-c.requests:
			timer.Stop()
			armed = req.delay > 0
			if armed {
				pending = req.generation
				timer.Reset(req.delay)
			}

		case <-timer.C:
			if armed {
				armed = false
				c.hide(pending)
			}
		}
	}
}

// hide clears the on-screen activity if generation is still current.
func (c *Controller) hide(generation uint64) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("hide panicked: %v", r)
			c.logger.Error("presence hide failed", "error", err)
			c.logError("hide", err)
		}
	}()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped || generation != c.generation || c.last == nil || c.hidden {
		return
	}
	c.hidden = true

	ctx, cancel := context.WithTimeout(context.Background(), c.callTimeout)
	defer cancel()
	err := c.pub.ClearActivity(ctx, c.report("hide"))
	c.transitionLocked(StateVisible, StateHidden, metrics.TransitionHide, "idle")
	if err != nil {
		c.logger.Warn("hide activity failed", "error", err)
		c.logError("hide", err)
	}
}

func (c *Controller) restoreLocked(ctx context.Context, reason string) error {
	if !c.hidden || c.last == nil {
		return nil
	}
	c.hidden = false

	err := c.pub.UpdateActivity(ctx, c.last, c.report("restore"))
	c.transitionLocked(StateHidden, StateVisible, metrics.TransitionRestore, reason)
	if err != nil {
		c.logError("restore", err)
		return fmt.Errorf("restore activity: %w", err)
	}
	return nil
}

// scheduleLocked cancels the pending hide and arms a new one if the
// threshold is enabled.
func (c *Controller) scheduleLocked() {
	c.cancelLocked()
	delay := c.threshold()
	if delay <= 0 {
		return
	}
	c.request(hideRequest{generation: c.generation, delay: delay})
}

func (c *Controller) cancelLocked() {
	c.generation++
	c.request(hideRequest{generation: c.generation})
}

// request replaces any unread request. Callers hold mu, so the send
// after the drain cannot block.
func (c *Controller) request(req hideRequest) {
	select {
	case <-c.requests:
	default:
	}
	c.requests <- req
}

func (c *Controller) stateLocked() State {
	switch {
	case c.last == nil:
		return StateCleared
	case c.hidden:
		return StateHidden
	default:
		return StateVisible
	}
}

func (c *Controller) transitionLocked(old, next State, kind, reason string) {
	c.metrics.PresenceTransition(kind)
	c.logger.Debug("presence transition", "from", old, "to", next, "reason", reason)
	c.plog.Log(log.Event{
		Timestamp: time.Now(),
		Layer:     log.LayerPresence,
		Category:  log.CategoryState,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityPresence,
			OldState: old.String(),
			NewState: next.String(),
			Reason:   reason,
		},
	})
	if c.onStateChange != nil && old != next {
		c.onStateChange(old, next)
	}
}

// report logs a rejected update once the companion answers.
func (c *Controller) report(op string) rpc.Callback {
	return func(_ *wire.Envelope, err error) {
		if err == nil {
			return
		}
		c.logger.Warn("companion rejected presence update", "op", op, "error", err)
	}
}

func (c *Controller) logError(op string, err error) {
	c.plog.Log(log.Event{
		Timestamp: time.Now(),
		Layer:     log.LayerPresence,
		Category:  log.CategoryError,
		Error: &log.ErrorEventData{
			Layer:   log.LayerPresence,
			Message: err.Error(),
			Context: op,
		},
	})
}
