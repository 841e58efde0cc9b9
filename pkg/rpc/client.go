package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/railroadide/richpresence/pkg/connection"
	"github.com/railroadide/richpresence/pkg/log"
	"github.com/railroadide/richpresence/pkg/metrics"
	"github.com/railroadide/richpresence/pkg/transport"
	"github.com/railroadide/richpresence/pkg/wire"
)

// Client defaults.
const (
	// DefaultPollInterval is how long the worker sleeps after an empty read.
	DefaultPollInterval = 100 * time.Millisecond

	// DefaultPendingTimeout is how long a command may wait for the handshake.
	DefaultPendingTimeout = 30 * time.Second
)

// Callback receives the outcome of a command. On success env is the
// response and err is nil. A failed command yields a *RemoteError together
// with the ERROR envelope, or a local error with a nil envelope.
type Callback func(env *wire.Envelope, err error)

// Locator opens a channel to the companion.
type Locator interface {
	Locate(ctx context.Context) (transport.Channel, error)
}

// Config configures a Client.
type Config struct {
	// ClientID is the application id sent in the handshake.
	ClientID string

	// Locator finds the companion. Default: the platform endpoints.
	Locator Locator

	// Reconnect is consulted before every SET_ACTIVITY. If it returns true
	// and the channel is gone, a new one is located first. Nil never
	// reconnects.
	Reconnect func() bool

	// PollInterval is the sleep between empty reads. Default: DefaultPollInterval.
	PollInterval time.Duration

	// PendingTimeout expires queued commands still waiting for READY.
	// Zero keeps them until the handshake completes or the client closes.
	PendingTimeout time.Duration

	// FrameTimeout bounds how long one frame may take to read or write.
	// Default: transport.DefaultFrameTimeout.
	FrameTimeout time.Duration

	// Logger receives operational logs. Default: slog.Default().
	Logger *slog.Logger

	// ProtocolLogger receives frame, message and state events.
	ProtocolLogger log.Logger

	// Metrics may be nil.
	Metrics *metrics.Metrics
}

// DefaultConfig returns a config for clientID with reconnects enabled.
func DefaultConfig(clientID string) Config {
	return Config{
		ClientID:       clientID,
		Reconnect:      func() bool { return true },
		PollInterval:   DefaultPollInterval,
		PendingTimeout: DefaultPendingTimeout,
	}
}

type pendingCommand struct {
	cmd      *wire.Command
	cb       Callback
	queuedAt time.Time
}

// Client speaks the presence IPC protocol over one channel at a time.
type Client struct {
	cfg      Config
	logger   *slog.Logger
	plog     log.Logger
	registry *Registry

	nonce   atomic.Uint64
	closing atomic.Bool

	// reconnectMu serializes reconnects.
	reconnectMu sync.Mutex

	mu          sync.Mutex
	clientID    string
	state       connection.State
	ch          transport.Channel
	framer      *transport.Framer
	workerCh    transport.Channel
	queue       []*pendingCommand
	outstanding map[string]Callback
	draining    bool
	user        *User
	err         error

	done     chan struct{}
	doneOnce sync.Once
}

// New locates the companion and returns a client in HANDSHAKE state. It
// fails with an error wrapping transport.ErrChannelUnavailable when no
// endpoint accepts.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.ClientID) == "" {
		return nil, fmt.Errorf("%w: empty client id", ErrInvalidArgument)
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.FrameTimeout <= 0 {
		cfg.FrameTimeout = transport.DefaultFrameTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Locator == nil {
		cfg.Locator = &transport.Locator{Logger: cfg.Logger}
	}
	if cfg.Reconnect == nil {
		cfg.Reconnect = func() bool { return false }
	}

	ch, err := cfg.Locator.Locate(ctx)
	if err != nil {
		return nil, err
	}

	c := &Client{
		cfg:         cfg,
		logger:      cfg.Logger,
		plog:        log.OrNoop(cfg.ProtocolLogger),
		registry:    NewRegistry(),
		clientID:    cfg.ClientID,
		state:       connection.StateHandshake,
		outstanding: make(map[string]Callback),
		done:        make(chan struct{}),
	}
	c.attach(ch)

	_ = c.registry.Register(On(wire.EventReady, c.handleReady, WithoutSubscription()))
	_ = c.registry.Register(On(wire.EventCurrentUserUpdate, c.handleUserUpdate))

	cfg.Metrics.ConnectionState(int(connection.StateHandshake))
	return c, nil
}

// attach installs ch as the current channel. Callers hold mu or own c
// exclusively.
func (c *Client) attach(ch transport.Channel) {
	framer := transport.NewFramer(ch)
	framer.SetLogger(c.plog, ch.ID())
	framer.FrameReader.SetTimeout(c.cfg.FrameTimeout)
	framer.FrameWriter.SetTimeout(c.cfg.FrameTimeout)
	c.ch = ch
	c.framer = framer
}

// Registry returns the event handler registry.
func (c *Client) Registry() *Registry {
	return c.registry
}

// State returns the connection state.
func (c *Client) State() connection.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CurrentUser returns the user reported by READY or CURRENT_USER_UPDATE,
// or nil before READY.
func (c *Client) CurrentUser() *User {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil {
		return nil
	}
	u := *c.user
	return &u
}

// ClientID returns the id used for the next handshake.
func (c *Client) ClientID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clientID
}

// Done is closed when the client stops for good: after Close, or when the
// receive worker fails.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Err returns nil until the worker fails, then an error wrapping
// ErrWorkerFailed. It stays nil after Close.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// SetClientID changes the id used by the next handshake. It does not
// reconnect.
func (c *Client) SetClientID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: empty client id", ErrInvalidArgument)
	}
	c.mu.Lock()
	c.clientID = id
	c.mu.Unlock()
	return nil
}

// Connect sends the handshake on the current channel and starts the
// receive worker.
func (c *Client) Connect(ctx context.Context) error {
	if c.closing.Load() {
		return ErrClientClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	switch {
	case c.state == connection.StateError:
		c.mu.Unlock()
		return ErrClientFailed
	case c.ch == nil:
		c.mu.Unlock()
		return ErrNotConnected
	case c.workerCh == c.ch:
		c.mu.Unlock()
		return ErrAlreadyConnected
	}
	ch, framer, state := c.ch, c.framer, c.state
	c.workerCh = ch
	payload, err := json.Marshal(wire.NewHandshake(c.clientID))
	c.mu.Unlock()
	if err == nil {
		err = framer.WriteFrame(transport.Opcode(state), payload)
	}
	if err != nil {
		c.mu.Lock()
		if c.workerCh == ch {
			c.workerCh = nil
		}
		c.mu.Unlock()
		c.logger.Warn("handshake failed", "channel", ch.ID(), "error", err)
		c.logError("handshake", ch.ID(), err)
		return fmt.Errorf("%w: %w", ErrHandshakeFailed, err)
	}
	c.cfg.Metrics.FrameOut()

	c.logger.Debug("handshake sent", "channel", ch.ID())
	go c.receive(ch, framer)
	return nil
}

// Send issues cmd with args. cb, which may be nil, is invoked exactly once
// with the outcome, on the receive worker or on the goroutine that fails
// the command. Before READY the command is queued. SET_ACTIVITY first
// reconnects if the channel is gone and Config.Reconnect allows it.
func (c *Client) Send(ctx context.Context, cmd wire.CommandType, args any, cb Callback) error {
	if cmd == "" {
		return fmt.Errorf("%w: empty command", ErrInvalidArgument)
	}
	command, err := wire.NewCommand(cmd, args, c.nextNonce())
	if err != nil {
		return err
	}
	return c.submit(ctx, command, cb)
}

// Subscribe sends SUBSCRIBE for evt.
func (c *Client) Subscribe(ctx context.Context, evt wire.Event, args any, cb Callback) error {
	if evt == "" {
		return fmt.Errorf("%w: empty event", ErrInvalidArgument)
	}
	command, err := wire.NewSubscribe(evt, args, c.nextNonce())
	if err != nil {
		return err
	}
	return c.submit(ctx, command, cb)
}

// Call sends cmd and waits for its outcome or for ctx to end.
func (c *Client) Call(ctx context.Context, cmd wire.CommandType, args any) (*wire.Envelope, error) {
	type outcome struct {
		env *wire.Envelope
		err error
	}
	if cmd == "" {
		return nil, fmt.Errorf("%w: empty command", ErrInvalidArgument)
	}
	command, err := wire.NewCommand(cmd, args, c.nextNonce())
	if err != nil {
		return nil, err
	}
	res := make(chan outcome, 1)
	err = c.submit(ctx, command, func(env *wire.Envelope, err error) {
		res <- outcome{env, err}
	})
	if err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
		c.forget(command.Nonce)
		return nil, ctx.Err()
	case r := <-res:
		return r.env, r.err
	}
}

// Close closes the channel, fails every waiting callback with
// ErrClientClosed and tells the worker to stop. It does not wait for the
// worker.
func (c *Client) Close() error {
	if c.closing.Swap(true) {
		return nil
	}

	c.mu.Lock()
	ch := c.ch
	waiting := c.takeWaitingLocked()
	c.mu.Unlock()

	var err error
	if ch != nil {
		err = ch.Close()
	}
	c.failAll(waiting, ErrClientClosed, metrics.OutcomeClosed)
	c.doneOnce.Do(func() { close(c.done) })
	c.logger.Debug("client closed")
	return err
}

func (c *Client) nextNonce() uint64 {
	return c.nonce.Add(1)
}

func (c *Client) submit(ctx context.Context, command *wire.Command, cb Callback) error {
	if c.closing.Load() {
		return ErrClientClosed
	}

	if command.Cmd == wire.CmdSetActivity && c.cfg.Reconnect() {
		if err := c.reconnectIfNeeded(ctx); err != nil {
			c.logger.Warn("reconnect failed, activity dropped", "nonce", command.Nonce, "error", err)
			return fmt.Errorf("%w: %w", ErrReconnectFailed, err)
		}
	}

	c.mu.Lock()
	if c.state == connection.StateError {
		c.mu.Unlock()
		return ErrClientFailed
	}
	if c.ch != nil && !c.ch.IsOpen() {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", transport.ErrChannelClosed, command.Cmd)
	}
	if (c.state == connection.StateHandshake || c.draining) && !command.IsReadySubscription() {
		c.queue = append(c.queue, &pendingCommand{cmd: command, cb: cb, queuedAt: time.Now()})
		c.mu.Unlock()
		c.cfg.Metrics.CommandQueued()
		c.logger.Debug("command queued", "cmd", command.Cmd, "nonce", command.Nonce)
		return nil
	}
	c.mu.Unlock()

	return c.write(nil, command, cb)
}

// write registers cb under the command's nonce and writes the frame. A
// non-nil on restricts the write to that channel. The registration is
// undone if the write fails.
func (c *Client) write(on transport.Channel, command *wire.Command, cb Callback) error {
	payload, err := json.Marshal(command)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.ch == nil {
		c.mu.Unlock()
		return ErrNotConnected
	}
	if on != nil && c.ch != on {
		c.mu.Unlock()
		return transport.ErrChannelClosed
	}
	c.outstanding[command.Nonce] = cb
	framer, state, connID := c.framer, c.state, c.ch.ID()
	c.mu.Unlock()

	if err := framer.WriteFrame(transport.Opcode(state), payload); err != nil {
		c.mu.Lock()
		delete(c.outstanding, command.Nonce)
		c.mu.Unlock()
		return err
	}

	c.cfg.Metrics.FrameOut()
	c.plog.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Direction:    log.DirectionOut,
		Layer:        log.LayerWire,
		Category:     log.CategoryMessage,
		Message: &log.MessageEvent{
			Type:  log.MessageTypeCommand,
			Cmd:   string(command.Cmd),
			Event: string(command.Event),
			Nonce: command.Nonce,
		},
	})
	return nil
}

// reconnectIfNeeded replaces a missing or closed channel and performs a
// fresh handshake on it.
func (c *Client) reconnectIfNeeded(ctx context.Context) error {
	c.reconnectMu.Lock()
	defer c.reconnectMu.Unlock()

	c.mu.Lock()
	if c.state == connection.StateError {
		c.mu.Unlock()
		return ErrClientFailed
	}
	if c.ch != nil && c.ch.IsOpen() {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	c.logger.Info("channel lost, reconnecting")
	ch, err := c.cfg.Locator.Locate(ctx)
	if err != nil {
		c.cfg.Metrics.Reconnect(false)
		return err
	}

	c.mu.Lock()
	if c.closing.Load() {
		c.mu.Unlock()
		_ = ch.Close()
		return ErrClientClosed
	}
	old := c.state
	prev := c.ch
	stale := c.outstanding
	c.outstanding = make(map[string]Callback)
	c.attach(ch)
	c.state = connection.StateHandshake
	c.draining = false
	c.user = nil
	c.mu.Unlock()

	if prev != nil {
		_ = prev.Close()
	}

	for nonce, cb := range stale {
		c.resolve(cb, nil, transport.ErrChannelClosed, metrics.OutcomeClosed)
		c.logger.Debug("response lost with old channel", "nonce", nonce)
	}
	c.recordState(ch.ID(), old, connection.StateHandshake, "reconnect")

	if err := c.Connect(ctx); err != nil {
		c.cfg.Metrics.Reconnect(false)
		return err
	}
	c.cfg.Metrics.Reconnect(true)
	return nil
}

// receive is the receive worker for ch. It owns all reads from ch.
func (c *Client) receive(ch transport.Channel, framer *transport.Framer) {
	for {
		if c.closing.Load() {
			return
		}
		c.expireQueued()

		frame, err := framer.ReadFrame()
		if err != nil {
			if errors.Is(err, transport.ErrChannelClosed) {
				c.logger.Info("channel closed by companion", "channel", ch.ID())
				c.channelClosed(ch)
				return
			}
			c.fail(ch, err)
			return
		}
		if frame == nil {
			time.Sleep(c.cfg.PollInterval)
			continue
		}
		c.cfg.Metrics.FrameIn()

		switch frame.Opcode {
		case transport.OpClose:
			c.logger.Info("companion closed the connection", "channel", ch.ID(), "payload", string(frame.Payload))
			c.channelClosed(ch)
			return
		case transport.OpPing:
			if err := framer.WriteFrame(transport.OpPong, frame.Payload); err != nil {
				c.logger.Warn("pong failed", "error", err)
			}
			continue
		case transport.OpPong:
			continue
		}

		env, err := wire.DecodeEnvelope(frame.Payload)
		if err != nil {
			c.logger.Warn("dropping undecodable frame", "channel", ch.ID(), "error", err)
			c.logError("decode", ch.ID(), err)
			continue
		}
		c.dispatch(ch.ID(), env)
	}
}

func (c *Client) dispatch(connID string, env *wire.Envelope) {
	msgType := log.MessageTypeEvent
	if env.IsResponse() {
		msgType = log.MessageTypeResponse
	}
	msg := &log.MessageEvent{
		Type:  msgType,
		Cmd:   string(env.Cmd),
		Event: string(env.Event),
		Nonce: env.Nonce,
	}

	if env.IsError() {
		remote := remoteError(env)
		result := int(remote.Result)
		msg.Result = &result
		c.logMessage(connID, msg)
		c.cfg.Metrics.RemoteError(remote.Result.String())
		c.logger.Warn("remote error", "cmd", env.Cmd, "nonce", env.Nonce, "result", remote.Result, "code", remote.Code, "message", remote.Message)

		if env.Nonce != "" {
			if cb, ok := c.take(env.Nonce); ok {
				c.resolve(cb, env, remote, metrics.OutcomeRemote)
			}
		}
		return
	}
	c.logMessage(connID, msg)

	if env.IsResponse() {
		cb, ok := c.take(env.Nonce)
		if !ok {
			c.logger.Warn("response for unknown nonce", "cmd", env.Cmd, "nonce", env.Nonce)
			return
		}
		c.resolve(cb, env, nil, metrics.OutcomeOK)
		return
	}

	if env.Event == "" {
		c.logger.Debug("dropping message without nonce or event", "cmd", env.Cmd)
		return
	}
	h, ok := c.registry.Lookup(env.Event)
	if !ok {
		c.logger.Debug("no handler for event", "evt", env.Event)
		return
	}
	c.handle(h, env)
}

func (c *Client) handle(h Handler, env *wire.Envelope) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("event handler panicked", "evt", env.Event, "panic", r)
		}
	}()
	if err := h.Handle(env); err != nil {
		c.logger.Warn("event handler failed", "evt", env.Event, "error", err)
	}
}

// take removes and returns the callback registered under nonce.
func (c *Client) take(nonce string) (Callback, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cb, ok := c.outstanding[nonce]
	if ok {
		delete(c.outstanding, nonce)
	}
	return cb, ok
}

func (c *Client) resolve(cb Callback, env *wire.Envelope, err error, outcome string) {
	c.cfg.Metrics.Callback(outcome)
	if cb == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("command callback panicked", "panic", r)
		}
	}()
	cb(env, err)
}

func (c *Client) handleReady(data ReadyData) {
	c.mu.Lock()
	c.user = &data.User
	c.mu.Unlock()
	c.logger.Info("companion ready", "user", data.User.DisplayName(), "version", data.Version)
	c.onReady()
}

func (c *Client) handleUserUpdate(u User) {
	c.mu.Lock()
	c.user = &u
	c.mu.Unlock()
}

// onReady moves to CONNECTED, subscribes the registered events and sends
// the queued commands in order. Commands submitted meanwhile are queued
// behind them.
func (c *Client) onReady() {
	c.mu.Lock()
	if c.state == connection.StateError {
		c.mu.Unlock()
		return
	}
	ch := c.ch
	old := c.state
	c.state = connection.StateConnected
	c.draining = true
	connID := ch.ID()
	c.mu.Unlock()
	c.recordState(connID, old, connection.StateConnected, "READY")

	for _, h := range c.registry.Handlers() {
		if !h.ShouldRegister() {
			continue
		}
		evt := h.Event()
		sub, err := wire.NewSubscribe(evt, h.RegistrationArgs(), c.nextNonce())
		if err == nil {
			err = c.write(ch, sub, func(_ *wire.Envelope, err error) {
				if err != nil {
					c.logger.Warn("subscribe rejected", "evt", evt, "error", err)
				}
			})
		}
		if err != nil {
			c.logger.Warn("subscribe failed", "evt", evt, "error", err)
		}
	}

	for {
		c.mu.Lock()
		if c.ch != ch {
			// A reconnect replaced the channel; its own READY drains the rest.
			c.mu.Unlock()
			return
		}
		if len(c.queue) == 0 {
			c.draining = false
			c.mu.Unlock()
			return
		}
		p := c.queue[0]
		c.queue[0] = nil
		c.queue = c.queue[1:]
		c.mu.Unlock()

		if err := c.write(ch, p.cmd, p.cb); err != nil {
			c.logger.Warn("queued command failed", "cmd", p.cmd.Cmd, "nonce", p.cmd.Nonce, "error", err)
			c.resolve(p.cb, nil, err, metrics.OutcomeFailed)
		}
	}
}

// expireQueued fails queued commands older than the pending timeout.
func (c *Client) expireQueued() {
	if c.cfg.PendingTimeout <= 0 {
		return
	}
	cutoff := time.Now().Add(-c.cfg.PendingTimeout)

	c.mu.Lock()
	if c.draining || len(c.queue) == 0 || c.queue[0].queuedAt.After(cutoff) {
		c.mu.Unlock()
		return
	}
	var expired []*pendingCommand
	kept := c.queue[:0]
	for _, p := range c.queue {
		if p.queuedAt.After(cutoff) {
			kept = append(kept, p)
		} else {
			expired = append(expired, p)
		}
	}
	for i := len(kept); i < len(c.queue); i++ {
		c.queue[i] = nil
	}
	c.queue = kept
	c.mu.Unlock()

	for _, p := range expired {
		c.logger.Warn("queued command expired", "cmd", p.cmd.Cmd, "nonce", p.cmd.Nonce)
		c.cfg.Metrics.CommandExpired()
		c.resolve(p.cb, nil, ErrPendingTimeout, metrics.OutcomeExpired)
	}
}

// channelClosed releases ch and fails the responses that can no longer
// arrive on it. Without READY on ch the queue can never drain, so it fails
// too.
func (c *Client) channelClosed(ch transport.Channel) {
	_ = ch.Close()

	c.mu.Lock()
	if c.ch != ch {
		c.mu.Unlock()
		return
	}
	stale := make([]Callback, 0, len(c.outstanding))
	for _, cb := range c.outstanding {
		stale = append(stale, cb)
	}
	c.outstanding = make(map[string]Callback)
	if c.state == connection.StateHandshake {
		for _, p := range c.queue {
			stale = append(stale, p.cb)
		}
		c.queue = nil
	}
	c.mu.Unlock()

	for _, cb := range stale {
		c.resolve(cb, nil, transport.ErrChannelClosed, metrics.OutcomeClosed)
	}
}

// forget drops the callback of an abandoned command, whether it is still
// queued or already written.
func (c *Client) forget(nonce string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.outstanding, nonce)
	for i, p := range c.queue {
		if p.cmd.Nonce == nonce {
			c.queue = append(c.queue[:i], c.queue[i+1:]...)
			return
		}
	}
}

// fail moves the client to ERROR after a worker I/O failure on ch.
func (c *Client) fail(ch transport.Channel, cause error) {
	c.mu.Lock()
	if c.ch != ch || c.state == connection.StateError || c.closing.Load() {
		c.mu.Unlock()
		return
	}
	old := c.state
	c.state = connection.StateError
	c.err = fmt.Errorf("%w: %w", ErrWorkerFailed, cause)
	waiting := c.takeWaitingLocked()
	err := c.err
	c.mu.Unlock()

	c.logger.Error("receive worker failed", "channel", ch.ID(), "error", cause)
	c.logError("receive", ch.ID(), cause)
	c.cfg.Metrics.WorkerFailed()
	c.recordState(ch.ID(), old, connection.StateError, cause.Error())

	_ = ch.Close()
	c.failAll(waiting, err, metrics.OutcomeFailed)
	c.doneOnce.Do(func() { close(c.done) })
}

// takeWaitingLocked empties the queue and the outstanding map. Queued
// callbacks come first, in order.
func (c *Client) takeWaitingLocked() []Callback {
	waiting := make([]Callback, 0, len(c.queue)+len(c.outstanding))
	for _, p := range c.queue {
		waiting = append(waiting, p.cb)
	}
	for _, cb := range c.outstanding {
		waiting = append(waiting, cb)
	}
	c.queue = nil
	c.outstanding = make(map[string]Callback)
	return waiting
}

func (c *Client) failAll(waiting []Callback, err error, outcome string) {
	for _, cb := range waiting {
		c.resolve(cb, nil, err, outcome)
	}
}

func (c *Client) recordState(connID string, old, next connection.State, reason string) {
	c.cfg.Metrics.ConnectionState(int(next))
	c.plog.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Layer:        log.LayerWire,
		Category:     log.CategoryState,
		ClientID:     c.ClientID(),
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityConnection,
			OldState: old.String(),
			NewState: next.String(),
			Reason:   reason,
		},
	})
}

func (c *Client) logMessage(connID string, msg *log.MessageEvent) {
	c.plog.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Direction:    log.DirectionIn,
		Layer:        log.LayerWire,
		Category:     log.CategoryMessage,
		Message:      msg,
	})
}

func (c *Client) logError(op, connID string, err error) {
	c.plog.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Layer:        log.LayerWire,
		Category:     log.CategoryError,
		Error: &log.ErrorEventData{
			Layer:   log.LayerWire,
			Message: err.Error(),
			Context: op,
		},
	})
}

// Compile-time check that a Client can be supervised.
var _ connection.Session = (*Client)(nil)
