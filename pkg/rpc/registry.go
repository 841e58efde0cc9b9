package rpc

import (
	"fmt"
	"sort"
	"sync"

	"github.com/railroadide/richpresence/pkg/wire"
)

// Handler consumes one kind of inbound event.
type Handler interface {
	// Event is the event kind this handler consumes.
	Event() wire.Event

	// ShouldRegister reports whether a SUBSCRIBE is sent for the event
	// once the client is connected.
	ShouldRegister() bool

	// RegistrationArgs are the SUBSCRIBE args. Nil sends {}.
	RegistrationArgs() any

	// Handle decodes the envelope's data and acts on it.
	Handle(env *wire.Envelope) error
}

// Registry maps event kinds to handlers. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	handlers map[wire.Event]Handler
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[wire.Event]Handler)}
}

// Register adds h, replacing any handler for the same event. ERROR
// envelopes are handled by the client itself and cannot be registered.
// Replacing the client's READY handler keeps it in HANDSHAKE forever.
func (r *Registry) Register(h Handler) error {
	if h == nil || h.Event() == "" {
		return fmt.Errorf("%w: handler without event", ErrInvalidArgument)
	}
	if h.Event() == wire.EventError {
		return fmt.Errorf("%w: ERROR is handled by the client", ErrInvalidArgument)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[h.Event()] = h
	return nil
}

// Unregister removes the handler for evt.
func (r *Registry) Unregister(evt wire.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handlers, evt)
}

// Lookup returns the handler for evt.
func (r *Registry) Lookup(evt wire.Event) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[evt]
	return h, ok
}

// Handlers returns every handler, ordered by event name.
func (r *Registry) Handlers() []Handler {
	r.mu.RLock()
	out := make([]Handler, 0, len(r.handlers))
	for _, h := range r.handlers {
		out = append(out, h)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Event() < out[j].Event() })
	return out
}

// HandlerOption configures a handler built by On.
type HandlerOption func(*handlerConfig)

type handlerConfig struct {
	subscribe bool
	args      any
}

// WithoutSubscription stops the client from sending SUBSCRIBE for the
// event. Use it for events the companion sends unasked.
func WithoutSubscription() HandlerOption {
	return func(c *handlerConfig) { c.subscribe = false }
}

// WithArgs sets the SUBSCRIBE args.
func WithArgs(args any) HandlerOption {
	return func(c *handlerConfig) { c.args = args }
}

type typedHandler[T any] struct {
	event wire.Event
	cfg   handlerConfig
	fn    func(T)
}

// On returns a handler that decodes the event's data into T and passes
// it to fn. By default the client subscribes to the event.
func On[T any](evt wire.Event, fn func(T), opts ...HandlerOption) Handler {
	cfg := handlerConfig{subscribe: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &typedHandler[T]{event: evt, cfg: cfg, fn: fn}
}

func (h *typedHandler[T]) Event() wire.Event     { return h.event }
func (h *typedHandler[T]) ShouldRegister() bool  { return h.cfg.subscribe }
func (h *typedHandler[T]) RegistrationArgs() any { return h.cfg.args }

func (h *typedHandler[T]) Handle(env *wire.Envelope) error {
	var v T
	if err := env.DecodeData(&v); err != nil {
		return fmt.Errorf("decode %s data: %w", h.event, err)
	}
	h.fn(v)
	return nil
}
