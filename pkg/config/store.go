package config

import (
	"sync"
	"sync/atomic"
	"time"
)

// Listener observes a settings change.
type Listener func(old, updated Settings)

// Store holds the live settings. Reads are lock-free; updates are
// serialized and delivered to listeners in registration order.
type Store struct {
	current atomic.Pointer[Settings]

	mu        sync.Mutex
	listeners []Listener
}

// NewStore creates a store holding s.
func NewStore(s Settings) *Store {
	st := &Store{}
	st.current.Store(&s)
	return st
}

// Get returns a copy of the current settings.
func (s *Store) Get() Settings {
	return *s.current.Load()
}

// ClientID returns the current client id.
func (s *Store) ClientID() string {
	return s.current.Load().ClientID
}

// Reconnect reports whether SET_ACTIVITY may reconnect.
func (s *Store) Reconnect() bool {
	return s.current.Load().Reconnect
}

// HideAfter returns the current idle threshold.
func (s *Store) HideAfter() time.Duration {
	return s.current.Load().HideAfter()
}

// OnChange registers a listener.
func (s *Store) OnChange(fn Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Update applies fn to a copy of the settings, validates the result and
// publishes it. Listeners run after the new settings are visible.
func (s *Store) Update(fn func(*Settings) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old := *s.current.Load()
	updated := old
	if err := fn(&updated); err != nil {
		return err
	}
	if err := updated.Validate(); err != nil {
		return err
	}
	s.current.Store(&updated)

	for _, l := range s.listeners {
		l(old, updated)
	}
	return nil
}

// Set assigns one setting by key.
func (s *Store) Set(key, value string) error {
	return s.Update(func(st *Settings) error {
		return st.Set(key, value)
	})
}

// Replace publishes a complete set of settings, e.g. after a reload.
func (s *Store) Replace(updated Settings) error {
	return s.Update(func(st *Settings) error {
		*st = updated
		return nil
	})
}
