package transport

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// pumpBufferSize is the read size of the pump goroutine.
const pumpBufferSize = 4096

// PumpChannel adapts a blocking io.ReadWriteCloser, such as a Windows named
// pipe without overlapped I/O, to Channel. A background goroutine drains
// the stream into a buffer and Read serves from that buffer without
// blocking.
type PumpChannel struct {
	rwc io.ReadWriteCloser
	id  string

	mu      sync.Mutex
	buf     bytes.Buffer
	readErr error

	closed   atomic.Bool
	released atomic.Bool
}

// NewPumpChannel wraps rwc and starts its pump goroutine. The goroutine
// exits when rwc returns an error, which Close guarantees.
func NewPumpChannel(rwc io.ReadWriteCloser) *PumpChannel {
	c := &PumpChannel{
		rwc: rwc,
		id:  uuid.NewString(),
	}
	go c.pump()
	return c
}

func (c *PumpChannel) pump() {
	b := make([]byte, pumpBufferSize)
	for {
		n, err := c.rwc.Read(b)

		c.mu.Lock()
		c.buf.Write(b[:n])
		if err != nil {
			c.readErr = err
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()
	}
}

// Read returns buffered bytes, or (0, nil) if none are buffered yet.
func (c *PumpChannel) Read(p []byte) (int, error) {
	if c.closed.Load() {
		return 0, ErrChannelClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.buf.Len() > 0 {
		return c.buf.Read(p)
	}
	if c.readErr != nil {
		if isClosedErr(c.readErr) {
			c.closed.Store(true)
			return 0, ErrChannelClosed
		}
		return 0, fmt.Errorf("pump read: %w", c.readErr)
	}
	return 0, nil
}

// Write passes p to the underlying stream.
func (c *PumpChannel) Write(p []byte) (int, error) {
	if c.closed.Load() {
		return 0, ErrChannelClosed
	}
	n, err := c.rwc.Write(p)
	if err != nil && isClosedErr(err) {
		c.closed.Store(true)
		return n, ErrChannelClosed
	}
	return n, err
}

// Close closes the underlying stream, also after the peer hung up. It is
// safe to call more than once.
func (c *PumpChannel) Close() error {
	c.closed.Store(true)
	if c.released.Swap(true) {
		return nil
	}
	return c.rwc.Close()
}

// IsOpen reports whether the channel has not been closed.
func (c *PumpChannel) IsOpen() bool {
	return !c.closed.Load()
}

// ID returns the channel identifier.
func (c *PumpChannel) ID() string {
	return c.id
}
