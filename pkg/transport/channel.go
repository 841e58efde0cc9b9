package transport

import (
	"errors"
	"io"
	"net"
	"os"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Channel errors.
var (
	// ErrChannelClosed indicates the channel was closed by either side.
	ErrChannelClosed = errors.New("channel closed")

	// ErrChannelUnavailable indicates no candidate endpoint accepted a connection.
	ErrChannelUnavailable = errors.New("no IPC endpoint available")
)

// Default channel timings.
const (
	// DefaultReadWait is how long a socket read may wait for data before
	// reporting that none is available.
	DefaultReadWait = 5 * time.Millisecond

	// DefaultWriteWait is how long a socket write may wait before returning
	// whatever it managed to send.
	DefaultWriteWait = 50 * time.Millisecond
)

// Channel is a connected, ordered byte stream to the companion process.
//
// Read returns (0, nil) when no data is available. Write may accept only a
// prefix of p and return (n, nil) with n < len(p). Both return
// ErrChannelClosed once either side has closed the channel.
type Channel interface {
	io.ReadWriteCloser

	// IsOpen reports whether the channel can still carry data.
	IsOpen() bool

	// ID uniquely identifies this channel in protocol logs.
	ID() string
}

// ConnChannel adapts a net.Conn to Channel using short deadlines, so no
// read or write blocks for long.
type ConnChannel struct {
	conn      net.Conn
	id        string
	readWait  time.Duration
	writeWait time.Duration

	// closed is set by either side; released only by Close.
	closed   atomic.Bool
	released atomic.Bool
}

// NewConnChannel wraps conn.
func NewConnChannel(conn net.Conn) *ConnChannel {
	return &ConnChannel{
		conn:      conn,
		id:        uuid.NewString(),
		readWait:  DefaultReadWait,
		writeWait: DefaultWriteWait,
	}
}

// SetWaits overrides the read and write waits.
func (c *ConnChannel) SetWaits(read, write time.Duration) {
	c.readWait = read
	c.writeWait = write
}

// Read reads available bytes, returning (0, nil) if none arrive within the
// read wait.
func (c *ConnChannel) Read(p []byte) (int, error) {
	if c.closed.Load() {
		return 0, ErrChannelClosed
	}
	if err := c.conn.SetReadDeadline(time.Now().Add(c.readWait)); err != nil {
		return 0, c.translate(err)
	}
	n, err := c.conn.Read(p)
	if err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return n, nil
		}
		return n, c.translate(err)
	}
	return n, nil
}

// Write writes as much of p as the peer accepts within the write wait.
func (c *ConnChannel) Write(p []byte) (int, error) {
	if c.closed.Load() {
		return 0, ErrChannelClosed
	}
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeWait)); err != nil {
		return 0, c.translate(err)
	}
	n, err := c.conn.Write(p)
	if err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return n, nil
		}
		return n, c.translate(err)
	}
	return n, nil
}

// Close closes the underlying connection, also after the peer hung up. It
// is safe to call more than once.
func (c *ConnChannel) Close() error {
	c.closed.Store(true)
	if c.released.Swap(true) {
		return nil
	}
	return c.conn.Close()
}

// IsOpen reports whether the channel has not been closed.
func (c *ConnChannel) IsOpen() bool {
	return !c.closed.Load()
}

// ID returns the channel identifier.
func (c *ConnChannel) ID() string {
	return c.id
}

// translate maps end-of-stream errors to ErrChannelClosed and marks the
// channel closed.
func (c *ConnChannel) translate(err error) error {
	if isClosedErr(err) {
		c.closed.Store(true)
		return ErrChannelClosed
	}
	return err
}

func isClosedErr(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, os.ErrClosed) ||
		errors.Is(err, ErrChannelClosed)
}

// Compile-time interface satisfaction checks.
var (
	_ Channel = (*ConnChannel)(nil)
	_ Channel = (*PumpChannel)(nil)
)
