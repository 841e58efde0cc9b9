package transport

import (
	"bytes"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func readFrameWithin(t *testing.T, r *FrameReader, d time.Duration) *Frame {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		f, err := r.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame failed: %v", err)
		}
		if f != nil {
			return f
		}
	}
	t.Fatal("timed out waiting for frame")
	return nil
}

func TestConnChannelNonBlockingRead(t *testing.T) {
	a, b := net.Pipe()
	ch := NewConnChannel(a)
	defer ch.Close()
	defer b.Close()

	buf := make([]byte, 16)
	n, err := ch.Read(buf)
	if err != nil || n != 0 {
		t.Errorf("Read on idle channel = (%d, %v), want (0, nil)", n, err)
	}
}

func TestConnChannelFramesOverPipe(t *testing.T) {
	a, b := net.Pipe()
	client := NewConnChannel(a)
	server := NewConnChannel(b)
	defer client.Close()
	defer server.Close()

	payload := bytes.Repeat([]byte("p"), 10_000)

	var wg sync.WaitGroup
	wg.Add(1)
	var writeErr error
	go func() {
		defer wg.Done()
		writeErr = NewFrameWriter(client).WriteFrame(OpFrame, payload)
	}()

	f := readFrameWithin(t, NewFrameReader(server), 2*time.Second)
	wg.Wait()

	if writeErr != nil {
		t.Fatalf("WriteFrame failed: %v", writeErr)
	}
	if !bytes.Equal(f.Payload, payload) {
		t.Error("payload mismatch")
	}
}

func TestConnChannelPeerClose(t *testing.T) {
	a, b := net.Pipe()
	ch := NewConnChannel(a)
	b.Close()

	_, err := ch.Read(make([]byte, 8))
	if !errors.Is(err, ErrChannelClosed) {
		t.Errorf("expected ErrChannelClosed, got %v", err)
	}
	if ch.IsOpen() {
		t.Error("channel should report closed after peer close")
	}
}

func TestConnChannelCloseAfterPeerHangup(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("loopback unavailable: %v", err)
	}
	defer ln.Close()

	go func() {
		if conn, err := ln.Accept(); err == nil {
			conn.Close()
		}
	}()

	conn, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	ch := NewConnChannel(conn)

	deadline := time.Now().Add(2 * time.Second)
	for {
		_, err := ch.Read(make([]byte, 8))
		if errors.Is(err, ErrChannelClosed) {
			break
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if time.Now().After(deadline) {
			t.Fatal("peer hangup never observed")
		}
	}

	// The connection is still ours to release.
	if err := conn.SetDeadline(time.Now()); err != nil {
		t.Fatalf("connection closed before Close: %v", err)
	}
	if err := ch.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := conn.SetDeadline(time.Now()); !errors.Is(err, net.ErrClosed) {
		t.Errorf("SetDeadline after Close = %v, want net.ErrClosed", err)
	}
}

func TestConnChannelCloseIdempotent(t *testing.T) {
	a, b := net.Pipe()
	defer b.Close()
	ch := NewConnChannel(a)

	if err := ch.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := ch.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
	if _, err := ch.Write([]byte("x")); !errors.Is(err, ErrChannelClosed) {
		t.Errorf("Write after Close: expected ErrChannelClosed, got %v", err)
	}
	if ch.ID() == "" {
		t.Error("channel id should not be empty")
	}
}

// blockingStream is a ReadWriteCloser whose reads block until data or close.
type blockingStream struct {
	r *io.PipeReader
	w *io.PipeWriter

	mu      sync.Mutex
	written bytes.Buffer
	closed  atomic.Bool
}

func newBlockingStream() *blockingStream {
	r, w := io.Pipe()
	return &blockingStream{r: r, w: w}
}

func (s *blockingStream) Read(p []byte) (int, error) { return s.r.Read(p) }

func (s *blockingStream) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.written.Write(p)
}

func (s *blockingStream) Close() error {
	s.closed.Store(true)
	return s.r.Close()
}

func TestPumpChannel(t *testing.T) {
	stream := newBlockingStream()
	ch := NewPumpChannel(stream)
	defer ch.Close()

	n, err := ch.Read(make([]byte, 8))
	if n != 0 || err != nil {
		t.Errorf("idle Read = (%d, %v), want (0, nil)", n, err)
	}

	go stream.w.Write(EncodeFrame(OpFrame, []byte(`{"evt":"READY"}`)))

	f := readFrameWithin(t, NewFrameReader(ch), 2*time.Second)
	if string(f.Payload) != `{"evt":"READY"}` {
		t.Errorf("payload = %q", f.Payload)
	}

	if _, err := ch.Write([]byte("out")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	stream.mu.Lock()
	got := stream.written.String()
	stream.mu.Unlock()
	if got != "out" {
		t.Errorf("written = %q, want %q", got, "out")
	}
}

func TestPumpChannelPeerClose(t *testing.T) {
	stream := newBlockingStream()
	ch := NewPumpChannel(stream)

	stream.w.Close()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		_, err := ch.Read(make([]byte, 8))
		if errors.Is(err, ErrChannelClosed) {
			if ch.IsOpen() {
				t.Error("channel should report closed")
			}
			if stream.closed.Load() {
				t.Fatal("stream released before Close")
			}
			if err := ch.Close(); err != nil {
				t.Fatalf("Close failed: %v", err)
			}
			if !stream.closed.Load() {
				t.Error("Close did not release the stream after peer close")
			}
			return
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("pump never observed close")
}
