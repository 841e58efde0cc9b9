package transport

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/railroadide/richpresence/pkg/log"
)

// trickleReader hands out at most chunk bytes per call and reports an empty
// read between chunks.
type trickleReader struct {
	data  []byte
	chunk int
	empty bool
}

func (r *trickleReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, io.EOF
	}
	r.empty = !r.empty
	if r.empty {
		return 0, nil
	}
	n := min(r.chunk, len(p), len(r.data))
	copy(p, r.data[:n])
	r.data = r.data[n:]
	return n, nil
}

// stingyWriter accepts at most chunk bytes per call and sometimes none.
type stingyWriter struct {
	bytes.Buffer
	chunk int
	calls int
}

func (w *stingyWriter) Write(p []byte) (int, error) {
	w.calls++
	if w.calls%3 == 0 {
		return 0, nil
	}
	n := min(w.chunk, len(p))
	return w.Buffer.Write(p[:n])
}

type captureLogger struct {
	mu     sync.Mutex
	events []log.Event
}

func (c *captureLogger) Log(e log.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func TestFrameWriterReader(t *testing.T) {
	tests := []struct {
		name    string
		op      Opcode
		payload []byte
	}{
		{name: "empty payload", op: OpFrame, payload: []byte{}},
		{name: "handshake", op: OpHandshake, payload: []byte(`{"v":1,"client_id":"42"}`)},
		{name: "single byte", op: OpPing, payload: []byte{0x42}},
		{name: "medium message", op: OpFrame, payload: bytes.Repeat([]byte("x"), 1000)},
		{name: "64 KiB message", op: OpFrame, payload: bytes.Repeat([]byte("y"), 64*1024)},
		{name: "close", op: OpClose, payload: []byte(`{"code":1000}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := new(bytes.Buffer)

			writer := NewFrameWriter(buf)
			if err := writer.WriteFrame(tt.op, tt.payload); err != nil {
				t.Fatalf("WriteFrame failed: %v", err)
			}

			if buf.Len() != FrameSize(len(tt.payload)) {
				t.Errorf("frame size = %d, want %d", buf.Len(), FrameSize(len(tt.payload)))
			}

			reader := NewFrameReader(buf)
			got, err := reader.ReadFrame()
			if err != nil {
				t.Fatalf("ReadFrame failed: %v", err)
			}
			if got == nil {
				t.Fatal("ReadFrame returned no frame")
			}
			if got.Opcode != tt.op {
				t.Errorf("opcode = %v, want %v", got.Opcode, tt.op)
			}
			if !bytes.Equal(got.Payload, tt.payload) {
				t.Errorf("payload mismatch: got %d bytes, want %d", len(got.Payload), len(tt.payload))
			}
		})
	}
}

func TestFrameRoundTripEveryLength(t *testing.T) {
	const maxLen = 64 * 1024
	step := 1
	if testing.Short() {
		step = 61
	}

	source := make([]byte, maxLen)
	for i := range source {
		source[i] = byte(i % 251)
	}

	var buf bytes.Buffer
	writer := NewFrameWriter(&buf)
	for n := 0; n <= maxLen; n += step {
		buf.Reset()
		if err := writer.WriteFrame(OpFrame, source[:n]); err != nil {
			t.Fatalf("len %d: WriteFrame failed: %v", n, err)
		}
		if got := binary.LittleEndian.Uint32(buf.Bytes()[4:8]); got != uint32(n) {
			t.Fatalf("len %d: declared length = %d", n, got)
		}

		f, err := NewFrameReader(&buf).ReadFrame()
		if err != nil {
			t.Fatalf("len %d: ReadFrame failed: %v", n, err)
		}
		if f == nil || !bytes.Equal(f.Payload, source[:n]) {
			t.Fatalf("len %d: payload mismatch", n)
		}
		if buf.Len() != 0 {
			t.Fatalf("len %d: %d bytes left over", n, buf.Len())
		}
	}
}

func FuzzFrameRoundTrip(f *testing.F) {
	f.Add(uint32(0), []byte(`{"v":1,"client_id":"42"}`))
	f.Add(uint32(1), []byte{})
	f.Add(uint32(3), bytes.Repeat([]byte{0xff}, 4096))

	f.Fuzz(func(t *testing.T, op uint32, payload []byte) {
		if len(payload) > 64*1024 {
			t.Skip()
		}
		want := Opcode(op % 5)
		frame := EncodeFrame(want, payload)
		if got := binary.LittleEndian.Uint32(frame[4:8]); got != uint32(len(payload)) {
			t.Fatalf("declared length = %d, want %d", got, len(payload))
		}

		reader := NewFrameReader(&trickleReader{data: frame, chunk: 7 + len(payload)/16})
		var got *Frame
		for got == nil {
			var err error
			if got, err = reader.ReadFrame(); err != nil {
				t.Fatalf("ReadFrame failed: %v", err)
			}
		}
		if got.Opcode != want {
			t.Errorf("opcode = %v, want %v", got.Opcode, want)
		}
		if !bytes.Equal(got.Payload, payload) {
			t.Errorf("payload mismatch: got %d bytes, want %d", len(got.Payload), len(payload))
		}
	})
}

func TestEncodeFrameLayout(t *testing.T) {
	frame := EncodeFrame(OpFrame, []byte("abc"))

	if got := binary.LittleEndian.Uint32(frame[0:4]); got != 1 {
		t.Errorf("opcode field = %d, want 1", got)
	}
	if got := binary.LittleEndian.Uint32(frame[4:8]); got != 3 {
		t.Errorf("length field = %d, want 3", got)
	}
	if string(frame[8:]) != "abc" {
		t.Errorf("payload = %q, want %q", frame[8:], "abc")
	}
}

func TestDecodeHeaderErrors(t *testing.T) {
	if _, _, err := DecodeHeader(make([]byte, 4)); !errors.Is(err, ErrInvalidHeader) {
		t.Errorf("short header: expected ErrInvalidHeader, got %v", err)
	}

	h := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(h[4:8], 0xFFFFFFFF)
	if _, _, err := DecodeHeader(h); !errors.Is(err, ErrInvalidHeader) {
		t.Errorf("negative length: expected ErrInvalidHeader, got %v", err)
	}
}

func TestFrameReaderAccumulatesPartialReads(t *testing.T) {
	payload := bytes.Repeat([]byte("z"), 300)
	r := &trickleReader{data: EncodeFrame(OpFrame, payload), chunk: 7}

	reader := NewFrameReader(r)

	// The trickle reader starts with an empty read: no frame yet.
	f, err := reader.ReadFrame()
	if err != nil || f != nil {
		t.Fatalf("first ReadFrame = (%v, %v), want (nil, nil)", f, err)
	}

	f, err = reader.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}
	if f == nil || !bytes.Equal(f.Payload, payload) {
		t.Fatal("payload not reassembled")
	}
}

func TestFrameReaderNoData(t *testing.T) {
	reader := NewFrameReader(readerFunc(func([]byte) (int, error) { return 0, nil }))

	f, err := reader.ReadFrame()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f != nil {
		t.Errorf("expected no frame, got %+v", f)
	}
}

func TestFrameReaderTruncated(t *testing.T) {
	frame := EncodeFrame(OpFrame, []byte("hello world"))
	reader := NewFrameReader(bytes.NewReader(frame[:12]))

	_, err := reader.ReadFrame()
	if !errors.Is(err, ErrFrameTruncated) {
		t.Errorf("expected ErrFrameTruncated, got %v", err)
	}
}

func TestFrameReaderStalledFrameTimesOut(t *testing.T) {
	first := true
	reader := NewFrameReader(readerFunc(func(p []byte) (int, error) {
		if first {
			first = false
			p[0] = 1
			return 1, nil
		}
		return 0, nil
	}))
	reader.SetTimeout(20 * time.Millisecond)

	_, err := reader.ReadFrame()
	if !errors.Is(err, ErrFrameTruncated) {
		t.Errorf("expected ErrFrameTruncated, got %v", err)
	}
}

func TestFrameReaderMaxPayload(t *testing.T) {
	frame := EncodeFrame(OpFrame, bytes.Repeat([]byte("a"), 100))
	reader := NewFrameReader(bytes.NewReader(frame))
	reader.SetMaxPayloadSize(50)

	_, err := reader.ReadFrame()
	if !errors.Is(err, ErrMessageTooLarge) {
		t.Errorf("expected ErrMessageTooLarge, got %v", err)
	}
}

func TestFrameWriterPartialWrites(t *testing.T) {
	w := &stingyWriter{chunk: 5}
	writer := NewFrameWriter(w)

	payload := []byte(`{"cmd":"SET_ACTIVITY","nonce":"1"}`)
	if err := writer.WriteFrame(OpFrame, payload); err != nil {
		t.Fatalf("WriteFrame failed: %v", err)
	}
	if !bytes.Equal(w.Bytes(), EncodeFrame(OpFrame, payload)) {
		t.Error("written bytes do not match encoded frame")
	}
}

func TestFrameWriterStalls(t *testing.T) {
	writer := NewFrameWriter(writerFunc(func([]byte) (int, error) { return 0, nil }))
	writer.SetTimeout(10 * time.Millisecond)

	if err := writer.WriteFrame(OpFrame, []byte("x")); !errors.Is(err, ErrWriteStalled) {
		t.Errorf("expected ErrWriteStalled, got %v", err)
	}
}

func TestFrameWriterTooLarge(t *testing.T) {
	writer := NewFrameWriter(new(bytes.Buffer))

	err := writer.WriteFrame(OpFrame, make([]byte, DefaultMaxPayloadSize+1))
	if !errors.Is(err, ErrMessageTooLarge) {
		t.Errorf("expected ErrMessageTooLarge, got %v", err)
	}
}

func TestFramerLogsBothDirections(t *testing.T) {
	buf := new(bytes.Buffer)
	framer := NewFramer(buf)
	logger := &captureLogger{}
	framer.SetLogger(logger, "conn-1")

	big := bytes.Repeat([]byte("q"), MaxLogFrameDataSize+10)
	if err := framer.WriteFrame(OpFrame, big); err != nil {
		t.Fatalf("WriteFrame failed: %v", err)
	}
	if _, err := framer.ReadFrame(); err != nil {
		t.Fatalf("ReadFrame failed: %v", err)
	}

	if len(logger.events) != 2 {
		t.Fatalf("logged %d events, want 2", len(logger.events))
	}
	out, in := logger.events[0], logger.events[1]
	if out.Direction != log.DirectionOut || in.Direction != log.DirectionIn {
		t.Errorf("directions = %v, %v", out.Direction, in.Direction)
	}
	if !out.Frame.Truncated || len(out.Frame.Data) != MaxLogFrameDataSize {
		t.Errorf("frame data not truncated: %d bytes", len(out.Frame.Data))
	}
	if out.Frame.Size != FrameSize(len(big)) {
		t.Errorf("frame size = %d, want %d", out.Frame.Size, FrameSize(len(big)))
	}
	if in.ConnectionID != "conn-1" {
		t.Errorf("connection id = %q", in.ConnectionID)
	}
}

func TestOpcodeString(t *testing.T) {
	if OpHandshake.String() != "HANDSHAKE" || OpPong.String() != "PONG" {
		t.Error("unexpected opcode names")
	}
	if Opcode(9).String() != "OPCODE(9)" {
		t.Errorf("unknown opcode = %q", Opcode(9).String())
	}
}

type readerFunc func([]byte) (int, error)

func (f readerFunc) Read(p []byte) (int, error) { return f(p) }

type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }
