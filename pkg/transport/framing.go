package transport

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/railroadide/richpresence/pkg/log"
)

// Framing constants.
const (
	// HeaderSize is the size of the opcode + length header in bytes.
	HeaderSize = 8

	// DefaultMaxPayloadSize is the default maximum payload size (1 MiB).
	DefaultMaxPayloadSize = 1 << 20

	// DefaultFrameTimeout bounds how long a started frame may take to
	// arrive or leave completely.
	DefaultFrameTimeout = 5 * time.Second

	// DefaultRetryWait is the pause between attempts when a read or write
	// makes no progress.
	DefaultRetryWait = time.Millisecond

	// MaxLogFrameDataSize is the maximum frame data size to include in logs (4 KB).
	MaxLogFrameDataSize = 4096
)

// Opcode tells the receiver how to interpret a frame.
type Opcode uint32

const (
	OpHandshake Opcode = 0
	OpFrame     Opcode = 1
	OpClose     Opcode = 2
	OpPing      Opcode = 3
	OpPong      Opcode = 4
)

// String returns the opcode name.
func (o Opcode) String() string {
	switch o {
	case OpHandshake:
		return "HANDSHAKE"
	case OpFrame:
		return "FRAME"
	case OpClose:
		return "CLOSE"
	case OpPing:
		return "PING"
	case OpPong:
		return "PONG"
	default:
		return fmt.Sprintf("OPCODE(%d)", uint32(o))
	}
}

// Framing errors.
var (
	// ErrMessageTooLarge indicates the payload exceeds the maximum size.
	ErrMessageTooLarge = errors.New("message too large")

	// ErrFrameTruncated indicates a started frame did not complete.
	ErrFrameTruncated = errors.New("frame truncated")

	// ErrWriteStalled indicates a frame could not be written completely in time.
	ErrWriteStalled = errors.New("write stalled")

	// ErrInvalidHeader indicates a header that cannot describe a frame.
	ErrInvalidHeader = errors.New("invalid frame header")
)

// Frame is one decoded wire message.
type Frame struct {
	Opcode  Opcode
	Payload []byte
}

// EncodeFrame returns the header followed by payload.
func EncodeFrame(op Opcode, payload []byte) []byte {
	buf := make([]byte, HeaderSize+len(payload))
	binary.LittleEndian.PutUint32(buf[0:4], uint32(op))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(payload)))
	copy(buf[HeaderSize:], payload)
	return buf
}

// DecodeHeader parses an 8-byte header.
func DecodeHeader(b []byte) (Opcode, int, error) {
	if len(b) != HeaderSize {
		return 0, 0, fmt.Errorf("%w: %d bytes", ErrInvalidHeader, len(b))
	}
	op := binary.LittleEndian.Uint32(b[0:4])
	length := binary.LittleEndian.Uint32(b[4:8])
	if length > math.MaxInt32 {
		return 0, 0, fmt.Errorf("%w: negative length", ErrInvalidHeader)
	}
	return Opcode(op), int(length), nil
}

// FrameSize returns the total frame size including the header.
func FrameSize(payloadSize int) int {
	return HeaderSize + payloadSize
}

// FrameWriter writes frames, finishing partial writes.
// Thread-safe: can be called from multiple goroutines.
type FrameWriter struct {
	w              io.Writer
	maxPayloadSize int
	timeout        time.Duration
	retryWait      time.Duration
	mu             sync.Mutex

	// Logging support (optional)
	logger log.Logger
	connID string
}

// NewFrameWriter creates a new frame writer.
func NewFrameWriter(w io.Writer) *FrameWriter {
	return &FrameWriter{
		w:              w,
		maxPayloadSize: DefaultMaxPayloadSize,
		timeout:        DefaultFrameTimeout,
		retryWait:      DefaultRetryWait,
	}
}

// SetLogger configures logging for this writer.
// Pass nil to disable logging.
func (fw *FrameWriter) SetLogger(logger log.Logger, connID string) {
	fw.logger = logger
	fw.connID = connID
}

// SetTimeout bounds how long a single frame may take to write.
func (fw *FrameWriter) SetTimeout(d time.Duration) {
	fw.timeout = d
}

// WriteFrame writes one frame. The writer may accept the bytes in several
// pieces; WriteFrame keeps going until all of them are out.
func (fw *FrameWriter) WriteFrame(op Opcode, payload []byte) error {
	if len(payload) > fw.maxPayloadSize {
		return fmt.Errorf("%w: %d > %d", ErrMessageTooLarge, len(payload), fw.maxPayloadSize)
	}
	buf := EncodeFrame(op, payload)

	fw.mu.Lock()
	defer fw.mu.Unlock()

	deadline := time.Now().Add(fw.timeout)
	for len(buf) > 0 {
		n, err := fw.w.Write(buf)
		buf = buf[n:]
		if err != nil {
			return fmt.Errorf("failed to write frame: %w", err)
		}
		if n == 0 && len(buf) > 0 {
			if time.Now().After(deadline) {
				return ErrWriteStalled
			}
			time.Sleep(fw.retryWait)
		}
	}

	if fw.logger != nil {
		fw.logger.Log(makeFrameEvent(fw.connID, op, payload, log.DirectionOut))
	}
	return nil
}

// FrameReader reads frames from a reader that may return partial or empty
// reads.
type FrameReader struct {
	r              io.Reader
	maxPayloadSize int
	timeout        time.Duration
	retryWait      time.Duration
	header         [HeaderSize]byte

	// Logging support (optional)
	logger log.Logger
	connID string
}

// NewFrameReader creates a new frame reader.
func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{
		r:              r,
		maxPayloadSize: DefaultMaxPayloadSize,
		timeout:        DefaultFrameTimeout,
		retryWait:      DefaultRetryWait,
	}
}

// SetLogger configures logging for this reader.
// Pass nil to disable logging.
func (fr *FrameReader) SetLogger(logger log.Logger, connID string) {
	fr.logger = logger
	fr.connID = connID
}

// SetTimeout bounds how long a started frame may take to arrive.
func (fr *FrameReader) SetTimeout(d time.Duration) {
	fr.timeout = d
}

// SetMaxPayloadSize updates the maximum payload size.
func (fr *FrameReader) SetMaxPayloadSize(size int) {
	fr.maxPayloadSize = size
}

// ReadFrame reads one frame. It returns (nil, nil) when no header byte is
// available yet.
func (fr *FrameReader) ReadFrame() (*Frame, error) {
	n, err := fr.r.Read(fr.header[:])
	if err != nil && n == 0 {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}

	deadline := time.Now().Add(fr.timeout)
	if err := fr.fill(fr.header[n:], deadline); err != nil {
		return nil, err
	}

	op, length, err := DecodeHeader(fr.header[:])
	if err != nil {
		return nil, err
	}
	if length > fr.maxPayloadSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrMessageTooLarge, length, fr.maxPayloadSize)
	}

	payload := make([]byte, length)
	if err := fr.fill(payload, deadline); err != nil {
		return nil, err
	}

	if fr.logger != nil {
		fr.logger.Log(makeFrameEvent(fr.connID, op, payload, log.DirectionIn))
	}

	return &Frame{Opcode: op, Payload: payload}, nil
}

// fill reads until buf is full, tolerating empty reads until deadline.
func (fr *FrameReader) fill(buf []byte, deadline time.Time) error {
	for len(buf) > 0 {
		n, err := fr.r.Read(buf)
		buf = buf[n:]
		if err != nil {
			if len(buf) == 0 {
				return nil
			}
			return fmt.Errorf("%w: %w", ErrFrameTruncated, err)
		}
		if n == 0 {
			if time.Now().After(deadline) {
				return ErrFrameTruncated
			}
			time.Sleep(fr.retryWait)
		}
	}
	return nil
}

// Framer combines frame reading and writing over one channel.
type Framer struct {
	*FrameReader
	*FrameWriter
}

// NewFramer creates a new framer for bidirectional communication.
func NewFramer(rw io.ReadWriter) *Framer {
	return &Framer{
		FrameReader: NewFrameReader(rw),
		FrameWriter: NewFrameWriter(rw),
	}
}

// SetLogger configures logging for both reader and writer.
// Pass nil to disable logging.
func (f *Framer) SetLogger(logger log.Logger, connID string) {
	f.FrameReader.SetLogger(logger, connID)
	f.FrameWriter.SetLogger(logger, connID)
}

// makeFrameEvent creates a log event for a frame.
func makeFrameEvent(connID string, op Opcode, payload []byte, direction log.Direction) log.Event {
	data := payload
	truncated := false
	if len(data) > MaxLogFrameDataSize {
		data = data[:MaxLogFrameDataSize]
		truncated = true
	}

	return log.Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Direction:    direction,
		Layer:        log.LayerTransport,
		Category:     log.CategoryMessage,
		Frame: &log.FrameEvent{
			Opcode:    uint32(op),
			Size:      FrameSize(len(payload)),
			Data:      data,
			Truncated: truncated,
		},
	}
}
