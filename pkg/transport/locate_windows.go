//go:build windows

package transport

import (
	"context"
	"errors"
	"io"
	"os"
	"strconv"

	"golang.org/x/sys/windows"
)

// CandidateEndpoints returns the named pipes probed on this platform.
func CandidateEndpoints() []string {
	endpoints := make([]string, 0, CandidateCount)
	for i := 0; i < CandidateCount; i++ {
		endpoints = append(endpoints, `\\.\pipe\`+endpointPrefix+strconv.Itoa(i))
	}
	return endpoints
}

// DialEndpoint opens a named pipe. Pipes opened this way do not support
// deadlines, so reads go through a PumpChannel.
func DialEndpoint(ctx context.Context, endpoint string) (Channel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name, err := windows.UTF16PtrFromString(endpoint)
	if err != nil {
		return nil, err
	}
	h, err := windows.CreateFile(name,
		windows.GENERIC_READ|windows.GENERIC_WRITE,
		0, nil, windows.OPEN_EXISTING, 0, 0)
	if err != nil {
		return nil, &os.PathError{Op: "open", Path: endpoint, Err: err}
	}
	return NewPumpChannel(pipeFile{os.NewFile(uintptr(h), endpoint)}), nil
}

// pipeFile reports a broken or disconnected pipe as end of stream.
type pipeFile struct {
	*os.File
}

func (f pipeFile) Read(p []byte) (int, error) {
	n, err := f.File.Read(p)
	return n, pipeErr(err)
}

func (f pipeFile) Write(p []byte) (int, error) {
	n, err := f.File.Write(p)
	return n, pipeErr(err)
}

func pipeErr(err error) error {
	if errors.Is(err, windows.ERROR_BROKEN_PIPE) ||
		errors.Is(err, windows.ERROR_PIPE_NOT_CONNECTED) ||
		errors.Is(err, windows.ERROR_NO_DATA) {
		return io.EOF
	}
	return err
}
