//go:build !windows

package transport

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"strconv"
)

// CandidateEndpoints returns the socket paths probed on this platform.
func CandidateEndpoints() []string {
	dir := socketDir()
	endpoints := make([]string, 0, CandidateCount)
	for i := 0; i < CandidateCount; i++ {
		endpoints = append(endpoints, filepath.Join(dir, endpointPrefix+strconv.Itoa(i)))
	}
	return endpoints
}

func socketDir() string {
	for _, key := range []string{"XDG_RUNTIME_DIR", "TMPDIR", "TMP", "TEMP"} {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return "/tmp"
}

// DialEndpoint connects to a unix socket.
func DialEndpoint(ctx context.Context, endpoint string) (Channel, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", endpoint)
	if err != nil {
		return nil, err
	}
	return NewConnChannel(conn), nil
}
