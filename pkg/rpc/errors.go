package rpc

import (
	"errors"
	"fmt"

	"github.com/railroadide/richpresence/pkg/wire"
)

// Client errors.
var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrHandshakeFailed  = errors.New("handshake failed")
	ErrWorkerFailed     = errors.New("receive worker failed")
	ErrClientClosed     = errors.New("client is closed")
	ErrClientFailed     = errors.New("client is in error state")
	ErrReconnectFailed  = errors.New("reconnect failed")
	ErrPendingTimeout   = errors.New("command expired before the handshake completed")
	ErrAlreadyConnected = errors.New("receive worker already running")
	ErrNotConnected     = errors.New("no channel")
)

// RemoteError is the error carried by an ERROR envelope.
type RemoteError struct {
	// Result is the mapped code; ResultUnknown when the code is not known.
	Result wire.Result

	// Code is the raw code as received.
	Code    int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote error: %s (%d)", e.Result, e.Code)
	}
	return fmt.Sprintf("remote error: %s (%d): %s", e.Result, e.Code, e.Message)
}

// IsRemoteError reports whether err is a RemoteError with the given result.
func IsRemoteError(err error, result wire.Result) bool {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Result == result
	}
	return false
}

func remoteError(env *wire.Envelope) *RemoteError {
	data, err := env.ErrorData()
	if err != nil {
		return &RemoteError{Result: wire.ResultUnknown, Message: "undecodable error payload"}
	}
	return &RemoteError{Result: data.Result(), Code: data.Code, Message: data.Message}
}
