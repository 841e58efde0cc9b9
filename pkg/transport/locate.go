package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// CandidateCount is the number of endpoints probed by Locate.
const CandidateCount = 10

// endpointPrefix is the base name shared by all candidate endpoints.
const endpointPrefix = "discord-ipc-"

// DialFunc opens a channel to one endpoint.
type DialFunc func(ctx context.Context, endpoint string) (Channel, error)

// Locator finds the companion's endpoint.
type Locator struct {
	// Candidates lists endpoints in probe order. Default: CandidateEndpoints.
	Candidates func() []string

	// Dial opens one endpoint. Default: DialEndpoint.
	Dial DialFunc

	// Logger receives one debug line per rejected candidate. Default: slog.Default().
	Logger *slog.Logger
}

// Locate connects to the first candidate that accepts. It fails with an
// error wrapping ErrChannelUnavailable if none do.
func (l *Locator) Locate(ctx context.Context) (Channel, error) {
	candidates := CandidateEndpoints
	if l != nil && l.Candidates != nil {
		candidates = l.Candidates
	}
	dial := DialEndpoint
	if l != nil && l.Dial != nil {
		dial = l.Dial
	}
	logger := slog.Default()
	if l != nil && l.Logger != nil {
		logger = l.Logger
	}

	lastErr := errors.New("no candidate endpoints")
	for _, endpoint := range candidates() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ch, err := dial(ctx, endpoint)
		if err == nil {
			logger.Debug("ipc endpoint accepted", "endpoint", endpoint, "channel", ch.ID())
			return ch, nil
		}
		logger.Debug("ipc endpoint rejected", "endpoint", endpoint, "error", err)
		lastErr = err
	}
	return nil, fmt.Errorf("%w: %w", ErrChannelUnavailable, lastErr)
}

// Locate connects using the platform defaults.
func Locate(ctx context.Context) (Channel, error) {
	var l Locator
	return l.Locate(ctx)
}
