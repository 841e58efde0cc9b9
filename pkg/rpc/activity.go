package rpc

import (
	"context"
	"os"

	"github.com/railroadide/richpresence/pkg/activity"
	"github.com/railroadide/richpresence/pkg/wire"
)

// setActivityArgs are the args of SET_ACTIVITY. A nil activity clears the
// presence.
type setActivityArgs struct {
	PID      int                `json:"pid"`
	Activity *activity.Activity `json:"activity"`
}

// ActivityManager publishes presence through a client.
type ActivityManager struct {
	client func() *Client
	pid    int
}

// NewActivityManager publishes through c.
func NewActivityManager(c *Client) *ActivityManager {
	return NewActivityManagerFunc(func() *Client { return c })
}

// NewActivityManagerFunc publishes through whatever client current
// returns at the time of each call. Use it with a supervisor whose client
// may be replaced.
func NewActivityManagerFunc(current func() *Client) *ActivityManager {
	return &ActivityManager{client: current, pid: os.Getpid()}
}

// UpdateActivity validates a and sends it with SET_ACTIVITY.
func (m *ActivityManager) UpdateActivity(ctx context.Context, a *activity.Activity, cb Callback) error {
	if a == nil {
		return m.ClearActivity(ctx, cb)
	}
	if err := a.Validate(); err != nil {
		return err
	}
	return m.send(ctx, a, cb)
}

// ClearActivity removes the presence.
func (m *ActivityManager) ClearActivity(ctx context.Context, cb Callback) error {
	return m.send(ctx, nil, cb)
}

func (m *ActivityManager) send(ctx context.Context, a *activity.Activity, cb Callback) error {
	c := m.client()
	if c == nil {
		return ErrNotConnected
	}
	return c.Send(ctx, wire.CmdSetActivity, setActivityArgs{PID: m.pid, Activity: a}, cb)
}
