package presence

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/railroadide/richpresence/pkg/activity"
	"github.com/railroadide/richpresence/pkg/log"
	"github.com/railroadide/richpresence/pkg/rpc"
)

// call is one downstream request seen by the recording publisher.
type call struct {
	op       string
	activity *activity.Activity
}

type recordingPublisher struct {
	mu    sync.Mutex
	calls []call
	ch    chan call
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{ch: make(chan call, 64)}
}

func (p *recordingPublisher) UpdateActivity(_ context.Context, a *activity.Activity, _ rpc.Callback) error {
	p.record(call{op: "update", activity: a.Clone()})
	return nil
}

func (p *recordingPublisher) ClearActivity(context.Context, rpc.Callback) error {
	p.record(call{op: "clear"})
	return nil
}

func (p *recordingPublisher) record(c call) {
	p.mu.Lock()
	p.calls = append(p.calls, c)
	p.mu.Unlock()
	p.ch <- c
}

func (p *recordingPublisher) count(op string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, c := range p.calls {
		if c.op == op {
			n++
		}
	}
	return n
}

// next waits for the next downstream call.
func (p *recordingPublisher) next(t *testing.T, timeout time.Duration) call {
	t.Helper()
	select {
	case c := <-p.ch:
		return c
	case <-time.After(timeout):
		t.Fatal("no downstream call")
		return call{}
	}
}

// quiet asserts that no downstream call arrives within d.
func (p *recordingPublisher) quiet(t *testing.T, d time.Duration) {
	t.Helper()
	select {
	case c := <-p.ch:
		t.Fatalf("unexpected %s call", c.op)
	case <-time.After(d):
	}
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) UpdateActivity(ctx context.Context, a *activity.Activity, cb rpc.Callback) error {
	args := m.Called(ctx, a, cb)
	return args.Error(0)
}

func (m *mockPublisher) ClearActivity(ctx context.Context, cb rpc.Callback) error {
	args := m.Called(ctx, cb)
	return args.Error(0)
}

// threshold is a concurrently adjustable idle threshold.
type threshold struct {
	d atomic.Int64
}

func newThreshold(d time.Duration) *threshold {
	t := &threshold{}
	t.set(d)
	return t
}

func (t *threshold) set(d time.Duration) {
	t.d.Store(int64(d))
}

func (t *threshold) get() time.Duration {
	return time.Duration(t.d.Load())
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func editing(file string) *activity.Activity {
	return &activity.Activity{Type: activity.TypePlaying, Details: "Editing " + file}
}

func newController(t *testing.T, pub Publisher, src InteractionSource, th *threshold, opts ...Option) *Controller {
	t.Helper()
	opts = append([]Option{WithLogger(discard())}, opts...)
	c := New(pub, src, th.get, opts...)
	c.Start()
	t.Cleanup(c.Shutdown)
	return c
}

func TestHideAndRestore(t *testing.T) {
	pub := newRecordingPublisher()
	th := newThreshold(30 * time.Millisecond)
	c := newController(t, pub, nil, th)

	a := editing("main.go")
	require.NoError(t, c.Publish(context.Background(), a))
	first := pub.next(t, time.Second)
	assert.Equal(t, "update", first.op)
	assert.Equal(t, a.Details, first.activity.Details)
	assert.Equal(t, StateVisible, c.State())

	// Idle for the threshold: cleared on screen, still remembered.
	assert.Equal(t, "clear", pub.next(t, time.Second).op)
	assert.True(t, c.Hidden())
	assert.Equal(t, StateHidden, c.State())
	require.NotNil(t, c.LastKnown())
	assert.Equal(t, a.Details, c.LastKnown().Details)

	c.MarkInteraction()
	restored := pub.next(t, time.Second)
	assert.Equal(t, "update", restored.op)
	assert.Equal(t, a.Details, restored.activity.Details)
	assert.False(t, c.Hidden())

	// Hidden again, then a new publish shows B straight away.
	assert.Equal(t, "clear", pub.next(t, time.Second).op)
	require.True(t, c.Hidden())

	b := editing("README.md")
	require.NoError(t, c.Publish(context.Background(), b))
	shown := pub.next(t, time.Second)
	assert.Equal(t, "update", shown.op)
	assert.Equal(t, b.Details, shown.activity.Details)
	assert.False(t, c.Hidden())
	assert.Equal(t, b.Details, c.LastKnown().Details)
}

func TestStaleGenerationDoesNotHide(t *testing.T) {
	pub := newRecordingPublisher()
	th := newThreshold(time.Hour)
	c := newController(t, pub, nil, th)

	require.NoError(t, c.Publish(context.Background(), editing("main.go")))
	pub.next(t, time.Second)

	c.mu.Lock()
	stale := c.generation
	c.mu.Unlock()

	c.MarkInteraction()
	c.hide(stale)
	assert.False(t, c.Hidden())
	assert.Equal(t, 0, pub.count("clear"))

	c.mu.Lock()
	current := c.generation
	c.mu.Unlock()

	c.hide(current)
	assert.True(t, c.Hidden())
	assert.Equal(t, 1, pub.count("clear"))

	// A second fire of the same generation is a no-op.
	c.hide(current)
	assert.Equal(t, 1, pub.count("clear"))
}

func TestInteractionSlidesIdleWindow(t *testing.T) {
	pub := newRecordingPublisher()
	th := newThreshold(200 * time.Millisecond)
	c := newController(t, pub, nil, th)

	start := time.Now()
	require.NoError(t, c.Publish(context.Background(), editing("main.go")))
	pub.next(t, time.Second)

	time.Sleep(100 * time.Millisecond)
	c.MarkInteraction()

	// The first schedule would have fired at 200ms.
	pub.quiet(t, 150*time.Millisecond)
	assert.False(t, c.Hidden())

	assert.Equal(t, "clear", pub.next(t, time.Second).op)
	assert.GreaterOrEqual(t, time.Since(start), 300*time.Millisecond)

	pub.quiet(t, 250*time.Millisecond)
	assert.Equal(t, 1, pub.count("clear"))
}

func TestIdleScenario(t *testing.T) {
	// 5ms stands for one second; the threshold is one minute.
	const second = 5 * time.Millisecond
	pub := newRecordingPublisher()
	th := newThreshold(60 * second)
	c := newController(t, pub, nil, th)

	require.NoError(t, c.Publish(context.Background(), editing("main.py")))
	pub.next(t, time.Second)

	time.Sleep(30 * second)
	c.MarkInteraction()

	assert.Equal(t, "clear", pub.next(t, time.Second).op)
	assert.True(t, c.Hidden())

	c.MarkInteraction()
	restored := pub.next(t, time.Second)
	assert.Equal(t, "update", restored.op)
	assert.Equal(t, "Editing main.py", restored.activity.Details)
	assert.False(t, c.Hidden())
}

func TestRestoreWhenThresholdDisabled(t *testing.T) {
	pub := newRecordingPublisher()
	th := newThreshold(20 * time.Millisecond)
	c := newController(t, pub, nil, th)

	require.NoError(t, c.Publish(context.Background(), editing("main.go")))
	pub.next(t, time.Second)
	assert.Equal(t, "clear", pub.next(t, time.Second).op)
	require.True(t, c.Hidden())

	th.set(0)
	require.NoError(t, c.RestoreIfHidden(context.Background()))
	restored := pub.next(t, time.Second)
	assert.Equal(t, "update", restored.op)
	assert.Equal(t, "Editing main.go", restored.activity.Details)
	assert.False(t, c.Hidden())

	// Hiding stays off while the threshold is zero.
	c.MarkInteraction()
	pub.quiet(t, 80*time.Millisecond)

	// Nothing hidden: a second restore does nothing.
	require.NoError(t, c.RestoreIfHidden(context.Background()))
	assert.Equal(t, 2, pub.count("update"))
}

func TestThresholdChanged(t *testing.T) {
	t.Run("DisabledRestores", func(t *testing.T) {
		pub := newRecordingPublisher()
		th := newThreshold(20 * time.Millisecond)
		c := newController(t, pub, nil, th)

		require.NoError(t, c.Publish(context.Background(), editing("main.go")))
		pub.next(t, time.Second)
		pub.next(t, time.Second)
		require.True(t, c.Hidden())

		th.set(0)
		c.ThresholdChanged()
		assert.Equal(t, "update", pub.next(t, time.Second).op)
		assert.False(t, c.Hidden())
	})

	t.Run("EnabledReschedules", func(t *testing.T) {
		pub := newRecordingPublisher()
		th := newThreshold(0)
		c := newController(t, pub, nil, th)

		require.NoError(t, c.Publish(context.Background(), editing("main.go")))
		pub.next(t, time.Second)
		pub.quiet(t, 50*time.Millisecond)

		th.set(20 * time.Millisecond)
		c.ThresholdChanged()
		assert.Equal(t, "clear", pub.next(t, time.Second).op)
		assert.True(t, c.Hidden())
	})
}

func TestClearForgetsActivity(t *testing.T) {
	pub := newRecordingPublisher()
	th := newThreshold(40 * time.Millisecond)
	c := newController(t, pub, nil, th)

	require.NoError(t, c.Publish(context.Background(), editing("main.go")))
	pub.next(t, time.Second)

	require.NoError(t, c.Clear(context.Background()))
	assert.Equal(t, "clear", pub.next(t, time.Second).op)
	assert.Nil(t, c.LastKnown())
	assert.Equal(t, StateCleared, c.State())

	// The cancelled hide never fires and interactions have nothing to restore.
	c.MarkInteraction()
	pub.quiet(t, 100*time.Millisecond)
	assert.False(t, c.Hidden())
}

func TestInteractionWithoutActivity(t *testing.T) {
	pub := newRecordingPublisher()
	c := newController(t, pub, nil, newThreshold(10*time.Millisecond))

	c.MarkInteraction()
	pub.quiet(t, 50*time.Millisecond)
	assert.Equal(t, StateCleared, c.State())
}

func TestInteractionBusDrivesController(t *testing.T) {
	pub := newRecordingPublisher()
	bus := &InteractionBus{}
	c := newController(t, pub, bus, newThreshold(20*time.Millisecond))
	assert.Equal(t, 1, bus.Len())

	require.NoError(t, c.Publish(context.Background(), editing("main.go")))
	pub.next(t, time.Second)
	assert.Equal(t, "clear", pub.next(t, time.Second).op)

	bus.Notify()
	assert.Equal(t, "update", pub.next(t, time.Second).op)
	assert.False(t, c.Hidden())
}

func TestShutdown(t *testing.T) {
	pub := newRecordingPublisher()
	bus := &InteractionBus{}
	c := New(pub, bus, newThreshold(30*time.Millisecond).get, WithLogger(discard()))
	c.Start()
	c.Start()
	assert.Equal(t, 1, bus.Len())

	require.NoError(t, c.Publish(context.Background(), editing("main.go")))
	pub.next(t, time.Second)

	c.Shutdown()
	assert.Equal(t, 0, bus.Len())
	assert.Nil(t, c.LastKnown())
	pub.quiet(t, 80*time.Millisecond)

	assert.ErrorIs(t, c.Publish(context.Background(), editing("x")), ErrStopped)
	assert.ErrorIs(t, c.Clear(context.Background()), ErrStopped)
	c.MarkInteraction()
	c.Shutdown()
}

func TestPublishValidation(t *testing.T) {
	pub := newRecordingPublisher()
	c := newController(t, pub, nil, newThreshold(0))

	assert.ErrorIs(t, c.Publish(context.Background(), nil), ErrNoActivity)

	bad := editing("main.go")
	bad.Party = &activity.Party{ID: "p", Current: 5, Max: 2}
	assert.ErrorIs(t, c.Publish(context.Background(), bad), activity.ErrInvalidParty)
	assert.Nil(t, c.LastKnown())
	assert.Equal(t, 0, pub.count("update"))
}

func TestPublishRemembersOnDownstreamError(t *testing.T) {
	pub := &mockPublisher{}
	downstream := errors.New("pipe closed")
	pub.On("UpdateActivity", mock.Anything, mock.Anything, mock.Anything).Return(downstream)

	c := newController(t, pub, nil, newThreshold(0))
	err := c.Publish(context.Background(), editing("main.go"))
	assert.ErrorIs(t, err, downstream)
	require.NotNil(t, c.LastKnown())
	assert.Equal(t, "Editing main.go", c.LastKnown().Details)
	pub.AssertNumberOfCalls(t, "UpdateActivity", 1)
}

func TestHidePanicIsRecovered(t *testing.T) {
	pub := &mockPublisher{}
	pub.On("UpdateActivity", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	hides := make(chan struct{}, 4)
	pub.On("ClearActivity", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		hides <- struct{}{}
		panic("boom")
	}).Return(nil)

	capture := &eventCapture{}
	c := newController(t, pub, nil, newThreshold(20*time.Millisecond), WithProtocolLogger(capture))

	require.NoError(t, c.Publish(context.Background(), editing("main.go")))
	waitSignal(t, hides)

	// The worker survives and hides again after the next publish.
	require.Eventually(t, c.Hidden, time.Second, time.Millisecond)
	require.NoError(t, c.Publish(context.Background(), editing("main.go")))
	waitSignal(t, hides)

	require.Eventually(t, func() bool { return capture.errors() > 0 }, time.Second, time.Millisecond)
}

func TestStateChangeCallback(t *testing.T) {
	pub := newRecordingPublisher()
	c := newController(t, pub, nil, newThreshold(50*time.Millisecond))

	var mu sync.Mutex
	var changes []State
	c.OnStateChange(func(_, newState State) {
		mu.Lock()
		changes = append(changes, newState)
		mu.Unlock()
	})

	require.NoError(t, c.Publish(context.Background(), editing("main.go")))
	pub.next(t, time.Second)
	pub.next(t, time.Second)
	c.MarkInteraction()
	pub.next(t, time.Second)
	require.NoError(t, c.Clear(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []State{StateVisible, StateHidden, StateVisible, StateCleared}, changes)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "CLEARED", StateCleared.String())
	assert.Equal(t, "VISIBLE", StateVisible.String())
	assert.Equal(t, "HIDDEN", StateHidden.String())
	assert.Equal(t, "UNKNOWN", State(9).String())
}

type eventCapture struct {
	mu     sync.Mutex
	events []log.Event
}

func (c *eventCapture) Log(e log.Event) {
	c.mu.Lock()
	c.events = append(c.events, e)
	c.mu.Unlock()
}

func (c *eventCapture) errors() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.events {
		if e.Category == log.CategoryError {
			n++
		}
	}
	return n
}

func waitSignal(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("timed out")
	}
}

func TestRefresh(t *testing.T) {
	pub := newRecordingPublisher()
	c := newController(t, pub, nil, newThreshold(30*time.Millisecond))

	// Nothing remembered.
	require.NoError(t, c.Refresh(context.Background()))
	assert.Equal(t, 0, pub.count("update"))

	require.NoError(t, c.Publish(context.Background(), editing("main.go")))
	pub.next(t, time.Second)
	require.NoError(t, c.Refresh(context.Background()))
	again := pub.next(t, time.Second)
	assert.Equal(t, "update", again.op)
	assert.Equal(t, "Editing main.go", again.activity.Details)

	// A hidden activity stays hidden.
	assert.Equal(t, "clear", pub.next(t, time.Second).op)
	require.NoError(t, c.Refresh(context.Background()))
	pub.quiet(t, 20*time.Millisecond)
	assert.True(t, c.Hidden())
}
