package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestSlogAdapterWritesDebugRecord(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	adapter := NewSlogAdapter(slog.New(handler))

	adapter.Log(Event{
		Timestamp:    time.Now(),
		ConnectionID: "conn-9",
		Direction:    DirectionOut,
		Layer:        LayerWire,
		Category:     CategoryMessage,
		Message:      &MessageEvent{Type: MessageTypeCommand, Cmd: "SET_ACTIVITY", Nonce: "3"},
	})

	out := buf.String()
	for _, want := range []string{"level=DEBUG", "conn_id=conn-9", "direction=OUT", "cmd=SET_ACTIVITY", "nonce=3", "msg_type=COMMAND"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestSlogAdapterSuppressedAboveDebug(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})
	NewSlogAdapter(slog.New(handler)).Log(Event{ConnectionID: "x"})

	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestAttrsStateChange(t *testing.T) {
	attrs := Attrs(Event{
		Layer:    LayerPresence,
		Category: CategoryState,
		StateChange: &StateChangeEvent{
			Entity:   StateEntityPresence,
			OldState: "VISIBLE",
			NewState: "HIDDEN",
			Reason:   "idle",
		},
	})

	got := map[string]string{}
	for _, a := range attrs {
		got[a.Key] = a.Value.String()
	}
	if got["entity"] != "PRESENCE" || got["new_state"] != "HIDDEN" || got["reason"] != "idle" {
		t.Errorf("unexpected attrs: %v", got)
	}
	if _, ok := got["client_id"]; ok {
		t.Error("client_id should be omitted when empty")
	}
}
