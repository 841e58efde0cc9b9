package wire

import (
	"encoding/json"
	"fmt"
)

// Event names an inbound event.
type Event string

// Events. READY and ERROR are handled by the client itself; every other
// event is delivered through the handler registry.
const (
	EventReady                 Event = "READY"
	EventError                 Event = "ERROR"
	EventCurrentUserUpdate     Event = "CURRENT_USER_UPDATE"
	EventActivityJoin          Event = "ACTIVITY_JOIN"
	EventActivitySpectate      Event = "ACTIVITY_SPECTATE"
	EventActivityJoinRequest   Event = "ACTIVITY_JOIN_REQUEST"
	EventActivityInvite        Event = "ACTIVITY_INVITE"
	EventLobbyUpdate           Event = "LOBBY_UPDATE"
	EventLobbyDelete           Event = "LOBBY_DELETE"
	EventLobbyMemberConnect    Event = "LOBBY_MEMBER_CONNECT"
	EventLobbyMemberDisconnect Event = "LOBBY_MEMBER_DISCONNECT"
	EventLobbyMemberUpdate     Event = "LOBBY_MEMBER_UPDATE"
	EventLobbyMessage          Event = "LOBBY_MESSAGE"
	EventSpeakingStart         Event = "SPEAKING_START"
	EventSpeakingStop          Event = "SPEAKING_STOP"
	EventVoiceSettingsUpdate   Event = "VOICE_SETTINGS_UPDATE"
	EventVoiceSettingsUpdate2  Event = "VOICE_SETTINGS_UPDATE_2"
	EventOverlayUpdate         Event = "OVERLAY_UPDATE"
	EventRelationshipUpdate    Event = "RELATIONSHIP_UPDATE"
)

// Envelope is a decoded inbound message. Data and Args stay raw until a
// handler decodes them into its own shape.
type Envelope struct {
	Cmd   CommandType     `json:"cmd,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
	Args  json.RawMessage `json:"args,omitempty"`
	Event Event           `json:"evt,omitempty"`
	Nonce string          `json:"nonce,omitempty"`
}

// DecodeEnvelope parses a frame payload.
func DecodeEnvelope(payload []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	return &env, nil
}

// IsError reports whether the envelope reports a failed command.
func (e *Envelope) IsError() bool {
	return e.Event == EventError
}

// IsResponse reports whether the envelope answers an outbound command.
func (e *Envelope) IsResponse() bool {
	return e.Nonce != ""
}

// DecodeData unmarshals Data into v. An absent or null payload leaves v
// untouched.
func (e *Envelope) DecodeData(v any) error {
	if len(e.Data) == 0 || string(e.Data) == "null" {
		return nil
	}
	return json.Unmarshal(e.Data, v)
}

// ErrorData decodes the payload of an ERROR envelope.
func (e *Envelope) ErrorData() (ErrorData, error) {
	var d ErrorData
	err := e.DecodeData(&d)
	return d, err
}

func (e *Envelope) String() string {
	return fmt.Sprintf("Envelope{cmd=%s evt=%s nonce=%q data=%s}", e.Cmd, e.Event, e.Nonce, string(e.Data))
}
