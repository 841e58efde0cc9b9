package wire

import (
	"encoding/json"
	"strconv"
)

// ProtocolVersion is the version announced in the handshake.
const ProtocolVersion = 1

// CommandType names an outbound RPC verb.
type CommandType string

// Command types understood by the companion process. SUBSCRIBE and
// SET_ACTIVITY are used directly by this module; the rest pass through
// generic correlated dispatch.
const (
	CmdDispatch                  CommandType = "DISPATCH"
	CmdSubscribe                 CommandType = "SUBSCRIBE"
	CmdUnsubscribe               CommandType = "UNSUBSCRIBE"
	CmdSetActivity               CommandType = "SET_ACTIVITY"
	CmdSendActivityJoinInvite    CommandType = "SEND_ACTIVITY_JOIN_INVITE"
	CmdCloseActivityJoinRequest  CommandType = "CLOSE_ACTIVITY_JOIN_REQUEST"
	CmdActivityInviteUser        CommandType = "ACTIVITY_INVITE_USER"
	CmdGetImage                  CommandType = "GET_IMAGE"
	CmdGetNetworkingConfig       CommandType = "GET_NETWORKING_CONFIG"
	CmdGetRelationships          CommandType = "GET_RELATIONSHIPS"
	CmdGetUser                   CommandType = "GET_USER"
	CmdOpenOverlayActivityInvite CommandType = "OPEN_OVERLAY_ACTIVITY_INVITE"
	CmdOpenOverlayGuildInvite    CommandType = "OPEN_OVERLAY_GUILD_INVITE"
	CmdOpenOverlayVoiceSettings  CommandType = "OPEN_OVERLAY_VOICE_SETTINGS"
	CmdSetOverlayLocked          CommandType = "SET_OVERLAY_LOCKED"
)

// Command is an outbound request.
type Command struct {
	Cmd   CommandType     `json:"cmd"`
	Args  json.RawMessage `json:"args,omitempty"`
	Nonce string          `json:"nonce"`
	Event Event           `json:"evt,omitempty"`
}

// NewCommand builds a command, encoding args to JSON. A nil args value is
// sent as an empty object.
func NewCommand(cmd CommandType, args any, nonce uint64) (*Command, error) {
	raw, err := encodeArgs(args)
	if err != nil {
		return nil, err
	}
	return &Command{
		Cmd:   cmd,
		Args:  raw,
		Nonce: FormatNonce(nonce),
	}, nil
}

// NewSubscribe builds a SUBSCRIBE command for evt.
func NewSubscribe(evt Event, args any, nonce uint64) (*Command, error) {
	c, err := NewCommand(CmdSubscribe, args, nonce)
	if err != nil {
		return nil, err
	}
	c.Event = evt
	return c, nil
}

// IsReadySubscription reports whether c subscribes to READY. Such a
// command is never held back while the handshake is outstanding.
func (c *Command) IsReadySubscription() bool {
	return c.Cmd == CmdSubscribe && c.Event == EventReady
}

// FormatNonce renders a nonce the way it travels on the wire.
func FormatNonce(n uint64) string {
	return strconv.FormatUint(n, 10)
}

// Handshake is the first frame sent on a fresh channel.
type Handshake struct {
	Version  int    `json:"v"`
	ClientID string `json:"client_id"`
}

// NewHandshake returns a handshake for clientID at ProtocolVersion.
func NewHandshake(clientID string) Handshake {
	return Handshake{Version: ProtocolVersion, ClientID: clientID}
}

func encodeArgs(args any) (json.RawMessage, error) {
	switch v := args.(type) {
	case nil:
		return json.RawMessage("{}"), nil
	case json.RawMessage:
		if len(v) == 0 {
			return json.RawMessage("{}"), nil
		}
		return v, nil
	default:
		return json.Marshal(v)
	}
}
