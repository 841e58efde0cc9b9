package connection

// State is the protocol client's connection state.
type State uint8

const (
	// StateHandshake is the initial state: the handshake may be in flight
	// and commands are queued.
	StateHandshake State = 0

	// StateConnected is entered when READY arrives.
	StateConnected State = 1

	// StateError is terminal. The receive worker died and the client must
	// be rebuilt.
	StateError State = 2
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateHandshake:
		return "HANDSHAKE"
	case StateConnected:
		return "CONNECTED"
	case StateError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateError
}
