package presence

// State is the visibility of the remembered activity.
type State uint8

const (
	// StateCleared means nothing is remembered.
	StateCleared State = iota

	// StateVisible means the remembered activity is on screen.
	StateVisible

	// StateHidden means the activity was cleared for inactivity and is
	// still remembered.
	StateHidden
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateCleared:
		return "CLEARED"
	case StateVisible:
		return "VISIBLE"
	case StateHidden:
		return "HIDDEN"
	default:
		return "UNKNOWN"
	}
}
