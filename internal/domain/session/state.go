package session

// State is the session controller lifecycle state
type State int

const (
	StateUninitialized State = iota
	StateRequesting          // access request pending
	StateRunning
	StateFailed
	StateStopped
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateRequesting:
		return "requesting"
	case StateRunning:
		return "running"
	case StateFailed:
		return "failed"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is possible
func (s State) Terminal() bool {
	return s == StateFailed || s == StateStopped
}

// MarshalText encodes the state by name
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
