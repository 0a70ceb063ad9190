package whatsapp

// State is a position in the session lifecycle.
type State int

const (
	StateUninitialized State = iota
	StateConnecting
	StateAwaitingScan
	StateAuthenticated
	StateReady
	// StateFailed and StateDisconnected are transient: the manager passes
	// through them and immediately resets to StateUninitialized.
	StateFailed
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateConnecting:
		return "connecting"
	case StateAwaitingScan:
		return "awaiting_scan"
	case StateAuthenticated:
		return "authenticated"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// InFlight reports whether a connection attempt is underway.
func (s State) InFlight() bool {
	return s == StateConnecting || s == StateAwaitingScan || s == StateAuthenticated
}

// MarshalText lets State render as its name in JSON payloads.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
