package form

// GateState tracks whether the current name may be added.
type GateState int

const (
	// GateInvalid: the name is empty or was reported taken
	GateInvalid GateState = iota
	// GatePending: a keystroke arrived and the debounce window is open
	GatePending
	// GateValidating: a check for the current name is in flight
	GateValidating
	// GateValid: the directory confirmed the current name
	GateValid
	// GateFailed: the last check for the current name could not complete
	GateFailed
)

func (g GateState) String() string {
	switch g {
	case GateInvalid:
		return "INVALID"
	case GatePending:
		return "PENDING"
	case GateValidating:
		return "VALIDATING"
	case GateValid:
		return "VALID"
	case GateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Open reports whether Add is allowed in this state.
func (g GateState) Open() bool {
	return g == GateValid
}
