package circuit

// TriState represents the possible values for a signal during simulation
type TriState int8

const (
	Unknown TriState = iota // Not yet resolved
	False                   // Logic 0
	True                    // Logic 1
)

// String returns a string representation of the logic value
func (v TriState) String() string {
	switch v {
	case Unknown:
		return "X"
	case False:
		return "0"
	case True:
		return "1"
	default:
		return "?"
	}
}

// FromBool converts a Go boolean into a resolved TriState
func FromBool(b bool) TriState {
	if b {
		return True
	}
	return False
}

// Not returns the complement of v; Unknown stays Unknown
func (v TriState) Not() TriState {
	switch v {
	case False:
		return True
	case True:
		return False
	default:
		return Unknown
	}
}

// IsKnown returns true if the value is False or True
func (v TriState) IsKnown() bool {
	return v == False || v == True
}
