package circuit

import "github.com/pkg/errors"

// Error kinds. Every error returned by this module wraps exactly one of them,
// so callers can classify with errors.Is or errors.Cause.
var (
	// ErrConfiguration reports a missing or conflicting setting, such as an
	// unassigned primary input or an ambiguous key sizing.
	ErrConfiguration = errors.New("configuration error")

	// ErrValidation reports a value outside its accepted range or shape.
	ErrValidation = errors.New("validation error")

	// ErrStructural reports a circuit that cannot be processed as requested:
	// a combinational cycle, a bad arity, or an attempt to lock lock logic.
	ErrStructural = errors.New("structural error")
)
