package circuit

import (
	"strings"

	"github.com/pkg/errors"
)

// GateType represents the kind of a circuit node
type GateType int

const (
	Input  GateType = iota // Primary input
	Output                 // Declared output not yet driven by any gate
	NOT
	BUF // Buffer gate
	AND
	NAND
	OR
	NOR
	XOR
	XNOR
)

// String returns a string representation of the gate type
func (gt GateType) String() string {
	switch gt {
	case Input:
		return "INPUT"
	case Output:
		return "OUTPUT"
	case NOT:
		return "NOT"
	case BUF:
		return "BUF"
	case AND:
		return "AND"
	case NAND:
		return "NAND"
	case OR:
		return "OR"
	case NOR:
		return "NOR"
	case XOR:
		return "XOR"
	case XNOR:
		return "XNOR"
	default:
		return "UNKNOWN"
	}
}

// IsLogic returns true for the gate kinds that compute a value from operands
func (gt GateType) IsLogic() bool {
	switch gt {
	case NOT, BUF, AND, NAND, OR, NOR, XOR, XNOR:
		return true
	default:
		return false
	}
}

// Complement returns the gate type computing the logical complement of gt.
// Input and Output have no complement.
func (gt GateType) Complement() (GateType, bool) {
	switch gt {
	case NOT:
		return BUF, true
	case BUF:
		return NOT, true
	case AND:
		return NAND, true
	case NAND:
		return AND, true
	case OR:
		return NOR, true
	case NOR:
		return OR, true
	case XOR:
		return XNOR, true
	case XNOR:
		return XOR, true
	default:
		return gt, false
	}
}

// CheckArity verifies that n operands are acceptable for the gate type
func (gt GateType) CheckArity(n int) error {
	switch gt {
	case Input, Output:
		if n != 0 {
			return errors.Wrapf(ErrStructural, "%s node takes no operands, got %d", gt, n)
		}
	case NOT, BUF:
		if n != 1 {
			return errors.Wrapf(ErrStructural, "%s gate takes exactly 1 operand, got %d", gt, n)
		}
	case AND, NAND, OR, NOR, XOR, XNOR:
		if n < 2 {
			return errors.Wrapf(ErrStructural, "%s gate takes at least 2 operands, got %d", gt, n)
		}
	default:
		return errors.Wrapf(ErrStructural, "unsupported gate type %d", int(gt))
	}
	return nil
}

// ParseGateType converts a gate keyword from a netlist into a GateType
func ParseGateType(s string) (GateType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "AND":
		return AND, nil
	case "NAND":
		return NAND, nil
	case "OR":
		return OR, nil
	case "NOR":
		return NOR, nil
	case "XOR":
		return XOR, nil
	case "XNOR":
		return XNOR, nil
	case "NOT", "INV":
		return NOT, nil
	case "BUF", "BUFF":
		return BUF, nil
	default:
		return Input, errors.Wrapf(ErrValidation, "unknown gate type %q", s)
	}
}

// Evaluate computes the output value of a gate of type gt from its resolved
// operand values. Any Unknown operand makes the result Unknown.
func (gt GateType) Evaluate(operands []TriState) TriState {
	if len(operands) == 0 {
		return Unknown
	}
	for _, v := range operands {
		if !v.IsKnown() {
			return Unknown
		}
	}

	switch gt {
	case NOT:
		return operands[0].Not()
	case BUF:
		return operands[0]
	case AND:
		return evaluateAND(operands)
	case NAND:
		return evaluateAND(operands).Not()
	case OR:
		return evaluateOR(operands)
	case NOR:
		return evaluateOR(operands).Not()
	case XOR:
		return evaluateXOR(operands)
	case XNOR:
		return evaluateXOR(operands).Not()
	default:
		return Unknown
	}
}

func evaluateAND(operands []TriState) TriState {
	for _, v := range operands {
		if v == False {
			return False
		}
	}
	return True
}

func evaluateOR(operands []TriState) TriState {
	for _, v := range operands {
		if v == True {
			return True
		}
	}
	return False
}

// evaluateXOR folds from False, flipping at each operand that differs from
// the running value.
func evaluateXOR(operands []TriState) TriState {
	result := False
	for _, v := range operands {
		if v != result {
			result = True
		} else {
			result = False
		}
	}
	return result
}
