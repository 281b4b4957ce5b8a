package algorithm

import (
	"github.com/pkg/errors"

	"github.com/fyerfyer/logic-lock/pkg/circuit"
)

// Fault pins one node to a constant value for a whole simulation run
type Fault struct {
	Node  circuit.NodeID
	Value circuit.TriState
}

// Values holds the simulated value of every node, indexed by NodeID
type Values []circuit.TriState

// Of returns the value of a node
func (v Values) Of(id circuit.NodeID) circuit.TriState {
	return v[id]
}

// Outputs returns the primary output vector in declared order
func (v Values) Outputs(c *circuit.Circuit) []circuit.TriState {
	outputs := c.Outputs()
	vector := make([]circuit.TriState, len(outputs))
	for i, id := range outputs {
		vector[i] = v[id]
	}
	return vector
}

type nodeState uint8

const (
	unvisited nodeState = iota
	expanding           // pushed back, waiting for its operands
	resolved
)

// Simulator evaluates a circuit under three-valued logic. It keeps scratch
// buffers between runs, so a Simulator must not be shared between goroutines.
// The circuit must not change while a Simulator built for it is in use.
type Simulator struct {
	Circuit *circuit.Circuit

	values   Values
	state    []nodeState
	stack    []circuit.NodeID
	operands []circuit.TriState
	outputs  []circuit.NodeID
	inputs   []circuit.NodeID
}

// NewSimulator creates a simulator for the given circuit
func NewSimulator(c *circuit.Circuit) *Simulator {
	return &Simulator{
		Circuit:  c,
		values:   make(Values, c.Len()),
		state:    make([]nodeState, c.Len()),
		stack:    make([]circuit.NodeID, 0, c.Len()),
		operands: make([]circuit.TriState, 0, 8),
		outputs:  c.Outputs(),
		inputs:   c.Inputs(),
	}
}

// Evaluate simulates the circuit for one input assignment. inputs holds one
// resolved value per primary input, in input order. If fault is non-nil the
// faulty node reports the forced value and its consumers read it as if it
// were a primary input.
//
// The returned Values are owned by the Simulator and overwritten by the next
// call; use Clone to keep them.
func (s *Simulator) Evaluate(inputs []circuit.TriState, fault *Fault) (Values, error) {
	if len(inputs) != len(s.inputs) {
		return nil, errors.Wrapf(circuit.ErrValidation,
			"input assignment has %d values, circuit has %d inputs", len(inputs), len(s.inputs))
	}
	for i, v := range inputs {
		if !v.IsKnown() {
			return nil, errors.Wrapf(circuit.ErrConfiguration,
				"unassigned inputs: %q has no value", s.Circuit.Node(s.inputs[i]).Name)
		}
	}

	for i := range s.values {
		s.values[i] = circuit.Unknown
		s.state[i] = unvisited
	}
	for i, id := range s.inputs {
		s.values[id] = inputs[i]
		s.state[id] = resolved
	}
	if fault != nil {
		s.values[fault.Node] = fault.Value
		s.state[fault.Node] = resolved
	}

	// Demand-driven from the outputs first, then whatever logic does not
	// reach any output so the assignment is total.
	for i := len(s.outputs) - 1; i >= 0; i-- {
		if err := s.resolve(s.outputs[i]); err != nil {
			return nil, err
		}
	}
	for id := range s.values {
		if s.state[id] != resolved {
			if err := s.resolve(circuit.NodeID(id)); err != nil {
				return nil, err
			}
		}
	}

	return s.values, nil
}

// resolve evaluates root and everything it depends on with an explicit stack.
func (s *Simulator) resolve(root circuit.NodeID) error {
	s.stack = append(s.stack[:0], root)

	for len(s.stack) > 0 {
		id := s.stack[len(s.stack)-1]
		s.stack = s.stack[:len(s.stack)-1]
		if s.state[id] == resolved {
			continue
		}

		node := s.Circuit.Node(id)
		ready := true
		for _, op := range node.Operands {
			if s.state[op] != resolved {
				ready = false
				break
			}
		}

		if ready {
			s.values[id] = s.evaluateNode(node)
			s.state[id] = resolved
			continue
		}

		// A node seen again with operands still pending can only wait on itself.
		if s.state[id] == expanding {
			return errors.Wrapf(circuit.ErrStructural, "combinational cycle through node %q", node.Name)
		}
		s.state[id] = expanding
		s.stack = append(s.stack, id)
		for _, op := range node.Operands {
			if s.state[op] != resolved {
				s.stack = append(s.stack, op)
			}
		}
	}
	return nil
}

func (s *Simulator) evaluateNode(node *circuit.Node) circuit.TriState {
	if len(node.Operands) == 0 {
		// Only reachable for undriven output placeholders; inputs are preset.
		return circuit.Unknown
	}
	s.operands = s.operands[:0]
	for _, op := range node.Operands {
		s.operands = append(s.operands, s.values[op])
	}
	return node.Type.Evaluate(s.operands)
}

// Clone returns a copy of the values that survives later simulations
func (v Values) Clone() Values {
	cp := make(Values, len(v))
	copy(cp, v)
	return cp
}

// Evaluate is a convenience wrapper running a single simulation
func Evaluate(c *circuit.Circuit, inputs []circuit.TriState, fault *Fault) (Values, error) {
	return NewSimulator(c).Evaluate(inputs, fault)
}
