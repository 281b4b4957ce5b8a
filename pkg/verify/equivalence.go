// Package verify proves functional properties of locked circuits with a SAT
// solver: that the correct key restores the original function, and that
// each key bit on its own matters.
package verify

import (
	"sort"

	"github.com/go-air/gini"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"
	"github.com/pkg/errors"

	"github.com/fyerfyer/logic-lock/pkg/circuit"
)

const (
	satisfiable   = 1
	unsatisfiable = -1
)

// Counterexample is an input assignment on which two circuits disagree
type Counterexample struct {
	Inputs  map[string]bool
	Outputs []int // Output positions that differ
}

// miter holds both circuits translated into one combinational formula.
// Inputs with the same name share a variable, and so do undriven outputs.
type miter struct {
	c        *logic.C
	inputs   map[string]z.Lit
	undriven map[string]z.Lit
}

func newMiter() *miter {
	return &miter{
		c:        logic.NewC(),
		inputs:   make(map[string]z.Lit),
		undriven: make(map[string]z.Lit),
	}
}

// free returns the variable for name in vars, creating it on first use
func (m *miter) free(vars map[string]z.Lit, name string) z.Lit {
	lit, ok := vars[name]
	if !ok {
		lit = m.c.Lit()
		vars[name] = lit
	}
	return lit
}

// translate adds c to the formula and returns the literal of every node
func (m *miter) translate(c *circuit.Circuit) ([]z.Lit, error) {
	topo := circuit.NewTopology(c)
	if err := topo.ComputeLevels(); err != nil {
		return nil, err
	}

	lits := make([]z.Lit, c.Len())
	for _, id := range topo.Order {
		node := c.Node(id)
		ops := make([]z.Lit, len(node.Operands))
		for i, op := range node.Operands {
			ops[i] = lits[op]
		}

		switch node.Type {
		case circuit.Input:
			lits[id] = m.free(m.inputs, node.Name)
		case circuit.Output:
			// Undefined in the netlist; the simulator leaves it Unknown
			lits[id] = m.free(m.undriven, node.Name)
		case circuit.BUF:
			lits[id] = ops[0]
		case circuit.NOT:
			lits[id] = ops[0].Not()
		case circuit.AND:
			lits[id] = m.c.Ands(ops...)
		case circuit.NAND:
			lits[id] = m.c.Ands(ops...).Not()
		case circuit.OR:
			lits[id] = m.c.Ors(ops...)
		case circuit.NOR:
			lits[id] = m.c.Ors(ops...).Not()
		case circuit.XOR:
			lits[id] = m.xors(ops)
		case circuit.XNOR:
			lits[id] = m.xors(ops).Not()
		default:
			return nil, errors.Wrapf(circuit.ErrStructural, "node %q of type %s has no logic function", node.Name, node.Type)
		}
	}
	return lits, nil
}

func (m *miter) xors(ops []z.Lit) z.Lit {
	acc := m.c.F
	for _, op := range ops {
		acc = m.c.Xor(acc, op)
	}
	return acc
}

// Equivalent checks that a and b compute the same output vector for every
// input assignment, with the inputs named in fixed tied to constants.
// It returns nil when the circuits are equivalent, or a counterexample.
func Equivalent(a, b *circuit.Circuit, fixed map[string]bool) (*Counterexample, error) {
	if a.NumOutputs() != b.NumOutputs() {
		return nil, errors.Wrapf(circuit.ErrValidation, "circuits have %d and %d outputs", a.NumOutputs(), b.NumOutputs())
	}

	m := newMiter()
	litsA, err := m.translate(a)
	if err != nil {
		return nil, errors.Wrapf(err, "circuit %s", a.Name)
	}
	litsB, err := m.translate(b)
	if err != nil {
		return nil, errors.Wrapf(err, "circuit %s", b.Name)
	}

	outsA, outsB := a.Outputs(), b.Outputs()
	diffs := make([]z.Lit, len(outsA))
	for i := range outsA {
		diffs[i] = m.c.Xor(litsA[outsA[i]], litsB[outsB[i]])
	}
	if len(diffs) == 0 {
		return nil, nil
	}

	differs := m.c.Ors(diffs...)
	g := gini.New()
	m.c.ToCnf(g)

	assumptions := make([]z.Lit, 0, len(fixed)+1)
	for name, value := range fixed {
		lit, ok := m.inputs[name]
		if !ok {
			return nil, errors.Wrapf(circuit.ErrValidation, "fixed input %q is not an input of either circuit", name)
		}
		if !value {
			lit = lit.Not()
		}
		assumptions = append(assumptions, lit)
	}
	assumptions = append(assumptions, differs)
	g.Assume(assumptions...)

	switch g.Solve() {
	case unsatisfiable:
		return nil, nil
	case satisfiable:
	default:
		return nil, errors.New("solver gave up before reaching a verdict")
	}

	cex := &Counterexample{Inputs: make(map[string]bool, len(m.inputs))}
	for name, lit := range m.inputs {
		if _, isFixed := fixed[name]; !isFixed {
			cex.Inputs[name] = g.Value(lit)
		}
	}
	for i, diff := range diffs {
		if g.Value(diff) {
			cex.Outputs = append(cex.Outputs, i)
		}
	}
	return cex, nil
}

// CheckKey proves that locked, with its key inputs driven by key, computes
// the same function as original. Every key input of locked must be assigned.
func CheckKey(original, locked *circuit.Circuit, key map[string]bool) (*Counterexample, error) {
	for _, id := range locked.KeyInputs() {
		name := locked.Node(id).Name
		if _, ok := key[name]; !ok {
			return nil, errors.Wrapf(circuit.ErrConfiguration, "key input %q has no key value", name)
		}
	}
	return Equivalent(original, locked, key)
}

// InsensitiveKeyBits returns, in name order, the key inputs whose flip alone
// leaves the locked circuit equivalent to the original. An empty result means
// every key bit is observable at the outputs.
func InsensitiveKeyBits(original, locked *circuit.Circuit, key map[string]bool) ([]string, error) {
	names := make([]string, 0, len(key))
	for name := range key {
		names = append(names, name)
	}
	sort.Strings(names)

	insensitive := make([]string, 0)
	for _, name := range names {
		wrong := make(map[string]bool, len(key))
		for k, v := range key {
			wrong[k] = v
		}
		wrong[name] = !key[name]

		cex, err := CheckKey(original, locked, wrong)
		if err != nil {
			return nil, err
		}
		if cex == nil {
			insensitive = append(insensitive, name)
		}
	}
	return insensitive, nil
}
