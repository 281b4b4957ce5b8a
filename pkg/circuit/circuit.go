package circuit

import (
	"fmt"
	"slices"
	"strings"

	"github.com/pkg/errors"
)

// Circuit owns every node of a combinational netlist. Nodes live in an arena
// addressed by NodeID; edges are NodeID lists kept consistent in both
// directions (operands and consumers).
type Circuit struct {
	Name    string
	nodes   []*Node
	names   map[string]NodeID
	inputs  []NodeID // Primary inputs, in input-vector order
	outputs []NodeID // Primary output slots, in output-vector order
}

// NewCircuit creates a new circuit with the given name
func NewCircuit(name string) *Circuit {
	return &Circuit{
		Name:    name,
		nodes:   make([]*Node, 0),
		names:   make(map[string]NodeID),
		inputs:  make([]NodeID, 0),
		outputs: make([]NodeID, 0),
	}
}

// Len returns the number of nodes in the circuit
func (c *Circuit) Len() int {
	return len(c.nodes)
}

// Node returns the node with the given ID
func (c *Circuit) Node(id NodeID) *Node {
	return c.nodes[id]
}

// Lookup returns a node by name
func (c *Circuit) Lookup(name string) (*Node, bool) {
	id, ok := c.names[name]
	if !ok {
		return nil, false
	}
	return c.nodes[id], true
}

// Nodes returns every node in creation order
func (c *Circuit) Nodes() []*Node {
	return slices.Clone(c.nodes)
}

// Inputs returns the primary inputs in input-vector order
func (c *Circuit) Inputs() []NodeID {
	return slices.Clone(c.inputs)
}

// Outputs returns the primary output slots in output-vector order
func (c *Circuit) Outputs() []NodeID {
	return slices.Clone(c.outputs)
}

// NumInputs returns the number of primary inputs
func (c *Circuit) NumInputs() int {
	return len(c.inputs)
}

// NumOutputs returns the number of primary outputs
func (c *Circuit) NumOutputs() int {
	return len(c.outputs)
}

// Gates returns the plain internal gates: not inputs, not driving an output,
// not part of the lock logic.
func (c *Circuit) Gates() []NodeID {
	return c.filter(func(n *Node) bool {
		return !n.IsInput() && !n.IsPrimaryOutput && !n.IsLock
	})
}

// OutputGates returns the non-lock gates driving a primary output
func (c *Circuit) OutputGates() []NodeID {
	return c.filter(func(n *Node) bool {
		return !n.IsInput() && n.IsPrimaryOutput && !n.IsLock
	})
}

// LockGates returns the inserted lock gates and inverters
func (c *Circuit) LockGates() []NodeID {
	return c.filter(func(n *Node) bool {
		return !n.IsInput() && n.IsLock
	})
}

// KeyInputs returns the key inputs in creation order
func (c *Circuit) KeyInputs() []NodeID {
	return c.filter(func(n *Node) bool {
		return n.IsKeyInput
	})
}

func (c *Circuit) filter(keep func(*Node) bool) []NodeID {
	ids := make([]NodeID, 0)
	for _, n := range c.nodes {
		if keep(n) {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

// Names maps a list of IDs to node names
func (c *Circuit) Names(ids []NodeID) []string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = c.nodes[id].Name
	}
	return names
}

func (c *Circuit) addNode(name string, gateType GateType) (NodeID, error) {
	if name == "" {
		return None, errors.Wrap(ErrValidation, "node name must not be empty")
	}
	if _, exists := c.names[name]; exists {
		return None, errors.Wrapf(ErrValidation, "duplicate node name %q", name)
	}

	id := NodeID(len(c.nodes))
	c.nodes = append(c.nodes, &Node{
		ID:        id,
		Name:      name,
		Type:      gateType,
		Operands:  make([]NodeID, 0),
		Consumers: make([]NodeID, 0),
	})
	c.names[name] = id
	if gateType == Input {
		c.inputs = append(c.inputs, id)
	}
	return id, nil
}

// AddInput adds a primary input
func (c *Circuit) AddInput(name string) (NodeID, error) {
	return c.addNode(name, Input)
}

// AddGate adds a logic gate whose operands already exist in the circuit
func (c *Circuit) AddGate(name string, gateType GateType, operands ...NodeID) (NodeID, error) {
	if !gateType.IsLogic() {
		return None, errors.Wrapf(ErrValidation, "%s is not a logic gate type", gateType)
	}
	if err := gateType.CheckArity(len(operands)); err != nil {
		return None, errors.Wrapf(err, "gate %q", name)
	}
	for _, op := range operands {
		if !c.valid(op) {
			return None, errors.Wrapf(ErrValidation, "gate %q: operand %d does not exist", name, op)
		}
	}

	id, err := c.addNode(name, gateType)
	if err != nil {
		return None, err
	}
	c.connect(id, operands)
	return id, nil
}

// Declare adds a node without operands. Netlist readers use it for forward
// references and connect the node later with SetOperands.
func (c *Circuit) Declare(name string, gateType GateType) (NodeID, error) {
	if gateType == Input {
		return c.AddInput(name)
	}
	return c.addNode(name, gateType)
}

// SetOperands replaces the operand list of a declared node
func (c *Circuit) SetOperands(id NodeID, operands []NodeID) error {
	if !c.valid(id) {
		return errors.Wrapf(ErrValidation, "node %d does not exist", id)
	}
	node := c.nodes[id]
	if err := node.Type.CheckArity(len(operands)); err != nil {
		return errors.Wrapf(err, "node %q", node.Name)
	}
	for _, op := range operands {
		if !c.valid(op) {
			return errors.Wrapf(ErrValidation, "node %q: operand %d does not exist", node.Name, op)
		}
	}

	for _, op := range node.Operands {
		c.nodes[op].removeConsumer(id)
	}
	node.Operands = node.Operands[:0]
	c.connect(id, operands)
	return nil
}

func (c *Circuit) connect(id NodeID, operands []NodeID) {
	node := c.nodes[id]
	for _, op := range operands {
		node.Operands = append(node.Operands, op)
		c.nodes[op].addConsumer(id)
	}
}

// MarkOutput appends a primary output slot driven by the node
func (c *Circuit) MarkOutput(id NodeID) error {
	if !c.valid(id) {
		return errors.Wrapf(ErrValidation, "node %d does not exist", id)
	}
	if slices.Contains(c.outputs, id) {
		return errors.Wrapf(ErrValidation, "node %q is already a primary output", c.nodes[id].Name)
	}
	c.outputs = append(c.outputs, id)
	c.nodes[id].IsPrimaryOutput = true
	return nil
}

func (c *Circuit) valid(id NodeID) bool {
	return id >= 0 && int(id) < len(c.nodes)
}

// Validate checks operand arity for every node and that the circuit is acyclic
func (c *Circuit) Validate() error {
	for _, node := range c.nodes {
		if err := node.Type.CheckArity(len(node.Operands)); err != nil {
			return errors.Wrapf(err, "node %q", node.Name)
		}
	}
	return NewTopology(c).CheckAcyclic()
}

// redirect makes every consumer of old, except those in skip, read from
// replacement instead. Primary output slots driven by old move as well.
func (c *Circuit) redirect(old, replacement NodeID, skip ...NodeID) {
	oldNode := c.nodes[old]
	kept := make([]NodeID, 0, len(oldNode.Consumers))
	for _, consumerID := range oldNode.Consumers {
		if slices.Contains(skip, consumerID) {
			kept = append(kept, consumerID)
			continue
		}
		consumer := c.nodes[consumerID]
		// A consumer listing old several times shows up once per occurrence in
		// oldNode.Consumers; replace one occurrence per visit.
		if i := slices.Index(consumer.Operands, old); i >= 0 {
			consumer.Operands[i] = replacement
			c.nodes[replacement].addConsumer(consumerID)
		}
	}
	oldNode.Consumers = kept

	for i, out := range c.outputs {
		if out == old {
			c.outputs[i] = replacement
			c.nodes[replacement].IsPrimaryOutput = true
		}
	}
	oldNode.IsPrimaryOutput = false
}

// uniqueName returns base if unused, otherwise base with the smallest free
// numeric suffix.
func (c *Circuit) uniqueName(base string) string {
	if _, exists := c.names[base]; !exists {
		return base
	}
	for i := 1; ; i++ {
		name := fmt.Sprintf("%s_%d", base, i)
		if _, exists := c.names[name]; !exists {
			return name
		}
	}
}

// Clone returns a deep copy of the circuit
func (c *Circuit) Clone() *Circuit {
	clone := &Circuit{
		Name:    c.Name,
		nodes:   make([]*Node, len(c.nodes)),
		names:   make(map[string]NodeID, len(c.names)),
		inputs:  slices.Clone(c.inputs),
		outputs: slices.Clone(c.outputs),
	}
	for i, n := range c.nodes {
		cp := *n
		cp.Operands = slices.Clone(n.Operands)
		cp.Consumers = slices.Clone(n.Consumers)
		clone.nodes[i] = &cp
	}
	for name, id := range c.names {
		clone.names[name] = id
	}
	return clone
}

// Stats counts the nodes of every gate type
func (c *Circuit) Stats() map[GateType]int {
	stats := make(map[GateType]int)
	for _, n := range c.nodes {
		stats[n.Type]++
	}
	return stats
}

// String returns a string representation of the circuit
func (c *Circuit) String() string {
	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("Circuit: %s\n", c.Name))

	builder.WriteString("Inputs: ")
	builder.WriteString(strings.Join(c.Names(c.inputs), " "))

	builder.WriteString("\nOutputs: ")
	builder.WriteString(strings.Join(c.Names(c.outputs), " "))

	builder.WriteString(fmt.Sprintf("\nNodes: %d, key inputs: %d", len(c.nodes), len(c.KeyInputs())))

	return builder.String()
}
