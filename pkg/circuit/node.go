package circuit

import (
	"fmt"
	"slices"
)

// NodeID addresses a node inside the arena of its Circuit. IDs are dense,
// stable and never reused because nodes are never deleted.
type NodeID int

// None marks the absence of a node
const None NodeID = -1

// Node represents one gate or primary port of the circuit
type Node struct {
	ID        NodeID   // Position in the circuit arena
	Name      string   // Unique name of the node
	Type      GateType // Kind of the node
	Operands  []NodeID // Ordered operand nodes
	Consumers []NodeID // Nodes using this node as an operand, derived from Operands

	IsPrimaryOutput bool // Drives a primary output slot
	IsLock          bool // Key input, lock gate or inserted inverter
	IsKeyInput      bool // Key input port
	HasBeenLocked   bool // Has been the target of a key gate insertion
}

// String returns a string representation of the node
func (n *Node) String() string {
	return fmt.Sprintf("%s(%s)", n.Name, n.Type)
}

// IsInput returns true if the node is a primary input (key inputs included)
func (n *Node) IsInput() bool {
	return n.Type == Input
}

// IsLockable returns true if the node may still be the target of a key gate.
// An undriven output placeholder carries no function and is never lockable.
func (n *Node) IsLockable() bool {
	return !n.IsLock && !n.IsKeyInput && !n.HasBeenLocked && n.Type != Output
}

func (n *Node) addConsumer(id NodeID) {
	n.Consumers = append(n.Consumers, id)
}

// removeConsumer drops one occurrence of id; a node listing the same operand
// twice is recorded twice.
func (n *Node) removeConsumer(id NodeID) {
	if i := slices.Index(n.Consumers, id); i >= 0 {
		n.Consumers = slices.Delete(n.Consumers, i, i+1)
	}
}
