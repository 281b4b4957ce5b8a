package circuit

import (
	"github.com/pkg/errors"
)

// Topology contains information about the circuit structure
type Topology struct {
	Circuit      *Circuit
	Levels       []int    // Level of each node, indexed by NodeID; -1 if on or behind a cycle
	MaxLevel     int      // Maximum level in the circuit
	FanoutPoints []NodeID // Nodes that feed more than one consumer
	Order        []NodeID // Topological order, operands before consumers
}

// NewTopology creates a new topology analyzer for the given circuit
func NewTopology(c *Circuit) *Topology {
	return &Topology{
		Circuit: c,
	}
}

// Analyze performs a complete topological analysis of the circuit
func (t *Topology) Analyze() error {
	t.IdentifyFanoutPoints()
	return t.ComputeLevels()
}

// ComputeLevels assigns a level to each node with Kahn's algorithm.
// Nodes without operands are level 0 and every gate sits one level above its
// deepest operand. Returns a structural error if some node is on a cycle.
func (t *Topology) ComputeLevels() error {
	c := t.Circuit
	n := c.Len()

	t.Levels = make([]int, n)
	t.Order = make([]NodeID, 0, n)
	t.MaxLevel = 0

	pending := make([]int, n)
	queue := make([]NodeID, 0, n)
	for _, node := range c.nodes {
		pending[node.ID] = len(node.Operands)
		t.Levels[node.ID] = -1
		if pending[node.ID] == 0 {
			t.Levels[node.ID] = 0
			queue = append(queue, node.ID)
		}
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		t.Order = append(t.Order, id)

		for _, consumer := range c.nodes[id].Consumers {
			if level := t.Levels[id] + 1; level > t.Levels[consumer] {
				t.Levels[consumer] = level
			}
			pending[consumer]--
			if pending[consumer] == 0 {
				if t.Levels[consumer] > t.MaxLevel {
					t.MaxLevel = t.Levels[consumer]
				}
				queue = append(queue, consumer)
			}
		}
	}

	if len(t.Order) == n {
		return nil
	}

	first := None
	for id, left := range pending {
		if left > 0 {
			t.Levels[id] = -1
			if first == None {
				first = NodeID(id)
			}
		}
	}
	return errors.Wrapf(ErrStructural, "combinational cycle: node %q depends on itself or on a cycle (%d of %d nodes unordered)",
		c.nodes[first].Name, n-len(t.Order), n)
}

// IdentifyFanoutPoints identifies all fanout points in the circuit
func (t *Topology) IdentifyFanoutPoints() {
	t.FanoutPoints = make([]NodeID, 0)

	for _, node := range t.Circuit.nodes {
		if len(node.Consumers) > 1 {
			t.FanoutPoints = append(t.FanoutPoints, node.ID)
		}
	}
}

// CheckAcyclic returns a structural error if the circuit contains a cycle
func (t *Topology) CheckAcyclic() error {
	return t.ComputeLevels()
}
