package circuit

import (
	"fmt"

	"github.com/pkg/errors"
)

// LockSite describes the nodes created by one key gate insertion
type LockSite struct {
	Target   NodeID   // Node whose value is now gated by the key
	KeyInput NodeID   // New key input port
	Gate     NodeID   // New XOR/XNOR lock gate
	Inverter NodeID   // Inverter spliced after an input target, or None
	GateType GateType // XOR or XNOR
	Key      bool     // Key bit that restores the original function
	Inverted bool     // Whether the target value had to be complemented
}

// NeedsInversion reports whether a lock gate of the given type must see the
// complemented target value so that it reproduces the target exactly when the
// key input carries key.
func NeedsInversion(key bool, gateType GateType) bool {
	return (!key && gateType == XNOR) || (key && gateType == XOR)
}

// LockNode inserts a key gate after target. A fresh key input K is combined
// with target by a gate of the given type (XOR or XNOR); every consumer and
// output slot of target is moved to the lock gate. When the lock gate would
// invert the signal for the correct key, the target is complemented first:
// by flipping its gate type, or by splicing an inverter when the type has no
// complement (primary inputs).
func (c *Circuit) LockNode(target NodeID, key bool, gateType GateType) (*LockSite, error) {
	if !c.valid(target) {
		return nil, errors.Wrapf(ErrValidation, "node %d does not exist", target)
	}
	if gateType != XOR && gateType != XNOR {
		return nil, errors.Wrapf(ErrValidation, "lock gate must be XOR or XNOR, got %s", gateType)
	}
	node := c.nodes[target]
	if node.IsLock || node.IsKeyInput {
		return nil, errors.Wrapf(ErrStructural, "cannot lock lock node %q", node.Name)
	}

	site := &LockSite{
		Target:   target,
		Inverter: None,
		GateType: gateType,
		Key:      key,
		Inverted: NeedsInversion(key, gateType),
	}

	keyID, err := c.AddInput(c.uniqueName(fmt.Sprintf("keyinput%d", len(c.KeyInputs()))))
	if err != nil {
		return nil, err
	}
	c.nodes[keyID].IsKeyInput = true
	c.nodes[keyID].IsLock = true
	site.KeyInput = keyID

	source := target
	if site.Inverted {
		if complement, ok := node.Type.Complement(); ok {
			node.Type = complement
		} else {
			inv, err := c.AddGate(c.uniqueName(node.Name+"$inv"), NOT, target)
			if err != nil {
				return nil, err
			}
			c.nodes[inv].IsLock = true
			site.Inverter = inv
			source = inv
		}
	}

	gate, err := c.AddGate(c.uniqueName(node.Name+"$enc"), gateType, keyID, source)
	if err != nil {
		return nil, err
	}
	c.nodes[gate].IsLock = true
	site.Gate = gate

	c.redirect(target, gate, gate, site.Inverter)
	node.HasBeenLocked = true

	return site, nil
}
