package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"slices"
	"strings"

	"github.com/pkg/errors"

	"github.com/fyerfyer/logic-lock/pkg/circuit"
)

var identifierRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*$`)

// VerilogName returns name as a Verilog identifier, escaping it when needed
func VerilogName(name string) string {
	if identifierRegex.MatchString(name) {
		return name
	}
	return `\` + name + " "
}

// WriteVerilogFile writes the circuit as a Verilog module to a file
func WriteVerilogFile(filename string, c *circuit.Circuit, gates bool) error {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "failed to create file %s", filename)
	}
	if err := WriteVerilog(file, c, gates); err != nil {
		file.Close()
		return err
	}
	return errors.Wrapf(file.Close(), "failed to close file %s", filename)
}

// WriteVerilog writes the circuit as module top. With gates set every node
// becomes a gate primitive instance; otherwise each output gets one flattened
// assign expression.
func WriteVerilog(w io.Writer, c *circuit.Circuit, gates bool) error {
	writer := bufio.NewWriter(w)

	inputs := c.Inputs()
	isInput := make(map[circuit.NodeID]bool, len(inputs))
	for _, id := range inputs {
		isInput[id] = true
	}
	// A primary input that is also an output appears once, as an input port
	outputs := make([]circuit.NodeID, 0, c.NumOutputs())
	for _, id := range c.Outputs() {
		if !isInput[id] {
			outputs = append(outputs, id)
		}
	}

	inNames := verilogNames(c, inputs)
	outNames := verilogNames(c, outputs)

	fmt.Fprintf(writer, "module top(%s);\n\n", strings.Join(append(slices.Clone(inNames), outNames...), ", "))
	if len(inNames) > 0 {
		fmt.Fprintf(writer, "input %s;\n", strings.Join(inNames, ", "))
	}
	if len(outNames) > 0 {
		fmt.Fprintf(writer, "output %s;\n", strings.Join(outNames, ", "))
	}
	writer.WriteString("\n")

	if gates {
		writeGateInstances(writer, c)
	} else {
		exprs := newExpressionBuilder(c)
		for _, id := range outputs {
			fmt.Fprintf(writer, "assign %s = %s;\n", VerilogName(c.Node(id).Name), exprs.build(id))
		}
	}

	writer.WriteString("\nendmodule\n")
	return errors.Wrap(writer.Flush(), "failed to write verilog")
}

func writeGateInstances(w *bufio.Writer, c *circuit.Circuit) {
	wires := make([]string, 0)
	for _, node := range c.Nodes() {
		if node.Type.IsLogic() && !node.IsPrimaryOutput {
			wires = append(wires, VerilogName(node.Name))
		}
	}
	if len(wires) > 0 {
		fmt.Fprintf(w, "wire %s;\n\n", strings.Join(wires, ", "))
	}

	for i, node := range c.Nodes() {
		if !node.Type.IsLogic() {
			continue
		}
		ports := append([]string{VerilogName(node.Name)}, verilogNames(c, node.Operands)...)
		fmt.Fprintf(w, "%s g%d(%s);\n", strings.ToLower(node.Type.String()), i, strings.Join(ports, ", "))
	}
}

func verilogNames(c *circuit.Circuit, ids []circuit.NodeID) []string {
	names := c.Names(ids)
	for i, name := range names {
		names[i] = VerilogName(name)
	}
	return names
}

// expressionBuilder renders node functions as Verilog expressions. Results
// are memoized per node and computed with an explicit stack so deep circuits
// cannot exhaust the goroutine stack. The circuit must be acyclic.
type expressionBuilder struct {
	c    *circuit.Circuit
	memo map[circuit.NodeID]string
}

func newExpressionBuilder(c *circuit.Circuit) *expressionBuilder {
	return &expressionBuilder{c: c, memo: make(map[circuit.NodeID]string)}
}

func (b *expressionBuilder) build(root circuit.NodeID) string {
	stack := []circuit.NodeID{root}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		if _, done := b.memo[id]; done {
			stack = stack[:len(stack)-1]
			continue
		}

		node := b.c.Node(id)
		pending := false
		for _, op := range node.Operands {
			if _, done := b.memo[op]; !done {
				stack = append(stack, op)
				pending = true
			}
		}
		if pending {
			continue
		}

		stack = stack[:len(stack)-1]
		b.memo[id] = b.render(node)
	}
	return b.memo[root]
}

func (b *expressionBuilder) render(node *circuit.Node) string {
	operands := make([]string, len(node.Operands))
	for i, op := range node.Operands {
		operands[i] = b.memo[op]
	}

	switch node.Type {
	case circuit.Input:
		return VerilogName(node.Name)
	case circuit.Output:
		return "1'bx"
	case circuit.BUF:
		return operands[0]
	case circuit.NOT:
		return "~(" + operands[0] + ")"
	case circuit.AND:
		return "(" + strings.Join(operands, " & ") + ")"
	case circuit.NAND:
		return "~(" + strings.Join(operands, " & ") + ")"
	case circuit.OR:
		return "(" + strings.Join(operands, " | ") + ")"
	case circuit.NOR:
		return "~(" + strings.Join(operands, " | ") + ")"
	case circuit.XOR:
		return "(" + strings.Join(operands, " ^ ") + ")"
	case circuit.XNOR:
		return "~(" + strings.Join(operands, " ^ ") + ")"
	default:
		return "1'bx"
	}
}
