package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/fyerfyer/logic-lock/pkg/circuit"
)

// Regular expressions for parsing BENCH format
var (
	inputRegex  = regexp.MustCompile(`^INPUT\s*\(\s*([^\s(),=]+)\s*\)$`)
	outputRegex = regexp.MustCompile(`^OUTPUT\s*\(\s*([^\s(),=]+)\s*\)$`)
	gateRegex   = regexp.MustCompile(`^([^\s(),=]+)\s*=\s*(\w+)\s*\((.*)\)$`)

	// keyinput<N>, with the suffix added when that name was taken
	keyInputRegex = regexp.MustCompile(`^keyinput\d+(_\d+)?$`)
)

// Naming conventions of the locking transform, recognised when reading a
// netlist that was locked before.
const (
	lockGateSuffix = "$enc"
	inverterSuffix = "$inv"
)

type gateDecl struct {
	line     int
	name     string
	gateType circuit.GateType
	operands []string
}

// ParseBenchFile reads a circuit description in BENCH format and returns a Circuit object
func ParseBenchFile(filename string, logger *Logger) (*circuit.Circuit, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open file %s", filename)
	}
	defer file.Close()

	// Extract circuit name from filename
	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	return ParseBench(file, name, logger)
}

// ParseBench reads a BENCH netlist. Gates may reference signals defined
// further down; the result is validated for arity and acyclicity.
func ParseBench(r io.Reader, name string, logger *Logger) (*circuit.Circuit, error) {
	logger = OrDiscard(logger)
	c := circuit.NewCircuit(name)

	var (
		inputs  []string
		outputs []string
		gates   []gateDecl
	)

	// First pass: collect declarations
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		// Skip comments and empty lines
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if matches := inputRegex.FindStringSubmatch(line); matches != nil {
			inputs = append(inputs, matches[1])
			continue
		}
		if matches := outputRegex.FindStringSubmatch(line); matches != nil {
			outputs = append(outputs, matches[1])
			continue
		}
		if matches := gateRegex.FindStringSubmatch(line); matches != nil {
			gateType, err := circuit.ParseGateType(matches[2])
			if err != nil {
				return nil, errors.Wrapf(err, "line %d", lineNo)
			}
			decl := gateDecl{line: lineNo, name: matches[1], gateType: gateType}
			for _, operand := range strings.Split(matches[3], ",") {
				if operand = strings.TrimSpace(operand); operand != "" {
					decl.operands = append(decl.operands, operand)
				}
			}
			gates = append(gates, decl)
			continue
		}

		logger.Warning("line %d: ignoring unrecognised statement %q", lineNo, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "error reading netlist")
	}

	// Second pass: create nodes, then connect them
	var keyInputs []string
	for _, in := range inputs {
		id, err := c.AddInput(in)
		if err != nil {
			return nil, err
		}
		if keyInputRegex.MatchString(in) {
			c.Node(id).IsKeyInput = true
			c.Node(id).IsLock = true
			keyInputs = append(keyInputs, in)
		}
	}
	if len(keyInputs) > 0 {
		logger.Warning("treating %d inputs as key inputs, excluded from locking: %s", len(keyInputs), strings.Join(keyInputs, ", "))
	}
	for _, decl := range gates {
		id, err := c.Declare(decl.name, decl.gateType)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", decl.line)
		}
		if strings.HasSuffix(decl.name, lockGateSuffix) || strings.HasSuffix(decl.name, inverterSuffix) {
			c.Node(id).IsLock = true
		}
	}
	for _, out := range outputs {
		node, ok := c.Lookup(out)
		if !ok {
			logger.Warning("output %s is never driven", out)
			id, err := c.Declare(out, circuit.Output)
			if err != nil {
				return nil, err
			}
			node = c.Node(id)
		}
		if err := c.MarkOutput(node.ID); err != nil {
			return nil, err
		}
	}
	for _, decl := range gates {
		node, _ := c.Lookup(decl.name)
		operands := make([]circuit.NodeID, len(decl.operands))
		for i, operand := range decl.operands {
			in, ok := c.Lookup(operand)
			if !ok {
				return nil, errors.Wrapf(circuit.ErrValidation, "line %d: gate %s uses unknown signal %q", decl.line, decl.name, operand)
			}
			operands[i] = in.ID
		}
		if err := c.SetOperands(node.ID, operands); err != nil {
			return nil, errors.Wrapf(err, "line %d", decl.line)
		}
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	logger.Netlist("loaded %s: %d inputs, %d outputs, %d gates", name, c.NumInputs(), c.NumOutputs(), len(gates))
	return c, nil
}

// WriteBenchFile writes the circuit to a file in BENCH format
func WriteBenchFile(filename string, c *circuit.Circuit) error {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "failed to create file %s", filename)
	}
	if err := WriteBench(file, c); err != nil {
		file.Close()
		return err
	}
	return errors.Wrapf(file.Close(), "failed to close file %s", filename)
}

// WriteBench writes the circuit in BENCH format: ports first, then plain
// gates, output gates and finally the lock logic.
func WriteBench(w io.Writer, c *circuit.Circuit) error {
	writer := bufio.NewWriter(w)

	for _, name := range c.Names(c.Inputs()) {
		fmt.Fprintf(writer, "INPUT(%s)\n", name)
	}
	for _, name := range c.Names(c.Outputs()) {
		fmt.Fprintf(writer, "OUTPUT(%s)\n", name)
	}
	writer.WriteString("\n")

	writeGates(writer, c, c.Gates())
	writeGates(writer, c, c.OutputGates())
	writer.WriteString("\n")
	writeGates(writer, c, c.LockGates())

	return errors.Wrap(writer.Flush(), "failed to write netlist")
}

func writeGates(w *bufio.Writer, c *circuit.Circuit, ids []circuit.NodeID) {
	for _, id := range ids {
		node := c.Node(id)
		// Undriven output placeholders have no gate line
		if !node.Type.IsLogic() {
			continue
		}
		fmt.Fprintf(w, "%s = %s(%s)\n", node.Name, node.Type, strings.Join(c.Names(node.Operands), ", "))
	}
}
