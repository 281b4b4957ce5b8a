package utils_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyerfyer/logic-lock/pkg/circuit"
	"github.com/fyerfyer/logic-lock/pkg/utils"
)

const simpleBench = `# Simple test circuit
INPUT(a)
INPUT(b)
OUTPUT(f)
d = AND(a, b)
e = NOT(b)
f = OR(d, e)
`

func parse(t *testing.T, src string) *circuit.Circuit {
	t.Helper()
	c, err := utils.ParseBench(strings.NewReader(src), "test", nil)
	require.NoError(t, err)
	return c
}

// TestParseBenchFile tests parsing a BENCH format circuit description
func TestParseBenchFile(t *testing.T) {
	benchFile := filepath.Join(t.TempDir(), "test_circuit.bench")
	require.NoError(t, os.WriteFile(benchFile, []byte(simpleBench), 0644))

	c, err := utils.ParseBenchFile(benchFile, nil)
	require.NoError(t, err)

	assert.Equal(t, "test_circuit", c.Name)
	assert.Equal(t, 5, c.Len())
	assert.Equal(t, []string{"a", "b"}, c.Names(c.Inputs()))
	assert.Equal(t, []string{"f"}, c.Names(c.Outputs()))

	d, ok := c.Lookup("d")
	require.True(t, ok)
	assert.Equal(t, circuit.AND, d.Type)
	assert.Equal(t, []string{"a", "b"}, c.Names(d.Operands))

	e, ok := c.Lookup("e")
	require.True(t, ok)
	assert.Equal(t, circuit.NOT, e.Type)

	f, ok := c.Lookup("f")
	require.True(t, ok)
	assert.Equal(t, circuit.OR, f.Type)
	assert.True(t, f.IsPrimaryOutput)

	_, err = utils.ParseBenchFile(filepath.Join(t.TempDir(), "missing.bench"), nil)
	assert.Error(t, err)
}

func TestParseForwardReferences(t *testing.T) {
	c := parse(t, `
OUTPUT(z)
z = NAND(y, a)
y = BUFF(x)
x = INV(a)
INPUT(a)
`)
	z, ok := c.Lookup("z")
	require.True(t, ok)
	assert.Equal(t, []string{"y", "a"}, c.Names(z.Operands))

	y, _ := c.Lookup("y")
	assert.Equal(t, circuit.BUF, y.Type)
	x, _ := c.Lookup("x")
	assert.Equal(t, circuit.NOT, x.Type)
	assert.Equal(t, []string{"y"}, c.Names(x.Consumers))
}

func TestParseLockedNetlist(t *testing.T) {
	c := parse(t, `
INPUT(a)
INPUT(b)
INPUT(keyinput0)
OUTPUT(f$enc)
f = NAND(a, b)
f$enc = XOR(keyinput0, f)
`)
	key, _ := c.Lookup("keyinput0")
	assert.True(t, key.IsKeyInput)
	assert.True(t, key.IsLock)

	gate, _ := c.Lookup("f$enc")
	assert.True(t, gate.IsLock)
	assert.Equal(t, []string{"f$enc"}, c.Names(c.LockGates()))
	assert.Equal(t, []string{"keyinput0"}, c.Names(c.KeyInputs()))
}

func TestParseKeyInputNames(t *testing.T) {
	var logs bytes.Buffer
	logger := utils.NewLogger(utils.WarningLevel)
	logger.SetOutput(&logs)

	c, err := utils.ParseBench(strings.NewReader(`
INPUT(keyinput0)
INPUT(keyinput1_1)
INPUT(keyinput)
INPUT(keyinputs)
INPUT(keyinput2a)
OUTPUT(f)
f = AND(keyinput0, keyinput1_1, keyinput, keyinputs, keyinput2a)
`), "names", logger)
	require.NoError(t, err)

	assert.Equal(t, []string{"keyinput0", "keyinput1_1"}, c.Names(c.KeyInputs()))
	for _, name := range []string{"keyinput", "keyinputs", "keyinput2a"} {
		node, _ := c.Lookup(name)
		assert.False(t, node.IsLock, name)
		assert.True(t, node.IsLockable(), name)
	}
	assert.Contains(t, logs.String(), "treating 2 inputs as key inputs")
	assert.Contains(t, logs.String(), "keyinput0, keyinput1_1")
}

func TestParseUndrivenOutput(t *testing.T) {
	c := parse(t, `
INPUT(a)
OUTPUT(a)
OUTPUT(z)
`)
	assert.Equal(t, []string{"a", "z"}, c.Names(c.Outputs()))
	z, _ := c.Lookup("z")
	assert.Equal(t, circuit.Output, z.Type)
	assert.Empty(t, z.Operands)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"unknown signal", "INPUT(a)\nOUTPUT(f)\nf = AND(a, q)\n", circuit.ErrValidation},
		{"unknown gate", "INPUT(a)\nOUTPUT(f)\nf = DFF(a)\n", circuit.ErrValidation},
		{"duplicate name", "INPUT(a)\nINPUT(a)\n", circuit.ErrValidation},
		{"gate redefines input", "INPUT(a)\na = NOT(a)\n", circuit.ErrValidation},
		{"arity", "INPUT(a)\nOUTPUT(f)\nf = AND(a)\n", circuit.ErrStructural},
		{"cycle", "INPUT(a)\nOUTPUT(f)\nf = AND(a, g)\ng = NOT(f)\n", circuit.ErrStructural},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := utils.ParseBench(strings.NewReader(tt.src), "bad", nil)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParseIgnoresUnknownStatements(t *testing.T) {
	var logs bytes.Buffer
	logger := utils.NewLogger(utils.WarningLevel)
	logger.SetOutput(&logs)

	c, err := utils.ParseBench(strings.NewReader("INPUT(a)\nOUTPUT(a)\nthis is not bench\n"), "junk", logger)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())
	assert.Contains(t, logs.String(), "line 3")
}

func TestWriteBench(t *testing.T) {
	c := parse(t, simpleBench)

	var buf bytes.Buffer
	require.NoError(t, utils.WriteBench(&buf, c))
	want := "INPUT(a)\nINPUT(b)\nOUTPUT(f)\n\nd = AND(a, b)\ne = NOT(b)\nf = OR(d, e)\n\n"
	assert.Equal(t, want, buf.String())
}

type nodeShape struct {
	Type       circuit.GateType
	Operands   []string
	IsLock     bool
	IsKeyInput bool
}

func shape(c *circuit.Circuit) map[string]nodeShape {
	shapes := make(map[string]nodeShape)
	for _, node := range c.Nodes() {
		shapes[node.Name] = nodeShape{
			Type:       node.Type,
			Operands:   c.Names(node.Operands),
			IsLock:     node.IsLock,
			IsKeyInput: node.IsKeyInput,
		}
	}
	return shapes
}

func TestBenchRoundTrip(t *testing.T) {
	c := parse(t, simpleBench)
	e, _ := c.Lookup("e")
	_, err := c.LockNode(e.ID, true, circuit.XNOR)
	require.NoError(t, err)
	a, _ := c.Lookup("a")
	_, err = c.LockNode(a.ID, true, circuit.XOR)
	require.NoError(t, err)
	f, _ := c.Lookup("f")
	_, err = c.LockNode(f.ID, false, circuit.XOR)
	require.NoError(t, err)

	filename := filepath.Join(t.TempDir(), "locked.bench")
	require.NoError(t, utils.WriteBenchFile(filename, c))
	reread, err := utils.ParseBenchFile(filename, nil)
	require.NoError(t, err)

	assert.Equal(t, c.Names(c.Inputs()), reread.Names(reread.Inputs()))
	assert.Equal(t, c.Names(c.Outputs()), reread.Names(reread.Outputs()))
	if diff := cmp.Diff(shape(c), shape(reread)); diff != "" {
		t.Errorf("round trip changed the netlist (-written +read):\n%s", diff)
	}
}
