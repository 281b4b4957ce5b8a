package utils_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyerfyer/logic-lock/pkg/circuit"
	"github.com/fyerfyer/logic-lock/pkg/utils"
)

const andBench = `
INPUT(a)
INPUT(b)
OUTPUT(f)
f = AND(a, b)
`

func TestVerilogName(t *testing.T) {
	assert.Equal(t, "a", utils.VerilogName("a"))
	assert.Equal(t, "f$enc", utils.VerilogName("f$enc"))
	assert.Equal(t, "_n1", utils.VerilogName("_n1"))
	assert.Equal(t, `\22 `, utils.VerilogName("22"))
	assert.Equal(t, `\a.b `, utils.VerilogName("a.b"))
}

func TestWriteVerilogAssign(t *testing.T) {
	c := parse(t, andBench)

	var buf bytes.Buffer
	require.NoError(t, utils.WriteVerilog(&buf, c, false))
	want := "module top(a, b, f);\n\n" +
		"input a, b;\n" +
		"output f;\n\n" +
		"assign f = (a & b);\n\n" +
		"endmodule\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteVerilogGates(t *testing.T) {
	c := parse(t, simpleBench)

	var buf bytes.Buffer
	require.NoError(t, utils.WriteVerilog(&buf, c, true))
	want := "module top(a, b, f);\n\n" +
		"input a, b;\n" +
		"output f;\n\n" +
		"wire d, e;\n\n" +
		"and g2(d, a, b);\n" +
		"not g3(e, b);\n" +
		"or g4(f, d, e);\n\n" +
		"endmodule\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteVerilogLocked(t *testing.T) {
	c := parse(t, andBench)
	f, _ := c.Lookup("f")
	_, err := c.LockNode(f.ID, false, circuit.XOR)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, utils.WriteVerilog(&buf, c, false))
	assert.Contains(t, buf.String(), "module top(a, b, keyinput0, f$enc);")
	assert.Contains(t, buf.String(), "input a, b, keyinput0;")
	assert.Contains(t, buf.String(), "assign f$enc = (keyinput0 ^ (a & b));")
}

func TestWriteVerilogSharedLogic(t *testing.T) {
	c := parse(t, `
INPUT(a)
INPUT(b)
OUTPUT(x)
OUTPUT(y)
OUTPUT(z)
s = NOR(a, b)
x = NAND(s, a)
y = XNOR(s, b)
`)
	var buf bytes.Buffer
	require.NoError(t, utils.WriteVerilog(&buf, c, false))
	out := buf.String()
	assert.Contains(t, out, "assign x = ~(~(a | b) & a);")
	assert.Contains(t, out, "assign y = ~(~(a | b) ^ b);")
	assert.Contains(t, out, "assign z = 1'bx;")
}

func TestWriteVerilogInputAsOutput(t *testing.T) {
	c := parse(t, "INPUT(a)\nOUTPUT(a)\n")

	var buf bytes.Buffer
	require.NoError(t, utils.WriteVerilog(&buf, c, false))
	assert.Equal(t, "module top(a);\n\ninput a;\n\n\nendmodule\n", buf.String())
}

func TestWriteVerilogFile(t *testing.T) {
	c := parse(t, andBench)
	filename := filepath.Join(t.TempDir(), "out.v")
	require.NoError(t, utils.WriteVerilogFile(filename, c, true))

	data, err := os.ReadFile(filename)
	require.NoError(t, err)
	assert.Contains(t, string(data), "and g2(f, a, b);")
}
