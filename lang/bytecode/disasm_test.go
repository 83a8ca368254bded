package bytecode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDisassembleFormatsOperandsByKind(t *testing.T) {
	p := &Program{
		Name: "test",
		Data: []byte{
			byte(PushI1), byte(PushConst), 0, byte(Jump), 0x00, 0x02, byte(Return),
		},
		Constants: []any{int64(7)},
		SlotCount: 1,
	}
	out := Disassemble(p)
	require.Contains(t, out, "function test")
	require.Contains(t, out, "push_i1")
	require.Contains(t, out, "push_const")
	require.Contains(t, out, "jump")
	require.Contains(t, out, "return")
}

type programConst struct{ p *Program }

func (c programConst) BytecodeProgram() *Program { return c.p }

func TestDisassembleDoesNotInfinitelyRecurseOnSharedProgram(t *testing.T) {
	shared := &Program{Name: "leaf", Data: []byte{byte(Return)}}
	p := &Program{
		Name:      "root",
		Data:      []byte{byte(Return)},
		Constants: []any{programConst{shared}, programConst{shared}},
	}
	out := Disassemble(p)
	require.Equal(t, 1, strings.Count(out, "function root"))
	require.Equal(t, 1, strings.Count(out, "function leaf"))
}
