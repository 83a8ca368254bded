package bytecode

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCursorReadsU8Operand(t *testing.T) {
	data := []byte{byte(PushConst), 42}
	c := NewCursor(data)
	insn, ok := c.ReadInstruction()
	require.True(t, ok)
	require.Equal(t, PushConst, insn.Op)
	require.Equal(t, uint8(42), insn.Arg)
	require.True(t, c.AtEnd())
}

func TestCursorReadsU8U8Operand(t *testing.T) {
	data := []byte{byte(LoadFieldToLocal), 3, 7}
	c := NewCursor(data)
	insn, ok := c.ReadInstruction()
	require.True(t, ok)
	require.Equal(t, uint8(3), insn.Arg)
	require.Equal(t, uint8(7), insn.Arg2)
}

func TestCursorReadsI16OperandBigEndian(t *testing.T) {
	data := []byte{byte(Jump), 0x01, 0x02}
	c := NewCursor(data)
	insn, ok := c.ReadInstruction()
	require.True(t, ok)
	require.Equal(t, int16(0x0102), insn.Offset)
}

func TestCursorReadsNegativeI16Offset(t *testing.T) {
	data := []byte{byte(Jump), 0xFF, 0xFE} // -2
	c := NewCursor(data)
	insn, _ := c.ReadInstruction()
	require.Equal(t, int16(-2), insn.Offset)
}

func TestCursorNoOperandAdvancesOneByte(t *testing.T) {
	data := []byte{byte(Pop), byte(Return)}
	c := NewCursor(data)
	insn, ok := c.ReadInstruction()
	require.True(t, ok)
	require.Equal(t, Pop, insn.Op)
	require.Equal(t, 1, c.Position())
	insn, ok = c.ReadInstruction()
	require.True(t, ok)
	require.Equal(t, Return, insn.Op)
	require.True(t, c.AtEnd())
}

func TestCursorReadInstructionReportsFalseOnExhaustedStream(t *testing.T) {
	c := NewCursor(nil)
	_, ok := c.ReadInstruction()
	require.False(t, ok)
}

func TestOffsetPositionAppliesRelativeJump(t *testing.T) {
	c := NewCursor(make([]byte, 10))
	c.SetPosition(5)
	c.OffsetPosition(-3)
	require.Equal(t, 2, c.Position())
}

func TestOpcodeStringCoversEveryDefinedOpcode(t *testing.T) {
	for op := PushNull; op <= AssertTypeOrNullAndReturn; op++ {
		s := op.String()
		require.NotEmpty(t, s)
		require.NotContains(t, s, "illegal op")
	}
}

func TestSizeMatchesOperandKind(t *testing.T) {
	require.Equal(t, 1, Size(Pop))
	require.Equal(t, 2, Size(PushConst))
	require.Equal(t, 3, Size(LoadFieldToLocal))
	require.Equal(t, 3, Size(Jump))
}
