package assembler

import (
	"testing"

	"github.com/dicelang/dice/lang/ast"
	"github.com/dicelang/dice/lang/bytecode"
	"github.com/stretchr/testify/require"
)

func TestEmitAppendsOpcodeByte(t *testing.T) {
	a := New()
	pos := a.Emit(bytecode.Pop, ast.Span{})
	require.Equal(t, 0, pos)
	require.Equal(t, []byte{byte(bytecode.Pop)}, a.Data())
}

func TestEmitU8AppendsOperand(t *testing.T) {
	a := New()
	a.EmitU8(bytecode.PushConst, 5, ast.Span{})
	require.Equal(t, []byte{byte(bytecode.PushConst), 5}, a.Data())
}

func TestEmitU8U8AppendsBothOperands(t *testing.T) {
	a := New()
	a.EmitU8U8(bytecode.LoadFieldToLocal, 3, 7, ast.Span{})
	require.Equal(t, []byte{byte(bytecode.LoadFieldToLocal), 3, 7}, a.Data())
}

func TestRecordSpanKeepsFirstEntryForPosition(t *testing.T) {
	a := New()
	first := ast.Span{Start: ast.Pos{Line: 1}}
	second := ast.Span{Start: ast.Pos{Line: 2}}
	a.recordSpan(0, first)
	a.recordSpan(0, second)
	require.Equal(t, first, a.SourceMap()[0])
}

func TestInternConstantDedups(t *testing.T) {
	a := New()
	i1, err := a.InternConstant(int64(7))
	require.NoError(t, err)
	i2, err := a.InternConstant(int64(7))
	require.NoError(t, err)
	require.Equal(t, i1, i2)
	require.Len(t, a.Constants(), 1)
}

func TestInternConstantDistinctValuesGetDistinctIndices(t *testing.T) {
	a := New()
	i1, _ := a.InternConstant(int64(7))
	i2, _ := a.InternConstant("seven")
	require.NotEqual(t, i1, i2)
	require.Len(t, a.Constants(), 2)
}

func TestInternConstantRejectsOver256Entries(t *testing.T) {
	a := New()
	for i := 0; i < 256; i++ {
		_, err := a.InternConstant(int64(i))
		require.NoError(t, err)
	}
	_, err := a.InternConstant(int64(256))
	require.ErrorIs(t, err, ErrTooManyConstants)
}

func TestForwardJumpPatchComputesOffsetFromPlaceholderEnd(t *testing.T) {
	a := New()
	placeholder := a.EmitJump(bytecode.Jump, ast.Span{})
	a.Emit(bytecode.Pop, ast.Span{})
	a.Emit(bytecode.Pop, ast.Span{})
	a.PatchJump(placeholder)

	data := a.Data()
	offset := int16(uint16(data[placeholder])<<8 | uint16(data[placeholder+1]))
	require.EqualValues(t, 2, offset)
}

func TestBackwardJumpWritesNegativeOffset(t *testing.T) {
	a := New()
	target := a.CurrentPosition()
	a.Emit(bytecode.Pop, ast.Span{})
	a.Emit(bytecode.Pop, ast.Span{})
	before := a.CurrentPosition()
	a.EmitBackwardJump(bytecode.Jump, target, ast.Span{})

	data := a.Data()
	offset := int16(uint16(data[before+1])<<8 | uint16(data[before+2]))
	require.True(t, offset < 0)
}

func TestFinishBuildsProgram(t *testing.T) {
	a := New()
	a.Emit(bytecode.Return, ast.Span{})
	p := a.Finish("main", 3, 1)
	require.Equal(t, "main", p.Name)
	require.Equal(t, 3, p.SlotCount)
	require.Equal(t, 1, p.UpvalueCount)
	require.Equal(t, []byte{byte(bytecode.Return)}, p.Data)
}
