package bytecode

// Instruction is a decoded bytecode instruction. Which fields are
// meaningful depends on Operand(Op): OperandU8 populates Arg, OperandU8U8
// populates Arg and Arg2, OperandI16 populates Offset. CreateClosure's
// trailing upvalue descriptor pairs are not part of Instruction; the reader
// pulls them directly off the Cursor once it knows how many to expect (see
// lang/vm).
type Instruction struct {
	Op     Opcode
	Arg    uint8
	Arg2   uint8
	Offset int16
}

// Cursor traverses a Program's instruction stream. It is the sole decoding
// surface §4.1 requires: both the VM's interpreter loop and the
// disassembler are built on it.
type Cursor struct {
	data []byte
	pos  int
	last int
}

// NewCursor returns a Cursor positioned at the start of data.
func NewCursor(data []byte) *Cursor {
	return &Cursor{data: data}
}

// Position returns the cursor's current byte offset.
func (c *Cursor) Position() int { return c.pos }

// SetPosition moves the cursor to an absolute byte offset, as used when a
// jump instruction's target is computed.
func (c *Cursor) SetPosition(pos int) { c.pos = pos }

// OffsetPosition moves the cursor by a signed relative offset, the way a
// Jump/JumpIfFalse/JumpIfTrue operand is applied.
func (c *Cursor) OffsetPosition(off int16) { c.pos += int(off) }

// LastInstructionOffset returns the byte offset of the most recently
// decoded opcode, used to key source-map lookups on error.
func (c *Cursor) LastInstructionOffset() int { return c.last }

// AtEnd reports whether the cursor has consumed the whole instruction
// stream.
func (c *Cursor) AtEnd() bool { return c.pos >= len(c.data) }

// ReadU8 reads a single byte operand.
func (c *Cursor) ReadU8() uint8 {
	b := c.data[c.pos]
	c.pos++
	return b
}

// ReadI16 reads a big-endian signed 16-bit operand.
func (c *Cursor) ReadI16() int16 {
	hi := c.data[c.pos]
	lo := c.data[c.pos+1]
	c.pos += 2
	return int16(uint16(hi)<<8 | uint16(lo))
}

// ReadInstruction decodes the instruction at the cursor's current position
// and advances past its fixed-size operand, or reports ok=false at end of
// stream. CreateClosure's trailing (is_parent_local, index) descriptor
// pairs are left for the caller to read with ReadU8 once it has resolved
// the target function's upvalue count from the constant pool.
func (c *Cursor) ReadInstruction() (insn Instruction, ok bool) {
	if c.AtEnd() {
		return Instruction{}, false
	}
	c.last = c.pos
	op := Opcode(c.data[c.pos])
	c.pos++
	insn.Op = op
	switch Operand(op) {
	case OperandU8:
		insn.Arg = c.ReadU8()
	case OperandU8U8:
		insn.Arg = c.ReadU8()
		insn.Arg2 = c.ReadU8()
	case OperandI16:
		insn.Offset = c.ReadI16()
	}
	return insn, true
}
