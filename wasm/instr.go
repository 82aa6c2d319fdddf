package wasm

// Instr is a single instruction. Imm holds one of the immediate types
// below, or nil for instructions without immediates.
type Instr struct {
	Imm    any
	Opcode byte
}

// BlockImm holds the block type for block, loop and if.
type BlockImm struct {
	Type int32
}

// BranchImm holds a relative label depth.
type BranchImm struct {
	LabelIdx uint32
}

// CallImm holds the callee's function index.
type CallImm struct {
	FuncIdx uint32
}

// LocalImm holds a local index.
type LocalImm struct {
	LocalIdx uint32
}

// GlobalImm holds a global index.
type GlobalImm struct {
	GlobalIdx uint32
}

// MemoryImm holds the memarg of loads and stores. Align is log2 bytes.
type MemoryImm struct {
	Offset uint32
	Align  uint32
}

// I32Imm holds an i32.const value.
type I32Imm struct {
	Value int32
}

// I64Imm holds an i64.const value.
type I64Imm struct {
	Value int64
}

// MiscImm holds the sub-opcode and trailing immediates of 0xFC instructions.
type MiscImm struct {
	Operands  []uint32
	SubOpcode uint32
}

// Op returns an instruction without immediates.
func Op(opcode byte) Instr { return Instr{Opcode: opcode} }

func I32Const(v int32) Instr { return Instr{Opcode: OpI32Const, Imm: I32Imm{Value: v}} }

// U32Const pushes v reinterpreted as i32.
func U32Const(v uint32) Instr { return I32Const(int32(v)) }

func I64Const(v int64) Instr { return Instr{Opcode: OpI64Const, Imm: I64Imm{Value: v}} }

func LocalGet(idx uint32) Instr { return Instr{Opcode: OpLocalGet, Imm: LocalImm{LocalIdx: idx}} }
func LocalSet(idx uint32) Instr { return Instr{Opcode: OpLocalSet, Imm: LocalImm{LocalIdx: idx}} }
func LocalTee(idx uint32) Instr { return Instr{Opcode: OpLocalTee, Imm: LocalImm{LocalIdx: idx}} }

func GlobalGet(idx uint32) Instr { return Instr{Opcode: OpGlobalGet, Imm: GlobalImm{GlobalIdx: idx}} }
func GlobalSet(idx uint32) Instr { return Instr{Opcode: OpGlobalSet, Imm: GlobalImm{GlobalIdx: idx}} }

func Call(funcIdx uint32) Instr { return Instr{Opcode: OpCall, Imm: CallImm{FuncIdx: funcIdx}} }

func Block() Instr { return Instr{Opcode: OpBlock, Imm: BlockImm{Type: BlockTypeVoid}} }
func Loop() Instr  { return Instr{Opcode: OpLoop, Imm: BlockImm{Type: BlockTypeVoid}} }
func If() Instr    { return Instr{Opcode: OpIf, Imm: BlockImm{Type: BlockTypeVoid}} }
func Else() Instr  { return Op(OpElse) }
func End() Instr   { return Op(OpEnd) }

func Br(depth uint32) Instr   { return Instr{Opcode: OpBr, Imm: BranchImm{LabelIdx: depth}} }
func BrIf(depth uint32) Instr { return Instr{Opcode: OpBrIf, Imm: BranchImm{LabelIdx: depth}} }

func Return() Instr      { return Op(OpReturn) }
func Unreachable() Instr { return Op(OpUnreachable) }

// Load and store helpers take a static offset; the alignment hint is the
// natural alignment of the access width.
func I32Load(offset uint32) Instr   { return memOp(OpI32Load, offset, 2) }
func I32Load8U(offset uint32) Instr { return memOp(OpI32Load8U, offset, 0) }
func I32Store(offset uint32) Instr  { return memOp(OpI32Store, offset, 2) }
func I32Store8(offset uint32) Instr { return memOp(OpI32Store8, offset, 0) }
func I32Store16(offset uint32) Instr {
	return memOp(OpI32Store16, offset, 1)
}
func I64Store(offset uint32) Instr { return memOp(OpI64Store, offset, 3) }

func memOp(op byte, offset, align uint32) Instr {
	return Instr{Opcode: op, Imm: MemoryImm{Offset: offset, Align: align}}
}

func MemorySize() Instr { return Op(OpMemorySize) }
func MemoryGrow() Instr { return Op(OpMemoryGrow) }

// MemoryCopy copies within memory 0: [dst src len] -> [].
func MemoryCopy() Instr {
	return Instr{Opcode: OpPrefixMisc, Imm: MiscImm{SubOpcode: MiscMemoryCopy, Operands: []uint32{0, 0}}}
}

// MemoryFill fills memory 0: [dst val len] -> [].
func MemoryFill() Instr {
	return Instr{Opcode: OpPrefixMisc, Imm: MiscImm{SubOpcode: MiscMemoryFill, Operands: []uint32{0}}}
}

// Name returns the text-format mnemonic.
func (i Instr) Name() string {
	if i.Opcode == OpPrefixMisc {
		if imm, ok := i.Imm.(MiscImm); ok {
			if n, ok := miscNames[imm.SubOpcode]; ok {
				return n
			}
		}
		return "unknown"
	}
	if n, ok := opcodeNames[i.Opcode]; ok {
		return n
	}
	return "unknown"
}
