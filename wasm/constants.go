package wasm

// WebAssembly binary format magic number and version.
const (
	Magic   uint32 = 0x6D736100
	Version uint32 = 0x01
)

// Section IDs in the order they must appear.
const (
	SectionCustom   byte = 0
	SectionType     byte = 1
	SectionImport   byte = 2
	SectionFunction byte = 3
	SectionMemory   byte = 5
	SectionGlobal   byte = 6
	SectionExport   byte = 7
	SectionCode     byte = 10
	SectionData     byte = 11
)

// Import/export descriptor kinds.
const (
	KindFunc   byte = 0
	KindMemory byte = 2
	KindGlobal byte = 3
)

// Value types.
const (
	ValI32 ValType = 0x7F
	ValI64 ValType = 0x7E
)

// FuncTypeByte prefixes a function type in the type section.
const FuncTypeByte byte = 0x60

// BlockTypeVoid is the empty block type.
const BlockTypeVoid int32 = -64

// PageSize is the linear memory page size in bytes.
const PageSize = 65536

// Control flow
const (
	OpUnreachable byte = 0x00
	OpNop         byte = 0x01
	OpBlock       byte = 0x02
	OpLoop        byte = 0x03
	OpIf          byte = 0x04
	OpElse        byte = 0x05
	OpEnd         byte = 0x0B
	OpBr          byte = 0x0C
	OpBrIf        byte = 0x0D
	OpReturn      byte = 0x0F
	OpCall        byte = 0x10
)

// Parametric
const (
	OpDrop   byte = 0x1A
	OpSelect byte = 0x1B
)

// Variable access
const (
	OpLocalGet  byte = 0x20
	OpLocalSet  byte = 0x21
	OpLocalTee  byte = 0x22
	OpGlobalGet byte = 0x23
	OpGlobalSet byte = 0x24
)

// Memory
const (
	OpI32Load    byte = 0x28
	OpI32Load8U  byte = 0x2D
	OpI32Load16U byte = 0x2F
	OpI32Store   byte = 0x36
	OpI64Store   byte = 0x37
	OpI32Store8  byte = 0x3A
	OpI32Store16 byte = 0x3B
	OpMemorySize byte = 0x3F
	OpMemoryGrow byte = 0x40
)

// Constants
const (
	OpI32Const byte = 0x41
	OpI64Const byte = 0x42
)

// i32 comparison
const (
	OpI32Eqz byte = 0x45
	OpI32Eq  byte = 0x46
	OpI32Ne  byte = 0x47
	OpI32LtU byte = 0x49
	OpI32GtU byte = 0x4B
	OpI32LeU byte = 0x4D
	OpI32GeU byte = 0x4F
)

// i32 arithmetic
const (
	OpI32Add  byte = 0x6A
	OpI32Sub  byte = 0x6B
	OpI32Mul  byte = 0x6C
	OpI32And  byte = 0x71
	OpI32Or   byte = 0x72
	OpI32Shl  byte = 0x74
	OpI32ShrU byte = 0x76
)

// OpPrefixMisc introduces bulk memory instructions.
const OpPrefixMisc byte = 0xFC

// Misc sub-opcodes
const (
	MiscMemoryCopy uint32 = 10
	MiscMemoryFill uint32 = 11
)

// Name section subsection IDs.
const (
	nameSubModule   byte = 0
	nameSubFunction byte = 1
	nameSubLocal    byte = 2
)

var opcodeNames = map[byte]string{
	OpUnreachable: "unreachable",
	OpNop:         "nop",
	OpBlock:       "block",
	OpLoop:        "loop",
	OpIf:          "if",
	OpElse:        "else",
	OpEnd:         "end",
	OpBr:          "br",
	OpBrIf:        "br_if",
	OpReturn:      "return",
	OpCall:        "call",
	OpDrop:        "drop",
	OpSelect:      "select",
	OpLocalGet:    "local.get",
	OpLocalSet:    "local.set",
	OpLocalTee:    "local.tee",
	OpGlobalGet:   "global.get",
	OpGlobalSet:   "global.set",
	OpI32Load:     "i32.load",
	OpI32Load8U:   "i32.load8_u",
	OpI32Load16U:  "i32.load16_u",
	OpI32Store:    "i32.store",
	OpI64Store:    "i64.store",
	OpI32Store8:   "i32.store8",
	OpI32Store16:  "i32.store16",
	OpMemorySize:  "memory.size",
	OpMemoryGrow:  "memory.grow",
	OpI32Const:    "i32.const",
	OpI64Const:    "i64.const",
	OpI32Eqz:      "i32.eqz",
	OpI32Eq:       "i32.eq",
	OpI32Ne:       "i32.ne",
	OpI32LtU:      "i32.lt_u",
	OpI32GtU:      "i32.gt_u",
	OpI32LeU:      "i32.le_u",
	OpI32GeU:      "i32.ge_u",
	OpI32Add:      "i32.add",
	OpI32Sub:      "i32.sub",
	OpI32Mul:      "i32.mul",
	OpI32And:      "i32.and",
	OpI32Or:       "i32.or",
	OpI32Shl:      "i32.shl",
	OpI32ShrU:     "i32.shr_u",
}

var miscNames = map[uint32]string{
	MiscMemoryCopy: "memory.copy",
	MiscMemoryFill: "memory.fill",
}
