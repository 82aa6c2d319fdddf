package gen

import "github.com/RAKUDEJI/wacli/wasm"

const i32 = wasm.ValI32

// allocAlign builds $alloc_align(size, align) -> ptr over the heap global.
//
// The pointer is the heap rounded up to align (0 counts as 1); align must
// be a power of two. Memory grows when the reservation passes its current
// end. Address overflow and failed growth trap.
func allocAlign(heap uint32) wasm.Func {
	const size, align, ptr, end = 0, 1, 2, 3
	return wasm.Func{
		Name:       "alloc_align",
		ParamNames: []string{"size", "align"},
		Locals:     []wasm.Local{{Name: "ptr", Type: i32}, {Name: "end", Type: i32}},
		Body: []wasm.Instr{
			wasm.LocalGet(align),
			wasm.Op(wasm.OpI32Eqz),
			wasm.If(),
			wasm.I32Const(1),
			wasm.LocalSet(align),
			wasm.End(),

			// ptr = (heap + align - 1) & -align
			wasm.GlobalGet(heap),
			wasm.LocalGet(align),
			wasm.Op(wasm.OpI32Add),
			wasm.I32Const(1),
			wasm.Op(wasm.OpI32Sub),
			wasm.LocalTee(ptr),
			wasm.GlobalGet(heap),
			wasm.Op(wasm.OpI32LtU),
			wasm.If(),
			wasm.Unreachable(),
			wasm.End(),
			wasm.LocalGet(ptr),
			wasm.I32Const(0),
			wasm.LocalGet(align),
			wasm.Op(wasm.OpI32Sub),
			wasm.Op(wasm.OpI32And),
			wasm.LocalTee(ptr),

			// end = ptr + size
			wasm.LocalGet(size),
			wasm.Op(wasm.OpI32Add),
			wasm.LocalTee(end),
			wasm.LocalGet(ptr),
			wasm.Op(wasm.OpI32LtU),
			wasm.If(),
			wasm.Unreachable(),
			wasm.End(),

			// grow by ceil(end / page) - memory.size pages
			wasm.LocalGet(end),
			wasm.MemorySize(),
			wasm.I32Const(16),
			wasm.Op(wasm.OpI32Shl),
			wasm.Op(wasm.OpI32GtU),
			wasm.If(),
			wasm.LocalGet(end),
			wasm.I32Const(1),
			wasm.Op(wasm.OpI32Sub),
			wasm.I32Const(16),
			wasm.Op(wasm.OpI32ShrU),
			wasm.I32Const(1),
			wasm.Op(wasm.OpI32Add),
			wasm.MemorySize(),
			wasm.Op(wasm.OpI32Sub),
			wasm.MemoryGrow(),
			wasm.I32Const(-1),
			wasm.Op(wasm.OpI32Eq),
			wasm.If(),
			wasm.Unreachable(),
			wasm.End(),
			wasm.End(),

			wasm.LocalGet(end),
			wasm.GlobalSet(heap),
			wasm.LocalGet(ptr),
		},
	}
}

// cabiRealloc builds cabi_realloc(old_ptr, old_size, align, new_size).
// Every call is a fresh allocation; a non-zero old_ptr has its first
// min(old_size, new_size) bytes copied over.
func cabiRealloc(alloc uint32) wasm.Func {
	const oldPtr, oldSize, align, newSize, ptr = 0, 1, 2, 3, 4
	return wasm.Func{
		Name:       "cabi_realloc",
		ParamNames: []string{"old_ptr", "old_size", "align", "new_size"},
		Locals:     []wasm.Local{{Name: "ptr", Type: i32}},
		Body: []wasm.Instr{
			wasm.LocalGet(newSize),
			wasm.LocalGet(align),
			wasm.Call(alloc),
			wasm.LocalSet(ptr),

			wasm.LocalGet(oldPtr),
			wasm.If(),
			wasm.LocalGet(ptr),
			wasm.LocalGet(oldPtr),
			wasm.LocalGet(oldSize),
			wasm.LocalGet(newSize),
			wasm.LocalGet(oldSize),
			wasm.LocalGet(newSize),
			wasm.Op(wasm.OpI32LtU),
			wasm.Op(wasm.OpSelect),
			wasm.MemoryCopy(),
			wasm.End(),

			wasm.LocalGet(ptr),
		},
	}
}
