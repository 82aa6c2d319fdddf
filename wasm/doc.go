// Package wasm is a small in-memory model of a core WebAssembly module with
// a binary encoder and a WAT printer.
//
// It covers exactly what the registry generator emits: i32 functions with
// named locals, function imports, one linear memory, mutable globals, active
// data segments, exports and a name section.
//
// # Building
//
//	m := &wasm.Module{}
//	ty := m.AddType(wasm.FuncType{Results: []wasm.ValType{wasm.ValI32}})
//	idx := m.AddFunc(wasm.Func{
//		Name:    "answer",
//		TypeIdx: ty,
//		Body:    []wasm.Instr{wasm.I32Const(42)},
//	})
//	m.ExportFunc("answer", idx)
//
// Imports must be added before functions because imported functions occupy
// the low end of the function index space.
//
// # Output
//
//	if err := m.Validate(); err != nil { ... }
//	bin := m.Encode()
//	text := m.WAT()
//
// Both renderings come from the same Module, so they never disagree.
package wasm
