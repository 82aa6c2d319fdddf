// Package gen synthesizes the registry core module.
//
// Generate takes a validated registry.Registry and emits a core WebAssembly
// module that implements the wacli:cli registry interfaces directly at the
// Canonical ABI level:
//
//	wacli:cli/registry@2.0.0#list-commands         () -> i32
//	wacli:cli/registry@2.0.0#run                   (i32 i32 i32 i32) -> i32
//	wacli:cli/registry-schema@2.0.0#list-schemas   () -> i32
//	wacli:cli/registry-schema@2.0.0#get-app-meta   () -> i32
//	cabi_realloc                                   (i32 i32 i32 i32) -> i32
//	memory
//
// Every command contributes two imports from its plugin interface, meta and
// run. The module has a single data segment at address 0: the interned
// string table followed by the precomputed return areas of list-commands,
// list-schemas and get-app-meta, so those exports only return a constant
// address. run compares the requested name against each command's name and
// aliases in declaration order and forwards argv untouched to the first
// match. A bump allocator serves cabi_realloc and run's return area; its
// heap pointer starts at the 8-aligned end of the data segment and never
// moves backwards.
//
// All static bytes and every store emitted into run come from one frozen
// canon.Node tree per value, so the data segment and the code cannot
// disagree about a layout.
package gen
