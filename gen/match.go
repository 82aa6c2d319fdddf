package gen

import "github.com/RAKUDEJI/wacli/wasm"

// matchName builds $match_name(cand_ptr, cand_len, key_ptr, key_len) -> i32.
// Lengths are compared before any memory is read.
func matchName() wasm.Func {
	const candPtr, candLen, keyPtr, keyLen, i = 0, 1, 2, 3, 4
	return wasm.Func{
		Name:       "match_name",
		ParamNames: []string{"cand_ptr", "cand_len", "key_ptr", "key_len"},
		Locals:     []wasm.Local{{Name: "i", Type: i32}},
		Body: []wasm.Instr{
			wasm.LocalGet(candLen),
			wasm.LocalGet(keyLen),
			wasm.Op(wasm.OpI32Ne),
			wasm.If(),
			wasm.I32Const(0),
			wasm.Return(),
			wasm.End(),

			wasm.Block(),
			wasm.Loop(),
			wasm.LocalGet(i),
			wasm.LocalGet(candLen),
			wasm.Op(wasm.OpI32GeU),
			wasm.BrIf(1),

			wasm.LocalGet(candPtr),
			wasm.LocalGet(i),
			wasm.Op(wasm.OpI32Add),
			wasm.I32Load8U(0),
			wasm.LocalGet(keyPtr),
			wasm.LocalGet(i),
			wasm.Op(wasm.OpI32Add),
			wasm.I32Load8U(0),
			wasm.Op(wasm.OpI32Ne),
			wasm.If(),
			wasm.I32Const(0),
			wasm.Return(),
			wasm.End(),

			wasm.LocalGet(i),
			wasm.I32Const(1),
			wasm.Op(wasm.OpI32Add),
			wasm.LocalSet(i),
			wasm.Br(0),
			wasm.End(),
			wasm.End(),

			wasm.I32Const(1),
		},
	}
}

// dispatchKey is one name or alias in the compiled dispatch chain.
type dispatchKey struct {
	addr, len uint32
}

// dispatchEntry is one command of the chain: its keys in declaration
// order and the index of its imported run.
type dispatchEntry struct {
	keys []dispatchKey
	run  uint32
}

// dispatchChain emits one guarded arm per entry. An arm tests each key with
// $match_name and, on the first hit, allocates the result area, calls the
// command's run with argv untouched and returns the area. Misses fall
// through to the next arm.
func dispatchChain(entries []dispatchEntry, match, alloc uint32, result resultArea) []wasm.Instr {
	var code []wasm.Instr
	for _, e := range entries {
		code = append(code, wasm.Block(), wasm.Block())
		for _, k := range e.keys {
			code = append(code,
				wasm.LocalGet(paramNamePtr),
				wasm.LocalGet(paramNameLen),
				wasm.U32Const(k.addr),
				wasm.U32Const(k.len),
				wasm.Call(match),
				wasm.BrIf(0),
			)
		}
		code = append(code, wasm.Br(1), wasm.End())
		code = append(code, result.alloc(alloc)...)
		code = append(code,
			wasm.LocalGet(paramArgvPtr),
			wasm.LocalGet(paramArgvLen),
			wasm.LocalGet(localRet),
			wasm.Call(e.run),
			wasm.LocalGet(localRet),
			wasm.Return(),
			wasm.End(),
		)
	}
	return code
}
