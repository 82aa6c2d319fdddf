package gen

import (
	"github.com/RAKUDEJI/wacli/canon"
	"github.com/RAKUDEJI/wacli/wasm"
)

// Locals of the run export.
const (
	paramNamePtr = 0
	paramNameLen = 1
	paramArgvPtr = 2
	paramArgvLen = 3
	localRet     = 4
)

// resultArea is the command-result return area run allocates per call.
type resultArea struct {
	size, align uint32
}

func (r resultArea) alloc(allocFn uint32) []wasm.Instr {
	return []wasm.Instr{
		wasm.U32Const(r.size),
		wasm.U32Const(r.align),
		wasm.Call(allocFn),
		wasm.LocalSet(localRet),
	}
}

// constBody returns a body that yields a fixed address.
func constBody(name string, addr uint32) wasm.Func {
	return wasm.Func{
		Name: name,
		Body: []wasm.Instr{wasm.U32Const(addr)},
	}
}

// runBody builds run(name_ptr, name_len, argv_ptr, argv_len) -> i32: the
// dispatch chain followed by the unknown-command fallthrough, which stores
// the caller's own name pointer and length in a fresh result area.
func runBody(p *payload, entries []dispatchEntry, match, alloc uint32) (wasm.Func, error) {
	area := resultArea{size: p.result.Size, align: p.result.Align}

	code := dispatchChain(entries, match, alloc, area)
	code = append(code, area.alloc(alloc)...)

	e := canon.NewEmitter(p.img, localRet)
	if err := e.Emit(p.unknown, 0); err != nil {
		return wasm.Func{}, err
	}
	code = append(code, e.Code()...)
	code = append(code, wasm.LocalGet(localRet))

	return wasm.Func{
		Name:       "run",
		ParamNames: []string{"name_ptr", "name_len", "argv_ptr", "argv_len"},
		Locals:     []wasm.Local{{Name: "ret", Type: wasm.ValI32}},
		Body:       code,
	}, nil
}
