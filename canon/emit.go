package canon

import (
	"github.com/RAKUDEJI/wacli/errors"
	"github.com/RAKUDEJI/wacli/wasm"
)

// Emitter produces instructions that store frozen nodes at run time at
// base+offset, where base is an i32 local. Static strings resolve to their
// addresses in img; DynString leaves read their locals.
//
// Lists with elements are not supported: their storage would need a run-time
// allocation, and every list the registry returns is precomputed instead.
type Emitter struct {
	img  *Image
	code []wasm.Instr
	base uint32
}

func NewEmitter(img *Image, baseLocal uint32) *Emitter {
	return &Emitter{img: img, base: baseLocal}
}

// Emit appends the stores for n at base+offset.
func (e *Emitter) Emit(n *Node, offset uint32) error {
	return store(e, offset, n)
}

// Code returns the instructions emitted so far.
func (e *Emitter) Code() []wasm.Instr {
	return e.code
}

func (e *Emitter) scalar(addr, width uint32, bits uint64) error {
	switch width {
	case 1:
		e.code = append(e.code, wasm.LocalGet(e.base), wasm.U32Const(uint32(bits)), wasm.I32Store8(addr))
	case 2:
		e.code = append(e.code, wasm.LocalGet(e.base), wasm.U32Const(uint32(bits)), wasm.I32Store16(addr))
	case 4:
		e.code = append(e.code, wasm.LocalGet(e.base), wasm.U32Const(uint32(bits)), wasm.I32Store(addr))
	case 8:
		e.code = append(e.code, wasm.LocalGet(e.base), wasm.I64Const(int64(bits)), wasm.I64Store(addr))
	}
	return nil
}

func (e *Emitter) str(addr uint32, s string) error {
	ptr, ok := e.img.StringAddr(s)
	if !ok {
		return errors.NotFound(errors.PhaseEmit, "interned string", s)
	}
	if err := e.scalar(addr, 4, uint64(ptr)); err != nil {
		return err
	}
	return e.scalar(addr+4, 4, uint64(len(s)))
}

func (e *Emitter) dyn(addr uint32, d DynString) error {
	e.code = append(e.code,
		wasm.LocalGet(e.base), wasm.LocalGet(d.Ptr), wasm.I32Store(addr),
		wasm.LocalGet(e.base), wasm.LocalGet(d.Len), wasm.I32Store(addr+4),
	)
	return nil
}

func (e *Emitter) buffer(uint32, uint32) (uint32, error) {
	return 0, errors.New(errors.PhaseEmit, errors.KindUnsupported).
		WitType("list").
		Detail("non-empty list stored by emitted code").
		Build()
}
