package canon

import (
	"encoding/binary"

	"go.bytecodealliance.org/wit"

	"github.com/RAKUDEJI/wacli/errors"
)

// Memory is a guest linear memory.
type Memory interface {
	Read(offset, length uint32) ([]byte, error)
	Write(offset uint32, data []byte) error
}

// Allocator reserves guest memory, normally through cabi_realloc.
type Allocator interface {
	Alloc(size, align uint32) (uint32, error)
}

// Lower writes n into guest memory at addr. Strings and list buffers are
// allocated through alloc.
func Lower(mem Memory, alloc Allocator, addr uint32, n *Node) error {
	return store(&memSink{mem: mem, alloc: alloc}, addr, n)
}

// LowerValue freezes v as t, allocates room for it and writes it, returning
// its address.
func (c *Calculator) LowerValue(mem Memory, alloc Allocator, t wit.Type, v Value) (uint32, error) {
	n, err := c.Freeze(t, v)
	if err != nil {
		return 0, err
	}
	addr, err := alloc.Alloc(n.Size, n.Align)
	if err != nil {
		return 0, errors.Wrap(errors.PhaseEncode, errors.KindOutOfBounds, err, "allocate value")
	}
	if err := Lower(mem, alloc, addr, n); err != nil {
		return 0, err
	}
	return addr, nil
}

type memSink struct {
	mem   Memory
	alloc Allocator
}

func (s *memSink) scalar(addr, width uint32, bits uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], bits)
	return s.mem.Write(addr, buf[:width])
}

func (s *memSink) str(addr uint32, text string) error {
	var ptr uint32
	if len(text) > 0 {
		var err error
		ptr, err = s.buffer(uint32(len(text)), 1)
		if err != nil {
			return err
		}
		if err := s.mem.Write(ptr, []byte(text)); err != nil {
			return err
		}
	}
	if err := s.scalar(addr, 4, uint64(ptr)); err != nil {
		return err
	}
	return s.scalar(addr+4, 4, uint64(len(text)))
}

func (s *memSink) dyn(uint32, DynString) error {
	return errors.Unsupported(errors.PhaseEncode, "run-time string lowered from the host")
}

func (s *memSink) buffer(size, align uint32) (uint32, error) {
	ptr, err := s.alloc.Alloc(size, align)
	if err != nil {
		return 0, errors.Wrap(errors.PhaseEncode, errors.KindOutOfBounds, err, "allocate buffer")
	}
	return ptr, nil
}
