package runtime

import (
	"context"

	"github.com/tetratelabs/wazero/api"

	"github.com/RAKUDEJI/wacli/errors"
)

// guestMemory adapts a wazero memory to canon.Memory.
type guestMemory struct {
	mem api.Memory
}

func (g guestMemory) Read(offset, length uint32) ([]byte, error) {
	b, ok := g.mem.Read(offset, length)
	if !ok {
		return nil, errors.OutOfBounds(errors.PhaseRuntime, nil, offset, length)
	}
	return b, nil
}

func (g guestMemory) Write(offset uint32, data []byte) error {
	if !g.mem.Write(offset, data) {
		return errors.OutOfBounds(errors.PhaseRuntime, nil, offset, uint32(len(data)))
	}
	return nil
}

// guestAllocator allocates through the guest's cabi_realloc.
type guestAllocator struct {
	ctx context.Context
	fn  api.Function
}

func (a guestAllocator) Alloc(size, align uint32) (uint32, error) {
	res, err := a.fn.Call(a.ctx, 0, 0, api.EncodeU32(align), api.EncodeU32(size))
	if err != nil {
		return 0, errors.Wrap(errors.PhaseRuntime, errors.KindOutOfBounds, err, "cabi_realloc")
	}
	return api.DecodeU32(res[0]), nil
}
