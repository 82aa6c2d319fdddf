package runtime

import (
	"context"
	"encoding/binary"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"

	"github.com/RAKUDEJI/wacli/canon"
	"github.com/RAKUDEJI/wacli/errors"
	"github.com/RAKUDEJI/wacli/witapi"
)

// Instance is one instantiated registry module with its plugins bound.
type Instance struct {
	engine  wazero.Runtime
	module  api.Module
	calc    *canon.Calculator
	mem     guestMemory
	exports map[string]api.Function
}

// ListCommands calls list-commands and lifts the result.
func (i *Instance) ListCommands(ctx context.Context) ([]witapi.CommandMeta, error) {
	v, err := i.callLift(ctx, witapi.ExportListCommands, witapi.CommandMetaListType())
	if err != nil {
		return nil, err
	}
	list := v.(canon.List)
	out := make([]witapi.CommandMeta, len(list))
	for j, e := range list {
		if out[j], err = witapi.CommandMetaFromValue(e); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ListSchemas calls list-schemas and lifts the result.
func (i *Instance) ListSchemas(ctx context.Context) ([]witapi.CommandSchema, error) {
	v, err := i.callLift(ctx, witapi.ExportListSchemas, witapi.CommandSchemaListType())
	if err != nil {
		return nil, err
	}
	list := v.(canon.List)
	out := make([]witapi.CommandSchema, len(list))
	for j, e := range list {
		if out[j], err = witapi.CommandSchemaFromValue(e); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// AppMeta calls get-app-meta and lifts the result.
func (i *Instance) AppMeta(ctx context.Context) (witapi.AppMeta, error) {
	v, err := i.callLift(ctx, witapi.ExportGetAppMeta, witapi.AppMetaType())
	if err != nil {
		return witapi.AppMeta{}, err
	}
	return witapi.AppMetaFromValue(v)
}

// Run lowers name and argv into guest memory, calls run and lifts the
// command-result. A command-level failure, including unknown-command, is
// returned as *witapi.CommandError; err is reserved for host failures.
func (i *Instance) Run(ctx context.Context, name string, argv []string) (uint32, *witapi.CommandError, error) {
	alloc := guestAllocator{ctx: ctx, fn: i.exports[witapi.ExportRealloc]}

	namePtr, err := i.lowerBytes(alloc, []byte(name))
	if err != nil {
		return 0, nil, err
	}
	argvAddr, err := i.calc.LowerValue(i.mem, alloc, witapi.ArgvType(), canon.Strings(argv))
	if err != nil {
		return 0, nil, err
	}
	pair, err := i.mem.Read(argvAddr, 8)
	if err != nil {
		return 0, nil, err
	}
	argvPtr := binary.LittleEndian.Uint32(pair)
	argvLen := binary.LittleEndian.Uint32(pair[4:])

	res, err := i.exports[witapi.ExportRun].Call(ctx,
		api.EncodeU32(namePtr), api.EncodeU32(uint32(len(name))),
		api.EncodeU32(argvPtr), api.EncodeU32(argvLen))
	if err != nil {
		return 0, nil, errors.Wrap(errors.PhaseRuntime, errors.KindInvalidData, err, "call "+witapi.ExportRun)
	}
	v, err := i.calc.Lift(i.mem, witapi.CommandResultType(), api.DecodeU32(res[0]))
	if err != nil {
		return 0, nil, err
	}
	return witapi.ResultFromValue(v)
}

// Call invokes any exported function with raw core arguments. It reaches
// the helper exports of modules generated with ExportHelpers.
func (i *Instance) Call(ctx context.Context, name string, params ...uint64) ([]uint64, error) {
	fn := i.module.ExportedFunction(name)
	if fn == nil {
		return nil, errors.NotFound(errors.PhaseRuntime, "export", name)
	}
	return fn.Call(ctx, params...)
}

// Memory exposes the instance's linear memory for inspection.
func (i *Instance) Memory() canon.Memory {
	return i.mem
}

// MemorySize returns the current linear memory size in bytes.
func (i *Instance) MemorySize() uint32 {
	return i.mem.mem.Size()
}

// Close releases the instance and its dedicated runtime.
func (i *Instance) Close(ctx context.Context) error {
	return i.engine.Close(ctx)
}

func (i *Instance) callLift(ctx context.Context, export string, t wit.Type) (canon.Value, error) {
	res, err := i.exports[export].Call(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseRuntime, errors.KindInvalidData, err, "call "+export)
	}
	return i.calc.Lift(i.mem, t, api.DecodeU32(res[0]))
}

func (i *Instance) lowerBytes(alloc guestAllocator, b []byte) (uint32, error) {
	if len(b) == 0 {
		return 0, nil
	}
	ptr, err := alloc.Alloc(uint32(len(b)), 1)
	if err != nil {
		return 0, err
	}
	return ptr, i.mem.Write(ptr, b)
}
