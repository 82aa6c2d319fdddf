package runtime

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"
	"go.uber.org/zap"

	"github.com/RAKUDEJI/wacli/canon"
	"github.com/RAKUDEJI/wacli/errors"
	"github.com/RAKUDEJI/wacli/witapi"
)

// Names of the functions imported from each plugin interface.
const (
	importMeta = "meta"
	importRun  = "run"
)

// MaxArgs bounds the argv length a plugin run accepts from the guest.
const MaxArgs = 1 << 16

// RunFunc implements a command. A non-nil *witapi.CommandError is returned
// to the guest as the err case of command-result.
type RunFunc func(ctx context.Context, argv []string) (uint32, *witapi.CommandError)

// Plugin is the Go implementation of one command interface.
type Plugin struct {
	Meta witapi.CommandMeta
	Run  RunFunc
}

func unlinked(mod string) Plugin {
	return Plugin{
		Run: func(context.Context, []string) (uint32, *witapi.CommandError) {
			return 0, &witapi.CommandError{Kind: witapi.ErrFailed, Message: "command not linked"}
		},
		Meta: witapi.CommandMeta{Summary: "unlinked " + mod},
	}
}

// instantiateHost exports meta(ret) and run(argv_ptr, argv_len, ret) under
// module name mod. Both lower their result at ret through the caller's
// cabi_realloc. A failure inside either traps the guest call.
func instantiateHost(ctx context.Context, eng wazero.Runtime, calc *canon.Calculator, mod string, p Plugin) error {
	i32 := api.ValueTypeI32
	log := Logger().With(zap.String("module", mod))

	meta := api.GoModuleFunc(func(ctx context.Context, caller api.Module, stack []uint64) {
		ret := api.DecodeU32(stack[0])
		if err := lowerInto(ctx, caller, calc, witapi.CommandMetaType(), p.Meta.Value(), ret); err != nil {
			log.Error("meta failed", zap.Error(err))
			panic(err)
		}
	})

	run := api.GoModuleFunc(func(ctx context.Context, caller api.Module, stack []uint64) {
		argvPtr, argvLen, ret := api.DecodeU32(stack[0]), api.DecodeU32(stack[1]), api.DecodeU32(stack[2])
		mem := guestMemory{mem: caller.Memory()}

		argv, err := liftArgv(calc, mem, argvPtr, argvLen)
		if err != nil {
			log.Error("argv lift failed", zap.Error(err))
			panic(err)
		}

		code, cerr := p.Run(ctx, argv)
		log.Debug("command run",
			zap.Strings("argv", argv),
			zap.Uint32("code", code),
			zap.Bool("error", cerr != nil))

		if err := lowerInto(ctx, caller, calc, witapi.CommandResultType(), witapi.ResultValue(code, cerr), ret); err != nil {
			log.Error("result lower failed", zap.Error(err))
			panic(err)
		}
	})

	_, err := eng.NewHostModuleBuilder(mod).
		NewFunctionBuilder().WithGoModuleFunction(meta, []api.ValueType{i32}, nil).Export(importMeta).
		NewFunctionBuilder().WithGoModuleFunction(run, []api.ValueType{i32, i32, i32}, nil).Export(importRun).
		Instantiate(ctx)
	return err
}

// liftArgv reads a list<string> given as its (ptr, len) pair.
func liftArgv(calc *canon.Calculator, mem canon.Memory, ptr, n uint32) ([]string, error) {
	if n > MaxArgs {
		return nil, errors.Capacity(errors.PhaseRuntime, []string{"argv"}, "argument", int(n), MaxArgs)
	}
	if uint64(ptr)+uint64(n)*8 > 1<<32 {
		return nil, errors.OutOfBounds(errors.PhaseRuntime, []string{"argv"}, ptr, n*8)
	}
	argv := make([]string, n)
	for i := range argv {
		v, err := calc.Lift(mem, wit.String{}, ptr+uint32(i)*8)
		if err != nil {
			return nil, err
		}
		argv[i] = string(v.(canon.Str))
	}
	return argv, nil
}

// lowerInto writes v at ret in the caller's memory.
func lowerInto(ctx context.Context, caller api.Module, calc *canon.Calculator, t wit.Type, v canon.Value, ret uint32) error {
	n, err := calc.Freeze(t, v)
	if err != nil {
		return err
	}
	realloc := caller.ExportedFunction(witapi.ExportRealloc)
	if realloc == nil {
		return fmt.Errorf("caller does not export %s", witapi.ExportRealloc)
	}
	return canon.Lower(guestMemory{mem: caller.Memory()}, guestAllocator{ctx: ctx, fn: realloc}, ret, n)
}
