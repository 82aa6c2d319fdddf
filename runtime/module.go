package runtime

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/RAKUDEJI/wacli/canon"
	"github.com/RAKUDEJI/wacli/errors"
)

// Module is a loaded registry module.
type Module struct {
	runtime *Runtime
	wasm    []byte
	name    string
	imports []string
}

// Name returns the module name from the name section.
func (m *Module) Name() string {
	return m.name
}

// Imports returns the plugin import modules in declaration order.
func (m *Module) Imports() []string {
	return append([]string(nil), m.imports...)
}

// Instantiate creates an instance in a dedicated wazero runtime. plugins is
// keyed by import module name; keys the module does not import are an error.
func (m *Module) Instantiate(ctx context.Context, plugins map[string]Plugin) (*Instance, error) {
	known := make(map[string]bool, len(m.imports))
	for _, mod := range m.imports {
		known[mod] = true
	}
	for mod := range plugins {
		if !known[mod] {
			return nil, errors.NotFound(errors.PhaseRuntime, "plugin import", mod)
		}
	}

	eng := m.runtime.newEngine(ctx)
	calc := canon.NewCalculator()
	for _, mod := range m.imports {
		p, ok := plugins[mod]
		if !ok {
			Logger().Debug("plugin not linked", zap.String("module", mod))
			p = unlinked(mod)
		}
		if err := instantiateHost(ctx, eng, calc, mod, p); err != nil {
			eng.Close(ctx)
			return nil, errors.Instantiation(err)
		}
	}

	compiled, err := eng.CompileModule(ctx, m.wasm)
	if err != nil {
		eng.Close(ctx)
		return nil, errors.Load("compile registry module", err)
	}
	mod, err := eng.InstantiateModule(ctx, compiled, wazero.NewModuleConfig())
	if err != nil {
		eng.Close(ctx)
		return nil, errors.Instantiation(err)
	}

	inst := &Instance{
		engine:  eng,
		module:  mod,
		calc:    calc,
		mem:     guestMemory{mem: mod.Memory()},
		exports: make(map[string]api.Function),
	}
	for _, name := range requiredExports {
		inst.exports[name] = mod.ExportedFunction(name)
	}
	return inst, nil
}
