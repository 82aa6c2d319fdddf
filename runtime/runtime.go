package runtime

import (
	"context"

	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"

	"github.com/RAKUDEJI/wacli/errors"
	"github.com/RAKUDEJI/wacli/witapi"
)

// Runtime compiles registry modules and creates instances of them.
type Runtime struct {
	cache     wazero.CompilationCache
	ownsCache bool
}

// Option configures New.
type Option func(*Runtime)

// WithCompilationCache shares an existing compilation cache. The caller
// keeps ownership and closes it after the Runtime.
func WithCompilationCache(cache wazero.CompilationCache) Option {
	return func(r *Runtime) {
		r.cache = cache
		r.ownsCache = false
	}
}

func New(ctx context.Context, opts ...Option) (*Runtime, error) {
	r := &Runtime{}
	for _, opt := range opts {
		opt(r)
	}
	if r.cache == nil {
		r.cache = wazero.NewCompilationCache()
		r.ownsCache = true
	}
	return r, nil
}

// Close releases the compilation cache if the Runtime created it.
// All instances must be closed before calling this.
func (r *Runtime) Close(ctx context.Context) error {
	if r.ownsCache {
		return r.cache.Close(ctx)
	}
	return nil
}

func (r *Runtime) newEngine(ctx context.Context) wazero.Runtime {
	return wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfig().WithCompilationCache(r.cache))
}

// requiredExports are the functions every registry module provides.
var requiredExports = []string{
	witapi.ExportListCommands,
	witapi.ExportListSchemas,
	witapi.ExportGetAppMeta,
	witapi.ExportRun,
	witapi.ExportRealloc,
}

// Load compiles a registry module and checks its exports and imports.
// The compiled code is cached, so instantiation does not recompile.
func (r *Runtime) Load(ctx context.Context, wasm []byte) (*Module, error) {
	eng := r.newEngine(ctx)
	defer eng.Close(ctx)

	compiled, err := eng.CompileModule(ctx, wasm)
	if err != nil {
		return nil, errors.Load("compile registry module", err)
	}

	m := &Module{runtime: r, wasm: wasm, name: compiled.Name()}
	seen := make(map[string]bool)
	for _, def := range compiled.ImportedFunctions() {
		mod, name, _ := def.Import()
		if name != importMeta && name != importRun {
			return nil, errors.New(errors.PhaseLoad, errors.KindUnsupported).
				Path(mod, name).
				Detail("registry modules import only meta and run").
				Build()
		}
		if !seen[mod] {
			seen[mod] = true
			m.imports = append(m.imports, mod)
		}
	}

	exports := compiled.ExportedFunctions()
	for _, name := range requiredExports {
		if _, ok := exports[name]; !ok {
			return nil, errors.NotFound(errors.PhaseLoad, "export", name)
		}
	}
	if _, ok := compiled.ExportedMemories()[witapi.ExportMemory]; !ok {
		return nil, errors.NotFound(errors.PhaseLoad, "memory export", witapi.ExportMemory)
	}

	Logger().Debug("registry module loaded",
		zap.String("name", m.name),
		zap.Int("imports", len(m.imports)),
		zap.Int("bytes", len(wasm)))
	return m, nil
}
