package gen

import (
	"go.uber.org/zap"

	"github.com/RAKUDEJI/wacli/registry"
	"github.com/RAKUDEJI/wacli/wasm"
)

// Defaults for Options fields left empty.
const (
	DefaultModuleName = "wacli-registry"
	DefaultPackage    = "wacli:app"
)

// Options configures Generate.
type Options struct {
	// ModuleName goes into the name section.
	ModuleName string
	// Package is the package of the WAC composition text.
	Package string
	// ExportHelpers also exports match_name and alloc_align.
	ExportHelpers bool
}

func (o Options) moduleName() string {
	if o.ModuleName != "" {
		return o.ModuleName
	}
	return DefaultModuleName
}

func (o Options) pkg() string {
	if o.Package != "" {
		return o.Package
	}
	return DefaultPackage
}

// Stats summarizes a generated module.
type Stats struct {
	Commands    int
	Keys        int // names plus aliases
	StringBytes uint32
	DataBytes   uint32
	HeapStart   uint32
	MemoryPages uint32
	Functions   int
	WasmBytes   int
}

// Output is everything produced for one registry.
type Output struct {
	Module *wasm.Module
	Wasm   []byte
	WAT    string
	WIT    string // dynamic-registry world
	WAC    string // composition graph
	Stats  Stats
}

// Generate validates reg and emits its registry module. Any build-time
// violation aborts generation with an *errors.Error.
func Generate(reg *registry.Registry, opts Options) (*Output, error) {
	log := Logger()

	if err := reg.Validate(); err != nil {
		return nil, err
	}

	p, err := buildPayload(reg)
	if err != nil {
		return nil, err
	}
	log.Debug("payload built",
		zap.Int("commands", len(reg.Commands)),
		zap.Uint32("string_bytes", p.img.Strings.Len()),
		zap.Int("data_bytes", len(p.img.Bytes)),
		zap.Uint32("list_commands", p.commands),
		zap.Uint32("list_schemas", p.schemas),
		zap.Uint32("app_meta", p.app))

	m, lay, err := assemble(reg, p, opts)
	if err != nil {
		return nil, err
	}

	out := &Output{
		Module: m,
		Wasm:   m.Encode(),
		WAT:    m.WAT(),
		WIT:    DynamicWIT(reg),
		WAC:    WAC(opts.pkg(), reg),
	}
	out.Stats = Stats{
		Commands:    len(reg.Commands),
		Keys:        lay.keys,
		StringBytes: p.img.Strings.Len(),
		DataBytes:   uint32(len(p.img.Bytes)),
		HeapStart:   lay.heapStart,
		MemoryPages: lay.pages,
		Functions:   m.NumFuncs(),
		WasmBytes:   len(out.Wasm),
	}
	log.Debug("module generated",
		zap.String("name", m.Name),
		zap.Int("keys", lay.keys),
		zap.Uint32("heap_start", lay.heapStart),
		zap.Uint32("pages", lay.pages),
		zap.Int("wasm_bytes", len(out.Wasm)))
	return out, nil
}
