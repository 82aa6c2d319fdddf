package gen

import (
	"math"

	"github.com/RAKUDEJI/wacli/canon"
	"github.com/RAKUDEJI/wacli/errors"
	"github.com/RAKUDEJI/wacli/registry"
	"github.com/RAKUDEJI/wacli/wasm"
	"github.com/RAKUDEJI/wacli/witapi"
)

// Names of the helper exports added by Options.ExportHelpers.
const (
	ExportMatchName  = "match_name"
	ExportAllocAlign = "alloc_align"
)

// HeapAlign is the alignment of the heap pointer's initial value.
const HeapAlign = 8

const maxPages = 1 << 16

// layout records where things ended up in the module.
type layout struct {
	heapStart uint32
	pages     uint32
	keys      int
}

// assemble splices the payload and the generated bodies into the module
// skeleton. Function indices: two imports per command (meta, run), then
// alloc_align, cabi_realloc, match_name, list-commands, list-schemas,
// get-app-meta and run.
func assemble(reg *registry.Registry, p *payload, opts Options) (*wasm.Module, layout, error) {
	var lay layout
	m := &wasm.Module{Name: opts.moduleName()}

	metaType := wasm.FuncType{Params: []wasm.ValType{i32}}
	runType := wasm.FuncType{Params: []wasm.ValType{i32, i32, i32}}

	entries := make([]dispatchEntry, len(reg.Commands))
	for i := range reg.Commands {
		c := &reg.Commands[i]
		mod := c.ImportModule()
		id := pluginIdent(c.Name)
		m.ImportFunc(mod, "meta", id+"_meta", metaType)
		entries[i].run = m.ImportFunc(mod, "run", id+"_run", runType)

		for _, k := range c.Keys() {
			addr, ok := p.img.StringAddr(k)
			if !ok {
				return nil, lay, errors.NotFound(errors.PhaseEmit, "dispatch key", k)
			}
			entries[i].keys = append(entries[i].keys, dispatchKey{addr: addr, len: uint32(len(k))})
			lay.keys++
		}
	}

	if p.img.End() > math.MaxUint32-HeapAlign {
		return nil, lay, errors.Overflow(errors.PhaseEmit, nil, "heap start")
	}
	lay.heapStart = canon.AlignTo(p.img.End(), HeapAlign)
	pages := (uint64(lay.heapStart)+wasm.PageSize-1)/wasm.PageSize + 1
	if pages > maxPages {
		return nil, lay, errors.Overflow(errors.PhaseEmit, nil, "initial memory")
	}

	lay.pages = uint32(pages)
	m.AddMemory(wasm.Memory{Min: lay.pages})
	heap := m.AddGlobal(wasm.Global{Name: "heap", Type: i32, Mutable: true, Init: int64(int32(lay.heapStart))})
	m.AddData(p.img.Base, p.img.Bytes)

	allocType := m.AddType(wasm.FuncType{Params: []wasm.ValType{i32, i32}, Results: []wasm.ValType{i32}})
	quadType := m.AddType(wasm.FuncType{Params: []wasm.ValType{i32, i32, i32, i32}, Results: []wasm.ValType{i32}})
	nullaryType := m.AddType(wasm.FuncType{Results: []wasm.ValType{i32}})

	allocFn := allocAlign(heap)
	allocFn.TypeIdx = allocType
	alloc := m.AddFunc(allocFn)

	reallocFn := cabiRealloc(alloc)
	reallocFn.TypeIdx = quadType
	realloc := m.AddFunc(reallocFn)

	matchFn := matchName()
	matchFn.TypeIdx = quadType
	match := m.AddFunc(matchFn)

	listCommands := constBody("list_commands", p.commands)
	listCommands.TypeIdx = nullaryType
	listSchemas := constBody("list_schemas", p.schemas)
	listSchemas.TypeIdx = nullaryType
	appMeta := constBody("get_app_meta", p.app)
	appMeta.TypeIdx = nullaryType

	run, err := runBody(p, entries, match, alloc)
	if err != nil {
		return nil, lay, err
	}
	run.TypeIdx = quadType

	m.ExportFunc(witapi.ExportListCommands, m.AddFunc(listCommands))
	m.ExportFunc(witapi.ExportListSchemas, m.AddFunc(listSchemas))
	m.ExportFunc(witapi.ExportGetAppMeta, m.AddFunc(appMeta))
	m.ExportFunc(witapi.ExportRun, m.AddFunc(run))
	m.ExportFunc(witapi.ExportRealloc, realloc)
	m.ExportMemory(witapi.ExportMemory, 0)
	if opts.ExportHelpers {
		m.ExportFunc(ExportMatchName, match)
		m.ExportFunc(ExportAllocAlign, alloc)
	}

	if err := m.Validate(); err != nil {
		return nil, lay, errors.Wrap(errors.PhaseEmit, errors.KindInvalidData, err, "generated module failed validation")
	}
	return m, lay, nil
}
