package wasm

import "slices"

// ValType is a core value type.
type ValType byte

func (v ValType) String() string {
	switch v {
	case ValI32:
		return "i32"
	case ValI64:
		return "i64"
	default:
		return "unknown"
	}
}

// FuncType is a function signature.
type FuncType struct {
	Params  []ValType
	Results []ValType
}

// Equal reports whether two signatures are identical.
func (f FuncType) Equal(o FuncType) bool {
	return slices.Equal(f.Params, o.Params) && slices.Equal(f.Results, o.Results)
}

// Import is a function import.
type Import struct {
	Module  string
	Name    string
	Debug   string // name section entry, optional
	TypeIdx uint32
}

// Local is a named function local.
type Local struct {
	Name string
	Type ValType
}

// Func is a defined function. Body excludes the terminating end.
type Func struct {
	Name       string
	ParamNames []string
	Locals     []Local
	Body       []Instr
	TypeIdx    uint32
}

// Memory is a linear memory declaration in pages.
type Memory struct {
	Max *uint32
	Min uint32
}

// Global is an i32 or i64 global with a constant initializer.
type Global struct {
	Name    string
	Type    ValType
	Mutable bool
	Init    int64
}

// Export maps an external name to an index of the given kind.
type Export struct {
	Name string
	Kind byte
	Idx  uint32
}

// Data is an active segment for memory 0.
type Data struct {
	Init   []byte
	Offset uint32
}

// Module is a core module under construction.
type Module struct {
	Name     string
	Types    []FuncType
	Imports  []Import
	Funcs    []Func
	Memories []Memory
	Globals  []Global
	Exports  []Export
	Data     []Data
}

// AddType returns the index of ft, adding it if no equal type exists.
func (m *Module) AddType(ft FuncType) uint32 {
	for i, t := range m.Types {
		if t.Equal(ft) {
			return uint32(i)
		}
	}
	m.Types = append(m.Types, ft)
	return uint32(len(m.Types) - 1)
}

// ImportFunc adds a function import and returns its function index.
// It panics once defined functions exist, since they would be renumbered.
func (m *Module) ImportFunc(module, name, debug string, ft FuncType) uint32 {
	if len(m.Funcs) > 0 {
		panic("wasm: import added after defined functions")
	}
	m.Imports = append(m.Imports, Import{
		Module:  module,
		Name:    name,
		Debug:   debug,
		TypeIdx: m.AddType(ft),
	})
	return uint32(len(m.Imports) - 1)
}

// AddFunc appends a defined function and returns its function index.
func (m *Module) AddFunc(f Func) uint32 {
	m.Funcs = append(m.Funcs, f)
	return uint32(len(m.Imports) + len(m.Funcs) - 1)
}

// AddMemory declares a memory and returns its index.
func (m *Module) AddMemory(mem Memory) uint32 {
	m.Memories = append(m.Memories, mem)
	return uint32(len(m.Memories) - 1)
}

// AddGlobal declares a global and returns its index.
func (m *Module) AddGlobal(g Global) uint32 {
	m.Globals = append(m.Globals, g)
	return uint32(len(m.Globals) - 1)
}

// AddData appends an active data segment.
func (m *Module) AddData(offset uint32, init []byte) {
	m.Data = append(m.Data, Data{Offset: offset, Init: init})
}

// ExportFunc exports a function.
func (m *Module) ExportFunc(name string, idx uint32) {
	m.Exports = append(m.Exports, Export{Name: name, Kind: KindFunc, Idx: idx})
}

// ExportMemory exports a memory.
func (m *Module) ExportMemory(name string, idx uint32) {
	m.Exports = append(m.Exports, Export{Name: name, Kind: KindMemory, Idx: idx})
}

// NumFuncs returns the size of the function index space.
func (m *Module) NumFuncs() int {
	return len(m.Imports) + len(m.Funcs)
}

// FuncType returns the signature of function idx.
func (m *Module) FuncType(idx uint32) (FuncType, bool) {
	var typeIdx uint32
	switch {
	case int(idx) < len(m.Imports):
		typeIdx = m.Imports[idx].TypeIdx
	case int(idx) < m.NumFuncs():
		typeIdx = m.Funcs[int(idx)-len(m.Imports)].TypeIdx
	default:
		return FuncType{}, false
	}
	if int(typeIdx) >= len(m.Types) {
		return FuncType{}, false
	}
	return m.Types[typeIdx], true
}

// FuncName returns the debug name of function idx, if any.
func (m *Module) FuncName(idx uint32) string {
	switch {
	case int(idx) < len(m.Imports):
		return m.Imports[idx].Debug
	case int(idx) < m.NumFuncs():
		return m.Funcs[int(idx)-len(m.Imports)].Name
	}
	return ""
}

// LocalName returns the name of local idx in f, parameters first.
func (f *Func) LocalName(idx uint32) string {
	if int(idx) < len(f.ParamNames) {
		return f.ParamNames[idx]
	}
	i := int(idx) - len(f.ParamNames)
	if i >= 0 && i < len(f.Locals) {
		return f.Locals[i].Name
	}
	return ""
}
