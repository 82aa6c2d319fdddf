package wasm

import (
	"fmt"
	"unicode/utf8"
)

// Validate checks index spaces, block nesting and data placement. It does
// not type-check operand stacks.
func (m *Module) Validate() error {
	numTypes := uint32(len(m.Types))
	for i, imp := range m.Imports {
		if imp.TypeIdx >= numTypes {
			return fmt.Errorf("import %d (%s.%s) references invalid type index %d", i, imp.Module, imp.Name, imp.TypeIdx)
		}
		if !utf8.ValidString(imp.Module) || !utf8.ValidString(imp.Name) {
			return fmt.Errorf("import %d: name is not valid UTF-8", i)
		}
	}
	for i := range m.Funcs {
		if err := m.validateFunc(i); err != nil {
			return err
		}
	}
	if err := m.validateFuncNames(); err != nil {
		return err
	}
	if err := m.validateExports(); err != nil {
		return err
	}
	return m.validateData()
}

func (m *Module) validateFunc(i int) error {
	f := &m.Funcs[i]
	if f.TypeIdx >= uint32(len(m.Types)) {
		return fmt.Errorf("function %q references invalid type index %d", f.Name, f.TypeIdx)
	}
	ft := m.Types[f.TypeIdx]
	if len(f.ParamNames) > len(ft.Params) {
		return fmt.Errorf("function %q names %d params, type has %d", f.Name, len(f.ParamNames), len(ft.Params))
	}
	numLocals := uint32(len(ft.Params) + len(f.Locals))
	numFuncs := uint32(m.NumFuncs())
	numGlobals := uint32(len(m.Globals))

	depth := 0
	for pc, in := range f.Body {
		switch imm := in.Imm.(type) {
		case LocalImm:
			if imm.LocalIdx >= numLocals {
				return fmt.Errorf("function %q: instruction %d: local %d out of range", f.Name, pc, imm.LocalIdx)
			}
		case GlobalImm:
			if imm.GlobalIdx >= numGlobals {
				return fmt.Errorf("function %q: instruction %d: global %d out of range", f.Name, pc, imm.GlobalIdx)
			}
			if in.Opcode == OpGlobalSet && !m.Globals[imm.GlobalIdx].Mutable {
				return fmt.Errorf("function %q: instruction %d: global %d is immutable", f.Name, pc, imm.GlobalIdx)
			}
		case CallImm:
			if imm.FuncIdx >= numFuncs {
				return fmt.Errorf("function %q: instruction %d: call target %d out of range", f.Name, pc, imm.FuncIdx)
			}
		case BranchImm:
			if int(imm.LabelIdx) > depth {
				return fmt.Errorf("function %q: instruction %d: branch depth %d exceeds nesting %d", f.Name, pc, imm.LabelIdx, depth)
			}
		case MemoryImm:
			if len(m.Memories) == 0 {
				return fmt.Errorf("function %q: instruction %d: memory access without memory", f.Name, pc)
			}
		}

		switch in.Opcode {
		case OpBlock, OpLoop, OpIf:
			depth++
		case OpEnd:
			depth--
			if depth < 0 {
				return fmt.Errorf("function %q: unbalanced end at instruction %d", f.Name, pc)
			}
		}
	}
	if depth != 0 {
		return fmt.Errorf("function %q: %d unterminated blocks", f.Name, depth)
	}
	return nil
}

// validateFuncNames rejects two functions sharing a name, since each name
// becomes a $identifier in the text format.
func (m *Module) validateFuncNames() error {
	seen := make(map[string]uint32, m.NumFuncs())
	for i := 0; i < m.NumFuncs(); i++ {
		name := m.FuncName(uint32(i))
		if name == "" {
			continue
		}
		if prev, ok := seen[name]; ok {
			return fmt.Errorf("functions %d and %d are both named %q", prev, i, name)
		}
		seen[name] = uint32(i)
	}
	return nil
}

func (m *Module) validateExports() error {
	seen := make(map[string]bool, len(m.Exports))
	for _, exp := range m.Exports {
		if seen[exp.Name] {
			return fmt.Errorf("duplicate export name %q", exp.Name)
		}
		seen[exp.Name] = true

		var limit int
		switch exp.Kind {
		case KindFunc:
			limit = m.NumFuncs()
		case KindMemory:
			limit = len(m.Memories)
		case KindGlobal:
			limit = len(m.Globals)
		default:
			return fmt.Errorf("export %q has unsupported kind %d", exp.Name, exp.Kind)
		}
		if int(exp.Idx) >= limit {
			return fmt.Errorf("export %q references index %d out of range", exp.Name, exp.Idx)
		}
	}
	return nil
}

func (m *Module) validateData() error {
	if len(m.Data) == 0 {
		return nil
	}
	if len(m.Memories) == 0 {
		return fmt.Errorf("data segment without memory")
	}
	limit := uint64(m.Memories[0].Min) * PageSize
	for i, d := range m.Data {
		if end := uint64(d.Offset) + uint64(len(d.Init)); end > limit {
			return fmt.Errorf("data segment %d ends at %d, past initial memory size %d", i, end, limit)
		}
	}
	return nil
}
