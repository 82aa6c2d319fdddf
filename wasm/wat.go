package wasm

import (
	"fmt"
	"strings"
)

// WAT renders the module in the text format using flat instruction syntax.
// Named functions, locals and globals print as $identifiers.
func (m *Module) WAT() string {
	var b strings.Builder
	b.WriteString("(module")
	if m.Name != "" {
		b.WriteString(" $" + m.Name)
	}
	b.WriteString("\n")

	for i, ft := range m.Types {
		fmt.Fprintf(&b, "  (type (;%d;) (func%s))\n", i, signature(ft, nil))
	}

	for i, imp := range m.Imports {
		fmt.Fprintf(&b, "  (import %s %s (func %s (type %d)))\n",
			quote([]byte(imp.Module)), quote([]byte(imp.Name)), m.funcRef(uint32(i)), imp.TypeIdx)
	}

	for i, mem := range m.Memories {
		fmt.Fprintf(&b, "  (memory (;%d;) %d", i, mem.Min)
		if mem.Max != nil {
			fmt.Fprintf(&b, " %d", *mem.Max)
		}
		b.WriteString(")\n")
	}

	for i, g := range m.Globals {
		ty := g.Type.String()
		if g.Mutable {
			ty = "(mut " + ty + ")"
		}
		fmt.Fprintf(&b, "  (global %s %s (%s.const %d))\n", m.globalRef(uint32(i)), ty, g.Type, g.Init)
	}

	for _, exp := range m.Exports {
		switch exp.Kind {
		case KindFunc:
			fmt.Fprintf(&b, "  (export %s (func %s))\n", quote([]byte(exp.Name)), m.funcRef(exp.Idx))
		case KindMemory:
			fmt.Fprintf(&b, "  (export %s (memory %d))\n", quote([]byte(exp.Name)), exp.Idx)
		case KindGlobal:
			fmt.Fprintf(&b, "  (export %s (global %s))\n", quote([]byte(exp.Name)), m.globalRef(exp.Idx))
		}
	}

	for i := range m.Funcs {
		m.writeFunc(&b, uint32(len(m.Imports)+i), &m.Funcs[i])
	}

	for _, d := range m.Data {
		fmt.Fprintf(&b, "  (data (i32.const %d) %s)\n", d.Offset, quote(d.Init))
	}

	b.WriteString(")\n")
	return b.String()
}

func (m *Module) writeFunc(b *strings.Builder, idx uint32, f *Func) {
	var ft FuncType
	if int(f.TypeIdx) < len(m.Types) {
		ft = m.Types[f.TypeIdx]
	}
	fmt.Fprintf(b, "  (func %s (type %d)%s\n", m.funcRef(idx), f.TypeIdx, signature(ft, f.ParamNames))
	for _, l := range f.Locals {
		if l.Name != "" {
			fmt.Fprintf(b, "    (local $%s %s)\n", l.Name, l.Type)
		} else {
			fmt.Fprintf(b, "    (local %s)\n", l.Type)
		}
	}

	level := 2
	for _, in := range f.Body {
		if in.Opcode == OpEnd || in.Opcode == OpElse {
			level--
		}
		b.WriteString(strings.Repeat("  ", level))
		b.WriteString(m.instrText(f, in))
		b.WriteString("\n")
		switch in.Opcode {
		case OpBlock, OpLoop, OpIf, OpElse:
			level++
		}
	}
	b.WriteString("  )\n")
}

func (m *Module) instrText(f *Func, in Instr) string {
	name := in.Name()
	switch imm := in.Imm.(type) {
	case LocalImm:
		if n := f.LocalName(imm.LocalIdx); n != "" {
			return name + " $" + n
		}
		return fmt.Sprintf("%s %d", name, imm.LocalIdx)
	case GlobalImm:
		return name + " " + m.globalRef(imm.GlobalIdx)
	case CallImm:
		return name + " " + m.funcRef(imm.FuncIdx)
	case BranchImm:
		return fmt.Sprintf("%s %d", name, imm.LabelIdx)
	case I32Imm:
		return fmt.Sprintf("%s %d", name, imm.Value)
	case I64Imm:
		return fmt.Sprintf("%s %d", name, imm.Value)
	case MemoryImm:
		if imm.Offset != 0 {
			return fmt.Sprintf("%s offset=%d", name, imm.Offset)
		}
	}
	return name
}

func (m *Module) funcRef(idx uint32) string {
	if n := m.FuncName(idx); n != "" {
		return "$" + n
	}
	return fmt.Sprintf("%d", idx)
}

func (m *Module) globalRef(idx uint32) string {
	if int(idx) < len(m.Globals) && m.Globals[idx].Name != "" {
		return "$" + m.Globals[idx].Name
	}
	return fmt.Sprintf("%d", idx)
}

func signature(ft FuncType, names []string) string {
	var b strings.Builder
	for i, p := range ft.Params {
		if i < len(names) && names[i] != "" {
			fmt.Fprintf(&b, " (param $%s %s)", names[i], p)
		} else {
			fmt.Fprintf(&b, " (param %s)", p)
		}
	}
	if len(ft.Results) > 0 {
		b.WriteString(" (result")
		for _, r := range ft.Results {
			b.WriteString(" " + r.String())
		}
		b.WriteString(")")
	}
	return b.String()
}

// quote renders bytes as a WAT string literal.
func quote(data []byte) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, c := range data {
		switch {
		case c == '"' || c == '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		case c >= 0x20 && c < 0x7f:
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "\\%02x", c)
		}
	}
	b.WriteByte('"')
	return b.String()
}
