package wasm

import (
	"bytes"
	"encoding/binary"
)

// writer accumulates binary-format output.
type writer struct {
	buf bytes.Buffer
}

func (w *writer) byte(b byte)       { w.buf.WriteByte(b) }
func (w *writer) bytes(data []byte) { w.buf.Write(data) }

// u32 writes unsigned LEB128.
func (w *writer) u32(v uint32) {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		w.buf.WriteByte(b)
		if v == 0 {
			return
		}
	}
}

// s64 writes signed LEB128; also used for s32 and s33 immediates.
func (w *writer) s64(v int64) {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			w.buf.WriteByte(b)
			return
		}
		w.buf.WriteByte(b | 0x80)
	}
}

func (w *writer) name(s string) {
	w.u32(uint32(len(s)))
	w.buf.WriteString(s)
}

func (w *writer) u32le(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

func (w *writer) section(id byte, body *writer) {
	w.byte(id)
	w.u32(uint32(body.buf.Len()))
	w.bytes(body.buf.Bytes())
}

// Encode renders the module in binary format. Call Validate first; Encode
// does not check index spaces.
func (m *Module) Encode() []byte {
	w := &writer{}
	w.u32le(Magic)
	w.u32le(Version)

	if len(m.Types) > 0 {
		sec := &writer{}
		sec.u32(uint32(len(m.Types)))
		for _, ft := range m.Types {
			sec.byte(FuncTypeByte)
			writeValTypes(sec, ft.Params)
			writeValTypes(sec, ft.Results)
		}
		w.section(SectionType, sec)
	}

	if len(m.Imports) > 0 {
		sec := &writer{}
		sec.u32(uint32(len(m.Imports)))
		for _, imp := range m.Imports {
			sec.name(imp.Module)
			sec.name(imp.Name)
			sec.byte(KindFunc)
			sec.u32(imp.TypeIdx)
		}
		w.section(SectionImport, sec)
	}

	if len(m.Funcs) > 0 {
		sec := &writer{}
		sec.u32(uint32(len(m.Funcs)))
		for _, f := range m.Funcs {
			sec.u32(f.TypeIdx)
		}
		w.section(SectionFunction, sec)
	}

	if len(m.Memories) > 0 {
		sec := &writer{}
		sec.u32(uint32(len(m.Memories)))
		for _, mem := range m.Memories {
			if mem.Max != nil {
				sec.byte(0x01)
				sec.u32(mem.Min)
				sec.u32(*mem.Max)
			} else {
				sec.byte(0x00)
				sec.u32(mem.Min)
			}
		}
		w.section(SectionMemory, sec)
	}

	if len(m.Globals) > 0 {
		sec := &writer{}
		sec.u32(uint32(len(m.Globals)))
		for _, g := range m.Globals {
			sec.byte(byte(g.Type))
			if g.Mutable {
				sec.byte(0x01)
			} else {
				sec.byte(0x00)
			}
			if g.Type == ValI64 {
				sec.byte(OpI64Const)
			} else {
				sec.byte(OpI32Const)
			}
			sec.s64(g.Init)
			sec.byte(OpEnd)
		}
		w.section(SectionGlobal, sec)
	}

	if len(m.Exports) > 0 {
		sec := &writer{}
		sec.u32(uint32(len(m.Exports)))
		for _, exp := range m.Exports {
			sec.name(exp.Name)
			sec.byte(exp.Kind)
			sec.u32(exp.Idx)
		}
		w.section(SectionExport, sec)
	}

	if len(m.Funcs) > 0 {
		sec := &writer{}
		sec.u32(uint32(len(m.Funcs)))
		for i := range m.Funcs {
			body := encodeBody(&m.Funcs[i])
			sec.u32(uint32(len(body)))
			sec.bytes(body)
		}
		w.section(SectionCode, sec)
	}

	if len(m.Data) > 0 {
		sec := &writer{}
		sec.u32(uint32(len(m.Data)))
		for _, d := range m.Data {
			sec.u32(0) // active, memory 0
			sec.byte(OpI32Const)
			sec.s64(int64(int32(d.Offset)))
			sec.byte(OpEnd)
			sec.u32(uint32(len(d.Init)))
			sec.bytes(d.Init)
		}
		w.section(SectionData, sec)
	}

	if names := m.encodeNames(); names != nil {
		sec := &writer{}
		sec.name("name")
		sec.bytes(names)
		w.section(SectionCustom, sec)
	}

	return w.buf.Bytes()
}

func writeValTypes(w *writer, types []ValType) {
	w.u32(uint32(len(types)))
	for _, t := range types {
		w.byte(byte(t))
	}
}

func encodeBody(f *Func) []byte {
	w := &writer{}

	// locals are run-length grouped by type
	var groups []struct {
		n uint32
		t ValType
	}
	for _, l := range f.Locals {
		if n := len(groups); n > 0 && groups[n-1].t == l.Type {
			groups[n-1].n++
			continue
		}
		groups = append(groups, struct {
			n uint32
			t ValType
		}{1, l.Type})
	}
	w.u32(uint32(len(groups)))
	for _, g := range groups {
		w.u32(g.n)
		w.byte(byte(g.t))
	}

	for _, in := range f.Body {
		encodeInstr(w, in)
	}
	w.byte(OpEnd)
	return w.buf.Bytes()
}

// EncodeInstructions renders a bare instruction sequence.
func EncodeInstructions(code []Instr) []byte {
	w := &writer{}
	for _, in := range code {
		encodeInstr(w, in)
	}
	return w.buf.Bytes()
}

func encodeInstr(w *writer, in Instr) {
	w.byte(in.Opcode)
	switch imm := in.Imm.(type) {
	case BlockImm:
		w.s64(int64(imm.Type))
	case BranchImm:
		w.u32(imm.LabelIdx)
	case CallImm:
		w.u32(imm.FuncIdx)
	case LocalImm:
		w.u32(imm.LocalIdx)
	case GlobalImm:
		w.u32(imm.GlobalIdx)
	case MemoryImm:
		w.u32(imm.Align)
		w.u32(imm.Offset)
	case I32Imm:
		w.s64(int64(imm.Value))
	case I64Imm:
		w.s64(imm.Value)
	case MiscImm:
		w.u32(imm.SubOpcode)
		for _, op := range imm.Operands {
			w.u32(op)
		}
	case nil:
		if in.Opcode == OpMemorySize || in.Opcode == OpMemoryGrow {
			w.byte(0x00)
		}
	}
}

// encodeNames builds the payload of the name custom section, or nil when
// nothing is named.
func (m *Module) encodeNames() []byte {
	w := &writer{}

	if m.Name != "" {
		sub := &writer{}
		sub.name(m.Name)
		w.section(nameSubModule, sub)
	}

	var funcNames []uint32
	for i := 0; i < m.NumFuncs(); i++ {
		if m.FuncName(uint32(i)) != "" {
			funcNames = append(funcNames, uint32(i))
		}
	}
	if len(funcNames) > 0 {
		sub := &writer{}
		sub.u32(uint32(len(funcNames)))
		for _, idx := range funcNames {
			sub.u32(idx)
			sub.name(m.FuncName(idx))
		}
		w.section(nameSubFunction, sub)
	}

	var localFuncs []int
	for i := range m.Funcs {
		if len(m.Funcs[i].ParamNames) > 0 || len(m.Funcs[i].Locals) > 0 {
			localFuncs = append(localFuncs, i)
		}
	}
	if len(localFuncs) > 0 {
		sub := &writer{}
		sub.u32(uint32(len(localFuncs)))
		for _, i := range localFuncs {
			f := &m.Funcs[i]
			sub.u32(uint32(len(m.Imports) + i))
			var idxs []uint32
			total := len(f.ParamNames) + len(f.Locals)
			for j := 0; j < total; j++ {
				if f.LocalName(uint32(j)) != "" {
					idxs = append(idxs, uint32(j))
				}
			}
			sub.u32(uint32(len(idxs)))
			for _, j := range idxs {
				sub.u32(j)
				sub.name(f.LocalName(j))
			}
		}
		w.section(nameSubLocal, sub)
	}

	if w.buf.Len() == 0 {
		return nil
	}
	return w.buf.Bytes()
}
