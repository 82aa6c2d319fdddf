package gen

import (
	"encoding/binary"
	"slices"
	"testing"

	"github.com/RAKUDEJI/wacli/registry"
	"github.com/RAKUDEJI/wacli/witapi"
)

func descriptors() []registry.Command {
	return []registry.Command{
		{Name: "greet", Aliases: []string{"g"}, Summary: "Say hello", Usage: "greet <name>"},
		{Name: "show", Summary: "Say hello", Examples: []string{"show all"}},
		{Name: "list", Aliases: []string{"ls"}, Usage: "list", Version: "1.0.0"},
	}
}

func TestPayload_StringTableIgnoresOrder(t *testing.T) {
	a := &registry.Registry{App: registry.AppMeta{Name: "app"}, Commands: descriptors()}
	cmds := descriptors()
	slices.Reverse(cmds)
	b := &registry.Registry{App: registry.AppMeta{Name: "app"}, Commands: cmds}

	pa, err := buildPayload(a)
	if err != nil {
		t.Fatal(err)
	}
	pb, err := buildPayload(b)
	if err != nil {
		t.Fatal(err)
	}

	ea, eb := pa.img.Strings.Entries(), pb.img.Strings.Entries()
	slices.Sort(ea)
	slices.Sort(eb)
	if !slices.Equal(ea, eb) {
		t.Errorf("entries differ:\n%q\n%q", ea, eb)
	}
	if pa.img.Strings.Len() != pb.img.Strings.Len() {
		t.Errorf("table sizes %d and %d", pa.img.Strings.Len(), pb.img.Strings.Len())
	}

	// "Say hello" is shared by two commands but stored once
	n := 0
	for _, e := range pa.img.Strings.Entries() {
		if e == "Say hello" {
			n++
		}
	}
	if n != 1 {
		t.Errorf("Say hello interned %d times", n)
	}
}

func TestPayload_Layout(t *testing.T) {
	reg := &registry.Registry{Commands: descriptors()}
	p, err := buildPayload(reg)
	if err != nil {
		t.Fatal(err)
	}
	if p.img.Base != 0 {
		t.Errorf("image base = %d", p.img.Base)
	}

	// dispatch keys lead the table in declaration order
	keys := []string{"greet", "g", "show", "list", "ls"}
	if got := p.img.Strings.Entries()[:len(keys)]; !slices.Equal(got, keys) {
		t.Errorf("table starts with %q", got)
	}

	// the list-commands return area is a (ptr, len) pair
	area := p.img.Bytes[p.commands : p.commands+8]
	ptr := binary.LittleEndian.Uint32(area)
	count := binary.LittleEndian.Uint32(area[4:])
	if count != 3 || ptr%4 != 0 || ptr < p.img.Strings.Len() {
		t.Errorf("list-commands area = (%d, %d)", ptr, count)
	}

	// the first meta's name points at "greet"
	namePtr := binary.LittleEndian.Uint32(p.img.Bytes[ptr:])
	nameLen := binary.LittleEndian.Uint32(p.img.Bytes[ptr+4:])
	if got := string(p.img.Bytes[namePtr : namePtr+nameLen]); got != "greet" {
		t.Errorf("first name = %q", got)
	}

	if p.result.Size != 16 || p.result.Align != 4 {
		t.Errorf("result area = %+v", p.result)
	}
	if !p.unknown.Dynamic() {
		t.Error("unknown-command node should read run's parameters")
	}
}

func TestAssemble_Skeleton(t *testing.T) {
	reg := &registry.Registry{Commands: descriptors()}
	p, err := buildPayload(reg)
	if err != nil {
		t.Fatal(err)
	}
	m, lay, err := assemble(reg, p, Options{ExportHelpers: true})
	if err != nil {
		t.Fatal(err)
	}

	if len(m.Imports) != 6 || m.Imports[0].Name != "meta" || m.Imports[1].Name != "run" {
		t.Errorf("imports = %+v", m.Imports)
	}
	if m.Imports[4].Module != witapi.Qualified(witapi.CommandInterface("list")) {
		t.Errorf("third command imports from %q", m.Imports[4].Module)
	}
	if lay.keys != 5 {
		t.Errorf("keys = %d", lay.keys)
	}
	if lay.heapStart%HeapAlign != 0 || lay.heapStart < p.img.End() || lay.heapStart-p.img.End() >= HeapAlign {
		t.Errorf("heap start %d for image end %d", lay.heapStart, p.img.End())
	}
	if m.Globals[0].Init != int64(lay.heapStart) || !m.Globals[0].Mutable {
		t.Errorf("heap global = %+v", m.Globals[0])
	}
	if uint64(m.Memories[0].Min)*65536 < uint64(lay.heapStart)+65536 {
		t.Errorf("memory min %d pages does not cover heap start %d plus a page", m.Memories[0].Min, lay.heapStart)
	}

	want := []string{
		witapi.ExportListCommands,
		witapi.ExportListSchemas,
		witapi.ExportGetAppMeta,
		witapi.ExportRun,
		witapi.ExportRealloc,
		witapi.ExportMemory,
		ExportMatchName,
		ExportAllocAlign,
	}
	var got []string
	for _, e := range m.Exports {
		got = append(got, e.Name)
	}
	if !slices.Equal(got, want) {
		t.Errorf("exports = %q", got)
	}
}
