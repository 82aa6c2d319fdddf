package canon

import (
	"encoding/binary"
	stderrors "errors"
	"fmt"
	"reflect"
	"testing"

	"go.bytecodealliance.org/wit"

	"github.com/RAKUDEJI/wacli/errors"
)

// byteMemory is a flat memory with a bump allocator for tests.
type byteMemory struct {
	data []byte
	next uint32
}

func newByteMemory(size int, heap uint32) *byteMemory {
	return &byteMemory{data: make([]byte, size), next: heap}
}

func (m *byteMemory) Read(offset, length uint32) ([]byte, error) {
	if uint64(offset)+uint64(length) > uint64(len(m.data)) {
		return nil, fmt.Errorf("read %d+%d out of range", offset, length)
	}
	return m.data[offset : offset+length], nil
}

func (m *byteMemory) Write(offset uint32, data []byte) error {
	if uint64(offset)+uint64(len(data)) > uint64(len(m.data)) {
		return fmt.Errorf("write %d+%d out of range", offset, len(data))
	}
	copy(m.data[offset:], data)
	return nil
}

func (m *byteMemory) Alloc(size, align uint32) (uint32, error) {
	ptr := AlignTo(m.next, align)
	if uint64(ptr)+uint64(size) > uint64(len(m.data)) {
		return 0, fmt.Errorf("out of memory")
	}
	m.next = ptr + size
	return ptr, nil
}

func metaValue(name string, aliases ...string) Record {
	return Record{
		Str(name), Str("summary of " + name), Str(name + " [args]"),
		Strings(aliases), Str("1.0.0"), Bool(false), Str(""), Strings(nil),
	}
}

func TestFreeze_Mismatch(t *testing.T) {
	tests := []struct {
		name string
		typ  wit.Type
		val  Value
	}{
		{"u32 gets string", wit.U32{}, Str("x")},
		{"string gets u32", wit.String{}, U32(1)},
		{"short record", commandMeta(), Record{Str("a")}},
		{"variant index", commandError(), Case{Index: 9, Val: Str("x")}},
		{"missing payload", commandError(), Case{Index: 0}},
		{"list element", stringList(), List{Str("a"), U32(2)}},
		{"ok payload type", commandResult(), Ok(Str("no"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Freeze(tt.typ, tt.val)
			if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseEncode, Kind: errors.KindTypeMismatch}) {
				t.Errorf("expected type mismatch, got %v", err)
			}
		})
	}
}

func TestFreeze_MismatchPath(t *testing.T) {
	v := metaValue("greet")
	v[5] = Str("yes")
	_, err := Freeze(commandMeta(), v)
	var e *errors.Error
	if !stderrors.As(err, &e) {
		t.Fatalf("expected *errors.Error, got %v", err)
	}
	if !reflect.DeepEqual(e.Path, []string{"hidden"}) {
		t.Errorf("path = %v, want [hidden]", e.Path)
	}
}

func TestImage_CommandList(t *testing.T) {
	listType := &wit.TypeDef{Kind: &wit.List{Type: commandMeta()}}
	val := List{metaValue("greet", "g"), metaValue("show")}
	node, err := Freeze(listType, val)
	if err != nil {
		t.Fatal(err)
	}

	const base = 0
	b := NewImageBuilder(base)
	h := b.Add(node)
	img, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}

	tableLen := img.Strings.Len()
	addr := img.Addr(h)
	if addr < tableLen {
		t.Errorf("list header at %d overlaps string table of %d bytes", addr, tableLen)
	}
	if addr%4 != 0 {
		t.Errorf("list header at %d is not 4-aligned", addr)
	}

	elems := binary.LittleEndian.Uint32(img.Bytes[addr:])
	count := binary.LittleEndian.Uint32(img.Bytes[addr+4:])
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}
	if elems%4 != 0 {
		t.Errorf("element buffer at %d is not 4-aligned", elems)
	}
	// second element starts one stride (60 bytes) later
	nameLen := binary.LittleEndian.Uint32(img.Bytes[elems+60+4:])
	if nameLen != 4 {
		t.Errorf("second name length = %d, want 4", nameLen)
	}

	mem := newByteMemory(len(img.Bytes), 0)
	copy(mem.data, img.Bytes)
	got, err := Lift(mem, listType, addr)
	if err != nil {
		t.Fatal(err)
	}
	want := List{metaValue("greet", "g"), metaValue("show")}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("lifted %#v\nwant %#v", got, want)
	}
}

func TestImage_StringsInternedOnce(t *testing.T) {
	b := NewImageBuilder(16)
	for _, name := range []string{"greet", "show", "greet"} {
		n, err := Freeze(wit.String{}, Str(name))
		if err != nil {
			t.Fatal(err)
		}
		b.Add(n)
	}
	img, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	if got := string(img.Bytes[:img.Strings.Len()]); got != "greetshow" {
		t.Errorf("string table = %q", got)
	}
	addr, ok := img.StringAddr("show")
	if !ok || addr != 16+5 {
		t.Errorf("StringAddr(show) = %d, %v", addr, ok)
	}
	if img.Addr(0) == img.Addr(2) {
		t.Error("each added node gets its own storage")
	}
	if img.End() != 16+uint32(len(img.Bytes)) {
		t.Errorf("End = %d", img.End())
	}
}

func TestImage_RejectsDynamic(t *testing.T) {
	n, err := Freeze(commandError(), Case{Index: 0, Val: DynString{Ptr: 0, Len: 1}})
	if err != nil {
		t.Fatal(err)
	}
	if !n.Dynamic() {
		t.Fatal("node should be dynamic")
	}
	b := NewImageBuilder(0)
	b.Add(n)
	if _, err := b.Build(); err == nil {
		t.Error("expected error for run-time string in static image")
	}
}

func TestLower_RoundTrip(t *testing.T) {
	optString := &wit.TypeDef{Kind: &wit.Option{Type: wit.String{}}}
	rec := &wit.TypeDef{Kind: &wit.Record{Fields: []wit.Field{
		{Name: "short", Type: optString},
		{Name: "required", Type: wit.Bool{}},
		{Name: "values", Type: stringList()},
		{Name: "count", Type: wit.U64{}},
		{Name: "delta", Type: wit.S32{}},
		{Name: "result", Type: commandResult()},
	}}}
	val := Record{
		Some(Str("v")),
		Bool(true),
		Strings([]string{"json", "yaml", ""}),
		U64(1 << 40),
		S32(-7),
		Err(Case{Index: 2, Val: Str("boom")}),
	}

	mem := newByteMemory(4096, 64)
	c := NewCalculator()
	addr, err := c.LowerValue(mem, mem, rec, val)
	if err != nil {
		t.Fatal(err)
	}
	if addr%8 != 0 {
		t.Errorf("record with u64 placed at %d", addr)
	}
	got, err := c.Lift(mem, rec, addr)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, val) {
		t.Errorf("lifted %#v\nwant %#v", got, val)
	}
}

func TestLift_Errors(t *testing.T) {
	mem := newByteMemory(64, 0)

	// string pointing past memory
	binary.LittleEndian.PutUint32(mem.data[0:], 1000)
	binary.LittleEndian.PutUint32(mem.data[4:], 4)
	if _, err := Lift(mem, wit.String{}, 0); !stderrors.Is(err, &errors.Error{Phase: errors.PhaseDecode, Kind: errors.KindOutOfBounds}) {
		t.Errorf("expected out of bounds, got %v", err)
	}

	// invalid UTF-8
	mem.data[16] = 0xff
	binary.LittleEndian.PutUint32(mem.data[8:], 16)
	binary.LittleEndian.PutUint32(mem.data[12:], 1)
	if _, err := Lift(mem, wit.String{}, 8); !stderrors.Is(err, &errors.Error{Phase: errors.PhaseDecode, Kind: errors.KindInvalidUTF8}) {
		t.Errorf("expected invalid utf8, got %v", err)
	}

	// discriminant out of range
	mem.data[32] = 7
	if _, err := Lift(mem, commandError(), 32); !stderrors.Is(err, &errors.Error{Phase: errors.PhaseDecode, Kind: errors.KindInvalidData}) {
		t.Errorf("expected invalid data, got %v", err)
	}

	byteList := &wit.TypeDef{Kind: &wit.List{Type: wit.U8{}}}
	wordList := &wit.TypeDef{Kind: &wit.List{Type: wit.U32{}}}
	tests := []struct {
		name  string
		typ   wit.Type
		ptr   uint32
		count uint32
		kind  errors.Kind
	}{
		{"count past limit", byteList, 0, MaxListLen + 1, errors.KindCapacity},
		{"count near address space", byteList, 0, 1 << 31, errors.KindCapacity},
		{"elements past memory", wordList, 40, 16, errors.KindOutOfBounds},
		{"elements past address space", wordList, 0xffff0000, 1 << 20, errors.KindOutOfBounds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := newByteMemory(64, 0)
			binary.LittleEndian.PutUint32(mem.data[48:], tt.ptr)
			binary.LittleEndian.PutUint32(mem.data[52:], tt.count)
			_, err := Lift(mem, tt.typ, 48)
			if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseDecode, Kind: tt.kind}) {
				t.Errorf("got %v, want %s", err, tt.kind)
			}
		})
	}
}
