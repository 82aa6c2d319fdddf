package canon

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"github.com/tetratelabs/wazero"

	"github.com/RAKUDEJI/wacli/wasm"
)

// wazeroMemory adapts a guest memory for Lift.
type wazeroMemory struct {
	read func(offset, length uint32) ([]byte, bool)
}

func (m wazeroMemory) Read(offset, length uint32) ([]byte, error) {
	b, ok := m.read(offset, length)
	if !ok {
		return nil, fmt.Errorf("read %d+%d out of range", offset, length)
	}
	return b, nil
}

func (m wazeroMemory) Write(uint32, []byte) error { return nil }

func TestEmitter_StoresMixedNode(t *testing.T) {
	// params: base, name_ptr, name_len
	const base, namePtr, nameLen = 0, 1, 2

	dynamic, err := Freeze(commandResult(), Err(Case{Index: 0, Val: DynString{Ptr: namePtr, Len: nameLen}}))
	if err != nil {
		t.Fatal(err)
	}
	static, err := Freeze(commandResult(), Err(Case{Index: 2, Val: Str("plugin failed")}))
	if err != nil {
		t.Fatal(err)
	}

	b := NewImageBuilder(0)
	b.Intern(static)
	b.InternString("ls")
	img, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}

	e := NewEmitter(img, base)
	if err := e.Emit(dynamic, 0); err != nil {
		t.Fatal(err)
	}
	if err := e.Emit(static, 16); err != nil {
		t.Fatal(err)
	}

	m := &wasm.Module{}
	ty := m.AddType(wasm.FuncType{Params: []wasm.ValType{wasm.ValI32, wasm.ValI32, wasm.ValI32}})
	m.AddMemory(wasm.Memory{Min: 1})
	m.AddData(img.Base, img.Bytes)
	fn := m.AddFunc(wasm.Func{Name: "store", TypeIdx: ty, ParamNames: []string{"base", "name_ptr", "name_len"}, Body: e.Code()})
	m.ExportFunc("store", fn)
	m.ExportMemory("memory", 0)
	if err := m.Validate(); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)
	mod, err := rt.Instantiate(ctx, m.Encode())
	if err != nil {
		t.Fatalf("instantiate: %v\n%s", err, m.WAT())
	}

	lsAddr, _ := img.StringAddr("ls")
	const dest = 1024
	if _, err := mod.ExportedFunction("store").Call(ctx, dest, uint64(lsAddr), 2); err != nil {
		t.Fatal(err)
	}

	mem := wazeroMemory{read: mod.Memory().Read}
	got, err := Lift(mem, commandResult(), dest)
	if err != nil {
		t.Fatal(err)
	}
	if want := Err(Case{Index: 0, Val: Str("ls")}); !reflect.DeepEqual(got, want) {
		t.Errorf("dynamic node = %#v, want %#v", got, want)
	}

	got, err = Lift(mem, commandResult(), dest+16)
	if err != nil {
		t.Fatal(err)
	}
	if want := Err(Case{Index: 2, Val: Str("plugin failed")}); !reflect.DeepEqual(got, want) {
		t.Errorf("static node = %#v, want %#v", got, want)
	}

	// the discriminant and case bytes match the documented layout
	raw, _ := mod.Memory().Read(dest, 16)
	if raw[0] != 1 || raw[4] != 0 {
		t.Errorf("discriminants = %d/%d, want 1/0", raw[0], raw[4])
	}
}

func TestEmitter_RejectsListBuffers(t *testing.T) {
	n, err := Freeze(stringList(), Strings([]string{"a"}))
	if err != nil {
		t.Fatal(err)
	}
	b := NewImageBuilder(0)
	b.Intern(n)
	img, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	if err := NewEmitter(img, 0).Emit(n, 0); err == nil {
		t.Error("expected error for list storage in emitted code")
	}

	empty, err := Freeze(stringList(), List{})
	if err != nil {
		t.Fatal(err)
	}
	if err := NewEmitter(img, 0).Emit(empty, 0); err != nil {
		t.Errorf("empty list: %v", err)
	}
}
