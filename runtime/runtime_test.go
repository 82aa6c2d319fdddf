package runtime

import (
	"context"
	stderrors "errors"
	"reflect"
	"slices"
	"testing"

	"github.com/tetratelabs/wazero"

	"github.com/RAKUDEJI/wacli/canon"
	"github.com/RAKUDEJI/wacli/errors"
	"github.com/RAKUDEJI/wacli/gen"
	"github.com/RAKUDEJI/wacli/registry"
	"github.com/RAKUDEJI/wacli/wasm"
	"github.com/RAKUDEJI/wacli/witapi"
)

func testRegistry() *registry.Registry {
	return &registry.Registry{
		App: registry.AppMeta{Name: "demo"},
		Commands: []registry.Command{
			{Name: "greet", Aliases: []string{"g"}},
			{Name: "show"},
		},
	}
}

func generate(t *testing.T, reg *registry.Registry, opts gen.Options) []byte {
	t.Helper()
	out, err := gen.Generate(reg, opts)
	if err != nil {
		t.Fatal(err)
	}
	return out.Wasm
}

func TestLoad(t *testing.T) {
	ctx := context.Background()
	rt, err := New(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer rt.Close(ctx)

	reg := testRegistry()
	mod, err := rt.Load(ctx, generate(t, reg, gen.Options{}))
	if err != nil {
		t.Fatal(err)
	}
	if mod.Name() != gen.DefaultModuleName {
		t.Errorf("name = %q", mod.Name())
	}
	want := []string{reg.Commands[0].ImportModule(), reg.Commands[1].ImportModule()}
	if !slices.Equal(mod.Imports(), want) {
		t.Errorf("imports = %q, want %q", mod.Imports(), want)
	}
}

func TestLoad_Rejects(t *testing.T) {
	ctx := context.Background()
	rt, err := New(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer rt.Close(ctx)

	empty := &wasm.Module{}
	empty.AddMemory(wasm.Memory{Min: 1})
	empty.ExportMemory(witapi.ExportMemory, 0)

	foreign := &wasm.Module{}
	foreign.ImportFunc("env", "log", "", wasm.FuncType{Params: []wasm.ValType{wasm.ValI32}})

	tests := []struct {
		name string
		bin  []byte
		kind errors.Kind
	}{
		{"garbage", []byte("not wasm"), errors.KindInvalidData},
		{"no exports", empty.Encode(), errors.KindNotFound},
		{"foreign import", foreign.Encode(), errors.KindUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := rt.Load(ctx, tt.bin)
			var e *errors.Error
			if !stderrors.As(err, &e) {
				t.Fatalf("expected *errors.Error, got %v", err)
			}
			if e.Phase != errors.PhaseLoad || e.Kind != tt.kind {
				t.Errorf("got %s/%s, want load/%s", e.Phase, e.Kind, tt.kind)
			}
		})
	}
}

func TestInstantiate_UnknownPlugin(t *testing.T) {
	ctx := context.Background()
	rt, _ := New(ctx)
	defer rt.Close(ctx)

	mod, err := rt.Load(ctx, generate(t, testRegistry(), gen.Options{}))
	if err != nil {
		t.Fatal(err)
	}
	_, err = mod.Instantiate(ctx, map[string]Plugin{"wacli:cli/nope-command@2.0.0": {}})
	if !stderrors.Is(err, errors.New(errors.PhaseRuntime, errors.KindNotFound).Build()) {
		t.Errorf("got %v", err)
	}
}

func TestInstancesAreIsolated(t *testing.T) {
	ctx := context.Background()
	cache := wazero.NewCompilationCache()
	defer cache.Close(ctx)

	rt, err := New(ctx, WithCompilationCache(cache))
	if err != nil {
		t.Fatal(err)
	}
	mod, err := rt.Load(ctx, generate(t, testRegistry(), gen.Options{ExportHelpers: true}))
	if err != nil {
		t.Fatal(err)
	}

	a, err := mod.Instantiate(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close(ctx)
	b, err := mod.Instantiate(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close(ctx)

	for range 3 {
		if _, _, err := a.Run(ctx, "greet", []string{"x", "y"}); err != nil {
			t.Fatal(err)
		}
	}
	ra, err := a.Call(ctx, gen.ExportAllocAlign, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	rb, err := b.Call(ctx, gen.ExportAllocAlign, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if ra[0] <= rb[0] {
		t.Errorf("heap pointers shared: a=%d b=%d", ra[0], rb[0])
	}

	// the runtime does not close a borrowed cache
	if err := rt.Close(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := New(ctx, WithCompilationCache(cache)); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Call(ctx, "missing"); err == nil {
		t.Error("expected error for missing export")
	}
}

// metaCaller is a minimal guest: a bump cabi_realloc and call_meta(ret),
// which forwards to the imported meta.
func metaCaller(importModule string) []byte {
	i32 := wasm.ValI32
	m := &wasm.Module{}
	meta := m.ImportFunc(importModule, importMeta, "meta", wasm.FuncType{Params: []wasm.ValType{i32}})
	m.AddMemory(wasm.Memory{Min: 1})
	heap := m.AddGlobal(wasm.Global{Name: "heap", Type: i32, Mutable: true, Init: 4096})

	realloc := m.AddFunc(wasm.Func{
		Name:    "cabi_realloc",
		TypeIdx: m.AddType(wasm.FuncType{Params: []wasm.ValType{i32, i32, i32, i32}, Results: []wasm.ValType{i32}}),
		Locals:  []wasm.Local{{Name: "ptr", Type: i32}},
		Body: []wasm.Instr{
			// ptr = (heap + 7) & -8; heap = ptr + new_size
			wasm.GlobalGet(heap), wasm.I32Const(7), wasm.Op(wasm.OpI32Add),
			wasm.I32Const(-8), wasm.Op(wasm.OpI32And), wasm.LocalTee(4),
			wasm.LocalGet(3), wasm.Op(wasm.OpI32Add), wasm.GlobalSet(heap),
			wasm.LocalGet(4),
		},
	})
	call := m.AddFunc(wasm.Func{
		Name:    "call_meta",
		TypeIdx: m.AddType(wasm.FuncType{Params: []wasm.ValType{i32}}),
		Body:    []wasm.Instr{wasm.LocalGet(0), wasm.Call(meta)},
	})
	m.ExportFunc(witapi.ExportRealloc, realloc)
	m.ExportFunc("call_meta", call)
	m.ExportMemory(witapi.ExportMemory, 0)
	return m.Encode()
}

func TestHostMeta(t *testing.T) {
	ctx := context.Background()
	const importModule = "wacli:cli/greet-command@2.0.0"

	eng := wazero.NewRuntime(ctx)
	defer eng.Close(ctx)

	want := witapi.CommandMeta{
		Name:     "greet",
		Summary:  "Say hello",
		Aliases:  []string{"g", "hi"},
		Hidden:   true,
		Examples: []string{"greet Alice"},
	}
	if err := instantiateHost(ctx, eng, canon.NewCalculator(), importModule, Plugin{Meta: want}); err != nil {
		t.Fatal(err)
	}
	mod, err := eng.Instantiate(ctx, metaCaller(importModule))
	if err != nil {
		t.Fatal(err)
	}

	const ret = 64
	if _, err := mod.ExportedFunction("call_meta").Call(ctx, ret); err != nil {
		t.Fatal(err)
	}
	v, err := canon.Lift(guestMemory{mem: mod.Memory()}, witapi.CommandMetaType(), ret)
	if err != nil {
		t.Fatal(err)
	}
	got, err := witapi.CommandMetaFromValue(v)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got.Value(), want.Value()) {
		t.Errorf("meta = %+v, want %+v", got, want)
	}
}

func TestLiftArgv_Bounds(t *testing.T) {
	calc := canon.NewCalculator()
	if _, err := liftArgv(calc, nil, 0, MaxArgs+1); !stderrors.Is(err, errors.New(errors.PhaseRuntime, errors.KindCapacity).Build()) {
		t.Errorf("too many args: %v", err)
	}
	if _, err := liftArgv(calc, nil, 0xFFFFFFF8, 2); !stderrors.Is(err, errors.New(errors.PhaseRuntime, errors.KindOutOfBounds).Build()) {
		t.Errorf("wrapping argv: %v", err)
	}
	argv, err := liftArgv(calc, nil, 0, 0)
	if err != nil || len(argv) != 0 {
		t.Errorf("empty argv = %v, %v", argv, err)
	}
}
