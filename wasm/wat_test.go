package wasm_test

import (
	"strings"
	"testing"

	"github.com/RAKUDEJI/wacli/wasm"
)

func TestWAT(t *testing.T) {
	text := rebuildWithImport(t).WAT()
	for _, want := range []string{
		"(module $demo",
		`(import "wacli:cli/greet-command@2.0.0" "run" (func $greet_run (type 2)))`,
		"(memory (;0;) 1)",
		`(export "sum" (func $sum))`,
		`(export "memory" (memory 0))`,
		"(func $sum (type 0) (param $n i32) (result i32)",
		"(local $acc i32)",
		"local.get $n",
		"br_if 1",
		"memory.copy",
		"i32.store8 offset=40",
		`(data (i32.const 16) "hello")`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("WAT missing %q\n%s", want, text)
		}
	}
}

func rebuildWithImport(t *testing.T) *wasm.Module {
	t.Helper()
	base := sumModule()
	m := &wasm.Module{Name: base.Name, Types: base.Types, Memories: base.Memories, Data: base.Data}
	m.ImportFunc("wacli:cli/greet-command@2.0.0", "run", "greet_run", wasm.FuncType{})
	for _, f := range base.Funcs {
		idx := m.AddFunc(f)
		m.ExportFunc(f.Name, idx)
	}
	m.ExportMemory("memory", 0)
	return m
}

func TestWAT_QuotesBytes(t *testing.T) {
	m := &wasm.Module{Memories: []wasm.Memory{{Min: 1}}}
	m.AddData(0, []byte{'a', '"', '\\', 0x00, 0xff})
	if text := m.WAT(); !strings.Contains(text, `"a\"\\\00\ff"`) {
		t.Errorf("unexpected data literal:\n%s", text)
	}
}

func TestWAT_BlockIndentation(t *testing.T) {
	m := sumModule()
	lines := strings.Split(m.WAT(), "\n")
	var loopIndent, brIfIndent int
	for _, l := range lines {
		trimmed := strings.TrimLeft(l, " ")
		switch trimmed {
		case "loop":
			loopIndent = len(l) - len(trimmed)
		case "br_if 1":
			brIfIndent = len(l) - len(trimmed)
		}
	}
	if brIfIndent != loopIndent+2 {
		t.Errorf("br_if indent %d, loop indent %d", brIfIndent, loopIndent)
	}
}
