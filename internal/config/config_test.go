package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(New(t.TempDir()))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Descriptors != "wacli.yaml" || cfg.Output != "registry.wasm" {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.Package != "wacli:app" || cfg.ModuleName != "wacli-registry" || cfg.ExportHelpers {
		t.Errorf("defaults = %+v", cfg)
	}
	opts := cfg.GenOptions()
	if opts.Package != cfg.Package || opts.ModuleName != cfg.ModuleName {
		t.Errorf("gen options = %+v", opts)
	}
}

func TestLoad_Files(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"wacli-regen.yaml", "descriptors: cmds.toml\noutput: out/reg.wasm\nexport_helpers: true\npackage: example:cli\n"},
		{"wacli-regen.toml", "descriptors = \"cmds.toml\"\noutput = \"out/reg.wasm\"\nexport_helpers = true\npackage = \"example:cli\"\n"},
		{"wacli-regen.json", `{"descriptors": "cmds.toml", "output": "out/reg.wasm", "export_helpers": true, "package": "example:cli"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, tt.name, tt.body)
			cfg, err := Load(New(dir))
			if err != nil {
				t.Fatal(err)
			}
			if cfg.Descriptors != "cmds.toml" || cfg.Output != "out/reg.wasm" || !cfg.ExportHelpers || cfg.Package != "example:cli" {
				t.Errorf("config = %+v", cfg)
			}
			if cfg.ModuleName != "wacli-registry" {
				t.Errorf("unset key lost its default: %+v", cfg)
			}
		})
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "wacli-regen.yaml", "output: from-file.wasm\nverbose: false\n")
	t.Setenv("WACLI_OUTPUT", "from-env.wasm")
	t.Setenv("WACLI_VERBOSE", "true")

	cfg, err := Load(New(dir))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Output != "from-env.wasm" || !cfg.Verbose {
		t.Errorf("config = %+v", cfg)
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "wacli-regen.yaml", "output: [unterminated\n")
	if _, err := Load(New(dir)); err == nil {
		t.Error("expected error for malformed config")
	}

	dir = t.TempDir()
	writeFile(t, dir, "wacli-regen.yaml", "package: nocolon\n")
	if _, err := Load(New(dir)); err == nil {
		t.Error("expected error for malformed package")
	}

	dir = t.TempDir()
	writeFile(t, dir, "wacli-regen.yaml", "descriptors: \"\"\n")
	if _, err := Load(New(dir)); err == nil {
		t.Error("expected error for empty descriptors")
	}
}
