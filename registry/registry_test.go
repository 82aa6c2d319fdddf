package registry

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/RAKUDEJI/wacli/errors"
	"github.com/RAKUDEJI/wacli/witapi"
)

func ptr(s string) *string { return &s }

func sample() *Registry {
	return &Registry{
		App: AppMeta{Name: "wacli", Version: "0.3.0", Description: "plugin host"},
		Commands: []Command{
			{
				Name:    "greet",
				Aliases: []string{"g", "hi"},
				Summary: "Say hello",
				Usage:   "greet <name>",
				Args: []Arg{
					{Name: "name", Kind: witapi.ArgPositional, Required: true},
					{Name: "loud", Kind: witapi.ArgFlag, Short: ptr("l"), ConflictsWith: []string{"quiet"}},
					{Name: "quiet", Kind: witapi.ArgFlag, Requires: []string{"name"}},
				},
			},
			{Name: "show"},
			{Name: "self-update", Plugin: "acme:tools/updater@1.0.0"},
		},
	}
}

func TestValidName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"greet", true},
		{"self-update", true},
		{"v2", true},
		{"a", true},
		{"", false},
		{"Greet", false},
		{"2fa", false},
		{"-x", false},
		{"trailing-", false},
		{"with_underscore", false},
		{"with space", false},
	}
	for _, tt := range tests {
		if got := ValidName(tt.name); got != tt.want {
			t.Errorf("ValidName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	if err := sample().Validate(); err != nil {
		t.Fatalf("sample: %v", err)
	}
	if err := (&Registry{}).Validate(); err != nil {
		t.Fatalf("empty registry: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(r *Registry)
		kind   errors.Kind
		path   []string
	}{
		{
			name:   "duplicate command",
			mutate: func(r *Registry) { r.Commands[1].Name = "greet" },
			kind:   errors.KindDuplicateName,
			path:   []string{"commands", "1", "name"},
		},
		{
			name:   "alias shadows command",
			mutate: func(r *Registry) { r.Commands[0].Aliases = []string{"show"} },
			kind:   errors.KindDuplicateName,
			path:   []string{"commands", "1", "name"},
		},
		{
			name:   "alias reused",
			mutate: func(r *Registry) { r.Commands[1].Aliases = []string{"g"} },
			kind:   errors.KindDuplicateName,
			path:   []string{"commands", "1", "aliases", "0"},
		},
		{
			name:   "alias repeats own name",
			mutate: func(r *Registry) { r.Commands[1].Aliases = []string{"show"} },
			kind:   errors.KindDuplicateName,
			path:   []string{"commands", "1", "aliases", "0"},
		},
		{
			name:   "shared plugin",
			mutate: func(r *Registry) { r.Commands[1].Plugin = "acme:tools/updater@1.0.0" },
			kind:   errors.KindDuplicateName,
			path:   []string{"commands", "2", "plugin"},
		},
		{
			name:   "invalid command name",
			mutate: func(r *Registry) { r.Commands[1].Name = "Show" },
			kind:   errors.KindInvalidName,
			path:   []string{"commands", "1", "name"},
		},
		{
			name:   "empty alias",
			mutate: func(r *Registry) { r.Commands[1].Aliases = []string{""} },
			kind:   errors.KindInvalidName,
			path:   []string{"commands", "1", "aliases", "0"},
		},
		{
			name:   "alias with whitespace",
			mutate: func(r *Registry) { r.Commands[1].Aliases = []string{"s w"} },
			kind:   errors.KindInvalidName,
			path:   []string{"commands", "1", "aliases", "0"},
		},
		{
			name:   "unknown conflicts-with",
			mutate: func(r *Registry) { r.Commands[0].Args[1].ConflictsWith = []string{"silent"} },
			kind:   errors.KindUnknownReference,
			path:   []string{"commands", "0", "args", "1", "conflicts-with", "0"},
		},
		{
			name:   "unknown requires",
			mutate: func(r *Registry) { r.Commands[0].Args[2].Requires = []string{"name", "who"} },
			kind:   errors.KindUnknownReference,
			path:   []string{"commands", "0", "args", "2", "requires", "1"},
		},
		{
			name:   "duplicate arg",
			mutate: func(r *Registry) { r.Commands[0].Args[2].Name = "loud" },
			kind:   errors.KindDuplicateName,
			path:   []string{"commands", "0", "args", "2", "name"},
		},
		{
			name:   "empty arg name",
			mutate: func(r *Registry) { r.Commands[0].Args[0].Name = "" },
			kind:   errors.KindInvalidName,
			path:   []string{"commands", "0", "args", "0", "name"},
		},
		{
			name:   "bad arg kind",
			mutate: func(r *Registry) { r.Commands[0].Args[0].Kind = 7 },
			kind:   errors.KindInvalidInput,
			path:   []string{"commands", "0", "args", "0", "kind"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := sample()
			tt.mutate(r)
			err := r.Validate()
			var e *errors.Error
			if !stderrors.As(err, &e) {
				t.Fatalf("expected *errors.Error, got %v", err)
			}
			if e.Phase != errors.PhaseValidate || e.Kind != tt.kind {
				t.Errorf("got %s/%s, want validate/%s", e.Phase, e.Kind, tt.kind)
			}
			if !reflect.DeepEqual(e.Path, tt.path) {
				t.Errorf("path = %v, want %v", e.Path, tt.path)
			}
		})
	}
}

func TestCommandConversions(t *testing.T) {
	r := sample()
	greet := &r.Commands[0]

	if got := greet.ImportModule(); got != "wacli:cli/greet-command@2.0.0" {
		t.Errorf("ImportModule = %q", got)
	}
	if got := r.Commands[2].ImportModule(); got != "acme:tools/updater@1.0.0" {
		t.Errorf("explicit plugin = %q", got)
	}
	if got := greet.Keys(); !reflect.DeepEqual(got, []string{"greet", "g", "hi"}) {
		t.Errorf("Keys = %v", got)
	}
	if Ident("self-update") != "self_update" {
		t.Errorf("Ident = %q", Ident("self-update"))
	}

	s := greet.Schema()
	if s.Name != "greet" || len(s.Aliases) != 2 || len(s.Args) != 3 {
		t.Fatalf("schema = %+v", s)
	}
	if s.Args[0].Kind != witapi.ArgPositional || !s.Args[0].Required || *s.Args[1].Short != "l" {
		t.Errorf("args = %+v", s.Args)
	}
	if r.App.Meta() != (witapi.AppMeta{Name: "wacli", Version: "0.3.0", Description: "plugin host"}) {
		t.Errorf("app meta = %+v", r.App.Meta())
	}
}

func TestLookup(t *testing.T) {
	r := sample()
	for name, want := range map[string]string{"greet": "greet", "g": "greet", "hi": "greet", "show": "show"} {
		c, ok := r.Lookup(name)
		if !ok || c.Name != want {
			t.Errorf("Lookup(%q) = %v, %v", name, c, ok)
		}
	}
	if _, ok := r.Lookup("shows"); ok {
		t.Error("Lookup(shows) matched")
	}
}

const yamlDoc = `
app:
  name: wacli
  version: 0.3.0
commands:
  - name: greet
    aliases: [g]
    summary: Say hello
    examples: ["greet Alice"]
    args:
      - name: name
        kind: positional
        required: true
      - name: format
        kind: value
        long: format
        default-value: text
        env: GREET_FORMAT
        multiple: true
        value-type: string
        possible-values: [text, json]
  - name: show
`

const jsonDoc = `{
  "app": {"name": "wacli", "version": "0.3.0"},
  "commands": [
    {"name": "greet", "aliases": ["g"], "summary": "Say hello", "examples": ["greet Alice"],
     "args": [
       {"name": "name", "kind": "positional", "required": true},
       {"name": "format", "kind": "value", "long": "format", "default-value": "text",
        "env": "GREET_FORMAT", "multiple": true, "value-type": "string",
        "possible-values": ["text", "json"]}
     ]},
    {"name": "show"}
  ]
}`

const tomlDoc = `
[app]
name = "wacli"
version = "0.3.0"

[[commands]]
name = "greet"
aliases = ["g"]
summary = "Say hello"
examples = ["greet Alice"]

  [[commands.args]]
  name = "name"
  kind = "positional"
  required = true

  [[commands.args]]
  name = "format"
  kind = "value"
  long = "format"
  default-value = "text"
  env = "GREET_FORMAT"
  multiple = true
  value-type = "string"
  possible-values = ["text", "json"]

[[commands]]
name = "show"
`

func TestParse(t *testing.T) {
	tests := []struct {
		format Format
		doc    string
	}{
		{FormatYAML, yamlDoc},
		{FormatJSON, jsonDoc},
		{FormatTOML, tomlDoc},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			r, err := Parse([]byte(tt.doc), tt.format)
			if err != nil {
				t.Fatal(err)
			}
			if err := r.Validate(); err != nil {
				t.Fatal(err)
			}
			if r.App.Name != "wacli" || r.App.Version != "0.3.0" {
				t.Errorf("app = %+v", r.App)
			}
			if len(r.Commands) != 2 || r.Commands[0].Name != "greet" || r.Commands[1].Name != "show" {
				t.Fatalf("commands = %+v", r.Commands)
			}
			greet := r.Commands[0]
			if !reflect.DeepEqual(greet.Aliases, []string{"g"}) || greet.Examples[0] != "greet Alice" {
				t.Errorf("greet = %+v", greet)
			}
			if len(greet.Args) != 2 {
				t.Fatalf("args = %+v", greet.Args)
			}
			format := greet.Args[1]
			if format.Kind != witapi.ArgValue || *format.Long != "format" || *format.DefaultValue != "text" {
				t.Errorf("format arg = %+v", format)
			}
			if format.Short != nil {
				t.Errorf("short = %q, want unset", *format.Short)
			}
			if !reflect.DeepEqual(format.PossibleValues, []string{"text", "json"}) {
				t.Errorf("possible values = %v", format.PossibleValues)
			}
			if format.Env == nil || *format.Env != "GREET_FORMAT" || !format.Multiple ||
				format.ValueType == nil || *format.ValueType != "string" {
				t.Errorf("env/multiple/value-type = %+v", format)
			}
			// value arguments always report takes-value
			if s := format.Schema(); !s.TakesValue || s.Env == nil || !s.Multiple {
				t.Errorf("schema = %+v", s)
			}
			if greet.Args[0].Schema().TakesValue {
				t.Error("positional argument should not take a value")
			}
			if greet.Args[0].Kind != witapi.ArgPositional || !greet.Args[0].Required {
				t.Errorf("name arg = %+v", greet.Args[0])
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		doc    string
	}{
		{"unknown yaml key", FormatYAML, "commands:\n  - name: greet\n    alias: g\n"},
		{"bad kind", FormatYAML, "commands:\n  - name: greet\n    args:\n      - name: x\n        kind: option\n"},
		{"bad json", FormatJSON, `{"commands": [`},
		{"unknown toml key", FormatTOML, "[[commands]]\nname = \"greet\"\nalias = \"g\"\n"},
		{"bad format", Format("ini"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc), tt.format)
			var e *errors.Error
			if !stderrors.As(err, &e) {
				t.Fatalf("expected *errors.Error, got %v", err)
			}
			if e.Phase != errors.PhaseParse {
				t.Errorf("phase = %s", e.Phase)
			}
		})
	}

	r, err := Parse(nil, FormatYAML)
	if err != nil || len(r.Commands) != 0 {
		t.Errorf("empty document: %+v, %v", r, err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	write := func(name, doc string) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(doc), 0o644); err != nil {
			t.Fatal(err)
		}
		return p
	}

	for _, name := range []string{"reg.yaml", "reg.yml"} {
		if _, err := Load(write(name, yamlDoc)); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
	if _, err := Load(write("reg.json", jsonDoc)); err != nil {
		t.Errorf("json: %v", err)
	}
	if _, err := Load(write("reg.toml", tomlDoc)); err != nil {
		t.Errorf("toml: %v", err)
	}

	// parse succeeds but validation must run
	dup := write("dup.yaml", "commands:\n  - name: greet\n  - name: greet\n")
	if _, err := Load(dup); !stderrors.Is(err, errors.New(errors.PhaseValidate, errors.KindDuplicateName).Build()) {
		t.Errorf("duplicate: %v", err)
	}

	if _, err := Load(write("reg.ini", "")); err == nil {
		t.Error("expected error for unknown extension")
	}
	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
