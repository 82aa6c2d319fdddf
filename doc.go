// Package wacli generates the command registry module of a wacli
// application.
//
// A wacli application is a set of command plugins composed behind one
// registry. The registry is a core WebAssembly module that implements the
// wacli:cli registry and registry-schema interfaces at the Canonical ABI
// level: it lists command metadata and schemas from a static data image and
// forwards run calls to the plugin whose name or alias matches.
//
// # Architecture Overview
//
//	wacli/
//	├── registry/        Command descriptors, validation and file loading
//	├── witapi/          The wacli:cli WIT types and export names
//	├── canon/           Canonical ABI layout, static image and store emission
//	├── wasm/            Core module builder, encoder, validator and WAT printer
//	├── gen/             Registry module generator and WIT/WAC side outputs
//	├── runtime/         wazero host that instantiates and calls a registry
//	├── errors/          Structured error types
//	├── internal/config  wacli-regen settings
//	└── cmd/wacli-regen  Command-line front end
//
// # Quick Start
//
// Generate a module from descriptors:
//
//	reg, err := registry.Load("wacli.yaml")
//	out, err := gen.Generate(reg, gen.Options{})
//	os.WriteFile("registry.wasm", out.Wasm, 0o644)
//
// Instantiate it with Go plugins and dispatch:
//
//	rt, _ := runtime.New(ctx)
//	defer rt.Close(ctx)
//	mod, _ := rt.Load(ctx, out.Wasm)
//	inst, _ := mod.Instantiate(ctx, map[string]runtime.Plugin{
//		reg.Commands[0].ImportModule(): {Meta: reg.Commands[0].Meta(), Run: greet},
//	})
//	code, cerr, err := inst.Run(ctx, "greet", []string{"Alice"})
package wacli
