// Package runtime hosts generated registry modules.
//
// # Quick Start
//
//	ctx := context.Background()
//	rt, err := runtime.New(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close(ctx)
//
//	mod, err := rt.Load(ctx, out.Wasm)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	inst, err := mod.Instantiate(ctx, map[string]runtime.Plugin{
//	    "wacli:cli/greet-command@2.0.0": {
//	        Meta: witapi.CommandMeta{Name: "greet"},
//	        Run: func(ctx context.Context, argv []string) (uint32, *witapi.CommandError) {
//	            fmt.Println("hello", argv)
//	            return 0, nil
//	        },
//	    },
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer inst.Close(ctx)
//
//	code, cerr, err := inst.Run(ctx, "greet", []string{"Alice"})
//
// # Plugins
//
// A registry module imports meta and run from one interface per command.
// Instantiate binds each import module to a Plugin keyed by that module
// name (registry.Command.ImportModule). Imports without a Plugin get a stub
// whose run returns failed("command not linked"), so a module can always be
// instantiated for inspection.
//
// # Thread Safety
//
// Runtime and Module are safe for concurrent use. Every Instance owns a
// dedicated wazero runtime, so instances never share a heap pointer or
// host modules.
//
// Instance is NOT thread-safe. The generated allocator's heap pointer is
// unsynchronised; each goroutine should have its own Instance.
//
// # Memory
//
// The generated allocator never frees. Every Run consumes heap for the name,
// argv and result, so long-running hosts should recycle instances.
package runtime
