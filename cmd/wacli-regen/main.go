// Command wacli-regen generates the wacli registry core module from a
// command descriptor file.
//
// Usage:
//
//	wacli-regen build -d wacli.yaml -o registry.wasm --wat registry.wat
//	wacli-regen build --watch
//	wacli-regen inspect registry.wasm
//	wacli-regen browse
//	wacli-regen wit > registry.wit
//	wacli-regen wac > compose.wac
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		stop()
		os.Exit(1)
	}
}
