package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/RAKUDEJI/wacli/gen"
)

// rebuildDelay coalesces the burst of events an editor save produces.
const rebuildDelay = 200 * time.Millisecond

func newBuildCommand(a *app) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Generate the registry module and its side outputs",
		Long: `Validate the descriptor file and write the registry core module.

The WAT listing, the dynamic-registry WIT world and the WAC composition
are written only when their paths are set.`,
		Example: `  # Generate registry.wasm from wacli.yaml
  wacli-regen build

  # Also write the text listing and composition
  wacli-regen build -d commands.toml -o out/registry.wasm --wat out/registry.wat --wac out/compose.wac

  # Regenerate whenever the descriptor file changes
  wacli-regen build --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if watch {
				return a.watch(cmd.Context(), cmd.OutOrStdout())
			}
			return a.build(cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.StringP("output", "o", "", "path of the generated core module")
	f.String("wat", "", "also write the WAT listing to this path")
	f.String("wit", "", "also write the dynamic-registry WIT to this path")
	f.String("wac", "", "also write the WAC composition to this path")
	f.Bool("export-helpers", false, "export match_name and alloc_align as well")
	f.BoolVarP(&watch, "watch", "w", false, "rebuild when the descriptor file changes")
	return cmd
}

// build runs one generation and writes every configured output.
func (a *app) build(w io.Writer) error {
	_, out, err := a.generate()
	if err != nil {
		return err
	}

	files := []struct {
		path string
		data []byte
	}{
		{a.cfg.Output, out.Wasm},
		{a.cfg.WAT, []byte(out.WAT)},
		{a.cfg.WIT, []byte(out.WIT)},
		{a.cfg.WAC, []byte(out.WAC)},
	}
	for _, f := range files {
		if f.path == "" {
			continue
		}
		if err := writeFile(f.path, f.data); err != nil {
			return err
		}
		a.log.Debug("wrote output", zap.String("path", f.path), zap.Int("bytes", len(f.data)))
	}

	return writeString(w, renderStats(a.cfg.Output, out.Stats, colorEnabled(w)))
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// watch builds once, then again after each change to the descriptor file
// until ctx is done. Build failures are reported and do not stop watching.
func (a *app) watch(ctx context.Context, w io.Writer) error {
	target, err := filepath.Abs(a.cfg.Descriptors)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// the directory survives the rename an atomic save does
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch directory: %w", err)
	}

	rebuild := func() {
		if err := a.build(w); err != nil {
			fmt.Fprintln(w, errorStyle.Render("Error: "+err.Error()))
		}
	}
	rebuild()
	a.log.Info("watching descriptors", zap.String("path", target))

	timer := time.NewTimer(rebuildDelay)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			a.log.Debug("descriptor changed", zap.String("event", event.Op.String()))
			timer.Reset(rebuildDelay)

		case <-timer.C:
			rebuild()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			a.log.Error("watcher error", zap.Error(err))
		}
	}
}

func renderStats(path string, s gen.Stats, color bool) string {
	rows := [][2]string{
		{"commands", fmt.Sprint(s.Commands)},
		{"dispatch keys", fmt.Sprint(s.Keys)},
		{"string bytes", fmt.Sprint(s.StringBytes)},
		{"data bytes", fmt.Sprint(s.DataBytes)},
		{"heap start", fmt.Sprintf("0x%x", s.HeapStart)},
		{"memory pages", fmt.Sprint(s.MemoryPages)},
		{"functions", fmt.Sprint(s.Functions)},
		{"module bytes", fmt.Sprint(s.WasmBytes)},
	}
	st := newStyles(color)
	out := st.title.Render("registry") + " " + path + "\n"
	for _, r := range rows {
		out += fmt.Sprintf("  %s %s\n", st.label.Render(fmt.Sprintf("%-14s", r[0])), r[1])
	}
	return out
}
