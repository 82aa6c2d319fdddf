package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/RAKUDEJI/wacli/runtime"
	"github.com/RAKUDEJI/wacli/witapi"
)

func newInspectCommand(a *app) *cobra.Command {
	var showHidden bool

	cmd := &cobra.Command{
		Use:   "inspect [registry.wasm]",
		Short: "Instantiate a registry module and print what it reports",
		Long: `Load a registry module, instantiate it with unlinked plugins and print
the results of get-app-meta, list-commands and list-schemas.

Without an argument the module is generated from the descriptor file
in memory.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var wasm []byte
			if len(args) == 1 {
				b, err := os.ReadFile(args[0])
				if err != nil {
					return fmt.Errorf("read module: %w", err)
				}
				wasm = b
			} else {
				_, out, err := a.generate()
				if err != nil {
					return err
				}
				wasm = out.Wasm
			}
			return inspect(cmd.Context(), cmd.OutOrStdout(), wasm, showHidden)
		},
	}
	cmd.Flags().BoolVar(&showHidden, "hidden", false, "include hidden commands and arguments")
	return cmd
}

// report is what a registry instance returns from its three listing exports.
type report struct {
	app      witapi.AppMeta
	commands []witapi.CommandMeta
	schemas  []witapi.CommandSchema
	imports  []string
}

func inspect(ctx context.Context, w io.Writer, wasm []byte, showHidden bool) error {
	rep, err := query(ctx, wasm)
	if err != nil {
		return err
	}
	return writeString(w, renderReport(rep, showHidden, colorEnabled(w)))
}

func query(ctx context.Context, wasm []byte) (*report, error) {
	rt, err := runtime.New(ctx)
	if err != nil {
		return nil, err
	}
	defer rt.Close(ctx)

	mod, err := rt.Load(ctx, wasm)
	if err != nil {
		return nil, err
	}
	inst, err := mod.Instantiate(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer inst.Close(ctx)

	rep := &report{imports: mod.Imports()}
	if rep.app, err = inst.AppMeta(ctx); err != nil {
		return nil, err
	}
	if rep.commands, err = inst.ListCommands(ctx); err != nil {
		return nil, err
	}
	if rep.schemas, err = inst.ListSchemas(ctx); err != nil {
		return nil, err
	}
	return rep, nil
}

func renderReport(rep *report, showHidden, color bool) string {
	st := newStyles(color)
	var b strings.Builder

	title := rep.app.Name
	if title == "" {
		title = "(unnamed)"
	}
	b.WriteString(st.title.Render(title))
	if rep.app.Version != "" {
		b.WriteString(" " + rep.app.Version)
	}
	b.WriteString("\n")
	if rep.app.Description != "" {
		b.WriteString(rep.app.Description + "\n")
	}

	b.WriteString("\n" + st.label.Render("COMMANDS") + "\n")
	width := 0
	for _, c := range rep.commands {
		if !c.Hidden || showHidden {
			width = max(width, len(c.Name))
		}
	}
	shown := 0
	for _, c := range rep.commands {
		if c.Hidden && !showHidden {
			continue
		}
		shown++
		line := "  " + st.name.Render(fmt.Sprintf("%-*s", width, c.Name)) + "  " + c.Summary
		if len(c.Aliases) > 0 {
			line += st.help.Render(" (aliases: " + strings.Join(c.Aliases, ", ") + ")")
		}
		if c.Hidden {
			line += st.help.Render(" [hidden]")
		}
		b.WriteString(line + "\n")
	}
	if shown == 0 {
		b.WriteString(st.help.Render("  no commands") + "\n")
	}

	for _, s := range rep.schemas {
		if s.Hidden && !showHidden {
			continue
		}
		args := visibleArgs(s.Args, showHidden)
		if len(args) == 0 {
			continue
		}
		b.WriteString("\n" + st.label.Render(strings.ToUpper(s.Name)+" ARGUMENTS") + "\n")
		for _, arg := range args {
			b.WriteString("  " + st.name.Render(argSynopsis(arg)))
			b.WriteString("  " + st.help.Render(arg.Kind.String()))
			if arg.Help != "" {
				b.WriteString("  " + arg.Help)
			}
			b.WriteString(argNotes(arg) + "\n")
		}
	}

	if len(rep.imports) > 0 {
		b.WriteString("\n" + st.label.Render("IMPORTS") + "\n")
		for _, imp := range rep.imports {
			b.WriteString("  " + imp + "\n")
		}
	}
	return b.String()
}

func visibleArgs(args []witapi.ArgSchema, showHidden bool) []witapi.ArgSchema {
	var out []witapi.ArgSchema
	for _, a := range args {
		if !a.Hidden || showHidden {
			out = append(out, a)
		}
	}
	return out
}

// argSynopsis renders an argument the way a usage line would show it.
func argSynopsis(a witapi.ArgSchema) string {
	if a.Kind == witapi.ArgPositional {
		if a.Required {
			return "<" + a.Name + ">"
		}
		return "[" + a.Name + "]"
	}

	var names []string
	if a.Long != nil {
		names = append(names, "--"+*a.Long)
	}
	if a.Short != nil {
		names = append(names, "-"+*a.Short)
	}
	if len(names) == 0 {
		names = append(names, "--"+a.Name)
	}
	s := strings.Join(names, ", ")
	if a.Kind == witapi.ArgValue {
		vn := strings.ToUpper(a.Name)
		if a.ValueName != nil {
			vn = *a.ValueName
		}
		s += " <" + vn + ">"
	}
	return s
}

func argNotes(a witapi.ArgSchema) string {
	var notes []string
	if a.Required && a.Kind != witapi.ArgPositional {
		notes = append(notes, "required")
	}
	if a.DefaultValue != nil {
		notes = append(notes, "default: "+*a.DefaultValue)
	}
	if a.Env != nil {
		notes = append(notes, "env: "+*a.Env)
	}
	if a.Multiple {
		notes = append(notes, "multiple")
	}
	if len(a.PossibleValues) > 0 {
		notes = append(notes, "one of: "+strings.Join(a.PossibleValues, ", "))
	}
	if len(a.ConflictsWith) > 0 {
		notes = append(notes, "conflicts with: "+strings.Join(a.ConflictsWith, ", "))
	}
	if len(a.Requires) > 0 {
		notes = append(notes, "requires: "+strings.Join(a.Requires, ", "))
	}
	if a.Hidden {
		notes = append(notes, "hidden")
	}
	if len(notes) == 0 {
		return ""
	}
	return " [" + strings.Join(notes, "; ") + "]"
}
