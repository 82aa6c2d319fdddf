package gen

import (
	"fmt"
	"strings"

	"github.com/RAKUDEJI/wacli/registry"
	"github.com/RAKUDEJI/wacli/witapi"
)

// Host interfaces every command plugin is wired to.
var hostInterfaces = []string{"host-env", "host-io", "host-fs", "host-process", "host-pipes"}

// pluginIdent names a command plugin in generated text. The prefix keeps it
// clear of the fixed bindings and function names beside it.
func pluginIdent(name string) string {
	return "cmd_" + registry.Ident(name)
}

// WAC returns the composition graph for the external composition tool:
// the host, one instance per command plugin, the registry fed by every
// plugin's command export, and the core router whose run is exported.
func WAC(pkg string, reg *registry.Registry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "package %s;\n\n", pkg)

	b.WriteString("// Host component (WASI bridge)\n")
	b.WriteString("let host = new wacli:host { ... };\n\n")

	if len(reg.Commands) > 0 {
		b.WriteString("// Command plugins\n")
		for _, c := range reg.Commands {
			fmt.Fprintf(&b, "let %s = new wacli:cmd-%s {\n", pluginIdent(c.Name), c.Name)
			b.WriteString("  types: host.types,\n")
			for _, h := range hostInterfaces {
				fmt.Fprintf(&b, "  %s: host.%s,\n", h, h)
			}
			b.WriteString("  ...\n};\n\n")
		}
	}

	b.WriteString("// Registry (command dispatch)\n")
	b.WriteString("let registry = new wacli:registry {\n")
	b.WriteString("  types: host.types")
	for _, c := range reg.Commands {
		fmt.Fprintf(&b, ",\n  %s: %s.command", witapi.CommandInterface(c.Name), pluginIdent(c.Name))
	}
	b.WriteString("\n};\n\n")

	b.WriteString("// Core (CLI router)\n")
	b.WriteString("let core = new wacli:core {\n")
	b.WriteString("  types: host.types,\n")
	b.WriteString("  host-env: host.host-env,\n")
	b.WriteString("  host-io: host.host-io,\n")
	b.WriteString("  host-process: host.host-process,\n")
	b.WriteString("  registry: registry.registry\n")
	b.WriteString("};\n\n")

	b.WriteString("// Export the CLI entry point\n")
	b.WriteString("export core.run;\n")
	return b.String()
}
