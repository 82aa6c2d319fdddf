package gen

import (
	"strings"

	"github.com/RAKUDEJI/wacli/registry"
	"github.com/RAKUDEJI/wacli/witapi"
)

// DynamicWIT returns the published definition extended with one
// <name>-command interface per command and a dynamic-registry world that
// imports them and exports both registry interfaces. It is the world a
// generated module implements.
func DynamicWIT(reg *registry.Registry) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(witapi.Source, "\n"))
	b.WriteString("\n\n")

	for _, c := range reg.Commands {
		b.WriteString("interface " + witapi.CommandInterface(c.Name) + " {\n")
		b.WriteString("  use types.{command-meta, command-result};\n\n")
		b.WriteString("  meta: func() -> command-meta;\n")
		b.WriteString("  run: func(argv: list<string>) -> command-result;\n")
		b.WriteString("}\n\n")
	}

	b.WriteString("world dynamic-registry {\n")
	for _, c := range reg.Commands {
		b.WriteString("  import " + witapi.CommandInterface(c.Name) + ";\n")
	}
	b.WriteString("  export " + witapi.InterfaceRegistry + ";\n")
	b.WriteString("  export " + witapi.InterfaceRegistrySchema + ";\n")
	b.WriteString("}\n")
	return b.String()
}
