package witapi

// Package and interface identifiers of the published definition.
const (
	Package                 = "wacli:cli"
	Version                 = "2.0.0"
	InterfaceRegistry       = "registry"
	InterfaceRegistrySchema = "registry-schema"
)

// Core export names of the registry module.
var (
	ExportListCommands = Qualified(InterfaceRegistry) + "#list-commands"
	ExportRun          = Qualified(InterfaceRegistry) + "#run"
	ExportListSchemas  = Qualified(InterfaceRegistrySchema) + "#list-schemas"
	ExportGetAppMeta   = Qualified(InterfaceRegistrySchema) + "#get-app-meta"
)

const (
	ExportRealloc = "cabi_realloc"
	ExportMemory  = "memory"
)

// Qualified returns the versioned name of an interface in this package,
// e.g. "wacli:cli/registry@2.0.0".
func Qualified(iface string) string {
	return Package + "/" + iface + "@" + Version
}

// CommandInterface names the per-command interface the registry imports.
func CommandInterface(command string) string {
	return command + "-command"
}

// Source is the authoritative WIT text. The TypeDef values in this package
// describe the same shapes.
const Source = `package wacli:cli@2.0.0;

interface types {
  type exit-code = u32;

  record command-meta {
    name: string,
    summary: string,
    usage: string,
    aliases: list<string>,
    version: string,
    hidden: bool,
    description: string,
    examples: list<string>,
  }

  variant command-error {
    unknown-command(string),
    invalid-args(string),
    failed(string),
    io(string),
  }

  type command-result = result<exit-code, command-error>;
}

interface schema {
  enum arg-kind {
    flag,
    value,
    positional,
  }

  record arg-schema {
    name: string,
    kind: arg-kind,
    short: option<string>,
    long: option<string>,
    help: string,
    required: bool,
    default-value: option<string>,
    env: option<string>,
    value-name: option<string>,
    takes-value: bool,
    multiple: bool,
    value-type: option<string>,
    possible-values: list<string>,
    conflicts-with: list<string>,
    requires: list<string>,
    hidden: bool,
  }

  record command-schema {
    name: string,
    summary: string,
    usage: string,
    aliases: list<string>,
    version: string,
    hidden: bool,
    description: string,
    examples: list<string>,
    args: list<arg-schema>,
  }
}

interface command {
  use types.{command-meta, command-result};

  meta: func() -> command-meta;
  run: func(argv: list<string>) -> command-result;
}

interface registry {
  use types.{command-meta, command-result};

  list-commands: func() -> list<command-meta>;
  run: func(name: string, argv: list<string>) -> command-result;
}

interface registry-schema {
  use schema.{command-schema};

  record app-meta {
    name: string,
    version: string,
    description: string,
  }

  list-schemas: func() -> list<command-schema>;
  get-app-meta: func() -> app-meta;
}

world plugin {
  export command;
}

world registry-provider {
  export registry;
  export registry-schema;
}
`
