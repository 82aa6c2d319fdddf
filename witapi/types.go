package witapi

import "go.bytecodealliance.org/wit"

// Type definitions are shared; callers must not modify them.
var (
	stringList = &wit.TypeDef{Kind: &wit.List{Type: wit.String{}}}
	optString  = &wit.TypeDef{Kind: &wit.Option{Type: wit.String{}}}

	commandMeta = &wit.TypeDef{Kind: &wit.Record{Fields: []wit.Field{
		{Name: "name", Type: wit.String{}},
		{Name: "summary", Type: wit.String{}},
		{Name: "usage", Type: wit.String{}},
		{Name: "aliases", Type: stringList},
		{Name: "version", Type: wit.String{}},
		{Name: "hidden", Type: wit.Bool{}},
		{Name: "description", Type: wit.String{}},
		{Name: "examples", Type: stringList},
	}}}

	commandError = &wit.TypeDef{Kind: &wit.Variant{Cases: []wit.Case{
		{Name: "unknown-command", Type: wit.String{}},
		{Name: "invalid-args", Type: wit.String{}},
		{Name: "failed", Type: wit.String{}},
		{Name: "io", Type: wit.String{}},
	}}}

	commandResult = &wit.TypeDef{Kind: &wit.Result{OK: wit.U32{}, Err: commandError}}

	argKind = &wit.TypeDef{Kind: &wit.Enum{Cases: []wit.EnumCase{
		{Name: "flag"},
		{Name: "value"},
		{Name: "positional"},
	}}}

	argSchema = &wit.TypeDef{Kind: &wit.Record{Fields: []wit.Field{
		{Name: "name", Type: wit.String{}},
		{Name: "kind", Type: argKind},
		{Name: "short", Type: optString},
		{Name: "long", Type: optString},
		{Name: "help", Type: wit.String{}},
		{Name: "required", Type: wit.Bool{}},
		{Name: "default-value", Type: optString},
		{Name: "env", Type: optString},
		{Name: "value-name", Type: optString},
		{Name: "takes-value", Type: wit.Bool{}},
		{Name: "multiple", Type: wit.Bool{}},
		{Name: "value-type", Type: optString},
		{Name: "possible-values", Type: stringList},
		{Name: "conflicts-with", Type: stringList},
		{Name: "requires", Type: stringList},
		{Name: "hidden", Type: wit.Bool{}},
	}}}

	commandSchema = &wit.TypeDef{Kind: &wit.Record{Fields: []wit.Field{
		{Name: "name", Type: wit.String{}},
		{Name: "summary", Type: wit.String{}},
		{Name: "usage", Type: wit.String{}},
		{Name: "aliases", Type: stringList},
		{Name: "version", Type: wit.String{}},
		{Name: "hidden", Type: wit.Bool{}},
		{Name: "description", Type: wit.String{}},
		{Name: "examples", Type: stringList},
		{Name: "args", Type: &wit.TypeDef{Kind: &wit.List{Type: argSchema}}},
	}}}

	appMeta = &wit.TypeDef{Kind: &wit.Record{Fields: []wit.Field{
		{Name: "name", Type: wit.String{}},
		{Name: "version", Type: wit.String{}},
		{Name: "description", Type: wit.String{}},
	}}}

	commandMetaList   = &wit.TypeDef{Kind: &wit.List{Type: commandMeta}}
	commandSchemaList = &wit.TypeDef{Kind: &wit.List{Type: commandSchema}}
)

// CommandMetaType is types.command-meta.
func CommandMetaType() *wit.TypeDef { return commandMeta }

// CommandErrorType is types.command-error.
func CommandErrorType() *wit.TypeDef { return commandError }

// CommandResultType is types.command-result.
func CommandResultType() *wit.TypeDef { return commandResult }

// ArgKindType is schema.arg-kind.
func ArgKindType() *wit.TypeDef { return argKind }

// ArgSchemaType is schema.arg-schema.
func ArgSchemaType() *wit.TypeDef { return argSchema }

// CommandSchemaType is schema.command-schema.
func CommandSchemaType() *wit.TypeDef { return commandSchema }

// AppMetaType is registry-schema.app-meta.
func AppMetaType() *wit.TypeDef { return appMeta }

// CommandMetaListType is the return type of list-commands.
func CommandMetaListType() *wit.TypeDef { return commandMetaList }

// CommandSchemaListType is the return type of list-schemas.
func CommandSchemaListType() *wit.TypeDef { return commandSchemaList }

// ArgvType is the argv parameter of run.
func ArgvType() *wit.TypeDef { return stringList }
