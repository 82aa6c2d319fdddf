package registry

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/RAKUDEJI/wacli/errors"
	"github.com/RAKUDEJI/wacli/witapi"
)

// Registry is the generator input: application metadata and the ordered
// command set.
type Registry struct {
	App      AppMeta   `yaml:"app" toml:"app"`
	Commands []Command `yaml:"commands" toml:"commands"`
}

// AppMeta describes the application as a whole.
type AppMeta struct {
	Name        string `yaml:"name" toml:"name"`
	Version     string `yaml:"version" toml:"version"`
	Description string `yaml:"description" toml:"description"`
}

// Command describes one dispatchable command.
type Command struct {
	Name        string `yaml:"name" toml:"name"`
	Summary     string `yaml:"summary" toml:"summary"`
	Usage       string `yaml:"usage" toml:"usage"`
	Description string `yaml:"description" toml:"description"`
	Version     string `yaml:"version" toml:"version"`
	// Plugin is the import module providing run and meta. Empty means the
	// command's own interface, see ImportModule.
	Plugin   string   `yaml:"plugin" toml:"plugin"`
	Aliases  []string `yaml:"aliases" toml:"aliases"`
	Examples []string `yaml:"examples" toml:"examples"`
	Args     []Arg    `yaml:"args" toml:"args"`
	Hidden   bool     `yaml:"hidden" toml:"hidden"`
}

// Arg describes one argument of a command.
type Arg struct {
	Short          *string        `yaml:"short" toml:"short"`
	Long           *string        `yaml:"long" toml:"long"`
	DefaultValue   *string        `yaml:"default-value" toml:"default-value"`
	Env            *string        `yaml:"env" toml:"env"`
	ValueName      *string        `yaml:"value-name" toml:"value-name"`
	ValueType      *string        `yaml:"value-type" toml:"value-type"`
	Name           string         `yaml:"name" toml:"name"`
	Help           string         `yaml:"help" toml:"help"`
	PossibleValues []string       `yaml:"possible-values" toml:"possible-values"`
	ConflictsWith  []string       `yaml:"conflicts-with" toml:"conflicts-with"`
	Requires       []string       `yaml:"requires" toml:"requires"`
	Kind           witapi.ArgKind `yaml:"kind" toml:"kind"`
	Required       bool           `yaml:"required" toml:"required"`
	// TakesValue is implied for value arguments.
	TakesValue bool `yaml:"takes-value" toml:"takes-value"`
	Multiple   bool `yaml:"multiple" toml:"multiple"`
	Hidden     bool `yaml:"hidden" toml:"hidden"`
}

const nameRule = "must match [a-z][a-z0-9-]* and not end with '-'"

// ValidName reports whether s is a valid command name.
func ValidName(s string) bool {
	if s == "" || s[0] < 'a' || s[0] > 'z' || s[len(s)-1] == '-' {
		return false
	}
	for i := 1; i < len(s); i++ {
		c := s[i]
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') && c != '-' {
			return false
		}
	}
	return true
}

// Ident turns a command name into an identifier fragment for debug names.
func Ident(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}

// ImportModule returns the import module name of c's run and meta.
func (c *Command) ImportModule() string {
	if c.Plugin != "" {
		return c.Plugin
	}
	return witapi.Qualified(witapi.CommandInterface(c.Name))
}

// Keys returns the primary name followed by the aliases, in dispatch order.
func (c *Command) Keys() []string {
	return append([]string{c.Name}, c.Aliases...)
}

// Meta converts c to its wire mirror.
func (c *Command) Meta() witapi.CommandMeta {
	return witapi.CommandMeta{
		Name:        c.Name,
		Summary:     c.Summary,
		Usage:       c.Usage,
		Aliases:     c.Aliases,
		Version:     c.Version,
		Hidden:      c.Hidden,
		Description: c.Description,
		Examples:    c.Examples,
	}
}

// Schema converts c and its arguments to their wire mirror.
func (c *Command) Schema() witapi.CommandSchema {
	s := witapi.CommandSchema{CommandMeta: c.Meta(), Args: make([]witapi.ArgSchema, len(c.Args))}
	for i, a := range c.Args {
		s.Args[i] = a.Schema()
	}
	return s
}

// Schema converts a to its wire mirror.
func (a Arg) Schema() witapi.ArgSchema {
	return witapi.ArgSchema{
		Name:           a.Name,
		Kind:           a.Kind,
		Short:          a.Short,
		Long:           a.Long,
		Help:           a.Help,
		Required:       a.Required,
		DefaultValue:   a.DefaultValue,
		Env:            a.Env,
		ValueName:      a.ValueName,
		TakesValue:     a.TakesValue || a.Kind == witapi.ArgValue,
		Multiple:       a.Multiple,
		ValueType:      a.ValueType,
		PossibleValues: a.PossibleValues,
		ConflictsWith:  a.ConflictsWith,
		Requires:       a.Requires,
		Hidden:         a.Hidden,
	}
}

// Meta converts the application record to its wire mirror.
func (m AppMeta) Meta() witapi.AppMeta {
	return witapi.AppMeta{Name: m.Name, Version: m.Version, Description: m.Description}
}

// Lookup finds the command that owns name as primary name or alias, using
// the same first-match order as the generated dispatch.
func (r *Registry) Lookup(name string) (*Command, bool) {
	for i := range r.Commands {
		for _, k := range r.Commands[i].Keys() {
			if k == name {
				return &r.Commands[i], true
			}
		}
	}
	return nil, false
}

// Validate checks every build-time rule and returns the first violation.
func (r *Registry) Validate() error {
	owners := make(map[string]string)
	plugins := make(map[string]string)
	for i := range r.Commands {
		c := &r.Commands[i]
		path := []string{"commands", strconv.Itoa(i)}

		if !ValidName(c.Name) {
			return errors.InvalidName(append(path, "name"), c.Name, nameRule)
		}
		if owner, ok := owners[c.Name]; ok {
			return errors.DuplicateName(append(path, "name"), c.Name, owner)
		}
		owners[c.Name] = "command " + strconv.Quote(c.Name)

		for j, alias := range c.Aliases {
			apath := append(path, "aliases", strconv.Itoa(j))
			if alias == "" || strings.IndexFunc(alias, unicode.IsSpace) >= 0 {
				return errors.InvalidName(apath, alias, "aliases must be non-empty and contain no whitespace")
			}
			if owner, ok := owners[alias]; ok {
				return errors.DuplicateName(apath, alias, owner)
			}
			owners[alias] = "command " + strconv.Quote(c.Name)
		}

		mod := c.ImportModule()
		if owner, ok := plugins[mod]; ok {
			return errors.DuplicateName(append(path, "plugin"), mod, owner)
		}
		plugins[mod] = "command " + strconv.Quote(c.Name)

		if err := validateArgs(path, c.Args); err != nil {
			return err
		}
	}
	return nil
}

func validateArgs(path []string, args []Arg) error {
	names := make(map[string]bool, len(args))
	for j, a := range args {
		apath := append(path, "args", strconv.Itoa(j))
		if a.Name == "" {
			return errors.InvalidName(append(apath, "name"), a.Name, "argument names must be non-empty")
		}
		if names[a.Name] {
			return errors.DuplicateName(append(apath, "name"), a.Name, "an earlier argument")
		}
		if a.Kind > witapi.ArgPositional {
			return errors.New(errors.PhaseValidate, errors.KindInvalidInput).
				Path(append(apath, "kind")...).
				WitType("arg-kind").
				Value(uint32(a.Kind)).
				Detail("unknown argument kind").
				Build()
		}
		names[a.Name] = true
	}

	for j, a := range args {
		apath := append(path, "args", strconv.Itoa(j))
		refs := []struct {
			field string
			names []string
		}{{"conflicts-with", a.ConflictsWith}, {"requires", a.Requires}}
		for _, r := range refs {
			for k, ref := range r.names {
				if !names[ref] {
					return errors.UnknownReference(append(apath, r.field, strconv.Itoa(k)), ref)
				}
			}
		}
	}
	return nil
}
