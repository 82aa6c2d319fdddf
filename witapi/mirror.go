package witapi

import (
	"fmt"

	"github.com/RAKUDEJI/wacli/canon"
	"github.com/RAKUDEJI/wacli/errors"
)

// CommandMeta mirrors types.command-meta.
type CommandMeta struct {
	Name        string
	Summary     string
	Usage       string
	Aliases     []string
	Version     string
	Hidden      bool
	Description string
	Examples    []string
}

// Value converts m to a canon value of CommandMetaType.
func (m CommandMeta) Value() canon.Value {
	return canon.Record(m.fields())
}

func (m CommandMeta) fields() []canon.Value {
	return []canon.Value{
		canon.Str(m.Name),
		canon.Str(m.Summary),
		canon.Str(m.Usage),
		canon.Strings(m.Aliases),
		canon.Str(m.Version),
		canon.Bool(m.Hidden),
		canon.Str(m.Description),
		canon.Strings(m.Examples),
	}
}

// CommandMetaFromValue converts a lifted command-meta back.
func CommandMetaFromValue(v canon.Value) (CommandMeta, error) {
	rec, ok := v.(canon.Record)
	if !ok || len(rec) < 8 {
		return CommandMeta{}, shapeError("command-meta", v)
	}
	var m CommandMeta
	var err error
	get := fieldReader(rec, &err)
	m.Name = get.str(0)
	m.Summary = get.str(1)
	m.Usage = get.str(2)
	m.Aliases = get.strs(3)
	m.Version = get.str(4)
	m.Hidden = get.bool(5)
	m.Description = get.str(6)
	m.Examples = get.strs(7)
	return m, err
}

// ArgKind mirrors schema.arg-kind.
type ArgKind uint32

const (
	ArgFlag ArgKind = iota
	ArgValue
	ArgPositional
)

var argKindNames = []string{"flag", "value", "positional"}

func (k ArgKind) String() string {
	if int(k) < len(argKindNames) {
		return argKindNames[k]
	}
	return fmt.Sprintf("arg-kind(%d)", uint32(k))
}

// ParseArgKind maps a WIT case name to its ArgKind.
func ParseArgKind(s string) (ArgKind, bool) {
	for i, n := range argKindNames {
		if n == s {
			return ArgKind(i), true
		}
	}
	return 0, false
}

// MarshalText renders the WIT case name.
func (k ArgKind) MarshalText() ([]byte, error) {
	if int(k) >= len(argKindNames) {
		return nil, fmt.Errorf("invalid arg kind %d", uint32(k))
	}
	return []byte(argKindNames[k]), nil
}

// UnmarshalText parses a WIT case name.
func (k *ArgKind) UnmarshalText(text []byte) error {
	v, ok := ParseArgKind(string(text))
	if !ok {
		return fmt.Errorf("unknown arg kind %q (want flag, value or positional)", text)
	}
	*k = v
	return nil
}

// ArgSchema mirrors schema.arg-schema.
type ArgSchema struct {
	Short          *string
	Long           *string
	DefaultValue   *string
	Env            *string
	ValueName      *string
	ValueType      *string
	Name           string
	Help           string
	PossibleValues []string
	ConflictsWith  []string
	Requires       []string
	Kind           ArgKind
	Required       bool
	TakesValue     bool
	Multiple       bool
	Hidden         bool
}

// Value converts a to a canon value of ArgSchemaType.
func (a ArgSchema) Value() canon.Value {
	return canon.Record{
		canon.Str(a.Name),
		canon.Case{Index: uint32(a.Kind)},
		canon.OptionalString(a.Short),
		canon.OptionalString(a.Long),
		canon.Str(a.Help),
		canon.Bool(a.Required),
		canon.OptionalString(a.DefaultValue),
		canon.OptionalString(a.Env),
		canon.OptionalString(a.ValueName),
		canon.Bool(a.TakesValue),
		canon.Bool(a.Multiple),
		canon.OptionalString(a.ValueType),
		canon.Strings(a.PossibleValues),
		canon.Strings(a.ConflictsWith),
		canon.Strings(a.Requires),
		canon.Bool(a.Hidden),
	}
}

// ArgSchemaFromValue converts a lifted arg-schema back.
func ArgSchemaFromValue(v canon.Value) (ArgSchema, error) {
	rec, ok := v.(canon.Record)
	if !ok || len(rec) != 16 {
		return ArgSchema{}, shapeError("arg-schema", v)
	}
	var a ArgSchema
	var err error
	get := fieldReader(rec, &err)
	a.Name = get.str(0)
	a.Kind = ArgKind(get.caseIndex(1))
	a.Short = get.optStr(2)
	a.Long = get.optStr(3)
	a.Help = get.str(4)
	a.Required = get.bool(5)
	a.DefaultValue = get.optStr(6)
	a.Env = get.optStr(7)
	a.ValueName = get.optStr(8)
	a.TakesValue = get.bool(9)
	a.Multiple = get.bool(10)
	a.ValueType = get.optStr(11)
	a.PossibleValues = get.strs(12)
	a.ConflictsWith = get.strs(13)
	a.Requires = get.strs(14)
	a.Hidden = get.bool(15)
	return a, err
}

// CommandSchema mirrors schema.command-schema.
type CommandSchema struct {
	Args []ArgSchema
	CommandMeta
}

// Value converts s to a canon value of CommandSchemaType.
func (s CommandSchema) Value() canon.Value {
	args := make(canon.List, len(s.Args))
	for i, a := range s.Args {
		args[i] = a.Value()
	}
	return canon.Record(append(s.CommandMeta.fields(), args))
}

// CommandSchemaFromValue converts a lifted command-schema back.
func CommandSchemaFromValue(v canon.Value) (CommandSchema, error) {
	rec, ok := v.(canon.Record)
	if !ok || len(rec) != 9 {
		return CommandSchema{}, shapeError("command-schema", v)
	}
	meta, err := CommandMetaFromValue(rec[:8])
	if err != nil {
		return CommandSchema{}, err
	}
	list, ok := rec[8].(canon.List)
	if !ok {
		return CommandSchema{}, shapeError("list<arg-schema>", rec[8])
	}
	s := CommandSchema{CommandMeta: meta, Args: make([]ArgSchema, len(list))}
	for i, av := range list {
		if s.Args[i], err = ArgSchemaFromValue(av); err != nil {
			return CommandSchema{}, err
		}
	}
	return s, nil
}

// AppMeta mirrors registry-schema.app-meta.
type AppMeta struct {
	Name        string
	Version     string
	Description string
}

// Value converts m to a canon value of AppMetaType.
func (m AppMeta) Value() canon.Value {
	return canon.Record{canon.Str(m.Name), canon.Str(m.Version), canon.Str(m.Description)}
}

// AppMetaFromValue converts a lifted app-meta back.
func AppMetaFromValue(v canon.Value) (AppMeta, error) {
	rec, ok := v.(canon.Record)
	if !ok || len(rec) != 3 {
		return AppMeta{}, shapeError("app-meta", v)
	}
	var m AppMeta
	var err error
	get := fieldReader(rec, &err)
	m.Name = get.str(0)
	m.Version = get.str(1)
	m.Description = get.str(2)
	return m, err
}

// ErrorKind is the case of a command-error.
type ErrorKind uint32

const (
	ErrUnknownCommand ErrorKind = iota
	ErrInvalidArgs
	ErrFailed
	ErrIO
)

var errorKindNames = []string{"unknown-command", "invalid-args", "failed", "io"}

func (k ErrorKind) String() string {
	if int(k) < len(errorKindNames) {
		return errorKindNames[k]
	}
	return fmt.Sprintf("command-error(%d)", uint32(k))
}

// CommandError mirrors types.command-error. It implements error so hosts
// can return it from Go code.
type CommandError struct {
	Message string
	Kind    ErrorKind
}

func (e *CommandError) Error() string {
	return e.Kind.String() + ": " + e.Message
}

// Value converts e to a canon value of CommandErrorType.
func (e *CommandError) Value() canon.Value {
	return canon.Case{Index: uint32(e.Kind), Val: canon.Str(e.Message)}
}

// ResultValue builds a command-result: ok(code) when cerr is nil.
func ResultValue(code uint32, cerr *CommandError) canon.Value {
	if cerr != nil {
		return canon.Err(cerr.Value())
	}
	return canon.Ok(canon.U32(code))
}

// ResultFromValue splits a lifted command-result.
func ResultFromValue(v canon.Value) (uint32, *CommandError, error) {
	res, ok := v.(canon.Result)
	if !ok {
		return 0, nil, shapeError("command-result", v)
	}
	if !res.IsErr {
		code, ok := res.Val.(canon.U32)
		if !ok {
			return 0, nil, shapeError("exit-code", res.Val)
		}
		return uint32(code), nil, nil
	}
	cs, ok := res.Val.(canon.Case)
	if !ok {
		return 0, nil, shapeError("command-error", res.Val)
	}
	msg, ok := cs.Val.(canon.Str)
	if !ok {
		return 0, nil, shapeError("command-error payload", cs.Val)
	}
	return 0, &CommandError{Kind: ErrorKind(cs.Index), Message: string(msg)}, nil
}

func shapeError(witType string, v canon.Value) error {
	return errors.TypeMismatch(errors.PhaseDecode, nil, witType, v)
}

// recordReader pulls typed fields out of a record, remembering the first
// mismatch in *err.
type recordReader struct {
	err *error
	rec canon.Record
}

func fieldReader(rec canon.Record, err *error) recordReader {
	return recordReader{rec: rec, err: err}
}

func (r recordReader) fail(i int, want string) {
	if *r.err == nil {
		*r.err = errors.TypeMismatch(errors.PhaseDecode, []string{fmt.Sprint(i)}, want, r.rec[i])
	}
}

func (r recordReader) str(i int) string {
	s, ok := r.rec[i].(canon.Str)
	if !ok {
		r.fail(i, "string")
	}
	return string(s)
}

func (r recordReader) bool(i int) bool {
	b, ok := r.rec[i].(canon.Bool)
	if !ok {
		r.fail(i, "bool")
	}
	return bool(b)
}

func (r recordReader) strs(i int) []string {
	list, ok := r.rec[i].(canon.List)
	if !ok {
		r.fail(i, "list<string>")
		return nil
	}
	out := make([]string, len(list))
	for j, e := range list {
		s, ok := e.(canon.Str)
		if !ok {
			r.fail(i, "list<string>")
			return nil
		}
		out[j] = string(s)
	}
	return out
}

func (r recordReader) optStr(i int) *string {
	opt, ok := r.rec[i].(canon.Option)
	if !ok {
		r.fail(i, "option<string>")
		return nil
	}
	if opt.Val == nil {
		return nil
	}
	s, ok := opt.Val.(canon.Str)
	if !ok {
		r.fail(i, "option<string>")
		return nil
	}
	out := string(s)
	return &out
}

func (r recordReader) caseIndex(i int) uint32 {
	cs, ok := r.rec[i].(canon.Case)
	if !ok {
		r.fail(i, "enum")
	}
	return cs.Index
}
