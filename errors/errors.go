package errors

import (
	"fmt"
	"strings"
)

// Phase indicates which stage of registry generation or hosting failed
type Phase string

const (
	PhaseParse    Phase = "parse"    // descriptor files
	PhaseValidate Phase = "validate" // descriptor rules
	PhaseLayout   Phase = "layout"   // Canonical ABI size/alignment
	PhaseEncode   Phase = "encode"   // static image and host lowering
	PhaseDecode   Phase = "decode"   // lifting values out of memory
	PhaseEmit     Phase = "emit"     // instruction and module emission
	PhaseLoad     Phase = "load"     // compiling a generated module
	PhaseRuntime  Phase = "runtime"  // calls into an instance
)

// Kind categorizes the error
type Kind string

const (
	KindDuplicateName    Kind = "duplicate_name"
	KindUnknownReference Kind = "unknown_reference"
	KindInvalidName      Kind = "invalid_name"
	KindTypeMismatch     Kind = "type_mismatch"
	KindOverflow         Kind = "overflow"
	KindCapacity         Kind = "capacity"
	KindOutOfBounds      Kind = "out_of_bounds"
	KindInvalidData      Kind = "invalid_data"
	KindInvalidUTF8      Kind = "invalid_utf8"
	KindUnsupported      Kind = "unsupported"
	KindNotFound         Kind = "not_found"
	KindInvalidInput     Kind = "invalid_input"
	KindInstantiation    Kind = "instantiation"
)

// Error is the structured error returned by every package in this module.
type Error struct {
	Value   any
	Cause   error
	Phase   Phase
	Kind    Kind
	WitType string
	Detail  string
	Path    []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.WitType != "" {
		b.WriteString(": WIT type ")
		b.WriteString(e.WitType)
	}

	if e.Detail != "" {
		if e.WitType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target has the same phase and kind
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the location of the offending item
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// WitType sets the WIT type involved
func (b *Builder) WitType(t string) *Builder {
	b.err.WitType = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// DuplicateName reports a command name, alias or argument name that is
// already taken by an earlier declaration.
func DuplicateName(path []string, name, owner string) *Error {
	return &Error{
		Phase:  PhaseValidate,
		Kind:   KindDuplicateName,
		Path:   path,
		Value:  name,
		Detail: fmt.Sprintf("%q is already declared by %s", name, owner),
	}
}

// UnknownReference reports a conflicts-with/requires entry naming an
// argument that the command does not declare.
func UnknownReference(path []string, ref string) *Error {
	return &Error{
		Phase:  PhaseValidate,
		Kind:   KindUnknownReference,
		Path:   path,
		Value:  ref,
		Detail: fmt.Sprintf("references unknown argument %q", ref),
	}
}

// InvalidName reports a name that breaks the naming rules.
func InvalidName(path []string, name, rule string) *Error {
	return &Error{
		Phase:  PhaseValidate,
		Kind:   KindInvalidName,
		Path:   path,
		Value:  name,
		Detail: fmt.Sprintf("invalid name %q: %s", name, rule),
	}
}

// TypeMismatch creates a value/type mismatch error
func TypeMismatch(phase Phase, path []string, witType string, value any) *Error {
	return &Error{
		Phase:   phase,
		Kind:    KindTypeMismatch,
		Path:    path,
		WitType: witType,
		Value:   value,
		Detail:  fmt.Sprintf("value of type %T does not fit", value),
	}
}

// Overflow reports a size or address computation that leaves the 32-bit
// address space.
func Overflow(phase Phase, path []string, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOverflow,
		Path:   path,
		Detail: what + " exceeds the 32-bit address space",
	}
}

// Capacity reports a count that exceeds a fixed encoding limit.
func Capacity(phase Phase, path []string, what string, count, limit int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindCapacity,
		Path:   path,
		Value:  count,
		Detail: fmt.Sprintf("%s count %d exceeds limit %d", what, count, limit),
	}
}

// OutOfBounds creates an out of bounds memory access error
func OutOfBounds(phase Phase, path []string, offset, length uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("access at offset %d, length %d out of bounds", offset, length),
		Value:  offset,
	}
}

// InvalidUTF8 creates an invalid UTF-8 error
func InvalidUTF8(phase Phase, path []string, data []byte) *Error {
	preview := data
	if len(preview) > 32 {
		preview = preview[:32]
	}
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidUTF8,
		Path:   path,
		Detail: fmt.Sprintf("invalid UTF-8 sequence: %x", preview),
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// Instantiation creates an instantiation error
func Instantiation(cause error) *Error {
	return &Error{
		Phase:  PhaseRuntime,
		Kind:   KindInstantiation,
		Detail: "instantiate registry module",
		Cause:  cause,
	}
}

// Load creates a module loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidData,
		Detail: detail,
		Cause:  cause,
	}
}

// ParseFailed creates a descriptor parsing error
func ParseFailed(what string, cause error) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindInvalidData,
		Detail: fmt.Sprintf("parse %s", what),
		Cause:  cause,
	}
}
