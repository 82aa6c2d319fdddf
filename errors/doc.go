// Package errors provides the structured error type used by the registry
// generator and its host.
//
// Errors are categorized by Phase (which stage failed) and Kind (error
// category). Build-time failures such as duplicate command names or layout
// overflow carry a Path pointing at the offending descriptor item:
//
//	err := errors.New(errors.PhaseValidate, errors.KindDuplicateName).
//		Path("commands", "greet", "aliases", "g").
//		Detail("alias already declared by command show").
//		Build()
//
// Convenience constructors cover the common cases:
//
//	err := errors.UnknownReference(path, "verbose")
//	err := errors.Overflow(errors.PhaseLayout, path, "list size")
//
// All errors implement the standard error interface and support errors.Is/As;
// Is matches on Phase and Kind.
package errors
