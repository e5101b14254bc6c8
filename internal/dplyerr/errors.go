// Package dplyerr defines the five error kinds dply surfaces to the caller,
// each carrying an optional source span for diagnostics (spec §7).
package dplyerr

import (
	"errors"
	"fmt"

	"dply/internal/lexer"
)

// Kind is one of the five fatal error categories a script can produce.
type Kind int

const (
	KindParse Kind = iota
	KindSignature
	KindSchema
	KindRuntime
	KindVariable
)

func (k Kind) String() string {
	switch k {
	case KindParse:
		return "ParseError"
	case KindSignature:
		return "SignatureError"
	case KindSchema:
		return "SchemaError"
	case KindRuntime:
		return "RuntimeError"
	case KindVariable:
		return "VariableError"
	default:
		return "Error"
	}
}

// Error is the single error type used across the core. It always carries a
// Kind and a one-line message; Span is the zero value when no source
// location applies (e.g. a file-not-found RuntimeError).
type Error struct {
	Kind    Kind
	Msg     string
	Span    lexer.Span
	HasSpan bool
	Wrapped error
}

func (e *Error) Error() string {
	if e.HasSpan {
		return fmt.Sprintf("%s: %s (at %s)", e.Kind, e.Msg, e.Span)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Wrapped }

// Spanner is implemented by any error that knows where in the source it
// originated. *Error implements it; its Error() text already includes the
// location when one is set.
type Spanner interface {
	SourceSpan() (lexer.Span, bool)
}

func (e *Error) SourceSpan() (lexer.Span, bool) { return e.Span, e.HasSpan }

func newAt(kind Kind, span lexer.Span, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Span: span, HasSpan: true}
}

func newNoSpan(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Parse builds a ParseError at span.
func Parse(span lexer.Span, format string, args ...any) *Error {
	return newAt(KindParse, span, format, args...)
}

// Signature builds a SignatureError at span.
func Signature(span lexer.Span, format string, args ...any) *Error {
	return newAt(KindSignature, span, format, args...)
}

// SignatureNoSpan builds a SignatureError without a location.
func SignatureNoSpan(format string, args ...any) *Error {
	return newNoSpan(KindSignature, format, args...)
}

// Schema builds a SchemaError at span.
func Schema(span lexer.Span, format string, args ...any) *Error {
	return newAt(KindSchema, span, format, args...)
}

// SchemaNoSpan builds a SchemaError without a location.
func SchemaNoSpan(format string, args ...any) *Error {
	return newNoSpan(KindSchema, format, args...)
}

// Runtime builds a RuntimeError with no underlying cause; see RuntimeWrap.
func Runtime(format string, args ...any) *Error {
	return newNoSpan(KindRuntime, format, args...)
}

// RuntimeWrap builds a RuntimeError wrapping cause.
func RuntimeWrap(cause error, format string, args ...any) *Error {
	e := newNoSpan(KindRuntime, format, args...)
	e.Wrapped = cause
	return e
}

// Variable builds a VariableError at span.
func Variable(span lexer.Span, format string, args ...any) *Error {
	return newAt(KindVariable, span, format, args...)
}

// VariableNoSpan builds a VariableError without a location.
func VariableNoSpan(format string, args ...any) *Error {
	return newNoSpan(KindVariable, format, args...)
}

// Is reports whether err is a *Error of the given kind, unwrapping as
// needed. It mirrors the sentinel-matching convention dsl/errors.go uses
// via errors.Is, but keyed on Kind rather than a specific sentinel value.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
