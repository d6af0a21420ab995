package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Is reports whether any error in err's chain matches target.
// It forwards to the standard library so callers need only one
// errors import.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseInit   Phase = "init"   // context initialization
	PhasePack   Phase = "pack"   // item stream to bytes
	PhaseUnpack Phase = "unpack" // bytes to item stream
)

// Kind categorizes the error. The wire-level kinds form the codec's
// closed return-code set; KindTypeMismatch is reported only by the
// typed convenience accessors and never poisons a context.
type Kind string

const (
	KindEndOfInput      Kind = "end_of_input"     // clean stream termination at item boundary
	KindBufferUnderflow Kind = "buffer_underflow" // truncated item
	KindBufferOverflow  Kind = "buffer_overflow"  // no room to write and no (or failed) handler
	KindMalformedInput  Kind = "malformed_input"  // reserved or illegal prefix byte
	KindStopped         Kind = "stopped"          // context already poisoned
	KindWrongByteOrder  Kind = "wrong_byte_order" // endian self-check failed
	KindTypeMismatch    Kind = "type_mismatch"    // decoded item is not the requested kind
)

// Error is the structured error type used throughout the codec
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Offset int64 // byte offset into the stream, -1 if unknown
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Offset >= 0 {
		fmt.Fprintf(&b, " at offset %d", e.Offset)
	}

	if e.Detail != "" {
		b.WriteString(": ")
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

// Is reports whether target matches this error. Two errors match when
// their Kinds are equal; a target with an empty Phase matches any phase,
// so the bare kind sentinels below work with stdlib errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase != "" && e.Phase != t.Phase {
		return false
	}
	return e.Kind == t.Kind
}

// Kind sentinels for errors.Is checks, phase-agnostic.
var (
	ErrEndOfInput      = &Error{Kind: KindEndOfInput, Offset: -1}
	ErrBufferUnderflow = &Error{Kind: KindBufferUnderflow, Offset: -1}
	ErrBufferOverflow  = &Error{Kind: KindBufferOverflow, Offset: -1}
	ErrMalformedInput  = &Error{Kind: KindMalformedInput, Offset: -1}
	ErrStopped         = &Error{Kind: KindStopped, Offset: -1}
	ErrWrongByteOrder  = &Error{Kind: KindWrongByteOrder, Offset: -1}
	ErrTypeMismatch    = &Error{Kind: KindTypeMismatch, Offset: -1}
)

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase:  phase,
			Kind:   kind,
			Offset: -1,
		},
	}
}

// Offset sets the byte offset into the stream
func (b *Builder) Offset(off int64) *Builder {
	b.err.Offset = off
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

// Convenience constructors for the closed return-code set

// EndOfInput signals clean stream termination at an item boundary.
func EndOfInput(offset int64) *Error {
	return &Error{
		Phase:  PhaseUnpack,
		Kind:   KindEndOfInput,
		Offset: offset,
	}
}

// BufferUnderflow signals a truncated item.
func BufferUnderflow(offset int64, requested int) *Error {
	return &Error{
		Phase:  PhaseUnpack,
		Kind:   KindBufferUnderflow,
		Offset: offset,
		Detail: fmt.Sprintf("need %d more byte(s)", requested),
	}
}

// BufferOverflow signals that the write window is exhausted.
func BufferOverflow(offset int64, requested int) *Error {
	return &Error{
		Phase:  PhasePack,
		Kind:   KindBufferOverflow,
		Offset: offset,
		Detail: fmt.Sprintf("need %d more byte(s)", requested),
	}
}

// MalformedInput signals a reserved or illegal prefix byte.
func MalformedInput(offset int64, prefix byte) *Error {
	return &Error{
		Phase:  PhaseUnpack,
		Kind:   KindMalformedInput,
		Offset: offset,
		Detail: fmt.Sprintf("illegal prefix byte 0x%02x", prefix),
		Value:  prefix,
	}
}

// Stopped signals an operation on a poisoned context.
func Stopped(phase Phase) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindStopped,
		Offset: -1,
	}
}

// WrongByteOrder signals a failed endian self-check.
func WrongByteOrder() *Error {
	return &Error{
		Phase:  PhaseInit,
		Kind:   KindWrongByteOrder,
		Offset: -1,
		Detail: "endian self-check failed",
	}
}

// TypeMismatch is returned by the typed accessors when the decoded item
// is not of the requested kind. It does not poison the context.
func TypeMismatch(offset int64, got, want string) *Error {
	return &Error{
		Phase:  PhaseUnpack,
		Kind:   KindTypeMismatch,
		Offset: offset,
		Detail: fmt.Sprintf("got %s, want %s", got, want),
	}
}
