// Package errors provides structured error types for the msgpack codec.
//
// Errors are categorized by Phase (where the error occurred) and Kind
// (error category). The wire-level Kinds form the codec's closed return
// code set: end_of_input, buffer_underflow, buffer_overflow,
// malformed_input, stopped and wrong_byte_order. The Error type includes
// the byte offset into the stream and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseUnpack, errors.KindMalformedInput).
//		Offset(17).
//		Detail("illegal prefix byte 0xc1").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.MalformedInput(17, 0xc1)
//	err := errors.BufferUnderflow(3, 2)
//
// All errors implement the standard error interface and support
// errors.Is/As. The exported kind sentinels match phase-agnostically:
//
//	if errors.Is(err, errors.ErrEndOfInput) {
//		// clean stream termination
//	}
package errors
