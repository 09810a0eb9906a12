// Package errors provides structured error types for the digest playground.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the engine export involved, a detail message and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseInvoke, errors.KindOutOfBounds).
//		Export("digest_compute").
//		Detail("result length %d exceeds memory", n).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.MissingExports("digest_alloc", "memory")
//	err := errors.Trap("digest_compute", cause)
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
