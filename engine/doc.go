// Package engine hosts the external digest computation engine, a core
// WebAssembly module run with wazero.
//
// # Guest ABI
//
// The module must export:
//
//	memory                                        linear memory
//	digest_alloc(size i32) -> i32                 buffer for the UTF-8 statement
//	digest_compute(ptr i32, len i32, ver i32) -> i32
//
// and may export:
//
//	digest_free(ptr i32, size i32)                release the statement buffer
//	_initialize()                                 reactor initialization
//
// digest_compute returns the address of a result buffer: a u32 little-endian
// length followed by that many bytes of JSON, either
//
//	{"text": "SELECT * FROM `t` WHERE `id` = ?", "hash": "..."}
//
// or
//
//	{"error": "syntax error near SELEKT"}
//
// Modules that import wasi_snapshot_preview1 (GOOS=wasip1 with
// -buildmode=c-shared and //go:wasmexport, or TinyGo) get a WASI host
// instantiated automatically.
//
// # Outcomes
//
// DecodeOutcome turns a payload into an Outcome and fails closed: a payload
// that is neither shape becomes a failure with MessageMalformed.
//
// # Thread Safety
//
// WazeroEngine serializes Compute calls; the guest instance is single
// threaded.
package engine
