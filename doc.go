// Package digestplayground is an interactive playground for SQL statement
// digests: the user types a statement, picks a digest version and sees the
// normalized text and hash update live as they type.
//
// The digest itself is computed by an external WebAssembly engine. This
// module only orchestrates it: loading the engine, gating calls until it is
// ready, debouncing keystrokes, keeping a shareable URL in sync with the form
// and rendering the outcome.
//
// # Architecture Overview
//
//	digestplayground/    Root package with FormState and Version
//	├── urlstate/        Form <-> shareable URL query string codec
//	├── debounce/        Cancel-then-reschedule single-shot timer
//	├── engine/          wazero host for the digest WASM module, outcome decoding
//	├── gate/            One-time asynchronous engine load and readiness gate
//	├── orchestrator/    Recompute cycle: URL update, engine call, render
//	├── render/          Display state to visible regions mapping and views
//	├── clipboard/       Best-effort clipboard writes
//	├── config/          YAML configuration
//	├── errors/          Structured error types
//	├── tui/             Terminal host (bubbletea)
//	├── web/             HTTP host (chi)
//	└── cmd/sqldigest/   Command line entry point
//
// # Quick Start
//
//	g := gate.New(engine.FileLoader("digest.wasm", nil))
//	defer g.Close(ctx)
//
//	loc, _ := urlstate.ParseLocation("http://localhost:8080/?query=SELECT+1")
//	o := orchestrator.New(g, loc, renderer)
//	o.Start(ctx)
//
//	o.SetSQL("SELECT * FROM t WHERE id = 42") // debounced
//	o.SetVersion(digestplayground.Version(1)) // immediate
//
// # Thread Safety
//
// Orchestrator serializes every recompute behind a single mutex, so the
// debounce timer, version changes and the post-load trigger never
// interleave. Gate serializes engine calls; the underlying wazero instance
// is not safe for concurrent use.
package digestplayground
