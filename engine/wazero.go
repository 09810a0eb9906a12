package engine

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"

	"github.com/wippyai/digest-playground/errors"
)

// Engine is the boundary to the digest computation. Compute returns the raw
// serialized payload; callers decode it with DecodeOutcome.
type Engine interface {
	Compute(ctx context.Context, sql string, version int) ([]byte, error)
	Close(ctx context.Context) error
}

// Loader acquires an Engine. It is called at most once per Gate.
type Loader func(ctx context.Context) (Engine, error)

// Config holds configuration for engine creation
type Config struct {
	// Stdout and Stderr receive guest output through WASI. Nil discards it.
	Stdout io.Writer
	Stderr io.Writer

	// MemoryLimitPages sets the maximum memory in pages (64KB each).
	// 0 means the wazero default (65536 pages = 4GB).
	MemoryLimitPages uint32
}

// WazeroEngine runs a digest module with wazero.
//
// It is safe for concurrent use; calls into the guest are serialized.
type WazeroEngine struct {
	runtime   wazero.Runtime
	module    api.Module
	memory    api.Memory
	allocFn   api.Function
	computeFn api.Function
	freeFn    api.Function
	mu        sync.Mutex
}

// FileLoader returns a Loader that reads the module at path and instantiates it.
func FileLoader(path string, cfg *Config) Loader {
	return func(ctx context.Context) (Engine, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errors.NotFound(errors.PhaseLoad, "engine module", path)
			}
			return nil, errors.Load("read engine module", err)
		}
		return newEngine(ctx, data, cfg)
	}
}

// BytesLoader returns a Loader for an in-memory module.
func BytesLoader(wasm []byte, cfg *Config) Loader {
	return func(ctx context.Context) (Engine, error) {
		return newEngine(ctx, wasm, cfg)
	}
}

// newEngine avoids returning a typed nil inside the Engine interface.
func newEngine(ctx context.Context, wasm []byte, cfg *Config) (Engine, error) {
	e, err := NewWazeroEngine(ctx, wasm, cfg)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// NewWazeroEngine compiles and instantiates wasm, verifying the digest exports.
func NewWazeroEngine(ctx context.Context, wasm []byte, cfg *Config) (*WazeroEngine, error) {
	if cfg == nil {
		cfg = &Config{}
	}

	runtimeCfg := wazero.NewRuntimeConfig()
	if cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}
	runtime := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)

	e, err := instantiate(ctx, runtime, wasm, cfg)
	if err != nil {
		runtime.Close(ctx)
		return nil, err
	}
	return e, nil
}

func instantiate(ctx context.Context, runtime wazero.Runtime, wasm []byte, cfg *Config) (*WazeroEngine, error) {
	compiled, err := runtime.CompileModule(ctx, wasm)
	if err != nil {
		return nil, errors.Load("compile engine module", err)
	}

	if importsWASI(compiled) {
		if err := InstantiateWASI(ctx, runtime); err != nil {
			return nil, err
		}
	}

	modCfg := wazero.NewModuleConfig().
		WithName("digest").
		WithStartFunctions(exportInitialize)
	if cfg.Stdout != nil {
		modCfg = modCfg.WithStdout(cfg.Stdout)
	}
	if cfg.Stderr != nil {
		modCfg = modCfg.WithStderr(cfg.Stderr)
	}

	mod, err := runtime.InstantiateModule(ctx, compiled, modCfg)
	if err != nil {
		return nil, errors.Instantiation(err)
	}

	e := &WazeroEngine{
		runtime:   runtime,
		module:    mod,
		memory:    mod.Memory(),
		allocFn:   mod.ExportedFunction(ExportAlloc),
		computeFn: mod.ExportedFunction(ExportCompute),
		freeFn:    mod.ExportedFunction(ExportFree),
	}

	if err := e.verifyExports(); err != nil {
		mod.Close(ctx)
		return nil, err
	}

	Logger().Debug("engine module instantiated",
		zap.Uint32("memory_bytes", e.memory.Size()),
		zap.Bool("has_free", e.freeFn != nil))
	return e, nil
}

func (e *WazeroEngine) verifyExports() error {
	var missing []string
	if e.memory == nil {
		missing = append(missing, ExportMemory)
	}
	if e.allocFn == nil {
		missing = append(missing, ExportAlloc)
	}
	if e.computeFn == nil {
		missing = append(missing, ExportCompute)
	}
	if len(missing) > 0 {
		return errors.MissingExports(missing...)
	}

	if !allocSig.matches(e.allocFn.Definition()) {
		return badSignature(ExportAlloc, "(i32) -> i32")
	}
	if !computeSig.matches(e.computeFn.Definition()) {
		return badSignature(ExportCompute, "(i32, i32, i32) -> i32")
	}
	if e.freeFn != nil && !freeSig.matches(e.freeFn.Definition()) {
		return badSignature(ExportFree, "(i32, i32)")
	}
	return nil
}

func badSignature(export, want string) error {
	return errors.New(errors.PhaseLoad, errors.KindMissingExport).
		Export(export).
		Detail("expected signature %s", want).
		Build()
}

// Compute copies sql into guest memory, calls digest_compute and returns a
// copy of the length-prefixed result buffer.
func (e *WazeroEngine) Compute(ctx context.Context, sql string, version int) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	in := []byte(sql)
	size := uint32(len(in))

	res, err := e.allocFn.Call(ctx, uint64(size))
	if err != nil {
		return nil, errors.AllocationFailed(size, err)
	}
	ptr := uint32(res[0])
	if ptr == 0 && size > 0 {
		return nil, errors.AllocationFailed(size, nil)
	}
	if !e.memory.Write(ptr, in) {
		return nil, errors.OutOfBounds(errors.PhaseInvoke, ptr, size)
	}

	res, err = e.computeFn.Call(ctx, uint64(ptr), uint64(size), uint64(uint32(version)))
	if err != nil {
		return nil, errors.Trap(ExportCompute, err)
	}
	out := uint32(res[0])

	n, ok := e.memory.ReadUint32Le(out)
	if !ok {
		return nil, errors.OutOfBounds(errors.PhaseInvoke, out, resultHeaderSize)
	}
	view, ok := e.memory.Read(out+resultHeaderSize, n)
	if !ok {
		return nil, errors.OutOfBounds(errors.PhaseInvoke, out+resultHeaderSize, n)
	}
	// view aliases guest memory; the next call may overwrite it.
	payload := make([]byte, len(view))
	copy(payload, view)

	if e.freeFn != nil {
		if _, err := e.freeFn.Call(ctx, uint64(ptr), uint64(size)); err != nil {
			Logger().Debug("digest_free failed", zap.Error(err))
		}
	}

	return payload, nil
}

// Close releases the module and its runtime.
func (e *WazeroEngine) Close(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.runtime.Close(ctx)
}

func importsWASI(compiled wazero.CompiledModule) bool {
	for _, def := range compiled.ImportedFunctions() {
		if mod, _, ok := def.Import(); ok && mod == wasi_snapshot_preview1.ModuleName {
			return true
		}
	}
	return false
}
