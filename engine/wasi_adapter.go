package engine

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/wippyai/digest-playground/errors"
)

// InstantiateWASI instantiates WASI preview1 into r unless a module of that
// name already exists. Engines built with GOOS=wasip1 or TinyGo import it for
// clocks, random and stdio.
func InstantiateWASI(ctx context.Context, r wazero.Runtime) error {
	if r.Module(wasi_snapshot_preview1.ModuleName) != nil {
		return nil
	}
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, r); err != nil {
		// Another path may have raced us into the same runtime.
		if r.Module(wasi_snapshot_preview1.ModuleName) == nil {
			return errors.Load("instantiate WASI", err)
		}
	}
	return nil
}
