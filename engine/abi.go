package engine

import (
	"github.com/tetratelabs/wazero/api"
)

// Guest ABI export names.
const (
	ExportMemory  = "memory"
	ExportAlloc   = "digest_alloc"
	ExportCompute = "digest_compute"
	ExportFree    = "digest_free"

	// Reactor modules (wasip1 c-shared, TinyGo) export _initialize instead of _start.
	exportInitialize = "_initialize"
)

// resultHeaderSize is the u32 little-endian length prefix of a result buffer.
const resultHeaderSize = 4

// signature describes the core types of an export.
type signature struct {
	params  []api.ValueType
	results []api.ValueType
}

var (
	i32 = api.ValueTypeI32

	allocSig   = signature{params: []api.ValueType{i32}, results: []api.ValueType{i32}}
	computeSig = signature{params: []api.ValueType{i32, i32, i32}, results: []api.ValueType{i32}}
	freeSig    = signature{params: []api.ValueType{i32, i32}}
)

func (s signature) matches(def api.FunctionDefinition) bool {
	return sameTypes(def.ParamTypes(), s.params) && sameTypes(def.ResultTypes(), s.results)
}

func sameTypes(a, b []api.ValueType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
