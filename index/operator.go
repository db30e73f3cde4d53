package index

import (
	"sync"

	"github.com/emmylua-ls/emmylua-core/ids"
	"github.com/emmylua-ls/emmylua-core/syntax"
	"github.com/emmylua-ls/emmylua-core/types"
)

// MetaMethod names a Lua metamethod overloaded via `---@operator` (spec §3
// Operator).
type MetaMethod string

const (
	MetaAdd    MetaMethod = "__add"
	MetaSub    MetaMethod = "__sub"
	MetaMul    MetaMethod = "__mul"
	MetaDiv    MetaMethod = "__div"
	MetaMod    MetaMethod = "__mod"
	MetaPow    MetaMethod = "__pow"
	MetaUnm    MetaMethod = "__unm"
	MetaConcat MetaMethod = "__concat"
	MetaLen    MetaMethod = "__len"
	MetaEq     MetaMethod = "__eq"
	MetaLt     MetaMethod = "__lt"
	MetaLe     MetaMethod = "__le"
	MetaIndex  MetaMethod = "__index"
	MetaNewIdx MetaMethod = "__newindex"
	MetaCall   MetaMethod = "__call"
)

// Operator is one `---@operator add(Other): Result`-style overload
// declared on a class.
type Operator struct {
	Owner  ids.TypeDeclId
	Method MetaMethod
	Func   types.FunctionType
	File   syntax.FileId
}

// OperatorIndex stores every operator overload grouped by owner then
// metamethod (spec §3 OperatorIndex). Calling a class value resolves among
// its `__call` entries with check.ResolveSignature; the binary-operator and
// `__index` lookups take the first registered entry.
type OperatorIndex struct {
	mu  sync.RWMutex
	ops map[ids.TypeDeclId]map[MetaMethod][]*Operator
}

// NewOperatorIndex creates an empty index.
func NewOperatorIndex() *OperatorIndex {
	return &OperatorIndex{ops: make(map[ids.TypeDeclId]map[MetaMethod][]*Operator)}
}

// Add registers op.
func (idx *OperatorIndex) Add(op *Operator) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	byMethod, ok := idx.ops[op.Owner]
	if !ok {
		byMethod = make(map[MetaMethod][]*Operator)
		idx.ops[op.Owner] = byMethod
	}
	byMethod[op.Method] = append(byMethod[op.Method], op)
}

// Get returns every overload of method declared directly on owner (no
// inheritance walk; callers combine with TypeIndex.AllSupers).
func (idx *OperatorIndex) Get(owner ids.TypeDeclId, method MetaMethod) []*Operator {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	byMethod, ok := idx.ops[owner]
	if !ok {
		return nil
	}
	return append([]*Operator(nil), byMethod[method]...)
}

// RemoveFile drops every operator declared from file.
func (idx *OperatorIndex) RemoveFile(file syntax.FileId) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for owner, byMethod := range idx.ops {
		for method, list := range byMethod {
			kept := list[:0]
			for _, op := range list {
				if op.File != file {
					kept = append(kept, op)
				}
			}
			if len(kept) == 0 {
				delete(byMethod, method)
			} else {
				byMethod[method] = kept
			}
		}
		if len(byMethod) == 0 {
			delete(idx.ops, owner)
		}
	}
}
