package index

import (
	"sync"

	"github.com/emmylua-ls/emmylua-core/ids"
	"github.com/emmylua-ls/emmylua-core/syntax"
	"github.com/emmylua-ls/emmylua-core/types"
)

// ResolveStatus tracks a Signature's return-type resolution state machine
// (spec §3 Signature, invariant 4: "a Signature's resolve_return state is
// monotonic: UnResolve -> {InferResolve|DocResolve}, never backwards").
type ResolveStatus uint8

const (
	ResolveUnresolved ResolveStatus = iota
	ResolveDoc                      // fixed by an explicit `---@return`
	ResolveInferred                 // computed from the closure body
)

// Signature is one closure's declared or inferred shape (spec §3
// Signature).
type Signature struct {
	Id            ids.SignatureId
	Params        []types.Param
	ParamDescs    map[string]string
	Return        types.Type
	ReturnDesc    string
	Overloads     []types.FunctionType
	Generics      []types.GenericTplId
	IsColonDefine bool
	IsVariadic    bool
	ResolveReturn ResolveStatus
}

// SignatureIndex stores every closure's Signature by SignatureId (spec §3
// SignatureIndex).
type SignatureIndex struct {
	mu   sync.RWMutex
	sigs map[ids.SignatureId]*Signature
}

// NewSignatureIndex creates an empty index.
func NewSignatureIndex() *SignatureIndex {
	return &SignatureIndex{sigs: make(map[ids.SignatureId]*Signature)}
}

// GetOrCreate returns the Signature for id, creating an empty shell on
// first reference (e.g. a call site seen before the callee's own analysis
// pass has run, spec §4.3 UnResolve("callee signature pending")).
func (idx *SignatureIndex) GetOrCreate(id ids.SignatureId) *Signature {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if s, ok := idx.sigs[id]; ok {
		return s
	}
	s := &Signature{Id: id, ParamDescs: make(map[string]string)}
	idx.sigs[id] = s
	return s
}

// Get returns the Signature for id without creating one.
func (idx *SignatureIndex) Get(id ids.SignatureId) (*Signature, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	s, ok := idx.sigs[id]
	return s, ok
}

// SetReturn transitions a Signature's return type, enforcing the
// monotonic state machine: a Doc-sourced return is final and a later
// Inferred write is silently dropped; an Unresolved signature accepts
// either.
func (idx *SignatureIndex) SetReturn(id ids.SignatureId, ret types.Type, status ResolveStatus) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	s, ok := idx.sigs[id]
	if !ok {
		s = &Signature{Id: id, ParamDescs: make(map[string]string)}
		idx.sigs[id] = s
	}
	if s.ResolveReturn == ResolveDoc && status == ResolveInferred {
		return
	}
	s.Return = ret
	s.ResolveReturn = status
}

// RemoveFile drops every signature declared in file.
func (idx *SignatureIndex) RemoveFile(file syntax.FileId) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for id := range idx.sigs {
		if id.File == file {
			delete(idx.sigs, id)
		}
	}
}
