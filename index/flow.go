package index

import (
	"sync"

	"github.com/emmylua-ls/emmylua-core/flow"
	"github.com/emmylua-ls/emmylua-core/ids"
	"github.com/emmylua-ls/emmylua-core/syntax"
)

// VarRefId identifies the variable a flow-chain narrows: a plain local/
// global (empty Path) or a dotted access rooted at one (`self.x.y`,
// Path == "x.y"), per spec §4.4's narrowing of simple member chains. Path
// is a single dot-joined string rather than []string so VarRefId stays a
// comparable struct usable as a map key.
type VarRefId struct {
	Decl ids.DeclId
	Path string
}

// FlowEntry is one recorded assertion and the source range over which it
// applies (an if/while branch body, or a use site sharing a chain after an
// unconditional reassignment).
type FlowEntry struct {
	Range     syntax.Range
	Assertion flow.Assertion
}

// FlowChain is the ordered sequence of assertions recorded against one
// VarRefId within one enclosing flow scope (a file's top-level block or a
// closure body, spec §4.4 FlowChain).
type FlowChain struct {
	Entries []FlowEntry
}

type flowKey struct {
	Scope syntax.SyntaxId
	Ref   VarRefId
}

// FlowIndex stores every FlowChain keyed by (enclosing flow scope, var
// ref), plus the call-cast table used to resolve user-defined type guards
// (spec §3 FlowIndex; original's `get_call_cast`).
type FlowIndex struct {
	mu        sync.RWMutex
	chains    map[flowKey]*FlowChain
	callCasts map[ids.SignatureId]map[string]flow.Assertion
	fileScopes map[syntax.FileId][]syntax.SyntaxId
}

// NewFlowIndex creates an empty index.
func NewFlowIndex() *FlowIndex {
	return &FlowIndex{
		chains:     make(map[flowKey]*FlowChain),
		callCasts:  make(map[ids.SignatureId]map[string]flow.Assertion),
		fileScopes: make(map[syntax.FileId][]syntax.SyntaxId),
	}
}

// AddEntry appends entry to the chain for (scope, ref) in its file,
// creating the chain on first use.
func (idx *FlowIndex) AddEntry(file syntax.FileId, scope syntax.SyntaxId, ref VarRefId, entry FlowEntry) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	key := flowKey{Scope: scope, Ref: ref}
	c, ok := idx.chains[key]
	if !ok {
		c = &FlowChain{}
		idx.chains[key] = c
		idx.fileScopes[file] = append(idx.fileScopes[file], scope)
	}
	c.Entries = append(c.Entries, entry)
}

// AssertionsAt returns, in recorded order, every assertion in (scope,
// ref)'s chain whose Range contains pos — the set tighten_type should fold
// over left-to-right to compute the narrowed type at pos (spec §4.4
// "apply each covering assertion in source order").
func (idx *FlowIndex) AssertionsAt(scope syntax.SyntaxId, ref VarRefId, pos syntax.Position) []flow.Assertion {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	c, ok := idx.chains[flowKey{Scope: scope, Ref: ref}]
	if !ok {
		return nil
	}
	var out []flow.Assertion
	for _, e := range c.Entries {
		if e.Range.Contains(pos) {
			out = append(out, e.Assertion)
		}
	}
	return out
}

// SetCallCast registers the per-parameter assertions a type-guard
// signature installs on truthy return, e.g. `---@param v any` +
// `---@return boolean` + `---@cast v MyClass` style guard functions.
func (idx *FlowIndex) SetCallCast(sig ids.SignatureId, param string, a flow.Assertion) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	m, ok := idx.callCasts[sig]
	if !ok {
		m = make(map[string]flow.Assertion)
		idx.callCasts[sig] = m
	}
	m[param] = a
}

// GetCallCast returns the full per-parameter cast table for sig.
func (idx *FlowIndex) GetCallCast(sig ids.SignatureId) (map[string]flow.Assertion, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	m, ok := idx.callCasts[sig]
	return m, ok
}

// RemoveFile drops every flow chain recorded under a scope belonging to
// file. Call-cast entries are keyed by SignatureId and are not touched here;
// only RemoveSignatureCast drops them.
func (idx *FlowIndex) RemoveFile(file syntax.FileId) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for _, scope := range idx.fileScopes[file] {
		for key := range idx.chains {
			if key.Scope == scope {
				delete(idx.chains, key)
			}
		}
	}
	delete(idx.fileScopes, file)
}

// RemoveSignatureCast drops the call-cast table for a removed signature.
func (idx *FlowIndex) RemoveSignatureCast(sig ids.SignatureId) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	delete(idx.callCasts, sig)
}
