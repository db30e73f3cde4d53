// Package semantic implements the query façade over the indices and flow
// engine (spec §4.3 SemanticModel): infer_expr, infer_call_expr_func,
// find_declaration, members_of, type_check, is_reference_to, each backed
// by a per-file expression cache with the three-state "not computed / in
// progress / computed" discipline the spec requires to break recursive
// inference (e.g. `local x = f(x)` style self-reference).
package semantic

import (
	"sync"

	"github.com/emmylua-ls/emmylua-core/check"
	"github.com/emmylua-ls/emmylua-core/config"
	"github.com/emmylua-ls/emmylua-core/index"
	"github.com/emmylua-ls/emmylua-core/syntax"
	"github.com/emmylua-ls/emmylua-core/types"
)

// Model answers every read-only query the engine exposes once a file set
// has been analyzed (spec §6 "Output queries (all pure)").
type Model struct {
	Decls      *index.DeclIndex
	Types      *index.TypeIndex
	Members    *index.MemberIndex
	Signatures *index.SignatureIndex
	Properties *index.PropertyIndex
	Operators  *index.OperatorIndex
	References *index.ReferenceIndex
	Modules    *index.ModuleIndex
	Flows      *index.FlowIndex
	Checker    *check.Checker

	// Runtime gates which built-in binary operators inferBinary recognizes
	// (SPEC_FULL.md §5: `//` and the bitwise operators are built-in only
	// for Lua 5.3+/LuaJIT). Set post-
	// construction by the engine from config.Config.Runtime, mirroring
	// analysis.Pipeline's ClassDefaultCallRules/Runtime fields; the zero
	// value (RuntimeVersion "") supports neither, matching Default()'s
	// eventual Lua54 override taking effect only once the engine applies it.
	Runtime config.Runtime

	mu    sync.Mutex
	files map[syntax.FileId]*fileEntry
	cache map[syntax.FileId]map[syntax.SyntaxId]*cacheSlot
}

type fileEntry struct {
	File     *syntax.File
	NodeByID map[syntax.SyntaxId]syntax.Node
	Parents  *syntax.ParentIndex
}

type cacheState uint8

const (
	notComputed cacheState = iota
	inProgress
	computed
)

type cacheSlot struct {
	state cacheState
	typ   types.Type
}

// NewModel wires a Model over an already-populated set of indices.
func NewModel(
	decls *index.DeclIndex,
	typeIdx *index.TypeIndex,
	members *index.MemberIndex,
	sigs *index.SignatureIndex,
	props *index.PropertyIndex,
	ops *index.OperatorIndex,
	refs *index.ReferenceIndex,
	mods *index.ModuleIndex,
	flows *index.FlowIndex,
	checker *check.Checker,
) *Model {
	return &Model{
		Decls: decls, Types: typeIdx, Members: members, Signatures: sigs,
		Properties: props, Operators: ops, References: refs, Modules: mods,
		Flows: flows, Checker: checker,
		files: make(map[syntax.FileId]*fileEntry),
		cache: make(map[syntax.FileId]map[syntax.SyntaxId]*cacheSlot),
	}
}

// RegisterFile installs f's tree so later queries can resolve positions
// and walk parents within it. Called once per file by the analysis
// pipeline (and again on re-analysis after RemoveFile).
func (m *Model) RegisterFile(f *syntax.File) {
	m.mu.Lock()
	defer m.mu.Unlock()
	nodeByID := make(map[syntax.SyntaxId]syntax.Node)
	syntax.Walk(f, func(_ syntax.Node, n syntax.Node) bool {
		nodeByID[n.SyntaxId()] = n
		return true
	})
	m.files[f.Id] = &fileEntry{
		File:     f,
		NodeByID: nodeByID,
		Parents:  syntax.BuildParentIndex(f),
	}
	m.cache[f.Id] = make(map[syntax.SyntaxId]*cacheSlot)
}

// RemoveFile drops f's tree and cache (spec invariant 5/6; index cleanup
// itself is driven by the engine calling each index's own RemoveFile).
func (m *Model) RemoveFile(id syntax.FileId) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, id)
	delete(m.cache, id)
}

func (m *Model) fileEntry(file syntax.FileId) (*fileEntry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fe, ok := m.files[file]
	return fe, ok
}

// slot returns (and creates if absent) the cache slot for (file, id),
// under the model's lock.
func (m *Model) slot(file syntax.FileId, id syntax.SyntaxId) *cacheSlot {
	m.mu.Lock()
	defer m.mu.Unlock()
	byID, ok := m.cache[file]
	if !ok {
		byID = make(map[syntax.SyntaxId]*cacheSlot)
		m.cache[file] = byID
	}
	s, ok := byID[id]
	if !ok {
		s = &cacheSlot{state: notComputed}
		byID[id] = s
	}
	return s
}

func (m *Model) setSlot(file syntax.FileId, id syntax.SyntaxId, state cacheState, t types.Type) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byID, ok := m.cache[file]
	if !ok {
		byID = make(map[syntax.SyntaxId]*cacheSlot)
		m.cache[file] = byID
	}
	byID[id] = &cacheSlot{state: state, typ: t}
}

// nodeAt returns the innermost node in file whose range covers pos.
func (fe *fileEntry) nodeAt(pos syntax.Position) syntax.Node {
	var best syntax.Node
	bestLen := -1
	syntax.Walk(fe.File, func(_ syntax.Node, n syntax.Node) bool {
		r := n.NodeRange()
		if !r.Covers(pos) {
			return true
		}
		l := int(r.End) - int(r.Start)
		if best == nil || l < bestLen {
			best = n
			bestLen = l
		}
		return true
	})
	return best
}

// flowScopeOf returns the SyntaxId identifying n's enclosing flow scope:
// its nearest enclosing closure, or a whole-file sentinel id for
// top-level code (spec §4.4 LuaFlowId).
func (fe *fileEntry) flowScopeOf(n syntax.Node) syntax.SyntaxId {
	if c := fe.Parents.EnclosingClosure(n); c != nil {
		return c.SyntaxId()
	}
	return syntax.SyntaxId{Kind: syntax.KindFile, Range: fe.File.Body.Range}
}
