// Package index holds the per-session symbol database (spec §3): the
// scope-aware declaration tree, the type/member/signature/property/
// operator/reference/module/flow indices. Every index follows the
// teacher's build-once-query-many shape (analyzer/ast/struct_index.go,
// analyzer/ast/cache.go): a sync.RWMutex guards a plain map, writes only
// happen during a file's own analysis phases or a cross-file resolver
// step, and everything else is a read-lock lookup.
package index

import (
	"sync"

	"github.com/emmylua-ls/emmylua-core/ids"
	"github.com/emmylua-ls/emmylua-core/syntax"
	"github.com/emmylua-ls/emmylua-core/types"
)

// ScopeKind enumerates the four lexical scope shapes the spec calls out
// (spec §3 DeclIndex): Normal, LocalStat, Repeat and ForRange.
type ScopeKind uint8

const (
	ScopeNormal ScopeKind = iota
	ScopeLocalStat
	ScopeRepeat
	ScopeForRange
)

// Decl is one registered local, parameter, or global name.
type Decl struct {
	Id       ids.DeclId
	Name     string
	IsGlobal bool
	IsParam  bool
	IsConst  bool
	Type     types.Type // nil until Doc/LuaAnalyzer assigns one
}

// Scope is one node of a file's scope tree.
type Scope struct {
	Kind     ScopeKind
	Range    syntax.Range
	Parent   *Scope
	Children []*Scope
	Decls    []*Decl // in declaration-position order
}

// AddDecl appends d to scope's Decls without sorting; DeclAnalyzer
// registers decls in source order, which keeps Decls in declaration-position
// order for declAt's linear scan.
func (s *Scope) AddDecl(d *Decl) {
	s.Decls = append(s.Decls, d)
}

// DeclAt returns the innermost decl named `name` visible at `pos` within
// s's own Decls list (not walking to Parent): the last one declared at or
// before pos, since later `local x` shadows an earlier one in the same
// scope.
func (s *Scope) declAt(name string, pos syntax.Position) *Decl {
	var found *Decl
	for _, d := range s.Decls {
		if d.Name != name {
			continue
		}
		if d.Id.Pos > pos {
			continue
		}
		found = d
	}
	return found
}

// scopeContaining returns the innermost descendant scope (including s)
// whose Range covers pos.
func (s *Scope) scopeContaining(pos syntax.Position) *Scope {
	cur := s
	for {
		advanced := false
		for _, c := range cur.Children {
			if c.Range.Covers(pos) {
				cur = c
				advanced = true
				break
			}
		}
		if !advanced {
			return cur
		}
	}
}

// DeclTree is one file's scope tree plus a reverse position index.
type DeclTree struct {
	File    syntax.FileId
	Root    *Scope
	byPos   map[syntax.Position]*Decl
	Globals map[string]*Decl // created empty and never filled; globals live in DeclIndex (RegisterGlobal)
}

// NewDeclTree creates an empty tree rooted at a Normal scope covering the
// whole file.
func NewDeclTree(file syntax.FileId, fileRange syntax.Range) *DeclTree {
	return &DeclTree{
		File:    file,
		Root:    &Scope{Kind: ScopeNormal, Range: fileRange},
		byPos:   make(map[syntax.Position]*Decl),
		Globals: make(map[string]*Decl),
	}
}

// Register adds d to scope and to the reverse-lookup table.
func (t *DeclTree) Register(scope *Scope, d *Decl) {
	scope.AddDecl(d)
	t.byPos[d.Id.Pos] = d
}

// DeclByPos returns the decl whose defining name token starts at pos.
func (t *DeclTree) DeclByPos(pos syntax.Position) (*Decl, bool) {
	d, ok := t.byPos[pos]
	return d, ok
}

// FindVisibleDecl finds the decl named `name` visible at `pos`: the
// innermost scope containing pos, then that scope and its ancestors in
// order, returning the first (innermost, most-recently-declared) match.
func (t *DeclTree) FindVisibleDecl(name string, pos syntax.Position) (*Decl, bool) {
	scope := t.Root.scopeContaining(pos)
	for s := scope; s != nil; s = s.Parent {
		if d := s.declAt(name, pos); d != nil {
			return d, true
		}
	}
	return nil, false
}

// DeclIndex is the process-wide collection of per-file scope trees plus a
// merged view of global declarations (a global may be written from many
// files; the first registration wins per spec invariant 3 "current owner
// ... set exactly once", with later writers recorded as additional
// assignment sites rather than redefinitions).
type DeclIndex struct {
	mu          sync.RWMutex
	trees       map[syntax.FileId]*DeclTree
	globalDecls map[string]*Decl
	globalFiles map[string]map[syntax.FileId]bool
}

// NewDeclIndex creates an empty index.
func NewDeclIndex() *DeclIndex {
	return &DeclIndex{
		trees:       make(map[syntax.FileId]*DeclTree),
		globalDecls: make(map[string]*Decl),
		globalFiles: make(map[string]map[syntax.FileId]bool),
	}
}

// SetFile installs (or replaces) the tree for a file.
func (idx *DeclIndex) SetFile(tree *DeclTree) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.removeFileLocked(tree.File)
	idx.trees[tree.File] = tree
}

// RegisterGlobal records a global declared/assigned from file. The first
// caller across all files to register a given name owns its Decl
// (invariant 3); later files are tracked as additional reference sites but
// do not move the Decl's home file.
func (idx *DeclIndex) RegisterGlobal(file syntax.FileId, d *Decl) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if _, ok := idx.globalDecls[d.Name]; !ok {
		idx.globalDecls[d.Name] = d
	}
	if idx.globalFiles[d.Name] == nil {
		idx.globalFiles[d.Name] = make(map[syntax.FileId]bool)
	}
	idx.globalFiles[d.Name][file] = true
}

// GetGlobalDecl returns the owning Decl for a global name.
func (idx *DeclIndex) GetGlobalDecl(name string) (*Decl, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	d, ok := idx.globalDecls[name]
	return d, ok
}

// FindVisibleDecl looks up a local/param decl within one file's scope
// tree; it does not consult globals (callers fall back to
// GetGlobalDecl themselves, per spec §4.3 NameExpr dispatch order).
func (idx *DeclIndex) FindVisibleDecl(file syntax.FileId, name string, pos syntax.Position) (*Decl, bool) {
	idx.mu.RLock()
	tree, ok := idx.trees[file]
	idx.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return tree.FindVisibleDecl(name, pos)
}

// Tree returns the raw scope tree for a file, for callers (FlowAnalyzer)
// that need to walk it directly.
func (idx *DeclIndex) Tree(file syntax.FileId) (*DeclTree, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	t, ok := idx.trees[file]
	return t, ok
}

// RemoveFile purges every entity whose primary file is `file` (spec
// invariant 5), including releasing ownership of every global name whose
// owning Decl came from `file`, whether or not other files still reference
// that name.
func (idx *DeclIndex) RemoveFile(file syntax.FileId) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.removeFileLocked(file)
}

func (idx *DeclIndex) removeFileLocked(file syntax.FileId) {
	delete(idx.trees, file)
	for name, files := range idx.globalFiles {
		if files[file] {
			delete(files, file)
			if len(files) == 0 {
				delete(idx.globalFiles, name)
				delete(idx.globalDecls, name)
			} else if d, ok := idx.globalDecls[name]; ok && d.Id.File == file {
				// Ownership does not transfer to a remaining file: the
				// decl's position is meaningful only in its own file, so
				// drop it and let the next analysis pass re-register.
				delete(idx.globalDecls, name)
			}
		}
	}
}
