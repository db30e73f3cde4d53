package index

import (
	"sync"

	"github.com/emmylua-ls/emmylua-core/ids"
	"github.com/emmylua-ls/emmylua-core/syntax"
	"github.com/emmylua-ls/emmylua-core/types"
)

// TypeDeclKind distinguishes the three `---@class`/`---@enum`/`---@alias`
// declaration shapes (spec §2 TypeDecl).
type TypeDeclKind uint8

const (
	TypeDeclClass TypeDeclKind = iota
	TypeDeclEnum
	TypeDeclAlias
)

// Location pairs a file with a source range, used wherever an index entry
// needs to remember where it came from without pulling in a full DeclId.
type Location struct {
	File  syntax.FileId
	Range syntax.Range
}

// TypeDecl is one registered class/enum/alias, possibly assembled from
// several `---@class` blocks across files (partial-class merging, spec
// §4.2 DocAnalyzer).
type TypeDecl struct {
	Id           ids.TypeDeclId
	Name         string
	Kind         TypeDeclKind
	DefLocations []Location
	Supers       []ids.TypeDeclId // classes only
	Generics     []types.GenericTplId
	IsPartial    bool // any def location carries `(partial)`
	IsExact      bool // any def location carries `(exact)`
	KeyAttr      string
	AliasOrigin  types.Type // alias only
	EnumBase     types.Type // enum only; nil means implicit integer keys
}

// CacheEntryKind tags whether a cached member/owner type came from an
// explicit doc annotation or was inferred from usage (spec §4.3's
// "doc type always wins over inferred type" rule reads this tag).
type CacheEntryKind uint8

const (
	CacheInferred CacheEntryKind = iota
	CacheDoc
)

// CacheEntry is one memoized type computation, tagged by provenance so a
// later doc-sourced write can override an earlier inferred one but not
// vice versa.
type CacheEntry struct {
	Kind CacheEntryKind
	Type types.Type
}

// TypeIndex holds every user-defined type declaration plus the
// supertype graph and a small general-purpose type cache keyed by
// PropertyOwnerId (spec §3 TypeIndex).
type TypeIndex struct {
	Interner *ids.Interner

	mu         sync.RWMutex
	decls      map[ids.TypeDeclId]*TypeDecl
	superEdges map[ids.TypeDeclId][]ids.TypeDeclId
	subEdges   map[ids.TypeDeclId][]ids.TypeDeclId
	cache      map[ids.PropertyOwnerId]CacheEntry
}

// NewTypeIndex creates an index backed by its own interner.
func NewTypeIndex() *TypeIndex {
	return &TypeIndex{
		Interner:   ids.NewInterner(),
		decls:      make(map[ids.TypeDeclId]*TypeDecl),
		superEdges: make(map[ids.TypeDeclId][]ids.TypeDeclId),
		subEdges:   make(map[ids.TypeDeclId][]ids.TypeDeclId),
		cache:      make(map[ids.PropertyOwnerId]CacheEntry),
	}
}

// Intern interns name in this index's Interner; WireTypeHooks installs it
// as types.InternHook.
func (idx *TypeIndex) Intern(name string) ids.TypeDeclId { return idx.Interner.Intern(name) }

// GetOrCreate returns the TypeDecl for id, creating an empty shell the
// first time a def location references it (merge happens incrementally as
// each `---@class` block analyzes, spec §4.2).
func (idx *TypeIndex) GetOrCreate(id ids.TypeDeclId, name string, kind TypeDeclKind) *TypeDecl {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if d, ok := idx.decls[id]; ok {
		return d
	}
	d := &TypeDecl{Id: id, Name: name, Kind: kind}
	idx.decls[id] = d
	return d
}

// AddDefLocation merges one more `---@class`/`---@enum`/`---@alias` block
// into id's declaration, recording the new def site and unioning the
// partial/exact flags.
func (idx *TypeIndex) AddDefLocation(id ids.TypeDeclId, loc Location, partial, exact bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	d, ok := idx.decls[id]
	if !ok {
		return
	}
	d.DefLocations = append(d.DefLocations, loc)
	d.IsPartial = d.IsPartial || partial
	d.IsExact = d.IsExact || exact
}

// AddSuper adds super to id's supertype edges (one entry of a def
// location's `---@class Foo : Bar, Baz` header), skipping a super the decl
// already lists; edges accumulate across every def location.
func (idx *TypeIndex) AddSuper(id, super ids.TypeDeclId) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if d, ok := idx.decls[id]; ok {
		for _, s := range d.Supers {
			if s == super {
				return
			}
		}
		d.Supers = append(d.Supers, super)
	}
	idx.superEdges[id] = append(idx.superEdges[id], super)
	idx.subEdges[super] = append(idx.subEdges[super], id)
}

// Get returns the declaration for id.
func (idx *TypeIndex) Get(id ids.TypeDeclId) (*TypeDecl, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	d, ok := idx.decls[id]
	return d, ok
}

// AllClasses returns every TypeDeclClass decl currently registered, for
// passes that need to scan every class rather than look one up by id (e.g.
// classDefaultCall synthesis).
func (idx *TypeIndex) AllClasses() []*TypeDecl {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	var out []*TypeDecl
	for _, d := range idx.decls {
		if d.Kind == TypeDeclClass {
			out = append(out, d)
		}
	}
	return out
}

// Supers returns id's immediate supertypes (classes only).
func (idx *TypeIndex) Supers(id ids.TypeDeclId) []ids.TypeDeclId {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return append([]ids.TypeDeclId(nil), idx.superEdges[id]...)
}

// AllSupers returns id's full ancestor set via breadth-first traversal,
// tolerating cycles (spec edge case: inheritance cycle treated as
// "no further supertypes" rather than infinite loop).
func (idx *TypeIndex) AllSupers(id ids.TypeDeclId) []ids.TypeDeclId {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	seen := map[ids.TypeDeclId]bool{id: true}
	queue := append([]ids.TypeDeclId(nil), idx.superEdges[id]...)
	var out []ids.TypeDeclId
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if seen[cur] {
			continue
		}
		seen[cur] = true
		out = append(out, cur)
		queue = append(queue, idx.superEdges[cur]...)
	}
	return out
}

// RemoveFile drops every def location owned by file, deleting decls left
// with zero def locations entirely (spec invariant 5).
func (idx *TypeIndex) RemoveFile(file syntax.FileId) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for id, d := range idx.decls {
		kept := d.DefLocations[:0]
		for _, loc := range d.DefLocations {
			if loc.File != file {
				kept = append(kept, loc)
			}
		}
		d.DefLocations = kept
		if len(d.DefLocations) == 0 {
			delete(idx.decls, id)
		}
	}
	for owner := range idx.cache {
		if owner.Kind == ids.OwnerTypeDecl {
			continue // type decl cache entries are re-keyed by type id, not file
		}
		if ownerFile(owner) == file {
			delete(idx.cache, owner)
		}
	}
}

func ownerFile(owner ids.PropertyOwnerId) syntax.FileId {
	switch owner.Kind {
	case ids.OwnerDecl:
		return owner.Decl.File
	case ids.OwnerMember:
		return owner.Member.File
	case ids.OwnerSignature:
		return owner.Signature.File
	default:
		return ""
	}
}

// CacheGet reads a memoized type for owner.
func (idx *TypeIndex) CacheGet(owner ids.PropertyOwnerId) (CacheEntry, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	e, ok := idx.cache[owner]
	return e, ok
}

// CachePut writes a memoized type for owner, refusing to let an Inferred
// write clobber an existing Doc entry (doc type always wins, spec §4.3).
func (idx *TypeIndex) CachePut(owner ids.PropertyOwnerId, entry CacheEntry) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if existing, ok := idx.cache[owner]; ok && existing.Kind == CacheDoc && entry.Kind == CacheInferred {
		return
	}
	idx.cache[owner] = entry
}

// InvalidateFile drops every cache entry whose owner belongs to file,
// called before re-analyzing a changed file (spec invariant 6).
func (idx *TypeIndex) InvalidateFile(file syntax.FileId) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for owner := range idx.cache {
		if ownerFile(owner) == file {
			delete(idx.cache, owner)
		}
	}
}
