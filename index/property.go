package index

import (
	"sync"

	"github.com/emmylua-ls/emmylua-core/ids"
	"github.com/emmylua-ls/emmylua-core/syntax"
)

// VersionCond is one `---@version` gate, e.g. `>= 5.3` (spec §5
// Supplemented Features: runtime.version gating reused from
// original_source).
type VersionCond struct {
	Op      string // "==", ">=", "<=", ">", "<"
	Version string
}

// Property holds the doc-derived metadata attached to a decl, member,
// type, or signature that isn't itself a Type (spec §3 Property).
type Property struct {
	Description string
	Visibility  string // "public" (default), "private", "protected", "package"
	Deprecated  *string
	IsAsync     bool
	NoDiscard   bool
	Versions    []VersionCond
	See         []string
	Source      string // raw doc-comment text, for hover rendering
}

// PropertyIndex stores Property records keyed by PropertyOwnerId (spec §3
// PropertyIndex).
type PropertyIndex struct {
	mu    sync.RWMutex
	props map[ids.PropertyOwnerId]*Property
}

// NewPropertyIndex creates an empty index.
func NewPropertyIndex() *PropertyIndex {
	return &PropertyIndex{props: make(map[ids.PropertyOwnerId]*Property)}
}

// GetOrCreate returns owner's Property record, creating an empty one on
// first doc-comment tag seen for it.
func (idx *PropertyIndex) GetOrCreate(owner ids.PropertyOwnerId) *Property {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	p, ok := idx.props[owner]
	if !ok {
		p = &Property{Visibility: "public"}
		idx.props[owner] = p
	}
	return p
}

// Get returns owner's Property record without creating one.
func (idx *PropertyIndex) Get(owner ids.PropertyOwnerId) (*Property, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	p, ok := idx.props[owner]
	return p, ok
}

// RemoveFile drops every property whose owner belongs to file.
func (idx *PropertyIndex) RemoveFile(file syntax.FileId) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for owner := range idx.props {
		if ownerFile(owner) == file {
			delete(idx.props, owner)
		}
	}
}
