package ids

import (
	"fmt"
	"sync"

	"github.com/minio/highwayhash"
)

// hashKey is a fixed 32-byte key for HighwayHash, the way viant/linager's
// inspector/graph package hashes content for its dependency graph. The key
// only needs to be stable for one process's lifetime; it is not a secret.
var hashKey = []byte("emmylua-core-interner-key-000001")

// Interner assigns a stable, append-only TypeDeclId to each distinct
// dotted type name seen during analysis (spec §9: "Global mutable state...
// the type-name interner is process-wide and append-only"). Ids are
// assigned sequentially in first-seen order through a plain name→id map, so
// the same name always yields the same id and TypeDeclId values remain
// small dense integers suitable as map keys elsewhere.
type Interner struct {
	mu      sync.RWMutex
	byName  map[string]TypeDeclId
	byId    []string // index i holds the name for TypeDeclId(i+1)
}

// NewInterner creates an empty interner. TypeDeclId zero is reserved as
// "no type" so every valid id is >= 1.
func NewInterner() *Interner {
	return &Interner{
		byName: make(map[string]TypeDeclId, 256),
	}
}

// Intern returns the TypeDeclId for name, assigning a fresh one if name has
// never been seen. Never reassigns or renames an existing id (invariant 2).
func (in *Interner) Intern(name string) TypeDeclId {
	in.mu.RLock()
	if id, ok := in.byName[name]; ok {
		in.mu.RUnlock()
		return id
	}
	in.mu.RUnlock()

	in.mu.Lock()
	defer in.mu.Unlock()
	if id, ok := in.byName[name]; ok {
		return id
	}
	in.byId = append(in.byId, name)
	id := TypeDeclId(len(in.byId))
	in.byName[name] = id
	return id
}

// Lookup returns the id for name without interning it, for callers that
// must not create a new type on a miss (e.g. reference resolution against
// types that may simply not exist yet).
func (in *Interner) Lookup(name string) (TypeDeclId, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	id, ok := in.byName[name]
	return id, ok
}

// Name returns the dotted name for id, or "" if id is unknown.
func (in *Interner) Name(id TypeDeclId) string {
	if id == 0 {
		return ""
	}
	in.mu.RLock()
	defer in.mu.RUnlock()
	idx := int(id) - 1
	if idx < 0 || idx >= len(in.byId) {
		return ""
	}
	return in.byId[idx]
}

// ContentHash returns a stable 64-bit HighwayHash fingerprint of arbitrary
// byte content. Nothing in this module calls it; UpdateFiles re-analyzes a
// resubmitted file whatever its content.
func ContentHash(data []byte) (uint64, error) {
	h, err := highwayhash.New64(hashKey)
	if err != nil {
		return 0, fmt.Errorf("interner: init highwayhash: %w", err)
	}
	if _, err := h.Write(data); err != nil {
		return 0, fmt.Errorf("interner: hash content: %w", err)
	}
	return h.Sum64(), nil
}
