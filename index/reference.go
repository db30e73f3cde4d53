package index

import (
	"sync"

	"github.com/emmylua-ls/emmylua-core/ids"
	"github.com/emmylua-ls/emmylua-core/syntax"
)

// ReferenceKind classifies one recorded name-use site (spec §3
// ReferenceIndex).
type ReferenceKind uint8

const (
	RefLocal ReferenceKind = iota
	RefGlobal
	RefMember
	RefString // string-literal reference, e.g. a require() module path
)

// Reference is one recorded use of a name, member, or string literal, used
// to answer is_reference_to and find-all-references queries (spec §4
// SemanticModel.is_reference_to).
type Reference struct {
	Id     syntax.SyntaxId
	Kind   ReferenceKind
	Name   string
	Decl   *ids.DeclId   // set for RefLocal/RefGlobal once resolved
	Member *ids.MemberId // set for RefMember once resolved
}

// FileReferences is every reference recorded while analyzing one file.
type FileReferences struct {
	File syntax.FileId
	Refs []Reference
}

// ReferenceIndex stores FileReferences per file (spec §3 ReferenceIndex).
type ReferenceIndex struct {
	mu   sync.RWMutex
	byFile map[syntax.FileId]*FileReferences
}

// NewReferenceIndex creates an empty index.
func NewReferenceIndex() *ReferenceIndex {
	return &ReferenceIndex{byFile: make(map[syntax.FileId]*FileReferences)}
}

// SetFile installs (replacing) the reference list for file.
func (idx *ReferenceIndex) SetFile(file syntax.FileId, refs []Reference) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.byFile[file] = &FileReferences{File: file, Refs: refs}
}

// ForFile returns the recorded references for file.
func (idx *ReferenceIndex) ForFile(file syntax.FileId) []Reference {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	fr, ok := idx.byFile[file]
	if !ok {
		return nil
	}
	return fr.Refs
}

// ReferencesToDecl returns every reference across all files resolved to
// decl, grouped by file (files in no particular order), each file's
// references in the order they were recorded.
func (idx *ReferenceIndex) ReferencesToDecl(decl ids.DeclId) []Reference {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	var out []Reference
	for _, fr := range idx.byFile {
		for _, r := range fr.Refs {
			if r.Decl != nil && *r.Decl == decl {
				out = append(out, r)
			}
		}
	}
	return out
}

// ReferencesToMember returns every reference across all files resolved to
// member, mirroring ReferencesToDecl for the RefMember case (spec §6
// references_of over a member-shaped SemanticDeclId).
func (idx *ReferenceIndex) ReferencesToMember(member ids.MemberId) []Reference {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	var out []Reference
	for _, fr := range idx.byFile {
		for _, r := range fr.Refs {
			if r.Member != nil && *r.Member == member {
				out = append(out, r)
			}
		}
	}
	return out
}

// RemoveFile drops file's reference list.
func (idx *ReferenceIndex) RemoveFile(file syntax.FileId) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	delete(idx.byFile, file)
}
