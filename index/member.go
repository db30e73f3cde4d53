package index

import (
	"sync"

	"github.com/emmylua-ls/emmylua-core/ids"
	"github.com/emmylua-ls/emmylua-core/syntax"
	"github.com/emmylua-ls/emmylua-core/types"
)

// MemberOwnerKind tags which MemberOwner alternative is set (spec §3
// MemberOwner = Type(TypeDeclId) | Element(FileId, SyntaxId)).
type MemberOwnerKind uint8

const (
	MemberOwnerType MemberOwnerKind = iota
	MemberOwnerElement
)

// MemberOwner identifies what a Member belongs to: a nominal type (class
// field) or an anonymous table literal (table constructor field).
type MemberOwner struct {
	Kind  MemberOwnerKind
	Type  ids.TypeDeclId
	File  syntax.FileId
	Range syntax.Range
}

// Member is one field/method declaration, attached either to a nominal
// type or to a table-literal element (spec §3 Member).
type Member struct {
	Id         ids.MemberId
	Owner      MemberOwner
	Name       string   // set when keyed by name
	Int        int64    // set when keyed by an integer literal
	ExprType   types.Type
	SyntaxKey  syntax.SyntaxId
	Type       types.Type
	IsMethod   bool
	Visibility string
}

// ownerBucket groups every member of one owner by key shape. ExprType-keyed
// members are scanned linearly via types.Equal since arbitrary Type values
// are not safe map keys (some variants embed slices).
type ownerBucket struct {
	byName    map[string][]*Member
	byInt     map[int64][]*Member
	byExprTy  []*Member
	bySyntax  map[syntax.SyntaxId][]*Member
	all       []*Member
}

func newOwnerBucket() *ownerBucket {
	return &ownerBucket{
		byName:   make(map[string][]*Member),
		byInt:    make(map[int64][]*Member),
		bySyntax: make(map[syntax.SyntaxId][]*Member),
	}
}

// MemberIndex stores every Member keyed by owner then by key shape (spec
// §3 MemberIndex: "owner -> key -> MemberItem").
type MemberIndex struct {
	mu      sync.RWMutex
	buckets map[MemberOwner]*ownerBucket
}

// NewMemberIndex creates an empty index.
func NewMemberIndex() *MemberIndex {
	return &MemberIndex{buckets: make(map[MemberOwner]*ownerBucket)}
}

// Add registers m under its Owner.
func (idx *MemberIndex) Add(m *Member) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	b, ok := idx.buckets[m.Owner]
	if !ok {
		b = newOwnerBucket()
		idx.buckets[m.Owner] = b
	}
	b.all = append(b.all, m)
	switch {
	case m.ExprType != nil:
		b.byExprTy = append(b.byExprTy, m)
	case m.SyntaxKey != (syntax.SyntaxId{}):
		b.bySyntax[m.SyntaxKey] = append(b.bySyntax[m.SyntaxKey], m)
	case m.Name != "":
		b.byName[m.Name] = append(b.byName[m.Name], m)
	default:
		b.byInt[m.Int] = append(b.byInt[m.Int], m)
	}
}

// ByName returns the (possibly overloaded) members named `name` directly
// on owner, with no inheritance walk (callers needing inherited members
// combine this with TypeIndex.AllSupers, spec §4.3 "Member lookup").
func (idx *MemberIndex) ByName(owner MemberOwner, name string) []*Member {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	b, ok := idx.buckets[owner]
	if !ok {
		return nil
	}
	return append([]*Member(nil), b.byName[name]...)
}

// ByInt returns members keyed by an integer literal (array-style fields).
func (idx *MemberIndex) ByInt(owner MemberOwner, i int64) []*Member {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	b, ok := idx.buckets[owner]
	if !ok {
		return nil
	}
	return append([]*Member(nil), b.byInt[i]...)
}

// ByExprType returns members keyed by a non-literal expression type (index
// signature-like fields), matching via structural type equality.
func (idx *MemberIndex) ByExprType(owner MemberOwner, key types.Type) []*Member {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	b, ok := idx.buckets[owner]
	if !ok {
		return nil
	}
	var out []*Member
	for _, m := range b.byExprTy {
		if types.Equal(m.ExprType, key) {
			out = append(out, m)
		}
	}
	return out
}

// All returns every member directly declared on owner, for KeyOf/members_of
// style enumeration (spec §4 SemanticModel.members_of).
func (idx *MemberIndex) All(owner MemberOwner) []*Member {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	b, ok := idx.buckets[owner]
	if !ok {
		return nil
	}
	return append([]*Member(nil), b.all...)
}

// RemoveFile drops every member whose owner is an Element of file, and
// every member whose Id.File is file (class fields declared from that
// file, even if the class itself lives elsewhere via partial merge).
func (idx *MemberIndex) RemoveFile(file syntax.FileId) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for owner, b := range idx.buckets {
		if owner.Kind == MemberOwnerElement && owner.File == file {
			delete(idx.buckets, owner)
			continue
		}
		filtered := newOwnerBucket()
		for _, m := range b.all {
			if m.Id.File == file {
				continue
			}
			filtered.all = append(filtered.all, m)
			switch {
			case m.ExprType != nil:
				filtered.byExprTy = append(filtered.byExprTy, m)
			case m.SyntaxKey != (syntax.SyntaxId{}):
				filtered.bySyntax[m.SyntaxKey] = append(filtered.bySyntax[m.SyntaxKey], m)
			case m.Name != "":
				filtered.byName[m.Name] = append(filtered.byName[m.Name], m)
			default:
				filtered.byInt[m.Int] = append(filtered.byInt[m.Int], m)
			}
		}
		idx.buckets[owner] = filtered
	}
}
