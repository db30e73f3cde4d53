// Package ids defines the entity identifiers shared across every index and
// the interner that backs TypeDeclId (spec §3, §9: "the type-name interner
// is process-wide and append-only; it is safe to share because ids are
// values, not pointers").
package ids

import (
	"fmt"

	"github.com/emmylua-ls/emmylua-core/syntax"
)

// DeclId addresses the defining name token of a local or global
// declaration: (FileId, Position of the start of the name).
type DeclId struct {
	File syntax.FileId
	Pos  syntax.Position
}

func (d DeclId) String() string { return fmt.Sprintf("decl:%s:%d", d.File, d.Pos) }

// MemberId addresses the field-defining node of a member: a table field, an
// `@field` tag, or an index-expression LHS.
type MemberId struct {
	File syntax.FileId
	Id   syntax.SyntaxId
}

func (m MemberId) String() string { return fmt.Sprintf("member:%s:%s", m.File, m.Id) }

// TypeDeclId is the interned fully-qualified dotted name of a user-defined
// type (class/enum/alias). Never renamed once interned (spec invariant 2).
type TypeDeclId uint64

// SignatureId addresses a closure expression: (FileId, Position of the
// closure's start).
type SignatureId struct {
	File syntax.FileId
	Pos  syntax.Position
}

func (s SignatureId) String() string { return fmt.Sprintf("sig:%s:%d", s.File, s.Pos) }

// PropertyOwnerKind tags which alternative of PropertyOwnerId is active.
type PropertyOwnerKind uint8

const (
	OwnerDecl PropertyOwnerKind = iota
	OwnerMember
	OwnerTypeDecl
	OwnerSignature
)

// PropertyOwnerId is a tagged union over DeclId | MemberId | TypeDeclId |
// SignatureId, used to attach doc-derived metadata (spec §3).
type PropertyOwnerId struct {
	Kind      PropertyOwnerKind
	Decl      DeclId
	Member    MemberId
	TypeDecl  TypeDeclId
	Signature SignatureId
}

func OwnerFromDecl(d DeclId) PropertyOwnerId      { return PropertyOwnerId{Kind: OwnerDecl, Decl: d} }
func OwnerFromMember(m MemberId) PropertyOwnerId   { return PropertyOwnerId{Kind: OwnerMember, Member: m} }
func OwnerFromTypeDecl(t TypeDeclId) PropertyOwnerId {
	return PropertyOwnerId{Kind: OwnerTypeDecl, TypeDecl: t}
}
func OwnerFromSignature(s SignatureId) PropertyOwnerId {
	return PropertyOwnerId{Kind: OwnerSignature, Signature: s}
}

func (p PropertyOwnerId) String() string {
	switch p.Kind {
	case OwnerDecl:
		return p.Decl.String()
	case OwnerMember:
		return p.Member.String()
	case OwnerTypeDecl:
		return fmt.Sprintf("type:%d", p.TypeDecl)
	case OwnerSignature:
		return p.Signature.String()
	default:
		return "owner:invalid"
	}
}

// SemanticDeclId has the identical shape to PropertyOwnerId; it is used
// when a query answer identifies a definition rather than attaches
// metadata. Kept as a distinct type so call sites document intent.
type SemanticDeclId = PropertyOwnerId
