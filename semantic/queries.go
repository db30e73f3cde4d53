package semantic

import (
	"github.com/emmylua-ls/emmylua-core/check"
	"github.com/emmylua-ls/emmylua-core/ids"
	"github.com/emmylua-ls/emmylua-core/index"
	"github.com/emmylua-ls/emmylua-core/syntax"
	"github.com/emmylua-ls/emmylua-core/types"
)

// FindDeclaration resolves the identifier at pos to the declaration it
// names: a local/global variable for a NameExpr, or the owning member for
// the accessed name of an IndexExpr (spec §6 find_declaration).
func (m *Model) FindDeclaration(file syntax.FileId, pos syntax.Position) (ids.SemanticDeclId, bool) {
	fe, ok := m.fileEntry(file)
	if !ok {
		return ids.SemanticDeclId{}, false
	}
	n := fe.nodeAt(pos)
	switch e := n.(type) {
	case *syntax.NameExpr:
		if d, ok := m.Decls.FindVisibleDecl(file, e.Name, e.Range.Start); ok {
			return ids.OwnerFromDecl(d.Id), true
		}
		if d, ok := m.Decls.GetGlobalDecl(e.Name); ok {
			return ids.OwnerFromDecl(d.Id), true
		}
		return ids.SemanticDeclId{}, false
	case *syntax.IndexExpr:
		if e.Key != nil {
			return ids.SemanticDeclId{}, false
		}
		prefixType, err := m.InferExpr(file, e.Prefix)
		if err != nil {
			return ids.SemanticDeclId{}, false
		}
		owner, ok := memberOwnerOf(prefixType)
		if !ok {
			return ids.SemanticDeclId{}, false
		}
		ms := m.Members.ByName(owner, e.Name)
		if len(ms) == 0 {
			for _, sup := range m.supersOf(prefixType) {
				ms = m.Members.ByName(index.MemberOwner{Kind: index.MemberOwnerType, Type: sup}, e.Name)
				if len(ms) > 0 {
					break
				}
			}
		}
		if len(ms) == 0 {
			return ids.SemanticDeclId{}, false
		}
		return ids.OwnerFromMember(ms[0].Id), true
	default:
		return ids.SemanticDeclId{}, false
	}
}

// MembersOf enumerates every member visible on t: its own declared members
// plus every inherited one, most-derived declaration winning on a name
// collision (spec §6 members_of).
func (m *Model) MembersOf(t types.Type) []*index.Member {
	owner, ok := memberOwnerOf(t)
	if !ok {
		return nil
	}
	seen := make(map[string]bool)
	seenInt := make(map[int64]bool)
	var out []*index.Member
	collect := func(o index.MemberOwner) {
		for _, mm := range m.Members.All(o) {
			switch {
			case mm.Name != "":
				if seen[mm.Name] {
					continue
				}
				seen[mm.Name] = true
			case mm.ExprType == nil:
				if seenInt[mm.Int] {
					continue
				}
				seenInt[mm.Int] = true
			}
			out = append(out, mm)
		}
	}
	collect(owner)
	for _, sup := range m.supersOf(t) {
		collect(index.MemberOwner{Kind: index.MemberOwnerType, Type: sup})
	}
	return out
}

// TypeCheck reports whether value is assignable to source (spec §6
// type_check), delegating to the Checker's full check_type_compact
// algorithm.
func (m *Model) TypeCheck(source, value types.Type) (bool, *check.Failure) {
	return m.Checker.Check(source, value, check.NewGuard())
}

// IsReferenceTo reports whether the name expression at pos resolves to
// decl (spec §6 is_reference_to, backing "find references" queries).
func (m *Model) IsReferenceTo(file syntax.FileId, pos syntax.Position, decl ids.SemanticDeclId) bool {
	got, ok := m.FindDeclaration(file, pos)
	if !ok {
		return false
	}
	return got == decl
}
