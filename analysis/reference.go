package analysis

import (
	"github.com/emmylua-ls/emmylua-core/config"
	"github.com/emmylua-ls/emmylua-core/index"
	"github.com/emmylua-ls/emmylua-core/semantic"
	"github.com/emmylua-ls/emmylua-core/syntax"
)

// ReferenceAnalyzer records every name, member, and require-string use site
// into ReferenceIndex so the engine's references_of/is_reference_to queries
// (spec §4 SemanticModel.is_reference_to) have something to answer from. It
// is an auxiliary pass over the model the other phases have already
// resolved, not one of the five ordered analysis phases (spec §4.1) — the
// same relationship diagnostic.Run has to the model (read-only, downstream,
// re-run wholesale whenever the file it covers changes).
//
// Name lookups are done directly against Decls (FindVisibleDecl then
// GetGlobalDecl) rather than through semantic.Model.FindDeclaration, mirroring
// that query's own NameExpr branch (semantic/queries.go) instead of calling
// through it, since FindDeclaration's SemanticDeclId return would have to be
// unwrapped right back into a Decl/Member pointer here anyway. Member lookups
// reuse the package's own memberOwnerFor (lua.go), the same helper
// LuaAnalyzer's member-definition paths use.
type ReferenceAnalyzer struct {
	Model   *semantic.Model
	Decls   *index.DeclIndex
	Members *index.MemberIndex
	Types   *index.TypeIndex
	Runtime config.Runtime
}

// Run walks f and installs its reference list, replacing whatever was
// recorded for f on a prior analysis of the same file.
func (a *ReferenceAnalyzer) Run(f *syntax.File) {
	var refs []index.Reference
	syntax.Walk(f, func(parent syntax.Node, n syntax.Node) bool {
		switch e := n.(type) {
		case *syntax.NameExpr:
			refs = append(refs, a.nameRef(f.Id, e)...)
		case *syntax.IndexExpr:
			if e.Key == nil {
				refs = append(refs, a.memberRef(f.Id, e)...)
			}
		case *syntax.CallExpr:
			refs = append(refs, a.requireRef(e)...)
		}
		return true
	})
	a.Model.References.SetFile(f.Id, refs)
}

func (a *ReferenceAnalyzer) nameRef(file syntax.FileId, e *syntax.NameExpr) []index.Reference {
	if d, ok := a.Decls.FindVisibleDecl(file, e.Name, e.Range.Start); ok {
		id := d.Id
		return []index.Reference{{Id: e.SyntaxId(), Kind: index.RefLocal, Name: e.Name, Decl: &id}}
	}
	if d, ok := a.Decls.GetGlobalDecl(e.Name); ok {
		id := d.Id
		return []index.Reference{{Id: e.SyntaxId(), Kind: index.RefGlobal, Name: e.Name, Decl: &id}}
	}
	return nil
}

func (a *ReferenceAnalyzer) memberRef(file syntax.FileId, e *syntax.IndexExpr) []index.Reference {
	prefixType, err := a.Model.InferExpr(file, e.Prefix)
	if err != nil || prefixType == nil {
		return nil
	}
	owner, ok := memberOwnerFor(prefixType)
	if !ok {
		return nil
	}
	ms := a.Members.ByName(owner, e.Name)
	if len(ms) == 0 && owner.Kind == index.MemberOwnerType {
		for _, sup := range a.Types.AllSupers(owner.Type) {
			ms = a.Members.ByName(index.MemberOwner{Kind: index.MemberOwnerType, Type: sup}, e.Name)
			if len(ms) > 0 {
				break
			}
		}
	}
	if len(ms) == 0 {
		return nil
	}
	id := ms[0].Id
	return []index.Reference{{Id: e.SyntaxId(), Kind: index.RefMember, Name: e.Name, Member: &id}}
}

// requireRef records the module-path string literal of a require-like call
// (spec §6 `runtime.requireLikeFunction`) as a RefString, the raw material
// find-all-references needs to answer "who requires this module".
func (a *ReferenceAnalyzer) requireRef(e *syntax.CallExpr) []index.Reference {
	ne, ok := e.Prefix.(*syntax.NameExpr)
	if !ok || !a.Runtime.IsRequireLike(ne.Name) || len(e.Args) == 0 {
		return nil
	}
	s, ok := e.Args[0].(*syntax.StringLiteral)
	if !ok {
		return nil
	}
	return []index.Reference{{Id: s.SyntaxId(), Kind: index.RefString, Name: s.Value}}
}
