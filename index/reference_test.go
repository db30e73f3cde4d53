package index

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/emmylua-ls/emmylua-core/ids"
	"github.com/emmylua-ls/emmylua-core/syntax"
)

// TestReferenceIndexLookupsAndRemoval covers spec §8's removal-completeness
// property directly on ReferenceIndex: after RemoveFile, no entry survives
// from that file, and ReferencesToDecl/ReferencesToMember only return
// references actually resolved to the id asked for.
func TestReferenceIndexLookupsAndRemoval(t *testing.T) {
	idx := NewReferenceIndex()

	decl := ids.DeclId{File: "a.lua", Pos: 1}
	member := ids.MemberId{File: "a.lua", Id: syntax.SyntaxId{Kind: syntax.KindNameExpr, Range: syntax.Range{Start: 10, End: 11}}}
	otherDecl := ids.DeclId{File: "a.lua", Pos: 20}

	idx.SetFile("a.lua", []Reference{
		{Id: syntax.SyntaxId{Kind: syntax.KindNameExpr, Range: syntax.Range{Start: 1, End: 2}}, Kind: RefLocal, Name: "x", Decl: &decl},
		{Id: syntax.SyntaxId{Kind: syntax.KindNameExpr, Range: syntax.Range{Start: 20, End: 21}}, Kind: RefGlobal, Name: "G", Decl: &otherDecl},
		{Id: syntax.SyntaxId{Kind: syntax.KindNameExpr, Range: syntax.Range{Start: 30, End: 31}}, Kind: RefMember, Name: "f", Member: &member},
		{Id: syntax.SyntaxId{Kind: syntax.KindStringLiteral, Range: syntax.Range{Start: 40, End: 47}}, Kind: RefString, Name: "mymod"},
	})
	idx.SetFile("b.lua", []Reference{
		{Id: syntax.SyntaxId{Kind: syntax.KindNameExpr, Range: syntax.Range{Start: 1, End: 2}}, Kind: RefLocal, Name: "y", Decl: &decl},
	})

	assert.Len(t, idx.ForFile("a.lua"), 4)
	assert.Len(t, idx.ReferencesToDecl(decl), 2, "decl is referenced from both a.lua and b.lua")
	assert.Len(t, idx.ReferencesToDecl(otherDecl), 1)
	assert.Len(t, idx.ReferencesToMember(member), 1)

	idx.RemoveFile("a.lua")
	assert.Empty(t, idx.ForFile("a.lua"), "no reference list should survive for a removed file")
	assert.Len(t, idx.ReferencesToDecl(decl), 1, "only b.lua's reference to decl should remain")
	assert.Empty(t, idx.ReferencesToMember(member), "a.lua's only member reference must be gone after removal")
	assert.Len(t, idx.ForFile("b.lua"), 1, "an untouched file's references must be unaffected")
}
