package engine

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emmylua-ls/emmylua-core/ids"
	"github.com/emmylua-ls/emmylua-core/syntax"
)

// buildLocalPrintFile builds the equivalent of:
//
//	local x = 1
//	print(x)
func buildLocalPrintFile(id syntax.FileId) *syntax.File {
	b := syntax.NewBuilder(id)
	localX := b.Local(nil, []syntax.Expr{b.Int(1)}, "x")
	xRef := b.Name("x")
	printX := b.CallStat(b.Call(b.Name("print"), xRef))
	blk := b.CloseBlock(b.Block(localX, printX))
	return b.File(blk)
}

func TestUpdateFilesTracksWorkspaceAndReportsAffected(t *testing.T) {
	e := New(nil, zerolog.Nop())
	f := buildLocalPrintFile("main.lua")

	affected, err := e.UpdateFiles(context.Background(), []*syntax.File{f}, nil)
	require.NoError(t, err)
	assert.Contains(t, affected, f.Id)

	diags, err := e.Diagnostics(f.Id)
	require.NoError(t, err)
	assert.NotNil(t, diags) // may be empty, but the file must be known

	affected, err = e.UpdateFiles(context.Background(), nil, []syntax.FileId{f.Id})
	require.NoError(t, err)
	assert.Contains(t, affected, f.Id)

	_, err = e.Diagnostics(f.Id)
	assert.Error(t, err, "a removed file should no longer answer queries")
}

func TestUpdateFilesPropagatesToRequirers(t *testing.T) {
	e := New(nil, zerolog.Nop())

	bA := syntax.NewBuilder(syntax.FileId("mymod.lua"))
	retA := bA.Return(bA.Int(1))
	fileA := bA.File(bA.CloseBlock(bA.Block(retA)))

	bB := syntax.NewBuilder(syntax.FileId("main.lua"))
	requireCall := bB.Call(bB.Name("require"), bB.String("mymod"))
	localM := bB.Local(nil, []syntax.Expr{requireCall}, "m")
	fileB := bB.File(bB.CloseBlock(bB.Block(localM)))

	_, err := e.UpdateFiles(context.Background(), []*syntax.File{fileA, fileB}, nil)
	require.NoError(t, err)

	affected, err := e.UpdateFiles(context.Background(), []*syntax.File{fileA}, nil)
	require.NoError(t, err)
	assert.Contains(t, affected, fileA.Id)
	assert.Contains(t, affected, fileB.Id, "main.lua requires mymod and must be reported as affected")
}

func TestFindDeclarationAndReferencesOfRoundTrip(t *testing.T) {
	e := New(nil, zerolog.Nop())
	f := buildLocalPrintFile("main.lua")

	_, err := e.UpdateFiles(context.Background(), []*syntax.File{f}, nil)
	require.NoError(t, err)

	// The print(x) call's argument NameExpr is the last leaf built; its
	// range start is where FindDeclaration should resolve x's local decl.
	xRefPos := findNameRefPos(t, f, "x")

	decl, ok := e.FindDeclaration(f.Id, xRefPos)
	require.True(t, ok)
	assert.Equal(t, ids.OwnerDecl, decl.Kind)

	refs := e.ReferencesOf(decl)
	assert.NotEmpty(t, refs)
}

func findNameRefPos(t *testing.T, f *syntax.File, name string) syntax.Position {
	t.Helper()
	var pos syntax.Position
	found := false
	syntax.Walk(f, func(parent syntax.Node, n syntax.Node) bool {
		if ne, ok := n.(*syntax.NameExpr); ok && ne.Name == name {
			// the read inside print(x), not the local declaration itself
			if _, isCall := parent.(*syntax.CallExpr); isCall {
				pos = ne.NodeRange().Start
				found = true
			}
		}
		return true
	})
	require.True(t, found, "expected a NameExpr read of %q inside a call", name)
	return pos
}
