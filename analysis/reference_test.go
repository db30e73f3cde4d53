package analysis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emmylua-ls/emmylua-core/index"
	"github.com/emmylua-ls/emmylua-core/syntax"
)

// buildReferenceFixture assembles, by hand, the equivalent of:
//
//	local x = 1
//	print(x)
//	G = 1
//	print(G)
//	local m = require("mymod")
func buildReferenceFixture(t *testing.T) *syntax.File {
	t.Helper()
	b := syntax.NewBuilder(syntax.FileId("fixture.lua"))

	one := b.Int(1)
	localX := b.Local(nil, []syntax.Expr{one}, "x")

	printX := b.CallStat(b.Call(b.Name("print"), b.Name("x")))

	two := b.Int(1)
	assignG := b.Assign([]syntax.Expr{b.Name("G")}, []syntax.Expr{two})

	printG := b.CallStat(b.Call(b.Name("print"), b.Name("G")))

	requireCall := b.Call(b.Name("require"), b.String("mymod"))
	localM := b.Local(nil, []syntax.Expr{requireCall}, "m")

	blk := b.Block(localX, printX, assignG, printG, localM)
	blk = b.CloseBlock(blk)
	return b.File(blk)
}

func TestReferenceAnalyzerRecordsLocalGlobalAndRequireRefs(t *testing.T) {
	p := NewPipeline()
	f := buildReferenceFixture(t)

	require.NoError(t, p.Analyze(context.Background(), []*syntax.File{f}))

	refs := p.References.ForFile(f.Id)
	require.NotEmpty(t, refs)

	var sawLocalX, sawGlobalG, sawRequireString bool
	for _, r := range refs {
		switch {
		case r.Kind == index.RefLocal && r.Name == "x":
			sawLocalX = true
			require.NotNil(t, r.Decl)
		case r.Kind == index.RefGlobal && r.Name == "G":
			sawGlobalG = true
			require.NotNil(t, r.Decl)
		case r.Kind == index.RefString && r.Name == "mymod":
			sawRequireString = true
		}
	}

	assert.True(t, sawLocalX, "expected a RefLocal reference to x")
	assert.True(t, sawGlobalG, "expected a RefGlobal reference to G")
	assert.True(t, sawRequireString, "expected a RefString reference to the require() argument")
}

func TestReferenceAnalyzerSkipsUnresolvedNames(t *testing.T) {
	p := NewPipeline()
	f := buildReferenceFixture(t)

	require.NoError(t, p.Analyze(context.Background(), []*syntax.File{f}))

	refs := p.References.ForFile(f.Id)
	for _, r := range refs {
		assert.NotEqual(t, "print", r.Name, "print is never declared in this fixture and should not resolve")
	}
}
