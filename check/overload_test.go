package check

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/emmylua-ls/emmylua-core/index"
	"github.com/emmylua-ls/emmylua-core/types"
)

func newTestChecker() *Checker {
	ti := index.NewTypeIndex()
	mi := index.NewMemberIndex()
	c := NewChecker(ti, mi)
	c.Wire()
	return c
}

// TestResolveSignatureOverloadByLiteral is spec scenario S3: two overloads
// distinguished only by a string-literal parameter type must resolve by
// which literal the call-site argument actually matches.
func TestResolveSignatureOverloadByLiteral(t *testing.T) {
	c := newTestChecker()
	overloadA := Candidate{
		DeclOrder: 0,
		Func: types.FunctionType{
			Params: []types.Param{{Name: "k", Type: types.StringConst{Value: "A"}}},
			Return: types.Number,
		},
	}
	overloadB := Candidate{
		DeclOrder: 1,
		Func: types.FunctionType{
			Params: []types.Param{{Name: "k", Type: types.StringConst{Value: "B"}}},
			Return: types.String,
		},
	}

	best, idx := c.ResolveSignature([]Candidate{overloadA, overloadB}, []types.Type{types.StringConst{Value: "B"}}, false)
	assert.Equal(t, 1, idx)
	assert.Equal(t, types.String, best.Func.Return)
}

// TestResolveSignatureFallsBackToLastOverloadWhenNoCandidateScores covers
// spec.md §9's explicit decision: when no candidate scores positively
// (e.g. every candidate's arity and argument types both mismatch), the
// *last* declared overload wins, not the first.
func TestResolveSignatureFallsBackToLastOverloadWhenNoCandidateScores(t *testing.T) {
	c := newTestChecker()
	mismatchFirst := Candidate{
		DeclOrder: 0,
		Func: types.FunctionType{
			Params: []types.Param{{Name: "a", Type: types.Number}, {Name: "b", Type: types.Number}},
			Return: types.Boolean,
		},
	}
	mismatchLast := Candidate{
		DeclOrder: 1,
		Func: types.FunctionType{
			Params: []types.Param{{Name: "a", Type: types.Number}, {Name: "b", Type: types.Number}, {Name: "c", Type: types.Number}},
			Return: types.String,
		},
	}

	// A single string argument matches neither candidate's arity, the
	// first positional parameter (number) is incompatible with it, and
	// isColonCall=true mismatches both candidates' non-colon IsColonDef,
	// so every candidate scores exactly 0.
	best, idx := c.ResolveSignature([]Candidate{mismatchFirst, mismatchLast}, []types.Type{types.StringConst{Value: "x"}}, true)
	assert.Equal(t, 1, idx, "last declared overload should win when nothing scores positively")
	assert.Equal(t, types.String, best.Func.Return)
}

// TestResolveSignaturePrefersExactArity exercises the +50000 exact-arity
// bonus (§4.2/§9's "a zero-arg call should prefer a zero-arg overload over
// a variadic one").
func TestResolveSignaturePrefersExactArity(t *testing.T) {
	c := newTestChecker()
	zeroArg := Candidate{
		DeclOrder: 0,
		Func:      types.FunctionType{Return: types.Nil},
	}
	variadic := Candidate{
		DeclOrder: 1,
		Func: types.FunctionType{
			IsVariadic: true,
			Params:     []types.Param{{Name: "a", Type: types.Number}},
			Return:     types.Number,
		},
	}

	_, idx := c.ResolveSignature([]Candidate{zeroArg, variadic}, nil, false)
	assert.Equal(t, 0, idx)
}

func TestResolveSignatureNoCandidates(t *testing.T) {
	c := newTestChecker()
	_, idx := c.ResolveSignature(nil, nil, false)
	assert.Equal(t, -1, idx)
}
