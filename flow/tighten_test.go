package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/emmylua-ls/emmylua-core/syntax"
	"github.com/emmylua-ls/emmylua-core/types"
)

func noNode(id syntax.SyntaxId) (syntax.Node, bool) { return nil, false }

func noInfer(expr syntax.Expr) (types.Type, error) { return nil, types.ErrInferNone }

func noCallAssert(id syntax.SyntaxId, paramIdx int) (Assertion, error) {
	return Assertion{}, types.ErrInferNone
}

// TestTightenTypeAndShortCircuitsToNil covers the supplemented
// TypeAssertion::And behavior: folding stops at Nil the moment two
// intermediate narrowings share no member, exactly as db_index's
// tighten_type does for a conjunction of incompatible narrowings.
func TestTightenTypeAndShortCircuitsToNil(t *testing.T) {
	conj := Narrow(types.Number).And(Narrow(types.String))
	got, err := TightenType(conj, noInfer, noNode, noCallAssert, types.Unknown)
	assert.NoError(t, err)
	assert.True(t, types.IsNil(got), "And of two disjoint narrowings must short-circuit to Nil")
}

// TestTightenTypeOrDropsFailingBranches covers the supplemented
// TypeAssertion::Or behavior: a branch that fails to tighten (here, a
// Reassign whose expression node can't be found) is silently dropped, and
// the result is whatever the surviving branches produce rather than an
// error.
func TestTightenTypeOrDropsFailingBranches(t *testing.T) {
	failing := Reassign(syntax.SyntaxId{Kind: syntax.KindNameExpr}, 0)
	disj := failing.Or(Narrow(types.Number))

	got, err := TightenType(disj, noInfer, noNode, noCallAssert, types.Unknown)
	assert.NoError(t, err)
	assert.True(t, types.Equal(got, types.Number), "Or must union only the branches that succeeded")
}

// TestTightenTypeOrAllBranchesFailReturnsSourceUnchanged covers the case
// where every branch of an Or fails to tighten: the original source type
// is returned unchanged rather than Nil or an error.
func TestTightenTypeOrAllBranchesFailReturnsSourceUnchanged(t *testing.T) {
	failing := Reassign(syntax.SyntaxId{Kind: syntax.KindNameExpr}, 0)
	disj := failing.Or(failing)

	got, err := TightenType(disj, noInfer, noNode, noCallAssert, types.String)
	assert.NoError(t, err)
	assert.True(t, types.Equal(got, types.String))
}

// TestAssertionGetNegationFlipsCallKinds covers the supplemented
// TypeAssertion::get_negation behavior used by the false-branch
// installer: Call/NeCall and Exist/NotExist flip, and negating an And
// pointwise negates each member into an Or.
func TestAssertionGetNegationFlipsCallKinds(t *testing.T) {
	id := syntax.SyntaxId{Kind: syntax.KindCallExpr}

	neg, ok := Call(id, 1).GetNegation()
	assert.True(t, ok)
	assert.Equal(t, KindNeCall, neg.Kind)
	assert.Equal(t, 1, neg.ParamIdx)

	neg, ok = Exist().GetNegation()
	assert.True(t, ok)
	assert.Equal(t, KindNotExist, neg.Kind)

	conj := Narrow(types.Number).And(Exist())
	neg, ok = conj.GetNegation()
	assert.True(t, ok)
	assert.True(t, neg.IsOr())
	assert.Len(t, neg.List, 2)
}
