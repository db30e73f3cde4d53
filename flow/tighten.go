package flow

import (
	"github.com/emmylua-ls/emmylua-core/syntax"
	"github.com/emmylua-ls/emmylua-core/types"
)

// InferFunc infers the type of a syntax expression, the same contract as
// semantic.Model.InferExpr but expressed as a plain function so this
// package never imports semantic (which imports flow).
type InferFunc func(expr syntax.Expr) (types.Type, error)

// CallAssertFunc resolves the TypeAssertion a user-defined type guard
// installs for the given call expression's argument at paramIdx (-1 means
// the method's "self" receiver), the Go shape of the original's
// call_assertion helper. Returns types.ErrInferNone when the callee isn't
// a recognized type guard.
type CallAssertFunc func(callExprId syntax.SyntaxId, paramIdx int) (Assertion, error)

// NodeByIdFunc resolves a SyntaxId back to its node within the file being
// tightened, used to recover the expression a Reassign/Call assertion
// refers to.
type NodeByIdFunc func(id syntax.SyntaxId) (syntax.Node, bool)

// TightenType applies assertion to source, returning the narrowed type at
// the use site (spec §4.4 tighten_type; ported from
// db_index/flow/type_assert.rs::tighten_type).
func TightenType(a Assertion, infer InferFunc, nodeByID NodeByIdFunc, callAssert CallAssertFunc, source types.Type) (types.Type, error) {
	switch a.Kind {
	case KindExist:
		return types.RemoveNilOrFalse(source), nil
	case KindNotExist:
		return types.NarrowFalseOrNil(source), nil
	case KindNarrow:
		return types.TypeOpsNarrow(source, a.Type), nil
	case KindAdd:
		return types.TypeOpsUnion(source, a.Type), nil
	case KindRemove:
		return types.TypeOpsRemove(source, a.Type), nil
	case KindForce:
		return a.Type, nil
	case KindReassign:
		node, ok := nodeByID(a.ExprId)
		if !ok {
			return source, types.ErrInferNone
		}
		expr, ok := node.(syntax.Expr)
		if !ok {
			return source, types.ErrInferNone
		}
		exprType, err := infer(expr)
		if err != nil {
			return source, err
		}
		if v, ok := exprType.(types.Variadic); ok {
			exprType = v.Variadic.Get(a.ParamIdx)
		}
		return types.TypeOpsNarrow(source, exprType), nil
	case KindAnd:
		if len(a.List) == 0 {
			return source, nil
		}
		result, err := TightenType(a.List[0], infer, nodeByID, callAssert, source)
		if err != nil {
			return source, err
		}
		for _, next := range a.List[1:] {
			t, err := TightenType(next, infer, nodeByID, callAssert, source)
			if err != nil {
				return source, err
			}
			result = types.TypeOpsAnd(result, t)
			if types.IsNil(result) {
				return types.Nil, nil
			}
		}
		return result, nil
	case KindOr:
		var results []types.Type
		for _, next := range a.List {
			if t, err := TightenType(next, infer, nodeByID, callAssert, source); err == nil {
				results = append(results, t)
			}
		}
		if len(results) == 0 {
			return source, nil
		}
		result := results[0]
		for _, t := range results[1:] {
			result = types.TypeOpsUnion(result, t)
		}
		return result, nil
	case KindCall:
		assert, err := callAssert(a.ExprId, a.ParamIdx)
		if err == types.ErrInferNone {
			return source, nil
		}
		if err != nil {
			return source, err
		}
		return TightenType(assert, infer, nodeByID, callAssert, source)
	case KindNeCall:
		assert, err := callAssert(a.ExprId, a.ParamIdx)
		if err == types.ErrInferNone {
			return source, nil
		}
		if err != nil {
			return source, err
		}
		neg, ok := assert.GetNegation()
		if !ok {
			return source, types.ErrInferNone
		}
		return TightenType(neg, infer, nodeByID, callAssert, source)
	default:
		return source, nil
	}
}
