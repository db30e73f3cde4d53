package semantic

import (
	"github.com/emmylua-ls/emmylua-core/check"
	"github.com/emmylua-ls/emmylua-core/ids"
	"github.com/emmylua-ls/emmylua-core/index"
	"github.com/emmylua-ls/emmylua-core/syntax"
	"github.com/emmylua-ls/emmylua-core/types"
)

// inferCall resolves a CallExpr's result type: infer its callable shape via
// InferCallExprFunc, bind any generic template parameters from the
// argument types, and instantiate the return type (spec §4.3 CallExpr
// dispatch).
func (m *Model) inferCall(file syntax.FileId, e *syntax.CallExpr) (types.Type, error) {
	fn, err := m.InferCallExprFunc(file, e)
	if err != nil {
		return types.Unknown, nil
	}
	args := make([]types.Type, 0, len(e.Args))
	for _, a := range e.Args {
		t, err := m.InferExpr(file, a)
		if err != nil || t == nil {
			t = types.Unknown
		}
		args = append(args, t)
	}
	subst := types.NewSubstitutor()
	n := len(fn.Params)
	if len(args) < n {
		n = len(args)
	}
	for i := 0; i < n; i++ {
		if fn.Params[i].Type != nil {
			types.TplPatternMatch(fn.Params[i].Type, args[i], subst)
		}
	}
	ret := fn.Return
	if ret == nil {
		ret = types.Nil
	}
	return types.Instantiate(ret, subst), nil
}

// InferCallExprFunc resolves the FunctionType actually invoked by a call
// expression (spec §4.3 infer_call_expr_func): DocFunction is itself;
// Signature resolves through its overloads (check.ResolveSignature);
// Def/Ref/Generic follow an alias chain or the `__call` metamethod.
func (m *Model) InferCallExprFunc(file syntax.FileId, e *syntax.CallExpr) (types.FunctionType, error) {
	var calleeType types.Type
	var err error
	if e.IsMethod {
		objType, ierr := m.InferExpr(file, e.Prefix)
		if ierr != nil {
			return types.FunctionType{}, ierr
		}
		t, ok := m.memberTypeByName(objType, e.MethodName)
		if !ok {
			return types.FunctionType{}, types.ErrInferUnresolvedMember
		}
		calleeType = t
	} else {
		calleeType, err = m.InferExpr(file, e.Prefix)
		if err != nil {
			return types.FunctionType{}, err
		}
	}
	args := make([]types.Type, 0, len(e.Args))
	for _, a := range e.Args {
		t, _ := m.InferExpr(file, a)
		if t == nil {
			t = types.Unknown
		}
		args = append(args, t)
	}
	return m.resolveCallable(calleeType, args, e.IsMethod, 0)
}

// resolveCallable dispatches on the callee's shape, following alias chains
// up to a small depth to guard against self-referential `---@alias`
// cycles (spec §4.2 recursion guarding applied to call resolution).
func (m *Model) resolveCallable(t types.Type, args []types.Type, isColonCall bool, depth int) (types.FunctionType, error) {
	if depth > check.MaxRecursionDepth {
		return types.FunctionType{}, types.ErrInferRecursive
	}
	switch v := t.(type) {
	case types.DocFunction:
		return v.Func, nil
	case types.Signature:
		sig, ok := m.Signatures.Get(v.Id)
		if !ok {
			return types.FunctionType{}, types.ErrInferUnresolvedSignature
		}
		base := types.FunctionType{Params: sig.Params, Return: sig.Return, IsColonDef: sig.IsColonDefine, IsVariadic: sig.IsVariadic}
		if len(sig.Overloads) == 0 {
			return base, nil
		}
		candidates := make([]check.Candidate, 0, len(sig.Overloads)+1)
		for i, ov := range sig.Overloads {
			candidates = append(candidates, check.Candidate{Func: ov, DeclOrder: i})
		}
		candidates = append(candidates, check.Candidate{Func: base, DeclOrder: len(sig.Overloads)})
		best, _ := m.Checker.ResolveSignature(candidates, args, isColonCall)
		return best.Func, nil
	case types.Ref:
		return m.resolveNominalCallable(v.Decl, args, isColonCall, depth)
	case types.Def:
		return m.resolveNominalCallable(v.Decl, args, isColonCall, depth)
	case types.Generic:
		return m.resolveNominalCallable(v.Base, args, isColonCall, depth)
	default:
		return types.FunctionType{}, types.ErrInferNone
	}
}

// resolveNominalCallable handles calling a class/enum/alias value directly:
// a `__call` metamethod takes precedence, otherwise an alias is followed to
// its origin type (spec §4.2 alias-call table entry "Index" degrades to
// following the aliased shape when no explicit operator is declared).
func (m *Model) resolveNominalCallable(decl ids.TypeDeclId, args []types.Type, isColonCall bool, depth int) (types.FunctionType, error) {
	if ops := m.Operators.Get(decl, index.MetaCall); len(ops) > 0 {
		if len(ops) == 1 || m.Checker == nil {
			return ops[0].Func, nil
		}
		candidates := make([]check.Candidate, 0, len(ops))
		for i, op := range ops {
			candidates = append(candidates, check.Candidate{Func: op.Func, DeclOrder: i})
		}
		best, _ := m.Checker.ResolveSignature(candidates, args, isColonCall)
		return best.Func, nil
	}
	d, ok := m.Types.Get(decl)
	if !ok || d.Kind != index.TypeDeclAlias || d.AliasOrigin == nil {
		return types.FunctionType{}, types.ErrInferNone
	}
	return m.resolveCallable(d.AliasOrigin, args, isColonCall, depth+1)
}
