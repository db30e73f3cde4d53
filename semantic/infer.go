package semantic

import (
	"fmt"

	"github.com/emmylua-ls/emmylua-core/flow"
	"github.com/emmylua-ls/emmylua-core/ids"
	"github.com/emmylua-ls/emmylua-core/index"
	"github.com/emmylua-ls/emmylua-core/syntax"
	"github.com/emmylua-ls/emmylua-core/types"
)

// InferExpr infers the type of expr within file, going through the
// three-state expression cache so a recursive occurrence (an expression
// whose own inference depends on itself, e.g. `local x = x`) sees Unknown
// instead of looping (spec §4.3 "computation in progress" state).
func (m *Model) InferExpr(file syntax.FileId, expr syntax.Expr) (types.Type, error) {
	id := expr.SyntaxId()
	s := m.slot(file, id)
	switch s.state {
	case computed:
		return s.typ, nil
	case inProgress:
		return types.Unknown, nil
	}
	m.setSlot(file, id, inProgress, types.Unknown)
	t, err := m.inferDispatch(file, expr)
	if err != nil {
		m.setSlot(file, id, notComputed, nil)
		return nil, err
	}
	m.setSlot(file, id, computed, t)
	return t, nil
}

func (m *Model) inferDispatch(file syntax.FileId, expr syntax.Expr) (types.Type, error) {
	switch e := expr.(type) {
	case *syntax.NilLiteral:
		return types.Nil, nil
	case *syntax.BoolLiteral:
		return types.BooleanConst{Value: e.Value}, nil
	case *syntax.NumberLiteral:
		if e.IsInt {
			return types.IntegerConst{Value: e.IntVal}, nil
		}
		return types.FloatConst{Value: e.FloatVal}, nil
	case *syntax.StringLiteral:
		return types.StringConst{Value: e.Value}, nil
	case *syntax.VarargExpr:
		return m.inferVararg(file, e)
	case *syntax.ParenExpr:
		return m.InferExpr(file, e.Inner)
	case *syntax.ClosureExpr:
		return types.Signature{Id: ids.SignatureId{File: file, Pos: e.Range.Start}}, nil
	case *syntax.TableExpr:
		return types.TableConst{File: file, Range: e.Range}, nil
	case *syntax.NameExpr:
		return m.inferName(file, e)
	case *syntax.IndexExpr:
		return m.inferIndex(file, e)
	case *syntax.CallExpr:
		return m.inferCall(file, e)
	case *syntax.BinaryExpr:
		return m.inferBinary(file, e)
	case *syntax.UnaryExpr:
		return m.inferUnary(file, e)
	default:
		return types.Unknown, nil
	}
}

func (m *Model) inferVararg(file syntax.FileId, e *syntax.VarargExpr) (types.Type, error) {
	fe, ok := m.fileEntry(file)
	if !ok {
		return types.Unknown, nil
	}
	c := fe.Parents.EnclosingClosure(e)
	if c == nil || !c.HasVararg {
		return types.Unknown, nil
	}
	return types.Variadic{Variadic: types.VariadicType{Shape: types.VariadicBase, Base: types.Unknown}}, nil
}

// inferName dispatches a NameExpr per spec §4.3: local via scope lookup,
// global via DeclIndex, "self" via the enclosing method's implicit
// receiver, then flow-chain narrowing on top of the declared type.
func (m *Model) inferName(file syntax.FileId, e *syntax.NameExpr) (types.Type, error) {
	fe, ok := m.fileEntry(file)
	if !ok {
		return types.Unknown, nil
	}
	var declId ids.DeclId
	var base types.Type
	if d, ok := m.Decls.FindVisibleDecl(file, e.Name, e.Range.Start); ok {
		// "self" in a colon-defined method is registered as an ordinary
		// implicit-param Decl by DeclAnalyzer, so it resolves here too.
		declId = d.Id
		base = declOrUnknown(d.Type)
	} else if d, ok := m.Decls.GetGlobalDecl(e.Name); ok {
		declId = d.Id
		base = declOrUnknown(d.Type)
	} else {
		return types.Unknown, nil
	}

	narrowed, err := m.narrow(file, fe, e, index.VarRefId{Decl: declId}, base)
	if err != nil {
		return base, nil
	}
	return narrowed, nil
}

func declOrUnknown(t types.Type) types.Type {
	if t == nil {
		return types.Unknown
	}
	return t
}

// narrow folds every flow assertion covering n's position against ref's
// chain in n's enclosing flow scope (spec §4.4 "apply each covering
// assertion in source order").
func (m *Model) narrow(file syntax.FileId, fe *fileEntry, n syntax.Node, ref index.VarRefId, base types.Type) (types.Type, error) {
	scope := fe.flowScopeOf(n)
	pos := n.NodeRange().Start
	assertions := m.Flows.AssertionsAt(scope, ref, pos)
	result := base
	for _, a := range assertions {
		t, err := flow.TightenType(a, m.inferFuncFor(file), m.nodeByIDFor(file), m.callAssertFor(file), result)
		if err != nil {
			continue
		}
		result = t
	}
	return result, nil
}

func (m *Model) inferFuncFor(file syntax.FileId) flow.InferFunc {
	return func(expr syntax.Expr) (types.Type, error) { return m.InferExpr(file, expr) }
}

func (m *Model) nodeByIDFor(file syntax.FileId) flow.NodeByIdFunc {
	return func(id syntax.SyntaxId) (syntax.Node, bool) {
		fe, ok := m.fileEntry(file)
		if !ok {
			return nil, false
		}
		n, ok := fe.NodeByID[id]
		return n, ok
	}
}

// callAssertFor implements the original's call_assertion helper: resolve
// the callee of the call identified by callID, confirm it is a
// user-defined type guard (a Signature whose return type is Boolean), and
// look up the per-parameter cast it installs (spec §4.4).
func (m *Model) callAssertFor(file syntax.FileId) flow.CallAssertFunc {
	return func(callID syntax.SyntaxId, paramIdx int) (flow.Assertion, error) {
		fe, ok := m.fileEntry(file)
		if !ok {
			return flow.Assertion{}, types.ErrInferNone
		}
		node, ok := fe.NodeByID[callID]
		if !ok {
			return flow.Assertion{}, types.ErrInferNone
		}
		call, ok := node.(*syntax.CallExpr)
		if !ok {
			return flow.Assertion{}, types.ErrInferNone
		}
		prefixType, err := m.InferExpr(file, call.Prefix)
		if err != nil {
			return flow.Assertion{}, types.ErrInferNone
		}
		sigType, ok := prefixType.(types.Signature)
		if !ok {
			return flow.Assertion{}, types.ErrInferNone
		}
		sig, ok := m.Signatures.Get(sigType.Id)
		if !ok || sig.Return == nil || sig.Return.Kind() != types.KBoolean {
			return flow.Assertion{}, types.ErrInferNone
		}
		casts, ok := m.Flows.GetCallCast(sigType.Id)
		if !ok {
			return flow.Assertion{}, types.ErrInferNone
		}
		paramName := "self"
		if paramIdx >= 0 && paramIdx < len(sig.Params) {
			paramName = sig.Params[paramIdx].Name
		}
		a, ok := casts[paramName]
		if !ok {
			return flow.Assertion{}, types.ErrInferNone
		}
		return a, nil
	}
}

// inferIndex dispatches an IndexExpr per spec §4.3: member lookup on the
// prefix's owner, walking the supertype chain, then `__index`, then
// TableGeneric value slots.
func (m *Model) inferIndex(file syntax.FileId, e *syntax.IndexExpr) (types.Type, error) {
	prefixType, err := m.InferExpr(file, e.Prefix)
	if err != nil {
		return types.Unknown, err
	}
	key, name, isName := m.indexKey(file, e)
	if isName {
		if t, ok := m.memberTypeByName(prefixType, name); ok {
			return t, nil
		}
	} else if key != nil {
		if owner, ok := memberOwnerOf(prefixType); ok {
			if ms := m.Members.ByExprType(owner, key); len(ms) > 0 {
				return unionMemberTypes(ms), nil
			}
			for _, sup := range m.supersOf(prefixType) {
				supOwner := index.MemberOwner{Kind: index.MemberOwnerType, Type: sup}
				if ms := m.Members.ByExprType(supOwner, key); len(ms) > 0 {
					return unionMemberTypes(ms), nil
				}
			}
		}
	}
	if tg, ok := prefixType.(types.TableGeneric); ok {
		if len(tg.Params) == 1 {
			return tg.Params[0], nil
		}
		if len(tg.Params) >= 2 {
			return tg.Params[1], nil
		}
	}
	return types.Unknown, nil
}

// memberTypeByName resolves a dot/colon access's type: own members, then
// each supertype in turn, then the `__index` metamethod's return type,
// then (for a structural Object) its declared field.
func (m *Model) memberTypeByName(owner types.Type, name string) (types.Type, bool) {
	if mo, ok := memberOwnerOf(owner); ok {
		if ms := m.Members.ByName(mo, name); len(ms) > 0 {
			return unionMemberTypes(ms), true
		}
		for _, sup := range m.supersOf(owner) {
			supOwner := index.MemberOwner{Kind: index.MemberOwnerType, Type: sup}
			if ms := m.Members.ByName(supOwner, name); len(ms) > 0 {
				return unionMemberTypes(ms), true
			}
		}
		if decl, ok := m.declOf(owner); ok {
			if ops := m.Operators.Get(decl, index.MetaIndex); len(ops) > 0 {
				return ops[0].Func.Return, true
			}
		}
	}
	if obj, ok := owner.(types.Object); ok {
		if t, ok := obj.Fields[types.ObjectKey{Kind: types.ObjectKeyName, Name: name}]; ok {
			return t, true
		}
	}
	return nil, false
}

func (m *Model) indexKey(file syntax.FileId, e *syntax.IndexExpr) (key types.Type, name string, isName bool) {
	if e.Key == nil {
		return nil, e.Name, true
	}
	kt, err := m.InferExpr(file, e.Key)
	if err != nil {
		return nil, "", false
	}
	switch v := kt.(type) {
	case types.StringConst:
		return nil, v.Value, true
	case types.DocStringConst:
		return nil, v.Value, true
	default:
		return kt, "", false
	}
}

func unionMemberTypes(ms []*index.Member) types.Type {
	result := ms[0].Type
	for _, mm := range ms[1:] {
		result = types.TypeOpsUnion(result, mm.Type)
	}
	return result
}

func memberOwnerOf(t types.Type) (index.MemberOwner, bool) {
	switch v := t.(type) {
	case types.Ref:
		return index.MemberOwner{Kind: index.MemberOwnerType, Type: v.Decl}, true
	case types.Def:
		return index.MemberOwner{Kind: index.MemberOwnerType, Type: v.Decl}, true
	case types.Generic:
		return index.MemberOwner{Kind: index.MemberOwnerType, Type: v.Base}, true
	case types.Instance:
		return memberOwnerOf(v.Base)
	case types.TableConst:
		return index.MemberOwner{Kind: index.MemberOwnerElement, File: v.File, Range: v.Range}, true
	default:
		return index.MemberOwner{}, false
	}
}

func (m *Model) declOf(t types.Type) (ids.TypeDeclId, bool) {
	switch v := t.(type) {
	case types.Ref:
		return v.Decl, true
	case types.Def:
		return v.Decl, true
	case types.Generic:
		return v.Base, true
	case types.Instance:
		return m.declOf(v.Base)
	default:
		return 0, false
	}
}

func (m *Model) supersOf(t types.Type) []ids.TypeDeclId {
	decl, ok := m.declOf(t)
	if !ok || m.Types == nil {
		return nil
	}
	return m.Types.AllSupers(decl)
}

func (m *Model) inferBinary(file syntax.FileId, e *syntax.BinaryExpr) (types.Type, error) {
	lt, err := m.InferExpr(file, e.Left)
	if err != nil {
		return types.Unknown, err
	}
	switch e.Op {
	case syntax.OpEq, syntax.OpNe, syntax.OpLt, syntax.OpLe, syntax.OpGt, syntax.OpGe,
		syntax.OpAnd, syntax.OpOr:
		if e.Op == syntax.OpAnd || e.Op == syntax.OpOr {
			rt, err := m.InferExpr(file, e.Right)
			if err != nil {
				return types.Unknown, err
			}
			return types.TypeOpsUnion(lt, rt), nil
		}
		return types.Boolean, nil
	case syntax.OpConcat:
		return types.String, nil
	case syntax.OpIDiv:
		if !m.Runtime.SupportsIntegerDivision() {
			return types.Unknown, fmt.Errorf("semantic: %q not a built-in operator for runtime %q", "//", m.Runtime.Version)
		}
		return m.inferArithmetic(file, lt, e.Right)
	case syntax.OpBAnd, syntax.OpBOr, syntax.OpBXor, syntax.OpShl, syntax.OpShr:
		if !m.Runtime.SupportsBitwiseOperators() {
			return types.Unknown, fmt.Errorf("semantic: bitwise operators are not built-in for runtime %q", m.Runtime.Version)
		}
		return types.Integer, nil
	default:
		if decl, ok := m.declOf(lt); ok {
			if ops := m.Operators.Get(decl, metaFor(e.Op)); len(ops) > 0 {
				return ops[0].Func.Return, nil
			}
		}
		return m.inferArithmetic(file, lt, e.Right)
	}
}

// inferArithmetic is the Integer/Float-widening result of an arithmetic
// operator once any class `---@operator` overload has already been ruled
// out: integer stays integer unless the other operand is a float.
func (m *Model) inferArithmetic(file syntax.FileId, lt types.Type, right syntax.Expr) (types.Type, error) {
	if lt.Kind() == types.KInteger || lt.Kind() == types.KIntegerConst {
		rt, _ := m.InferExpr(file, right)
		if rt != nil && (rt.Kind() == types.KFloat || rt.Kind() == types.KFloatConst) {
			return types.Float, nil
		}
		return types.Integer, nil
	}
	return types.Number, nil
}

func metaFor(op syntax.BinOp) index.MetaMethod {
	switch op {
	case syntax.OpAdd:
		return index.MetaAdd
	case syntax.OpSub:
		return index.MetaSub
	case syntax.OpMul:
		return index.MetaMul
	case syntax.OpDiv:
		return index.MetaDiv
	case syntax.OpMod:
		return index.MetaMod
	case syntax.OpPow:
		return index.MetaPow
	case syntax.OpConcat:
		return index.MetaConcat
	default:
		return ""
	}
}

func (m *Model) inferUnary(file syntax.FileId, e *syntax.UnaryExpr) (types.Type, error) {
	switch e.Op {
	case syntax.UnNot:
		return types.Boolean, nil
	case syntax.UnLen:
		return types.Integer, nil
	case syntax.UnNeg:
		ot, err := m.InferExpr(file, e.Operand)
		if err != nil {
			return types.Unknown, err
		}
		return ot, nil
	default:
		return types.Unknown, nil
	}
}
