package check

import (
	"github.com/emmylua-ls/emmylua-core/ids"
	"github.com/emmylua-ls/emmylua-core/index"
	"github.com/emmylua-ls/emmylua-core/types"
)

// Checker evaluates type compatibility against a live symbol database
// (spec §4.2 check_type_compact).
type Checker struct {
	Types   *index.TypeIndex
	Members *index.MemberIndex
}

// NewChecker creates a Checker backed by ti/mi.
func NewChecker(ti *index.TypeIndex, mi *index.MemberIndex) *Checker {
	return &Checker{Types: ti, Members: mi}
}

// Wire assigns types.CheckCompatibleHook to c.Compatible, so the type
// lattice's `---@alias` Extends operator can call back into full
// compatibility checking. Call once at engine start-up.
func (c *Checker) Wire() { types.CheckCompatibleHook = c.Compatible }

// Compatible reports whether value is assignable to source, discarding
// the failure detail (the common case for callers outside diagnostics).
func (c *Checker) Compatible(source, value types.Type) bool {
	ok, _ := c.Check(source, value, NewGuard())
	return ok
}

// Check is the full check_type_compact entry point: reports whether value
// is assignable to source, and on failure why.
func (c *Checker) Check(source, value types.Type, g Guard) (bool, *Failure) {
	if source == nil || value == nil {
		return true, &Failure{Reason: ReasonDonotCheck}
	}
	if source.Kind() == types.KAny || source.Kind() == types.KUnknown {
		return true, nil
	}
	if value.Kind() == types.KAny || value.Kind() == types.KUnknown {
		return true, nil
	}
	ng, ok := g.Descend()
	if !ok {
		return false, &Failure{Reason: ReasonTypeRecursion}
	}
	g = ng

	if types.Equal(source, value) {
		return true, nil
	}

	// Value side unions/nullables: every possible alternative must satisfy
	// source.
	if vu, isUnion := value.(types.Union); isUnion {
		for _, e := range vu.Elems {
			if ok, f := c.Check(source, e, g); !ok {
				return false, f
			}
		}
		return true, nil
	}
	if vn, isNullable := value.(types.Nullable); isNullable {
		if ok, f := c.Check(source, vn.Elem, g); !ok {
			return false, f
		}
		return c.Check(source, types.Nil, g)
	}
	if vi, isInstance := value.(types.Instance); isInstance {
		return c.Check(source, vi.Base, g)
	}

	switch s := source.(type) {
	case types.Union:
		for _, e := range s.Elems {
			if ok, _ := c.Check(e, value, g); ok {
				return true, nil
			}
		}
		return false, &Failure{Reason: ReasonTypeNotMatch}

	case types.Intersection:
		for _, e := range s.Elems {
			if ok, f := c.Check(e, value, g); !ok {
				return false, f
			}
		}
		return true, nil

	case types.Nullable:
		if types.IsNil(value) {
			return true, nil
		}
		return c.Check(s.Elem, value, g)

	case types.Ref:
		return c.checkNominal(s.Decl, value, g)
	case types.Def:
		return c.checkNominal(s.Decl, value, g)

	case types.Generic:
		vg, ok := value.(types.Generic)
		if !ok || vg.Base != s.Base {
			return c.checkNominal(s.Base, value, g)
		}
		n := len(s.Params)
		if len(vg.Params) < n {
			n = len(vg.Params)
		}
		for i := 0; i < n; i++ {
			if ok, f := c.Check(s.Params[i], vg.Params[i], g); !ok {
				return false, f
			}
		}
		return true, nil

	case types.TableGeneric:
		vt, ok := value.(types.TableGeneric)
		if !ok {
			if value.Kind() == types.KTable {
				return true, nil
			}
			return false, &Failure{Reason: ReasonTypeNotMatch}
		}
		n := len(s.Params)
		if len(vt.Params) < n {
			n = len(vt.Params)
		}
		for i := 0; i < n; i++ {
			if ok, f := c.Check(s.Params[i], vt.Params[i], g); !ok {
				return false, f
			}
		}
		return true, nil

	case types.Object:
		return c.checkObject(s, value, g)

	case types.DocFunction:
		return c.checkFunction(s.Func, value, g)

	case types.Array:
		va, ok := value.(types.Array)
		if !ok {
			return false, &Failure{Reason: ReasonTypeNotMatch}
		}
		return c.Check(s.Elem, va.Elem, g)

	case types.Tuple:
		vt, ok := value.(types.Tuple)
		if !ok {
			return false, &Failure{Reason: ReasonTypeNotMatch}
		}
		if len(vt.Elems) < len(s.Elems) {
			return false, &Failure{Reason: ReasonTypeNotMatch, Message: "tuple too short"}
		}
		for i, et := range s.Elems {
			if ok, f := c.Check(et, vt.Elems[i], g); !ok {
				return false, f
			}
		}
		return true, nil

	case types.ExistField:
		// A source that only demands "has field F" is satisfied by anything
		// that structurally has it, which RawGetHook answers generically.
		if types.RawGetHook == nil {
			return true, nil
		}
		got := types.RawGetHook(value, types.StringConst{Value: s.Field})
		return !types.IsNil(got), nil

	case types.IntegerConst, types.DocIntegerConst, types.StringConst, types.DocStringConst,
		types.BooleanConst, types.DocBooleanConst, types.FloatConst, types.DocFloatConst:
		return false, &Failure{Reason: ReasonTypeNotMatch, Message: "literal mismatch"}

	default:
		return widensTo(s, value), failureIf(!widensTo(s, value))
	}
}

// checkNominal accepts value when it names target itself or any of
// target's registered subtypes transitively (spec §4.2 "Ref/Def/subtype
// acceptance").
func (c *Checker) checkNominal(target ids.TypeDeclId, value types.Type, g Guard) (bool, *Failure) {
	var cand ids.TypeDeclId
	switch v := value.(type) {
	case types.Ref:
		cand = v.Decl
	case types.Def:
		cand = v.Decl
	case types.TableConst:
		return true, nil // anonymous literal, structurally checked elsewhere
	default:
		if value.Kind() == types.KTable {
			return true, nil
		}
		return false, &Failure{Reason: ReasonTypeNotMatch}
	}
	if cand == target {
		return true, nil
	}
	if c.Types == nil {
		return false, &Failure{Reason: ReasonTypeNotMatch}
	}
	for _, sup := range c.Types.AllSupers(cand) {
		if sup == target {
			return true, nil
		}
	}
	return false, &Failure{Reason: ReasonTypeNotMatch}
}

func (c *Checker) checkObject(o types.Object, value types.Type, g Guard) (bool, *Failure) {
	tc, ok := value.(types.TableConst)
	if !ok {
		if obj, ok := value.(types.Object); ok {
			for k, ft := range o.Fields {
				vt, has := obj.Fields[k]
				if !has {
					if o.IsOptional(k) {
						continue
					}
					return false, &Failure{Reason: ReasonTypeNotMatchWithDetail, Message: "missing field " + k.String()}
				}
				if ok, f := c.Check(ft, vt, g); !ok {
					return false, f
				}
			}
			return true, nil
		}
		return false, &Failure{Reason: ReasonTypeNotMatch}
	}
	if c.Members == nil {
		return true, nil
	}
	owner := index.MemberOwner{Kind: index.MemberOwnerElement, File: tc.File, Range: tc.Range}
	for k, ft := range o.Fields {
		var members []*index.Member
		if k.Kind == types.ObjectKeyInt {
			members = c.Members.ByInt(owner, k.Int)
		} else {
			members = c.Members.ByName(owner, k.Name)
		}
		if len(members) == 0 {
			if o.IsOptional(k) {
				continue
			}
			return false, &Failure{Reason: ReasonTypeNotMatchWithDetail, Message: "missing field " + k.String()}
		}
		if ok, f := c.Check(ft, members[0].Type, g); !ok {
			return false, f
		}
	}
	return true, nil
}

// checkFunction implements contravariant parameters / covariant return
// (spec §4.2 "function parameter/variadic/covariant-return checking").
func (c *Checker) checkFunction(s types.FunctionType, value types.Type, g Guard) (bool, *Failure) {
	var v types.FunctionType
	switch vv := value.(type) {
	case types.DocFunction:
		v = vv.Func
	default:
		if value.Kind() == types.KFunction {
			return true, nil
		}
		return false, &Failure{Reason: ReasonTypeNotMatch}
	}
	n := len(s.Params)
	if len(v.Params) < n {
		n = len(v.Params)
	}
	for i := 0; i < n; i++ {
		st := typeOrAny(s.Params[i].Type)
		vt := typeOrAny(v.Params[i].Type)
		if ok, f := c.Check(vt, st, g); !ok { // contravariant
			return false, f
		}
	}
	sr := typeOrAny(s.Return)
	vr := typeOrAny(v.Return)
	return c.Check(sr, vr, g) // covariant
}

func typeOrAny(t types.Type) types.Type {
	if t == nil {
		return types.Any
	}
	return t
}

// widensTo covers the remaining primitive/literal-to-primitive widening
// rules not otherwise special-cased above (e.g. IntegerConst -> Integer,
// StringConst -> String).
func widensTo(source, value types.Type) bool {
	switch source.Kind() {
	case types.KInteger:
		switch value.(type) {
		case types.IntegerConst, types.DocIntegerConst:
			return true
		}
	case types.KFloat, types.KNumber:
		switch value.(type) {
		case types.FloatConst, types.DocFloatConst, types.IntegerConst, types.DocIntegerConst:
			return true
		}
	case types.KString:
		switch value.(type) {
		case types.StringConst, types.DocStringConst:
			return true
		}
	case types.KBoolean:
		switch value.(type) {
		case types.BooleanConst, types.DocBooleanConst:
			return true
		}
	case types.KTable:
		switch value.(type) {
		case types.TableConst, types.Object, types.TableGeneric, types.Array:
			return true
		}
	}
	return source.Kind() == value.Kind()
}

func failureIf(cond bool) *Failure {
	if cond {
		return &Failure{Reason: ReasonTypeNotMatch}
	}
	return nil
}
