package types


// RecursionGuard prevents alias self-reference from looping forever during
// instantiation (spec §4.2 check_recursion). Instantiate creates one per
// top-level call and threads it through recursive calls.
type RecursionGuard struct {
	seen map[any]bool
}

// NewRecursionGuard creates an empty guard.
func NewRecursionGuard() *RecursionGuard { return &RecursionGuard{seen: make(map[any]bool)} }

// Enter marks id as being instantiated; it returns false if id is already
// on the stack (a cycle), in which case the caller should stop recursing
// and substitute Unknown.
func (g *RecursionGuard) Enter(id any) bool {
	if g.seen[id] {
		return false
	}
	g.seen[id] = true
	return true
}

// Leave pops id off the in-progress stack.
func (g *RecursionGuard) Leave(id any) { delete(g.seen, id) }

// Instantiate is a structural recursion that replaces every template
// reference in t using s's bindings. A SubstNone binding (or no binding at
// all) leaves the template reference as-is: "needs inference from call
// site" for SubstNone is only meaningful before tpl_pattern_match has run;
// after that pass every relevant key is bound to a concrete SubstOne
// value, so a caller that reaches Instantiate post-match never observes
// SubstNone surviving into the result.
func Instantiate(t Type, s *Substitutor) Type {
	return instantiate(t, s, NewRecursionGuard())
}

func instantiate(t Type, s *Substitutor, guard *RecursionGuard) Type {
	if t == nil {
		return nil
	}
	if key := keyOf(t); key != nil {
		if v, ok := s.Lookup(key); ok {
			switch v.Kind {
			case SubstOne:
				return v.One
			case SubstMultiBase:
				return Variadic{VariadicType{Shape: VariadicBase, Base: v.MultiBase}}
			case SubstMultiTypes:
				return Variadic{VariadicType{Shape: VariadicMulti, Multi: v.MultiTypes}}
			case SubstParams:
				// A Params binding only makes sense substituted into a
				// FunctionType's parameter list, handled by the DocFunction
				// case below; falling through here leaves the tpl-ref as-is.
			case SubstNone:
				return t
			}
		}
		return t
	}

	switch v := t.(type) {
	case primitive, BooleanConst, IntegerConst, FloatConst, StringConst,
		DocBooleanConst, DocIntegerConst, DocFloatConst, DocStringConst,
		Ref, Def, Signature:
		return t
	case Array:
		return Array{Elem: instantiate(v.Elem, s, guard)}
	case Nullable:
		return Nullable{Elem: instantiate(v.Elem, s, guard)}
	case KeyOf:
		return KeyOf{Of: instantiate(v.Of, s, guard)}
	case Tuple:
		return Tuple{Elems: instantiateAll(v.Elems, s, guard)}
	case Union:
		return Union{Elems: instantiateAll(v.Elems, s, guard)}
	case Intersection:
		return Intersection{Elems: instantiateAll(v.Elems, s, guard)}
	case Extends:
		return Extends{Base: instantiate(v.Base, s, guard), Ext: instantiate(v.Ext, s, guard)}
	case Object:
		fields := make(map[ObjectKey]Type, len(v.Fields))
		for k, ft := range v.Fields {
			fields[k] = instantiate(ft, s, guard)
		}
		idxs := make([]IndexSig, len(v.Indexes))
		for i, ix := range v.Indexes {
			idxs[i] = IndexSig{Key: instantiate(ix.Key, s, guard), Value: instantiate(ix.Value, s, guard)}
		}
		return Object{Fields: fields, Indexes: idxs, Nullable: v.Nullable}
	case ExistField:
		return ExistField{Field: v.Field, Origin: instantiate(v.Origin, s, guard)}
	case Generic:
		if !guard.Enter(v.Base) {
			return Unknown
		}
		defer guard.Leave(v.Base)
		return Generic{Base: v.Base, Params: instantiateAll(v.Params, s, guard)}
	case TableGeneric:
		params := make([]Type, len(v.Params))
		for i, p := range v.Params {
			params[i] = instantiate(p, s, guard)
		}
		return TableGeneric{Params: params}
	case DocFunction:
		return DocFunction{Func: instantiateFunc(v.Func, s, guard)}
	case Variadic:
		if v.Variadic.Shape == VariadicBase {
			return Variadic{VariadicType{Shape: VariadicBase, Base: instantiate(v.Variadic.Base, s, guard)}}
		}
		return Variadic{VariadicType{Shape: VariadicMulti, Multi: instantiateAll(v.Variadic.Multi, s, guard)}}
	case TableConst:
		return v
	case Instance:
		return Instance{Base: instantiate(v.Base, s, guard), File: v.File, Range: v.Range}
	case TypeGuard:
		return TypeGuard{Narrowed: instantiate(v.Narrowed, s, guard)}
	case AliasCall:
		args := instantiateAll(v.Args, s, guard)
		return EvalAliasCall(v.AliasKind, args)
	default:
		return t
	}
}

func instantiateFunc(f FunctionType, s *Substitutor, guard *RecursionGuard) FunctionType {
	out := FunctionType{IsAsync: f.IsAsync, IsColonDef: f.IsColonDef, IsVariadic: f.IsVariadic}
	for _, p := range f.Params {
		if key := keyOf(typeOrUnknown(p.Type)); key != nil {
			if v, ok := s.Lookup(key); ok && v.Kind == SubstParams {
				out.Params = append(out.Params, v.Params...)
				continue
			}
		}
		out.Params = append(out.Params, Param{Name: p.Name, Type: instantiate(typeOrUnknown(p.Type), s, guard)})
	}
	out.Return = instantiate(typeOrUnknown(f.Return), s, guard)
	return out
}

func instantiateAll(ts []Type, s *Substitutor, guard *RecursionGuard) []Type {
	out := make([]Type, len(ts))
	for i, t := range ts {
		out[i] = instantiate(t, s, guard)
	}
	return out
}
