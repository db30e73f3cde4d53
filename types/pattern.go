package types

func stringLiteralValue(t Type) (string, bool) {
	switch v := t.(type) {
	case StringConst:
		return v.Value, true
	case DocStringConst:
		return v.Value, true
	default:
		return "", false
	}
}

// TplPatternMatch implements tpl_pattern_match (spec §4.2): walks pattern
// and target in lockstep, recording template bindings into result whenever
// a TplRef/StrTplRef/FuncTplRef is found in pattern. It does not recurse
// into DocFunction return types (closures are deferred to a second
// matching pass by the caller, spec §4.2 step 2) beyond matching
// parameter/return shape when both sides are already DocFunction values.
func TplPatternMatch(pattern, target Type, result *Substitutor) {
	if pattern == nil || target == nil {
		return
	}
	switch p := pattern.(type) {
	case FuncTplRef:
		result.BindType(p.Id, target)
		return
	case StrTplRef:
		lit, ok := stringLiteralValue(target)
		if !ok {
			return
		}
		full := p.Prefix + lit
		if InternHook != nil {
			result.Bind(p, SubstValue{Kind: SubstOne, One: Ref{Decl: InternHook(full)}})
		} else {
			result.Bind(p, SubstValue{Kind: SubstOne, One: StringConst{Value: full}})
		}
		return
	case TplRef:
		result.BindType(p.Id, target)
		return
	case Array:
		if ta, ok := target.(Array); ok {
			TplPatternMatch(p.Elem, ta.Elem, result)
		}
	case Nullable:
		inner := target
		if tn, ok := target.(Nullable); ok {
			inner = tn.Elem
		}
		TplPatternMatch(p.Elem, inner, result)
	case TableGeneric:
		if tt, ok := target.(TableGeneric); ok {
			n := len(p.Params)
			if len(tt.Params) < n {
				n = len(tt.Params)
			}
			for i := 0; i < n; i++ {
				TplPatternMatch(p.Params[i], tt.Params[i], result)
			}
		}
	case Generic:
		if tg, ok := target.(Generic); ok && tg.Base == p.Base {
			n := len(p.Params)
			if len(tg.Params) < n {
				n = len(tg.Params)
			}
			for i := 0; i < n; i++ {
				TplPatternMatch(p.Params[i], tg.Params[i], result)
			}
		}
	case Union:
		// Match each pattern element against the whole target; a target
		// union member matching structurally binds its template.
		for _, pe := range p.Elems {
			TplPatternMatch(pe, target, result)
		}
	case DocFunction:
		if tf, ok := target.(DocFunction); ok {
			n := len(p.Func.Params)
			if len(tf.Func.Params) < n {
				n = len(tf.Func.Params)
			}
			for i := 0; i < n; i++ {
				TplPatternMatch(typeOrUnknown(p.Func.Params[i].Type), typeOrUnknown(tf.Func.Params[i].Type), result)
			}
			TplPatternMatch(typeOrUnknown(p.Func.Return), typeOrUnknown(tf.Func.Return), result)
		}
	case Tuple:
		if tt, ok := target.(Tuple); ok {
			n := len(p.Elems)
			if len(tt.Elems) < n {
				n = len(tt.Elems)
			}
			for i := 0; i < n; i++ {
				TplPatternMatch(p.Elems[i], tt.Elems[i], result)
			}
		}
	case Variadic:
		if tv, ok := target.(Variadic); ok {
			base := p.Variadic.Base
			if p.Variadic.Shape == VariadicBase && base != nil {
				TplPatternMatch(base, tv.Variadic.Get(0), result)
			}
		}
	}
}
