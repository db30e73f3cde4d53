package types

// Visit walks t and every type reachable from it (component-wise),
// calling f on each node including t itself. Used both by free-template-
// variable collection (CollectTemplateIds below) and by anything that needs to
// enumerate every Ref/Generic reachable from a type (spec §9: "a visitor
// utility (visit_type(f)) is used both by free-variable collection and by
// template-id extraction").
func Visit(t Type, f func(Type)) {
	if t == nil {
		return
	}
	f(t)
	switch v := t.(type) {
	case Array:
		Visit(v.Elem, f)
	case Nullable:
		Visit(v.Elem, f)
	case KeyOf:
		Visit(v.Of, f)
	case Tuple:
		for _, e := range v.Elems {
			Visit(e, f)
		}
	case Union:
		for _, e := range v.Elems {
			Visit(e, f)
		}
	case Intersection:
		for _, e := range v.Elems {
			Visit(e, f)
		}
	case Extends:
		Visit(v.Base, f)
		Visit(v.Ext, f)
	case Object:
		for _, ft := range v.Fields {
			Visit(ft, f)
		}
		for _, idx := range v.Indexes {
			Visit(idx.Key, f)
			Visit(idx.Value, f)
		}
	case ExistField:
		Visit(v.Origin, f)
	case Generic:
		for _, p := range v.Params {
			Visit(p, f)
		}
	case TableGeneric:
		for _, p := range v.Params {
			Visit(p, f)
		}
	case DocFunction:
		for _, p := range v.Func.Params {
			Visit(typeOrUnknown(p.Type), f)
		}
		Visit(typeOrUnknown(v.Func.Return), f)
	case Variadic:
		if v.Variadic.Shape == VariadicBase {
			Visit(v.Variadic.Base, f)
		} else {
			for _, e := range v.Variadic.Multi {
				Visit(e, f)
			}
		}
	case Instance:
		Visit(v.Base, f)
	case TypeGuard:
		Visit(v.Narrowed, f)
	case AliasCall:
		for _, a := range v.Args {
			Visit(a, f)
		}
	}
}

// CollectTemplateIds returns every distinct template-reference id
// (TplRef/StrTplRef/FuncTplRef) reachable from t, in first-seen order —
// step 1 of instantiate_func_generic (spec §4.2).
func CollectTemplateIds(t Type) []any {
	seen := make(map[any]bool)
	var order []any
	Visit(t, func(v Type) {
		var key any
		switch tv := v.(type) {
		case TplRef:
			key = tv.Id
		case StrTplRef:
			key = tv
		case FuncTplRef:
			key = tv.Id
		default:
			return
		}
		if !seen[key] {
			seen[key] = true
			order = append(order, key)
		}
	})
	return order
}
