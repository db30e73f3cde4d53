package types

// Equal reports whether a and b are the same type, field-wise (spec §9:
// "structural equality is checked field-wise"). Order matters for Tuple
// and FunctionType parameters; Union/Intersection compare as sets modulo
// duplicates per the union laws in spec §8.6.
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case primitive:
		return true
	case BooleanConst:
		return av.Value == b.(BooleanConst).Value
	case IntegerConst:
		return av.Value == b.(IntegerConst).Value
	case FloatConst:
		return av.Value == b.(FloatConst).Value
	case StringConst:
		return av.Value == b.(StringConst).Value
	case DocBooleanConst:
		return av.Value == b.(DocBooleanConst).Value
	case DocIntegerConst:
		return av.Value == b.(DocIntegerConst).Value
	case DocFloatConst:
		return av.Value == b.(DocFloatConst).Value
	case DocStringConst:
		return av.Value == b.(DocStringConst).Value
	case Ref:
		return av.Decl == b.(Ref).Decl
	case Def:
		return av.Decl == b.(Def).Decl
	case Array:
		return Equal(av.Elem, b.(Array).Elem)
	case Nullable:
		return Equal(av.Elem, b.(Nullable).Elem)
	case KeyOf:
		return Equal(av.Of, b.(KeyOf).Of)
	case Tuple:
		bv := b.(Tuple)
		if len(av.Elems) != len(bv.Elems) {
			return false
		}
		for i := range av.Elems {
			if !Equal(av.Elems[i], bv.Elems[i]) {
				return false
			}
		}
		return true
	case Union:
		return sameSet(av.Elems, b.(Union).Elems)
	case Intersection:
		return sameSet(av.Elems, b.(Intersection).Elems)
	case Extends:
		bv := b.(Extends)
		return Equal(av.Base, bv.Base) && Equal(av.Ext, bv.Ext)
	case Object:
		bv := b.(Object)
		if len(av.Fields) != len(bv.Fields) {
			return false
		}
		for k, t := range av.Fields {
			bt, ok := bv.Fields[k]
			if !ok || !Equal(t, bt) {
				return false
			}
		}
		return true
	case ExistField:
		bv := b.(ExistField)
		return av.Field == bv.Field && Equal(av.Origin, bv.Origin)
	case Generic:
		bv := b.(Generic)
		if av.Base != bv.Base || len(av.Params) != len(bv.Params) {
			return false
		}
		for i := range av.Params {
			if !Equal(av.Params[i], bv.Params[i]) {
				return false
			}
		}
		return true
	case TableGeneric:
		bv := b.(TableGeneric)
		if len(av.Params) != len(bv.Params) {
			return false
		}
		for i := range av.Params {
			if !Equal(av.Params[i], bv.Params[i]) {
				return false
			}
		}
		return true
	case TplRef:
		return av.Id == b.(TplRef).Id
	case StrTplRef:
		bv := b.(StrTplRef)
		return av.Prefix == bv.Prefix && av.Id == bv.Id
	case FuncTplRef:
		return av.Id == b.(FuncTplRef).Id
	case DocFunction:
		return functionTypeEqual(av.Func, b.(DocFunction).Func)
	case Signature:
		return av.Id == b.(Signature).Id
	case Variadic:
		return variadicEqual(av.Variadic, b.(Variadic).Variadic)
	case TableConst:
		bv := b.(TableConst)
		return av.File == bv.File && av.Range == bv.Range
	case Instance:
		bv := b.(Instance)
		return av.File == bv.File && av.Range == bv.Range && Equal(av.Base, bv.Base)
	case TypeGuard:
		return Equal(av.Narrowed, b.(TypeGuard).Narrowed)
	case AliasCall:
		bv := b.(AliasCall)
		if av.AliasKind != bv.AliasKind || len(av.Args) != len(bv.Args) {
			return false
		}
		for i := range av.Args {
			if !Equal(av.Args[i], bv.Args[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func functionTypeEqual(a, b FunctionType) bool {
	if a.IsAsync != b.IsAsync || a.IsColonDef != b.IsColonDef || len(a.Params) != len(b.Params) {
		return false
	}
	for i := range a.Params {
		if !Equal(typeOrUnknown(a.Params[i].Type), typeOrUnknown(b.Params[i].Type)) {
			return false
		}
	}
	return Equal(typeOrUnknown(a.Return), typeOrUnknown(b.Return))
}

func typeOrUnknown(t Type) Type {
	if t == nil {
		return Unknown
	}
	return t
}

func variadicEqual(a, b VariadicType) bool {
	if a.Shape != b.Shape {
		return false
	}
	if a.Shape == VariadicBase {
		return Equal(a.Base, b.Base)
	}
	if len(a.Multi) != len(b.Multi) {
		return false
	}
	for i := range a.Multi {
		if !Equal(a.Multi[i], b.Multi[i]) {
			return false
		}
	}
	return true
}

// sameSet reports whether a and b contain the same types modulo order and
// duplicates (used for Union/Intersection structural equality per the
// commutative/idempotent union laws, spec invariant 6).
func sameSet(a, b []Type) bool {
	contains := func(xs []Type, t Type) bool {
		for _, x := range xs {
			if Equal(x, t) {
				return true
			}
		}
		return false
	}
	for _, at := range a {
		if !contains(b, at) {
			return false
		}
	}
	for _, bt := range b {
		if !contains(a, bt) {
			return false
		}
	}
	return true
}

// IsNil reports whether t is exactly Nil (not merely nilable).
func IsNil(t Type) bool {
	return t != nil && t.Kind() == KNil
}

// IsFalsy reports whether t is Nil or the literal constant false — the two
// values Lua treats as falsy, relevant to Exist/NotExist narrowing.
func IsFalsy(t Type) bool {
	if IsNil(t) {
		return true
	}
	if bc, ok := t.(BooleanConst); ok && !bc.Value {
		return true
	}
	if dc, ok := t.(DocBooleanConst); ok && !dc.Value {
		return true
	}
	return false
}

// IsBoolean reports whether t is the Boolean primitive or a boolean
// literal constant (doc or real).
func IsBoolean(t Type) bool {
	switch t.(type) {
	case BooleanConst, DocBooleanConst:
		return true
	}
	return t != nil && t.Kind() == KBoolean
}
