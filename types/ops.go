package types

// flattenUnion returns t's member types if t is a Union, or [t] otherwise
// (nil yields an empty slice). Used throughout TypeOps so every operation
// treats a bare type as a one-element union.
func flattenUnion(t Type) []Type {
	if t == nil {
		return nil
	}
	if u, ok := t.(Union); ok {
		return u.Elems
	}
	return []Type{t}
}

// mkUnion builds the simplest representation of a deduplicated element
// set: zero elements collapses to Nil (Lua's "no value"), one element
// returns it bare, and Union.Elems is otherwise built with duplicates
// removed via structural Equal — satisfying invariant 6's idempotency and
// the union laws in spec §8.6 (`Union(T,T) == T` structurally).
func mkUnion(elems []Type) Type {
	var out []Type
	for _, e := range elems {
		dup := false
		for _, o := range out {
			if Equal(o, e) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, e)
		}
	}
	switch len(out) {
	case 0:
		return Nil
	case 1:
		return out[0]
	default:
		return Union{Elems: out}
	}
}

// TypeOpsUnion implements associative/commutative/idempotent union (spec
// invariant 6). `Nil ∪ T` never collapses T away unless T already
// structurally contains Nil — guaranteed here because mkUnion only ever
// removes *duplicate* elements, never a distinct Nil member.
func TypeOpsUnion(a, b Type) Type {
	elems := append(append([]Type{}, flattenUnion(a)...), flattenUnion(b)...)
	return mkUnion(elems)
}

// category buckets a type into a coarse primitive family used by Narrow/
// And's "does this constant/nominal type belong to this broad category"
// matching, since full nominal subtyping (super-type chains) lives in the
// check package, one layer up, and isn't available here.
func category(t Type) Kind {
	switch v := t.(type) {
	case IntegerConst, DocIntegerConst:
		return KInteger
	case FloatConst, DocFloatConst:
		return KFloat
	case StringConst, DocStringConst:
		return KString
	case BooleanConst, DocBooleanConst:
		return KBoolean
	case Nullable:
		return category(v.Elem)
	default:
		if t == nil {
			return KNil
		}
		return t.Kind()
	}
}

// narrowMatches reports whether candidate e belongs (loosely) to target's
// family: exact structural equality, the same coarse category, or target
// being Number absorbing both Integer and Float members.
func narrowMatches(e, target Type) bool {
	if Equal(e, target) {
		return true
	}
	tc, ec := category(target), category(e)
	if tc == ec {
		return true
	}
	if tc == KNumber && (ec == KInteger || ec == KFloat || ec == KNumber) {
		return true
	}
	if _, ok := target.(primitive); ok && tc == ec {
		return true
	}
	return false
}

// TypeOpsNarrow implements `Narrow(source, T)` (spec §4.4 table): restrict
// source to the members compatible with T, falling back to T itself (a
// forced narrow) when no existing member matches — e.g. narrowing an
// Unknown/Any source by `type(x) == "number"`.
func TypeOpsNarrow(source, target Type) Type {
	elems := flattenUnion(source)
	var kept []Type
	for _, e := range elems {
		if narrowMatches(e, target) {
			kept = append(kept, e)
		}
	}
	if len(kept) == 0 {
		return target
	}
	return mkUnion(kept)
}

// TypeOpsRemove implements `Remove(source, T)`: strip members of source
// equal to or in the same coarse category as T. Removing Nil specifically
// also strips a Nullable wrapper's Nil half (`Remove(Nullable(X), Nil) ==
// X`), matching `Exist`'s tightening without going through the dedicated
// RemoveNilOrFalse helper.
func TypeOpsRemove(source, target Type) Type {
	if n, ok := source.(Nullable); ok && IsNil(target) {
		return n.Elem
	}
	elems := flattenUnion(source)
	var kept []Type
	for _, e := range elems {
		if n, ok := e.(Nullable); ok && IsNil(target) {
			kept = append(kept, n.Elem)
			continue
		}
		if narrowMatches(e, target) {
			continue
		}
		kept = append(kept, e)
	}
	if len(kept) == 0 {
		return Nil
	}
	return mkUnion(kept)
}

// TypeOpsAnd intersects two already-tightened candidate types (used by
// TypeAssertion::And): keep only members present (structurally or by
// category) in both, short-circuiting callers should stop on a Nil result
// (spec §4.4 "And" row: "fold via TypeOps::And; short-circuit to Nil").
func TypeOpsAnd(a, b Type) Type {
	ea, eb := flattenUnion(a), flattenUnion(b)
	var kept []Type
	for _, x := range ea {
		for _, y := range eb {
			if Equal(x, y) {
				kept = append(kept, x)
				break
			}
			if narrowMatches(x, y) {
				// prefer the more specific (literal) side
				_, xPrim := x.(primitive)
				_, yPrim := y.(primitive)
				if xPrim && !yPrim {
					kept = append(kept, y)
				} else {
					kept = append(kept, x)
				}
				break
			}
		}
	}
	if len(kept) == 0 {
		return Nil
	}
	return mkUnion(kept)
}

// RemoveNilOrFalse implements the `Exist` tightening: strip Nil and the
// literal `false` from source.
func RemoveNilOrFalse(source Type) Type {
	elems := flattenUnion(source)
	var kept []Type
	for _, e := range elems {
		if n, ok := e.(Nullable); ok {
			kept = append(kept, n.Elem)
			continue
		}
		if IsNil(e) || isFalseConst(e) {
			continue
		}
		kept = append(kept, e)
	}
	if len(kept) == 0 {
		return Unknown
	}
	return mkUnion(kept)
}

// NarrowFalseOrNil implements the `NotExist` tightening: keep only Nil and
// `false` members of source, defaulting to Nil if source can never be
// falsy (e.g. source == String).
func NarrowFalseOrNil(source Type) Type {
	elems := flattenUnion(source)
	var kept []Type
	for _, e := range elems {
		if n, ok := e.(Nullable); ok {
			kept = append(kept, Nil)
			continue
		}
		if IsNil(e) || isFalseConst(e) || e.Kind() == KBoolean || e.Kind() == KAny || e.Kind() == KUnknown {
			kept = append(kept, e)
		}
	}
	if len(kept) == 0 {
		return Nil
	}
	return mkUnion(kept)
}

func isFalseConst(t Type) bool {
	if bc, ok := t.(BooleanConst); ok {
		return !bc.Value
	}
	if dc, ok := t.(DocBooleanConst); ok {
		return !dc.Value
	}
	return false
}
