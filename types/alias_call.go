package types

// EvalAliasCall applies a type-level operator from a `---@alias` body
// after its operands have already been instantiated (spec §4.2 table).
// Operators that need member/compatibility information beyond the pure
// type lattice (KeyOf, RawGet, Extends) go through the hooks in hooks.go;
// if the relevant hook is unset, they degrade to Unknown rather than
// panicking, matching the fixpoint resolver's general posture of treating
// an unresolvable computation as deferred work.
func EvalAliasCall(kind AliasCallKind, args []Type) Type {
	switch kind {
	case AliasSub:
		if len(args) != 2 {
			return Unknown
		}
		return TypeOpsRemove(args[0], args[1])
	case AliasAdd:
		if len(args) != 2 {
			return Unknown
		}
		return TypeOpsUnion(args[0], args[1])
	case AliasKeyOf:
		if len(args) != 1 || MemberKeysHook == nil {
			return Unknown
		}
		keys := MemberKeysHook(args[0])
		return mkUnion(keys)
	case AliasExtends:
		if len(args) != 2 {
			return Unknown
		}
		if CheckCompatibleHook == nil {
			return Unknown
		}
		return BooleanConst{Value: CheckCompatibleHook(args[0], args[1])}
	case AliasSelect:
		return evalSelect(args)
	case AliasUnpack:
		return evalUnpack(args)
	case AliasRawGet:
		if len(args) != 2 || RawGetHook == nil {
			return Unknown
		}
		return RawGetHook(args[0], args[1])
	case AliasIndex:
		if len(args) != 2 || RawGetHook == nil {
			return Unknown
		}
		return RawGetHook(args[0], args[1])
	default:
		return Unknown
	}
}

// evalSelect implements `Select(src, idx)`: idx == IntegerConst(0) means
// "#" (length of the variadic), any other integer selects the suffix of a
// Multi variadic starting at that 1-based index.
func evalSelect(args []Type) Type {
	if len(args) != 2 {
		return Unknown
	}
	v, ok := args[0].(Variadic)
	if !ok {
		return Unknown
	}
	idxConst, ok := args[1].(IntegerConst)
	if !ok {
		return Unknown
	}
	if idxConst.Value == 0 {
		if v.Variadic.Shape == VariadicMulti {
			return IntegerConst{Value: int64(len(v.Variadic.Multi))}
		}
		return Integer
	}
	if v.Variadic.Shape != VariadicMulti {
		return Variadic{v.Variadic}
	}
	start := int(idxConst.Value) - 1
	if start < 0 || start >= len(v.Variadic.Multi) {
		return Variadic{VariadicType{Shape: VariadicMulti}}
	}
	return Variadic{VariadicType{Shape: VariadicMulti, Multi: v.Variadic.Multi[start:]}}
}

// evalUnpack implements `Unpack(t[,s[,e]])`: tuple -> variadic multi,
// array -> variadic base, table-generic -> variadic of V ∪ Nil.
func evalUnpack(args []Type) Type {
	if len(args) == 0 {
		return Unknown
	}
	switch v := args[0].(type) {
	case Tuple:
		elems := v.Elems
		elems = sliceBounds(elems, args)
		return Variadic{VariadicType{Shape: VariadicMulti, Multi: elems}}
	case Array:
		return Variadic{VariadicType{Shape: VariadicBase, Base: v.Elem}}
	case TableGeneric:
		if len(v.Params) == 0 {
			return Variadic{VariadicType{Shape: VariadicBase, Base: Unknown}}
		}
		val := v.Params[len(v.Params)-1]
		return Variadic{VariadicType{Shape: VariadicBase, Base: TypeOpsUnion(val, Nil)}}
	default:
		return Unknown
	}
}

func sliceBounds(elems []Type, args []Type) []Type {
	start, end := 1, len(elems)
	if len(args) >= 2 {
		if s, ok := args[1].(IntegerConst); ok {
			start = int(s.Value)
		}
	}
	if len(args) >= 3 {
		if e, ok := args[2].(IntegerConst); ok {
			end = int(e.Value)
		}
	}
	if start < 1 {
		start = 1
	}
	if end > len(elems) {
		end = len(elems)
	}
	if start > end {
		return nil
	}
	return elems[start-1 : end]
}
