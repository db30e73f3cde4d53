package index

import (
	"strconv"

	"github.com/emmylua-ls/emmylua-core/types"
)

// WireTypeHooks assigns the types package's package-level hooks (see
// types/hooks.go) to implementations backed by ti and mi. Call this once
// at engine start-up, before any analysis runs.
func WireTypeHooks(ti *TypeIndex, mi *MemberIndex) {
	types.InternHook = ti.Intern
	types.MemberKeysHook = func(owner types.Type) []types.Type {
		mo, ok := memberOwnerOfType(owner)
		if !ok {
			return nil
		}
		members := mi.All(mo)
		seen := make(map[string]bool)
		var out []types.Type
		for _, m := range members {
			switch {
			case m.Name != "":
				if !seen["n:"+m.Name] {
					seen["n:"+m.Name] = true
					out = append(out, types.StringConst{Value: m.Name})
				}
			case m.ExprType == nil:
				tag := "i:" + strconv.FormatInt(m.Int, 10)
				if !seen[tag] {
					seen[tag] = true
					out = append(out, types.IntegerConst{Value: m.Int})
				}
			}
		}
		return out
	}
	types.RawGetHook = func(owner, key types.Type) types.Type {
		mo, ok := memberOwnerOfType(owner)
		if !ok {
			return types.Unknown
		}
		var members []*Member
		switch k := key.(type) {
		case types.StringConst:
			members = mi.ByName(mo, k.Value)
		case types.DocStringConst:
			members = mi.ByName(mo, k.Value)
		case types.IntegerConst:
			members = mi.ByInt(mo, k.Value)
		case types.DocIntegerConst:
			members = mi.ByInt(mo, k.Value)
		default:
			members = mi.ByExprType(mo, key)
		}
		if len(members) == 0 {
			return types.Nil
		}
		result := members[0].Type
		for _, m := range members[1:] {
			result = types.TypeOpsUnion(result, m.Type)
		}
		return result
	}
}

// memberOwnerOfType maps a nominal type value to the MemberOwner it
// addresses members under (Ref/Def/Generic all key off the same
// TypeDeclId; TableConst keys off its own syntax location).
func memberOwnerOfType(t types.Type) (MemberOwner, bool) {
	switch v := t.(type) {
	case types.Ref:
		return MemberOwner{Kind: MemberOwnerType, Type: v.Decl}, true
	case types.Def:
		return MemberOwner{Kind: MemberOwnerType, Type: v.Decl}, true
	case types.Generic:
		return MemberOwner{Kind: MemberOwnerType, Type: v.Base}, true
	case types.Instance:
		return memberOwnerOfType(v.Base)
	case types.TableConst:
		return MemberOwner{Kind: MemberOwnerElement, File: v.File, Range: v.Range}, true
	default:
		return MemberOwner{}, false
	}
}
