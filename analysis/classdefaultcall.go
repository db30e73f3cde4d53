package analysis

import (
	"github.com/emmylua-ls/emmylua-core/config"
	"github.com/emmylua-ls/emmylua-core/ids"
	"github.com/emmylua-ls/emmylua-core/index"
	"github.com/emmylua-ls/emmylua-core/types"
)

// ApplyClassDefaultCall synthesizes a `__call` operator overload on every
// class that owns a method matching one of rules (spec §6
// `runtime.classDefaultCall`, SPEC_FULL.md §5: "synthesises a `__call`
// overload from a named method"). Grounded on the teacher's
// applyOperatorTag (doc.go) for how an Operator gets built and added —
// this is the same shape but sourced from a config rule plus an already-
// bound method Member instead of a `---@operator` doc tag.
//
// Must run after LuaAnalyzer (Phase 3) has bound method members, since a
// method's Signature only has its real Params once its function
// statement/closure has been walked; running after the Phase 5 resolver
// fixpoint too is safe since this only reads a method's already-resolved
// Params shape, not its (possibly still-settling) Return type.
func ApplyClassDefaultCall(ti *index.TypeIndex, members *index.MemberIndex, sigs *index.SignatureIndex, ops *index.OperatorIndex, rules []config.ClassDefaultCall) {
	if len(rules) == 0 {
		return
	}
	for _, class := range ti.AllClasses() {
		owner := index.MemberOwner{Kind: index.MemberOwnerType, Type: class.Id}
		for _, rule := range rules {
			ms := members.ByName(owner, rule.FunctionName)
			if len(ms) == 0 || !ms[0].IsMethod {
				continue
			}
			sigRef, ok := ms[0].Type.(types.Signature)
			if !ok {
				continue
			}
			sig, ok := sigs.Get(sigRef.Id)
			if !ok {
				continue
			}
			ops.Add(&index.Operator{
				Owner:  class.Id,
				Method: index.MetaCall,
				File:   ms[0].Id.File,
				Func:   classDefaultCallFunc(sig, class.Id, rule),
			})
		}
	}
}

func classDefaultCallFunc(sig *index.Signature, owner ids.TypeDeclId, rule config.ClassDefaultCall) types.FunctionType {
	ret := sig.Return
	if rule.ForceReturnSelf {
		ret = types.Ref{Decl: owner}
	}
	return types.FunctionType{
		Params:     append([]types.Param(nil), sig.Params...),
		Return:     ret,
		IsColonDef: sig.IsColonDefine && !rule.ForceNonColon,
		IsVariadic: sig.IsVariadic,
	}
}
