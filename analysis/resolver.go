package analysis

import (
	"github.com/emmylua-ls/emmylua-core/index"
	"github.com/emmylua-ls/emmylua-core/semantic"
	"github.com/emmylua-ls/emmylua-core/types"
)

// Resolver is Phase 5 (spec §4.1): it drains the UnResolve queue built by
// LuaAnalyzer to a fixpoint (retrying every still-unresolved item for as
// long as a pass resolves at least one), then runs one more pass in force
// mode, collapsing every
// remaining failure's None/UnknownType reasons to types.Unknown so every
// Decl/Member/Signature ends the session with *some* type rather than a
// permanently-nil one. Grounded on original_source's `unresolve/mod.rs` +
// `unresolve/resolve.rs` fixpoint-then-force-mode algorithm.
type Resolver struct {
	Model      *semantic.Model
	Signatures *index.SignatureIndex
	Modules    *index.ModuleIndex
}

// Resolve drains items to a fixpoint, then runs one force-mode pass over
// whatever is still pending. It returns nothing: every item that reaches
// force mode is, by construction, resolved — force mode never leaves an
// item pending.
func (r *Resolver) Resolve(items []*UnResolveItem) {
	pending := items
	for len(pending) > 0 {
		var next []*UnResolveItem
		progressed := false
		for _, it := range pending {
			if r.tryResolve(it, false) {
				progressed = true
				continue
			}
			next = append(next, it)
		}
		pending = next
		if !progressed {
			break
		}
	}
	for _, it := range pending {
		r.tryResolve(it, true)
	}
}

func (r *Resolver) tryResolve(it *UnResolveItem, force bool) bool {
	if it.Kind == URModuleRef {
		return r.tryResolveModuleRef(it, force)
	}
	if it.Expr == nil {
		if !force {
			return false
		}
		r.commit(it, types.Unknown)
		return true
	}
	typ, err := r.Model.InferExpr(it.File, it.Expr)
	resolved := err == nil && typ != nil && typ.Kind() != types.KUnknown
	if !resolved {
		it.Reason = classifyFailure(err)
		if !force {
			return false
		}
		typ = types.Unknown
	}
	r.commit(it, typ)
	return true
}

func (r *Resolver) tryResolveModuleRef(it *UnResolveItem, force bool) bool {
	mod, ok := r.Modules.ByName(it.ModuleName)
	if !ok || mod.Export == nil {
		it.Reason = InferFailReason{Kind: FailUnknownType}
		if !force {
			return false
		}
		r.commit(it, types.Unknown)
		return true
	}
	r.commit(it, mod.Export)
	return true
}

func (r *Resolver) commit(it *UnResolveItem, typ types.Type) {
	switch it.Kind {
	case URDecl, URIterDecl, URModuleRef:
		if it.Decl != nil && it.Decl.Type == nil {
			it.Decl.Type = typ
		}
	case URMember, URTableField:
		if it.Member != nil && it.Member.Type == nil {
			it.Member.Type = typ
		}
	case URReturn, URClosureReturn:
		if it.Sig != nil {
			r.Signatures.SetReturn(it.Sig.Id, typ, index.ResolveInferred)
		}
	case URClosureParams:
		if it.Sig != nil && it.ParamIdx >= 0 && it.ParamIdx < len(it.Sig.Params) && it.Sig.Params[it.ParamIdx].Type == nil {
			it.Sig.Params[it.ParamIdx].Type = typ
		}
	}
}
