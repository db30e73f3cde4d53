package analysis

import (
	"github.com/emmylua-ls/emmylua-core/index"
	"github.com/emmylua-ls/emmylua-core/syntax"
	"github.com/emmylua-ls/emmylua-core/types"
)

// UnResolveKind tags which index entry an UnResolveItem will fill in once
// its Expr can be inferred (spec §4.1 UnResolve item taxonomy).
type UnResolveKind uint8

const (
	URDecl UnResolveKind = iota
	URMember
	URModuleRef
	URReturn
	URClosureParams
	URClosureReturn
	URIterDecl
	URTableField
)

// InferFailReasonKind classifies why an UnResolveItem didn't resolve on a
// given pass (spec §4.1 InferFailReason).
type InferFailReasonKind uint8

const (
	FailNone InferFailReasonKind = iota
	FailUnknownType
	FailFieldDotFound
	FailRecursiveInfer
)

// InferFailReason records the most recent reason an item failed to
// resolve; FieldDotFound carries the dotted path that couldn't be found.
type InferFailReason struct {
	Kind InferFailReasonKind
	Path string
}

// UnResolveItem is one piece of deferred analysis work: an expression that
// needs (re-)inferring, plus a pointer to exactly the index slot its result
// fills in. Holding the slot directly (rather than an id to look up again)
// keeps the resolver a plain "retry InferExpr, write the result" loop
// (spec §4.1 Resolver/UnresolveQueue).
type UnResolveItem struct {
	Kind     UnResolveKind
	File     syntax.FileId
	Expr     syntax.Expr
	Decl     *index.Decl      // URDecl, URIterDecl
	Member   *index.Member    // URMember, URTableField
	Sig      *index.Signature // URReturn, URClosureParams, URClosureReturn
	ParamIdx int              // URClosureParams: which parameter
	ModuleName string         // URModuleRef: the require() argument
	Reason   InferFailReason
}

func classifyFailure(err error) InferFailReason {
	switch err {
	case types.ErrInferRecursive:
		return InferFailReason{Kind: FailRecursiveInfer}
	case nil:
		return InferFailReason{Kind: FailNone}
	default:
		return InferFailReason{Kind: FailUnknownType}
	}
}
