package types

import "errors"

// InferFailReason classifies why a type-inference attempt produced no
// answer instead of a wrong one, mirroring the original spec's two result-
// carrying taxonomies (SPEC_FULL.md §1.2): a "None" reason means the
// expression simply has no type information available yet (e.g. it
// depends on a declaration that hasn't been registered), while the other
// variants mean a specific piece of deferred work is blocking the answer.
// Callers compare with errors.Is; the resolver fixpoint loop (spec §4.1)
// records the reason but retries every unresolved item, whatever its
// reason, until a pass makes no more progress, then resolves remaining
// items in force mode.
var (
	// ErrInferNone means no type information exists for this expression and
	// none is expected to appear later (the resolver still retries it like
	// any other reason).
	ErrInferNone = errors.New("types: no type information available")
	// ErrInferRecursive means the expression's inference depends on itself
	// (directly or through a cycle) and hit the recursion guard.
	ErrInferRecursive = errors.New("types: recursive inference")
	// ErrInferUnresolvedDecl means inference depends on a DeclId that has
	// not been registered by DeclAnalyzer yet.
	ErrInferUnresolvedDecl = errors.New("types: declaration not yet resolved")
	// ErrInferUnresolvedSignature means inference depends on a closure's
	// return type, which has not been computed yet.
	ErrInferUnresolvedSignature = errors.New("types: signature not yet resolved")
	// ErrInferUnresolvedMember means inference depends on a class member
	// that has not been registered yet.
	ErrInferUnresolvedMember = errors.New("types: member not yet resolved")
)
