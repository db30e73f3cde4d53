// Package flow implements flow-sensitive type narrowing (spec §4.4):
// the TypeAssertion lattice recorded by the FlowAnalyzer at each branch
// and the tighten_type algorithm that applies a chain of assertions to a
// variable's declared type at a particular use site. This is ported
// closely from original_source's db_index/flow/type_assert.rs, renamed to
// Go idiom (no Arc, explicit error returns instead of Result).
package flow

import (
	"github.com/emmylua-ls/emmylua-core/syntax"
	"github.com/emmylua-ls/emmylua-core/types"
)

// Kind tags which Assertion variant is active.
type Kind uint8

const (
	KindExist Kind = iota
	KindNotExist
	KindNarrow
	KindAdd
	KindRemove
	KindReassign
	KindForce
	KindAnd
	KindOr
	KindCall
	KindNeCall
)

// Assertion is one flow-narrowing fact recorded against a variable at a
// point in the control flow graph (spec §4.4 TypeAssertion).
type Assertion struct {
	Kind Kind

	// Narrow, Add, Remove, Force
	Type types.Type

	// Reassign, Call, NeCall
	ExprId   syntax.SyntaxId
	ParamIdx int

	// And, Or
	List []Assertion
}

func Exist() Assertion    { return Assertion{Kind: KindExist} }
func NotExist() Assertion { return Assertion{Kind: KindNotExist} }
func Narrow(t types.Type) Assertion { return Assertion{Kind: KindNarrow, Type: t} }
func Add(t types.Type) Assertion    { return Assertion{Kind: KindAdd, Type: t} }
func Remove(t types.Type) Assertion { return Assertion{Kind: KindRemove, Type: t} }
func Force(t types.Type) Assertion  { return Assertion{Kind: KindForce, Type: t} }
func Reassign(id syntax.SyntaxId, idx int) Assertion {
	return Assertion{Kind: KindReassign, ExprId: id, ParamIdx: idx}
}
func Call(id syntax.SyntaxId, paramIdx int) Assertion {
	return Assertion{Kind: KindCall, ExprId: id, ParamIdx: paramIdx}
}
func NeCall(id syntax.SyntaxId, paramIdx int) Assertion {
	return Assertion{Kind: KindNeCall, ExprId: id, ParamIdx: paramIdx}
}

// And combines a and b into a conjunction, flattening nested Ands the way
// the original's `and_assert` does so a chain of `and`s stays a single
// flat list rather than nesting.
func (a Assertion) And(b Assertion) Assertion {
	if a.Kind == KindAnd {
		return Assertion{Kind: KindAnd, List: append(append([]Assertion(nil), a.List...), b)}
	}
	return Assertion{Kind: KindAnd, List: []Assertion{a, b}}
}

// Or combines a and b into a disjunction, with the same flattening as And.
func (a Assertion) Or(b Assertion) Assertion {
	if a.Kind == KindOr {
		return Assertion{Kind: KindOr, List: append(append([]Assertion(nil), a.List...), b)}
	}
	return Assertion{Kind: KindOr, List: []Assertion{a, b}}
}

// GetNegation returns the logical negation of a, or false if a has no
// well-defined negation (spec §4.4 "the false branch installs
// get_negation(assertion), or nothing if the assertion type admits none").
func (a Assertion) GetNegation() (Assertion, bool) {
	switch a.Kind {
	case KindExist:
		return NotExist(), true
	case KindNotExist:
		return Exist(), true
	case KindNarrow:
		return Remove(a.Type), true
	case KindForce:
		return Remove(a.Type), true
	case KindRemove:
		return Narrow(a.Type), true
	case KindAdd:
		return Remove(a.Type), true
	case KindAnd:
		var negs []Assertion
		for _, x := range a.List {
			if n, ok := x.GetNegation(); ok {
				negs = append(negs, n)
			}
		}
		return Assertion{Kind: KindOr, List: negs}, true
	case KindOr:
		var negs []Assertion
		for _, x := range a.List {
			if n, ok := x.GetNegation(); ok {
				negs = append(negs, n)
			}
		}
		return Assertion{Kind: KindAnd, List: negs}, true
	case KindCall:
		return NeCall(a.ExprId, a.ParamIdx), true
	case KindNeCall:
		return Call(a.ExprId, a.ParamIdx), true
	default:
		return Assertion{}, false
	}
}

func (a Assertion) IsReassign() bool { return a.Kind == KindReassign }
func (a Assertion) IsAnd() bool      { return a.Kind == KindAnd }
func (a Assertion) IsOr() bool       { return a.Kind == KindOr }
func (a Assertion) IsExist() bool    { return a.Kind == KindExist }
