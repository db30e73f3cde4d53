// Package syntax defines the input surface consumed by the analysis
// pipeline: a parsed Lua file as a small node tree (there is no token type).
//
// The real EmmyLua lexer/parser is an external collaborator and is not
// part of this module (see SPEC_FULL.md §3). This package defines the
// stand-in tree shape the rest of the engine is built against, plus a
// Builder used to assemble trees by hand (tests, and any future real
// parser's output layer).
package syntax

import "fmt"

// FileId identifies a source file within one analysis session. Stable for
// the lifetime of the session; never reused after a file is removed.
type FileId string

// Position is a byte offset within one file's source text.
type Position int

// Range is a half-open [Start, End) span of positions within one file.
type Range struct {
	Start Position
	End   Position
}

// Contains reports whether r strictly contains the given position, i.e.
// Start < p < End. Used by flow-chain lookups (spec invariant 7: assertion
// ranges strictly contain the use position).
func (r Range) Contains(p Position) bool {
	return r.Start < p && p < r.End
}

// Covers reports whether r contains p inclusively on the left, matching
// "applies at or after its start" semantics used for decl visibility.
func (r Range) Covers(p Position) bool {
	return r.Start <= p && p < r.End
}

func (r Range) String() string {
	return fmt.Sprintf("[%d,%d)", r.Start, r.End)
}

// Kind enumerates node and token kinds in the stand-in tree.
type Kind uint8

const (
	KindInvalid Kind = iota

	KindFile
	KindBlock

	// Statements
	KindLocalStat
	KindAssignStat
	KindCallStat
	KindFunctionStat       // function Name.path(...) ... end / function Name:m(...) ... end
	KindLocalFunctionStat  // local function Name(...) ... end
	KindIfStat
	KindElseIfClause
	KindWhileStat
	KindRepeatStat
	KindForNumericStat
	KindForInStat
	KindReturnStat
	KindBreakStat
	KindDoStat
	KindGotoStat
	KindLabelStat

	// Expressions
	KindNameExpr
	KindIndexExpr
	KindCallExpr
	KindBinaryExpr
	KindUnaryExpr
	KindParenExpr
	KindTableExpr
	KindClosureExpr
	KindVarargExpr

	// Literals
	KindNilLiteral
	KindTrueLiteral
	KindFalseLiteral
	KindNumberLiteral
	KindStringLiteral

	// Misc
	KindTableField
	KindParam
	KindDocTag // a single `---@...` annotation line, addressed by its Comment.Range
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "File"
	case KindBlock:
		return "Block"
	case KindLocalStat:
		return "LocalStat"
	case KindAssignStat:
		return "AssignStat"
	case KindCallStat:
		return "CallStat"
	case KindFunctionStat:
		return "FunctionStat"
	case KindLocalFunctionStat:
		return "LocalFunctionStat"
	case KindIfStat:
		return "IfStat"
	case KindElseIfClause:
		return "ElseIfClause"
	case KindWhileStat:
		return "WhileStat"
	case KindRepeatStat:
		return "RepeatStat"
	case KindForNumericStat:
		return "ForNumericStat"
	case KindForInStat:
		return "ForInStat"
	case KindReturnStat:
		return "ReturnStat"
	case KindBreakStat:
		return "BreakStat"
	case KindDoStat:
		return "DoStat"
	case KindGotoStat:
		return "GotoStat"
	case KindLabelStat:
		return "LabelStat"
	case KindNameExpr:
		return "NameExpr"
	case KindIndexExpr:
		return "IndexExpr"
	case KindCallExpr:
		return "CallExpr"
	case KindBinaryExpr:
		return "BinaryExpr"
	case KindUnaryExpr:
		return "UnaryExpr"
	case KindParenExpr:
		return "ParenExpr"
	case KindTableExpr:
		return "TableExpr"
	case KindClosureExpr:
		return "ClosureExpr"
	case KindVarargExpr:
		return "VarargExpr"
	case KindNilLiteral:
		return "NilLiteral"
	case KindTrueLiteral:
		return "TrueLiteral"
	case KindFalseLiteral:
		return "FalseLiteral"
	case KindNumberLiteral:
		return "NumberLiteral"
	case KindStringLiteral:
		return "StringLiteral"
	case KindTableField:
		return "TableField"
	case KindParam:
		return "Param"
	case KindDocTag:
		return "DocTag"
	default:
		return "Invalid"
	}
}

// SyntaxId is a (kind, range) pair that addresses a single node or token
// inside one file's tree; stable across re-parses as long as the range is
// stable (spec §3).
type SyntaxId struct {
	Kind  Kind
	Range Range
}

func (id SyntaxId) String() string {
	return fmt.Sprintf("%s%s", id.Kind, id.Range)
}
