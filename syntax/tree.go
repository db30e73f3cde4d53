package syntax

// BinOp enumerates binary operators relevant to type inference and
// operator-overload dispatch.
type BinOp uint8

const (
	OpInvalid BinOp = iota
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpIDiv
	OpMod
	OpPow
	OpConcat
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd
	OpOr
	OpBAnd
	OpBOr
	OpBXor
	OpShl
	OpShr
)

// UnOp enumerates unary operators.
type UnOp uint8

const (
	UnInvalid UnOp = iota
	UnNot
	UnNeg
	UnLen
	UnBNot
)

// Comment is a single doc-comment line attached ahead of a statement, e.g.
// "---@param x number".
type Comment struct {
	Range Range
	Text  string // text following the leading "---" (or "--", for plain comments)
	IsDoc bool   // true for "---" style comments carrying annotation tags
}

// File is the root of one source file's tree.
type File struct {
	Id   FileId
	Body *Block
}

// Block is a sequence of statements sharing one lexical scope unless a
// statement itself introduces a nested scope (if/while/for/function body).
type Block struct {
	Range Range
	Stats []Stat
}

// Node is implemented by every statement and expression node; it exposes
// enough to let index/flow code walk the tree generically.
type Node interface {
	SyntaxId() SyntaxId
	NodeRange() Range
}

// Stat is implemented by every statement kind.
type Stat interface {
	Node
	stat()
}

// Expr is implemented by every expression kind.
type Expr interface {
	Node
	expr()
}

type baseNode struct {
	Range Range
	Kind  Kind
}

func (b baseNode) SyntaxId() SyntaxId   { return SyntaxId{Kind: b.Kind, Range: b.Range} }
func (b baseNode) NodeRange() Range     { return b.Range }

// --- Statements ---

// LocalName is one name in a `local a, b, c = ...` statement. It carries no
// type; doc-derived types are recorded on the matching index.Decl.
type LocalName struct {
	Name     string
	NamePos  Position
	Attrib   string // Lua 5.4 <const>/<close>, empty otherwise
}

type LocalStat struct {
	baseNode
	Docs    []Comment
	Names   []LocalName
	Values  []Expr
}

func (*LocalStat) stat() {}

type AssignStat struct {
	baseNode
	Docs    []Comment
	Targets []Expr // NameExpr or IndexExpr
	Values  []Expr
}

func (*AssignStat) stat() {}

type CallStat struct {
	baseNode
	Call *CallExpr
}

func (*CallStat) stat() {}

// FunctionStat is `function a.b.c(...) ... end` or `function a:m(...) ... end`.
type FunctionStat struct {
	baseNode
	Docs       []Comment
	NamePath   []string // dotted/colon path, e.g. ["a","b","c"]
	IsMethod   bool     // defined with ':' (implicit self)
	NamePos    Position
	Closure    *ClosureExpr
}

func (*FunctionStat) stat() {}

// LocalFunctionStat is `local function Name(...) ... end`.
type LocalFunctionStat struct {
	baseNode
	Docs    []Comment
	Name    string
	NamePos Position
	Closure *ClosureExpr
}

func (*LocalFunctionStat) stat() {}

type IfClause struct {
	Cond Expr // nil for the trailing else
	Body *Block
}

type IfStat struct {
	baseNode
	Clauses []IfClause // first is "if", remainder are "elseif"/"else"
}

func (*IfStat) stat() {}

type WhileStat struct {
	baseNode
	Cond Expr
	Body *Block
}

func (*WhileStat) stat() {}

type RepeatStat struct {
	baseNode
	Body *Block
	Cond Expr // evaluated in Body's scope
}

func (*RepeatStat) stat() {}

type ForNumericStat struct {
	baseNode
	Docs     []Comment
	VarName  string
	VarPos   Position
	Start    Expr
	Stop     Expr
	Step     Expr // nil if omitted
	Body     *Block
}

func (*ForNumericStat) stat() {}

type ForInStat struct {
	baseNode
	Docs    []Comment
	Names   []LocalName
	Exprs   []Expr
	Body    *Block
}

func (*ForInStat) stat() {}

type ReturnStat struct {
	baseNode
	Exprs []Expr
}

func (*ReturnStat) stat() {}

type BreakStat struct{ baseNode }

func (*BreakStat) stat() {}

type DoStat struct {
	baseNode
	Body *Block
}

func (*DoStat) stat() {}

type GotoStat struct {
	baseNode
	Label string
}

func (*GotoStat) stat() {}

type LabelStat struct {
	baseNode
	Label string
}

func (*LabelStat) stat() {}

// --- Expressions ---

type NameExpr struct {
	baseNode
	Name string
}

func (*NameExpr) expr() {}

type IndexExpr struct {
	baseNode
	Prefix Expr
	// Exactly one of Name (dot/colon access) or Key (bracket access) is set.
	Name    string
	NamePos Position
	Key     Expr
}

func (*IndexExpr) expr() {}

type CallExpr struct {
	baseNode
	Prefix   Expr
	Args     []Expr
	IsMethod bool   // a:m(...) sugar; Prefix is the object, MethodName is m
	MethodName string
}

func (*CallExpr) expr() {}

type BinaryExpr struct {
	baseNode
	Op    BinOp
	Left  Expr
	Right Expr
}

func (*BinaryExpr) expr() {}

type UnaryExpr struct {
	baseNode
	Op      UnOp
	Operand Expr
}

func (*UnaryExpr) expr() {}

type ParenExpr struct {
	baseNode
	Inner Expr
}

func (*ParenExpr) expr() {}

type TableFieldKind uint8

const (
	TableFieldPositional TableFieldKind = iota // { expr, expr }
	TableFieldNamed                            // { name = expr }
	TableFieldKeyed                            // { [expr] = expr }
)

type TableField struct {
	Range   Range
	Kind    TableFieldKind
	Name    string
	NamePos Position
	Key     Expr
	Value   Expr
}

type TableExpr struct {
	baseNode
	Fields []TableField
}

func (*TableExpr) expr() {}

// Param is one parameter of a closure. It carries no type; a matching
// `---@param` tag's type is recorded on the closure's index.Signature.
type Param struct {
	Name    string
	NamePos Position
	IsVararg bool
}

// ClosureExpr is an anonymous function value; FunctionStat and
// LocalFunctionStat both wrap one.
type ClosureExpr struct {
	baseNode
	Docs       []Comment
	Params     []Param
	HasVararg  bool
	IsColonDef bool // declared with ':' -> implicit leading self param
	Body       *Block
}

func (*ClosureExpr) expr() {}

type VarargExpr struct{ baseNode }

func (*VarargExpr) expr() {}

type NilLiteral struct{ baseNode }

func (*NilLiteral) expr() {}

type BoolLiteral struct {
	baseNode
	Value bool
}

func (*BoolLiteral) expr() {}

type NumberLiteral struct {
	baseNode
	IsInt   bool
	IntVal  int64
	FloatVal float64
}

func (*NumberLiteral) expr() {}

type StringLiteral struct {
	baseNode
	Value string
}

func (*StringLiteral) expr() {}
