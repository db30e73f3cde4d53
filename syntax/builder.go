package syntax

// Builder assembles syntax trees by hand. It exists because this module
// has no lexer/parser of its own (spec §1 treats that as an external
// collaborator); Builder lets tests and any future parser's output layer
// construct the stand-in tree this package defines.
//
// Positions are assigned monotonically as nodes are built, in the order
// Next is called, so callers that build a tree depth-first get believable,
// strictly increasing ranges without having to track offsets themselves.
type Builder struct {
	file FileId
	pos  Position
}

// NewBuilder starts a builder for the named file.
func NewBuilder(file FileId) *Builder {
	return &Builder{file: file}
}

// Next reserves a span of n bytes and returns its range.
func (b *Builder) Next(n int) Range {
	r := Range{Start: b.pos, End: b.pos + Position(n)}
	b.pos += Position(n)
	return r
}

// Pos returns the current write cursor, useful for computing a Position
// to query (e.g. "infer the type of x right here").
func (b *Builder) Pos() Position { return b.pos }

func (b *Builder) base(k Kind, n int) baseNode {
	return baseNode{Kind: k, Range: b.Next(n)}
}

func (b *Builder) Name(name string) *NameExpr {
	return &NameExpr{baseNode: b.base(KindNameExpr, len(name)), Name: name}
}

func (b *Builder) Dot(prefix Expr, name string) *IndexExpr {
	return &IndexExpr{baseNode: b.base(KindIndexExpr, len(name)+1), Prefix: prefix, Name: name, NamePos: b.pos}
}

func (b *Builder) Index(prefix Expr, key Expr) *IndexExpr {
	return &IndexExpr{baseNode: b.base(KindIndexExpr, 2), Prefix: prefix, Key: key}
}

func (b *Builder) Call(prefix Expr, args ...Expr) *CallExpr {
	return &CallExpr{baseNode: b.base(KindCallExpr, 2), Prefix: prefix, Args: args}
}

func (b *Builder) MethodCall(prefix Expr, method string, args ...Expr) *CallExpr {
	return &CallExpr{baseNode: b.base(KindCallExpr, len(method)+2), Prefix: prefix, Args: args, IsMethod: true, MethodName: method}
}

func (b *Builder) Binary(op BinOp, l, r Expr) *BinaryExpr {
	return &BinaryExpr{baseNode: b.base(KindBinaryExpr, 2), Op: op, Left: l, Right: r}
}

func (b *Builder) Unary(op UnOp, e Expr) *UnaryExpr {
	return &UnaryExpr{baseNode: b.base(KindUnaryExpr, 1), Op: op, Operand: e}
}

func (b *Builder) Paren(e Expr) *ParenExpr {
	return &ParenExpr{baseNode: b.base(KindParenExpr, 2), Inner: e}
}

func (b *Builder) Nil() *NilLiteral { return &NilLiteral{baseNode: b.base(KindNilLiteral, 3)} }

func (b *Builder) Bool(v bool) *BoolLiteral {
	n := 5
	if v {
		n = 4
	}
	return &BoolLiteral{baseNode: b.base(KindTrueLiteral, n), Value: v}
}

func (b *Builder) Int(v int64) *NumberLiteral {
	return &NumberLiteral{baseNode: b.base(KindNumberLiteral, 1), IsInt: true, IntVal: v}
}

func (b *Builder) Float(v float64) *NumberLiteral {
	return &NumberLiteral{baseNode: b.base(KindNumberLiteral, 1), IsInt: false, FloatVal: v}
}

func (b *Builder) String(v string) *StringLiteral {
	return &StringLiteral{baseNode: b.base(KindStringLiteral, len(v)+2), Value: v}
}

func (b *Builder) Vararg() *VarargExpr { return &VarargExpr{baseNode: b.base(KindVarargExpr, 3)} }

func (b *Builder) Table(fields ...TableField) *TableExpr {
	return &TableExpr{baseNode: b.base(KindTableExpr, 2), Fields: fields}
}

func (b *Builder) PositionalField(v Expr) TableField {
	return TableField{Kind: TableFieldPositional, Value: v}
}

func (b *Builder) NamedField(name string, v Expr) TableField {
	return TableField{Kind: TableFieldNamed, Name: name, NamePos: b.pos, Value: v}
}

func (b *Builder) KeyedField(k, v Expr) TableField {
	return TableField{Kind: TableFieldKeyed, Key: k, Value: v}
}

func (b *Builder) Closure(colon bool, params []Param, vararg bool, docs []Comment, body *Block) *ClosureExpr {
	return &ClosureExpr{
		baseNode:   b.base(KindClosureExpr, 8),
		Docs:       docs,
		Params:     params,
		HasVararg:  vararg,
		IsColonDef: colon,
		Body:       body,
	}
}

func (b *Builder) Param(name string) Param {
	p := Param{Name: name, NamePos: b.pos}
	b.Next(len(name))
	return p
}

func (b *Builder) Block(stats ...Stat) *Block {
	start := b.pos
	return &Block{Range: Range{Start: start, End: b.pos}, Stats: stats}
}

// CloseBlock finalizes a block's End position to the builder's current
// cursor (Block itself leaves Start and End equal).
func (b *Builder) CloseBlock(blk *Block) *Block {
	blk.Range.End = b.pos
	return blk
}

func (b *Builder) Local(docs []Comment, values []Expr, names ...string) *LocalStat {
	ln := make([]LocalName, len(names))
	for i, n := range names {
		ln[i] = LocalName{Name: n, NamePos: b.pos}
		b.Next(len(n))
	}
	return &LocalStat{baseNode: b.base(KindLocalStat, 6), Docs: docs, Names: ln, Values: values}
}

func (b *Builder) Assign(targets, values []Expr) *AssignStat {
	return &AssignStat{baseNode: b.base(KindAssignStat, 1), Targets: targets, Values: values}
}

func (b *Builder) CallStat(call *CallExpr) *CallStat {
	return &CallStat{baseNode: b.base(KindCallStat, 1), Call: call}
}

func (b *Builder) LocalFunction(docs []Comment, name string, closure *ClosureExpr) *LocalFunctionStat {
	pos := b.pos
	b.Next(len(name))
	return &LocalFunctionStat{baseNode: b.base(KindLocalFunctionStat, 1), Docs: docs, Name: name, NamePos: pos, Closure: closure}
}

func (b *Builder) Function(docs []Comment, namePath []string, isMethod bool, closure *ClosureExpr) *FunctionStat {
	pos := b.pos
	return &FunctionStat{baseNode: b.base(KindFunctionStat, 1), Docs: docs, NamePath: namePath, IsMethod: isMethod, NamePos: pos, Closure: closure}
}

func (b *Builder) If(clauses ...IfClause) *IfStat {
	return &IfStat{baseNode: b.base(KindIfStat, 2), Clauses: clauses}
}

func (b *Builder) While(cond Expr, body *Block) *WhileStat {
	return &WhileStat{baseNode: b.base(KindWhileStat, 5), Cond: cond, Body: body}
}

func (b *Builder) Repeat(body *Block, cond Expr) *RepeatStat {
	return &RepeatStat{baseNode: b.base(KindRepeatStat, 6), Body: body, Cond: cond}
}

func (b *Builder) ForNumeric(docs []Comment, varName string, start, stop, step Expr, body *Block) *ForNumericStat {
	pos := b.pos
	b.Next(len(varName))
	return &ForNumericStat{baseNode: b.base(KindForNumericStat, 3), Docs: docs, VarName: varName, VarPos: pos, Start: start, Stop: stop, Step: step, Body: body}
}

func (b *Builder) ForIn(docs []Comment, names []string, exprs []Expr, body *Block) *ForInStat {
	ln := make([]LocalName, len(names))
	for i, n := range names {
		ln[i] = LocalName{Name: n, NamePos: b.pos}
		b.Next(len(n))
	}
	return &ForInStat{baseNode: b.base(KindForInStat, 3), Docs: docs, Names: ln, Exprs: exprs, Body: body}
}

func (b *Builder) Return(exprs ...Expr) *ReturnStat {
	return &ReturnStat{baseNode: b.base(KindReturnStat, 6), Exprs: exprs}
}

func (b *Builder) Break() *BreakStat { return &BreakStat{baseNode: b.base(KindBreakStat, 5)} }

func (b *Builder) Do(body *Block) *DoStat {
	return &DoStat{baseNode: b.base(KindDoStat, 2), Body: body}
}

func (b *Builder) File(body *Block) *File {
	return &File{Id: b.file, Body: body}
}

// Doc builds a single doc-comment line, e.g. Doc("@param x number").
func (b *Builder) Doc(text string) Comment {
	r := b.Next(len(text) + 3)
	return Comment{Range: r, Text: text, IsDoc: true}
}
