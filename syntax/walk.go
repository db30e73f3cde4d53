package syntax

// Visitor is called for every node in a pre-order walk, along with its
// immediate syntactic parent (nil for the file's top-level block). If it
// returns false, children of that node are skipped.
type Visitor func(parent Node, n Node) bool

// Walk performs a pre-order traversal of f, calling visit for every
// statement and expression node. Blocks themselves are not Nodes (they
// don't carry a Kind/SyntaxId in this stand-in tree) and so are not
// visited directly; their statements are.
func Walk(f *File, visit Visitor) {
	if f == nil || f.Body == nil {
		return
	}
	walkBlock(nil, f.Body, visit)
}

func walkBlock(parent Node, b *Block, visit Visitor) {
	if b == nil {
		return
	}
	for _, s := range b.Stats {
		walkStat(parent, s, visit)
	}
}

func walkStat(parent Node, s Stat, visit Visitor) {
	if s == nil || !visit(parent, s) {
		return
	}
	switch st := s.(type) {
	case *LocalStat:
		for _, v := range st.Values {
			walkExpr(st, v, visit)
		}
	case *AssignStat:
		for _, t := range st.Targets {
			walkExpr(st, t, visit)
		}
		for _, v := range st.Values {
			walkExpr(st, v, visit)
		}
	case *CallStat:
		walkExpr(st, st.Call, visit)
	case *FunctionStat:
		walkExpr(st, st.Closure, visit)
	case *LocalFunctionStat:
		walkExpr(st, st.Closure, visit)
	case *IfStat:
		for _, c := range st.Clauses {
			if c.Cond != nil {
				walkExpr(st, c.Cond, visit)
			}
			walkBlock(st, c.Body, visit)
		}
	case *WhileStat:
		walkExpr(st, st.Cond, visit)
		walkBlock(st, st.Body, visit)
	case *RepeatStat:
		walkBlock(st, st.Body, visit)
		walkExpr(st, st.Cond, visit)
	case *ForNumericStat:
		walkExpr(st, st.Start, visit)
		walkExpr(st, st.Stop, visit)
		if st.Step != nil {
			walkExpr(st, st.Step, visit)
		}
		walkBlock(st, st.Body, visit)
	case *ForInStat:
		for _, e := range st.Exprs {
			walkExpr(st, e, visit)
		}
		walkBlock(st, st.Body, visit)
	case *ReturnStat:
		for _, e := range st.Exprs {
			walkExpr(st, e, visit)
		}
	case *DoStat:
		walkBlock(st, st.Body, visit)
	case *BreakStat, *GotoStat, *LabelStat:
		// leaves
	}
}

func walkExpr(parent Node, e Expr, visit Visitor) {
	if e == nil || !visit(parent, e) {
		return
	}
	switch ex := e.(type) {
	case *IndexExpr:
		walkExpr(ex, ex.Prefix, visit)
		if ex.Key != nil {
			walkExpr(ex, ex.Key, visit)
		}
	case *CallExpr:
		walkExpr(ex, ex.Prefix, visit)
		for _, a := range ex.Args {
			walkExpr(ex, a, visit)
		}
	case *BinaryExpr:
		walkExpr(ex, ex.Left, visit)
		walkExpr(ex, ex.Right, visit)
	case *UnaryExpr:
		walkExpr(ex, ex.Operand, visit)
	case *ParenExpr:
		walkExpr(ex, ex.Inner, visit)
	case *TableExpr:
		for _, f := range ex.Fields {
			if f.Key != nil {
				walkExpr(ex, f.Key, visit)
			}
			if f.Value != nil {
				walkExpr(ex, f.Value, visit)
			}
		}
	case *ClosureExpr:
		walkBlock(ex, ex.Body, visit)
	case *NameExpr, *VarargExpr, *NilLiteral, *BoolLiteral, *NumberLiteral, *StringLiteral:
		// leaves
	}
}

// ParentIndex maps every node to its nearest enclosing node (the
// statement or expression Walk passes as its parent), enabling the
// FlowAnalyzer's upward walk (spec §4.4).
type ParentIndex struct {
	parent map[Node]Node
}

// BuildParentIndex walks f once and records parent links for every node.
func BuildParentIndex(f *File) *ParentIndex {
	pi := &ParentIndex{parent: make(map[Node]Node)}
	Walk(f, func(parent Node, n Node) bool {
		if parent != nil {
			pi.parent[n] = parent
		}
		return true
	})
	return pi
}

// Parent returns the nearest enclosing node, or nil at the file's root.
func (pi *ParentIndex) Parent(n Node) Node {
	return pi.parent[n]
}

// EnclosingClosure walks parents until it finds the ClosureExpr that
// lexically contains n, or returns nil at file scope.
func (pi *ParentIndex) EnclosingClosure(n Node) *ClosureExpr {
	for cur := pi.Parent(n); cur != nil; cur = pi.Parent(cur) {
		if c, ok := cur.(*ClosureExpr); ok {
			return c
		}
	}
	return nil
}
