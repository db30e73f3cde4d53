package diagnostic

import "github.com/emmylua-ls/emmylua-core/syntax"

// visitor is the callback set a check registers before walking a file.
// Every callback is optional; nil callbacks are simply not invoked. This
// centralizes the statement/expression traversal checks need (each check
// only cares about one or two node kinds) the same way the teacher's
// scope_tracker.go centralizes template-AST walking for every validator.
type visitor struct {
	stat       func(syntax.Stat)
	expr       func(syntax.Expr)
	tableField func(owner *syntax.TableExpr, field syntax.TableField)
}

func walkFile(f *syntax.File, v *visitor) {
	walkBlock(f.Body, v)
}

func walkBlock(b *syntax.Block, v *visitor) {
	if b == nil {
		return
	}
	for _, s := range b.Stats {
		walkStat(s, v)
	}
}

func walkStat(s syntax.Stat, v *visitor) {
	if s == nil {
		return
	}
	if v.stat != nil {
		v.stat(s)
	}
	switch st := s.(type) {
	case *syntax.LocalStat:
		for _, e := range st.Values {
			walkExpr(e, v)
		}
	case *syntax.AssignStat:
		for _, t := range st.Targets {
			// A plain-name target is a write, not a read: DeclAnalyzer
			// registers it as a global on first assignment (decl.go
			// registerNameWrite), so it must never trip undefined-global.
			// Dotted/indexed targets (`a.b = ...`) still have their own
			// Prefix read, so those recurse normally.
			if _, ok := t.(*syntax.NameExpr); ok {
				continue
			}
			walkExpr(t, v)
		}
		for _, e := range st.Values {
			walkExpr(e, v)
		}
	case *syntax.CallStat:
		walkExpr(st.Call, v)
	case *syntax.FunctionStat:
		walkExpr(st.Closure, v)
	case *syntax.LocalFunctionStat:
		walkExpr(st.Closure, v)
	case *syntax.IfStat:
		for _, c := range st.Clauses {
			if c.Cond != nil {
				walkExpr(c.Cond, v)
			}
			walkBlock(c.Body, v)
		}
	case *syntax.WhileStat:
		walkExpr(st.Cond, v)
		walkBlock(st.Body, v)
	case *syntax.RepeatStat:
		walkBlock(st.Body, v)
		walkExpr(st.Cond, v)
	case *syntax.ForNumericStat:
		walkExpr(st.Start, v)
		walkExpr(st.Stop, v)
		if st.Step != nil {
			walkExpr(st.Step, v)
		}
		walkBlock(st.Body, v)
	case *syntax.ForInStat:
		for _, e := range st.Exprs {
			walkExpr(e, v)
		}
		walkBlock(st.Body, v)
	case *syntax.ReturnStat:
		for _, e := range st.Exprs {
			walkExpr(e, v)
		}
	case *syntax.DoStat:
		walkBlock(st.Body, v)
	}
}

func walkExpr(e syntax.Expr, v *visitor) {
	if e == nil {
		return
	}
	if v.expr != nil {
		v.expr(e)
	}
	switch ex := e.(type) {
	case *syntax.IndexExpr:
		walkExpr(ex.Prefix, v)
		if ex.Key != nil {
			walkExpr(ex.Key, v)
		}
	case *syntax.CallExpr:
		walkExpr(ex.Prefix, v)
		for _, a := range ex.Args {
			walkExpr(a, v)
		}
	case *syntax.BinaryExpr:
		walkExpr(ex.Left, v)
		walkExpr(ex.Right, v)
	case *syntax.UnaryExpr:
		walkExpr(ex.Operand, v)
	case *syntax.ParenExpr:
		walkExpr(ex.Inner, v)
	case *syntax.TableExpr:
		for _, f := range ex.Fields {
			if v.tableField != nil {
				v.tableField(ex, f)
			}
			if f.Key != nil {
				walkExpr(f.Key, v)
			}
			if f.Value != nil {
				walkExpr(f.Value, v)
			}
		}
	case *syntax.ClosureExpr:
		walkBlock(ex.Body, v)
	}
}
