package analysis

import (
	"strings"

	"github.com/emmylua-ls/emmylua-core/flow"
	"github.com/emmylua-ls/emmylua-core/index"
	"github.com/emmylua-ls/emmylua-core/semantic"
	"github.com/emmylua-ls/emmylua-core/syntax"
	"github.com/emmylua-ls/emmylua-core/types"
)

// FlowAnalyzer is Phase 4 (spec §4.4): it walks every if/while/repeat
// condition, records the TypeAssertion each branch installs into the
// FlowIndex over that branch body's range, and applies `---@cast` tags
// (deferred here from DocAnalyzer, since both need the same "from this
// statement to the end of its enclosing block" range computation).
// Grounded on original_source's flow-builder walking the AST alongside its
// binder, generalized from that walker's shape rather than copied line for
// line (the original interleaves this with control-flow-graph construction
// this engine doesn't build).
type FlowAnalyzer struct {
	Model *semantic.Model
	Types *index.TypeIndex
}

func (a *FlowAnalyzer) Run(f *syntax.File) {
	w := &flowWalk{file: f.Id, model: a.Model, types: a.Types}
	w.scope = syntax.SyntaxId{Kind: syntax.KindFile, Range: f.Body.Range}
	w.walkBlock(f.Body)
}

type flowWalk struct {
	file  syntax.FileId
	model *semantic.Model
	types *index.TypeIndex
	scope syntax.SyntaxId
}

func (w *flowWalk) walkBlock(b *syntax.Block) {
	if b == nil {
		return
	}
	for _, st := range b.Stats {
		w.walkStat(st)
		w.applyCast(st, b)
	}
}

func (w *flowWalk) walkStat(st syntax.Stat) {
	switch s := st.(type) {
	case *syntax.IfStat:
		w.walkIf(s)
	case *syntax.WhileStat:
		if a, ref, ok := w.assertionFor(s.Cond); ok {
			w.model.Flows.AddEntry(w.file, w.scope, ref, index.FlowEntry{Range: s.Body.Range, Assertion: a})
		}
		w.walkBlock(s.Body)
	case *syntax.RepeatStat:
		w.walkBlock(s.Body)
		// the condition is evaluated inside Body's own scope (Lua's
		// `repeat...until cond` can see Body's locals), so it narrows Body
		// itself rather than anything after it.
		if a, ref, ok := w.assertionFor(s.Cond); ok {
			w.model.Flows.AddEntry(w.file, w.scope, ref, index.FlowEntry{Range: s.Body.Range, Assertion: a})
		}
	case *syntax.ForNumericStat:
		w.walkBlock(s.Body)
	case *syntax.ForInStat:
		w.walkBlock(s.Body)
	case *syntax.DoStat:
		w.walkBlock(s.Body)
	case *syntax.FunctionStat:
		w.walkClosure(s.Closure)
	case *syntax.LocalFunctionStat:
		w.walkClosure(s.Closure)
	case *syntax.LocalStat:
		for _, v := range s.Values {
			w.walkExpr(v)
		}
	case *syntax.AssignStat:
		for _, v := range s.Values {
			w.walkExpr(v)
		}
	case *syntax.CallStat:
		w.walkExpr(s.Call)
	case *syntax.ReturnStat:
		for _, e := range s.Exprs {
			w.walkExpr(e)
		}
	}
}

// walkExpr descends into nested closures (each gets its own flow scope)
// and table constructors, since either can contain its own if/while.
func (w *flowWalk) walkExpr(e syntax.Expr) {
	switch ex := e.(type) {
	case *syntax.ClosureExpr:
		w.walkClosure(ex)
	case *syntax.CallExpr:
		w.walkExpr(ex.Prefix)
		for _, arg := range ex.Args {
			w.walkExpr(arg)
		}
	case *syntax.BinaryExpr:
		w.walkExpr(ex.Left)
		w.walkExpr(ex.Right)
	case *syntax.UnaryExpr:
		w.walkExpr(ex.Operand)
	case *syntax.ParenExpr:
		w.walkExpr(ex.Inner)
	case *syntax.IndexExpr:
		w.walkExpr(ex.Prefix)
		if ex.Key != nil {
			w.walkExpr(ex.Key)
		}
	case *syntax.TableExpr:
		for _, f := range ex.Fields {
			if f.Value != nil {
				w.walkExpr(f.Value)
			}
		}
	}
}

func (w *flowWalk) walkClosure(c *syntax.ClosureExpr) {
	if c == nil {
		return
	}
	outer := w.scope
	w.scope = c.SyntaxId()
	w.walkBlock(c.Body)
	w.scope = outer
}

// walkIf records each clause's assertion over its own body, and the
// conjunction of every prior clause's negation over the clauses that
// follow it — so an `elseif`/`else` branch narrows as if every earlier
// condition had been false. Negations accumulate only across consecutive
// clauses that test the same variable; a clause on a different variable
// starts a new run, so one variable's negation is never applied to another.
func (w *flowWalk) walkIf(s *syntax.IfStat) {
	var priorNegations []flow.Assertion
	var priorRef index.VarRefId
	havePrior := false
	for _, c := range s.Clauses {
		if c.Cond != nil {
			w.walkExpr(c.Cond)
			if a, ref, ok := w.assertionFor(c.Cond); ok {
				combined := a
				if havePrior && priorRef == ref {
					for _, neg := range priorNegations {
						combined = combined.And(neg)
					}
				}
				w.model.Flows.AddEntry(w.file, w.scope, ref, index.FlowEntry{Range: c.Body.Range, Assertion: combined})
				if neg, ok := a.GetNegation(); ok {
					if havePrior && priorRef != ref {
						priorNegations = nil
					}
					priorNegations = append(priorNegations, neg)
					priorRef = ref
					havePrior = true
				}
			} else {
				priorNegations = nil
				havePrior = false
			}
		} else if havePrior {
			combined := priorNegations[0]
			for _, neg := range priorNegations[1:] {
				combined = combined.And(neg)
			}
			w.model.Flows.AddEntry(w.file, w.scope, priorRef, index.FlowEntry{Range: c.Body.Range, Assertion: combined})
		}
		w.walkBlock(c.Body)
	}
}

// assertionFor recognizes the small set of condition shapes spec §4.4
// calls out: a bare truthy reference, `not x`, `x == nil`/`x ~= nil` (and
// the literal reversed), `type(x) == "kind"`, and `and`/`or` composition of
// any of the above over the same variable.
func (w *flowWalk) assertionFor(cond syntax.Expr) (flow.Assertion, index.VarRefId, bool) {
	switch e := cond.(type) {
	case *syntax.NameExpr:
		ref, ok := w.refFor(e)
		if !ok {
			return flow.Assertion{}, index.VarRefId{}, false
		}
		return flow.Exist(), ref, true
	case *syntax.ParenExpr:
		return w.assertionFor(e.Inner)
	case *syntax.UnaryExpr:
		if e.Op != syntax.UnNot {
			return flow.Assertion{}, index.VarRefId{}, false
		}
		a, ref, ok := w.assertionFor(e.Operand)
		if !ok {
			return flow.Assertion{}, index.VarRefId{}, false
		}
		neg, ok := a.GetNegation()
		if !ok {
			return flow.Assertion{}, index.VarRefId{}, false
		}
		return neg, ref, true
	case *syntax.BinaryExpr:
		return w.assertionForBinary(e)
	}
	return flow.Assertion{}, index.VarRefId{}, false
}

func (w *flowWalk) assertionForBinary(e *syntax.BinaryExpr) (flow.Assertion, index.VarRefId, bool) {
	switch e.Op {
	case syntax.OpAnd:
		la, lref, lok := w.assertionFor(e.Left)
		ra, rref, rok := w.assertionFor(e.Right)
		switch {
		case lok && rok && lref == rref:
			return la.And(ra), lref, true
		case lok:
			return la, lref, true
		case rok:
			return ra, rref, true
		}
		return flow.Assertion{}, index.VarRefId{}, false
	case syntax.OpOr:
		la, lref, lok := w.assertionFor(e.Left)
		ra, rref, rok := w.assertionFor(e.Right)
		if lok && rok && lref == rref {
			return la.Or(ra), lref, true
		}
		return flow.Assertion{}, index.VarRefId{}, false
	case syntax.OpEq, syntax.OpNe:
		if a, ref, ok := w.nilCompare(e); ok {
			return a, ref, true
		}
		return w.typeOfCompare(e)
	}
	return flow.Assertion{}, index.VarRefId{}, false
}

func (w *flowWalk) nilCompare(e *syntax.BinaryExpr) (flow.Assertion, index.VarRefId, bool) {
	name := asNameWithNilOther(e.Left, e.Right)
	if name == nil {
		name = asNameWithNilOther(e.Right, e.Left)
	}
	if name == nil {
		return flow.Assertion{}, index.VarRefId{}, false
	}
	ref, ok := w.refFor(name)
	if !ok {
		return flow.Assertion{}, index.VarRefId{}, false
	}
	if e.Op == syntax.OpEq {
		return flow.NotExist(), ref, true
	}
	return flow.Exist(), ref, true
}

func asNameWithNilOther(a, b syntax.Expr) *syntax.NameExpr {
	ne, ok := a.(*syntax.NameExpr)
	if !ok {
		return nil
	}
	if _, ok := b.(*syntax.NilLiteral); !ok {
		return nil
	}
	return ne
}

// typeOfCompare recognizes `type(x) == "string"` style guards, narrowing x
// to the primitive type the literal names.
func (w *flowWalk) typeOfCompare(e *syntax.BinaryExpr) (flow.Assertion, index.VarRefId, bool) {
	call, lit := asTypeCallAndLiteral(e.Left, e.Right)
	if call == nil {
		call, lit = asTypeCallAndLiteral(e.Right, e.Left)
	}
	if call == nil || lit == nil {
		return flow.Assertion{}, index.VarRefId{}, false
	}
	name, ok := call.Args[0].(*syntax.NameExpr)
	if !ok {
		return flow.Assertion{}, index.VarRefId{}, false
	}
	ref, ok := w.refFor(name)
	if !ok {
		return flow.Assertion{}, index.VarRefId{}, false
	}
	prim, ok := luaTypeName(lit.Value)
	if !ok {
		return flow.Assertion{}, index.VarRefId{}, false
	}
	if e.Op == syntax.OpEq {
		return flow.Narrow(prim), ref, true
	}
	return flow.Remove(prim), ref, true
}

func asTypeCallAndLiteral(a, b syntax.Expr) (*syntax.CallExpr, *syntax.StringLiteral) {
	call, ok := a.(*syntax.CallExpr)
	if !ok || call.IsMethod || len(call.Args) != 1 {
		return nil, nil
	}
	fn, ok := call.Prefix.(*syntax.NameExpr)
	if !ok || fn.Name != "type" {
		return nil, nil
	}
	lit, ok := b.(*syntax.StringLiteral)
	if !ok {
		return nil, nil
	}
	return call, lit
}

func luaTypeName(s string) (types.Type, bool) {
	switch s {
	case "nil":
		return types.Nil, true
	case "boolean":
		return types.Boolean, true
	case "number":
		return types.Number, true
	case "string":
		return types.String, true
	case "table":
		return types.Table, true
	case "function":
		return types.Function, true
	case "thread":
		return types.Thread, true
	case "userdata":
		return types.Userdata, true
	default:
		return nil, false
	}
}

func (w *flowWalk) refFor(ne *syntax.NameExpr) (index.VarRefId, bool) {
	return w.refAt(ne.Name, ne.NodeRange().Start)
}

func (w *flowWalk) refAt(name string, pos syntax.Position) (index.VarRefId, bool) {
	d, ok := w.model.Decls.FindVisibleDecl(w.file, name, pos)
	if !ok {
		d, ok = w.model.Decls.GetGlobalDecl(name)
	}
	if !ok {
		return index.VarRefId{}, false
	}
	return index.VarRefId{Decl: d.Id}, true
}

// applyCast installs a `---@cast name [+|-]Type` tag found on st, narrowing
// name from st's position to the end of the block it appears in (spec §6
// `@cast`; deferred here from DocAnalyzer since it needs this same
// rest-of-block range computation the branch-narrowing code above already
// does).
func (w *flowWalk) applyCast(st syntax.Stat, block *syntax.Block) {
	docs := leadingDocs(st)
	if len(docs) == 0 {
		return
	}
	for _, t := range parseTags(docs) {
		if t.Name != "cast" {
			continue
		}
		name, rest := field(t.Rest)
		ref, ok := w.refAt(name, st.NodeRange().Start)
		if !ok {
			continue
		}
		op, typeExpr := "", rest
		if strings.HasPrefix(rest, "+") || strings.HasPrefix(rest, "-") {
			op, typeExpr = rest[:1], strings.TrimSpace(rest[1:])
		}
		tc := &typeCtx{internName: w.types.Intern}
		typ := parseTypeExpr(typeExpr, tc)
		var a flow.Assertion
		switch op {
		case "+":
			a = flow.Add(typ)
		case "-":
			a = flow.Remove(typ)
		default:
			a = flow.Force(typ)
		}
		restRange := syntax.Range{Start: st.NodeRange().Start, End: block.Range.End}
		w.model.Flows.AddEntry(w.file, w.scope, ref, index.FlowEntry{Range: restRange, Assertion: a})
	}
}
