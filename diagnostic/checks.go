package diagnostic

import (
	"sort"
	"strings"

	"github.com/emmylua-ls/emmylua-core/ids"
	"github.com/emmylua-ls/emmylua-core/index"
	"github.com/emmylua-ls/emmylua-core/semantic"
	"github.com/emmylua-ls/emmylua-core/syntax"
	"github.com/emmylua-ls/emmylua-core/types"
)

// declTypeAtDecl reads back the type committed to the declaration created
// exactly at pos (a `local x` name's own position).
func declTypeAtDecl(m *semantic.Model, file syntax.FileId, pos syntax.Position) types.Type {
	tree, ok := m.Decls.Tree(file)
	if !ok {
		return nil
	}
	d, ok := tree.DeclByPos(pos)
	if !ok {
		return nil
	}
	return d.Type
}

// declTypeForName resolves name as it would be seen at pos (innermost
// local, else a registered global) and returns its declared type.
func declTypeForName(m *semantic.Model, file syntax.FileId, name string, pos syntax.Position) types.Type {
	if d, ok := m.Decls.FindVisibleDecl(file, name, pos); ok {
		return d.Type
	}
	if d, ok := m.Decls.GetGlobalDecl(name); ok {
		return d.Type
	}
	return nil
}

func mayBeNil(t types.Type) bool {
	if t == nil {
		return false
	}
	return t.Kind() == types.KNullable || types.IsNil(t)
}

// checkAssignTypeMismatch flags `local x = v` / `x = v` where x already has
// a declared type (from `---@type`/`---@param`/`---@field`, i.e. set before
// LuaAnalyzer's own initializer-inference ever ran) and v's inferred type
// does not check against it. Grounded on the teacher's content_validator.go
// pattern of inferring an expression then comparing it to the expected
// type, here routed through Checker.Compatible instead of a hand-rolled
// string/reflect comparison.
func checkAssignTypeMismatch(m *semantic.Model, f *syntax.File) []Diagnostic {
	var out []Diagnostic
	report := func(declType types.Type, value syntax.Expr, name string) {
		if declType == nil || value == nil {
			return
		}
		valType, err := m.InferExpr(f.Id, value)
		if err != nil || valType == nil || valType.Kind() == types.KUnknown {
			return
		}
		if ok, _ := m.TypeCheck(declType, valType); !ok {
			out = append(out, newDiagnostic(f.Id, value.NodeRange(), CodeAssignTypeMismatch,
				"cannot assign %s to %s (declared %s)", valType, name, declType))
		}
	}
	v := &visitor{stat: func(s syntax.Stat) {
		switch st := s.(type) {
		case *syntax.LocalStat:
			for i, n := range st.Names {
				if i >= len(st.Values) {
					break
				}
				report(declTypeAtDecl(m, f.Id, n.NamePos), st.Values[i], n.Name)
			}
		case *syntax.AssignStat:
			for i, t := range st.Targets {
				if i >= len(st.Values) {
					continue
				}
				ne, ok := t.(*syntax.NameExpr)
				if !ok {
					continue
				}
				report(declTypeForName(m, f.Id, ne.Name, ne.Range.Start), st.Values[i], ne.Name)
			}
		}
	}}
	walkFile(f, v)
	return out
}

// checkReturnTypeMismatch flags `return v` inside a closure whose
// `---@return` doc tag already fixed a return type (ResolveDoc), where v's
// inferred type does not check against it. Tracks the enclosing closure's
// Signature itself (rather than reusing the shared `visitor`, which has no
// notion of "current closure") the same way FlowAnalyzer tracks its own
// enclosing flow scope.
func checkReturnTypeMismatch(m *semantic.Model, f *syntax.File) []Diagnostic {
	var out []Diagnostic
	w := &returnWalk{model: m, file: f.Id, out: &out}
	w.walkBlock(f.Body, nil)
	return out
}

type returnWalk struct {
	model *semantic.Model
	file  syntax.FileId
	out   *[]Diagnostic
}

func (w *returnWalk) walkBlock(b *syntax.Block, sigRange *syntax.Range) {
	if b == nil {
		return
	}
	for _, s := range b.Stats {
		w.walkStat(s, sigRange)
	}
}

func (w *returnWalk) walkStat(s syntax.Stat, sigRange *syntax.Range) {
	switch st := s.(type) {
	case *syntax.LocalStat:
		for _, e := range st.Values {
			w.walkExpr(e, sigRange)
		}
	case *syntax.AssignStat:
		for _, e := range st.Values {
			w.walkExpr(e, sigRange)
		}
	case *syntax.CallStat:
		w.walkExpr(st.Call, sigRange)
	case *syntax.FunctionStat:
		w.walkClosure(st.Closure)
	case *syntax.LocalFunctionStat:
		w.walkClosure(st.Closure)
	case *syntax.IfStat:
		for _, c := range st.Clauses {
			w.walkBlock(c.Body, sigRange)
		}
	case *syntax.WhileStat:
		w.walkBlock(st.Body, sigRange)
	case *syntax.RepeatStat:
		w.walkBlock(st.Body, sigRange)
	case *syntax.ForNumericStat:
		w.walkBlock(st.Body, sigRange)
	case *syntax.ForInStat:
		w.walkBlock(st.Body, sigRange)
	case *syntax.DoStat:
		w.walkBlock(st.Body, sigRange)
	case *syntax.ReturnStat:
		if sigRange == nil || len(st.Exprs) != 1 {
			return
		}
		sig, ok := w.model.Signatures.Get(ids.SignatureId{File: w.file, Pos: sigRange.Start})
		if !ok || sig.ResolveReturn != index.ResolveDoc || sig.Return == nil {
			return
		}
		t, err := w.model.InferExpr(w.file, st.Exprs[0])
		if err != nil || t == nil || t.Kind() == types.KUnknown {
			return
		}
		if ok, _ := w.model.TypeCheck(sig.Return, t); !ok {
			*w.out = append(*w.out, newDiagnostic(w.file, st.Exprs[0].NodeRange(), CodeReturnTypeMismatch,
				"returned %s does not satisfy declared return type %s", t, sig.Return))
		}
	}
}

func (w *returnWalk) walkExpr(e syntax.Expr, sigRange *syntax.Range) {
	switch ex := e.(type) {
	case *syntax.ClosureExpr:
		w.walkClosure(ex)
	case *syntax.IndexExpr:
		w.walkExpr(ex.Prefix, sigRange)
		if ex.Key != nil {
			w.walkExpr(ex.Key, sigRange)
		}
	case *syntax.CallExpr:
		w.walkExpr(ex.Prefix, sigRange)
		for _, a := range ex.Args {
			w.walkExpr(a, sigRange)
		}
	case *syntax.BinaryExpr:
		w.walkExpr(ex.Left, sigRange)
		w.walkExpr(ex.Right, sigRange)
	case *syntax.UnaryExpr:
		w.walkExpr(ex.Operand, sigRange)
	case *syntax.ParenExpr:
		w.walkExpr(ex.Inner, sigRange)
	case *syntax.TableExpr:
		for _, fld := range ex.Fields {
			if fld.Key != nil {
				w.walkExpr(fld.Key, sigRange)
			}
			if fld.Value != nil {
				w.walkExpr(fld.Value, sigRange)
			}
		}
	}
}

func (w *returnWalk) walkClosure(c *syntax.ClosureExpr) {
	if c == nil {
		return
	}
	r := c.Range
	w.walkBlock(c.Body, &r)
}

// checkParameterCount flags call sites with too few arguments for the
// callee's required (non-optional, explicitly typed) parameters
// (missing-parameter) or more arguments than the callee accepts and has no
// trailing vararg slot (redundant-parameter).
func checkParameterCount(m *semantic.Model, f *syntax.File) []Diagnostic {
	var out []Diagnostic
	v := &visitor{expr: func(e syntax.Expr) {
		call, ok := e.(*syntax.CallExpr)
		if !ok {
			return
		}
		fn, err := m.InferCallExprFunc(f.Id, call)
		if err != nil {
			return
		}
		required := 0
		for _, p := range fn.Params {
			if p.Type != nil && p.Type.Kind() != types.KNullable {
				required++
			}
		}
		if len(call.Args) < required {
			out = append(out, newDiagnostic(f.Id, call.NodeRange(), CodeMissingParameter,
				"call passes %d argument(s), callee requires at least %d", len(call.Args), required))
			return
		}
		if !fn.IsVariadic && len(call.Args) > len(fn.Params) {
			out = append(out, newDiagnostic(f.Id, call.Args[len(fn.Params)].NodeRange(), CodeRedundantParameter,
				"call passes %d argument(s), callee accepts at most %d", len(call.Args), len(fn.Params)))
		}
	}}
	walkFile(f, v)
	return out
}

// checkNeedCheckNil flags `x.field`/`x:method()`/`x()` where x's own
// (already flow-narrowed, since InferExpr applies FlowAnalyzer's assertions)
// inferred type may still be nil at this point. Grounded on the original
// engine's `strict.require_check_before_field` family of checks — here
// always on, since §6's `strict.*` config keys are LSP-side hints this
// module does not otherwise model.
func checkNeedCheckNil(m *semantic.Model, f *syntax.File) []Diagnostic {
	var out []Diagnostic
	report := func(prefix syntax.Expr) {
		t, err := m.InferExpr(f.Id, prefix)
		if err != nil || !mayBeNil(t) {
			return
		}
		out = append(out, newDiagnostic(f.Id, prefix.NodeRange(), CodeNeedCheckNil,
			"%s may be nil here; add a nil check before this access", t))
	}
	v := &visitor{expr: func(e syntax.Expr) {
		switch ex := e.(type) {
		case *syntax.IndexExpr:
			report(ex.Prefix)
		case *syntax.CallExpr:
			report(ex.Prefix)
		}
	}}
	walkFile(f, v)
	return out
}

// checkDuplicateField flags two fields in the same table constructor
// keyed by the same literal name — `{foo = 1, foo = 2}` or the
// `{foo = 1, ["foo"] = 2}` bracket-key equivalent, both occupying the same
// string key.
func checkDuplicateField(m *semantic.Model, f *syntax.File) []Diagnostic {
	var out []Diagnostic
	seen := map[*syntax.TableExpr]map[string]syntax.Range{}
	v := &visitor{tableField: func(owner *syntax.TableExpr, field syntax.TableField) {
		name, ok := fieldStringKey(field)
		if !ok {
			return
		}
		keys, ok2 := seen[owner]
		if !ok2 {
			keys = map[string]syntax.Range{}
			seen[owner] = keys
		}
		if first, dup := keys[name]; dup {
			out = append(out, newDiagnostic(f.Id, field.Range, CodeDuplicateField,
				"field %q is already set at %v", name, first.Start))
			return
		}
		keys[name] = field.Range
	}}
	walkFile(f, v)
	return out
}

func fieldStringKey(field syntax.TableField) (string, bool) {
	switch field.Kind {
	case syntax.TableFieldNamed:
		return field.Name, true
	case syntax.TableFieldKeyed:
		if s, ok := field.Key.(*syntax.StringLiteral); ok {
			return s.Value, true
		}
	}
	return "", false
}

// checkMissingFields flags `local x = {...}` / `x = {...}` where x has a
// declared nominal type and the table literal omits one of that type's
// required (non-nullable) named members.
func checkMissingFields(m *semantic.Model, f *syntax.File) []Diagnostic {
	var out []Diagnostic
	report := func(declType types.Type, value syntax.Expr, name string) {
		tbl, ok := value.(*syntax.TableExpr)
		if !ok || declType == nil {
			return
		}
		members := m.MembersOf(declType)
		if len(members) == 0 {
			return
		}
		present := map[string]bool{}
		for _, fld := range tbl.Fields {
			if key, ok := fieldStringKey(fld); ok {
				present[key] = true
			}
		}
		var missing []string
		for _, mem := range members {
			if mem.Name == "" || mem.IsMethod || present[mem.Name] {
				continue
			}
			if mem.Type != nil && mem.Type.Kind() == types.KNullable {
				continue
			}
			missing = append(missing, mem.Name)
		}
		if len(missing) == 0 {
			return
		}
		sort.Strings(missing)
		out = append(out, newDiagnostic(f.Id, tbl.Range, CodeMissingFields,
			"missing required field(s) %s for %s", strings.Join(missing, ", "), declType))
	}
	v := &visitor{stat: func(s syntax.Stat) {
		switch st := s.(type) {
		case *syntax.LocalStat:
			for i, n := range st.Names {
				if i >= len(st.Values) {
					break
				}
				report(declTypeAtDecl(m, f.Id, n.NamePos), st.Values[i], n.Name)
			}
		case *syntax.AssignStat:
			for i, t := range st.Targets {
				if i >= len(st.Values) {
					continue
				}
				ne, ok := t.(*syntax.NameExpr)
				if !ok {
					continue
				}
				report(declTypeForName(m, f.Id, ne.Name, ne.Range.Start), st.Values[i], ne.Name)
			}
		}
	}}
	walkFile(f, v)
	return out
}

// builtinGlobals stands in for the stdlib symbol table a real engine seeds
// from `runtime.version` (spec §6 Config: "affects lexer features and
// stdlib") — this module does not model per-version stdlib signatures, so
// undefined-global treats these names as always declared rather than
// flooding every file that calls print/pairs/require with false positives.
var builtinGlobals = map[string]bool{
	"print": true, "pairs": true, "ipairs": true, "next": true, "select": true,
	"type": true, "tostring": true, "tonumber": true, "require": true,
	"pcall": true, "xpcall": true, "error": true, "assert": true,
	"setmetatable": true, "getmetatable": true, "rawget": true, "rawset": true,
	"rawequal": true, "rawlen": true, "unpack": true, "table": true,
	"string": true, "math": true, "os": true, "io": true, "coroutine": true,
	"debug": true, "_G": true, "_VERSION": true, "load": true, "loadstring": true,
	"collectgarbage": true, "dofile": true, "module": true, "package": true,
}

// checkUndefinedGlobal flags a bare name read that resolves neither to a
// visible local nor to a global ever assigned anywhere in the analyzed file
// set (DeclAnalyzer only registers a global on its first write,
// decl.go:registerNameWrite), and is not one of the standard library names
// builtinGlobals stands in for.
func checkUndefinedGlobal(m *semantic.Model, f *syntax.File) []Diagnostic {
	var out []Diagnostic
	v := &visitor{expr: func(e syntax.Expr) {
		ne, ok := e.(*syntax.NameExpr)
		if !ok || builtinGlobals[ne.Name] {
			return
		}
		if _, ok := m.Decls.FindVisibleDecl(f.Id, ne.Name, ne.Range.Start); ok {
			return
		}
		if _, ok := m.Decls.GetGlobalDecl(ne.Name); ok {
			return
		}
		out = append(out, newDiagnostic(f.Id, ne.Range, CodeUndefinedGlobal,
			"undefined global %q", ne.Name))
	}}
	walkFile(f, v)
	return out
}
