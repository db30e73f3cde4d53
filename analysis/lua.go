package analysis

import (
	"strings"

	"github.com/emmylua-ls/emmylua-core/ids"
	"github.com/emmylua-ls/emmylua-core/index"
	"github.com/emmylua-ls/emmylua-core/semantic"
	"github.com/emmylua-ls/emmylua-core/syntax"
	"github.com/emmylua-ls/emmylua-core/types"
)

// LuaAnalyzer is Phase 3 (spec §4.1): it assigns types to every decl from
// its initializer, registers table-constructor fields as Members (deferred
// here from DeclAnalyzer since it needs inferred value types), binds
// closure signatures that have no doc annotation from their actual
// parameter list and return statements, and resolves `M.foo = ...`/
// `function M.foo() ... end` member definitions. Anything that can't be
// inferred on this pass (forward references to another file's types) comes
// back as an UnResolveItem for the Resolver (Phase 5) to retry.
// Grounded on the teacher's AnalyzeDir "Phase 2: infer types" comment in
// analyzer/ast/analyzer.go, generalized from Go struct-literal inference to
// full expression inference via the semantic.Model query façade.
type LuaAnalyzer struct {
	Model *semantic.Model
}

// Run walks f, mutating its Decls/Members/Signatures in place, and returns
// whatever couldn't be resolved on this pass.
func (a *LuaAnalyzer) Run(f *syntax.File) []*UnResolveItem {
	w := &luaWalk{file: f.Id, model: a.Model}
	w.walkBlock(f.Body)
	w.registerModuleExport(f)
	return w.pending
}

// registerModuleExport detects the real Lua module idiom — a file's
// trailing top-level `return expr` is what require() sees — and records it
// under a require-path derived from the file's id, so other files'
// `require("...")` calls resolve through ModuleIndex (spec §4.3 scenario
// S6 cross-file require+export). `@export` tags are not read; a
// `@module`/`@namespace` name DeclAnalyzer recorded for this file is
// replaced here by the file-derived name whenever the file ends in such a
// `return`, so this structural detection is the source of truth, matching
// how Lua's `require` actually works.
func (w *luaWalk) registerModuleExport(f *syntax.File) {
	stats := f.Body.Stats
	if len(stats) == 0 {
		return
	}
	ret, ok := stats[len(stats)-1].(*syntax.ReturnStat)
	if !ok || len(ret.Exprs) != 1 {
		return
	}
	typ, err := w.model.InferExpr(w.file, ret.Exprs[0])
	if err != nil || typ == nil || typ.Kind() == types.KUnknown {
		return
	}
	w.model.Modules.Set(&index.ModuleInfo{
		File:       w.file,
		ModuleName: moduleNameFromFile(w.file),
		Export:     typ,
	})
}

// moduleNameFromFile derives the dotted require-path a file is reachable
// as from its id, by stripping a `.lua` suffix and turning path separators
// into dots (the conventional require() naming scheme). A real engine that
// registers files under project-relative paths gets sensible module names
// for free; this is a documented simplification, not a configurable
// root-finding algorithm.
func moduleNameFromFile(file syntax.FileId) string {
	s := strings.TrimSuffix(string(file), ".lua")
	s = strings.ReplaceAll(s, "/", ".")
	return strings.TrimPrefix(s, ".")
}

type luaWalk struct {
	file    syntax.FileId
	model   *semantic.Model
	pending []*UnResolveItem
}

func (w *luaWalk) walkBlock(b *syntax.Block) {
	if b == nil {
		return
	}
	for _, st := range b.Stats {
		w.walkStat(st)
	}
}

func (w *luaWalk) walkStat(st syntax.Stat) {
	switch s := st.(type) {
	case *syntax.LocalStat:
		for _, v := range s.Values {
			w.walkExpr(v)
		}
		w.bindLocalNames(s)
	case *syntax.AssignStat:
		for _, v := range s.Values {
			w.walkExpr(v)
		}
		w.bindAssignTargets(s)
	case *syntax.CallStat:
		w.walkExpr(s.Call)
	case *syntax.FunctionStat:
		w.walkClosure(s.Closure)
		w.bindFunctionStat(s)
	case *syntax.LocalFunctionStat:
		w.walkClosure(s.Closure)
		if tree, ok := w.model.Decls.Tree(w.file); ok {
			if d, ok := tree.DeclByPos(s.NamePos); ok && d.Type == nil && s.Closure != nil {
				d.Type = types.Signature{Id: ids.SignatureId{File: w.file, Pos: s.Closure.Range.Start}}
			}
		}
	case *syntax.IfStat:
		for _, c := range s.Clauses {
			if c.Cond != nil {
				w.walkExpr(c.Cond)
			}
			w.walkBlock(c.Body)
		}
	case *syntax.WhileStat:
		w.walkExpr(s.Cond)
		w.walkBlock(s.Body)
	case *syntax.RepeatStat:
		w.walkBlock(s.Body)
		w.walkExpr(s.Cond)
	case *syntax.ForNumericStat:
		w.walkExpr(s.Start)
		w.walkExpr(s.Stop)
		if s.Step != nil {
			w.walkExpr(s.Step)
		}
		if tree, ok := w.model.Decls.Tree(w.file); ok {
			if d, ok := tree.DeclByPos(s.VarPos); ok && d.Type == nil {
				d.Type = types.Integer
			}
		}
		w.walkBlock(s.Body)
	case *syntax.ForInStat:
		for _, e := range s.Exprs {
			w.walkExpr(e)
		}
		// loop variables come from the iterator call's (possibly multiple)
		// return values; this engine doesn't model multi-value calls, so
		// they're deferred and collapse to Unknown in the resolver's force
		// mode rather than being inferred here.
		if tree, ok := w.model.Decls.Tree(w.file); ok {
			for _, n := range s.Names {
				if d, ok := tree.DeclByPos(n.NamePos); ok && d.Type == nil {
					w.pending = append(w.pending, &UnResolveItem{Kind: URIterDecl, File: w.file, Decl: d})
				}
			}
		}
		w.walkBlock(s.Body)
	case *syntax.ReturnStat:
		for _, e := range s.Exprs {
			w.walkExpr(e)
		}
	case *syntax.DoStat:
		w.walkBlock(s.Body)
	case *syntax.BreakStat, *syntax.GotoStat, *syntax.LabelStat:
	}
}

func (w *luaWalk) walkExpr(e syntax.Expr) {
	if e == nil {
		return
	}
	switch ex := e.(type) {
	case *syntax.IndexExpr:
		w.walkExpr(ex.Prefix)
		if ex.Key != nil {
			w.walkExpr(ex.Key)
		}
	case *syntax.CallExpr:
		w.walkExpr(ex.Prefix)
		for _, a := range ex.Args {
			w.walkExpr(a)
		}
	case *syntax.BinaryExpr:
		w.walkExpr(ex.Left)
		w.walkExpr(ex.Right)
	case *syntax.UnaryExpr:
		w.walkExpr(ex.Operand)
	case *syntax.ParenExpr:
		w.walkExpr(ex.Inner)
	case *syntax.TableExpr:
		w.registerTableFields(ex)
	case *syntax.ClosureExpr:
		w.walkClosure(ex)
	}
}

func (w *luaWalk) walkClosure(c *syntax.ClosureExpr) {
	if c == nil {
		return
	}
	sig := w.model.Signatures.GetOrCreate(ids.SignatureId{File: w.file, Pos: c.Range.Start})
	ensureParamsMatchClosure(sig, c)
	w.bindClosureReturn(sig, c)
	w.walkBlock(c.Body)
}

// ensureParamsMatchClosure appends a bare (type-less) Param for every
// actual closure parameter DocAnalyzer's `@param` tags didn't already
// describe, so overload scoring and arity diagnostics see the real
// parameter count even for fully undocumented functions.
func ensureParamsMatchClosure(sig *index.Signature, c *syntax.ClosureExpr) {
	for i := len(sig.Params); i < len(c.Params); i++ {
		sig.Params = append(sig.Params, types.Param{Name: c.Params[i].Name})
	}
	sig.IsVariadic = c.HasVararg
}

// bindClosureReturn infers c's return type from its `return` statements
// when no `---@return` already fixed it (spec §4.1 "bind closure
// signatures"). Multiple reachable return statements union whatever
// resolves synchronously; the first that doesn't is deferred as one
// UnResolveItem rather than one per branch, since a single retry that
// eventually succeeds is enough to finish the union in the common case of
// one forward-referenced branch among several already-known ones.
func (w *luaWalk) bindClosureReturn(sig *index.Signature, c *syntax.ClosureExpr) {
	if sig.ResolveReturn != index.ResolveUnresolved {
		return
	}
	var exprs []syntax.Expr
	collectReturnExprs(c.Body, &exprs)
	if len(exprs) == 0 {
		return
	}
	var resolved []types.Type
	var deferredExpr syntax.Expr
	for _, e := range exprs {
		t, err := w.model.InferExpr(w.file, e)
		if err == nil && t != nil && t.Kind() != types.KUnknown {
			resolved = append(resolved, t)
			continue
		}
		if deferredExpr == nil {
			deferredExpr = e
		}
	}
	if len(resolved) > 0 {
		ret := resolved[0]
		for _, t := range resolved[1:] {
			ret = types.TypeOpsUnion(ret, t)
		}
		w.model.Signatures.SetReturn(sig.Id, ret, index.ResolveInferred)
	}
	if deferredExpr != nil {
		w.pending = append(w.pending, &UnResolveItem{Kind: URClosureReturn, File: w.file, Expr: deferredExpr, Sig: sig})
	}
}

// collectReturnExprs gathers the first expression of every `return`
// reachable within b without crossing into a nested closure's own body.
func collectReturnExprs(b *syntax.Block, out *[]syntax.Expr) {
	if b == nil {
		return
	}
	for _, st := range b.Stats {
		switch s := st.(type) {
		case *syntax.ReturnStat:
			if len(s.Exprs) > 0 {
				*out = append(*out, s.Exprs[0])
			}
		case *syntax.IfStat:
			for _, c := range s.Clauses {
				collectReturnExprs(c.Body, out)
			}
		case *syntax.WhileStat:
			collectReturnExprs(s.Body, out)
		case *syntax.RepeatStat:
			collectReturnExprs(s.Body, out)
		case *syntax.ForNumericStat:
			collectReturnExprs(s.Body, out)
		case *syntax.ForInStat:
			collectReturnExprs(s.Body, out)
		case *syntax.DoStat:
			collectReturnExprs(s.Body, out)
		}
	}
}

func (w *luaWalk) bindLocalNames(s *syntax.LocalStat) {
	tree, ok := w.model.Decls.Tree(w.file)
	if !ok {
		return
	}
	for i, n := range s.Names {
		d, ok := tree.DeclByPos(n.NamePos)
		if !ok || d.Type != nil {
			continue
		}
		if i >= len(s.Values) {
			w.pending = append(w.pending, &UnResolveItem{Kind: URDecl, File: w.file, Decl: d})
			continue
		}
		val := s.Values[i]
		if modName, ok := requireCall(val); ok {
			w.pending = append(w.pending, &UnResolveItem{Kind: URModuleRef, File: w.file, Decl: d, ModuleName: modName})
			continue
		}
		w.inferOrDefer(URDecl, d, nil, nil, 0, val)
	}
}

func (w *luaWalk) bindAssignTargets(s *syntax.AssignStat) {
	for i, t := range s.Targets {
		var val syntax.Expr
		if i < len(s.Values) {
			val = s.Values[i]
		}
		switch tt := t.(type) {
		case *syntax.NameExpr:
			w.bindNameTarget(tt, val)
		case *syntax.IndexExpr:
			w.bindIndexTarget(tt, val)
		}
	}
}

func (w *luaWalk) bindNameTarget(ne *syntax.NameExpr, val syntax.Expr) {
	if val == nil {
		return
	}
	d, ok := w.model.Decls.FindVisibleDecl(w.file, ne.Name, ne.NodeRange().Start)
	if !ok {
		d, ok = w.model.Decls.GetGlobalDecl(ne.Name)
	}
	if !ok || d.Type != nil {
		return
	}
	if modName, ok := requireCall(val); ok {
		w.pending = append(w.pending, &UnResolveItem{Kind: URModuleRef, File: w.file, Decl: d, ModuleName: modName})
		return
	}
	w.inferOrDefer(URDecl, d, nil, nil, 0, val)
}

// bindIndexTarget handles `M.foo = ...`/`self.x = ...` style member
// definitions: the prefix's inferred type gives the owner, `.foo` gives
// the member name (spec §4.1 "field-defining node... or an index-
// expression LHS", ids.MemberId doc comment).
func (w *luaWalk) bindIndexTarget(ix *syntax.IndexExpr, val syntax.Expr) {
	if val == nil || ix.Key != nil {
		return
	}
	prefixType, err := w.model.InferExpr(w.file, ix.Prefix)
	if err != nil || prefixType == nil {
		return
	}
	owner, ok := memberOwnerFor(prefixType)
	if !ok {
		return
	}
	existing := w.model.Members.ByName(owner, ix.Name)
	var m *index.Member
	if len(existing) > 0 {
		m = existing[0]
	} else {
		m = &index.Member{Id: ids.MemberId{File: w.file, Id: ix.SyntaxId()}, Owner: owner, Name: ix.Name}
		w.model.Members.Add(m)
	}
	if cl, ok := val.(*syntax.ClosureExpr); ok {
		m.IsMethod = cl.IsColonDef
	}
	if m.Type != nil {
		return
	}
	w.inferOrDefer(URMember, nil, m, nil, 0, val)
}

// bindFunctionStat handles `function a.b.c(...) ... end`: it walks the
// dotted prefix through already-known Members to find the owner, the same
// way bindIndexTarget does for a plain assignment. It only resolves owners
// reachable through types already known at this point in this file; a
// forward reference to a class declared later in the batch is a documented
// scope trim (see DESIGN.md), not retried through the resolver.
func (w *luaWalk) bindFunctionStat(s *syntax.FunctionStat) {
	if len(s.NamePath) == 1 {
		d, ok := w.model.Decls.GetGlobalDecl(s.NamePath[0])
		if ok && d.Type == nil && s.Closure != nil {
			d.Type = types.Signature{Id: ids.SignatureId{File: w.file, Pos: s.Closure.Range.Start}}
		}
		return
	}
	if s.Closure == nil {
		return
	}
	path := s.NamePath
	d, ok := w.model.Decls.FindVisibleDecl(w.file, path[0], s.NamePos)
	if !ok {
		d, ok = w.model.Decls.GetGlobalDecl(path[0])
	}
	if !ok || d.Type == nil {
		return
	}
	curType := d.Type
	for _, seg := range path[1 : len(path)-1] {
		owner, ok := memberOwnerFor(curType)
		if !ok {
			return
		}
		ms := w.model.Members.ByName(owner, seg)
		if len(ms) == 0 || ms[0].Type == nil {
			return
		}
		curType = ms[0].Type
	}
	owner, ok := memberOwnerFor(curType)
	if !ok {
		return
	}
	name := path[len(path)-1]
	sigType := types.Signature{Id: ids.SignatureId{File: w.file, Pos: s.Closure.Range.Start}}
	if existing := w.model.Members.ByName(owner, name); len(existing) > 0 {
		if existing[0].Type == nil {
			existing[0].Type = sigType
		}
		existing[0].IsMethod = s.IsMethod
		return
	}
	w.model.Members.Add(&index.Member{
		Id: ids.MemberId{File: w.file, Id: s.Closure.SyntaxId()}, Owner: owner,
		Name: name, Type: sigType, IsMethod: s.IsMethod,
	})
}

// registerTableFields registers every field of a table constructor as a
// Member owned by that table's (file, range) element identity (deferred
// here from DeclAnalyzer, spec §4.1 scope note: needs inferred value
// types), recursing into each field's key/value expressions for nested
// tables and closures.
func (w *luaWalk) registerTableFields(ex *syntax.TableExpr) {
	owner := index.MemberOwner{Kind: index.MemberOwnerElement, File: w.file, Range: ex.Range}
	var pos int64 = 1
	for _, f := range ex.Fields {
		if f.Key != nil {
			w.walkExpr(f.Key)
		}
		m := &index.Member{
			Id:    ids.MemberId{File: w.file, Id: syntax.SyntaxId{Kind: syntax.KindTableField, Range: f.Range}},
			Owner: owner,
		}
		switch f.Kind {
		case syntax.TableFieldPositional:
			m.Int = pos
			pos++
		case syntax.TableFieldNamed:
			m.Name = f.Name
		case syntax.TableFieldKeyed:
			keyType, _ := w.model.InferExpr(w.file, f.Key)
			switch kv := keyType.(type) {
			case types.StringConst:
				m.Name = kv.Value
			case types.IntegerConst:
				m.Int = kv.Value
			default:
				m.ExprType = keyType
			}
		}
		w.model.Members.Add(m)
		if f.Value == nil {
			continue
		}
		w.walkExpr(f.Value)
		if m.Type == nil {
			w.inferOrDefer(URTableField, nil, m, nil, 0, f.Value)
		}
	}
}

// inferOrDefer tries InferExpr once synchronously (the common case, since
// most expressions don't depend on another file) and only builds an
// UnResolveItem when that attempt didn't produce a concrete type.
func (w *luaWalk) inferOrDefer(kind UnResolveKind, d *index.Decl, m *index.Member, sig *index.Signature, paramIdx int, expr syntax.Expr) {
	typ, err := w.model.InferExpr(w.file, expr)
	if err == nil && typ != nil && typ.Kind() != types.KUnknown {
		switch kind {
		case URDecl, URIterDecl:
			if d.Type == nil {
				d.Type = typ
			}
		case URMember, URTableField:
			if m.Type == nil {
				m.Type = typ
			}
		case URReturn, URClosureReturn:
			w.model.Signatures.SetReturn(sig.Id, typ, index.ResolveInferred)
		}
		return
	}
	w.pending = append(w.pending, &UnResolveItem{
		Kind: kind, File: w.file, Expr: expr, Decl: d, Member: m, Sig: sig,
		ParamIdx: paramIdx, Reason: classifyFailure(err),
	})
}

// requireCall recognizes `require("modname")` so its target decl can be
// linked to that module's export type once the module is analyzed (spec
// §4.3 scenario S6 cross-file require+export), instead of being inferred
// as a plain call with no known return type.
func requireCall(e syntax.Expr) (string, bool) {
	call, ok := e.(*syntax.CallExpr)
	if !ok || call.IsMethod || len(call.Args) == 0 {
		return "", false
	}
	name, ok := call.Prefix.(*syntax.NameExpr)
	if !ok || name.Name != "require" {
		return "", false
	}
	lit, ok := call.Args[0].(*syntax.StringLiteral)
	if !ok {
		return "", false
	}
	return lit.Value, true
}

// memberOwnerFor mirrors semantic's unexported memberOwnerOf: it isn't
// reusable from here, so this package keeps its own copy for the member-
// definition paths (bindIndexTarget/bindFunctionStat) that need an owner
// key rather than a field lookup.
func memberOwnerFor(t types.Type) (index.MemberOwner, bool) {
	switch v := t.(type) {
	case types.Ref:
		return index.MemberOwner{Kind: index.MemberOwnerType, Type: v.Decl}, true
	case types.Def:
		return index.MemberOwner{Kind: index.MemberOwnerType, Type: v.Decl}, true
	case types.Generic:
		return index.MemberOwner{Kind: index.MemberOwnerType, Type: v.Base}, true
	case types.Instance:
		return memberOwnerFor(v.Base)
	case types.TableConst:
		return index.MemberOwner{Kind: index.MemberOwnerElement, File: v.File, Range: v.Range}, true
	default:
		return index.MemberOwner{}, false
	}
}
