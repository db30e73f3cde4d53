package analysis

import (
	"github.com/emmylua-ls/emmylua-core/ids"
	"github.com/emmylua-ls/emmylua-core/index"
	"github.com/emmylua-ls/emmylua-core/syntax"
)

// DeclAnalyzer is Phase 1 (spec §4.1): it walks a file's statement tree,
// builds the scope tree, registers every local/global name and function
// parameter, and creates a TypeDecl shell for every `---@class`/`---@enum`/
// `---@alias` header it finds (name, kind, supers, generics, partial/
// exact/key attributes — everything derivable from the header line without
// needing other files' types resolved yet). Grounded on the teacher's
// AnalyzeDir "Phase 1: Build struct index" comment in analyzer/ast/analyzer.go.
type DeclAnalyzer struct {
	Decls   *index.DeclIndex
	Types   *index.TypeIndex
	Modules *index.ModuleIndex
}

// Run registers f's scope tree and type-decl shells.
func (a *DeclAnalyzer) Run(f *syntax.File) {
	tree := index.NewDeclTree(f.Id, f.Body.Range)
	w := &declWalk{file: f.Id, tree: tree, decls: a.Decls, types: a.Types, mods: a.Modules}
	w.registerNamespace(f)
	w.walkBlock(tree.Root, f.Body)
	a.Decls.SetFile(tree)
}

// registerNamespace looks for a `@namespace`/`@module` tag in the docs
// attached ahead of the file's first statement (spec §4.1 "records file
// namespace and usings"; §6 doc tag table's `@module "mode"`/`@namespace
// name`). `@using` is not handled by any analyzer (DocAnalyzer skips it like
// any other tag it has no case for) — cross-namespace short-name lookup is
// out of scope for this core; annotations always address types by their
// literal dotted name.
func (w *declWalk) registerNamespace(f *syntax.File) {
	if len(f.Body.Stats) == 0 {
		return
	}
	docs := leadingDocs(f.Body.Stats[0])
	for _, t := range parseTags(docs) {
		switch t.Name {
		case "namespace":
			w.mods.Set(&index.ModuleInfo{File: w.file, ModuleName: t.Rest})
		case "module":
			name := stripQuotes(t.Rest)
			if m, ok := w.mods.ByFile(w.file); ok {
				m.ModuleName = name
			} else {
				w.mods.Set(&index.ModuleInfo{File: w.file, ModuleName: name})
			}
		}
	}
}

type declWalk struct {
	file  syntax.FileId
	tree  *index.DeclTree
	decls *index.DeclIndex
	types *index.TypeIndex
	mods  *index.ModuleIndex
}

func (w *declWalk) childScope(parent *index.Scope, kind index.ScopeKind, r syntax.Range) *index.Scope {
	c := &index.Scope{Kind: kind, Range: r, Parent: parent}
	parent.Children = append(parent.Children, c)
	return c
}

func (w *declWalk) walkBlock(scope *index.Scope, b *syntax.Block) {
	if b == nil {
		return
	}
	for _, st := range b.Stats {
		w.walkStat(scope, st)
	}
}

func (w *declWalk) walkStat(scope *index.Scope, st syntax.Stat) {
	switch s := st.(type) {
	case *syntax.LocalStat:
		w.registerTypeDecls(s.Docs, s.Range)
		for _, v := range s.Values {
			w.walkExpr(scope, v)
		}
		for _, n := range s.Names {
			d := &index.Decl{
				Id:      ids.DeclId{File: w.file, Pos: n.NamePos},
				Name:    n.Name,
				IsConst: n.Attrib == "const" || n.Attrib == "close",
			}
			w.tree.Register(scope, d)
		}
	case *syntax.AssignStat:
		for _, v := range s.Values {
			w.walkExpr(scope, v)
		}
		for _, t := range s.Targets {
			if ne, ok := t.(*syntax.NameExpr); ok {
				w.registerNameWrite(scope, ne)
				continue
			}
			w.walkExpr(scope, t)
		}
	case *syntax.CallStat:
		w.walkExpr(scope, s.Call)
	case *syntax.FunctionStat:
		w.registerTypeDecls(s.Docs, s.Range)
		if len(s.NamePath) == 1 {
			w.registerGlobalIfUnbound(s.NamePath[0], s.NamePos)
		}
		w.walkClosure(scope, s.Closure)
	case *syntax.LocalFunctionStat:
		d := &index.Decl{Id: ids.DeclId{File: w.file, Pos: s.NamePos}, Name: s.Name}
		w.tree.Register(scope, d)
		w.walkClosure(scope, s.Closure)
	case *syntax.IfStat:
		for _, c := range s.Clauses {
			if c.Cond != nil {
				w.walkExpr(scope, c.Cond)
			}
			child := w.childScope(scope, index.ScopeNormal, c.Body.Range)
			w.walkBlock(child, c.Body)
		}
	case *syntax.WhileStat:
		w.walkExpr(scope, s.Cond)
		child := w.childScope(scope, index.ScopeNormal, s.Body.Range)
		w.walkBlock(child, s.Body)
	case *syntax.RepeatStat:
		child := w.childScope(scope, index.ScopeRepeat, s.Body.Range)
		w.walkBlock(child, s.Body)
		w.walkExpr(child, s.Cond)
	case *syntax.ForNumericStat:
		w.walkExpr(scope, s.Start)
		w.walkExpr(scope, s.Stop)
		if s.Step != nil {
			w.walkExpr(scope, s.Step)
		}
		child := w.childScope(scope, index.ScopeForRange, s.Body.Range)
		d := &index.Decl{Id: ids.DeclId{File: w.file, Pos: s.VarPos}, Name: s.VarName}
		w.tree.Register(child, d)
		w.walkBlock(child, s.Body)
	case *syntax.ForInStat:
		for _, e := range s.Exprs {
			w.walkExpr(scope, e)
		}
		child := w.childScope(scope, index.ScopeForRange, s.Body.Range)
		for _, n := range s.Names {
			d := &index.Decl{Id: ids.DeclId{File: w.file, Pos: n.NamePos}, Name: n.Name}
			w.tree.Register(child, d)
		}
		w.walkBlock(child, s.Body)
	case *syntax.ReturnStat:
		for _, e := range s.Exprs {
			w.walkExpr(scope, e)
		}
	case *syntax.DoStat:
		child := w.childScope(scope, index.ScopeNormal, s.Body.Range)
		w.walkBlock(child, s.Body)
	case *syntax.BreakStat, *syntax.GotoStat, *syntax.LabelStat:
	}
}

// registerNameWrite records a global the first time a name is assigned
// without a visible local of the same name (spec §4.1 "registers every
// ... global name").
func (w *declWalk) registerNameWrite(scope *index.Scope, ne *syntax.NameExpr) {
	if ne.Name == "" {
		return
	}
	w.registerGlobalIfUnbound(ne.Name, ne.NodeRange().Start)
}

func (w *declWalk) registerGlobalIfUnbound(name string, pos syntax.Position) {
	if _, ok := w.tree.FindVisibleDecl(name, pos); ok {
		return
	}
	d := &index.Decl{Id: ids.DeclId{File: w.file, Pos: pos}, Name: name, IsGlobal: true}
	w.decls.RegisterGlobal(w.file, d)
}

func (w *declWalk) walkClosure(scope *index.Scope, c *syntax.ClosureExpr) {
	if c == nil {
		return
	}
	w.registerTypeDecls(c.Docs, c.Range)
	child := w.childScope(scope, index.ScopeNormal, c.Body.Range)
	if c.IsColonDef {
		d := &index.Decl{Id: ids.DeclId{File: w.file, Pos: c.Range.Start}, Name: "self", IsParam: true}
		w.tree.Register(child, d)
	}
	for _, p := range c.Params {
		d := &index.Decl{Id: ids.DeclId{File: w.file, Pos: p.NamePos}, Name: p.Name, IsParam: true}
		w.tree.Register(child, d)
	}
	w.walkBlock(child, c.Body)
}

func (w *declWalk) walkExpr(scope *index.Scope, e syntax.Expr) {
	if e == nil {
		return
	}
	switch ex := e.(type) {
	case *syntax.IndexExpr:
		w.walkExpr(scope, ex.Prefix)
		if ex.Key != nil {
			w.walkExpr(scope, ex.Key)
		}
	case *syntax.CallExpr:
		w.walkExpr(scope, ex.Prefix)
		for _, a := range ex.Args {
			w.walkExpr(scope, a)
		}
	case *syntax.BinaryExpr:
		w.walkExpr(scope, ex.Left)
		w.walkExpr(scope, ex.Right)
	case *syntax.UnaryExpr:
		w.walkExpr(scope, ex.Operand)
	case *syntax.ParenExpr:
		w.walkExpr(scope, ex.Inner)
	case *syntax.TableExpr:
		for _, f := range ex.Fields {
			if f.Key != nil {
				w.walkExpr(scope, f.Key)
			}
			if f.Value != nil {
				w.walkExpr(scope, f.Value)
			}
		}
	case *syntax.ClosureExpr:
		w.walkClosure(scope, ex)
	}
}

// registerTypeDecls scans docs for `@class`/`@enum`/`@alias` headers and
// creates/merges the corresponding TypeDecl shell (spec §4.1: "every
// ---@class/---@enum/---@alias as a TypeDecl").
func (w *declWalk) registerTypeDecls(docs []syntax.Comment, loc syntax.Range) {
	for _, t := range parseTags(docs) {
		switch t.Name {
		case "class":
			w.registerClassHeader(t.Rest, loc)
		case "enum":
			w.registerEnumHeader(t.Rest, loc)
		case "alias":
			name, _ := field(t.Rest)
			name = stripGenerics(name)
			id := w.types.Intern(name)
			w.types.GetOrCreate(id, name, index.TypeDeclAlias)
			w.types.AddDefLocation(id, index.Location{File: w.file, Range: loc}, false, false)
		}
	}
}

func (w *declWalk) registerClassHeader(rest string, loc syntax.Range) {
	attribs, rest := splitAttribs(rest)
	namePart, superPart, _ := cutColonTopLevel(rest)
	name := stripGenerics(namePart)
	id := w.types.Intern(name)
	d := w.types.GetOrCreate(id, name, index.TypeDeclClass)
	d.Generics = parseGenericNames(namePart)
	partial, exact, key := false, false, ""
	for _, a := range attribs {
		switch {
		case a == "partial":
			partial = true
		case a == "exact":
			exact = true
		case hasPrefixWord(a, "key"):
			key = a
		}
	}
	w.types.AddDefLocation(id, index.Location{File: w.file, Range: loc}, partial, exact)
	d.KeyAttr = key
	for _, super := range splitTopLevel(superPart, ',') {
		super = stripGenerics(super)
		if super == "" {
			continue
		}
		sid := w.types.Intern(super)
		w.types.GetOrCreate(sid, super, index.TypeDeclClass)
		w.types.AddSuper(id, sid)
	}
}

func (w *declWalk) registerEnumHeader(rest string, loc syntax.Range) {
	rest = trimParenKey(rest)
	name, _ := field(rest)
	id := w.types.Intern(name)
	w.types.GetOrCreate(id, name, index.TypeDeclEnum)
	w.types.AddDefLocation(id, index.Location{File: w.file, Range: loc}, false, false)
}
