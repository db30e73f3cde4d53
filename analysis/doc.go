package analysis

import (
	"strconv"
	"strings"

	"github.com/emmylua-ls/emmylua-core/ids"
	"github.com/emmylua-ls/emmylua-core/index"
	"github.com/emmylua-ls/emmylua-core/syntax"
	"github.com/emmylua-ls/emmylua-core/types"
)

// DocAnalyzer is Phase 2 (spec §4.1): it finalizes the TypeDecl shells
// DeclAnalyzer created (alias origin) and populates MemberIndex (`@field`),
// OperatorIndex (`@operator`), SignatureIndex (`@param`/`@return`/
// `@overload`/`@generic`), and PropertyIndex (`@async`/`@nodiscard`/
// `@deprecated`/`@version`/`@see`/`@source`) from every remaining doc tag.
// `@cast` is left to FlowAnalyzer, which already has the flow-scope
// plumbing a cast's "rest of the enclosing block" range needs; `@diagnostic`
// and `@export` have no case here and are skipped like any other unhandled
// tag — export detection instead falls out of
// LuaAnalyzer inferring a file's trailing `return` statement, the actual
// Lua module idiom.
type DocAnalyzer struct {
	Types      *index.TypeIndex
	Members    *index.MemberIndex
	Signatures *index.SignatureIndex
	Operators  *index.OperatorIndex
	Properties *index.PropertyIndex
	Decls      *index.DeclIndex
}

// Run processes every doc-comment block in f.
func (a *DocAnalyzer) Run(f *syntax.File) {
	w := &docWalk{
		file: f.Id, types: a.Types, members: a.Members, sigs: a.Signatures,
		ops: a.Operators, props: a.Properties, decls: a.Decls,
	}
	syntax.Walk(f, func(parent syntax.Node, n syntax.Node) bool {
		switch s := n.(type) {
		case *syntax.LocalStat:
			w.processLocal(s)
		case *syntax.AssignStat:
			w.processAssign(s)
		case *syntax.FunctionStat:
			w.processFunctionStat(s)
		case *syntax.LocalFunctionStat:
			w.processLocalFunctionStat(s)
		case *syntax.ClosureExpr:
			w.processAnonymousClosure(parent, s)
		}
		return true
	})
}

type docWalk struct {
	file  syntax.FileId
	types *index.TypeIndex
	members *index.MemberIndex
	sigs  *index.SignatureIndex
	ops   *index.OperatorIndex
	props *index.PropertyIndex
	decls *index.DeclIndex
}

// processAnonymousClosure handles `@param`/`@return` written directly on a
// closure expression rather than on an enclosing `function`/`local
// function` statement (e.g. a closure passed as a table-field value) — the
// named-function statement kinds carry their own Docs and are handled by
// processFunctionStat/processLocalFunctionStat instead, so this skips those
// to avoid applying the same doc block twice.
func (w *docWalk) processAnonymousClosure(parent syntax.Node, c *syntax.ClosureExpr) {
	switch parent.(type) {
	case *syntax.FunctionStat, *syntax.LocalFunctionStat:
		return
	}
	tags := parseTags(c.Docs)
	if len(tags) == 0 {
		return
	}
	w.applySignatureTags(tags, ids.SignatureId{File: w.file, Pos: c.Range.Start}, c.IsColonDef)
}

func (w *docWalk) processFunctionStat(s *syntax.FunctionStat) {
	tags := parseTags(s.Docs)
	if len(tags) == 0 || s.Closure == nil {
		return
	}
	w.applySignatureTags(tags, ids.SignatureId{File: w.file, Pos: s.Closure.Range.Start}, s.Closure.IsColonDef)
}

func (w *docWalk) processLocalFunctionStat(s *syntax.LocalFunctionStat) {
	tags := parseTags(s.Docs)
	if len(tags) == 0 || s.Closure == nil {
		return
	}
	w.applySignatureTags(tags, ids.SignatureId{File: w.file, Pos: s.Closure.Range.Start}, s.Closure.IsColonDef)
	w.applyPropertyTags(tags, ids.OwnerFromDecl(ids.DeclId{File: w.file, Pos: s.NamePos}))
}

func (w *docWalk) processLocal(s *syntax.LocalStat) {
	tags := parseTags(s.Docs)
	if len(tags) == 0 {
		return
	}
	owner, hasOwner, classTpl := w.processTypeHeaderTags(tags)
	if hasOwner {
		w.applyFieldOperatorTags(tags, owner, classTpl)
	}
	tc := &typeCtx{internName: w.types.Intern}
	if len(s.Names) == 1 {
		declId := ids.DeclId{File: w.file, Pos: s.Names[0].NamePos}
		for _, t := range tags {
			if t.Name == "type" || t.Name == "as" {
				if tree, ok := w.decls.Tree(w.file); ok {
					if d, ok := tree.DeclByPos(declId.Pos); ok {
						d.Type = parseTypeExpr(t.Rest, tc)
					}
				}
			}
		}
		w.applyPropertyTags(tags, ids.OwnerFromDecl(declId))
	}
	if len(s.Values) == 1 {
		if c, ok := s.Values[0].(*syntax.ClosureExpr); ok {
			w.applySignatureTags(tags, ids.SignatureId{File: w.file, Pos: c.Range.Start}, c.IsColonDef)
		}
	}
}

func (w *docWalk) processAssign(s *syntax.AssignStat) {
	tags := parseTags(s.Docs)
	if len(tags) == 0 {
		return
	}
	owner, hasOwner, classTpl := w.processTypeHeaderTags(tags)
	if hasOwner {
		w.applyFieldOperatorTags(tags, owner, classTpl)
	}
	tc := &typeCtx{internName: w.types.Intern}
	if len(s.Targets) == 1 {
		if ne, ok := s.Targets[0].(*syntax.NameExpr); ok {
			pos := ne.NodeRange().Start
			d, found := w.decls.FindVisibleDecl(w.file, ne.Name, pos)
			if !found {
				d, found = w.decls.GetGlobalDecl(ne.Name)
			}
			if found {
				for _, t := range tags {
					if t.Name == "type" || t.Name == "as" {
						d.Type = parseTypeExpr(t.Rest, tc)
					}
				}
				w.applyPropertyTags(tags, ids.OwnerFromDecl(d.Id))
			}
		}
	}
	if len(s.Values) == 1 {
		if c, ok := s.Values[0].(*syntax.ClosureExpr); ok {
			w.applySignatureTags(tags, ids.SignatureId{File: w.file, Pos: c.Range.Start}, c.IsColonDef)
		}
	}
}

// processTypeHeaderTags scans tags for a `@class`/`@enum`/`@alias` header,
// finalizing the alias origin (the only piece DeclAnalyzer couldn't fill
// in without the type-expression parser) and returning the owner id that
// subsequent `@field`/`@operator` tags in the same block attach to.
func (w *docWalk) processTypeHeaderTags(tags []tag) (owner ids.TypeDeclId, hasOwner bool, classTpl map[string]bool) {
	for _, t := range tags {
		switch t.Name {
		case "class":
			_, rest := splitAttribs(t.Rest)
			namePart, _, _ := cutColonTopLevel(rest)
			name := stripGenerics(namePart)
			id := w.types.Intern(name)
			owner, hasOwner = id, true
			if d, ok := w.types.Get(id); ok {
				classTpl = tplSet(d.Generics)
			}
		case "enum":
			name, _ := field(trimParenKey(t.Rest))
			id := w.types.Intern(name)
			owner, hasOwner = id, true
		case "alias":
			name, originStr := field(t.Rest)
			id := w.types.Intern(name)
			origin := parseTypeExpr(originStr, &typeCtx{internName: w.types.Intern})
			if d, ok := w.types.Get(id); ok {
				d.AliasOrigin = origin
			}
		}
	}
	return
}

func (w *docWalk) applyFieldOperatorTags(tags []tag, owner ids.TypeDeclId, classTpl map[string]bool) {
	tc := &typeCtx{internName: w.types.Intern, classTpl: classTpl}
	for _, t := range tags {
		switch t.Name {
		case "field":
			w.applyFieldTag(t, owner, tc)
		case "operator":
			w.applyOperatorTag(t.Rest, owner, tc)
		}
	}
	w.applyPropertyTags(tags, ids.OwnerFromTypeDecl(owner))
}

func (w *docWalk) applyFieldTag(t tag, owner ids.TypeDeclId, tc *typeCtx) {
	visibility, rest := splitVisibility(t.Rest)
	keyStr, rest := field(rest)
	typ, desc := parseTypeExprWithRest(rest, tc)
	m := &index.Member{
		Id:         ids.MemberId{File: w.file, Id: t.syntaxId()},
		Owner:      index.MemberOwner{Kind: index.MemberOwnerType, Type: owner},
		Type:       typ,
		Visibility: visibility,
	}
	if strings.HasPrefix(keyStr, "[") && strings.HasSuffix(keyStr, "]") {
		if n, err := strconv.ParseInt(strings.TrimSpace(keyStr[1:len(keyStr)-1]), 10, 64); err == nil {
			m.Int = n
		}
	} else {
		m.Name = stripQuotes(keyStr)
	}
	w.members.Add(m)
	if desc != "" {
		w.props.GetOrCreate(ids.OwnerFromMember(m.Id)).Description = desc
	}
}

func (w *docWalk) applyOperatorTag(rest string, owner ids.TypeDeclId, tc *typeCtx) {
	name, sigPart := rest, ""
	if i := strings.IndexByte(rest, '('); i >= 0 {
		name, sigPart = strings.TrimSpace(rest[:i]), rest[i:]
	}
	method, ok := operatorMethod(name)
	if !ok {
		return
	}
	var params []types.Param
	var ret types.Type
	if end := matchParen(sigPart); end >= 0 {
		inner := sigPart[1:end]
		for _, p := range splitTopLevel(inner, ',') {
			if p == "" {
				continue
			}
			params = append(params, types.Param{Type: parseTypeExpr(p, tc)})
		}
		after := strings.TrimSpace(sigPart[end+1:])
		if strings.HasPrefix(after, ":") {
			ret = parseTypeExpr(strings.TrimSpace(after[1:]), tc)
		}
	}
	w.ops.Add(&index.Operator{
		Owner: owner, Method: method, File: w.file,
		Func: types.FunctionType{Params: params, Return: ret},
	})
}

func operatorMethod(name string) (index.MetaMethod, bool) {
	switch name {
	case "add":
		return index.MetaAdd, true
	case "sub":
		return index.MetaSub, true
	case "mul":
		return index.MetaMul, true
	case "div":
		return index.MetaDiv, true
	case "mod":
		return index.MetaMod, true
	case "pow":
		return index.MetaPow, true
	case "unm":
		return index.MetaUnm, true
	case "concat":
		return index.MetaConcat, true
	case "len":
		return index.MetaLen, true
	case "eq":
		return index.MetaEq, true
	case "lt":
		return index.MetaLt, true
	case "le":
		return index.MetaLe, true
	case "index":
		return index.MetaIndex, true
	case "newindex":
		return index.MetaNewIdx, true
	case "call":
		return index.MetaCall, true
	default:
		return "", false
	}
}

// applySignatureTags populates sigId's Signature from `@param`/`@return`/
// `@overload`/`@generic` tags, then any async/nodiscard/deprecated/version/
// see/source property tags in the same block (spec §4.1 DocAnalyzer).
func (w *docWalk) applySignatureTags(tags []tag, sigId ids.SignatureId, isColonDef bool) {
	funcTpl := map[string]bool{}
	var generics []types.GenericTplId
	for _, t := range tags {
		if t.Name != "generic" {
			continue
		}
		for _, n := range parseGenericNames("G<" + t.Rest + ">") {
			funcTpl[string(n)] = true
			generics = append(generics, n)
		}
	}
	tc := &typeCtx{internName: w.types.Intern, funcTpl: funcTpl}

	sig := w.sigs.GetOrCreate(sigId)
	sig.IsColonDefine = isColonDef
	if len(generics) > 0 {
		sig.Generics = generics
	}
	var returns []types.Type
	var returnDesc string
	for _, t := range tags {
		switch t.Name {
		case "param":
			name, rest := field(t.Rest)
			optional := strings.HasSuffix(name, "?")
			name = strings.TrimSuffix(name, "?")
			typ, desc := parseTypeExprWithRest(rest, tc)
			if optional {
				typ = types.Nullable{Elem: typ}
			}
			sig.Params = append(sig.Params, types.Param{Name: name, Type: typ})
			if desc != "" {
				sig.ParamDescs[name] = desc
			}
		case "return":
			typ, rest := parseTypeExprWithRest(t.Rest, tc)
			returns = append(returns, typ)
			if returnDesc == "" {
				_, returnDesc = field(rest)
				if returnDesc == "" {
					returnDesc = rest
				}
			}
		case "overload":
			if df, ok := parseTypeExpr(t.Rest, tc).(types.DocFunction); ok {
				sig.Overloads = append(sig.Overloads, df.Func)
			}
		}
	}
	switch len(returns) {
	case 0:
	case 1:
		w.sigs.SetReturn(sigId, returns[0], index.ResolveDoc)
	default:
		w.sigs.SetReturn(sigId, types.Tuple{Elems: returns}, index.ResolveDoc)
	}
	if returnDesc != "" {
		sig.ReturnDesc = returnDesc
	}
	w.applyPropertyTags(tags, ids.OwnerFromSignature(sigId))
}

// applyPropertyTags writes doc-derived metadata shared across every owner
// kind (spec §6 doc tag table's `@async`/`@nodiscard`/`@deprecated`/
// `@version`/`@see`/`@source`).
func (w *docWalk) applyPropertyTags(tags []tag, owner ids.PropertyOwnerId) {
	var touched bool
	for _, t := range tags {
		switch t.Name {
		case "async", "nodiscard", "deprecated", "version", "see", "source":
			touched = true
		}
	}
	if !touched {
		return
	}
	prop := w.props.GetOrCreate(owner)
	for _, t := range tags {
		switch t.Name {
		case "async":
			prop.IsAsync = true
		case "nodiscard":
			prop.NoDiscard = true
		case "deprecated":
			msg := t.Rest
			prop.Deprecated = &msg
		case "version":
			for _, part := range strings.Split(t.Rest, ",") {
				part = strings.TrimSpace(part)
				if part == "" {
					continue
				}
				op, ver := splitVersionOp(part)
				prop.Versions = append(prop.Versions, index.VersionCond{Op: op, Version: ver})
			}
		case "see":
			prop.See = append(prop.See, t.Rest)
		case "source":
			prop.Source = t.Rest
		}
	}
}

func tplSet(names []types.GenericTplId) map[string]bool {
	if len(names) == 0 {
		return nil
	}
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[string(n)] = true
	}
	return m
}
