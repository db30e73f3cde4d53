// Package analysis implements the multi-pass pipeline that turns parsed
// syntax trees into populated indices (spec §4.1): DeclAnalyzer walks scope
// and registers every name; DocAnalyzer reads EmmyLua annotation tags;
// LuaAnalyzer assigns types from initializers and defers what it can't
// finish yet; FlowAnalyzer records branch-narrowing assertions; the
// Resolver drains the deferred queue to a fixpoint, then once more in
// force mode. Grounded on the teacher's phased `AnalyzeDir`
// (analyzer/ast/analyzer.go, "Phase 1 ... Phase 6" comments) for the shape
// of a multi-phase pass over a file set with a merge step at the end.
package analysis

import (
	"strconv"
	"strings"

	"github.com/emmylua-ls/emmylua-core/ids"
	"github.com/emmylua-ls/emmylua-core/syntax"
	"github.com/emmylua-ls/emmylua-core/types"
)

// tag is one parsed `---@xxx ...` line, split into its name and the raw
// remainder of the line (spec §6 doc-comment surface: "@class [attribs]
// Name...", "@field [visibility] key T [desc]", etc).
type tag struct {
	Name  string
	Rest  string
	Range syntax.Range
}

// syntaxId addresses t's source comment line, used to mint a MemberId for
// `@field`/`@operator` tags (which have no dedicated syntax node of their
// own in the stand-in tree).
func (t tag) syntaxId() syntax.SyntaxId {
	return syntax.SyntaxId{Kind: syntax.KindDocTag, Range: t.Range}
}

// parseTags extracts every doc tag from a run of leading "---" comments
// immediately preceding a declaration. Plain "--" comments (IsDoc == false)
// are ignored; multi-line tags are not supported, matching the teacher's
// own "one concern per line" doc-comment convention.
func parseTags(docs []syntax.Comment) []tag {
	var out []tag
	for _, c := range docs {
		if !c.IsDoc {
			continue
		}
		text := strings.TrimSpace(c.Text)
		if !strings.HasPrefix(text, "@") {
			continue
		}
		text = text[1:]
		name, rest, _ := strings.Cut(text, " ")
		out = append(out, tag{Name: name, Rest: strings.TrimSpace(rest), Range: c.Range})
	}
	return out
}

// field splits s on the first run of whitespace, returning "" for rest
// when s has no second token.
func field(s string) (first, rest string) {
	s = strings.TrimSpace(s)
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i+1:])
}

// typeParser parses the small EmmyLua type-expression grammar used in doc
// tags: names (possibly dotted), `nil`, `fun(params):ret`, arrays `T[]`,
// optionals `T?`, unions `A|B`, `table<K,V>`, generic instantiation
// `Name<T,...>`, string/number literal types, and parenthesized groups.
// Grounded on original_source's doc-comment type grammar, reduced to what
// the spec's concrete scenarios (S1-S6) and tag table actually need; not a
// full EmmyLua type-expression parser (no `...`-in-tuple or `@*` keyof
// sugar beyond what parseNameOrGeneric below recognizes).
type typeParser struct {
	s   string
	pos int
	tc  *typeCtx
}

// typeCtx gives the parser access to the enclosing analysis state it needs
// to resolve a bare name: the type interner (to mint/reuse a TypeDeclId)
// and the active generic template parameter names (class- and
// signature-level), so `T` inside a generic class/function parses as a
// TplRef/FuncTplRef instead of a nominal Ref.
type typeCtx struct {
	internName func(name string) ids.TypeDeclId
	classTpl   map[string]bool
	funcTpl    map[string]bool
}

func parseTypeExpr(s string, tc *typeCtx) types.Type {
	p := &typeParser{s: s, tc: tc}
	t := p.parseUnion()
	if t == nil {
		return types.Unknown
	}
	return t
}

// parseTypeExprWithRest parses one type expression off the front of s and
// returns whatever text is left over (a `[name] [desc]` tail, for tags like
// `@param`/`@field`/`@return` that pack a description after the type).
func parseTypeExprWithRest(s string, tc *typeCtx) (types.Type, string) {
	p := &typeParser{s: s, tc: tc}
	t := p.parseUnion()
	if t == nil {
		t = types.Unknown
	}
	return t, strings.TrimSpace(p.s[p.pos:])
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.s) && (p.s[p.pos] == ' ' || p.s[p.pos] == '\t') {
		p.pos++
	}
}

func (p *typeParser) peek() byte {
	if p.pos >= len(p.s) {
		return 0
	}
	return p.s[p.pos]
}

func (p *typeParser) parseUnion() types.Type {
	first := p.parsePostfix()
	if first == nil {
		return nil
	}
	elems := []types.Type{first}
	for {
		p.skipSpace()
		if p.peek() != '|' {
			break
		}
		p.pos++
		next := p.parsePostfix()
		if next == nil {
			break
		}
		elems = append(elems, next)
	}
	if len(elems) == 1 {
		return elems[0]
	}
	return types.Union{Elems: elems}
}

// parsePostfix parses one atom followed by any number of `[]`/`?` suffixes.
func (p *typeParser) parsePostfix() types.Type {
	t := p.parseAtom()
	if t == nil {
		return nil
	}
	for {
		p.skipSpace()
		switch {
		case strings.HasPrefix(p.s[p.pos:], "[]"):
			p.pos += 2
			t = types.Array{Elem: t}
		case p.peek() == '?':
			p.pos++
			t = types.Nullable{Elem: t}
		default:
			return t
		}
	}
}

func (p *typeParser) parseAtom() types.Type {
	p.skipSpace()
	switch {
	case p.peek() == '(':
		p.pos++
		t := p.parseUnion()
		p.skipSpace()
		if p.peek() == ')' {
			p.pos++
		}
		return t
	case p.peek() == '"' || p.peek() == '\'':
		return p.parseStringLiteral()
	case strings.HasPrefix(p.s[p.pos:], "fun("):
		return p.parseFun()
	case strings.HasPrefix(p.s[p.pos:], "table<"):
		return p.parseTableGeneric()
	default:
		return p.parseNameOrGeneric()
	}
}

func (p *typeParser) parseStringLiteral() types.Type {
	quote := p.s[p.pos]
	p.pos++
	start := p.pos
	for p.pos < len(p.s) && p.s[p.pos] != quote {
		p.pos++
	}
	val := p.s[start:p.pos]
	if p.pos < len(p.s) {
		p.pos++
	}
	return types.DocStringConst{Value: val}
}

func (p *typeParser) parseFun() types.Type {
	p.pos += len("fun(")
	var params []types.Param
	for {
		p.skipSpace()
		if p.peek() == ')' || p.pos >= len(p.s) {
			break
		}
		name, rest := p.readIdent()
		paramType := types.Type(nil)
		p.pos = rest
		p.skipSpace()
		if p.peek() == ':' {
			p.pos++
			paramType = p.parseUnion()
		}
		params = append(params, types.Param{Name: name, Type: paramType})
		p.skipSpace()
		if p.peek() == ',' {
			p.pos++
			continue
		}
		break
	}
	p.skipSpace()
	if p.peek() == ')' {
		p.pos++
	}
	var ret types.Type
	p.skipSpace()
	if p.peek() == ':' {
		p.pos++
		ret = p.parseUnion()
	}
	return types.DocFunction{Func: types.FunctionType{Params: params, Return: ret}}
}

func (p *typeParser) parseTableGeneric() types.Type {
	p.pos += len("table<")
	var params []types.Type
	for {
		p.skipSpace()
		t := p.parseUnion()
		if t == nil {
			break
		}
		params = append(params, t)
		p.skipSpace()
		if p.peek() == ',' {
			p.pos++
			continue
		}
		break
	}
	p.skipSpace()
	if p.peek() == '>' {
		p.pos++
	}
	return types.TableGeneric{Params: params}
}

func (p *typeParser) readIdent() (string, int) {
	start := p.pos
	i := p.pos
	for i < len(p.s) {
		c := p.s[i]
		if c == '_' || c == '.' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			i++
			continue
		}
		break
	}
	return p.s[start:i], i
}

func (p *typeParser) parseNameOrGeneric() types.Type {
	name, end := p.readIdent()
	p.pos = end
	if name == "" {
		return nil
	}
	switch name {
	case "nil":
		return types.Nil
	case "any":
		return types.Any
	case "boolean", "bool":
		return types.Boolean
	case "number":
		return types.Number
	case "integer":
		return types.Integer
	case "float":
		return types.Float
	case "string":
		return types.String
	case "table":
		return types.Table
	case "thread":
		return types.Thread
	case "userdata":
		return types.Userdata
	case "function":
		return types.Function
	case "self":
		return types.SelfInfer
	}
	if i, err := strconv.ParseInt(name, 10, 64); err == nil {
		return types.DocIntegerConst{Value: i}
	}
	if p.tc != nil {
		if p.tc.classTpl[name] {
			return types.TplRef{Id: types.GenericTplId(name)}
		}
		if p.tc.funcTpl[name] {
			return types.FuncTplRef{Id: types.FuncTplId(name)}
		}
	}
	declId := p.tc.internName(name)
	p.skipSpace()
	if p.peek() == '<' {
		p.pos++
		var params []types.Type
		for {
			t := p.parseUnion()
			if t == nil {
				break
			}
			params = append(params, t)
			p.skipSpace()
			if p.peek() == ',' {
				p.pos++
				continue
			}
			break
		}
		p.skipSpace()
		if p.peek() == '>' {
			p.pos++
		}
		return types.Generic{Base: declId, Params: params}
	}
	return types.Ref{Decl: declId}
}
