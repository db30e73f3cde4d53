package analysis

import (
	"strings"

	"github.com/emmylua-ls/emmylua-core/syntax"
	"github.com/emmylua-ls/emmylua-core/types"
)

// leadingDocs returns the doc-comment block attached to st, or nil for
// statement kinds that don't carry one.
func leadingDocs(st syntax.Stat) []syntax.Comment {
	switch s := st.(type) {
	case *syntax.LocalStat:
		return s.Docs
	case *syntax.AssignStat:
		return s.Docs
	case *syntax.FunctionStat:
		return s.Docs
	case *syntax.LocalFunctionStat:
		return s.Docs
	case *syntax.ForNumericStat:
		return s.Docs
	case *syntax.ForInStat:
		return s.Docs
	default:
		return nil
	}
}

// stripQuotes removes one layer of matching "..."/'...' quoting.
func stripQuotes(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// stripGenerics drops a trailing `<...>` template-parameter list, leaving
// the bare type name (`Foo<T>` -> `Foo`).
func stripGenerics(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '<'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}

// parseGenericNames extracts the template parameter names from a `Foo<T,
// U>`-shaped header fragment, empty if s has no `<...>` suffix.
func parseGenericNames(s string) []types.GenericTplId {
	s = strings.TrimSpace(s)
	i := strings.IndexByte(s, '<')
	if i < 0 {
		return nil
	}
	j := strings.LastIndexByte(s, '>')
	if j < i {
		return nil
	}
	var out []types.GenericTplId
	for _, part := range strings.Split(s[i+1:j], ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		// a generic param may carry a `: Constraint` suffix; only the name
		// matters for template-parameter recognition.
		name, _, _ := strings.Cut(part, ":")
		out = append(out, types.GenericTplId(strings.TrimSpace(name)))
	}
	return out
}

// splitAttribs parses a leading `(attrib, attrib)` group off the front of
// s, e.g. `@class (partial) Foo` -> (["partial"], "Foo").
func splitAttribs(s string) ([]string, string) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "(") {
		return nil, s
	}
	end := strings.IndexByte(s, ')')
	if end < 0 {
		return nil, s
	}
	inner := s[1:end]
	rest := strings.TrimSpace(s[end+1:])
	var attrs []string
	for _, a := range strings.Split(inner, ",") {
		a = strings.TrimSpace(a)
		if a != "" {
			attrs = append(attrs, a)
		}
	}
	return attrs, rest
}

// trimParenKey strips a leading `(key)` group from an `@enum (key) Name`
// header, returning just the remainder; the key attribute itself isn't
// otherwise modeled on TypeDecl beyond EnumBase inference, which DocAnalyzer
// fills in from the enum's member value types.
func trimParenKey(s string) string {
	_, rest := splitAttribs(s)
	return rest
}

// cutColonTopLevel splits "Name : Super, Super2" into ("Name", "Super,
// Super2"), ignoring colons nested inside a `<...>` generic parameter list.
func cutColonTopLevel(s string) (string, string, bool) {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<':
			depth++
		case '>':
			depth--
		case ':':
			if depth == 0 {
				return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:]), true
			}
		}
	}
	return strings.TrimSpace(s), "", false
}

// splitTopLevel splits s on sep, ignoring occurrences nested inside
// `<...>` or `(...)` groups (so `table<K,V>, Other` splits into two items,
// not three).
func splitTopLevel(s string, sep byte) []string {
	var out []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<', '(':
			depth++
		case '>', ')':
			depth--
		default:
			if s[i] == sep && depth == 0 {
				out = append(out, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	if start <= len(s) {
		tail := strings.TrimSpace(s[start:])
		if tail != "" {
			out = append(out, tail)
		}
	}
	return out
}

// splitVisibility peels an optional leading `public`/`private`/`protected`/
// `package` word off s (the `[visibility]` prefix shared by `@field` and
// similar tags), defaulting to "public" when absent.
func splitVisibility(s string) (visibility, rest string) {
	first, after := field(s)
	switch first {
	case "public", "private", "protected", "package":
		return first, after
	default:
		return "public", s
	}
}

// matchParen returns the index of the ')' matching the '(' at s[0], or -1
// if s doesn't start with '(' or has no matching close.
func matchParen(s string) int {
	if len(s) == 0 || s[0] != '(' {
		return -1
	}
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitVersionOp peels a leading comparison operator off a `@version`
// clause (">= 5.3" -> (">=", "5.3")), defaulting to "==" when the clause is
// a bare version number.
func splitVersionOp(s string) (op, version string) {
	for _, candidate := range []string{">=", "<=", "==", ">", "<"} {
		if strings.HasPrefix(s, candidate) {
			return candidate, strings.TrimSpace(s[len(candidate):])
		}
	}
	return "==", strings.TrimSpace(s)
}

// hasPrefixWord reports whether s begins with word followed by a
// non-identifier character or end of string (used to recognize `key(x)`
// style attribute fragments without matching `keyword` as a prefix hit).
func hasPrefixWord(s, word string) bool {
	if !strings.HasPrefix(s, word) {
		return false
	}
	if len(s) == len(word) {
		return true
	}
	c := s[len(word)]
	return !(c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9'))
}
