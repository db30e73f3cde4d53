// Package diagnostic implements the front-end checkers described as
// "reference only" over the semantic model (spec §4.5): assign-type
// mismatches, argument-count problems, duplicate/missing table fields,
// undefined globals and unguarded nil access. Every checker reads
// `semantic.Model`/`syntax.File` only — it never mutates an index, mirroring
// the teacher's `validator` package sitting downstream of `analyzer`
// (analyzer/ast extracts, validator/* only reads the extracted result).
package diagnostic

import (
	"fmt"
	"sort"

	"github.com/emmylua-ls/emmylua-core/semantic"
	"github.com/emmylua-ls/emmylua-core/syntax"
)

// Severity mirrors the teacher's string severities (ValidationResult.Severity)
// as a small enum so callers can filter/sort without string comparisons.
type Severity uint8

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityHint
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "hint"
	}
}

// Code is a stable short diagnostic identifier: the name a
// `---@diagnostic disable: code` tag would use (spec §6 doc-comment
// surface; this module does not act on such tags) and a config override key (spec §7 "Severities default by code; overridable by
// config").
type Code string

const (
	CodeAssignTypeMismatch Code = "assign-type-mismatch"
	CodeMissingParameter   Code = "missing-parameter"
	CodeRedundantParameter Code = "redundant-parameter"
	CodeReturnTypeMismatch Code = "return-type-mismatch"
	CodeMissingFields      Code = "missing-fields"
	CodeDuplicateField     Code = "duplicate-field"
	CodeUndefinedGlobal    Code = "undefined-global"
	CodeNeedCheckNil       Code = "need-check-nil"
)

// defaultSeverity is every code's out-of-the-box severity, overridable per
// spec §7 via Config.
var defaultSeverity = map[Code]Severity{
	CodeAssignTypeMismatch: SeverityError,
	CodeMissingParameter:   SeverityError,
	CodeRedundantParameter: SeverityWarning,
	CodeReturnTypeMismatch: SeverityError,
	CodeMissingFields:      SeverityWarning,
	CodeDuplicateField:     SeverityWarning,
	CodeUndefinedGlobal:    SeverityWarning,
	CodeNeedCheckNil:       SeverityError,
}

// Diagnostic is one user-visible finding, the Go shape of spec §6's
// `diagnostics(fileId, cancel_token) → [Diagnostic]`. Grounded on the
// teacher's ValidationResult (analyzer/validator/types.go), trimmed of the
// template-specific fields (GoFile/GoLine annotate a *caller* of a template,
// which has no analogue here) and given a stable Code instead of a bare
// Variable string.
type Diagnostic struct {
	Code     Code
	Severity Severity
	Message  string
	File     syntax.FileId
	Range    syntax.Range
}

// Check runs one rule over a file and returns every finding it raised.
type Check func(m *semantic.Model, f *syntax.File) []Diagnostic

// DefaultChecks is every checker this package ships, in the stable order
// they should be reported (errors affecting correctness first, style/
// completeness checks last) — mirrors the teacher's top-level
// `ValidateTemplates` running duplicate-block detection before per-call
// content validation.
var DefaultChecks = []Check{
	checkAssignTypeMismatch,
	checkReturnTypeMismatch,
	checkParameterCount,
	checkNeedCheckNil,
	checkDuplicateField,
	checkMissingFields,
	checkUndefinedGlobal,
}

// Run executes every check in checks (DefaultChecks if nil) against f and
// replaces the severity of each diagnostic whose code has an entry in
// overrides; every diagnostic is returned, none is dropped. Grounded on the teacher's ValidateTemplates entry point,
// simplified to a single file per call since spec §6 scopes `diagnostics`
// to one fileId at a time (the engine, not this package, fans this out
// across a workspace).
func Run(m *semantic.Model, f *syntax.File, checks []Check, overrides map[Code]Severity) []Diagnostic {
	if checks == nil {
		checks = DefaultChecks
	}
	var out []Diagnostic
	for _, check := range checks {
		for _, d := range check(m, f) {
			if sev, ok := overrides[d.Code]; ok {
				d.Severity = sev
			}
			out = append(out, d)
		}
	}
	return out
}

// Codes returns every diagnostic code this package can raise, sorted for
// stable CLI/config-docs output (a front-end listing codes before any file
// has been analyzed has nothing else to range over).
func Codes() []Code {
	out := make([]Code, 0, len(defaultSeverity))
	for c := range defaultSeverity {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// DefaultSeverity returns code's out-of-the-box severity, for front ends
// that want to display it without waiting for a Run to happen to observe it.
func DefaultSeverity(code Code) Severity {
	return defaultSeverity[code]
}

func newDiagnostic(file syntax.FileId, rng syntax.Range, code Code, format string, args ...any) Diagnostic {
	return Diagnostic{
		Code:     code,
		Severity: defaultSeverity[code],
		Message:  fmt.Sprintf(format, args...),
		File:     file,
		Range:    rng,
	}
}
