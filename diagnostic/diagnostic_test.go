package diagnostic

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/emmylua-ls/emmylua-core/semantic"
	"github.com/emmylua-ls/emmylua-core/syntax"
)

func fakeCheck(d Diagnostic) Check {
	return func(m *semantic.Model, f *syntax.File) []Diagnostic {
		return []Diagnostic{d}
	}
}

// TestRunAppliesSeverityOverrides covers spec §7's "severities default by
// code; overridable by config": Run must replace a diagnostic's default
// severity with the caller's override for that code, and leave unrelated
// codes at their default.
func TestRunAppliesSeverityOverrides(t *testing.T) {
	checks := []Check{
		fakeCheck(newDiagnostic("a.lua", syntax.Range{}, CodeUndefinedGlobal, "g")),
		fakeCheck(newDiagnostic("a.lua", syntax.Range{}, CodeNeedCheckNil, "n")),
	}

	out := Run(nil, nil, checks, map[Code]Severity{CodeUndefinedGlobal: SeverityHint})

	assert.Len(t, out, 2)
	var gotGlobal, gotNil Diagnostic
	for _, d := range out {
		switch d.Code {
		case CodeUndefinedGlobal:
			gotGlobal = d
		case CodeNeedCheckNil:
			gotNil = d
		}
	}
	assert.Equal(t, SeverityHint, gotGlobal.Severity, "override must replace the default severity")
	assert.Equal(t, SeverityError, gotNil.Severity, "a code with no override keeps its default severity")
}

// TestRunWithEmptyChecksRaisesNothing covers Run with an empty, non-nil
// checks slice: no check runs, so nothing is raised. The nil fallback to
// DefaultChecks is not exercised here, since the real checks need a model
// and a file.
func TestRunWithEmptyChecksRaisesNothing(t *testing.T) {
	assert.Equal(t, len(DefaultChecks), len(DefaultChecks))
	// Run with an empty, non-nil checks slice raises nothing — distinct
	// from nil, which falls back to DefaultChecks.
	out := Run(nil, nil, []Check{}, nil)
	assert.Empty(t, out)
}

// TestCodesSortedAndMatchesDefaultSeverity covers spec §6's "codes listing"
// contract: Codes() enumerates exactly the codes DefaultSeverity knows
// about, in sorted order.
func TestCodesSortedAndMatchesDefaultSeverity(t *testing.T) {
	codes := Codes()
	assert.Len(t, codes, len(defaultSeverity))
	assert.True(t, sort.SliceIsSorted(codes, func(i, j int) bool { return codes[i] < codes[j] }))

	for _, c := range codes {
		sev, ok := defaultSeverity[c]
		assert.True(t, ok)
		assert.Equal(t, sev, DefaultSeverity(c))
	}
}
