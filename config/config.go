// Package config loads the engine's recognised option table (spec §6
// Config) from YAML. Grounded on viant/linager's YAML-tagged struct family
// (analyzer/linage/identity.go) for the tag style and
// analyzer/info/config.go's Config/DefaultConfig pairing for the
// struct-plus-constructor shape; the teacher itself has no config file
// (flag-only CLI), so this package carries no teacher grounding beyond the
// load-warnings logging convention described in SPEC_FULL.md §1.1.
package config

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// RuntimeVersion is one of the Lua dialects the engine can be configured
// against (spec §6 `runtime.version`).
type RuntimeVersion string

const (
	Lua51     RuntimeVersion = "5.1"
	Lua52     RuntimeVersion = "5.2"
	Lua53     RuntimeVersion = "5.3"
	Lua54     RuntimeVersion = "5.4"
	Lua55     RuntimeVersion = "5.5"
	LuaJIT    RuntimeVersion = "LuaJIT"
	LuaLatest RuntimeVersion = "LuaLatest"
)

// ClassDefaultCall synthesizes a `__call` overload on a class from one of
// its named methods (spec §6 `runtime.classDefaultCall`, SPEC_FULL.md §5).
type ClassDefaultCall struct {
	FunctionName    string `yaml:"functionName"`
	ForceNonColon   bool   `yaml:"forceNonColon"`
	ForceReturnSelf bool   `yaml:"forceReturnSelf"`
}

// Runtime is the `runtime.*` key group.
type Runtime struct {
	Version             RuntimeVersion     `yaml:"version"`
	RequireLikeFunction []string           `yaml:"requireLikeFunction"`
	ClassDefaultCall    []ClassDefaultCall `yaml:"classDefaultCall"`
	NonstandardSymbol   []string           `yaml:"nonstandardSymbol"`
}

// Workspace is the `workspace.*` key group controlling file discovery.
type Workspace struct {
	Roots     []string `yaml:"roots"`
	Library   []string `yaml:"library"`
	IgnoreDir []string `yaml:"ignoreDir"`
}

// Strict is the `strict.*` key group tightening inference.
type Strict struct {
	RequireCheckBeforeFieldAccess bool `yaml:"requireCheckBeforeFieldAccess"`
}

// Hint, Completion and Diagnostics are front-end-only key groups (spec §6:
// "affect only LSP handlers"). They are parsed and carried on Config so a
// front-end can read them back, but nothing in `analysis`/`semantic`
// consults them.
type Hint struct {
	ParamHint bool `yaml:"paramHint"`
	IndexHint bool `yaml:"indexHint"`
}

type Completion struct {
	AutoRequire bool `yaml:"autoRequire"`
}

type Diagnostics struct {
	Enable   bool            `yaml:"enable"`
	Disable  []string        `yaml:"disable"`
	Severity map[string]string `yaml:"severity"`
}

// Config is the full recognised option table (spec §6).
type Config struct {
	Runtime     Runtime     `yaml:"runtime"`
	Workspace   Workspace   `yaml:"workspace"`
	Strict      Strict      `yaml:"strict"`
	Hint        Hint        `yaml:"hint"`
	Completion  Completion  `yaml:"completion"`
	Diagnostics Diagnostics `yaml:"diagnostics"`
}

// Default returns the engine's out-of-the-box configuration: Lua 5.4,
// `require` as the only require-like function, no non-standard symbols,
// diagnostics enabled.
func Default() *Config {
	return &Config{
		Runtime: Runtime{
			Version:             Lua54,
			RequireLikeFunction: []string{"require"},
		},
		Diagnostics: Diagnostics{
			Enable: true,
		},
	}
}

// Load reads and parses a YAML config file, starting from Default() so an
// omitted key keeps its default rather than zeroing out. A malformed file
// is logged as a warning through logger and Default() is returned with the
// parse error; a file that cannot be read returns Default() and the read
// error without logging. This mirrors
// the teacher's "never abort the whole run over one bad input" posture
// (analyzer/ast/analyzer.go, SPEC_FULL.md §1.2) — a config parse failure
// should not prevent the engine from starting with sane defaults.
func Load(path string, logger zerolog.Logger) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("config: falling back to defaults")
		return Default(), fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// SupportsBitwiseOperators reports whether the configured runtime exposes
// the Lua 5.3+/LuaJIT bitwise operators (SPEC_FULL.md §5: integer-division
// `//` and the bitwise operators are built-in only for Lua 5.3+/LuaJIT).
func (r Runtime) SupportsBitwiseOperators() bool {
	switch r.Version {
	case Lua53, Lua54, Lua55, LuaJIT, LuaLatest:
		return true
	default:
		return false
	}
}

// SupportsIntegerDivision reports whether `//` is a built-in operator for
// the configured runtime.
func (r Runtime) SupportsIntegerDivision() bool {
	return r.SupportsBitwiseOperators()
}

// IsRequireLike reports whether name should be treated as a `require` call
// for module-reference resolution (spec §6 `runtime.requireLikeFunction`).
func (r Runtime) IsRequireLike(name string) bool {
	for _, n := range r.RequireLikeFunction {
		if n == name {
			return true
		}
	}
	return name == "require"
}
