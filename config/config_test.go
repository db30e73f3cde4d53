package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/txtar"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, Lua54, cfg.Runtime.Version)
	assert.True(t, cfg.Runtime.IsRequireLike("require"))
	assert.False(t, cfg.Runtime.IsRequireLike("import"))
	assert.True(t, cfg.Diagnostics.Enable)
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "emmylua.yml")
	content := `
runtime:
  version: "5.1"
  requireLikeFunction: ["require", "import"]
workspace:
  roots: ["src"]
strict:
  requireCheckBeforeFieldAccess: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, Lua51, cfg.Runtime.Version)
	assert.True(t, cfg.Runtime.IsRequireLike("import"))
	assert.Equal(t, []string{"src"}, cfg.Workspace.Roots)
	assert.True(t, cfg.Strict.RequireCheckBeforeFieldAccess)
}

func TestLoadMissingFileFallsBackToDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yml"), zerolog.Nop())
	require.Error(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMalformedFileFallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yml")
	require.NoError(t, os.WriteFile(path, []byte("runtime: [this, is, not, a, map]"), 0o644))

	cfg, err := Load(path, zerolog.Nop())
	require.Error(t, err)
	assert.Equal(t, Default(), cfg)
}

// runtimeConfigFixtures bundles every runtime-version YAML variant this
// test wants to load into one txtar archive, so the variants live next to
// each other on disk/in diffs instead of as N separate heredocs.
const runtimeConfigFixtures = `
-- lua51.yml --
runtime:
  version: "5.1"
-- lua53.yml --
runtime:
  version: "5.3"
-- luajit.yml --
runtime:
  version: "LuaJIT"
`

func TestLoadAcrossRuntimeVersions(t *testing.T) {
	arc := txtar.Parse([]byte(runtimeConfigFixtures))
	dir := t.TempDir()

	wantBitwise := map[string]bool{
		"lua51.yml":  false,
		"lua53.yml":  true,
		"luajit.yml": true,
	}

	for _, f := range arc.Files {
		path := filepath.Join(dir, f.Name)
		require.NoError(t, os.WriteFile(path, f.Data, 0o644))

		cfg, err := Load(path, zerolog.Nop())
		require.NoError(t, err)
		assert.Equal(t, wantBitwise[f.Name], cfg.Runtime.SupportsBitwiseOperators(), "fixture %s", f.Name)
	}
}

func TestRuntimeSupportsBitwiseOperators(t *testing.T) {
	assert.False(t, Runtime{Version: Lua51}.SupportsBitwiseOperators())
	assert.False(t, Runtime{Version: Lua52}.SupportsBitwiseOperators())
	assert.True(t, Runtime{Version: Lua53}.SupportsBitwiseOperators())
	assert.True(t, Runtime{Version: LuaJIT}.SupportsBitwiseOperators())
	assert.True(t, Runtime{Version: Lua53}.SupportsIntegerDivision())
}
