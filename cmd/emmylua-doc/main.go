/*
Command emmylua-doc is the doc-CLI front-end (spec §4/§6: "two front-ends:
an LSP server and a doc-CLI"). Unlike the LSP server, which drives the
engine from an editor's live, already-tokenized buffers, this front-end
has no lexer/parser of its own to turn `.lua` text on disk into a
syntax.File — that collaborator lives outside this module (syntax/builder.go
documents the same boundary for syntax.File construction in tests). So
emmylua-doc's job is scoped to what it can do without one: load and
validate a workspace config.yml, stand up an Engine against it, and emit a
JSON report of the resolved configuration and the diagnostic codes it
would raise — useful for `emmylua-doc -config emmylua.yml` as a config
linter, or for a build step that wants to assert which diagnostic codes
are active before any source file is fed to the engine by a real front-end.

Grounded on the teacher's analyzer/main.go: flag-driven subcommands, a
single `encodeJSON`/`writeGzipJSON` output path, and `mustAbs` for
resolving user-supplied paths.
*/
package main

import (
	"compress/gzip"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/emmylua-ls/emmylua-core/config"
	"github.com/emmylua-ls/emmylua-core/diagnostic"
	"github.com/emmylua-ls/emmylua-core/engine"
)

// WorkspaceReport is the JSON shape emitted for the default command: the
// resolved config plus the identity of the engine instance it was used to
// construct, so a caller can correlate this report against that engine's
// own log lines (both carry the same uuid).
type WorkspaceReport struct {
	EngineID           string   `json:"engineId"`
	RuntimeVersion     string   `json:"runtimeVersion"`
	RequireLikeFuncs   []string `json:"requireLikeFunctions"`
	NonstandardSymbols []string `json:"nonstandardSymbols"`
	WorkspaceRoots     []string `json:"workspaceRoots"`
	WorkspaceLibrary   []string `json:"workspaceLibrary"`
	DiagnosticsEnabled bool     `json:"diagnosticsEnabled"`
	DiagnosticsDisable []string `json:"diagnosticsDisabled,omitempty"`
}

// DiagnosticCodeInfo is one row of the `-list-diagnostics` table.
type DiagnosticCodeInfo struct {
	Code     string `json:"code"`
	Severity string `json:"severity"`
}

func main() {
	configPath := flag.String("config", "", "Path to a workspace config YAML file (defaults applied if omitted)")
	listDiagnostics := flag.Bool("list-diagnostics", false, "List every diagnostic code and its default severity, then exit")
	compress := flag.Bool("compress", false, "Output gzip-compressed JSON")
	flag.Parse()

	log := zerolog.New(os.Stderr).With().Timestamp().Str("cmd", "emmylua-doc").Logger()

	if *listDiagnostics {
		encodeJSON(diagnosticCodeTable(), *compress)
		return
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(mustAbs(*configPath), log)
		if err != nil {
			log.Warn().Err(err).Str("path", *configPath).Msg("falling back to default config")
		}
		cfg = loaded
	}

	eng := engine.New(cfg, log)
	encodeJSON(reportFor(eng, cfg), *compress)
}

func reportFor(eng *engine.Engine, cfg *config.Config) WorkspaceReport {
	return WorkspaceReport{
		EngineID:           eng.ID().String(),
		RuntimeVersion:     string(cfg.Runtime.Version),
		RequireLikeFuncs:   cfg.Runtime.RequireLikeFunction,
		NonstandardSymbols: cfg.Runtime.NonstandardSymbol,
		WorkspaceRoots:     cfg.Workspace.Roots,
		WorkspaceLibrary:   cfg.Workspace.Library,
		DiagnosticsEnabled: cfg.Diagnostics.Enable,
		DiagnosticsDisable: cfg.Diagnostics.Disable,
	}
}

func diagnosticCodeTable() []DiagnosticCodeInfo {
	codes := diagnostic.Codes()
	out := make([]DiagnosticCodeInfo, 0, len(codes))
	for _, c := range codes {
		out = append(out, DiagnosticCodeInfo{
			Code:     string(c),
			Severity: diagnostic.DefaultSeverity(c).String(),
		})
	}
	return out
}

// encodeJSON serializes output as JSON and writes it to stdout, optionally
// gzip-compressed.
func encodeJSON(output any, compress bool) {
	if compress {
		writeGzipJSON(output)
		return
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(output); err != nil {
		panic("failed to encode JSON: " + err.Error())
	}
}

// writeGzipJSON writes gzip-compressed JSON to stdout.
func writeGzipJSON(output any) {
	gzWriter := gzip.NewWriter(os.Stdout)
	defer gzWriter.Close()

	enc := json.NewEncoder(gzWriter)
	enc.SetIndent("", "")
	if err := enc.Encode(output); err != nil {
		panic("failed to encode JSON: " + err.Error())
	}
	if err := gzWriter.Close(); err != nil {
		panic("failed to close gzip writer: " + err.Error())
	}
}

// mustAbs resolves path to an absolute path.
func mustAbs(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		panic("could not resolve absolute path for " + path + ": " + err.Error())
	}
	return abs
}
