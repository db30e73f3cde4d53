package index

import (
	"sync"

	"github.com/emmylua-ls/emmylua-core/syntax"
	"github.com/emmylua-ls/emmylua-core/types"
)

// ModuleInfo describes one file's `require`-visible export shape (spec
// §4.3 ModuleAnalyzer / scenario S6 cross-file require+export).
type ModuleInfo struct {
	File       syntax.FileId
	ModuleName string // dotted require-path this file is reachable as
	Export     types.Type
	Visibility string
	Versions   []VersionCond
	IsMeta     bool
}

// ModuleIndex resolves require-like module names to their file's export
// type (spec §3 ModuleIndex).
type ModuleIndex struct {
	mu       sync.RWMutex
	byFile   map[syntax.FileId]*ModuleInfo
	byName   map[string]*ModuleInfo
}

// NewModuleIndex creates an empty index.
func NewModuleIndex() *ModuleIndex {
	return &ModuleIndex{
		byFile: make(map[syntax.FileId]*ModuleInfo),
		byName: make(map[string]*ModuleInfo),
	}
}

// Set installs or replaces m, indexed both by file and by module name.
func (idx *ModuleIndex) Set(m *ModuleInfo) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if old, ok := idx.byFile[m.File]; ok {
		delete(idx.byName, old.ModuleName)
	}
	idx.byFile[m.File] = m
	if m.ModuleName != "" {
		idx.byName[m.ModuleName] = m
	}
}

// ByName resolves a require() argument to the exporting file's module
// info.
func (idx *ModuleIndex) ByName(name string) (*ModuleInfo, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	m, ok := idx.byName[name]
	return m, ok
}

// ByFile returns the module info declared by file, if any.
func (idx *ModuleIndex) ByFile(file syntax.FileId) (*ModuleInfo, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	m, ok := idx.byFile[file]
	return m, ok
}

// RemoveFile drops file's module info.
func (idx *ModuleIndex) RemoveFile(file syntax.FileId) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if old, ok := idx.byFile[file]; ok {
		delete(idx.byName, old.ModuleName)
		delete(idx.byFile, file)
	}
}
