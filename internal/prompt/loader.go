// Package prompt loads the system prompts used by the demo graphs.
//
// Prompts ship embedded in the binary (prompts/*.md) and can be overridden
// at runtime by files of the same name in a prompts directory (PROMPTS_DIR).
// Placeholders such as {{BOOK_TITLE}} are filled with PatchFile.
//
// The Loader is safe for concurrent use.
package prompt

import (
	"embed"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Names of the shipped prompt files.
const (
	QuestioningSystem      = "questioning_system.md"
	QuestioningConsolidate = "questioning_consolidate.md"
	PlannerSystem          = "planner_system.md"
	BookSystem             = "bookrag_system.md"
)

// defaultPrompts embeds the prompt files shipped with the binary.
//
//go:embed prompts/*
var defaultPrompts embed.FS

// Loader reads prompt files, caching contents after the first read; call
// Reload to invalidate the cache.
type Loader struct {
	promptsDir string // runtime override directory (may be empty)
	cache      map[string]string
	patches    []patchEntry // recorded PatchFile calls, reapplied after Reload
	mu         sync.RWMutex
}

type patchEntry struct {
	Name, OldStr, NewStr string
}

// NewLoader creates a Loader that reads files from promptsDir, falling back
// to the embedded defaults. An empty promptsDir uses only the embedded files.
func NewLoader(promptsDir string) *Loader {
	return &Loader{
		promptsDir: promptsDir,
		cache:      make(map[string]string),
	}
}

// Load returns the content of the named prompt file with surrounding
// whitespace trimmed.
//
// Priority:
//  1. Disk file at promptsDir/name
//  2. Embedded default at prompts/name
//  3. Empty string
func (l *Loader) Load(name string) string {
	l.mu.RLock()
	if val, ok := l.cache[name]; ok {
		l.mu.RUnlock()
		return val
	}
	l.mu.RUnlock()

	content := l.loadUncached(name)

	// Double-check: another goroutine may have filled the entry meanwhile.
	l.mu.Lock()
	defer l.mu.Unlock()
	if val, ok := l.cache[name]; ok {
		return val
	}
	l.cache[name] = content
	return content
}

func (l *Loader) loadUncached(name string) string {
	if l.promptsDir != "" {
		diskPath := filepath.Join(l.promptsDir, name)
		data, err := os.ReadFile(diskPath)
		if err == nil {
			return strings.TrimSpace(string(data))
		}
		if !os.IsNotExist(err) {
			log.Printf("[Prompt] Warning: read %q failed: %v; falling back to embedded default", diskPath, err)
		}
	}

	data, err := fs.ReadFile(defaultPrompts, "prompts/"+name)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// PatchFile loads the named file, replaces every oldStr with newStr and
// caches the result. The patch survives Reload.
func (l *Loader) PatchFile(name, oldStr, newStr string) {
	patched := strings.ReplaceAll(l.Load(name), oldStr, newStr)

	l.mu.Lock()
	l.cache[name] = patched
	l.patches = append(l.patches, patchEntry{Name: name, OldStr: oldStr, NewStr: newStr})
	l.mu.Unlock()
}

// Reload clears the cache so subsequent loads re-read from disk, then
// reapplies recorded patches.
func (l *Loader) Reload() {
	l.mu.Lock()
	l.cache = make(map[string]string)
	patches := append([]patchEntry(nil), l.patches...)
	l.mu.Unlock()

	for _, p := range patches {
		// Cache-first so several patches to one file accumulate.
		l.mu.RLock()
		content, ok := l.cache[p.Name]
		l.mu.RUnlock()
		if !ok {
			content = l.loadUncached(p.Name)
		}
		l.mu.Lock()
		l.cache[p.Name] = strings.ReplaceAll(content, p.OldStr, p.NewStr)
		l.mu.Unlock()
	}
}
