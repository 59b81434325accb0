package generator

import (
	"bytes"
	"fmt"
	"os"
	"sync"
	"text/template"
)

var (
	globalPromptCache *PromptCache
	cacheOnce         sync.Once
)

// GetPromptCache returns the global prompt cache instance.
func GetPromptCache() *PromptCache {
	cacheOnce.Do(func() {
		globalPromptCache = NewPromptCache()
	})
	return globalPromptCache
}

// PromptCache caches user-supplied prompt files and their parsed
// templates so repeated chapter generations do not re-read them.
type PromptCache struct {
	mu        sync.RWMutex
	templates map[string]*template.Template
	raw       map[string]string
}

func NewPromptCache() *PromptCache {
	return &PromptCache{
		templates: make(map[string]*template.Template),
		raw:       make(map[string]string),
	}
}

// LoadPrompt loads a prompt from file or cache.
func (pc *PromptCache) LoadPrompt(path string) (string, error) {
	pc.mu.RLock()
	if content, ok := pc.raw[path]; ok {
		pc.mu.RUnlock()
		return content, nil
	}
	pc.mu.RUnlock()

	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading prompt file: %w", err)
	}

	pc.mu.Lock()
	pc.raw[path] = string(content)
	pc.mu.Unlock()

	return string(content), nil
}

// LoadTemplate loads and parses a template from file or cache.
func (pc *PromptCache) LoadTemplate(name, path string) (*template.Template, error) {
	pc.mu.RLock()
	if tmpl, ok := pc.templates[path]; ok {
		pc.mu.RUnlock()
		return tmpl, nil
	}
	pc.mu.RUnlock()

	content, err := pc.LoadPrompt(path)
	if err != nil {
		return nil, err
	}

	tmpl, err := template.New(name).Parse(content)
	if err != nil {
		return nil, fmt.Errorf("parsing template: %w", err)
	}

	pc.mu.Lock()
	pc.templates[path] = tmpl
	pc.mu.Unlock()

	return tmpl, nil
}

// Clear removes all cached prompts and templates.
func (pc *PromptCache) Clear() {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.templates = make(map[string]*template.Template)
	pc.raw = make(map[string]string)
}

// RenderPromptFile loads a prompt template file through the global
// cache and renders it with the given data. Used for custom TOC prompt
// files, where {{.Title}} expands to the book title.
func RenderPromptFile(path string, data map[string]any) (string, error) {
	tmpl, err := GetPromptCache().LoadTemplate("prompt", path)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing prompt template: %w", err)
	}
	return buf.String(), nil
}
