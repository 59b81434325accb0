package generator

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPromptCache(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "prompt-cache-test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tempDir)

	testFile := filepath.Join(tempDir, "toc_prompt.txt")
	testContent := "Create a table of contents for '{{.Title}}'."
	if err := os.WriteFile(testFile, []byte(testContent), 0644); err != nil {
		t.Fatal(err)
	}

	cache := NewPromptCache()

	t.Run("loads prompt from file", func(t *testing.T) {
		content, err := cache.LoadPrompt(testFile)
		if err != nil {
			t.Fatalf("LoadPrompt() error = %v", err)
		}

		if content != testContent {
			t.Errorf("LoadPrompt() = %q, want %q", content, testContent)
		}
	})

	t.Run("caches prompt content", func(t *testing.T) {
		if _, err := cache.LoadPrompt(testFile); err != nil {
			t.Fatal(err)
		}

		// Modify file after first load
		if err := os.WriteFile(testFile, []byte("Modified content"), 0644); err != nil {
			t.Fatal(err)
		}

		// Second load should return cached content, not new content
		content, err := cache.LoadPrompt(testFile)
		if err != nil {
			t.Fatal(err)
		}

		if content != testContent {
			t.Errorf("LoadPrompt() = %q, want cached content %q", content, testContent)
		}
	})

	t.Run("loads and caches template", func(t *testing.T) {
		tmpl, err := cache.LoadTemplate("toc", testFile)
		if err != nil {
			t.Fatalf("LoadTemplate() error = %v", err)
		}

		if tmpl.Name() != "toc" {
			t.Errorf("template name = %q, want %q", tmpl.Name(), "toc")
		}
	})

	t.Run("handles missing file", func(t *testing.T) {
		if _, err := cache.LoadPrompt(filepath.Join(tempDir, "nonexistent.txt")); err == nil {
			t.Error("LoadPrompt() with nonexistent file should return error")
		}
	})

	t.Run("clear cache", func(t *testing.T) {
		cache.Clear()
		content, err := cache.LoadPrompt(testFile)
		if err != nil {
			t.Fatal(err)
		}
		if content != "Modified content" {
			t.Errorf("after Clear(), LoadPrompt() = %q, want re-read content", content)
		}
	})
}

func TestRenderPromptFile(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "prompt-render-test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tempDir)

	testFile := filepath.Join(tempDir, "custom.txt")
	if err := os.WriteFile(testFile, []byte("TOC for {{.Title}}, please."), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := RenderPromptFile(testFile, map[string]any{"Title": "Go Patterns"})
	if err != nil {
		t.Fatalf("RenderPromptFile() error = %v", err)
	}
	if got != "TOC for Go Patterns, please." {
		t.Errorf("RenderPromptFile() = %q", got)
	}
}

func TestDefaultPrompts(t *testing.T) {
	p := DefaultTOCPrompt("Go Patterns")
	for _, want := range []string{"'Go Patterns'", "JSON list", "'title'", "'subchapters'"} {
		if !strings.Contains(p, want) {
			t.Errorf("DefaultTOCPrompt missing %q", want)
		}
	}
}
