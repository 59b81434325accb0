package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFileSystemSecurity(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "bookgen-test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tempDir)

	// Create a test file outside the base directory
	outsideFile := filepath.Join(filepath.Dir(tempDir), "outside.txt")
	if err := os.WriteFile(outsideFile, []byte("secret"), 0644); err != nil {
		t.Fatal(err)
	}
	defer os.Remove(outsideFile)

	fs := NewFileSystem(tempDir)
	ctx := context.Background()

	t.Run("Save prevents directory traversal", func(t *testing.T) {
		tests := []struct {
			name string
			path string
			want bool // true if should succeed
		}{
			{"normal path", "book.md", true},
			{"subdirectory", "drafts/book.md", true},
			{"parent traversal", "../book.md", false},
			{"complex traversal", "drafts/../../book.md", false},
			{"absolute path", "/etc/passwd", false},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				err := fs.Save(ctx, tt.path, []byte("test"))
				if tt.want && err != nil {
					t.Errorf("expected success, got error: %v", err)
				}
				if !tt.want && err == nil {
					t.Errorf("expected error for path %q, got none", tt.path)
				}
			})
		}
	})

	t.Run("Load prevents directory traversal", func(t *testing.T) {
		validPath := filepath.Join(tempDir, "valid.txt")
		if err := os.WriteFile(validPath, []byte("valid"), 0644); err != nil {
			t.Fatal(err)
		}

		tests := []struct {
			name string
			path string
			want bool
		}{
			{"normal path", "valid.txt", true},
			{"parent traversal", "../outside.txt", false},
			{"absolute path", outsideFile, false},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := fs.Load(ctx, tt.path)
				if tt.want && err != nil {
					t.Errorf("expected success, got error: %v", err)
				}
				if !tt.want && err == nil {
					t.Errorf("expected error for path %q, got none", tt.path)
				}
			})
		}
	})
}

func TestAppend(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "bookgen-test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tempDir)

	fs := NewFileSystem(tempDir)
	ctx := context.Background()

	if err := fs.Append(ctx, "book.md", []byte("# Title\n")); err != nil {
		t.Fatal(err)
	}
	if err := fs.Append(ctx, "book.md", []byte("## Chapter 1\n")); err != nil {
		t.Fatal(err)
	}

	data, err := fs.Load(ctx, "book.md")
	if err != nil {
		t.Fatal(err)
	}
	want := "# Title\n## Chapter 1\n"
	if string(data) != want {
		t.Errorf("got %q, want %q", data, want)
	}

	if err := fs.Append(ctx, "../escape.md", []byte("x")); err == nil {
		t.Error("expected traversal error")
	}
}

func TestSaveOverwrites(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "bookgen-test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tempDir)

	fs := NewFileSystem(tempDir)
	ctx := context.Background()

	if err := fs.Save(ctx, "toc.json", []byte("old")); err != nil {
		t.Fatal(err)
	}
	if err := fs.Save(ctx, "toc.json", []byte("new")); err != nil {
		t.Fatal(err)
	}

	data, err := fs.Load(ctx, "toc.json")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "new" {
		t.Errorf("got %q, want %q", data, "new")
	}
}

func TestSanitizePath(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "bookgen-test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tempDir)

	fs := &FileSystem{baseDir: tempDir}

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"simple file", "book.md", false},
		{"nested file", "dir/book.md", false},
		{"dot file", ".hidden", false},
		{"parent directory", "../book.md", true},
		{"sneaky parent", "dir/../../../etc/passwd", true},
		{"absolute path", "/etc/passwd", true},
		{"double dot", "..", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := fs.sanitizePath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("sanitizePath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
				return
			}
			if err == nil && !filepath.HasPrefix(got, tempDir) {
				t.Errorf("sanitizePath(%q) = %q, not under base directory %q", tt.path, got, tempDir)
			}
		})
	}
}

func TestSessionLifecycle(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "bookgen-test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tempDir)

	s := NewSession("My Book", "gemini", "gemini-2.5-pro")
	if s.ID == "" || s.State != StateNoTOC {
		t.Fatalf("unexpected initial session: %+v", s)
	}
	if len(s.ShortID()) != 8 {
		t.Errorf("short ID = %q", s.ShortID())
	}

	s.SetState(StateTOCGenerated)
	if s.State != StateTOCGenerated {
		t.Errorf("state = %q", s.State)
	}

	fs := NewFileSystem(tempDir)
	if err := s.Save(context.Background(), fs, "my_book.session.json"); err != nil {
		t.Fatal(err)
	}
	if !fs.Exists(context.Background(), "my_book.session.json") {
		t.Error("session file not written")
	}
}
