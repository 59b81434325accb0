package writer

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/vampirenirmal/bookgen/internal/toc"
)

func TestSlug(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"simple", "My Book", "my_book"},
		{"already lower", "handbook", "handbook"},
		{"whitespace run", "A   Long\tTitle", "a_long_title"},
		{"leading and trailing spaces", "  Padded  ", "padded"},
		{"punctuation dropped", "Go: The Good Parts!", "go_the_good_parts"},
		{"dashes and underscores kept", "intro_to-go", "intro_to-go"},
		{"digits kept", "Top 10 Tips", "top_10_tips"},
		{"only punctuation", "!!!", "book"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slug(tt.title); got != tt.want {
				t.Errorf("Slug(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func newTestWriter(t *testing.T) (*BookWriter, string) {
	t.Helper()
	dir, err := os.MkdirTemp("", "bookgen-writer")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	return New(dir), dir
}

func testTOC(t *testing.T) *toc.TableOfContents {
	t.Helper()
	parsed, err := toc.Parse(`[{"title": "Intro", "subchapters": ["Background", "Scope"]}]`)
	if err != nil {
		t.Fatal(err)
	}
	return parsed
}

func TestWriteTOCOverwrites(t *testing.T) {
	w, _ := newTestWriter(t)
	ctx := context.Background()
	ta := testTOC(t)

	if err := w.WriteTOC(ctx, "My Book", ta); err != nil {
		t.Fatal(err)
	}
	// Second write replaces, not appends.
	if err := w.WriteTOC(ctx, "My Book", ta); err != nil {
		t.Fatal(err)
	}

	got, err := w.Browse(ctx, "My Book")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(got, "# Table of Contents") != 1 {
		t.Errorf("TOC block duplicated:\n%s", got)
	}
	if !strings.HasPrefix(got, "# My Book\n\n<a id='table-of-contents'></a>\n\n") {
		t.Errorf("unexpected file head:\n%s", got)
	}
	if !strings.Contains(got, "1. [Intro](#chapter-1)") {
		t.Errorf("missing chapter line:\n%s", got)
	}
}

func TestWriteChapterAndSubchapter(t *testing.T) {
	w, _ := newTestWriter(t)
	ctx := context.Background()
	ta := testTOC(t)

	if err := w.WriteTOC(ctx, "My Book", ta); err != nil {
		t.Fatal(err)
	}

	ch := ta.Chapters()[0]
	chTOC, err := ta.ChapterTOC(1)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.WriteChapter(ctx, "My Book", ch, chTOC, "An introduction."); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteSubchapter(ctx, "My Book", 1, 1, ch.Subchapters[0], "Background prose."); err != nil {
		t.Fatal(err)
	}

	got, err := w.Browse(ctx, "My Book")
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{
		"<a id='chapter-1'></a>",
		"## Chapter 1. Intro",
		"<a id='chapter-1-contents'></a>",
		"### Chapter 1 Contents",
		"An introduction.",
		"<a id='chapter-1-1'></a>",
		"### 1.1. Background",
		"[Back to Chapter Contents](#chapter-1-contents)",
		"[Back to Main Table of Contents](#table-of-contents)",
		"Background prose.",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("book file missing %q:\n%s", want, got)
		}
	}

	// Chapter section must come after the TOC block, subchapter after chapter.
	if strings.Index(got, "## Chapter 1.") < strings.Index(got, "# Table of Contents") {
		t.Error("chapter section precedes TOC block")
	}
	if strings.Index(got, "### 1.1.") < strings.Index(got, "## Chapter 1.") {
		t.Error("subchapter section precedes chapter section")
	}
}

func TestBrowseNotFound(t *testing.T) {
	w, _ := newTestWriter(t)

	_, err := w.Browse(context.Background(), "Never Written")
	if !errors.Is(err, ErrBookNotFound) {
		t.Errorf("expected ErrBookNotFound, got %v", err)
	}
}

func TestSidecarRoundTrip(t *testing.T) {
	w, _ := newTestWriter(t)
	ctx := context.Background()

	if _, err := w.LoadSidecar(ctx, "My Book"); !errors.Is(err, ErrBookNotFound) {
		t.Fatalf("expected ErrBookNotFound before save, got %v", err)
	}

	if err := w.SaveSidecar(ctx, "My Book", []byte(`[]`)); err != nil {
		t.Fatal(err)
	}
	data, err := w.LoadSidecar(ctx, "My Book")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "[]" {
		t.Errorf("got %q", data)
	}
}

func TestFilenames(t *testing.T) {
	w, _ := newTestWriter(t)
	if got := w.Filename("My Great Book"); got != "my_great_book.md" {
		t.Errorf("Filename = %q", got)
	}
	if got := w.SidecarFilename("My Great Book"); got != "my_great_book.json" {
		t.Errorf("SidecarFilename = %q", got)
	}
}
