package writer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/vampirenirmal/bookgen/internal/storage"
	"github.com/vampirenirmal/bookgen/internal/toc"
)

// ErrBookNotFound signals a read-back of a book file that does not
// exist yet. Callers surface it to the user instead of failing the run.
var ErrBookNotFound = errors.New("book file not found")

// BookWriter appends structured sections to a Markdown book file and
// owns the filename scheme derived from the book title. It never
// interprets the content it writes.
type BookWriter struct {
	fs     *storage.FileSystem
	logger *slog.Logger
}

func New(outputDir string) *BookWriter {
	return &BookWriter{
		fs:     storage.NewFileSystem(outputDir),
		logger: slog.Default().With("component", "book_writer"),
	}
}

// WithLogger sets a custom logger for the writer.
func (w *BookWriter) WithLogger(logger *slog.Logger) *BookWriter {
	w.logger = logger.With("component", "book_writer")
	return w
}

// Store exposes the underlying filesystem store for sibling artifacts
// (session records) that share the output directory.
func (w *BookWriter) Store() *storage.FileSystem {
	return w.fs
}

// Slug derives the filename stem from a book title: lowercased, with
// whitespace runs collapsed to a single underscore. Characters other
// than letters, digits, dashes and underscores are dropped so the stem
// is safe on every filesystem. An empty result falls back to "book".
func Slug(title string) string {
	var b strings.Builder
	for _, r := range title {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_':
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	slug := strings.Join(strings.Fields(b.String()), "_")
	if slug == "" {
		return "book"
	}
	return slug
}

// Filename returns the Markdown filename for a book title.
func (w *BookWriter) Filename(title string) string {
	return Slug(title) + ".md"
}

// SidecarFilename returns the JSON sidecar filename for a book title.
func (w *BookWriter) SidecarFilename(title string) string {
	return Slug(title) + ".json"
}

// Path returns the full path of the Markdown book file.
func (w *BookWriter) Path(title string) (string, error) {
	return w.fs.Path(w.Filename(title))
}

// SidecarPath returns the full path of the JSON sidecar.
func (w *BookWriter) SidecarPath(title string) (string, error) {
	return w.fs.Path(w.SidecarFilename(title))
}

// WriteTOC writes the top-of-file block: book title, the main TOC
// anchor, and the rendered table of contents. It replaces the whole
// file, so it must run before any chapter is appended.
func (w *BookWriter) WriteTOC(ctx context.Context, title string, t *toc.TableOfContents) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "<a id='%s'></a>\n\n", toc.TopAnchor)
	b.WriteString(t.ToMarkdown())

	if err := w.fs.Save(ctx, w.Filename(title), []byte(b.String())); err != nil {
		return fmt.Errorf("writing table of contents: %w", err)
	}

	w.logger.Debug("wrote table of contents block",
		"file", w.Filename(title),
		"chapters", t.Len())
	return nil
}

// WriteChapter appends a chapter section: anchor, heading, the
// chapter's local sub-TOC with its own anchor, a back-link to the main
// TOC, and the introductory content.
func (w *BookWriter) WriteChapter(ctx context.Context, title string, ch toc.Chapter, chapterTOC, content string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "<a id='%s'></a>\n\n", toc.ChapterAnchor(ch.Number))
	fmt.Fprintf(&b, "## Chapter %d. %s\n\n", ch.Number, ch.Title)
	fmt.Fprintf(&b, "<a id='%s'></a>\n\n", toc.ChapterContentsAnchor(ch.Number))
	fmt.Fprintf(&b, "[Back to Main Table of Contents](#%s)\n\n", toc.TopAnchor)
	b.WriteString(chapterTOC)
	fmt.Fprintf(&b, "%s\n\n", content)

	if err := w.fs.Append(ctx, w.Filename(title), []byte(b.String())); err != nil {
		return fmt.Errorf("writing chapter %d: %w", ch.Number, err)
	}

	w.logger.Debug("wrote chapter section",
		"file", w.Filename(title),
		"chapter", ch.Number,
		"chapter_title", ch.Title,
		"content_length", len(content))
	return nil
}

// WriteSubchapter appends a subchapter section: anchor, heading,
// navigation links back to the chapter's local TOC and the main TOC,
// and the content.
func (w *BookWriter) WriteSubchapter(ctx context.Context, title string, chapterNumber, index int, sub toc.Subchapter, content string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "<a id='%s'></a>\n\n", toc.SubchapterAnchor(chapterNumber, index))
	fmt.Fprintf(&b, "### %s. %s\n\n", sub.Number, sub.Title)
	fmt.Fprintf(&b, "[Back to Chapter Contents](#%s)\n", toc.ChapterContentsAnchor(chapterNumber))
	fmt.Fprintf(&b, "[Back to Main Table of Contents](#%s)\n\n", toc.TopAnchor)
	fmt.Fprintf(&b, "%s\n\n", content)

	if err := w.fs.Append(ctx, w.Filename(title), []byte(b.String())); err != nil {
		return fmt.Errorf("writing subchapter %s: %w", sub.Number, err)
	}

	w.logger.Debug("wrote subchapter section",
		"file", w.Filename(title),
		"subchapter", sub.Number,
		"subchapter_title", sub.Title,
		"content_length", len(content))
	return nil
}

// SaveSidecar writes the JSON sidecar for the book title.
func (w *BookWriter) SaveSidecar(ctx context.Context, title string, data []byte) error {
	return w.fs.Save(ctx, w.SidecarFilename(title), data)
}

// LoadSidecar reads the JSON sidecar back. Returns ErrBookNotFound if
// no sidecar has been saved.
func (w *BookWriter) LoadSidecar(ctx context.Context, title string) ([]byte, error) {
	name := w.SidecarFilename(title)
	if !w.fs.Exists(ctx, name) {
		return nil, ErrBookNotFound
	}
	return w.fs.Load(ctx, name)
}

// Browse reads back the current Markdown book file. Returns
// ErrBookNotFound if nothing has been written yet.
func (w *BookWriter) Browse(ctx context.Context, title string) (string, error) {
	name := w.Filename(title)
	if !w.fs.Exists(ctx, name) {
		return "", ErrBookNotFound
	}
	data, err := w.fs.Load(ctx, name)
	if err != nil {
		return "", fmt.Errorf("reading book file: %w", err)
	}
	return string(data), nil
}
