package book

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	bookerrors "github.com/vampirenirmal/bookgen/internal/errors"
	"github.com/vampirenirmal/bookgen/internal/generator"
	"github.com/vampirenirmal/bookgen/internal/storage"
	"github.com/vampirenirmal/bookgen/internal/toc"
	"github.com/vampirenirmal/bookgen/internal/writer"
)

// ProgressFunc receives human-readable progress updates. fraction is in
// [0,1] for normal progress and -1 on failure.
type ProgressFunc func(message string, fraction float64)

// Generator coordinates the whole pipeline: TOC generation and
// recovery, optional interactive editing, and the sequential
// chapter-by-chapter content loop. Generation is strictly sequential;
// once a chapter starts it runs to completion before the next begins.
type Generator struct {
	content  generator.ContentGenerator
	writer   *writer.BookWriter
	session  *storage.Session
	title    string
	toc      *toc.TableOfContents
	progress ProgressFunc
	logger   *slog.Logger
}

type Option func(*Generator)

// WithProgress installs a progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(g *Generator) {
		if fn != nil {
			g.progress = fn
		}
	}
}

// WithSession attaches a session record that tracks run state in the
// output directory.
func WithSession(s *storage.Session) Option {
	return func(g *Generator) {
		g.session = s
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) {
		g.logger = logger.With("component", "book_generator")
	}
}

func New(content generator.ContentGenerator, w *writer.BookWriter, opts ...Option) *Generator {
	g := &Generator{
		content:  content,
		writer:   w,
		progress: func(string, float64) {},
		logger:   slog.Default().With("component", "book_generator"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// TOC returns the current table of contents, nil before GenerateTOC.
func (g *Generator) TOC() *toc.TableOfContents {
	return g.toc
}

// Title returns the book title set by GenerateTOC.
func (g *Generator) Title() string {
	return g.title
}

// GenerateTOC requests a table of contents from the model, parses and
// validates it, writes the Markdown TOC block, and saves the JSON
// sidecar. An empty prompt selects the default prompt built from the
// title. Parse and generation failures propagate unchanged.
func (g *Generator) GenerateTOC(ctx context.Context, title, prompt string) (*toc.TableOfContents, error) {
	g.title = title
	if prompt == "" {
		prompt = generator.DefaultTOCPrompt(title)
	}

	g.logger.Info("generating table of contents",
		"title", title,
		"prompt_length", len(prompt))

	raw, err := g.content.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}

	parsed, err := toc.Parse(raw)
	if err != nil {
		return nil, err
	}
	g.toc = parsed

	if err := g.writer.WriteTOC(ctx, title, parsed); err != nil {
		return nil, err
	}
	if err := g.SaveTOC(ctx); err != nil {
		return nil, err
	}

	g.setState(ctx, storage.StateTOCGenerated)
	g.logger.Info("table of contents generated",
		"title", title,
		"chapters", parsed.Len())

	return parsed, nil
}

// SaveTOC writes the current table of contents to the JSON sidecar.
func (g *Generator) SaveTOC(ctx context.Context) error {
	if g.toc == nil {
		return bookerrors.New("toc save", "no table of contents to save")
	}

	data, err := g.toc.ToJSON()
	if err != nil {
		return err
	}
	if err := g.writer.SaveSidecar(ctx, g.title, []byte(data)); err != nil {
		return fmt.Errorf("saving sidecar: %w", err)
	}

	g.logger.Debug("saved table of contents sidecar", "title", g.title)
	return nil
}

// LoadTOC re-reads the sidecar, fully replacing the current table of
// contents, and re-renders the Markdown TOC block. A missing sidecar
// keeps the current state and logs a warning; a malformed one fails.
func (g *Generator) LoadTOC(ctx context.Context) error {
	if g.toc == nil {
		return bookerrors.New("toc reload", "no table of contents generated; call GenerateTOC first")
	}

	data, err := g.writer.LoadSidecar(ctx, g.title)
	if errors.Is(err, writer.ErrBookNotFound) {
		g.logger.Warn("no saved table of contents found, keeping current", "title", g.title)
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading sidecar: %w", err)
	}

	if err := g.toc.UpdateFromJSON(string(data)); err != nil {
		return err
	}
	if err := g.writer.WriteTOC(ctx, g.title, g.toc); err != nil {
		return err
	}

	g.setState(ctx, storage.StateTOCReloaded)
	g.logger.Info("reloaded table of contents from sidecar",
		"title", g.title,
		"chapters", g.toc.Len())
	return nil
}

// PauseAndModifyTOC blocks the pipeline for a manual edit of the JSON
// sidecar: it prints instructions to out, waits for a newline on in,
// then re-ingests the sidecar via LoadTOC. This is a synchronous
// operator checkpoint, not a background wait.
func (g *Generator) PauseAndModifyTOC(ctx context.Context, in io.Reader, out io.Writer) error {
	if g.toc == nil {
		return bookerrors.New("toc edit", "no table of contents generated; call GenerateTOC first")
	}

	sidecarPath, err := g.writer.SidecarPath(g.title)
	if err != nil {
		return fmt.Errorf("resolving sidecar path: %w", err)
	}

	fmt.Fprintf(out, "The table of contents has been saved to:\n  %s\n", sidecarPath)
	fmt.Fprintln(out, "Edit the file as needed, save it, then press Enter to continue.")

	if _, err := bufio.NewReader(in).ReadString('\n'); err != nil && err != io.EOF {
		return fmt.Errorf("waiting for operator: %w", err)
	}

	return g.LoadTOC(ctx)
}

// GenerateBook expands every chapter and subchapter of the current
// table of contents into prose, in numeric order, writing each unit as
// it is generated. A single content-generation failure aborts the whole
// call; already-written sections stay in the file. Returns the path of
// the Markdown book file.
func (g *Generator) GenerateBook(ctx context.Context) (string, error) {
	if g.toc == nil || g.toc.IsEmpty() {
		return "", bookerrors.New("book generation", "no table of contents; generate or load one first")
	}

	chapters := g.toc.Chapters()
	totalItems := 0
	for _, ch := range chapters {
		totalItems += len(ch.Subchapters) + 1 // +1 for the chapter intro
	}

	g.setState(ctx, storage.StateInProgress)
	g.progress(fmt.Sprintf("Starting book generation with %d chapters and %d content items", len(chapters), totalItems), 0)
	g.logger.Info("starting book generation",
		"title", g.title,
		"chapters", len(chapters),
		"content_items", totalItems)

	currentItem := 0
	for _, ch := range chapters {
		g.progress(fmt.Sprintf("Generating Chapter %d/%d: %s", ch.Number, len(chapters), ch.Title),
			float64(currentItem)/float64(totalItems))

		if err := g.generateChapter(ctx, ch, currentItem, totalItems); err != nil {
			g.progress(fmt.Sprintf("Book generation failed: %v", err), -1)
			return "", err
		}
		currentItem += len(ch.Subchapters) + 1

		g.progress(fmt.Sprintf("Completed Chapter %d/%d: %s", ch.Number, len(chapters), ch.Title),
			float64(currentItem)/float64(totalItems))
	}

	g.setState(ctx, storage.StateComplete)
	g.progress("Book generation completed successfully", 1)

	path, err := g.writer.Path(g.title)
	if err != nil {
		return "", fmt.Errorf("resolving book path: %w", err)
	}
	g.logger.Info("book generated", "path", path)
	return path, nil
}

// generateChapter writes one chapter intro and all of its subchapters.
func (g *Generator) generateChapter(ctx context.Context, ch toc.Chapter, currentItem, totalItems int) error {
	intro, err := g.content.GenerateContent(ctx, generator.ChapterIntroPrompt(g.title, ch))
	if err != nil {
		return err
	}

	chapterTOC, err := g.toc.ChapterTOC(ch.Number)
	if err != nil {
		return err
	}
	if err := g.writer.WriteChapter(ctx, g.title, ch, chapterTOC, intro); err != nil {
		return err
	}

	for j, sub := range ch.Subchapters {
		g.progress(fmt.Sprintf("  Subchapter %s: %s", sub.Number, sub.Title),
			float64(currentItem+j+1)/float64(totalItems))

		content, err := g.content.GenerateContent(ctx, generator.SubchapterPrompt(g.title, ch, sub))
		if err != nil {
			return err
		}
		if err := g.writer.WriteSubchapter(ctx, g.title, ch.Number, j+1, sub, content); err != nil {
			return err
		}
	}

	return nil
}

// BrowseBook reads back the current Markdown book file. A missing file
// surfaces as writer.ErrBookNotFound for the caller to present, not as
// a pipeline failure.
func (g *Generator) BrowseBook(ctx context.Context) (string, error) {
	return g.writer.Browse(ctx, g.title)
}

// setState advances and persists the session record, when one is
// attached. Session persistence is best-effort bookkeeping and never
// fails the pipeline.
func (g *Generator) setState(ctx context.Context, state string) {
	if g.session == nil {
		return
	}
	g.session.SetState(state)
	path := writer.Slug(g.title) + ".session.json"
	if err := g.session.Save(ctx, g.writer.Store(), path); err != nil {
		g.logger.Warn("failed to save session record",
			"path", path,
			"error", err)
	}
}
