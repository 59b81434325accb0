// Command bookgen generates a complete book as a Markdown file: it asks
// an LLM provider for a table of contents, optionally pauses so the TOC
// can be edited by hand, then writes every chapter and subchapter in
// order.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vampirenirmal/bookgen/internal/book"
	"github.com/vampirenirmal/bookgen/internal/config"
	bookerrors "github.com/vampirenirmal/bookgen/internal/errors"
	"github.com/vampirenirmal/bookgen/internal/generator"
	"github.com/vampirenirmal/bookgen/internal/storage"
	"github.com/vampirenirmal/bookgen/internal/writer"
)

func main() {
	if err := run(); err != nil {
		var genErr *bookerrors.GenerationError
		if errors.As(err, &genErr) {
			fmt.Fprintf(os.Stderr, "bookgen: %s failed: %s\n", genErr.Stage, genErr.Message)
			if genErr.Snippet != "" {
				fmt.Fprintf(os.Stderr, "  offending text: %s\n", genErr.Snippet)
			}
		} else {
			fmt.Fprintf(os.Stderr, "bookgen: %v\n", err)
		}
		os.Exit(1)
	}
}

func run() error {
	var (
		title          = flag.String("title", "", "book title (required)")
		tocPrompt      = flag.String("toc-prompt", "", "custom table-of-contents prompt")
		tocPromptFile  = flag.String("toc-prompt-file", "", "file containing a TOC prompt template ({{.Title}} is substituted)")
		provider       = flag.String("provider", "", "LLM provider: gemini, openai, or anthropic")
		model          = flag.String("model", "", "model name override")
		apiKeyFile     = flag.String("api-key-file", "", "path to a file containing the API key")
		outputDir      = flag.String("output-dir", "", "directory for generated books")
		configPath     = flag.String("config", "", "path to a YAML config file")
		interactiveTOC = flag.Bool("interactive-toc", false, "pause after TOC generation so the JSON sidecar can be edited")
		browseAfterTOC = flag.Bool("browse-after-toc", false, "print the book file after TOC generation and wait for Enter")
		verbose        = flag.Bool("verbose", false, "enable debug logging")
	)
	flag.Parse()

	if *title == "" {
		flag.Usage()
		return fmt.Errorf("the -title flag is required")
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(config.Options{
		ConfigPath: *configPath,
		Provider:   *provider,
		Model:      *model,
		APIKeyFile: *apiKeyFile,
		OutputDir:  *outputDir,
	})
	if err != nil {
		return err
	}
	logger.Debug("configuration resolved",
		"provider", cfg.Provider,
		"model", cfg.Model,
		"output_dir", cfg.OutputDir)

	prompt := *tocPrompt
	if *tocPromptFile != "" {
		prompt, err = generator.RenderPromptFile(*tocPromptFile, map[string]any{"Title": *title})
		if err != nil {
			return err
		}
	}

	client := cfg.NewClient(generator.WithLogger(logger))
	bw := writer.New(cfg.OutputDir).WithLogger(logger)

	session := storage.NewSession(*title, cfg.Provider, cfg.Model)
	gen := book.New(client, bw,
		book.WithSession(session),
		book.WithLogger(logger),
		book.WithProgress(func(message string, fraction float64) {
			fmt.Printf("[%3.0f%%] %s\n", fraction*100, message)
		}),
	)

	fmt.Printf("Generating table of contents for %q...\n", *title)
	if _, err := gen.GenerateTOC(ctx, *title, prompt); err != nil {
		return err
	}
	if path, err := bw.Path(*title); err == nil {
		fmt.Printf("Table of contents written to %s\n", path)
	}

	if *interactiveTOC {
		if err := gen.PauseAndModifyTOC(ctx, os.Stdin, os.Stdout); err != nil {
			// A bad hand edit is non-fatal; the generated TOC is kept.
			logger.Warn("table of contents reload failed, continuing with the generated version", "error", err)
		}
	}

	if *browseAfterTOC {
		contents, err := gen.BrowseBook(ctx)
		if err != nil {
			return err
		}
		fmt.Println(contents)
		fmt.Print("Press Enter to start generating chapters...")
		reader := bufio.NewReader(os.Stdin)
		if _, err := reader.ReadString('\n'); err != nil {
			logger.Debug("stdin closed, continuing", "error", err)
		}
	}

	path, err := gen.GenerateBook(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Book complete: %s\n", path)
	return nil
}
