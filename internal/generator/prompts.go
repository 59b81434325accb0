package generator

import (
	"fmt"

	"github.com/vampirenirmal/bookgen/internal/toc"
)

// DefaultTOCPrompt builds the table-of-contents prompt used when the
// caller supplies none. The instructions pin the model to a bare JSON
// list so the parser's cleanup step has as little to do as possible.
func DefaultTOCPrompt(title string) string {
	return fmt.Sprintf(
		"Create a detailed and logical table of contents for a book titled '%s'. "+
			"Include 4-6 chapter titles with 2-4 relevant subchapter titles under each chapter. "+
			"Format the output as a valid JSON list of dictionaries. "+
			"Each dictionary must have 'title' (string) and 'subchapters' (list of strings) keys. "+
			"Output ONLY the JSON list, without any introductory text or code fences. Example: "+
			`[{"title": "Chapter 1: Introduction to Topic", "subchapters": ["Subtopic 1.1", "Subtopic 1.2", "Subtopic 1.3"]}, `+
			`{"title": "Chapter 2: Core Concepts", "subchapters": ["Concept 2.1", "Concept 2.2"]}]`,
		title)
}

// ChapterIntroPrompt builds the prompt for a chapter's introductory block.
func ChapterIntroPrompt(bookTitle string, ch toc.Chapter) string {
	return fmt.Sprintf("Write a concise introduction for Chapter %d: '%s' in a book titled '%s'.",
		ch.Number, ch.Title, bookTitle)
}

// SubchapterPrompt builds the prompt for one subchapter, carrying the
// chapter and book titles for context.
func SubchapterPrompt(bookTitle string, ch toc.Chapter, sub toc.Subchapter) string {
	return fmt.Sprintf("Write a detailed section for Chapter %s: '%s' within Chapter %d: '%s' in a book titled '%s'.",
		sub.Number, sub.Title, ch.Number, ch.Title, bookTitle)
}
