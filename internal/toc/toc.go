package toc

import (
	"encoding/json"
	"fmt"
	"strings"

	bookerrors "github.com/vampirenirmal/bookgen/internal/errors"
)

// TopAnchor is the link target of the top-of-file table of contents block.
const TopAnchor = "table-of-contents"

// Subchapter is a single entry within a chapter. Number has the form
// "<chapter>.<index>" and is recomputed on every rebuild, never trusted
// from input.
type Subchapter struct {
	Number string `json:"number,omitempty"`
	Title  string `json:"title"`
}

// Chapter is a top-level entry with its ordered subchapters. Number is
// 1-based document order, assigned after parsing.
type Chapter struct {
	Number      int          `json:"number,omitempty"`
	Title       string       `json:"title"`
	Subchapters []Subchapter `json:"subchapters"`
}

// TableOfContents owns the ordered chapter sequence. It is only ever
// mutated by full-structure replacement: Parse and UpdateFromJSON build
// a complete new sequence or leave the current one untouched.
type TableOfContents struct {
	chapters []Chapter
}

// New returns an empty table of contents.
func New() *TableOfContents {
	return &TableOfContents{chapters: []Chapter{}}
}

// Parse builds a table of contents from raw model output. The text is
// cleaned of code fences and surrounding prose, decoded as a JSON list
// of {title, subchapters} records, validated, and numbered. Any
// malformed record invalidates the whole parse.
func Parse(raw string) (*TableOfContents, error) {
	cleaned := cleanResponse(raw)

	var records []json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &records); err != nil {
		return nil, bookerrors.Wrap("toc parse", "model response is not a JSON chapter list", err).WithSnippet(cleaned)
	}

	chapters := make([]Chapter, 0, len(records))
	for i, rec := range records {
		ch, err := decodeChapter(rec, i, false)
		if err != nil {
			return nil, err
		}
		chapters = append(chapters, ch)
	}

	t := &TableOfContents{chapters: chapters}
	t.renumber()
	return t, nil
}

// cleanResponse strips markdown code fences and anything outside the
// first '[' .. last ']' span. Pure text surgery, tolerant of models
// prepending prose like "Here is the JSON:".
func cleanResponse(raw string) string {
	s := strings.ReplaceAll(raw, "```json", "")
	s = strings.ReplaceAll(s, "```", "")

	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start >= 0 && end > start {
		s = s[start : end+1]
	}

	return strings.TrimSpace(s)
}

// decodeChapter validates one record. When allowObjects is set,
// subchapter entries may be either bare strings or objects carrying a
// title, which is the sidecar JSON shape; model output is held to the
// strict list-of-strings shape.
func decodeChapter(rec json.RawMessage, index int, allowObjects bool) (Chapter, error) {
	var fields struct {
		Title       *string          `json:"title"`
		Subchapters *json.RawMessage `json:"subchapters"`
	}
	if err := json.Unmarshal(rec, &fields); err != nil {
		return Chapter{}, bookerrors.Newf("toc validate", "chapter %d is not a valid chapter record", index+1).WithSnippet(string(rec))
	}
	if fields.Title == nil {
		return Chapter{}, bookerrors.Newf("toc validate", "chapter %d is missing a title", index+1).WithSnippet(string(rec))
	}
	if strings.TrimSpace(*fields.Title) == "" {
		return Chapter{}, bookerrors.Newf("toc validate", "chapter %d has an empty title", index+1)
	}
	if fields.Subchapters == nil {
		return Chapter{}, bookerrors.Newf("toc validate", "chapter %d is missing subchapters", index+1).WithSnippet(string(rec))
	}

	subs, err := decodeSubchapters(*fields.Subchapters, index, allowObjects)
	if err != nil {
		return Chapter{}, err
	}

	return Chapter{Title: *fields.Title, Subchapters: subs}, nil
}

func decodeSubchapters(raw json.RawMessage, chapterIndex int, allowObjects bool) ([]Subchapter, error) {
	if !allowObjects {
		var titles []string
		if err := json.Unmarshal(raw, &titles); err != nil {
			return nil, bookerrors.Newf("toc validate", "chapter %d: subchapters must be a list of strings", chapterIndex+1).WithSnippet(string(raw))
		}
		subs := make([]Subchapter, 0, len(titles))
		for j, title := range titles {
			if strings.TrimSpace(title) == "" {
				return nil, bookerrors.Newf("toc validate", "chapter %d: subchapter %d has an empty title", chapterIndex+1, j+1)
			}
			subs = append(subs, Subchapter{Title: title})
		}
		return subs, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, bookerrors.Newf("toc validate", "chapter %d: subchapters must be a list", chapterIndex+1).WithSnippet(string(raw))
	}
	subs := make([]Subchapter, 0, len(items))
	for j, item := range items {
		var title string
		if err := json.Unmarshal(item, &title); err != nil {
			var obj struct {
				Title *string `json:"title"`
			}
			if err := json.Unmarshal(item, &obj); err != nil || obj.Title == nil {
				return nil, bookerrors.Newf("toc validate", "chapter %d: subchapter %d has no title", chapterIndex+1, j+1).WithSnippet(string(item))
			}
			title = *obj.Title
		}
		if strings.TrimSpace(title) == "" {
			return nil, bookerrors.Newf("toc validate", "chapter %d: subchapter %d has an empty title", chapterIndex+1, j+1)
		}
		subs = append(subs, Subchapter{Title: title})
	}
	return subs, nil
}

// renumber assigns document-order numbering: chapters 1..N, subchapters
// "<chapter>.<1..M>" per chapter.
func (t *TableOfContents) renumber() {
	for i := range t.chapters {
		t.chapters[i].Number = i + 1
		for j := range t.chapters[i].Subchapters {
			t.chapters[i].Subchapters[j].Number = fmt.Sprintf("%d.%d", i+1, j+1)
		}
	}
}

// Chapters returns the ordered chapter sequence. Callers must treat it
// as read-only.
func (t *TableOfContents) Chapters() []Chapter {
	return t.chapters
}

// Len returns the number of chapters.
func (t *TableOfContents) Len() int {
	return len(t.chapters)
}

// IsEmpty reports whether the table of contents has no chapters.
func (t *TableOfContents) IsEmpty() bool {
	return len(t.chapters) == 0
}

// Chapter returns the chapter with the given number.
func (t *TableOfContents) Chapter(number int) (Chapter, bool) {
	if number < 1 || number > len(t.chapters) {
		return Chapter{}, false
	}
	return t.chapters[number-1], true
}

// ChapterAnchor is the in-document link target for a chapter heading.
func ChapterAnchor(number int) string {
	return fmt.Sprintf("chapter-%d", number)
}

// SubchapterAnchor is the link target for a subchapter heading.
func SubchapterAnchor(chapter, index int) string {
	return fmt.Sprintf("chapter-%d-%d", chapter, index)
}

// ChapterContentsAnchor is the link target of a chapter's local sub-TOC.
func ChapterContentsAnchor(number int) string {
	return fmt.Sprintf("chapter-%d-contents", number)
}

// ToMarkdown renders the full table of contents as a nested Markdown
// list, one line per chapter and one indented line per subchapter, each
// linking to its anchor.
func (t *TableOfContents) ToMarkdown() string {
	var b strings.Builder
	b.WriteString("# Table of Contents\n\n")
	for _, ch := range t.chapters {
		fmt.Fprintf(&b, "%d. [%s](#%s)\n", ch.Number, ch.Title, ChapterAnchor(ch.Number))
		for j, sub := range ch.Subchapters {
			fmt.Fprintf(&b, "    * [%s. %s](#%s)\n", sub.Number, sub.Title, SubchapterAnchor(ch.Number, j+1))
		}
	}
	b.WriteString("\n")
	return b.String()
}

// ChapterTOC renders the local sub-TOC for a single chapter, embedded
// at the top of that chapter's section.
func (t *TableOfContents) ChapterTOC(number int) (string, error) {
	ch, ok := t.Chapter(number)
	if !ok {
		return "", bookerrors.Newf("toc render", "no chapter numbered %d", number)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "### Chapter %d Contents\n\n", ch.Number)
	fmt.Fprintf(&b, "%d. [%s](#%s)\n", ch.Number, ch.Title, ChapterAnchor(ch.Number))
	for j, sub := range ch.Subchapters {
		fmt.Fprintf(&b, "    * [%s. %s](#%s)\n", sub.Number, sub.Title, SubchapterAnchor(ch.Number, j+1))
	}
	b.WriteString("\n")
	return b.String(), nil
}

// ToJSON serializes the structure deterministically for the sidecar
// file. Numbers are included for the human editing the file but are
// recomputed on reload.
func (t *TableOfContents) ToJSON() (string, error) {
	chapters := t.chapters
	if chapters == nil {
		chapters = []Chapter{}
	}
	data, err := json.MarshalIndent(chapters, "", "  ")
	if err != nil {
		return "", bookerrors.Wrap("toc serialize", "marshaling table of contents", err)
	}
	return string(data), nil
}

// UpdateFromJSON fully replaces the chapter sequence from a sidecar
// JSON document, typically after a human edit, and re-runs numbering.
// On any failure the current state is left untouched.
func (t *TableOfContents) UpdateFromJSON(data string) error {
	var records []json.RawMessage
	if err := json.Unmarshal([]byte(data), &records); err != nil {
		return bookerrors.Wrap("toc reload", "sidecar is not a JSON chapter list", err).WithSnippet(data)
	}

	chapters := make([]Chapter, 0, len(records))
	for i, rec := range records {
		ch, err := decodeChapter(rec, i, true)
		if err != nil {
			return err
		}
		chapters = append(chapters, ch)
	}

	t.chapters = chapters
	t.renumber()
	return nil
}
