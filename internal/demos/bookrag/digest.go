package bookrag

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// Book layout constants.
const (
	gutenbergStart     = "*** START OF THE PROJECT GUTENBERG EBOOK"
	gutenbergEnd       = "*** END OF THE PROJECT GUTENBERG EBOOK"
	firstChapter       = "CHAPTER I."
	minParagraphLength = 180
	paragraphSeparator = "\n\n"
)

var (
	// ErrEmptyBook is returned when no text is left after stripping.
	ErrEmptyBook = errors.New("bookrag: book has no text")

	chapterHeading  = regexp.MustCompile(`(?m)^[ \t]*CHAPTER [IVXLC]+\.`)
	dialogueMarkers = []string{"“", "”", `"`}
)

// Location addresses a paragraph: Chapter and Paragraph are 0-based.
type Location struct {
	Chapter   int
	Paragraph int
}

// ID is the anchor used to reference the paragraph in answers.
func (l Location) ID() string {
	return fmt.Sprintf("chapter-%d-p-%d", l.Chapter+1, l.Paragraph)
}

// Book is a digested book: paragraphs grouped by chapter, and the flat
// corpus used for the search index. Corpus[i] is the paragraph at Mapping[i].
type Book struct {
	Chapters [][]string
	Corpus   []string
	Mapping  []Location
}

// Paragraph returns the text at loc.
func (b *Book) Paragraph(loc Location) string {
	return b.Chapters[loc.Chapter][loc.Paragraph]
}

// Digest reads a plain-text or HTML book and splits it into paragraphs.
func Digest(path string) (*Book, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("bookrag: book %s not found, set BOOK_PATH or pass --book (the Alice in Wonderland text is Project Gutenberg ebook #11): %w", path, err)
	}
	if err != nil {
		return nil, fmt.Errorf("bookrag: read book: %w", err)
	}

	var text string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm", ".xhtml":
		text, err = htmlText(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
	default:
		text = string(data)
	}
	return Split(text)
}

// Split turns the full book text into a Book.
//
// The Project Gutenberg header and footer are stripped when present. The
// text before the last "CHAPTER I." heading (preface and contents) is
// dropped and the rest is cut at every chapter heading. Within a chapter,
// paragraphs shorter than 180 characters or opening with a dialogue marker
// are merged into the paragraph before them.
func Split(text string) (*Book, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSpace(stripGutenberg(text))
	if text == "" {
		return nil, ErrEmptyBook
	}

	b := &Book{}
	for ci, chapter := range splitChapters(text) {
		paragraphs := mergeParagraphs(strings.Split(chapter, paragraphSeparator))
		b.Chapters = append(b.Chapters, paragraphs)
		for pi, p := range paragraphs {
			b.Corpus = append(b.Corpus, p)
			b.Mapping = append(b.Mapping, Location{Chapter: ci, Paragraph: pi})
		}
	}
	return b, nil
}

func stripGutenberg(text string) string {
	if i := strings.Index(text, gutenbergStart); i >= 0 {
		rest := text[i:]
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			text = rest[nl+1:]
		} else {
			text = ""
		}
	}
	if i := strings.Index(text, gutenbergEnd); i >= 0 {
		text = text[:i]
	}
	return text
}

func splitChapters(text string) []string {
	if i := strings.LastIndex(text, firstChapter); i >= 0 {
		text = text[i:]
	}
	bounds := chapterHeading.FindAllStringIndex(text, -1)
	if len(bounds) == 0 {
		return []string{text}
	}

	chapters := make([]string, 0, len(bounds))
	for i, b := range bounds {
		end := len(text)
		if i+1 < len(bounds) {
			end = bounds[i+1][0]
		}
		chapters = append(chapters, strings.TrimSpace(text[b[0]:end]))
	}
	return chapters
}

func mergeParagraphs(raw []string) []string {
	var out []string
	current := ""
	for _, p := range raw {
		if utf8.RuneCountInString(p) < minParagraphLength || startsWithDialogue(p) {
			current += paragraphSeparator + p
			continue
		}
		if cur := strings.TrimSpace(current); cur != "" {
			out = append(out, cur)
		}
		current = p
	}
	if cur := strings.TrimSpace(current); cur != "" || len(out) == 0 {
		out = append(out, cur)
	}
	return out
}

func startsWithDialogue(p string) bool {
	for _, m := range dialogueMarkers {
		if strings.HasPrefix(p, m) {
			return true
		}
	}
	return false
}

// blockElements end a paragraph in extracted HTML text.
var blockElements = map[string]bool{
	"p": true, "div": true, "pre": true, "blockquote": true, "li": true, "table": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

var skippedElements = map[string]bool{"head": true, "script": true, "style": true}

// htmlText extracts the readable text of an HTML book. Block elements become
// blank-line separated paragraphs, <br> becomes a newline and other
// whitespace is collapsed.
func htmlText(r io.Reader) (string, error) {
	utf8Reader, err := charset.NewReader(r, "text/html")
	if err != nil {
		return "", fmt.Errorf("bookrag: detect charset: %w", err)
	}
	doc, err := html.Parse(utf8Reader)
	if err != nil {
		return "", fmt.Errorf("bookrag: parse html: %w", err)
	}

	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			if skippedElements[n.Data] {
				return
			}
			if n.Data == "br" {
				sb.WriteString("\n")
				return
			}
		case html.TextNode:
			if s := strings.Join(strings.Fields(n.Data), " "); s != "" {
				if startsWithSpace(n.Data) && !endsWithSpace(sb.String()) {
					sb.WriteString(" ")
				}
				sb.WriteString(s)
				if endsWithSpace(n.Data) {
					sb.WriteString(" ")
				}
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockElements[n.Data] {
			sb.WriteString(paragraphSeparator)
		}
	}
	walk(doc)

	// Tidy the blank lines and trailing spaces the walk leaves behind.
	lines := strings.Split(sb.String(), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	text := strings.Join(lines, "\n")
	for strings.Contains(text, "\n\n\n") {
		text = strings.ReplaceAll(text, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(text), nil
}

func startsWithSpace(s string) bool { return s != "" && strings.ContainsAny(s[:1], " \t\r\n") }

// endsWithSpace is true for "" so no space opens the text.
func endsWithSpace(s string) bool { return s == "" || strings.ContainsAny(s[len(s)-1:], " \t\r\n") }
