// Package source turns uploaded document bytes into an ordered page
// sequence. PDFs carry their own pagination; prose formats (text,
// markdown, HTML, DOCX) are paginated into fixed word-count pages so
// every format flows through the same page-indexed store.
package source

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Page is one narratable page of a document.
type Page struct {
	Number int    // 1-based page number
	Text   string // plain prose for this page
}

// Source extracts the page sequence from raw document bytes.
type Source interface {
	Pages(r io.Reader, filename string) ([]Page, error)
}

// DefaultWordsPerPage is the synthetic page size for prose formats.
const DefaultWordsPerPage = 300

// SupportedExtensions lists file extensions this service can ingest.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the source for a filename. wordsPerPage sizes the
// synthetic pages of prose formats; PDFs ignore it.
func ForFile(filename string, wordsPerPage int) (Source, error) {
	if wordsPerPage <= 0 {
		wordsPerPage = DefaultWordsPerPage
	}
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextSource{WordsPerPage: wordsPerPage}, nil
	case ".md", ".markdown":
		return &MarkdownSource{WordsPerPage: wordsPerPage}, nil
	case ".html", ".htm":
		return &HTMLSource{WordsPerPage: wordsPerPage}, nil
	case ".pdf":
		return &PDFSource{}, nil
	case ".docx":
		return &DOCXSource{WordsPerPage: wordsPerPage}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// paginate groups paragraphs into pages of roughly wordsPerPage words.
// A paragraph never straddles a page boundary; an oversized paragraph
// becomes its own page.
func paginate(paragraphs []string, wordsPerPage int) []Page {
	var pages []Page
	var current []string
	currentWords := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		pages = append(pages, Page{
			Number: len(pages) + 1,
			Text:   strings.Join(current, "\n\n"),
		})
		current = nil
		currentWords = 0
	}

	for _, para := range paragraphs {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		words := len(strings.Fields(para))
		if currentWords > 0 && currentWords+words > wordsPerPage {
			flush()
		}
		current = append(current, para)
		currentWords += words
	}
	flush()

	return pages
}
