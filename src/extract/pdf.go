package extract

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Page holds the plain text of a single PDF page.
type Page struct {
	Number int
	Text   string
}

// Document is the extraction result for one PDF file.
type Document struct {
	Path  string
	Name  string
	Pages []Page
}

// Text returns the full document text with page markers between pages.
func (d *Document) Text() string {
	var b strings.Builder
	for _, p := range d.Pages {
		b.WriteString(p.Text)
		b.WriteString(fmt.Sprintf("\n--- Page %d ---\n", p.Number))
	}
	return b.String()
}

// Empty reports whether no page produced any text.
func (d *Document) Empty() bool {
	for _, p := range d.Pages {
		if strings.TrimSpace(p.Text) != "" {
			return false
		}
	}
	return true
}

// FromFile extracts the text of every page of a PDF file.
func FromFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat pdf: %w", err)
	}

	doc, err := FromReader(f, stat.Size())
	if err != nil {
		return nil, err
	}

	doc.Path = path
	doc.Name = filepath.Base(path)
	return doc, nil
}

// FromReader extracts the text of every page of a PDF read from r.
// The worker uses this to process documents fetched from object storage
// without touching the local filesystem.
func FromReader(r io.ReaderAt, size int64) (*Document, error) {
	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to read pdf: %w", err)
	}

	doc := &Document{}
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page should not sink the document.
			continue
		}

		doc.Pages = append(doc.Pages, Page{
			Number: i,
			Text:   text,
		})
	}

	return doc, nil
}
