package indexer

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"

	"docintel/src/extract"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// Piece is one chunk of document text bound for the vector index. Index is
// the running order of the chunk across the whole document.
type Piece struct {
	Page    int
	Index   int
	Content string
}

// Splitter splits extracted page text into overlapping chunks.
type Splitter struct {
	inner textsplitter.RecursiveCharacter
}

func NewSplitter(chunkSize, chunkOverlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 {
		chunkOverlap = DefaultChunkOverlap
	}

	return &Splitter{
		inner: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
			textsplitter.WithSeparators([]string{"\n\n", "\n", " ", ""}),
		),
	}
}

// SplitDocument splits each page separately so every piece keeps an exact
// page back-reference. Blank pages produce no pieces.
func (s *Splitter) SplitDocument(doc *extract.Document) ([]Piece, error) {
	var pieces []Piece
	index := 0

	for _, page := range doc.Pages {
		if strings.TrimSpace(page.Text) == "" {
			continue
		}

		parts, err := s.inner.SplitText(page.Text)
		if err != nil {
			return nil, fmt.Errorf("failed to split page %d: %w", page.Number, err)
		}

		for _, part := range parts {
			if strings.TrimSpace(part) == "" {
				continue
			}
			pieces = append(pieces, Piece{
				Page:    page.Number,
				Index:   index,
				Content: part,
			})
			index++
		}
	}

	return pieces, nil
}
