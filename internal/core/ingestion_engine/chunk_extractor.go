package ingestion_engine

import (
	"fmt"
	"unicode"

	"github.com/markdave123-py/Synopsis/internal/core"
	"github.com/markdave123-py/Synopsis/internal/models"
)

const (
	DefaultChunkSize    = 2000
	DefaultChunkOverlap = 200

	// snapWindow is how far (in runes) the boundary search may look on either
	// side of a window's raw end.
	snapWindow = 50
)

// Chunker splits extracted text into overlapping windows of at most maxSize
// runes (plus up to snapWindow when a sentence ends just past the cut).
//
// maxSize:  nominal window length in runes.
// overlap:  runes repeated at the head of the next window for context bleed.
type Chunker struct {
	maxSize int
	overlap int
}

// NewChunker validates the window configuration. An overlap that is not
// strictly smaller than maxSize could never advance, so it is rejected.
func NewChunker(maxSize, overlap int) (*Chunker, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", core.ErrInvalidChunkConfig, maxSize)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("%w: overlap must not be negative, got %d", core.ErrInvalidChunkConfig, overlap)
	}
	if overlap >= maxSize {
		return nil, fmt.Errorf("%w: overlap %d must be smaller than chunk size %d", core.ErrInvalidChunkConfig, overlap, maxSize)
	}
	return &Chunker{maxSize: maxSize, overlap: overlap}, nil
}

// DefaultChunker returns the 2000/200 chunker.
func DefaultChunker() *Chunker {
	return &Chunker{maxSize: DefaultChunkSize, overlap: DefaultChunkOverlap}
}

func (c *Chunker) MaxSize() int { return c.maxSize }
func (c *Chunker) Overlap() int { return c.overlap }

// Split walks the text left to right. Each window ends at its raw end unless a
// sentence or paragraph boundary sits within snapWindow runes of it, in which
// case the window ends right after that boundary. The next window starts
// overlap runes before the previous end. Empty text yields no chunks.
func (c *Chunker) Split(text string) []models.Chunk {
	if text == "" {
		return nil
	}

	r := []rune(text)
	n := len(r)

	var (
		out   []models.Chunk
		start int
	)
	for start < n {
		end := min(start+c.maxSize, n)
		if end < n {
			end = c.snap(r, start, end)
		}

		out = append(out, models.Chunk{
			Index: len(out),
			Text:  string(r[start:end]),
			Start: start,
			End:   end,
		})

		if end == n {
			break
		}
		start = end - c.overlap
	}
	return out
}

// snap searches backward from min(end+snapWindow, n)-1 to end-snapWindow+1 for
// the last terminator followed by whitespace (or end of text). The search never
// goes below start+overlap, which keeps every step moving forward.
func (c *Chunker) snap(r []rune, start, end int) int {
	n := len(r)
	hi := min(end+snapWindow, n) - 1
	lo := max(end-snapWindow+1, start+c.overlap)

	for j := hi; j >= lo; j-- {
		if isTerminator(r[j]) && (j+1 >= n || unicode.IsSpace(r[j+1])) {
			return j + 1
		}
	}
	return end
}

func isTerminator(r rune) bool {
	switch r {
	case '.', '!', '?', '\n':
		return true
	}
	return false
}
