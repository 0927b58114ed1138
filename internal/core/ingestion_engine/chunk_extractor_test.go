package ingestion_engine

import (
	"errors"
	"math/rand"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/markdave123-py/Synopsis/internal/core"
	"github.com/markdave123-py/Synopsis/internal/models"
)

// checkChunks asserts coverage, overlap and exact reconstruction.
func checkChunks(t *testing.T, text string, chunks []models.Chunk, overlap int) {
	t.Helper()
	r := []rune(text)
	if len(chunks) == 0 {
		t.Fatalf("no chunks for %d runes", len(r))
	}
	if chunks[0].Start != 0 {
		t.Fatalf("first chunk starts at %d", chunks[0].Start)
	}
	if last := chunks[len(chunks)-1]; last.End != len(r) {
		t.Fatalf("last chunk ends at %d, text has %d runes", last.End, len(r))
	}

	var rebuilt strings.Builder
	for i, ch := range chunks {
		if ch.Index != i {
			t.Fatalf("chunk %d has index %d", i, ch.Index)
		}
		if ch.Text != string(r[ch.Start:ch.End]) {
			t.Fatalf("chunk %d text does not match its offsets", i)
		}
		if i == 0 {
			rebuilt.WriteString(ch.Text)
			continue
		}
		prev := chunks[i-1]
		if ch.Start != prev.End-overlap {
			t.Fatalf("chunk %d starts at %d, want %d", i, ch.Start, prev.End-overlap)
		}
		if ch.Start <= prev.Start {
			t.Fatalf("chunk %d did not advance (%d <= %d)", i, ch.Start, prev.Start)
		}
		head := string([]rune(ch.Text)[:overlap])
		prevRunes := []rune(prev.Text)
		tail := string(prevRunes[len(prevRunes)-overlap:])
		if head != tail {
			t.Fatalf("chunk %d head %q != previous tail %q", i, head, tail)
		}
		rebuilt.WriteString(string([]rune(ch.Text)[overlap:]))
	}
	if rebuilt.String() != text {
		t.Fatalf("reconstruction mismatch: got %d runes, want %d", utf8.RuneCountInString(rebuilt.String()), len(r))
	}
}

func TestSplitEmpty(t *testing.T) {
	if got := DefaultChunker().Split(""); len(got) != 0 {
		t.Fatalf("expected no chunks, got %d", len(got))
	}
}

func TestSplitShortTextIsOneChunk(t *testing.T) {
	for _, text := range []string{"x", "Hello world. ", strings.Repeat("y", DefaultChunkSize)} {
		got := DefaultChunker().Split(text)
		if len(got) != 1 || got[0].Text != text {
			t.Fatalf("expected single chunk equal to input (len %d), got %d chunks", len(text), len(got))
		}
	}
}

func TestSplitSnapsBackToSentenceEnd(t *testing.T) {
	text := strings.Repeat("a", 1980) + ". " + strings.Repeat("b", 100)
	got := DefaultChunker().Split(text)

	want := strings.Repeat("a", 1980) + "."
	if got[0].Text != want {
		t.Fatalf("first chunk should end right after the period, ends at %d", got[0].End)
	}
	checkChunks(t, text, got, DefaultChunkOverlap)
}

func TestSplitSnapsForwardWithinWindow(t *testing.T) {
	text := strings.Repeat("a", 2010) + "! " + strings.Repeat("c", 100)
	got := DefaultChunker().Split(text)

	if got[0].End != 2011 {
		t.Fatalf("expected first chunk to end after '!' at 2011, got %d", got[0].End)
	}
	checkChunks(t, text, got, DefaultChunkOverlap)
}

func TestSplitPrefersLastBoundaryInWindow(t *testing.T) {
	text := strings.Repeat("a", 1960) + ". " + strings.Repeat("a", 60) + "? " + strings.Repeat("z", 500)
	got := DefaultChunker().Split(text)

	// '?' sits at 2022, inside the forward half of the window; it wins over the earlier '.'.
	if got[0].End != 2023 {
		t.Fatalf("expected end 2023, got %d", got[0].End)
	}
}

func TestSplitHardCutWithoutBoundary(t *testing.T) {
	// The only boundaries are at the very start, far outside the search window.
	text := "A. B. " + strings.Repeat("x", 2000)
	got := DefaultChunker().Split(text)

	if len(got) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(got))
	}
	if got[0].End != DefaultChunkSize {
		t.Fatalf("expected a hard cut at %d, got %d", DefaultChunkSize, got[0].End)
	}
	if got[1].Start != DefaultChunkSize-DefaultChunkOverlap {
		t.Fatalf("second chunk starts at %d", got[1].Start)
	}
	checkChunks(t, text, got, DefaultChunkOverlap)
}

func TestSplitIgnoresPunctuationInsideTokens(t *testing.T) {
	text := strings.Repeat("n", 1990) + "3.14159" + strings.Repeat("n", 300)
	got := DefaultChunker().Split(text)
	if got[0].End != DefaultChunkSize {
		t.Fatalf("a '.' followed by a digit is not a boundary; got end %d", got[0].End)
	}
}

func TestSplitNewlineBoundary(t *testing.T) {
	text := strings.Repeat("p", 1990) + "\n\n" + strings.Repeat("q", 300)
	got := DefaultChunker().Split(text)
	// Last qualifying terminator is the first '\n' (followed by '\n'); the second
	// is followed by 'q' and does not qualify.
	if got[0].End != 1991 {
		t.Fatalf("expected end 1991, got %d", got[0].End)
	}
}

func TestSplitCountsRunesNotBytes(t *testing.T) {
	text := strings.Repeat("é", 2500)
	got := DefaultChunker().Split(text)
	if len(got) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(got))
	}
	if n := utf8.RuneCountInString(got[0].Text); n != DefaultChunkSize {
		t.Fatalf("first chunk has %d runes", n)
	}
	checkChunks(t, text, got, DefaultChunkOverlap)
}

func TestSplitPropertiesOnGeneratedText(t *testing.T) {
	words := []string{"alpha", "beta.", "gamma!", "delta?", "epsilon\n", "zeta", "eta.\n", "ñandú", "θ"}
	rng := rand.New(rand.NewSource(7))

	configs := []struct{ size, overlap int }{
		{2000, 200}, {500, 50}, {120, 0}, {60, 59}, {10, 9}, {1, 0},
	}
	for _, cfg := range configs {
		ch, err := NewChunker(cfg.size, cfg.overlap)
		if err != nil {
			t.Fatalf("NewChunker(%d, %d): %v", cfg.size, cfg.overlap, err)
		}
		for round := 0; round < 20; round++ {
			var b strings.Builder
			for i := rng.Intn(1500); i >= 0; i-- {
				b.WriteString(words[rng.Intn(len(words))])
				if rng.Intn(3) > 0 {
					b.WriteByte(' ')
				}
			}
			text := b.String()
			checkChunks(t, text, ch.Split(text), cfg.overlap)
		}
	}
}

func TestSplitTerminatesOnDenseBoundaries(t *testing.T) {
	ch, err := NewChunker(10, 9)
	if err != nil {
		t.Fatal(err)
	}
	text := strings.Repeat(". ", 50)
	checkChunks(t, text, ch.Split(text), 9)
}

func TestNewChunkerRejectsInvalidConfig(t *testing.T) {
	cases := []struct{ size, overlap int }{
		{0, 0}, {-5, 0}, {100, -1}, {100, 100}, {100, 250},
	}
	for _, tc := range cases {
		if _, err := NewChunker(tc.size, tc.overlap); !errors.Is(err, core.ErrInvalidChunkConfig) {
			t.Errorf("NewChunker(%d, %d) err = %v, want ErrInvalidChunkConfig", tc.size, tc.overlap, err)
		}
	}
}

func TestChunkerReportsConfig(t *testing.T) {
	ch, err := NewChunker(500, 40)
	if err != nil {
		t.Fatal(err)
	}
	if ch.MaxSize() != 500 || ch.Overlap() != 40 {
		t.Fatalf("config = %d/%d", ch.MaxSize(), ch.Overlap())
	}
	if d := DefaultChunker(); d.MaxSize() != DefaultChunkSize || d.Overlap() != DefaultChunkOverlap {
		t.Fatalf("default config = %d/%d", d.MaxSize(), d.Overlap())
	}
}
