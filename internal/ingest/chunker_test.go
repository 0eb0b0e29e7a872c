package ingest

import (
	"strings"
	"testing"

	"github.com/mungunsi/medichat/internal/model/document"
)

func TestChunkShortTextSingleChunk(t *testing.T) {
	chunker := NewCharacterChunker(500, 20)
	doc := document.Document{ID: "d1", Source: "a.pdf", Content: "short page text"}

	chunks, err := chunker.Chunk(doc)
	if err != nil {
		t.Fatalf("Chunk err: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("chunk count: got %d want 1", len(chunks))
	}
	if chunks[0].Text != "short page text" {
		t.Fatalf("unexpected chunk text: %q", chunks[0].Text)
	}
	if chunks[0].Source != "a.pdf" {
		t.Fatalf("source not propagated: %q", chunks[0].Source)
	}
	if chunks[0].ChunkID != "d1:0" {
		t.Fatalf("unexpected chunk id: %q", chunks[0].ChunkID)
	}
}

func TestChunkEmptyContent(t *testing.T) {
	chunker := NewCharacterChunker(500, 20)

	chunks, err := chunker.Chunk(document.Document{ID: "d1", Content: "   \n "})
	if err != nil {
		t.Fatalf("Chunk err: %v", err)
	}
	if len(chunks) != 0 {
		t.Fatalf("chunk count: got %d want 0", len(chunks))
	}
}

func TestChunkWindowsOverlap(t *testing.T) {
	chunker := NewCharacterChunker(10, 2)
	content := strings.Repeat("abcdefghij", 3)

	chunks, err := chunker.Chunk(document.Document{ID: "d1", Content: content})
	if err != nil {
		t.Fatalf("Chunk err: %v", err)
	}
	if len(chunks) < 3 {
		t.Fatalf("chunk count: got %d want >= 3", len(chunks))
	}

	for i, ch := range chunks {
		if len([]rune(ch.Text)) > 10 {
			t.Fatalf("chunk %d exceeds budget: %d runes", i, len([]rune(ch.Text)))
		}
		if ch.Index != i {
			t.Fatalf("chunk %d has index %d", i, ch.Index)
		}
	}

	// Each window starts 8 runes after the previous one, so consecutive
	// chunks share a 2-rune overlap.
	first := []rune(chunks[0].Text)
	second := []rune(chunks[1].Text)
	if string(first[8:]) != string(second[:2]) {
		t.Fatalf("expected overlap %q at start of next chunk, got %q", string(first[8:]), string(second[:2]))
	}
}

func TestChunkOverlapClamped(t *testing.T) {
	// overlap >= size must still advance the window
	chunker := NewCharacterChunker(5, 10)
	content := strings.Repeat("x", 50)

	chunks, err := chunker.Chunk(document.Document{ID: "d1", Content: content})
	if err != nil {
		t.Fatalf("Chunk err: %v", err)
	}
	if len(chunks) == 0 || len(chunks) > 50 {
		t.Fatalf("suspicious chunk count %d", len(chunks))
	}
}
