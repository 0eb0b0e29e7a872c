package ingest

import (
	"strconv"
	"strings"

	"github.com/mungunsi/medichat/internal/model/document"
)

// CharacterChunker splits text into fixed-size chunks with a fixed overlap.
type CharacterChunker struct {
	size    int
	overlap int
}

// NewCharacterChunker builds a chunker with the given character budget.
// An overlap at or above the size is clamped so the window always advances.
func NewCharacterChunker(size, overlap int) *CharacterChunker {
	if size <= 0 {
		size = 500
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size - 1
	}
	return &CharacterChunker{size: size, overlap: overlap}
}

// Chunk slices the document content into overlapping windows. Empty content
// yields no chunks; content within the budget yields exactly one.
func (c *CharacterChunker) Chunk(doc document.Document) ([]document.Chunk, error) {
	runes := []rune(strings.TrimSpace(doc.Content))
	if len(runes) == 0 {
		return nil, nil
	}

	step := c.size - c.overlap
	var chunks []document.Chunk
	idx := 0
	for start := 0; start < len(runes); start += step {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}

		text := strings.TrimSpace(string(runes[start:end]))
		if text != "" {
			chunks = append(chunks, document.Chunk{
				DocumentID: doc.ID,
				ChunkID:    doc.ID + ":" + strconv.Itoa(idx),
				Source:     doc.Source,
				Text:       text,
				Index:      idx,
			})
			idx++
		}

		if end == len(runes) {
			break
		}
	}

	return chunks, nil
}
