package document

// Document is one page of source text pulled from the corpus.
// Only the source path survives from the original file metadata.
type Document struct {
	ID      string
	Source  string
	Content string
}

// Chunk is a bounded slice of a document prepared for embedding.
type Chunk struct {
	DocumentID string
	ChunkID    string
	Source     string
	Text       string
	Index      int
}

// SearchResult is a matching chunk with its similarity score.
type SearchResult struct {
	Chunk Chunk
	Score float32
}
