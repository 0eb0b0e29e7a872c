package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/mungunsi/medichat/internal/config"
	"github.com/mungunsi/medichat/internal/ingest"
	"github.com/mungunsi/medichat/internal/model/document"
	"github.com/mungunsi/medichat/internal/service/embedding"
	"github.com/mungunsi/medichat/internal/service/vectorstore"
)

const embedBatchSize = 32

// The indexer is the one-shot ingestion pipeline: read every PDF under the
// data directory, chunk, embed, and upsert into the hosted vector index.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dataDir := flag.String("data", "", "directory of PDF files (defaults to DATA_DIR)")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	root := cfg.Ingest.DataDir
	if *dataDir != "" {
		root = *dataDir
	}

	embedder, err := embedding.NewClient(cfg.Embedding)
	if err != nil {
		log.Fatalf("failed to initialize embeddings client: %v", err)
	}

	store, err := vectorstore.NewPineconeStore(cfg.Pinecone)
	if err != nil {
		log.Fatalf("failed to initialize vector index client: %v", err)
	}

	docs, err := ingest.LoadPDFDirectory(root)
	if err != nil {
		log.Fatalf("failed to load documents: %v", err)
	}

	chunker := ingest.NewCharacterChunker(cfg.Ingest.ChunkSize, cfg.Ingest.ChunkOverlap)
	var chunks []document.Chunk
	for _, doc := range docs {
		docChunks, err := chunker.Chunk(doc)
		if err != nil {
			log.Fatalf("failed to chunk %s: %v", doc.Source, err)
		}
		chunks = append(chunks, docChunks...)
	}
	log.Printf("[indexer] produced %d chunks from %d pages", len(chunks), len(docs))

	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, chunk := range batch {
			texts[i] = chunk.Text
		}

		vectors, err := embedder.EmbedDocuments(ctx, texts)
		if err != nil {
			log.Fatalf("failed to embed batch at %d: %v", start, err)
		}

		if err := store.Upsert(ctx, batch, vectors); err != nil {
			log.Fatalf("failed to upsert batch at %d: %v", start, err)
		}

		log.Printf("[indexer] upserted %d/%d chunks", end, len(chunks))
	}

	log.Printf("[indexer] embedded with dimension %d", embedder.Dimension())

	stats, err := store.Stats(ctx)
	if err != nil {
		log.Printf("warning: failed to read index stats: %v", err)
		return
	}
	log.Printf("[indexer] index %s now holds %d vectors (dimension %d)", cfg.Pinecone.Index, stats.TotalVectorCount, stats.Dimension)
}
