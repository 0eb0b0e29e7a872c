package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mungunsi/medichat/internal/config"
	"github.com/mungunsi/medichat/internal/model/document"
)

// PineconeStore is a minimal REST client for a Pinecone serverless index.
// It talks to the index data plane (upsert, query, stats) and stores chunk
// text and source in the vector metadata.
type PineconeStore struct {
	host   string
	apiKey string
	index  string
	client *http.Client
}

// NewPineconeStore builds a client from configuration.
func NewPineconeStore(cfg config.PineconeConfig) (*PineconeStore, error) {
	if !cfg.Enabled() {
		return nil, errors.New("vector index not configured: set PINECONE_API_KEY and PINECONE_INDEX_HOST")
	}

	host := cfg.IndexHost
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "https://" + host
	}

	return &PineconeStore{
		host:   strings.TrimRight(host, "/"),
		apiKey: cfg.APIKey,
		index:  cfg.Index,
		client: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

type pineconeVector struct {
	ID       string            `json:"id"`
	Values   []float32         `json:"values"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Upsert writes one vector per chunk. Chunks and vectors must align.
func (s *PineconeStore) Upsert(ctx context.Context, chunks []document.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return errors.New("chunks and vectors length mismatch")
	}
	if len(chunks) == 0 {
		return nil
	}

	points := make([]pineconeVector, len(chunks))
	for i := range chunks {
		points[i] = pineconeVector{
			ID:     chunks[i].ChunkID,
			Values: vectors[i],
			Metadata: map[string]string{
				"document_id": chunks[i].DocumentID,
				"source":      chunks[i].Source,
				"text":        chunks[i].Text,
			},
		}
	}

	body := map[string]any{"vectors": points}
	return s.post(ctx, "/vectors/upsert", body, nil)
}

// Query returns the topK most similar chunks with their scores.
func (s *PineconeStore) Query(ctx context.Context, vector []float32, topK int) ([]document.SearchResult, error) {
	if topK <= 0 {
		topK = 3
	}

	req := map[string]any{
		"vector":          vector,
		"topK":            topK,
		"includeMetadata": true,
	}

	var resp struct {
		Matches []struct {
			ID       string            `json:"id"`
			Score    float32           `json:"score"`
			Metadata map[string]string `json:"metadata"`
		} `json:"matches"`
	}
	if err := s.post(ctx, "/query", req, &resp); err != nil {
		return nil, err
	}

	results := make([]document.SearchResult, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		chunk := document.Chunk{ChunkID: m.ID}
		chunk.DocumentID = m.Metadata["document_id"]
		chunk.Source = m.Metadata["source"]
		chunk.Text = m.Metadata["text"]
		results = append(results, document.SearchResult{Chunk: chunk, Score: m.Score})
	}
	return results, nil
}

// IndexStats describes the remote index.
type IndexStats struct {
	Dimension        int `json:"dimension"`
	TotalVectorCount int `json:"totalVectorCount"`
}

// Stats fetches dimension and vector count from the index.
func (s *PineconeStore) Stats(ctx context.Context) (IndexStats, error) {
	var stats IndexStats
	if err := s.post(ctx, "/describe_index_stats", map[string]any{}, &stats); err != nil {
		return IndexStats{}, err
	}
	return stats, nil
}

func (s *PineconeStore) post(ctx context.Context, path string, payload any, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.host+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("pinecone request %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("pinecone request %s failed: %s: %s", path, resp.Status, strings.TrimSpace(string(snippet)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("pinecone response %s decode failed: %w", path, err)
	}
	return nil
}
