package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/mungunsi/medichat/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(config.EmbeddingConfig{
		BaseURL: srv.URL + "/v1",
		APIKey:  "test-key",
		Model:   "text-embedding-3-small",
	})
	if err != nil {
		t.Fatalf("NewClient err: %v", err)
	}
	return client
}

func embeddingsResponse(vectors [][]float32) []byte {
	type item struct {
		Object    string    `json:"object"`
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	}
	data := make([]item, len(vectors))
	for i, v := range vectors {
		data[i] = item{Object: "embedding", Index: i, Embedding: v}
	}
	payload, _ := json.Marshal(map[string]any{
		"object": "list",
		"data":   data,
		"model":  "text-embedding-3-small",
	})
	return payload
}

func TestEmbedQuery(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(embeddingsResponse([][]float32{{0.1, 0.2, 0.3}}))
	})

	vector, err := client.EmbedQuery(context.Background(), "what is aspirin")
	if err != nil {
		t.Fatalf("EmbedQuery err: %v", err)
	}
	if len(vector) != 3 {
		t.Fatalf("vector length: got %d want 3", len(vector))
	}
	if client.Dimension() != 3 {
		t.Fatalf("dimension: got %d want 3", client.Dimension())
	}
}

func TestEmbedDocumentsKeepsOrder(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(embeddingsResponse([][]float32{{1, 0}, {0, 1}}))
	})

	vectors, err := client.EmbedDocuments(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("EmbedDocuments err: %v", err)
	}
	if len(vectors) != 2 {
		t.Fatalf("vector count: got %d want 2", len(vectors))
	}
	if vectors[0][0] != 1 || vectors[1][1] != 1 {
		t.Fatalf("vectors out of order: %v", vectors)
	}
}

func TestEmbedDocumentsCountMismatch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(embeddingsResponse([][]float32{{1, 0}}))
	})

	if _, err := client.EmbedDocuments(context.Background(), []string{"first", "second"}); err == nil {
		t.Fatal("expected error on response count mismatch")
	}
}

func TestEmbedQueryConcurrent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(embeddingsResponse([][]float32{{0.1, 0.2, 0.3}}))
	})

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = client.EmbedQuery(context.Background(), "what is aspirin")
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("EmbedQuery goroutine %d err: %v", i, err)
		}
	}
	if client.Dimension() != 3 {
		t.Fatalf("dimension after concurrent embeds: got %d want 3", client.Dimension())
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(config.EmbeddingConfig{BaseURL: "http://localhost"}); err == nil {
		t.Fatal("expected error without API key")
	}
}
