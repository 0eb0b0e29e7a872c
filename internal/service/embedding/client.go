package embedding

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	openai "github.com/sashabaranov/go-openai"

	"github.com/mungunsi/medichat/internal/config"
)

// Client wraps an OpenAI-compatible embeddings endpoint. The vector
// dimension is learned from the first response. Safe for concurrent use.
type Client struct {
	api       *openai.Client
	model     string
	dimension atomic.Int64
}

// NewClient builds an embeddings client from configuration.
func NewClient(cfg config.EmbeddingConfig) (*Client, error) {
	if !cfg.Enabled() {
		return nil, errors.New("embeddings endpoint not configured: set EMBEDDING_API_KEY")
	}

	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}

	return &Client{
		api:   openai.NewClientWithConfig(apiCfg),
		model: cfg.Model,
	}, nil
}

// Dimension returns the vector size seen so far, zero before the first call.
func (c *Client) Dimension() int { return int(c.dimension.Load()) }

// EmbedQuery produces a vector for a single text.
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedDocuments produces one vector per input text, in input order.
func (c *Client) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: texts,
		Model: openai.EmbeddingModel(c.model),
	})
	if err != nil {
		return nil, fmt.Errorf("embeddings request failed: %w", err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embeddings response count mismatch: got %d want %d", len(resp.Data), len(texts))
	}

	vectors := make([][]float32, len(texts))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(texts) {
			return nil, fmt.Errorf("embeddings response index %d out of range", item.Index)
		}
		vectors[item.Index] = item.Embedding
	}

	for i, vec := range vectors {
		if len(vec) == 0 {
			return nil, fmt.Errorf("no embedding returned for input %d", i)
		}
	}

	c.dimension.CompareAndSwap(0, int64(len(vectors[0])))

	return vectors, nil
}
