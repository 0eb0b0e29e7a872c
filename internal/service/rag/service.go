package rag

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/cloudwego/eino/schema"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/mungunsi/medichat/internal/model/chat"
	"github.com/mungunsi/medichat/internal/model/document"
	"github.com/mungunsi/medichat/internal/service/ai"
	"github.com/mungunsi/medichat/internal/service/memory"
)

// tracer emits fire-and-forget spans; without an installed provider the
// global no-op implementation swallows them.
var tracer = otel.Tracer("medichat/rag")

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrSessionNotFound     = memory.ErrSessionNotFound
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// Embedder turns a query into a vector.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Retriever finds the topK most similar chunks for a vector.
type Retriever interface {
	Query(ctx context.Context, vector []float32, topK int) ([]document.SearchResult, error)
}

// Generator produces an answer from the assembled prompt.
type Generator interface {
	Generate(ctx context.Context, system string, history []chat.Turn, query string) (string, error)
	Stream(ctx context.Context, system string, history []chat.Turn, query string) (*schema.StreamReader[*schema.Message], error)
	StreamingEnabled() bool
}

// Service orchestrates one chat exchange: load history, retrieve context,
// generate, persist the turn. A failed exchange leaves history untouched.
// There is no retry and no backoff around the collaborators.
type Service struct {
	store     memory.Store
	embedder  Embedder
	retriever Retriever
	generator Generator
	topK      int
}

// NewService wires the orchestrator.
func NewService(store memory.Store, embedder Embedder, retriever Retriever, generator Generator, topK int) *Service {
	if topK <= 0 {
		topK = 3
	}
	return &Service{
		store:     store,
		embedder:  embedder,
		retriever: retriever,
		generator: generator,
		topK:      topK,
	}
}

// StreamingEnabled reports whether AnswerStream may be used.
func (s *Service) StreamingEnabled() bool {
	return s.generator.StreamingEnabled()
}

// Answer runs the full exchange and returns the generated text.
func (s *Service) Answer(ctx context.Context, sessionID, input string) (string, error) {
	ctx, span := tracer.Start(ctx, "chat.answer")
	defer span.End()

	system, history, query, err := s.prepare(ctx, sessionID, input)
	if err != nil {
		return "", err
	}

	answer, err := s.generator.Generate(ctx, system, history, query)
	if err != nil {
		return "", fmt.Errorf("%w: generation: %v", ErrUpstreamUnavailable, err)
	}

	s.persistTurn(ctx, sessionID, query, answer)
	return answer, nil
}

// AnswerStream runs the exchange with streamed output. Each content delta is
// handed to onDelta in order; the full answer is persisted and returned once
// the stream completes.
func (s *Service) AnswerStream(ctx context.Context, sessionID, input string, onDelta func(string)) (string, error) {
	ctx, span := tracer.Start(ctx, "chat.answer_stream")
	defer span.End()

	system, history, query, err := s.prepare(ctx, sessionID, input)
	if err != nil {
		return "", err
	}

	stream, err := s.generator.Stream(ctx, system, history, query)
	if err != nil {
		return "", fmt.Errorf("%w: generation: %v", ErrUpstreamUnavailable, err)
	}
	defer stream.Close()

	var builder strings.Builder
	for {
		chunk, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			return "", fmt.Errorf("%w: generation: %v", ErrUpstreamUnavailable, recvErr)
		}
		if chunk == nil || chunk.Content == "" {
			continue
		}
		builder.WriteString(chunk.Content)
		if onDelta != nil {
			onDelta(chunk.Content)
		}
	}

	answer := builder.String()
	s.persistTurn(ctx, sessionID, query, answer)
	return answer, nil
}

// prepare validates the request, loads history and retrieves context.
func (s *Service) prepare(ctx context.Context, sessionID, input string) (system string, history []chat.Turn, query string, err error) {
	query = strings.TrimSpace(input)
	if query == "" {
		return "", nil, "", ErrInvalidInput
	}
	if sessionID == "" {
		return "", nil, "", ErrSessionNotFound
	}

	history = s.store.GetOrCreate(ctx, sessionID)

	results, err := s.retrieve(ctx, query)
	if err != nil {
		return "", nil, "", err
	}

	return ai.BuildSystemPrompt(results), history, query, nil
}

func (s *Service) retrieve(ctx context.Context, query string) ([]document.SearchResult, error) {
	ctx, span := tracer.Start(ctx, "chat.retrieve")
	defer span.End()

	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding: %v", ErrUpstreamUnavailable, err)
	}

	results, err := s.retriever.Query(ctx, vector, s.topK)
	if err != nil {
		return nil, fmt.Errorf("%w: retrieval: %v", ErrUpstreamUnavailable, err)
	}

	span.SetAttributes(attribute.Int("chat.context_chunks", len(results)))
	return results, nil
}

// persistTurn appends the completed exchange. A store failure is logged, not
// surfaced: the caller already holds a valid answer.
func (s *Service) persistTurn(ctx context.Context, sessionID, input, output string) {
	turn := chat.Turn{SessionID: sessionID, Input: input, Output: output}
	if err := s.store.Append(ctx, turn); err != nil {
		log.Printf("[rag] failed to persist turn for session=%s: %v", sessionID, err)
	}
}
