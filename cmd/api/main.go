package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mungunsi/medichat/internal/config"
	"github.com/mungunsi/medichat/internal/handler"
	chatHandler "github.com/mungunsi/medichat/internal/handler/chat"
	"github.com/mungunsi/medichat/internal/handler/session"
	"github.com/mungunsi/medichat/internal/service/ai"
	"github.com/mungunsi/medichat/internal/service/embedding"
	"github.com/mungunsi/medichat/internal/service/memory"
	"github.com/mungunsi/medichat/internal/service/rag"
	"github.com/mungunsi/medichat/internal/service/vectorstore"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	store := memory.NewMemoryStore()
	sessions := session.NewManager(cfg.Session.Secret)

	components := chatHandler.Components{}

	// Initialize the LLM chain
	var aiService *ai.Service
	if cfg.AI.Enabled() {
		aiService, err = ai.NewService(ctx, cfg.AI)
		if err != nil {
			log.Printf("warning: failed to initialize AI service: %v", err)
			log.Println("continuing without generation - check the ARK_* environment variables")
		} else {
			components.LLM = true
			log.Println("AI service initialized successfully")
		}
	} else {
		log.Println("chat model credentials not configured, skipping AI initialization")
	}

	// Initialize the embeddings client
	var embedder *embedding.Client
	if cfg.Embedding.Enabled() {
		embedder, err = embedding.NewClient(cfg.Embedding)
		if err != nil {
			log.Printf("warning: failed to initialize embeddings client: %v", err)
		} else {
			components.Embeddings = true
			log.Println("embeddings client initialized successfully")
		}
	} else {
		log.Println("embeddings endpoint not configured, skipping initialization")
	}

	// Initialize the vector index client
	var retriever *vectorstore.PineconeStore
	if cfg.Pinecone.Enabled() {
		retriever, err = vectorstore.NewPineconeStore(cfg.Pinecone)
		if err != nil {
			log.Printf("warning: failed to initialize vector index client: %v", err)
		} else {
			components.Retriever = true
			log.Println("vector index client initialized successfully")
		}
	} else {
		log.Println("vector index not configured, skipping initialization")
	}

	// The chat path needs all three collaborators; otherwise the handler
	// answers with the initializing message.
	var answerer chatHandler.Answerer
	if aiService != nil && embedder != nil && retriever != nil {
		answerer = rag.NewService(store, embedder, retriever, aiService, cfg.Retrieval.TopK)
		log.Printf("chat orchestrator ready, top_k=%d", cfg.Retrieval.TopK)
	} else {
		log.Println("chat orchestrator disabled, one or more collaborators unavailable")
	}

	chat := chatHandler.New(answerer, store, sessions, components)
	router := handler.NewRouter(chat)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("medichat backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
