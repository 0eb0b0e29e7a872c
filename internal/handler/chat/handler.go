package chat

import (
	"context"
	"embed"
	"html/template"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mungunsi/medichat/internal/handler/session"
	"github.com/mungunsi/medichat/internal/service/memory"
	"github.com/mungunsi/medichat/pkg/utils"
)

//go:embed chat.html
var pageFS embed.FS

var pageTemplate = template.Must(template.ParseFS(pageFS, "chat.html"))

// User-facing fallback messages. Failure details stay in the server log.
const (
	msgSessionExpired = "Session expired. Please refresh the page."
	msgInitializing   = "Service is initializing. Please try again shortly."
	msgTrouble        = "I'm having trouble processing your request. Please try again."
)

// Answerer runs one chat exchange. Nil when the collaborators are not
// configured; the handler degrades to the initializing message.
type Answerer interface {
	Answer(ctx context.Context, sessionID, input string) (string, error)
	AnswerStream(ctx context.Context, sessionID, input string, onDelta func(string)) (string, error)
	StreamingEnabled() bool
}

// Components reports which collaborators came up, for the health endpoint.
type Components struct {
	LLM        bool `json:"llm"`
	Retriever  bool `json:"retriever"`
	Embeddings bool `json:"embeddings"`
}

// Handler serves the chat page and the chat endpoints.
type Handler struct {
	answerer   Answerer
	store      memory.Store
	sessions   *session.Manager
	components Components
}

// New creates the chat handler. answerer may be nil.
func New(answerer Answerer, store memory.Store, sessions *session.Manager, components Components) *Handler {
	return &Handler{
		answerer:   answerer,
		store:      store,
		sessions:   sessions,
		components: components,
	}
}

// RegisterRoutes attaches the chat endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.handleHome)
	r.Post("/chat", h.handleChat)
	r.Get("/chat/stream", h.handleChatStream)
	r.Post("/clear-memory", h.handleClearMemory)
	r.Post("/evict-session", h.handleEvictSession)
	r.Get("/health", h.handleHealth)
}

// handleHome serves the chat page and guarantees a signed session cookie.
func (h *Handler) handleHome(w http.ResponseWriter, r *http.Request) {
	sessionID := h.sessions.Ensure(w, r)
	h.store.GetOrCreate(r.Context(), sessionID)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, nil); err != nil {
		log.Printf("[chat] failed to render page: %v", err)
	}
}

// handleChat answers one form-posted message as plain text.
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessions.Read(r)
	if !ok {
		utils.RespondText(w, http.StatusOK, msgSessionExpired)
		return
	}

	if h.answerer == nil {
		utils.RespondText(w, http.StatusOK, msgInitializing)
		return
	}

	msg := r.PostFormValue("msg")
	log.Printf("[chat] session=%.8s input=%.50q", sessionID, msg)

	answer, err := h.answerer.Answer(r.Context(), sessionID, msg)
	if err != nil {
		log.Printf("[chat] session=%.8s exchange failed: %v", sessionID, err)
		utils.RespondText(w, http.StatusOK, msgTrouble)
		return
	}

	log.Printf("[chat] session=%.8s answer=%.50q", sessionID, answer)
	utils.RespondText(w, http.StatusOK, answer)
}

// streamEvent is the SSE payload for the streaming chat endpoint.
type streamEvent struct {
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}

// handleChatStream answers one message over Server-Sent Events.
func (h *Handler) handleChatStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	sessionID, valid := h.sessions.Read(r)
	if !valid {
		utils.RespondText(w, http.StatusOK, msgSessionExpired)
		return
	}

	if h.answerer == nil {
		utils.RespondText(w, http.StatusOK, msgInitializing)
		return
	}

	msg := r.URL.Query().Get("msg")
	utils.SetupSSEHeaders(w)
	utils.SendSSEEvent(w, flusher, "start", streamEvent{})

	if !h.answerer.StreamingEnabled() {
		answer, err := h.answerer.Answer(r.Context(), sessionID, msg)
		if err != nil {
			log.Printf("[chat] session=%.8s stream exchange failed: %v", sessionID, err)
			utils.SendSSEEvent(w, flusher, "error", streamEvent{Error: msgTrouble})
			return
		}
		utils.SendSSEEvent(w, flusher, "chunk", streamEvent{Content: answer})
		utils.SendSSEEvent(w, flusher, "done", streamEvent{})
		return
	}

	_, err := h.answerer.AnswerStream(r.Context(), sessionID, msg, func(delta string) {
		utils.SendSSEEvent(w, flusher, "chunk", streamEvent{Content: delta})
	})
	if err != nil {
		log.Printf("[chat] session=%.8s stream exchange failed: %v", sessionID, err)
		utils.SendSSEEvent(w, flusher, "error", streamEvent{Error: msgTrouble})
		return
	}

	utils.SendSSEEvent(w, flusher, "done", streamEvent{})
}

// handleClearMemory empties the caller's session history.
func (h *Handler) handleClearMemory(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessions.Read(r)
	if !ok {
		utils.RespondText(w, http.StatusOK, "No active session.")
		return
	}

	if err := h.store.Clear(r.Context(), sessionID); err != nil {
		utils.RespondText(w, http.StatusOK, "No active session.")
		return
	}

	utils.RespondText(w, http.StatusOK, "Memory cleared!")
}

// handleEvictSession drops the caller's session entirely, unlike
// clear-memory which keeps the registration. The next page load issues a
// fresh session.
func (h *Handler) handleEvictSession(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessions.Read(r)
	if !ok {
		utils.RespondText(w, http.StatusOK, "No active session.")
		return
	}

	h.store.Evict(r.Context(), sessionID)
	utils.RespondText(w, http.StatusOK, "Session evicted.")
}

// handleHealth reports per-component availability.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if h.answerer == nil {
		status = "degraded"
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"status":     status,
		"components": h.components,
	})
}
