// internal/server/handlers.go
package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/graphchat/text2cypher/internal/service"
)

// handlers manages the HTTP request handling for the API.
type handlers struct {
	app *service.AppContext
	log *zap.Logger
}

func newHandlers(app *service.AppContext, logger *zap.Logger) *handlers {
	return &handlers{
		app: app,
		log: logger.Named("handlers"),
	}
}

// registerRoutes sets up the routing tree.
func (h *handlers) registerRoutes(r chi.Router) {
	r.Get("/", h.handleRoot)
	r.Get("/health", h.handleHealth)
	r.Get("/schema", h.handleSchema)

	r.Route("/api", func(r chi.Router) {
		r.Post("/text2cypher", h.handleText2Cypher)

		r.Route("/chatbot", func(r chi.Router) {
			r.Post("/message", h.handleChatMessage)
			r.Get("/conversations", h.handleListConversations)
			r.Get("/conversations/{conversationID}/details", h.handleConversationDetails)
			r.Delete("/conversations/{conversationID}", h.handleDeleteConversation)
		})

		r.Route("/users", func(r chi.Router) {
			r.Post("/register", h.handleRegister)
			r.Post("/login", h.handleLogin)
			r.Get("/", h.handleListUsers)
			r.Get("/me", h.handleMe)
			r.Put("/me", h.handleUpdateMe)
			r.Delete("/me", h.handleDeleteMe)
		})

		r.Route("/graph", func(r chi.Router) {
			r.Get("/summary", h.handleGraphSummary)
		})
	})
}

func (h *handlers) handleRoot(w http.ResponseWriter, r *http.Request) {
	h.respondWithJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"health": "/health",
		"schema": "/schema",
	})
}

func (h *handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) handleSchema(w http.ResponseWriter, r *http.Request) {
	h.respondWithJSON(w, http.StatusOK, map[string]string{"schema": h.app.SchemaText})
}

func (h *handlers) handleGraphSummary(w http.ResponseWriter, r *http.Request) {
	if !h.app.Executor.Connected() {
		h.respondWithError(w, http.StatusServiceUnavailable, "Neo4j is not configured")
		return
	}
	summary, err := h.app.Executor.Summary(r.Context())
	if err != nil {
		h.log.Error("Graph summary failed", zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "Neo4j query failed")
		return
	}
	h.respondWithJSON(w, http.StatusOK, summary)
}

// -- Response helpers --

func (h *handlers) respondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Error("Failed to encode response", zap.Error(err))
	}
}

// respondWithError keeps failure payloads short: a detail string only, no
// internals.
func (h *handlers) respondWithError(w http.ResponseWriter, code int, detail string) {
	h.respondWithJSON(w, code, map[string]string{"detail": detail})
}

func (h *handlers) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
