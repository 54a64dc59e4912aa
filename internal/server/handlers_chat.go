// internal/server/handlers_chat.go
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/graphchat/text2cypher/api/schemas"
	"github.com/graphchat/text2cypher/internal/chatbot"
	"github.com/graphchat/text2cypher/internal/conversation"
)

// handleChatMessage runs one chat turn: resolve or create the conversation,
// fold history into the question, answer through the configured strategy, and
// persist the exchange.
func (h *handlers) handleChatMessage(w http.ResponseWriter, r *http.Request) {
	if h.app.Chat == nil {
		h.respondWithError(w, http.StatusServiceUnavailable, "Chat is unavailable: LLM client not initialized")
		return
	}

	var req schemas.ChatRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		h.respondWithError(w, http.StatusBadRequest, "Message must not be empty")
		return
	}

	ctx := r.Context()
	userID := h.currentUserID(ctx, r)

	var convo *schemas.Conversation
	question := req.Message
	title := req.Title

	if h.app.Conversations != nil {
		var err error
		convo, err = h.resolveConversation(ctx, req, userID)
		if err != nil {
			h.writeConversationError(w, err)
			return
		}

		history := h.recentHistory(ctx, convo.ID)
		if h.app.Rewriter != nil && len(history) > 0 {
			currentTitle := convo.Title
			if title != "" {
				currentTitle = title
			}
			question, title = h.app.Rewriter.Rewrite(ctx, currentTitle, history, req.Message)
		} else if title == "" {
			title = convo.Title
		}
	}

	result, err := h.app.Chat.Answer(ctx, question)
	if err != nil {
		if errors.Is(err, chatbot.ErrEmptyMessage) {
			h.respondWithError(w, http.StatusBadRequest, "Message must not be empty")
			return
		}
		h.log.Error("Chat turn failed", zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "Failed to generate a response")
		return
	}

	resp := schemas.ChatResponse{
		Analysis:  result.Analysis,
		Results:   result.Rows,
		Answer:    result.Reply,
		QueryType: result.QueryType,
	}

	if convo != nil {
		resp.ConversationID = convo.ID
		// Persistence failures do not lose the answer: the reply already
		// exists, the history write is best effort.
		if err := h.app.Conversations.AddPair(ctx, convo.ID, req.Message, result.Reply); err != nil {
			h.log.Warn("Failed to persist chat exchange", zap.Int64("conversation_id", convo.ID), zap.Error(err))
		} else if title != "" && title != convo.Title {
			if err := h.app.Conversations.Touch(ctx, convo.ID, title); err != nil {
				h.log.Warn("Failed to update conversation title", zap.Int64("conversation_id", convo.ID), zap.Error(err))
			}
		}
	}

	h.respondWithJSON(w, http.StatusOK, resp)
}

// errForbiddenConversation marks a continue attempt on a conversation owned
// by a different user.
var errForbiddenConversation = errors.New("conversation belongs to another user")

// resolveConversation continues the requested conversation or starts a fresh
// one. Continuing someone else's conversation is refused outright. A fresh
// conversation without an explicit title is titled from its opening message.
func (h *handlers) resolveConversation(ctx context.Context, req schemas.ChatRequest, userID *int64) (*schemas.Conversation, error) {
	if req.ConversationID == 0 {
		title := strings.TrimSpace(req.Title)
		if title == "" {
			title = defaultTitle(req.Message)
		}
		return h.app.Conversations.Create(ctx, userID, title)
	}

	convo, err := h.app.Conversations.Get(ctx, req.ConversationID)
	if err != nil {
		return nil, err
	}
	if convo.UserID != nil && (userID == nil || *userID != *convo.UserID) {
		return nil, errForbiddenConversation
	}
	return convo, nil
}

// defaultTitle truncates the opening message to at most 80 runes.
func defaultTitle(message string) string {
	message = strings.TrimSpace(message)
	runes := []rune(message)
	if len(runes) > 80 {
		return string(runes[:80])
	}
	return message
}

func (h *handlers) writeConversationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, conversation.ErrNotFound):
		h.respondWithError(w, http.StatusNotFound, "Conversation not found")
	case errors.Is(err, errForbiddenConversation):
		h.respondWithError(w, http.StatusForbidden, "Conversation belongs to another user")
	default:
		h.log.Error("Conversation lookup failed", zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "Conversation store error")
	}
}

// recentHistory returns the last few stored messages formatted for the
// context rewriter. Store errors degrade to an empty history.
func (h *handlers) recentHistory(ctx context.Context, conversationID int64) []string {
	details, err := h.app.Conversations.ListDetails(ctx, conversationID)
	if err != nil {
		h.log.Warn("Failed to load conversation history", zap.Int64("conversation_id", conversationID), zap.Error(err))
		return nil
	}
	window := h.app.Cfg.Chatbot().HistoryWindow
	if window <= 0 {
		window = 10
	}
	if len(details) > window {
		details = details[len(details)-window:]
	}
	history := make([]string, 0, len(details))
	for _, d := range details {
		history = append(history, fmt.Sprintf("%s: %s", d.Role, d.Message))
	}
	return history
}

// handleText2Cypher exposes the raw two-stage pipeline: extraction, Cypher
// and params for every request, rows only when execution is asked for.
func (h *handlers) handleText2Cypher(w http.ResponseWriter, r *http.Request) {
	if h.app.Flow == nil {
		h.respondWithError(w, http.StatusServiceUnavailable, "Pipeline is unavailable: LLM client not initialized")
		return
	}

	var req schemas.Text2CypherRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		h.respondWithError(w, http.StatusBadRequest, "Question must not be empty")
		return
	}

	ctx := r.Context()
	state, err := h.app.Flow.Run(ctx, req.Question, h.app.SchemaText)
	if err != nil {
		h.log.Warn("Pipeline invocation failed", zap.Error(err))
		h.respondWithError(w, http.StatusUnprocessableEntity, "Failed to generate a query for this question")
		return
	}

	resp := schemas.Text2CypherResponse{
		Extraction: state.Extraction,
		Cypher:     state.Query.Cypher,
		Params:     state.Query.Params,
	}
	if req.Execute {
		rows, err := h.app.Executor.Run(ctx, state.Query.Cypher, state.Query.Params)
		if err != nil {
			h.log.Error("Generated query execution failed", zap.Error(err))
			h.respondWithError(w, http.StatusInternalServerError, "Query execution failed")
			return
		}
		resp.Rows = rows
	}

	h.respondWithJSON(w, http.StatusOK, resp)
}

// handleListConversations pages conversations, filtered to the caller when a
// valid token is presented.
func (h *handlers) handleListConversations(w http.ResponseWriter, r *http.Request) {
	if h.app.Conversations == nil {
		h.respondWithError(w, http.StatusServiceUnavailable, "Conversation history is not configured")
		return
	}

	ctx := r.Context()
	userID := h.currentUserID(ctx, r)
	skip, limit := pageParams(r)

	conversations, err := h.app.Conversations.List(ctx, userID, skip, limit)
	if err != nil {
		h.log.Error("Failed to list conversations", zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "Conversation store error")
		return
	}
	if conversations == nil {
		conversations = []schemas.Conversation{}
	}
	h.respondWithJSON(w, http.StatusOK, conversations)
}

// handleConversationDetails returns the full message log of one conversation.
// Conversations owned by someone else are reported as absent, not forbidden,
// so ids cannot be probed for existence.
func (h *handlers) handleConversationDetails(w http.ResponseWriter, r *http.Request) {
	convo, ok := h.visibleConversation(w, r)
	if !ok {
		return
	}

	details, err := h.app.Conversations.ListDetails(r.Context(), convo.ID)
	if err != nil {
		h.log.Error("Failed to list conversation details", zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "Conversation store error")
		return
	}
	if details == nil {
		details = []schemas.ConversationDetail{}
	}
	h.respondWithJSON(w, http.StatusOK, details)
}

// handleDeleteConversation removes a conversation and its messages. The same
// existence concealment as the details endpoint applies.
func (h *handlers) handleDeleteConversation(w http.ResponseWriter, r *http.Request) {
	convo, ok := h.visibleConversation(w, r)
	if !ok {
		return
	}

	if err := h.app.Conversations.Delete(r.Context(), convo.ID); err != nil {
		if errors.Is(err, conversation.ErrNotFound) {
			h.respondWithError(w, http.StatusNotFound, "Conversation not found")
			return
		}
		h.log.Error("Failed to delete conversation", zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "Conversation store error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// visibleConversation resolves the path id and enforces read visibility:
// unowned conversations are public, owned ones only visible to their owner,
// and a non-owner sees 404 rather than 403.
func (h *handlers) visibleConversation(w http.ResponseWriter, r *http.Request) (*schemas.Conversation, bool) {
	if h.app.Conversations == nil {
		h.respondWithError(w, http.StatusServiceUnavailable, "Conversation history is not configured")
		return nil, false
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "conversationID"), 10, 64)
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid conversation id")
		return nil, false
	}

	ctx := r.Context()
	convo, err := h.app.Conversations.Get(ctx, id)
	if err != nil {
		if errors.Is(err, conversation.ErrNotFound) {
			h.respondWithError(w, http.StatusNotFound, "Conversation not found")
			return nil, false
		}
		h.log.Error("Conversation lookup failed", zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "Conversation store error")
		return nil, false
	}

	if convo.UserID != nil {
		userID := h.currentUserID(ctx, r)
		if userID == nil || *userID != *convo.UserID {
			h.respondWithError(w, http.StatusNotFound, "Conversation not found")
			return nil, false
		}
	}
	return convo, true
}

func pageParams(r *http.Request) (skip, limit int) {
	skip, _ = strconv.Atoi(r.URL.Query().Get("skip"))
	if skip < 0 {
		skip = 0
	}
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return skip, limit
}
