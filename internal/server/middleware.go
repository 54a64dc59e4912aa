// internal/server/middleware.go
package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/graphchat/text2cypher/internal/accounts"
)

// corsMiddleware is intentionally permissive, matching the upstream
// deployment behind a trusted frontend.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestLogger emits one structured line per request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info("Request handled",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// bearerToken extracts the token from an Authorization header, or "" when
// the header is missing or not a bearer scheme.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// currentUserID resolves the optional bearer token to a user id. Missing or
// invalid tokens yield nil: anonymous chat is allowed.
func (h *handlers) currentUserID(ctx context.Context, r *http.Request) *int64 {
	if h.app.Auth == nil || h.app.Users == nil {
		return nil
	}
	token := bearerToken(r)
	if token == "" {
		return nil
	}
	email, err := h.app.Auth.DecodeToken(token)
	if err != nil {
		return nil
	}
	user, err := h.app.Users.GetByEmail(ctx, email)
	if err != nil {
		return nil
	}
	return &user.ID
}

// requireUserID is the strict variant: a valid bearer token mapping to a
// known user, or an unauthorized error.
func (h *handlers) requireUserID(ctx context.Context, r *http.Request) (int64, error) {
	id := h.currentUserID(ctx, r)
	if id == nil {
		return 0, accounts.ErrInvalidToken
	}
	return *id, nil
}
