package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/notes-bin/imgshare/internal/authz"
	"github.com/notes-bin/imgshare/internal/service"
)

type ctxKey int

const identityKey ctxKey = iota

// AuthMiddleware resolves the Authorization header to an identity. Requests
// without the header continue as anonymous; a bad token is rejected.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			next.ServeHTTP(w, r)
			return
		}

		tokenStr, ok := parseAuthHeader(authHeader)
		if !ok {
			respondError(w, http.StatusUnauthorized, "Invalid authorization header")
			return
		}
		id, err := h.service.Authenticate(r.Context(), tokenStr)
		if errors.Is(err, service.ErrUnauthenticated) {
			respondError(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		if err != nil {
			h.fail(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), identityKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// parseAuthHeader accepts "Bearer <token>" and "Token <token>".
func parseAuthHeader(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	switch strings.ToLower(scheme) {
	case "bearer", "token":
		return token, true
	default:
		return "", false
	}
}

func identityFrom(ctx context.Context) *service.Identity {
	id, _ := ctx.Value(identityKey).(*service.Identity)
	return id
}

func actorFrom(r *http.Request) authz.Actor {
	if id := identityFrom(r.Context()); id != nil {
		return id.Actor
	}
	return authz.Anonymous()
}
