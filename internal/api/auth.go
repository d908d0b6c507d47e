package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/sarthakwebsite26012000-dot/built-connect-emergent/internal/models"
)

type actorKey struct{}

// authenticated resolves the bearer token into an Actor and stores it on the
// request context. Requests without a valid token never reach the handler.
func (s *HTTPServer) authenticated(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		actor, err := s.users.ValidateToken(r.Context(), token)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), actorKey{}, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func actorFrom(ctx context.Context) models.Actor {
	actor, _ := ctx.Value(actorKey{}).(models.Actor)
	return actor
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
