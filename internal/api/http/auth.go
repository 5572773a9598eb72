package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"

	"log/slog"
)

type ctxKey int

const orgIDKey ctxKey = iota

// authenticator rejects requests without a valid token and resolves the
// calling organization from the org_id claim.
func (s *Server) authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			slog.Default().ErrorContext(r.Context(), "token verification failed",
				slog.String("err", err.Error()))
			respondError(w, r, http.StatusUnauthorized, err)
			return
		}
		if token == nil {
			respondError(w, r, http.StatusUnauthorized, fmt.Errorf("missing token"))
			return
		}

		raw, ok := claims["org_id"].(string)
		if !ok {
			respondError(w, r, http.StatusUnauthorized, fmt.Errorf("missing org_id claim"))
			return
		}
		orgID, err := uuid.Parse(raw)
		if err != nil {
			respondError(w, r, http.StatusUnauthorized, fmt.Errorf("invalid org_id claim: %w", err))
			return
		}

		ctx := context.WithValue(r.Context(), orgIDKey, orgID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func orgFromContext(ctx context.Context) (uuid.UUID, error) {
	orgID, ok := ctx.Value(orgIDKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, fmt.Errorf("no organization in context")
	}
	return orgID, nil
}
