package auth

import (
	"encoding/json"
	"net/http"

	"horas/internal/core"
	"horas/internal/services"
)

// RequireAuth rejects requests without a valid token and puts the actor
// on the request context for downstream handlers.
func (m *Manager) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := TokenFromRequest(r)
		if !ok {
			unauthorized(w, "not logged in")
			return
		}
		claims, err := m.ParseToken(token)
		if err != nil {
			unauthorized(w, "invalid or expired token")
			return
		}
		actor := services.Actor{UserID: claims.UserID, Roles: claims.Roles}
		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}

// RequireApprover rejects authenticated requests whose actor lacks the
// approver role. It must run inside RequireAuth.
func RequireApprover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFromContext(r.Context())
		if !ok {
			unauthorized(w, "not logged in")
			return
		}
		if !core.HasRole(actor.Roles, core.RoleApprover) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			json.NewEncoder(w).Encode(map[string]string{"error": "approver role required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
