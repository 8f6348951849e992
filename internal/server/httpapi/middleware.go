package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/chatgate/internal/server/auth"
)

type ctxKey string

const identityContextKey ctxKey = "chatgate-identity"

// identityFrom returns the verified identity attached by requireRole.
func identityFrom(ctx context.Context) *auth.Identity {
	identity, _ := ctx.Value(identityContextKey).(*auth.Identity)
	return identity
}

// requireRole verifies the bearer token and checks that its claim shape
// matches the required role. A missing, malformed, or expired token is a
// 401; a valid token of the wrong role is a 403.
func (s *Server) requireRole(role auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				respondMessage(w, http.StatusUnauthorized, false, "missing or invalid token")
				return
			}

			identity, err := auth.VerifyToken(strings.TrimPrefix(header, "Bearer "), s.secretKey)
			if err != nil {
				respondMessage(w, http.StatusUnauthorized, false, "token invalid or expired")
				return
			}

			if identity.Role() != role {
				respondMessage(w, http.StatusForbidden, false, "invalid credentials for this resource")
				return
			}

			ctx := context.WithValue(r.Context(), identityContextKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
