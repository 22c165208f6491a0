package middleware

import (
	"net/http"
	"strings"

	"github.com/betterdrive/betterdrive/pkg/auth"
	"github.com/betterdrive/betterdrive/pkg/response"
)

// Auth validates the Bearer token and injects the authenticated user id into
// the request context. Every folder/file operation downstream is scoped to
// that identity.
func Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

		if token == "" {
			response.Unauthorized(w)
			return
		}

		claims, err := auth.ValidateToken(token)
		if err != nil {
			response.Error(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		ctx := auth.WithUserID(r.Context(), claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
