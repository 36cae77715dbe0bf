package middleware

import (
	"context"
	"net/http"
	"strings"

	"ride-backend/pkg/jwtutil"
	"ride-backend/pkg/response"
)

// AuthMiddleware guards API routes with Bearer access tokens.
type AuthMiddleware struct {
	issuer *jwtutil.Issuer
}

func NewAuthMiddleware(issuer *jwtutil.Issuer) *AuthMiddleware {
	return &AuthMiddleware{issuer: issuer}
}

// Require validates the Authorization header and places the user id in the
// request context. Purpose-scoped tokens are not access tokens and are
// rejected here.
func (am *AuthMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			response.Error(w, http.StatusUnauthorized, "No token, authorization denied")
			return
		}
		tokenStr := strings.TrimPrefix(header, "Bearer ")

		claims, err := am.issuer.ParseAccess(tokenStr)
		if err != nil || claims.UserID == "" || claims.Purpose != "" {
			response.Error(w, http.StatusUnauthorized, "Token is not valid")
			return
		}

		ctx := context.WithValue(r.Context(), ContextUserID, claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
