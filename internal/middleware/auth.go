package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/seams-estates/seams/internal/auth"
)

// TokenValidator turns a bearer token into a principal.
type TokenValidator interface {
	Validate(token string) (auth.Principal, error)
}

// UserID returns the authenticated user ID from the context, or "".
func UserID(ctx context.Context) string {
	p, _ := auth.PrincipalFrom(ctx)
	return p.UserID
}

// bearerToken parses an Authorization header value.
func bearerToken(header string) (string, error) {
	if header == "" {
		return "", auth.ErrMissingToken
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", auth.ErrInvalidToken
	}
	return parts[1], nil
}

// RequireAuth returns an interceptor that validates JWT tokens and requires authentication.
// The resulting principal is stored on the context for the handler.
func RequireAuth(tokens TokenValidator) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			token, err := bearerToken(req.Header().Get("Authorization"))
			if err != nil {
				return nil, connect.NewError(connect.CodeUnauthenticated, err)
			}

			principal, err := tokens.Validate(token)
			if err != nil {
				return nil, connect.NewError(connect.CodeUnauthenticated, err)
			}

			return next(auth.WithPrincipal(ctx, principal), req)
		}
	}
}

// Authenticate attaches the caller's principal to HTTP requests that carry a token.
// Requests without a token pass through anonymous; services decide whether
// that is allowed. A malformed or expired token is rejected with 401.
func Authenticate(tokens TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			if token, err := bearerToken(header); err == nil {
				if principal, err := tokens.Validate(token); err == nil {
					next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), principal)))
					return
				}
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": auth.ErrInvalidToken.Error()})
		})
	}
}
