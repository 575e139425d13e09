package auth

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
)

type contextKey string

const claimsKey contextKey = "auth_claims"

// Middleware verifies bearer tokens against the configured OIDC issuer and
// stores the caller's identity claims on the request context. Authentication
// mechanics (sessions, OTP, registration) live in the identity service; this
// layer only consumes its tokens.
func Middleware() func(http.Handler) http.Handler {
	issuer := os.Getenv("OIDC_ISSUER")
	if issuer == "" {
		panic("OIDC_ISSUER env var not set")
	}

	provider, err := oidc.NewProvider(context.Background(), issuer)
	if err != nil {
		panic(fmt.Sprintf("Failed to create OIDC provider: %v", err))
	}

	verifier := provider.Verifier(&oidc.Config{
		SkipClientIDCheck: true,
	})

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "missing Authorization header", http.StatusUnauthorized)
				return
			}

			rawToken := strings.TrimPrefix(authHeader, "Bearer ")
			if rawToken == authHeader {
				http.Error(w, "Authorization header must be 'Bearer {token}'", http.StatusUnauthorized)
				return
			}

			if _, err := verifier.Verify(r.Context(), rawToken); err != nil {
				http.Error(w, "invalid token: "+err.Error(), http.StatusUnauthorized)
				return
			}

			claims, err := ExtractClaims(rawToken)
			if err != nil {
				http.Error(w, "invalid token claims: "+err.Error(), http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext returns the verified claims stored by Middleware.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	return claims, ok
}

// WithClaims returns a context carrying the given claims. Used by tests and
// internal callers that bypass the HTTP middleware.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}
