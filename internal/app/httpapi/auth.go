package httpapi

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const identityKey contextKey = "identity"

// WithAuth gates the handler behind bearer-token authentication. tokens maps
// each accepted token to the account identity it authenticates. An empty map
// disables authentication; requests then carry no identity and only the
// public read endpoints work.
func WithAuth(next http.Handler, tokens map[string]string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		token := strings.TrimPrefix(header, "Bearer ")
		identity, ok := tokens[token]
		if !ok {
			writeError(w, http.StatusUnauthorized, errInvalidToken)
			return
		}
		ctx := context.WithValue(r.Context(), identityKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Identity returns the authenticated account of the request, or "".
func Identity(r *http.Request) string {
	identity, _ := r.Context().Value(identityKey).(string)
	return identity
}
