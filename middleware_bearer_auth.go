package main

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

type bearerAuthMiddleware struct {
	handler http.Handler
	token   []byte
}

func (b *bearerAuthMiddleware) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	header := req.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")

	if found && subtle.ConstantTimeCompare(b.token, []byte(token)) == 1 {
		b.handler.ServeHTTP(w, req)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="Restricted"`)
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error": "Unauthorized"}`)) // nolint: errcheck
}

func newBearerAuthMiddleware(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return &bearerAuthMiddleware{
			handler: next,
			token:   []byte(token),
		}
	}
}
