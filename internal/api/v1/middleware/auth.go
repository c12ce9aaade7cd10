package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/openai-api-blueprint/blueprint/internal/auth"
	"github.com/openai-api-blueprint/blueprint/pkg/httpext"
	"github.com/rs/zerolog/hlog"
)

type contextKey string

const (
	tokenKey contextKey = "apiToken"
)

// RequireAPIKey rejects requests whose Authorization header does not pass
// the gate. It runs before the body is read.
func RequireAPIKey(gate *auth.Gate, trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l := hlog.FromRequest(r).With().
				Str("client_ip", ClientIP(r, trustProxy)).
				Str("path", r.URL.Path).
				Logger()

			token, err := gate.AuthenticateWithLogger(r.Header.Get("Authorization"), l)
			if err != nil {
				w.Header().Set("WWW-Authenticate", "Bearer")

				var rejection *auth.RejectionError
				if !errors.As(err, &rejection) {
					httpext.WriteError(w, r, err)
					return
				}
				httpext.JsonError(w, httpext.Authentication(rejection.Code, rejection.Message()))
				return
			}

			ctx := context.WithValue(r.Context(), tokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetToken returns the authenticated token stored by RequireAPIKey
func GetToken(r *http.Request) (auth.Token, bool) {
	token, ok := r.Context().Value(tokenKey).(auth.Token)
	return token, ok
}
