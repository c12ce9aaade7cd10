package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/openai-api-blueprint/blueprint/pkg/httpext"
	"github.com/rs/zerolog/hlog"
)

// Recover turns a panic in a downstream handler into the generic 500 envelope
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			// net/http uses this panic to abort a response on purpose
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			hlog.FromRequest(r).Error().
				Interface("panic", rec).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Bytes("stack", debug.Stack()).
				Msg("Recovered from panic")
			httpext.JsonError(w, httpext.Server())
		}()

		next.ServeHTTP(w, r)
	})
}
