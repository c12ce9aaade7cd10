package api

import (
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	v1handlers "github.com/openai-api-blueprint/blueprint/internal/api/v1/handlers"
	v1mware "github.com/openai-api-blueprint/blueprint/internal/api/v1/middleware"
	"github.com/openai-api-blueprint/blueprint/internal/services"
	"github.com/openai-api-blueprint/blueprint/pkg/httpext"
)

// NewRouter builds the full HTTP handler: routes, CORS, panic recovery and
// request logging through l.
func NewRouter(svc *services.Services, l zerolog.Logger) http.Handler {
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(handleNotFound)
	router.MethodNotAllowedHandler = http.HandlerFunc(handleMethodNotAllowed)

	// Public routes (no auth required)
	router.HandleFunc("/health", v1handlers.HandleHealth).Methods("GET")

	v1handlers.RegisterV1Routes(router, svc)

	return withMiddleware(router, svc.GetConfig().CORSOrigins, l)
}

// withMiddleware wraps h so that CORS headers are set on every response,
// including the 500 written for a recovered panic.
func withMiddleware(h http.Handler, origins []string, l zerolog.Logger) http.Handler {
	h = v1mware.Recover(h)
	h = newCORS(origins).Handler(h)
	h = hlog.AccessHandler(accessLog)(h)
	h = hlog.UserAgentHandler("user_agent")(h)
	h = hlog.RemoteAddrHandler("remote_ip")(h)
	h = hlog.RequestIDHandler("request_id", "X-Request-Id")(h)
	h = hlog.NewHandler(l)(h)
	return h
}

func newCORS(origins []string) *cors.Cors {
	opts := cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Request-Id", "Retry-After"},
		AllowCredentials: true,
	}

	// a wildcard with credentials echoes the caller's origin
	if len(origins) == 0 || slices.Contains(origins, "*") {
		opts.AllowedOrigins = nil
		opts.AllowOriginFunc = func(string) bool { return true }
	}

	return cors.New(opts)
}

func accessLog(r *http.Request, status, size int, duration time.Duration) {
	hlog.FromRequest(r).Info().
		Str("method", r.Method).
		Stringer("url", r.URL).
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Msg("Request handled")
}

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	httpext.JsonError(w, httpext.NotFound("not_found", "Not Found", ""))
}

func handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	httpext.JsonError(w, httpext.MethodNotAllowed(r.Method))
}
