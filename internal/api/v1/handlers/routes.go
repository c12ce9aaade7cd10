package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	v1chat "github.com/openai-api-blueprint/blueprint/internal/api/v1/handlers/chat"
	v1mware "github.com/openai-api-blueprint/blueprint/internal/api/v1/middleware"
	"github.com/openai-api-blueprint/blueprint/internal/services"
)

func RegisterV1Routes(router *mux.Router, services *services.Services) {
	cfg := services.GetConfig()
	registry := services.GetModelRegistry()

	// v1 routes, rate limited per client before credentials are checked
	v1 := router.PathPrefix("/v1").Subrouter()
	inheritErrorHandlers(router, v1)
	v1.Use(v1mware.RateLimit("v1", services.GetRateLimiter(), cfg.RateLimit))

	// Protected v1 routes (require an API key)
	v1protectedRouter := v1.NewRoute().Subrouter()
	inheritErrorHandlers(router, v1protectedRouter)
	v1protectedRouter.Use(v1mware.RequireAPIKey(services.GetAuthGate(), cfg.RateLimit.TrustProxyHeaders))

	v1protectedRouter.HandleFunc("/", HandleWelcome).Methods("GET")

	v1protectedRouter.HandleFunc("/models", func(w http.ResponseWriter, r *http.Request) {
		HandleListModels(registry, w, r)
	}).Methods("GET")
	v1protectedRouter.HandleFunc("/models/{model_id}", func(w http.ResponseWriter, r *http.Request) {
		HandleGetModel(registry, w, r)
	}).Methods("GET")

	// Protected v1 chat routes
	v1chatRouter := v1protectedRouter.PathPrefix("/chat").Subrouter()
	inheritErrorHandlers(router, v1chatRouter)
	v1chatRouter.HandleFunc("/completions", func(w http.ResponseWriter, r *http.Request) {
		v1chat.HandleChatCompletions(registry, services.GetCompletionProvider(), services.GetStreamManager(), w, r)
	}).Methods("POST")
}

// inheritErrorHandlers copies the 404 and 405 handlers onto a subrouter, mux
// does not propagate them
func inheritErrorHandlers(parent, sub *mux.Router) {
	sub.NotFoundHandler = parent.NotFoundHandler
	sub.MethodNotAllowedHandler = parent.MethodNotAllowedHandler
}
