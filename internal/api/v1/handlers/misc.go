package handlers

import (
	"net/http"

	"github.com/openai-api-blueprint/blueprint/pkg/httpext"
)

const welcomeMessage = "Welcome to OpenAI API Blueprint - Version 1"

type HealthResponse struct {
	Status string `json:"status"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// HandleHealth serves GET /health. It needs no authentication.
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	httpext.WriteJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// HandleWelcome serves GET /v1/
func HandleWelcome(w http.ResponseWriter, r *http.Request) {
	httpext.WriteJSON(w, http.StatusOK, MessageResponse{Message: welcomeMessage})
}
