package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/openai-api-blueprint/blueprint/internal/models"
	"github.com/openai-api-blueprint/blueprint/pkg/httpext"
	"github.com/rs/zerolog/hlog"
)

// HandleListModels serves GET /v1/models
func HandleListModels(registry *models.Registry, w http.ResponseWriter, r *http.Request) {
	list := registry.List()
	hlog.FromRequest(r).Debug().Int("model_count", len(list.Data)).Msg("Listing models")
	httpext.WriteJSON(w, http.StatusOK, list)
}

// HandleGetModel serves GET /v1/models/{model_id}
func HandleGetModel(registry *models.Registry, w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["model_id"]

	model, err := registry.Get(id)
	if err != nil {
		if errors.Is(err, models.ErrModelNotFound) {
			hlog.FromRequest(r).Warn().Str("model_id", id).Msg("Model not found")
			httpext.JsonError(w, httpext.NotFound("model_not_found", fmt.Sprintf("Model '%s' not found", id), "model_id"))
			return
		}
		httpext.WriteError(w, r, err)
		return
	}

	httpext.WriteJSON(w, http.StatusOK, model)
}
