package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/openai-api-blueprint/blueprint/internal/connections"
	"github.com/openai-api-blueprint/blueprint/internal/models"
	"github.com/openai-api-blueprint/blueprint/internal/services/chat"
	chatModels "github.com/openai-api-blueprint/blueprint/internal/services/chat/models"
	"github.com/openai-api-blueprint/blueprint/internal/stream"
	"github.com/openai-api-blueprint/blueprint/pkg/httpext"
	"github.com/rs/zerolog/hlog"
	"github.com/sashabaranov/go-openai"
)

const objectCompletion = "chat.completion"

// HandleChatCompletions serves POST /v1/chat/completions. Authentication has
// already happened in middleware; the body is validated, then the model is
// resolved before the provider is called.
func HandleChatCompletions(registry *models.Registry, provider chat.Provider, streams *connections.Manager, w http.ResponseWriter, r *http.Request) {
	l := hlog.FromRequest(r)

	req, err := decodeRequest(w, r)
	if err != nil {
		l.Warn().Err(err).Msg("Request validation failed")
		httpext.WriteError(w, r, err)
		return
	}

	// trace level log of the JSON request body pretty printed
	if l.Trace().Enabled() {
		prettyJSON, err := json.MarshalIndent(req, "", "    ")
		if err == nil {
			l.Trace().RawJSON("request_body", prettyJSON).Msg("Incoming completions request")
		}
	}

	if _, err := registry.Get(req.Model); err != nil {
		if errors.Is(err, models.ErrModelNotFound) {
			l.Warn().Str("model", req.Model).Msg("Model not found")
			httpext.JsonError(w, httpext.Validation("model_not_found", fmt.Sprintf("Model '%s' not found", req.Model), "model"))
			return
		}
		httpext.WriteError(w, r, err)
		return
	}

	l.Info().
		Str("model", req.Model).
		Int("message_count", len(req.Messages)).
		Bool("stream", req.Stream).
		Msg("Received chat completions request")

	id := completionID()
	created := time.Now().Unix()

	if req.Stream {
		streamCompletion(provider, streams, req, id, created, w, r)
		return
	}

	result, err := provider.Complete(r.Context(), req)
	if err != nil {
		l.Error().Err(err).Str("model", req.Model).Msg("Failed to process chat")
		httpext.WriteError(w, r, err)
		return
	}

	finish := result.FinishReason
	if finish == "" {
		finish = openai.FinishReasonStop
	}

	httpext.WriteJSON(w, http.StatusOK, chatModels.ChatCompletionResponse{
		ID:      id,
		Object:  objectCompletion,
		Created: created,
		Model:   req.Model,
		Choices: []chatModels.Choice{{
			Index: 0,
			Message: chatModels.ResponseMessage{
				Role:    openai.ChatMessageRoleAssistant,
				Content: result.Content,
			},
			FinishReason: finish,
		}},
		Usage: result.Usage,
	})

	l.Info().
		Str("completion_id", id).
		Int("total_tokens", result.Usage.TotalTokens).
		Msg("Chat completions request processed successfully")
}

func streamCompletion(provider chat.Provider, streams *connections.Manager, req *chatModels.ChatCompletionRequest, id string, created int64, w http.ResponseWriter, r *http.Request) {
	l := hlog.FromRequest(r)

	ctx, release := streams.Track(r.Context(), id)
	defer release()

	src, err := provider.Stream(ctx, req)
	if err != nil {
		l.Error().Err(err).Str("model", req.Model).Msg("Failed to open completion stream")
		httpext.WriteError(w, r, err)
		return
	}

	// headers are committed from here on, failures surface in-band
	if err := stream.NewFramer(w, id, req.Model, created).Run(ctx, src); err != nil {
		l.Warn().Err(err).Str("completion_id", id).Msg("Stream ended early")
		return
	}

	l.Info().Str("completion_id", id).Msg("Chat completions stream finished")
}

func completionID() string {
	return "chatcmpl-" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
