package chat

import (
	"context"
	"errors"
	"fmt"

	infra "github.com/openai-api-blueprint/blueprint/internal/infrastructure/openai"
	"github.com/openai-api-blueprint/blueprint/internal/services/chat/models"
	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"
)

var ErrNoChoices = errors.New("upstream returned no choices")

// OpenAIProvider forwards completions to an OpenAI-compatible upstream
type OpenAIProvider struct {
	client        *openai.Client
	upstreamModel string
}

func NewOpenAIProvider(svc *infra.Service, upstreamModel string) (*OpenAIProvider, error) {
	if svc == nil {
		return nil, fmt.Errorf("OpenAI service is required")
	}

	return &OpenAIProvider{
		client:        svc.GetClient(),
		upstreamModel: upstreamModel,
	}, nil
}

func (p *OpenAIProvider) Complete(ctx context.Context, req *models.ChatCompletionRequest) (*models.Result, error) {
	upstreamReq := p.toUpstream(req)
	upstreamReq.Stream = false

	resp, err := p.client.CreateChatCompletion(ctx, upstreamReq)
	if err != nil {
		return nil, fmt.Errorf("failed to get chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, ErrNoChoices
	}

	choice := resp.Choices[0]
	finish := choice.FinishReason
	if finish == "" {
		finish = openai.FinishReasonStop
	}

	return &models.Result{
		Content:      choice.Message.Content,
		FinishReason: finish,
		Usage:        models.NewUsage(resp.Usage.PromptTokens, resp.Usage.CompletionTokens),
	}, nil
}

func (p *OpenAIProvider) Stream(ctx context.Context, req *models.ChatCompletionRequest) (ChunkStream, error) {
	upstreamReq := p.toUpstream(req)
	upstreamReq.Stream = true

	stream, err := p.client.CreateChatCompletionStream(ctx, upstreamReq)
	if err != nil {
		return nil, fmt.Errorf("failed to open chat completion stream: %w", err)
	}

	log.Debug().Str("model", upstreamReq.Model).Msg("Upstream stream opened")
	return &upstreamStream{stream: stream}, nil
}

func (p *OpenAIProvider) toUpstream(req *models.ChatCompletionRequest) openai.ChatCompletionRequest {
	model := req.Model
	if p.upstreamModel != "" {
		model = p.upstreamModel
	}

	messages := make([]openai.ChatCompletionMessage, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = openai.ChatCompletionMessage{
			Role:         m.Role,
			Content:      m.Text(),
			Name:         m.Name,
			FunctionCall: m.FunctionCall,
			ToolCalls:    m.ToolCalls,
			ToolCallID:   m.ToolCallID,
		}
	}

	upstreamReq := openai.ChatCompletionRequest{
		Model:        model,
		Messages:     messages,
		Stop:         req.Stop,
		User:         req.User,
		Tools:        req.Tools,
		ToolChoice:   req.ToolChoice,
		FunctionCall: req.FunctionCall,
		Functions:    req.Functions,
	}

	if req.Temperature != nil {
		upstreamReq.Temperature = *req.Temperature
	}
	if req.TopP != nil {
		upstreamReq.TopP = *req.TopP
	}
	if req.N != nil {
		upstreamReq.N = *req.N
	}
	if req.MaxTokens != nil {
		upstreamReq.MaxTokens = *req.MaxTokens
	}
	if req.PresencePenalty != nil {
		upstreamReq.PresencePenalty = *req.PresencePenalty
	}
	if req.FrequencyPenalty != nil {
		upstreamReq.FrequencyPenalty = *req.FrequencyPenalty
	}

	// response_format.json_schema.schema is a json.RawMessage here while the
	// client expects a json.Marshaler
	if req.ResponseFormat != nil {
		upstreamReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: req.ResponseFormat.Type,
		}
		if req.ResponseFormat.JSONSchema != nil {
			upstreamReq.ResponseFormat.JSONSchema = &openai.ChatCompletionResponseFormatJSONSchema{
				Name:        req.ResponseFormat.JSONSchema.Name,
				Description: req.ResponseFormat.JSONSchema.Description,
				Schema:      req.ResponseFormat.JSONSchema.Schema,
				Strict:      req.ResponseFormat.JSONSchema.Strict,
			}
		}
	}

	return upstreamReq
}

type upstreamStream struct {
	stream *openai.ChatCompletionStream
	closed bool
}

func (s *upstreamStream) Recv() (models.Chunk, error) {
	if s.closed {
		return models.Chunk{}, ErrStreamClosed
	}

	for {
		resp, err := s.stream.Recv()
		if err != nil {
			// io.EOF passes through unwrapped
			return models.Chunk{}, err
		}

		// usage-only frames carry no choices
		if len(resp.Choices) == 0 {
			continue
		}

		choice := resp.Choices[0]
		return models.Chunk{
			Role:         choice.Delta.Role,
			Content:      choice.Delta.Content,
			FinishReason: choice.FinishReason,
		}, nil
	}
}

func (s *upstreamStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.stream.Close()
	return nil
}
