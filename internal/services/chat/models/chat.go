package models

import (
	"bytes"
	"encoding/json"

	"github.com/sashabaranov/go-openai"
)

type ChatCompletionResponseFormat struct {
	Type       openai.ChatCompletionResponseFormatType `json:"type,omitempty"`
	JSONSchema *ChatCompletionResponseFormatJSONSchema `json:"json_schema,omitempty"`
}

type ChatCompletionResponseFormatJSONSchema struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Schema      json.RawMessage `json:"schema"`
	Strict      bool            `json:"strict"`
}

// StopSequences accepts either a single string or a list of strings
type StopSequences []string

func (s *StopSequences) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = nil
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var single string
		if err := json.Unmarshal(data, &single); err != nil {
			return err
		}
		*s = StopSequences{single}
		return nil
	}

	// returned unwrapped so the decoder can attach the field name
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*s = list
	return nil
}

// ChatCompletionRequest represents a request structure for chat completion API.
// Generation parameters are passed through to the provider untouched.
type ChatCompletionRequest struct {
	Model    string        `json:"model" validate:"required"`
	Messages []ChatMessage `json:"messages" validate:"required,min=1,dive"`
	Stream   bool          `json:"stream,omitempty"`

	Temperature      *float32      `json:"temperature,omitempty" validate:"omitempty,gte=0,lte=2"`
	TopP             *float32      `json:"top_p,omitempty" validate:"omitempty,gte=0,lte=1"`
	N                *int          `json:"n,omitempty" validate:"omitempty,gte=1"`
	MaxTokens        *int          `json:"max_tokens,omitempty" validate:"omitempty,gte=1"`
	PresencePenalty  *float32      `json:"presence_penalty,omitempty" validate:"omitempty,gte=-2,lte=2"`
	FrequencyPenalty *float32      `json:"frequency_penalty,omitempty" validate:"omitempty,gte=-2,lte=2"`
	Stop             StopSequences `json:"stop,omitempty"`
	User             string        `json:"user,omitempty"`
	Tools            []openai.Tool `json:"tools,omitempty"`
	// This can be either a string or an ToolChoice object.
	ToolChoice any `json:"tool_choice,omitempty"`
	// Deprecated: use ToolChoice instead.
	FunctionCall any `json:"function_call,omitempty"`
	// Deprecated: use Tools instead.
	Functions      []openai.FunctionDefinition   `json:"functions,omitempty"`
	ResponseFormat *ChatCompletionResponseFormat `json:"response_format,omitempty"`
}

// PromptText concatenates the text content of every message in order
func (r *ChatCompletionRequest) PromptText() string {
	var b bytes.Buffer
	for _, m := range r.Messages {
		b.WriteString(m.Text())
	}
	return b.String()
}

// Chunk is one incremental piece of a streamed completion
type Chunk struct {
	Role         string
	Content      string
	FinishReason openai.FinishReason
}

// Result is the complete, non-incremental form of a completion
type Result struct {
	Content      string
	FinishReason openai.FinishReason
	Usage        Usage
}

// Usage represents token usage information
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// NewUsage clamps negative counts to zero and derives the total
func NewUsage(prompt, completion int) Usage {
	if prompt < 0 {
		prompt = 0
	}
	if completion < 0 {
		completion = 0
	}
	return Usage{
		PromptTokens:     prompt,
		CompletionTokens: completion,
		TotalTokens:      prompt + completion,
	}
}

// ChatCompletionResponse is the non-streaming wire response
type ChatCompletionResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

// Choice represents a single chat completion choice
type Choice struct {
	Index        int                 `json:"index"`
	Message      ResponseMessage     `json:"message"`
	FinishReason openai.FinishReason `json:"finish_reason"`
}

type ResponseMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
