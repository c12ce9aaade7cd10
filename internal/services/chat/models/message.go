package models

import (
	"github.com/sashabaranov/go-openai"
)

// Roles accepted in a request
const (
	RoleSystem    = openai.ChatMessageRoleSystem
	RoleUser      = openai.ChatMessageRoleUser
	RoleAssistant = openai.ChatMessageRoleAssistant
	RoleTool      = openai.ChatMessageRoleTool
	RoleFunction  = openai.ChatMessageRoleFunction
)

// ChatMessage represents a single message in a chat conversation
type ChatMessage struct {
	Role         string               `json:"role" validate:"required,oneof=system user assistant tool function"`
	Content      *string              `json:"content"`
	Name         string               `json:"name,omitempty"`
	FunctionCall *openai.FunctionCall `json:"function_call,omitempty"`
	ToolCalls    []openai.ToolCall    `json:"tool_calls,omitempty"`
	ToolCallID   string               `json:"tool_call_id,omitempty"`
}

// Text returns the content, or an empty string for content-less messages
func (m ChatMessage) Text() string {
	if m.Content == nil {
		return ""
	}
	return *m.Content
}
