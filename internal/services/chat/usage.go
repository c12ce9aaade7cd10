package chat

import (
	"unicode/utf8"

	"github.com/openai-api-blueprint/blueprint/internal/services/chat/models"
)

// CountUsage estimates usage by counting characters. Any prompt that grows in
// length strictly grows prompt_tokens, and the total is always the sum.
func CountUsage(req *models.ChatCompletionRequest, completion string) models.Usage {
	return models.NewUsage(
		utf8.RuneCountInString(req.PromptText()),
		utf8.RuneCountInString(completion),
	)
}
