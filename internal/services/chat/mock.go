package chat

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/openai-api-blueprint/blueprint/internal/services/chat/models"
	"github.com/openai-api-blueprint/blueprint/pkg/logger"
	"github.com/sashabaranov/go-openai"
)

const MockResponse = "THIS IS THE MOCKED CHAT RESPONSE FROM OPENAI API BLUEPRINT. " +
	"If you see this message, your chat endpoint is working correctly!"

// MockProvider answers every request with a fixed text. Streams emit the text
// word by word with a pause between words to imitate generation.
type MockProvider struct {
	content string
	delay   time.Duration
}

func NewMockProvider(delay time.Duration) *MockProvider {
	return &MockProvider{
		content: MockResponse,
		delay:   delay,
	}
}

func (p *MockProvider) Complete(ctx context.Context, req *models.ChatCompletionRequest) (*models.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &models.Result{
		Content:      p.content,
		FinishReason: openai.FinishReasonStop,
		Usage:        CountUsage(req, p.content),
	}, nil
}

func (p *MockProvider) Stream(ctx context.Context, req *models.ChatCompletionRequest) (ChunkStream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l := logger.For(logger.CHAT)
	l.Debug().Str("model", req.Model).Dur("delay", p.delay).Msg("Starting mock stream")

	return &wordStream{
		ctx:       ctx,
		fragments: splitFragments(p.content),
		delay:     p.delay,
	}, nil
}

// splitFragments cuts text into words, each word after the first carrying
// its leading space, so the fragments concatenate back to the input
func splitFragments(text string) []string {
	words := strings.Fields(text)
	fragments := make([]string, len(words))
	for i, w := range words {
		if i == 0 {
			fragments[i] = w
			continue
		}
		fragments[i] = " " + w
	}
	return fragments
}

// wordStream is read from a single goroutine
type wordStream struct {
	ctx       context.Context
	fragments []string
	delay     time.Duration
	next      int
	finished  bool
	closed    bool
}

func (s *wordStream) Recv() (models.Chunk, error) {
	if s.closed {
		return models.Chunk{}, ErrStreamClosed
	}
	if s.finished {
		return models.Chunk{}, io.EOF
	}

	if s.next > 0 && s.delay > 0 {
		timer := time.NewTimer(s.delay)
		select {
		case <-timer.C:
		case <-s.ctx.Done():
			timer.Stop()
			return models.Chunk{}, s.ctx.Err()
		}
	} else if err := s.ctx.Err(); err != nil {
		return models.Chunk{}, err
	}

	if s.next >= len(s.fragments) {
		s.finished = true
		return models.Chunk{FinishReason: openai.FinishReasonStop}, nil
	}

	chunk := models.Chunk{Content: s.fragments[s.next]}
	if s.next == 0 {
		chunk.Role = openai.ChatMessageRoleAssistant
	}
	s.next++
	return chunk, nil
}

func (s *wordStream) Close() error {
	s.closed = true
	return nil
}
