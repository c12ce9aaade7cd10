package chat

import (
	"context"
	"errors"

	"github.com/openai-api-blueprint/blueprint/internal/services/chat/models"
)

// ErrStreamClosed is returned by Recv after Close
var ErrStreamClosed = errors.New("chunk stream closed")

// Provider produces completions. Implementations must honour ctx
// cancellation in both methods, including while a stream is being read.
type Provider interface {
	// Complete returns the whole completion at once
	Complete(ctx context.Context, req *models.ChatCompletionRequest) (*models.Result, error)

	// Stream returns a lazy sequence of chunks for the same completion
	Stream(ctx context.Context, req *models.ChatCompletionRequest) (ChunkStream, error)
}

// ChunkStream is pulled one chunk at a time. Recv returns io.EOF once the
// producer is exhausted. Close releases the producer and may be called at
// any point, more than once.
type ChunkStream interface {
	Recv() (models.Chunk, error)
	Close() error
}
