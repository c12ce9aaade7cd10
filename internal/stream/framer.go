package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/openai-api-blueprint/blueprint/internal/services/chat"
	"github.com/openai-api-blueprint/blueprint/pkg/logger"
	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
)

const (
	ObjectChunk = "chat.completion.chunk"
	doneFrame   = "data: [DONE]\n\n"
)

// ErrInvalidTransition is returned when a frame is written out of order
var ErrInvalidTransition = errors.New("invalid stream state transition")

type State int

const (
	NotStarted State = iota
	HeaderSent
	Streaming
	Terminal
	DoneSent
	Closed
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case HeaderSent:
		return "header_sent"
	case Streaming:
		return "streaming"
	case Terminal:
		return "terminal"
	case DoneSent:
		return "done_sent"
	case Closed:
		return "closed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Delta is the incremental message carried by a chunk
type Delta struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
}

type ChunkChoice struct {
	Index        int                 `json:"index"`
	Delta        Delta               `json:"delta"`
	FinishReason openai.FinishReason `json:"finish_reason"`
}

// Chunk is the chat.completion.chunk envelope. An empty FinishReason
// marshals as null.
type Chunk struct {
	ID      string        `json:"id"`
	Object  string        `json:"object"`
	Created int64         `json:"created"`
	Model   string        `json:"model"`
	Choices []ChunkChoice `json:"choices"`
}

// Framer turns a ChunkStream into server-sent events. One Framer serves one
// response and is not safe for concurrent use.
type Framer struct {
	w       http.ResponseWriter
	rc      *http.ResponseController
	id      string
	created int64
	model   string

	state    State
	roleSent bool
	events   int
	log      zerolog.Logger
}

func NewFramer(w http.ResponseWriter, id, model string, created int64) *Framer {
	return &Framer{
		w:       w,
		rc:      http.NewResponseController(w),
		id:      id,
		created: created,
		model:   model,
		state:   NotStarted,
		log:     logger.For(logger.STREAM).With().Str("completion_id", id).Logger(),
	}
}

func (f *Framer) State() State {
	return f.state
}

// Run pulls every chunk from src and writes it as an event, followed by one
// terminal event and [DONE]. src is always closed on return.
//
// When the provider fails mid-stream the terminal event carries a null finish
// reason and [DONE] is still sent. When ctx is cancelled nothing further is
// written and ctx.Err() is returned.
func (f *Framer) Run(ctx context.Context, src chat.ChunkStream) error {
	defer func() {
		if err := src.Close(); err != nil {
			f.log.Debug().Err(err).Msg("Failed to close chunk stream")
		}
		f.state = Closed
	}()

	if err := f.WriteHeader(); err != nil {
		return err
	}

	var finish openai.FinishReason
	for finish == "" {
		if err := ctx.Err(); err != nil {
			f.log.Info().Int("events", f.events).Msg("Client disconnected, stream abandoned")
			return err
		}

		chunk, err := src.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				f.log.Info().Int("events", f.events).Msg("Client disconnected, stream abandoned")
				return ctxErr
			}

			f.log.Error().Err(err).Int("events", f.events).Msg("Provider failed mid-stream")
			if werr := f.finish(""); werr != nil {
				return werr
			}
			return fmt.Errorf("provider stream: %w", err)
		}

		if chunk.Content != "" {
			if err := f.WriteContent(chunk.Content); err != nil {
				return err
			}
		}
		finish = chunk.FinishReason
	}

	if finish == "" {
		finish = openai.FinishReasonStop
	}
	return f.finish(finish)
}

// WriteHeader sets the event-stream headers and commits the response
func (f *Framer) WriteHeader() error {
	if f.state != NotStarted {
		return fmt.Errorf("%w: header from %s", ErrInvalidTransition, f.state)
	}

	h := f.w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	f.w.WriteHeader(http.StatusOK)

	f.state = HeaderSent
	return f.flush()
}

// WriteContent emits a content delta. The first delta of the stream also
// carries the assistant role.
func (f *Framer) WriteContent(content string) error {
	if f.state != HeaderSent && f.state != Streaming {
		return fmt.Errorf("%w: content from %s", ErrInvalidTransition, f.state)
	}

	delta := Delta{Content: content}
	if !f.roleSent {
		delta.Role = openai.ChatMessageRoleAssistant
		f.roleSent = true
	}

	if err := f.writeChunk(delta, ""); err != nil {
		return err
	}
	f.state = Streaming
	return nil
}

// WriteTerminal emits the single event with an empty delta and the finish
// reason. An empty reason is written as null.
func (f *Framer) WriteTerminal(reason openai.FinishReason) error {
	if f.state != HeaderSent && f.state != Streaming {
		return fmt.Errorf("%w: terminal from %s", ErrInvalidTransition, f.state)
	}

	// a stream without content still opens with the role
	if !f.roleSent {
		f.roleSent = true
		if err := f.writeChunk(Delta{Role: openai.ChatMessageRoleAssistant}, ""); err != nil {
			return err
		}
	}

	if err := f.writeChunk(Delta{}, reason); err != nil {
		return err
	}
	f.state = Terminal
	return nil
}

func (f *Framer) WriteDone() error {
	if f.state != Terminal {
		return fmt.Errorf("%w: done from %s", ErrInvalidTransition, f.state)
	}

	if _, err := io.WriteString(f.w, doneFrame); err != nil {
		return fmt.Errorf("write done frame: %w", err)
	}
	f.state = DoneSent
	return f.flush()
}

func (f *Framer) finish(reason openai.FinishReason) error {
	if err := f.WriteTerminal(reason); err != nil {
		return err
	}
	if err := f.WriteDone(); err != nil {
		return err
	}

	f.log.Debug().
		Int("events", f.events).
		Str("finish_reason", string(reason)).
		Msg("Stream completed")
	return nil
}

func (f *Framer) writeChunk(delta Delta, reason openai.FinishReason) error {
	payload, err := json.Marshal(Chunk{
		ID:      f.id,
		Object:  ObjectChunk,
		Created: f.created,
		Model:   f.model,
		Choices: []ChunkChoice{{Index: 0, Delta: delta, FinishReason: reason}},
	})
	if err != nil {
		return fmt.Errorf("encode chunk: %w", err)
	}

	frame := make([]byte, 0, len(payload)+8)
	frame = append(frame, "data: "...)
	frame = append(frame, payload...)
	frame = append(frame, '\n', '\n')

	if _, err := f.w.Write(frame); err != nil {
		return fmt.Errorf("write chunk: %w", err)
	}
	f.events++
	return f.flush()
}

func (f *Framer) flush() error {
	if err := f.rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}
