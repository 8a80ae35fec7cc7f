package driven

import (
	"context"
)

// StreamChunk is one fragment of a streaming chat completion.
// Err is non-nil only on the final chunk of a failed stream.
type StreamChunk struct {
	Content string
	Err     error
}

// ChatService is the chat-completion collaborator used for answering.
type ChatService interface {
	// Complete sends a system instruction and user prompt and returns
	// the full generated answer.
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	// CompleteStream is the streaming variant. The returned channel
	// yields fragments as they arrive and is closed after the last one.
	// Cancelling ctx stops consumption and closes the channel without
	// further fragments.
	CompleteStream(ctx context.Context, systemPrompt, userPrompt string) (<-chan StreamChunk, error)

	// Model returns the model name being used
	Model() string

	// Ping verifies the chat service is available
	Ping(ctx context.Context) error

	// Close releases resources held by the chat service
	Close() error
}
