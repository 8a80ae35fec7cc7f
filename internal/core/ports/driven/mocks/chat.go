package mocks

import (
	"context"
	"errors"
	"strings"

	"github.com/docquery-labs/docquery-core/internal/core/ports/driven"
)

// MockChatService is a mock implementation of ChatService for testing
type MockChatService struct {
	// Response is returned by Complete and, split into words, streamed
	// by CompleteStream.
	Response string

	failNext bool

	// LastSystemPrompt and LastUserPrompt capture the most recent call
	LastSystemPrompt string
	LastUserPrompt   string
	CompleteCalls    int
}

// NewMockChatService creates a new MockChatService
func NewMockChatService(response string) *MockChatService {
	return &MockChatService{Response: response}
}

func (m *MockChatService) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	m.CompleteCalls++
	m.LastSystemPrompt = systemPrompt
	m.LastUserPrompt = userPrompt
	if m.failNext {
		m.failNext = false
		return "", errors.New("mock chat failure")
	}
	return m.Response, nil
}

func (m *MockChatService) CompleteStream(ctx context.Context, systemPrompt, userPrompt string) (<-chan driven.StreamChunk, error) {
	m.CompleteCalls++
	m.LastSystemPrompt = systemPrompt
	m.LastUserPrompt = userPrompt
	if m.failNext {
		m.failNext = false
		return nil, errors.New("mock chat failure")
	}

	out := make(chan driven.StreamChunk)
	words := strings.Fields(m.Response)
	go func() {
		defer close(out)
		for i, w := range words {
			if i > 0 {
				w = " " + w
			}
			select {
			case out <- driven.StreamChunk{Content: w}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (m *MockChatService) Model() string {
	return "mock-chat-model"
}

func (m *MockChatService) Ping(ctx context.Context) error {
	return nil
}

func (m *MockChatService) Close() error {
	return nil
}

func (m *MockChatService) SetFailNext(fail bool) {
	m.failNext = fail
}
