package driven

import "github.com/docquery-labs/docquery-core/internal/core/domain"

// AIServiceFactory creates AI services from provider settings.
// Both constructors return (nil, nil) when the settings carry no
// configured provider.
type AIServiceFactory interface {
	// CreateEmbeddingService creates an embedding service
	CreateEmbeddingService(settings *domain.EmbeddingSettings) (EmbeddingService, error)

	// CreateChatService creates an answer-generation service
	CreateChatService(settings *domain.ChatSettings) (ChatService, error)
}
