package driving

import (
	"context"

	"github.com/docquery-labs/docquery-core/internal/core/domain"
)

// AnswerService answers natural-language questions about a project's
// documents using retrieval-augmented generation.
type AnswerService interface {
	// Answer returns a complete answer with deduplicated references
	Answer(ctx context.Context, projectID, question string) (*domain.Answer, error)

	// AnswerStream yields answer fragments as they are generated,
	// terminated by a single Done event carrying the references.
	// No references are emitted if ctx is cancelled mid-stream.
	AnswerStream(ctx context.Context, projectID, question string) (<-chan domain.AnswerEvent, error)
}
