package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/docquery-labs/docquery-core/internal/core/domain"
	"github.com/docquery-labs/docquery-core/internal/core/ports/driven"
	"github.com/docquery-labs/docquery-core/internal/core/ports/driving"
)

// Retrieval defaults. Exposed via AnswerConfig because their tuning
// materially affects answer quality without any code change.
const (
	DefaultTopK               = 5
	DefaultMinScore           = 0.3
	DefaultContextTokenBudget = 4000
	DefaultSnippetLength      = 200
)

// Fixed user-facing messages for the two empty-retrieval outcomes.
// These are answers, not errors.
const (
	MsgNoProcessedDocuments = "This project has no processed documents yet. Upload documents and wait for processing to finish before asking questions."
	MsgNothingRelevant      = "I could not find anything relevant to your question in this project's documents."
)

// answerSystemPrompt constrains the model to the supplied context.
const answerSystemPrompt = `You are a document assistant. Answer the user's question using ONLY the provided context excerpts.
If the answer is not contained in the context, say explicitly that the documents do not contain the answer.
When you use an excerpt, cite its filename. Do not invent sources or facts.`

// Ensure answerService implements AnswerService
var _ driving.AnswerService = (*answerService)(nil)

// AnswerConfig tunes retrieval and context assembly.
type AnswerConfig struct {
	TopK               int
	MinScore           float64
	ContextTokenBudget int
	SnippetLength      int
}

// DefaultAnswerConfig returns the production defaults.
func DefaultAnswerConfig() AnswerConfig {
	return AnswerConfig{
		TopK:               DefaultTopK,
		MinScore:           DefaultMinScore,
		ContextTokenBudget: DefaultContextTokenBudget,
		SnippetLength:      DefaultSnippetLength,
	}
}

// answerService implements question answering over a project's
// documents: embed the question, search the vector index, assemble a
// token-bounded context and delegate to the chat collaborator.
type answerService struct {
	projectStore  driven.ProjectStore
	documentStore driven.DocumentStore
	segmentStore  driven.SegmentStore
	vectorIndex   driven.VectorIndex
	embedding     driven.EmbeddingService
	chat          driven.ChatService
	cfg           AnswerConfig
	logger        *slog.Logger
}

// AnswerServiceConfig holds dependencies for the answer service.
type AnswerServiceConfig struct {
	ProjectStore  driven.ProjectStore
	DocumentStore driven.DocumentStore
	SegmentStore  driven.SegmentStore
	VectorIndex   driven.VectorIndex
	Embedding     driven.EmbeddingService
	Chat          driven.ChatService
	Answer        AnswerConfig
	Logger        *slog.Logger
}

// NewAnswerService creates a new AnswerService.
func NewAnswerService(cfg AnswerServiceConfig) driving.AnswerService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Answer.TopK <= 0 {
		cfg.Answer.TopK = DefaultTopK
	}
	if cfg.Answer.MinScore <= 0 {
		cfg.Answer.MinScore = DefaultMinScore
	}
	if cfg.Answer.ContextTokenBudget <= 0 {
		cfg.Answer.ContextTokenBudget = DefaultContextTokenBudget
	}
	if cfg.Answer.SnippetLength <= 0 {
		cfg.Answer.SnippetLength = DefaultSnippetLength
	}

	return &answerService{
		projectStore:  cfg.ProjectStore,
		documentStore: cfg.DocumentStore,
		segmentStore:  cfg.SegmentStore,
		vectorIndex:   cfg.VectorIndex,
		embedding:     cfg.Embedding,
		chat:          cfg.Chat,
		cfg:           cfg.Answer,
		logger:        logger,
	}
}

// retrievalContext is the shared outcome of the retrieval phase.
// Either fixedAnswer is set (short-circuit) or contextText+references
// are ready for the chat collaborator.
type retrievalContext struct {
	fixedAnswer string
	contextText string
	references  []domain.Reference
}

// Answer returns a complete answer with deduplicated references.
func (s *answerService) Answer(ctx context.Context, projectID, question string) (*domain.Answer, error) {
	rc, err := s.retrieve(ctx, projectID, question)
	if err != nil {
		return nil, err
	}
	if rc.fixedAnswer != "" {
		return &domain.Answer{Text: rc.fixedAnswer, References: []domain.Reference{}}, nil
	}

	text, err := s.chat.Complete(ctx, answerSystemPrompt, buildUserPrompt(rc.contextText, question))
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}

	return &domain.Answer{Text: text, References: rc.references}, nil
}

// AnswerStream yields answer fragments as they arrive, then a single
// Done event with the references. On cancellation the channel closes
// without emitting references.
func (s *answerService) AnswerStream(ctx context.Context, projectID, question string) (<-chan domain.AnswerEvent, error) {
	rc, err := s.retrieve(ctx, projectID, question)
	if err != nil {
		return nil, err
	}

	out := make(chan domain.AnswerEvent)

	if rc.fixedAnswer != "" {
		go func() {
			defer close(out)
			select {
			case out <- domain.TokenEvent(rc.fixedAnswer):
			case <-ctx.Done():
				return
			}
			select {
			case out <- domain.DoneEvent([]domain.Reference{}):
			case <-ctx.Done():
			}
		}()
		return out, nil
	}

	chunks, err := s.chat.CompleteStream(ctx, answerSystemPrompt, buildUserPrompt(rc.contextText, question))
	if err != nil {
		return nil, fmt.Errorf("chat stream failed: %w", err)
	}

	go func() {
		defer close(out)
		for chunk := range chunks {
			if chunk.Err != nil {
				select {
				case out <- domain.ErrorEvent(chunk.Err):
				case <-ctx.Done():
				}
				return
			}
			select {
			case out <- domain.TokenEvent(chunk.Content):
			case <-ctx.Done():
				return
			}
		}
		// Never emit references once the caller has gone away.
		if ctx.Err() != nil {
			return
		}
		select {
		case out <- domain.DoneEvent(rc.references):
		case <-ctx.Done():
		}
	}()

	return out, nil
}

// retrieve runs the shared retrieval phase: validate the project, embed
// the question, search, load segments and assemble the bounded context.
func (s *answerService) retrieve(ctx context.Context, projectID, question string) (*retrievalContext, error) {
	if _, err := s.projectStore.Get(ctx, projectID); err != nil {
		return nil, fmt.Errorf("project %s: %w", projectID, err)
	}

	vectorized, err := s.documentStore.CountVectorized(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to count vectorized documents: %w", err)
	}
	if vectorized == 0 {
		return &retrievalContext{fixedAnswer: MsgNoProcessedDocuments}, nil
	}

	if s.embedding == nil || s.chat == nil {
		return nil, domain.ErrNoProviderConfigured
	}

	queryVector, err := s.embedding.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}

	results, err := s.vectorIndex.Search(ctx, queryVector, projectID, s.cfg.TopK, s.cfg.MinScore)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	if len(results) == 0 {
		return &retrievalContext{fixedAnswer: MsgNothingRelevant}, nil
	}

	rc, err := s.assembleContext(ctx, results)
	if err != nil {
		return nil, err
	}
	if rc.contextText == "" {
		// Budget smaller than a single segment - configuration edge case
		s.logger.Warn("retrieval hits did not fit the context budget",
			"project_id", projectID, "hits", len(results))
		return &retrievalContext{fixedAnswer: MsgNothingRelevant}, nil
	}

	return rc, nil
}

// assembleContext walks results in ranked order, appending whole
// segments until adding the next one would exceed the token budget.
// Segments are never truncated mid-text; assembly stops early instead.
func (s *answerService) assembleContext(ctx context.Context, results []domain.RetrievalResult) (*retrievalContext, error) {
	var b strings.Builder
	var included []domain.Reference
	byDocument := make(map[string]int) // document id -> index into included
	usedTokens := 0

	for _, result := range results {
		segment, err := s.segmentStore.GetByPosition(ctx, result.DocumentID, result.SegmentIndex)
		if errors.Is(err, domain.ErrNotFound) {
			// A hit without a relational row is an orphan from an
			// interrupted re-vectorization; skip it.
			s.logger.Warn("retrieval hit has no stored segment",
				"document_id", result.DocumentID, "segment_index", result.SegmentIndex)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load segment %d of document %s: %w",
				result.SegmentIndex, result.DocumentID, err)
		}

		cost := domain.EstimateTokens(segment.Text)
		if usedTokens+cost > s.cfg.ContextTokenBudget {
			break
		}
		usedTokens += cost

		fmt.Fprintf(&b, "[%s]\n%s\n\n", result.Filename, segment.Text)

		// Deduplicate references by document, keeping the highest score.
		// Results arrive in descending score order, so first wins.
		if _, seen := byDocument[result.DocumentID]; !seen {
			byDocument[result.DocumentID] = len(included)
			included = append(included, domain.Reference{
				DocumentID: result.DocumentID,
				Filename:   result.Filename,
				Snippet:    snippet(segment.Text, s.cfg.SnippetLength),
				Score:      result.Score,
			})
		}
	}

	return &retrievalContext{
		contextText: strings.TrimSpace(b.String()),
		references:  included,
	}, nil
}

func buildUserPrompt(contextText, question string) string {
	return fmt.Sprintf("Context excerpts:\n\n%s\n\nQuestion: %s", contextText, question)
}

// snippet truncates text to at most maxLen bytes without splitting a
// rune.
func snippet(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}
