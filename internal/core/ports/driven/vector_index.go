package driven

import (
	"context"

	"github.com/docquery-labs/docquery-core/internal/core/domain"
)

// VectorMetadata is attached to every vector index entry and drives
// filtered search and bulk deletion.
type VectorMetadata struct {
	DocumentID   string `json:"document_id"`
	ProjectID    string `json:"project_id"`
	SegmentIndex int    `json:"segment_index"`
	Filename     string `json:"filename"`
}

// VectorEntry is one (id, vector, metadata) tuple. IDs are generated
// fresh on every write and never reused for a different text.
type VectorEntry struct {
	ID       string
	Vector   []float32
	Metadata VectorMetadata
}

// VectorIndex stores embeddings with metadata and serves cosine
// similarity search. The handle is long-lived and must be safe for
// concurrent use by multiple in-flight calls.
type VectorIndex interface {
	// Upsert writes one entry; a later call with the same id replaces
	// the vector and metadata.
	Upsert(ctx context.Context, entry VectorEntry) error

	// UpsertBatch writes multiple entries, idempotent by id
	UpsertBatch(ctx context.Context, entries []VectorEntry) error

	// DeleteByDocument removes all entries whose metadata DocumentID
	// matches. Deleting nothing is success.
	DeleteByDocument(ctx context.Context, documentID string) error

	// DeleteByProject removes all entries whose metadata ProjectID matches
	DeleteByProject(ctx context.Context, projectID string) error

	// Search returns up to topK results scoped to one project, in
	// descending cosine similarity order, excluding scores below minScore.
	Search(ctx context.Context, vector []float32, projectID string, topK int, minScore float64) ([]domain.RetrievalResult, error)

	// HealthCheck verifies the vector index is available
	HealthCheck(ctx context.Context) error
}
