package driven

import (
	"context"

	"github.com/docquery-labs/docquery-core/internal/core/domain"
)

// ProjectStore handles project persistence (PostgreSQL)
type ProjectStore interface {
	// Save creates or updates a project
	Save(ctx context.Context, project *domain.Project) error

	// Get retrieves a project by ID
	Get(ctx context.Context, id string) (*domain.Project, error)

	// List retrieves all projects
	List(ctx context.Context) ([]*domain.Project, error)

	// Delete deletes a project
	Delete(ctx context.Context, id string) error
}

// DocumentStore handles document persistence (PostgreSQL)
type DocumentStore interface {
	// Save creates or updates a document
	Save(ctx context.Context, doc *domain.Document) error

	// Get retrieves a document by ID, without segments
	Get(ctx context.Context, id string) (*domain.Document, error)

	// GetWithSegments retrieves a document with its segments ordered by index
	GetWithSegments(ctx context.Context, id string) (*domain.Document, error)

	// ListByProject retrieves all documents for a project with pagination
	ListByProject(ctx context.Context, projectID string, limit, offset int) ([]*domain.Document, error)

	// CountVectorized returns how many documents in a project are vectorized
	CountVectorized(ctx context.Context, projectID string) (int, error)

	// SaveVectorized atomically persists the document's vectorized state
	// and replaces its segment rows in a single transaction. This is the
	// relational commit of the vectorization pipeline and must only run
	// after the vector index write succeeded.
	SaveVectorized(ctx context.Context, doc *domain.Document, segments []*domain.Segment) error

	// Delete deletes a document and, via cascade, its segments
	Delete(ctx context.Context, id string) error

	// DeleteByProject deletes all documents for a project
	DeleteByProject(ctx context.Context, projectID string) error
}

// SegmentStore handles segment persistence (PostgreSQL)
type SegmentStore interface {
	// SaveBatch saves multiple segments in a transaction
	SaveBatch(ctx context.Context, segments []*domain.Segment) error

	// GetByDocument retrieves all segments for a document ordered by index
	GetByDocument(ctx context.Context, documentID string) ([]*domain.Segment, error)

	// GetByPosition retrieves the segment at (documentID, index)
	GetByPosition(ctx context.Context, documentID string, index int) (*domain.Segment, error)

	// DeleteByDocument deletes all segments for a document
	DeleteByDocument(ctx context.Context, documentID string) error
}
