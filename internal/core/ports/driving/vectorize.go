package driving

import (
	"context"
)

// VectorizeService drives the document vectorization pipeline
type VectorizeService interface {
	// VectorizeDocument segments, embeds and indexes one document
	// end-to-end. Safe to re-run: a vectorized document is cleared and
	// fully re-processed.
	VectorizeDocument(ctx context.Context, documentID string) error

	// PurgeDocument removes a document's vectors from the index and its
	// segments from the relational store. Used on document deletion.
	PurgeDocument(ctx context.Context, documentID string) error

	// PurgeProject removes all of a project's vectors from the index.
	// Used on project deletion.
	PurgeProject(ctx context.Context, projectID string) error
}
