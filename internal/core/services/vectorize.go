package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/docquery-labs/docquery-core/internal/core/domain"
	"github.com/docquery-labs/docquery-core/internal/core/ports/driven"
	"github.com/docquery-labs/docquery-core/internal/core/ports/driving"
)

// Ensure VectorizeOrchestrator implements VectorizeService
var _ driving.VectorizeService = (*VectorizeOrchestrator)(nil)

// VectorizeOrchestrator coordinates the vectorization pipeline for one
// document: segment, embed, write the vector index, then commit the
// relational record. The ordering is deliberate: the relational store is
// the system of record for "is this document vectorized", so it must
// never claim success unless the vectors it points to exist. A vector
// write that fails to be recorded relationally is merely orphaned data,
// cleaned up by the next run's clear-before-write.
type VectorizeOrchestrator struct {
	documentStore driven.DocumentStore
	segmentStore  driven.SegmentStore
	vectorIndex   driven.VectorIndex
	embedding     driven.EmbeddingService
	segmenter     *Segmenter
	logger        *slog.Logger
}

// VectorizeOrchestratorConfig holds dependencies for VectorizeOrchestrator.
type VectorizeOrchestratorConfig struct {
	DocumentStore driven.DocumentStore
	SegmentStore  driven.SegmentStore
	VectorIndex   driven.VectorIndex
	Embedding     driven.EmbeddingService
	Segmenter     *Segmenter
	Logger        *slog.Logger
}

// NewVectorizeOrchestrator creates a new vectorize orchestrator.
func NewVectorizeOrchestrator(cfg VectorizeOrchestratorConfig) *VectorizeOrchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	segmenter := cfg.Segmenter
	if segmenter == nil {
		segmenter = NewSegmenter(DefaultSegmenterConfig())
	}

	return &VectorizeOrchestrator{
		documentStore: cfg.DocumentStore,
		segmentStore:  cfg.SegmentStore,
		vectorIndex:   cfg.VectorIndex,
		embedding:     cfg.Embedding,
		segmenter:     segmenter,
		logger:        logger,
	}
}

// VectorizeDocument runs the full pipeline for one document. The whole
// operation is idempotent as a unit: a failed run leaves no partial
// relational state, so the scheduler can simply re-run it.
func (o *VectorizeOrchestrator) VectorizeDocument(ctx context.Context, documentID string) error {
	startTime := time.Now()
	o.logger.Info("starting vectorization", "document_id", documentID)

	doc, err := o.documentStore.GetWithSegments(ctx, documentID)
	if err != nil {
		return fmt.Errorf("failed to load document %s: %w", documentID, err)
	}

	if strings.TrimSpace(doc.Text) == "" {
		return fmt.Errorf("document %s: %w", documentID, domain.ErrNothingToVectorize)
	}

	// Re-check the status even though the trigger implies it; the
	// document may have been re-uploaded since the task was enqueued.
	if doc.Status != domain.DocumentStatusTextExtracted {
		return fmt.Errorf("document %s in status %q: %w", documentID, doc.Status, domain.ErrDocumentNotReady)
	}

	if o.embedding == nil {
		return domain.ErrNoProviderConfigured
	}

	// Unconditionally clear any previous generation before writing. This
	// also sweeps orphans left by a run that wrote vectors but died before
	// the relational commit. A transient window with zero live vectors is
	// preferred over ever holding two generations at once.
	if err := o.vectorIndex.DeleteByDocument(ctx, doc.ID); err != nil {
		return fmt.Errorf("failed to clear vector index for document %s: %w", doc.ID, err)
	}
	if doc.Vectorized {
		doc.Segments = nil
		doc.Vectorized = false
		doc.VectorizedAt = nil
		o.logger.Info("cleared previous vectors", "document_id", doc.ID)
	}

	segments := o.segmenter.Segment(doc.ID, doc.Text)
	if len(segments) == 0 {
		return fmt.Errorf("document %s: segmenter produced no segments for non-empty text", doc.ID)
	}

	texts := make([]string, len(segments))
	for i, seg := range segments {
		texts[i] = seg.Text
	}

	// One batched call for all segments; any embedding failure aborts
	// the run - partial vectorization is never committed.
	vectors, err := o.embedding.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed %d segments of document %s: %w", len(segments), doc.ID, err)
	}
	if len(vectors) != len(segments) {
		return fmt.Errorf("document %s: got %d vectors for %d segments: %w",
			doc.ID, len(vectors), len(segments), domain.ErrEmbeddingCountMismatch)
	}

	now := time.Now()
	entries := make([]driven.VectorEntry, len(segments))
	for i, seg := range segments {
		// Fresh id on every write; never reused for a different text
		seg.ID = domain.GenerateID()
		seg.VectorID = uuid.NewString()
		seg.CreatedAt = now

		entries[i] = driven.VectorEntry{
			ID:     seg.VectorID,
			Vector: vectors[i],
			Metadata: driven.VectorMetadata{
				DocumentID:   doc.ID,
				ProjectID:    doc.ProjectID,
				SegmentIndex: seg.Index,
				Filename:     doc.Filename,
			},
		}
	}

	doc.Vectorized = true
	doc.VectorizedAt = &now
	doc.UpdatedAt = now

	// Vector index first. If this fails nothing has been persisted and
	// the document row is untouched.
	if err := o.vectorIndex.UpsertBatch(ctx, entries); err != nil {
		return fmt.Errorf("failed to write %d vectors for document %s: %w", len(entries), doc.ID, err)
	}

	// Relational commit second: document flags and segment rows in a
	// single transaction.
	if err := o.documentStore.SaveVectorized(ctx, doc, segments); err != nil {
		return fmt.Errorf("failed to persist vectorized document %s: %w", doc.ID, err)
	}

	o.logger.Info("vectorization completed",
		"document_id", doc.ID,
		"project_id", doc.ProjectID,
		"segments", len(segments),
		"duration_seconds", time.Since(startTime).Seconds(),
	)

	return nil
}

// PurgeDocument removes a document's vectors and segment rows. Used by
// the surrounding CRUD layer on document deletion.
func (o *VectorizeOrchestrator) PurgeDocument(ctx context.Context, documentID string) error {
	if err := o.vectorIndex.DeleteByDocument(ctx, documentID); err != nil {
		return fmt.Errorf("failed to delete vectors for document %s: %w", documentID, err)
	}
	if err := o.segmentStore.DeleteByDocument(ctx, documentID); err != nil {
		return fmt.Errorf("failed to delete segments for document %s: %w", documentID, err)
	}
	o.logger.Info("purged document", "document_id", documentID)
	return nil
}

// PurgeProject removes all of a project's vectors from the index. The
// relational rows go away with the project's documents via cascade.
func (o *VectorizeOrchestrator) PurgeProject(ctx context.Context, projectID string) error {
	if err := o.vectorIndex.DeleteByProject(ctx, projectID); err != nil {
		return fmt.Errorf("failed to delete vectors for project %s: %w", projectID, err)
	}
	o.logger.Info("purged project vectors", "project_id", projectID)
	return nil
}
