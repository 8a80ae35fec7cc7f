package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/docquery-labs/docquery-core/internal/core/domain"
	"github.com/docquery-labs/docquery-core/internal/core/ports/driven/mocks"
)

type vectorizeFixture struct {
	orchestrator *VectorizeOrchestrator
	documents    *mocks.MockDocumentStore
	segments     *mocks.MockSegmentStore
	index        *mocks.MockVectorIndex
	embedding    *mocks.MockEmbeddingService
}

func newVectorizeFixture(t *testing.T) *vectorizeFixture {
	t.Helper()

	segments := mocks.NewMockSegmentStore()
	documents := mocks.NewMockDocumentStore(segments)
	index := mocks.NewMockVectorIndex()
	embedding := mocks.NewMockEmbeddingService()

	orchestrator := NewVectorizeOrchestrator(VectorizeOrchestratorConfig{
		DocumentStore: documents,
		SegmentStore:  segments,
		VectorIndex:   index,
		Embedding:     embedding,
		Segmenter:     NewSegmenter(SegmenterConfig{MaxLength: 100, Overlap: 20, MinLength: 10}),
	})

	return &vectorizeFixture{
		orchestrator: orchestrator,
		documents:    documents,
		segments:     segments,
		index:        index,
		embedding:    embedding,
	}
}

func (f *vectorizeFixture) saveDocument(t *testing.T, doc *domain.Document) {
	t.Helper()
	if err := f.documents.Save(context.Background(), doc); err != nil {
		t.Fatalf("failed to save document: %v", err)
	}
}

func readyDocument(id string, text string) *domain.Document {
	return &domain.Document{
		ID:        id,
		ProjectID: "project-1",
		Filename:  id + ".txt",
		Status:    domain.DocumentStatusTextExtracted,
		Text:      text,
	}
}

func TestVectorizeDocument_Success(t *testing.T) {
	f := newVectorizeFixture(t)
	ctx := context.Background()

	f.saveDocument(t, readyDocument("doc-1", strings.Repeat("The quick brown fox. ", 20)))

	if err := f.orchestrator.VectorizeDocument(ctx, "doc-1"); err != nil {
		t.Fatalf("expected success, got %v", err)
	}

	doc, err := f.documents.Get(ctx, "doc-1")
	if err != nil {
		t.Fatalf("failed to reload document: %v", err)
	}
	if !doc.Vectorized {
		t.Error("expected document to be marked vectorized")
	}
	if doc.VectorizedAt == nil {
		t.Error("expected VectorizedAt to be set")
	}

	segs, err := f.segments.GetByDocument(ctx, "doc-1")
	if err != nil {
		t.Fatalf("failed to load segments: %v", err)
	}
	if len(segs) == 0 {
		t.Fatal("expected segments to be stored")
	}
	if f.index.CountByDocument("doc-1") != len(segs) {
		t.Errorf("expected %d index entries, got %d", len(segs), f.index.CountByDocument("doc-1"))
	}
	for _, seg := range segs {
		if seg.VectorID == "" {
			t.Errorf("segment %d missing vector id", seg.Index)
		}
		if seg.ID == "" {
			t.Errorf("segment %d missing id", seg.Index)
		}
	}
	for _, entry := range f.index.Entries() {
		if entry.Metadata.DocumentID != "doc-1" || entry.Metadata.ProjectID != "project-1" {
			t.Errorf("entry %s has wrong metadata: %+v", entry.ID, entry.Metadata)
		}
		if entry.Metadata.Filename != "doc-1.txt" {
			t.Errorf("entry %s missing filename metadata", entry.ID)
		}
	}
}

func TestVectorizeDocument_NotFound(t *testing.T) {
	f := newVectorizeFixture(t)

	err := f.orchestrator.VectorizeDocument(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestVectorizeDocument_EmptyText(t *testing.T) {
	f := newVectorizeFixture(t)

	doc := readyDocument("doc-1", "   \n\t ")
	f.saveDocument(t, doc)

	err := f.orchestrator.VectorizeDocument(context.Background(), "doc-1")
	if !errors.Is(err, domain.ErrNothingToVectorize) {
		t.Errorf("expected ErrNothingToVectorize, got %v", err)
	}
	if f.embedding.EmbedBatchCalls != 0 {
		t.Error("embedding must not be called for empty text")
	}
}

func TestVectorizeDocument_WrongStatus(t *testing.T) {
	f := newVectorizeFixture(t)

	doc := readyDocument("doc-1", "some extracted text that is long enough")
	doc.Status = domain.DocumentStatusExtracting
	f.saveDocument(t, doc)

	err := f.orchestrator.VectorizeDocument(context.Background(), "doc-1")
	if !errors.Is(err, domain.ErrDocumentNotReady) {
		t.Errorf("expected ErrDocumentNotReady, got %v", err)
	}
}

func TestVectorizeDocument_NoProvider(t *testing.T) {
	segments := mocks.NewMockSegmentStore()
	documents := mocks.NewMockDocumentStore(segments)
	orchestrator := NewVectorizeOrchestrator(VectorizeOrchestratorConfig{
		DocumentStore: documents,
		SegmentStore:  segments,
		VectorIndex:   mocks.NewMockVectorIndex(),
	})

	doc := readyDocument("doc-1", "some extracted text that is long enough")
	if err := documents.Save(context.Background(), doc); err != nil {
		t.Fatalf("failed to save document: %v", err)
	}

	err := orchestrator.VectorizeDocument(context.Background(), "doc-1")
	if !errors.Is(err, domain.ErrNoProviderConfigured) {
		t.Errorf("expected ErrNoProviderConfigured, got %v", err)
	}
}

func TestVectorizeDocument_EmbeddingFailureLeavesNothing(t *testing.T) {
	f := newVectorizeFixture(t)
	ctx := context.Background()

	f.saveDocument(t, readyDocument("doc-1", strings.Repeat("Important content here. ", 15)))
	f.embedding.SetFailNext(true)

	if err := f.orchestrator.VectorizeDocument(ctx, "doc-1"); err == nil {
		t.Fatal("expected embedding failure to propagate")
	}

	doc, _ := f.documents.Get(ctx, "doc-1")
	if doc.Vectorized {
		t.Error("document must not be marked vectorized after a failed run")
	}
	if f.index.Count() != 0 {
		t.Errorf("expected no index entries, got %d", f.index.Count())
	}
	segs, _ := f.segments.GetByDocument(ctx, "doc-1")
	if len(segs) != 0 {
		t.Errorf("expected no stored segments, got %d", len(segs))
	}
}

func TestVectorizeDocument_IndexFailureSkipsRelationalCommit(t *testing.T) {
	f := newVectorizeFixture(t)
	ctx := context.Background()

	f.saveDocument(t, readyDocument("doc-1", strings.Repeat("Important content here. ", 15)))
	f.index.SetFailUpsert(true)

	if err := f.orchestrator.VectorizeDocument(ctx, "doc-1"); err == nil {
		t.Fatal("expected index failure to propagate")
	}

	doc, _ := f.documents.Get(ctx, "doc-1")
	if doc.Vectorized {
		t.Error("document must not be marked vectorized when the index write failed")
	}
	segs, _ := f.segments.GetByDocument(ctx, "doc-1")
	if len(segs) != 0 {
		t.Errorf("expected no stored segments, got %d", len(segs))
	}
}

func TestVectorizeDocument_RevectorizeReplacesOldGeneration(t *testing.T) {
	f := newVectorizeFixture(t)
	ctx := context.Background()

	f.saveDocument(t, readyDocument("doc-1", strings.Repeat("First version of the text. ", 15)))
	if err := f.orchestrator.VectorizeDocument(ctx, "doc-1"); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	firstCount := f.index.CountByDocument("doc-1")
	if firstCount == 0 {
		t.Fatal("expected entries after first run")
	}

	// New text, document still in the ready status with the flag set.
	doc, _ := f.documents.Get(ctx, "doc-1")
	doc.Text = strings.Repeat("Second version, entirely rewritten. ", 12)
	f.saveDocument(t, doc)

	if err := f.orchestrator.VectorizeDocument(ctx, "doc-1"); err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	segs, _ := f.segments.GetByDocument(ctx, "doc-1")
	if f.index.CountByDocument("doc-1") != len(segs) {
		t.Errorf("expected exactly one index entry per stored segment after re-vectorization, got %d entries for %d segments",
			f.index.CountByDocument("doc-1"), len(segs))
	}
	for _, seg := range segs {
		if !strings.Contains(seg.Text, "Second version") {
			t.Errorf("stale segment survived re-vectorization: %q", seg.Text)
		}
	}
}

func TestVectorizeDocument_IdempotentRetryAfterCommitFailure(t *testing.T) {
	f := newVectorizeFixture(t)
	ctx := context.Background()

	f.saveDocument(t, readyDocument("doc-1", strings.Repeat("Retryable content. ", 15)))
	f.documents.SetFailSaveVectorized(true)

	if err := f.orchestrator.VectorizeDocument(ctx, "doc-1"); err == nil {
		t.Fatal("expected commit failure to propagate")
	}
	doc, _ := f.documents.Get(ctx, "doc-1")
	if doc.Vectorized {
		t.Error("document must not be marked vectorized after failed commit")
	}

	// Retry succeeds and the orphaned vectors from the failed run do not
	// accumulate: one entry per segment at the end.
	if err := f.orchestrator.VectorizeDocument(ctx, "doc-1"); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	doc, _ = f.documents.Get(ctx, "doc-1")
	if !doc.Vectorized {
		t.Error("expected document vectorized after retry")
	}
	segs, _ := f.segments.GetByDocument(ctx, "doc-1")
	if f.index.CountByDocument("doc-1") != len(segs) {
		t.Errorf("orphans from the failed run accumulated: %d entries for %d segments",
			f.index.CountByDocument("doc-1"), len(segs))
	}
}

func TestPurgeDocument(t *testing.T) {
	f := newVectorizeFixture(t)
	ctx := context.Background()

	f.saveDocument(t, readyDocument("doc-1", strings.Repeat("Content to purge. ", 15)))
	if err := f.orchestrator.VectorizeDocument(ctx, "doc-1"); err != nil {
		t.Fatalf("vectorize failed: %v", err)
	}

	if err := f.orchestrator.PurgeDocument(ctx, "doc-1"); err != nil {
		t.Fatalf("purge failed: %v", err)
	}
	if f.index.CountByDocument("doc-1") != 0 {
		t.Error("expected index entries removed")
	}
	segs, _ := f.segments.GetByDocument(ctx, "doc-1")
	if len(segs) != 0 {
		t.Error("expected segment rows removed")
	}
}

func TestPurgeProject(t *testing.T) {
	f := newVectorizeFixture(t)
	ctx := context.Background()

	f.saveDocument(t, readyDocument("doc-1", strings.Repeat("Project content. ", 15)))
	if err := f.orchestrator.VectorizeDocument(ctx, "doc-1"); err != nil {
		t.Fatalf("vectorize failed: %v", err)
	}

	if err := f.orchestrator.PurgeProject(ctx, "project-1"); err != nil {
		t.Fatalf("purge failed: %v", err)
	}
	if f.index.Count() != 0 {
		t.Errorf("expected empty index, got %d entries", f.index.Count())
	}
}
