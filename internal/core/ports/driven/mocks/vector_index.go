package mocks

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"

	"github.com/docquery-labs/docquery-core/internal/core/domain"
	"github.com/docquery-labs/docquery-core/internal/core/ports/driven"
)

// MockVectorIndex is an in-memory cosine-similarity VectorIndex for testing
type MockVectorIndex struct {
	mu      sync.RWMutex
	entries map[string]driven.VectorEntry

	failUpsert bool
	failSearch bool
}

// NewMockVectorIndex creates a new MockVectorIndex
func NewMockVectorIndex() *MockVectorIndex {
	return &MockVectorIndex{
		entries: make(map[string]driven.VectorEntry),
	}
}

func (m *MockVectorIndex) Upsert(ctx context.Context, entry driven.VectorEntry) error {
	return m.UpsertBatch(ctx, []driven.VectorEntry{entry})
}

func (m *MockVectorIndex) UpsertBatch(ctx context.Context, entries []driven.VectorEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUpsert {
		m.failUpsert = false
		return errors.New("mock upsert failure")
	}
	for _, e := range entries {
		m.entries[e.ID] = e
	}
	return nil
}

func (m *MockVectorIndex) DeleteByDocument(ctx context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, e := range m.entries {
		if e.Metadata.DocumentID == documentID {
			delete(m.entries, id)
		}
	}
	return nil
}

func (m *MockVectorIndex) DeleteByProject(ctx context.Context, projectID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, e := range m.entries {
		if e.Metadata.ProjectID == projectID {
			delete(m.entries, id)
		}
	}
	return nil
}

func (m *MockVectorIndex) Search(ctx context.Context, vector []float32, projectID string, topK int, minScore float64) ([]domain.RetrievalResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.failSearch {
		m.failSearch = false
		return nil, errors.New("mock search failure")
	}

	var results []domain.RetrievalResult
	for _, e := range m.entries {
		if e.Metadata.ProjectID != projectID {
			continue
		}
		score := cosine(vector, e.Vector)
		if score < minScore {
			continue
		}
		results = append(results, domain.RetrievalResult{
			DocumentID:   e.Metadata.DocumentID,
			SegmentIndex: e.Metadata.SegmentIndex,
			Score:        score,
			Filename:     e.Metadata.Filename,
		})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func (m *MockVectorIndex) HealthCheck(ctx context.Context) error {
	return nil
}

// Helper methods for testing

// Count returns how many entries are stored
func (m *MockVectorIndex) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// CountByDocument returns how many entries belong to a document
func (m *MockVectorIndex) CountByDocument(documentID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, e := range m.entries {
		if e.Metadata.DocumentID == documentID {
			n++
		}
	}
	return n
}

// Entries returns a snapshot of all stored entries
func (m *MockVectorIndex) Entries() []driven.VectorEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]driven.VectorEntry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	return out
}

func (m *MockVectorIndex) SetFailUpsert(fail bool) {
	m.failUpsert = fail
}

func (m *MockVectorIndex) SetFailSearch(fail bool) {
	m.failSearch = fail
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
