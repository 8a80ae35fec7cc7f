package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/docquery-labs/docquery-core/internal/core/domain"
)

// MockProjectStore is a mock implementation of ProjectStore for testing
type MockProjectStore struct {
	mu       sync.RWMutex
	projects map[string]*domain.Project
}

// NewMockProjectStore creates a new MockProjectStore
func NewMockProjectStore() *MockProjectStore {
	return &MockProjectStore{projects: make(map[string]*domain.Project)}
}

func (m *MockProjectStore) Save(ctx context.Context, project *domain.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects[project.ID] = project
	return nil
}

func (m *MockProjectStore) Get(ctx context.Context, id string) (*domain.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (m *MockProjectStore) List(ctx context.Context) ([]*domain.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Project, 0, len(m.projects))
	for _, p := range m.projects {
		out = append(out, p)
	}
	return out, nil
}

func (m *MockProjectStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.projects, id)
	return nil
}

// MockDocumentStore is a mock implementation of DocumentStore for
// testing. It shares segment state with a MockSegmentStore so that
// SaveVectorized behaves like the real transactional replace.
type MockDocumentStore struct {
	mu        sync.RWMutex
	documents map[string]*domain.Document
	segments  *MockSegmentStore

	failSaveVectorized bool
}

// NewMockDocumentStore creates a new MockDocumentStore backed by the
// given segment store.
func NewMockDocumentStore(segments *MockSegmentStore) *MockDocumentStore {
	return &MockDocumentStore{
		documents: make(map[string]*domain.Document),
		segments:  segments,
	}
}

func (m *MockDocumentStore) Save(ctx context.Context, doc *domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *doc
	copied.Segments = nil
	m.documents[doc.ID] = &copied
	return nil
}

func (m *MockDocumentStore) Get(ctx context.Context, id string) (*domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *doc
	return &copied, nil
}

func (m *MockDocumentStore) GetWithSegments(ctx context.Context, id string) (*domain.Document, error) {
	doc, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.segments != nil {
		segs, err := m.segments.GetByDocument(ctx, id)
		if err != nil {
			return nil, err
		}
		doc.Segments = segs
	}
	return doc, nil
}

func (m *MockDocumentStore) ListByProject(ctx context.Context, projectID string, limit, offset int) ([]*domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var docs []*domain.Document
	for _, d := range m.documents {
		if d.ProjectID == projectID {
			docs = append(docs, d)
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	if offset >= len(docs) {
		return []*domain.Document{}, nil
	}
	end := len(docs)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return docs[offset:end], nil
}

func (m *MockDocumentStore) CountVectorized(ctx context.Context, projectID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, d := range m.documents {
		if d.ProjectID == projectID && d.Vectorized {
			n++
		}
	}
	return n, nil
}

func (m *MockDocumentStore) SaveVectorized(ctx context.Context, doc *domain.Document, segments []*domain.Segment) error {
	m.mu.Lock()
	if m.failSaveVectorized {
		m.failSaveVectorized = false
		m.mu.Unlock()
		return fmt.Errorf("mock save vectorized failure")
	}
	copied := *doc
	copied.Segments = nil
	m.documents[doc.ID] = &copied
	m.mu.Unlock()

	if m.segments != nil {
		if err := m.segments.DeleteByDocument(ctx, doc.ID); err != nil {
			return err
		}
		return m.segments.SaveBatch(ctx, segments)
	}
	return nil
}

func (m *MockDocumentStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.documents[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.documents, id)
	return nil
}

func (m *MockDocumentStore) DeleteByProject(ctx context.Context, projectID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, d := range m.documents {
		if d.ProjectID == projectID {
			delete(m.documents, id)
		}
	}
	return nil
}

func (m *MockDocumentStore) SetFailSaveVectorized(fail bool) {
	m.failSaveVectorized = fail
}

// MockSegmentStore is a mock implementation of SegmentStore for testing
type MockSegmentStore struct {
	mu         sync.RWMutex
	byDocument map[string][]*domain.Segment

	failGetByPosition bool
}

// NewMockSegmentStore creates a new MockSegmentStore
func NewMockSegmentStore() *MockSegmentStore {
	return &MockSegmentStore{byDocument: make(map[string][]*domain.Segment)}
}

func (m *MockSegmentStore) SaveBatch(ctx context.Context, segments []*domain.Segment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, seg := range segments {
		copied := *seg
		m.byDocument[seg.DocumentID] = append(m.byDocument[seg.DocumentID], &copied)
	}
	for docID := range m.byDocument {
		segs := m.byDocument[docID]
		sort.Slice(segs, func(i, j int) bool { return segs[i].Index < segs[j].Index })
	}
	return nil
}

func (m *MockSegmentStore) GetByDocument(ctx context.Context, documentID string) ([]*domain.Segment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	segs := m.byDocument[documentID]
	out := make([]*domain.Segment, len(segs))
	copy(out, segs)
	return out, nil
}

func (m *MockSegmentStore) GetByPosition(ctx context.Context, documentID string, index int) (*domain.Segment, error) {
	m.mu.Lock()
	if m.failGetByPosition {
		m.failGetByPosition = false
		m.mu.Unlock()
		return nil, fmt.Errorf("mock segment store failure")
	}
	m.mu.Unlock()

	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, seg := range m.byDocument[documentID] {
		if seg.Index == index {
			return seg, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockSegmentStore) DeleteByDocument(ctx context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byDocument, documentID)
	return nil
}

// SetFailGetByPosition makes the next GetByPosition call fail with a
// non-ErrNotFound error.
func (m *MockSegmentStore) SetFailGetByPosition(fail bool) {
	m.failGetByPosition = fail
}
