package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/docquery-labs/docquery-core/internal/core/ports/driven"
)

// fakeQdrant records requests and serves canned responses
type fakeQdrant struct {
	mux      *http.ServeMux
	requests []recordedRequest
}

type recordedRequest struct {
	method string
	path   string
	body   map[string]any
}

func newFakeQdrant(t *testing.T) (*fakeQdrant, *httptest.Server) {
	t.Helper()
	f := &fakeQdrant{mux: http.NewServeMux()}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if r.Body != nil {
			json.NewDecoder(r.Body).Decode(&body)
		}
		f.requests = append(f.requests, recordedRequest{method: r.Method, path: r.URL.Path, body: body})
		f.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(server.Close)
	return f, server
}

func newIndex(t *testing.T, url string) *VectorIndex {
	t.Helper()
	idx, err := NewVectorIndex(Config{BaseURL: url, Collection: "test_segments"})
	if err != nil {
		t.Fatalf("failed to create index: %v", err)
	}
	return idx
}

func okHandler(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(map[string]any{"status": "ok", "result": true})
}

func TestVectorIndex_RequiresBaseURL(t *testing.T) {
	if _, err := NewVectorIndex(Config{}); err == nil {
		t.Error("expected error for missing base URL")
	}
}

func TestVectorIndex_EnsureCollection(t *testing.T) {
	f, server := newFakeQdrant(t)
	f.mux.HandleFunc("/collections/test_segments", okHandler)

	idx := newIndex(t, server.URL)
	if err := idx.EnsureCollection(context.Background(), 1536); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := f.requests[0]
	if req.method != http.MethodPut {
		t.Errorf("expected PUT, got %s", req.method)
	}
	vectors := req.body["vectors"].(map[string]any)
	if vectors["size"].(float64) != 1536 || vectors["distance"] != "Cosine" {
		t.Errorf("unexpected collection schema %v", vectors)
	}
}

func TestVectorIndex_EnsureCollection_InvalidDimensions(t *testing.T) {
	idx := newIndex(t, "http://localhost:6333")
	if err := idx.EnsureCollection(context.Background(), 0); err == nil {
		t.Error("expected error for zero dimensions")
	}
}

func TestVectorIndex_UpsertBatch(t *testing.T) {
	f, server := newFakeQdrant(t)
	f.mux.HandleFunc("/collections/test_segments/points", okHandler)

	idx := newIndex(t, server.URL)
	entries := []driven.VectorEntry{
		{
			ID:     "v-1",
			Vector: []float32{0.1, 0.2},
			Metadata: driven.VectorMetadata{
				DocumentID: "doc-1", ProjectID: "project-1", SegmentIndex: 0, Filename: "a.txt",
			},
		},
	}
	if err := idx.UpsertBatch(context.Background(), entries); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	points := f.requests[0].body["points"].([]any)
	if len(points) != 1 {
		t.Fatalf("expected 1 point, got %d", len(points))
	}
	payload := points[0].(map[string]any)["payload"].(map[string]any)
	if payload["document_id"] != "doc-1" || payload["project_id"] != "project-1" || payload["filename"] != "a.txt" {
		t.Errorf("unexpected payload %v", payload)
	}
}

func TestVectorIndex_Search(t *testing.T) {
	f, server := newFakeQdrant(t)
	f.mux.HandleFunc("/collections/test_segments/points/search", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"result": []map[string]any{
				{
					"score": 0.92,
					"payload": map[string]any{
						"document_id": "doc-1", "project_id": "project-1",
						"segment_index": 3, "filename": "a.txt",
					},
				},
			},
		})
	})

	idx := newIndex(t, server.URL)
	results, err := idx.Search(context.Background(), []float32{0.1, 0.2}, "project-1", 5, 0.3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	r := results[0]
	if r.DocumentID != "doc-1" || r.SegmentIndex != 3 || r.Score != 0.92 || r.Filename != "a.txt" {
		t.Errorf("unexpected result %+v", r)
	}

	body := f.requests[0].body
	if body["limit"].(float64) != 5 {
		t.Errorf("expected limit 5, got %v", body["limit"])
	}
	if body["score_threshold"].(float64) != 0.3 {
		t.Errorf("expected score_threshold 0.3, got %v", body["score_threshold"])
	}
	filter := body["filter"].(map[string]any)["must"].([]any)[0].(map[string]any)
	if filter["key"] != "project_id" {
		t.Errorf("expected project_id filter, got %v", filter)
	}
}

func TestVectorIndex_DeleteByDocument(t *testing.T) {
	f, server := newFakeQdrant(t)
	f.mux.HandleFunc("/collections/test_segments/points/delete", okHandler)

	idx := newIndex(t, server.URL)
	if err := idx.DeleteByDocument(context.Background(), "doc-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	filter := f.requests[0].body["filter"].(map[string]any)["must"].([]any)[0].(map[string]any)
	if filter["key"] != "document_id" {
		t.Errorf("expected document_id filter, got %v", filter)
	}
	if filter["match"].(map[string]any)["value"] != "doc-1" {
		t.Errorf("expected doc-1 match, got %v", filter)
	}
}

func TestVectorIndex_ServerError(t *testing.T) {
	_, server := newFakeQdrant(t)
	// No handler registered: mux returns 404 for the delete path.

	idx := newIndex(t, server.URL)
	if err := idx.DeleteByProject(context.Background(), "project-1"); err == nil {
		t.Error("expected error for failing endpoint")
	}
}

func TestVectorIndex_HealthCheck(t *testing.T) {
	f, server := newFakeQdrant(t)
	f.mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	idx := newIndex(t, server.URL)
	if err := idx.HealthCheck(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
