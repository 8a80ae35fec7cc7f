package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/docquery-labs/docquery-core/internal/core/domain"
	"github.com/docquery-labs/docquery-core/internal/core/ports/driven"
)

// Ensure VectorIndex implements driven.VectorIndex
var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex is a REST client to a Qdrant collection. The collection
// uses cosine distance; all entries carry the payload fields needed for
// project scoping and segment lookup.
type VectorIndex struct {
	baseURL    string
	apiKey     string
	collection string
	client     *http.Client
}

// Config holds Qdrant connection settings
type Config struct {
	// BaseURL is the Qdrant HTTP endpoint, e.g. http://localhost:6333
	BaseURL string

	// APIKey is optional; sent as the api-key header when set
	APIKey string

	// Collection is the collection name
	Collection string

	// Timeout is the per-request timeout (default: 15s)
	Timeout time.Duration
}

// NewVectorIndex creates a new Qdrant-backed vector index
func NewVectorIndex(cfg Config) (*VectorIndex, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("qdrant base URL is required")
	}
	if cfg.Collection == "" {
		cfg.Collection = "docquery_segments"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}

	return &VectorIndex{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// EnsureCollection creates the collection if it does not exist.
// Qdrant returns 200 for an existing collection with the same schema.
func (q *VectorIndex) EnsureCollection(ctx context.Context, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("invalid vector dimensions %d: %w", dimensions, domain.ErrInvalidInput)
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimensions,
			"distance": "Cosine",
		},
	}
	return q.do(ctx, http.MethodPut, q.collectionURL(""), body, nil)
}

// Upsert writes a single vector entry
func (q *VectorIndex) Upsert(ctx context.Context, entry driven.VectorEntry) error {
	return q.UpsertBatch(ctx, []driven.VectorEntry{entry})
}

// UpsertBatch writes vector entries in one request. wait=true makes the
// write durable before returning, which the vectorization pipeline
// relies on before committing relational state.
func (q *VectorIndex) UpsertBatch(ctx context.Context, entries []driven.VectorEntry) error {
	if len(entries) == 0 {
		return nil
	}

	points := make([]map[string]any, len(entries))
	for i, e := range entries {
		points[i] = map[string]any{
			"id":     e.ID,
			"vector": e.Vector,
			"payload": map[string]any{
				"document_id":   e.Metadata.DocumentID,
				"project_id":    e.Metadata.ProjectID,
				"segment_index": e.Metadata.SegmentIndex,
				"filename":      e.Metadata.Filename,
			},
		}
	}

	body := map[string]any{"points": points}
	return q.do(ctx, http.MethodPut, q.collectionURL("/points?wait=true"), body, nil)
}

// DeleteByDocument removes all entries belonging to a document
func (q *VectorIndex) DeleteByDocument(ctx context.Context, documentID string) error {
	return q.deleteByFilter(ctx, matchFilter("document_id", documentID))
}

// DeleteByProject removes all entries belonging to a project
func (q *VectorIndex) DeleteByProject(ctx context.Context, projectID string) error {
	return q.deleteByFilter(ctx, matchFilter("project_id", projectID))
}

// Search runs a cosine similarity query scoped to one project
func (q *VectorIndex) Search(ctx context.Context, vector []float32, projectID string, topK int, minScore float64) ([]domain.RetrievalResult, error) {
	body := map[string]any{
		"vector":          vector,
		"limit":           topK,
		"score_threshold": minScore,
		"with_payload":    true,
		"filter":          matchFilter("project_id", projectID),
	}

	var resp struct {
		Result []struct {
			Score   float64 `json:"score"`
			Payload struct {
				DocumentID   string `json:"document_id"`
				ProjectID    string `json:"project_id"`
				SegmentIndex int    `json:"segment_index"`
				Filename     string `json:"filename"`
			} `json:"payload"`
		} `json:"result"`
	}
	if err := q.do(ctx, http.MethodPost, q.collectionURL("/points/search"), body, &resp); err != nil {
		return nil, err
	}

	results := make([]domain.RetrievalResult, 0, len(resp.Result))
	for _, r := range resp.Result {
		results = append(results, domain.RetrievalResult{
			DocumentID:   r.Payload.DocumentID,
			SegmentIndex: r.Payload.SegmentIndex,
			Score:        r.Score,
			Filename:     r.Payload.Filename,
		})
	}
	return results, nil
}

// HealthCheck verifies the Qdrant endpoint is reachable
func (q *VectorIndex) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, q.baseURL+"/readyz", http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create health request: %w", err)
	}
	q.setHeaders(req)

	resp, err := q.client.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("qdrant health check returned status %d", resp.StatusCode)
	}
	return nil
}

func (q *VectorIndex) deleteByFilter(ctx context.Context, filter map[string]any) error {
	body := map[string]any{"filter": filter}
	return q.do(ctx, http.MethodPost, q.collectionURL("/points/delete?wait=true"), body, nil)
}

func matchFilter(key, value string) map[string]any {
	return map[string]any{
		"must": []map[string]any{
			{"key": key, "match": map[string]any{"value": value}},
		},
	}
}

func (q *VectorIndex) collectionURL(suffix string) string {
	return fmt.Sprintf("%s/collections/%s%s", q.baseURL, q.collection, suffix)
}

func (q *VectorIndex) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if q.apiKey != "" {
		req.Header.Set("api-key", q.apiKey)
	}
}

func (q *VectorIndex) do(ctx context.Context, method, url string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	q.setHeaders(req)

	resp, err := q.client.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("qdrant %s %s returned status %d: %s", method, url, resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to parse qdrant response: %w", err)
		}
	}
	return nil
}
