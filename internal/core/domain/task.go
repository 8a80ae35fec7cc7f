package domain

import (
	"crypto/rand"
	"encoding/base64"
	"time"
)

// GenerateID creates a unique random ID.
func GenerateID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

// TaskType identifies the type of background task
type TaskType string

const (
	// TaskTypeVectorizeDocument segments, embeds and indexes one document
	TaskTypeVectorizeDocument TaskType = "vectorize_document"
)

// TaskStatus represents the current state of a task
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// retryBackoff is the delay before each retry attempt. After the last
// entry the task is marked failed and stays un-vectorized until
// manually re-triggered.
var retryBackoff = []time.Duration{
	60 * time.Second,
	300 * time.Second,
	900 * time.Second,
}

// Task represents a background job to be processed by workers
type Task struct {
	// ID is the unique identifier for this task. Vectorize tasks derive
	// it from the document id so re-enqueueing the same document is
	// idempotent across worker processes.
	ID string `json:"id"`

	// Type identifies what kind of task this is
	Type TaskType `json:"type"`

	// Payload contains task-specific data
	// For vectorize_document: {"document_id": "doc-123"}
	Payload map[string]string `json:"payload"`

	// Status is the current state of the task
	Status TaskStatus `json:"status"`

	// Attempts is how many times this task has been attempted
	Attempts int `json:"attempts"`

	// MaxAttempts is the maximum retry count before giving up
	MaxAttempts int `json:"max_attempts"`

	// Error contains the last error message if failed
	Error string `json:"error,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// ScheduledFor is when the task should be processed (for delayed retries)
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewVectorizeTask creates a task to vectorize a specific document.
// The document id doubles as the idempotency key.
func NewVectorizeTask(documentID string) *Task {
	now := time.Now()
	return &Task{
		ID:           "vectorize:" + documentID,
		Type:         TaskTypeVectorizeDocument,
		Payload:      map[string]string{"document_id": documentID},
		Status:       TaskStatusPending,
		Attempts:     0,
		MaxAttempts:  len(retryBackoff),
		CreatedAt:    now,
		UpdatedAt:    now,
		ScheduledFor: now,
	}
}

// DocumentID extracts the document_id from the payload
func (t *Task) DocumentID() string {
	if t.Payload == nil {
		return ""
	}
	return t.Payload["document_id"]
}

// CanRetry returns true if the task can be retried
func (t *Task) CanRetry() bool {
	return t.Attempts < t.MaxAttempts
}

// IsReady returns true if the task is ready to be processed
func (t *Task) IsReady() bool {
	return t.Status == TaskStatusPending && time.Now().After(t.ScheduledFor)
}

// MarkProcessing updates the task to processing state
func (t *Task) MarkProcessing() {
	now := time.Now()
	t.Status = TaskStatusProcessing
	t.StartedAt = &now
	t.UpdatedAt = now
	t.Attempts++
}

// MarkCompleted updates the task to completed state
func (t *Task) MarkCompleted() {
	now := time.Now()
	t.Status = TaskStatusCompleted
	t.CompletedAt = &now
	t.UpdatedAt = now
	t.Error = ""
}

// MarkFailed updates the task to failed state
func (t *Task) MarkFailed(err string) {
	now := time.Now()
	t.Status = TaskStatusFailed
	t.UpdatedAt = now
	t.Error = err
}

// Retry resets the task for a delayed retry. Backoff schedule is
// 60s, 300s, 900s keyed by how many attempts have already run.
func (t *Task) Retry(err string) {
	now := time.Now()
	t.Status = TaskStatusPending
	t.UpdatedAt = now
	t.Error = err

	idx := t.Attempts - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(retryBackoff) {
		idx = len(retryBackoff) - 1
	}
	t.ScheduledFor = now.Add(retryBackoff[idx])
}
