package driven

import (
	"context"

	"github.com/docquery-labs/docquery-core/internal/core/domain"
)

// TaskQueue handles background task queuing and processing (Redis Streams).
// Enqueueing the same task id twice before completion is a no-op, which
// gives vectorize tasks at-most-one-pending semantics per document.
type TaskQueue interface {
	// Enqueue adds a task to the queue for processing
	Enqueue(ctx context.Context, task *domain.Task) error

	// DequeueWithTimeout retrieves the next available task, waiting up to
	// timeout seconds. Returns nil, nil if nothing became available.
	// The task is marked processing and not handed to other workers.
	DequeueWithTimeout(ctx context.Context, timeout int) (*domain.Task, error)

	// Ack acknowledges successful completion of a task
	Ack(ctx context.Context, taskID string) error

	// Nack indicates task processing failed. The task is re-scheduled
	// with backoff, or marked failed once max attempts are exhausted.
	Nack(ctx context.Context, taskID string, reason string) error

	// GetTask retrieves a task by ID (for status checking).
	// Returns nil, nil if unknown.
	GetTask(ctx context.Context, taskID string) (*domain.Task, error)

	// Ping checks if the queue backend is healthy
	Ping(ctx context.Context) error

	// Close cleans up resources
	Close() error
}
