package domain

import (
	"testing"
	"time"
)

func TestNewVectorizeTask(t *testing.T) {
	task := NewVectorizeTask("doc-123")

	if task.ID != "vectorize:doc-123" {
		t.Errorf("expected id vectorize:doc-123, got %s", task.ID)
	}
	if task.Type != TaskTypeVectorizeDocument {
		t.Errorf("expected type %s, got %s", TaskTypeVectorizeDocument, task.Type)
	}
	if task.DocumentID() != "doc-123" {
		t.Errorf("expected document id doc-123, got %s", task.DocumentID())
	}
	if task.Status != TaskStatusPending {
		t.Errorf("expected pending status, got %s", task.Status)
	}
	if task.MaxAttempts != 3 {
		t.Errorf("expected 3 max attempts, got %d", task.MaxAttempts)
	}
}

func TestNewVectorizeTask_IdempotentID(t *testing.T) {
	a := NewVectorizeTask("doc-123")
	b := NewVectorizeTask("doc-123")
	if a.ID != b.ID {
		t.Errorf("expected identical ids for the same document, got %s and %s", a.ID, b.ID)
	}
}

func TestTask_RetryBackoffSchedule(t *testing.T) {
	task := NewVectorizeTask("doc-123")
	expected := []time.Duration{60 * time.Second, 300 * time.Second, 900 * time.Second}

	for attempt, want := range expected {
		task.MarkProcessing()
		if task.Attempts != attempt+1 {
			t.Fatalf("expected %d attempts, got %d", attempt+1, task.Attempts)
		}
		before := time.Now()
		task.Retry("transient failure")
		delay := task.ScheduledFor.Sub(before)
		if delay < want-time.Second || delay > want+time.Second {
			t.Errorf("attempt %d: expected delay ~%v, got %v", attempt+1, want, delay)
		}
		if task.Status != TaskStatusPending {
			t.Errorf("attempt %d: expected pending after retry, got %s", attempt+1, task.Status)
		}
	}

	if task.CanRetry() {
		t.Error("expected no retries left after exhausting the schedule")
	}
}

func TestTask_Lifecycle(t *testing.T) {
	task := NewVectorizeTask("doc-123")

	if !task.CanRetry() {
		t.Error("fresh task should be retryable")
	}

	task.MarkProcessing()
	if task.Status != TaskStatusProcessing || task.StartedAt == nil {
		t.Error("expected processing status with start time")
	}

	task.MarkCompleted()
	if task.Status != TaskStatusCompleted || task.CompletedAt == nil {
		t.Error("expected completed status with completion time")
	}
	if task.Error != "" {
		t.Error("expected error cleared on completion")
	}

	task.MarkFailed("gave up")
	if task.Status != TaskStatusFailed || task.Error != "gave up" {
		t.Error("expected failed status with error")
	}
}

func TestTask_IsReady(t *testing.T) {
	task := NewVectorizeTask("doc-123")
	task.ScheduledFor = time.Now().Add(-time.Second)
	if !task.IsReady() {
		t.Error("pending task scheduled in the past should be ready")
	}

	task.ScheduledFor = time.Now().Add(time.Hour)
	if task.IsReady() {
		t.Error("task scheduled in the future must not be ready")
	}

	task.ScheduledFor = time.Now().Add(-time.Second)
	task.Status = TaskStatusProcessing
	if task.IsReady() {
		t.Error("processing task must not be ready")
	}
}
