package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewOpenAIChat_RequiresAPIKey(t *testing.T) {
	_, err := NewOpenAIChat("", "gpt-4o-mini", "")
	if err == nil {
		t.Error("expected error for empty API key")
	}
}

func TestNewOpenAIChat_DefaultModel(t *testing.T) {
	svc, err := NewOpenAIChat("sk-test", "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc.Model() != "gpt-4o-mini" {
		t.Errorf("expected default model gpt-4o-mini, got %s", svc.Model())
	}
}

func TestOpenAIChat_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Role != "user" {
			t.Errorf("unexpected messages %+v", req.Messages)
		}
		if req.Stream {
			t.Error("blocking call must not request streaming")
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "Hello from the model."}, "finish_reason": "stop"},
			},
		})
	}))
	defer server.Close()

	svc, err := NewOpenAIChat("sk-test", "gpt-4o-mini", server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := svc.Complete(context.Background(), "be helpful", "say hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Hello from the model." {
		t.Errorf("unexpected completion %q", got)
	}
}

func TestOpenAIChat_Complete_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"message": "Rate limit exceeded", "type": "rate_limit_error"},
		})
	}))
	defer server.Close()

	svc, err := NewOpenAIChat("sk-test", "gpt-4o-mini", server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = svc.Complete(context.Background(), "", "question")
	if err == nil || !strings.Contains(err.Error(), "Rate limit exceeded") {
		t.Errorf("expected rate limit error, got %v", err)
	}
}

func TestOpenAIChat_CompleteStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if !req.Stream {
			t.Error("expected streaming request")
		}

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, delta := range []string{"Hel", "lo", " world"} {
			fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", delta)
			flusher.Flush()
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
		flusher.Flush()
	}))
	defer server.Close()

	svc, err := NewOpenAIChat("sk-test", "gpt-4o-mini", server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	chunks, err := svc.CompleteStream(context.Background(), "", "question")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var b strings.Builder
	for chunk := range chunks {
		if chunk.Err != nil {
			t.Fatalf("unexpected chunk error: %v", chunk.Err)
		}
		b.WriteString(chunk.Content)
	}
	if b.String() != "Hello world" {
		t.Errorf("expected streamed text %q, got %q", "Hello world", b.String())
	}
}

func TestOpenAIChat_CompleteStream_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	svc, err := NewOpenAIChat("sk-test", "gpt-4o-mini", server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = svc.CompleteStream(context.Background(), "", "question")
	if err == nil {
		t.Error("expected error for HTTP 500")
	}
}

func TestOpenAIChat_Ping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	svc, err := NewOpenAIChat("sk-test", "gpt-4o-mini", server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.Ping(context.Background()); err != nil {
		t.Errorf("unexpected ping error: %v", err)
	}
}
