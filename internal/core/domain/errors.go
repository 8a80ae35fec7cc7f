package domain

import "errors"

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates the resource already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrNothingToVectorize indicates the document has no extracted text
	ErrNothingToVectorize = errors.New("nothing to vectorize")

	// ErrDocumentNotReady indicates the document is not in the
	// text-extraction-complete status required for vectorization
	ErrDocumentNotReady = errors.New("document not ready for vectorization")

	// ErrNoProviderConfigured indicates no embedding or chat provider is set up
	ErrNoProviderConfigured = errors.New("no provider configured")

	// ErrInvalidProvider indicates an unknown AI provider was specified
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrEmbeddingCountMismatch indicates the provider returned a different
	// number of vectors than texts submitted - a hard failure, never truncated
	ErrEmbeddingCountMismatch = errors.New("embedding count mismatch")

	// ErrVectorizeInProgress indicates another worker holds the per-document lock
	ErrVectorizeInProgress = errors.New("vectorization already in progress")

	// ErrServiceUnavailable indicates an AI service could not be reached
	ErrServiceUnavailable = errors.New("service unavailable")
)
