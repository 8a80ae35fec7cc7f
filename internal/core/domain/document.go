package domain

import "time"

// DocumentStatus tracks a document through its processing lifecycle
type DocumentStatus string

const (
	// DocumentStatusUploaded means the raw file is stored but not yet processed
	DocumentStatusUploaded DocumentStatus = "uploaded"
	// DocumentStatusExtracting means text extraction is in progress
	DocumentStatusExtracting DocumentStatus = "extracting"
	// DocumentStatusTextExtracted means plain text is available for vectorization
	DocumentStatusTextExtracted DocumentStatus = "text_extracted"
	// DocumentStatusExtractionFailed means the extraction collaborator gave up
	DocumentStatusExtractionFailed DocumentStatus = "extraction_failed"
	// DocumentStatusRequiresOCR means the file has no extractable text layer
	DocumentStatusRequiresOCR DocumentStatus = "requires_ocr"
)

// Project groups documents and scopes retrieval
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Document represents an uploaded document within a project
type Document struct {
	ID        string         `json:"id"`
	ProjectID string         `json:"project_id"`
	Filename  string         `json:"filename"`
	MimeType  string         `json:"mime_type"`
	Status    DocumentStatus `json:"status"`

	// Text is the extracted plain text, empty until extraction completes
	Text string `json:"text,omitempty"`

	// Vectorized is true once segments and vectors exist for the current text
	Vectorized   bool       `json:"vectorized"`
	VectorizedAt *time.Time `json:"vectorized_at,omitempty"`

	// Segments is populated by loads that include them; ordered by Index
	Segments []*Segment `json:"segments,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Segment is a bounded slice of a document's normalized text prepared
// for embedding. (DocumentID, Index) is unique; offsets are [start, end)
// into the normalized text, and adjacent segments may overlap by up to
// the configured overlap length.
type Segment struct {
	ID          string    `json:"id"`
	DocumentID  string    `json:"document_id"`
	Index       int       `json:"index"`
	StartOffset int       `json:"start_offset"`
	EndOffset   int       `json:"end_offset"`
	Text        string    `json:"text"`
	TokenCount  int       `json:"token_count"`
	VectorID    string    `json:"vector_id"` // id of the corresponding vector index entry
	CreatedAt   time.Time `json:"created_at"`
}

// EstimateTokens approximates the LLM token count of a text as
// ceil(len/4). Used for context budgeting only.
func EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}
