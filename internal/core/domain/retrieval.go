package domain

// RetrievalResult is one similarity search hit. Transient: produced by
// the vector index, never persisted.
type RetrievalResult struct {
	DocumentID   string  `json:"document_id"`
	SegmentIndex int     `json:"segment_index"`
	Score        float64 `json:"score"`
	Filename     string  `json:"filename"`
}

// Reference points a user at the source of an answer. One per document,
// carrying the highest-scoring retrieved segment's snippet.
type Reference struct {
	DocumentID string  `json:"document_id"`
	Filename   string  `json:"filename"`
	Snippet    string  `json:"snippet"`
	Score      float64 `json:"score"`
}

// Answer is the result of a blocking question call
type Answer struct {
	Text       string      `json:"text"`
	References []Reference `json:"references"`
}

// AnswerEventType tags items on a streaming answer sequence
type AnswerEventType string

const (
	// AnswerEventToken carries one generated text fragment
	AnswerEventToken AnswerEventType = "token"
	// AnswerEventDone terminates the stream and carries the references
	AnswerEventDone AnswerEventType = "done"
	// AnswerEventError terminates the stream with a failure
	AnswerEventError AnswerEventType = "error"
)

// AnswerEvent is a tagged variant over a single streaming sequence:
// zero or more Token events, then exactly one Done or Error event.
// References travel on Done so a client can distinguish "more text
// coming" from "finished, here are the sources".
type AnswerEvent struct {
	Type       AnswerEventType `json:"type"`
	Token      string          `json:"token,omitempty"`
	References []Reference     `json:"references,omitempty"`
	Err        error           `json:"-"`
}

// TokenEvent builds a token fragment event
func TokenEvent(text string) AnswerEvent {
	return AnswerEvent{Type: AnswerEventToken, Token: text}
}

// DoneEvent builds the terminal references event
func DoneEvent(refs []Reference) AnswerEvent {
	return AnswerEvent{Type: AnswerEventDone, References: refs}
}

// ErrorEvent builds the terminal failure event
func ErrorEvent(err error) AnswerEvent {
	return AnswerEvent{Type: AnswerEventError, Err: err}
}
