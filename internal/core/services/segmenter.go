package services

import (
	"strings"
	"unicode/utf8"

	"github.com/docquery-labs/docquery-core/internal/core/domain"
)

// Segmenter defaults, in characters.
const (
	DefaultMaxSegmentLength = 1000
	DefaultSegmentOverlap   = 200
	DefaultMinSegmentLength = 100

	// boundaryLookback is how far back from a raw cut we search for a
	// sentence or word boundary.
	boundaryLookback = 200
)

// SegmenterConfig holds segmentation parameters, all in characters.
type SegmenterConfig struct {
	MaxLength int // L: maximum segment length
	Overlap   int // O: characters shared between adjacent segments
	MinLength int // M: candidates shorter than this are discarded, except the last
}

// DefaultSegmenterConfig returns the production defaults.
func DefaultSegmenterConfig() SegmenterConfig {
	return SegmenterConfig{
		MaxLength: DefaultMaxSegmentLength,
		Overlap:   DefaultSegmentOverlap,
		MinLength: DefaultMinSegmentLength,
	}
}

// Segmenter splits extracted document text into overlapping segments
// with offsets into the normalized text. It is a pure, total function:
// any input, including empty, yields a valid (possibly empty) result
// and never an error.
type Segmenter struct {
	cfg SegmenterConfig
}

// NewSegmenter creates a segmenter, falling back to defaults for
// non-positive config values.
func NewSegmenter(cfg SegmenterConfig) *Segmenter {
	if cfg.MaxLength <= 0 {
		cfg.MaxLength = DefaultMaxSegmentLength
	}
	if cfg.Overlap < 0 {
		cfg.Overlap = DefaultSegmentOverlap
	}
	if cfg.MinLength <= 0 {
		cfg.MinLength = DefaultMinSegmentLength
	}
	return &Segmenter{cfg: cfg}
}

// Segment splits text into ordered, overlapping segments. Offsets are
// relative to the normalized text, not the original. Whitespace-only
// input produces zero segments. The document id is only carried into
// the resulting segments.
func (s *Segmenter) Segment(documentID, text string) []*domain.Segment {
	normalized := NormalizeText(text)
	if normalized == "" {
		return nil
	}

	length := len(normalized)
	if length <= s.cfg.MaxLength {
		return []*domain.Segment{s.newSegment(documentID, 0, normalized, 0, length)}
	}

	var segments []*domain.Segment
	index := 0
	start := 0

	for start < length {
		rawEnd := start + s.cfg.MaxLength
		if rawEnd >= length {
			// Final segment: never discarded, regardless of length
			segments = append(segments, s.newSegment(documentID, index, normalized[start:], start, length))
			break
		}

		cutEnd := findCut(normalized, start, rawEnd)

		if cutEnd-start >= s.cfg.MinLength {
			segments = append(segments, s.newSegment(documentID, index, normalized[start:cutEnd], start, cutEnd))
			index++
		}

		// Slide back by the overlap, but always make progress so that
		// pathological configs (O >= L) still terminate.
		start = alignCut(normalized, start, cutEnd-s.cfg.Overlap)
	}

	return segments
}

func (s *Segmenter) newSegment(documentID string, index int, text string, start, end int) *domain.Segment {
	return &domain.Segment{
		DocumentID:  documentID,
		Index:       index,
		StartOffset: start,
		EndOffset:   end,
		Text:        text,
		TokenCount:  domain.EstimateTokens(text),
	}
}

// findCut searches backward from rawEnd, within boundaryLookback
// characters, for the best place to cut: a sentence terminator followed
// by whitespace wins over any whitespace, which wins over the raw
// boundary itself.
func findCut(text string, start, rawEnd int) int {
	floor := rawEnd - boundaryLookback
	if floor <= start {
		floor = start + 1
	}

	for i := rawEnd - 1; i >= floor; i-- {
		if isSentenceEnd(text[i]) && i+1 < len(text) && isWhitespace(text[i+1]) {
			return i + 1
		}
	}
	for i := rawEnd - 1; i >= floor; i-- {
		if isWhitespace(text[i]) {
			return i
		}
	}
	return alignCut(text, start, rawEnd)
}

// alignCut backs a byte position off to the nearest rune start, so a
// window with no boundary in the lookback never cuts mid-rune. When
// alignment would stall at or before start it advances past start by
// one whole rune instead, keeping the caller's progress guarantee.
func alignCut(text string, start, pos int) int {
	for pos > start && !utf8.RuneStart(text[pos]) {
		pos--
	}
	if pos <= start {
		_, size := utf8.DecodeRuneInString(text[start:])
		pos = start + size
	}
	return pos
}

func isSentenceEnd(c byte) bool {
	return c == '.' || c == '!' || c == '?'
}

func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// NormalizeText unifies line endings, collapses runs of horizontal
// whitespace to a single space, collapses 3+ consecutive newlines to 2
// and trims both ends. All segment offsets refer to this form.
func NormalizeText(text string) string {
	if text == "" {
		return ""
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var b strings.Builder
	b.Grow(len(text))

	pendingSpace := false
	newlines := 0
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == ' ' || c == '\t':
			pendingSpace = true
		case c == '\n':
			pendingSpace = false
			newlines++
		default:
			if newlines > 0 {
				if newlines > 2 {
					newlines = 2
				}
				if b.Len() > 0 {
					for ; newlines > 0; newlines-- {
						b.WriteByte('\n')
					}
				}
				newlines = 0
			} else if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteByte(c)
		}
	}

	return b.String()
}
