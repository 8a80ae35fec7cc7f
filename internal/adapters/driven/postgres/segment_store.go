package postgres

import (
	"context"
	"database/sql"

	"github.com/docquery-labs/docquery-core/internal/core/domain"
	"github.com/docquery-labs/docquery-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.SegmentStore = (*SegmentStore)(nil)

const segmentColumns = `id, document_id, segment_index, start_offset, end_offset, text, token_count, vector_id, created_at`

// SegmentStore implements driven.SegmentStore using PostgreSQL
type SegmentStore struct {
	db *DB
}

// NewSegmentStore creates a new SegmentStore
func NewSegmentStore(db *DB) *SegmentStore {
	return &SegmentStore{db: db}
}

// SaveBatch saves multiple segments in a transaction
func (s *SegmentStore) SaveBatch(ctx context.Context, segments []*domain.Segment) error {
	if len(segments) == 0 {
		return nil
	}

	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO segments (` + segmentColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (document_id, segment_index) DO UPDATE SET
				id = EXCLUDED.id,
				start_offset = EXCLUDED.start_offset,
				end_offset = EXCLUDED.end_offset,
				text = EXCLUDED.text,
				token_count = EXCLUDED.token_count,
				vector_id = EXCLUDED.vector_id,
				created_at = EXCLUDED.created_at
		`

		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, seg := range segments {
			_, err := stmt.ExecContext(ctx,
				seg.ID,
				seg.DocumentID,
				seg.Index,
				seg.StartOffset,
				seg.EndOffset,
				seg.Text,
				seg.TokenCount,
				seg.VectorID,
				seg.CreatedAt,
			)
			if err != nil {
				return err
			}
		}

		return nil
	})
}

// GetByDocument retrieves all segments for a document ordered by index
func (s *SegmentStore) GetByDocument(ctx context.Context, documentID string) ([]*domain.Segment, error) {
	query := `
		SELECT ` + segmentColumns + `
		FROM segments
		WHERE document_id = $1
		ORDER BY segment_index
	`

	rows, err := s.db.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var segments []*domain.Segment
	for rows.Next() {
		seg, err := scanSegment(rows)
		if err != nil {
			return nil, err
		}
		segments = append(segments, seg)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return segments, nil
}

// GetByPosition retrieves the segment at (documentID, index)
func (s *SegmentStore) GetByPosition(ctx context.Context, documentID string, index int) (*domain.Segment, error) {
	query := `
		SELECT ` + segmentColumns + `
		FROM segments
		WHERE document_id = $1 AND segment_index = $2
	`

	seg, err := scanSegment(s.db.QueryRowContext(ctx, query, documentID, index))
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	return seg, err
}

// DeleteByDocument deletes all segments for a document
func (s *SegmentStore) DeleteByDocument(ctx context.Context, documentID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM segments WHERE document_id = $1`, documentID)
	return err
}

func scanSegment(row rowScanner) (*domain.Segment, error) {
	var seg domain.Segment
	err := row.Scan(
		&seg.ID,
		&seg.DocumentID,
		&seg.Index,
		&seg.StartOffset,
		&seg.EndOffset,
		&seg.Text,
		&seg.TokenCount,
		&seg.VectorID,
		&seg.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &seg, nil
}
