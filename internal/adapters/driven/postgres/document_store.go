package postgres

import (
	"context"
	"database/sql"

	"github.com/docquery-labs/docquery-core/internal/core/domain"
	"github.com/docquery-labs/docquery-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DocumentStore = (*DocumentStore)(nil)

const documentColumns = `id, project_id, filename, mime_type, status, text, vectorized, vectorized_at, created_at, updated_at`

// DocumentStore implements driven.DocumentStore using PostgreSQL
type DocumentStore struct {
	db *DB
}

// NewDocumentStore creates a new DocumentStore
func NewDocumentStore(db *DB) *DocumentStore {
	return &DocumentStore{db: db}
}

// Save creates or updates a document
func (s *DocumentStore) Save(ctx context.Context, doc *domain.Document) error {
	query := `
		INSERT INTO documents (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			filename = EXCLUDED.filename,
			mime_type = EXCLUDED.mime_type,
			status = EXCLUDED.status,
			text = EXCLUDED.text,
			vectorized = EXCLUDED.vectorized,
			vectorized_at = EXCLUDED.vectorized_at,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		doc.ID,
		doc.ProjectID,
		doc.Filename,
		doc.MimeType,
		doc.Status,
		doc.Text,
		doc.Vectorized,
		NullTime(doc.VectorizedAt),
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	return err
}

// Get retrieves a document by ID, without segments
func (s *DocumentStore) Get(ctx context.Context, id string) (*domain.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	return scanDocument(s.db.QueryRowContext(ctx, query, id))
}

// GetWithSegments retrieves a document with its segments ordered by index
func (s *DocumentStore) GetWithSegments(ctx context.Context, id string) (*domain.Document, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	segments, err := NewSegmentStore(s.db).GetByDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	doc.Segments = segments

	return doc, nil
}

// ListByProject retrieves all documents for a project with pagination
func (s *DocumentStore) ListByProject(ctx context.Context, projectID string, limit, offset int) ([]*domain.Document, error) {
	query := `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE project_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := s.db.QueryContext(ctx, query, projectID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*domain.Document
	for rows.Next() {
		doc, err := scanDocumentRow(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return docs, nil
}

// CountVectorized returns how many documents in a project are vectorized
func (s *DocumentStore) CountVectorized(ctx context.Context, projectID string) (int, error) {
	query := `SELECT COUNT(*) FROM documents WHERE project_id = $1 AND vectorized`
	var count int
	err := s.db.QueryRowContext(ctx, query, projectID).Scan(&count)
	return count, err
}

// SaveVectorized persists the document's vectorized flags and replaces
// its segment rows in a single transaction
func (s *DocumentStore) SaveVectorized(ctx context.Context, doc *domain.Document, segments []*domain.Segment) error {
	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		updateQuery := `
			UPDATE documents
			SET vectorized = $2, vectorized_at = $3, updated_at = $4
			WHERE id = $1
		`
		result, err := tx.ExecContext(ctx, updateQuery,
			doc.ID, doc.Vectorized, NullTime(doc.VectorizedAt), doc.UpdatedAt)
		if err != nil {
			return err
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rowsAffected == 0 {
			return domain.ErrNotFound
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM segments WHERE document_id = $1`, doc.ID); err != nil {
			return err
		}

		insertQuery := `
			INSERT INTO segments (id, document_id, segment_index, start_offset, end_offset, text, token_count, vector_id, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`
		stmt, err := tx.PrepareContext(ctx, insertQuery)
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

// Delete deletes a document and, via cascade, its segments
func (s *DocumentStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// DeleteByProject deletes all documents for a project
func (s *DocumentStore) DeleteByProject(ctx context.Context, projectID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE project_id = $1`, projectID)
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row *sql.Row) (*domain.Document, error) {
	doc, err := scanDocumentRow(row)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	return doc, err
}

func scanDocumentRow(row rowScanner) (*domain.Document, error) {
	var doc domain.Document
	var vectorizedAt sql.NullTime

	err := row.Scan(
		&doc.ID,
		&doc.ProjectID,
		&doc.Filename,
		&doc.MimeType,
		&doc.Status,
		&doc.Text,
		&doc.Vectorized,
		&vectorizedAt,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	doc.VectorizedAt = TimePtr(vectorizedAt)
	return &doc, nil
}
