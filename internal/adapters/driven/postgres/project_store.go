package postgres

import (
	"context"
	"database/sql"

	"github.com/docquery-labs/docquery-core/internal/core/domain"
	"github.com/docquery-labs/docquery-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ProjectStore = (*ProjectStore)(nil)

// ProjectStore implements driven.ProjectStore using PostgreSQL
type ProjectStore struct {
	db *DB
}

// NewProjectStore creates a new ProjectStore
func NewProjectStore(db *DB) *ProjectStore {
	return &ProjectStore{db: db}
}

// Save creates or updates a project
func (s *ProjectStore) Save(ctx context.Context, project *domain.Project) error {
	query := `
		INSERT INTO projects (id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			updated_at = EXCLUDED.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		project.ID,
		project.Name,
		project.CreatedAt,
		project.UpdatedAt,
	)
	return err
}

// Get retrieves a project by ID
func (s *ProjectStore) Get(ctx context.Context, id string) (*domain.Project, error) {
	query := `SELECT id, name, created_at, updated_at FROM projects WHERE id = $1`

	var p domain.Project
	err := s.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.Name, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// List retrieves all projects
func (s *ProjectStore) List(ctx context.Context) ([]*domain.Project, error) {
	query := `SELECT id, name, created_at, updated_at FROM projects ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []*domain.Project
	for rows.Next() {
		var p domain.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		projects = append(projects, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return projects, nil
}

// Delete deletes a project and, via cascade, its documents and segments
func (s *ProjectStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
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
