package repository

import (
	"context"

	"catalog-admin/internal/domain"

	"github.com/google/uuid"
)

// NameTagRepository defines the interface for name tag data access
type NameTagRepository interface {
	Create(ctx context.Context, tag *domain.NameTag) error
	List(ctx context.Context) ([]*domain.NameTag, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.NameTag, error)
}

type nameTagRepository struct {
	db DBTX
}

// NewNameTagRepository creates a new instance of NameTagRepository
func NewNameTagRepository(db DBTX) NameTagRepository {
	return &nameTagRepository{db: db}
}

func (r *nameTagRepository) Create(ctx context.Context, tag *domain.NameTag) error {
	query := `
		INSERT INTO name_tags (id, tag, created_by, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.ExecContext(ctx, query, tag.ID, tag.Tag, tag.CreatedBy, tag.CreatedAt)
	return mapError(err, "failed to create name tag")
}

func (r *nameTagRepository) List(ctx context.Context) ([]*domain.NameTag, error) {
	query := `
		SELECT id, tag, created_by, created_at
		FROM name_tags
		ORDER BY tag ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, mapError(err, "failed to list name tags")
	}
	defer rows.Close()

	tags := []*domain.NameTag{}
	for rows.Next() {
		tag := &domain.NameTag{}
		if err := rows.Scan(&tag.ID, &tag.Tag, &tag.CreatedBy, &tag.CreatedAt); err != nil {
			return nil, mapError(err, "failed to scan name tag")
		}
		tags = append(tags, tag)
	}

	if err := rows.Err(); err != nil {
		return nil, mapError(err, "error iterating name tags")
	}

	return tags, nil
}

func (r *nameTagRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.NameTag, error) {
	query := `
		SELECT id, tag, created_by, created_at
		FROM name_tags
		WHERE id = $1
	`

	tag := &domain.NameTag{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&tag.ID, &tag.Tag, &tag.CreatedBy, &tag.CreatedAt)
	if err != nil {
		return nil, mapError(err, "failed to find name tag %s", id)
	}

	return tag, nil
}
