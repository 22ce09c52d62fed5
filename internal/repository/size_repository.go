package repository

import (
	"context"

	"catalog-admin/internal/domain"

	"github.com/google/uuid"
)

// SizeRepository defines the interface for size data access
type SizeRepository interface {
	Create(ctx context.Context, size *domain.Size) error
	List(ctx context.Context) ([]*domain.Size, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Size, error)
}

type sizeRepository struct {
	db DBTX
}

// NewSizeRepository creates a new instance of SizeRepository
func NewSizeRepository(db DBTX) SizeRepository {
	return &sizeRepository{db: db}
}

func (r *sizeRepository) Create(ctx context.Context, size *domain.Size) error {
	query := `
		INSERT INTO sizes (id, value, created_by, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.ExecContext(ctx, query, size.ID, size.Value, size.CreatedBy, size.CreatedAt)
	return mapError(err, "failed to create size")
}

func (r *sizeRepository) List(ctx context.Context) ([]*domain.Size, error) {
	query := `
		SELECT id, value, created_by, created_at
		FROM sizes
		ORDER BY value ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, mapError(err, "failed to list sizes")
	}
	defer rows.Close()

	sizes := []*domain.Size{}
	for rows.Next() {
		size := &domain.Size{}
		if err := rows.Scan(&size.ID, &size.Value, &size.CreatedBy, &size.CreatedAt); err != nil {
			return nil, mapError(err, "failed to scan size")
		}
		sizes = append(sizes, size)
	}

	if err := rows.Err(); err != nil {
		return nil, mapError(err, "error iterating sizes")
	}

	return sizes, nil
}

func (r *sizeRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Size, error) {
	query := `
		SELECT id, value, created_by, created_at
		FROM sizes
		WHERE id = $1
	`

	size := &domain.Size{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&size.ID, &size.Value, &size.CreatedBy, &size.CreatedAt)
	if err != nil {
		return nil, mapError(err, "failed to find size %s", id)
	}

	return size, nil
}
