package repository

import (
	"context"

	"catalog-admin/internal/domain"

	"github.com/google/uuid"
)

// ColorRepository defines the interface for color data access
type ColorRepository interface {
	Create(ctx context.Context, color *domain.Color) error
	List(ctx context.Context) ([]*domain.Color, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Color, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CountVariants(ctx context.Context, id uuid.UUID) (int, error)
}

type colorRepository struct {
	db DBTX
}

// NewColorRepository creates a new instance of ColorRepository
func NewColorRepository(db DBTX) ColorRepository {
	return &colorRepository{db: db}
}

func (r *colorRepository) Create(ctx context.Context, color *domain.Color) error {
	query := `
		INSERT INTO colors (id, name, created_by, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.ExecContext(ctx, query, color.ID, color.Name, color.CreatedBy, color.CreatedAt)
	return mapError(err, "failed to create color")
}

func (r *colorRepository) List(ctx context.Context) ([]*domain.Color, error) {
	query := `
		SELECT id, name, created_by, created_at
		FROM colors
		ORDER BY name ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, mapError(err, "failed to list colors")
	}
	defer rows.Close()

	colors := []*domain.Color{}
	for rows.Next() {
		color := &domain.Color{}
		if err := rows.Scan(&color.ID, &color.Name, &color.CreatedBy, &color.CreatedAt); err != nil {
			return nil, mapError(err, "failed to scan color")
		}
		colors = append(colors, color)
	}

	if err := rows.Err(); err != nil {
		return nil, mapError(err, "error iterating colors")
	}

	return colors, nil
}

func (r *colorRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Color, error) {
	query := `
		SELECT id, name, created_by, created_at
		FROM colors
		WHERE id = $1
	`

	color := &domain.Color{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&color.ID, &color.Name, &color.CreatedBy, &color.CreatedAt)
	if err != nil {
		return nil, mapError(err, "failed to find color %s", id)
	}

	return color, nil
}

// Delete removes a color. Storage refuses while variants reference it.
func (r *colorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM colors WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "failed to delete color %s", id)
	}

	return expectRow(result, "color "+id.String())
}

// CountVariants counts the variants that reference a color
func (r *colorRepository) CountVariants(ctx context.Context, id uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM product_colors WHERE color_id = $1`, id).Scan(&count)
	if err != nil {
		return 0, mapError(err, "failed to count variants of color %s", id)
	}
	return count, nil
}
