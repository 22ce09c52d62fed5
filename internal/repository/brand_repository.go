package repository

import (
	"context"

	"catalog-admin/internal/domain"

	"github.com/google/uuid"
)

// BrandRepository defines the interface for brand data access
type BrandRepository interface {
	Create(ctx context.Context, brand *domain.Brand) error
	List(ctx context.Context) ([]*domain.Brand, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Brand, error)
}

type brandRepository struct {
	db DBTX
}

// NewBrandRepository creates a new instance of BrandRepository
func NewBrandRepository(db DBTX) BrandRepository {
	return &brandRepository{db: db}
}

// Create inserts a new brand using parameterized queries
func (r *brandRepository) Create(ctx context.Context, brand *domain.Brand) error {
	query := `
		INSERT INTO brands (id, name, description, image_path, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		brand.ID,
		brand.Name,
		brand.Description,
		brand.ImagePath,
		brand.CreatedBy,
		brand.CreatedAt,
	)

	return mapError(err, "failed to create brand")
}

// List retrieves all brands ordered by name
func (r *brandRepository) List(ctx context.Context) ([]*domain.Brand, error) {
	query := `
		SELECT id, name, description, image_path, created_by, created_at
		FROM brands
		ORDER BY name ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, mapError(err, "failed to list brands")
	}
	defer rows.Close()

	brands := []*domain.Brand{}
	for rows.Next() {
		brand := &domain.Brand{}
		if err := rows.Scan(
			&brand.ID,
			&brand.Name,
			&brand.Description,
			&brand.ImagePath,
			&brand.CreatedBy,
			&brand.CreatedAt,
		); err != nil {
			return nil, mapError(err, "failed to scan brand")
		}
		brands = append(brands, brand)
	}

	if err := rows.Err(); err != nil {
		return nil, mapError(err, "error iterating brands")
	}

	return brands, nil
}

// FindByID retrieves a brand by ID
func (r *brandRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Brand, error) {
	query := `
		SELECT id, name, description, image_path, created_by, created_at
		FROM brands
		WHERE id = $1
	`

	brand := &domain.Brand{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&brand.ID,
		&brand.Name,
		&brand.Description,
		&brand.ImagePath,
		&brand.CreatedBy,
		&brand.CreatedAt,
	)
	if err != nil {
		return nil, mapError(err, "failed to find brand %s", id)
	}

	return brand, nil
}
