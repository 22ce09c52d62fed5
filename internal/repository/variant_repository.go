package repository

import (
	"context"

	"catalog-admin/internal/domain"

	"github.com/google/uuid"
)

// VariantRepository defines data access for product colors and their size allocations
type VariantRepository interface {
	Create(ctx context.Context, variant *domain.ProductColor) error
	Update(ctx context.Context, variant *domain.ProductColor) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Variant, error)
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]domain.Variant, error)

	CreateAllocation(ctx context.Context, allocation *domain.ProductColorSize) error
	UpdateAllocationQuantity(ctx context.Context, id uuid.UUID, quantity int) error
	DeleteAllocation(ctx context.Context, id uuid.UUID) error
}

type variantRepository struct {
	db DBTX
}

// NewVariantRepository creates a new instance of VariantRepository
func NewVariantRepository(db DBTX) VariantRepository {
	return &variantRepository{db: db}
}

func (r *variantRepository) Create(ctx context.Context, variant *domain.ProductColor) error {
	query := `
		INSERT INTO product_colors (id, product_id, color_id, price, image_paths, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		variant.ID,
		variant.ProductID,
		variant.ColorID,
		variant.Price,
		domain.JoinImages(variant.Images),
		variant.CreatedAt,
	)

	return mapError(err, "failed to create variant for color %s", variant.ColorID)
}

// Update overwrites color, price and images of a variant
func (r *variantRepository) Update(ctx context.Context, variant *domain.ProductColor) error {
	query := `
		UPDATE product_colors
		SET color_id = $2, price = $3, image_paths = $4
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, variant.ID, variant.ColorID, variant.Price, domain.JoinImages(variant.Images))
	if err != nil {
		return mapError(err, "failed to update variant %s", variant.ID)
	}

	return expectRow(result, "variant "+variant.ID.String())
}

func (r *variantRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Variant, error) {
	query := `
		SELECT id, product_id, color_id, price, image_paths, created_at
		FROM product_colors
		WHERE id = $1
	`

	variant := &domain.Variant{}
	var images string
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&variant.ID,
		&variant.ProductID,
		&variant.ColorID,
		&variant.Price,
		&images,
		&variant.CreatedAt,
	)
	if err != nil {
		return nil, mapError(err, "failed to find variant %s", id)
	}
	variant.Images = domain.SplitImages(images)

	sizes, err := r.listAllocations(ctx, `WHERE pcs.product_color_id = $1`, id)
	if err != nil {
		return nil, err
	}
	variant.Sizes = sizes[id]
	if variant.Sizes == nil {
		variant.Sizes = []domain.ProductColorSize{}
	}

	return variant, nil
}

// ListByProduct returns the variants of a product in creation order
func (r *variantRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]domain.Variant, error) {
	query := `
		SELECT id, product_id, color_id, price, image_paths, created_at
		FROM product_colors
		WHERE product_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, mapError(err, "failed to list variants")
	}

	variants := []domain.Variant{}
	for rows.Next() {
		var variant domain.Variant
		var images string
		if err := rows.Scan(
			&variant.ID,
			&variant.ProductID,
			&variant.ColorID,
			&variant.Price,
			&images,
			&variant.CreatedAt,
		); err != nil {
			rows.Close()
			return nil, mapError(err, "failed to scan variant")
		}
		variant.Images = domain.SplitImages(images)
		variants = append(variants, variant)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, mapError(err, "error iterating variants")
	}

	// Allocations are read after the variant cursor is closed; a transaction
	// holds a single connection.
	sizes, err := r.listAllocations(ctx,
		`JOIN product_colors pc ON pc.id = pcs.product_color_id WHERE pc.product_id = $1`, productID)
	if err != nil {
		return nil, err
	}
	for i := range variants {
		variants[i].Sizes = sizes[variants[i].ID]
		if variants[i].Sizes == nil {
			variants[i].Sizes = []domain.ProductColorSize{}
		}
	}

	return variants, nil
}

func (r *variantRepository) listAllocations(ctx context.Context, where string, arg any) (map[uuid.UUID][]domain.ProductColorSize, error) {
	query := `
		SELECT pcs.id, pcs.product_color_id, pcs.size_id, pcs.quantity
		FROM product_color_sizes pcs
		` + where + `
		ORDER BY pcs.product_color_id, pcs.id
	`

	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, mapError(err, "failed to list allocations")
	}
	defer rows.Close()

	byVariant := make(map[uuid.UUID][]domain.ProductColorSize)
	for rows.Next() {
		var a domain.ProductColorSize
		if err := rows.Scan(&a.ID, &a.ProductColorID, &a.SizeID, &a.Quantity); err != nil {
			return nil, mapError(err, "failed to scan allocation")
		}
		byVariant[a.ProductColorID] = append(byVariant[a.ProductColorID], a)
	}

	if err := rows.Err(); err != nil {
		return nil, mapError(err, "error iterating allocations")
	}

	return byVariant, nil
}

func (r *variantRepository) CreateAllocation(ctx context.Context, allocation *domain.ProductColorSize) error {
	query := `
		INSERT INTO product_color_sizes (id, product_color_id, size_id, quantity)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.ExecContext(ctx, query, allocation.ID, allocation.ProductColorID, allocation.SizeID, allocation.Quantity)
	return mapError(err, "failed to create allocation for size %s", allocation.SizeID)
}

func (r *variantRepository) UpdateAllocationQuantity(ctx context.Context, id uuid.UUID, quantity int) error {
	result, err := r.db.ExecContext(ctx, `UPDATE product_color_sizes SET quantity = $2 WHERE id = $1`, id, quantity)
	if err != nil {
		return mapError(err, "failed to update allocation %s", id)
	}

	return expectRow(result, "allocation "+id.String())
}

func (r *variantRepository) DeleteAllocation(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM product_color_sizes WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "failed to delete allocation %s", id)
	}

	return expectRow(result, "allocation "+id.String())
}
