package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"catalog-admin/internal/domain"

	"github.com/google/uuid"
)

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	SetStatus(ctx context.Context, id uuid.UUID, status domain.ProductStatus, at time.Time) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	List(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, int, error)
	LoadAggregate(ctx context.Context, id uuid.UUID, forUpdate bool) (*domain.Aggregate, error)

	LinkNameTag(ctx context.Context, link *domain.ProductNameTag) error
	UnlinkNameTag(ctx context.Context, productID, nameTagID uuid.UUID) (uuid.UUID, error)
	ListNameTagLinks(ctx context.Context, productID uuid.UUID) ([]domain.ProductNameTag, error)
}

type productRepository struct {
	db DBTX
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db DBTX) ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `id, name, description, status, brand_id, created_by, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	product := &domain.Product{}
	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.Status,
		&product.BrandID,
		&product.CreatedBy,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	return product, err
}

// Create inserts a new product using parameterized queries
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (id, name, description, status, brand_id, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Description,
		product.Status,
		product.BrandID,
		product.CreatedBy,
		product.CreatedAt,
		product.UpdatedAt,
	)

	return mapError(err, "failed to create product")
}

// Update overwrites the base fields of a product
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET name = $2, description = $3, status = $4, brand_id = $5, updated_at = $6
		WHERE id = $1
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Description,
		product.Status,
		product.BrandID,
		product.UpdatedAt,
	)
	if err != nil {
		return mapError(err, "failed to update product")
	}

	return expectRow(result, "product "+product.ID.String())
}

func (r *productRepository) SetStatus(ctx context.Context, id uuid.UUID, status domain.ProductStatus, at time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE products SET status = $2, updated_at = $3 WHERE id = $1`,
		id, status, at,
	)
	if err != nil {
		return mapError(err, "failed to set product status")
	}

	return expectRow(result, "product "+id.String())
}

// FindByID retrieves a product by ID
func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err, "failed to find product %s", id)
	}

	return product, nil
}

// List retrieves products filtered by name and brand with offset pagination
func (r *productRepository) List(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, int, error) {
	filter = filter.Normalize()

	conditions := []string{}
	args := []any{}
	argIndex := 1

	if name := strings.TrimSpace(filter.Name); name != "" {
		conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", argIndex))
		args = append(args, "%"+name+"%")
		argIndex++
	}

	if filter.BrandID != nil {
		conditions = append(conditions, fmt.Sprintf("brand_id = $%d", argIndex))
		args = append(args, *filter.BrandID)
		argIndex++
	}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, *filter.Status)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM products %s", whereClause)
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, mapError(err, "failed to count products")
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM products
		%s
		ORDER BY created_at DESC, id
		LIMIT $%d OFFSET $%d
	`, productColumns, whereClause, argIndex, argIndex+1)

	args = append(args, filter.PageSize, filter.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, mapError(err, "failed to list products")
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, 0, mapError(err, "failed to scan product")
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, mapError(err, "error iterating products")
	}

	return products, total, nil
}

// LoadAggregate reads a product with its links, variants and allocations.
// forUpdate locks the product row until the surrounding transaction ends.
func (r *productRepository) LoadAggregate(ctx context.Context, id uuid.UUID, forUpdate bool) (*domain.Aggregate, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err, "failed to load product %s", id)
	}

	links, err := r.ListNameTagLinks(ctx, id)
	if err != nil {
		return nil, err
	}

	variants, err := (&variantRepository{db: r.db}).ListByProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	return &domain.Aggregate{Product: *product, NameTags: links, Variants: variants}, nil
}

func (r *productRepository) LinkNameTag(ctx context.Context, link *domain.ProductNameTag) error {
	query := `
		INSERT INTO product_name_tags (id, product_id, name_tag_id, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(ctx, query, link.ID, link.ProductID, link.NameTagID, link.CreatedBy, link.CreatedAt)
	return mapError(err, "failed to link name tag %s", link.NameTagID)
}

// UnlinkNameTag removes a link and returns the id of the removed row
func (r *productRepository) UnlinkNameTag(ctx context.Context, productID, nameTagID uuid.UUID) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.db.QueryRowContext(ctx,
		`DELETE FROM product_name_tags WHERE product_id = $1 AND name_tag_id = $2 RETURNING id`,
		productID, nameTagID,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, mapError(err, "failed to unlink name tag %s", nameTagID)
	}
	return id, nil
}

func (r *productRepository) ListNameTagLinks(ctx context.Context, productID uuid.UUID) ([]domain.ProductNameTag, error) {
	query := `
		SELECT id, product_id, name_tag_id, created_by, created_at
		FROM product_name_tags
		WHERE product_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.db.QueryContext(ctx, query, productID)
	if err != nil {
		return nil, mapError(err, "failed to list name tag links")
	}
	defer rows.Close()

	links := []domain.ProductNameTag{}
	for rows.Next() {
		var link domain.ProductNameTag
		if err := rows.Scan(&link.ID, &link.ProductID, &link.NameTagID, &link.CreatedBy, &link.CreatedAt); err != nil {
			return nil, mapError(err, "failed to scan name tag link")
		}
		links = append(links, link)
	}

	if err := rows.Err(); err != nil {
		return nil, mapError(err, "error iterating name tag links")
	}

	return links, nil
}
