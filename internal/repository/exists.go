package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Checker probes for rows by column value
type Checker interface {
	Exists(ctx context.Context, table, column string, value any) (bool, error)
	ExistsExcept(ctx context.Context, table, column string, value any, exceptID uuid.UUID) (bool, error)
	CountDistinct(ctx context.Context, table, column string, values []any) (int, error)
}

// Field selects a column of a catalog table. Only the values below exist,
// so no caller-supplied identifier ever reaches SQL.
type Field[T any] struct {
	table  string
	column string
}

func (f Field[T]) Table() string  { return f.table }
func (f Field[T]) Column() string { return f.column }

var (
	ProductID   = Field[uuid.UUID]{"products", "id"}
	ProductName = Field[string]{"products", "name"}
	BrandID     = Field[uuid.UUID]{"brands", "id"}
	BrandName   = Field[string]{"brands", "name"}
	ColorID     = Field[uuid.UUID]{"colors", "id"}
	ColorName   = Field[string]{"colors", "name"}
	SizeID      = Field[uuid.UUID]{"sizes", "id"}
	NameTagID   = Field[uuid.UUID]{"name_tags", "id"}
	NameTagTag  = Field[string]{"name_tags", "tag"}
	VariantID   = Field[uuid.UUID]{"product_colors", "id"}
)

// Exists reports whether a row with field = value exists
func Exists[T any](ctx context.Context, c Checker, f Field[T], value T) (bool, error) {
	return c.Exists(ctx, f.table, f.column, value)
}

// ExistsExcept is Exists ignoring the row with the given id
func ExistsExcept[T any](ctx context.Context, c Checker, f Field[T], value T, exceptID uuid.UUID) (bool, error) {
	return c.ExistsExcept(ctx, f.table, f.column, value, exceptID)
}

// ExistAll reports whether every id exists. An empty set trivially exists.
func ExistAll(ctx context.Context, c Checker, f Field[uuid.UUID], ids []uuid.UUID) (bool, error) {
	unique := Unique(ids)
	if len(unique) == 0 {
		return true, nil
	}
	values := make([]any, len(unique))
	for i, id := range unique {
		values[i] = id
	}
	n, err := c.CountDistinct(ctx, f.table, f.column, values)
	if err != nil {
		return false, err
	}
	return n == len(unique), nil
}

// Unique removes repeated ids, keeping first occurrences in order
func Unique(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (q queries) Exists(ctx context.Context, table, column string, value any) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE %s = $1)`, table, column)

	var exists bool
	if err := q.db.QueryRowContext(ctx, query, value).Scan(&exists); err != nil {
		return false, mapError(err, "failed to check %s.%s", table, column)
	}
	return exists, nil
}

func (q queries) ExistsExcept(ctx context.Context, table, column string, value any, exceptID uuid.UUID) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE %s = $1 AND id <> $2)`, table, column)

	var exists bool
	if err := q.db.QueryRowContext(ctx, query, value, exceptID).Scan(&exists); err != nil {
		return false, mapError(err, "failed to check %s.%s", table, column)
	}
	return exists, nil
}

func (q queries) CountDistinct(ctx context.Context, table, column string, values []any) (int, error) {
	placeholders := make([]string, len(values))
	for i := range values {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	query := fmt.Sprintf(`SELECT COUNT(DISTINCT %s) FROM %s WHERE %s IN (%s)`,
		column, table, column, strings.Join(placeholders, ", "))

	var count int
	if err := q.db.QueryRowContext(ctx, query, values...).Scan(&count); err != nil {
		return 0, mapError(err, "failed to count %s.%s", table, column)
	}
	return count, nil
}
