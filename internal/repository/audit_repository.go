package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"catalog-admin/internal/domain"
)

// AuditRepository persists audit records outside any catalog transaction
type AuditRepository interface {
	Insert(ctx context.Context, records []domain.AuditRecord) error
	ListByEntity(ctx context.Context, entityType domain.EntityType, entityID string) ([]domain.AuditRecord, error)
}

type auditRepository struct {
	db *sql.DB
}

// NewAuditRepository creates a new instance of AuditRepository
func NewAuditRepository(db *sql.DB) AuditRepository {
	return &auditRepository{db: db}
}

// Insert writes all records in one statement
func (r *auditRepository) Insert(ctx context.Context, records []domain.AuditRecord) error {
	if len(records) == 0 {
		return nil
	}

	const columns = 8
	placeholders := make([]string, 0, len(records))
	args := make([]any, 0, len(records)*columns)
	for i, rec := range records {
		base := i * columns
		placeholders = append(placeholders, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8))
		args = append(args,
			rec.ActorID,
			rec.ActorName,
			rec.Action,
			rec.EntityType,
			rec.EntityID,
			rec.Outcome,
			rec.ErrorDetail,
			rec.Timestamp,
		)
	}

	query := `
		INSERT INTO audit_logs (actor_id, actor_name, action, entity_type, entity_id, outcome, error_detail, created_at)
		VALUES ` + strings.Join(placeholders, ", ")

	_, err := r.db.ExecContext(ctx, query, args...)
	return mapError(err, "failed to insert %d audit records", len(records))
}

func (r *auditRepository) ListByEntity(ctx context.Context, entityType domain.EntityType, entityID string) ([]domain.AuditRecord, error) {
	query := `
		SELECT actor_id, actor_name, action, entity_type, entity_id, outcome, error_detail, created_at
		FROM audit_logs
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, entityType, entityID)
	if err != nil {
		return nil, mapError(err, "failed to list audit records")
	}
	defer rows.Close()

	records := []domain.AuditRecord{}
	for rows.Next() {
		var rec domain.AuditRecord
		if err := rows.Scan(
			&rec.ActorID,
			&rec.ActorName,
			&rec.Action,
			&rec.EntityType,
			&rec.EntityID,
			&rec.Outcome,
			&rec.ErrorDetail,
			&rec.Timestamp,
		); err != nil {
			return nil, mapError(err, "failed to scan audit record")
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, mapError(err, "error iterating audit records")
	}

	return records, nil
}
