package repository

import (
	"context"
	"database/sql"
	"errors"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries exposes the typed repositories over one connection or transaction
type Queries interface {
	Checker
	Brands() BrandRepository
	Colors() ColorRepository
	Sizes() SizeRepository
	NameTags() NameTagRepository
	Products() ProductRepository
	Variants() VariantRepository
}

// Tx is an open unit of work. Every Tx must end in Commit or Rollback.
type Tx interface {
	Queries
	Commit() error
	Rollback() error
}

// Store reads committed state and opens transactions
type Store interface {
	Queries
	Begin(ctx context.Context) (Tx, error)
}

type queries struct {
	db DBTX
}

func (q queries) Brands() BrandRepository     { return &brandRepository{db: q.db} }
func (q queries) Colors() ColorRepository     { return &colorRepository{db: q.db} }
func (q queries) Sizes() SizeRepository       { return &sizeRepository{db: q.db} }
func (q queries) NameTags() NameTagRepository { return &nameTagRepository{db: q.db} }
func (q queries) Products() ProductRepository { return &productRepository{db: q.db} }
func (q queries) Variants() VariantRepository { return &variantRepository{db: q.db} }

type store struct {
	queries
	db *sql.DB
}

// NewStore creates a Store backed by a postgres pool
func NewStore(db *sql.DB) Store {
	return &store{queries: queries{db: db}, db: db}
}

func (s *store) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, mapError(err, "failed to begin transaction")
	}
	return &sqlTx{queries: queries{db: tx}, tx: tx}, nil
}

type sqlTx struct {
	queries
	tx *sql.Tx
}

func (t *sqlTx) Commit() error {
	return mapError(t.tx.Commit(), "failed to commit transaction")
}

func (t *sqlTx) Rollback() error {
	err := t.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return mapError(err, "failed to rollback transaction")
}

func expectRow(result sql.Result, what string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return mapError(err, "failed to get rows affected")
	}
	if rowsAffected == 0 {
		return notFound(what)
	}
	return nil
}
