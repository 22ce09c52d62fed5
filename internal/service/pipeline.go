package service

import (
	"context"
	"time"

	"catalog-admin/internal/domain"
	"catalog-admin/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Deps are the collaborators shared by the catalog services
type Deps struct {
	Store    repository.Store
	Images   ImageResolver
	Audit    *AuditRecorder
	Observer Observer
	Logger   *zap.Logger
}

type pipeline struct {
	store     repository.Store
	images    ImageResolver
	validator *Validator
	audit     *AuditRecorder
	observer  Observer
	logger    *zap.Logger
	now       func() time.Time
}

func newPipeline(deps Deps) pipeline {
	observer := deps.Observer
	if observer == nil {
		observer = nopObserver{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	audit := deps.Audit
	if audit == nil {
		audit = NewAuditRecorder(logger, observer, 0)
	}
	return pipeline{
		store:     deps.Store,
		images:    deps.Images,
		validator: NewValidator(deps.Store, deps.Images),
		audit:     audit,
		observer:  observer,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// inTx runs fn in one transaction and always ends it: commit when fn
// succeeds, rollback on error or panic.
func (p *pipeline) inTx(ctx context.Context, fn func(tx repository.Tx) error) (err error) {
	tx, err := p.store.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			p.rollback(tx)
			panic(r)
		}
		if err != nil {
			p.rollback(tx)
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (p *pipeline) rollback(tx repository.Tx) {
	if err := tx.Rollback(); err != nil {
		p.logger.Error("Failed to rollback transaction", zap.Error(err))
	}
}

// run executes one audited pipeline. On failure the batch is replaced by a
// single failure record for entityID().
func (p *pipeline) run(ctx context.Context, op string, batch *AuditBatch, entityID func() string, fn func() error) error {
	start := time.Now()
	err := translateError(fn())
	p.observer.ObservePipeline(op, string(domain.CodeOf(err)), time.Since(start))

	if err != nil {
		level := p.logger.Warn
		if domain.CodeOf(err) == domain.CodeStorageFailure {
			level = p.logger.Error
		}
		level("Catalog operation failed",
			zap.String("op", op),
			zap.String("code", string(domain.CodeOf(err))),
			zap.Error(err),
		)
		batch.Fail(ctx, entityID(), err)
		return err
	}

	batch.Succeed(ctx)
	return nil
}

// uploads tracks images stored during a run so a failed run can discard them
type uploads struct {
	images ImageResolver
	paths  []string
}

func (u *uploads) resolve(ctx context.Context, field string, payload domain.ImagePayload) (string, error) {
	p, err := u.images.Resolve(ctx, field, payload)
	if err != nil {
		return "", err
	}
	u.paths = append(u.paths, p)
	return p, nil
}

func (u *uploads) discardIf(ctx context.Context, err error) {
	if err != nil && len(u.paths) > 0 {
		u.images.Discard(ctx, u.paths)
	}
}

func entityID(id *uuid.UUID) func() string {
	return func() string {
		if *id == uuid.Nil {
			return ""
		}
		return id.String()
	}
}
