package service

import (
	"context"
	"time"

	"catalog-admin/internal/domain"
	"catalog-admin/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuditSink persists audit records. Failures are reported, never retried here.
type AuditSink interface {
	Name() string
	Flush(ctx context.Context, records []domain.AuditRecord) error
}

// LogSink writes each record as a structured log entry
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger.Named("audit")}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Flush(_ context.Context, records []domain.AuditRecord) error {
	for _, rec := range records {
		fields := []zap.Field{
			zap.String("actor_id", rec.ActorID),
			zap.String("actor_name", rec.ActorName),
			zap.String("action", string(rec.Action)),
			zap.String("entity_type", string(rec.EntityType)),
			zap.String("entity_id", rec.EntityID),
			zap.Time("timestamp", rec.Timestamp),
			zap.String("outcome", string(rec.Outcome)),
		}
		if rec.Outcome == domain.OutcomeFailure {
			s.logger.Error("Audit log", append(fields, zap.String("error_detail", rec.ErrorDetail))...)
			continue
		}
		s.logger.Info("Audit log", fields...)
	}
	return nil
}

// RepositorySink stores records in the audit_logs table
type RepositorySink struct {
	repo repository.AuditRepository
}

func NewRepositorySink(repo repository.AuditRepository) *RepositorySink {
	return &RepositorySink{repo: repo}
}

func (s *RepositorySink) Name() string { return "database" }

func (s *RepositorySink) Flush(ctx context.Context, records []domain.AuditRecord) error {
	return s.repo.Insert(ctx, records)
}

// AuditRecorder hands out one batch per pipeline run and flushes it to every sink
type AuditRecorder struct {
	sinks    []AuditSink
	logger   *zap.Logger
	observer Observer
	timeout  time.Duration
	now      func() time.Time
}

func NewAuditRecorder(logger *zap.Logger, observer Observer, timeout time.Duration, sinks ...AuditSink) *AuditRecorder {
	if observer == nil {
		observer = nopObserver{}
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &AuditRecorder{
		sinks:    sinks,
		logger:   logger,
		observer: observer,
		timeout:  timeout,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Begin starts a batch for one run of action on entity by actor
func (r *AuditRecorder) Begin(actor domain.Actor, action domain.Action, entity domain.EntityType) *AuditBatch {
	return &AuditBatch{recorder: r, actor: actor, action: action, entity: entity}
}

func (r *AuditRecorder) flush(ctx context.Context, outcome domain.Outcome, records []domain.AuditRecord) {
	if len(records) == 0 {
		return
	}

	// The caller's context may already be cancelled when a run fails.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	for _, sink := range r.sinks {
		err := sink.Flush(ctx, records)
		r.observer.ObserveAuditFlush(sink.Name(), string(outcome), len(records), err)
		if err != nil {
			r.logger.Warn("Failed to flush audit records",
				zap.String("sink", sink.Name()),
				zap.Int("records", len(records)),
				zap.Error(err),
			)
		}
	}
}

// AuditBatch accumulates the records of one pipeline run
type AuditBatch struct {
	recorder *AuditRecorder
	actor    domain.Actor
	action   domain.Action
	entity   domain.EntityType
	records  []domain.AuditRecord
	done     bool
}

// Add records one successful write
func (b *AuditBatch) Add(action domain.Action, entity domain.EntityType, id uuid.UUID) {
	b.records = append(b.records, b.record(action, entity, id.String(), domain.OutcomeSuccess, ""))
}

// Records returns a copy of what has been accumulated so far
func (b *AuditBatch) Records() []domain.AuditRecord {
	out := make([]domain.AuditRecord, len(b.records))
	copy(out, b.records)
	return out
}

// Succeed flushes every accumulated record
func (b *AuditBatch) Succeed(ctx context.Context) {
	if b.done {
		return
	}
	b.done = true
	b.recorder.flush(ctx, domain.OutcomeSuccess, b.records)
}

// Fail drops accumulated records and flushes exactly one failure record
func (b *AuditBatch) Fail(ctx context.Context, entityID string, cause error) {
	if b.done {
		return
	}
	b.done = true
	b.records = []domain.AuditRecord{b.record(b.action, b.entity, entityID, domain.OutcomeFailure, cause.Error())}
	b.recorder.flush(ctx, domain.OutcomeFailure, b.records)
}

func (b *AuditBatch) record(action domain.Action, entity domain.EntityType, id string, outcome domain.Outcome, detail string) domain.AuditRecord {
	return domain.AuditRecord{
		ActorID:     b.actor.ID,
		ActorName:   b.actor.Name,
		Action:      action,
		EntityType:  entity,
		EntityID:    id,
		Timestamp:   b.recorder.now(),
		Outcome:     outcome,
		ErrorDetail: detail,
	}
}
