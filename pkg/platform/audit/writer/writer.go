// Package writer commits assembled event records: it stamps the integrity
// head, persists through the storage collaborator and then announces the
// persisted record to observers.
//
// Commit is synchronous. Failures are reported as an unsuccessful
// CommitResult and are not retried here; retrying belongs to the store.
package writer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	audit "audittrail/pkg/platform/audit"
	"audittrail/pkg/platform/audit/integrity"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

//go:generate mockgen -source=writer.go -destination=mocks/mocks.go -package=mocks

// Store persists a record and returns the id it assigned. Ids are positive
// and distinct.
type Store interface {
	Persist(ctx context.Context, record audit.EventRecord) (int64, error)
}

// Observer is told about every successfully persisted record, once.
type Observer interface {
	Announce(ctx context.Context, record audit.EventRecord)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, record audit.EventRecord)

func (f ObserverFunc) Announce(ctx context.Context, record audit.EventRecord) { f(ctx, record) }

// Writer is safe for concurrent use once constructed.
type Writer struct {
	store     Store
	observers []Observer
	logger    *slog.Logger
	metrics   *Metrics
	tracer    trace.Tracer
}

// Option configures the Writer.
type Option func(*Writer)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Writer) {
		w.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *Metrics) Option {
	return func(w *Writer) {
		w.metrics = m
	}
}

// WithObserver registers an observer. Observers are announced to in
// registration order.
func WithObserver(o Observer) Option {
	return func(w *Writer) {
		if o != nil {
			w.observers = append(w.observers, o)
		}
	}
}

// New creates a Writer around store.
func New(store Store, opts ...Option) (*Writer, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	w := &Writer{
		store:  store,
		tracer: otel.Tracer("audittrail/writer"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return w, nil
}

// Commit stamps the integrity head, persists the record and announces it.
// Announcement happens only after a successful persist.
func (w *Writer) Commit(ctx context.Context, record audit.EventRecord) audit.CommitResult {
	ctx, span := w.tracer.Start(ctx, "audit.commit", trace.WithAttributes(
		attribute.Int("sensor_id", int(record.SensorID)),
		attribute.String("object_type", string(record.ObjectType)),
	))
	defer span.End()

	persisted, err := w.persist(ctx, record)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "commit failed")
		w.metrics.IncCommit(record.SensorID, false)
		w.logger.ErrorContext(ctx, "audit commit failed",
			"sensor_id", int(record.SensorID),
			"object_type", string(record.ObjectType),
			"object_id", record.ObjectID,
			"error", err,
		)
		return audit.CommitResult{}
	}

	span.SetAttributes(attribute.Int64("event_id", persisted.ID))
	w.metrics.IncCommit(record.SensorID, true)
	w.logger.DebugContext(ctx, "audit event committed",
		"event_id", persisted.ID,
		"sensor_id", int(persisted.SensorID),
	)

	w.announce(ctx, persisted)
	return audit.CommitResult{ID: persisted.ID, Success: true}
}

func (w *Writer) persist(ctx context.Context, record audit.EventRecord) (audit.EventRecord, error) {
	head, err := integrity.Head(record)
	if err != nil {
		return record, fmt.Errorf("%w: %w", audit.ErrCommitFailed, err)
	}
	record.ID = 0
	record.IntegrityHead = head
	record.IntegrityFull = ""

	start := time.Now()
	id, err := w.store.Persist(ctx, record)
	w.metrics.ObservePersistDuration(time.Since(start).Seconds())
	if err != nil {
		return record, fmt.Errorf("%w: %w", audit.ErrCommitFailed, err)
	}
	if id <= 0 {
		return record, fmt.Errorf("%w: store returned id %d", audit.ErrCommitFailed, id)
	}
	record.ID = id
	return record, nil
}

func (w *Writer) announce(ctx context.Context, record audit.EventRecord) {
	for _, o := range w.observers {
		w.notify(ctx, o, record)
	}
}

func (w *Writer) notify(ctx context.Context, o Observer, record audit.EventRecord) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.ErrorContext(ctx, "audit observer panicked",
				"event_id", record.ID,
				"panic", fmt.Sprint(r),
			)
		}
	}()
	o.Announce(ctx, record)
}
