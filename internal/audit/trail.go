package audit

import (
	"context"
	"errors"
	"log/slog"

	"tutela/internal/domain"
	"tutela/internal/identifier"
	dErrors "tutela/pkg/domain-errors"
	"tutela/pkg/requestcontext"
)

// Trail is the append-only audit log fronting a Store. Every mutating
// operation in the registries and the rights coordinator emits one event
// here; the regulation engine only reads.
//
// Append failures surface to the caller: losing audit events silently would
// defeat the subsystem's purpose.
type Trail struct {
	store  Store
	ids    identifier.Generator
	logger *slog.Logger
	mirror chan<- domain.AuditEvent
}

// Option configures the Trail.
type Option func(*Trail)

// WithLogger sets a logger for mirror-drop warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Trail) { t.logger = logger }
}

// WithMirror fans every appended event into ch (non-blocking). Used to feed
// the Kafka mirror without coupling the trail to a broker client.
func WithMirror(ch chan<- domain.AuditEvent) Option {
	return func(t *Trail) { t.mirror = ch }
}

// NewTrail constructs a Trail. The generator should produce sortable ids
// (ULID) so event ids track creation order across stores.
func NewTrail(store Store, ids identifier.Generator, opts ...Option) *Trail {
	t := &Trail{store: store, ids: ids, logger: slog.Default()}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Append assigns id and timestamp if absent, persists the event, and fans it
// out to the mirror. The store write is the critical path; a failure is
// returned as an unavailable-class error after wrapping.
func (t *Trail) Append(ctx context.Context, event domain.AuditEvent) error {
	if event.ID == "" {
		event.ID = t.ids.NewID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.Actor == "" {
		event.Actor = requestcontext.ActorID(ctx)
	}

	if err := t.store.Append(ctx, &event); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return dErrors.Wrap(err, dErrors.CodeTimeout, "audit append timed out")
		}
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "audit append failed")
	}

	if t.mirror != nil {
		select {
		case t.mirror <- event:
		default:
			// The durable store already has the event; the mirror is
			// best-effort and must not block the request path.
			t.logger.WarnContext(ctx, "audit mirror backlog full, dropping event",
				"event_id", event.ID,
				"action", event.Action,
			)
		}
	}
	return nil
}

// Query returns events matching the filter, newest first.
func (t *Trail) Query(ctx context.Context, filter Filter) ([]domain.AuditEvent, error) {
	events, err := t.store.Query(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "audit query failed")
	}
	return events, nil
}
