// Package sensor is the shared machinery behind every concrete sensor:
// active-sensor gating, event defaults, snapshot bookkeeping across the two
// halves of a mutation and the single path to the writer.
//
// A Base is built per unit of host work (one request, one job) and must not
// be shared across units.
package sensor

import (
	"context"
	"io"
	"log/slog"
	"time"

	"audittrail/pkg/platform/audit"
	"audittrail/pkg/platform/audit/diff"
	"audittrail/pkg/requestcontext"
)

// ActiveSensors answers which sensors of a group are switched on.
type ActiveSensors interface {
	ActiveSensors(ctx context.Context, group audit.Group) (map[audit.SensorID]struct{}, error)
}

// Committer is the integrity-chain writer as seen from a sensor.
type Committer interface {
	Commit(ctx context.Context, record audit.EventRecord) audit.CommitResult
}

// ActorResolver looks up a host user by id.
type ActorResolver interface {
	ResolveActor(ctx context.Context, userID int64) (audit.Actor, error)
}

// State is where a sensor instance is in its capture cycle.
type State int

const (
	StateIdle State = iota
	StateArmed
	StateFired
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateArmed:
		return "armed"
	case StateFired:
		return "fired"
	default:
		return "unknown"
	}
}

// Base is embedded by concrete sensors.
type Base struct {
	group     audit.Group
	active    map[audit.SensorID]struct{}
	committer Committer
	anonymize AnonymizationPolicy
	actors    ActorResolver
	diff      *diff.Engine
	siteScope int64
	deletions *SnapshotCache[audit.ChangeList]
	state     State
	logger    *slog.Logger
	metrics   *Metrics
}

// Option configures a Base.
type Option func(*Base)

func WithLogger(logger *slog.Logger) Option {
	return func(b *Base) {
		b.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(b *Base) {
		b.metrics = m
	}
}

// WithAnonymization sets the source address policy. Without it addresses
// are stored as received.
func WithAnonymization(p AnonymizationPolicy) Option {
	return func(b *Base) {
		b.anonymize = p
	}
}

// WithActorResolver enables name and email lookup for explicit actor ids.
func WithActorResolver(r ActorResolver) Option {
	return func(b *Base) {
		b.actors = r
	}
}

// WithDiffEngine sets the engine used by Diff.
func WithDiffEngine(e *diff.Engine) Option {
	return func(b *Base) {
		b.diff = e
	}
}

// WithSiteScope sets the scope used when the request carries none.
func WithSiteScope(scope int64) Option {
	return func(b *Base) {
		if scope > 0 {
			b.siteScope = scope
		}
	}
}

// New resolves group's active set once; later changes to the configuration
// do not affect this instance. A lookup failure leaves the set empty, so the
// instance records nothing.
func New(ctx context.Context, group audit.Group, active ActiveSensors, committer Committer, opts ...Option) *Base {
	b := &Base{
		group:     group,
		committer: committer,
		siteScope: audit.DefaultSiteScope,
		deletions: NewSnapshotCache[audit.ChangeList](),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if b.diff == nil {
		b.diff = diff.New()
	}

	b.active = make(map[audit.SensorID]struct{})
	if active == nil {
		return b
	}
	set, err := active.ActiveSensors(ctx, group)
	if err != nil {
		b.logger.WarnContext(ctx, "active sensor lookup failed, group disabled for this unit",
			"sensor_group", string(group),
			"error", err,
		)
		return b
	}
	for id := range set {
		b.active[id] = struct{}{}
	}
	return b
}

func (b *Base) Group() audit.Group { return b.group }

func (b *Base) State() State { return b.state }

func (b *Base) Logger() *slog.Logger { return b.logger }

func (b *Base) Diff() *diff.Engine { return b.diff }

// IsActive is a set lookup against the set retained at construction.
func (b *Base) IsActive(id audit.SensorID) bool {
	_, ok := b.active[id]
	return ok
}

// Skip records a gate-closed signal and returns the neutral result.
func (b *Base) Skip(ctx context.Context, id audit.SensorID) bool {
	b.metrics.incSkipped(id)
	b.logger.DebugContext(ctx, "skipping inactive sensor",
		"sensor_id", int(id),
		"sensor_group", string(b.group),
	)
	return false
}

// Arm notes that before state was captured.
func (b *Base) Arm() {
	b.state = StateArmed
}

// Release returns the instance to idle.
func (b *Base) Release() {
	b.state = StateIdle
}

// ReleaseWhenSettled releases the instance once no deletion is pending and
// the caller holds no snapshots of its own.
func (b *Base) ReleaseWhenSettled(heldSnapshots int) {
	if heldSnapshots == 0 && b.deletions.Len() == 0 {
		b.Release()
	}
}

// Degraded notes that before state is missing or partial. The capture
// continues with what is available.
func (b *Base) Degraded(ctx context.Context, id audit.SensorID, reason string, err error) {
	b.metrics.incDegraded(id)
	attrs := []any{
		"sensor_id", int(id),
		"reason", reason,
	}
	if err != nil {
		attrs = append(attrs, "error", err)
	}
	b.logger.WarnContext(ctx, audit.ErrCaptureDegraded.Error(), attrs...)
}

// Outcome turns a host success indicator into the recorded one. A missing
// indicator counts as failure.
func (b *Base) Outcome(ctx context.Context, id audit.SensorID, success *bool) bool {
	if success == nil {
		b.metrics.incAmbiguous(id)
		b.logger.WarnContext(ctx, audit.ErrAmbiguousOutcome.Error()+", recording failure",
			"sensor_id", int(id),
		)
		return false
	}
	return *success
}

// Defaults builds a draft record. actorID 0 means "whoever is acting":
// the request principal, or the system actor when there is none.
func (b *Base) Defaults(ctx context.Context, actorID int64, objectType audit.ObjectType, objectID string) audit.EventRecord {
	record := audit.EventRecord{
		OccurredAt:   requestcontext.Now(ctx).UTC().Truncate(time.Microsecond),
		SiteScope:    b.resolveSiteScope(ctx),
		Actor:        b.resolveActor(ctx, actorID),
		ObjectType:   objectType,
		ObjectID:     objectID,
		SourceIP:     b.resolveSourceIP(ctx),
		SourceClient: requestcontext.UserAgent(ctx),
	}
	return record
}

// Commit merges changes into draft, drops malformed records and hands the
// result to the writer. It is the only way a sensor produces an event.
func (b *Base) Commit(ctx context.Context, id audit.SensorID, draft audit.EventRecord, changes []audit.ChangeRecord) bool {
	clean, dropped := audit.SanitizeChanges(changes)
	if dropped > 0 {
		b.metrics.addDropped(dropped)
		b.logger.DebugContext(ctx, "dropped malformed change records",
			"sensor_id", int(id),
			"dropped", dropped,
		)
	}

	draft.ID = 0
	draft.SensorID = id
	draft.Changes = clean
	draft.IntegrityHead = ""
	draft.IntegrityFull = ""
	draft.ReplicationDone = false

	b.state = StateFired
	if b.committer == nil {
		b.logger.ErrorContext(ctx, audit.ErrCommitFailed.Error()+": no writer configured",
			"sensor_id", int(id),
		)
		return false
	}
	res := b.committer.Commit(ctx, draft)
	if !res.Success {
		b.logger.ErrorContext(ctx, audit.ErrCommitFailed.Error(),
			"sensor_id", int(id),
			"object_type", string(draft.ObjectType),
			"object_id", draft.ObjectID,
		)
	}
	return res.Success
}

func (b *Base) resolveSiteScope(ctx context.Context) int64 {
	if scope := requestcontext.SiteID(ctx); scope > 0 {
		return scope
	}
	return b.siteScope
}

func (b *Base) resolveActor(ctx context.Context, actorID int64) audit.Actor {
	if actorID != 0 {
		actor := audit.Actor{UserID: actorID}
		if b.actors == nil {
			return actor
		}
		resolved, err := b.actors.ResolveActor(ctx, actorID)
		if err != nil {
			b.logger.DebugContext(ctx, "actor lookup failed, keeping bare id",
				"user_id", actorID,
				"error", err,
			)
			return actor
		}
		resolved.UserID = actorID
		return resolved
	}
	if p, ok := requestcontext.Principal(ctx); ok && p.UserID != 0 {
		return audit.Actor{UserID: p.UserID, UserName: p.Name, UserEmail: p.Email}
	}
	return audit.Actor{UserID: audit.SystemActorID}
}

func (b *Base) resolveSourceIP(ctx context.Context) string {
	ip := requestcontext.ClientIP(ctx)
	if ip == "" || ip == "unknown" {
		return ""
	}
	if b.anonymize != nil && b.anonymize.AnonymizeIP(ctx) {
		return AnonymizeIP(ip)
	}
	return ip
}
