package audit

import (
	"errors"
	"time"
)

// SystemActorID is the reserved actor id for system or automated actions.
const SystemActorID int64 = -987654321

// DefaultSiteScope is the site scope of single-tenant hosts.
const DefaultSiteScope int64 = 1

// Errors used to classify capture and commit problems. They are logged and
// counted; none of them crosses the sensor boundary into host code.
var (
	ErrMalformedChange  = errors.New("malformed change record")
	ErrCommitFailed     = errors.New("audit commit failed")
	ErrCaptureDegraded  = errors.New("before state unavailable")
	ErrAmbiguousOutcome = errors.New("ambiguous operation outcome")
)

// Actor is the principal an event is attributed to.
type Actor struct {
	UserID    int64  `json:"user_id"`
	UserName  string `json:"user_name,omitempty"`
	UserEmail string `json:"user_email,omitempty"`
}

// IsSystem reports whether the actor is the reserved system actor.
func (a Actor) IsSystem() bool { return a.UserID == SystemActorID }

// ChangeRecord describes one attribute transition. Either value may be nil.
type ChangeRecord struct {
	Key        string `json:"key"`
	NewValue   any    `json:"new_value"`
	PriorValue any    `json:"prior_value"`
}

// EventRecord is one observed mutation. ID is assigned by storage on commit
// and is zero until then.
type EventRecord struct {
	ID              int64          `json:"id"`
	OccurredAt      time.Time      `json:"occurred_at"`
	SiteScope       int64          `json:"site_scope"`
	Actor           Actor          `json:"actor"`
	SensorID        SensorID       `json:"sensor_id"`
	ObjectType      ObjectType     `json:"object_type,omitempty"`
	ObjectID        string         `json:"object_id,omitempty"`
	SourceIP        string         `json:"source_ip,omitempty"`
	SourceClient    string         `json:"source_client,omitempty"`
	Changes         []ChangeRecord `json:"changes"`
	IntegrityHead   string         `json:"integrity_head,omitempty"`
	IntegrityFull   string         `json:"integrity_full,omitempty"`
	ReplicationDone bool           `json:"replication_done"`
}

// Persisted reports whether storage has assigned an id.
func (r EventRecord) Persisted() bool { return r.ID > 0 }

// CommitResult is what the writer reports back for one record.
type CommitResult struct {
	ID      int64
	Success bool
}
