// Package chain runs the deferred chaining pass. It links each stored record
// to its predecessor's chain value, walking the log in id order.
package chain

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	audit "audittrail/pkg/platform/audit"
	"audittrail/pkg/platform/audit/integrity"
	"audittrail/pkg/platform/sentinel"
)

// DefaultGapTimeout is how long the pass waits for a missing id before
// treating it as never committed.
const DefaultGapTimeout = 10 * time.Second

// FullValueStore records the chain value of a persisted record.
type FullValueStore interface {
	SetIntegrityFull(ctx context.Context, id int64, full string) error
}

// Store is what the pass reads from and writes to.
type Store interface {
	RecordReader
	FullValueStore
}

// Chainer links records in id order, not in the order announcements arrive.
// An announcement only triggers a pass over records after the last chained
// id; at most one pass runs at a time and passes hold no lock while talking
// to the store.
//
// A missing id stops the pass until it shows up or gapTimeout elapses.
// Sequences skip ids on rolled back inserts, so a gap that outlives the
// timeout is stepped over.
type Chainer struct {
	store      Store
	logger     *slog.Logger
	pageSize   int
	gapTimeout time.Duration
	now        func() time.Time

	running atomic.Bool
	pending atomic.Bool

	mu       sync.Mutex
	head     string
	lastID   int64
	gapSince time.Time
}

// Option configures the Chainer.
type Option func(*Chainer)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Chainer) {
		c.logger = logger
	}
}

// WithResume continues an existing chain: lastID is the newest chained
// record and head its chain value.
func WithResume(lastID int64, head string) Option {
	return func(c *Chainer) {
		if head != "" {
			c.head = head
			c.lastID = lastID
		}
	}
}

func WithPageSize(n int) Option {
	return func(c *Chainer) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

func WithGapTimeout(d time.Duration) Option {
	return func(c *Chainer) {
		if d > 0 {
			c.gapTimeout = d
		}
	}
}

// WithClock overrides time.Now for gap bookkeeping.
func WithClock(now func() time.Time) Option {
	return func(c *Chainer) {
		c.now = now
	}
}

func New(store Store, opts ...Option) *Chainer {
	c := &Chainer{
		store:      store,
		head:       integrity.Genesis,
		pageSize:   DefaultPageSize,
		gapTimeout: DefaultGapTimeout,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c
}

// Announce triggers a pass. If one is already running it picks the new
// record up before returning, so the caller never waits on another pass.
func (c *Chainer) Announce(ctx context.Context, _ audit.EventRecord) {
	c.pending.Store(true)
	for c.running.CompareAndSwap(false, true) {
		for c.pending.Swap(false) {
			if _, err := c.CatchUp(ctx); err != nil {
				c.logger.ErrorContext(ctx, "integrity chain not advanced",
					"last_chained_id", c.LastID(),
					"error", err,
				)
			}
		}
		c.running.Store(false)
		if !c.pending.Load() {
			return
		}
	}
}

// Run retries stalled passes every interval until ctx is done. It also
// chains records left behind by a previous process.
func (c *Chainer) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.Announce(ctx, audit.EventRecord{})
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.Announce(ctx, audit.EventRecord{})
		}
	}
}

// CatchUp chains every contiguous record after the last chained id and
// returns how many it linked. It must not run concurrently with itself;
// Announce and Run take care of that.
func (c *Chainer) CatchUp(ctx context.Context) (int, error) {
	linked := 0
	for {
		head, lastID := c.position()
		page, err := c.store.ListSince(ctx, lastID, c.pageSize)
		if err != nil {
			return linked, fmt.Errorf("list records after %d: %w", lastID, err)
		}
		if len(page) == 0 {
			c.clearGap()
			return linked, nil
		}

		for _, r := range page {
			if r.ID != lastID+1 && !c.stepOverGap(ctx, lastID, r.ID) {
				return linked, nil
			}
			if r.IntegrityHead == "" {
				return linked, fmt.Errorf("record %d has no integrity head: %w", r.ID, sentinel.ErrInvalidState)
			}
			full := integrity.Link(head, r.IntegrityHead)
			if err := c.store.SetIntegrityFull(ctx, r.ID, full); err != nil {
				return linked, fmt.Errorf("store chain value for %d: %w", r.ID, err)
			}
			c.advance(r.ID, full)
			head, lastID = full, r.ID
			linked++
		}
		if len(page) < c.pageSize {
			return linked, nil
		}
	}
}

// Head returns the current chain value.
func (c *Chainer) Head() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.head
}

// LastID returns the id of the newest chained record.
func (c *Chainer) LastID() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastID
}

func (c *Chainer) position() (string, int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.head, c.lastID
}

func (c *Chainer) advance(id int64, full string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.head = full
	c.lastID = id
	c.gapSince = time.Time{}
}

func (c *Chainer) clearGap() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gapSince = time.Time{}
}

// stepOverGap reports whether the ids between lastID and next have been
// missing for longer than the gap timeout.
func (c *Chainer) stepOverGap(ctx context.Context, lastID, next int64) bool {
	now := c.now()
	c.mu.Lock()
	if c.gapSince.IsZero() {
		c.gapSince = now
	}
	waited := now.Sub(c.gapSince)
	c.mu.Unlock()

	if waited < c.gapTimeout {
		c.logger.DebugContext(ctx, "waiting for missing audit ids",
			"after_id", lastID,
			"next_id", next,
		)
		return false
	}
	c.logger.WarnContext(ctx, "stepping over missing audit ids",
		"after_id", lastID,
		"next_id", next,
		"waited", waited,
	)
	return true
}
