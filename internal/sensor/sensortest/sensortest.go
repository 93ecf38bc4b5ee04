// Package sensortest has collaborators for exercising sensors without a
// writer or configuration backend.
package sensortest

import (
	"context"
	"sync"

	"audittrail/pkg/platform/audit"
)

// ActiveSet is a fixed active-sensor configuration. Every group sees the
// same ids.
type ActiveSet []audit.SensorID

func (s ActiveSet) ActiveSensors(context.Context, audit.Group) (map[audit.SensorID]struct{}, error) {
	out := make(map[audit.SensorID]struct{}, len(s))
	for _, id := range s {
		out[id] = struct{}{}
	}
	return out, nil
}

// Recorder is a Committer that keeps what it was given.
type Recorder struct {
	mu      sync.Mutex
	Fail    bool
	records []audit.EventRecord
	nextID  int64
}

func (r *Recorder) Commit(_ context.Context, record audit.EventRecord) audit.CommitResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Fail {
		return audit.CommitResult{}
	}
	r.nextID++
	record.ID = r.nextID
	r.records = append(r.records, record)
	return audit.CommitResult{ID: record.ID, Success: true}
}

// Records returns a copy of the committed records in commit order.
func (r *Recorder) Records() []audit.EventRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]audit.EventRecord(nil), r.records...)
}

// Change finds the first change with key.
func Change(record audit.EventRecord, key string) (audit.ChangeRecord, bool) {
	for _, c := range record.Changes {
		if c.Key == key {
			return c, true
		}
	}
	return audit.ChangeRecord{}, false
}

// Keys lists change keys in order.
func Keys(record audit.EventRecord) []string {
	keys := make([]string, 0, len(record.Changes))
	for _, c := range record.Changes {
		keys = append(keys, c.Key)
	}
	return keys
}
