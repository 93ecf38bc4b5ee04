// Package integrity computes the per-record head digest and the chained
// digest that links every record to its predecessor.
package integrity

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	audit "audittrail/pkg/platform/audit"

	"github.com/gowebpki/jcs"
)

// Genesis is the chain value that precedes the first record.
const Genesis = "genesis"

const digestPrefix = "sha256:"

var ErrChainBroken = errors.New("integrity chain is broken")

// headDocument is the semantic content covered by the head digest. The
// storage id and both integrity values are deliberately absent.
type headDocument struct {
	SensorID   audit.SensorID       `json:"sensor_id"`
	SiteScope  int64                `json:"site_scope"`
	Actor      audit.Actor          `json:"actor"`
	ObjectType audit.ObjectType     `json:"object_type"`
	ObjectID   string               `json:"object_id"`
	OccurredAt string               `json:"occurred_at"`
	Changes    []audit.ChangeRecord `json:"changes"`
}

// Head returns the digest over r's semantic content. Records with the
// same content produce the same head regardless of their storage id.
func Head(r audit.EventRecord) (string, error) {
	changes := r.Changes
	if changes == nil {
		changes = []audit.ChangeRecord{}
	}
	doc := headDocument{
		SensorID:   r.SensorID,
		SiteScope:  r.SiteScope,
		Actor:      r.Actor,
		ObjectType: r.ObjectType,
		ObjectID:   r.ObjectID,
		OccurredAt: r.OccurredAt.UTC().Format(time.RFC3339Nano),
		Changes:    changes,
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal head document: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("canonicalize head document: %w", err)
	}
	return digest(canonical), nil
}

// Link returns the chain value of a record whose predecessor has chain
// value prev.
func Link(prev, head string) string {
	return digest([]byte(prev + "|" + head))
}

// VerifyChain recomputes every head and chain value in order. The first
// record must link to Genesis. An altered, reordered or removed record
// yields ErrChainBroken naming the first index that fails.
func VerifyChain(records []audit.EventRecord) error {
	v := NewVerifier()
	for _, r := range records {
		if err := v.Next(r); err != nil {
			return err
		}
	}
	return nil
}

// Verifier checks a chain one record at a time, for logs too large to
// load at once. Records must be fed in id order starting with the first.
type Verifier struct {
	prev    string
	checked int
}

func NewVerifier() *Verifier {
	return &Verifier{prev: Genesis}
}

// Next verifies r against the records seen so far.
func (v *Verifier) Next(r audit.EventRecord) error {
	i := v.checked
	head, err := Head(r)
	if err != nil {
		return fmt.Errorf("%w: record %d (id %d): %w", ErrChainBroken, i, r.ID, err)
	}
	if head != r.IntegrityHead {
		return fmt.Errorf("%w: record %d (id %d) head mismatch", ErrChainBroken, i, r.ID)
	}
	full := Link(v.prev, head)
	if full != r.IntegrityFull {
		return fmt.Errorf("%w: record %d (id %d) chain mismatch", ErrChainBroken, i, r.ID)
	}
	v.prev = full
	v.checked++
	return nil
}

// Checked is the number of records verified so far.
func (v *Verifier) Checked() int { return v.checked }

// Head is the chain value of the last verified record.
func (v *Verifier) Head() string { return v.prev }

func digest(b []byte) string {
	sum := sha256.Sum256(b)
	return digestPrefix + hex.EncodeToString(sum[:])
}
