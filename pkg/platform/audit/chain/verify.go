package chain

import (
	"context"
	"fmt"

	audit "audittrail/pkg/platform/audit"
	"audittrail/pkg/platform/audit/integrity"
)

// DefaultPageSize bounds how many records Verify loads per query.
const DefaultPageSize = 500

// RecordReader pages through the stored log in id order.
type RecordReader interface {
	ListSince(ctx context.Context, afterID int64, limit int) ([]audit.EventRecord, error)
}

// Report summarizes a verification run.
type Report struct {
	Checked int    `json:"checked"`
	Head    string `json:"head"`
	LastID  int64  `json:"last_id"`
}

// Verify walks the whole log from the first record. It stops at the first
// break and returns the report up to that point together with an error
// wrapping integrity.ErrChainBroken.
func Verify(ctx context.Context, reader RecordReader, pageSize int) (Report, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	v := integrity.NewVerifier()
	var rep Report
	for {
		page, err := reader.ListSince(ctx, rep.LastID, pageSize)
		if err != nil {
			return report(rep, v), fmt.Errorf("list records after %d: %w", rep.LastID, err)
		}
		for _, r := range page {
			if err := v.Next(r); err != nil {
				return report(rep, v), err
			}
			rep.LastID = r.ID
		}
		if len(page) < pageSize {
			return report(rep, v), nil
		}
		if err := ctx.Err(); err != nil {
			return report(rep, v), err
		}
	}
}

func report(rep Report, v *integrity.Verifier) Report {
	rep.Checked = v.Checked()
	rep.Head = v.Head()
	return rep
}
