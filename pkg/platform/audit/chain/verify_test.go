package chain

import (
	"context"
	"errors"
	"testing"

	audit "audittrail/pkg/platform/audit"
	"audittrail/pkg/platform/audit/integrity"
	"audittrail/pkg/platform/audit/store/memory"
	"audittrail/pkg/platform/audit/writer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tamperingReader struct {
	inner  RecordReader
	target int64
}

func (r tamperingReader) ListSince(ctx context.Context, afterID int64, limit int) ([]audit.EventRecord, error) {
	page, err := r.inner.ListSince(ctx, afterID, limit)
	for i := range page {
		if page[i].ID == r.target {
			page[i].ObjectID = "forged"
		}
	}
	return page, err
}

type failingReader struct{}

func (failingReader) ListSince(context.Context, int64, int) ([]audit.EventRecord, error) {
	return nil, errors.New("connection reset")
}

func TestVerify_PagesThroughWholeLog(t *testing.T) {
	store := memory.NewInMemoryStore()
	chainer := New(store)
	w, err := writer.New(store, writer.WithObserver(chainer))
	require.NoError(t, err)
	commitAll(t, w, "1.0", "1.1", "1.2", "1.3", "1.4")

	rep, err := Verify(context.Background(), store, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, rep.Checked)
	assert.Equal(t, chainer.Head(), rep.Head)
	assert.Equal(t, int64(5), rep.LastID)
}

func TestVerify_EmptyLog(t *testing.T) {
	rep, err := Verify(context.Background(), memory.NewInMemoryStore(), 0)
	require.NoError(t, err)
	assert.Equal(t, 0, rep.Checked)
	assert.Equal(t, integrity.Genesis, rep.Head)
}

func TestVerify_StopsAtFirstBreak(t *testing.T) {
	store := memory.NewInMemoryStore()
	w, err := writer.New(store, writer.WithObserver(New(store)))
	require.NoError(t, err)
	commitAll(t, w, "1.0", "1.1", "1.2", "1.3")

	rep, err := Verify(context.Background(), tamperingReader{inner: store, target: 3}, 2)
	require.ErrorIs(t, err, integrity.ErrChainBroken)
	assert.Equal(t, 2, rep.Checked)
	assert.Equal(t, int64(2), rep.LastID)
}

func TestVerify_ReaderError(t *testing.T) {
	_, err := Verify(context.Background(), failingReader{}, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}
