package memory

import (
	"context"
	"testing"

	audit "audittrail/pkg/platform/audit"
	"audittrail/pkg/platform/sentinel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStore_PersistAssignsSequentialIDs(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()

	id1, err := s.Persist(ctx, audit.EventRecord{SensorID: audit.SensorThemeSwitch})
	require.NoError(t, err)
	id2, err := s.Persist(ctx, audit.EventRecord{SensorID: audit.SensorThemeSwitch})
	require.NoError(t, err)

	assert.Equal(t, int64(1), id1)
	assert.Equal(t, int64(2), id2)

	got, err := s.Get(ctx, id2)
	require.NoError(t, err)
	assert.Equal(t, id2, got.ID)
}

func TestInMemoryStore_StoredRecordsAreIsolated(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()

	changes := []audit.ChangeRecord{{Key: "Name", NewValue: "a"}}
	id, err := s.Persist(ctx, audit.EventRecord{Changes: changes})
	require.NoError(t, err)
	changes[0].NewValue = "mutated"

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "a", got.Changes[0].NewValue)
}

func TestInMemoryStore_SetIntegrityFull(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	id, err := s.Persist(ctx, audit.EventRecord{})
	require.NoError(t, err)

	require.NoError(t, s.SetIntegrityFull(ctx, id, "sha256:abc"))
	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "sha256:abc", got.IntegrityFull)

	err = s.SetIntegrityFull(ctx, 99, "x")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemoryStore_ListSince(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	for range 5 {
		_, err := s.Persist(ctx, audit.EventRecord{})
		require.NoError(t, err)
	}

	page, err := s.ListSince(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, int64(3), page[0].ID)
	assert.Equal(t, int64(4), page[1].ID)

	all, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	s.Clear()
	all, err = s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
