//go:build integration

package sensorconfig_test

import (
	"context"
	"testing"

	"audittrail/internal/sensorconfig"
	"audittrail/pkg/platform/audit"
	"audittrail/pkg/testutil/containers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisCache_AgainstRealRedis(t *testing.T) {
	ctx := context.Background()
	rc := containers.NewRedisContainer(t)
	cache := sensorconfig.NewRedisCache(rc.Client, sensorconfig.Registry{}, sensorconfig.WithKeyPrefix("it:active:"))

	want, err := sensorconfig.Registry{}.ActiveSensors(ctx, audit.GroupTheme)
	require.NoError(t, err)

	got, err := cache.ActiveSensors(ctx, audit.GroupTheme)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	n, err := rc.Client.Exists(ctx, "it:active:Theme").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, cache.Invalidate(ctx, audit.GroupTheme))
	n, err = rc.Client.Exists(ctx, "it:active:Theme").Result()
	require.NoError(t, err)
	assert.Zero(t, n)

	cached, err := cache.ActiveSensors(ctx, audit.GroupTheme)
	require.NoError(t, err)
	assert.Equal(t, want, cached)
}
