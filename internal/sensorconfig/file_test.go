package sensorconfig

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"audittrail/pkg/platform/audit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}

func TestFileOverrides(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sensors.yaml")
	writeConfig(t, path, `
anonymize_ip: true
groups:
  theme:
    disabled: [28]
  Wooc_Product:
    enabled: [17, 18]
sensors:
  29: false
  18: false
`)

	f, err := NewFile(path)
	require.NoError(t, err)

	theme, err := f.ActiveSensors(ctx, audit.GroupTheme)
	require.NoError(t, err)
	assert.Contains(t, theme, audit.SensorThemeInstall)
	assert.NotContains(t, theme, audit.SensorThemeDelete)
	assert.NotContains(t, theme, audit.SensorThemeSwitch)

	products, err := f.ActiveSensors(ctx, audit.GroupWoocProduct)
	require.NoError(t, err)
	assert.Equal(t, map[audit.SensorID]struct{}{audit.SensorWcProductCreate: {}}, products)

	assert.True(t, f.AnonymizeIP(ctx))
}

func TestFileRejectsInvalidDocuments(t *testing.T) {
	dir := t.TempDir()
	tests := map[string]string{
		"unknown group":   "groups:\n  Nope:\n    disabled: [1]\n",
		"wrong group":     "groups:\n  Theme:\n    disabled: [23]\n",
		"unknown sensor":  "sensors:\n  9999: true\n",
		"malformed yaml":  "groups: [",
		"unknown in list": "groups:\n  Theme:\n    enabled: [9999]\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".yaml")
			writeConfig(t, path, body)
			_, err := NewFile(path)
			assert.Error(t, err)
		})
	}

	_, err := NewFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestFileReloadKeepsPreviousOnError(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sensors.yaml")
	writeConfig(t, path, "sensors:\n  29: false\n")

	f, err := NewFile(path, WithDefaultAnonymize(true))
	require.NoError(t, err)
	assert.True(t, f.AnonymizeIP(ctx))

	changes := 0
	f.OnChange(func() { changes++ })

	writeConfig(t, path, "sensors: [")
	assert.Error(t, f.Reload())
	theme, _ := f.ActiveSensors(ctx, audit.GroupTheme)
	assert.NotContains(t, theme, audit.SensorThemeSwitch)
	assert.Zero(t, changes)

	writeConfig(t, path, "anonymize_ip: false\n")
	require.NoError(t, f.Reload())
	theme, _ = f.ActiveSensors(ctx, audit.GroupTheme)
	assert.Contains(t, theme, audit.SensorThemeSwitch)
	assert.False(t, f.AnonymizeIP(ctx))
	assert.Equal(t, 1, changes)
}

func TestFileWatch(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sensors.yaml")
	writeConfig(t, path, "sensors:\n  29: true\n")

	f, err := NewFile(path)
	require.NoError(t, err)
	stop, err := f.Watch()
	require.NoError(t, err)
	t.Cleanup(stop)

	writeConfig(t, path, "sensors:\n  29: false\n")

	assert.Eventually(t, func() bool {
		theme, _ := f.ActiveSensors(ctx, audit.GroupTheme)
		_, on := theme[audit.SensorThemeSwitch]
		return !on
	}, 5*time.Second, 20*time.Millisecond)
}
