package theme

import (
	"context"
	"errors"
	"testing"

	"audittrail/internal/sensor"
	"audittrail/internal/sensor/sensortest"
	"audittrail/pkg/platform/audit"
	"audittrail/pkg/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type catalog struct {
	themes map[string]Theme
	err    error
}

func newCatalog(themes ...Theme) *catalog {
	c := &catalog{themes: make(map[string]Theme)}
	for _, t := range themes {
		c.themes[t.Stylesheet] = t
	}
	return c
}

func (c *catalog) Themes(context.Context) ([]Theme, error) {
	if c.err != nil {
		return nil, c.err
	}
	out := make([]Theme, 0, len(c.themes))
	for _, t := range c.themes {
		out = append(out, t)
	}
	return out, nil
}

func (c *catalog) Theme(_ context.Context, stylesheet string) (Theme, bool, error) {
	if c.err != nil {
		return Theme{}, false, c.err
	}
	t, ok := c.themes[stylesheet]
	return t, ok, nil
}

var allThemeSensors = sensortest.ActiveSet{
	audit.SensorThemeInstall, audit.SensorThemeDelete, audit.SensorThemeSwitch, audit.SensorThemeUpdate,
}

func ptr(b bool) *bool { return &b }

func updateExtract(themes ...string) map[string]any {
	list := make([]any, len(themes))
	for i, t := range themes {
		list[i] = t
	}
	return map[string]any{"action": "update", "type": "theme", "themes": list}
}

func TestThemeUpdate(t *testing.T) {
	ctx := context.Background()

	testutil.Given(t, "Theme-X 1.0 was snapshotted before the update", func(t *testing.T) {
		cat := newCatalog(Theme{Stylesheet: "theme-x", Name: "Theme-X", Version: "1.0", Author: "Acme"})
		rec := &sensortest.Recorder{}
		s := New(ctx, cat, allThemeSensors, rec)
		require.True(t, s.OnAdminInit(ctx, map[string]any{"action": "update-selected-themes"}))
		assert.Equal(t, sensor.StateArmed, s.State())

		testutil.When(t, "the update completes with version 1.1", func(t *testing.T) {
			cat.themes["theme-x"] = Theme{Stylesheet: "theme-x", Name: "Theme-X", Version: "1.1", Author: "Acme"}
			require.True(t, s.OnThemeUpdate(ctx, sensor.UpgradeResult{Success: ptr(true)}, updateExtract("theme-x")))

			testutil.Then(t, "only the version changes, with the name forced", func(t *testing.T) {
				records := rec.Records()
				require.Len(t, records, 1)
				r := records[0]
				assert.Equal(t, audit.SensorThemeUpdate, r.SensorID)
				assert.Equal(t, audit.ObjectTheme, r.ObjectType)
				assert.Equal(t, "theme-x", r.ObjectID)
				assert.Equal(t, []string{"OP_SUCCESS", "Version", "Name"}, sensortest.Keys(r))

				version, _ := sensortest.Change(r, "Version")
				assert.Equal(t, audit.ChangeRecord{Key: "Version", NewValue: "1.1", PriorValue: "1.0"}, version)
				name, _ := sensortest.Change(r, "Name")
				assert.Equal(t, audit.ChangeRecord{Key: "Name", NewValue: "Theme-X", PriorValue: "Theme-X"}, name)
				op, _ := sensortest.Change(r, "OP_SUCCESS")
				assert.Equal(t, 1, op.NewValue)
			})
		})
	})

	testutil.Given(t, "two themes updated by one host signal", func(t *testing.T) {
		cat := newCatalog(
			Theme{Stylesheet: "alpha", Name: "Alpha", Version: "1.0"},
			Theme{Stylesheet: "beta", Name: "Beta", Version: "2.0", Status: "publish"},
		)
		rec := &sensortest.Recorder{}
		s := New(ctx, cat, allThemeSensors, rec)
		s.OnAdminInit(ctx, map[string]any{"action": "update"})
		cat.themes["alpha"] = Theme{Stylesheet: "alpha", Name: "Alpha", Version: "1.2"}
		cat.themes["beta"] = Theme{Stylesheet: "beta", Name: "Beta", Version: "2.0", Status: "draft"}

		testutil.When(t, "the bulk update completes", func(t *testing.T) {
			require.True(t, s.OnThemeUpdate(ctx, sensor.UpgradeResult{Success: ptr(true)}, updateExtract("alpha", "beta")))

			testutil.Then(t, "each theme gets its own record", func(t *testing.T) {
				records := rec.Records()
				require.Len(t, records, 2)

				assert.Equal(t, "alpha", records[0].ObjectID)
				assert.Equal(t, []string{"OP_SUCCESS", "Version", "Name"}, sensortest.Keys(records[0]))

				assert.Equal(t, "beta", records[1].ObjectID)
				assert.Equal(t, []string{"OP_SUCCESS", "Status", "Name"}, sensortest.Keys(records[1]))
				name, _ := sensortest.Change(records[1], "Name")
				assert.Equal(t, "Beta", name.NewValue)
			})
		})
	})

	testutil.Given(t, "a completion signal without a success indicator", func(t *testing.T) {
		cat := newCatalog(Theme{Stylesheet: "theme-x", Name: "Theme-X", Version: "1.0"})
		rec := &sensortest.Recorder{}
		s := New(ctx, cat, allThemeSensors, rec)
		s.OnAdminInit(ctx, map[string]any{"action": "update"})

		testutil.When(t, "the update is reported", func(t *testing.T) {
			s.OnThemeUpdate(ctx, sensor.UpgradeResult{}, updateExtract("theme-x"))

			testutil.Then(t, "it is recorded as a failure", func(t *testing.T) {
				records := rec.Records()
				require.Len(t, records, 1)
				op, ok := sensortest.Change(records[0], "OP_SUCCESS")
				require.True(t, ok)
				assert.Equal(t, 0, op.NewValue)
			})
		})
	})

	t.Run("no snapshot degrades to null prior values", func(t *testing.T) {
		cat := newCatalog(Theme{Stylesheet: "late", Name: "Late", Version: "3.0"})
		rec := &sensortest.Recorder{}
		s := New(ctx, cat, allThemeSensors, rec)

		require.True(t, s.OnThemeUpdate(ctx, sensor.UpgradeResult{Success: ptr(true)}, updateExtract("late")))
		r := rec.Records()[0]
		version, _ := sensortest.Change(r, "Version")
		assert.Equal(t, "3.0", version.NewValue)
		assert.Nil(t, version.PriorValue)
		name, _ := sensortest.Change(r, "Name")
		assert.Nil(t, name.PriorValue)
	})

	t.Run("other upgrader runs are ignored", func(t *testing.T) {
		rec := &sensortest.Recorder{}
		s := New(ctx, newCatalog(), allThemeSensors, rec)
		assert.False(t, s.OnThemeUpdate(ctx, sensor.UpgradeResult{Success: ptr(true)}, map[string]any{"action": "update", "type": "plugin"}))
		assert.Empty(t, rec.Records())
	})

	t.Run("inactive sensor commits nothing", func(t *testing.T) {
		rec := &sensortest.Recorder{}
		s := New(ctx, newCatalog(), sensortest.ActiveSet{audit.SensorThemeSwitch}, rec)
		assert.False(t, s.OnThemeUpdate(ctx, sensor.UpgradeResult{Success: ptr(true)}, updateExtract("x")))
		assert.Empty(t, rec.Records())
	})
}

func TestThemeDelete(t *testing.T) {
	ctx := context.Background()

	testutil.Given(t, "the delete attempt captured Foo Theme", func(t *testing.T) {
		cat := newCatalog(Theme{Stylesheet: "foo", Name: "Foo Theme"})
		rec := &sensortest.Recorder{}
		s := New(ctx, cat, allThemeSensors, rec)
		require.True(t, s.OnThemeDeleteAttempt(ctx, "foo"))
		delete(cat.themes, "foo")

		testutil.When(t, "the host reports the delete failed", func(t *testing.T) {
			require.True(t, s.OnThemeDelete(ctx, "foo", false))

			testutil.Then(t, "the cached description and the result are recorded", func(t *testing.T) {
				records := rec.Records()
				require.Len(t, records, 1)
				r := records[0]
				assert.Equal(t, audit.SensorThemeDelete, r.SensorID)
				assert.Equal(t, "foo", r.ObjectID)
				assert.Equal(t, []audit.ChangeRecord{
					{Key: "Name", NewValue: "Foo Theme"},
					{Key: "DELETION_RESULT", NewValue: 0},
				}, r.Changes)
				assert.Equal(t, sensor.StateIdle, s.State(), "the delete cycle is complete")
			})
		})
	})

	t.Run("delete without attempt still records the result", func(t *testing.T) {
		rec := &sensortest.Recorder{}
		s := New(ctx, newCatalog(), allThemeSensors, rec)
		require.True(t, s.OnThemeDelete(ctx, "gone", true))
		assert.Equal(t, []audit.ChangeRecord{{Key: "DELETION_RESULT", NewValue: 1}}, rec.Records()[0].Changes)
	})

	t.Run("lookup failure on attempt degrades", func(t *testing.T) {
		rec := &sensortest.Recorder{}
		s := New(ctx, &catalog{err: errors.New("host unreachable")}, allThemeSensors, rec)
		require.True(t, s.OnThemeDeleteAttempt(ctx, "foo"))
		require.True(t, s.OnThemeDelete(ctx, "foo", true))
		assert.Equal(t, []string{"DELETION_RESULT"}, sensortest.Keys(rec.Records()[0]))
	})
}

func TestThemeInstall(t *testing.T) {
	ctx := context.Background()
	extract := map[string]any{"action": "install", "type": "theme"}

	t.Run("fresh install", func(t *testing.T) {
		cat := newCatalog(Theme{Stylesheet: "astra", Name: "Astra", Version: "4.0"})
		rec := &sensortest.Recorder{}
		s := New(ctx, cat, allThemeSensors, rec)

		require.True(t, s.OnThemeInstall(ctx, sensor.UpgradeResult{Success: ptr(true), DestinationName: "astra", NewVersion: "4.0"}, extract))
		r := rec.Records()[0]
		assert.Equal(t, audit.SensorThemeInstall, r.SensorID)
		assert.Equal(t, []audit.ChangeRecord{
			{Key: "OP_SUCCESS", NewValue: 1},
			{Key: "THEME_VERSION", NewValue: "4.0"},
			{Key: "Name", NewValue: "Astra"},
		}, r.Changes)
	})

	t.Run("overwrite becomes an update with the cached version", func(t *testing.T) {
		cat := newCatalog(Theme{Stylesheet: "astra", Name: "Astra", Version: "3.9"})
		rec := &sensortest.Recorder{}
		s := New(ctx, cat, allThemeSensors, rec)
		s.OnAdminInit(ctx, map[string]any{"action": "upload-theme"})
		cat.themes["astra"] = Theme{Stylesheet: "astra", Name: "Astra", Version: "4.0"}

		require.True(t, s.OnThemeInstall(ctx, sensor.UpgradeResult{
			Success: ptr(true), Overwrite: "update-theme", DestinationName: "astra", NewVersion: "4.0",
		}, extract))
		r := rec.Records()[0]
		assert.Equal(t, audit.SensorThemeUpdate, r.SensorID)
		v, _ := sensortest.Change(r, "THEME_VERSION")
		assert.Equal(t, "3.9", v.PriorValue)
	})

	t.Run("ambiguous install is a failure", func(t *testing.T) {
		rec := &sensortest.Recorder{}
		s := New(ctx, newCatalog(), allThemeSensors, rec)
		s.OnThemeInstall(ctx, sensor.UpgradeResult{DestinationName: "x"}, extract)
		op, _ := sensortest.Change(rec.Records()[0], "OP_SUCCESS")
		assert.Equal(t, 0, op.NewValue)
	})
}

func TestThemeSwitch(t *testing.T) {
	ctx := context.Background()
	rec := &sensortest.Recorder{}
	s := New(ctx, newCatalog(), allThemeSensors, rec)

	old := Theme{Stylesheet: "old", Name: "Old", Version: "1.0", Tags: []string{"dark"}}
	next := Theme{Stylesheet: "new", Name: "New", Version: "2.0", Tags: []string{"light", "blog"}, Author: "Acme"}

	require.True(t, s.OnThemeSwitch(ctx, next, &old))
	r := rec.Records()[0]
	assert.Equal(t, "new", r.ObjectID)
	assert.Equal(t, []string{"Name", "Author", "Version", "Tags"}, sensortest.Keys(r))
	tags, _ := sensortest.Change(r, "Tags")
	assert.Equal(t, audit.ChangeRecord{Key: "Tags", NewValue: "light, blog", PriorValue: "dark"}, tags)
	author, _ := sensortest.Change(r, "Author")
	assert.Nil(t, author.PriorValue)
}

func TestAdminInit(t *testing.T) {
	ctx := context.Background()

	t.Run("unrelated admin page", func(t *testing.T) {
		s := New(ctx, newCatalog(), allThemeSensors, &sensortest.Recorder{})
		assert.False(t, s.OnAdminInit(ctx, map[string]any{"action": "edit"}))
		assert.Equal(t, sensor.StateIdle, s.State())
	})

	t.Run("snapshot reachable by name", func(t *testing.T) {
		s := New(ctx, newCatalog(Theme{Stylesheet: "tt", Name: "Twenty"}), allThemeSensors, &sensortest.Recorder{})
		require.True(t, s.OnAdminInit(ctx, map[string]any{"action": "delete-selected"}))
		assert.True(t, s.before.Has("Twenty"))
		assert.True(t, s.before.Has("tt"))
		assert.Equal(t, 1, s.before.Len())
	})

	t.Run("no lifecycle sensor active skips the snapshot", func(t *testing.T) {
		s := New(ctx, newCatalog(Theme{Stylesheet: "tt"}), sensortest.ActiveSet{audit.SensorThemeSwitch}, &sensortest.Recorder{})
		assert.False(t, s.OnAdminInit(ctx, map[string]any{"action": "install"}))
		assert.Zero(t, s.before.Len())
	})
}
