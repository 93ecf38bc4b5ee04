package audit

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_IDsAreContiguousAndStable(t *testing.T) {
	regs := Registrations()
	require.Len(t, regs, 143)
	for i, r := range regs {
		assert.Equal(t, SensorID(i+1), r.ID)
		assert.NotEmpty(t, r.Label)
		assert.NotEmpty(t, r.Group)
	}

	// Stored logs depend on these numbers.
	assert.Equal(t, SensorID(27), SensorThemeInstall)
	assert.Equal(t, SensorID(28), SensorThemeDelete)
	assert.Equal(t, SensorID(29), SensorThemeSwitch)
	assert.Equal(t, SensorID(30), SensorThemeUpdate)
	assert.Equal(t, SensorID(31), SensorPluginUpdate)
}

func TestRegistry_Lookup(t *testing.T) {
	r, ok := Lookup(SensorThemeUpdate)
	require.True(t, ok)
	assert.Equal(t, GroupTheme, r.Group)
	assert.Equal(t, CategoryCore, r.Category)
	assert.True(t, r.DefaultActive)

	_, ok = Lookup(SensorID(999))
	assert.False(t, ok)
	assert.False(t, SensorID(0).Valid())
	assert.Equal(t, "sensor(999)", SensorID(999).String())
}

func TestRegistry_SensorsOfGroup(t *testing.T) {
	regs := SensorsOfGroup(GroupTheme)
	ids := make([]SensorID, 0, len(regs))
	for _, r := range regs {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []SensorID{SensorThemeInstall, SensorThemeDelete, SensorThemeSwitch, SensorThemeUpdate}, ids)
}

func TestRegistry_SensorsOfModule(t *testing.T) {
	regs := SensorsOfModule("wada-cf7")
	require.Len(t, regs, 4)
	for _, r := range regs {
		assert.Equal(t, CategoryPlugin, r.Category)
		assert.False(t, r.DefaultActive, "extension sensors start inactive")
	}
	assert.Empty(t, SensorsOfModule("unknown"))
}

func TestNormalizeGroup(t *testing.T) {
	g, ok := NormalizeGroup("  theme ")
	require.True(t, ok)
	assert.Equal(t, GroupTheme, g)

	_, ok = NormalizeGroup("nope")
	assert.False(t, ok)
}

func TestObjectType_Domain(t *testing.T) {
	assert.Equal(t, DomainCore, ObjectUser.Domain())
	assert.Equal(t, DomainCore, ObjectTheme.Domain())
	assert.Equal(t, DomainExtension, ObjectAcfCpt.Domain())
	assert.True(t, ObjectType("").Valid())
	assert.False(t, ObjectType("XYZ").Valid())
}

func TestChangeList(t *testing.T) {
	t.Run("info skips nil values", func(t *testing.T) {
		var l ChangeList
		l.Info("a", nil, "x")
		l.Info("b", "new", nil)
		require.Len(t, l, 1)
		assert.Equal(t, ChangeRecord{Key: "b", NewValue: "new"}, l[0])
	})

	t.Run("forced info is always recorded", func(t *testing.T) {
		var l ChangeList
		l.ForcedInfo("Name", "Theme-X", "Theme-X")
		l.ForcedInfo("DELETION_RESULT", 0, nil)
		require.Len(t, l, 2)
	})

	t.Run("info if changed compares text", func(t *testing.T) {
		var l ChangeList
		l.InfoIfChanged("same", 1, "1")
		l.InfoIfChanged("nil-empty", nil, "")
		l.InfoIfChanged("diff", "1.1", "1.0")
		require.Len(t, l, 1)
		assert.Equal(t, "diff", l[0].Key)
	})
}

func TestSanitizeChanges(t *testing.T) {
	in := []ChangeRecord{
		{Key: "ok", NewValue: 1},
		{Key: "", NewValue: 1},
		{Key: "nan", NewValue: math.NaN()},
		{Key: "chan", PriorValue: make(chan int)},
		{Key: "nil-both"},
	}
	out, dropped := SanitizeChanges(in)
	assert.Equal(t, 3, dropped)
	require.Len(t, out, 2)
	assert.Equal(t, "ok", out[0].Key)
	assert.Equal(t, "nil-both", out[1].Key)
}

func TestActor_IsSystem(t *testing.T) {
	assert.True(t, Actor{UserID: SystemActorID}.IsSystem())
	assert.False(t, Actor{UserID: 1}.IsSystem())
}
