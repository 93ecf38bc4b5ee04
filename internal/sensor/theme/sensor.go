// Package theme records theme install, update, switch and delete.
package theme

import (
	"context"
	"fmt"

	"audittrail/internal/sensor"
	"audittrail/pkg/platform/audit"
)

// Sensor is built per unit of host work.
type Sensor struct {
	*sensor.Base
	catalog Catalog
	before  *sensor.SnapshotCache[Theme]
}

func New(ctx context.Context, catalog Catalog, active sensor.ActiveSensors, committer sensor.Committer, opts ...sensor.Option) *Sensor {
	return &Sensor{
		Base:    sensor.New(ctx, audit.GroupTheme, active, committer, opts...),
		catalog: catalog,
		before:  sensor.NewSnapshotCache[Theme](),
	}
}

var adminActions = []string{
	"install", "update", "update-selected-themes", "upload-theme", "update-theme",
	"delete", "delete-selected",
}

// OnAdminInit snapshots every installed theme when the admin request is
// about to install, update or delete themes. Each snapshot is reachable by
// stylesheet and by name.
func (s *Sensor) OnAdminInit(ctx context.Context, request map[string]any) bool {
	if !sensor.RequestsAny(request, adminActions) {
		return false
	}
	if !s.IsActive(audit.SensorThemeInstall) && !s.IsActive(audit.SensorThemeUpdate) && !s.IsActive(audit.SensorThemeDelete) {
		return s.Skip(ctx, audit.SensorThemeUpdate)
	}

	themes, err := s.catalog.Themes(ctx)
	if err != nil {
		s.Logger().WarnContext(ctx, "theme snapshot failed",
			"sensor_group", string(s.Group()),
			"error", err,
		)
		return false
	}
	for _, t := range themes {
		s.before.Put(t, t.Stylesheet, t.Name)
	}
	s.Arm()
	return true
}

// OnThemeInstall handles a finished theme install. An install that replaced
// an existing theme is recorded as an update with the cached version as
// the prior one.
func (s *Sensor) OnThemeInstall(ctx context.Context, res sensor.UpgradeResult, extract map[string]any) bool {
	if !sensor.MatchHostEvent(map[string]any{"action": "install", "type": "theme"}, extract, sensor.LogicAnd) {
		return false
	}

	id := audit.SensorThemeInstall
	overwrite := res.Overwrite == "update-theme" || res.Overwrite == "downgrade-theme"
	if overwrite {
		id = audit.SensorThemeUpdate
	}
	if !s.IsActive(id) {
		return s.Skip(ctx, id)
	}
	success := s.Outcome(ctx, id, res.Success)

	var pastVersion, pastName any
	if overwrite {
		s.Logger().WarnContext(ctx, "theme install replaced an existing theme, recording update",
			"object_id", res.DestinationName,
		)
		if before, ok := s.before.Get(res.DestinationName); ok {
			pastVersion = before.Attribute("Version")
			pastName = before.Attribute("Name")
		} else {
			s.Degraded(ctx, id, "no snapshot for "+res.DestinationName, nil)
		}
	}

	var name any = sensor.NilIfEmpty(res.DestinationName)
	if res.DestinationName != "" {
		if current, found, err := s.catalog.Theme(ctx, res.DestinationName); err == nil && found {
			name = current.Attribute("Name")
		}
	}

	var changes audit.ChangeList
	changes.ForcedInfo("OP_SUCCESS", sensor.Flag(success), nil)
	changes.Info("THEME_VERSION", sensor.NilIfEmpty(res.NewVersion), pastVersion)
	changes.ForcedInfo("Name", name, pastName)

	return s.Commit(ctx, id, s.Defaults(ctx, 0, audit.ObjectTheme, res.DestinationName), changes)
}

// OnThemeUpdate records one event per updated theme. It reports true only
// when every record was committed.
func (s *Sensor) OnThemeUpdate(ctx context.Context, res sensor.UpgradeResult, extract map[string]any) bool {
	if !sensor.MatchHostEvent(map[string]any{"action": "update", "type": "theme"}, extract, sensor.LogicAnd) {
		return false
	}
	id := audit.SensorThemeUpdate
	if !s.IsActive(id) {
		return s.Skip(ctx, id)
	}
	success := s.Outcome(ctx, id, res.Success)

	slugs := sensor.Strings(extract["themes"])
	if len(slugs) == 0 {
		return false
	}
	stored := true
	for _, slug := range slugs {
		stored = s.recordUpdate(ctx, slug, success) && stored
	}
	return stored
}

func (s *Sensor) recordUpdate(ctx context.Context, slug string, success bool) bool {
	id := audit.SensorThemeUpdate

	current, found, err := s.catalog.Theme(ctx, slug)
	if err != nil || !found {
		s.Degraded(ctx, id, "current state of "+slug+" unavailable", err)
		current = Theme{Stylesheet: slug}
	}
	u := sensor.Update{
		Sensor:     id,
		ObjectType: audit.ObjectTheme,
		ObjectID:   slug,
		Current:    current,
		Attributes: updateAttributes,
		Success:    success,
	}
	if before, ok := s.before.Get(slug); ok {
		u.Prior = before
	}
	return s.CommitUpdate(ctx, u)
}

// OnThemeSwitch records the new theme's details with the old theme's as
// prior values.
func (s *Sensor) OnThemeSwitch(ctx context.Context, newTheme Theme, oldTheme *Theme) bool {
	id := audit.SensorThemeSwitch
	if !s.IsActive(id) {
		return s.Skip(ctx, id)
	}
	return s.Commit(ctx, id, s.Defaults(ctx, 0, audit.ObjectTheme, newTheme.Stylesheet), details(newTheme, oldTheme))
}

// OnThemeDeleteAttempt keeps the theme's description, since it cannot be
// read once the delete completes.
func (s *Sensor) OnThemeDeleteAttempt(ctx context.Context, stylesheet string) bool {
	id := audit.SensorThemeDelete
	if !s.IsActive(id) {
		return s.Skip(ctx, id)
	}

	var infos audit.ChangeList
	t, found, err := s.catalog.Theme(ctx, stylesheet)
	switch {
	case err != nil:
		s.Degraded(ctx, id, "theme lookup failed", err)
	case !found:
		s.Degraded(ctx, id, fmt.Sprintf("theme %q not installed", stylesheet), nil)
	default:
		infos = details(t, nil)
	}
	s.RememberDeletion(stylesheet, infos)
	return true
}

// OnThemeDelete completes the delete flow started by OnThemeDeleteAttempt.
func (s *Sensor) OnThemeDelete(ctx context.Context, stylesheet string, deleted bool) bool {
	id := audit.SensorThemeDelete
	if !s.IsActive(id) {
		return s.Skip(ctx, id)
	}

	stored := s.CommitDeletion(ctx, id, audit.ObjectTheme, stylesheet, deleted)
	s.ReleaseWhenSettled(s.before.Len())
	return stored
}

func details(t Theme, prior *Theme) audit.ChangeList {
	var infos audit.ChangeList
	for _, attr := range detailAttributes {
		var p any
		if prior != nil {
			p = prior.Attribute(attr)
		}
		infos.Info(attr, t.Attribute(attr), p)
	}
	return infos
}
