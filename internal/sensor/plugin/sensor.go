// Package plugin records plugin install, update, activation and delete.
package plugin

import (
	"context"
	"strings"

	"audittrail/internal/sensor"
	"audittrail/pkg/platform/audit"
)

type Sensor struct {
	*sensor.Base
	catalog Catalog
	before  *sensor.SnapshotCache[Plugin]
}

func New(ctx context.Context, catalog Catalog, active sensor.ActiveSensors, committer sensor.Committer, opts ...sensor.Option) *Sensor {
	return &Sensor{
		Base:    sensor.New(ctx, audit.GroupPlugin, active, committer, opts...),
		catalog: catalog,
		before:  sensor.NewSnapshotCache[Plugin](),
	}
}

var adminActions = []string{
	"install-plugin", "upload-plugin", "update-plugin", "update-selected", "upgrade-plugin",
	"delete-plugin", "delete-selected",
}

// OnAdminInit snapshots installed plugins ahead of an install, update or
// delete, keyed by file, by name and by directory.
func (s *Sensor) OnAdminInit(ctx context.Context, request map[string]any) bool {
	if !sensor.RequestsAny(request, adminActions) {
		return false
	}
	if !s.IsActive(audit.SensorPluginInstall) && !s.IsActive(audit.SensorPluginUpdate) && !s.IsActive(audit.SensorPluginDelete) {
		return s.Skip(ctx, audit.SensorPluginUpdate)
	}

	plugins, err := s.catalog.Plugins(ctx)
	if err != nil {
		s.Logger().WarnContext(ctx, "plugin snapshot failed",
			"sensor_group", string(s.Group()),
			"error", err,
		)
		return false
	}
	for _, p := range plugins {
		s.before.Put(p, p.File, p.Name, pluginDir(p.File))
	}
	s.Arm()
	return true
}

// OnPluginInstall handles a finished plugin install. Replacing an existing
// plugin is recorded as an update.
func (s *Sensor) OnPluginInstall(ctx context.Context, res sensor.UpgradeResult, extract map[string]any) bool {
	if !sensor.MatchHostEvent(map[string]any{"action": "install", "type": "plugin"}, extract, sensor.LogicAnd) {
		return false
	}
	id := audit.SensorPluginInstall
	overwrite := res.Overwrite == "update-plugin" || res.Overwrite == "downgrade-plugin"
	if overwrite {
		id = audit.SensorPluginUpdate
	}
	if !s.IsActive(id) {
		return s.Skip(ctx, id)
	}
	success := s.Outcome(ctx, id, res.Success)

	var pastVersion, pastName any
	if overwrite {
		if before, ok := s.before.Get(res.DestinationName); ok {
			pastVersion = before.Attribute("Version")
			pastName = before.Attribute("Name")
		} else {
			s.Degraded(ctx, id, "no snapshot for "+res.DestinationName, nil)
		}
	}

	objectID := res.DestinationName
	name := sensor.NilIfEmpty(res.DestinationName)
	if current, ok := s.findInstalled(ctx, res.DestinationName); ok {
		objectID = current.File
		name = current.Attribute("Name")
	}

	var changes audit.ChangeList
	changes.ForcedInfo("OP_SUCCESS", sensor.Flag(success), nil)
	changes.Info("PLUGIN_VERSION", sensor.NilIfEmpty(res.NewVersion), pastVersion)
	changes.ForcedInfo("Name", name, pastName)

	return s.Commit(ctx, id, s.Defaults(ctx, 0, audit.ObjectPlugin, objectID), changes)
}

// OnPluginUpdate records one event per plugin named in the signal.
func (s *Sensor) OnPluginUpdate(ctx context.Context, res sensor.UpgradeResult, extract map[string]any) bool {
	if !sensor.MatchHostEvent(map[string]any{"action": "update", "type": "plugin"}, extract, sensor.LogicAnd) {
		return false
	}
	id := audit.SensorPluginUpdate
	if !s.IsActive(id) {
		return s.Skip(ctx, id)
	}
	success := s.Outcome(ctx, id, res.Success)

	files := sensor.Strings(extract["plugins"])
	if len(files) == 0 {
		return false
	}
	stored := true
	for _, file := range files {
		stored = s.recordUpdate(ctx, file, success) && stored
	}
	return stored
}

func (s *Sensor) recordUpdate(ctx context.Context, file string, success bool) bool {
	id := audit.SensorPluginUpdate

	current, found, err := s.catalog.Plugin(ctx, file)
	if err != nil || !found {
		s.Degraded(ctx, id, "current state of "+file+" unavailable", err)
		current = Plugin{File: file}
	}
	u := sensor.Update{
		Sensor:     id,
		ObjectType: audit.ObjectPlugin,
		ObjectID:   file,
		Current:    current,
		Attributes: updateAttributes,
		Success:    success,
	}
	if before, ok := s.before.Get(file); ok {
		u.Prior = before
	}
	return s.CommitUpdate(ctx, u)
}

func (s *Sensor) OnPluginActivate(ctx context.Context, file string, networkWide bool) bool {
	return s.recordToggle(ctx, audit.SensorPluginActivate, file, networkWide)
}

func (s *Sensor) OnPluginDeactivate(ctx context.Context, file string, networkWide bool) bool {
	return s.recordToggle(ctx, audit.SensorPluginDeactivate, file, networkWide)
}

func (s *Sensor) recordToggle(ctx context.Context, id audit.SensorID, file string, networkWide bool) bool {
	if !s.IsActive(id) {
		return s.Skip(ctx, id)
	}

	var changes audit.ChangeList
	p, found, err := s.catalog.Plugin(ctx, file)
	if err != nil || !found {
		s.Degraded(ctx, id, "plugin details of "+file+" unavailable", err)
		changes.ForcedInfo("Name", file, nil)
	} else {
		changes.ForcedInfo("Name", p.Attribute("Name"), nil)
		changes.Info("Version", p.Attribute("Version"), nil)
	}
	changes.ForcedInfo("NETWORK_WIDE", sensor.Flag(networkWide), nil)

	return s.Commit(ctx, id, s.Defaults(ctx, 0, audit.ObjectPlugin, file), changes)
}

// OnPluginDeleteAttempt keeps the plugin's description for OnPluginDelete.
func (s *Sensor) OnPluginDeleteAttempt(ctx context.Context, file string) bool {
	id := audit.SensorPluginDelete
	if !s.IsActive(id) {
		return s.Skip(ctx, id)
	}

	var infos audit.ChangeList
	p, found, err := s.catalog.Plugin(ctx, file)
	if err != nil || !found {
		s.Degraded(ctx, id, "plugin details of "+file+" unavailable", err)
	} else {
		for _, attr := range detailAttributes {
			infos.Info(attr, p.Attribute(attr), nil)
		}
	}
	s.RememberDeletion(file, infos)
	return true
}

func (s *Sensor) OnPluginDelete(ctx context.Context, file string, deleted bool) bool {
	id := audit.SensorPluginDelete
	if !s.IsActive(id) {
		return s.Skip(ctx, id)
	}

	stored := s.CommitDeletion(ctx, id, audit.ObjectPlugin, file, deleted)
	s.ReleaseWhenSettled(s.before.Len())
	return stored
}

// findInstalled resolves an upgrader destination, which is a directory
// name, to the installed plugin living in it.
func (s *Sensor) findInstalled(ctx context.Context, destination string) (Plugin, bool) {
	if destination == "" {
		return Plugin{}, false
	}
	plugins, err := s.catalog.Plugins(ctx)
	if err != nil {
		return Plugin{}, false
	}
	for _, p := range plugins {
		if p.File == destination || pluginDir(p.File) == destination {
			return p, true
		}
	}
	return Plugin{}, false
}

func pluginDir(file string) string {
	dir, _, _ := strings.Cut(file, "/")
	return dir
}
