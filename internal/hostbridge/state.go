package hostbridge

import (
	"context"
	"sort"

	"audittrail/internal/sensor/plugin"
	"audittrail/internal/sensor/theme"
)

// HostState is the host's view of its installed themes and plugins as sent
// with a unit. Signals may replace it part way through.
type HostState struct {
	Themes  []theme.Theme   `json:"themes,omitempty"`
	Plugins []plugin.Plugin `json:"plugins,omitempty"`
}

// catalog serves HostState to the sensors of one unit.
type catalog struct {
	themes  map[string]theme.Theme
	plugins map[string]plugin.Plugin
}

func newCatalog() *catalog {
	return &catalog{
		themes:  make(map[string]theme.Theme),
		plugins: make(map[string]plugin.Plugin),
	}
}

// apply replaces the parts of the view that s carries. A nil list leaves
// that part alone; an empty one clears it.
func (c *catalog) apply(s *HostState) {
	if s == nil {
		return
	}
	if s.Themes != nil {
		clear(c.themes)
		for _, t := range s.Themes {
			c.themes[t.Stylesheet] = t
		}
	}
	if s.Plugins != nil {
		clear(c.plugins)
		for _, p := range s.Plugins {
			c.plugins[p.File] = p
		}
	}
}

func (c *catalog) Themes(context.Context) ([]theme.Theme, error) {
	out := make([]theme.Theme, 0, len(c.themes))
	for _, t := range c.themes {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Stylesheet < out[j].Stylesheet })
	return out, nil
}

func (c *catalog) Theme(_ context.Context, stylesheet string) (theme.Theme, bool, error) {
	t, ok := c.themes[stylesheet]
	return t, ok, nil
}

func (c *catalog) Plugins(context.Context) ([]plugin.Plugin, error) {
	out := make([]plugin.Plugin, 0, len(c.plugins))
	for _, p := range c.plugins {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].File < out[j].File })
	return out, nil
}

func (c *catalog) Plugin(_ context.Context, file string) (plugin.Plugin, bool, error) {
	p, ok := c.plugins[file]
	return p, ok, nil
}
