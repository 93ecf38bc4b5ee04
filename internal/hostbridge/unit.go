package hostbridge

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"audittrail/internal/sensor"
	"audittrail/internal/sensor/plugin"
	"audittrail/internal/sensor/theme"
	"audittrail/pkg/platform/sentinel"
)

// Host lifecycle hooks the bridge understands.
const (
	HookAdminInit        = "admin_init"
	HookUpgraderComplete = "upgrader_process_complete"
	HookSwitchTheme      = "switch_theme"
	HookDeleteTheme      = "delete_theme"
	HookDeletedTheme     = "deleted_theme"
	HookActivatedPlugin  = "activated_plugin"
	HookDeactivatePlugin = "deactivated_plugin"
	HookDeletePlugin     = "delete_plugin"
	HookDeletedPlugin    = "deleted_plugin"
)

var knownHooks = map[string]struct{}{
	HookAdminInit: {}, HookUpgraderComplete: {}, HookSwitchTheme: {},
	HookDeleteTheme: {}, HookDeletedTheme: {}, HookActivatedPlugin: {},
	HookDeactivatePlugin: {}, HookDeletePlugin: {}, HookDeletedPlugin: {},
}

// Unit is one unit of host work: the signals one host request raised, in
// the order it raised them.
type Unit struct {
	State   *HostState `json:"state,omitempty"`
	Signals []Signal   `json:"signals"`
}

// Signal is one hook invocation. State, when present, replaces the host
// view before the hook is dispatched.
type Signal struct {
	Hook   string                `json:"hook"`
	Params map[string]any        `json:"params,omitempty"`
	Result *sensor.UpgradeResult `json:"result,omitempty"`
	State  *HostState            `json:"state,omitempty"`
}

// Result reports whether a signal produced an audit record.
type Result struct {
	Hook     string `json:"hook"`
	Recorded bool   `json:"recorded"`
}

// Validate rejects units the bridge cannot interpret.
func (u Unit) Validate() error {
	if len(u.Signals) == 0 {
		return fmt.Errorf("%w: unit has no signals", sentinel.ErrInvalidInput)
	}
	for i, s := range u.Signals {
		if _, ok := knownHooks[s.Hook]; !ok {
			return fmt.Errorf("%w: signal %d: unknown hook %q", sentinel.ErrInvalidInput, i, s.Hook)
		}
	}
	return nil
}

// Dispatcher runs units against fresh sensor instances.
type Dispatcher struct {
	active    sensor.ActiveSensors
	committer sensor.Committer
	opts      []sensor.Option
	logger    *slog.Logger
}

func NewDispatcher(active sensor.ActiveSensors, committer sensor.Committer, logger *slog.Logger, opts ...sensor.Option) *Dispatcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Dispatcher{
		active:    active,
		committer: committer,
		opts:      append([]sensor.Option{sensor.WithLogger(logger)}, opts...),
		logger:    logger,
	}
}

// unitRun owns the sensors of one unit. They are created on first use so
// a unit only loads the active sets of the groups it touches.
type unitRun struct {
	d       *Dispatcher
	catalog *catalog
	themes  *theme.Sensor
	plugins *plugin.Sensor
}

func (r *unitRun) theme(ctx context.Context) *theme.Sensor {
	if r.themes == nil {
		r.themes = theme.New(ctx, r.catalog, r.d.active, r.d.committer, r.d.opts...)
	}
	return r.themes
}

func (r *unitRun) plugin(ctx context.Context) *plugin.Sensor {
	if r.plugins == nil {
		r.plugins = plugin.New(ctx, r.catalog, r.d.active, r.d.committer, r.d.opts...)
	}
	return r.plugins
}

// Run dispatches every signal of u in order. u must be valid.
func (d *Dispatcher) Run(ctx context.Context, u Unit) []Result {
	run := &unitRun{d: d, catalog: newCatalog()}
	run.catalog.apply(u.State)

	results := make([]Result, 0, len(u.Signals))
	for _, s := range u.Signals {
		run.catalog.apply(s.State)
		results = append(results, Result{Hook: s.Hook, Recorded: run.dispatch(ctx, s)})
	}
	return results
}

func (r *unitRun) dispatch(ctx context.Context, s Signal) bool {
	p := s.Params
	switch s.Hook {
	case HookAdminInit:
		// both sensors must see the request, so no short-circuit
		t := r.theme(ctx).OnAdminInit(ctx, p)
		pl := r.plugin(ctx).OnAdminInit(ctx, p)
		return t || pl

	case HookUpgraderComplete:
		var res sensor.UpgradeResult
		if s.Result != nil {
			res = *s.Result
		}
		switch stringParam(p, "type") {
		case "theme":
			t := r.theme(ctx)
			installed := t.OnThemeInstall(ctx, res, p)
			updated := t.OnThemeUpdate(ctx, res, p)
			return installed || updated
		case "plugin":
			pl := r.plugin(ctx)
			installed := pl.OnPluginInstall(ctx, res, p)
			updated := pl.OnPluginUpdate(ctx, res, p)
			return installed || updated
		}
		return false

	case HookSwitchTheme:
		next := r.themeOrStub(ctx, stringParam(p, "new_theme"))
		var old *theme.Theme
		if name := stringParam(p, "old_theme"); name != "" {
			t := r.themeOrStub(ctx, name)
			old = &t
		}
		return r.theme(ctx).OnThemeSwitch(ctx, next, old)

	case HookDeleteTheme:
		return r.theme(ctx).OnThemeDeleteAttempt(ctx, stringParam(p, "stylesheet"))

	case HookDeletedTheme:
		return r.theme(ctx).OnThemeDelete(ctx, stringParam(p, "stylesheet"), boolParam(p, "deleted"))

	case HookActivatedPlugin:
		return r.plugin(ctx).OnPluginActivate(ctx, stringParam(p, "plugin"), boolParam(p, "network_wide"))

	case HookDeactivatePlugin:
		return r.plugin(ctx).OnPluginDeactivate(ctx, stringParam(p, "plugin"), boolParam(p, "network_wide"))

	case HookDeletePlugin:
		return r.plugin(ctx).OnPluginDeleteAttempt(ctx, stringParam(p, "plugin"))

	case HookDeletedPlugin:
		return r.plugin(ctx).OnPluginDelete(ctx, stringParam(p, "plugin"), boolParam(p, "deleted"))
	}
	return false
}

func (r *unitRun) themeOrStub(ctx context.Context, stylesheet string) theme.Theme {
	t, ok, _ := r.catalog.Theme(ctx, stylesheet)
	if !ok {
		return theme.Theme{Stylesheet: stylesheet, Name: stylesheet}
	}
	return t
}

func stringParam(p map[string]any, key string) string {
	if s, ok := p[key].(string); ok {
		return s
	}
	return ""
}

// boolParam accepts JSON booleans, numbers and the strings "1" and "true".
func boolParam(p map[string]any, key string) bool {
	switch v := p[key].(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case string:
		return v == "1" || strings.EqualFold(v, "true")
	}
	return false
}
