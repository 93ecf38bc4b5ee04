package sensorconfig

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"audittrail/pkg/platform/audit"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Document is the YAML layout of the active-sensor file:
//
//	anonymize_ip: true
//	groups:
//	  Theme:
//	    disabled: [28]
//	  Wooc_Product:
//	    enabled: [17, 18]
//	sensors:
//	  29: false
//
// Per-sensor entries win over group lists, which win over the defaults.
type Document struct {
	AnonymizeIP *bool                     `yaml:"anonymize_ip"`
	Groups      map[string]GroupOverrides `yaml:"groups"`
	Sensors     map[int]bool              `yaml:"sensors"`
}

type GroupOverrides struct {
	Enabled  []int `yaml:"enabled"`
	Disabled []int `yaml:"disabled"`
}

// state is a validated Document.
type state struct {
	anonymize *bool
	overrides map[audit.SensorID]bool
}

// File serves the active set from a YAML file on top of the registry
// defaults. It also acts as the IP anonymization policy.
type File struct {
	path             string
	defaultAnonymize bool
	logger           *slog.Logger

	mu       sync.RWMutex
	current  state
	onChange []func()
}

type FileOption func(*File)

func WithFileLogger(logger *slog.Logger) FileOption {
	return func(f *File) {
		f.logger = logger
	}
}

// WithDefaultAnonymize is used when the file has no anonymize_ip entry.
func WithDefaultAnonymize(enabled bool) FileOption {
	return func(f *File) {
		f.defaultAnonymize = enabled
	}
}

// NewFile loads path. The file must exist and be valid.
func NewFile(path string, opts ...FileOption) (*File, error) {
	f := &File{path: filepath.Clean(path)}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	st, err := f.load()
	if err != nil {
		return nil, err
	}
	f.current = st
	return f, nil
}

func (f *File) ActiveSensors(_ context.Context, group audit.Group) (map[audit.SensorID]struct{}, error) {
	f.mu.RLock()
	overrides := f.current.overrides
	f.mu.RUnlock()

	active := defaults(group)
	for _, reg := range audit.SensorsOfGroup(group) {
		on, ok := overrides[reg.ID]
		if !ok {
			continue
		}
		if on {
			active[reg.ID] = struct{}{}
		} else {
			delete(active, reg.ID)
		}
	}
	return active, nil
}

func (f *File) AnonymizeIP(context.Context) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.current.anonymize != nil {
		return *f.current.anonymize
	}
	return f.defaultAnonymize
}

// OnChange registers a callback run after every successful reload.
func (f *File) OnChange(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onChange = append(f.onChange, fn)
}

// Reload re-reads the file. On error the previous configuration stays.
func (f *File) Reload() error {
	st, err := f.load()
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.current = st
	callbacks := make([]func(), len(f.onChange))
	copy(callbacks, f.onChange)
	f.mu.Unlock()
	for _, fn := range callbacks {
		fn()
	}
	return nil
}

// Watch reloads the file whenever it is written or replaced. The
// directory is watched so editors that save by rename are seen too.
// Call stop to end watching.
func (f *File) Watch() (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("sensor config watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(f.path)); err != nil {
		w.Close()
		return nil, fmt.Errorf("sensor config watcher add %s: %w", f.path, err)
	}

	done := make(chan struct{})
	go func() {
		defer w.Close()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != f.path {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				if err := f.Reload(); err != nil {
					f.logger.Warn("sensor config reload failed, keeping previous", "path", f.path, "error", err)
					continue
				}
				f.logger.Info("sensor config reloaded", "path", f.path)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				f.logger.Warn("sensor config watcher error", "error", err)
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(func() { close(done) }) }, nil
}

func (f *File) load() (state, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return state{}, fmt.Errorf("read sensor config %s: %w", f.path, err)
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return state{}, fmt.Errorf("parse sensor config %s: %w", f.path, err)
	}
	return doc.resolve()
}

func (d Document) resolve() (state, error) {
	st := state{
		anonymize: d.AnonymizeIP,
		overrides: make(map[audit.SensorID]bool),
	}

	for name, g := range d.Groups {
		group, ok := audit.NormalizeGroup(name)
		if !ok {
			return state{}, fmt.Errorf("unknown sensor group %q", name)
		}
		for _, set := range []struct {
			ids []int
			on  bool
		}{{g.Enabled, true}, {g.Disabled, false}} {
			for _, raw := range set.ids {
				id := audit.SensorID(raw)
				reg, ok := audit.Lookup(id)
				if !ok {
					return state{}, fmt.Errorf("unknown sensor id %d in group %s", raw, group)
				}
				if reg.Group != group {
					return state{}, fmt.Errorf("sensor %d belongs to group %s, not %s", raw, reg.Group, group)
				}
				st.overrides[id] = set.on
			}
		}
	}

	for raw, on := range d.Sensors {
		id := audit.SensorID(raw)
		if !id.Valid() {
			return state{}, fmt.Errorf("unknown sensor id %d", raw)
		}
		st.overrides[id] = on
	}
	return st, nil
}
