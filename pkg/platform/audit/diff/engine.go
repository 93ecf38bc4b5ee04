// Package diff compares attribute mappings and id collections and reports
// the differences as audit change records. Everything here is pure.
package diff

import (
	"reflect"

	audit "audittrail/pkg/platform/audit"
)

// Engine holds the flattening settings used when comparing attributes.
type Engine struct {
	autoFlatten bool
	maxDepth    int
}

// Option configures an Engine.
type Option func(*Engine)

// WithAutoFlatten toggles rendering compound values to strings before comparing.
func WithAutoFlatten(enabled bool) Option {
	return func(e *Engine) { e.autoFlatten = enabled }
}

// WithMaxDepth sets the flattening depth bound. Values below 1 keep the default.
func WithMaxDepth(depth int) Option {
	return func(e *Engine) {
		if depth > 0 {
			e.maxDepth = depth
		}
	}
}

// New returns an Engine with auto flattening on and the default depth.
func New(opts ...Option) *Engine {
	e := &Engine{autoFlatten: true, maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Scalar returns a change record when current and prior differ. Two nils
// never differ; nil against a value always does.
func Scalar(key string, current, prior any) (audit.ChangeRecord, bool) {
	if Equal(current, prior) {
		return audit.ChangeRecord{}, false
	}
	return audit.ChangeRecord{Key: key, NewValue: current, PriorValue: prior}, true
}

// Equal is the null-aware value equality used by every comparison here.
// Scalars compare by their text form, so 1, int64(1) and "1" are equal.
// Booleans render as "1" and "", which makes true equal 1 and "1", and false
// equal "" but not 0 or "0".
func Equal(a, b any) bool {
	aNil, bNil := audit.IsNil(a), audit.IsNil(b)
	if aNil || bNil {
		return aNil == bNil
	}
	if reflect.DeepEqual(a, b) {
		return true
	}
	if IsCompound(a) || IsCompound(b) {
		return false
	}
	return audit.Text(a) == audit.Text(b)
}

// Scalar is the engine-bound form of the package function.
func (e *Engine) Scalar(key string, current, prior any) (audit.ChangeRecord, bool) {
	return Scalar(key, current, prior)
}

// Flatten renders v with the engine's depth bound.
func (e *Engine) Flatten(v any) string {
	return Flatten(v, e.maxDepth)
}

// Attributes compares the named attributes. Names missing on both sides
// are skipped; a name missing on one side reads as nil there.
func (e *Engine) Attributes(prior, current Object, names []string) []audit.ChangeRecord {
	out := make([]audit.ChangeRecord, 0)
	for _, name := range names {
		pv, inPrior := prior.Get(name)
		cv, inCurrent := current.Get(name)
		if !inPrior && !inCurrent {
			continue
		}
		if e.autoFlatten {
			pv = e.flattenCompound(pv)
			cv = e.flattenCompound(cv)
		}
		if rec, changed := Scalar(name, cv, pv); changed {
			out = append(out, rec)
		}
	}
	return out
}

// AllAttributes compares every attribute present on either side, in the
// prior object's order followed by attributes only the current one has.
func (e *Engine) AllAttributes(prior, current Object) []audit.ChangeRecord {
	return e.Attributes(prior, current, unionNames(prior, current))
}

func (e *Engine) flattenCompound(v any) any {
	if audit.IsNil(v) || !IsCompound(v) {
		return v
	}
	return Flatten(v, e.maxDepth)
}

func unionNames(prior, current Object) []string {
	seen := make(map[string]struct{}, len(prior)+len(current))
	names := make([]string, 0, len(prior)+len(current))
	for _, obj := range []Object{prior, current} {
		for _, f := range obj {
			if _, ok := seen[f.Name]; ok {
				continue
			}
			seen[f.Name] = struct{}{}
			names = append(names, f.Name)
		}
	}
	return names
}
