package audit

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// ChangeList accumulates change records in order.
type ChangeList []ChangeRecord

// Info appends a record when value is non-nil.
func (l *ChangeList) Info(key string, value, prior any) {
	if IsNil(value) {
		return
	}
	*l = append(*l, ChangeRecord{Key: key, NewValue: value, PriorValue: prior})
}

// ForcedInfo appends a record unconditionally.
func (l *ChangeList) ForcedInfo(key string, value, prior any) {
	*l = append(*l, ChangeRecord{Key: key, NewValue: value, PriorValue: prior})
}

// InfoIfChanged appends a record when value and prior render to different text.
func (l *ChangeList) InfoIfChanged(key string, value, prior any) {
	if Text(value) == Text(prior) {
		return
	}
	*l = append(*l, ChangeRecord{Key: key, NewValue: value, PriorValue: prior})
}

// Append adds already built records.
func (l *ChangeList) Append(records ...ChangeRecord) {
	*l = append(*l, records...)
}

// Text renders a scalar the way it is compared: nil and false are empty,
// true is "1", everything else uses its default format.
func Text(v any) string {
	if IsNil(v) {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case bool:
		if t {
			return "1"
		}
		return ""
	case []byte:
		return string(t)
	}
	return fmt.Sprint(v)
}

// IsNil reports whether v is nil or a nil pointer, map, slice or interface.
func IsNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// Validate returns ErrMalformedChange when the record has no key or a value
// that cannot be stored as JSON.
func (c ChangeRecord) Validate() error {
	if c.Key == "" {
		return fmt.Errorf("%w: empty key", ErrMalformedChange)
	}
	if _, err := json.Marshal(c.NewValue); err != nil {
		return fmt.Errorf("%w: %s new value: %v", ErrMalformedChange, c.Key, err)
	}
	if _, err := json.Marshal(c.PriorValue); err != nil {
		return fmt.Errorf("%w: %s prior value: %v", ErrMalformedChange, c.Key, err)
	}
	return nil
}

// SanitizeChanges returns the valid records in order and how many were dropped.
func SanitizeChanges(records []ChangeRecord) ([]ChangeRecord, int) {
	out := make([]ChangeRecord, 0, len(records))
	for _, r := range records {
		if r.Validate() != nil {
			continue
		}
		out = append(out, r)
	}
	return out, len(records) - len(out)
}
