package diff

import (
	"bytes"
	"encoding"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// DefaultMaxDepth bounds recursion when rendering compound values.
const DefaultMaxDepth = 5

const (
	closurePlaceholder  = `"[Closure]"`
	resourcePlaceholder = `"[Resource]"`
)

var (
	jsonMarshalerType = reflect.TypeFor[json.Marshaler]()
	textMarshalerType = reflect.TypeFor[encoding.TextMarshaler]()
)

// Flatten renders v as a deterministic string. Scalars and nil render as
// JSON literals; maps, slices, arrays and structs render as
// {"key": value, ...} with map keys sorted. Recursion stops at maxDepth,
// where a truncation marker is rendered instead, so cyclic graphs terminate.
func Flatten(v any, maxDepth int) string {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return flatten(reflect.ValueOf(v), maxDepth, 0)
}

func flatten(v reflect.Value, maxDepth, level int) string {
	level++

	for hops := 0; v.IsValid() && (v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer); hops++ {
		if v.IsNil() {
			return "null"
		}
		if hops > maxDepth {
			return depthMarker(level)
		}
		if v.Kind() == reflect.Pointer && implementsMarshaler(v.Type()) {
			break
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return "null"
	}

	switch v.Kind() {
	case reflect.Func:
		return closurePlaceholder
	case reflect.Chan, reflect.UnsafePointer:
		return resourcePlaceholder
	}
	if v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8 {
		return scalarJSON(string(v.Bytes()))
	}
	if implementsMarshaler(v.Type()) || !isCompound(v) {
		return scalarJSON(v.Interface())
	}

	if level >= maxDepth {
		return depthMarker(level)
	}

	var elems []string
	switch v.Kind() {
	case reflect.Map:
		if v.IsNil() {
			return "null"
		}
		keys := v.MapKeys()
		rendered := make([]string, len(keys))
		for i, k := range keys {
			rendered[i] = keyJSON(k)
		}
		idx := make([]int, len(keys))
		for i := range idx {
			idx[i] = i
		}
		sort.Slice(idx, func(a, b int) bool { return rendered[idx[a]] < rendered[idx[b]] })
		for _, i := range idx {
			elems = append(elems, rendered[i]+": "+flatten(v.MapIndex(keys[i]), maxDepth, level))
		}
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.IsNil() {
			return "null"
		}
		for i := 0; i < v.Len(); i++ {
			elems = append(elems, strconv.Itoa(i)+": "+flatten(v.Index(i), maxDepth, level))
		}
	case reflect.Struct:
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			name, skip := fieldName(f)
			if skip {
				continue
			}
			elems = append(elems, scalarJSON(name)+": "+flatten(v.Field(i), maxDepth, level))
		}
	}
	return "{" + strings.Join(elems, ", ") + "}"
}

// IsCompound reports whether v would be rendered as a nested structure.
func IsCompound(v any) bool {
	rv := reflect.ValueOf(v)
	for rv.IsValid() && (rv.Kind() == reflect.Interface || rv.Kind() == reflect.Pointer) {
		if rv.IsNil() || implementsMarshaler(rv.Type()) {
			return false
		}
		rv = rv.Elem()
	}
	return rv.IsValid() && !implementsMarshaler(rv.Type()) && isCompound(rv)
}

func isCompound(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Map, reflect.Array, reflect.Struct:
		return true
	case reflect.Slice:
		return v.Type().Elem().Kind() != reflect.Uint8
	}
	return false
}

func implementsMarshaler(t reflect.Type) bool {
	return t.Implements(jsonMarshalerType) || t.Implements(textMarshalerType)
}

func fieldName(f reflect.StructField) (string, bool) {
	tag := f.Tag.Get("json")
	if tag == "-" {
		return "", true
	}
	if name, _, _ := strings.Cut(tag, ","); name != "" {
		return name, false
	}
	return f.Name, false
}

func keyJSON(k reflect.Value) string {
	switch k.Kind() {
	case reflect.String:
		return scalarJSON(k.String())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(k.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(k.Uint(), 10)
	}
	return scalarJSON(fmt.Sprint(k.Interface()))
}

func depthMarker(level int) string {
	return scalarJSON(fmt.Sprintf("Array depth limited at level %d", level))
}

func scalarJSON(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		// NaN, Inf and marshalers that fail still need a stable rendering.
		buf.Reset()
		_ = enc.Encode(fmt.Sprint(v))
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
