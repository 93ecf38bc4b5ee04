package diff

import "sort"

// Field is one named attribute of an Object.
type Field struct {
	Name  string
	Value any
}

// Object is an ordered attribute mapping. Order matters: AllAttributes
// reports changes in the prior object's attribute order.
type Object []Field

// FromMap builds an Object with keys in sorted order.
func FromMap(m map[string]any) Object {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	obj := make(Object, 0, len(names))
	for _, n := range names {
		obj = append(obj, Field{Name: n, Value: m[n]})
	}
	return obj
}

// Get returns the value of name and whether it is present.
func (o Object) Get(name string) (any, bool) {
	for _, f := range o {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Names returns attribute names in order.
func (o Object) Names() []string {
	out := make([]string, len(o))
	for i, f := range o {
		out[i] = f.Name
	}
	return out
}

// Set replaces name's value or appends it.
func (o Object) Set(name string, value any) Object {
	for i := range o {
		if o[i].Name == name {
			o[i].Value = value
			return o
		}
	}
	return append(o, Field{Name: name, Value: value})
}
