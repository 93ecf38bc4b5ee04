package sensor

// UpgradeResult is what the host reports when an upgrader run finishes.
// A nil Success means the host could not tell.
type UpgradeResult struct {
	Success         *bool  `json:"success"`
	Overwrite       string `json:"overwrite,omitempty"`
	DestinationName string `json:"destination_name,omitempty"`
	NewVersion      string `json:"new_version,omitempty"`
}

// Flag is the stored form of a boolean outcome.
func Flag(ok bool) int {
	if ok {
		return 1
	}
	return 0
}

// NilIfEmpty maps "" to nil so that unset host values are not recorded.
func NilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Strings reads a host list parameter, which arrives either as []string or
// as a decoded JSON array. A lone string is a list of one.
func Strings(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if t != "" {
			return []string{t}
		}
	}
	return nil
}
