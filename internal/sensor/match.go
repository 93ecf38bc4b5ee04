package sensor

import (
	"strings"

	audit "audittrail/pkg/platform/audit"
)

// Logic selects how MatchHostEvent combines criteria.
type Logic string

const (
	LogicAnd Logic = "AND"
	LogicOr  Logic = "OR"
)

// MatchHostEvent reports whether actual satisfies criteria. Values compare
// by their canonical text, so a host sending "1" matches an expected 1.
// Keys missing from actual never match. Unknown logic values mean AND.
//
// AND over empty criteria is true. OR over empty criteria is false unless
// actual is empty as well.
func MatchHostEvent(criteria, actual map[string]any, logic Logic) bool {
	or := strings.EqualFold(string(logic), string(LogicOr))

	if len(criteria) == 0 {
		return !or || len(actual) == 0
	}
	if len(actual) == 0 {
		return false
	}

	for key, expected := range criteria {
		got, ok := actual[key]
		matched := ok && sameValue(got, expected)
		if or && matched {
			return true
		}
		if !or && !matched {
			return false
		}
	}
	return !or
}

func sameValue(got, expected any) bool {
	if audit.IsNil(got) || audit.IsNil(expected) {
		return audit.IsNil(got) && audit.IsNil(expected)
	}
	return audit.Text(got) == audit.Text(expected)
}
