package diff

import audit "audittrail/pkg/platform/audit"

// IDTransform replaces the default record for one changed id. inCurrent and
// inPrior tell which side the id was found on; exactly one of them is true.
type IDTransform[T comparable] func(id T, inCurrent, inPrior bool) audit.ChangeRecord

// IDSets reports ids present on only one side. Ids are treated as sets:
// duplicates collapse and ids on both sides are not reported. The result
// follows the order of prior ids, then current-only ids.
func IDSets[T comparable](field string, current, prior []T, transform IDTransform[T]) []audit.ChangeRecord {
	return keyedIDSets[T, T](field, current, prior, func(id T) T { return id }, transform)
}

// keyedIDSets is IDSets with set membership decided by key(id), so ids that
// are not comparable themselves can still be grouped.
func keyedIDSets[T any, K comparable](field string, current, prior []T, key func(T) K, transform func(T, bool, bool) audit.ChangeRecord) []audit.ChangeRecord {
	inCurrent := make(map[K]struct{}, len(current))
	for _, id := range current {
		inCurrent[key(id)] = struct{}{}
	}
	inPrior := make(map[K]struct{}, len(prior))
	for _, id := range prior {
		inPrior[key(id)] = struct{}{}
	}

	seen := make(map[K]struct{}, len(current)+len(prior))
	out := make([]audit.ChangeRecord, 0)
	for _, side := range [][]T{prior, current} {
		for _, id := range side {
			k := key(id)
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}

			_, c := inCurrent[k]
			_, p := inPrior[k]
			if c && p {
				continue
			}
			if transform != nil {
				out = append(out, transform(id, c, p))
				continue
			}
			rec := audit.ChangeRecord{Key: field}
			if c {
				rec.NewValue = id
			}
			if p {
				rec.PriorValue = id
			}
			out = append(out, rec)
		}
	}
	return out
}

// ObjectIDs collects idField from each object and compares the two id sets.
// Records are keyed by idName, or by idField when idName is empty. Objects
// without the field contribute a nil id. Ids are grouped by their flattened
// text, so slice or map ids are compared by content.
func ObjectIDs(idField, idName string, prior, current []Object) []audit.ChangeRecord {
	if idName == "" {
		idName = idField
	}
	return keyedIDSets(idName, collectIDs(current, idField), collectIDs(prior, idField), flattenKey, nil)
}

func collectIDs(objs []Object, field string) []any {
	ids := make([]any, 0, len(objs))
	for _, o := range objs {
		v, _ := o.Get(field)
		ids = append(ids, v)
	}
	return ids
}

func flattenKey(id any) string {
	return Flatten(id, DefaultMaxDepth)
}
