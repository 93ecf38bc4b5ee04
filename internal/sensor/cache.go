package sensor

// SnapshotCache holds "before" state captured during one unit of work.
// Values live in an arena; any number of keys may point at the same entry,
// so an entity cached under its slug and its display name is one snapshot.
//
// A cache belongs to exactly one sensor instance and is not safe for
// concurrent use.
type SnapshotCache[T any] struct {
	arena []T
	index map[string]int
}

func NewSnapshotCache[T any]() *SnapshotCache[T] {
	return &SnapshotCache[T]{index: make(map[string]int)}
}

// Put stores value under every non-empty key. A key that already points at
// an older snapshot is re-pointed at the new one.
func (c *SnapshotCache[T]) Put(value T, keys ...string) {
	slot := len(c.arena)
	c.arena = append(c.arena, value)
	for _, k := range keys {
		if k == "" {
			continue
		}
		c.index[k] = slot
	}
}

// Get returns the snapshot stored under key.
func (c *SnapshotCache[T]) Get(key string) (T, bool) {
	slot, ok := c.index[key]
	if !ok {
		var zero T
		return zero, false
	}
	return c.arena[slot], true
}

// Has reports whether key is indexed.
func (c *SnapshotCache[T]) Has(key string) bool {
	_, ok := c.index[key]
	return ok
}

// Len is the number of distinct snapshots, not keys.
func (c *SnapshotCache[T]) Len() int {
	return len(c.arena)
}

// Forget removes key. Once no key is left the arena is dropped too.
func (c *SnapshotCache[T]) Forget(key string) {
	delete(c.index, key)
	if len(c.index) == 0 {
		c.Reset()
	}
}

// Reset drops every snapshot.
func (c *SnapshotCache[T]) Reset() {
	clear(c.arena)
	c.arena = c.arena[:0]
	clear(c.index)
}
