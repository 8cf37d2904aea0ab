// Package timeline implements the per-platform ordered map of
// second-of-day -> node id that spec.md §3/§4.3 describes: a Timeline
// accumulates departure or arrival events for one (stop, platform) and
// supports the floor/ceiling/first/last/reverse-iteration operations the
// wiring pass needs.
package timeline

import "sort"

// NodeID identifies a node in the external graph store.
type NodeID int64

// Timeline is an ordered map from second-of-day (0 <= key < 86400) to the
// node allocated for that event. Keys are unique and strictly increasing
// in the backing slice, per spec.md §3 invariant 1.
type Timeline struct {
	keys  []int
	nodes []NodeID
}

// New returns an empty Timeline.
func New() *Timeline {
	return &Timeline{}
}

// Len returns the number of entries.
func (t *Timeline) Len() int {
	return len(t.keys)
}

// IsEmpty reports whether the timeline has no entries.
func (t *Timeline) IsEmpty() bool {
	return len(t.keys) == 0
}

func (t *Timeline) search(key int) int {
	return sort.Search(len(t.keys), func(i int) bool { return t.keys[i] >= key })
}

// Get returns the node at exactly key, if present.
func (t *Timeline) Get(key int) (NodeID, bool) {
	i := t.search(key)
	if i < len(t.keys) && t.keys[i] == key {
		return t.nodes[i], true
	}
	return 0, false
}

// GetOrInsert returns the node already stored at key, or inserts node (as
// returned by newNode) and returns it. This is the "allocated on first
// sighting of that (stop, platform, second_of_day) key, shared across all
// trips using that platform" rule from spec.md §4.2.
func (t *Timeline) GetOrInsert(key int, newNode func() NodeID) NodeID {
	i := t.search(key)
	if i < len(t.keys) && t.keys[i] == key {
		return t.nodes[i]
	}
	n := newNode()
	t.keys = append(t.keys, 0)
	t.nodes = append(t.nodes, 0)
	copy(t.keys[i+1:], t.keys[i:])
	copy(t.nodes[i+1:], t.nodes[i:])
	t.keys[i] = key
	t.nodes[i] = n
	return n
}

// Ceiling returns the smallest stored key that is >= key, and its node.
// This is the "first departure time >= a + min_transfer_time" rule from
// spec.md §4.3.4.
func (t *Timeline) Ceiling(key int) (foundKey int, node NodeID, ok bool) {
	i := t.search(key)
	if i < len(t.keys) {
		return t.keys[i], t.nodes[i], true
	}
	return 0, 0, false
}

// Floor returns the largest stored key that is <= key, and its node.
func (t *Timeline) Floor(key int) (foundKey int, node NodeID, ok bool) {
	i := t.search(key)
	if i < len(t.keys) && t.keys[i] == key {
		return t.keys[i], t.nodes[i], true
	}
	if i == 0 {
		return 0, 0, false
	}
	return t.keys[i-1], t.nodes[i-1], true
}

// First returns the entry with the smallest key.
func (t *Timeline) First() (key int, node NodeID, ok bool) {
	if len(t.keys) == 0 {
		return 0, 0, false
	}
	return t.keys[0], t.nodes[0], true
}

// Last returns the entry with the largest key.
func (t *Timeline) Last() (key int, node NodeID, ok bool) {
	if len(t.keys) == 0 {
		return 0, 0, false
	}
	n := len(t.keys)
	return t.keys[n-1], t.nodes[n-1], true
}

// Entry is one (key, node) pair.
type Entry struct {
	Key  int
	Node NodeID
}

// Entries returns all entries in ascending key order.
func (t *Timeline) Entries() []Entry {
	out := make([]Entry, len(t.keys))
	for i := range t.keys {
		out[i] = Entry{Key: t.keys[i], Node: t.nodes[i]}
	}
	return out
}

// Descending returns all entries in descending key order, the order
// spec.md §4.3.1/§4.3.2 walk the timeline in when wiring WAIT chains.
func (t *Timeline) Descending() []Entry {
	out := make([]Entry, len(t.keys))
	n := len(t.keys)
	for i := range t.keys {
		out[i] = Entry{Key: t.keys[n-1-i], Node: t.nodes[n-1-i]}
	}
	return out
}
