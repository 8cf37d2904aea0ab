package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetOrInsertOrdersByKey(t *testing.T) {
	tl := New()
	var next NodeID = 1
	alloc := func() NodeID {
		n := next
		next++
		return n
	}

	n1 := tl.GetOrInsert(300, alloc)
	n2 := tl.GetOrInsert(100, alloc)
	n3 := tl.GetOrInsert(200, alloc)

	entries := tl.Entries()
	assert.Equal(t, []int{100, 200, 300}, []int{entries[0].Key, entries[1].Key, entries[2].Key})
	assert.Equal(t, n2, entries[0].Node)
	assert.Equal(t, n3, entries[1].Node)
	assert.Equal(t, n1, entries[2].Node)
}

func TestGetOrInsertSharesExistingNode(t *testing.T) {
	tl := New()
	calls := 0
	alloc := func() NodeID {
		calls++
		return NodeID(calls)
	}

	a := tl.GetOrInsert(500, alloc)
	b := tl.GetOrInsert(500, alloc)
	assert.Equal(t, a, b)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, tl.Len())
}

func TestCeilingAndFloor(t *testing.T) {
	tl := New()
	alloc := func() NodeID { return 0 }
	for _, k := range []int{100, 200, 300} {
		tl.GetOrInsert(k, func() NodeID { return NodeID(k) })
	}
	_ = alloc

	k, n, ok := tl.Ceiling(150)
	assert.True(t, ok)
	assert.Equal(t, 200, k)
	assert.Equal(t, NodeID(200), n)

	k, _, ok = tl.Ceiling(300)
	assert.True(t, ok)
	assert.Equal(t, 300, k)

	_, _, ok = tl.Ceiling(301)
	assert.False(t, ok)

	k, _, ok = tl.Floor(250)
	assert.True(t, ok)
	assert.Equal(t, 200, k)

	_, _, ok = tl.Floor(50)
	assert.False(t, ok)
}

func TestFirstLastAndDescending(t *testing.T) {
	tl := New()
	for _, k := range []int{50, 10, 30} {
		key := k
		tl.GetOrInsert(key, func() NodeID { return NodeID(key) })
	}

	fk, _, ok := tl.First()
	assert.True(t, ok)
	assert.Equal(t, 10, fk)

	lk, _, ok := tl.Last()
	assert.True(t, ok)
	assert.Equal(t, 50, lk)

	desc := tl.Descending()
	assert.Equal(t, []int{50, 30, 10}, []int{desc[0].Key, desc[1].Key, desc[2].Key})
}

func TestEmptyTimeline(t *testing.T) {
	tl := New()
	assert.True(t, tl.IsEmpty())
	_, _, ok := tl.First()
	assert.False(t, ok)
	_, _, ok = tl.Last()
	assert.False(t, ok)
}
