package grouper_test

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/plotkit/pkg/grouper"
)

type node struct {
	id int
}

func ids(members []*node) map[int]struct{} {
	out := make(map[int]struct{}, len(members))
	for _, m := range members {
		out[m.id] = struct{}{}
	}
	return out
}

func TestJoinTransitivity(t *testing.T) {
	t.Parallel()

	g := grouper.New[node]()
	a, b, c := &node{id: 1}, &node{id: 2}, &node{id: 3}

	g.Join(a, b)
	g.Join(b, c)

	assert.True(t, g.Joined(a, c))
	assert.True(t, g.Joined(c, a))
	assert.Equal(t, map[int]struct{}{1: {}, 2: {}, 3: {}}, ids(g.Siblings(b)))
}

func TestJoinAllAtOnce(t *testing.T) {
	t.Parallel()

	g := grouper.New[node]()
	objs := make([]*node, 5)
	for i := range objs {
		objs[i] = &node{id: i}
	}
	g.Join(objs...)

	groups := g.Snapshot()
	require.Len(t, groups, 1)
	assert.Equal(t, ids(objs), ids(groups[0]))
	assert.Equal(t, ids(objs), ids(g.Siblings(objs[0])))

	for _, other := range objs[1:] {
		assert.True(t, g.Joined(objs[0], other))
	}
}

func TestJoinSelf(t *testing.T) {
	t.Parallel()

	g := grouper.New[node]()
	a := &node{id: 1}

	g.Join(a, a, a)

	groups := g.Snapshot()
	require.Len(t, groups, 1)
	assert.Equal(t, []*node{a}, groups[0])
	assert.True(t, g.Joined(a, a))
}

func TestJoinNoArgs(t *testing.T) {
	t.Parallel()

	g := grouper.New[node]()
	g.Join()

	assert.Empty(t, g.Snapshot())
}

func TestUntrackedObjects(t *testing.T) {
	t.Parallel()

	g := grouper.New[node]()
	a, b := &node{id: 1}, &node{id: 2}

	assert.True(t, g.Joined(a, a), "object is joined to itself even untracked")
	assert.False(t, g.Joined(a, b))
	assert.Equal(t, []*node{a}, g.Siblings(a))

	// Remove of an untracked object is a no-op.
	g.Remove(a)
	assert.Empty(t, g.Snapshot())
}

func TestRemoveKeepsRemainingGroup(t *testing.T) {
	t.Parallel()

	g := grouper.New[node]()
	objs := make([]*node, 5)
	for i := range objs {
		objs[i] = &node{id: i}
	}
	g.Join(objs...)

	removed := objs[0]
	g.Remove(removed)

	for _, other := range objs[1:] {
		assert.False(t, g.Joined(removed, other))
	}
	for _, a := range objs[1:] {
		for _, b := range objs[1:] {
			assert.True(t, g.Joined(a, b))
		}
	}

	// The removed object is back to being its own singleton.
	assert.Equal(t, []*node{removed}, g.Siblings(removed))
	assert.Equal(t, ids(objs[1:]), ids(g.Siblings(objs[1])))
}

func TestRejoinAfterRemove(t *testing.T) {
	t.Parallel()

	g := grouper.New[node]()
	a, b, c := &node{id: 1}, &node{id: 2}, &node{id: 3}

	g.Join(a, b, c)
	g.Remove(a)
	g.Join(a, b)

	assert.True(t, g.Joined(a, c))
	assert.Equal(t, map[int]struct{}{1: {}, 2: {}, 3: {}}, ids(g.Siblings(a)))
}

func TestCollectedMemberIsEvicted(t *testing.T) {
	t.Parallel()

	g := grouper.New[node]()
	a, b := &node{id: 1}, &node{id: 2}
	c := &node{id: 3}

	g.Join(a, b, c)
	require.Len(t, g.Siblings(a), 3)

	c = nil
	_ = c

	require.Eventually(t, func() bool {
		runtime.GC()
		return len(g.Siblings(a)) == 2
	}, 5*time.Second, 10*time.Millisecond, "collected member should drop out of the group")

	assert.Equal(t, map[int]struct{}{1: {}, 2: {}}, ids(g.Siblings(a)))
	assert.True(t, g.Joined(a, b))
}

func TestAllYieldsEachGroupOnce(t *testing.T) {
	t.Parallel()

	g := grouper.New[node]()
	a, b := &node{id: 1}, &node{id: 2}
	c, d := &node{id: 3}, &node{id: 4}
	g.Join(a, b)
	g.Join(c, d)

	var groups []map[int]struct{}
	for members := range g.All() {
		groups = append(groups, ids(members))
	}

	require.Len(t, groups, 2)
	assert.ElementsMatch(t, []map[int]struct{}{
		{1: {}, 2: {}},
		{3: {}, 4: {}},
	}, groups)
}

func TestAllStopsEarly(t *testing.T) {
	t.Parallel()

	g := grouper.New[node]()
	g.Join(&node{id: 1}, &node{id: 2})
	g.Join(&node{id: 3}, &node{id: 4})

	count := 0
	for range g.All() {
		count++
		break
	}
	assert.Equal(t, 1, count)
}

func TestSnapshotRestore(t *testing.T) {
	t.Parallel()

	g := grouper.New[node]()
	a, b, c, d := &node{id: 1}, &node{id: 2}, &node{id: 3}, &node{id: 4}
	g.Join(a, b)
	g.Join(c, d)

	restored := grouper.FromGroups(g.Snapshot()...)

	assert.True(t, restored.Joined(a, b))
	assert.True(t, restored.Joined(c, d))
	assert.False(t, restored.Joined(a, c))
	assert.Len(t, restored.Snapshot(), 2)
}

func TestClean(t *testing.T) {
	t.Parallel()

	g := grouper.New[node]()
	a, b := &node{id: 1}, &node{id: 2}
	g.Join(a, b)

	// Clean on a fully live grouper changes nothing.
	g.Clean()
	assert.True(t, g.Joined(a, b))
	assert.Len(t, g.Snapshot(), 1)
}
