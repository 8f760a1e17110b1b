package grouper

import (
	"iter"
	"runtime"
	"sync"
	"weak"
)

// Grouper tracks disjoint groups of *T members without keeping them alive.
// The zero value is not usable; create instances with New.
// All methods are safe for concurrent use.
type Grouper[T any] struct {
	mapping map[weak.Pointer[T]]*group[T]
	mu      sync.RWMutex
}

// group is the shared set instance backing one group. Every member of the
// group maps to the same *group, so group identity doubles as the joined test.
type group[T any] struct {
	members map[weak.Pointer[T]]struct{}
}

// New creates an empty grouper.
func New[T any]() *Grouper[T] {
	return &Grouper[T]{
		mapping: make(map[weak.Pointer[T]]*group[T]),
	}
}

// FromGroups creates a grouper whose groups are rebuilt from the given member
// slices, typically a Snapshot loaded from persistence. Nil members are
// ignored.
func FromGroups[T any](groups ...[]*T) *Grouper[T] {
	g := New[T]()
	for _, members := range groups {
		g.Join(members...)
	}
	return g
}

// Join merges the groups of all given objects into one. Objects not yet
// tracked enter the structure as part of the merged group. Calling Join with
// a single object creates a singleton group; with no objects it does nothing.
// Joining objects that already share a group is a no-op.
func (g *Grouper[T]) Join(objs ...*T) {
	g.mu.Lock()
	defer g.mu.Unlock()

	var dst *group[T]
	for _, obj := range objs {
		if obj == nil {
			continue
		}
		grp := g.track(obj)
		if dst == nil {
			dst = grp
			continue
		}
		if grp == dst {
			continue
		}
		// Fold the smaller group into the surviving one and repoint every
		// merged member at it.
		for ref := range grp.members {
			dst.members[ref] = struct{}{}
			g.mapping[ref] = dst
		}
	}
}

// Joined reports whether a and b belong to the same group. An object is
// always joined to itself, tracked or not; two distinct untracked objects
// are never joined.
func (g *Grouper[T]) Joined(a, b *T) bool {
	if a == nil || b == nil {
		return false
	}
	if a == b {
		return true
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	ga, ok := g.mapping[weak.Make(a)]
	if !ok {
		return false
	}
	gb, ok := g.mapping[weak.Make(b)]
	return ok && ga == gb
}

// Siblings returns the live members of a's group, including a itself.
// An untracked object is its own single sibling. Order is unspecified.
func (g *Grouper[T]) Siblings(a *T) []*T {
	if a == nil {
		return nil
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	grp, ok := g.mapping[weak.Make(a)]
	if !ok {
		return []*T{a}
	}
	return grp.live()
}

// Remove drops a from its group. The remaining members stay joined to each
// other. Removing an untracked object does nothing.
func (g *Grouper[T]) Remove(a *T) {
	if a == nil {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.drop(weak.Make(a))
}

// Clean eagerly purges entries whose referent has been collected. Collection
// cleanups do this on their own; Clean only forces the sweep.
func (g *Grouper[T]) Clean() {
	g.mu.Lock()
	defer g.mu.Unlock()

	for ref := range g.mapping {
		if ref.Value() == nil {
			g.drop(ref)
		}
	}
}

// All returns an iterator over the current groups. Each group is yielded
// once as a slice of its live members; group and member order are
// unspecified. The iteration works on a snapshot, so it is safe to mutate
// the grouper while ranging.
func (g *Grouper[T]) All() iter.Seq[[]*T] {
	return func(yield func([]*T) bool) {
		for _, members := range g.Snapshot() {
			if !yield(members) {
				return
			}
		}
	}
}

// Snapshot returns the group structure as plain data: one slice of strong
// member references per group, dead members omitted, empty groups dropped.
// The result shares nothing with the grouper and suits persistence; rebuild
// with FromGroups.
func (g *Grouper[T]) Snapshot() [][]*T {
	g.mu.RLock()
	defer g.mu.RUnlock()

	seen := make(map[*group[T]]struct{}, len(g.mapping))
	var out [][]*T
	for _, grp := range g.mapping {
		if _, ok := seen[grp]; ok {
			continue
		}
		seen[grp] = struct{}{}
		if members := grp.live(); len(members) > 0 {
			out = append(out, members)
		}
	}
	return out
}

// track ensures obj has a mapping entry, creating a singleton group and
// attaching a collection cleanup on first sight. Caller holds g.mu.
// Re-tracking after Remove attaches a second cleanup; drop is idempotent so
// the extra run is harmless.
func (g *Grouper[T]) track(obj *T) *group[T] {
	ref := weak.Make(obj)
	if grp, ok := g.mapping[ref]; ok {
		return grp
	}

	grp := &group[T]{members: map[weak.Pointer[T]]struct{}{ref: {}}}
	g.mapping[ref] = grp
	runtime.AddCleanup(obj, g.purge, ref)
	return grp
}

// purge runs as a collection cleanup, on an arbitrary goroutine.
func (g *Grouper[T]) purge(ref weak.Pointer[T]) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.drop(ref)
}

// drop removes ref from its group and from the mapping. Caller holds g.mu.
func (g *Grouper[T]) drop(ref weak.Pointer[T]) {
	grp, ok := g.mapping[ref]
	if !ok {
		return
	}
	delete(grp.members, ref)
	delete(g.mapping, ref)
}

// live resolves the group's weak members to strong references, skipping
// those already collected.
func (grp *group[T]) live() []*T {
	out := make([]*T, 0, len(grp.members))
	for ref := range grp.members {
		if v := ref.Value(); v != nil {
			out = append(out, v)
		}
	}
	return out
}
