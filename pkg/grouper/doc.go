// Package grouper provides a disjoint-set structure over weakly referenced
// objects, used to track which members of a collection are linked together
// (for example, axes that share a scale or viewport).
//
// Members are held through weak pointers, so the grouper never extends the
// lifetime of an object it tracks: when a member is garbage-collected, its
// entry is purged automatically and it simply stops appearing in its former
// group.
//
// # Architecture
//
// Each group is a shared mutable set; every member's mapping entry points at
// its group's set instance, so the same-group test is a pointer comparison.
// Joining two groups folds one set into the other and repoints the merged
// members, which is linear in the merged group's size - fine for the small
// group sizes this is built for. A runtime cleanup attached to each member
// removes it from the structure after collection, and all access is guarded
// by an RWMutex since cleanups run on arbitrary goroutines.
//
// # Usage
//
//	g := grouper.New[Axes]()
//	g.Join(ax1, ax2)
//	g.Join(ax2, ax3)
//
//	g.Joined(ax1, ax3) // true
//	g.Siblings(ax1)    // ax1, ax2, ax3 in unspecified order
//
//	g.Remove(ax2)
//	g.Joined(ax1, ax3) // still true
//
// Iterate all groups lazily:
//
//	for members := range g.All() {
//		fmt.Println(len(members))
//	}
//
// To persist the structure, take a Snapshot (strong references, plain data)
// and rebuild with FromGroups; a restored grouper is a fresh snapshot of the
// grouping, not a continuation of the original's object identities.
package grouper
