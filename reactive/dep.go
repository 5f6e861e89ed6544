package reactive

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// Dep is a fine-grained subscription point. Every reactive key and every
// observed container identity owns one. Subscribers are kept in insertion
// order and deduplicated by watcher id; the back-edge from a Dep to its
// watchers is non-owning and pruned by the watcher's own dependency
// reconciliation.
type Dep struct {
	id     uint64
	subs   []*Watcher
	subIDs mapset.Set[uint64]
}

func newDep(rt *Runtime) *Dep {
	return &Dep{
		id:     rt.nextDepID(),
		subIDs: mapset.NewThreadUnsafeSet[uint64](),
	}
}

// ID is stable for the lifetime of the dep and unique within its runtime.
func (d *Dep) ID() uint64 { return d.id }

func (d *Dep) addSub(w *Watcher) {
	if d.subIDs.Add(w.id) {
		d.subs = append(d.subs, w)
	}
}

func (d *Dep) removeSub(w *Watcher) {
	if !d.subIDs.Contains(w.id) {
		return
	}
	d.subIDs.Remove(w.id)
	for i, sub := range d.subs {
		if sub == w {
			d.subs = append(d.subs[:i], d.subs[i+1:]...)
			return
		}
	}
}

// Depend subscribes the currently evaluating watcher, if any, to this dep.
func (d *Dep) Depend(rt *Runtime) {
	if t := rt.target(); t != nil {
		t.addDep(d)
	}
}

// Notify invalidates every current subscriber. Invalidation enqueues the
// subscriber with the scheduler rather than evaluating it inline, except
// for sync watchers.
func (d *Dep) Notify() {
	// Snapshot: a subscriber's re-evaluation may mutate d.subs.
	subs := make([]*Watcher, len(d.subs))
	copy(subs, d.subs)
	for _, sub := range subs {
		sub.update()
	}
}
