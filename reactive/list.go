package reactive

import "sort"

// List is a sequence-like reactive container. Individual index writes are
// unobservable through plain accessor traps, so mutation is intercepted at
// the collection level: each mutating operation performs the underlying
// change, observes newly inserted elements, and notifies the container's
// identity dep exactly once.
type List struct {
	rt     *Runtime
	ob     *Observer
	items  []any
	frozen bool
}

// NewList builds a list wrapper seeded with items. The wrapper starts
// unobserved.
func NewList(rt *Runtime, items ...any) *List {
	l := &List{rt: rt}
	l.items = append(l.items, items...)
	return l
}

// Freeze makes the list non-extensible.
func (l *List) Freeze() { l.frozen = true }

// Observed reports whether the list has been wrapped for observation.
func (l *List) Observed() bool { return l.ob != nil }

// Len returns the element count.
func (l *List) Len() int { return len(l.items) }

// Get returns the element at index i, or nil when out of range. Index reads
// are not tracked; watchers subscribe to the list identity through the
// property that holds the list.
func (l *List) Get(i int) any {
	if i < 0 || i >= len(l.items) {
		return nil
	}
	return l.items[i]
}

// Slice returns a copy of the current elements.
func (l *List) Slice() []any {
	out := make([]any, len(l.items))
	copy(out, l.items)
	return out
}

func (l *List) mutable(op string) bool {
	if l.frozen {
		l.rt.Warn("%s on a frozen list is ignored", op)
		return false
	}
	return true
}

// notifyMutated wraps newly inserted elements and fires the single
// notification for one mutating call.
func (l *List) notifyMutated(inserted []any) {
	if l.ob == nil {
		return
	}
	for _, item := range inserted {
		l.rt.Observe(item)
	}
	l.ob.dep.Notify()
}

// Push appends elements.
func (l *List) Push(items ...any) {
	if !l.mutable("push") {
		return
	}
	l.items = append(l.items, items...)
	l.notifyMutated(items)
}

// Pop removes and returns the last element, nil when empty.
func (l *List) Pop() any {
	if !l.mutable("pop") || len(l.items) == 0 {
		return nil
	}
	last := l.items[len(l.items)-1]
	l.items = l.items[:len(l.items)-1]
	l.notifyMutated(nil)
	return last
}

// Shift removes and returns the first element, nil when empty.
func (l *List) Shift() any {
	if !l.mutable("shift") || len(l.items) == 0 {
		return nil
	}
	first := l.items[0]
	l.items = append(l.items[:0], l.items[1:]...)
	l.notifyMutated(nil)
	return first
}

// Unshift prepends elements.
func (l *List) Unshift(items ...any) {
	if !l.mutable("unshift") {
		return
	}
	l.items = append(append(make([]any, 0, len(items)+len(l.items)), items...), l.items...)
	l.notifyMutated(items)
}

// Splice removes deleteCount elements at start, inserts items in their
// place, and returns the removed elements. Negative start counts from the
// end; start and deleteCount are clamped to the valid range.
func (l *List) Splice(start, deleteCount int, items ...any) []any {
	if !l.mutable("splice") {
		return nil
	}
	n := len(l.items)
	if start < 0 {
		start += n
	}
	if start < 0 {
		start = 0
	}
	if start > n {
		start = n
	}
	if deleteCount < 0 {
		deleteCount = 0
	}
	if deleteCount > n-start {
		deleteCount = n - start
	}
	removed := make([]any, deleteCount)
	copy(removed, l.items[start:start+deleteCount])

	next := make([]any, 0, n-deleteCount+len(items))
	next = append(next, l.items[:start]...)
	next = append(next, items...)
	next = append(next, l.items[start+deleteCount:]...)
	l.items = next
	l.notifyMutated(items)
	return removed
}

// Sort stably orders the elements in place with the given comparator.
func (l *List) Sort(less func(a, b any) bool) {
	if !l.mutable("sort") {
		return
	}
	sort.SliceStable(l.items, func(i, j int) bool {
		return less(l.items[i], l.items[j])
	})
	l.notifyMutated(nil)
}

// Reverse reverses the elements in place.
func (l *List) Reverse() {
	if !l.mutable("reverse") {
		return
	}
	for i, j := 0, len(l.items)-1; i < j; i, j = i+1, j-1 {
		l.items[i], l.items[j] = l.items[j], l.items[i]
	}
	l.notifyMutated(nil)
}

// setIndex backs the Set mutation primitive for sequences: in-range indexes
// replace via splice, out-of-range indexes extend the sequence.
func (l *List) setIndex(i int, value any) {
	if !l.mutable("set") || i < 0 {
		return
	}
	if i < len(l.items) {
		l.Splice(i, 1, value)
		return
	}
	pad := make([]any, i-len(l.items)+1)
	pad[len(pad)-1] = value
	l.items = append(l.items, pad...)
	l.notifyMutated([]any{value})
}
