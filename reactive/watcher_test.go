package reactive_test

import (
	"testing"

	"github.com/CodingWithAlice/vue/reactive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// multiple writes within one turn coalesce into a single re-evaluation
func TestWritesCoalescePerFlush(t *testing.T) {
	rt := reactive.NewRuntime(failOnError(t))
	m := reactive.NewMap(rt, map[string]any{"count": 0})
	rt.Observe(m)

	runs := 0
	var last any
	reactive.NewWatcher(rt, func() any {
		return m.Get("count")
	}, func(value, oldValue any) {
		runs++
		last = value
	}, nil)

	m.Set("count", 1)
	m.Set("count", 2)
	m.Set("count", 3)
	assert.Equal(t, 0, runs)
	rt.Flush()
	assert.Equal(t, 1, runs)
	assert.Equal(t, 3, last)
}

// a lazy watcher evaluates once on first read and caches until invalidated
func TestLazyWatcherCaches(t *testing.T) {
	rt := reactive.NewRuntime(failOnError(t))
	m := reactive.NewMap(rt, map[string]any{"a": 2, "b": 3})
	rt.Observe(m)

	evals := 0
	product := reactive.NewWatcher(rt, func() any {
		evals++
		return m.Get("a").(int) * m.Get("b").(int)
	}, nil, &reactive.WatcherOptions{Lazy: true})

	assert.Equal(t, 0, evals)
	assert.Equal(t, 6, product.Value())
	assert.Equal(t, 6, product.Value())
	assert.Equal(t, 1, evals)

	m.Set("a", 5)
	assert.Equal(t, 15, product.Value())
	assert.Equal(t, 2, evals)
}

// reading a lazy watcher inside another chains its deps into the outer one
func TestLazyWatcherDependencyChaining(t *testing.T) {
	rt := reactive.NewRuntime(failOnError(t))
	m := reactive.NewMap(rt, map[string]any{"n": 1})
	rt.Observe(m)

	double := reactive.NewWatcher(rt, func() any {
		return m.Get("n").(int) * 2
	}, nil, &reactive.WatcherOptions{Lazy: true})

	var seen []int
	reactive.NewWatcher(rt, func() any {
		return double.Value()
	}, func(value, oldValue any) {
		seen = append(seen, value.(int))
	}, nil)

	m.Set("n", 4)
	rt.Flush()
	assert.Equal(t, []int{8}, seen)
}

// watchers prune subscriptions for branches they no longer read
func TestDependencyReconciliation(t *testing.T) {
	rt := reactive.NewRuntime(failOnError(t))
	m := reactive.NewMap(rt, map[string]any{"flag": true, "a": "A", "b": "B"})
	rt.Observe(m)

	runs := 0
	reactive.NewWatcher(rt, func() any {
		if m.Get("flag").(bool) {
			return m.Get("a")
		}
		return m.Get("b")
	}, func(value, oldValue any) { runs++ }, nil)

	m.Set("flag", false)
	rt.Flush()
	require.Equal(t, 1, runs)

	m.Set("a", "A2")
	rt.Flush()
	assert.Equal(t, 1, runs)

	m.Set("b", "B2")
	rt.Flush()
	assert.Equal(t, 2, runs)
}

// a sync watcher re-evaluates inside the mutation call
func TestSyncWatcherRunsImmediately(t *testing.T) {
	rt := reactive.NewRuntime(failOnError(t))
	m := reactive.NewMap(rt, map[string]any{"x": 0})
	rt.Observe(m)

	runs := 0
	reactive.NewWatcher(rt, func() any {
		return m.Get("x")
	}, func(value, oldValue any) { runs++ }, &reactive.WatcherOptions{Sync: true})

	m.Set("x", 1)
	assert.Equal(t, 1, runs)
	m.Set("x", 2)
	assert.Equal(t, 2, runs)
}

// a deep watcher fires on nested mutation without direct nested reads
func TestDeepWatcherSeesNestedMutation(t *testing.T) {
	rt := reactive.NewRuntime(failOnError(t))
	inner := reactive.NewMap(rt, map[string]any{"x": 1})
	m := reactive.NewMap(rt, map[string]any{"obj": inner})
	rt.Observe(m)

	shallowRuns, deepRuns := 0, 0
	reactive.NewWatcher(rt, func() any {
		return m.Get("obj")
	}, func(value, oldValue any) { shallowRuns++ }, nil)
	reactive.NewWatcher(rt, func() any {
		return m.Get("obj")
	}, func(value, oldValue any) { deepRuns++ }, &reactive.WatcherOptions{Deep: true})

	inner.Set("x", 2)
	rt.Flush()
	assert.Equal(t, 0, shallowRuns)
	assert.Equal(t, 1, deepRuns)
}

// appending one element notifies the sequence once, and the appended
// structured element is itself observed afterward
func TestListAppendNotifiesOnce(t *testing.T) {
	rt := reactive.NewRuntime(failOnError(t))
	items := reactive.NewList(rt, reactive.NewMap(rt, map[string]any{"id": 1}))
	m := reactive.NewMap(rt, map[string]any{"items": items})
	rt.Observe(m)

	runs := 0
	reactive.NewWatcher(rt, func() any {
		return m.Get("items")
	}, func(value, oldValue any) { runs++ }, &reactive.WatcherOptions{Deep: true})

	appended := reactive.NewMap(rt, map[string]any{"id": 2})
	items.Push(appended)
	rt.Flush()
	require.Equal(t, 1, runs)

	appended.Set("id", 99)
	rt.Flush()
	assert.Equal(t, 2, runs)
}

// in-place list mutators each notify subscribers through the sequence dep
func TestListMutators(t *testing.T) {
	rt := reactive.NewRuntime(failOnError(t))
	items := reactive.NewList(rt, 3, 1, 2)
	m := reactive.NewMap(rt, map[string]any{"items": items})
	rt.Observe(m)

	runs := 0
	reactive.NewWatcher(rt, func() any {
		return m.Get("items")
	}, func(value, oldValue any) { runs++ }, nil)

	items.Sort(func(a, b any) bool { return a.(int) < b.(int) })
	rt.Flush()
	require.Equal(t, 1, runs)
	assert.Equal(t, []any{1, 2, 3}, items.Slice())

	removed := items.Splice(1, 1, 9, 8)
	rt.Flush()
	assert.Equal(t, 2, runs)
	assert.Equal(t, []any{2}, removed)
	assert.Equal(t, []any{1, 9, 8, 3}, items.Slice())

	items.Reverse()
	rt.Flush()
	assert.Equal(t, 3, runs)
	assert.Equal(t, []any{3, 8, 9, 1}, items.Slice())

	assert.Equal(t, 1, items.Pop())
	assert.Equal(t, 3, items.Shift())
	items.Unshift(7)
	rt.Flush()
	assert.Equal(t, 4, runs)
	assert.Equal(t, []any{7, 8, 9}, items.Slice())
}

// sorting is stable: equal-ranked elements keep their relative order
func TestListSortStable(t *testing.T) {
	rt := reactive.NewRuntime(failOnError(t))
	items := reactive.NewList(rt, [2]any{2, "a"}, [2]any{1, "b"}, [2]any{2, "c"}, [2]any{1, "d"})

	items.Sort(func(a, b any) bool {
		return a.([2]any)[0].(int) < b.([2]any)[0].(int)
	})
	assert.Equal(t, []any{
		[2]any{1, "b"}, [2]any{1, "d"}, [2]any{2, "a"}, [2]any{2, "c"},
	}, items.Slice())
}

// a path watcher resolves dotted expressions and tolerates broken paths
func TestPathWatcher(t *testing.T) {
	rt := reactive.NewRuntime(failOnError(t))
	c := reactive.NewMap(rt, map[string]any{"d": "leaf"})
	b := reactive.NewMap(rt, map[string]any{"c": c})
	root := reactive.NewMap(rt, map[string]any{"b": b})
	rt.Observe(root)

	var seen []any
	reactive.NewPathWatcher(rt, root, "b.c.d", func(value, oldValue any) {
		seen = append(seen, value)
	}, nil)

	c.Set("d", "leaf2")
	rt.Flush()
	assert.Equal(t, []any{"leaf2"}, seen)

	// severing the middle of the path yields nil, then restoring re-resolves
	b.Set("c", nil)
	rt.Flush()
	assert.Equal(t, []any{"leaf2", nil}, seen)

	b.Set("c", c)
	rt.Flush()
	assert.Equal(t, []any{"leaf2", nil, "leaf2"}, seen)
}

// a torn-down watcher ignores pending and future invalidation
func TestTeardownStopsUpdates(t *testing.T) {
	rt := reactive.NewRuntime(failOnError(t))
	m := reactive.NewMap(rt, map[string]any{"x": 0})
	rt.Observe(m)

	runs := 0
	w := reactive.NewWatcher(rt, func() any {
		return m.Get("x")
	}, func(value, oldValue any) { runs++ }, nil)

	m.Set("x", 1)
	w.Teardown()
	rt.Flush()
	assert.Equal(t, 0, runs)
	assert.False(t, w.Active())

	m.Set("x", 2)
	rt.Flush()
	assert.Equal(t, 0, runs)
}

// a panic in a user watcher is routed to the error callback and contained
func TestUserWatcherErrorContained(t *testing.T) {
	var caught []error
	rt := reactive.NewRuntime(func(w *reactive.Watcher, err error) {
		caught = append(caught, err)
	})
	m := reactive.NewMap(rt, map[string]any{"x": 0})
	rt.Observe(m)

	otherRuns := 0
	reactive.NewWatcher(rt, func() any {
		m.Get("x")
		panic("boom")
	}, nil, &reactive.WatcherOptions{User: true})
	reactive.NewWatcher(rt, func() any {
		return m.Get("x")
	}, func(value, oldValue any) { otherRuns++ }, nil)

	require.Len(t, caught, 1)

	m.Set("x", 1)
	rt.Flush()
	assert.Len(t, caught, 2)
	assert.Equal(t, 1, otherRuns)
}
