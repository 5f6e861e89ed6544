package reactive_test

import (
	"fmt"
	"math"
	"testing"

	"github.com/CodingWithAlice/vue/reactive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type notObservable struct{}

func (notObservable) Unobservable() {}

func failOnError(t *testing.T) reactive.OnErrorFunc {
	return func(w *reactive.Watcher, err error) {
		assert.FailNow(t, err.Error())
	}
}

// observing the same value twice returns the same Observer
func TestObserveIdempotent(t *testing.T) {
	rt := reactive.NewRuntime(failOnError(t))

	m := reactive.NewMap(rt, map[string]any{"a": 1})
	ob1 := rt.Observe(m)
	ob2 := rt.Observe(m)
	require.NotNil(t, ob1)
	assert.Same(t, ob1, ob2)

	l := reactive.NewList(rt, 1, 2, 3)
	assert.Same(t, rt.Observe(l), rt.Observe(l))
}

// primitives, frozen wrappers and internal node types are never observed
func TestObserveRejectsNonStructured(t *testing.T) {
	rt := reactive.NewRuntime(failOnError(t))

	assert.Nil(t, rt.Observe(42))
	assert.Nil(t, rt.Observe("hello"))
	assert.Nil(t, rt.Observe(nil))
	assert.Nil(t, rt.Observe(notObservable{}))

	frozen := reactive.NewMap(rt, map[string]any{"a": 1})
	frozen.Freeze()
	assert.Nil(t, rt.Observe(frozen))
}

// nested structured values are observed lazily and recursively
func TestObserveRecursesIntoNestedValues(t *testing.T) {
	rt := reactive.NewRuntime(failOnError(t))

	inner := reactive.NewMap(rt, map[string]any{"x": 1})
	items := reactive.NewList(rt, inner)
	outer := reactive.NewMap(rt, map[string]any{"items": items})

	require.NotNil(t, rt.Observe(outer))
	assert.NotNil(t, rt.Observe(items))
	assert.NotNil(t, rt.Observe(inner))
}

// toggling observation off suspends wrapping of newly assigned values only
func TestToggleObserving(t *testing.T) {
	rt := reactive.NewRuntime(failOnError(t))

	m := reactive.NewMap(rt, map[string]any{"a": nil})
	rt.Observe(m)

	rt.ToggleObserving(false)
	raw := reactive.NewMap(rt, map[string]any{"x": 1})
	m.Set("a", raw)
	rt.ToggleObserving(true)
	assert.False(t, raw.Observed())

	wrapped := reactive.NewMap(rt, map[string]any{"y": 2})
	m.Set("a", wrapped)
	assert.True(t, wrapped.Observed())
}

// writing a value equal by identity, NaN included, triggers no re-run
func TestEqualWriteIsNoop(t *testing.T) {
	rt := reactive.NewRuntime(failOnError(t))
	m := reactive.NewMap(rt, map[string]any{"n": math.NaN(), "s": "same"})
	rt.Observe(m)

	runs := 0
	reactive.NewWatcher(rt, func() any {
		m.Get("n")
		return m.Get("s")
	}, func(value, oldValue any) { runs++ }, nil)

	m.Set("n", math.NaN())
	m.Set("s", "same")
	rt.Flush()
	assert.Equal(t, 0, runs)

	m.Set("s", "changed")
	rt.Flush()
	assert.Equal(t, 1, runs)
}

// adding a brand-new key notifies the container identity, not a key dep
func TestSetAddsKeyAndNotifies(t *testing.T) {
	rt := reactive.NewRuntime(failOnError(t))
	obj := reactive.NewMap(rt, map[string]any{"a": 1})
	state := reactive.NewMap(rt, map[string]any{"obj": obj})
	rt.Observe(state)

	runs := 0
	reactive.NewWatcher(rt, func() any {
		return state.Get("obj")
	}, func(value, oldValue any) { runs++ }, nil)

	reactive.Set(obj, "b", 2)
	rt.Flush()
	assert.Equal(t, 1, runs)
	assert.Equal(t, 2, obj.Get("b"))

	reactive.Delete(obj, "a")
	rt.Flush()
	assert.Equal(t, 2, runs)
	assert.False(t, obj.Has("a"))
}

// reactive set on a non-structured target reports and is a no-op
func TestInvalidMutationIsNoop(t *testing.T) {
	rt := reactive.NewRuntime(failOnError(t))
	var warned []string
	rt.Warn = func(format string, args ...any) {
		warned = append(warned, fmt.Sprintf(format, args...))
	}

	assert.Equal(t, 7, reactive.Set(42, "a", 7))
	assert.NotPanics(t, func() { reactive.Delete("str", "a") })

	frozen := reactive.NewMap(rt, map[string]any{"a": 1})
	frozen.Freeze()
	assert.Equal(t, 9, reactive.Set(frozen, "b", 9))
	assert.False(t, frozen.Has("b"))
	assert.NotEmpty(t, warned)
}

// adding or deleting keys directly on root state is rejected with a warning
func TestRootStateKeyAdditionRejected(t *testing.T) {
	rt := reactive.NewRuntime(failOnError(t))
	var warned int
	rt.Warn = func(format string, args ...any) { warned++ }

	root := reactive.NewMap(rt, map[string]any{"a": 1})
	rt.ObserveRoot(root)

	reactive.Set(root, "b", 2)
	assert.False(t, root.Has("b"))
	reactive.Delete(root, "a")
	assert.True(t, root.Has("a"))
	assert.Equal(t, 2, warned)
}

// setting a numeric index past the end of a list extends it and notifies
func TestSetListIndexExtends(t *testing.T) {
	rt := reactive.NewRuntime(failOnError(t))
	items := reactive.NewList(rt, "a")
	state := reactive.NewMap(rt, map[string]any{"items": items})
	rt.Observe(state)

	runs := 0
	reactive.NewWatcher(rt, func() any {
		return state.Get("items")
	}, func(value, oldValue any) { runs++ }, nil)

	reactive.Set(items, 3, "d")
	rt.Flush()
	assert.Equal(t, 1, runs)
	assert.Equal(t, 4, items.Len())
	assert.Equal(t, "d", items.Get(3))
	assert.Nil(t, items.Get(1))

	reactive.Set(items, 0, "z")
	rt.Flush()
	assert.Equal(t, 2, runs)
	assert.Equal(t, "z", items.Get(0))
}
