package reactive

// Unobservable marks values the reactivity system must never wrap, such as
// virtual tree nodes. Observe returns nil for them.
type Unobservable interface {
	Unobservable()
}

// Observer is the per-structured-value bookkeeping object. It owns the
// container's identity dep, which is notified on key addition, key deletion,
// and in-place sequence mutation. refs counts how many root-state
// attachments reference the container.
type Observer struct {
	rt   *Runtime
	dep  *Dep
	refs int
}

// Dep exposes the container identity dep, used by the deep-traversal seen
// set and by lifecycle layers that track whole-container invalidation.
func (o *Observer) Dep() *Dep { return o.dep }

// Observe wraps value for observation and returns its Observer. It is
// idempotent: re-observing returns the existing Observer. It returns nil for
// primitives, frozen wrappers, and Unobservable values. Nested structured
// values are observed recursively; observation of newly assigned values is
// suspended while the runtime's observing toggle is off.
func (rt *Runtime) Observe(value any) *Observer {
	if _, ok := value.(Unobservable); ok {
		return nil
	}
	switch t := value.(type) {
	case *Map:
		if t.ob != nil {
			return t.ob
		}
		if !rt.observing() || t.frozen {
			return nil
		}
		t.ob = &Observer{rt: rt, dep: newDep(rt)}
		for _, key := range t.keys() {
			t.define(key)
		}
		return t.ob
	case *List:
		if t.ob != nil {
			return t.ob
		}
		if !rt.observing() || t.frozen {
			return nil
		}
		t.ob = &Observer{rt: rt, dep: newDep(rt)}
		for _, item := range t.items {
			rt.Observe(item)
		}
		return t.ob
	default:
		return nil
	}
}

// ObserveRoot observes value as root state, bumping the attachment counter
// that guards against adding or deleting keys directly on a root object.
func (rt *Runtime) ObserveRoot(value any) *Observer {
	ob := rt.Observe(value)
	if ob != nil {
		ob.refs++
	}
	return ob
}

// observerOf returns the Observer already attached to a wrapper, if any.
func observerOf(value any) *Observer {
	switch t := value.(type) {
	case *Map:
		return t.ob
	case *List:
		return t.ob
	}
	return nil
}

func isStructured(value any) bool {
	switch value.(type) {
	case *Map, *List:
		return true
	}
	return false
}

// Map is a map-like reactive container: string keys to arbitrary values,
// with one dep per defined key. Arbitrary-shape dynamic state is modeled
// through uniform Get/Set methods rather than native field syntax.
type Map struct {
	rt      *Runtime
	ob      *Observer
	entries map[string]any
	deps    map[string]*Dep
	order   []string
	frozen  bool
}

// NewMap builds a map wrapper seeded with init. The wrapper starts
// unobserved; pass it to Observe or assign it into observed state.
func NewMap(rt *Runtime, init map[string]any) *Map {
	m := &Map{
		rt:      rt,
		entries: make(map[string]any, len(init)),
		deps:    make(map[string]*Dep, len(init)),
	}
	for key, value := range init {
		m.entries[key] = value
		m.order = append(m.order, key)
	}
	return m
}

// Freeze makes the map non-extensible: it will not be observed, and
// reactive Set/Delete on it are rejected.
func (m *Map) Freeze() { m.frozen = true }

// Observed reports whether the map has been wrapped for observation.
func (m *Map) Observed() bool { return m.ob != nil }

// keys returns key names in definition order.
func (m *Map) keys() []string {
	keys := make([]string, 0, len(m.order))
	for _, key := range m.order {
		if _, ok := m.entries[key]; ok {
			keys = append(keys, key)
		}
	}
	return keys
}

// Keys returns the defined key names in definition order.
func (m *Map) Keys() []string { return m.keys() }

// Len returns the number of defined keys.
func (m *Map) Len() int { return len(m.entries) }

// Has reports whether key is defined.
func (m *Map) Has(key string) bool {
	_, ok := m.entries[key]
	return ok
}

// define installs the accessor pair for key: a dep plus lazy observation of
// the current value.
func (m *Map) define(key string) {
	if _, ok := m.deps[key]; ok {
		return
	}
	m.deps[key] = newDep(m.rt)
	m.rt.Observe(m.entries[key])
}

// Get returns the value for key. If a watcher is currently evaluating, it
// subscribes to the key's dep, the nested value's observer dep, and, for
// list values, every observed element. Element-level subscriptions are
// needed because index access cannot be trapped.
func (m *Map) Get(key string) any {
	value := m.entries[key]
	if dep, ok := m.deps[key]; ok && m.rt.target() != nil {
		dep.Depend(m.rt)
		if childOb := observerOf(value); childOb != nil {
			childOb.dep.Depend(m.rt)
			if list, isList := value.(*List); isList {
				dependList(m.rt, list)
			}
		}
	}
	return value
}

// Set writes key. On an observed map, writing an existing reactive key
// compares by NaN-aware identity and notifies the key's dep on change;
// writing a brand-new key defines it reactively and notifies the
// container's identity dep, since no accessor pre-existed to do so.
func (m *Map) Set(key string, value any) any {
	if m.frozen {
		m.rt.Warn("set %q on a frozen map is ignored", key)
		return value
	}
	if dep, ok := m.deps[key]; ok {
		old := m.entries[key]
		if sameValue(old, value) {
			return value
		}
		m.entries[key] = value
		m.rt.Observe(value)
		dep.Notify()
		return value
	}
	if m.ob != nil && m.ob.refs > 0 {
		m.rt.Warn("avoid adding reactive key %q to a root state object", key)
		return value
	}
	if _, exists := m.entries[key]; !exists {
		m.order = append(m.order, key)
	}
	m.entries[key] = value
	if m.ob == nil {
		return value
	}
	m.define(key)
	m.ob.dep.Notify()
	return value
}

// deleteKey removes key and notifies the container dep when observed.
func (m *Map) deleteKey(key string) {
	if m.frozen {
		m.rt.Warn("delete %q on a frozen map is ignored", key)
		return
	}
	if _, ok := m.entries[key]; !ok {
		return
	}
	if m.ob != nil && m.ob.refs > 0 {
		m.rt.Warn("avoid deleting reactive key %q on a root state object", key)
		return
	}
	delete(m.entries, key)
	delete(m.deps, key)
	if m.ob != nil {
		m.ob.dep.Notify()
	}
}

// dependList subscribes the current watcher to every observed element of a
// list, recursively, so element-level mutation is picked up despite index
// reads being untrackable.
func dependList(rt *Runtime, list *List) {
	for _, item := range list.items {
		if ob := observerOf(item); ob != nil {
			ob.dep.Depend(rt)
		}
		if nested, ok := item.(*List); ok {
			dependList(rt, nested)
		}
	}
}
