package reactive

import (
	"math"
	"reflect"
)

// Set is the explicit mutation primitive for adding or replacing a key on
// an observed container. Adding a new key to a map notifies the container's
// identity dep; setting a numeric index past the end of a list extends it
// and notifies. Invalid targets are reported and the operation is a no-op
// returning the attempted value.
func Set(target, key, value any) any {
	switch t := target.(type) {
	case *Map:
		name, ok := key.(string)
		if !ok {
			t.rt.Warn("set with non-string key %v on a map is ignored", key)
			return value
		}
		return t.Set(name, value)
	case *List:
		idx, ok := toIndex(key)
		if !ok {
			t.rt.Warn("set with non-integer index %v on a list is ignored", key)
			return value
		}
		t.setIndex(idx, value)
		return value
	}
	warnTarget(target, "set")
	return value
}

// Delete removes a key from an observed container, notifying the
// container's identity dep when the key existed. Invalid targets are
// reported and ignored.
func Delete(target, key any) {
	switch t := target.(type) {
	case *Map:
		name, ok := key.(string)
		if !ok {
			t.rt.Warn("delete with non-string key %v on a map is ignored", key)
			return
		}
		t.deleteKey(name)
		return
	case *List:
		idx, ok := toIndex(key)
		if !ok {
			t.rt.Warn("delete with non-integer index %v on a list is ignored", key)
			return
		}
		if idx >= 0 && idx < t.Len() {
			t.Splice(idx, 1)
		}
		return
	}
	warnTarget(target, "delete")
}

func warnTarget(target any, op string) {
	// No runtime handle is reachable from a non-structured target, so this
	// falls back to the package logger.
	defaultWarn("reactive %s on non-structured target %T is ignored", op, target)
}

func toIndex(key any) (int, bool) {
	switch k := key.(type) {
	case int:
		return k, true
	case int64:
		return int(k), true
	case uint:
		return int(k), true
	case float64:
		if k == math.Trunc(k) {
			return int(k), true
		}
	}
	return 0, false
}

// sameValue compares by identity with NaN treated as equal to NaN, so NaN
// writes do not loop forever. No deep equality: structured values compare
// by pointer.
func sameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	ka, kb := ra.Kind(), rb.Kind()
	if (ka == reflect.Float32 || ka == reflect.Float64) &&
		(kb == reflect.Float32 || kb == reflect.Float64) {
		fa, fb := ra.Float(), rb.Float()
		if math.IsNaN(fa) && math.IsNaN(fb) {
			return true
		}
		return fa == fb && ka == kb
	}
	if ra.Type() != rb.Type() || !ra.Comparable() {
		return false
	}
	return ra.Equal(rb)
}
