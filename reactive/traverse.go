package reactive

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// traverse walks a structured value depth-first so every nested key read
// registers with the evaluating watcher. The seen set of container dep ids
// keeps cyclic structures from recursing forever.
func traverse(value any) {
	seen := mapset.NewThreadUnsafeSet[uint64]()
	traverseInto(value, seen)
}

func traverseInto(value any, seen mapset.Set[uint64]) {
	switch t := value.(type) {
	case *Map:
		if t.ob != nil && !seen.Add(t.ob.dep.id) {
			return
		}
		for _, key := range t.keys() {
			traverseInto(t.Get(key), seen)
		}
	case *List:
		if t.ob != nil && !seen.Add(t.ob.dep.id) {
			return
		}
		for _, item := range t.items {
			traverseInto(item, seen)
		}
	}
}
