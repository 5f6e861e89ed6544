package reactive

import "strings"

// parsePath compiles a dotted path expression such as "user.address.city"
// into a getter over a map wrapper. Resolution goes through Get at each
// segment so every key read registers its subscription; a broken path
// resolves to nil without error.
func parsePath(path string) func(owner *Map) any {
	segments := strings.Split(path, ".")
	return func(owner *Map) any {
		var current any = owner
		for _, segment := range segments {
			if segment == "" {
				return nil
			}
			m, ok := current.(*Map)
			if !ok {
				return nil
			}
			current = m.Get(segment)
		}
		return current
	}
}
