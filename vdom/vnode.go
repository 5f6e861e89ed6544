// Package vdom implements a virtual-tree diff/patch engine. Given an old
// and a new virtual tree it applies the minimal set of structural and
// attribute mutations to a live output tree through an injected set of
// platform primitives, with static-subtree short-circuiting and keyed
// children reconciliation.
package vdom

// Handler receives a platform event dispatched to a bound listener.
type Handler func(event any)

// Hooks are lifecycle callbacks invoked by the patcher. Create fires once
// the node and its subtree exist, Insert once the node and all its
// ancestors are attached to the live tree, Destroy top-down before
// removal. Prepatch and Postpatch bracket an in-place update.
type Hooks struct {
	Create    func(v *VNode)
	Insert    func(v *VNode)
	Prepatch  func(old, v *VNode)
	Postpatch func(old, v *VNode)
	Destroy   func(v *VNode)
}

// VNode is an immutable-per-render description of one output element or
// text span. An empty Tag denotes a text span. Elm is the back-reference
// to the live output node, assigned during patch.
type VNode struct {
	Tag  string
	Key  string
	Text string

	Attrs map[string]string
	Class map[string]bool
	Style map[string]string
	On    map[string]Handler

	Children []*VNode

	Hooks *Hooks

	// Static marks a subtree whose description is shared across renders;
	// Once marks a render-once subtree. Both short-circuit patching.
	Static bool
	Once   bool

	Elm Node

	invokers map[string]*invoker
}

// Unobservable keeps virtual nodes out of the reactivity system: render
// output must never be wrapped for observation.
func (v *VNode) Unobservable() {}

// Element builds an element vnode.
func Element(tag string, children ...*VNode) *VNode {
	return &VNode{Tag: tag, Children: children}
}

// Text builds a text span vnode.
func Text(text string) *VNode {
	return &VNode{Text: text}
}

// IsText reports whether the vnode describes a text span.
func (v *VNode) IsText() bool { return v.Tag == "" }

// sameVnode decides whether two vnodes describe the same live node: the
// type identifier matches and, if either side carries a key, the keys
// match. Unkeyed siblings compare positionally by their caller.
func sameVnode(a, b *VNode) bool {
	return a.Key == b.Key && a.Tag == b.Tag
}

// invoker is the stable callable bound to the platform listener; swapping
// its fn rebinds the handler without touching the platform.
type invoker struct {
	fn Handler
}

func (iv *invoker) invoke(event any) {
	if iv.fn != nil {
		iv.fn(event)
	}
}
