package vdom

// Node is an opaque handle to a live output node. The engine never
// constructs or inspects these directly; every mutation and position query
// goes through the injected Ops.
type Node any

// Ops is the fixed primitive operation set an output platform supplies.
// InsertBefore with a nil reference appends. AddListener replaces any
// previous binding for the same event name on the node.
type Ops interface {
	CreateElement(tag string) Node
	CreateText(text string) Node
	SetText(n Node, text string)

	InsertBefore(parent, n, ref Node)
	RemoveChild(parent, n Node)
	Parent(n Node) Node
	NextSibling(n Node) Node

	SetAttribute(n Node, key, value string)
	RemoveAttribute(n Node, key string)
	AddClass(n Node, class string)
	RemoveClass(n Node, class string)
	SetStyle(n Node, prop, value string)
	RemoveStyle(n Node, prop string)
	AddListener(n Node, event string, handler Handler)
	RemoveListener(n Node, event string)
}
