// Package memdom is an in-memory output platform: a headless node tree
// implementing vdom.Ops, with counters for every primitive operation. It
// backs the package tests and the patch benchmarks.
package memdom

import (
	"sort"
	"strings"

	"github.com/CodingWithAlice/vue/vdom"
)

// MemNode is one live node of the in-memory tree.
type MemNode struct {
	Tag      string
	Text     string
	Attrs    map[string]string
	Classes  map[string]bool
	Styles   map[string]string
	Handlers map[string]vdom.Handler

	parent   *MemNode
	children []*MemNode
}

// Children returns the node's children in order.
func (n *MemNode) Children() []*MemNode { return n.children }

// ParentNode returns the node's parent, nil at a root.
func (n *MemNode) ParentNode() *MemNode { return n.parent }

// Dispatch invokes the listener bound for event, if any.
func (n *MemNode) Dispatch(event string, payload any) {
	if handler, ok := n.Handlers[event]; ok {
		handler(payload)
	}
}

// Render serializes the subtree to an HTML-ish string for assertions.
func (n *MemNode) Render() string {
	var sb strings.Builder
	n.render(&sb)
	return sb.String()
}

func (n *MemNode) render(sb *strings.Builder) {
	if n.Tag == "" {
		sb.WriteString(n.Text)
		return
	}
	sb.WriteByte('<')
	sb.WriteString(n.Tag)
	attrs := make(map[string]string, len(n.Attrs)+2)
	for key, value := range n.Attrs {
		attrs[key] = value
	}
	if len(n.Classes) > 0 {
		classes := make([]string, 0, len(n.Classes))
		for class, on := range n.Classes {
			if on {
				classes = append(classes, class)
			}
		}
		if len(classes) > 0 {
			sort.Strings(classes)
			attrs["class"] = strings.Join(classes, " ")
		}
	}
	if len(n.Styles) > 0 {
		props := make([]string, 0, len(n.Styles))
		for prop := range n.Styles {
			props = append(props, prop)
		}
		sort.Strings(props)
		pairs := make([]string, 0, len(props))
		for _, prop := range props {
			pairs = append(pairs, prop+":"+n.Styles[prop])
		}
		attrs["style"] = strings.Join(pairs, ";")
	}
	keys := make([]string, 0, len(attrs))
	for key := range attrs {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		sb.WriteByte(' ')
		sb.WriteString(key)
		sb.WriteString(`="`)
		sb.WriteString(attrs[key])
		sb.WriteByte('"')
	}
	sb.WriteByte('>')
	if len(n.children) == 0 {
		sb.WriteString(n.Text)
	}
	for _, child := range n.children {
		child.render(sb)
	}
	sb.WriteString("</")
	sb.WriteString(n.Tag)
	sb.WriteByte('>')
}

// Counts tallies primitive operations since the last Reset.
type Counts struct {
	CreateElement int
	CreateText    int
	SetText       int
	InsertBefore  int
	Moves         int // InsertBefore calls for nodes that already had a parent
	RemoveChild   int
	SetAttribute  int
	RemoveAttr    int
	AddClass      int
	RemoveClass   int
	SetStyle      int
	RemoveStyle   int
	AddListener   int
	RemoveList    int
}

// Mutations is the total count of tree and attribute mutations.
func (c Counts) Mutations() int {
	return c.CreateElement + c.CreateText + c.SetText + c.InsertBefore +
		c.RemoveChild + c.SetAttribute + c.RemoveAttr + c.AddClass +
		c.RemoveClass + c.SetStyle + c.RemoveStyle + c.AddListener + c.RemoveList
}

// Platform implements vdom.Ops over MemNodes.
type Platform struct {
	Counts Counts
}

// New builds an in-memory platform.
func New() *Platform { return &Platform{} }

// Reset clears the operation counters.
func (p *Platform) Reset() { p.Counts = Counts{} }

func (p *Platform) CreateElement(tag string) vdom.Node {
	p.Counts.CreateElement++
	return &MemNode{Tag: tag}
}

func (p *Platform) CreateText(text string) vdom.Node {
	p.Counts.CreateText++
	return &MemNode{Text: text}
}

func (p *Platform) SetText(n vdom.Node, text string) {
	p.Counts.SetText++
	n.(*MemNode).Text = text
}

func (p *Platform) InsertBefore(parent, n, ref vdom.Node) {
	p.Counts.InsertBefore++
	pn := parent.(*MemNode)
	child := n.(*MemNode)
	if child.parent != nil {
		p.Counts.Moves++
		child.parent.detach(child)
	}
	child.parent = pn
	if ref == nil {
		pn.children = append(pn.children, child)
		return
	}
	refNode := ref.(*MemNode)
	for i, existing := range pn.children {
		if existing == refNode {
			pn.children = append(pn.children[:i], append([]*MemNode{child}, pn.children[i:]...)...)
			return
		}
	}
	pn.children = append(pn.children, child)
}

func (p *Platform) RemoveChild(parent, n vdom.Node) {
	p.Counts.RemoveChild++
	child := n.(*MemNode)
	parent.(*MemNode).detach(child)
	child.parent = nil
}

func (n *MemNode) detach(child *MemNode) {
	for i, existing := range n.children {
		if existing == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			return
		}
	}
}

func (p *Platform) Parent(n vdom.Node) vdom.Node {
	if parent := n.(*MemNode).parent; parent != nil {
		return parent
	}
	return nil
}

func (p *Platform) NextSibling(n vdom.Node) vdom.Node {
	node := n.(*MemNode)
	if node.parent == nil {
		return nil
	}
	siblings := node.parent.children
	for i, sibling := range siblings {
		if sibling == node && i+1 < len(siblings) {
			return siblings[i+1]
		}
	}
	return nil
}

func (p *Platform) SetAttribute(n vdom.Node, key, value string) {
	p.Counts.SetAttribute++
	node := n.(*MemNode)
	if node.Attrs == nil {
		node.Attrs = map[string]string{}
	}
	node.Attrs[key] = value
}

func (p *Platform) RemoveAttribute(n vdom.Node, key string) {
	p.Counts.RemoveAttr++
	delete(n.(*MemNode).Attrs, key)
}

func (p *Platform) AddClass(n vdom.Node, class string) {
	p.Counts.AddClass++
	node := n.(*MemNode)
	if node.Classes == nil {
		node.Classes = map[string]bool{}
	}
	node.Classes[class] = true
}

func (p *Platform) RemoveClass(n vdom.Node, class string) {
	p.Counts.RemoveClass++
	delete(n.(*MemNode).Classes, class)
}

func (p *Platform) SetStyle(n vdom.Node, prop, value string) {
	p.Counts.SetStyle++
	node := n.(*MemNode)
	if node.Styles == nil {
		node.Styles = map[string]string{}
	}
	node.Styles[prop] = value
}

func (p *Platform) RemoveStyle(n vdom.Node, prop string) {
	p.Counts.RemoveStyle++
	delete(n.(*MemNode).Styles, prop)
}

func (p *Platform) AddListener(n vdom.Node, event string, handler vdom.Handler) {
	p.Counts.AddListener++
	node := n.(*MemNode)
	if node.Handlers == nil {
		node.Handlers = map[string]vdom.Handler{}
	}
	node.Handlers[event] = handler
}

func (p *Platform) RemoveListener(n vdom.Node, event string) {
	p.Counts.RemoveList++
	delete(n.(*MemNode).Handlers, event)
}
