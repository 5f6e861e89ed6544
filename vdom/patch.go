package vdom

// Patcher reconciles virtual trees against a live output tree through the
// platform primitive set.
type Patcher struct {
	ops Ops
}

// NewPatcher builds a patcher over the given platform primitives.
func NewPatcher(ops Ops) *Patcher {
	return &Patcher{ops: ops}
}

// Patch reconciles vnode against old and returns the live node now
// representing vnode. A nil old creates the tree fresh; a nil vnode
// destroys the old one. Insert hooks collected anywhere in the patch run
// only after the whole tree is attached. A nil old builds the tree without
// a host parent: the caller attaches the returned node, and insert hooks
// fire once the subtree is fully assembled, attachment to the host being
// the caller's step. Replacement patches inherit the old node's parent and
// need no such step.
func (p *Patcher) Patch(old, vnode *VNode) Node {
	if vnode == nil {
		if old != nil {
			p.removeVnodes([]*VNode{old}, 0, 0)
		}
		return nil
	}

	var inserted []*VNode
	switch {
	case old == nil:
		p.createElm(vnode, &inserted, nil, nil)
	case sameVnode(old, vnode):
		p.patchVnode(old, vnode, &inserted)
	default:
		// Not the same node: build the new subtree in place, then drop the
		// old one.
		parent := p.ops.Parent(old.Elm)
		p.createElm(vnode, &inserted, parent, old.Elm)
		p.removeVnodes([]*VNode{old}, 0, 0)
	}
	for _, v := range inserted {
		v.Hooks.Insert(v)
	}
	return vnode.Elm
}

// createElm builds the live subtree for v bottom-up and inserts it before
// ref under parent. Create hooks fire once a node's subtree exists; insert
// hooks are queued and fire bottom-up after the full tree is attached.
func (p *Patcher) createElm(v *VNode, inserted *[]*VNode, parent, ref Node) {
	if v.IsText() {
		v.Elm = p.ops.CreateText(v.Text)
		p.insert(parent, v.Elm, ref)
		return
	}
	v.Elm = p.ops.CreateElement(v.Tag)
	for _, child := range v.Children {
		p.createElm(child, inserted, v.Elm, nil)
	}
	if len(v.Children) == 0 && v.Text != "" {
		p.ops.SetText(v.Elm, v.Text)
	}
	p.updateAttrs(nil, v)
	p.updateClass(nil, v)
	p.updateStyle(nil, v)
	p.updateListeners(nil, v)
	if v.Hooks != nil {
		if v.Hooks.Create != nil {
			v.Hooks.Create(v)
		}
		if v.Hooks.Insert != nil {
			*inserted = append(*inserted, v)
		}
	}
	p.insert(parent, v.Elm, ref)
}

func (p *Patcher) insert(parent, n, ref Node) {
	if parent != nil {
		p.ops.InsertBefore(parent, n, ref)
	}
}

// patchVnode updates the live node both vnodes describe.
func (p *Patcher) patchVnode(old, v *VNode, inserted *[]*VNode) {
	if old == v {
		return
	}
	v.Elm = old.Elm
	elm := v.Elm

	// Static subtrees share their description across renders and
	// render-once subtrees never change after first render; both reuse the
	// live node untouched.
	if v.Key == old.Key && ((v.Static && old.Static) || (v.Once && old.Once)) {
		v.invokers = old.invokers
		return
	}

	if v.Hooks != nil && v.Hooks.Prepatch != nil {
		v.Hooks.Prepatch(old, v)
	}

	p.updateAttrs(old, v)
	p.updateClass(old, v)
	p.updateStyle(old, v)
	p.updateListeners(old, v)

	if v.IsText() {
		if old.Text != v.Text {
			p.ops.SetText(elm, v.Text)
		}
	} else {
		oldCh, newCh := old.Children, v.Children
		switch {
		case len(oldCh) > 0 && len(newCh) > 0:
			p.updateChildren(elm, oldCh, newCh, inserted)
			if old.Text != "" && v.Text != "" && old.Text != v.Text {
				p.ops.SetText(elm, v.Text)
			}
		case len(newCh) > 0:
			if old.Text != "" {
				p.ops.SetText(elm, "")
			}
			p.addVnodes(elm, nil, newCh, 0, len(newCh)-1, inserted)
		case len(oldCh) > 0:
			p.removeVnodes(oldCh, 0, len(oldCh)-1)
		case old.Text != v.Text:
			p.ops.SetText(elm, v.Text)
		}
	}

	if v.Hooks != nil && v.Hooks.Postpatch != nil {
		v.Hooks.Postpatch(old, v)
	}
}

// updateChildren is the four-pointer two-ended list reconciliation. The
// in-order checks cover no-reorder, append, prepend, and single moves in
// O(1) per step; only genuinely scrambled orderings pay for the lazily
// built key index.
func (p *Patcher) updateChildren(parent Node, oldCh, newCh []*VNode, inserted *[]*VNode) {
	oldStartIdx, newStartIdx := 0, 0
	oldEndIdx, newEndIdx := len(oldCh)-1, len(newCh)-1
	var keyToOldIdx map[string]int

	for oldStartIdx <= oldEndIdx && newStartIdx <= newEndIdx {
		oldStart, oldEnd := oldCh[oldStartIdx], oldCh[oldEndIdx]
		newStart, newEnd := newCh[newStartIdx], newCh[newEndIdx]
		switch {
		case oldStart == nil:
			// Hole left by a keyed move.
			oldStartIdx++
		case oldEnd == nil:
			oldEndIdx--
		case sameVnode(oldStart, newStart):
			p.patchVnode(oldStart, newStart, inserted)
			oldStartIdx++
			newStartIdx++
		case sameVnode(oldEnd, newEnd):
			p.patchVnode(oldEnd, newEnd, inserted)
			oldEndIdx--
			newEndIdx--
		case sameVnode(oldStart, newEnd):
			// Element moved right.
			p.patchVnode(oldStart, newEnd, inserted)
			p.ops.InsertBefore(parent, oldStart.Elm, p.ops.NextSibling(oldEnd.Elm))
			oldStartIdx++
			newEndIdx--
		case sameVnode(oldEnd, newStart):
			// Element moved left.
			p.patchVnode(oldEnd, newStart, inserted)
			p.ops.InsertBefore(parent, oldEnd.Elm, oldStart.Elm)
			oldEndIdx--
			newStartIdx++
		default:
			if keyToOldIdx == nil {
				keyToOldIdx = buildKeyIndex(oldCh, oldStartIdx, oldEndIdx)
			}
			idxInOld := -1
			if newStart.Key != "" {
				if idx, ok := keyToOldIdx[newStart.Key]; ok {
					idxInOld = idx
				}
			} else {
				idxInOld = findUnkeyed(oldCh, newStart, oldStartIdx, oldEndIdx)
			}
			if idxInOld < 0 {
				p.createElm(newStart, inserted, parent, oldStart.Elm)
			} else {
				moved := oldCh[idxInOld]
				if sameVnode(moved, newStart) {
					p.patchVnode(moved, newStart, inserted)
					oldCh[idxInOld] = nil
					p.ops.InsertBefore(parent, moved.Elm, oldStart.Elm)
				} else {
					// Same key but a different type: brand new.
					p.createElm(newStart, inserted, parent, oldStart.Elm)
				}
			}
			newStartIdx++
		}
	}

	if oldStartIdx > oldEndIdx {
		var ref Node
		if newEndIdx+1 < len(newCh) {
			ref = newCh[newEndIdx+1].Elm
		}
		p.addVnodes(parent, ref, newCh, newStartIdx, newEndIdx, inserted)
	} else if newStartIdx > newEndIdx {
		p.removeVnodes(oldCh, oldStartIdx, oldEndIdx)
	}
}

func buildKeyIndex(children []*VNode, start, end int) map[string]int {
	index := make(map[string]int, end-start+1)
	for i := start; i <= end; i++ {
		if child := children[i]; child != nil && child.Key != "" {
			index[child.Key] = i
		}
	}
	return index
}

func findUnkeyed(children []*VNode, target *VNode, start, end int) int {
	for i := start; i <= end; i++ {
		if child := children[i]; child != nil && child.Key == "" && sameVnode(child, target) {
			return i
		}
	}
	return -1
}

func (p *Patcher) addVnodes(parent, ref Node, vnodes []*VNode, start, end int, inserted *[]*VNode) {
	for i := start; i <= end; i++ {
		p.createElm(vnodes[i], inserted, parent, ref)
	}
}

func (p *Patcher) removeVnodes(vnodes []*VNode, start, end int) {
	for i := start; i <= end; i++ {
		v := vnodes[i]
		if v == nil {
			continue
		}
		if !v.IsText() {
			p.invokeDestroyHook(v)
		}
		p.removeNode(v.Elm)
	}
}

// invokeDestroyHook fires destroy hooks top-down over the subtree.
func (p *Patcher) invokeDestroyHook(v *VNode) {
	if v.Hooks != nil && v.Hooks.Destroy != nil {
		v.Hooks.Destroy(v)
	}
	for _, child := range v.Children {
		if child != nil && !child.IsText() {
			p.invokeDestroyHook(child)
		}
	}
}

func (p *Patcher) removeNode(elm Node) {
	if elm == nil {
		return
	}
	if parent := p.ops.Parent(elm); parent != nil {
		p.ops.RemoveChild(parent, elm)
	}
}

func (p *Patcher) updateAttrs(old, v *VNode) {
	var oldAttrs map[string]string
	if old != nil {
		oldAttrs = old.Attrs
	}
	for key := range oldAttrs {
		if _, ok := v.Attrs[key]; !ok {
			p.ops.RemoveAttribute(v.Elm, key)
		}
	}
	for key, value := range v.Attrs {
		if prev, ok := oldAttrs[key]; !ok || prev != value {
			p.ops.SetAttribute(v.Elm, key, value)
		}
	}
}

func (p *Patcher) updateClass(old, v *VNode) {
	var oldClass map[string]bool
	if old != nil {
		oldClass = old.Class
	}
	for class, on := range oldClass {
		if on && !v.Class[class] {
			p.ops.RemoveClass(v.Elm, class)
		}
	}
	for class, on := range v.Class {
		if on && !oldClass[class] {
			p.ops.AddClass(v.Elm, class)
		}
	}
}

func (p *Patcher) updateStyle(old, v *VNode) {
	var oldStyle map[string]string
	if old != nil {
		oldStyle = old.Style
	}
	for prop := range oldStyle {
		if _, ok := v.Style[prop]; !ok {
			p.ops.RemoveStyle(v.Elm, prop)
		}
	}
	for prop, value := range v.Style {
		if prev, ok := oldStyle[prop]; !ok || prev != value {
			p.ops.SetStyle(v.Elm, prop, value)
		}
	}
}

// updateListeners rebinds through stable invokers: swapping a handler for
// an event already bound touches no platform state.
func (p *Patcher) updateListeners(old, v *VNode) {
	var oldInvokers map[string]*invoker
	if old != nil {
		oldInvokers = old.invokers
	}
	for event := range oldInvokers {
		if _, ok := v.On[event]; !ok {
			p.ops.RemoveListener(v.Elm, event)
		}
	}
	if len(v.On) > 0 && v.invokers == nil {
		v.invokers = make(map[string]*invoker, len(v.On))
	}
	for event, handler := range v.On {
		if iv, ok := oldInvokers[event]; ok {
			iv.fn = handler
			v.invokers[event] = iv
			continue
		}
		iv := &invoker{fn: handler}
		v.invokers[event] = iv
		p.ops.AddListener(v.Elm, event, iv.invoke)
	}
}
