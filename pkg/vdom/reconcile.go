package vdom

// Reconcile patches live in place so that it matches next, and returns the
// operations applied. live keeps its identity (pointer, parent, owner); next
// is consumed and must not be used afterwards.
//
// Children are matched position by position. At each position:
//   - a node with an Owner is taken from next as is (a component root that is
//     already live is simply kept, a moved or new one is swapped in);
//   - an unowned live node of the same kind and tag is patched recursively;
//   - anything else is replaced by the node from next.
func Reconcile(live, next *VNode) []Patch {
	var patches []Patch
	reconcileNode(live, next, &patches)
	return patches
}

func reconcileNode(live, next *VNode, patches *[]Patch) {
	if live.Kind == KindText {
		if live.Text != next.Text {
			live.Text = next.Text
			*patches = append(*patches, Patch{Op: PatchSetText, Target: live, Value: next.Text})
		}
		return
	}
	reconcileProps(live, next, patches)
	reconcileChildren(live, next, patches)
}

// reconcileProps compares and patches attributes.
func reconcileProps(live, next *VNode, patches *[]Patch) {
	for _, key := range live.AttrKeys() {
		if _, exists := next.Props[key]; !exists {
			delete(live.Props, key)
			*patches = append(*patches, Patch{Op: PatchRemoveAttr, Target: live, Key: key})
		}
	}
	for _, key := range next.AttrKeys() {
		nextVal := next.Props[key]
		prevVal, exists := live.Props[key]
		if !exists || !propsEqual(prevVal, nextVal) {
			live.SetAttr(key, nextVal)
			*patches = append(*patches, Patch{
				Op:     PatchSetAttr,
				Target: live,
				Key:    key,
				Value:  PropString(nextVal),
			})
		}
	}
}

// sameShape reports whether prev can be patched into next instead of replaced.
func sameShape(prev, next *VNode) bool {
	if prev.Owner != nil || next.Owner != nil {
		return false
	}
	if prev.Kind != next.Kind {
		return false
	}
	return prev.Kind != KindElement || prev.Tag == next.Tag
}

// reconcileChildren rebuilds live's child list from next's, reusing live
// children where the shape allows.
func reconcileChildren(live, next *VNode, patches *[]Patch) {
	prev := live.Children
	incoming := append([]*VNode(nil), next.Children...)
	result := make([]*VNode, 0, len(incoming))
	reused := make(map[*VNode]bool, len(prev))

	// Nodes that reappear (owned roots) must not be reported as removed.
	kept := make(map[*VNode]bool, len(incoming))
	for _, n := range incoming {
		kept[n] = true
	}

	for i, nextChild := range incoming {
		var prevChild *VNode
		if i < len(prev) {
			prevChild = prev[i]
		}

		switch {
		case prevChild == nextChild:
			result = append(result, prevChild)
		case prevChild != nil && sameShape(prevChild, nextChild):
			reconcileNode(prevChild, nextChild, patches)
			result = append(result, prevChild)
			reused[prevChild] = true
		case prevChild == nil:
			result = append(result, nextChild)
			*patches = append(*patches, Patch{Op: PatchInsertNode, Target: live, Node: nextChild, Index: i})
		default:
			result = append(result, nextChild)
			*patches = append(*patches, Patch{Op: PatchReplaceNode, Target: prevChild, Node: nextChild, Index: i})
		}
	}

	for i := len(incoming); i < len(prev); i++ {
		if !kept[prev[i]] {
			*patches = append(*patches, Patch{Op: PatchRemoveNode, Target: live, Node: prev[i], Index: i})
		}
	}

	// Detach dropped live children, then adopt the result.
	inResult := make(map[*VNode]bool, len(result))
	for _, n := range result {
		inResult[n] = true
	}
	for _, old := range prev {
		if !inResult[old] && old.Parent == live {
			old.Parent = nil
		}
	}
	live.Children = nil
	for _, c := range result {
		if c.Parent != nil && c.Parent != live {
			c.Remove()
		}
		c.Parent = live
		live.Children = append(live.Children, c)
		if c.Owner == nil && !reused[c] {
			Adopt(c)
		}
	}
}
