package component

import "github.com/sipa-dev/sipa/pkg/vdom"

// resolveSlots routes the slot content of the instance into the insertion
// points of root. Named points are filled first, in template order, with
// every content element whose slot attribute matches. The first default
// point then receives the remaining unmarked nodes in source order. Points
// left without content disappear, as do extra default points. Content
// addressed to a name the template does not declare is dropped.
func (i *Instance) resolveSlots(root *vdom.VNode) {
	points := vdom.FindAll(root, func(n *vdom.VNode) bool {
		return n.IsElement("slot")
	}, i.engine.isComponent)
	if len(points) == 0 {
		return
	}

	content := make([]*vdom.VNode, 0, len(i.declared)+len(i.programmed))
	for _, n := range i.declared {
		content = append(content, n.Clone())
	}
	for _, n := range i.programmed {
		content = append(content, n.Clone())
	}

	var defaults []*vdom.VNode
	for _, p := range points {
		name, _ := p.Attr("name")
		if name == "" {
			defaults = append(defaults, p)
			continue
		}
		var fill []*vdom.VNode
		for _, c := range content {
			if c.Parent != nil || !c.IsElement() {
				continue
			}
			if target, ok := c.Attr(AttrSlot); ok && target == name {
				fill = append(fill, c)
			}
		}
		p.ReplaceWith(fill...)
	}

	if len(defaults) == 0 {
		return
	}
	var fill []*vdom.VNode
	for _, c := range content {
		if c.Parent != nil {
			continue
		}
		if _, marked := c.Attr(AttrSlot); marked && c.IsElement() {
			continue
		}
		fill = append(fill, c)
	}
	defaults[0].ReplaceWith(fill...)
	for _, d := range defaults[1:] {
		d.Remove()
	}
}
